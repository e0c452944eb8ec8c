// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	EngineUnreachableId Id = iota + 1
	EngineTransportFailedId
	ImageNotFoundId
	ImageConflictId
	EngineInternalErrorId
	BadRequestId
	ResponseInvalidId
	ConfigLoadFailedId
	BuildContextFailedId
)

const engineAPIDocs HttpLink = "https://docs.docker.com/reference/api/engine/"

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink  // must never be empty
		extLinks []HttpLink  // external links that might be useful for the user
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue as terminal markdown using a glamour style name
// ("auto", "dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range slices.Concat(i.docLinks, i.extLinks) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	engineUnreachableIssue = &Issue{
		id: EngineUnreachableId,
		mdMsg: `
# Cannot reach the container engine!

Nothing answered on the engine socket.

## Things you can try:
- Check that the engine daemon is running:
~~~
$ systemctl status docker
~~~

- Point dockerino at the right socket:
~~~
$ dockerino --socket /run/user/1000/docker.sock images ls
~~~

- Or set it permanently in your config file:
~~~cue
socket_path: "/run/user/1000/docker.sock"
~~~

- Make sure your user can open the socket (for Docker, membership of the ` + "`docker`" + ` group).`,
		docLinks: []HttpLink{engineAPIDocs},
	}

	engineTransportFailedIssue = &Issue{
		id: EngineTransportFailedId,
		mdMsg: `
# The engine connection broke!

The request reached the engine but the exchange did not complete.

## Things you can try:
- Retry the command
- Check the engine daemon logs for restarts or crashes
- Large transfers (save, load, build) can be interrupted by the daemon running out of disk space`,
		docLinks: []HttpLink{engineAPIDocs},
	}

	imageNotFoundIssue = &Issue{
		id: ImageNotFoundId,
		mdMsg: `
# Image not found!

The engine has no image with that name or ID.

## Things you can try:
- List the local images:
~~~
$ dockerino images ls --all
~~~

- Check the tag; a bare name means ` + "`:latest`" + `
- Search a registry for the image:
~~~
$ dockerino search <term>
~~~`,
		docLinks: []HttpLink{engineAPIDocs},
	}

	imageConflictIssue = &Issue{
		id: ImageConflictId,
		mdMsg: `
# Image is in use!

The engine refused the operation because the image is still referenced,
usually by a container or by several tags.

## Things you can try:
- Remove the containers using the image first
- Force the removal:
~~~
$ dockerino images rm --force <image>
~~~`,
		docLinks: []HttpLink{engineAPIDocs},
	}

	engineInternalErrorIssue = &Issue{
		id: EngineInternalErrorId,
		mdMsg: `
# The engine failed internally!

The engine reported a server error while handling the request.

## Things you can try:
- Check the engine daemon logs
- Retry the command once the daemon is healthy
- Run with ` + "`--verbose`" + ` to see the full error chain`,
		docLinks: []HttpLink{engineAPIDocs},
	}

	badRequestIssue = &Issue{
		id: BadRequestId,
		mdMsg: `
# The engine rejected the request!

A parameter was not accepted by the engine.

## Things you can try:
- Check filter keys and values:
~~~
$ dockerino images ls --filter dangling=true
~~~

- Check build options such as ` + "`--platform`" + ` and ` + "`--target`" + `
- Set ` + "`api_version`" + ` to a version your engine supports`,
		docLinks: []HttpLink{engineAPIDocs},
	}

	responseInvalidIssue = &Issue{
		id: ResponseInvalidId,
		mdMsg: `
# Unexpected engine response!

The engine answered with a body dockerino could not read.

## Things you can try:
- Pin the API version in your config file:
~~~cue
api_version: "v1.45"
~~~

- Make sure the socket belongs to a Docker compatible engine`,
		docLinks: []HttpLink{engineAPIDocs},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or did not match the schema.

## Things you can try:
- Show the location dockerino reads:
~~~
$ dockerino config path
~~~

- Recreate a default file and compare:
~~~
$ dockerino config init --config /tmp/dockerino.cue
~~~

- Check DOCKERINO_* environment variables for invalid values`,
		docLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	buildContextFailedIssue = &Issue{
		id: BuildContextFailedId,
		mdMsg: `
# Failed to package the build context!

The build directory could not be archived.

## Things you can try:
- Check that the directory exists and is readable
- Exclude large or unreadable paths with a ` + "`.dockerignore`" + ` file:
~~~
node_modules
*.log
~~~`,
		docLinks: []HttpLink{"https://docs.docker.com/build/concepts/context/#dockerignore-files"},
	}

	issues = map[Id]*Issue{
		engineUnreachableIssue.Id():     engineUnreachableIssue,
		engineTransportFailedIssue.Id(): engineTransportFailedIssue,
		imageNotFoundIssue.Id():         imageNotFoundIssue,
		imageConflictIssue.Id():         imageConflictIssue,
		engineInternalErrorIssue.Id():   engineInternalErrorIssue,
		badRequestIssue.Id():            badRequestIssue,
		responseInvalidIssue.Id():       responseInvalidIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		buildContextFailedIssue.Id():    buildContextFailedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
