// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/dockerino/dockerino/internal/engineapi"
	"github.com/dockerino/dockerino/internal/issue"
	"github.com/dockerino/dockerino/internal/query"
)

type buildFlags struct {
	tag        string
	dockerfile string
	noCache    bool
	pull       bool
	quiet      bool
	forceRm    bool
	squash     bool
	platform   string
	target     string
	network    string
	memory     string
	shmSize    string
	cacheFrom  []string
	buildArgs  []string
	labels     []string
}

func newImagesBuildCommand(app *App) *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build DIR",
		Short: "Build an image from a directory",
		Example: `  dockerino images build . -t app:dev
  dockerino images build ./svc -f Dockerfile.prod --build-arg VERSION=1.2 --label team=core`,
		Args: cobra.ExactArgs(1),
		RunE: app.run(func(cmd *cobra.Command, args []string) error {
			params, err := flags.params(cmd)
			if err != nil {
				return err
			}

			var out string
			err = app.withImages(func(svc ImageService) error {
				var buildErr error
				out, buildErr = svc.Build(cmd.Context(), args[0], params)
				return buildErr
			})
			if err != nil {
				return buildError(err, args[0])
			}
			fmt.Fprint(app.stdout, out)
			return nil
		}),
	}

	f := cmd.Flags()
	f.StringVarP(&flags.tag, "tag", "t", "", "name and optionally a tag (name:tag)")
	f.StringVarP(&flags.dockerfile, "file", "f", "", "Dockerfile path inside the context (default \"Dockerfile\")")
	f.BoolVar(&flags.noCache, "no-cache", false, "do not use cache when building")
	f.BoolVar(&flags.pull, "pull", false, "always attempt to pull newer base images")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "suppress the build output")
	f.BoolVar(&flags.forceRm, "force-rm", false, "always remove intermediate containers")
	f.BoolVar(&flags.squash, "squash", false, "squash new layers into one")
	f.StringVar(&flags.platform, "platform", "", "target platform (os/arch[/variant])")
	f.StringVar(&flags.target, "target", "", "build stage to stop at")
	f.StringVar(&flags.network, "network", "", "networking mode for RUN instructions")
	f.StringVarP(&flags.memory, "memory", "m", "", "memory limit (e.g. 512m, 2g)")
	f.StringVar(&flags.shmSize, "shm-size", "", "size of /dev/shm (e.g. 64m)")
	f.StringArrayVar(&flags.cacheFrom, "cache-from", nil, "images to consider as cache sources")
	f.StringArrayVar(&flags.buildArgs, "build-arg", nil, "build-time variable (KEY=VALUE, repeatable)")
	f.StringArrayVar(&flags.labels, "label", nil, "image label (KEY=VALUE, repeatable)")

	return cmd
}

// params translates the flags that were actually given into build
// parameters, in flag declaration order.
func (b *buildFlags) params(cmd *cobra.Command) (query.BuildParams, error) {
	changed := cmd.Flags().Changed
	p := query.NewBuildParamsBuilder()

	if changed("file") {
		p.Dockerfile(b.dockerfile)
	}
	if changed("tag") {
		p.Tag(b.tag)
	}
	if changed("quiet") {
		p.Quiet(b.quiet)
	}
	if changed("no-cache") {
		p.NoCache(b.noCache)
	}
	if changed("cache-from") {
		p.CacheFrom(b.cacheFrom...)
	}
	if changed("pull") {
		p.Pull(b.pull)
	}
	if changed("force-rm") {
		p.ForceRemove(b.forceRm)
	}
	if changed("memory") {
		n, err := units.RAMInBytes(b.memory)
		if err != nil {
			return query.BuildParams{}, invalidFlag("memory", b.memory, err)
		}
		p.Memory(n)
	}
	if changed("build-arg") {
		args, err := parseKeyValues("build-arg", b.buildArgs)
		if err != nil {
			return query.BuildParams{}, err
		}
		p.BuildArgs(args)
	}
	if changed("shm-size") {
		n, err := units.RAMInBytes(b.shmSize)
		if err != nil {
			return query.BuildParams{}, invalidFlag("shm-size", b.shmSize, err)
		}
		p.ShmSize(n)
	}
	if changed("squash") {
		p.Squash(b.squash)
	}
	if changed("label") {
		labels, err := parseKeyValues("label", b.labels)
		if err != nil {
			return query.BuildParams{}, err
		}
		p.Labels(labels)
	}
	if changed("network") {
		p.NetworkMode(b.network)
	}
	if changed("platform") {
		p.Platform(b.platform)
	}
	if changed("target") {
		p.Target(b.target)
	}

	return p.Build(), nil
}

// parseKeyValues parses KEY=VALUE flag values. Later keys win.
func parseKeyValues(flag string, values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, kv := range values {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, invalidFlag(flag, kv, errors.New("expected KEY=VALUE"))
		}
		out[key] = value
	}
	return out, nil
}

func invalidFlag(flag, value string, err error) error {
	return issue.NewErrorContext().
		WithOperation("parse --" + flag).
		WithResource(value).
		Wrap(err).
		BuildError()
}

// buildError attributes failures outside the engine error taxonomy to the
// build context archiver.
func buildError(err error, dir string) error {
	if _, ok := engineapi.KindOf(err); !ok {
		return issue.NewErrorContext().
			WithOperation("package build context").
			WithResource(dir).
			WithSuggestion("Check that the directory exists and is readable").
			WithSuggestion("Exclude unreadable paths with a .dockerignore file").
			WithIssue(issue.BuildContextFailedId).
			Wrap(err).
			BuildError()
	}
	return issue.FromEngineError(err, "build image", dir)
}
