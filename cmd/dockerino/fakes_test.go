// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/dockerino/dockerino/internal/config"
	"github.com/dockerino/dockerino/internal/engineapi"
	"github.com/dockerino/dockerino/internal/images"
	"github.com/dockerino/dockerino/internal/query"
)

type (
	fakeConfig struct {
		loaded *config.Loaded
		err    error
	}

	// fakeImages records calls and serves canned results keyed by image name.
	fakeImages struct {
		mu sync.Mutex

		summaries []images.Summary
		details   map[string]*images.Details
		history   []images.HistoryEntry
		deleted   map[string][]images.DeleteResponse
		results   []images.SearchResult
		output    string
		err       error

		listOpts    images.ListOptions
		deleteOpts  images.DeleteOptions
		tagged      [3]string
		exported    string
		imported    string
		pushed      string
		pushOpts    images.PushOptions
		buildDir    string
		buildParams query.BuildParams
		searchTerm  string
		searchOpts  images.SearchOptions
	}

	cliResult struct {
		stdout string
		stderr string
		err    error
	}
)

func (f fakeConfig) Load(context.Context, config.LoadOptions) (*config.Loaded, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.loaded, nil
}

func notFound(name string) error {
	return &engineapi.APIError{StatusCode: http.StatusNotFound, Message: "No such image: " + name}
}

func (f *fakeImages) List(_ context.Context, opts images.ListOptions) ([]images.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listOpts = opts
	return f.summaries, f.err
}

func (f *fakeImages) Inspect(_ context.Context, name string) (*images.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[name]
	if !ok {
		return nil, notFound(name)
	}
	return d, nil
}

func (f *fakeImages) History(_ context.Context, name string) ([]images.HistoryEntry, error) {
	return f.history, f.err
}

func (f *fakeImages) Delete(_ context.Context, name string, opts images.DeleteOptions) ([]images.DeleteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteOpts = opts
	resp, ok := f.deleted[name]
	if !ok {
		return nil, notFound(name)
	}
	return resp, nil
}

func (f *fakeImages) Tag(_ context.Context, name, repo, tag string) error {
	f.tagged = [3]string{name, repo, tag}
	return f.err
}

func (f *fakeImages) Export(_ context.Context, name string, w io.Writer) (int64, error) {
	f.exported = name
	if f.err != nil {
		return 0, f.err
	}
	n, err := io.Copy(w, strings.NewReader(f.output))
	return n, err
}

func (f *fakeImages) Import(_ context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.imported = string(data)
	return f.output, f.err
}

func (f *fakeImages) Push(_ context.Context, name string, opts images.PushOptions) (string, error) {
	f.pushed, f.pushOpts = name, opts
	return f.output, f.err
}

func (f *fakeImages) Build(_ context.Context, dir string, params query.BuildParams) (string, error) {
	f.buildDir, f.buildParams = dir, params
	return f.output, f.err
}

func (f *fakeImages) Search(_ context.Context, term string, opts images.SearchOptions) ([]images.SearchResult, error) {
	f.searchTerm, f.searchOpts = term, opts
	return f.results, f.err
}

// runCLI executes the command tree against svc with cfg as the loaded config.
func runCLI(t *testing.T, svc ImageService, cfg *config.Config, args ...string) cliResult {
	t.Helper()
	return runCLIWith(t, Dependencies{
		Config: fakeConfig{loaded: &config.Loaded{Config: cfg}},
		Images: fixedImages(svc),
	}, args...)
}

func runCLIWith(t *testing.T, deps Dependencies, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	deps.Stdout = &stdout
	deps.Stderr = &stderr
	if deps.Stdin == nil {
		deps.Stdin = strings.NewReader("")
	}

	root := NewRootCommand(NewApp(deps))
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())

	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func fixedImages(svc ImageService) ImageServiceFactory {
	return func(*config.Config, *log.Logger) (ImageService, func()) {
		return svc, func() {}
	}
}
