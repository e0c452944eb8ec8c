// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/dockerino/dockerino/internal/config"
	"github.com/dockerino/dockerino/internal/engineapi"
	"github.com/dockerino/dockerino/internal/images"
	"github.com/dockerino/dockerino/internal/query"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Loaded, error)
	}

	// ImageService is the image API surface the commands use. *images.Service
	// implements it.
	ImageService interface {
		List(ctx context.Context, opts images.ListOptions) ([]images.Summary, error)
		Inspect(ctx context.Context, name string) (*images.Details, error)
		History(ctx context.Context, name string) ([]images.HistoryEntry, error)
		Delete(ctx context.Context, name string, opts images.DeleteOptions) ([]images.DeleteResponse, error)
		Tag(ctx context.Context, name, repo, tag string) error
		Export(ctx context.Context, name string, w io.Writer) (int64, error)
		Import(ctx context.Context, r io.Reader) (string, error)
		Push(ctx context.Context, name string, opts images.PushOptions) (string, error)
		Build(ctx context.Context, contextDir string, params query.BuildParams) (string, error)
		Search(ctx context.Context, term string, opts images.SearchOptions) ([]images.SearchResult, error)
	}

	// ImageServiceFactory connects an ImageService for the effective
	// configuration. The returned func releases its connections.
	ImageServiceFactory func(cfg *config.Config, logger *log.Logger) (ImageService, func())

	// App wires CLI services and shared dependencies. Command handlers receive
	// an App and reach the engine only through its factories.
	App struct {
		Config ConfigProvider
		Images ImageServiceFactory
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer

		// session is populated by the root command before any handler runs.
		session *session
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Images ImageServiceFactory
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// session is the per-invocation state derived from config and flags.
	session struct {
		cfg     *config.Config
		cfgPath string
		logger  *log.Logger
		verbose bool
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Images == nil {
		deps.Images = newImageService
	}

	return &App{
		Config: deps.Config,
		Images: deps.Images,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// newImageService dials the configured socket through the engine client.
func newImageService(cfg *config.Config, logger *log.Logger) (ImageService, func()) {
	client := engineapi.NewClient(
		cfg.SocketPath.String(),
		engineapi.WithAPIVersion(cfg.APIVersion.String()),
		engineapi.WithMaxIdleConnsPerHost(cfg.MaxIdleConnsPerHost),
	)
	svc := images.NewService(
		client,
		images.WithLogger(logger),
		images.WithCompressionLevel(cfg.Build.CompressionLevel),
	)
	return svc, client.Close
}

// withImages runs fn against a freshly connected ImageService.
func (a *App) withImages(fn func(svc ImageService) error) error {
	svc, closeFn := a.Images(a.session.cfg, a.session.logger)
	defer closeFn()
	return fn(svc)
}

func (a *App) output() config.OutputFormat {
	if a.session == nil {
		return config.OutputTable
	}
	return a.session.cfg.Output
}

func (a *App) verbose() bool {
	return a.session != nil && a.session.verbose
}
