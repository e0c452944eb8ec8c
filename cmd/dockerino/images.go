// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	digest "github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dockerino/dockerino/internal/config"
	"github.com/dockerino/dockerino/internal/images"
	"github.com/dockerino/dockerino/internal/issue"
	"github.com/dockerino/dockerino/internal/query"
)

// maxConcurrentCalls bounds the engine calls issued by multi-image commands.
const maxConcurrentCalls = 4

// errPartialFailure reports that some images of a multi-image command failed.
// Each failure has already been printed.
var errPartialFailure = errors.New("one or more images failed")

// newImagesCommand creates the `dockerino images` command tree.
func newImagesCommand(app *App) *cobra.Command {
	imagesCmd := &cobra.Command{
		Use:     "images",
		Aliases: []string{"image"},
		Short:   "Manage images",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	imagesCmd.AddCommand(
		newImagesListCommand(app),
		newImagesInspectCommand(app),
		newImagesHistoryCommand(app),
		newImagesRemoveCommand(app),
		newImagesTagCommand(app),
		newImagesSaveCommand(app),
		newImagesLoadCommand(app),
		newImagesPushCommand(app),
		newImagesBuildCommand(app),
	)

	return imagesCmd
}

func newImagesListCommand(app *App) *cobra.Command {
	var (
		all      bool
		dangling bool
		quiet    bool
		filters  []string
	)

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List images",
		Example: `  dockerino images ls
  dockerino images ls --filter reference='alpine*' --filter label=env=prod
  dockerino images ls --dangling -q`,
		Args: cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			if dangling {
				filters = append(filters, string(query.FilterDangling)+"=true")
			}
			f, err := query.ParseFilterArgs(filters)
			if err != nil {
				return issue.FromEngineError(err, "parse filters", "")
			}

			var list []images.Summary
			err = app.withImages(func(svc ImageService) error {
				list, err = svc.List(cmd.Context(), images.ListOptions{All: all, Filters: f})
				return err
			})
			if err != nil {
				return issue.FromEngineError(err, "list images", "")
			}

			if quiet {
				for _, img := range list {
					fmt.Fprintln(app.stdout, images.ShortID(img.ID))
				}
				return nil
			}
			if app.output() != config.OutputTable {
				return writeStructured(app.stdout, app.output(), "images", list)
			}
			writeTable(app.stdout, []string{"REPOSITORY", "TAG", "IMAGE ID", "CREATED", "SIZE"}, imageRows(list, time.Now()))
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "show intermediate images")
	cmd.Flags().BoolVar(&dangling, "dangling", false, "only show untagged images")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only show image IDs")
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter output (key=value, repeatable)")

	return cmd
}

// imageRows expands every repo tag of every image into its own row.
func imageRows(list []images.Summary, now time.Time) [][]string {
	rows := make([][]string, 0, len(list))
	for _, img := range list {
		id := images.ShortID(img.ID)
		created := humanAge(img.Created, now)
		size := humanSize(img.Size)

		if len(img.RepoTags) == 0 {
			rows = append(rows, []string{none, none, id, created, size})
			continue
		}
		for _, ref := range img.RepoTags {
			repo, tag := splitRepoTag(ref)
			rows = append(rows, []string{orNone(repo), orNone(tag), id, created, size})
		}
	}
	return rows
}

func newImagesInspectCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect IMAGE...",
		Short: "Show detailed information on one or more images",
		Args:  cobra.MinimumNArgs(1),
		RunE: app.run(func(cmd *cobra.Command, args []string) error {
			var (
				details []*images.Details
				failed  bool
			)
			err := app.withImages(func(svc ImageService) error {
				results := make([]*images.Details, len(args))
				errs := forEachImage(cmd.Context(), args, func(ctx context.Context, i int, name string) error {
					d, err := svc.Inspect(ctx, name)
					results[i] = d
					return err
				})
				for i, err := range errs {
					if err != nil {
						failed = true
						renderError(app.stderr, issue.FromEngineError(err, "inspect image", args[i]), app.verbose())
						continue
					}
					details = append(details, results[i])
				}
				return nil
			})
			if err != nil {
				return err
			}

			if len(details) > 0 {
				if err := writeStructured(app.stdout, app.output(), "images", details); err != nil {
					return err
				}
			}
			return partialFailure(failed)
		}),
	}
}

func newImagesHistoryCommand(app *App) *cobra.Command {
	var noTrunc bool

	cmd := &cobra.Command{
		Use:   "history IMAGE",
		Short: "Show the layer history of an image",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(cmd *cobra.Command, args []string) error {
			var history []images.HistoryEntry
			err := app.withImages(func(svc ImageService) error {
				var err error
				history, err = svc.History(cmd.Context(), args[0])
				return err
			})
			if err != nil {
				return issue.FromEngineError(err, "show image history", args[0])
			}

			if app.output() != config.OutputTable {
				return writeStructured(app.stdout, app.output(), "history", history)
			}

			now := time.Now()
			rows := make([][]string, 0, len(history))
			for _, h := range history {
				createdBy := h.CreatedBy
				if !noTrunc {
					createdBy = truncate(createdBy, 45)
				}
				id := h.ID
				if id != "<missing>" {
					id = images.ShortID(digest.Digest(id))
				}
				rows = append(rows, []string{id, humanAge(h.Created, now), createdBy, humanSize(h.Size), h.Comment})
			}
			writeTable(app.stdout, []string{"IMAGE", "CREATED", "CREATED BY", "SIZE", "COMMENT"}, rows)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&noTrunc, "no-trunc", false, "don't truncate output")

	return cmd
}

func newImagesRemoveCommand(app *App) *cobra.Command {
	var opts images.DeleteOptions

	cmd := &cobra.Command{
		Use:     "rm IMAGE...",
		Aliases: []string{"remove"},
		Short:   "Remove one or more images",
		Args:    cobra.MinimumNArgs(1),
		RunE: app.run(func(cmd *cobra.Command, args []string) error {
			var failed bool
			err := app.withImages(func(svc ImageService) error {
				results := make([][]images.DeleteResponse, len(args))
				errs := forEachImage(cmd.Context(), args, func(ctx context.Context, i int, name string) error {
					resp, err := svc.Delete(ctx, name, opts)
					results[i] = resp
					return err
				})
				for i, err := range errs {
					if err != nil {
						failed = true
						renderError(app.stderr, issue.FromEngineError(err, "remove image", args[i]), app.verbose())
						continue
					}
					for _, r := range results[i] {
						if r.Untagged != "" {
							fmt.Fprintf(app.stdout, "Untagged: %s\n", r.Untagged)
						}
						if r.Deleted != "" {
							fmt.Fprintf(app.stdout, "Deleted: %s\n", r.Deleted)
						}
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			return partialFailure(failed)
		}),
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "remove the image even if it is in use")
	cmd.Flags().BoolVar(&opts.NoPrune, "no-prune", false, "do not delete untagged parents")

	return cmd
}

func newImagesTagCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tag SOURCE TARGET[:TAG]",
		Short: "Create a tag TARGET that refers to SOURCE",
		Args:  cobra.ExactArgs(2),
		RunE: app.run(func(cmd *cobra.Command, args []string) error {
			repo, tag := splitRepoTag(args[1])
			err := app.withImages(func(svc ImageService) error {
				return svc.Tag(cmd.Context(), args[0], repo, tag)
			})
			if err != nil {
				return issue.FromEngineError(err, "tag image", args[0])
			}
			return nil
		}),
	}
}

func newImagesSaveCommand(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "save IMAGE",
		Short: "Save an image to a tar archive (stdout by default)",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(cmd *cobra.Command, args []string) (err error) {
			var w io.Writer = app.stdout
			if file != "" {
				f, createErr := os.Create(file)
				if createErr != nil {
					return issue.NewErrorContext().
						WithOperation("create archive").
						WithResource(file).
						Wrap(createErr).
						BuildError()
				}
				defer func() {
					if closeErr := f.Close(); closeErr != nil && err == nil {
						err = fmt.Errorf("close %s: %w", file, closeErr)
					}
				}()
				w = f
			}

			var n int64
			err = app.withImages(func(svc ImageService) error {
				var exportErr error
				n, exportErr = svc.Export(cmd.Context(), args[0], w)
				return exportErr
			})
			if err != nil {
				if file != "" {
					_ = os.Remove(file)
				}
				return issue.FromEngineError(err, "save image", args[0])
			}
			app.session.logger.Debug("Image saved", "image", args[0], "bytes", n)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "write to a file instead of stdout")

	return cmd
}

func newImagesLoadCommand(app *App) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load images from a tar archive (stdin by default)",
		Args:  cobra.NoArgs,
		RunE: app.run(func(cmd *cobra.Command, _ []string) error {
			r := app.stdin
			if input != "" {
				f, err := os.Open(input)
				if err != nil {
					return issue.NewErrorContext().
						WithOperation("open archive").
						WithResource(input).
						Wrap(err).
						BuildError()
				}
				defer f.Close()
				r = f
			}

			var out string
			err := app.withImages(func(svc ImageService) error {
				var err error
				out, err = svc.Import(cmd.Context(), r)
				return err
			})
			if err != nil {
				return issue.FromEngineError(err, "load images", input)
			}
			fmt.Fprint(app.stdout, out)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "read from a file instead of stdin")

	return cmd
}

func newImagesPushCommand(app *App) *cobra.Command {
	var opts images.PushOptions

	cmd := &cobra.Command{
		Use:   "push IMAGE",
		Short: "Push an image to a registry",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(cmd *cobra.Command, args []string) error {
			if opts.ServerAddress == "" {
				opts.ServerAddress = app.session.cfg.Registry.ServerAddress
			}

			var out string
			err := app.withImages(func(svc ImageService) error {
				var err error
				out, err = svc.Push(cmd.Context(), args[0], opts)
				return err
			})
			if err != nil {
				return issue.FromEngineError(err, "push image", args[0])
			}
			fmt.Fprint(app.stdout, out)
			return nil
		}),
	}

	cmd.Flags().StringVar(&opts.Tag, "tag", "", "push only this tag")
	cmd.Flags().StringVar(&opts.ServerAddress, "server", "", "registry server address (default from registry.server_address)")

	return cmd
}

// forEachImage calls fn for every name with bounded concurrency and returns
// the per-name errors in argument order.
func forEachImage(ctx context.Context, names []string, fn func(ctx context.Context, i int, name string) error) []error {
	errs := make([]error, len(names))

	var g errgroup.Group
	g.SetLimit(maxConcurrentCalls)
	for i, name := range names {
		g.Go(func() error {
			errs[i] = fn(ctx, i, name)
			return nil
		})
	}
	_ = g.Wait()

	return errs
}

func partialFailure(failed bool) error {
	if !failed {
		return nil
	}
	return &ExitError{Code: ExitFailure, Err: errPartialFailure, rendered: true}
}
