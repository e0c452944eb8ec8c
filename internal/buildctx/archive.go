// SPDX-License-Identifier: MPL-2.0

package buildctx

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
)

const (
	// IgnoreFileName is the name of the exclusion file at the context root.
	IgnoreFileName = ".dockerignore"
	// DefaultDockerfile is the Dockerfile path used when none is given.
	DefaultDockerfile = "Dockerfile"
	// DefaultCompressionLevel is the gzip level used when Options leaves it unset.
	DefaultCompressionLevel = gzip.BestCompression
)

// ErrNotDirectory is returned when the build context root is not a directory.
var ErrNotDirectory = errors.New("build context is not a directory")

type (
	// Options controls how a context is archived.
	Options struct {
		// CompressionLevel is the gzip level (0-9, or -1 for the library
		// default). Nil means DefaultCompressionLevel.
		CompressionLevel *int
		// Dockerfile is the Dockerfile path relative to the context root.
		// It is always included even if .dockerignore excludes it.
		Dockerfile string
	}

	// ContextError wraps a failure on a specific context entry.
	ContextError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *ContextError) Error() string {
	return fmt.Sprintf("build context entry %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ContextError) Unwrap() error { return e.Err }

// Level returns the effective compression level.
func (o Options) Level() int {
	if o.CompressionLevel == nil {
		return DefaultCompressionLevel
	}
	return *o.CompressionLevel
}

// ReadIgnoreFile returns the patterns in dir/.dockerignore, or nil when the
// file does not exist.
func ReadIgnoreFile(dir string) ([]string, error) {
	f, err := os.Open(filepath.Join(dir, IgnoreFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", IgnoreFileName, err)
	}
	defer func() { _ = f.Close() }()

	patterns, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", IgnoreFileName, err)
	}
	return patterns, nil
}

// Archive writes dir to w as a gzip-compressed tar. Entry names are relative
// to dir with forward slashes. Regular files, directories and symlinks are
// included; other file types are skipped. ctx is checked between entries.
func Archive(ctx context.Context, dir string, w io.Writer, opts Options) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat build context: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	patterns, err := ReadIgnoreFile(dir)
	if err != nil {
		return err
	}
	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return fmt.Errorf("compile %s: %w", IgnoreFileName, err)
	}

	dockerfile := opts.Dockerfile
	if dockerfile == "" {
		dockerfile = DefaultDockerfile
	}
	keep := map[string]bool{
		filepath.Clean(dockerfile): true,
		IgnoreFileName:             true,
	}

	gz, err := gzip.NewWriterLevel(w, opts.Level())
	if err != nil {
		return fmt.Errorf("create gzip writer: %w", err)
	}
	tw := tar.NewWriter(gz)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if !keep[rel] {
			excluded, err := pm.MatchesOrParentMatches(rel)
			if err != nil {
				return &ContextError{Path: rel, Err: err}
			}
			if excluded {
				// Exception patterns or a kept file may live below this
				// directory, so only prune when neither can.
				if d.IsDir() && !pm.Exclusions() && !keepsBelow(keep, rel) {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if err := addEntry(tw, path, rel, d); err != nil {
			return &ContextError{Path: rel, Err: err}
		}
		return nil
	})
	if walkErr != nil {
		_ = tw.Close()
		_ = gz.Close()
		return walkErr
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finish tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finish gzip stream: %w", err)
	}
	return nil
}

func keepsBelow(keep map[string]bool, dir string) bool {
	prefix := dir + string(filepath.Separator)
	for k := range keep {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

func addEntry(tw *tar.Writer, path, rel string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	var link string
	switch mode := info.Mode(); {
	case mode.IsRegular(), mode.IsDir():
	case mode&fs.ModeSymlink != 0:
		if link, err = os.Readlink(path); err != nil {
			return err
		}
	default:
		return nil
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	hdr.Name = filepath.ToSlash(rel)
	if info.IsDir() {
		hdr.Name += "/"
	}
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "", ""

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = io.Copy(tw, f)
	return err
}
