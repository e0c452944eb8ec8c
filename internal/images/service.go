// SPDX-License-Identifier: MPL-2.0

package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dockerino/dockerino/internal/buildctx"
	"github.com/dockerino/dockerino/internal/engineapi"
	"github.com/dockerino/dockerino/internal/query"
)

const tarContentType = "application/x-tar"

var (
	// ErrEmptyName is returned when an operation is given an empty image name.
	ErrEmptyName = errors.New("image name must not be empty")
	// ErrDotSegment is returned when an image name contains a "." or ".."
	// path segment, which the engine's router would resolve away.
	ErrDotSegment = errors.New(`image name must not contain "." or ".." segments`)
)

type (
	// Option configures a Service.
	Option func(*Service)

	// Service exposes the image endpoints of the engine API.
	Service struct {
		client           *engineapi.Client
		logger           *log.Logger
		compressionLevel *int
	}

	// ListOptions narrows an image listing.
	ListOptions struct {
		// All includes intermediate images.
		All bool
		// Filters is sent as the "filters" parameter when non-empty.
		Filters query.Filters
	}

	// DeleteOptions controls image removal.
	DeleteOptions struct {
		// Force removes the image even if containers use it.
		Force bool
		// NoPrune keeps untagged parent images.
		NoPrune bool
	}

	// PushOptions controls image push.
	PushOptions struct {
		// ServerAddress is the registry the push authenticates against.
		ServerAddress string
		// Tag pushes a single tag instead of every tag of the repository.
		Tag string
	}

	// SearchOptions narrows a registry search.
	SearchOptions struct {
		// Limit caps the number of results; zero leaves it to the engine.
		Limit int
		// Filters is sent as the "filters" parameter when non-empty.
		Filters query.Filters
	}
)

// WithLogger sets the logger used for per-call debug records.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCompressionLevel sets the gzip level used for build contexts.
func WithCompressionLevel(level int) Option {
	return func(s *Service) {
		s.compressionLevel = &level
	}
}

// NewService creates an image service on top of client.
func NewService(client *engineapi.Client, opts ...Option) *Service {
	s := &Service{
		client: client,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the images known to the engine.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	params := url.Values{}
	if opts.All {
		params.Set("all", "true")
	}
	rawQuery := params.Encode()
	fq, err := opts.Filters.QueryParam()
	if err != nil {
		return nil, err
	}
	rawQuery = joinQuery(rawQuery, fq)

	ep, err := engineapi.NewEndpointBuilder(engineapi.MethodGet, "/images/json").Query(rawQuery).Build()
	if err != nil {
		return nil, err
	}
	return fetch[[]Summary](ctx, s, ep)
}

// Inspect returns the full record of one image.
func (s *Service) Inspect(ctx context.Context, name string) (*Details, error) {
	ep, err := s.imageEndpoint(engineapi.MethodGet, name, "/json", "")
	if err != nil {
		return nil, err
	}
	d, err := fetch[Details](ctx, s, ep)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// History returns the layer history of one image, newest first.
func (s *Service) History(ctx context.Context, name string) ([]HistoryEntry, error) {
	ep, err := s.imageEndpoint(engineapi.MethodGet, name, "/history", "")
	if err != nil {
		return nil, err
	}
	return fetch[[]HistoryEntry](ctx, s, ep)
}

// Delete removes an image and reports every untagged reference and deleted
// layer. A missing image surfaces as a 404 *engineapi.APIError.
func (s *Service) Delete(ctx context.Context, name string, opts DeleteOptions) ([]DeleteResponse, error) {
	rawQuery := "force=" + strconv.FormatBool(opts.Force) + "&noprune=" + strconv.FormatBool(opts.NoPrune)
	ep, err := s.imageEndpoint(engineapi.MethodDelete, name, "", rawQuery)
	if err != nil {
		return nil, err
	}
	return fetch[[]DeleteResponse](ctx, s, ep)
}

// Tag adds repo:tag as a reference to name. Empty repo or tag are sent as
// empty values and left to the engine to reject.
func (s *Service) Tag(ctx context.Context, name, repo, tag string) error {
	rawQuery := "repo=" + url.QueryEscape(repo) + "&tag=" + url.QueryEscape(tag)
	ep, err := s.imageEndpoint(engineapi.MethodPost, name, "/tag", rawQuery)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.client.Discard(ctx, ep)
	s.logCall(ep, start, err)
	return err
}

// Export writes the tarball of name to w and returns the bytes written.
// The whole tarball is buffered before anything is written.
func (s *Service) Export(ctx context.Context, name string, w io.Writer) (int64, error) {
	ep, err := s.imageEndpoint(engineapi.MethodGet, name, "/get", "")
	if err != nil {
		return 0, err
	}

	start := time.Now()
	data, err := s.client.Bytes(ctx, ep)
	s.logCall(ep, start, err)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(w, bytes.NewReader(data))
	if err != nil {
		return n, fmt.Errorf("write image tarball: %w", err)
	}
	return n, nil
}

// Import loads an image tarball read fully from r and returns the engine's
// progress output.
func (s *Service) Import(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read image tarball: %w", err)
	}

	ep, err := engineapi.NewEndpointBuilder(engineapi.MethodPost, "/images/load").
		Body(data, tarContentType).
		Build()
	if err != nil {
		return "", err
	}
	return s.text(ctx, ep)
}

// Push uploads name to its registry and returns the engine's progress output.
func (s *Service) Push(ctx context.Context, name string, opts PushOptions) (string, error) {
	auth, err := EncodeRegistryAuth(RegistryAuth{ServerAddress: opts.ServerAddress})
	if err != nil {
		return "", err
	}

	var rawQuery string
	if opts.Tag != "" {
		rawQuery = "tag=" + url.QueryEscape(opts.Tag)
	}

	path, err := imagePath(name, "/push")
	if err != nil {
		return "", err
	}
	ep, err := engineapi.NewEndpointBuilder(engineapi.MethodPost, path).
		Query(rawQuery).
		Header(RegistryAuthHeader, auth).
		Build()
	if err != nil {
		return "", err
	}
	return s.text(ctx, ep)
}

// Build archives contextDir and builds an image from it, returning the
// engine's build log. The archive is built in memory before sending.
func (s *Service) Build(ctx context.Context, contextDir string, params query.BuildParams) (string, error) {
	rawQuery, err := params.Encode()
	if err != nil {
		return "", err
	}

	dockerfile, _ := params.Get(query.ParamDockerfile)
	var archive bytes.Buffer
	archiveOpts := buildctx.Options{CompressionLevel: s.compressionLevel, Dockerfile: dockerfile}
	if err := buildctx.Archive(ctx, contextDir, &archive, archiveOpts); err != nil {
		return "", fmt.Errorf("archive build context: %w", err)
	}
	s.logger.Debug("Archived build context", "dir", contextDir, "bytes", archive.Len())

	ep, err := engineapi.NewEndpointBuilder(engineapi.MethodPost, "/build").
		Query(rawQuery).
		Body(archive.Bytes(), tarContentType).
		Build()
	if err != nil {
		return "", err
	}
	return s.text(ctx, ep)
}

// Search queries the configured registry for term.
func (s *Service) Search(ctx context.Context, term string, opts SearchOptions) ([]SearchResult, error) {
	rawQuery := "term=" + url.QueryEscape(term)
	if opts.Limit > 0 {
		rawQuery += "&limit=" + strconv.Itoa(opts.Limit)
	}
	fq, err := opts.Filters.QueryParam()
	if err != nil {
		return nil, err
	}
	rawQuery = joinQuery(rawQuery, fq)

	ep, err := engineapi.NewEndpointBuilder(engineapi.MethodGet, "/images/search").Query(rawQuery).Build()
	if err != nil {
		return nil, err
	}
	return fetch[[]SearchResult](ctx, s, ep)
}

func (s *Service) imageEndpoint(method engineapi.Method, name, suffix, rawQuery string) (engineapi.Endpoint, error) {
	path, err := imagePath(name, suffix)
	if err != nil {
		return engineapi.Endpoint{}, err
	}
	return engineapi.NewEndpointBuilder(method, path).Query(rawQuery).Build()
}

func (s *Service) text(ctx context.Context, ep engineapi.Endpoint) (string, error) {
	start := time.Now()
	out, err := s.client.Text(ctx, ep)
	s.logCall(ep, start, err)
	return out, err
}

func (s *Service) logCall(ep engineapi.Endpoint, start time.Time, err error) {
	if err != nil {
		s.logger.Debug("Engine call failed", "method", ep.Method(), "uri", ep.RequestURI(), "error", err)
		return
	}
	s.logger.Debug("Engine call", "method", ep.Method(), "uri", ep.RequestURI(), "elapsed", time.Since(start))
}

func fetch[T any](ctx context.Context, s *Service, ep engineapi.Endpoint) (T, error) {
	start := time.Now()
	out, err := engineapi.Fetch[T](ctx, s.client, ep)
	s.logCall(ep, start, err)
	return out, err
}

// imagePath builds /images/{name}{suffix}. Reference separators ('/', ':',
// '@') stay literal; everything else unsafe in a path segment is escaped.
func imagePath(name, suffix string) (string, error) {
	if name == "" {
		return "", engineapi.NewError(engineapi.KindMalformedRequest, "build image path", ErrEmptyName)
	}
	for seg := range strings.SplitSeq(name, "/") {
		if seg == "." || seg == ".." {
			return "", engineapi.NewError(engineapi.KindMalformedRequest, "build image path", fmt.Errorf("%w: %q", ErrDotSegment, name))
		}
	}
	escaped := strings.ReplaceAll(url.PathEscape(name), "%2F", "/")
	return "/images/" + escaped + suffix, nil
}

func joinQuery(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "&")
}
