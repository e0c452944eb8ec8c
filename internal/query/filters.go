// SPDX-License-Identifier: MPL-2.0

package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dockerino/dockerino/internal/engineapi"
)

const (
	// FilterBefore selects images created before the given image.
	FilterBefore FilterKey = "before"
	// FilterDangling selects untagged images ("true") or tagged ones ("false").
	FilterDangling FilterKey = "dangling"
	// FilterLabel selects images by label, as "key" or "key=value".
	FilterLabel FilterKey = "label"
	// FilterReference selects images whose reference matches a pattern.
	FilterReference FilterKey = "reference"
	// FilterSince selects images created after the given image.
	FilterSince FilterKey = "since"
	// FilterIsAutomated selects automated-build search results.
	FilterIsAutomated FilterKey = "is-automated"
	// FilterIsOfficial selects official search results.
	FilterIsOfficial FilterKey = "is-official"
	// FilterStars selects search results with at least this many stars.
	FilterStars FilterKey = "stars"

	// FiltersParam is the query parameter name carrying encoded filters.
	FiltersParam = "filters"
)

var (
	listImagesFilterKeys = []FilterKey{FilterBefore, FilterDangling, FilterLabel, FilterReference, FilterSince}
	searchFilterKeys     = []FilterKey{FilterIsAutomated, FilterIsOfficial, FilterStars}
)

type (
	// FilterKey names a filter understood by the engine.
	FilterKey string

	// Filters is an immutable set of filter key to value list mappings.
	// The zero value is an empty set.
	Filters struct {
		entries map[FilterKey][]string
	}

	// FilterBuilder accumulates filters. Setting a key again replaces its
	// previous values. Build snapshots the current state.
	FilterBuilder struct {
		entries map[FilterKey][]string
	}

	// ListImagesFilterBuilder sets the filters accepted by image listing.
	ListImagesFilterBuilder struct {
		b FilterBuilder
	}

	// SearchFilterBuilder sets the filters accepted by image search.
	SearchFilterBuilder struct {
		b FilterBuilder
	}
)

// ListImagesFilterKeys returns the keys accepted by image listing.
func ListImagesFilterKeys() []FilterKey { return slices.Clone(listImagesFilterKeys) }

// SearchFilterKeys returns the keys accepted by image search.
func SearchFilterKeys() []FilterKey { return slices.Clone(searchFilterKeys) }

// IsValid reports whether k belongs to the filter vocabulary.
func (k FilterKey) IsValid() (bool, []error) {
	if slices.Contains(listImagesFilterKeys, k) || slices.Contains(searchFilterKeys, k) {
		return true, nil
	}
	return false, []error{engineapi.NewError(engineapi.KindSerialization, "validate filter key", fmt.Errorf("unknown filter %q", string(k)))}
}

// String returns the wire name of the key.
func (k FilterKey) String() string { return string(k) }

// NewFilterBuilder returns an empty builder.
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{entries: make(map[FilterKey][]string)}
}

// Set replaces the values of key.
func (b *FilterBuilder) Set(key FilterKey, values ...string) *FilterBuilder {
	if b.entries == nil {
		b.entries = make(map[FilterKey][]string)
	}
	b.entries[key] = slices.Clone(values)
	return b
}

// Unset removes key.
func (b *FilterBuilder) Unset(key FilterKey) *FilterBuilder {
	delete(b.entries, key)
	return b
}

// Build returns an independent snapshot of the accumulated filters.
func (b *FilterBuilder) Build() Filters {
	entries := make(map[FilterKey][]string, len(b.entries))
	for k, v := range b.entries {
		entries[k] = slices.Clone(v)
	}
	return Filters{entries: entries}
}

// NewListImagesFilterBuilder returns an empty image listing filter builder.
func NewListImagesFilterBuilder() *ListImagesFilterBuilder {
	return &ListImagesFilterBuilder{}
}

// Before keeps images created before image (name, ID or reference).
func (l *ListImagesFilterBuilder) Before(image string) *ListImagesFilterBuilder {
	l.b.Set(FilterBefore, image)
	return l
}

// Dangling keeps only untagged images when true, only tagged ones when false.
func (l *ListImagesFilterBuilder) Dangling(dangling bool) *ListImagesFilterBuilder {
	l.b.Set(FilterDangling, strconv.FormatBool(dangling))
	return l
}

// Label keeps images carrying every given label ("key" or "key=value").
func (l *ListImagesFilterBuilder) Label(labels ...string) *ListImagesFilterBuilder {
	l.b.Set(FilterLabel, labels...)
	return l
}

// Reference keeps images whose reference matches any pattern.
func (l *ListImagesFilterBuilder) Reference(patterns ...string) *ListImagesFilterBuilder {
	l.b.Set(FilterReference, patterns...)
	return l
}

// Since keeps images created after image.
func (l *ListImagesFilterBuilder) Since(image string) *ListImagesFilterBuilder {
	l.b.Set(FilterSince, image)
	return l
}

// Build returns an independent snapshot.
func (l *ListImagesFilterBuilder) Build() Filters { return l.b.Build() }

// NewSearchFilterBuilder returns an empty search filter builder.
func NewSearchFilterBuilder() *SearchFilterBuilder {
	return &SearchFilterBuilder{}
}

// IsAutomated keeps automated builds when true.
func (s *SearchFilterBuilder) IsAutomated(automated bool) *SearchFilterBuilder {
	s.b.Set(FilterIsAutomated, strconv.FormatBool(automated))
	return s
}

// IsOfficial keeps official images when true.
func (s *SearchFilterBuilder) IsOfficial(official bool) *SearchFilterBuilder {
	s.b.Set(FilterIsOfficial, strconv.FormatBool(official))
	return s
}

// MinimumStars keeps results with at least n stars.
func (s *SearchFilterBuilder) MinimumStars(n int) *SearchFilterBuilder {
	s.b.Set(FilterStars, strconv.Itoa(n))
	return s
}

// Build returns an independent snapshot.
func (s *SearchFilterBuilder) Build() Filters { return s.b.Build() }

// ParseFilterArgs turns "key=value" arguments into Filters. Values for a
// repeated key accumulate in argument order.
func ParseFilterArgs(args []string) (Filters, error) {
	b := NewFilterBuilder()
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return Filters{}, engineapi.NewError(engineapi.KindSerialization, "parse filter", fmt.Errorf("filter %q is not in key=value form", arg))
		}
		fk := FilterKey(key)
		if valid, errs := fk.IsValid(); !valid {
			return Filters{}, errs[0]
		}
		b.Set(fk, append(b.entries[fk], value)...)
	}
	return b.Build(), nil
}

// Len returns the number of keys.
func (f Filters) Len() int { return len(f.entries) }

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool { return len(f.entries) == 0 }

// Keys returns the keys in sorted order.
func (f Filters) Keys() []FilterKey {
	return slices.Sorted(maps.Keys(f.entries))
}

// Values returns a copy of the values set for key.
func (f Filters) Values(key FilterKey) ([]string, bool) {
	v, ok := f.entries[key]
	return slices.Clone(v), ok
}

// Map returns a copy of the filters keyed by wire name.
func (f Filters) Map() map[string][]string {
	out := make(map[string][]string, len(f.entries))
	for k, v := range f.entries {
		out[string(k)] = slices.Clone(v)
	}
	return out
}

// Encode renders the filters as a percent-encoded JSON object of string
// arrays, the value of the "filters" query parameter. Unknown keys and values
// that are not valid UTF-8 fail with a serialization error.
func (f Filters) Encode() (string, error) {
	return EncodeFilters(f)
}

// QueryParam returns "filters=<encoded>", or "" when f is empty.
func (f Filters) QueryParam() (string, error) {
	if f.IsEmpty() {
		return "", nil
	}
	enc, err := f.Encode()
	if err != nil {
		return "", err
	}
	return FiltersParam + "=" + enc, nil
}

// EncodeFilters percent-encodes the JSON form of f.
func EncodeFilters(f Filters) (string, error) {
	wire := make(map[string][]string, len(f.entries))
	for k, values := range f.entries {
		if valid, errs := k.IsValid(); !valid {
			return "", errs[0]
		}
		for _, v := range values {
			if !utf8.ValidString(v) {
				return "", engineapi.NewError(engineapi.KindSerialization, "encode filters", fmt.Errorf("value for %q is not valid UTF-8", string(k)))
			}
		}
		if values == nil {
			values = []string{}
		}
		wire[string(k)] = values
	}

	data, err := marshalJSON(wire)
	if err != nil {
		return "", engineapi.NewError(engineapi.KindSerialization, "encode filters", err)
	}
	return PercentEncode(string(data)), nil
}

// DecodeFilters reverses EncodeFilters.
func DecodeFilters(encoded string) (Filters, error) {
	text, err := url.PathUnescape(encoded)
	if err != nil {
		return Filters{}, engineapi.NewError(engineapi.KindSerialization, "decode filters", err)
	}

	var wire map[string][]string
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return Filters{}, engineapi.NewError(engineapi.KindSerialization, "decode filters", err)
	}

	entries := make(map[FilterKey][]string, len(wire))
	for k, v := range wire {
		entries[FilterKey(k)] = v
	}
	return Filters{entries: entries}, nil
}

// PercentEncode escapes every byte outside the RFC 3986 unreserved set
// (ALPHA / DIGIT / "-" / "." / "_" / "~"), with uppercase hex.
func PercentEncode(s string) string {
	// QueryEscape leaves exactly the unreserved set alone but writes space as '+'.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// marshalJSON is json.Marshal without HTML escaping.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
