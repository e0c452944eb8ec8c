// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	units "github.com/docker/go-units"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dockerino/dockerino/internal/config"
)

const none = "<none>"

// writeStructured encodes v in a machine-readable format. TOML documents must
// be tables, so v is nested under key there.
func writeStructured(w io.Writer, format config.OutputFormat, key string, v any) error {
	switch format {
	case config.OutputJSON, config.OutputTable:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	case config.OutputTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(map[string]any{key: v}); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		if _, err := buf.WriteTo(w); err != nil {
			return fmt.Errorf("write toml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	return nil
}

// writeTable renders rows under headers with the shared table styles.
func writeTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	fmt.Fprintln(w, t.Render())
}

// splitRepoTag splits "repo[:tag]" at the last colon that follows the last
// slash, so registry ports stay in the repository.
func splitRepoTag(ref string) (repo, tag string) {
	if i := strings.LastIndex(ref, ":"); i > strings.LastIndex(ref, "/") {
		return ref[:i], ref[i+1:]
	}
	return ref, ""
}

func humanSize(size int64) string {
	return units.HumanSizeWithPrecision(float64(size), 3)
}

// humanAge renders a Unix timestamp as "3 days ago".
func humanAge(created int64, now time.Time) string {
	if created <= 0 {
		return none
	}
	return units.HumanDuration(now.Sub(time.Unix(created, 0))) + " ago"
}

func orNone(s string) string {
	if s == "" {
		return none
	}
	return s
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
