// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// maxConfigFileSize bounds config files read from disk.
const maxConfigFileSize = 1 << 20

// ErrConfigTooLarge is returned when a config file exceeds maxConfigFileSize.
var ErrConfigTooLarge = errors.New("config file too large")

// formatCUEError rewrites CUE diagnostics as "path: field: message" lines so
// users can find the offending key.
func formatCUEError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		field := fieldPath(e.Path())
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if field == "" {
			lines = append(lines, fmt.Sprintf("%s: %s", filePath, msg))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s: %s", filePath, field, msg))
	}

	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

// fieldPath joins CUE path elements, rendering list indices as [i].
func fieldPath(elems []string) string {
	var sb strings.Builder
	for _, el := range elems {
		if _, err := strconv.Atoi(el); err == nil {
			sb.WriteString("[" + el + "]")
			continue
		}
		if el == "#Config" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(el)
	}
	return sb.String()
}

func checkFileSize(data []byte, limit int, filePath string) error {
	if len(data) > limit {
		return fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrConfigTooLarge, filePath, len(data), limit)
	}
	return nil
}
