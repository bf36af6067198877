// Package wireformat transcodes between intcode's external wire
// representation -- a single line of comma-separated base-10 signed
// integers -- and the in-memory []int64 every other package operates
// on. It performs no stream I/O; callers read/write the line
// themselves.
package wireformat

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldError reports that one comma-separated field failed to parse,
// naming its 0-based position in the line.
type FieldError struct {
	Index int
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %d (%q): %v", e.Index, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Parse splits line on commas and parses each trimmed field as a
// base-10 int64. Leading/trailing whitespace around the whole line
// and around each field is tolerated; a single trailing comma is
// rejected the same as any other empty field.
func Parse(line string) ([]int64, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	fields := strings.Split(line, ",")
	out := make([]int64, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, &FieldError{Index: i, Field: f, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

// Format is the inverse of Parse: a comma-joined line with no
// trailing comma and no surrounding whitespace.
func Format(words []int64) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = strconv.FormatInt(w, 10)
	}
	return strings.Join(parts, ",")
}
