package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotReadOnly rejects ad hoc statements that would change a report.
var ErrNotReadOnly = errors.New("only SELECT, WITH, EXPLAIN and VALUES queries are allowed")

var readOnlyVerbs = []string{"SELECT", "WITH", "EXPLAIN", "VALUES"}

// CheckReadOnly accepts a single read statement. Backends still run it in a
// read-only session; this only gives a clearer error first.
func CheckReadOnly(query string) error {
	q := strings.TrimSpace(stripComments(query))
	q = strings.TrimSuffix(q, ";")
	if q == "" {
		return fmt.Errorf("empty query: %w", ErrNotReadOnly)
	}
	if strings.Contains(q, ";") {
		return fmt.Errorf("multiple statements: %w", ErrNotReadOnly)
	}
	verb := strings.ToUpper(strings.Fields(q)[0])
	for _, v := range readOnlyVerbs {
		if verb == v {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", verb, ErrNotReadOnly)
}

func stripComments(query string) string {
	var b strings.Builder
	for _, line := range strings.Split(query, "\n") {
		if i := strings.Index(line, "--"); i >= 0 {
			line = line[:i]
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// PositionalArgs orders params keyed "1".."n". Gaps and other keys are
// errors so a typo never silently drops a parameter.
func PositionalArgs(params map[string]any) ([]any, error) {
	args := make([]any, len(params))
	for key, val := range params {
		i, err := strconv.Atoi(key)
		if err != nil || i < 1 || i > len(params) {
			return nil, fmt.Errorf("param %q: expected an index between 1 and %d", key, len(params))
		}
		args[i-1] = val
	}
	return args, nil
}

// FormatRow makes driver values readable: text columns scanned as bytes
// become strings and archetype ids print as eight hex digits.
func FormatRow(row map[string]any) map[string]any {
	for col, val := range row {
		switch v := val.(type) {
		case []byte:
			row[col] = string(v)
		case int64:
			if col == "archetype" {
				row[col] = fmt.Sprintf("%08X", uint32(v))
			}
		}
	}
	return row
}
