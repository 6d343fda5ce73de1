package store

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCheckReadOnly(t *testing.T) {
	tests := []struct {
		query string
		ok    bool
	}{
		{"SELECT key FROM projects", true},
		{"  select * from links;", true},
		{"-- saved issues\nWITH e AS (SELECT * FROM issues) SELECT count(*) FROM e", true},
		{"EXPLAIN SELECT 1", true},
		{"DELETE FROM issues", false},
		{"SELECT 1; DROP TABLE links", false},
		{"UPDATE projects SET summary = ''", false},
		{"  ", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			err := CheckReadOnly(tt.query)
			if tt.ok && err != nil {
				t.Fatalf("CheckReadOnly: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrNotReadOnly) {
				t.Fatalf("expected ErrNotReadOnly, got %v", err)
			}
		})
	}
}

func TestPositionalArgs(t *testing.T) {
	args, err := PositionalArgs(map[string]any{"2": "warning", "1": "actors\\character\\defaultmale.hkx"})
	if err != nil {
		t.Fatalf("PositionalArgs: %v", err)
	}
	if diff := cmp.Diff([]any{"actors\\character\\defaultmale.hkx", "warning"}, args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	for _, bad := range []map[string]any{{"2": "x"}, {"severity": "x"}, {"0": "x"}} {
		if _, err := PositionalArgs(bad); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}
}

func TestFormatRow(t *testing.T) {
	row := FormatRow(map[string]any{
		"archetype": int64(0xA2C94),
		"priority":  int64(10),
		"dest":      []byte(`Animations\override\_CustomConditions\10\walk.hkx`),
	})
	want := map[string]any{
		"archetype": "000A2C94",
		"priority":  int64(10),
		"dest":      `Animations\override\_CustomConditions\10\walk.hkx`,
	}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
}
