package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"animoverride/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	client, err := New(ctx, "sqlite://:memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { client.Close(ctx) })
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema is not idempotent: %v", err)
	}
	return client
}

func TestSaveProject(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	input := store.ProjectInput{
		Key:     `actors\character\defaultmale.hkx`,
		Path:    `Actors\Character\DefaultMale.hkx`,
		Folder:  `Actors\Character`,
		Summary: "3 / 16384",
		Applied: true,
		Hash:    "abc123",
		Links: []store.Link{
			{Kind: store.KindIdentity, Source: `animations\idle.hkx`, Dest: `Animations\override\Skyrim.esm\00000007\idle.hkx`, Archetype: 7, Package: "Skyrim.esm"},
			{Kind: store.KindCondition, Source: `animations\walk.hkx`, Dest: `Animations\override\_CustomConditions\10\walk.hkx`, Priority: 10, Conditions: "IsFemale() AND"},
		},
		Issues: []store.Issue{
			{Severity: "warning", Code: "discovery.package_inactive", Message: "inactive", Path: "/x"},
			{Severity: "error", Code: "compile.arity", Message: "arity", Path: "/y", Line: 2},
		},
	}
	if err := client.SaveProject(ctx, input); err != nil {
		t.Fatalf("save: %v", err)
	}

	projects, err := client.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
	got := projects[0]
	if got.IdentityLinks != 1 || got.ConditionLinks != 1 || got.Errors != 1 || got.Warnings != 1 || !got.Applied {
		t.Fatalf("unexpected summary %+v", got)
	}
	if got.ReportedAt.IsZero() {
		t.Fatalf("expected reported_at to be set")
	}

	links, err := client.GetLinks(ctx, input.Key, store.KindCondition)
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	if diff := cmp.Diff(input.Links[1:], links); diff != "" {
		t.Fatalf("links mismatch (-want +got):\n%s", diff)
	}

	issues, err := client.GetIssues(ctx, input.Key, "")
	if err != nil {
		t.Fatalf("issues: %v", err)
	}
	if diff := cmp.Diff(input.Issues, issues); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}

	hashes, err := client.GetProjectHashes(ctx)
	if err != nil {
		t.Fatalf("hashes: %v", err)
	}
	if hashes[input.Key] != "abc123" {
		t.Fatalf("unexpected hashes %v", hashes)
	}

	t.Run("save replaces rows", func(t *testing.T) {
		input.Links = input.Links[:1]
		input.Issues = nil
		input.Applied = false
		if err := client.SaveProject(ctx, input); err != nil {
			t.Fatalf("save: %v", err)
		}
		links, err := client.GetLinks(ctx, input.Key, "")
		if err != nil {
			t.Fatalf("links: %v", err)
		}
		if len(links) != 1 || links[0].Kind != store.KindIdentity {
			t.Fatalf("expected only the identity link, got %+v", links)
		}
		issues, err := client.GetIssues(ctx, input.Key, "error")
		if err != nil {
			t.Fatalf("issues: %v", err)
		}
		if len(issues) != 0 {
			t.Fatalf("expected issues cleared, got %+v", issues)
		}
	})
}

func TestRemoveStaleProjects(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	for _, key := range []string{"a.hkx", "b.hkx", "c.hkx"} {
		if err := client.SaveProject(ctx, store.ProjectInput{Key: key, Path: key}); err != nil {
			t.Fatalf("save %s: %v", key, err)
		}
	}

	removed, err := client.RemoveStaleProjects(ctx, []string{"a.hkx", "c.hkx"})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	rows, err := client.RunSQL(ctx, "SELECT key FROM projects WHERE key = ?", map[string]any{"1": "b.hkx"})
	if err != nil {
		t.Fatalf("run sql: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected b.hkx removed, got %+v", rows)
	}

	if n, err := client.RemoveStaleProjects(ctx, nil); err != nil || n != 0 {
		t.Fatalf("empty key list should be a no-op, got %d %v", n, err)
	}
}

func TestRunSQLIsReadOnly(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	input := store.ProjectInput{
		Key:  `actors\character\defaultmale.hkx`,
		Path: `Actors\Character\DefaultMale.hkx`,
		Links: []store.Link{
			{Kind: store.KindIdentity, Source: `animations\idle.hkx`, Dest: `Animations\override\Skyrim.esm\000A2C94\idle.hkx`, Archetype: 0xA2C94, Package: "Skyrim.esm"},
		},
		Issues: []store.Issue{{Severity: "warning", Code: "rule.no_clips", Message: "no clips"}},
	}
	if err := client.SaveProject(ctx, input); err != nil {
		t.Fatalf("save: %v", err)
	}

	rows, err := client.RunSQL(ctx, "SELECT archetype, dest FROM links WHERE kind = ?", map[string]any{"1": store.KindIdentity})
	if err != nil {
		t.Fatalf("run sql: %v", err)
	}
	want := []map[string]any{{"archetype": "000A2C94", "dest": input.Links[0].Dest}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}

	if _, err := client.RunSQL(ctx, "DELETE FROM issues", nil); !errors.Is(err, store.ErrNotReadOnly) {
		t.Fatalf("expected ErrNotReadOnly, got %v", err)
	}
	if _, err := client.RunSQL(ctx, "WITH doomed AS (SELECT id FROM issues) DELETE FROM issues WHERE id IN (SELECT id FROM doomed)", nil); err == nil {
		t.Fatalf("expected a write behind WITH to fail")
	}
	if _, err := client.RunSQL(ctx, "SELECT ?", map[string]any{"2": "gap"}); err == nil {
		t.Fatalf("expected error for a missing positional param")
	}

	issues, err := client.GetIssues(ctx, input.Key, "")
	if err != nil || len(issues) != 1 {
		t.Fatalf("issues must survive, got %v %v", issues, err)
	}
	// The connection leaves query_only mode afterwards.
	if err := client.SaveProject(ctx, store.ProjectInput{Key: "b.hkx", Path: "b.hkx"}); err != nil {
		t.Fatalf("save after query: %v", err)
	}
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "sqlite://:memory:", want: ":memory:"},
		{in: "sqlite://", want: "./" + DefaultPath},
		{in: "sqlite://?_pragma=busy_timeout(5000)", want: "./" + DefaultPath + "?_pragma=busy_timeout(5000)"},
		{in: "sqlite://../reports/report.db", want: "../reports/report.db"},
		{in: "sqlite:///var/lib/report.db", want: "/var/lib/report.db"},
		{in: "sqlite://./report.db", want: "./report.db"},
		{in: "sqlite://report.db", want: "./report.db"},
		{in: "sqlite://report%20v2.db?_pragma=busy_timeout(5000)", want: "./report v2.db?_pragma=busy_timeout(5000)"},
		{in: "postgres://localhost/db", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDSN(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDSN: %v", err)
			}
			if got != tt.want {
				t.Fatalf("parseDSN(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
