package fault

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("scan: %w", Wrap(CodeUnreadable, "read override dir", fs.ErrPermission))

	if !errors.Is(err, New(CodeUnreadable, "")) {
		t.Fatalf("expected code match")
	}
	if errors.Is(err, New(CodeBadPriority, "")) {
		t.Fatalf("unexpected match for other code")
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("expected cause to be reachable")
	}
	if got := CodeOf(err); got != CodeUnreadable {
		t.Fatalf("CodeOf = %q", got)
	}
	if got := CodeOf(errors.New("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf plain = %q", got)
	}
}

func TestCodeKind(t *testing.T) {
	tests := []struct {
		code Code
		want Kind
	}{
		{CodeBadArchetypeID, KindDiscovery},
		{CodeArity, KindCompile},
		{CodeCapacityExceeded, KindCapacity},
		{CodeIndexCollision, KindCollision},
		{CodeUnknown, KindUnknown},
		{Code("other.thing"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.Kind(); got != tt.want {
				t.Fatalf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMetadataOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", WithMetadata(CodeBadOperator, "bad operator", map[string]string{"line": "IsFemale() XOR"}))
	if got := MetadataOf(err, "line"); got != "IsFemale() XOR" {
		t.Fatalf("MetadataOf = %q", got)
	}
	if got := MetadataOf(err, "missing"); got != "" {
		t.Fatalf("MetadataOf missing = %q", got)
	}
}
