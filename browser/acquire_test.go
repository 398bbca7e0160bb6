package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ofriw/inspect-mcp/inspector"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://example.com/", "https://example.com"},
		{"https://example.com", "https://example.com"},
		{"https://example.com/page#section", "https://example.com/page"},
		{"https://example.com/page/#top", "https://example.com/page"},
		{"http://localhost:3000/app/", "http://localhost:3000/app"},
	}
	for _, tt := range tests {
		if got := normalizeURL(tt.in); got != tt.want {
			t.Errorf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMultipleCandidatesError(t *testing.T) {
	err := &MultipleCandidatesError{
		URL:        "https://example.com",
		Candidates: []string{"https://example.com/", "https://example.com"},
	}
	msg := err.Error()
	if !strings.Contains(msg, "2 open tabs") {
		t.Fatalf("message: %q", msg)
	}

	var mce *MultipleCandidatesError
	if !errors.As(error(err), &mce) {
		t.Fatal("errors.As should match")
	}
}

func TestAcquire_NotStarted(t *testing.T) {
	m := NewManager(Config{})
	if _, _, err := m.Acquire(context.Background(), "https://example.com"); err == nil {
		t.Fatal("expected error before Start")
	}
}

func TestWaitReady_NotStarted(t *testing.T) {
	m := NewManager(Config{})
	if err := m.WaitReady(context.Background(), time.Second); err == nil {
		t.Fatal("expected error before Start")
	}
}

func TestDiscoveryErrorCodes(t *testing.T) {
	err := fmt.Errorf("acquire: %w", ErrTargetNotFound)
	if got := inspector.ErrorCode(err); got != "TARGET_NOT_FOUND" {
		t.Fatalf("target not found code: %q", got)
	}
	if !errors.Is(err, ErrTargetNotFound) {
		t.Fatal("wrapped sentinel should still match errors.Is")
	}

	mce := &MultipleCandidatesError{URL: "https://example.com", Candidates: []string{"a", "b"}}
	wrapped := fmt.Errorf("acquire: %w", error(mce))
	if got := inspector.ErrorCode(wrapped); got != "MULTIPLE_CANDIDATES" {
		t.Fatalf("multiple candidates code: %q", got)
	}
}
