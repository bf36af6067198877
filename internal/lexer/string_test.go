package lexer

import (
	"testing"

	"github.com/hollowvm/intcode/internal/diag"
)

func TestParseStringNoEscapeIsBorrowed(t *testing.T) {
	text := `"hello"`
	got, err := ParseString(text, diag.NewSpan(0, len(text)))
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Message)
	}
	if got != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestParseStringEscapes(t *testing.T) {
	text := `"a\nb\tc\r\\\"d"`
	got, err := ParseString(text, diag.NewSpan(0, len(text)))
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Message)
	}
	want := "a\nb\tc\r\\\"d"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParseStringUnknownEscape(t *testing.T) {
	text := `"a\qb"`
	_, err := ParseString(text, diag.NewSpan(0, len(text)))
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Message != "unknown escape character" {
		t.Fatalf("got message %q", err.Message)
	}
	if err.Span.M != 2 || err.Span.N != 4 {
		t.Fatalf("got span %v, want 2..4", err.Span)
	}
}

func TestParseStringEmoji(t *testing.T) {
	text := `"😎"`
	if len(text) != 6 {
		t.Fatalf("literal is %d bytes, want 6", len(text))
	}
	got, err := ParseString(text, diag.NewSpan(0, len(text)))
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Message)
	}
	if got != "😎" {
		t.Fatalf("got %q", got)
	}
}
