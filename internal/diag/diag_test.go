package diag

import (
	"strings"
	"testing"
)

func TestSpanWidthMinimumOne(t *testing.T) {
	s := NewSpan(5, 5)
	if s.Width() != 1 {
		t.Fatalf("got width %d, want 1", s.Width())
	}
}

func TestListAccumulates(t *testing.T) {
	var l List
	l.AddError("bad thing", NewSpan(0, 1))
	l.AddWarning("meh", NewSpan(1, 2))
	if !l.HasErrors() {
		t.Fatal("expected HasErrors true")
	}
	if len(l.Errors) != 1 || len(l.Warnings) != 1 {
		t.Fatalf("got %d errors, %d warnings", len(l.Errors), len(l.Warnings))
	}
}

func TestRenderUnderline(t *testing.T) {
	src := "ADD @\n"
	d := New("unexpected character", NewSpan(4, 5))
	out := Render("test.asm", src, d)
	lines := strings.Split(out, "\n")
	if len(lines) < 3 {
		t.Fatalf("expected at least 3 lines, got %d: %q", len(lines), out)
	}
	if lines[0] != "test.asm:1:5: unexpected character" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "ADD @" {
		t.Fatalf("unexpected source line: %q", lines[1])
	}
	if lines[2] != "    ^" {
		t.Fatalf("unexpected underline: %q", lines[2])
	}
}

func TestRenderSecondLine(t *testing.T) {
	src := "ADD a, b, c\nMUL @, 1, 2\n"
	d := New("unexpected character", NewSpan(16, 17))
	out := Render("test.asm", src, d)
	lines := strings.Split(out, "\n")
	if lines[0] != "test.asm:2:5: unexpected character" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
}
