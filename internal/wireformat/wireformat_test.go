package wireformat

import "testing"

func TestParseBasic(t *testing.T) {
	got, err := Parse("1,2,3,-4,0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{1, 2, 3, -4, 0}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestParseToleratesSurroundingWhitespace(t *testing.T) {
	got, err := Parse("  1, 2 ,3\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("got %v", got)
	}
}

func TestParseEmptyLine(t *testing.T) {
	got, err := Parse("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}

func TestParseTrailingCommaIsEmptyField(t *testing.T) {
	_, err := Parse("1,2,")
	if err == nil {
		t.Fatal("expected an error for the trailing comma's empty field")
	}
	fe, ok := err.(*FieldError)
	if !ok {
		t.Fatalf("got %T: %v", err, err)
	}
	if fe.Index != 2 {
		t.Fatalf("got index %d, want 2", fe.Index)
	}
}

func TestParseRejectsNonInteger(t *testing.T) {
	_, err := Parse("1,two,3")
	if err == nil {
		t.Fatal("expected an error")
	}
	fe, ok := err.(*FieldError)
	if !ok || fe.Index != 1 {
		t.Fatalf("got %v", err)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	words := []int64{1, 0, -2, 99}
	s := Format(words)
	if s != "1,0,-2,99" {
		t.Fatalf("got %q", s)
	}
	back, err := Parse(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range words {
		if back[i] != words[i] {
			t.Fatalf("round trip mismatch at %d: got %d, want %d", i, back[i], words[i])
		}
	}
}

func TestFormatEmpty(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}
