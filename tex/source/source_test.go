package source

import "testing"

func readAll(t *testing.T, s *Source) string {
	t.Helper()
	var out []rune
	for s.Next() {
		c, err := s.Peek()
		if err != nil {
			t.Fatalf("peek: %v", err)
		}
		out = append(out, c.Rune)
		s.Skip()
	}
	return string(out)
}

func TestPrependReadsBackToFront(t *testing.T) {
	s := New(nil)
	s.Prepend("world", "b")
	s.Prepend("hello ", "a")

	got := readAll(t, s)
	if got != "hello world" {
		t.Errorf("got %q, want %q", got, "hello world")
	}
}

func TestIncludeResolvesViaResolver(t *testing.T) {
	s := New(StringResolver{"a.tex": "abc"})
	if err := s.Include("a.tex"); err != nil {
		t.Fatal(err)
	}
	s.Prepend("XY", "pre")

	got := readAll(t, s)
	if got != "XYabc" {
		t.Errorf("got %q, want %q", got, "XYabc")
	}
}

func TestIncludeUnknownFails(t *testing.T) {
	s := New(StringResolver{})
	if err := s.Include("missing.tex"); err == nil {
		t.Fatal("expected an error for an unresolved \\input")
	}
}

func TestPositionTracksLineAndColumn(t *testing.T) {
	s := New(nil)
	s.Prepend("ab\ncd", "t")

	var positions []string
	for s.Next() {
		c, err := s.Peek()
		if err != nil {
			t.Fatal(err)
		}
		positions = append(positions, c.Pos.String())
		s.Skip()
	}
	want := []string{"1:1", "1:2", "1:3", "2:1", "2:2"}
	if len(positions) != len(want) {
		t.Fatalf("got %v, want %v", positions, want)
	}
	for i := range want {
		if positions[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, positions[i], want[i])
		}
	}
}

func TestPrependDuringReadActsAsPushback(t *testing.T) {
	s := New(nil)
	s.Prepend("BC", "rest")

	if !s.Next() {
		t.Fatal("expected a character")
	}
	c, _ := s.Peek()
	if c.Rune != 'B' {
		t.Fatalf("got %q, want B", c.Rune)
	}
	s.Skip()

	// Simulate the mouth pushing a replacement in front of the remainder.
	s.Prepend("A", "pushback")
	got := readAll(t, s)
	if got != "AC" {
		t.Errorf("got %q, want %q", got, "AC")
	}
}
