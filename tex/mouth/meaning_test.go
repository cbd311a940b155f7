package mouth

import (
	"strings"
	"testing"
)

func TestMeaningOfUndefined(t *testing.T) {
	m := newMouth(t, `\meaning\foo`)
	toks := collectAll(t, m)
	if got := charText(toks); got != "undefined" {
		t.Fatalf("got %q, want %q", got, "undefined")
	}
}

func TestMeaningOfLetter(t *testing.T) {
	m := newMouth(t, `\meaning a`)
	toks := collectAll(t, m)
	if got := charText(toks); got != "the letter a" {
		t.Fatalf("got %q, want %q", got, "the letter a")
	}
}

func TestMeaningOfMacro(t *testing.T) {
	m := newMouth(t, `\def\x#1{[#1]}\meaning\x`)
	toks := collectAll(t, m)
	got := charText(toks)
	if !strings.HasPrefix(got, "macro:") {
		t.Fatalf("got %q, want a macro: prefix", got)
	}
	if !strings.Contains(got, "#1") || !strings.Contains(got, "[#1]") {
		t.Fatalf("got %q, want parameter text and replacement text rendered", got)
	}
}

func TestStringExpandsToCharacters(t *testing.T) {
	m := newMouth(t, `\string\foo`)
	toks := collectAll(t, m)
	if got := charText(toks); got != "\\foo" {
		t.Fatalf("got %q, want %q", got, "\\foo")
	}
}

func TestCsnameBuildsControlSequence(t *testing.T) {
	m := newMouth(t, `\def\foo{hit}\csname foo\endcsname`)
	toks := collectAll(t, m)
	if got := charText(toks); got != "hit" {
		t.Fatalf("got %q, want %q", got, "hit")
	}
}
