package stomach

import (
	"testing"

	"github.com/gnieh/toolxit-tex/tex"
	"github.com/gnieh/toolxit-tex/tex/env"
)

func TestParagraphCounting(t *testing.T) {
	e := env.New()
	e.SetPlainTeXCategories()
	s := New(e)

	s.Accept(tex.NewCharacter(tex.Position{}, 'A', tex.CatLetter))
	s.Accept(tex.NewControlSequence(tex.Position{}, "par", false))
	s.Accept(tex.NewCharacter(tex.Position{}, 'B', tex.CatLetter))
	s.Accept(tex.NewControlSequence(tex.Position{}, "par", false))

	if s.Paragraphs != 2 {
		t.Fatalf("got %d paragraphs, want 2", s.Paragraphs)
	}
	if s.Lines != 2 {
		t.Fatalf("got %d lines, want 2", s.Lines)
	}
}

func TestConsecutiveParDoesNotDoubleCount(t *testing.T) {
	e := env.New()
	e.SetPlainTeXCategories()
	s := New(e)

	s.Accept(tex.NewControlSequence(tex.Position{}, "par", false))
	s.Accept(tex.NewControlSequence(tex.Position{}, "par", false))

	if s.Paragraphs != 0 {
		t.Fatalf("got %d paragraphs from an empty line, want 0", s.Paragraphs)
	}
}
