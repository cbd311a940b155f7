package eyes

import (
	"io"
	"testing"

	"github.com/gnieh/toolxit-tex/tex"
	"github.com/gnieh/toolxit-tex/tex/env"
	"github.com/gnieh/toolxit-tex/tex/source"
)

func newEyes(t *testing.T, text string, plainTeX bool) *Eyes {
	t.Helper()
	e := env.New()
	if plainTeX {
		e.SetPlainTeXCategories()
	}
	src := source.New(nil)
	src.Prepend(text, "test")
	return New(src, e)
}

func collect(t *testing.T, ey *Eyes) []*tex.Token {
	t.Helper()
	var toks []*tex.Token
	for {
		tok, err := ey.Next()
		if err == io.EOF {
			return toks
		}
		if err != nil {
			t.Fatalf("unexpected lex error: %v", err)
		}
		toks = append(toks, tok)
	}
}

func TestScenario3_WordThenControlSequence(t *testing.T) {
	ey := newEyes(t, `a \test`, true)
	toks := collect(t, ey)

	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3: %+v", len(toks), toks)
	}
	if toks[0].Kind != tex.KindCharacter || toks[0].Char != 'a' || toks[0].Cat != tex.CatLetter {
		t.Errorf("token 0: %+v", toks[0])
	}
	if toks[1].Kind != tex.KindCharacter || toks[1].Char != ' ' || toks[1].Cat != tex.CatSpace {
		t.Errorf("token 1: %+v", toks[1])
	}
	if toks[2].Kind != tex.KindControlSequence || toks[2].Name != "test" {
		t.Errorf("token 2: %+v", toks[2])
	}
}

func TestScenario4_CaretCaretHexWithSuperscript(t *testing.T) {
	ey := newEyes(t, "^^41", true) // 0x41 = 'A'
	toks := collect(t, ey)

	if len(toks) != 1 {
		t.Fatalf("got %d tokens, want 1: %+v", len(toks), toks)
	}
	if toks[0].Char != 'A' || toks[0].Cat != tex.CatLetter {
		t.Errorf("got %+v, want Character('A', letter)", toks[0])
	}
}

func TestScenario4_CaretAsOtherDoesNotPreprocess(t *testing.T) {
	// plainTeX=false: '^' keeps its default category, Other, so no ^^
	// substitution applies and all four characters lex separately.
	ey := newEyes(t, "^^41", false)
	toks := collect(t, ey)

	if len(toks) != 4 {
		t.Fatalf("got %d tokens, want 4: %+v", len(toks), toks)
	}
	want := []rune{'^', '^', '4', '1'}
	for i, w := range want {
		if toks[i].Char != w || toks[i].Cat != tex.CatOther {
			t.Errorf("token %d: got %+v, want Character(%q, other)", i, toks[i], w)
		}
	}
}

func TestCaretCaretLowAsciiFormula(t *testing.T) {
	ey := newEyes(t, "^^A", true) // 'A' is 65, >=64, so 65-64=1 (SOH)
	toks := collect(t, ey)
	if len(toks) != 1 {
		t.Fatalf("got %d tokens, want 1: %+v", len(toks), toks)
	}
	if toks[0].Char != rune(1) {
		t.Errorf("got char %q (%d), want \\x01", toks[0].Char, toks[0].Char)
	}
}

func TestEndOfLineInStateNProducesPar(t *testing.T) {
	ey := newEyes(t, "\n", true)
	tok, err := ey.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != tex.KindControlSequence || tok.Name != "par" {
		t.Fatalf("got %+v, want \\par", tok)
	}
}

func TestEndOfLineInStateMProducesSpace(t *testing.T) {
	ey := newEyes(t, "a\n", true)
	collectOne := func() *tex.Token {
		tok, err := ey.Next()
		if err != nil {
			t.Fatal(err)
		}
		return tok
	}
	collectOne() // 'a', enters state M
	tok := collectOne()
	if tok.Kind != tex.KindCharacter || tok.Char != ' ' {
		t.Fatalf("got %+v, want a Space character", tok)
	}
}

func TestCommentDiscardedThroughEOL(t *testing.T) {
	ey := newEyes(t, "a%comment here\nb", true)
	toks := collect(t, ey)
	// a, b: the comment swallows its own end-of-line, so no space
	if len(toks) != 2 {
		t.Fatalf("got %d tokens, want 2: %+v", len(toks), toks)
	}
	if toks[0].Char != 'a' || toks[1].Char != 'b' {
		t.Errorf("got %+v", toks)
	}
}

func TestParameterFollowedByDigit(t *testing.T) {
	ey := newEyes(t, "#1", true)
	tok, err := ey.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != tex.KindParameter || tok.ParamNumber != 1 {
		t.Fatalf("got %+v, want Parameter(1)", tok)
	}
}

func TestParameterNotFollowedByDigitIsCharacter(t *testing.T) {
	ey := newEyes(t, "#x", true)
	tok, err := ey.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != tex.KindCharacter || tok.Cat != tex.CatParameter || tok.Char != '#' {
		t.Fatalf("got %+v, want Character('#', parameter)", tok)
	}
}

func TestActiveCharacterPromotedToControlSequence(t *testing.T) {
	ey := newEyes(t, "~", true)
	tok, err := ey.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != tex.KindControlSequence || !tok.Active || tok.Name != "~" {
		t.Fatalf("got %+v, want active control sequence ~", tok)
	}
}

func TestInvalidCharacterIsUserError(t *testing.T) {
	ey := newEyes(t, "\x00", true)
	_, err := ey.Next()
	if err == nil {
		t.Fatal("expected an error for a NUL (invalid-category) character")
	}
}

func TestCategoryFixedAtLexTime(t *testing.T) {
	e := env.New()
	e.SetPlainTeXCategories()
	src := source.New(nil)
	src.Prepend("{a", "test")
	ey := New(src, e)

	tok, err := ey.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Cat != tex.CatBeginGroup {
		t.Fatalf("got %v, want begin-group", tok.Cat)
	}

	// Mutating the category table after the token was produced must
	// not retroactively change it.
	e.SetCategory('{', tex.CatOther, true)
	if tok.Cat != tex.CatBeginGroup {
		t.Fatalf("lexed token's category changed retroactively: %v", tok.Cat)
	}
}
