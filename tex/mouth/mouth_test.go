package mouth

import (
	"io"
	"strings"
	"testing"

	"github.com/gnieh/toolxit-tex/tex"
	"github.com/gnieh/toolxit-tex/tex/env"
	"github.com/gnieh/toolxit-tex/tex/source"
)

func newMouth(t *testing.T, text string) *Mouth {
	t.Helper()
	e := env.New()
	e.SetPlainTeXCategories()
	src := source.New(nil)
	src.Prepend(text, "test")
	return New(src, e, "test")
}

func collectAll(t *testing.T, m *Mouth) []*tex.Token {
	t.Helper()
	var out []*tex.Token
	for {
		tok, err := m.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("unexpected expansion error: %v", err)
		}
		out = append(out, tok)
	}
}

func charText(toks []*tex.Token) string {
	s := ""
	for _, t := range toks {
		if t.Kind == tex.KindCharacter {
			s += string(t.Char)
		}
	}
	return s
}

func TestScenario1_EmptyMacro(t *testing.T) {
	m := newMouth(t, `\def\test{}`)
	collectAll(t, m)
	cs, ok := m.Env.Lookup("test")
	if !ok || cs.Kind != env.CSMacro {
		t.Fatalf("expected \\test bound to a macro, got %+v, %v", cs, ok)
	}
	if len(cs.Macro.Params) != 0 || len(cs.Macro.Replacement) != 0 {
		t.Fatalf("expected empty params/replacement, got %+v", cs.Macro)
	}
}

func TestMacroInvocationSubstitutesArgument(t *testing.T) {
	m := newMouth(t, `\def\greet#1{hello #1!}\greet{world}`)
	toks := collectAll(t, m)
	if got := charText(toks); got != "hello world!" {
		t.Fatalf("got %q, want %q", got, "hello world!")
	}
}

func TestDelimitedArgument(t *testing.T) {
	m := newMouth(t, `\def\a#1,#2.{[#1|#2]}\a foo,bar.`)
	toks := collectAll(t, m)
	if got := charText(toks); got != "[foo|bar]" {
		t.Fatalf("got %q", got)
	}
}

func TestLongAllowsPar(t *testing.T) {
	m := newMouth(t, "\\long\\def\\a#1\\stop{[#1]}\\a x\\par y\\stop")
	toks := collectAll(t, m)
	if got := charText(toks); got != "[xy]" {
		t.Fatalf("got %q, want %q (\\par must survive inside a \\long argument)", got, "[xy]")
	}
}

func TestNonLongForbidsPar(t *testing.T) {
	m := newMouth(t, "\\def\\a#1\\stop{[#1]}\\a x\\par y\\stop")
	_, err := m.Next()
	for err == nil {
		_, err = m.Next()
	}
	if err == io.EOF {
		t.Fatal("expected a user error for \\par inside a non-long argument")
	}
}

func TestEndinputStopsAtEndOfLine(t *testing.T) {
	e := env.New()
	e.SetPlainTeXCategories()
	src := source.New(source.StringResolver{"chap": "AB\\endinput CD\nEF"})
	m := New(src, e, "test")
	src.Prepend(`\input chap`, "main")
	toks := collectAll(t, m)
	// the trailing space comes from the end-of-line in "CD\n"; \endinput
	// must still drop "EF" before it is ever read.
	if got := strings.TrimRight(charText(toks), " "); got != "ABCD" {
		t.Fatalf("got %q, want %q (EF must not be read)", got, "ABCD")
	}
}
