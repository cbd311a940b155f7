package engine

import (
	"io"
	"testing"

	"github.com/gnieh/toolxit-tex/tex"
)

func TestPullIteratorMatchesChannelAPI(t *testing.T) {
	text := `\def\greet#1{hello #1!}\greet{world}`

	eng1 := New(nil, "test")
	eng1.Src.Prepend(text, "test")
	var pulled []*tex.Token
	for {
		tok, err := eng1.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		pulled = append(pulled, tok)
	}

	eng2 := New(nil, "test")
	eng2.Src.Prepend(text, "test")
	toks, wait := Run(eng2)
	var fromChan []*tex.Token
	for tok := range toks {
		fromChan = append(fromChan, tok)
	}
	if err := wait(); err != nil {
		t.Fatalf("unexpected channel error: %v", err)
	}

	if len(pulled) != len(fromChan) {
		t.Fatalf("pull iterator produced %d tokens, channel API produced %d", len(pulled), len(fromChan))
	}
	for i := range pulled {
		if !pulled[i].Equal(fromChan[i]) {
			t.Fatalf("token %d differs: %+v vs %+v", i, pulled[i], fromChan[i])
		}
	}
}

func TestStatsTrackMacroDefinitions(t *testing.T) {
	eng := New(nil, "test")
	eng.Src.Prepend(`\def\a{x}\def\b{y}`, "test")
	for {
		_, err := eng.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := eng.Stats().MacrosDefined; got != 2 {
		t.Fatalf("got %d macros defined, want 2", got)
	}
}
