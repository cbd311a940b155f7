// Package stomach implements the minimal downstream collaborator §1/§2
// refer to but explicitly put out of scope for real typesetting: it
// consumes the mouth's primitive token stream, renders each token as a
// \meaning-style debug trace line, and keeps the simple counters (lines,
// paragraphs) a real stomach would track before ever touching boxes or
// glue. It proves the mouth's output is consumable, nothing more.
package stomach

import (
	"fmt"
	"io"
	"strings"

	"github.com/gnieh/toolxit-tex/tex"
	"github.com/gnieh/toolxit-tex/tex/env"
)

// Stomach accumulates a trace and line/paragraph counts as tokens are
// fed to it one at a time via Accept.
type Stomach struct {
	env *env.Environment

	trace      strings.Builder
	Lines      int
	Paragraphs int

	atLineStart bool
}

// New builds a Stomach that renders tokens against e (needed for the
// escape character used in \meaning-style text).
func New(e *env.Environment) *Stomach {
	return &Stomach{env: e, atLineStart: true}
}

// Accept consumes one primitive token, matching TeX's rule that a
// paragraph begins the first time non-space material appears at the
// start of a line, and that \par (or a blank-line-equivalent) ends one.
func (s *Stomach) Accept(t *tex.Token) {
	s.trace.WriteString(s.describe(t))
	s.trace.WriteByte('\n')

	if t.Kind == tex.KindControlSequence && t.Name == "par" && !t.Active {
		if !s.atLineStart {
			s.Paragraphs++
		}
		s.atLineStart = true
		return
	}

	if t.Kind == tex.KindCharacter && t.Cat == tex.CatSpace {
		return
	}

	if s.atLineStart {
		s.Lines++
		s.atLineStart = false
	}
}

// describe renders one token the way \meaning would, without requiring
// a mouth: control sequences print as their escaped name (the stomach
// never needs their current binding, only their identity), characters
// print with their category.
func (s *Stomach) describe(t *tex.Token) string {
	switch t.Kind {
	case tex.KindCharacter:
		name := t.Cat.MeaningName()
		if strings.HasPrefix(name, "the ") || name == "macro parameter character" {
			return fmt.Sprintf("%s %c", name, t.Char)
		}
		return fmt.Sprintf("%s character %c", name, t.Char)
	case tex.KindControlSequence:
		if t.Active {
			return fmt.Sprintf("active character %s", t.Name)
		}
		return t.TextOf(s.env.EscapeChar())
	case tex.KindParameter:
		return fmt.Sprintf("macro parameter #%d", t.ParamNumber)
	case tex.KindGroup:
		return "group"
	default:
		return "?"
	}
}

// WriteTrace writes the accumulated trace to w.
func (s *Stomach) WriteTrace(w io.Writer) error {
	_, err := io.WriteString(w, s.trace.String())
	return err
}
