// Package mouth implements §4.3: the expander. It pulls tokens from an
// eyes.Eyes, keeps an arbitrary-depth pushback deque in front of that
// stream, and interprets every primitive in §6's "recognised by the
// mouth itself" set plus user macros, yielding a stream of primitive
// tokens ready for a stomach.
package mouth

import (
	"io"

	"github.com/kevinkenan/cobra"

	"github.com/gnieh/toolxit-tex/tex"
	"github.com/gnieh/toolxit-tex/tex/env"
	"github.com/gnieh/toolxit-tex/tex/eyes"
	"github.com/gnieh/toolxit-tex/tex/source"
)

// includeFrame is one entry of the "including" stack §9's design notes
// call for: an explicit, acyclic record of where \input was invoked
// from, used for diagnostics and to balance \endinput's restoration.
type includeFrame struct {
	Name string
	Pos  tex.Position
}

// modifiers accumulates the \global/\long/\outer prefixes that may
// precede a \def-family introducer or \let/\futurelet, per §4.3.3.
type modifiers struct {
	global bool
	long   bool
	outer  bool
}

func (m modifiers) any() bool { return m.global || m.long || m.outer }

// Mouth is §3's "Mouth state": the eyes' token stream with arbitrary
// pushback, the environment, the expansion-enabled flag, the current
// nesting depth, the including stack and end-input flag.
type Mouth struct {
	Eyes *eyes.Eyes
	Src  *source.Source
	Env  *env.Environment

	JobName string

	pushback         []*tex.Token
	expansionEnabled bool
	endinputPending  bool
	including        []includeFrame
	pending          modifiers
	condDepth        int

	TokensEmitted int
	MacrosDefined int
	GroupsEntered int
}

// New builds a Mouth reading from src (through an Eyes built against e)
// with expansion enabled, per the initial mouth state implied by §3/§4.3.
func New(src *source.Source, e *env.Environment, jobName string) *Mouth {
	return &Mouth{
		Eyes:             eyes.New(src, e),
		Src:              src,
		Env:              e,
		JobName:          jobName,
		expansionEnabled: true,
	}
}

// ExpansionEnabled reports whether the next call to Next expands.
func (m *Mouth) ExpansionEnabled() bool { return m.expansionEnabled }

// SetExpansionEnabled toggles whether Next expands. The \def parser does
// not go through this flag: it reads parameter text and \def/\gdef
// replacement text with rawNext, which never expands (§3's invariant).
func (m *Mouth) SetExpansionEnabled(v bool) { m.expansionEnabled = v }

// CondDepth reports how many conditionals are currently open, exposed
// for tests asserting the push-pop balance invariant.
func (m *Mouth) CondDepth() int { return m.condDepth }

// pushBack prepends toks to the pending deque, in order, so the first
// element of toks is the next token read.
func (m *Mouth) pushBack(toks ...*tex.Token) {
	if len(toks) == 0 {
		return
	}
	m.pushback = append(append([]*tex.Token{}, toks...), m.pushback...)
}

// rawNext pulls the next token without any expansion: from the
// pushback deque if non-empty, otherwise from the eyes. It is the
// primitive every expansion rule consumes from, per §4.3.2's "each
// begins by consuming a raw token".
func (m *Mouth) rawNext() (*tex.Token, error) {
	if len(m.pushback) > 0 {
		tok := m.pushback[0]
		m.pushback = m.pushback[1:]
		return tok, nil
	}

	depthBefore := m.Src.Depth()
	tok, err := m.Eyes.Next()
	if err != nil {
		return nil, err
	}

	for m.Src.Depth() < depthBefore && len(m.including) > 0 {
		m.including = m.including[:len(m.including)-1]
		depthBefore--
	}

	if m.endinputPending && m.Eyes.State() == eyes.StateN {
		m.endinputPending = false
		m.Src.AbandonTop()
		if len(m.including) > 0 {
			m.including = m.including[:len(m.including)-1]
		}
	}

	cobra.Tag("mouth").WithField("kind", tok.Kind.String()).LogV("raw")
	return tok, nil
}

// peekRaw reads one raw token and immediately pushes it back, a one-
// token lookahead that leaves the input unchanged. The "#{" detection
// and delimiter matching do their own rawNext/pushBack instead.
func (m *Mouth) peekRaw() (*tex.Token, error) {
	tok, err := m.rawNext()
	if err != nil {
		return nil, err
	}
	m.pushBack(tok)
	return tok, nil
}

// Next is §4.3.1's `next`: the mouth's single public entry point,
// returning the next token, expanded if expansion is enabled.
func (m *Mouth) Next() (*tex.Token, error) {
	var tok *tex.Token
	var err error
	if m.expansionEnabled {
		tok, err = m.expanded()
	} else {
		tok, err = m.rawNext()
	}
	if err != nil {
		return nil, err
	}
	m.TokensEmitted++
	return tok, nil
}

// EnterGroup opens a scope and records it for the push-pop balance
// invariant's bookkeeping.
func (m *Mouth) EnterGroup() {
	m.Env.EnterGroup()
	m.GroupsEntered++
}

// LeaveGroup closes the innermost scope.
func (m *Mouth) LeaveGroup() error {
	return m.Env.LeaveGroup()
}

var errEOF = io.EOF
