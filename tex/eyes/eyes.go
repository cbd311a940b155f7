// Package eyes implements §4.2: the character-to-token lexer. It
// consumes runes from a source.Source, applies the ^^ preprocessor,
// looks up category codes in an env.Environment (which later tokens the
// mouth produces may themselves go on to mutate — a Character token's
// category is fixed at the instant it is lexed, never retroactively,
// per §3's first invariant), and runs the N/M/S reading-state automaton
// to emit Character, ControlSequence and Parameter tokens.
package eyes

import (
	"io"
	"strings"

	"github.com/kevinkenan/cobra"

	"github.com/gnieh/toolxit-tex/tex"
	"github.com/gnieh/toolxit-tex/tex/env"
	"github.com/gnieh/toolxit-tex/tex/source"
)

// ReadingState is §4.2's N/M/S automaton state.
type ReadingState int

const (
	StateN ReadingState = iota // new line
	StateM                     // middle of line
	StateS                     // skipping blanks
)

func (s ReadingState) String() string {
	switch s {
	case StateN:
		return "N"
	case StateM:
		return "M"
	case StateS:
		return "S"
	default:
		return "?"
	}
}

// Eyes is the lexer: a Source to read from, an Environment to consult
// for category codes, and the current reading state.
type Eyes struct {
	Source *source.Source
	Env    *env.Environment
	state  ReadingState
}

// New creates an Eyes reading from src against env, starting in state N
// as specified for the start of a file.
func New(src *source.Source, e *env.Environment) *Eyes {
	return &Eyes{Source: src, Env: e, state: StateN}
}

// State reports the current reading state, exposed for tests and for
// the mouth's \endinput boundary handling (on \input the mouth puts
// this same Eyes back into state N with Reset).
func (ey *Eyes) State() ReadingState { return ey.state }

// Reset puts the eyes back into state N, the state every file starts
// in; the mouth calls this after \input pushes a new source frame, so
// the freshly included file's leading whitespace is treated exactly as
// start-of-file, not as a continuation of whatever state the including
// file was in.
func (ey *Eyes) Reset() { ey.state = StateN }

// Next produces the next token, or io.EOF when the source is exhausted.
// A parameter character followed by a digit 0-9 becomes a Parameter
// token carrying that digit; a bare parameter character with no
// following digit becomes an ordinary Character token. Genuine
// malformed input (an Invalid-category
// character, or an escape with nothing after it) is reported as a
// *tex.Error.
func (ey *Eyes) Next() (*tex.Token, error) {
	for {
		c, err := ey.nextRawChar()
		if err != nil {
			return nil, err
		}
		cat := ey.Env.Category(c.Rune)
		cobra.Tag("eyes").WithField("state", ey.state.String()).WithField("cat", int(cat)).LogV("lex")

		switch cat {
		case tex.CatInvalid:
			ey.consumeRaw()
			return nil, tex.UserErrorf(c.Pos, "invalid character found: %q", c.Rune)

		case tex.CatEscape:
			ey.consumeRaw()
			name, err := ey.readControlSequenceName(c.Pos)
			if err != nil {
				return nil, err
			}
			ey.state = StateS
			return tex.NewControlSequence(c.Pos, name, false), nil

		case tex.CatActive:
			ey.consumeRaw()
			ey.state = StateS
			return tex.NewControlSequence(c.Pos, string(c.Rune), true), nil

		case tex.CatComment:
			ey.discardComment()
			continue

		case tex.CatIgnored:
			ey.consumeRaw()
			continue

		case tex.CatSpace:
			switch ey.state {
			case StateN, StateS:
				ey.consumeRaw()
				continue
			default: // StateM
				ey.consumeRaw()
				ey.state = StateS
				return tex.NewCharacter(c.Pos, ' ', tex.CatSpace), nil
			}

		case tex.CatEndOfLine:
			switch ey.state {
			case StateN:
				ey.consumeRaw()
				ey.state = StateN
				return tex.NewControlSequence(c.Pos, "par", false), nil
			case StateM:
				ey.consumeRaw()
				ey.state = StateN
				return tex.NewCharacter(c.Pos, ' ', tex.CatSpace), nil
			default: // StateS
				ey.consumeRaw()
				ey.state = StateN
				continue
			}

		case tex.CatParameter:
			ey.consumeRaw()
			if nxt, err := ey.nextRawChar(); err == nil && isASCIIDigit(nxt.Rune) {
				ey.consumeRaw()
				ey.state = StateM
				return tex.NewParameter(c.Pos, int(nxt.Rune-'0')), nil
			}
			ey.state = StateM
			return tex.NewCharacter(c.Pos, c.Rune, tex.CatParameter), nil

		default: // any other categorisable character
			ey.consumeRaw()
			ey.state = StateM
			return tex.NewCharacter(c.Pos, c.Rune, cat), nil
		}
	}
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

// readControlSequenceName reads the name following an already-consumed
// escape character: either a maximal run of Letter-category characters,
// or exactly one non-letter character, per §4.2.
func (ey *Eyes) readControlSequenceName(escPos tex.Position) (string, error) {
	first, err := ey.nextRawChar()
	if err != nil {
		return "", tex.UserError(escPos, "incomplete control sequence at end of input")
	}
	ey.consumeRaw()
	if ey.Env.Category(first.Rune) != tex.CatLetter {
		return string(first.Rune), nil
	}

	var sb strings.Builder
	sb.WriteRune(first.Rune)
	for {
		c, err := ey.nextRawChar()
		if err != nil || ey.Env.Category(c.Rune) != tex.CatLetter {
			break
		}
		ey.consumeRaw()
		sb.WriteRune(c.Rune)
	}
	return sb.String(), nil
}

// discardComment consumes a comment character through (and including)
// the next end-of-line character, or through end of input.
func (ey *Eyes) discardComment() {
	for {
		c, err := ey.nextRawChar()
		if err != nil {
			return
		}
		ey.consumeRaw()
		if ey.Env.Category(c.Rune) == tex.CatEndOfLine {
			return
		}
	}
}

// nextRawChar peeks the next character after applying the ^^
// preprocessor (recursively: a ^^-decoded character is itself checked
// for starting a further ^^ sequence before being handed to the
// caller). It does not consume anything; call consumeRaw to accept the
// returned character.
func (ey *Eyes) nextRawChar() (source.Char, error) {
	for {
		if !ey.Source.Next() {
			return source.Char{}, io.EOF
		}
		chars, err := ey.Source.PeekN(4)
		if len(chars) == 0 {
			if err != nil {
				return source.Char{}, err
			}
			return source.Char{}, io.EOF
		}

		c0 := chars[0]
		if ey.Env.Category(c0.Rune) == tex.CatSuperscript && len(chars) >= 2 && chars[1].Rune == c0.Rune {
			if len(chars) >= 4 && isLowerHex(chars[2].Rune) && isLowerHex(chars[3].Rune) {
				value := rune(hexVal(chars[2].Rune)*16 + hexVal(chars[3].Rune))
				ey.consumeRawN(4)
				ey.Source.Prepend(string(value), "^^")
				continue
			}
			if len(chars) >= 3 && chars[2].Rune < 128 {
				cc := chars[2].Rune
				var value rune
				if cc < 64 {
					value = cc + 64
				} else {
					value = cc - 64
				}
				ey.consumeRawN(3)
				ey.Source.Prepend(string(value), "^^")
				continue
			}
		}
		return c0, nil
	}
}

func isLowerHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
}

func hexVal(r rune) int {
	if r >= '0' && r <= '9' {
		return int(r - '0')
	}
	return int(r-'a') + 10
}

func (ey *Eyes) consumeRaw() {
	ey.Source.Next()
	ey.Source.Skip()
}

func (ey *Eyes) consumeRawN(n int) {
	for i := 0; i < n; i++ {
		ey.consumeRaw()
	}
}
