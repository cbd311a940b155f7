package tex

import "strings"

// Kind tags the variant a Token carries, mirroring §3's tagged-variant
// description (Character / ControlSequence / Parameter / Group).
type Kind int

const (
	KindCharacter Kind = iota
	KindControlSequence
	KindParameter
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindControlSequence:
		return "control sequence"
	case KindParameter:
		return "parameter"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Token is the tagged variant described in §3. A single struct carries
// every variant's fields, following the teacher's own Token/Arg layout
// (latex/tokenizer/token.go): only the fields relevant to Kind are
// meaningful.
type Token struct {
	Kind Kind
	Pos  Position

	// KindCharacter
	Char rune
	Cat  Category

	// KindControlSequence
	Name   string
	Active bool

	// KindParameter
	ParamNumber int

	// KindGroup: only ever synthesised while binding macro arguments,
	// never produced by the eyes.
	Open  *Token
	Body  []*Token
	Close *Token
}

// NewCharacter builds a Character token.
func NewCharacter(pos Position, c rune, cat Category) *Token {
	return &Token{Kind: KindCharacter, Pos: pos, Char: c, Cat: cat}
}

// NewControlSequence builds a ControlSequence token. active is true
// when the sequence was produced by promoting a single Active-category
// character rather than by an escape-introduced name.
func NewControlSequence(pos Position, name string, active bool) *Token {
	return &Token{Kind: KindControlSequence, Pos: pos, Name: name, Active: active}
}

// NewParameter builds a macro-parameter reference token, n in 1..9.
func NewParameter(pos Position, n int) *Token {
	return &Token{Kind: KindParameter, Pos: pos, ParamNumber: n}
}

// NewGroup builds a synthesised Group token from its open delimiter,
// body and close delimiter.
func NewGroup(open *Token, body []*Token, close *Token) *Token {
	pos := open.Pos
	return &Token{Kind: KindGroup, Pos: pos, Open: open, Body: body, Close: close}
}

// Flatten turns a Group token back into open/body/close, the inverse of
// NewGroup, used when substituting a bound Group argument into a
// replacement text (§4.3.2 rule 1: "Flatten groups back into open/body
// /close sequences").
func (t *Token) Flatten() []*Token {
	if t.Kind != KindGroup {
		return []*Token{t}
	}
	out := make([]*Token, 0, len(t.Body)+2)
	out = append(out, t.Open)
	out = append(out, t.Body...)
	out = append(out, t.Close)
	return out
}

// Equal implements the token-equality test used by \ifx: two
// ControlSequence tokens are equal if bound to the same meaning is
// decided by the caller (the environment lookup), this method only
// compares the tokens themselves structurally, character by category
// and codepoint, control-sequence by name and activeness.
func (t *Token) Equal(other *Token) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindCharacter:
		return t.Char == other.Char && t.Cat == other.Cat
	case KindControlSequence:
		return t.Name == other.Name && t.Active == other.Active
	case KindParameter:
		return t.ParamNumber == other.ParamNumber
	case KindGroup:
		if len(t.Body) != len(other.Body) {
			return false
		}
		if !t.Open.Equal(other.Open) || !t.Close.Equal(other.Close) {
			return false
		}
		for i := range t.Body {
			if !t.Body[i].Equal(other.Body[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// SameCategory implements \ifcat's predicate: true when both tokens are
// Character tokens sharing a category, or both are non-Character tokens
// (TeX treats every non-character token as sharing category 16 for the
// purposes of \ifcat).
func (t *Token) SameCategory(other *Token) bool {
	tc, tChar := t.catClass()
	oc, oChar := other.catClass()
	if tChar != oChar {
		return false
	}
	return tc == oc
}

func (t *Token) catClass() (Category, bool) {
	if t.Kind == KindCharacter {
		return t.Cat, true
	}
	return 0, false
}

// SameCharCode implements \if's predicate: true when both tokens denote
// the same character code (a Character token's Char, or an active
// control sequence's single-rune name); non-character, non-active
// tokens compare as code 256 (TeX's convention for "not a character").
func (t *Token) SameCharCode(other *Token) bool {
	tc, tok := t.charCode()
	oc, ok := other.charCode()
	if tok != ok {
		return false
	}
	return tc == oc
}

func (t *Token) charCode() (rune, bool) {
	if t.Kind == KindCharacter {
		return t.Char, true
	}
	if t.Kind == KindControlSequence && t.Active && len([]rune(t.Name)) == 1 {
		return []rune(t.Name)[0], true
	}
	return 0, false
}

// TextOf renders a token's textual form as \string produces it: for a
// non-active control sequence, the escape character (omitted when
// escapeChar is negative) followed by the name; for an active control
// sequence or a Character, the single character. No space is appended
// after a multi-letter name, and the mouth's \string pushes this text
// back unchanged.
func (t *Token) TextOf(escapeChar rune) string {
	switch t.Kind {
	case KindControlSequence:
		if t.Active {
			return t.Name
		}
		var b strings.Builder
		if escapeChar >= 0 {
			b.WriteRune(escapeChar)
		}
		b.WriteString(t.Name)
		return b.String()
	case KindCharacter:
		return string(t.Char)
	default:
		return ""
	}
}

// IsLetterRun reports whether name is longer than one rune, the length
// test behind TeX's rule that multi-letter control sequence names are
// followed by an implicit space when they're re-lexed. It does not
// look at the runes' categories.
func IsLetterRun(name string) bool {
	return len([]rune(name)) > 1
}
