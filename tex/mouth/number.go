package mouth

import (
	"strings"

	"github.com/gnieh/toolxit-tex/tex"
	"github.com/gnieh/toolxit-tex/tex/combinator"
	"github.com/gnieh/toolxit-tex/tex/env"
)

// numberLookahead is a safety bound on how many expanded tokens
// scanNumber will ever buffer while growing its incremental scan; real
// TeX numbers never come close to it. It guards against looping forever
// on pathological input, not against normal numbers, which are resolved
// with exactly one token of trailing lookahead (see scanNumber).
const numberLookahead = 64

type numEnv = struct{}

func isOtherChar(t *tex.Token, c rune) bool {
	return t.Kind == tex.KindCharacter && t.Cat == tex.CatOther && t.Char == c
}

func isDigitInBase(base int) func(*tex.Token) bool {
	return func(t *tex.Token) bool {
		if t.Kind != tex.KindCharacter {
			return false
		}
		if t.Cat != tex.CatOther && t.Cat != tex.CatLetter {
			return false
		}
		return digitValue(t.Char, base) >= 0
	}
}

func digitValue(r rune, base int) int {
	var v int
	switch {
	case r >= '0' && r <= '9':
		v = int(r - '0')
	case r >= 'A' && r <= 'F':
		v = int(r-'A') + 10
	case r >= 'a' && r <= 'f':
		v = int(r-'a') + 10
	default:
		return -1
	}
	if v >= base {
		return -1
	}
	return v
}

func digitsToValue(toks []*tex.Token, base int64) int64 {
	var v int64
	for _, t := range toks {
		v = v*base + int64(digitValue(t.Char, int(base)))
	}
	return v
}

var spaceP = combinator.Satisfy[*tex.Token, numEnv]("space", func(t *tex.Token) bool {
	return t.Kind == tex.KindCharacter && t.Cat == tex.CatSpace
})

var optSpaceP = combinator.Opt[*tex.Token, numEnv, *tex.Token](spaceP, nil)

var spacesP = combinator.Many[*tex.Token, numEnv, *tex.Token](spaceP)

var signP = combinator.Map(
	combinator.Satisfy[*tex.Token, numEnv]("sign", func(t *tex.Token) bool {
		return isOtherChar(t, '+') || isOtherChar(t, '-')
	}),
	func(t *tex.Token) int64 {
		if t.Char == '-' {
			return -1
		}
		return 1
	},
)

var signsP = combinator.Map(
	combinator.Many[*tex.Token, numEnv, int64](
		combinator.Bind(signP, func(s int64) combinator.Parser[*tex.Token, numEnv, int64] {
			return combinator.Then(spacesP, combinator.Success[*tex.Token, numEnv, int64](s))
		}),
	),
	func(signs []int64) int64 {
		v := int64(1)
		for _, s := range signs {
			v *= s
		}
		return v
	},
)

func digitRunP(base int, label string) combinator.Parser[*tex.Token, numEnv, int64] {
	return combinator.Map(
		combinator.Many1[*tex.Token, numEnv, *tex.Token](
			combinator.Satisfy[*tex.Token, numEnv](label, isDigitInBase(base)),
		),
		func(toks []*tex.Token) int64 { return digitsToValue(toks, int64(base)) },
	)
}

var decimalP = digitRunP(10, "digit")

var octalP = combinator.Then(
	combinator.Satisfy[*tex.Token, numEnv]("'", func(t *tex.Token) bool { return isOtherChar(t, '\'') }),
	digitRunP(8, "octal digit"),
)

var hexP = combinator.Then(
	combinator.Satisfy[*tex.Token, numEnv]("\"", func(t *tex.Token) bool { return isOtherChar(t, '"') }),
	digitRunP(16, "hex digit"),
)

var charTokenP = combinator.Then(
	combinator.Satisfy[*tex.Token, numEnv]("`", func(t *tex.Token) bool { return isOtherChar(t, '`') }),
	combinator.Map(combinator.Any[*tex.Token, numEnv](), func(t *tex.Token) int64 {
		if t.Kind == tex.KindControlSequence && len([]rune(t.Name)) == 1 {
			return int64([]rune(t.Name)[0])
		}
		return int64(t.Char)
	}),
)

// internalParser reads a count/dimen/skip/muskip register reference or
// \escapechar, consulting e. Built per scanNumber call since it closes
// over the current environment.
func internalParser(e *env.Environment) combinator.Parser[*tex.Token, numEnv, int64] {
	return combinator.Bind(combinator.Any[*tex.Token, numEnv](), func(t *tex.Token) combinator.Parser[*tex.Token, numEnv, int64] {
		if t.Kind != tex.KindControlSequence {
			return combinator.Fail[*tex.Token, numEnv, int64]("internal quantity")
		}
		if t.Name == "escapechar" && !t.Active {
			return combinator.Success[*tex.Token, numEnv, int64](int64(e.EscapeChar()))
		}
		cs, bound := e.Lookup(t.Name)
		if !bound {
			return combinator.Fail[*tex.Token, numEnv, int64]("internal quantity")
		}
		switch cs.Kind {
		case env.CSCountDef:
			return combinator.Success[*tex.Token, numEnv, int64](e.Count(cs.RegisterIndex))
		case env.CSDimenDef:
			return combinator.Success[*tex.Token, numEnv, int64](e.Dimen(cs.RegisterIndex))
		case env.CSSkipDef:
			return combinator.Success[*tex.Token, numEnv, int64](e.Skip(cs.RegisterIndex))
		case env.CSMuskipDef:
			return combinator.Success[*tex.Token, numEnv, int64](e.Muskip(cs.RegisterIndex))
		}
		return combinator.Fail[*tex.Token, numEnv, int64]("internal quantity")
	})
}

func numberGrammar(e *env.Environment) combinator.Parser[*tex.Token, numEnv, int64] {
	valueP := combinator.Or(combinator.Attempt(internalParser(e)), combinator.Or(decimalP, combinator.Or(octalP, combinator.Or(hexP, charTokenP))))
	return combinator.Bind(spacesP, func([]*tex.Token) combinator.Parser[*tex.Token, numEnv, int64] {
		return combinator.Bind(signsP, func(sign int64) combinator.Parser[*tex.Token, numEnv, int64] {
			return combinator.Bind(spacesP, func([]*tex.Token) combinator.Parser[*tex.Token, numEnv, int64] {
				return combinator.Bind(valueP, func(v int64) combinator.Parser[*tex.Token, numEnv, int64] {
					return combinator.Then(optSpaceP, combinator.Success[*tex.Token, numEnv, int64](sign*v))
				})
			})
		})
	})
}

// scanNumber implements §4.3.5's number lexer, reading expanded tokens
// (matching real TeX's scan_int, which expands while scanning).
//
// It grows buf one expanded token at a time and reparses the whole
// grammar against it after each addition, rather than bulk-reading a
// fixed window: as long as the grammar consumes every token in buf
// (pos == len(buf)), the number might still be extended by what follows,
// so one more token is pulled. The moment a token fails to extend the
// parse (pos < len(buf)), the grammar's answer is final — growing buf
// further could never change it — so the scan stops there and only that
// unconsumed suffix (ordinarily a single token) is pushed back. This
// limits what the scan expands — and thereby executes — past the number
// to the one token that ends it, instead of a whole window of following
// tokens (macro calls, group boundaries, \input, a bare \else/\or/\fi)
// the way a single eager lookahead window would.
func (m *Mouth) scanNumber() (int64, error) {
	var buf []*tex.Token
	for len(buf) < numberLookahead {
		t, err := m.expanded()
		if err != nil {
			break
		}
		buf = append(buf, t)

		value, _, pos, result := combinator.Run(numberGrammar(m.Env), buf, numEnv{})
		if pos < len(buf) {
			m.pushBack(buf[pos:]...)
			if !result.Ok {
				return 0, tex.UserError(buf[0].Pos, "Missing number, treated as zero")
			}
			return value, nil
		}
	}

	value, _, pos, result := combinator.Run(numberGrammar(m.Env), buf, numEnv{})
	m.pushBack(buf[pos:]...)
	if !result.Ok {
		at := tex.Position{}
		if len(buf) > 0 {
			at = buf[0].Pos
		}
		return 0, tex.UserError(at, "Missing number, treated as zero")
	}
	return value, nil
}

// expandThe implements §4.3.2's supplemented rule 2.5: \the renders one
// internal quantity's decimal external representation.
func (m *Mouth) expandThe(pos tex.Position) ([]*tex.Token, error) {
	n, err := m.scanNumber()
	if err != nil {
		return nil, err
	}
	return digitsToTokens(pos, n), nil
}

// romanNumeral renders n as a lowercase roman numeral, or "" for n<=0,
// per §4.3.2 rule 3.
func romanNumeral(n int64) string {
	if n <= 0 {
		return ""
	}
	type pair struct {
		v int64
		s string
	}
	table := []pair{
		{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
		{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
		{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
	}
	var sb strings.Builder
	for _, p := range table {
		for n >= p.v {
			sb.WriteString(p.s)
			n -= p.v
		}
	}
	return sb.String()
}
