package mouth

import (
	"strconv"
	"strings"

	"github.com/gnieh/toolxit-tex/tex"
	"github.com/gnieh/toolxit-tex/tex/env"
)

// conditionalStarters names every control sequence that opens a new
// conditional, needed by the skip-scanner to track nesting correctly
// over inner \if...\fi per §4.3.6.
var conditionalStarters = map[string]bool{
	"ifnum": true, "ifdim": true, "ifodd": true,
	"ifvmode": true, "ifhmode": true, "ifmmode": true, "ifinner": true,
	"if": true, "ifcat": true, "ifx": true, "ifcase": true,
}

// expanded implements §4.3.2's rule list. It always consumes a raw
// token first, as the spec requires, then dispatches.
func (m *Mouth) expanded() (*tex.Token, error) {
	tok, err := m.rawNext()
	if err != nil {
		return nil, err
	}

	if tok.Kind != tex.KindControlSequence {
		return tok, nil // rule 14: non-control-sequence tokens pass through untouched
	}

	name := tok.Name
	cs, bound := m.Env.Lookup(name)

	if m.pending.any() && !(bound && isPrefixable(cs)) {
		return nil, tex.UserErrorf(tok.Pos, "You can't use a prefix with `%s'", tok.TextOf(m.Env.EscapeChar()))
	}

	if !bound {
		return tok, nil // rule 14: undefined control sequence, the stomach's problem
	}

	switch cs.Kind {
	case env.CSMacro:
		if err := m.invokeMacro(tok, cs.Macro); err != nil {
			return nil, err
		}
		return m.expanded()
	case env.CSPrimitive:
		return m.expandPrimitive(tok, cs.PrimitiveName, m.expanded)
	default:
		// CSCountDef/CSDimenDef/... aren't expandable on their own; only
		// \the<name> or an arithmetic assignment (out of scope) uses them.
		return tok, nil
	}
}

// expandOnce implements rule 9's "expand the token after next exactly
// once": \expandafter needs a single expansion step applied in place,
// leaving whatever that step produces sitting unexpanded at the front
// of the input, rather than driving to a fixpoint the way expanded()
// does. A macro call's replacement text, or a primitive's pushed-back
// result, is left as-is for the normal reading loop to pick up later; a
// token that needs no processing at all (an unbound name, \relax,
// \par, a plain character, ...) is simply pushed back unchanged.
func (m *Mouth) expandOnce() error {
	tok, err := m.rawNext()
	if err != nil {
		return err
	}

	if tok.Kind != tex.KindControlSequence {
		m.pushBack(tok)
		return nil
	}

	name := tok.Name
	cs, bound := m.Env.Lookup(name)

	if m.pending.any() && !(bound && isPrefixable(cs)) {
		return tex.UserErrorf(tok.Pos, "You can't use a prefix with `%s'", tok.TextOf(m.Env.EscapeChar()))
	}

	if !bound {
		m.pushBack(tok)
		return nil
	}

	switch cs.Kind {
	case env.CSMacro:
		return m.invokeMacro(tok, cs.Macro)
	case env.CSPrimitive:
		noop := func() (*tex.Token, error) { return nil, nil }
		result, err := m.expandPrimitive(tok, cs.PrimitiveName, noop)
		if err != nil {
			return err
		}
		if result != nil {
			m.pushBack(result)
		}
		return nil
	default:
		m.pushBack(tok)
		return nil
	}
}

func isPrefixable(cs *env.ControlSequence) bool {
	if cs.Kind != env.CSPrimitive {
		return false
	}
	switch cs.PrimitiveName {
	case "global", "long", "outer", "def", "edef", "gdef", "xdef", "let", "futurelet":
		return true
	}
	return false
}

// expandPrimitive dispatches one bound primitive per §4.3.2. cont is
// called whenever the primitive's own step consumed its token without
// itself producing a result to return: m.expanded drives the caller on
// to a fully expanded token (normal expansion), while a no-op cont
// (used by expandOnce) just leaves this step's pushback sitting at the
// front of the input for the one-step \expandafter semantics.
func (m *Mouth) expandPrimitive(tok *tex.Token, name string, cont func() (*tex.Token, error)) (*tex.Token, error) {
	switch name {
	case "global":
		m.pending.global = true
		return cont()
	case "long":
		m.pending.long = true
		return cont()
	case "outer":
		m.pending.outer = true
		return cont()

	case "def", "edef", "gdef", "xdef":
		mods := m.pending
		m.pending = modifiers{}
		if err := m.parseDefFamily(name, mods); err != nil {
			return nil, err
		}
		return cont()

	case "let":
		mods := m.pending
		m.pending = modifiers{}
		if err := m.parseLet(mods); err != nil {
			return nil, err
		}
		return cont()

	case "futurelet":
		mods := m.pending
		m.pending = modifiers{}
		if err := m.parseFutureLet(mods); err != nil {
			return nil, err
		}
		return cont()

	case "relax":
		return tok, nil // \relax is non-expandable: it passes through like any primitive not in our rule list

	case "par":
		return tok, nil

	case "number":
		n, err := m.scanNumber()
		if err != nil {
			return nil, err
		}
		m.pushBack(digitsToTokens(tok.Pos, n)...)
		return cont()

	case "the":
		toks, err := m.expandThe(tok.Pos)
		if err != nil {
			return nil, err
		}
		m.pushBack(toks...)
		return cont()

	case "romannumeral":
		n, err := m.scanNumber()
		if err != nil {
			return nil, err
		}
		m.pushBack(textToOtherTokens(tok.Pos, romanNumeral(n))...)
		return cont()

	case "string":
		t, err := m.rawNext()
		if err != nil {
			return nil, err
		}
		m.pushBack(textToOtherTokens(tok.Pos, m.stringOf(t))...)
		return cont()

	case "jobname":
		m.pushBack(textToOtherTokens(tok.Pos, m.JobName)...)
		return cont()

	case "fontname":
		m.pushBack(textToOtherTokens(tok.Pos, "nullfont")...)
		return cont()

	case "meaning":
		t, err := m.rawNext()
		if err != nil {
			return nil, err
		}
		m.pushBack(textToOtherTokens(tok.Pos, m.meaningOf(t))...)
		return cont()

	case "csname":
		result, err := m.expandCsname()
		if err != nil {
			return nil, err
		}
		m.pushBack(result)
		return cont()

	case "endcsname":
		return nil, tex.UserError(tok.Pos, "extra \\endcsname")

	case "expandafter":
		t, err := m.rawNext()
		if err != nil {
			return nil, err
		}
		// Rule 9: expand the following token exactly once, not to a
		// fixpoint, then reinsert t ahead of whatever that produced.
		if err := m.expandOnce(); err != nil {
			return nil, err
		}
		m.pushBack(t)
		return cont()

	case "noexpand":
		t, err := m.rawNext()
		if err != nil {
			return nil, err
		}
		if m.wouldExpand(t) {
			m.pushBack(tex.NewControlSequence(t.Pos, "relax", false))
		} else {
			m.pushBack(t)
		}
		return cont()

	case "input":
		fname, err := m.scanFileName()
		if err != nil {
			return nil, err
		}
		prior := m.Src.CurrentSourceName()
		if err := m.Src.Include(fname); err != nil {
			return nil, tex.UserErrorf(tok.Pos, "could not \\input %s: %v", fname, err)
		}
		m.including = append(m.including, includeFrame{Name: prior, Pos: tok.Pos})
		m.Eyes.Reset()
		return cont()

	case "endinput":
		m.endinputPending = true
		return cont()

	case "ifnum", "ifdim", "ifodd", "ifvmode", "ifhmode", "ifmmode", "ifinner",
		"if", "ifcat", "ifx":
		if err := m.expandConditional(name); err != nil {
			return nil, err
		}
		return cont()

	case "ifcase":
		if err := m.expandIfcase(); err != nil {
			return nil, err
		}
		return cont()

	case "else":
		if m.condDepth == 0 {
			return nil, tex.UserError(tok.Pos, "extra \\else")
		}
		// We were expanding a taken "then" branch; the matching \else
		// starts an else-branch we must now discard in full.
		if _, err := m.skipBranch(map[string]bool{"fi": true}); err != nil {
			return nil, err
		}
		m.condDepth--
		return cont()

	case "or":
		if m.condDepth == 0 {
			return nil, tex.UserError(tok.Pos, "extra \\or")
		}
		// Reached while expanding an \ifcase branch that was taken:
		// discard every remaining branch through \fi.
		if _, err := m.skipBranch(map[string]bool{"fi": true}); err != nil {
			return nil, err
		}
		m.condDepth--
		return cont()

	case "fi":
		if m.condDepth == 0 {
			return nil, tex.UserError(tok.Pos, "extra \\fi")
		}
		m.condDepth--
		return cont()
	}

	// Any other primitive name (bound in the environment but not part of
	// §4.3.2's rule list, or §4.3.2 rule 14 verbatim) passes through.
	return tok, nil
}

// wouldExpand reports whether t, if read through expanded(), would be
// rewritten rather than returned as-is — the predicate \noexpand needs.
func (m *Mouth) wouldExpand(t *tex.Token) bool {
	if t.Kind != tex.KindControlSequence {
		return false
	}
	cs, ok := m.Env.Lookup(t.Name)
	if !ok {
		return false
	}
	if cs.Kind == env.CSMacro {
		return true
	}
	if cs.Kind != env.CSPrimitive {
		return false
	}
	switch cs.PrimitiveName {
	case "relax", "par":
		return false
	default:
		return true
	}
}

// invokeMacro binds cs's arguments against the following tokens, then
// substitutes into the replacement text and pushes the result back,
// per §4.3.2 rule 1.
func (m *Mouth) invokeMacro(tok *tex.Token, mac *env.Macro) error {
	wasEnabled := m.expansionEnabled
	m.expansionEnabled = false
	args, err := m.bindArguments(tok, mac)
	m.expansionEnabled = wasEnabled
	if err != nil {
		return err
	}

	out := make([]*tex.Token, 0, len(mac.Replacement))
	for _, rt := range mac.Replacement {
		if rt.Kind == tex.KindParameter {
			arg := args[rt.ParamNumber-1]
			for _, at := range arg {
				out = append(out, at.Flatten()...)
			}
			continue
		}
		out = append(out, rt)
	}
	m.pushBack(out...)
	return nil
}

// bindArguments implements §4.3.4 against mac.Params, returning one
// token slice per declared parameter (args[k-1] is Parameter(k)'s
// binding). Expansion must already be disabled by the caller.
func (m *Mouth) bindArguments(tok *tex.Token, mac *env.Macro) ([][]*tex.Token, error) {
	args := make([][]*tex.Token, mac.ParamCount())

	for i := 0; i < len(mac.Params); i++ {
		p := mac.Params[i]

		switch {
		case p.BraceTrigger:
			// The opening brace was already synthesised at definition
			// time (§9's resolved open question); nothing to consume.

		case p.IsParam:
			undelimited := i+1 >= len(mac.Params) || mac.Params[i+1].IsParam || mac.Params[i+1].BraceTrigger
			if undelimited {
				val, err := m.bindUndelimited(tok, mac)
				if err != nil {
					return nil, err
				}
				args[p.Number-1] = val
			} else {
				val, err := m.bindDelimited(tok, mac, mac.Params[i+1].Delims)
				if err != nil {
					return nil, err
				}
				args[p.Number-1] = val
				// The next element is the delimiter run bindDelimited's
				// lookahead just matched; skip it so the default case below
				// does not try to match it a second time.
				i++
			}

		default:
			if err := m.matchDelims(tok, p.Delims); err != nil {
				return nil, err
			}
		}
	}
	return args, nil
}

func (m *Mouth) bindUndelimited(tok *tex.Token, mac *env.Macro) ([]*tex.Token, error) {
	next, err := m.rawNext()
	if err != nil {
		return nil, err
	}
	if next.Kind == tex.KindCharacter && next.Cat == tex.CatBeginGroup {
		body, close, err := m.readBalancedGroup()
		if err != nil {
			return nil, err
		}
		if !mac.Long {
			if containsPar(body) {
				return nil, tex.UserErrorf(tok.Pos, "Paragraph ended before \\%s was complete", mac.Name)
			}
		}
		return []*tex.Token{tex.NewGroup(next, body, close)}, nil
	}
	if !mac.Long && next.Kind == tex.KindControlSequence && next.Name == "par" && !next.Active {
		return nil, tex.UserErrorf(tok.Pos, "Paragraph ended before \\%s was complete", mac.Name)
	}
	return []*tex.Token{next}, nil
}

func (m *Mouth) bindDelimited(tok *tex.Token, mac *env.Macro, delim []*tex.Token) ([]*tex.Token, error) {
	var collected []*tex.Token
	depth := 0
	for {
		if depth == 0 {
			if ok, err := m.tryMatchDelims(delim); err != nil {
				return nil, err
			} else if ok {
				if !mac.Long && containsPar(collected) {
					return nil, tex.UserErrorf(tok.Pos, "Paragraph ended before \\%s was complete", mac.Name)
				}
				return unwrapSingleGroup(collected), nil
			}
		}
		next, err := m.rawNext()
		if err != nil {
			return nil, tex.UserErrorf(tok.Pos, "File ended while scanning arguments of \\%s", mac.Name)
		}
		if next.Kind == tex.KindCharacter && next.Cat == tex.CatBeginGroup {
			depth++
		} else if next.Kind == tex.KindCharacter && next.Cat == tex.CatEndGroup {
			depth--
		}
		collected = append(collected, next)
	}
}

// unwrapSingleGroup implements TeX's rule that a delimited argument
// consisting of exactly one braced group has its outer braces stripped.
func unwrapSingleGroup(toks []*tex.Token) []*tex.Token {
	if len(toks) < 2 {
		return toks
	}
	if toks[0].Kind != tex.KindCharacter || toks[0].Cat != tex.CatBeginGroup {
		return toks
	}
	if toks[len(toks)-1].Kind != tex.KindCharacter || toks[len(toks)-1].Cat != tex.CatEndGroup {
		return toks
	}
	depth := 0
	for _, t := range toks[:len(toks)-1] {
		if t.Kind == tex.KindCharacter && t.Cat == tex.CatBeginGroup {
			depth++
		} else if t.Kind == tex.KindCharacter && t.Cat == tex.CatEndGroup {
			depth--
			if depth == 0 {
				return toks // an inner group closes before the end: not a single wrapping group
			}
		}
	}
	return toks[1 : len(toks)-1]
}

func containsPar(toks []*tex.Token) bool {
	for _, t := range toks {
		if t.Kind == tex.KindControlSequence && t.Name == "par" && !t.Active {
			return true
		}
		if t.Kind == tex.KindGroup && containsPar(t.Body) {
			return true
		}
	}
	return false
}

func (m *Mouth) matchDelims(tok *tex.Token, delim []*tex.Token) error {
	ok, err := m.tryMatchDelims(delim)
	if err != nil {
		return err
	}
	if !ok {
		return tex.UserErrorf(tok.Pos, "Use of \\%s doesn't match its definition", tok.Name)
	}
	return nil
}

// tryMatchDelims peeks len(delim) raw tokens and, if they match
// literally, consumes them and reports true; otherwise it pushes
// everything back unconsumed and reports false.
func (m *Mouth) tryMatchDelims(delim []*tex.Token) (bool, error) {
	if len(delim) == 0 {
		return true, nil
	}
	var peeked []*tex.Token
	for range delim {
		t, err := m.rawNext()
		if err != nil {
			m.pushBack(peeked...)
			return false, nil
		}
		peeked = append(peeked, t)
	}
	for i, d := range delim {
		if !peeked[i].Equal(d) {
			m.pushBack(peeked...)
			return false, nil
		}
	}
	return true, nil
}

func (m *Mouth) readBalancedGroup() ([]*tex.Token, *tex.Token, error) {
	var body []*tex.Token
	depth := 0
	for {
		t, err := m.rawNext()
		if err != nil {
			return nil, nil, err
		}
		if t.Kind == tex.KindCharacter && t.Cat == tex.CatBeginGroup {
			depth++
			body = append(body, t)
			continue
		}
		if t.Kind == tex.KindCharacter && t.Cat == tex.CatEndGroup {
			if depth == 0 {
				return body, t, nil
			}
			depth--
			body = append(body, t)
			continue
		}
		body = append(body, t)
	}
}

// expandCsname implements §4.3.2 rule 8.
func (m *Mouth) expandCsname() (*tex.Token, error) {
	var sb strings.Builder
	for {
		t, err := m.rawNext()
		if err != nil {
			return nil, err
		}
		if t.Kind == tex.KindControlSequence && t.Name == "endcsname" && !t.Active {
			break
		}
		if m.wouldExpand(t) {
			m.pushBack(t)
			if err := m.expandOnce(); err != nil {
				return nil, err
			}
			continue
		}
		if t.Kind != tex.KindCharacter {
			return nil, tex.UserErrorf(t.Pos, "Missing \\endcsname inserted")
		}
		sb.WriteRune(t.Char)
	}
	name := sb.String()
	if _, ok := m.Env.Lookup(name); ok {
		return tex.NewControlSequence(tex.Position{}, name, false), nil
	}
	return tex.NewControlSequence(tex.Position{}, "relax", false), nil
}

// scanFileName implements §4.3.2 rule 11's "read a whitespace-delimited
// file name by expansion".
func (m *Mouth) scanFileName() (string, error) {
	var sb strings.Builder
	for {
		t, err := m.expanded()
		if err != nil {
			if err == errEOF && sb.Len() > 0 {
				break
			}
			return "", err
		}
		if t.Kind == tex.KindCharacter && t.Cat == tex.CatSpace {
			if sb.Len() == 0 {
				continue
			}
			break
		}
		if t.Kind != tex.KindCharacter {
			m.pushBack(t)
			break
		}
		sb.WriteRune(t.Char)
	}
	return sb.String(), nil
}

func digitsToTokens(pos tex.Position, n int64) []*tex.Token {
	return textToOtherTokens(pos, strconv.FormatInt(n, 10))
}

func textToOtherTokens(pos tex.Position, s string) []*tex.Token {
	out := make([]*tex.Token, 0, len(s))
	for _, r := range s {
		out = append(out, tex.NewCharacter(pos, r, tex.CatOther))
	}
	return out
}
