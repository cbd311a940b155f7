package mouth

import (
	"github.com/gnieh/toolxit-tex/tex"
	"github.com/gnieh/toolxit-tex/tex/env"
)

// parseDefFamily implements §4.3.3: the introducer and any preceding
// modifiers have already been consumed; this reads the target name,
// the parameter text, the opening brace (implicit or explicit) and the
// replacement text, then installs the resulting Macro.
func (m *Mouth) parseDefFamily(introducer string, mods modifiers) error {
	nameTok, err := m.rawNext()
	if err != nil {
		return err
	}
	if nameTok.Kind != tex.KindControlSequence {
		return tex.UserErrorf(nameTok.Pos, "Missing control sequence after \\%s", introducer)
	}

	params, err := m.parseParamText()
	if err != nil {
		return err
	}

	openedByTrigger := len(params) > 0 && params[len(params)-1].BraceTrigger
	if !openedByTrigger {
		brace, err := m.rawNext()
		if err != nil {
			return err
		}
		if brace.Kind != tex.KindCharacter || brace.Cat != tex.CatBeginGroup {
			return tex.UserErrorf(brace.Pos, "Missing { inserted")
		}
	}

	paramCount := 0
	for _, p := range params {
		if p.IsParam {
			paramCount++
		}
	}

	expandNow := introducer == "edef" || introducer == "xdef"
	repl, err := m.parseReplacementText(paramCount, expandNow)
	if err != nil {
		return err
	}

	global := mods.global || introducer == "gdef" || introducer == "xdef"
	macro := &env.Macro{
		Name:        nameTok.Name,
		Global:      global,
		Long:        mods.long,
		Outer:       mods.outer,
		Params:      params,
		Replacement: repl,
		ExpandNow:   expandNow,
	}
	m.Env.Bind(nameTok.Name, &env.ControlSequence{Kind: env.CSMacro, Macro: macro}, global)
	m.MacrosDefined++
	return nil
}

// parseParamText implements §4.3.3's parameter-text grammar: parameter
// references numbered consecutively from 1, interspersed with maximal
// delimiter runs, terminated by an (unconsumed) BeginGroup or by the
// "#{" brace-trigger.
func (m *Mouth) parseParamText() ([]env.ParamElem, error) {
	var elems []env.ParamElem
	var delimBuf []*tex.Token
	next := 1

	flush := func() {
		if len(delimBuf) > 0 {
			elems = append(elems, env.ParamElem{Delims: delimBuf})
			delimBuf = nil
		}
	}

	for {
		tok, err := m.rawNext()
		if err != nil {
			return nil, err
		}

		if tok.Kind == tex.KindCharacter && tok.Cat == tex.CatBeginGroup {
			m.pushBack(tok)
			flush()
			return elems, nil
		}

		if tok.Kind == tex.KindParameter {
			flush()
			if tok.ParamNumber != next {
				return nil, tex.UserErrorf(tok.Pos,
					"Parameters must be numbered consecutively. The next parameter number should be %d and not %d", next, tok.ParamNumber)
			}
			elems = append(elems, env.ParamElem{IsParam: true, Number: tok.ParamNumber})
			next++
			continue
		}

		if tok.Kind == tex.KindCharacter && tok.Cat == tex.CatParameter {
			nxt, err := m.rawNext()
			if err == nil && nxt.Kind == tex.KindCharacter && nxt.Cat == tex.CatBeginGroup {
				flush()
				elems = append(elems, env.ParamElem{BraceTrigger: true})
				return elems, nil
			}
			delimBuf = append(delimBuf, tok)
			if err == nil {
				m.pushBack(nxt)
			}
			continue
		}

		delimBuf = append(delimBuf, tok)
	}
}

// parseReplacementText implements §4.3.3's replacement-text grammar.
// When expandNow is set (for \edef/\xdef) it reads through the mouth's
// normal expansion machinery instead of raw tokens, satisfying §3's
// invariant that \edef/\xdef expand their body at definition time.
func (m *Mouth) parseReplacementText(paramCount int, expandNow bool) ([]*tex.Token, error) {
	read := m.rawNext
	if expandNow {
		read = m.expanded
	}

	var out []*tex.Token
	depth := 0
	for {
		tok, err := read()
		if err != nil {
			return nil, err
		}

		if tok.Kind == tex.KindCharacter && tok.Cat == tex.CatParameter {
			nxt, err := read()
			if err != nil {
				return nil, err
			}
			switch {
			case nxt.Kind == tex.KindCharacter && nxt.Cat == tex.CatParameter:
				// "##": collapses to one literal Parameter-category character.
				out = append(out, tex.NewCharacter(tok.Pos, '#', tex.CatParameter))
			case nxt.Kind == tex.KindParameter:
				// The eyes already merged a second '#' with a following
				// digit; reconstruct the literal "#<digit>" this represents.
				out = append(out, tex.NewCharacter(tok.Pos, '#', tex.CatParameter))
				out = append(out, tex.NewCharacter(nxt.Pos, rune('0'+nxt.ParamNumber), tex.CatOther))
			default:
				return nil, tex.UserErrorf(tok.Pos, "Illegal parameter number in definition")
			}
			continue
		}

		if tok.Kind == tex.KindParameter {
			if tok.ParamNumber > paramCount {
				return nil, tex.UserErrorf(tok.Pos, "Parameter number %d does not exist in current macro", tok.ParamNumber)
			}
			out = append(out, tok)
			continue
		}

		if tok.Kind == tex.KindCharacter && tok.Cat == tex.CatBeginGroup {
			depth++
			out = append(out, tok)
			continue
		}

		if tok.Kind == tex.KindCharacter && tok.Cat == tex.CatEndGroup {
			if depth == 0 {
				return out, nil
			}
			depth--
			out = append(out, tok)
			continue
		}

		out = append(out, tok)
	}
}

// parseLet implements the supplemented \let\cs=<token>: bind \cs to
// <token>'s current meaning, one level of indirection (§4.3's EXPANSION
// notes, grounded on the teacher's letMacro).
func (m *Mouth) parseLet(mods modifiers) error {
	nameTok, err := m.rawNext()
	if err != nil {
		return err
	}
	if nameTok.Kind != tex.KindControlSequence {
		return tex.UserError(nameTok.Pos, "Missing control sequence after \\let")
	}

	skipOneOptionalEquals(m)

	target, err := m.rawNext()
	if err != nil {
		return err
	}
	cs := m.meaningAsControlSequence(target)
	m.Env.Bind(nameTok.Name, cs, mods.global)
	return nil
}

// parseFutureLet implements \futurelet\cs<t1><t2>: bind \cs to t1's
// current meaning, then push back t1 t2 unconsumed.
func (m *Mouth) parseFutureLet(mods modifiers) error {
	nameTok, err := m.rawNext()
	if err != nil {
		return err
	}
	if nameTok.Kind != tex.KindControlSequence {
		return tex.UserError(nameTok.Pos, "Missing control sequence after \\futurelet")
	}
	t1, err := m.rawNext()
	if err != nil {
		return err
	}
	t2, err := m.rawNext()
	if err != nil {
		return err
	}
	cs := m.meaningAsControlSequence(t1)
	m.Env.Bind(nameTok.Name, cs, mods.global)
	m.pushBack(t1, t2)
	return nil
}

// skipOneOptionalEquals consumes a single "=" (Other category) and one
// following space, if present, matching \let's classic call syntax.
func skipOneOptionalEquals(m *Mouth) {
	t, err := m.rawNext()
	if err != nil {
		return
	}
	if t.Kind == tex.KindCharacter && t.Char == '=' && t.Cat == tex.CatOther {
		sp, err := m.rawNext()
		if err != nil {
			return
		}
		if sp.Kind == tex.KindCharacter && sp.Cat == tex.CatSpace {
			return
		}
		m.pushBack(sp)
		return
	}
	m.pushBack(t)
}

// meaningAsControlSequence turns a raw token into the ControlSequence
// \let should bind to: for a control sequence, its current binding (or
// an implicit \relax-like "undefined" marker, represented by the
// primitive name "undefined", if it has none); for a Character, a
// synthetic primitive-like binding is not meaningful, so \let\cs<char>
// is represented by wrapping the character as a one-shot macro with no
// parameters whose replacement is that single character — matching
// TeX's rule that \let can bind a control sequence to a character token
// too.
func (m *Mouth) meaningAsControlSequence(t *tex.Token) *env.ControlSequence {
	if t.Kind == tex.KindControlSequence {
		if cs, ok := m.Env.Lookup(t.Name); ok {
			return cs
		}
		return &env.ControlSequence{Kind: env.CSPrimitive, PrimitiveName: "undefined"}
	}
	return &env.ControlSequence{Kind: env.CSMacro, Macro: &env.Macro{
		Name:        "(let character)",
		Replacement: []*tex.Token{t},
	}}
}
