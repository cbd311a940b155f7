package mouth

import (
	"github.com/gnieh/toolxit-tex/tex"
	"github.com/gnieh/toolxit-tex/tex/env"
)

// expandConditional implements §4.3.6's branch selection for every
// \if... primitive except \ifcase (handled separately since its
// branches are \or-delimited rather than binary).
func (m *Mouth) expandConditional(name string) error {
	result, err := m.evalConditional(name)
	if err != nil {
		return err
	}
	m.condDepth++
	if result {
		// The "then" branch is expanded normally; a raw \else reached
		// later (handled in expand.go) discards the else-branch and
		// pops, a raw \fi just pops.
		return nil
	}
	stop, err := m.skipBranch(map[string]bool{"else": true, "fi": true})
	if err != nil {
		return err
	}
	if stop == "fi" {
		m.condDepth--
	}
	return nil
}

// expandIfcase implements the supplemented \ifcase: skip n \or-
// delimited branches, landing on the n-th (or the \else branch, or
// nothing, if n is out of range), per §4.3's EXPANSION notes.
func (m *Mouth) expandIfcase() error {
	n, err := m.scanNumber()
	if err != nil {
		return err
	}
	m.condDepth++
	stopSet := map[string]bool{"or": true, "else": true, "fi": true}
	for n > 0 {
		stop, err := m.skipBranch(stopSet)
		if err != nil {
			return err
		}
		switch stop {
		case "fi":
			m.condDepth--
			return nil
		case "else":
			return nil
		}
		n--
	}
	return nil
}

// skipBranch scans raw (unexpanded) tokens, tracking conditional
// nesting, until it finds one of stopNames at nesting depth 0. It
// consumes the stop token and returns its name.
func (m *Mouth) skipBranch(stopNames map[string]bool) (string, error) {
	depth := 0
	for {
		tok, err := m.rawNext()
		if err != nil {
			return "", err
		}
		if tok.Kind != tex.KindControlSequence || tok.Active {
			continue
		}
		if depth == 0 && stopNames[tok.Name] {
			return tok.Name, nil
		}
		if conditionalStarters[tok.Name] {
			depth++
		} else if tok.Name == "fi" {
			depth--
		}
	}
}

func (m *Mouth) evalConditional(name string) (bool, error) {
	switch name {
	case "ifnum", "ifdim":
		a, err := m.scanNumber()
		if err != nil {
			return false, err
		}
		rel, err := m.scanRelation()
		if err != nil {
			return false, err
		}
		b, err := m.scanNumber()
		if err != nil {
			return false, err
		}
		switch rel {
		case '<':
			return a < b, nil
		case '>':
			return a > b, nil
		default:
			return a == b, nil
		}

	case "ifodd":
		a, err := m.scanNumber()
		if err != nil {
			return false, err
		}
		return a%2 != 0, nil

	case "ifvmode":
		return m.Env.Mode().IsVertical(), nil
	case "ifhmode":
		return m.Env.Mode().IsHorizontal(), nil
	case "ifmmode":
		return m.Env.Mode().IsMath(), nil
	case "ifinner":
		return m.Env.Mode().IsInner(), nil

	case "if":
		t1, err := m.expanded()
		if err != nil {
			return false, err
		}
		t2, err := m.expanded()
		if err != nil {
			return false, err
		}
		return t1.SameCharCode(t2), nil

	case "ifcat":
		t1, err := m.expanded()
		if err != nil {
			return false, err
		}
		t2, err := m.expanded()
		if err != nil {
			return false, err
		}
		return t1.SameCategory(t2), nil

	case "ifx":
		t1, err := m.rawNext()
		if err != nil {
			return false, err
		}
		t2, err := m.rawNext()
		if err != nil {
			return false, err
		}
		return m.ifxEqual(t1, t2), nil
	}
	return false, tex.InternalError(tex.Position{}, "unknown conditional \\"+name)
}

// scanRelation reads \ifnum/\ifdim's relational operator.
func (m *Mouth) scanRelation() (rune, error) {
	t, err := m.expanded()
	if err != nil {
		return 0, err
	}
	if t.Kind != tex.KindCharacter || (t.Char != '<' && t.Char != '=' && t.Char != '>') {
		return 0, tex.UserErrorf(t.Pos, "Missing = inserted for \\ifnum")
	}
	return t.Char, nil
}

// ifxEqual implements \ifx: two control sequences compare equal when
// they share the same current meaning (both undefined also counts as
// equal, matching real TeX); anything else compares structurally.
func (m *Mouth) ifxEqual(t1, t2 *tex.Token) bool {
	if t1.Kind != t2.Kind {
		return false
	}
	if t1.Kind != tex.KindControlSequence {
		return t1.Equal(t2)
	}
	cs1, ok1 := m.Env.Lookup(t1.Name)
	cs2, ok2 := m.Env.Lookup(t2.Name)
	if !ok1 && !ok2 {
		return true
	}
	if ok1 != ok2 {
		return false
	}
	return controlSequenceMeaningEqual(cs1, cs2)
}

func controlSequenceMeaningEqual(a, b *env.ControlSequence) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case env.CSPrimitive:
		return a.PrimitiveName == b.PrimitiveName
	case env.CSMacro:
		return macroEqual(a.Macro, b.Macro)
	case env.CSCountDef, env.CSDimenDef, env.CSSkipDef, env.CSMuskipDef, env.CSTokenListDef:
		return a.RegisterIndex == b.RegisterIndex
	case env.CSCharDef:
		return a.CodePoint == b.CodePoint
	case env.CSMathCharDef:
		return a.MathCode == b.MathCode
	case env.CSFontDef:
		return a.FontHandle == b.FontHandle
	}
	return false
}

func macroEqual(a, b *env.Macro) bool {
	if a.Long != b.Long || a.Outer != b.Outer {
		return false
	}
	if len(a.Params) != len(b.Params) || len(a.Replacement) != len(b.Replacement) {
		return false
	}
	for i := range a.Params {
		pa, pb := a.Params[i], b.Params[i]
		if pa.IsParam != pb.IsParam || pa.Number != pb.Number || pa.BraceTrigger != pb.BraceTrigger {
			return false
		}
		if len(pa.Delims) != len(pb.Delims) {
			return false
		}
		for j := range pa.Delims {
			if !pa.Delims[j].Equal(pb.Delims[j]) {
				return false
			}
		}
	}
	for i := range a.Replacement {
		if !a.Replacement[i].Equal(b.Replacement[i]) {
			return false
		}
	}
	return true
}
