package mouth

import (
	"strings"

	"github.com/gnieh/toolxit-tex/tex"
)

// stringOf implements §4.3.2 rule 4's textual form: the escaped name
// for a non-active control sequence, or the single character otherwise.
func (m *Mouth) stringOf(t *tex.Token) string {
	if t.Kind == tex.KindControlSequence {
		return t.TextOf(m.Env.EscapeChar())
	}
	if t.Kind == tex.KindCharacter {
		return string(t.Char)
	}
	return ""
}

// meaningOf implements §6's \meaning format.
func (m *Mouth) meaningOf(t *tex.Token) string {
	switch t.Kind {
	case tex.KindCharacter:
		return categoryMeaning(t.Cat, t.Char)
	case tex.KindControlSequence:
		cs, ok := m.Env.Lookup(t.Name)
		if !ok {
			return "undefined"
		}
		return cs.Meaning(m.Env.EscapeChar(), func(toks []*tex.Token) string {
			return renderTokens(toks, m.Env.EscapeChar())
		})
	default:
		return ""
	}
}

// categoryMeaning renders a Character token's \meaning text, matching
// TeX82's print_cmd_chr phrasing per category: most categories read
// "<name> character <k>", but the three whose name is already a full
// phrase ("the letter", "the character", "macro parameter character")
// are not doubled up.
func categoryMeaning(cat tex.Category, k rune) string {
	name := cat.MeaningName()
	if strings.HasPrefix(name, "the ") || name == "macro parameter character" {
		return name + " " + string(k)
	}
	return name + " character " + string(k)
}

// renderTokens renders a macro's parameter or replacement text back
// into source-like text, used by \meaning's "macro:" rendering.
func renderTokens(toks []*tex.Token, esc rune) string {
	var sb strings.Builder
	for _, t := range toks {
		if t.Kind == tex.KindParameter {
			sb.WriteString("#")
			sb.WriteString(string(rune('0' + t.ParamNumber)))
			continue
		}
		sb.WriteString(t.TextOf(esc))
	}
	return sb.String()
}
