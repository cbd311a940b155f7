// Package env implements §3's Environment: a stack of scoped frames
// holding category codes, control-sequence bindings and the count/
// dimen/skip/muskip registers, plus the internal \escapechar and the
// current typesetting mode. Lookups walk the stack toward the root;
// writes target either the current frame or, when marked global, the
// root, exactly as specified.
package env

import (
	"fmt"

	"github.com/gnieh/toolxit-tex/tex"
)

// Mode is the environment's current typesetting mode, read by the
// mode-predicate conditionals (\ifvmode, \ifhmode, \ifmmode, \ifinner).
type Mode int

const (
	ModeVertical Mode = iota
	ModeHorizontal
	ModeMath
	ModeInnerVertical
	ModeInnerHorizontal
	ModeInnerMath
)

// IsInner reports whether m is one of the three "inner" modes, the
// predicate \ifinner tests (see SPEC_FULL.md's open-question resolution:
// \ifinner reads its own name and compares against the true inner-mode
// predicate, not \ifmmode's).
func (m Mode) IsInner() bool {
	return m == ModeInnerVertical || m == ModeInnerHorizontal || m == ModeInnerMath
}

// IsMath reports whether m is a math mode, outer or inner.
func (m Mode) IsMath() bool { return m == ModeMath || m == ModeInnerMath }

// IsHorizontal reports whether m is a horizontal mode.
func (m Mode) IsHorizontal() bool { return m == ModeHorizontal || m == ModeInnerHorizontal }

// IsVertical reports whether m is a vertical mode.
func (m Mode) IsVertical() bool { return m == ModeVertical || m == ModeInnerVertical }

// CSKind tags the ControlSequence variant described in §3.
type CSKind int

const (
	CSPrimitive CSKind = iota
	CSMacro
	CSCountDef
	CSDimenDef
	CSSkipDef
	CSMuskipDef
	CSCharDef
	CSMathCharDef
	CSTokenListDef
	CSFontDef
)

// ParamElem is one element of a macro's parameter text: either a
// parameter reference or a run of literal delimiter tokens. BraceTrigger
// marks the special trailing "#{" element (§4.3.3): it closes the
// parameter text, and its "{" opens the replacement text. At a call
// site nothing is consumed or inserted for it; the parameter before it
// is bound as an undelimited argument.
type ParamElem struct {
	IsParam      bool
	Number       int
	Delims       []*tex.Token
	BraceTrigger bool
}

// Macro is a user-defined control sequence, §3's Macro variant.
type Macro struct {
	Name        string
	Global      bool
	Long        bool
	Outer       bool
	Params      []ParamElem
	Replacement []*tex.Token
	ExpandNow   bool
}

// ParamCount returns how many #n parameters this macro's parameter text
// declares (not counting a trailing brace-trigger).
func (m *Macro) ParamCount() int {
	n := 0
	for _, p := range m.Params {
		if p.IsParam {
			n++
		}
	}
	return n
}

// ControlSequence is §3's tagged ControlSequence variant.
type ControlSequence struct {
	Kind CSKind

	// CSPrimitive
	PrimitiveName string

	// CSMacro
	Macro *Macro

	// CSCountDef / CSDimenDef / CSSkipDef / CSMuskipDef / CSTokenListDef
	RegisterIndex int

	// CSCharDef / CSMathCharDef
	CodePoint rune
	MathCode  int

	// CSFontDef
	FontHandle string
}

// Meaning renders the control sequence's \meaning text per §6, given
// the environment's current escape character (used for the primitive
// and register-def cases).
func (cs *ControlSequence) Meaning(escapeChar rune, render func([]*tex.Token) string) string {
	esc := ""
	if escapeChar >= 0 {
		esc = string(escapeChar)
	}
	switch cs.Kind {
	case CSPrimitive:
		return esc + cs.PrimitiveName
	case CSMacro:
		return "macro:" + renderParams(cs.Macro.Params) + "->" + render(cs.Macro.Replacement)
	case CSCountDef:
		return fmt.Sprintf("%scount%d", esc, cs.RegisterIndex)
	case CSDimenDef:
		return fmt.Sprintf("%sdimen%d", esc, cs.RegisterIndex)
	case CSSkipDef:
		return fmt.Sprintf("%sskip%d", esc, cs.RegisterIndex)
	case CSMuskipDef:
		return fmt.Sprintf("%smuskip%d", esc, cs.RegisterIndex)
	case CSCharDef:
		return fmt.Sprintf(`%schar"%X`, esc, cs.CodePoint)
	case CSMathCharDef:
		return fmt.Sprintf(`%smathchar"%X`, esc, cs.MathCode)
	case CSTokenListDef:
		return fmt.Sprintf("%stoks%d", esc, cs.RegisterIndex)
	case CSFontDef:
		return esc + "select font " + cs.FontHandle
	}
	return "undefined"
}

func renderParams(params []ParamElem) string {
	out := ""
	for _, p := range params {
		if p.BraceTrigger {
			out += "#{"
			continue
		}
		if p.IsParam {
			out += fmt.Sprintf("#%d", p.Number)
			continue
		}
		for _, tok := range p.Delims {
			out += tok.TextOf('\\')
		}
	}
	return out
}

// frame is one scope: pushed by EnterGroup, popped by LeaveGroup. The
// root frame (index 0) is never popped.
type frame struct {
	categories map[rune]tex.Category
	controlSeq map[string]*ControlSequence
	count      map[int]int64
	dimen      map[int]int64
	skip       map[int]int64
	muskip     map[int]int64
	escapeChar *rune
	mode       *Mode
}

func newFrame() *frame {
	return &frame{
		categories: make(map[rune]tex.Category),
		controlSeq: make(map[string]*ControlSequence),
		count:      make(map[int]int64),
		dimen:      make(map[int]int64),
		skip:       make(map[int]int64),
		muskip:     make(map[int]int64),
	}
}

// Environment is §3's scoped stack of frames.
type Environment struct {
	frames []*frame
}

// New builds an Environment with the root frame populated per §3: the
// built-in category defaults (\n=EndOfLine, space=Space, NUL=Invalid,
// %=Comment, backslash=Escape, letters=Letter, everything else=Other)
// and one primitive binding per name in §6's primitive set.
func New() *Environment {
	root := newFrame()
	root.categories['\n'] = tex.CatEndOfLine
	root.categories[' '] = tex.CatSpace
	root.categories[0] = tex.CatInvalid
	root.categories['%'] = tex.CatComment
	root.categories['\\'] = tex.CatEscape
	for c := 'a'; c <= 'z'; c++ {
		root.categories[c] = tex.CatLetter
	}
	for c := 'A'; c <= 'Z'; c++ {
		root.categories[c] = tex.CatLetter
	}
	esc := rune('\\')
	root.escapeChar = &esc
	mode := ModeVertical
	root.mode = &mode

	e := &Environment{frames: []*frame{root}}
	for _, name := range primitiveNames {
		e.bindFrame(root, name, &ControlSequence{Kind: CSPrimitive, PrimitiveName: name}, false)
	}
	return e
}

// primitiveNames is §6's primitive name set: every conditional, the
// expandable primitives of §4.3.2, the \def family and its modifiers,
// plus \par (emitted directly by the eyes) and the supplemented \let/
// \futurelet/\ifcase/\or/\relax.
var primitiveNames = []string{
	"ifnum", "ifdim", "ifodd", "ifvmode", "ifhmode", "ifmmode", "ifinner",
	"if", "ifcat", "ifx", "ifcase", "or", "else", "fi",
	"number", "the", "romannumeral", "string", "jobname", "fontname",
	"meaning", "csname", "endcsname", "expandafter", "noexpand",
	"input", "endinput",
	"def", "edef", "gdef", "xdef", "global", "long", "outer",
	"let", "futurelet", "relax", "par",
}

// SetPlainTeXCategories applies the category assignments §8's concrete
// scenarios use on top of the bare primitive defaults: { = 1, } = 2,
// $ = 3, # = 6, ^ = 7, _ = 8, ~ = 13. Real TeX assigns these from
// plain.tex, not from the engine itself; tests and the CLI's default
// profile call this explicitly rather than having New do it.
func (e *Environment) SetPlainTeXCategories() {
	e.SetCategory('{', tex.CatBeginGroup, true)
	e.SetCategory('}', tex.CatEndGroup, true)
	e.SetCategory('$', tex.CatMathShift, true)
	e.SetCategory('#', tex.CatParameter, true)
	e.SetCategory('^', tex.CatSuperscript, true)
	e.SetCategory('_', tex.CatSubscript, true)
	e.SetCategory('~', tex.CatActive, true)
}

// DefaultCategory reports the category TeX assigns to any codepoint
// with no explicit binding: CatOther, per §3.
const DefaultCategory = tex.CatOther

// Category returns c's category in the current scope, falling back to
// DefaultCategory when unset anywhere on the stack.
func (e *Environment) Category(c rune) tex.Category {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if cat, ok := e.frames[i].categories[c]; ok {
			return cat
		}
	}
	return DefaultCategory
}

// SetCategory assigns c's category. global writes to the root frame
// (and is visible everywhere immediately); otherwise the write targets
// the current (innermost) frame and is undone on the next LeaveGroup.
func (e *Environment) SetCategory(c rune, cat tex.Category, global bool) {
	e.targetFrame(global).categories[c] = cat
}

// Lookup finds name's current binding, walking the frame stack toward
// the root. ok is false for an undefined control sequence.
func (e *Environment) Lookup(name string) (*ControlSequence, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if cs, ok := e.frames[i].controlSeq[name]; ok {
			return cs, true
		}
	}
	return nil, false
}

// Bind installs name's meaning. global installs into the root frame
// (visible everywhere, and surviving any LeaveGroup); otherwise it
// installs into the current frame, shadowing any outer binding until
// that frame is popped.
func (e *Environment) Bind(name string, cs *ControlSequence, global bool) {
	e.bindFrame(e.targetFrame(global), name, cs, global)
}

func (e *Environment) bindFrame(f *frame, name string, cs *ControlSequence, global bool) {
	f.controlSeq[name] = cs
}

func (e *Environment) targetFrame(global bool) *frame {
	if global {
		return e.frames[0]
	}
	return e.frames[len(e.frames)-1]
}

// EnterGroup pushes a fresh scope. Every EnterGroup must be matched by
// a LeaveGroup on every exit path, per §3's group-balance invariant.
func (e *Environment) EnterGroup() {
	e.frames = append(e.frames, newFrame())
}

// LeaveGroup pops the innermost scope, discarding any non-global
// mutations it made. It is an internal error to call LeaveGroup with no
// group open (the root frame is not poppable).
func (e *Environment) LeaveGroup() error {
	if len(e.frames) <= 1 {
		return fmt.Errorf("internal error: leaveGroup with no group open")
	}
	e.frames = e.frames[:len(e.frames)-1]
	return nil
}

// Depth reports how many frames are on the stack, the root included
// (1 means "just the root frame", i.e. no group open), used by tests to
// assert push-pop balance.
func (e *Environment) Depth() int {
	return len(e.frames)
}

// EscapeChar returns the current \escapechar.
func (e *Environment) EscapeChar() rune {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if e.frames[i].escapeChar != nil {
			return *e.frames[i].escapeChar
		}
	}
	return '\\'
}

// SetEscapeChar assigns \escapechar.
func (e *Environment) SetEscapeChar(c rune, global bool) {
	e.targetFrame(global).escapeChar = &c
}

// Mode returns the current typesetting mode.
func (e *Environment) Mode() Mode {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if e.frames[i].mode != nil {
			return *e.frames[i].mode
		}
	}
	return ModeVertical
}

// SetMode assigns the current typesetting mode.
func (e *Environment) SetMode(m Mode, global bool) {
	e.targetFrame(global).mode = &m
}

// register access: count/dimen/skip/muskip registers are integers per
// SPEC_FULL.md's §4.3 expansion ("dimen/skip/muskip registers are
// tracked as plain signed integers scaled in sp - arithmetic only, no
// glue stretch/shrink").

func (e *Environment) Count(i int) int64   { return e.lookupReg(func(f *frame) map[int]int64 { return f.count }, i) }
func (e *Environment) Dimen(i int) int64   { return e.lookupReg(func(f *frame) map[int]int64 { return f.dimen }, i) }
func (e *Environment) Skip(i int) int64    { return e.lookupReg(func(f *frame) map[int]int64 { return f.skip }, i) }
func (e *Environment) Muskip(i int) int64  { return e.lookupReg(func(f *frame) map[int]int64 { return f.muskip }, i) }

func (e *Environment) SetCount(i int, v int64, global bool) {
	e.targetFrame(global).count[i] = v
}
func (e *Environment) SetDimen(i int, v int64, global bool) {
	e.targetFrame(global).dimen[i] = v
}
func (e *Environment) SetSkip(i int, v int64, global bool) {
	e.targetFrame(global).skip[i] = v
}
func (e *Environment) SetMuskip(i int, v int64, global bool) {
	e.targetFrame(global).muskip[i] = v
}

func (e *Environment) lookupReg(pick func(*frame) map[int]int64, i int) int64 {
	for idx := len(e.frames) - 1; idx >= 0; idx-- {
		if v, ok := pick(e.frames[idx])[i]; ok {
			return v
		}
	}
	return 0
}
