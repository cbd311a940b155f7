package env

import (
	"testing"

	"github.com/gnieh/toolxit-tex/tex"
)

func TestBuiltinCategories(t *testing.T) {
	e := New()
	cases := []struct {
		c    rune
		want tex.Category
	}{
		{'\n', tex.CatEndOfLine},
		{' ', tex.CatSpace},
		{0, tex.CatInvalid},
		{'%', tex.CatComment},
		{'\\', tex.CatEscape},
		{'a', tex.CatLetter},
		{'Z', tex.CatLetter},
		{'{', tex.CatOther}, // not assigned by the primitive engine itself
		{'1', tex.CatOther},
	}
	for _, c := range cases {
		if got := e.Category(c.c); got != c.want {
			t.Errorf("Category(%q) = %v, want %v", c.c, got, c.want)
		}
	}
}

func TestScopedCategoryOverride(t *testing.T) {
	e := New()
	e.EnterGroup()
	e.SetCategory('{', tex.CatBeginGroup, false)
	if got := e.Category('{'); got != tex.CatBeginGroup {
		t.Fatalf("got %v, want CatBeginGroup", got)
	}
	if err := e.LeaveGroup(); err != nil {
		t.Fatal(err)
	}
	if got := e.Category('{'); got != tex.CatOther {
		t.Fatalf("after LeaveGroup: got %v, want CatOther", got)
	}
}

func TestGlobalWriteSurvivesLeaveGroup(t *testing.T) {
	e := New()
	e.EnterGroup()
	e.SetCategory('~', tex.CatActive, true)
	if err := e.LeaveGroup(); err != nil {
		t.Fatal(err)
	}
	if got := e.Category('~'); got != tex.CatActive {
		t.Fatalf("got %v, want CatActive to survive global write", got)
	}
}

func TestLeaveGroupWithoutEnterIsError(t *testing.T) {
	e := New()
	if err := e.LeaveGroup(); err == nil {
		t.Fatal("expected an error popping the root frame")
	}
}

func TestPrimitivesArePreBound(t *testing.T) {
	e := New()
	for _, name := range []string{"def", "ifnum", "expandafter", "csname", "par", "let"} {
		cs, ok := e.Lookup(name)
		if !ok {
			t.Errorf("primitive %q not bound", name)
			continue
		}
		if cs.Kind != CSPrimitive || cs.PrimitiveName != name {
			t.Errorf("primitive %q bound to %+v", name, cs)
		}
	}
}

func TestMacroBindingScoped(t *testing.T) {
	e := New()
	m := &ControlSequence{Kind: CSMacro, Macro: &Macro{Name: "test"}}
	e.EnterGroup()
	e.Bind("test", m, false)
	if _, ok := e.Lookup("test"); !ok {
		t.Fatal("expected \\test to be bound inside the group")
	}
	e.LeaveGroup()
	if _, ok := e.Lookup("test"); ok {
		t.Fatal("expected \\test binding to be discarded on LeaveGroup")
	}
}

func TestRegistersDefaultToZeroAndScopeLikeCategories(t *testing.T) {
	e := New()
	if e.Count(5) != 0 {
		t.Fatalf("expected default count register to be 0")
	}
	e.SetCount(5, 42, false)
	if e.Count(5) != 42 {
		t.Fatalf("got %d, want 42", e.Count(5))
	}
	e.EnterGroup()
	e.SetCount(5, 7, false)
	if e.Count(5) != 7 {
		t.Fatalf("inside group: got %d, want 7", e.Count(5))
	}
	if err := e.LeaveGroup(); err != nil {
		t.Fatal(err)
	}
	if e.Count(5) != 42 {
		t.Fatalf("after LeaveGroup: got %d, want 42", e.Count(5))
	}
}

func TestModeDefaultsToVertical(t *testing.T) {
	e := New()
	if !e.Mode().IsVertical() {
		t.Fatalf("expected the initial mode to be vertical, got %v", e.Mode())
	}
	if e.Mode().IsInner() {
		t.Fatalf("vertical mode should not be inner")
	}
}
