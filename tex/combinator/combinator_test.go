package combinator

import "testing"

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func digit[U any]() Parser[rune, U, rune] {
	return Satisfy[rune, U]("digit", isDigit)
}

func letter[U any]() Parser[rune, U, rune] {
	return Satisfy[rune, U]("letter", func(r rune) bool { return r >= 'a' && r <= 'z' })
}

func TestSatisfyConsumesOnSuccess(t *testing.T) {
	r := digit[struct{}]()(Input[rune, struct{}]{Tokens: []rune("9x")})
	if !r.Ok || r.Value != '9' || r.Consumption != Consumed || r.State.Pos != 1 {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestSatisfyFailsEmptyOnMismatch(t *testing.T) {
	r := digit[struct{}]()(Input[rune, struct{}]{Tokens: []rune("x9")})
	if r.Ok || r.Consumption != Empty || r.State.Pos != 0 {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestOrTriesRightOnlyOnEmptyFailure(t *testing.T) {
	p := Or(digit[struct{}](), letter[struct{}]())

	r := p(Input[rune, struct{}]{Tokens: []rune("a")})
	if !r.Ok || r.Value != 'a' {
		t.Fatalf("expected the letter branch to run, got %+v", r)
	}
}

func TestOrDoesNotTryRightAfterConsumedFailure(t *testing.T) {
	// "9a": the digit-then-digit sequence consumes '9' and then fails on
	// 'a'; a naive retry of the whole alternative would wrongly succeed
	// via the other branch if Or didn't respect Consumed.
	two := Bind(digit[struct{}](), func(rune) Parser[rune, struct{}, rune] { return digit[struct{}]() })
	fallback := Success[rune, struct{}, rune]('!')
	p := Or(two, fallback)

	r := p(Input[rune, struct{}]{Tokens: []rune("9a")})
	if r.Ok {
		t.Fatalf("expected a consumed failure to be fatal, got %+v", r)
	}
	if r.Consumption != Consumed {
		t.Fatalf("expected Consumed, got %v", r.Consumption)
	}
}

func TestAttemptTurnsConsumedErrorIntoEmpty(t *testing.T) {
	two := Bind(digit[struct{}](), func(rune) Parser[rune, struct{}, rune] { return digit[struct{}]() })
	p := Or(Attempt(two), Success[rune, struct{}, rune]('!'))

	r := p(Input[rune, struct{}]{Tokens: []rune("9a")})
	if !r.Ok || r.Value != '!' || r.State.Pos != 0 {
		t.Fatalf("expected attempt to rewind and let the fallback run, got %+v", r)
	}
}

func TestManyCollectsZeroOrMore(t *testing.T) {
	r := Many(digit[struct{}]())(Input[rune, struct{}]{Tokens: []rune("123a")})
	if !r.Ok || string(r.Value) != "123" || r.State.Pos != 3 {
		t.Fatalf("unexpected result: %+v", r)
	}

	r2 := Many(digit[struct{}]())(Input[rune, struct{}]{Tokens: []rune("abc")})
	if !r2.Ok || len(r2.Value) != 0 || r2.Consumption != Empty {
		t.Fatalf("unexpected result on no matches: %+v", r2)
	}
}

func TestMany1RequiresOne(t *testing.T) {
	r := Many1(digit[struct{}]())(Input[rune, struct{}]{Tokens: []rune("abc")})
	if r.Ok {
		t.Fatalf("expected many1 to fail with no matches, got %+v", r)
	}
}

func TestUntilStopsBeforeEndWithoutConsumingIt(t *testing.T) {
	end := Satisfy[rune, struct{}]("stop", func(r rune) bool { return r == '#' })
	p := Until(Any[rune, struct{}](), end)

	r := p(Input[rune, struct{}]{Tokens: []rune("ab#cd")})
	if !r.Ok || string(r.Value) != "ab" || r.State.Pos != 2 {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestStateThreadingWithUpdateState(t *testing.T) {
	count := func() Parser[rune, int, struct{}] { return UpdateState[rune](func(n int) int { return n + 1 }) }
	p := Many(Then(Any[rune, int](), count()))

	in := Input[rune, int]{Tokens: []rune("abc"), User: 0}
	r := p(in)
	if !r.Ok || r.State.User != 3 {
		t.Fatalf("expected user state to reach 3, got %+v", r)
	}
}

func TestLookAheadRewindsPosition(t *testing.T) {
	p := LookAhead(digit[struct{}]())
	r := p(Input[rune, struct{}]{Tokens: []rune("9x")})
	if !r.Ok || r.Value != '9' || r.State.Pos != 0 {
		t.Fatalf("expected lookahead to rewind, got %+v", r)
	}
}

func TestNotSucceedsWhenInnerFails(t *testing.T) {
	p := Not(digit[struct{}]())
	r := p(Input[rune, struct{}]{Tokens: []rune("x")})
	if !r.Ok {
		t.Fatalf("expected Not(digit) to succeed on a letter")
	}
	r2 := p(Input[rune, struct{}]{Tokens: []rune("9")})
	if r2.Ok {
		t.Fatalf("expected Not(digit) to fail on a digit")
	}
}
