package combinator

// Satisfy succeeds, consuming one token, when pred holds for the
// current token. label names the production for error messages.
func Satisfy[T, U any](label string, pred func(T) bool) Parser[T, U, T] {
	return func(in Input[T, U]) Result[T, U, T] {
		tok, ok := in.Current()
		if !ok {
			return failure[T, U, T](Msg{Expected: []string{label}, Found: "end of input"}, in, Empty)
		}
		if !pred(tok) {
			return failure[T, U, T](Msg{Expected: []string{label}}, in, Empty)
		}
		return success(tok, in.Advance(), Consumed)
	}
}

// Any succeeds with whatever token is current, consuming it, or fails
// empty at end of input.
func Any[T, U any]() Parser[T, U, T] {
	return func(in Input[T, U]) Result[T, U, T] {
		tok, ok := in.Current()
		if !ok {
			return failure[T, U, T](Msg{Expected: []string{"any token"}, Found: "end of input"}, in, Empty)
		}
		return success(tok, in.Advance(), Consumed)
	}
}

// Success always succeeds with v, consuming nothing.
func Success[T, U, V any](v V) Parser[T, U, V] {
	return func(in Input[T, U]) Result[T, U, V] {
		return success(v, in, Empty)
	}
}

// Fail always fails empty with msg.
func Fail[T, U, V any](msg string) Parser[T, U, V] {
	return func(in Input[T, U]) Result[T, U, V] {
		return failure[T, U, V](Msg{UserMessage: msg}, in, Empty)
	}
}

// Map transforms a successful parse's value.
func Map[T, U, V1, V2 any](p Parser[T, U, V1], f func(V1) V2) Parser[T, U, V2] {
	return func(in Input[T, U]) Result[T, U, V2] {
		r := p(in)
		if !r.Ok {
			return failure[T, U, V2](r.Msg, r.State, r.Consumption)
		}
		return Result[T, U, V2]{Consumption: r.Consumption, Ok: true, Value: f(r.Value), State: r.State}
	}
}

// Bind sequences p with a continuation chosen from p's result, per the
// combinator core's monadic composition. The combined Consumed flag is
// the disjunction of both steps', matching Parsec's semantics.
func Bind[T, U, V1, V2 any](p Parser[T, U, V1], f func(V1) Parser[T, U, V2]) Parser[T, U, V2] {
	return func(in Input[T, U]) Result[T, U, V2] {
		r1 := p(in)
		if !r1.Ok {
			return failure[T, U, V2](r1.Msg, r1.State, r1.Consumption)
		}
		r2 := f(r1.Value)(r1.State)
		c := r2.Consumption
		if r1.Consumption == Consumed {
			c = Consumed
		}
		if !r2.Ok {
			return failure[T, U, V2](r2.Msg, r2.State, c)
		}
		return success(r2.Value, r2.State, c)
	}
}

// Then runs p1 then p2, keeping only p2's value.
func Then[T, U, V1, V2 any](p1 Parser[T, U, V1], p2 Parser[T, U, V2]) Parser[T, U, V2] {
	return Bind(p1, func(V1) Parser[T, U, V2] { return p2 })
}

// Or is <|>: deterministic choice. If a returns Empty(Error), b is
// tried against the original state and the two branches' expectation
// messages are merged; otherwise a's result (whatever it is) stands.
func Or[T, U, V any](a, b Parser[T, U, V]) Parser[T, U, V] {
	return func(in Input[T, U]) Result[T, U, V] {
		ra := a(in)
		if ra.Ok || ra.Consumption == Consumed {
			return ra
		}
		rb := b(in)
		if !rb.Ok && rb.Consumption == Empty {
			rb.Msg = mergeMsg(ra.Msg, rb.Msg)
		}
		return rb
	}
}

// OrShort is <||>: only tries b when a fails Empty; a Consumed(Error)
// from a is returned as is and b is never run. This is exactly Or's
// behaviour, to which it delegates.
func OrShort[T, U, V any](a, b Parser[T, U, V]) Parser[T, U, V] {
	return Or(a, b)
}

// Attempt converts a Consumed(Error) from p into an Empty(Error) at the
// original position, enabling unlimited lookahead through Or.
func Attempt[T, U, V any](p Parser[T, U, V]) Parser[T, U, V] {
	return func(in Input[T, U]) Result[T, U, V] {
		r := p(in)
		if !r.Ok {
			return failure[T, U, V](r.Msg, in, Empty)
		}
		return r
	}
}

// Many applies p zero or more times until it fails empty, collecting
// the successful values. p must not succeed without consuming input,
// or Many would loop forever; this is an internal-error precondition,
// not checked at runtime (mirroring the spec's "parser combinator core"
// trust boundary).
func Many[T, U, V any](p Parser[T, U, V]) Parser[T, U, []V] {
	return func(in Input[T, U]) Result[T, U, []V] {
		var out []V
		cur := in
		consumedAny := Empty
		for {
			r := p(cur)
			if !r.Ok {
				if r.Consumption == Consumed {
					return failure[T, U, []V](r.Msg, r.State, Consumed)
				}
				break
			}
			out = append(out, r.Value)
			cur = r.State
			consumedAny = Consumed
		}
		return success(out, cur, consumedAny)
	}
}

// Many1 is Many requiring at least one success.
func Many1[T, U, V any](p Parser[T, U, V]) Parser[T, U, []V] {
	return Bind(p, func(first V) Parser[T, U, []V] {
		return Bind(Many(p), func(rest []V) Parser[T, U, []V] {
			return Success[T, U, []V](append([]V{first}, rest...))
		})
	})
}

// Opt tries p; on an Empty failure it succeeds (Empty) with def instead.
// A Consumed failure from p still propagates, matching Parsec's opt.
func Opt[T, U, V any](p Parser[T, U, V], def V) Parser[T, U, V] {
	return Or(p, Success[T, U, V](def))
}

// LookAhead runs p and, if it succeeds, rewinds to the original
// position while keeping the value (Empty consumption either way).
func LookAhead[T, U, V any](p Parser[T, U, V]) Parser[T, U, V] {
	return func(in Input[T, U]) Result[T, U, V] {
		r := p(in)
		if !r.Ok {
			return failure[T, U, V](r.Msg, in, Empty)
		}
		return success(r.Value, in, Empty)
	}
}

// Not succeeds (Empty, consuming nothing) iff p fails; it fails Empty
// iff p succeeds, regardless of how much p consumed internally (the
// position is always rewound).
func Not[T, U, V any](p Parser[T, U, V]) Parser[T, U, struct{}] {
	return func(in Input[T, U]) Result[T, U, struct{}] {
		r := p(in)
		if r.Ok {
			return failure[T, U, struct{}](Msg{UserMessage: "unexpected match"}, in, Empty)
		}
		return success(struct{}{}, in, Empty)
	}
}

// Until repeatedly applies p, stopping (without consuming) as soon as
// end matches via LookAhead. It fails if end is never reached before
// p itself fails.
func Until[T, U, V, E any](p Parser[T, U, V], end Parser[T, U, E]) Parser[T, U, []V] {
	return func(in Input[T, U]) Result[T, U, []V] {
		var out []V
		cur := in
		consumedAny := Empty
		for {
			if re := LookAhead(end)(cur); re.Ok {
				return success(out, cur, consumedAny)
			}
			rp := p(cur)
			if !rp.Ok {
				c := consumedAny
				if rp.Consumption == Consumed {
					c = Consumed
				}
				return failure[T, U, []V](rp.Msg, rp.State, c)
			}
			out = append(out, rp.Value)
			cur = rp.State
			consumedAny = Consumed
		}
	}
}

// GetState returns the current user state without consuming input.
func GetState[T, U any]() Parser[T, U, U] {
	return func(in Input[T, U]) Result[T, U, U] {
		return success(in.User, in, Empty)
	}
}

// SetState replaces the user state.
func SetState[T, U any](u U) Parser[T, U, struct{}] {
	return func(in Input[T, U]) Result[T, U, struct{}] {
		in.User = u
		return success(struct{}{}, in, Empty)
	}
}

// UpdateState replaces the user state with f applied to the current
// one.
func UpdateState[T, U any](f func(U) U) Parser[T, U, struct{}] {
	return func(in Input[T, U]) Result[T, U, struct{}] {
		in.User = f(in.User)
		return success(struct{}{}, in, Empty)
	}
}

// WithState runs the parser f produces from the current user state.
func WithState[T, U, V any](f func(U) Parser[T, U, V]) Parser[T, U, V] {
	return func(in Input[T, U]) Result[T, U, V] {
		return f(in.User)(in)
	}
}

// Post post-processes the user state on a successful parse, folding the
// parsed value into it.
func Post[T, U, V any](p Parser[T, U, V], f func(U, V) U) Parser[T, U, V] {
	return func(in Input[T, U]) Result[T, U, V] {
		r := p(in)
		if !r.Ok {
			return r
		}
		r.State.User = f(r.State.User, r.Value)
		return r
	}
}

// Rename (<#>) replaces p's expectation label on an Empty failure,
// hiding its internal grammar behind a single named production.
func Rename[T, U, V any](p Parser[T, U, V], label string) Parser[T, U, V] {
	return func(in Input[T, U]) Result[T, U, V] {
		r := p(in)
		if !r.Ok && r.Consumption == Empty {
			r.Msg.Expected = []string{label}
		}
		return r
	}
}

// Run applies p to a fresh Input built from tokens and the initial user
// state, returning the parsed value, the final user state, the final
// position in the token slice and the full Result.
func Run[T, U, V any](p Parser[T, U, V], tokens []T, user U) (V, U, int, Result[T, U, V]) {
	in := Input[T, U]{Tokens: tokens, User: user}
	r := p(in)
	return r.Value, r.State.User, r.State.Pos, r
}
