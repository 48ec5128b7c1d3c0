// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package evaluator

import (
	"strings"
	"testing"

	"nickandperla.net/losp/internal/environment"
	"nickandperla.net/losp/internal/meaning"
	"nickandperla.net/losp/internal/value"
)

func TestEvaluateQuotation(t *testing.T) {
	act := environment.NewGlobal(0)
	m := meaning.NewQuotation(meaning.Unknown, value.Integer(42))
	got, err := Evaluate(m, act)
	if err != nil || got != value.Integer(42) {
		t.Fatalf("Evaluate(quote 42) = %v, %v; want 42, nil", got, err)
	}
}

func TestEvaluateReferenceUnboundFails(t *testing.T) {
	act := environment.NewGlobal(1)
	m := meaning.NewReference(meaning.Unknown, environment.Coordinate{I: 0, J: 0}, "x")
	if _, err := Evaluate(m, act); err == nil {
		t.Fatal("expected an error referencing an unset slot")
	}
}

func TestEvaluateDefinitionThenReference(t *testing.T) {
	act := environment.NewGlobal(1)
	coord := environment.Coordinate{I: 0, J: 0}
	def := meaning.NewDefinition(meaning.Unknown, coord, "x",
		meaning.NewQuotation(meaning.Unknown, value.Integer(7)))
	if _, err := Evaluate(def, act); err != nil {
		t.Fatalf("unexpected error defining x: %v", err)
	}

	ref := meaning.NewReference(meaning.Unknown, coord, "x")
	got, err := Evaluate(ref, act)
	if err != nil || got != value.Integer(7) {
		t.Fatalf("Evaluate(x) after define = %v, %v; want 7, nil", got, err)
	}
}

func TestEvaluateSetVariableBeforeDefineFails(t *testing.T) {
	act := environment.NewGlobal(1)
	coord := environment.Coordinate{I: 0, J: 0}
	set := meaning.NewSetVariable(meaning.Unknown, coord, "x",
		meaning.NewQuotation(meaning.Unknown, value.Integer(1)))
	if _, err := Evaluate(set, act); err == nil {
		t.Fatal("expected set! before define to fail")
	}
}

func TestEvaluateConditional(t *testing.T) {
	act := environment.NewGlobal(0)
	mk := func(cond value.Value) meaning.Meaning {
		return meaning.NewConditional(meaning.Unknown,
			meaning.NewQuotation(meaning.Unknown, cond),
			meaning.NewQuotation(meaning.Unknown, value.Integer(1)),
			meaning.NewQuotation(meaning.Unknown, value.Integer(2)))
	}

	got, err := Evaluate(mk(value.Boolean(true)), act)
	if err != nil || got != value.Integer(1) {
		t.Fatalf("true branch = %v, %v; want 1, nil", got, err)
	}
	got, err = Evaluate(mk(value.Boolean(false)), act)
	if err != nil || got != value.Integer(2) {
		t.Fatalf("false branch = %v, %v; want 2, nil", got, err)
	}
	// Anything other than #f is truthy, including 0 and the empty list.
	got, err = Evaluate(mk(value.Integer(0)), act)
	if err != nil || got != value.Integer(1) {
		t.Fatalf("0 should be truthy: got %v, %v", got, err)
	}
}

func TestEvaluateSequence(t *testing.T) {
	act := environment.NewGlobal(1)
	coord := environment.Coordinate{I: 0, J: 0}
	seq := meaning.NewSequence(meaning.Unknown,
		meaning.NewDefinition(meaning.Unknown, coord, "x", meaning.NewQuotation(meaning.Unknown, value.Integer(5))),
		meaning.NewReference(meaning.Unknown, coord, "x"))

	got, err := Evaluate(seq, act)
	if err != nil || got != value.Integer(5) {
		t.Fatalf("Evaluate(sequence) = %v, %v; want 5, nil", got, err)
	}
}

func TestEvaluateLambdaAndInvocation(t *testing.T) {
	// (lambda (x) x) applied to 9 should yield 9: the body is a single
	// Reference to the lambda's own first (and only) parameter slot.
	act := environment.NewGlobal(0)
	body := meaning.NewReference(meaning.Unknown, environment.Coordinate{I: 0, J: 0}, "x")
	lam := meaning.NewLambda(meaning.Unknown, "id", 1, 0, body)

	procVal, err := Evaluate(lam, act)
	if err != nil {
		t.Fatalf("unexpected error evaluating lambda: %v", err)
	}
	proc, ok := procVal.(*value.Procedure)
	if !ok {
		t.Fatalf("expected *value.Procedure, got %T", procVal)
	}

	inv := meaning.NewInvocation(meaning.Unknown,
		meaning.NewQuotation(meaning.Unknown, proc),
		[]meaning.Meaning{meaning.NewQuotation(meaning.Unknown, value.Integer(9))})

	got, err := Evaluate(inv, act)
	if err != nil || got != value.Integer(9) {
		t.Fatalf("Evaluate((id 9)) = %v, %v; want 9, nil", got, err)
	}
}

func TestClosureCapturesDefiningActivation(t *testing.T) {
	// (lambda () y) closed over an activation where y is already bound;
	// applying it later must still see y even though the call site has no
	// such binding of its own.
	outer := environment.NewGlobal(1)
	yCoord := environment.Coordinate{I: 0, J: 0}
	outer.Define(0, value.Integer(100))

	body := meaning.NewReference(meaning.Unknown, environment.Coordinate{I: 1, J: yCoord.J}, "y")
	lam := meaning.NewLambda(meaning.Unknown, "thunk", 0, 0, body)

	procVal, err := Evaluate(lam, outer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := ApplyInvocation(procVal, nil)
	if err != nil {
		t.Fatalf("unexpected error applying closure: %v", err)
	}
	got, err := Evaluate(res.Thunk.Meaning, res.Thunk.Activation)
	if err != nil || got != value.Integer(100) {
		t.Fatalf("closure should observe captured y=100, got %v, %v", got, err)
	}
}

func TestApplyInvocationArityErrors(t *testing.T) {
	act := environment.NewGlobal(0)
	proc := &value.Procedure{Name: "f", Arity: 1, Captured: act, Body: meaning.NewQuotation(meaning.Unknown, value.Integer(0))}

	if _, err := ApplyInvocation(proc, nil); err == nil || !strings.Contains(err.Error(), "too few arguments") {
		t.Errorf("expected 'too few arguments', got %v", err)
	}
	if _, err := ApplyInvocation(proc, []value.Value{value.Integer(1), value.Integer(2)}); err == nil ||
		!strings.Contains(err.Error(), "too many arguments") {
		t.Errorf("expected 'too many arguments', got %v", err)
	}
}

func TestApplyInvocationNonProcedure(t *testing.T) {
	if _, err := ApplyInvocation(value.Integer(5), nil); err == nil ||
		!strings.Contains(err.Error(), "expected a procedure to call") {
		t.Errorf("expected 'expected a procedure to call', got %v", err)
	}
}

func TestApplyInvocationPrimitive(t *testing.T) {
	prim := &value.Primitive{Name: "add1", Fn: func(args []value.Value) (value.Value, error) {
		return args[0].(value.Integer) + 1, nil
	}}
	res, err := ApplyInvocation(prim, []value.Value{value.Integer(41)})
	if err != nil || !res.IsTerminal || res.Value != value.Integer(42) {
		t.Fatalf("ApplyInvocation(add1, 41) = %+v, %v; want terminal 42", res, err)
	}
}

// TestTailLoopDoesNotGrowHostStack is the central trampoline property: a
// self-recursive tail loop of many iterations must complete via Evaluate's
// flat for-loop rather than via Go call recursion, so it cannot stack
// overflow regardless of iteration count.
func TestTailLoopDoesNotGrowHostStack(t *testing.T) {
	const iterations = 200000

	// (lambda (n) (if (eq? n 0) n (loop (- n 1)))) encoded directly as
	// Meaning, self-referencing through the global activation so the
	// invocation inside the body can find "loop".
	global := environment.NewGlobal(1)
	loopCoord := environment.Coordinate{I: 0, J: 0}
	nCoord := environment.Coordinate{I: 0, J: 0}

	decrPrim := &value.Primitive{Name: "decr", Fn: func(args []value.Value) (value.Value, error) {
		return args[0].(value.Integer) - 1, nil
	}}
	zeroPrim := &value.Primitive{Name: "zero?", Fn: func(args []value.Value) (value.Value, error) {
		return value.Boolean(args[0].(value.Integer) == 0), nil
	}}

	body := meaning.NewConditional(meaning.Unknown,
		meaning.NewInvocation(meaning.Unknown,
			meaning.NewQuotation(meaning.Unknown, zeroPrim),
			[]meaning.Meaning{meaning.NewReference(meaning.Unknown, environment.Coordinate{I: 0, J: nCoord.J}, "n")}),
		meaning.NewReference(meaning.Unknown, environment.Coordinate{I: 0, J: nCoord.J}, "n"),
		meaning.NewInvocation(meaning.Unknown,
			meaning.NewReference(meaning.Unknown, environment.Coordinate{I: 1, J: loopCoord.J}, "loop"),
			[]meaning.Meaning{
				meaning.NewInvocation(meaning.Unknown,
					meaning.NewQuotation(meaning.Unknown, decrPrim),
					[]meaning.Meaning{meaning.NewReference(meaning.Unknown, environment.Coordinate{I: 0, J: nCoord.J}, "n")}),
			}))

	lam := meaning.NewLambda(meaning.Unknown, "loop", 1, 0, body)
	loopVal, err := Evaluate(lam, global)
	if err != nil {
		t.Fatalf("unexpected error constructing loop procedure: %v", err)
	}
	global.Define(0, loopVal)

	res, err := ApplyInvocation(loopVal, []value.Value{value.Integer(iterations)})
	if err != nil {
		t.Fatalf("unexpected error starting the loop: %v", err)
	}
	got, err := Evaluate(res.Thunk.Meaning, res.Thunk.Activation)
	if err != nil {
		t.Fatalf("unexpected error running the loop: %v", err)
	}
	if got != value.Integer(0) {
		t.Fatalf("expected the loop to terminate at 0, got %v", got)
	}
}

func BenchmarkTailLoop(b *testing.B) {
	global := environment.NewGlobal(1)
	loopCoord := environment.Coordinate{I: 0, J: 0}

	decrPrim := &value.Primitive{Name: "decr", Fn: func(args []value.Value) (value.Value, error) {
		return args[0].(value.Integer) - 1, nil
	}}
	zeroPrim := &value.Primitive{Name: "zero?", Fn: func(args []value.Value) (value.Value, error) {
		return value.Boolean(args[0].(value.Integer) == 0), nil
	}}

	body := meaning.NewConditional(meaning.Unknown,
		meaning.NewInvocation(meaning.Unknown,
			meaning.NewQuotation(meaning.Unknown, zeroPrim),
			[]meaning.Meaning{meaning.NewReference(meaning.Unknown, environment.Coordinate{I: 0, J: 0}, "n")}),
		meaning.NewReference(meaning.Unknown, environment.Coordinate{I: 0, J: 0}, "n"),
		meaning.NewInvocation(meaning.Unknown,
			meaning.NewReference(meaning.Unknown, environment.Coordinate{I: 1, J: loopCoord.J}, "loop"),
			[]meaning.Meaning{
				meaning.NewInvocation(meaning.Unknown,
					meaning.NewQuotation(meaning.Unknown, decrPrim),
					[]meaning.Meaning{meaning.NewReference(meaning.Unknown, environment.Coordinate{I: 0, J: 0}, "n")}),
			}))

	lam := meaning.NewLambda(meaning.Unknown, "loop", 1, 0, body)
	loopVal, err := Evaluate(lam, global)
	if err != nil {
		b.Fatalf("unexpected error: %v", err)
	}
	global.Define(0, loopVal)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := ApplyInvocation(loopVal, []value.Value{value.Integer(1000)})
		if err != nil {
			b.Fatal(err)
		}
		if _, err := Evaluate(res.Thunk.Meaning, res.Thunk.Activation); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkConsAllocation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = &value.Pair{Car: value.Integer(i), Cdr: value.EmptyList{}}
	}
}
