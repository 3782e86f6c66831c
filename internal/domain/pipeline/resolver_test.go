package pipeline

import (
	"context"
	"testing"
)

func TestResolve_BindsInOrder(t *testing.T) {
	var calls []string
	reg := NewRegistry()
	if err := reg.Register("first", func(_ context.Context, _ Args) error {
		calls = append(calls, "first")
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register("second", func(_ context.Context, args Args) error {
		v, _ := args.String("text")
		calls = append(calls, "second:"+v)
		return nil
	}, Required("text")); err != nil {
		t.Fatal(err)
	}

	spec := Spec{
		{Name: "second", Args: map[string]any{"text": "hi"}},
		{Name: "first"},
	}

	steps, err := Resolve(spec, reg)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("len = %d, want 2", len(steps))
	}

	// Resolution is purely a binding step: nothing has been invoked.
	if len(calls) != 0 {
		t.Fatalf("resolution invoked steps: %v", calls)
	}

	for _, s := range steps {
		if err := s.Invoke(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if len(calls) != 2 || calls[0] != "second:hi" || calls[1] != "first" {
		t.Errorf("calls = %v, want [second:hi first]", calls)
	}

	if steps[0].Index() != 0 || steps[1].Index() != 1 {
		t.Errorf("indices = %d, %d", steps[0].Index(), steps[1].Index())
	}
	if !steps[0].Descriptor().Equal(spec[0]) {
		t.Error("descriptor should round-trip through binding")
	}
}

func TestResolve_UnknownStep(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("known", noop); err != nil {
		t.Fatal(err)
	}

	_, err := Resolve(Spec{{Name: "known"}, {Name: "missing"}}, reg)
	if !IsCode(err, ErrCodeUnknownStep) {
		t.Fatalf("error = %v, want %s", err, ErrCodeUnknownStep)
	}
}

func TestResolve_UnexpectedArgument(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("scale", noop, Required("factor")); err != nil {
		t.Fatal(err)
	}

	_, err := Resolve(Spec{
		{Name: "scale", Args: map[string]any{"factor": 2, "typo": 1}},
	}, reg)
	if !IsCode(err, ErrCodeInvalidArgument) {
		t.Fatalf("error = %v, want %s", err, ErrCodeInvalidArgument)
	}
}

func TestResolve_MissingRequiredArgument(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("scale", noop, Required("factor")); err != nil {
		t.Fatal(err)
	}

	_, err := Resolve(Spec{{Name: "scale"}}, reg)
	if !IsCode(err, ErrCodeInvalidArgument) {
		t.Fatalf("error = %v, want %s", err, ErrCodeInvalidArgument)
	}
}

func TestResolve_DefaultsFilled(t *testing.T) {
	var got string
	reg := NewRegistry()
	if err := reg.Register("log", func(_ context.Context, args Args) error {
		got, _ = args.String("text")
		return nil
	}, Optional("text", "default text")); err != nil {
		t.Fatal(err)
	}

	steps, err := Resolve(Spec{{Name: "log"}}, reg)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if err := steps[0].Invoke(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got != "default text" {
		t.Errorf("got %q, want default value", got)
	}
	if v, _ := steps[0].Args().String("text"); v != "default text" {
		t.Errorf("Args() = %v, want default filled", steps[0].Args())
	}
}

func TestInvoke_ArgumentMutationIsIsolated(t *testing.T) {
	var seen []string
	reg := NewRegistry()
	if err := reg.Register("consume", func(_ context.Context, args Args) error {
		v, _ := args.String("text")
		seen = append(seen, v)
		args["text"] = "mutated"
		return nil
	}, Required("text")); err != nil {
		t.Fatal(err)
	}

	steps, err := Resolve(Spec{
		{Name: "consume", Args: map[string]any{"text": "original"}},
	}, reg)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := steps[0].Invoke(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if len(seen) != 2 || seen[0] != "original" || seen[1] != "original" {
		t.Errorf("seen = %v, want [original original]", seen)
	}
	if v, _ := steps[0].Args().String("text"); v != "original" {
		t.Errorf("bound args = %v, mutation leaked into the bound step", steps[0].Args())
	}
}

func TestResolve_NilRegistry(t *testing.T) {
	if _, err := Resolve(Spec{}, nil); err == nil {
		t.Error("nil registry should fail")
	}
}
