package pipeline

import (
	"context"
	"fmt"
)

// BoundStep pairs a descriptor with its resolved callable and fixed,
// validated arguments: a zero-argument deferred invocation. BoundSteps are
// created at resolution time and never mutated afterwards.
type BoundStep struct {
	descriptor StepDescriptor
	index      int
	fn         StepFunc
	args       Args
}

// Descriptor returns the declarative form of the step.
func (b BoundStep) Descriptor() StepDescriptor {
	return b.descriptor
}

// Index returns the step's position in the declared order.
func (b BoundStep) Index() int {
	return b.index
}

// Args returns the arguments the step will be invoked with, including
// defaults filled in for absent optional parameters.
func (b BoundStep) Args() Args {
	args := make(Args, len(b.args))
	for k, v := range b.args {
		args[k] = v
	}
	return args
}

// Invoke calls the bound callable with a copy of the stored arguments, so a
// step that mutates its argument map cannot affect later invocations.
func (b BoundStep) Invoke(ctx context.Context) error {
	return b.fn(ctx, b.Args())
}

// Resolve binds every descriptor in the spec to a registered step, validating
// supplied argument names against the step's declared parameters. Resolution
// is eager and side-effect free: no step is invoked, and the first invalid
// descriptor fails the whole sequence before anything runs.
func Resolve(spec Spec, reg *Registry) ([]BoundStep, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}

	steps := make([]BoundStep, 0, len(spec))
	for i, d := range spec {
		entry, ok := reg.lookup(d.Name)
		if !ok {
			return nil, NewUnknownStepError(d.Name, reg.Names())
		}

		args, err := bindArgs(d, entry.params)
		if err != nil {
			return nil, err
		}

		steps = append(steps, BoundStep{
			descriptor: d,
			index:      i,
			fn:         entry.fn,
			args:       args,
		})
	}
	return steps, nil
}

func bindArgs(d StepDescriptor, params []Param) (Args, error) {
	declared := make(map[string]bool, len(params))
	for _, p := range params {
		declared[p.Name] = true
	}

	for key := range d.Args {
		if !declared[key] {
			return nil, NewInvalidArgumentError(d.Name, fmt.Sprintf("unexpected argument %q", key))
		}
	}

	args := make(Args, len(params))
	for _, p := range params {
		if v, ok := d.Args[p.Name]; ok {
			args[p.Name] = v
			continue
		}
		if p.Required {
			return nil, NewInvalidArgumentError(d.Name, fmt.Sprintf("missing required argument %q", p.Name))
		}
		if p.Default != nil {
			args[p.Name] = p.Default
		}
	}
	return args, nil
}
