package pipeline

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/stepflow/internal/domain/checkpoint"
	"github.com/felixgeelhaar/stepflow/internal/ports"
)

// State is the capability a pipeline needs from its mutable dataset in order
// to checkpoint it: an explicit serialized form, restored in place.
type State interface {
	MarshalState() ([]byte, error)
	UnmarshalState(data []byte) error
}

// DefaultName is the checkpoint name used when none is configured.
const DefaultName = "pipeline"

// Pipeline owns an ordered sequence of bound steps and drives their
// sequential invocation. It is also the read-only access surface for the
// sequence: indexed and sliced access, length, and equality all compare
// against the declared descriptors.
//
// A Pipeline is fixed at construction; descriptors cannot be mutated through
// it. It assumes a single owner on a single goroutine: concurrent Run calls
// on the same instance are undefined behavior.
type Pipeline struct {
	name   string
	spec   Spec
	steps  []BoundStep
	state  State
	store  checkpoint.Store
	logger ports.Logger
}

// Option configures a Pipeline at construction.
type Option func(*Pipeline)

// WithName sets the logical name used to key checkpoints.
func WithName(name string) Option {
	return func(p *Pipeline) {
		p.name = name
	}
}

// WithState attaches the mutable dataset whose serialized form is saved and
// restored by checkpoint operations. Steps mutate it through the closures
// captured at registration; the pipeline itself never copies it.
func WithState(state State) Option {
	return func(p *Pipeline) {
		p.state = state
	}
}

// WithCheckpointStore sets the store used by RunOrLoad.
func WithCheckpointStore(store checkpoint.Store) Option {
	return func(p *Pipeline) {
		p.store = store
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger ports.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New constructs a pipeline from an already-parsed spec, resolving every
// descriptor against the registry up front. A descriptor that does not
// resolve, or whose arguments do not validate, fails construction before any
// step can run.
func New(spec Spec, reg *Registry, opts ...Option) (*Pipeline, error) {
	steps, err := Resolve(spec, reg)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		name:   DefaultName,
		spec:   spec,
		steps:  steps,
		logger: nopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// FromFile constructs a pipeline by loading the spec from a configuration
// file (YAML or TOML, chosen by extension).
func FromFile(path string, reg *Registry, opts ...Option) (*Pipeline, error) {
	spec, err := LoadSpec(path)
	if err != nil {
		return nil, err
	}
	return New(spec, reg, opts...)
}

// FromSettings constructs a pipeline from the in-memory ordered sequence of
// single-key mappings.
func FromSettings(settings []map[string]any, reg *Registry, opts ...Option) (*Pipeline, error) {
	spec, err := SpecFromSettings(settings)
	if err != nil {
		return nil, err
	}
	return New(spec, reg, opts...)
}

// Name returns the pipeline's checkpoint name.
func (p *Pipeline) Name() string {
	return p.name
}

// Len returns the declared step count.
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// At returns the descriptor at index i. Negative indices count from the end,
// so At(-1) is the last descriptor. Out-of-range indices panic, matching
// slice indexing.
func (p *Pipeline) At(i int) StepDescriptor {
	if i < 0 {
		i += len(p.spec)
	}
	if i < 0 || i >= len(p.spec) {
		panic(fmt.Sprintf("pipeline: index %d out of range [0:%d]", i, len(p.spec)))
	}
	return p.spec[i]
}

// Step returns the bound step at index i, with the same index semantics as At.
func (p *Pipeline) Step(i int) BoundStep {
	if i < 0 {
		i += len(p.steps)
	}
	if i < 0 || i >= len(p.steps) {
		panic(fmt.Sprintf("pipeline: index %d out of range [0:%d]", i, len(p.steps)))
	}
	return p.steps[i]
}

// Slice returns the descriptors in [i, j), preserving order. Negative
// bounds count from the end with the same semantics as At, so Slice(1, -1)
// drops the first and last descriptors.
func (p *Pipeline) Slice(i, j int) Spec {
	if i < 0 {
		i += len(p.spec)
	}
	if j < 0 {
		j += len(p.spec)
	}
	sub := p.spec[i:j]
	out := make(Spec, len(sub))
	copy(out, sub)
	return out
}

// Descriptors returns a copy of the full ordered descriptor sequence.
func (p *Pipeline) Descriptors() Spec {
	out := make(Spec, len(p.spec))
	copy(out, p.spec)
	return out
}

// Equal reports whether two pipelines declare equal step sequences.
func (p *Pipeline) Equal(other *Pipeline) bool {
	if other == nil {
		return false
	}
	return p.spec.Equal(other.spec)
}

// String returns the declared step sequence in configuration form.
func (p *Pipeline) String() string {
	return fmt.Sprintf("%v", p.spec)
}

// Run invokes every step strictly in declared order. Return values of steps
// are discarded; side effects accumulate on the shared state. The first
// failing step halts the run, wrapped with its index and name.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.RunFrom(ctx, 0)
}

// RunFrom invokes the steps from index from through the end, in order. The
// caller is responsible for having restored state through step from-1; the
// engine does not verify that prior steps were applied.
func (p *Pipeline) RunFrom(ctx context.Context, from int) error {
	if from < 0 || from > len(p.steps) {
		return NewInvalidArgumentError(p.name,
			fmt.Sprintf("step index %d out of range [0:%d]", from, len(p.steps)))
	}
	return p.runRange(ctx, from, len(p.steps))
}

func (p *Pipeline) runRange(ctx context.Context, from, to int) error {
	p.logger.Info(ctx, "running pipeline",
		ports.F("pipeline", p.name),
		ports.F("steps", p.spec.Names()),
		ports.F("from", from))

	for i := from; i < to; i++ {
		step := p.steps[i]
		p.logger.Debug(ctx, "running step",
			ports.F("index", i),
			ports.F("step", step.descriptor.Name))
		if err := step.Invoke(ctx); err != nil {
			return NewStepExecutionError(i, step.descriptor.Name, err)
		}
	}
	return nil
}

// RunOrLoad restores a previously saved checkpoint instead of re-running the
// pipeline. If a checkpoint exists under the pipeline's name, it is loaded
// and no step runs. Otherwise all steps run and the final state is saved, so
// the next call is a pure load.
func (p *Pipeline) RunOrLoad(ctx context.Context) error {
	return p.RunOrLoadFrom(ctx, 0)
}

// RunOrLoadFrom is RunOrLoad with partial re-execution: steps before from are
// satisfied from a checkpoint keyed <name>_step<from>, and steps from onward
// always run. On the first call the prefix [0, from) is executed and saved;
// later calls restore it and only re-run the suffix.
func (p *Pipeline) RunOrLoadFrom(ctx context.Context, from int) error {
	if p.store == nil {
		return fmt.Errorf("pipeline %q: RunOrLoad requires a checkpoint store", p.name)
	}
	if p.state == nil {
		return fmt.Errorf("pipeline %q: RunOrLoad requires a state", p.name)
	}
	if from < 0 || from > len(p.steps) {
		return NewInvalidArgumentError(p.name,
			fmt.Sprintf("step index %d out of range [0:%d]", from, len(p.steps)))
	}

	key := p.checkpointKey(from)

	ok, err := p.store.Exists(ctx, key)
	if err != nil {
		return err
	}

	if ok {
		if err := p.restore(ctx, key); err != nil {
			return err
		}
		if from == 0 {
			// Full checkpoint: nothing left to run.
			return nil
		}
		return p.runRange(ctx, from, len(p.steps))
	}

	if err := p.runRange(ctx, 0, p.prefixEnd(from)); err != nil {
		return err
	}
	if err := p.save(ctx, key); err != nil {
		return err
	}
	if from == 0 {
		return nil
	}
	return p.runRange(ctx, from, len(p.steps))
}

func (p *Pipeline) prefixEnd(from int) int {
	if from == 0 {
		return len(p.steps)
	}
	return from
}

func (p *Pipeline) checkpointKey(from int) string {
	if from == 0 {
		return p.name
	}
	return fmt.Sprintf("%s_step%d", p.name, from)
}

func (p *Pipeline) save(ctx context.Context, key string) error {
	payload, err := p.state.MarshalState()
	if err != nil {
		return fmt.Errorf("pipeline %q: marshal state: %w", p.name, err)
	}
	snap := checkpoint.New(key, len(p.steps), payload)
	if err := p.store.Save(ctx, snap); err != nil {
		return err
	}
	p.logger.Info(ctx, "checkpoint saved",
		ports.F("pipeline", p.name),
		ports.F("checkpoint", key))
	return nil
}

func (p *Pipeline) restore(ctx context.Context, key string) error {
	snap, err := p.store.Load(ctx, key)
	if err != nil {
		return err
	}
	if err := p.state.UnmarshalState(snap.Payload); err != nil {
		return checkpoint.NewCorruptError(key, err)
	}
	p.logger.Info(ctx, "checkpoint restored",
		ports.F("pipeline", p.name),
		ports.F("checkpoint", key))
	return nil
}

// nopLogger is the default logger; it discards everything.
type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...ports.Field) {}
func (nopLogger) Info(context.Context, string, ...ports.Field)  {}
func (nopLogger) Warn(context.Context, string, ...ports.Field)  {}
func (nopLogger) Error(context.Context, string, ...ports.Field) {}
func (n nopLogger) With(...ports.Field) ports.Logger            { return n }
func (nopLogger) Level() ports.Level                            { return ports.LevelError }
