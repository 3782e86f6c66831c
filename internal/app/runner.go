// Package app wires pipeline construction, builtin steps, checkpointing,
// and logging into the service the CLI drives.
package app

import (
	"context"
	"time"

	"github.com/felixgeelhaar/stepflow/internal/adapters/cache"
	"github.com/felixgeelhaar/stepflow/internal/adapters/logging"
	"github.com/felixgeelhaar/stepflow/internal/domain/checkpoint"
	"github.com/felixgeelhaar/stepflow/internal/domain/dataset"
	"github.com/felixgeelhaar/stepflow/internal/domain/pipeline"
	"github.com/felixgeelhaar/stepflow/internal/ports"
)

// ExecuteOptions describes one pipeline execution.
type ExecuteOptions struct {
	// ConfigPath is the pipeline configuration file (YAML or TOML).
	ConfigPath string
	// DataPath is the dataset file the steps operate on. Empty means an
	// empty table.
	DataPath string
	// OutputPath, when set, receives the final dataset.
	OutputPath string
	// Name keys checkpoints for this pipeline.
	Name string
	// CacheDir is the checkpoint directory. Empty uses the default.
	CacheDir string
	// Store overrides the checkpoint backend. Nil uses a file store rooted
	// at CacheDir.
	Store checkpoint.Store
	// FromStep is the index to start execution at.
	FromStep int
	// UseCache enables run-or-load semantics.
	UseCache bool
}

// Result summarizes a finished execution.
type Result struct {
	Pipeline string
	Steps    pipeline.Spec
	State    RunState
	Table    *dataset.Table
	Duration time.Duration
}

// Runner builds and executes pipelines over tabular datasets.
type Runner struct {
	logger    ports.Logger
	lifecycle *lifecycle
}

// NewRunner creates a Runner. A nil logger disables logging.
func NewRunner(logger ports.Logger) (*Runner, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	lc, err := newLifecycle()
	if err != nil {
		return nil, err
	}
	return &Runner{logger: logger, lifecycle: lc}, nil
}

// State returns the lifecycle state of the last run.
func (r *Runner) State() RunState {
	return r.lifecycle.State()
}

// LastError returns the error of the last run, if it failed.
func (r *Runner) LastError() error {
	_, _, _, err := r.lifecycle.Status()
	return err
}

// Build constructs the pipeline for the given options without running it.
// The returned table is the shared state the pipeline's steps mutate.
func (r *Runner) Build(opts ExecuteOptions) (*pipeline.Pipeline, *dataset.Table, error) {
	table := dataset.New()
	if opts.DataPath != "" {
		loaded, err := dataset.Load(opts.DataPath)
		if err != nil {
			return nil, nil, err
		}
		table = loaded
	}

	reg := pipeline.NewRegistry()
	if err := RegisterTableSteps(reg, table, r.logger); err != nil {
		return nil, nil, err
	}

	name := opts.Name
	if name == "" {
		name = pipeline.DefaultName
	}

	store := opts.Store
	if store == nil {
		store = cache.NewFileStore(opts.CacheDir)
	}

	p, err := pipeline.FromFile(opts.ConfigPath, reg,
		pipeline.WithName(name),
		pipeline.WithState(table),
		pipeline.WithCheckpointStore(store),
		pipeline.WithLogger(r.logger),
	)
	if err != nil {
		return nil, nil, err
	}
	return p, table, nil
}

// Execute builds the pipeline, runs it, and returns the final state.
func (r *Runner) Execute(ctx context.Context, opts ExecuteOptions) (*Result, error) {
	p, table, err := r.Build(opts)
	if err != nil {
		return nil, err
	}

	r.lifecycle.begin()
	start := time.Now()

	if opts.UseCache {
		err = p.RunOrLoadFrom(ctx, opts.FromStep)
	} else {
		err = p.RunFrom(ctx, opts.FromStep)
	}
	r.lifecycle.finish(err)
	if err != nil {
		return nil, err
	}

	if opts.OutputPath != "" {
		if err := table.WriteFile(opts.OutputPath); err != nil {
			return nil, err
		}
	}

	return &Result{
		Pipeline: p.Name(),
		Steps:    p.Descriptors(),
		State:    r.lifecycle.State(),
		Table:    table,
		Duration: time.Since(start),
	}, nil
}

// Validate builds the pipeline for the given options and reports the
// resolved step sequence. Parsing and resolution errors surface here exactly
// as they would at the start of Execute; no step runs.
func (r *Runner) Validate(opts ExecuteOptions) (pipeline.Spec, error) {
	p, _, err := r.Build(opts)
	if err != nil {
		return nil, err
	}
	return p.Descriptors(), nil
}
