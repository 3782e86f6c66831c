package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"
)

// RunState represents the lifecycle state of a pipeline run.
type RunState string

const (
	// RunStateIdle indicates no run has started yet.
	RunStateIdle RunState = "idle"
	// RunStateRunning indicates a run is in progress.
	RunStateRunning RunState = "running"
	// RunStateCompleted indicates the last run finished successfully.
	RunStateCompleted RunState = "completed"
	// RunStateFailed indicates the last run halted on a step failure.
	RunStateFailed RunState = "failed"
)

// Event types for the run lifecycle machine.
const (
	eventRun     = "RUN"
	eventSucceed = "SUCCEED"
	eventFail    = "FAIL"
)

// runContext holds the runtime context for the lifecycle machine.
type runContext struct {
	StartedAt  time.Time
	FinishedAt time.Time
	LastError  error
	RunCount   int
}

// lifecycle tracks pipeline run state with a statekit machine.
type lifecycle struct {
	mu     sync.Mutex
	rc     runContext
	interp *statekit.Interpreter[runContext]
}

func newLifecycle() (*lifecycle, error) {
	lc := &lifecycle{}

	machine, err := statekit.NewMachine[runContext]("stepflow-run").
		WithInitial(statekit.StateID(RunStateIdle)).
		WithContext(lc.rc).
		WithAction("recordStart", func(_ *runContext, _ statekit.Event) {
			lc.mu.Lock()
			defer lc.mu.Unlock()
			lc.rc.StartedAt = time.Now()
			lc.rc.LastError = nil
			lc.rc.RunCount++
		}).
		WithAction("recordFailure", func(_ *runContext, event statekit.Event) {
			lc.mu.Lock()
			defer lc.mu.Unlock()
			lc.rc.FinishedAt = time.Now()
			if err, ok := event.Payload.(error); ok {
				lc.rc.LastError = err
			}
		}).
		WithAction("recordSuccess", func(_ *runContext, _ statekit.Event) {
			lc.mu.Lock()
			defer lc.mu.Unlock()
			lc.rc.FinishedAt = time.Now()
		}).
		State(statekit.StateID(RunStateIdle)).
		On(eventRun).Target(statekit.StateID(RunStateRunning)).Done().
		State(statekit.StateID(RunStateRunning)).
		OnEntry("recordStart").
		On(eventSucceed).Target(statekit.StateID(RunStateCompleted)).
		On(eventFail).Target(statekit.StateID(RunStateFailed)).Done().
		State(statekit.StateID(RunStateCompleted)).
		OnEntry("recordSuccess").
		On(eventRun).Target(statekit.StateID(RunStateRunning)).Done().
		State(statekit.StateID(RunStateFailed)).
		OnEntry("recordFailure").
		On(eventRun).Target(statekit.StateID(RunStateRunning)).Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build run machine: %w", err)
	}

	lc.interp = statekit.NewInterpreter(machine)
	lc.interp.Start()
	return lc, nil
}

func (lc *lifecycle) begin() {
	lc.interp.Send(statekit.Event{Type: eventRun})
}

func (lc *lifecycle) finish(err error) {
	if err != nil {
		lc.interp.Send(statekit.Event{Type: eventFail, Payload: err})
		return
	}
	lc.interp.Send(statekit.Event{Type: eventSucceed})
}

// State returns the current lifecycle state.
func (lc *lifecycle) State() RunState {
	return RunState(lc.interp.State().Value)
}

// Status returns a snapshot of the run bookkeeping.
func (lc *lifecycle) Status() (started, finished time.Time, runs int, lastErr error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.rc.StartedAt, lc.rc.FinishedAt, lc.rc.RunCount, lc.rc.LastError
}
