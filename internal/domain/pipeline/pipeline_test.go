package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/stepflow/internal/domain/checkpoint"
)

// recorder is pipeline state for tests: each step appends its index.
type recorder struct {
	Applied []int `json:"applied"`
}

func (r *recorder) MarshalState() ([]byte, error) {
	return json.Marshal(r)
}

func (r *recorder) UnmarshalState(data []byte) error {
	return json.Unmarshal(data, r)
}

// memStore is an in-memory checkpoint.Store.
type memStore struct {
	snaps map[string]checkpoint.Snapshot
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[string]checkpoint.Snapshot)}
}

func (s *memStore) Save(_ context.Context, snap checkpoint.Snapshot) error {
	s.snaps[snap.Name] = snap
	return nil
}

func (s *memStore) Load(_ context.Context, name string) (*checkpoint.Snapshot, error) {
	snap, ok := s.snaps[name]
	if !ok {
		return nil, checkpoint.NewNotFoundError(name)
	}
	return &snap, nil
}

func (s *memStore) Exists(_ context.Context, name string) (bool, error) {
	_, ok := s.snaps[name]
	return ok, nil
}

func (s *memStore) Delete(_ context.Context, name string) error {
	if _, ok := s.snaps[name]; !ok {
		return checkpoint.NewNotFoundError(name)
	}
	delete(s.snaps, name)
	return nil
}

func (s *memStore) List(_ context.Context) ([]checkpoint.Info, error) {
	infos := make([]checkpoint.Info, 0, len(s.snaps))
	for name := range s.snaps {
		infos = append(infos, checkpoint.Info{Name: name})
	}
	return infos, nil
}

// indexPipeline builds an n-step pipeline where step i appends i to rec.
func indexPipeline(t *testing.T, n int, rec *recorder, opts ...Option) *Pipeline {
	t.Helper()

	reg := NewRegistry()
	spec := make(Spec, 0, n)
	for i := 0; i < n; i++ {
		idx := i
		name := fmt.Sprintf("step%d", i)
		if err := reg.Register(name, func(_ context.Context, _ Args) error {
			rec.Applied = append(rec.Applied, idx)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
		spec = append(spec, StepDescriptor{Name: name})
	}

	p, err := New(spec, reg, append([]Option{WithState(rec)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func assertApplied(t *testing.T, got, want []int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("applied = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("applied = %v, want %v", got, want)
		}
	}
}

func TestPipeline_Run_DeclaredOrder(t *testing.T) {
	rec := &recorder{}
	p := indexPipeline(t, 5, rec)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	assertApplied(t, rec.Applied, []int{0, 1, 2, 3, 4})
}

func TestPipeline_RunFrom(t *testing.T) {
	rec := &recorder{}
	p := indexPipeline(t, 5, rec)

	if err := p.RunFrom(context.Background(), 2); err != nil {
		t.Fatalf("RunFrom() error = %v", err)
	}
	assertApplied(t, rec.Applied, []int{2, 3, 4})
}

func TestPipeline_RunFrom_OutOfRange(t *testing.T) {
	rec := &recorder{}
	p := indexPipeline(t, 3, rec)

	if err := p.RunFrom(context.Background(), -1); !IsCode(err, ErrCodeInvalidArgument) {
		t.Errorf("RunFrom(-1) error = %v, want %s", err, ErrCodeInvalidArgument)
	}
	if err := p.RunFrom(context.Background(), 4); !IsCode(err, ErrCodeInvalidArgument) {
		t.Errorf("RunFrom(4) error = %v, want %s", err, ErrCodeInvalidArgument)
	}
	if len(rec.Applied) != 0 {
		t.Errorf("no step should have run, got %v", rec.Applied)
	}
}

func TestPipeline_StepFailureHaltsRun(t *testing.T) {
	var applied []int
	boom := errors.New("boom")

	reg := NewRegistry()
	for i := 0; i < 4; i++ {
		idx := i
		fn := func(_ context.Context, _ Args) error {
			applied = append(applied, idx)
			return nil
		}
		if idx == 2 {
			fn = func(_ context.Context, _ Args) error { return boom }
		}
		if err := reg.Register(fmt.Sprintf("step%d", i), fn); err != nil {
			t.Fatal(err)
		}
	}

	p, err := New(Spec{{Name: "step0"}, {Name: "step1"}, {Name: "step2"}, {Name: "step3"}}, reg)
	if err != nil {
		t.Fatal(err)
	}

	err = p.Run(context.Background())
	if !IsCode(err, ErrCodeStepExecution) {
		t.Fatalf("error = %v, want %s", err, ErrCodeStepExecution)
	}

	pe := AsError(err)
	if pe.StepIndex != 2 || pe.StepName != "step2" {
		t.Errorf("failing step = %d %q, want 2 %q", pe.StepIndex, pe.StepName, "step2")
	}
	if !errors.Is(err, boom) {
		t.Error("underlying error should be preserved in the chain")
	}

	// Steps after the failure must not have run.
	assertApplied(t, applied, []int{0, 1})
}

func TestPipeline_ConstructionFailsFast(t *testing.T) {
	var applied []int
	reg := NewRegistry()
	if err := reg.Register("known", func(_ context.Context, _ Args) error {
		applied = append(applied, 0)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	_, err := New(Spec{{Name: "known"}, {Name: "missing"}}, reg)
	if !IsCode(err, ErrCodeUnknownStep) {
		t.Fatalf("error = %v, want %s", err, ErrCodeUnknownStep)
	}
	if len(applied) != 0 {
		t.Error("no step may run when construction fails")
	}
}

func TestPipeline_CollectionProtocol(t *testing.T) {
	rec := &recorder{}
	p := indexPipeline(t, 5, rec)

	if p.Len() != 5 {
		t.Errorf("Len() = %d, want 5", p.Len())
	}
	if p.At(0).Name != "step0" {
		t.Errorf("At(0) = %q, want step0", p.At(0).Name)
	}
	if p.At(-1).Name != "step4" {
		t.Errorf("At(-1) = %q, want step4", p.At(-1).Name)
	}
	if p.Step(-1).Index() != 4 {
		t.Errorf("Step(-1).Index() = %d, want 4", p.Step(-1).Index())
	}

	sub := p.Slice(1, 3)
	if len(sub) != 2 || sub[0].Name != "step1" || sub[1].Name != "step2" {
		t.Errorf("Slice(1,3) = %v", sub.Names())
	}

	neg := p.Slice(1, -1)
	if !neg.Equal(p.Slice(1, 4)) {
		t.Errorf("Slice(1,-1) = %v, want %v", neg.Names(), p.Slice(1, 4).Names())
	}
	tail := p.Slice(-2, 5)
	if len(tail) != 2 || tail[0].Name != "step3" {
		t.Errorf("Slice(-2,5) = %v, want last two", tail.Names())
	}

	other := indexPipeline(t, 5, &recorder{})
	if !p.Equal(other) {
		t.Error("pipelines with equal specs should be equal")
	}
	if p.Equal(indexPipeline(t, 3, &recorder{})) {
		t.Error("pipelines with different specs should not be equal")
	}
	if p.Equal(nil) {
		t.Error("nil pipeline should not be equal")
	}

	defer func() {
		if recover() == nil {
			t.Error("At out of range should panic")
		}
	}()
	p.At(5)
}

func TestPipeline_RunOrLoad_SecondCallLoadsOnly(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	first := &recorder{}
	p1 := indexPipeline(t, 3, first, WithName("cached"), WithCheckpointStore(store))
	if err := p1.RunOrLoad(ctx); err != nil {
		t.Fatalf("first RunOrLoad() error = %v", err)
	}
	assertApplied(t, first.Applied, []int{0, 1, 2})

	if ok, _ := store.Exists(ctx, "cached"); !ok {
		t.Fatal("checkpoint should have been saved")
	}

	// Fresh instance, same name: loads the checkpoint, runs zero steps.
	second := &recorder{}
	p2 := indexPipeline(t, 3, second, WithName("cached"), WithCheckpointStore(store))
	if err := p2.RunOrLoad(ctx); err != nil {
		t.Fatalf("second RunOrLoad() error = %v", err)
	}
	assertApplied(t, second.Applied, []int{0, 1, 2})
}

func TestPipeline_RunOrLoadFrom_PrefixCheckpoint(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	first := &recorder{}
	p1 := indexPipeline(t, 4, first, WithName("partial"), WithCheckpointStore(store))
	if err := p1.RunOrLoadFrom(ctx, 2); err != nil {
		t.Fatalf("first RunOrLoadFrom() error = %v", err)
	}
	// First call runs everything: the prefix to build the checkpoint, then
	// the suffix.
	assertApplied(t, first.Applied, []int{0, 1, 2, 3})

	if ok, _ := store.Exists(ctx, "partial_step2"); !ok {
		t.Fatal("prefix checkpoint should be keyed <name>_step<from>")
	}
	if ok, _ := store.Exists(ctx, "partial"); ok {
		t.Fatal("full checkpoint should not exist")
	}

	// The stored prefix state holds only steps 0 and 1.
	snap, err := store.Load(ctx, "partial_step2")
	if err != nil {
		t.Fatal(err)
	}
	var stored recorder
	if err := stored.UnmarshalState(snap.Payload); err != nil {
		t.Fatal(err)
	}
	assertApplied(t, stored.Applied, []int{0, 1})

	// Second call restores the prefix and re-runs only the suffix.
	second := &recorder{}
	p2 := indexPipeline(t, 4, second, WithName("partial"), WithCheckpointStore(store))
	if err := p2.RunOrLoadFrom(ctx, 2); err != nil {
		t.Fatalf("second RunOrLoadFrom() error = %v", err)
	}
	assertApplied(t, second.Applied, []int{0, 1, 2, 3})
}

func TestPipeline_RunOrLoad_RequiresStoreAndState(t *testing.T) {
	rec := &recorder{}
	p := indexPipeline(t, 2, rec)
	if err := p.RunOrLoad(context.Background()); err == nil {
		t.Error("RunOrLoad without a store should fail")
	}

	reg := NewRegistry()
	if err := reg.Register("s", noop); err != nil {
		t.Fatal(err)
	}
	noState, err := New(Spec{{Name: "s"}}, reg, WithCheckpointStore(newMemStore()))
	if err != nil {
		t.Fatal(err)
	}
	if err := noState.RunOrLoad(context.Background()); err == nil {
		t.Error("RunOrLoad without state should fail")
	}
}

func TestPipeline_RunOrLoad_CorruptCheckpointPropagates(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	// Seed a checkpoint whose payload is not valid recorder state.
	snap := checkpoint.New("bad", 2, []byte("not json"))
	if err := store.Save(ctx, snap); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	p := indexPipeline(t, 2, rec, WithName("bad"), WithCheckpointStore(store))
	err := p.RunOrLoad(ctx)
	if !checkpoint.IsCorrupt(err) {
		t.Fatalf("error = %v, want corrupt checkpoint", err)
	}
	if len(rec.Applied) != 0 {
		t.Error("no step may run after a failed restore")
	}
}
