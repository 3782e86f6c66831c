package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stepflow/internal/domain/dataset"
	"github.com/felixgeelhaar/stepflow/internal/domain/pipeline"
)

func numberTable(t *testing.T) *dataset.Table {
	t.Helper()
	table := dataset.New("a", "b")
	require.NoError(t, table.AppendRow(1, 2))
	require.NoError(t, table.AppendRow(3, 4))
	return table
}

// runStep resolves and invokes a single step against the registry.
func runStep(t *testing.T, reg *pipeline.Registry, name string, args map[string]any) error {
	t.Helper()
	spec := pipeline.Spec{{Name: name, Args: args}}
	steps, err := pipeline.Resolve(spec, reg)
	require.NoError(t, err)
	return steps[0].Invoke(context.Background())
}

func TestRegisterTableSteps_Names(t *testing.T) {
	reg := pipeline.NewRegistry()
	require.NoError(t, RegisterTableSteps(reg, dataset.New(), nil))

	names := reg.Names()
	assert.Contains(t, names, "square")
	assert.Contains(t, names, "scale")
	assert.Contains(t, names, "scale_column")
	assert.Contains(t, names, "rename_column")
	assert.Contains(t, names, "drop_column")
	assert.Contains(t, names, "limit")
	assert.Contains(t, names, "append_row")
	assert.Contains(t, names, "log_message")
}

func TestRegisterTableSteps_Twice(t *testing.T) {
	reg := pipeline.NewRegistry()
	require.NoError(t, RegisterTableSteps(reg, dataset.New(), nil))
	assert.Error(t, RegisterTableSteps(reg, dataset.New(), nil), "re-registering should reject duplicate names")
}

func TestSquareStep(t *testing.T) {
	table := numberTable(t)
	reg := pipeline.NewRegistry()
	require.NoError(t, RegisterTableSteps(reg, table, nil))

	require.NoError(t, runStep(t, reg, "square", nil))

	assert.Equal(t, float64(1), table.Row(0)[0])
	assert.Equal(t, float64(16), table.Row(1)[1])
}

func TestScaleStep(t *testing.T) {
	table := numberTable(t)
	reg := pipeline.NewRegistry()
	require.NoError(t, RegisterTableSteps(reg, table, nil))

	require.NoError(t, runStep(t, reg, "scale", map[string]any{"factor": 10}))

	assert.Equal(t, float64(10), table.Row(0)[0])
	assert.Equal(t, float64(40), table.Row(1)[1])
}

func TestScaleStep_MissingFactor(t *testing.T) {
	reg := pipeline.NewRegistry()
	require.NoError(t, RegisterTableSteps(reg, numberTable(t), nil))

	// factor is required, so resolution fails before anything runs.
	_, err := pipeline.Resolve(pipeline.Spec{{Name: "scale"}}, reg)
	require.Error(t, err)
	assert.True(t, pipeline.IsCode(err, pipeline.ErrCodeInvalidArgument))
}

func TestScaleColumnStep(t *testing.T) {
	table := numberTable(t)
	reg := pipeline.NewRegistry()
	require.NoError(t, RegisterTableSteps(reg, table, nil))

	require.NoError(t, runStep(t, reg, "scale_column", map[string]any{"name": "b", "factor": 2}))

	assert.Equal(t, 1, table.Row(0)[0], "column a should be untouched")
	assert.Equal(t, float64(4), table.Row(0)[1])

	err := runStep(t, reg, "scale_column", map[string]any{"name": "zz", "factor": 2})
	assert.Error(t, err, "unknown column should fail at execution time")
}

func TestRenameAndDropColumnSteps(t *testing.T) {
	table := numberTable(t)
	reg := pipeline.NewRegistry()
	require.NoError(t, RegisterTableSteps(reg, table, nil))

	require.NoError(t, runStep(t, reg, "rename_column", map[string]any{"from": "a", "to": "alpha"}))
	assert.Equal(t, []string{"alpha", "b"}, table.Columns())

	require.NoError(t, runStep(t, reg, "drop_column", map[string]any{"name": "b"}))
	assert.Equal(t, []string{"alpha"}, table.Columns())
}

func TestLimitStep(t *testing.T) {
	table := numberTable(t)
	reg := pipeline.NewRegistry()
	require.NoError(t, RegisterTableSteps(reg, table, nil))

	require.NoError(t, runStep(t, reg, "limit", map[string]any{"n": 1}))
	assert.Equal(t, 1, table.RowCount())
}

func TestAppendRowStep(t *testing.T) {
	table := numberTable(t)
	reg := pipeline.NewRegistry()
	require.NoError(t, RegisterTableSteps(reg, table, nil))

	require.NoError(t, runStep(t, reg, "append_row", map[string]any{"values": []any{5, 6}}))
	assert.Equal(t, 3, table.RowCount())

	err := runStep(t, reg, "append_row", map[string]any{"values": []any{5}})
	assert.Error(t, err, "arity mismatch should fail")
}

func TestLogMessageStep_DefaultText(t *testing.T) {
	table := numberTable(t)
	reg := pipeline.NewRegistry()
	require.NoError(t, RegisterTableSteps(reg, table, nil))

	// The optional text default keeps the step valid with no arguments.
	require.NoError(t, runStep(t, reg, "log_message", nil))
	assert.Equal(t, 2, table.RowCount(), "log_message should not mutate the table")
}
