package app

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/stepflow/internal/adapters/logging"
	"github.com/felixgeelhaar/stepflow/internal/domain/dataset"
	"github.com/felixgeelhaar/stepflow/internal/domain/pipeline"
	"github.com/felixgeelhaar/stepflow/internal/ports"
)

// RegisterTableSteps registers the builtin table-manipulation steps against
// the given table. The closures capture the table, so every step mutates the
// same shared instance in place. A nil logger disables logging.
func RegisterTableSteps(reg *pipeline.Registry, table *dataset.Table, logger ports.Logger) error {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	steps := []struct {
		name   string
		fn     pipeline.StepFunc
		params []pipeline.Param
	}{
		{
			name: "square",
			fn: func(_ context.Context, _ pipeline.Args) error {
				table.MapNumeric(func(v float64) float64 { return v * v })
				return nil
			},
		},
		{
			name: "scale",
			fn: func(_ context.Context, args pipeline.Args) error {
				factor, ok := args.Float("factor")
				if !ok {
					return fmt.Errorf("factor must be a number")
				}
				table.MapNumeric(func(v float64) float64 { return v * factor })
				return nil
			},
			params: []pipeline.Param{pipeline.Required("factor")},
		},
		{
			name: "scale_column",
			fn: func(_ context.Context, args pipeline.Args) error {
				name, ok := args.String("name")
				if !ok {
					return fmt.Errorf("name must be a string")
				}
				factor, ok := args.Float("factor")
				if !ok {
					return fmt.Errorf("factor must be a number")
				}
				return table.MapColumn(name, func(v float64) float64 { return v * factor })
			},
			params: []pipeline.Param{pipeline.Required("name"), pipeline.Required("factor")},
		},
		{
			name: "rename_column",
			fn: func(_ context.Context, args pipeline.Args) error {
				from, ok := args.String("from")
				if !ok {
					return fmt.Errorf("from must be a string")
				}
				to, ok := args.String("to")
				if !ok {
					return fmt.Errorf("to must be a string")
				}
				return table.RenameColumn(from, to)
			},
			params: []pipeline.Param{pipeline.Required("from"), pipeline.Required("to")},
		},
		{
			name: "drop_column",
			fn: func(_ context.Context, args pipeline.Args) error {
				name, ok := args.String("name")
				if !ok {
					return fmt.Errorf("name must be a string")
				}
				return table.DropColumn(name)
			},
			params: []pipeline.Param{pipeline.Required("name")},
		},
		{
			name: "limit",
			fn: func(_ context.Context, args pipeline.Args) error {
				n, ok := args.Int("n")
				if !ok {
					return fmt.Errorf("n must be an integer")
				}
				table.Limit(n)
				return nil
			},
			params: []pipeline.Param{pipeline.Required("n")},
		},
		{
			name: "append_row",
			fn: func(_ context.Context, args pipeline.Args) error {
				values, ok := args.Slice("values")
				if !ok {
					return fmt.Errorf("values must be a list")
				}
				return table.AppendRow(values...)
			},
			params: []pipeline.Param{pipeline.Required("values")},
		},
		{
			name: "log_message",
			fn: func(ctx context.Context, args pipeline.Args) error {
				text, _ := args.String("text")
				logger.Info(ctx, text, ports.F("rows", table.RowCount()))
				return nil
			},
			params: []pipeline.Param{pipeline.Optional("text", "checkpoint reached")},
		},
	}

	for _, s := range steps {
		if err := reg.Register(s.name, s.fn, s.params...); err != nil {
			return err
		}
	}
	return nil
}
