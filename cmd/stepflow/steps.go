package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stepflow/internal/adapters/logging"
	"github.com/felixgeelhaar/stepflow/internal/app"
	"github.com/felixgeelhaar/stepflow/internal/domain/dataset"
	"github.com/felixgeelhaar/stepflow/internal/domain/pipeline"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the available builtin steps",
	RunE:  runSteps,
}

func init() {
	rootCmd.AddCommand(stepsCmd)
}

func runSteps(_ *cobra.Command, _ []string) error {
	reg := pipeline.NewRegistry()
	if err := app.RegisterTableSteps(reg, dataset.New(), logging.NewNopLogger()); err != nil {
		return err
	}

	for _, name := range reg.Names() {
		fmt.Fprintf(os.Stdout, "  %s\n", styleStep.Render(name))
	}
	return nil
}
