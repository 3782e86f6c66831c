package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stepflow/internal/adapters/logging"
	"github.com/felixgeelhaar/stepflow/internal/app"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a pipeline configuration without running it",
	Long: `Validate parses the configuration and resolves every declared step against
the builtin step registry. Malformed descriptors, unknown steps, and invalid
arguments are reported exactly as they would be at the start of 'run' — and
no step executes.`,
	RunE: runValidate,
}

var validateConfigPath string

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateConfigPath, "config", "c", "pipeline.yaml", "Path to pipeline configuration")
}

func runValidate(_ *cobra.Command, _ []string) error {
	runner, err := app.NewRunner(logging.NewNopLogger())
	if err != nil {
		return err
	}

	spec, err := runner.Validate(app.ExecuteOptions{ConfigPath: validateConfigPath})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s valid: %d steps\n", styleSuccess.Render("✓"), len(spec))
	printSteps(os.Stdout, spec)
	return nil
}
