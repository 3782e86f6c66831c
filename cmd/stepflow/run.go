package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stepflow/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a pipeline against a dataset",
	Long: `Run loads the pipeline configuration and the dataset, resolves every
declared step, and executes them in order.

With --use-cache, a previously saved checkpoint is restored instead of
re-running: combined with --from, steps before the given index are satisfied
from the checkpoint and only the remainder executes.`,
	RunE: runRun,
}

var (
	runConfigPath string
	runDataPath   string
	runOutputPath string
	runName       string
	runFromStep   int
	runUseCache   bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "pipeline.yaml", "Path to pipeline configuration")
	runCmd.Flags().StringVarP(&runDataPath, "data", "d", "", "Path to dataset file (JSON)")
	runCmd.Flags().StringVarP(&runOutputPath, "output", "o", "", "Write final dataset to this path")
	runCmd.Flags().StringVarP(&runName, "name", "n", "", "Checkpoint name (default: pipeline)")
	runCmd.Flags().IntVar(&runFromStep, "from", 0, "Start execution at this step index")
	runCmd.Flags().BoolVar(&runUseCache, "use-cache", false, "Load a checkpoint instead of re-running when one exists")
}

func runRun(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	logger, err := newLogger()
	if err != nil {
		return err
	}

	runner, err := app.NewRunner(logger)
	if err != nil {
		return err
	}

	store, err := newStore()
	if err != nil {
		return err
	}

	result, err := runner.Execute(ctx, app.ExecuteOptions{
		ConfigPath: runConfigPath,
		DataPath:   runDataPath,
		OutputPath: runOutputPath,
		Name:       runName,
		CacheDir:   cacheDir,
		Store:      store,
		FromStep:   runFromStep,
		UseCache:   runUseCache,
	})
	if err != nil {
		printFailure(os.Stdout, err)
		return err
	}

	printResult(os.Stdout, result)
	return nil
}
