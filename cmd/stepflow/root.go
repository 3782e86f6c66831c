package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stepflow/internal/adapters/cache"
	"github.com/felixgeelhaar/stepflow/internal/adapters/logging"
	"github.com/felixgeelhaar/stepflow/internal/domain/checkpoint"
	"github.com/felixgeelhaar/stepflow/internal/domain/pipeline"
	"github.com/felixgeelhaar/stepflow/internal/ports"
)

var (
	// Global flags
	verbose      bool
	quiet        bool
	cacheDir     string
	cacheBackend string
)

var rootCmd = &cobra.Command{
	Use:   "stepflow",
	Short: "A declarative step-dispatch pipeline runner for tabular data",
	Long: `Stepflow runs data-manipulation pipelines declared as an ordered list of
(step name, arguments) pairs in a YAML or TOML file.

Each step mutates a shared tabular dataset in exactly the declared order,
and intermediate results can be checkpointed so unchanged prefixes of a
pipeline are never recomputed.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress log output")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "checkpoint directory (default: ./cache)")
	rootCmd.PersistentFlags().StringVar(&cacheBackend, "cache-backend", "file", "checkpoint backend: file or s3")

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the CLI logger from the global flags.
func newLogger() (ports.Logger, error) {
	if quiet {
		return logging.NewNopLogger(), nil
	}
	if verbose {
		return logging.NewDevelopmentLogger(ports.LevelDebug)
	}
	return logging.NewConsoleLogger(logging.WithTimestamp(false)), nil
}

// newStore builds the checkpoint store from the global flags. The s3 backend
// is configured through STEPFLOW_S3_* environment variables.
func newStore() (checkpoint.Store, error) {
	switch cacheBackend {
	case "file", "":
		return cache.NewFileStore(cacheDir), nil
	case "s3":
		cfg := cache.ObjectStoreConfig{
			Endpoint:  os.Getenv("STEPFLOW_S3_ENDPOINT"),
			AccessKey: os.Getenv("STEPFLOW_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("STEPFLOW_S3_SECRET_KEY"),
			UseSSL:    os.Getenv("STEPFLOW_S3_USE_SSL") == "true",
			Region:    os.Getenv("STEPFLOW_S3_REGION"),
			Bucket:    os.Getenv("STEPFLOW_S3_BUCKET"),
			Prefix:    os.Getenv("STEPFLOW_S3_PREFIX"),
		}
		client, err := cache.NewObjectStoreClient(cfg)
		if err != nil {
			return nil, err
		}
		return cache.NewObjectStore(client, cfg.Bucket, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want file or s3)", cacheBackend)
	}
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var pipeErr *pipeline.Error
	if errors.As(err, &pipeErr) {
		msg := pipeErr.Message
		if pipeErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", pipeErr.Context)
		}
		if pipeErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", pipeErr.Suggestion)
		}
		if verbose && pipeErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", pipeErr.Underlying)
		}
		return msg
	}

	var cpErr *checkpoint.Error
	if errors.As(err, &cpErr) {
		msg := cpErr.Message
		if verbose && cpErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", cpErr.Underlying)
		}
		return msg
	}

	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}
