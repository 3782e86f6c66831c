package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stepflow/internal/adapters/database"
	"github.com/felixgeelhaar/stepflow/internal/domain/dataset"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Move datasets between PostgreSQL and dataset files",
}

var dbExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a database table or query result to a dataset file",
	RunE:  runDBExport,
}

var dbImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Insert a dataset file into a database table",
	RunE:  runDBImport,
}

var (
	dbURL       string
	dbTable     string
	dbQueryFile string
	dbDataPath  string
	dbUseCache  bool
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbExportCmd)
	dbCmd.AddCommand(dbImportCmd)

	dbCmd.PersistentFlags().StringVar(&dbURL, "url", os.Getenv("STEPFLOW_DATABASE_URL"), "PostgreSQL connection URL")

	dbExportCmd.Flags().StringVarP(&dbTable, "table", "t", "", "Database table to export")
	dbExportCmd.Flags().StringVar(&dbQueryFile, "query-file", "", "Export the result of the query in this .sql file instead")
	dbExportCmd.Flags().StringVarP(&dbDataPath, "out", "o", "data.json", "Dataset file to write")
	dbExportCmd.Flags().BoolVar(&dbUseCache, "use-cache", false, "Reuse a previously cached table read when one exists")

	dbImportCmd.Flags().StringVarP(&dbTable, "table", "t", "", "Database table to insert into")
	dbImportCmd.Flags().StringVarP(&dbDataPath, "data", "d", "", "Dataset file to read")
}

func openDB(ctx context.Context) (*database.Conn, error) {
	return database.Open(ctx, database.DefaultConfig(dbURL))
}

func runDBExport(_ *cobra.Command, _ []string) error {
	if dbTable == "" && dbQueryFile == "" {
		return fmt.Errorf("either --table or --query-file is required")
	}

	ctx := context.Background()
	conn, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	var table *dataset.Table
	switch {
	case dbQueryFile != "":
		table, err = conn.QueryFileTable(ctx, dbQueryFile)
	case dbUseCache:
		table, err = conn.ReadTableCached(ctx, dbTable, cacheDir)
	default:
		table, err = conn.ReadTable(ctx, dbTable)
	}
	if err != nil {
		return err
	}

	if err := table.WriteFile(dbDataPath); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s exported %d rows to %s\n",
		styleSuccess.Render("✓"), table.RowCount(), dbDataPath)
	return nil
}

func runDBImport(_ *cobra.Command, _ []string) error {
	if dbTable == "" {
		return fmt.Errorf("--table is required")
	}
	if dbDataPath == "" {
		return fmt.Errorf("--data is required")
	}

	ctx := context.Background()
	conn, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	table, err := dataset.Load(dbDataPath)
	if err != nil {
		return err
	}
	if err := conn.InsertTable(ctx, table, dbTable); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s inserted %d rows into %s\n",
		styleSuccess.Render("✓"), table.RowCount(), dbTable)
	return nil
}
