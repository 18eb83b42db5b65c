package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"donations/internal/cli"
	"donations/internal/importer"
	applog "donations/internal/log"
	"donations/internal/schools"
	"donations/internal/storage"
)

const maxReportedRows = 20

type rootOptions struct {
	logLevel string
	timeout  time.Duration
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "donationsctl",
		Short:         "Manage the foreign-gift donations dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cli.LoadEnvFile()
			lvl, _ := applog.ParseLevel(opts.logLevel)
			opts.logger = applog.New(applog.Config{Level: lvl, Component: applog.ComponentImporter, Output: cmd.ErrOrStderr()})
			slog.SetDefault(opts.logger)
		},
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Operation timeout")

	aliases := &cobra.Command{Use: "aliases", Short: "Inspect the school alias directory"}
	aliases.AddCommand(newAliasesCheckCmd(opts))

	root.AddCommand(newMigrateCmd(opts), newImportCmd(opts), aliases)
	return root
}

func defaultDBPath() string {
	if p := os.Getenv("SQLITE_DB_PATH"); p != "" {
		return p
	}
	return "./data/merged_data_w_coord.sqlite"
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the SQLite schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := storage.CreateSQLite(dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Schema ready in %s\n", dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", defaultDBPath(), "SQLite database path")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var dbPath, csvPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a CSV export of the donation table into SQLite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			return runImport(ctx, cmd.OutOrStdout(), dbPath, csvPath)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", defaultDBPath(), "SQLite database path")
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file to import")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func runImport(ctx context.Context, out io.Writer, dbPath, csvPath string) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	res, err := importer.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", csvPath, err)
	}
	for i, rowErr := range res.Skipped {
		if i == maxReportedRows {
			fmt.Fprintf(out, "  ... %d more skipped rows\n", len(res.Skipped)-maxReportedRows)
			break
		}
		fmt.Fprintf(out, "  skipped %v\n", rowErr)
	}

	repo, err := storage.CreateSQLite(dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	n, err := repo.Insert(ctx, res.Records)
	if err != nil {
		return fmt.Errorf("insert records: %w", err)
	}
	fmt.Fprintf(out, "Imported %d records into %s (%d rows skipped)\n", n, dbPath, len(res.Skipped))
	return nil
}

func newAliasesCheckCmd(opts *rootOptions) *cobra.Command {
	var source, dbPath string
	var strict bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report unusable alias entries and schools without an alias",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			problems, err := runAliasesCheck(ctx, cmd.OutOrStdout(), opts.logger, source, dbPath)
			if err != nil {
				return err
			}
			if strict && problems > 0 {
				return fmt.Errorf("%d alias problems found", problems)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", os.Getenv("SCHOOL_ALIASES"), "Alias source (path, file://, s3://bucket/key or sheets://id/sheet)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to check coverage against")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when problems are found")
	return cmd
}

// runAliasesCheck returns how many problems it reported.
func runAliasesCheck(ctx context.Context, out io.Writer, logger *slog.Logger, source, dbPath string) (int, error) {
	dir, err := schools.Load(ctx, source, logger)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(out, "%d schools in %s\n", dir.Len(), source)

	problems := 0
	for _, s := range dir.Skipped() {
		fmt.Fprintf(out, "  skipped %q -> %q: %s\n", s.Entry.Name, s.Entry.Alias, s.Reason)
		problems++
	}
	if dbPath == "" {
		return problems, nil
	}

	repo, err := storage.OpenSQLite(dbPath)
	if err != nil {
		return problems, err
	}
	defer repo.Close()
	rows, err := repo.AggregateTotals(ctx)
	if err != nil {
		return problems, fmt.Errorf("read schools from %s: %w", dbPath, err)
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.School
	}
	missing := dir.Missing(names)
	for _, name := range missing {
		fmt.Fprintf(out, "  no alias for %q\n", name)
	}
	fmt.Fprintf(out, "%d of %d schools with donations have no alias\n", len(missing), len(names))
	return problems + len(missing), nil
}
