package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"weldorm/apply"
	"weldorm/dbconf"
	"weldorm/dialect"
	_ "weldorm/dialect/mysql"
	_ "weldorm/dialect/postgres"
	_ "weldorm/dialect/sqlite"
	"weldorm/migrate"
	"weldorm/obslog"
)

type migrateFlags struct {
	migrationDir string
	unsafe       bool
	dryRun       bool
	logQueries   bool
	metaTable    string
}

// migrateCmd implements spec.md §6's migrate(migration_dir, database_config,
// log_queries) verb: connect using dbconf.Load's discovered configuration
// and replay every pending migration through apply.Applier. --unsafe and
// --dry-run are additional operator-ergonomics flags layered on top of the
// three named parameters — see DESIGN.md.
func migrateCmd() *cobra.Command {
	flags := &migrateFlags{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations to the configured database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.migrationDir, "migration-dir", "migrations", "Directory holding migration files")
	cmd.Flags().BoolVar(&flags.unsafe, "unsafe", false, "Allow destructive operations without confirmation")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Report what would run without executing it")
	cmd.Flags().BoolVar(&flags.logQueries, "log-queries", false, "Log every executed statement, not just slow ones")
	cmd.Flags().StringVar(&flags.metaTable, "meta-table", "", "Override the bookkeeping table name")
	return cmd
}

func runMigrate(ctx context.Context, flags *migrateFlags) error {
	cfg, err := dbconf.Load()
	if err != nil {
		return err
	}

	d, err := dialect.Get(cfg.Driver.Type)
	if err != nil {
		return err
	}
	dsn, err := cfg.Driver.DSN()
	if err != nil {
		return err
	}

	db, err := apply.Connect(ctx, d, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	chain, err := migrate.LoadChain(flags.migrationDir)
	if err != nil {
		return err
	}

	logger := obslog.New(cfg)
	applier := apply.NewApplier(db, d, apply.Options{
		MetaTable:  flags.metaTable,
		Unsafe:     flags.unsafe,
		DryRun:     flags.dryRun,
		Logger:     logger,
		LogQueries: flags.logQueries,
	})
	result, err := applier.Apply(ctx, chain)
	if err != nil {
		if result != nil && result.Preflight != nil {
			printPreflight(result.Preflight)
		}
		return err
	}

	printPreflight(result.Preflight)
	if flags.dryRun {
		fmt.Printf("Dry run: %d migration(s) would be applied.\n", len(chain))
		return nil
	}
	fmt.Printf("Applied %d migration(s).\n", len(result.Applied))
	return nil
}

func printPreflight(r *apply.PreflightResult) {
	if r == nil {
		return
	}
	for _, w := range r.Warnings {
		fmt.Printf("[%s] %s\n", w.Level, w.Message)
	}
}
