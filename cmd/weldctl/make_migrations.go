package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"weldorm/imr"
	"weldorm/migrate"
)

type makeMigrationsFlags struct {
	modelsFile       string
	migrationDir     string
	name             string
	nonInteractive   bool
	warningsDisabled bool
}

// makeMigrationsCmd implements spec.md §6's
// make-migrations(models_file, migration_dir, name?, non_interactive?,
// warnings_disabled?) verb.
func makeMigrationsCmd() *cobra.Command {
	flags := &makeMigrationsFlags{}
	cmd := &cobra.Command{
		Use:   "make-migrations",
		Short: "Diff the current models against the migration history and write the next migration",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMakeMigrations(flags)
		},
	}
	cmd.Flags().StringVar(&flags.modelsFile, "models-file", "", "Path to an IMR JSON file produced by dump-imr")
	cmd.Flags().StringVar(&flags.migrationDir, "migration-dir", "migrations", "Directory holding migration files")
	cmd.Flags().StringVar(&flags.name, "name", "", "Custom migration name")
	cmd.Flags().BoolVar(&flags.nonInteractive, "non-interactive", false, "Never prompt; emit candidate renames as delete+create")
	cmd.Flags().BoolVar(&flags.warningsDisabled, "warnings-disabled", false, "Has no effect: make-migrations prints no warnings")
	_ = cmd.MarkFlagRequired("models-file")
	return cmd
}

func runMakeMigrations(flags *makeMigrationsFlags) error {
	data, err := os.ReadFile(flags.modelsFile)
	if err != nil {
		return fmt.Errorf("weldctl: reading %q: %w", flags.modelsFile, err)
	}
	var current imr.InternalModelFormat
	if err := json.Unmarshal(data, &current); err != nil {
		return fmt.Errorf("weldctl: parsing %q: %w", flags.modelsFile, err)
	}
	if err := imr.Validate(&current); err != nil {
		return err
	}

	diffOpts := migrate.Options{NonInteractive: flags.nonInteractive}
	if !flags.nonInteractive {
		diffOpts.Prompt = migrate.HuhPrompter{}
	}

	m, err := migrate.MakeMigrations(&current, migrate.MakeMigrationsOptions{
		MigrationDir: flags.migrationDir,
		Name:         flags.name,
		Diff:         diffOpts,
	})
	if errors.Is(err, migrate.ErrNothingToDo) {
		fmt.Println("No changes detected.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("Wrote migration %d_%s\n", m.ID, m.Name)
	return nil
}
