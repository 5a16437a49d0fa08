// Command weldctl is the operator-facing front door onto the make-migrations
// and migrate verbs of spec.md §6, wired the way cmd/smf/main.go wires its
// own diff/migrate/apply subcommands: one root cobra.Command, one struct of
// flags and one RunE func per subcommand.
//
// weldctl ships built against the examples/blog schema so `dump-imr` has a
// registry to dump; an application embedding weldorm instead builds its own
// thin main.go importing its own schema package in place of examples/blog
// and reusing migrate/apply/dbconf directly, the way this file does.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weldctl",
		Short: "Schema migration tool for weldorm-declared models",
	}

	rootCmd.AddCommand(dumpIMRCmd())
	rootCmd.AddCommand(makeMigrationsCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
