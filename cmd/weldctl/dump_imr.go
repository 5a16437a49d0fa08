package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"weldorm/examples/blog"
)

type dumpIMRFlags struct {
	output string
}

// dumpIMRCmd writes the registry's current InternalModelFormat as JSON, the
// "models_file" input make-migrations consumes — the Go substitute for
// rorm's derive-macro-time registry dump, done here at run time instead
// since Go declares models through ordinary init() calls rather than a
// macro.
func dumpIMRCmd() *cobra.Command {
	flags := &dumpIMRFlags{}
	cmd := &cobra.Command{
		Use:   "dump-imr",
		Short: "Write the declared models' Internal Model Representation as JSON",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDumpIMR(flags)
		},
	}
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (defaults to stdout)")
	return cmd
}

func runDumpIMR(flags *dumpIMRFlags) error {
	doc := blog.Registry.ToIMR()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("weldctl: encoding IMR: %w", err)
	}
	if flags.output == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(flags.output, data, 0o644)
}
