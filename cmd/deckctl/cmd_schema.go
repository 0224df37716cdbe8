package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/janhq/deck-server/internal/domain/pipeline"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [name]",
		Short: "Print the response schemas of the generation stages",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSchema,
	}
	return cmd
}

func runSchema(cmd *cobra.Command, args []string) error {
	schemas := pipeline.Schemas()
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		s, ok := schemas[args[0]]
		if !ok {
			return fmt.Errorf("unknown schema %q", args[0])
		}
		fmt.Fprintln(out, s)
		return nil
	}

	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "# %s\n%s\n\n", name, schemas[name])
	}
	return nil
}
