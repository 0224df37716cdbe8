package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/janhq/deck-server/internal/domain/facts"
	"github.com/janhq/deck-server/internal/domain/outline"
)

func newFactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Print the fact vocabulary of a supplier record",
		Long:  `Build the fact index of the input JSON and print every path with its display text.`,
		RunE:  runFacts,
	}
	cmd.Flags().StringP("input", "i", "", "Supplier record (JSON file, - for stdin)")
	cmd.Flags().String("format", "yaml", "Output format: yaml, json")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newOutlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Print the deterministic outline of a supplier record",
		Long:  `Build the outline draft used as the fallback content source when generation stages fail.`,
		RunE:  runOutline,
	}
	cmd.Flags().StringP("input", "i", "", "Supplier record (JSON file, - for stdin)")
	cmd.Flags().String("format", "yaml", "Output format: yaml, json")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runFacts(cmd *cobra.Command, args []string) error {
	idx, err := loadIndex(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	return printValue(cmd.OutOrStdout(), format, map[string]any{
		"facts":      idx.Len(),
		"vocabulary": idx.Vocabulary(),
	})
}

func runOutline(cmd *cobra.Command, args []string) error {
	idx, err := loadIndex(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	return printValue(cmd.OutOrStdout(), format, outline.Build(idx))
}

func readInput(cmd *cobra.Command) ([]byte, error) {
	path, _ := cmd.Flags().GetString("input")
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func loadIndex(cmd *cobra.Command) (*facts.Index, error) {
	data, err := readInput(cmd)
	if err != nil {
		return nil, err
	}
	idx, err := facts.BuildFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return idx, nil
}

func printValue(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// Round trip through JSON so the json tags name the fields.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	default:
		return fmt.Errorf("unsupported format %q (use yaml or json)", format)
	}
}
