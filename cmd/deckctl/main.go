package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deckctl",
		Short: "deckctl - run the deck pipeline from the command line",
		Long: `deckctl runs the deck generation pipeline locally, without the API server.

Examples:
  # Inspect what the pipeline sees in a supplier record
  deckctl facts --input supplier.json
  deckctl outline --input supplier.json

  # Render a deck without calling a language model
  deckctl generate --input supplier.json --out deck.pdf --offline

  # Print the JSON schemas handed to the generation stages
  deckctl schema`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newFactsCmd())
	rootCmd.AddCommand(newOutlineCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newSchemaCmd())

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	return rootCmd
}
