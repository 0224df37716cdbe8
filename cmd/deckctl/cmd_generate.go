package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/janhq/deck-server/internal/config"
	"github.com/janhq/deck-server/internal/domain/deck"
	"github.com/janhq/deck-server/internal/domain/job"
	"github.com/janhq/deck-server/internal/domain/llm"
	"github.com/janhq/deck-server/internal/domain/pipeline"
	"github.com/janhq/deck-server/internal/domain/retry"
	"github.com/janhq/deck-server/internal/domain/theme"
	"github.com/janhq/deck-server/internal/infrastructure/deckpdf"
	"github.com/janhq/deck-server/internal/infrastructure/imagefetch"
	"github.com/janhq/deck-server/internal/infrastructure/llmprovider"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a PDF deck from a supplier record",
		Long: `Run the full local path: fact index, outline, generation pipeline, layout and PDF rendering.

LLM settings are read from the environment (LLM_PROVIDER, LLM_API_URL, LLM_API_KEY, LLM_MODEL, ...)
and from a .env file in the working directory. With --offline every generative stage is skipped
and the deck is built from the deterministic outline.`,
		RunE: runGenerate,
	}
	cmd.Flags().StringP("input", "i", "", "Supplier record (JSON file, - for stdin)")
	cmd.Flags().StringP("prompt", "p", "", "Optional instruction for the generation stages")
	cmd.Flags().StringP("out", "o", "deck.pdf", "Output PDF path")
	cmd.Flags().StringP("theme", "t", theme.DefaultName, "Theme name")
	cmd.Flags().String("themes-dir", "", "Directory with additional theme YAML files")
	cmd.Flags().String("font", "", "TTF font file (needed for CJK text)")
	cmd.Flags().Bool("notes", false, "Append speaker notes pages")
	cmd.Flags().Bool("strict", false, "Fail instead of repairing unsupported facts")
	cmd.Flags().Bool("offline", false, "Skip all generative stages")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verbose, _ := cmd.Flags().GetBool("verbose")
	log := zerolog.Nop()
	if verbose {
		log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
	}

	input, err := readInput(cmd)
	if err != nil {
		return err
	}
	prompt, _ := cmd.Flags().GetString("prompt")
	out, _ := cmd.Flags().GetString("out")
	themeName, _ := cmd.Flags().GetString("theme")
	themesDir, _ := cmd.Flags().GetString("themes-dir")
	fontPath, _ := cmd.Flags().GetString("font")
	notes, _ := cmd.Flags().GetBool("notes")
	strict, _ := cmd.Flags().GetBool("strict")
	offline, _ := cmd.Flags().GetBool("offline")

	themes, err := theme.NewRegistry(themesDir, "")
	if err != nil {
		return err
	}
	if _, ok := themes.Get(themeName); !ok {
		return fmt.Errorf("unknown theme %q (available: %v)", themeName, themes.Names())
	}

	pcfg := pipeline.DefaultConfig()
	var completer llm.Completer
	if !offline {
		completer, pcfg, err = loadCompleter(ctx, pcfg)
		if err != nil {
			return err
		}
	}
	p, err := pipeline.New(completer, pcfg, log)
	if err != nil {
		return err
	}

	backend, err := deckpdf.NewBackend(fontPath)
	if err != nil {
		return err
	}
	generator, err := deck.NewGenerator(deck.Dependencies{
		Pipeline: p,
		Themes:   themes,
		Backend:  backend,
		Images:   imagefetch.New(0, 0, nil),
		Store:    &fileStore{path: out},
	}, deck.Config{Strict: strict, NotesPages: notes}, log)
	if err != nil {
		return err
	}

	res, err := generator.Generate(ctx, deck.Request{
		Prompt: prompt,
		Input:  input,
		Mode:   job.ModeLocal,
		Theme:  themeName,
	}, func(pct int) {
		if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "progress %3d%%\n", pct)
		}
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %q, %d slides on %d pages (theme %s)\n", out, res.Spec.PresentationTitle, len(res.Spec.Slides), len(res.Planned), res.Theme)
	for _, r := range res.Trace {
		line := fmt.Sprintf("  %-10s %s", r.Stage, r.State)
		if r.Reason != "" {
			line += " (" + r.Reason + ")"
		}
		fmt.Fprintln(w, line)
	}
	if n := len(res.Warnings); n > 0 {
		fmt.Fprintf(w, "  %d validation warnings\n", n)
	}
	return nil
}

func loadCompleter(ctx context.Context, pcfg pipeline.Config) (llm.Completer, pipeline.Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, pcfg, fmt.Errorf("load .env: %w", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, pcfg, err
	}
	pcfg.Budget = pipeline.BudgetConfig{Total: cfg.AgentBudget, MinStage: cfg.StageMin, MaxStage: cfg.StageMax, Reserve: cfg.StageReserve}
	pcfg.MaxCriticRounds = cfg.MaxCritic

	provider, err := llmprovider.New(ctx, cfg)
	if err != nil || provider == nil {
		return nil, pcfg, err
	}
	policy := retry.DefaultPolicy()
	policy.MaxRetries = cfg.LLMMaxRetries
	return llm.NewJSONCompleter(provider, cfg.LLMModel, policy, cfg.LLMMaxTokens), pcfg, nil
}

// fileStore writes the rendered deck to a single path whatever its key.
type fileStore struct {
	path string
}

func (s *fileStore) Put(_ context.Context, _ string, r io.Reader, _ int64, _ string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *fileStore) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("deckctl: artifacts are write-only")
}
