package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"promptsmith/internal/artifact"
	"promptsmith/internal/corpus"
	"promptsmith/internal/evaluate"
	"promptsmith/internal/llm"
	"promptsmith/internal/oracle"
	"promptsmith/internal/prompt"
	"promptsmith/internal/search"
	"promptsmith/internal/telemetry"
)

// runCmd starts an optimization run.
func runCmd() *cobra.Command {
	var (
		seedPath    string
		corpusDir   string
		outDir      string
		generations int
		variants    int
		traceSpans  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a prompt optimization search",
		Long: `Run the full search: evaluate the seed prompt over the corpus, then
iterate generations of mutate, evaluate and select until the prompt converges
or the generation budget runs out.

Exits 0 when the run converged or exhausted its budget, 1 when it aborted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if corpusDir != "" {
				cfg.Corpus.Dir = corpusDir
			}
			if outDir != "" {
				cfg.Artifacts.Dir = outDir
			}
			if cmd.Flags().Changed("generations") {
				cfg.Search.Generations = generations
			}
			if cmd.Flags().Changed("variants") {
				cfg.Search.Variants = variants
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := artifact.NewStore(cfg.Artifacts.Dir)
			if err != nil {
				return err
			}

			shutdownTracing, err := initRunTracing(traceSpans, store.Dir())
			if err != nil {
				return err
			}
			defer shutdownTracing(context.Background())

			seed, err := prompt.FromFile(seedPath)
			if err != nil {
				return fmt.Errorf("loading seed prompt: %w", err)
			}

			crp, err := corpus.NewRepository(cfg.Corpus.Dir).Load(ctx)
			if err != nil {
				return fmt.Errorf("loading corpus: %w", err)
			}

			client := llm.NewClient(cfg.LLM.URL, cfg.LLM.APIKey,
				llm.WithModel(cfg.LLM.Model),
				llm.WithMaxTokens(cfg.LLM.MaxTokens),
				llm.WithTemperature(cfg.LLM.Temperature),
				llm.WithTimeout(cfg.LLM.Timeout),
			)

			evaluator := evaluate.NewEvaluator(
				oracle.NewLLMGenerator(client, cfg.LLM.Timeout),
				oracle.NewRubricScorer(),
				cfg.Search.MaxConcurrentCases,
			)
			mutator := oracle.NewLLMMutator(client, cfg.LLM.Timeout)

			driver := search.NewDriver(cfg.Search, evaluator, mutator, store)
			report, err := driver.Run(ctx, seed, crp)
			if err != nil {
				fmt.Fprint(cmd.OutOrStdout(), report.Render())
				return fmt.Errorf("search aborted: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), report.Render())
			return nil
		},
	}

	cmd.Flags().StringVar(&seedPath, "seed", "", "path to the seed prompt file")
	cmd.Flags().StringVar(&corpusDir, "corpus", "", "path to the corpus directory")
	cmd.Flags().StringVar(&outDir, "out", "", "artifact output directory")
	cmd.Flags().IntVar(&generations, "generations", 3, "maximum number of generations")
	cmd.Flags().IntVar(&variants, "variants", 2, "variants per generation")
	cmd.Flags().BoolVar(&traceSpans, "trace", false, "write spans to trace.json in the artifact directory")
	_ = cmd.MarkFlagRequired("seed")

	return cmd
}

func initRunTracing(enabled bool, dir string) (func(context.Context) error, error) {
	if !enabled {
		return telemetry.InitTracing(nil)
	}
	f, err := os.Create(filepath.Join(dir, "trace.json"))
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}
	shutdown, err := telemetry.InitTracing(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return func(ctx context.Context) error {
		err := shutdown(ctx)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}, nil
}
