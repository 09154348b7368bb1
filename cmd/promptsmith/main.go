package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"promptsmith/internal/config"
	"promptsmith/internal/telemetry"
)

var (
	cfg        *config.Config
	configPath string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "promptsmith",
		Short: "Promptsmith - evolutionary prompt optimizer",
		Long: `Promptsmith optimizes an audit prompt against a labeled corpus.
Each generation it mutates the current best prompt, scores the variants
case by case, and keeps whichever candidate strictly improves the average.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			telemetry.InitLogging(verbose)

			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		runCmd(),
		scoreCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("promptsmith v0.3.0")
		},
	}
}
