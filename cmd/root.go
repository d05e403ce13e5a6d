// Package cmd holds the coralcrew CLI: one subcommand per agent plus the
// crew runner and diagnostics.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logJSON    bool
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coralcrew",
		Short: "Coral Protocol agent crew: site provisioning, video generation, product onboarding",
		Long: `coralcrew runs thin agent processes against a Coral message broker.
Each agent waits for mentions, runs one bounded reasoning step with its
tools, and sends exactly one reply per mention.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file (env overrides it)")
	cmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit JSON logs")

	cmd.AddCommand(tenwebCmd())
	cmd.AddCommand(videoCmd())
	cmd.AddCommand(onboardingCmd())
	cmd.AddCommand(crewCmd())
	cmd.AddCommand(doctorCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

func setupLogging() {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if logJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
