package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/calyptra/relmine/internal/config"
)

var version = "dev"

var (
	noColor bool
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "relmine",
	Short: "Mine reranker training triplets from search event logs",
	Long: `relmine reads an append-only log of query and feedback events and
reconciles them into (query, positive, negative) training triplets for
bootstrapping a learned reranking model.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(debug)})))
	},
}

// logLevel enables debug logging when either the --debug flag or
// RELMINE_DEBUG asks for it.
func logLevel(flagDebug bool) slog.Level {
	if flagDebug {
		return slog.LevelDebug
	}
	if cfg, err := config.Load(); err == nil && cfg.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the relmine version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("relmine version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
