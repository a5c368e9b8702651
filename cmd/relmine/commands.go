package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calyptra/relmine/internal/config"
	"github.com/calyptra/relmine/internal/eventlog"
	"github.com/calyptra/relmine/internal/mining"
	"github.com/calyptra/relmine/internal/storage"
	"github.com/calyptra/relmine/internal/triplets"
)

// --- mine ---

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine training triplets from an event log",
	Long: `Mine training triplets from an event log.

Examples:
  relmine mine --log data/events.log --out data/triplets.jsonl
  relmine mine --log data/events.log --out out/triplets.jsonl --mode append --max 1000
  relmine mine --log data/events.log --out out/triplets.jsonl --corpus docs-v2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, cfg)

		mode, err := triplets.ParseMode(cfg.Mode)
		if err != nil {
			return err
		}
		if cfg.MaxTriplets < 0 {
			return fmt.Errorf("--max must not be negative, got %d", cfg.MaxTriplets)
		}

		var store *storage.Store
		if cfg.DataDir != "" {
			store, err = storage.Open(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("opening run store: %w", err)
			}
			defer store.Close()
		}

		var seen mining.SeenSet
		if store != nil && cfg.CrossRunDedup {
			seen = store
		}

		report, err := mining.NewMiner(seen).Mine(mining.Options{
			LogPath:      cfg.LogPath,
			TripletsPath: cfg.TripletsPath,
			Mode:         mode,
			MaxTriplets:  cfg.MaxTriplets,
			CorpusID:     cfg.CorpusID,
		})
		if err != nil {
			return err
		}

		if store != nil {
			if err := store.SaveRun(storage.Run{
				ID:                report.RunID,
				LogPath:           cfg.LogPath,
				TripletsPath:      report.TripletsPath,
				Mode:              string(mode),
				CorpusID:          cfg.CorpusID,
				QueryEvents:       report.QueryEvents,
				FeedbackEvents:    report.FeedbackEvents,
				FeedbackWithKey:   report.FeedbackWithKey,
				MinedFromFeedback: report.MinedFromFeedback,
				TripletsMined:     report.TripletsMined,
			}); err != nil {
				return fmt.Errorf("recording run: %w", err)
			}
		}

		printSuccess("Mined %d triplet(s) into %s", report.TripletsMined, report.TripletsPath)
		printReport(report)
		return nil
	},
}

func init() {
	mineCmd.Flags().String("log", "", "event log path")
	mineCmd.Flags().String("out", "", "triplets output path")
	mineCmd.Flags().String("mode", "", "output mode: replace or append")
	mineCmd.Flags().Int("max", 0, "maximum triplets to mine (0 = unlimited)")
	mineCmd.Flags().String("corpus", "", "restrict mining to one corpus id")
	mineCmd.Flags().String("data-dir", "", "directory for the run-history database")
	mineCmd.Flags().Bool("cross-run-dedup", false, "skip triplets recorded by previous runs (append mode)")
}

// applyFlagOverrides lets explicitly-set flags win over RELMINE_* environment
// values, which in turn win over built-in defaults.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("log") {
		cfg.LogPath, _ = cmd.Flags().GetString("log")
	}
	if cmd.Flags().Changed("out") {
		cfg.TripletsPath, _ = cmd.Flags().GetString("out")
	}
	if cmd.Flags().Changed("mode") {
		cfg.Mode, _ = cmd.Flags().GetString("mode")
	}
	if cmd.Flags().Changed("max") {
		cfg.MaxTriplets, _ = cmd.Flags().GetInt("max")
	}
	if cmd.Flags().Changed("corpus") {
		cfg.CorpusID, _ = cmd.Flags().GetString("corpus")
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("cross-run-dedup") {
		cfg.CrossRunDedup, _ = cmd.Flags().GetBool("cross-run-dedup")
	}
}

func printReport(r mining.Report) {
	printStatus("run id", "%s", r.RunID)
	printStatus("query events retained", "%d", r.QueryEvents)
	printStatus("feedback events", "%d", r.FeedbackEvents)
	printStatus("feedback with key", "%d", r.FeedbackWithKey)
	printStatus("mined from feedback", "%d", r.MinedFromFeedback)
	printStatus("triplets mined", "%d", r.TripletsMined)
}

// --- inspect ---

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize an event log without mining",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log") {
			cfg.LogPath, _ = cmd.Flags().GetString("log")
		}
		if cmd.Flags().Changed("corpus") {
			cfg.CorpusID, _ = cmd.Flags().GetString("corpus")
		}

		sc, err := eventlog.Open(cfg.LogPath)
		if err != nil {
			return err
		}
		defer sc.Close()

		queries := make(map[string]bool)
		var feedback, withKey, outOfScope, unrecognized int
		for sc.Next() {
			ev := eventlog.Classify(sc.Record())
			switch {
			case ev.Query != nil:
				if !ev.Query.MatchesCorpus(cfg.CorpusID) {
					outOfScope++
					continue
				}
				queries[ev.Query.ID] = true
			case ev.Feedback != nil:
				feedback++
				if ev.Feedback.EventID != "" && ev.Feedback.Signal != "" {
					withKey++
				}
			default:
				unrecognized++
			}
		}
		if err := sc.Err(); err != nil {
			return err
		}

		printStatus("log", "%s", cfg.LogPath)
		printStatus("query events retained", "%d", len(queries))
		if cfg.CorpusID != "" {
			printStatus("out of scope", "%d", outOfScope)
		}
		printStatus("feedback events", "%d", feedback)
		printStatus("feedback with key", "%d", withKey)
		printStatus("unrecognized", "%d", unrecognized)
		return nil
	},
}

func init() {
	inspectCmd.Flags().String("log", "", "event log path")
	inspectCmd.Flags().String("corpus", "", "restrict counting to one corpus id")
}

// --- runs ---

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent mining runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
		}
		if cfg.DataDir == "" {
			return fmt.Errorf("no data directory configured: set --data-dir or RELMINE_DATA_DIR")
		}
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := storage.Open(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("opening run store: %w", err)
		}
		defer store.Close()

		runs, err := store.GetRecentRuns(limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, r := range runs {
			fmt.Printf("%s  %s  %-7s  triplets=%-5d  %s\n",
				colorize(colorCyan, r.ID[:8]),
				r.CreatedAt.Format("2006-01-02 15:04:05"),
				r.Mode,
				r.TripletsMined,
				r.TripletsPath,
			)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().String("data-dir", "", "directory for the run-history database")
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list")
}
