// Package mining reconciles query and feedback events from an append-only
// event log into deduplicated (query, positive, negative) training triplets.
package mining

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/calyptra/relmine/internal/eventlog"
	"github.com/calyptra/relmine/internal/triplets"
)

// Options configures a single mining run.
type Options struct {
	LogPath      string
	TripletsPath string
	Mode         triplets.Mode
	MaxTriplets  int    // cap on added triplets; 0 = unlimited
	CorpusID     string // scope filter; "" = all corpora
}

// Report summarizes a completed mining run.
type Report struct {
	RunID             string
	QueryEvents       int // distinct query-event ids retained
	FeedbackEvents    int // feedback events parsed, eligible or not
	FeedbackWithKey   int // feedback events with both id and signal present
	MinedFromFeedback int // synthesis attempts (resolvable feedback), not successes
	TripletsMined     int // triplets actually added after dedup
	TripletsPath      string
}

// SeenSet records triplet tuples across runs. Used for the opt-in append-mode
// cross-run dedup; a nil SeenSet keeps the default per-run-only semantics.
type SeenSet interface {
	HasTriplet(t triplets.Triplet) (bool, error)
	MarkTriplets(ts []triplets.Triplet) error
}

// Miner is the batch triplet-mining engine. A Miner is stateless between
// runs; all per-run state lives on the stack of Mine.
type Miner struct {
	seen   SeenSet
	logger *slog.Logger
}

// NewMiner creates a Miner. seen may be nil to disable cross-run dedup.
func NewMiner(seen SeenSet) *Miner {
	return &Miner{seen: seen, logger: slog.Default()}
}

// Mine runs the full pipeline to completion: one pass over the log building
// the query map and feedback list, one pass over feedback synthesizing
// triplets, then a single flush to the output file.
//
// Mining is synchronous and has no internal cancellation; callers wanting a
// deadline must wrap the invocation externally. A missing log file is an
// empty log, and malformed records are skipped, never surfaced as errors.
// Only filesystem failures are returned.
func (m *Miner) Mine(opts Options) (Report, error) {
	report := Report{
		RunID:        uuid.New().String(),
		TripletsPath: opts.TripletsPath,
	}

	if _, err := triplets.ParseMode(string(opts.Mode)); err != nil {
		return report, err
	}

	queries, feedback, err := m.collect(opts)
	if err != nil {
		return report, err
	}
	report.QueryEvents = len(queries)
	report.FeedbackEvents = len(feedback)

	mined, err := m.synthesize(opts, queries, feedback, &report)
	if err != nil {
		return report, err
	}

	if err := m.flush(opts, mined); err != nil {
		return report, err
	}
	report.TripletsMined = len(mined)

	if m.seen != nil && len(mined) > 0 {
		if err := m.seen.MarkTriplets(mined); err != nil {
			return report, fmt.Errorf("recording mined triplets: %w", err)
		}
	}

	m.logger.Info("mining run complete",
		"run_id", report.RunID,
		"queries", report.QueryEvents,
		"feedback", report.FeedbackEvents,
		"triplets", len(mined),
		"out", opts.TripletsPath,
	)
	return report, nil
}

// collect performs the log pass: query events land in a last-write-wins map
// keyed by event id (scope-filtered when a corpus is set), feedback events
// accumulate in log order.
func (m *Miner) collect(opts Options) (map[string]eventlog.QueryEvent, []eventlog.FeedbackEvent, error) {
	sc, err := eventlog.Open(opts.LogPath)
	if err != nil {
		return nil, nil, err
	}
	defer sc.Close()

	queries := make(map[string]eventlog.QueryEvent)
	var feedback []eventlog.FeedbackEvent

	for sc.Next() {
		ev := eventlog.Classify(sc.Record())
		switch {
		case ev.Query != nil:
			if !ev.Query.MatchesCorpus(opts.CorpusID) {
				continue
			}
			queries[ev.Query.ID] = *ev.Query
		case ev.Feedback != nil:
			feedback = append(feedback, *ev.Feedback)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	return queries, feedback, nil
}

// synthesize walks feedback in log order and resolves each event to a
// triplet, deduplicating within the run and honoring the added-triplet cap.
func (m *Miner) synthesize(opts Options, queries map[string]eventlog.QueryEvent, feedback []eventlog.FeedbackEvent, report *Report) ([]triplets.Triplet, error) {
	var mined []triplets.Triplet
	added := make(map[string]bool)

	for _, fb := range feedback {
		if opts.MaxTriplets > 0 && len(mined) >= opts.MaxTriplets {
			break
		}
		if fb.EventID == "" || fb.Signal == "" {
			continue
		}
		report.FeedbackWithKey++

		q, ok := queries[fb.EventID]
		if !ok {
			// Feedback for an unknown or out-of-scope query.
			continue
		}
		report.MinedFromFeedback++

		if !isPositiveSignal(fb.Signal) {
			continue
		}

		t := triplets.Triplet{Query: q.Query}
		t.Positive = positiveDoc(fb, q)
		t.Negative = negativeDoc(q, t.Positive)
		if t.Query == "" || t.Positive == "" || t.Negative == "" {
			continue
		}
		if added[t.Key()] {
			continue
		}

		if m.seen != nil && opts.Mode == triplets.ModeAppend {
			dup, err := m.seen.HasTriplet(t)
			if err != nil {
				return nil, fmt.Errorf("checking cross-run dedup: %w", err)
			}
			if dup {
				m.logger.Debug("skipping triplet mined by a previous run", "event_id", fb.EventID)
				continue
			}
		}

		added[t.Key()] = true
		mined = append(mined, t)
	}
	return mined, nil
}

// flush writes the mined triplets. The writer is opened even when nothing was
// mined so that replace mode always leaves a (possibly empty) output file.
func (m *Miner) flush(opts Options, mined []triplets.Triplet) error {
	w, err := triplets.NewWriter(opts.TripletsPath, opts.Mode)
	if err != nil {
		return err
	}
	for _, t := range mined {
		if err := w.Write(t); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
