package mining

import (
	"strings"

	"github.com/calyptra/relmine/internal/eventlog"
)

// positiveSignals is the vocabulary of feedback tokens treated as approval.
// Membership is checked on the trimmed, lowercased signal.
var positiveSignals = map[string]bool{
	"thumbsup": true,
	"star4":    true,
	"star5":    true,
	"click":    true,
}

func isPositiveSignal(signal string) bool {
	return positiveSignals[strings.ToLower(strings.TrimSpace(signal))]
}

// positiveDoc picks the document the feedback endorses.
//
// The override comparison is intentionally stricter than the vocabulary
// check: only a raw, untrimmed signal of exactly "click" honors an explicit
// doc_id. A signal of "Click" or " click " still counts as positive but
// falls through to the first candidate. Historical quirk, kept because
// loosening it changes which records produce an override.
func positiveDoc(fb eventlog.FeedbackEvent, q eventlog.QueryEvent) string {
	if fb.Signal == "click" && fb.DocID != "" {
		return fb.DocID
	}
	if len(q.TopPaths) == 0 {
		return ""
	}
	return q.TopPaths[0]
}

// negativeDoc picks the first candidate differing from the positive, or ""
// when every candidate equals the positive.
func negativeDoc(q eventlog.QueryEvent, positive string) string {
	for _, p := range q.TopPaths {
		if p != positive {
			return p
		}
	}
	return ""
}
