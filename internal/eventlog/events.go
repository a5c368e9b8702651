package eventlog

import "strings"

// Discriminator tokens. Older log writers used "kind", newer ones "type";
// both are accepted and compared case-insensitively.
var queryKinds = map[string]bool{
	"chat":   true,
	"search": true,
	"query":  true,
}

const feedbackKind = "feedback"

// QueryEvent is a search or chat query recorded in the event log, together
// with the ordered candidate documents the retriever returned for it.
type QueryEvent struct {
	ID        string
	Query     string
	TopPaths  []string
	CorpusIDs []string
}

// MatchesCorpus reports whether the event belongs to the given corpus.
// An empty filter matches everything.
func (q QueryEvent) MatchesCorpus(corpusID string) bool {
	if corpusID == "" {
		return true
	}
	for _, id := range q.CorpusIDs {
		if id == corpusID {
			return true
		}
	}
	return false
}

// FeedbackEvent is a user judgment recorded against an earlier query event.
// Any of the fields may be absent; missing or mistyped fields are left empty
// rather than rejecting the record.
type FeedbackEvent struct {
	EventID string
	Signal  string
	DocID   string
}

// Event is the closed union produced by Classify. Exactly one of Query and
// Feedback is non-nil for recognized records.
type Event struct {
	Query    *QueryEvent
	Feedback *FeedbackEvent
}

// Classify routes a raw log record by its discriminator field and normalizes
// field aliases into a canonical event. Records with an unrecognized
// discriminator, and query records missing a usable id or query text, yield
// a zero Event.
func Classify(rec map[string]any) Event {
	kind, ok := stringField(rec, "kind")
	if !ok {
		kind, _ = stringField(rec, "type")
	}
	kind = strings.ToLower(kind)

	switch {
	case queryKinds[kind]:
		return classifyQuery(rec)
	case kind == feedbackKind:
		fb := &FeedbackEvent{}
		fb.EventID, _ = stringField(rec, "event_id")
		fb.Signal, _ = stringField(rec, "signal")
		fb.DocID, _ = stringField(rec, "doc_id")
		return Event{Feedback: fb}
	default:
		return Event{}
	}
}

func classifyQuery(rec map[string]any) Event {
	id, ok := stringField(rec, "event_id")
	if !ok || id == "" {
		return Event{}
	}
	query, ok := stringField(rec, "query")
	if !ok || query == "" {
		query, ok = stringField(rec, "query_raw")
		if !ok || query == "" {
			return Event{}
		}
	}

	q := &QueryEvent{
		ID:       id,
		Query:    query,
		TopPaths: stringListField(rec, "top_paths"),
	}

	if corpus, ok := stringField(rec, "corpus_id"); ok && corpus != "" {
		q.CorpusIDs = append(q.CorpusIDs, corpus)
	}
	q.CorpusIDs = append(q.CorpusIDs, stringListField(rec, "corpus_ids")...)

	return Event{Query: q}
}

func stringField(rec map[string]any, key string) (string, bool) {
	v, ok := rec[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// stringListField extracts a list of strings. A missing field, a non-list
// value, or any non-string entry invalidates the whole list back to nil.
func stringListField(rec map[string]any, key string) []string {
	v, ok := rec[key]
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil
		}
		out = append(out, s)
	}
	return out
}
