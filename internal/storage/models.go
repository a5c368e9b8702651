package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Run is the persisted record of one mining invocation. Counters mirror the
// mining report exactly.
type Run struct {
	ID                string
	CreatedAt         time.Time
	LogPath           string
	TripletsPath      string
	Mode              string
	CorpusID          string
	QueryEvents       int
	FeedbackEvents    int
	FeedbackWithKey   int
	MinedFromFeedback int
	TripletsMined     int
}
