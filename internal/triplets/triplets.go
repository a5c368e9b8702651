// Package triplets defines the training-triplet record and its line-delimited
// JSON persistence. A triplet pairs a query with one document the user judged
// relevant and one retrieved document they passed over; the reranker training
// pipeline consumes the file downstream.
package triplets

// Triplet is one pairwise ranking example.
type Triplet struct {
	Query    string `json:"query"`
	Positive string `json:"positive"`
	Negative string `json:"negative"`
}

// Key returns the dedup identity of the tuple: the three fields joined with
// the ASCII unit separator.
func (t Triplet) Key() string {
	return t.Query + "\x1f" + t.Positive + "\x1f" + t.Negative
}
