package news

import "time"

// Status is an item's position in the pipeline lifecycle.
// Transitions are monotonic; an item never moves backward.
type Status string

const (
	StatusNew       Status = "new"
	StatusDuplicate Status = "duplicate"
	StatusUnique    Status = "unique"
	StatusFiltering Status = "filtering"
	StatusTagging   Status = "tagging"
	StatusRejected  Status = "rejected"
	StatusAccepted  Status = "accepted"
	StatusFailed    Status = "failed"
	StatusStored    Status = "stored"
)

// Item is one candidate news entry moving through the pipeline.
type Item struct {
	SourceID    string
	URL         string
	Title       string
	Summary     string
	PublishedAt *time.Time

	// Fingerprint is the dedup identity key: sha256 of the canonical URL
	// when one exists, of the normalized title otherwise. Empty when the
	// item has neither. Computed once, never mutated.
	Fingerprint string

	Status     Status
	Tags       []string
	RetryCount int

	// FailReason is set when Status is StatusFailed.
	FailReason string
}

// Verdict is the relevance decision returned by the classification service.
type Verdict struct {
	Relevant  bool
	Rationale string
}

// RunRecord holds the counters for one pipeline execution. It is purely
// observational; pipeline logic never reads it back.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time

	Fetched    int
	Duplicates int
	Unique     int
	Accepted   int
	Rejected   int
	Failed     int
	Stored     int

	// SourceErrors counts ingestion sources that failed entirely.
	SourceErrors int
}
