package pipeline

import "errors"

// Run-fatal conditions. Everything else in the pipeline degrades gracefully
// and is recorded in report metadata instead of being raised.
var (
	ErrNoFeedbackCollected = errors.New("no feedback collected from any source")
	ErrPersistFailed       = errors.New("failed to persist synthesis report")
)
