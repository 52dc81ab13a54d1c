package clients

import "time"

const (
	USER_AGENT = "threader-ai/1.0 (+https://github.com/jess-tech-lab/threader-ai)"

	// Pacing between successful listing requests; jitter is added on top so
	// the cadence stays inside the source's implicit rate budget.
	INTER_REQUEST_DELAY = 2 * time.Second
	REQUEST_JITTER_MAX  = 500 * time.Millisecond

	PAGE_LIMIT = 100
)
