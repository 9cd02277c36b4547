package policyscout

import (
	"context"
	"time"
)

// OutcomeStatus classifies the result of a single fetch attempt.
type OutcomeStatus int

// Fetch outcome statuses.
const (
	StatusSuccess       OutcomeStatus = iota // page fetched and text extracted
	StatusHTTPError                          // server answered with a 4xx/5xx
	StatusNetworkError                       // DNS or connect failure
	StatusTimeout                            // per-request deadline exceeded
	StatusNotPolicyLike                      // response is not text/HTML content
)

// String returns a short label for logging.
func (s OutcomeStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusHTTPError:
		return "http-error"
	case StatusNetworkError:
		return "network-error"
	case StatusTimeout:
		return "timeout"
	case StatusNotPolicyLike:
		return "not-policy-like"
	default:
		return "unknown"
	}
}

// Outcome is the result of one fetch attempt. Produced once per attempt,
// never mutated. All failure modes are represented as outcome values; a
// fetcher never raises a fault to its caller.
type Outcome struct {
	Candidate CandidateURL
	Status    OutcomeStatus
	HTTPCode  int // set when Status is StatusHTTPError
	Text      string
	Elapsed   time.Duration
}

// OK reports whether the fetch produced usable page text.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}

// Fetcher performs a single bounded retrieval of a candidate URL and
// returns the page's visible text. The context controls the per-request
// timeout and cancellation; an expired context yields StatusTimeout.
type Fetcher interface {
	Fetch(ctx context.Context, candidate CandidateURL) Outcome

	// Close releases fetcher resources (connections, browser processes).
	Close() error
}

// Extractor extracts visible prose from HTML, stripping script, style and
// navigation chrome.
type Extractor interface {
	// ExtractText processes raw HTML and returns readable text.
	// Returns an empty string when the document carries no prose.
	ExtractText(html string) (string, error)
}
