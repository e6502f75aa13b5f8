package comdirect

import "fmt"

// UpstreamError is returned when the bank API answers with a failure status,
// either immediately or after the retry budget is spent.
type UpstreamError struct {
	Method     string
	URL        string
	StatusCode int
	// Body is the decoded JSON payload, or the raw text when it is not JSON.
	Body any
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("HTTP %d error calling comdirect API (%s %s)", e.StatusCode, e.Method, e.URL)
}
