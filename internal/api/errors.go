package api

import "fmt"

// TransientError reports a retryable status class (429/5xx) that exhausted
// its retry budget.
type TransientError struct {
	Method     string
	URL        string
	StatusCode int
	Attempts   int
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s %s: status %d after %d attempts", e.Method, e.URL, e.StatusCode, e.Attempts)
}

// RequestError reports a non-retryable failure: a 4xx other than 429, a
// network-level error, or a malformed request.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
