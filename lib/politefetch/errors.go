package politefetch

import "fmt"

// ThrottledError marks an in-band throttle signal: the HTTP exchange
// succeeded but the body says to slow down (e.g. Alpha Vantage's
// "Note"/"Information" fields). It is retried like a network failure.
type ThrottledError struct {
	Message string
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("throttled by upstream: %s", e.Message)
}

// ExhaustedError is returned once every attempt has failed. Err is the
// cause of the final attempt.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx response.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Status)
}
