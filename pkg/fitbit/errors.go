package fitbit

import "fmt"

// AuthenticationError indicates the login round-trip completed but no user
// id could be extracted from the response body. The credentials are wrong,
// or the login page changed shape.
type AuthenticationError struct {
	Email string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("fitbit: authentication failed for %s: no user id in login response", e.Email)
}

// ExecutionError wraps any transport-level failure (I/O error, non-2xx
// status, malformed URL) during an authenticated call. It is fatal for the
// in-progress query; no retries are attempted.
type ExecutionError struct {
	Op  string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("fitbit: %s: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func execError(op string, err error) *ExecutionError {
	return &ExecutionError{Op: op, Err: err}
}

// UnrecognizedFormatError indicates a data point description matched none
// of the known date/time grammars. An unknown grammar likely signals an
// upstream format change, so the whole page is aborted rather than the
// single record skipped.
type UnrecognizedFormatError struct {
	Description string
}

func (e *UnrecognizedFormatError) Error() string {
	return fmt.Sprintf("fitbit: unrecognized date/time format in description %q", e.Description)
}

// UnsupportedResolutionError is returned before any network call when a
// metric does not exist at the requested resolution on the upstream (e.g.
// intraday activity level).
type UnsupportedResolutionError struct {
	Metric     string
	Resolution Resolution
}

func (e *UnsupportedResolutionError) Error() string {
	return fmt.Sprintf("fitbit: %s is not available at %s resolution", e.Metric, e.Resolution)
}
