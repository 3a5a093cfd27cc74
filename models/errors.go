package models

import "fmt"

// Fetch error kinds. These drive the controller's retry classification.
const (
	FetchTimeout     = "FETCH_TIMEOUT"
	FetchRateLimited = "FETCH_RATE_LIMITED"
	FetchHTTPError   = "FETCH_HTTP_ERROR"
	FetchConnection  = "FETCH_CONNECTION_ERROR"
)

// Locate error kinds. Locate failures are never retried: the same markup
// cannot parse differently on a second pass.
const (
	LocateNoTable          = "LOCATE_NO_TABLE"
	LocateInsufficientRows = "LOCATE_INSUFFICIENT_ROWS"
	LocateColumnUnresolved = "LOCATE_REQUIRED_COLUMN_UNRESOLVED"
)

// Normalization error kinds. These are absorbed per-field by the
// extraction loop ("field absent"), never surfaced as a row fault.
const (
	NormUnparseable = "NORM_UNPARSEABLE"
	NormOutOfRange  = "NORM_OUT_OF_RANGE"
)

// FetchError is the terminal result of an exhausted or non-retriable
// retrieval. It implements error and supports wrapping via Unwrap.
type FetchError struct {
	Kind       string
	URL        string
	Attempts   int
	LastStatus int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (attempts=%d, status=%d): %v",
			e.Kind, e.URL, e.Attempts, e.LastStatus, e.Err)
	}
	return fmt.Sprintf("%s: %s (attempts=%d, status=%d)",
		e.Kind, e.URL, e.Attempts, e.LastStatus)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError creates a FetchError.
func NewFetchError(kind, url string, attempts, lastStatus int, err error) *FetchError {
	return &FetchError{Kind: kind, URL: url, Attempts: attempts, LastStatus: lastStatus, Err: err}
}

// LocateError reports that the structure locator could not resolve the
// data table or its required columns on a page.
type LocateError struct {
	Kind    string
	Message string
}

func (e *LocateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewLocateError creates a LocateError.
func NewLocateError(kind, message string) *LocateError {
	return &LocateError{Kind: kind, Message: message}
}

// NormalizationError reports a single field value that could not be
// normalized. Field and Raw give the diagnostics log enough context to
// reconstruct what was rejected without re-running the scrape.
type NormalizationError struct {
	Kind  string
	Field string
	Raw   string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("%s: field %q value %q", e.Kind, e.Field, e.Raw)
}

// NewNormalizationError creates a NormalizationError.
func NewNormalizationError(kind, field, raw string) *NormalizationError {
	return &NormalizationError{Kind: kind, Field: field, Raw: raw}
}
