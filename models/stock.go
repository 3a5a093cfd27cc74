package models

import "time"

// RecordStatus classifies the outcome of extracting a single table row.
type RecordStatus string

const (
	// StatusSuccess means symbol and price are both present and valid.
	StatusSuccess RecordStatus = "success"

	// StatusPartial means symbol and price are valid but at least one
	// secondary field is absent or failed normalization.
	StatusPartial RecordStatus = "partial"

	// StatusFailed means symbol or price is missing/invalid. Failed rows
	// are still emitted, with whatever symbol was recoverable, so a run
	// can be audited without re-scraping.
	StatusFailed RecordStatus = "failed"
)

// StockRecord is the unit of output: one extracted table row.
// Records are immutable once assembled by the extraction loop.
type StockRecord struct {
	Symbol         string       `json:"symbol"`
	CompanyName    string       `json:"company_name,omitempty"`
	Price          *float64     `json:"price,omitempty"`
	ChangePercent  *float64     `json:"change_percent,omitempty"`
	ChangeAbsolute *float64     `json:"change_absolute,omitempty"`
	ExtractedAt    time.Time    `json:"extracted_at"`
	Status         RecordStatus `json:"status"`
}

// FetchMode selects the retrieval path for a target.
type FetchMode string

const (
	ModeStatic   FetchMode = "static"
	ModeRendered FetchMode = "rendered"
)

// FetchTarget is a URL plus the delivery mode chosen for it. The mode may
// be escalated from static to rendered at most once per target.
type FetchTarget struct {
	URL  string
	Mode FetchMode
}

// RawPage is the opaque markup payload handed from the retrieval
// controller to the locator. It is discarded after row extraction.
type RawPage struct {
	HTML        string
	Mode        FetchMode
	StatusCode  int
	RetrievedAt time.Time
}

// AttemptOutcome classifies one fetch try.
type AttemptOutcome string

const (
	OutcomeSuccess     AttemptOutcome = "success"
	OutcomeTimeout     AttemptOutcome = "timeout"
	OutcomeRateLimited AttemptOutcome = "rate_limited"
	OutcomeError       AttemptOutcome = "error"
)

// RetrievalAttempt records a single fetch try. It exists only to drive
// backoff and the per-attempt diagnostic event; it is not persisted.
type RetrievalAttempt struct {
	URL     string
	Index   int
	Outcome AttemptOutcome
	Status  int
	Delay   time.Duration
}

// RunStatistics accumulates process-wide counters for one scraping run.
// It is mutated by exactly one logical flow at a time; the coordinator
// owns it and hands a finalized copy to the exporter at run end.
type RunStatistics struct {
	PagesFetched  int           `json:"pages_fetched"`
	PagesFailed   int           `json:"pages_failed"`
	RowsAttempted int           `json:"rows_attempted"`
	Success       int           `json:"success"`
	Partial       int           `json:"partial"`
	Failed        int           `json:"failed"`
	StartedAt     time.Time     `json:"started_at"`
	Elapsed       time.Duration `json:"elapsed"`
}

// CountRecord increments the row counters for one terminal record status.
func (s *RunStatistics) CountRecord(status RecordStatus) {
	s.RowsAttempted++
	switch status {
	case StatusSuccess:
		s.Success++
	case StatusPartial:
		s.Partial++
	default:
		s.Failed++
	}
}

// Finalize stamps the elapsed time. Call once, at run end.
func (s *RunStatistics) Finalize() {
	s.Elapsed = time.Since(s.StartedAt)
}
