package models

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// QuotesResponse wraps one scrape run for the HTTP API.
type QuotesResponse struct {
	Success bool           `json:"success"`
	Records []StockRecord  `json:"records,omitempty"`
	Stats   *RunStatistics `json:"stats,omitempty"`
	Error   *ErrorDetail   `json:"error,omitempty"`
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
