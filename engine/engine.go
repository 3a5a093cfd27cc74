package engine

import (
	"context"
	"time"
)

// Engine is the interface both fetch paths implement. The static engine
// does a plain HTTP GET; the rendered engine drives a headless browser
// and waits for the data-bearing element to materialize.
type Engine interface {
	// Name returns the engine identifier ("http", "rod").
	Name() string

	// Fetch retrieves the page content for the given request.
	//
	// A transport-level failure (dial, TLS, timeout) is returned as an
	// error. An HTTP response with a non-2xx status is NOT an error at
	// this layer: the result carries the status code so the retrieval
	// controller can classify it (retry, backoff, or fail fast).
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Timeout time.Duration

	// WaitSelector, when set, is the CSS selector the rendered engine
	// waits for before extracting HTML. Ignored by the static engine.
	WaitSelector string
}

// FetchResult is the output of an engine fetch that reached the server.
type FetchResult struct {
	HTML       string
	StatusCode int
	FinalURL   string
	EngineName string
}
