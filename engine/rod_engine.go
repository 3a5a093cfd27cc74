package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/Charlesagui/scraptor/config"
	"github.com/Charlesagui/scraptor/models"
)

// RodEngine is the rendered fetch path: a headless Chromium driven via
// go-rod. It navigates, waits for the data-bearing element (bounded by
// the request timeout), and returns the materialized DOM.
//
// The browser is launched lazily on the first Fetch so runs that never
// escalate pay no Chromium startup cost.
type RodEngine struct {
	cfg config.BrowserConfig

	mu        sync.Mutex
	browser   *rod.Browser
	launchErr error
}

// NewRodEngine creates a RodEngine. The browser is not launched yet.
func NewRodEngine(cfg config.BrowserConfig) *RodEngine {
	return &RodEngine{cfg: cfg}
}

func (e *RodEngine) Name() string { return "rod" }

// connect launches the browser on first use. A failed launch is cached:
// retrying a broken Chromium install per page would only add noise.
func (e *RodEngine) connect() (*rod.Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser != nil || e.launchErr != nil {
		return e.browser, e.launchErr
	}

	l := launcher.New().
		Headless(e.cfg.Headless).
		NoSandbox(e.cfg.NoSandbox)

	if e.cfg.BrowserBin != "" {
		l = l.Bin(e.cfg.BrowserBin)
	}

	// Anti-detection flags, matching what the target tolerates.
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		e.launchErr = fmt.Errorf("rod: launch browser: %w", err)
		return nil, e.launchErr
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		e.launchErr = fmt.Errorf("rod: connect browser: %w", err)
		return nil, e.launchErr
	}

	e.browser = browser
	return e.browser, nil
}

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	browser, err := e.connect()
	if err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("rod: create page: %w", err)
	}
	// Cleanup uses the original page reference so it succeeds even after
	// the request context has expired.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		_ = page.Close()
	}()

	// Stealth must be injected before navigation to take effect.
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}

	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": "en-US,en;q=0.9",
		}),
	}.Call(page)

	p := page.Context(ctx)

	if err := p.Navigate(req.URL); err != nil {
		return nil, categorizeNavError(err, req.URL)
	}

	// Bounded wait for the data-bearing element. If the selector never
	// materializes within the deadline, the escalated fetch is a timeout.
	if req.WaitSelector != "" {
		if _, elErr := p.Element(req.WaitSelector); elErr != nil {
			return nil, categorizeNavError(elErr, req.URL)
		}
	}

	// Let late script-driven cell updates settle before snapshotting.
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr)
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeNavError(err, req.URL)
	}

	finalURL := req.URL
	if info, infoErr := p.Info(); infoErr == nil && info.URL != "" {
		finalURL = info.URL
	}

	return &FetchResult{
		HTML:       rawHTML,
		StatusCode: 200, // a materialized DOM implies a delivered document
		FinalURL:   finalURL,
		EngineName: e.Name(),
	}, nil
}

// Close kills the browser process if one was launched. Call on shutdown
// to prevent zombie Chrome processes.
func (e *RodEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browser != nil {
		slog.Info("rod engine shutting down: closing browser")
		_ = e.browser.Close()
		e.browser = nil
	}
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders
// type (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeNavError maps raw rod errors onto the fetch error taxonomy so
// the controller can tell a rendered-wait timeout from a navigation fault.
func categorizeNavError(err error, url string) error {
	kind := models.FetchConnection
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = models.FetchTimeout
	}
	return models.NewFetchError(kind, url, 1, 0, err)
}
