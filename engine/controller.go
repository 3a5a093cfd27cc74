package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/Charlesagui/scraptor/config"
	"github.com/Charlesagui/scraptor/models"
)

// Prober inspects statically fetched markup and reports whether it looks
// dynamically rendered (or structurally insufficient), i.e. whether the
// controller should escalate to the rendered engine. It is the locator's
// quick-probe capability, injected to keep this package free of DOM code.
type Prober func(html string) bool

// AttemptFunc receives one RetrievalAttempt per fetch try, in order.
// Used by the run coordinator to feed statistics.
type AttemptFunc func(models.RetrievalAttempt)

// Controller owns the static-vs-rendered fetch decision, the retry and
// backoff policy, and the mandatory inter-request pacing.
type Controller struct {
	static   Engine
	rendered Engine
	probe    Prober
	cfg      config.ScrapeConfig

	// limiter enforces the inter-request delay before every attempt,
	// including the first. Concurrent fetches would defeat this contract,
	// which is why pages are processed sequentially.
	limiter *rate.Limiter

	onAttempt AttemptFunc
}

// NewController wires the two engines and the probe into a controller.
func NewController(static, rendered Engine, probe Prober, cfg config.ScrapeConfig) *Controller {
	limit := rate.Inf
	if cfg.RateLimitDelay > 0 {
		limit = rate.Every(cfg.RateLimitDelay)
	}
	limiter := rate.NewLimiter(limit, 1)
	if cfg.RateLimitDelay > 0 {
		// Spend the initial token so the first request of the process
		// waits like every other, not just the ones that follow.
		limiter.AllowN(time.Now(), 1)
	}
	return &Controller{
		static:   static,
		rendered: rendered,
		probe:    probe,
		cfg:      cfg,
		limiter:  limiter,
	}
}

// OnAttempt registers the per-attempt callback.
func (c *Controller) OnAttempt(fn AttemptFunc) { c.onAttempt = fn }

// Fetch retrieves one page, escalating from the static to the rendered
// engine at most once if the static payload probes as dynamic. A second
// failure after escalation is terminal for the target.
func (c *Controller) Fetch(ctx context.Context, target models.FetchTarget) (*models.RawPage, error) {
	// A target already pinned to rendered mode (a previous escalation on
	// this session) skips the static attempt entirely.
	if target.Mode == models.ModeRendered {
		return c.fetchRendered(ctx, target.URL)
	}

	res, err := c.fetchWithRetry(ctx, target.URL)
	if err != nil {
		return nil, err
	}

	if target.Mode == models.ModeStatic && c.probe != nil && c.probe(res.HTML) {
		slog.Info("dynamic content detected, escalating to rendered fetch",
			"url", target.URL, "engine", c.rendered.Name())
		return c.fetchRendered(ctx, target.URL)
	}

	return &models.RawPage{
		HTML:        res.HTML,
		Mode:        models.ModeStatic,
		StatusCode:  res.StatusCode,
		RetrievedAt: time.Now(),
	}, nil
}

// fetchWithRetry runs the static engine under the retry policy:
//
//	429 / rate-limit  -> exponential backoff base*2^attempt, retried
//	timeout / network -> linear backoff base, retried
//	5xx               -> linear backoff base, retried
//	other 4xx         -> fail immediately, no retry
func (c *Controller) fetchWithRetry(ctx context.Context, url string) (*FetchResult, error) {
	var (
		lastErr    error
		lastStatus int
	)

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, models.NewFetchError(models.FetchTimeout, url, attempt, lastStatus, err)
		}

		res, err := c.static.Fetch(ctx, &FetchRequest{URL: url, Timeout: c.cfg.StaticTimeout})

		outcome, delay, retriable := c.classify(res, err, attempt)
		c.emitAttempt(url, attempt, outcome, res, delay)

		switch outcome {
		case models.OutcomeSuccess:
			return res, nil
		case models.OutcomeRateLimited:
			lastErr, lastStatus = errRateLimited, res.StatusCode
		default:
			if res != nil {
				lastStatus = res.StatusCode
			}
			lastErr = err
			if !retriable {
				return nil, models.NewFetchError(models.FetchHTTPError, url, attempt+1, lastStatus, err)
			}
		}

		slog.Warn("fetch attempt failed",
			"url", url, "attempt", attempt, "outcome", outcome, "backoff", delay)

		// Back off before the next attempt; the final failed attempt has
		// no successor, so its computed delay is only recorded.
		if attempt+1 < c.cfg.MaxRetries {
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, models.NewFetchError(models.FetchTimeout, url, attempt+1, lastStatus, err)
			}
		}
	}

	kind := models.FetchConnection
	switch {
	case errors.Is(lastErr, errRateLimited):
		kind = models.FetchRateLimited
	case errors.Is(lastErr, context.DeadlineExceeded):
		kind = models.FetchTimeout
	}
	return nil, models.NewFetchError(kind, url, c.cfg.MaxRetries, lastStatus, lastErr)
}

var errRateLimited = errors.New("rate limited by server")

// classify maps one attempt result onto an outcome, a backoff delay for
// the following attempt, and whether retrying makes sense at all.
func (c *Controller) classify(res *FetchResult, err error, attempt int) (models.AttemptOutcome, time.Duration, bool) {
	linear := c.cfg.BaseDelay
	exponential := c.cfg.BaseDelay * (1 << attempt)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.OutcomeTimeout, linear, true
		}
		return models.OutcomeError, linear, true
	}

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return models.OutcomeRateLimited, exponential, true
	case res.StatusCode >= 500:
		return models.OutcomeError, linear, true
	case res.StatusCode >= 400:
		// Client errors other than 429 will not heal on retry.
		return models.OutcomeError, 0, false
	default:
		return models.OutcomeSuccess, 0, true
	}
}

// fetchRendered performs the single escalated fetch. It is paced like any
// other request but not retried: a rendered failure is terminal.
func (c *Controller) fetchRendered(ctx context.Context, url string) (*models.RawPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.NewFetchError(models.FetchTimeout, url, 1, 0, err)
	}

	res, err := c.rendered.Fetch(ctx, &FetchRequest{
		URL:          url,
		Timeout:      c.cfg.DynamicWaitTimeout,
		WaitSelector: "table",
	})
	if err != nil {
		c.emitAttempt(url, 0, models.OutcomeError, nil, 0)
		var fe *models.FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, models.NewFetchError(models.FetchConnection, url, 1, 0, err)
	}
	c.emitAttempt(url, 0, models.OutcomeSuccess, res, 0)

	return &models.RawPage{
		HTML:        res.HTML,
		Mode:        models.ModeRendered,
		StatusCode:  res.StatusCode,
		RetrievedAt: time.Now(),
	}, nil
}

func (c *Controller) emitAttempt(url string, index int, outcome models.AttemptOutcome, res *FetchResult, delay time.Duration) {
	attempt := models.RetrievalAttempt{
		URL:     url,
		Index:   index,
		Outcome: outcome,
		Delay:   delay,
	}
	if res != nil {
		attempt.Status = res.StatusCode
	}
	slog.Debug("retrieval attempt",
		"url", url, "attempt", index, "outcome", outcome,
		"status", attempt.Status, "delay", delay)
	if c.onAttempt != nil {
		c.onAttempt(attempt)
	}
}

// sleepCtx blocks for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
