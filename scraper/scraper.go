// Package scraper coordinates a full run: fetch each page through the
// retrieval controller, locate its table, extract its rows, and follow
// pagination. Pages run sequentially so the inter-request pacing holds.
package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/Charlesagui/scraptor/config"
	"github.com/Charlesagui/scraptor/extract"
	"github.com/Charlesagui/scraptor/locator"
	"github.com/Charlesagui/scraptor/models"
)

// Fetcher is the retrieval controller's contract as the coordinator sees
// it. Narrow on purpose: tests drive the coordinator with a stub.
type Fetcher interface {
	Fetch(ctx context.Context, target models.FetchTarget) (*models.RawPage, error)
}

// Result is everything a run produces: the ordered record sequence
// (complete, one record per row encountered, failed rows included) and
// the finalized statistics.
type Result struct {
	Records []models.StockRecord `json:"records"`
	Stats   models.RunStatistics `json:"stats"`
}

// Scraper is the run coordinator. One Run per call; safe to reuse.
type Scraper struct {
	fetcher Fetcher
	loc     *locator.Locator
	cfg     config.ScrapeConfig
}

// New creates a Scraper.
func New(fetcher Fetcher, loc *locator.Locator, cfg config.ScrapeConfig) *Scraper {
	return &Scraper{fetcher: fetcher, loc: loc, cfg: cfg}
}

// Run executes one scraping session. It always returns a Result with a
// complete statistics summary; a 100%-failed run exits cleanly with
// zero records and page-level diagnostics, never an abort.
//
// The run deadline is honored at page boundaries only: a page in
// progress completes (or hard-fails) before the cap is checked.
func (s *Scraper) Run(ctx context.Context) (*Result, error) {
	stats := models.RunStatistics{StartedAt: time.Now()}

	var deadline time.Time
	if s.cfg.RunDeadline > 0 {
		deadline = stats.StartedAt.Add(s.cfg.RunDeadline)
	}

	queue := []string{s.cfg.TargetURL}
	visited := map[string]bool{s.cfg.TargetURL: true}
	seenSymbols := make(map[string]bool)

	// Once any page escalates, later pages on the session go straight to
	// the rendered engine: the site has already told us static is not
	// enough, and re-probing each page would double the request count.
	mode := models.ModeStatic

	var records []models.StockRecord

	for i := 0; i < len(queue) && i < s.cfg.MaxPages; i++ {
		if err := ctx.Err(); err != nil {
			slog.Warn("run canceled, stopping at page boundary", "pagesDone", i)
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			slog.Warn("run deadline reached, stopping at page boundary",
				"deadline", s.cfg.RunDeadline, "pagesDone", i)
			break
		}

		pageURL := queue[i]
		target := models.FetchTarget{URL: pageURL, Mode: mode}

		page, err := s.fetcher.Fetch(ctx, target)
		if err != nil {
			stats.PagesFailed++
			slog.Error("page fetch failed", "url", pageURL, "error", err)
			continue
		}
		stats.PagesFetched++
		mode = page.Mode

		cm, err := s.loc.Locate(page)
		if err != nil {
			// No retry: the same markup cannot locate differently twice.
			stats.PagesFailed++
			slog.Error("page structure not located", "url", pageURL, "error", err)
			continue
		}
		slog.Info("table located",
			"url", pageURL, "strategy", cm.Strategy(),
			"rows", len(cm.Rows()), "unresolved", cm.Unresolved())

		pageRecords := extract.Page(cm, &stats)
		records = append(records, dedupe(pageRecords, seenSymbols)...)

		// Pagination discovery happens only on the entry page; deeper
		// pages of a pager rarely link further than the first one does.
		if i == 0 {
			for _, link := range s.loc.PaginationLinks(page.HTML, pageURL) {
				if !visited[link] && len(queue) < s.cfg.MaxPages {
					visited[link] = true
					queue = append(queue, link)
				}
			}
			if len(queue) > 1 {
				slog.Info("pagination discovered", "pages", len(queue)-1)
			}
		}
	}

	stats.Finalize()
	slog.Info("run complete",
		"pagesFetched", stats.PagesFetched,
		"pagesFailed", stats.PagesFailed,
		"rowsAttempted", stats.RowsAttempted,
		"success", stats.Success,
		"partial", stats.Partial,
		"failed", stats.Failed,
		"elapsed", stats.Elapsed)

	return &Result{Records: records, Stats: stats}, nil
}

// dedupe drops records whose symbol was already emitted by an earlier
// page (first occurrence wins). Failed rows without a symbol pass
// through: they carry audit value and cannot collide.
func dedupe(recs []models.StockRecord, seen map[string]bool) []models.StockRecord {
	out := recs[:0]
	for _, r := range recs {
		if r.Symbol != "" {
			if seen[r.Symbol] {
				continue
			}
			seen[r.Symbol] = true
		}
		out = append(out, r)
	}
	return out
}
