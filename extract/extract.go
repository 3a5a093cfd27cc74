// Package extract drives one pass over a located page: every data row is
// pulled through field normalization and assembled into a StockRecord
// with a terminal status. No row failure ever aborts the pass.
package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Charlesagui/scraptor/locator"
	"github.com/Charlesagui/scraptor/models"
	"github.com/Charlesagui/scraptor/normalize"
)

// Page iterates all rows of a located page and returns one record per
// row, in DOM order, including failed rows (auditability beats tidiness:
// a failed row with a recoverable symbol tells you what went missing).
// Statistics are incremented in strict row order.
func Page(cm *locator.ColumnMap, stats *models.RunStatistics) []models.StockRecord {
	records := make([]models.StockRecord, 0, len(cm.Rows()))
	for _, tr := range cm.Rows() {
		rec := row(cm, tr)
		records = append(records, rec)
		stats.CountRecord(rec.Status)

		level := slog.LevelDebug
		if rec.Status == models.StatusFailed {
			level = slog.LevelWarn
		}
		slog.Default().Log(context.Background(), level, "row extracted",
			"symbol", rec.Symbol, "status", rec.Status)
	}
	return records
}

// row runs the per-row pipeline: pull each mapped cell's raw text,
// normalize per field, then classify. Normalization failures downgrade a
// field to "absent"; only a missing symbol or price fails the row.
func row(cm *locator.ColumnMap, tr *goquery.Selection) models.StockRecord {
	rec := models.StockRecord{ExtractedAt: time.Now()}

	var symbolOK bool
	if raw, ok := cm.CellText(tr, locator.FieldSymbol); ok {
		if sym, err := normalize.Symbol(raw); err == nil {
			rec.Symbol, symbolOK = sym, true
		} else {
			logFieldDropped(err)
		}
	}

	if raw, ok := cm.CellText(tr, locator.FieldName); ok && raw != "" {
		rec.CompanyName = raw
	}

	var priceOK bool
	if raw, ok := cm.CellText(tr, locator.FieldPrice); ok {
		if v, err := normalize.Price(raw); err == nil {
			rec.Price, priceOK = &v, true
		} else {
			logFieldDropped(err)
		}
	}

	if raw, ok := cm.CellText(tr, locator.FieldChangePercent); ok {
		if v, err := normalize.Percent(raw); err == nil {
			rec.ChangePercent = &v
		} else {
			logFieldDropped(err)
		}
	}

	if raw, ok := cm.CellText(tr, locator.FieldChangeAbsolute); ok {
		if v, err := normalize.Change(raw); err == nil {
			rec.ChangeAbsolute = &v
		} else {
			logFieldDropped(err)
		}
	}

	switch {
	case symbolOK && priceOK && rec.CompanyName != "" &&
		rec.ChangePercent != nil && rec.ChangeAbsolute != nil:
		rec.Status = models.StatusSuccess
	case symbolOK && priceOK:
		rec.Status = models.StatusPartial
	default:
		rec.Status = models.StatusFailed
	}

	// Soft cross-check: direction of the two change fields should agree.
	// Logged only; the literal extracted values are trusted.
	if rec.ChangePercent != nil && rec.ChangeAbsolute != nil &&
		!normalize.SignsConsistent(*rec.ChangeAbsolute, *rec.ChangePercent) {
		slog.Warn("sign mismatch between change fields",
			"symbol", rec.Symbol,
			"change_absolute", *rec.ChangeAbsolute,
			"change_percent", *rec.ChangePercent)
	}

	return rec
}

func logFieldDropped(err error) {
	slog.Debug("field dropped", "error", err)
}
