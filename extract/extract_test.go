package extract

import (
	"testing"

	"github.com/Charlesagui/scraptor/locator"
	"github.com/Charlesagui/scraptor/models"
)

// Four rows, one per terminal state plus one failed row that still
// carries a recoverable symbol.
const mixedRows = `<html><body>
<table id="tab01">
<thead><tr><th>Symbol</th><th>Name</th><th>Last</th><th>Change %</th><th>Change</th></tr></thead>
<tbody>
<tr><td>AAPL</td><td>Apple Inc.</td><td>150.25</td><td>+1.25%</td><td>+1.85</td></tr>
<tr><td>MSFT</td><td>Microsoft Corp.</td><td>300.10</td><td></td><td>-1.51</td></tr>
<tr><td></td><td>Unknown Widgets</td><td>12.00</td><td>+1.00%</td><td>+0.10</td></tr>
<tr><td>XOM</td><td>Exxon Mobil</td><td>n/a</td><td>+1.00%</td><td>+0.10</td></tr>
</tbody>
</table>
</body></html>`

func locate(t *testing.T, html string) *locator.ColumnMap {
	t.Helper()
	cm, err := locator.New(2).Locate(&models.RawPage{HTML: html, Mode: models.ModeStatic})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	return cm
}

func TestPageStatuses(t *testing.T) {
	var stats models.RunStatistics
	records := Page(locate(t, mixedRows), &stats)

	if len(records) != 4 {
		t.Fatalf("got %d records, want 4 (failed rows must be emitted)", len(records))
	}

	wantStatus := []models.RecordStatus{
		models.StatusSuccess,
		models.StatusPartial,
		models.StatusFailed,
		models.StatusFailed,
	}
	for i, want := range wantStatus {
		if records[i].Status != want {
			t.Errorf("record %d status = %s, want %s", i, records[i].Status, want)
		}
	}

	if stats.RowsAttempted != 4 {
		t.Errorf("rows attempted = %d, want 4", stats.RowsAttempted)
	}
	if stats.Success != 1 || stats.Partial != 1 || stats.Failed != 2 {
		t.Errorf("stats = %d/%d/%d, want 1/1/2", stats.Success, stats.Partial, stats.Failed)
	}
}

func TestPageSuccessRecordFields(t *testing.T) {
	var stats models.RunStatistics
	rec := Page(locate(t, mixedRows), &stats)[0]

	if rec.Symbol != "AAPL" {
		t.Errorf("symbol = %q, want AAPL", rec.Symbol)
	}
	if rec.CompanyName != "Apple Inc." {
		t.Errorf("company = %q", rec.CompanyName)
	}
	if rec.Price == nil || *rec.Price != 150.25 {
		t.Errorf("price = %v, want 150.25", rec.Price)
	}
	if rec.ChangePercent == nil || *rec.ChangePercent != 1.25 {
		t.Errorf("change percent = %v, want 1.25", rec.ChangePercent)
	}
	if rec.ChangeAbsolute == nil || *rec.ChangeAbsolute != 1.85 {
		t.Errorf("change absolute = %v, want 1.85", rec.ChangeAbsolute)
	}
	if rec.ExtractedAt.IsZero() {
		t.Error("extraction timestamp is zero")
	}
}

func TestPagePartialKeepsValidFields(t *testing.T) {
	var stats models.RunStatistics
	rec := Page(locate(t, mixedRows), &stats)[1]

	if rec.Symbol != "MSFT" {
		t.Errorf("symbol = %q, want MSFT", rec.Symbol)
	}
	if rec.Price == nil || *rec.Price != 300.10 {
		t.Errorf("price = %v, want 300.10", rec.Price)
	}
	if rec.ChangePercent != nil {
		t.Errorf("change percent = %v, want nil (empty cell)", *rec.ChangePercent)
	}
	if rec.ChangeAbsolute == nil || *rec.ChangeAbsolute != -1.51 {
		t.Errorf("change absolute = %v, want -1.51", rec.ChangeAbsolute)
	}
}

func TestPageFailedRowKeepsRecoverableSymbol(t *testing.T) {
	var stats models.RunStatistics
	records := Page(locate(t, mixedRows), &stats)

	if got := records[2].Symbol; got != "" {
		t.Errorf("record 2 symbol = %q, want empty (cell was blank)", got)
	}
	if got := records[3].Symbol; got != "XOM" {
		t.Errorf("record 3 symbol = %q, want XOM despite failed status", got)
	}
	if records[3].Price != nil {
		t.Errorf("record 3 price = %v, want nil", *records[3].Price)
	}
}

func TestPageSignMismatchStaysSuccess(t *testing.T) {
	html := `<html><body>
<table id="tab01">
<thead><tr><th>Symbol</th><th>Name</th><th>Last</th><th>Change %</th><th>Change</th></tr></thead>
<tbody>
<tr><td>AAPL</td><td>Apple Inc.</td><td>150.25</td><td>-1.25%</td><td>+1.85</td></tr>
<tr><td>MSFT</td><td>Microsoft Corp.</td><td>300.10</td><td>-0.50%</td><td>-1.51</td></tr>
</tbody>
</table>
</body></html>`

	var stats models.RunStatistics
	records := Page(locate(t, html), &stats)

	// Contradictory signs are a warning, never a demotion: the literal
	// extracted values are what gets reported.
	if records[0].Status != models.StatusSuccess {
		t.Errorf("status = %s, want success despite sign mismatch", records[0].Status)
	}
	if *records[0].ChangePercent != -1.25 || *records[0].ChangeAbsolute != 1.85 {
		t.Errorf("values altered: %v / %v", *records[0].ChangePercent, *records[0].ChangeAbsolute)
	}
}
