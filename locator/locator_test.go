package locator

import (
	"errors"
	"testing"

	"github.com/Charlesagui/scraptor/models"
)

const indexTable = `<html><body>
<table id="tab01">
<thead><tr><th>Symbol</th><th>Name</th><th>Last</th><th>Change %</th><th>Change</th></tr></thead>
<tbody>
<tr><td>AAPL</td><td>Apple Inc.</td><td>150.25</td><td>+1.25%</td><td>+1.85</td></tr>
<tr><td>MSFT</td><td>Microsoft Corp.</td><td>300.10</td><td>-0.50%</td><td>-1.51</td></tr>
<tr><td>GOOG</td><td>Alphabet Inc.</td><td>2750.00</td><td>+0.75%</td><td>+20.46</td></tr>
</tbody>
</table>
</body></html>`

func page(html string) *models.RawPage {
	return &models.RawPage{HTML: html, Mode: models.ModeStatic, StatusCode: 200}
}

func TestLocateKnownID(t *testing.T) {
	cm, err := New(3).Locate(page(indexTable))
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if cm.Strategy() != "known-id" {
		t.Errorf("strategy = %q, want known-id", cm.Strategy())
	}
	if got := len(cm.Rows()); got != 3 {
		t.Errorf("rows = %d, want 3", got)
	}

	want := map[Field]int{
		FieldSymbol:         0,
		FieldName:           1,
		FieldPrice:          2,
		FieldChangePercent:  3,
		FieldChangeAbsolute: 4,
	}
	for f, idx := range want {
		got, ok := cm.Column(f)
		if !ok {
			t.Errorf("field %s did not resolve", f)
			continue
		}
		if got != idx {
			t.Errorf("field %s = column %d, want %d", f, got, idx)
		}
	}
	if unresolved := cm.Unresolved(); len(unresolved) != 0 {
		t.Errorf("unresolved = %v, want none", unresolved)
	}
}

func TestLocateFallsBackToAnyTable(t *testing.T) {
	html := `<html><body>
<table>
<tr><td>AAPL</td><td>Apple Inc.</td><td>150.25</td><td>+1.25%</td><td>+1.85</td></tr>
<tr><td>MSFT</td><td>Microsoft Corp.</td><td>300.10</td><td>-0.50%</td><td>-1.51</td></tr>
<tr><td>GOOG</td><td>Alphabet Inc.</td><td>2750.00</td><td>+0.75%</td><td>+20.46</td></tr>
</table>
</body></html>`

	cm, err := New(2).Locate(page(html))
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if cm.Strategy() != "any-table" {
		t.Errorf("strategy = %q, want any-table", cm.Strategy())
	}
	// No headers: positional convention validated by cell shapes.
	for f, want := range map[Field]int{FieldSymbol: 0, FieldPrice: 2} {
		got, ok := cm.Column(f)
		if !ok || got != want {
			t.Errorf("field %s = (%d, %v), want (%d, true)", f, got, ok, want)
		}
	}
}

func TestLocatePrefersLargestTable(t *testing.T) {
	html := `<html><body>
<table>
<tr><td>Home</td><td>News</td><td>Contact</td></tr>
<tr><td>About</td><td>Help</td><td>Terms</td></tr>
</table>
<table>
<tr><td>AAPL</td><td>Apple Inc.</td><td>150.25</td><td>+1.25%</td><td>+1.85</td></tr>
<tr><td>MSFT</td><td>Microsoft Corp.</td><td>300.10</td><td>-0.50%</td><td>-1.51</td></tr>
<tr><td>GOOG</td><td>Alphabet Inc.</td><td>2750.00</td><td>+0.75%</td><td>+20.46</td></tr>
</table>
</body></html>`

	cm, err := New(3).Locate(page(html))
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got := len(cm.Rows()); got != 3 {
		t.Errorf("rows = %d, want 3 (the larger table)", got)
	}
	if txt, ok := cm.CellText(cm.Rows()[0], FieldSymbol); !ok || txt != "AAPL" {
		t.Errorf("first symbol cell = (%q, %v), want AAPL", txt, ok)
	}
}

func TestLocateSingleRowTable(t *testing.T) {
	html := `<html><body>
<table>
<tr><td>AAPL</td><td>Apple Inc.</td><td>150.25</td><td>+1.25%</td><td>+1.85</td></tr>
</table>
</body></html>`

	cm, err := New(1).Locate(page(html))
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got := len(cm.Rows()); got != 1 {
		t.Errorf("rows = %d, want 1", got)
	}
	if txt, ok := cm.CellText(cm.Rows()[0], FieldSymbol); !ok || txt != "AAPL" {
		t.Errorf("symbol cell = (%q, %v), want AAPL", txt, ok)
	}
}

func TestLocateNoTable(t *testing.T) {
	_, err := New(3).Locate(page(`<html><body><p>nothing here</p></body></html>`))
	assertLocateKind(t, err, models.LocateNoTable)
}

func TestLocateInsufficientRows(t *testing.T) {
	_, err := New(50).Locate(page(indexTable))
	assertLocateKind(t, err, models.LocateInsufficientRows)
}

func TestLocateRequiredColumnUnresolved(t *testing.T) {
	html := `<html><body>
<table>
<tr><td>lorem ipsum dolor</td><td>sit amet consectetur</td><td>adipiscing elit sed</td></tr>
<tr><td>do eiusmod tempor</td><td>incididunt ut labore</td><td>et dolore magna</td></tr>
<tr><td>aliqua ut enim</td><td>ad minim veniam</td><td>quis nostrud exercitation</td></tr>
</table>
</body></html>`

	_, err := New(2).Locate(page(html))
	assertLocateKind(t, err, models.LocateColumnUnresolved)
}

func TestLocateShapeVotingHandlesReorderedColumns(t *testing.T) {
	// Name first, symbol second: positional convention fails, shape
	// voting must recover both required fields.
	html := `<html><body>
<table>
<tr><td>Apple Incorporated</td><td>AAPL</td><td>150.25</td></tr>
<tr><td>Microsoft Corporation</td><td>MSFT</td><td>300.10</td></tr>
<tr><td>Alphabet Incorporated</td><td>GOOG</td><td>2750.00</td></tr>
</table>
</body></html>`

	cm, err := New(2).Locate(page(html))
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got, ok := cm.Column(FieldSymbol); !ok || got != 1 {
		t.Errorf("symbol = (%d, %v), want column 1", got, ok)
	}
	if got, ok := cm.Column(FieldPrice); !ok || got != 2 {
		t.Errorf("price = (%d, %v), want column 2", got, ok)
	}
}

func TestCellText(t *testing.T) {
	cm, err := New(3).Locate(page(indexTable))
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	row := cm.Rows()[1]

	if txt, ok := cm.CellText(row, FieldSymbol); !ok || txt != "MSFT" {
		t.Errorf("symbol cell = (%q, %v), want MSFT", txt, ok)
	}
	if txt, ok := cm.CellText(row, FieldChangePercent); !ok || txt != "-0.50%" {
		t.Errorf("percent cell = (%q, %v), want -0.50%%", txt, ok)
	}
	if _, ok := cm.CellText(row, Field("volume")); ok {
		t.Error("CellText for unmapped field reported ok")
	}
}

func assertLocateKind(t *testing.T, err error, kind string) {
	t.Helper()
	if err == nil {
		t.Fatal("Locate succeeded, want error")
	}
	var le *models.LocateError
	if !errors.As(err, &le) {
		t.Fatalf("error type %T, want *LocateError", err)
	}
	if le.Kind != kind {
		t.Errorf("kind = %s, want %s", le.Kind, kind)
	}
}
