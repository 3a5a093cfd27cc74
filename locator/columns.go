package locator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Charlesagui/scraptor/models"
)

// Field names the logical columns of a stock row.
type Field string

const (
	FieldSymbol         Field = "symbol"
	FieldName           Field = "company_name"
	FieldPrice          Field = "price"
	FieldChangePercent  Field = "change_percent"
	FieldChangeAbsolute Field = "change_absolute"
)

// resolveOrder fixes the resolution sequence. Percent resolves before
// absolute change so a "+1.25%" column is not claimed as the absolute one.
var resolveOrder = []Field{
	FieldSymbol, FieldName, FieldPrice, FieldChangePercent, FieldChangeAbsolute,
}

// RequiredFields must both resolve or the page fails outright.
var RequiredFields = []Field{FieldSymbol, FieldPrice}

// ColumnMap is the per-page resolution of logical fields to cell indexes
// within a data row. Built once per page, reused for every row.
type ColumnMap struct {
	columns  map[Field]int
	rows     []*goquery.Selection
	strategy string
}

// Column returns the cell index for a field and whether it resolved.
func (m *ColumnMap) Column(f Field) (int, bool) {
	idx, ok := m.columns[f]
	return idx, ok
}

// Rows returns the page's data rows in DOM order.
func (m *ColumnMap) Rows() []*goquery.Selection { return m.rows }

// Strategy names the table strategy that won the fallback chain.
func (m *ColumnMap) Strategy() string { return m.strategy }

// Unresolved lists the optional fields that did not resolve. Their
// absence surfaces as partial status on every row of the page.
func (m *ColumnMap) Unresolved() []Field {
	var out []Field
	for _, f := range resolveOrder {
		if _, ok := m.columns[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// CellText pulls the raw text of a field's cell from one row. The second
// return is false when the field is unresolved or the row is too short.
func (m *ColumnMap) CellText(row *goquery.Selection, f Field) (string, bool) {
	idx, ok := m.columns[f]
	if !ok {
		return "", false
	}
	cells := row.Find("td, th")
	if idx >= cells.Length() {
		return "", false
	}
	return strings.TrimSpace(cells.Eq(idx).Text()), true
}

// resolveColumns maps each logical field to a column using, in order:
// header-text match, positional convention (validated against cell
// shapes), and cell-content shape voting across a sample of rows.
func resolveColumns(table *goquery.Selection, rows []*goquery.Selection) (*ColumnMap, error) {
	headers := headerTexts(table)
	sample := sampleCells(rows, 12)

	nCols := 0
	for _, r := range sample {
		if len(r) > nCols {
			nCols = len(r)
		}
	}

	columns := make(map[Field]int, len(resolveOrder))
	taken := make(map[int]bool, len(resolveOrder))

	for _, field := range resolveOrder {
		if idx, ok := headerColumn(field, headers, taken); ok {
			columns[field], taken[idx] = idx, true
			continue
		}
		if idx, ok := positionalColumn(field, sample, nCols, taken); ok {
			columns[field], taken[idx] = idx, true
			continue
		}
		if idx, ok := shapeColumn(field, sample, nCols, taken); ok {
			columns[field], taken[idx] = idx, true
		}
	}

	for _, req := range RequiredFields {
		if _, ok := columns[req]; !ok {
			return nil, models.NewLocateError(models.LocateColumnUnresolved,
				fmt.Sprintf("required field %q not resolved by any heuristic", req))
		}
	}

	return &ColumnMap{columns: columns, rows: rows}, nil
}

// headerTexts collects lower-cased header cell texts, preferring a thead
// and falling back to the first header-looking row of the table.
func headerTexts(table *goquery.Selection) []string {
	var texts []string
	table.Find("thead th").Each(func(_ int, c *goquery.Selection) {
		texts = append(texts, strings.ToLower(strings.TrimSpace(c.Text())))
	})
	if len(texts) > 0 {
		return texts
	}

	table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if !isHeaderRow(rowText(tr)) {
			return true
		}
		tr.Find("td, th").Each(func(_ int, c *goquery.Selection) {
			texts = append(texts, strings.ToLower(strings.TrimSpace(c.Text())))
		})
		return false
	})
	return texts
}

func sampleCells(rows []*goquery.Selection, max int) [][]string {
	if len(rows) < max {
		max = len(rows)
	}
	out := make([][]string, 0, max)
	for _, tr := range rows[:max] {
		var cells []string
		tr.Find("td, th").Each(func(_ int, c *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(c.Text()))
		})
		out = append(out, cells)
	}
	return out
}

// headerColumn matches a field against header texts by keyword.
func headerColumn(field Field, headers []string, taken map[int]bool) (int, bool) {
	for i, h := range headers {
		if taken[i] || h == "" {
			continue
		}
		if headerMatches(field, h) {
			return i, true
		}
	}
	return 0, false
}

func headerMatches(field Field, header string) bool {
	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(header, w) {
				return true
			}
		}
		return false
	}
	switch field {
	case FieldSymbol:
		return contains("symbol", "ticker")
	case FieldName:
		return contains("name", "company")
	case FieldPrice:
		return contains("price", "last", "close")
	case FieldChangePercent:
		return contains("%", "percent")
	case FieldChangeAbsolute:
		return contains("change", "chg") && !contains("%", "percent")
	}
	return false
}

// conventionalPosition is the stooq column order: symbol, name, price,
// percent change, absolute change.
var conventionalPosition = map[Field]int{
	FieldSymbol:         0,
	FieldName:           1,
	FieldPrice:          2,
	FieldChangePercent:  3,
	FieldChangeAbsolute: 4,
}

// positionalColumn applies the positional convention, but only when the
// sampled cells at that position actually look like the field. A blind
// positional guess against a drifted layout poisons every row.
func positionalColumn(field Field, sample [][]string, nCols int, taken map[int]bool) (int, bool) {
	pos := conventionalPosition[field]
	if pos >= nCols || taken[pos] {
		return 0, false
	}
	if shapeRatio(field, sample, pos) >= 0.6 {
		return pos, true
	}
	return 0, false
}

// shapeColumn scans all columns for the one whose cells best match the
// field's content shape, requiring a 60% majority of non-empty cells.
func shapeColumn(field Field, sample [][]string, nCols int, taken map[int]bool) (int, bool) {
	bestIdx, bestRatio := -1, 0.0
	for i := 0; i < nCols; i++ {
		if taken[i] {
			continue
		}
		if r := shapeRatio(field, sample, i); r > bestRatio {
			bestIdx, bestRatio = i, r
		}
	}
	if bestIdx >= 0 && bestRatio >= 0.6 {
		return bestIdx, true
	}
	return 0, false
}

func shapeRatio(field Field, sample [][]string, col int) float64 {
	seen, hits := 0, 0
	for _, row := range sample {
		if col >= len(row) || row[col] == "" {
			continue
		}
		seen++
		if matchesShape(field, row[col]) {
			hits++
		}
	}
	if seen == 0 {
		return 0
	}
	return float64(hits) / float64(seen)
}

var (
	tickerShape  = regexp.MustCompile(`^[A-Z]{1,5}([.-][A-Z0-9]{1,4})?$`)
	numericShape = regexp.MustCompile(`^[+-]?[\d.,\s]+$`)
	percentShape = regexp.MustCompile(`^[+-]?[\d.,]+\s*%$`)
)

// matchesShape checks whether one cell's text plausibly belongs to field.
func matchesShape(field Field, text string) bool {
	switch field {
	case FieldSymbol:
		return tickerShape.MatchString(strings.ToUpper(text))
	case FieldName:
		return len(text) > 3 &&
			strings.ContainsFunc(text, func(r rune) bool { return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' }) &&
			!tickerShape.MatchString(strings.ToUpper(text)) &&
			!numericShape.MatchString(stripCurrency(text)) &&
			!percentShape.MatchString(text)
	case FieldPrice:
		t := stripCurrency(text)
		return numericShape.MatchString(t) && !strings.HasPrefix(t, "+") && !strings.HasPrefix(t, "-")
	case FieldChangePercent:
		return percentShape.MatchString(text)
	case FieldChangeAbsolute:
		return (strings.HasPrefix(text, "+") || strings.HasPrefix(text, "-")) &&
			numericShape.MatchString(stripCurrency(text)) &&
			!strings.Contains(text, "%")
	}
	return false
}

var currencyStripper = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", "₹", "", " ", "", " ", "")

func stripCurrency(text string) string {
	return currencyStripper.Replace(text)
}
