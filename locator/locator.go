// Package locator finds the data-bearing table in scraped markup and
// resolves its columns to logical fields. Page structure is not
// contractually stable, so every lookup runs through an ordered chain of
// fallback strategies: the small performance cost buys resilience to
// minor structural drift without a code change for every markup tweak.
package locator

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/Charlesagui/scraptor/models"
)

// tableStrategy is one entry in the fallback chain: a named, pre-compiled
// selector tried against the document in order.
type tableStrategy struct {
	name string
	sel  cascadia.Selector
}

// Strategies are ordered from most to least specific. The first one that
// yields a table with enough data rows wins.
var tableStrategies = []tableStrategy{
	{"known-id", cascadia.MustCompile(`table.tab01, table#tab01, table[id*="tab"]`)},
	{"data-table", cascadia.MustCompile(`table.data-table, table[class*="stock"], div.table-responsive table`)},
	{"any-table", cascadia.MustCompile(`table`)},
}

// rowSelectors are tried in order inside the winning table.
var rowSelectors = []cascadia.Selector{
	cascadia.MustCompile(`tbody tr`),
	cascadia.MustCompile(`tr`),
}

// Locator resolves the data table and its column layout on a page.
// It is stateless apart from configuration and safe for reuse.
type Locator struct {
	minRows int
}

// New creates a Locator. minRows is the smallest data-row count a table
// must have to be accepted as the index table rather than a stray snippet.
func New(minRows int) *Locator {
	if minRows < 1 {
		minRows = 1
	}
	return &Locator{minRows: minRows}
}

// Locate finds the data table in page and builds its ColumnMap.
// It fails the whole page if either required field (symbol, price)
// cannot be resolved: partial column maps are worse than none, because
// every downstream row would silently degrade.
func (l *Locator) Locate(page *models.RawPage) (*ColumnMap, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, models.NewLocateError(models.LocateNoTable, fmt.Sprintf("parse html: %v", err))
	}

	table, rows, strategy := l.findTable(doc)
	if table == nil {
		if doc.FindMatcher(tableStrategies[len(tableStrategies)-1].sel).Length() == 0 {
			return nil, models.NewLocateError(models.LocateNoTable, "no table element in document")
		}
		return nil, models.NewLocateError(models.LocateInsufficientRows,
			fmt.Sprintf("no table with at least %d data rows", l.minRows))
	}

	cm, err := resolveColumns(table, rows)
	if err != nil {
		return nil, err
	}
	cm.strategy = strategy
	return cm, nil
}

// findTable walks the strategy chain and returns the best table plus its
// filtered data rows. Within a strategy, the candidate with the most data
// rows wins (the index table dwarfs navigation or summary tables).
func (l *Locator) findTable(doc *goquery.Document) (*goquery.Selection, []*goquery.Selection, string) {
	for _, strat := range tableStrategies {
		var (
			best     *goquery.Selection
			bestRows []*goquery.Selection
		)
		doc.FindMatcher(strat.sel).Each(func(_ int, t *goquery.Selection) {
			rows := dataRows(t)
			if len(rows) > len(bestRows) {
				best, bestRows = t, rows
			}
		})
		if best != nil && len(bestRows) >= l.minRows {
			return best, bestRows, strat.name
		}
	}
	return nil, nil, ""
}

// dataRows returns the table's rows with header and junk rows filtered
// out. A row qualifies when it has at least three cells and does not read
// like a header line.
func dataRows(table *goquery.Selection) []*goquery.Selection {
	for _, sel := range rowSelectors {
		var rows []*goquery.Selection
		table.FindMatcher(sel).Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td, th")
			if cells.Length() < 3 {
				return
			}
			if isHeaderRow(rowText(tr)) {
				return
			}
			rows = append(rows, tr)
		})
		if len(rows) > 0 {
			return rows
		}
	}
	return nil
}

// headerKeywords are the words that identify a header line. Two or more
// hits in a single row mark it as a header, not data.
var headerKeywords = []string{
	"symbol", "ticker", "name", "company",
	"price", "last", "close",
	"change", "chg", "%", "percent",
	"volume", "vol",
}

func isHeaderRow(text string) bool {
	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range headerKeywords {
		if strings.Contains(lower, kw) {
			matches++
		}
	}
	return matches >= 2
}

func rowText(tr *goquery.Selection) string {
	var parts []string
	tr.Find("td, th").Each(func(_ int, c *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(c.Text()))
	})
	return strings.Join(parts, " ")
}
