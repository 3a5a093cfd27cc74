// Package normalize cleans raw cell text into typed field values. All
// functions are pure: same input, same output, no shared state, safe to
// call from any goroutine.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Charlesagui/scraptor/models"
)

// Plausibility bounds. Values outside them are treated as extraction
// artifacts, not market data.
const (
	MaxPrice   = 100000.0
	MaxPercent = 1000.0
)

// Symbol trims and validates a ticker symbol. Embedded whitespace means
// the cell was mis-located (two columns merged), so it is rejected
// rather than repaired.
func Symbol(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", models.NewNormalizationError(models.NormUnparseable, "symbol", raw)
	}
	if strings.ContainsAny(s, " \t\n") {
		return "", models.NewNormalizationError(models.NormUnparseable, "symbol", raw)
	}
	return strings.ToUpper(s), nil
}

// Price parses a price cell. Prices are never negative (direction is
// carried by the change fields) and must fall within [0, MaxPrice].
func Price(raw string) (float64, error) {
	v, err := parseNumber(raw, "price")
	if err != nil {
		return 0, err
	}
	if v < 0 || v > MaxPrice {
		return 0, models.NewNormalizationError(models.NormOutOfRange, "price", raw)
	}
	return v, nil
}

// Change parses an absolute change cell, preserving its sign.
func Change(raw string) (float64, error) {
	return parseNumber(raw, "change_absolute")
}

// Percent parses a percentage cell, stripping the % sign and preserving
// the explicit sign. Valid range is [-MaxPercent, MaxPercent].
func Percent(raw string) (float64, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	v, err := parseNumber(s, "change_percent")
	if err != nil {
		return 0, err
	}
	if v < -MaxPercent || v > MaxPercent {
		return 0, models.NewNormalizationError(models.NormOutOfRange, "change_percent", raw)
	}
	return v, nil
}

// parseNumber handles both locale conventions, 1,234.56 and 1.234,56.
// When both separators appear, the rightmost one is the decimal point and
// the other is grouping. A lone separator is decimal when it has at most
// two trailing digits; a three-digit tail reads as grouping (1,234).
func parseNumber(raw, field string) (float64, error) {
	s := stripCurrency(strings.TrimSpace(raw))
	if s == "" {
		return 0, models.NewNormalizationError(models.NormUnparseable, field, raw)
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// 1.234,56: comma is decimal, dots are grouping.
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// 1,234.56: dot is decimal, commas are grouping.
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, models.NewNormalizationError(models.NormUnparseable, field, raw)
	}
	if neg {
		v = -v
	}
	return v, nil
}

var currencyStripper = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "", "₹", "",
	" ", "", " ", "",
)

func stripCurrency(s string) string {
	return currencyStripper.Replace(s)
}

// FormatAmount renders a price or change to two decimal places, the
// display form the CSV exporter writes. Normalizing the formatted string
// again yields the same value (lossless to two decimals).
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatPercent renders a percentage to two decimal places with a % sign.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// SignsConsistent checks whether an absolute change and a percent change
// agree in direction. Zero is compatible with either sign. A mismatch is
// a data-quality warning, never a row failure: the literal extracted
// values are trusted over derived consistency.
func SignsConsistent(changeAbs, changePct float64) bool {
	if changeAbs == 0 || changePct == 0 {
		return true
	}
	return (changeAbs > 0) == (changePct > 0)
}
