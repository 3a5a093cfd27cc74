// Package export writes the finished record sequence to CSV. It consumes
// the core's output through the Result contract and knows nothing about
// how the records were obtained.
package export

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Charlesagui/scraptor/config"
	"github.com/Charlesagui/scraptor/models"
	"github.com/Charlesagui/scraptor/normalize"
)

const absent = "N/A"

var csvHeaders = []string{
	"symbol", "company_name", "price",
	"change_percent", "change_absolute", "timestamp", "status",
}

// CSVExporter writes timestamped CSV files into the output directory.
type CSVExporter struct {
	cfg config.ExportConfig
}

// NewCSV creates a CSVExporter.
func NewCSV(cfg config.ExportConfig) *CSVExporter {
	return &CSVExporter{cfg: cfg}
}

// Export writes all records (failed rows included) in extraction order.
// It returns the path of the written file.
func (e *CSVExporter) Export(records []models.StockRecord) (string, error) {
	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("export: create output dir %s: %w", e.cfg.OutputDir, err)
	}

	path := filepath.Join(e.cfg.OutputDir, e.filename())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeaders); err != nil {
		return "", fmt.Errorf("export: write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(recordRow(rec)); err != nil {
			return "", fmt.Errorf("export: write row for %q: %w", rec.Symbol, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("export: flush %s: %w", path, err)
	}

	slog.Info("export complete", "path", path, "records", len(records))
	return path, nil
}

func (e *CSVExporter) filename() string {
	name := e.cfg.FilenamePrefix
	if e.cfg.IncludeTimestamp {
		name += "_" + time.Now().Format("20060102_150405")
	}
	return name + ".csv"
}

func recordRow(rec models.StockRecord) []string {
	return []string{
		orAbsent(rec.Symbol),
		orAbsent(rec.CompanyName),
		amountOrAbsent(rec.Price),
		percentOrAbsent(rec.ChangePercent),
		amountOrAbsent(rec.ChangeAbsolute),
		rec.ExtractedAt.Format(time.RFC3339),
		string(rec.Status),
	}
}

func orAbsent(s string) string {
	if s == "" {
		return absent
	}
	return s
}

func amountOrAbsent(v *float64) string {
	if v == nil {
		return absent
	}
	return normalize.FormatAmount(*v)
}

func percentOrAbsent(v *float64) string {
	if v == nil {
		return absent
	}
	return normalize.FormatPercent(*v)
}
