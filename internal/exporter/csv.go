// Package exporter serializes extracted industry and company data to CSV
// files, and optionally to an Excel workbook. CSV files are prefixed with a
// UTF-8 byte-order mark by default so spreadsheet tools pick up Persian
// text correctly.
package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tsecli/internal/textutil"
	"tsecli/internal/tsetmc"
)

// utf8BOM is the byte-order mark Excel expects on UTF-8 CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// industryHeader and combinedHeader are the fixed CSV headers.
var (
	industryHeader = []string{"id", "symbol", "name"}
	combinedHeader = []string{"industry", "id", "symbol", "name"}
)

// CSVWriter writes industry CSV files.
type CSVWriter struct {
	bom bool
}

// NewCSVWriter creates a writer; bom controls the byte-order-mark prefix.
func NewCSVWriter(bom bool) *CSVWriter {
	return &CSVWriter{bom: bom}
}

// WriteIndustryCSV writes one industry's companies to
// <outDir>/<slug-of-name>.csv, creating the directory as needed. When the
// target file already exists a numeric suffix (_2, _3, ...) is appended
// before the extension until an unused path is found, so repeated runs and
// same-slug industries never clobber each other. Returns the path actually
// written.
func (w *CSVWriter) WriteIndustryCSV(industryName string, companies []tsetmc.Company, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", outDir, err)
	}

	path := uniquePath(filepath.Join(outDir, textutil.Slugify(industryName)+".csv"))

	records := make([][]string, 0, len(companies))
	for _, c := range companies {
		records = append(records, []string{c.ID, c.Symbol, c.Name})
	}

	if err := w.writeFile(path, industryHeader, records); err != nil {
		return "", err
	}
	return path, nil
}

// WriteCombinedCSV overwrites path with every collected company row joined
// with its industry name. Unlike per-industry files the path is fixed and
// never disambiguated.
func (w *CSVWriter) WriteCombinedCSV(rows []tsetmc.CompanyRow, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Industry, r.ID, r.Symbol, r.Name})
	}

	return w.writeFile(path, combinedHeader, records)
}

// writeFile writes header and records in a single open/flush/close span so
// a file is never observable in a half-written state longer than one call.
func (w *CSVWriter) writeFile(path string, header []string, records [][]string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if w.bom {
		if _, err := file.Write(utf8BOM); err != nil {
			file.Close()
			return fmt.Errorf("write BOM to %s: %w", path, err)
		}
	}

	cw := csv.NewWriter(file)
	if err := cw.Write(header); err != nil {
		file.Close()
		return fmt.Errorf("write header to %s: %w", path, err)
	}
	for i, record := range records {
		if err := cw.Write(record); err != nil {
			file.Close()
			return fmt.Errorf("write record %d to %s: %w", i, path, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		file.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// uniquePath returns path unchanged when nothing exists there, otherwise
// the first <base>_<n><ext> (n starting at 2) that is unused.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
