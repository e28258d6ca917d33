package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"tsecli/internal/tsetmc"
)

// combinedSheet is the single sheet name in the combined workbook.
const combinedSheet = "Companies"

// WriteCombinedXLSX writes the combined rows to an Excel workbook at path,
// one sheet with the same columns as the combined CSV. Overwrites any
// existing file.
func WriteCombinedXLSX(rows []tsetmc.CompanyRow, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", combinedSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"industry", "id", "symbol", "name"}
	if err := f.SetSheetRow(combinedSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i, err)
		}
		row := []any{r.Industry, r.ID, r.Symbol, r.Name}
		if err := f.SetSheetRow(combinedSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}
