package storage

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/storescout/storescout/internal/types"
)

// preferredColumns fixes the ordering of well-known export columns; any
// other keys follow alphabetically.
var preferredColumns = []string{
	"category_name",
	"category_url",
	"category_description",
	"item_name",
	"item_url",
	"description",
	"price",
	"rating",
	"reviews_count",
	"developer_name",
	"developer_website",
	"rating_source",
	"rating_scraped_at",
	"title",
	"body",
	"date",
	"reviewer",
	"rating_label",
	"source",
	"enrichment_error",
}

// UnionColumns returns the union of keys across rows: preferred columns
// first in their fixed order, then any remaining keys sorted.
func UnionColumns(rows []Row) []string {
	present := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			present[k] = true
		}
	}

	var cols []string
	for _, c := range preferredColumns {
		if present[c] {
			cols = append(cols, c)
			delete(present, c)
		}
	}

	var rest []string
	for k := range present {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

// WriteTable writes rows as a CSV and a spreadsheet side by side, sharing
// one union-of-keys schema. Either path may be empty to skip that format.
func WriteTable(rows []Row, csvPath, xlsxPath string, logger *slog.Logger) error {
	if csvPath != "" {
		if err := writeCSV(csvPath, rows); err != nil {
			return &types.StorageError{Backend: "csv", Err: err}
		}
		logger.Info("table written", "format", "csv", "path", csvPath, "rows", len(rows))
	}
	if xlsxPath != "" {
		if err := writeXLSX(xlsxPath, rows); err != nil {
			return &types.StorageError{Backend: "xlsx", Err: err}
		}
		logger.Info("table written", "format", "xlsx", "path", xlsxPath, "rows", len(rows))
	}
	return nil
}

// writeXLSX writes rows to a single-sheet workbook.
func writeXLSX(path string, rows []Row) error {
	headers := UnionColumns(rows)

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	cells := make([]any, len(headers))
	for i, row := range rows {
		for j, h := range headers {
			cells[j] = row[h]
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
