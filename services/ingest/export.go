// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ingest

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/AleutianAI/tabular/services/dataset"
)

// AuditEntry records one applied mutation for the downloadable audit
// trail. The trail is append-only and survives undo: an undone change
// still happened.
type AuditEntry struct {
	Timestamp time.Time
	Action    string
	RowID     string
	Column    string
	OldValue  string
	NewValue  string
}

// ExportFiltered builds a workbook from the given view, writing only
// the requested visible columns in order. Unknown visible columns are
// ignored; an empty visible list exports every column.
func ExportFiltered(records []dataset.Record, columns []string, visible []string) (*excelize.File, error) {
	cols := visibleColumns(columns, visible)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, col := range cols {
		if err := setCell(f, sheet, i, 0, col); err != nil {
			return nil, err
		}
	}
	for r, rec := range records {
		for i, col := range cols {
			if err := setCell(f, sheet, i, r+1, rec.Values[col]); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

// ExportGrouped builds a workbook with one row per group: the group key
// under the grouping column's name and its row count.
func ExportGrouped(groups []dataset.GroupRow, column string) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	if err := setCell(f, sheet, 0, 0, column); err != nil {
		return nil, err
	}
	if err := setCell(f, sheet, 1, 0, "count"); err != nil {
		return nil, err
	}
	for r, g := range groups {
		if err := setCell(f, sheet, 0, r+1, g.Key); err != nil {
			return nil, err
		}
		if err := setCell(f, sheet, 1, r+1, g.Count); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// WriteAuditLog renders the audit trail as tab-separated text with a
// fixed header row.
func WriteAuditLog(w io.Writer, entries []AuditEntry) error {
	if _, err := fmt.Fprint(w, "TIMESTAMP\tACCION\tFILA\tCOLUMNA\tVAL_ANT\tVAL_NUEVO\n"); err != nil {
		return fmt.Errorf("write audit header: %w", err)
	}
	for _, e := range entries {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.Action, e.RowID, e.Column, e.OldValue, e.NewValue)
		if err != nil {
			return fmt.Errorf("write audit entry: %w", err)
		}
	}
	return nil
}

func visibleColumns(columns []string, visible []string) []string {
	if len(visible) == 0 {
		return columns
	}
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	out := make([]string, 0, len(visible))
	for _, c := range visible {
		if known[c] {
			out = append(out, c)
		}
	}
	return out
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}
