// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ingest reads uploaded spreadsheets into staging input and
// writes staged data back out as workbooks and audit logs.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/AleutianAI/tabular/services/dataset"
)

// payGroupMarkers are the column-name fragments that identify the pay
// group column, matched case-insensitively.
var payGroupMarkers = []string{"pay group", "grupo de pago"}

// Parsed is the outcome of reading an uploaded file: a header row, the
// data rows keyed by header, and the detected pay group column (empty
// when the file has none).
type Parsed struct {
	Columns        []string
	Rows           []map[string]string
	PayGroupColumn string
}

// Parse reads an uploaded spreadsheet. The format is chosen by file
// extension: .xlsx and .xlsm via excelize, .csv via encoding/csv. The
// first row is the header; rows shorter than the header are padded with
// empty cells. Files with no header or no data rows fail with dataset.ErrParse.
func Parse(filename string, r io.Reader) (*Parsed, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(r)
	case ".csv":
		rows, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", dataset.ErrParse, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	return buildParsed(rows)
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", dataset.ErrParse, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", dataset.ErrParse)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %s: %v", dataset.ErrParse, sheet, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %v", dataset.ErrParse, err)
	}
	return rows, nil
}

func buildParsed(rows [][]string) (*Parsed, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file is empty", dataset.ErrParse)
	}

	header := rows[0]
	columns := make([]string, 0, len(header))
	for _, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if h != "" {
			columns = append(columns, h)
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: file has no header row", dataset.ErrParse)
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		record := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				record[col] = strings.TrimSpace(row[i])
			} else {
				record[col] = ""
			}
		}
		out = append(out, record)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: file has no data rows", dataset.ErrParse)
	}

	return &Parsed{
		Columns:        columns,
		Rows:           out,
		PayGroupColumn: detectPayGroupColumn(columns),
	}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func detectPayGroupColumn(columns []string) string {
	for _, col := range columns {
		lower := strings.ToLower(col)
		for _, marker := range payGroupMarkers {
			if strings.Contains(lower, marker) {
				return col
			}
		}
	}
	return ""
}
