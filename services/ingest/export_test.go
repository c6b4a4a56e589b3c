// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ingest

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/AleutianAI/tabular/services/dataset"
)

func sheetRows(t *testing.T, f *excelize.File) [][]string {
	t.Helper()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	return rows
}

func TestExportFiltered(t *testing.T) {
	columns := []string{"Vendor Name", "Total Amount", "Status"}
	records := []dataset.Record{
		{Values: map[string]string{"Vendor Name": "Amazon", "Total Amount": "100", "Status": "open"}},
		{Values: map[string]string{"Vendor Name": "Apple", "Total Amount": "200", "Status": "paid"}},
	}

	t.Run("visible columns subset in requested order", func(t *testing.T) {
		f, err := ExportFiltered(records, columns, []string{"Total Amount", "Vendor Name", "Ghost"})
		require.NoError(t, err)
		rows := sheetRows(t, f)
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"Total Amount", "Vendor Name"}, rows[0])
		assert.Equal(t, []string{"100", "Amazon"}, rows[1])
	})

	t.Run("empty visible list exports everything", func(t *testing.T) {
		f, err := ExportFiltered(records, columns, nil)
		require.NoError(t, err)
		rows := sheetRows(t, f)
		assert.Equal(t, columns, rows[0])
	})
}

func TestExportGrouped(t *testing.T) {
	groups := []dataset.GroupRow{
		{Key: "Amazon", Count: 2},
		{Key: "Apple", Count: 1},
	}
	f, err := ExportGrouped(groups, "Vendor Name")
	require.NoError(t, err)

	rows := sheetRows(t, f)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Vendor Name", "count"}, rows[0])
	assert.Equal(t, []string{"Amazon", "2"}, rows[1])
}

func TestWriteAuditLog(t *testing.T) {
	ts := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	entries := []AuditEntry{
		{Timestamp: ts, Action: "Celda Actualizada", RowID: "4", Column: "Status", OldValue: "open", NewValue: "paid"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAuditLog(&buf, entries))

	want := "TIMESTAMP\tACCION\tFILA\tCOLUMNA\tVAL_ANT\tVAL_NUEVO\n" +
		"2025-03-01 09:30:00\tCelda Actualizada\t4\tStatus\topen\tpaid\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteAuditLogEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAuditLog(&buf, nil))
	assert.Equal(t, "TIMESTAMP\tACCION\tFILA\tCOLUMNA\tVAL_ANT\tVAL_NUEVO\n", buf.String())
}
