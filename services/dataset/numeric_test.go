// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$1,234.56", 1234.56, true},
		{"1000", 1000, true},
		{" $ 99.99 ", 99.99, true},
		{"-42.5", -42.5, true},
		{"", 0, false},
		{"pending", 0, false},
		{"12abc", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseAmount(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.InDelta(t, tc.want, got, 0.0001)
		})
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$0.00", FormatMoney(0))
	assert.Equal(t, "$1,234.56", FormatMoney(1234.56))
	assert.Equal(t, "$1,000,000.00", FormatMoney(1e6))
	assert.Equal(t, "$999.90", FormatMoney(999.9))
	assert.Equal(t, "-$1,500.00", FormatMoney(-1500))
}

func TestColumnDetection(t *testing.T) {
	t.Run("amount column by lowered name", func(t *testing.T) {
		assert.Equal(t, "Total Amount", AmountColumn([]string{"Vendor", "Total Amount"}))
		assert.Equal(t, "MONTO", AmountColumn([]string{"Fecha", "MONTO"}))
		assert.Equal(t, "", AmountColumn([]string{"Vendor", "Qty"}))
	})

	t.Run("invoice column variants", func(t *testing.T) {
		assert.Equal(t, "Invoice #", InvoiceColumn([]string{"Invoice #", "Total"}))
		assert.Equal(t, "factura", InvoiceColumn([]string{"factura"}))
		assert.Equal(t, "", InvoiceColumn([]string{"Reference"}))
	})

	t.Run("first match wins", func(t *testing.T) {
		assert.Equal(t, "Monto", AmountColumn([]string{"Monto", "Total"}))
	})
}

func TestRecordCompleteness(t *testing.T) {
	columns := []string{"A", "B"}
	cases := []struct {
		name   string
		values map[string]string
		want   string
	}{
		{"all filled", map[string]string{"A": "x", "B": "y"}, StatusComplete},
		{"empty cell", map[string]string{"A": "x", "B": ""}, StatusIncomplete},
		{"zero counts as missing", map[string]string{"A": "0", "B": "y"}, StatusIncomplete},
		{"whitespace only", map[string]string{"A": "  ", "B": "y"}, StatusIncomplete},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := Record{Values: tc.values}
			assert.Equal(t, tc.want, rec.completeness(columns))
		})
	}
}

func TestStagingCloneIsolation(t *testing.T) {
	staging := NewStaging(testColumns(), testRows(), "")
	snap := staging.Snapshot()
	staging.Records[0].Values["Vendor Name"] = "mutated"
	assert.Equal(t, "Amazon", snap[0].Values["Vendor Name"])
}

func TestStagingCloneViewDetached(t *testing.T) {
	staging := NewStaging(testColumns(), testRows(), "Pay Group")
	view := staging.CloneView()

	staging.Records[0].Values["Vendor Name"] = "mutated"
	staging.Columns = append(staging.Columns, "Extra")

	assert.Equal(t, "Amazon", view.Records[0].Values["Vendor Name"])
	assert.Equal(t, testColumns(), view.Columns)
	assert.Equal(t, "Pay Group", view.PayGroupColumn)

	// Edits on the view never reach the staging layer either.
	view.Records[1].Values["Vendor Name"] = "view-only"
	rec, _ := staging.Find(1)
	assert.Equal(t, "Microsoft", rec.Values["Vendor Name"])
}
