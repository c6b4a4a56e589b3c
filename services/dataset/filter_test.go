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
	"github.com/stretchr/testify/require"
)

func invoiceRecords() ([]Record, []string) {
	columns := []string{"Vendor Name", "Total Amount"}
	rows := []map[string]string{
		{"Vendor Name": "Amazon", "Total Amount": "100"},
		{"Vendor Name": "Microsoft", "Total Amount": "200"},
		{"Vendor Name": "AMAZON EU", "Total Amount": "300"},
		{"Vendor Name": "Apple", "Total Amount": "400"},
		{"Vendor Name": "amazon web services", "Total Amount": "500"},
		{"Vendor Name": "Google", "Total Amount": "600"},
		{"Vendor Name": "Adobe", "Total Amount": "700"},
		{"Vendor Name": "Oracle", "Total Amount": "800"},
		{"Vendor Name": "Stripe", "Total Amount": "900"},
		{"Vendor Name": "Slack", "Total Amount": "1000"},
	}
	return NewStaging(columns, rows, "").Records, columns
}

func TestApplyFilters(t *testing.T) {
	records, columns := invoiceRecords()

	t.Run("case-insensitive substring match with exact summary", func(t *testing.T) {
		view := ApplyFilters(records, []Filter{{Column: "Vendor Name", Value: "Amazon"}})
		require.Len(t, view, 3)

		sum := Summarize(view, columns)
		assert.Equal(t, 3, sum.Count)
		assert.InDelta(t, 900, sum.Total, 0.001)
	})

	t.Run("filters AND-combine", func(t *testing.T) {
		view := ApplyFilters(records, []Filter{
			{Column: "Vendor Name", Value: "amazon"},
			{Column: "Total Amount", Value: "5"},
		})
		require.Len(t, view, 1)
		assert.Equal(t, "amazon web services", view[0].Values["Vendor Name"])
	})

	t.Run("insertion order is preserved", func(t *testing.T) {
		view := ApplyFilters(records, []Filter{{Column: "Vendor Name", Value: "a"}})
		for i := 1; i < len(view); i++ {
			assert.Greater(t, view[i].ID, view[i-1].ID)
		}
	})

	t.Run("no filters returns everything", func(t *testing.T) {
		assert.Len(t, ApplyFilters(records, nil), len(records))
	})

	t.Run("unknown column matches nothing", func(t *testing.T) {
		assert.Empty(t, ApplyFilters(records, []Filter{{Column: "Ghost", Value: "x"}}))
	})
}

func TestGroupBy(t *testing.T) {
	columns := []string{"Vendor Name", "Total Amount"}
	rows := []map[string]string{
		{"Vendor Name": "Amazon", "Total Amount": "$100.00"},
		{"Vendor Name": "Apple", "Total Amount": "50"},
		{"Vendor Name": "Amazon", "Total Amount": "300"},
		{"Vendor Name": "Apple", "Total Amount": "junk"},
	}
	records := NewStaging(columns, rows, "").Records

	t.Run("aggregates per group in first-seen order", func(t *testing.T) {
		groups := GroupBy(records, columns, "Vendor Name")
		require.Len(t, groups, 2)

		amazon := groups[0]
		assert.Equal(t, "Amazon", amazon.Key)
		assert.Equal(t, 2, amazon.Count)
		assert.InDelta(t, 400, amazon.Sum, 0.001)
		assert.InDelta(t, 200, amazon.Mean, 0.001)
		assert.InDelta(t, 100, amazon.Min, 0.001)
		assert.InDelta(t, 300, amazon.Max, 0.001)

		apple := groups[1]
		assert.Equal(t, 2, apple.Count)
		assert.InDelta(t, 50, apple.Sum, 0.001, "non-numeric cell contributes 0")
		assert.InDelta(t, 0, apple.Min, 0.001)
	})

	t.Run("without amount column only counts populate", func(t *testing.T) {
		cols := []string{"Vendor Name"}
		groups := GroupBy(records, cols, "Vendor Name")
		require.Len(t, groups, 2)
		assert.Equal(t, 2, groups[0].Count)
		assert.Zero(t, groups[0].Sum)
	})
}
