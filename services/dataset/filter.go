// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import "strings"

// Filter is one (column, value) predicate. An ordered filter list
// AND-combines; matching is case-insensitive substring containment on
// the cell's formatted value.
type Filter struct {
	Column string `json:"columna"`
	Value  string `json:"valor"`
}

// ApplyFilters returns the subsequence of records matching every
// filter, preserving insertion order. Filters on unknown columns match
// nothing, which mirrors how an empty column renders in the table.
func ApplyFilters(records []Record, filters []Filter) []Record {
	if len(filters) == 0 {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if matchesAll(rec, filters) {
			out = append(out, rec)
		}
	}
	return out
}

func matchesAll(rec Record, filters []Filter) bool {
	for _, f := range filters {
		cell, ok := rec.Values[f.Column]
		if !ok {
			return false
		}
		if !strings.Contains(strings.ToLower(cell), strings.ToLower(f.Value)) {
			return false
		}
	}
	return true
}

// GroupRow is one aggregate row produced by GroupBy.
type GroupRow struct {
	Key   string  `json:"key"`
	Sum   float64 `json:"Total_sum"`
	Mean  float64 `json:"Total_mean"`
	Min   float64 `json:"Total_min"`
	Max   float64 `json:"Total_max"`
	Count int     `json:"Total_count"`
}

// GroupBy groups records by the exact value of column and aggregates
// the detected amount column per group. Groups come back in first-seen
// order of their key; monetary aggregates are rounded to 2 decimals.
// Without an amount column only counts are populated.
func GroupBy(records []Record, columns []string, column string) []GroupRow {
	amountCol := AmountColumn(columns)

	index := make(map[string]int)
	var groups []GroupRow
	for _, rec := range records {
		key := rec.Values[column]
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, GroupRow{Key: key})
		}
		g := &groups[i]
		g.Count++
		if amountCol == "" {
			continue
		}
		v, _ := ParseAmount(rec.Values[amountCol])
		g.Sum += v
		if g.Count == 1 || v < g.Min {
			g.Min = v
		}
		if g.Count == 1 || v > g.Max {
			g.Max = v
		}
	}
	for i := range groups {
		g := &groups[i]
		if amountCol != "" && g.Count > 0 {
			g.Mean = g.Sum / float64(g.Count)
		}
		g.Sum = round2(g.Sum)
		g.Mean = round2(g.Mean)
		g.Min = round2(g.Min)
		g.Max = round2(g.Max)
	}
	return groups
}
