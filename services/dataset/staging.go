// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import (
	"slices"
	"time"
)

// dateLayouts are the formats a cell must match for a column to be
// treated as date-typed.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"2-Jan-2006",
}

// Staging is the mutable working copy of one uploaded table. The
// originally parsed upload is discarded once staging is initialized;
// every edit applies here. Records keep insertion order, not row-ID
// order. Staging itself is not goroutine-safe: the owning session
// serializes access.
type Staging struct {
	Columns []string
	Records []Record

	// PayGroupColumn is the detected pay-group column, empty when the
	// upload has none. Drives the base priority logic.
	PayGroupColumn string

	dateColumns map[string]bool
	nextID      int
}

// NewStaging builds a staging layer from parsed upload rows. Row IDs
// are assigned from insertion order starting at 0, matching the visual
// row numbers the chat agent translates from.
func NewStaging(columns []string, rows []map[string]string, payGroupColumn string) *Staging {
	s := &Staging{
		Columns:        slices.Clone(columns),
		Records:        make([]Record, 0, len(rows)),
		PayGroupColumn: payGroupColumn,
	}
	for i, row := range rows {
		values := make(map[string]string, len(columns))
		for _, col := range columns {
			values[col] = row[col]
		}
		s.Records = append(s.Records, Record{ID: i, Values: values})
	}
	s.nextID = len(rows)
	s.detectDateColumns()
	s.refreshStatuses()
	return s
}

// detectDateColumns marks columns whose first non-empty value parses as
// a date. Clearing such a column later requires an explicit empty
// string.
func (s *Staging) detectDateColumns() {
	s.dateColumns = make(map[string]bool)
	for _, col := range s.Columns {
		for _, rec := range s.Records {
			v := rec.Values[col]
			if v == "" {
				continue
			}
			s.dateColumns[col] = parsesAsDate(v)
			break
		}
	}
}

func parsesAsDate(v string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

// IsDateColumn reports whether the column was detected as date-typed.
func (s *Staging) IsDateColumn(column string) bool {
	return s.dateColumns[column]
}

// HasColumn reports whether the column is part of the current schema.
func (s *Staging) HasColumn(column string) bool {
	return slices.Contains(s.Columns, column)
}

// indexOf returns the positional index of the row with the given ID,
// or -1 when absent.
func (s *Staging) indexOf(rowID int) int {
	for i := range s.Records {
		if s.Records[i].ID == rowID {
			return i
		}
	}
	return -1
}

// Find returns the record with the given row ID.
func (s *Staging) Find(rowID int) (*Record, bool) {
	if i := s.indexOf(rowID); i >= 0 {
		return &s.Records[i], true
	}
	return nil, false
}

// allocateID hands out the next row ID: max existing + 1, monotonic,
// never reused within this staging layer.
func (s *Staging) allocateID() int {
	id := s.nextID
	for _, rec := range s.Records {
		if rec.ID >= id {
			id = rec.ID + 1
		}
	}
	s.nextID = id + 1
	return id
}

// refreshStatuses recomputes the completeness label of every row.
func (s *Staging) refreshStatuses() {
	for i := range s.Records {
		s.Records[i].Status = s.Records[i].completeness(s.Columns)
	}
}

// Len returns the number of staged rows.
func (s *Staging) Len() int { return len(s.Records) }

// Snapshot returns a deep copy of the staged records, used by tests and
// by the export path so encoding never races with later edits.
func (s *Staging) Snapshot() []Record {
	out := make([]Record, len(s.Records))
	for i, rec := range s.Records {
		out[i] = rec.Clone()
	}
	return out
}

// CloneView returns a detached deep copy of the staging layer for
// read paths that must not run under the session lock, such as the
// chat bridge's remote call. Edits to either side never reach the
// other.
func (s *Staging) CloneView() *Staging {
	dates := make(map[string]bool, len(s.dateColumns))
	for col, isDate := range s.dateColumns {
		dates[col] = isDate
	}
	return &Staging{
		Columns:        slices.Clone(s.Columns),
		Records:        s.Snapshot(),
		PayGroupColumn: s.PayGroupColumn,
		dateColumns:    dates,
		nextID:         s.nextID,
	}
}
