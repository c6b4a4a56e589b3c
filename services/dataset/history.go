// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

// HistoryCapacity bounds the undo stack. Pushing beyond it silently
// evicts the oldest entry; that mutation becomes non-undoable.
const HistoryCapacity = 15

// EntryKind tags the undo entry variants.
type EntryKind string

const (
	KindCellEdit     EntryKind = "cell_edit"
	KindRowAdd       EntryKind = "row_add"
	KindRowDelete    EntryKind = "row_delete"
	KindBulkEdit     EntryKind = "bulk_edit"
	KindBulkDelete   EntryKind = "bulk_delete"
	KindColumnDelete EntryKind = "column_delete"
)

// CellChange is the minimal reversible snapshot of one cell: which row
// it was and what the cell held before the edit.
type CellChange struct {
	RowID int
	Old   string
}

// DeletedRow snapshots a removed record together with its positional
// index so undo re-inserts it exactly where it was, not at the end.
type DeletedRow struct {
	Index  int
	Record Record
}

// Entry is one reversible mutation descriptor. Kind decides which
// fields are populated; entries are opaque to everything except the
// Engine's apply/reverse logic.
type Entry struct {
	Kind   EntryKind
	RowID  int
	Column string
	Old    string

	// Changes holds per-row old values for bulk edits and find/replace.
	Changes []CellChange

	// Deleted holds row snapshots for single and bulk deletes.
	Deleted []DeletedRow

	// ColumnIndex and ColumnValues restore a dropped column: its
	// position in the schema and the per-row values it held.
	ColumnIndex  int
	ColumnValues []CellChange
}

// History is the bounded LIFO undo stack. One entry per committed edit;
// popped only by undo, cleared entirely by commit.
type History struct {
	entries []Entry
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{entries: make([]Entry, 0, HistoryCapacity)}
}

// Push appends an entry, evicting the oldest when the stack is full.
// Eviction is silent: no error, no event.
func (h *History) Push(e Entry) {
	if len(h.entries) >= HistoryCapacity {
		h.entries = h.entries[1:]
	}
	h.entries = append(h.entries, e)
}

// Pop removes and returns the most recent entry.
func (h *History) Pop() (Entry, bool) {
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	last := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return last, true
}

// Len returns the number of undoable entries.
func (h *History) Len() int { return len(h.entries) }

// Clear discards all entries. Called by commit, which makes the current
// staging layer the new baseline.
func (h *History) Clear() { h.entries = h.entries[:0] }
