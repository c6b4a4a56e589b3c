// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// BulkAffected is the sentinel row reference reported when an undo
// touches more than one row; callers use it to skip view focusing.
const BulkAffected = "bulk"

// Engine is the single choke-point for all writes to a staging layer.
// Every operation validates its input, captures a reversible snapshot
// of the pre-mutation state, applies the mutation, pushes the snapshot
// onto the history and recomputes derived state. An operation either
// fully applies or fully fails before any write.
//
// Engine is not goroutine-safe; the owning session holds its mutex
// around every call.
type Engine struct {
	staging *Staging
	history *History
	rules   RuleProvider
}

// NewEngine wires a staging layer, its history and the rule source.
func NewEngine(staging *Staging, history *History, rules RuleProvider) *Engine {
	return &Engine{staging: staging, history: history, rules: rules}
}

// Staging exposes the underlying staging layer for read paths.
func (e *Engine) Staging() *Staging { return e.staging }

// History exposes the undo history for read paths.
func (e *Engine) History() *History { return e.history }

// MutationResult reports the outcome of one committed operation.
type MutationResult struct {
	NoChange     bool
	HistoryLen   int
	Summary      Summary
	NewRowID     int
	NewPriority  string
	NewRowStatus string
	Affected     int
	AffectedRow  string
	Columns      []string
}

func (e *Engine) result(extra func(*MutationResult)) *MutationResult {
	res := &MutationResult{
		HistoryLen: e.history.Len(),
		Summary:    Summarize(e.staging.Records, e.staging.Columns),
		Columns:    slices.Clone(e.staging.Columns),
	}
	if extra != nil {
		extra(res)
	}
	return res
}

func (e *Engine) recompute() {
	Recompute(e.staging, e.rules)
}

// EditCell updates one cell. Equal old and new values are a no-op that
// pushes no history. A date-typed column that previously had a value
// accepts only a parseable date or the literal empty string; anything
// else (whitespace, junk text) is rejected and the cell keeps its date.
func (e *Engine) EditCell(rowID int, column, value string) (*MutationResult, error) {
	rec, ok := e.staging.Find(rowID)
	if !ok {
		return nil, fmt.Errorf("%w: row %d", ErrNotFound, rowID)
	}
	if !e.staging.HasColumn(column) {
		return nil, fmt.Errorf("%w: column %q", ErrNotFound, column)
	}
	old := rec.Values[column]
	if old == value {
		return e.result(func(r *MutationResult) { r.NoChange = true }), nil
	}
	if e.staging.IsDateColumn(column) && old != "" && value != "" && !parsesAsDate(value) {
		return nil, fmt.Errorf("%w: date column %q accepts only a date or an empty value", ErrInvalidArgument, column)
	}

	e.history.Push(Entry{Kind: KindCellEdit, RowID: rowID, Column: column, Old: old})
	rec.Values[column] = value
	e.recompute()

	rec, _ = e.staging.Find(rowID)
	return e.result(func(r *MutationResult) {
		r.NewPriority = rec.Priority
		r.NewRowStatus = rec.Status
	}), nil
}

// AddRow appends an empty record with a freshly allocated row ID and
// returns that ID.
func (e *Engine) AddRow() (*MutationResult, error) {
	id := e.staging.allocateID()
	values := make(map[string]string, len(e.staging.Columns))
	for _, col := range e.staging.Columns {
		values[col] = ""
	}
	e.staging.Records = append(e.staging.Records, Record{ID: id, Values: values})
	e.history.Push(Entry{Kind: KindRowAdd, RowID: id})
	e.recompute()
	return e.result(func(r *MutationResult) { r.NewRowID = id }), nil
}

// DeleteRow removes one record, remembering its positional index so
// undo restores it exactly where it was.
func (e *Engine) DeleteRow(rowID int) (*MutationResult, error) {
	idx := e.staging.indexOf(rowID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: row %d", ErrNotFound, rowID)
	}
	snapshot := e.staging.Records[idx].Clone()
	e.staging.Records = slices.Delete(e.staging.Records, idx, idx+1)
	e.history.Push(Entry{
		Kind:    KindRowDelete,
		RowID:   rowID,
		Deleted: []DeletedRow{{Index: idx, Record: snapshot}},
	})
	e.recompute()
	return e.result(nil), nil
}

// BulkEdit writes the same value into one column across many rows as a
// single atomic undo entry. Row IDs that are absent are skipped, they
// do not fail the batch. Rows already holding the value are skipped
// too; when nothing changes, no history is pushed.
func (e *Engine) BulkEdit(rowIDs []int, column, value string) (*MutationResult, error) {
	if !e.staging.HasColumn(column) {
		return nil, fmt.Errorf("%w: column %q", ErrNotFound, column)
	}
	targets := make(map[int]bool, len(rowIDs))
	for _, id := range rowIDs {
		targets[id] = true
	}

	var changes []CellChange
	for i := range e.staging.Records {
		rec := &e.staging.Records[i]
		if !targets[rec.ID] || rec.Values[column] == value {
			continue
		}
		changes = append(changes, CellChange{RowID: rec.ID, Old: rec.Values[column]})
		rec.Values[column] = value
	}
	if len(changes) == 0 {
		return e.result(func(r *MutationResult) { r.NoChange = true }), nil
	}
	e.history.Push(Entry{Kind: KindBulkEdit, Column: column, Changes: changes})
	e.recompute()
	return e.result(func(r *MutationResult) { r.Affected = len(changes) }), nil
}

// FindReplace substitutes findText with replaceText inside the given
// column of the selected rows. Empty find text is rejected; rows whose
// cell does not contain the text are skipped. The whole batch is one
// undo entry.
func (e *Engine) FindReplace(rowIDs []int, column, findText, replaceText string) (*MutationResult, error) {
	if findText == "" {
		return nil, fmt.Errorf("%w: empty find text", ErrInvalidArgument)
	}
	if !e.staging.HasColumn(column) {
		return nil, fmt.Errorf("%w: column %q", ErrNotFound, column)
	}
	targets := make(map[int]bool, len(rowIDs))
	for _, id := range rowIDs {
		targets[id] = true
	}

	var changes []CellChange
	for i := range e.staging.Records {
		rec := &e.staging.Records[i]
		if !targets[rec.ID] {
			continue
		}
		old := rec.Values[column]
		if !strings.Contains(old, findText) {
			continue
		}
		changes = append(changes, CellChange{RowID: rec.ID, Old: old})
		rec.Values[column] = strings.ReplaceAll(old, findText, replaceText)
	}
	if len(changes) == 0 {
		return e.result(func(r *MutationResult) { r.NoChange = true }), nil
	}
	e.history.Push(Entry{Kind: KindBulkEdit, Column: column, Changes: changes})
	e.recompute()
	return e.result(func(r *MutationResult) { r.Affected = len(changes) }), nil
}

// BulkDelete removes many rows as one atomic undo entry, preserving
// each deleted row's original index individually so undo restores the
// exact ordering. Absent row IDs are skipped.
func (e *Engine) BulkDelete(rowIDs []int) (*MutationResult, error) {
	targets := make(map[int]bool, len(rowIDs))
	for _, id := range rowIDs {
		targets[id] = true
	}

	var deleted []DeletedRow
	kept := e.staging.Records[:0:0]
	for idx, rec := range e.staging.Records {
		if targets[rec.ID] {
			deleted = append(deleted, DeletedRow{Index: idx, Record: rec.Clone()})
		} else {
			kept = append(kept, rec)
		}
	}
	if len(deleted) == 0 {
		return e.result(func(r *MutationResult) { r.NoChange = true }), nil
	}
	e.staging.Records = kept
	e.history.Push(Entry{Kind: KindBulkDelete, Deleted: deleted})
	e.recompute()
	return e.result(func(r *MutationResult) { r.Affected = len(deleted) }), nil
}

// DeleteColumn drops a column from the schema and every record. The
// undo entry carries the column's schema position and per-row values.
func (e *Engine) DeleteColumn(column string) (*MutationResult, error) {
	pos := slices.Index(e.staging.Columns, column)
	if pos < 0 {
		return nil, fmt.Errorf("%w: column %q", ErrNotFound, column)
	}
	values := make([]CellChange, 0, len(e.staging.Records))
	for i := range e.staging.Records {
		rec := &e.staging.Records[i]
		values = append(values, CellChange{RowID: rec.ID, Old: rec.Values[column]})
		delete(rec.Values, column)
	}
	e.staging.Columns = slices.Delete(e.staging.Columns, pos, pos+1)
	e.history.Push(Entry{
		Kind:         KindColumnDelete,
		Column:       column,
		ColumnIndex:  pos,
		ColumnValues: values,
	})
	e.recompute()
	return e.result(nil), nil
}

// CleanupDuplicates deletes every non-first occurrence of a duplicate
// invoice key as one atomic undo entry. Returns a no-change result when
// the staging layer has no duplicates or no invoice column.
func (e *Engine) CleanupDuplicates() (*MutationResult, error) {
	extra := duplicateRowIDs(e.staging)
	if len(extra) == 0 {
		return e.result(func(r *MutationResult) { r.NoChange = true }), nil
	}
	return e.BulkDelete(extra)
}

// UndoResult reports what an undo touched.
type UndoResult struct {
	Empty       bool
	HistoryLen  int
	Summary     Summary
	AffectedRow string
	Columns     []string
}

// Undo pops the most recent entry and applies its inverse, restoring
// values and ordering exactly. Empty history is a benign no-op reported
// through Empty, never an error.
func (e *Engine) Undo() (*UndoResult, error) {
	entry, ok := e.history.Pop()
	if !ok {
		return &UndoResult{
			Empty:   true,
			Summary: Summarize(e.staging.Records, e.staging.Columns),
			Columns: slices.Clone(e.staging.Columns),
		}, nil
	}

	affected := BulkAffected
	switch entry.Kind {
	case KindCellEdit:
		if rec, found := e.staging.Find(entry.RowID); found {
			rec.Values[entry.Column] = entry.Old
		}
		affected = strconv.Itoa(entry.RowID)

	case KindRowAdd:
		if idx := e.staging.indexOf(entry.RowID); idx >= 0 {
			e.staging.Records = slices.Delete(e.staging.Records, idx, idx+1)
		}
		affected = ""

	case KindRowDelete:
		e.restoreDeleted(entry.Deleted)
		affected = strconv.Itoa(entry.RowID)

	case KindBulkEdit:
		for _, ch := range entry.Changes {
			if rec, found := e.staging.Find(ch.RowID); found {
				rec.Values[entry.Column] = ch.Old
			}
		}

	case KindBulkDelete:
		e.restoreDeleted(entry.Deleted)

	case KindColumnDelete:
		pos := min(entry.ColumnIndex, len(e.staging.Columns))
		e.staging.Columns = slices.Insert(e.staging.Columns, pos, entry.Column)
		restore := make(map[int]string, len(entry.ColumnValues))
		for _, ch := range entry.ColumnValues {
			restore[ch.RowID] = ch.Old
		}
		for i := range e.staging.Records {
			rec := &e.staging.Records[i]
			if v, found := restore[rec.ID]; found {
				rec.Values[entry.Column] = v
			} else {
				rec.Values[entry.Column] = ""
			}
		}
	}

	e.recompute()
	return &UndoResult{
		HistoryLen:  e.history.Len(),
		Summary:     Summarize(e.staging.Records, e.staging.Columns),
		AffectedRow: affected,
		Columns:     slices.Clone(e.staging.Columns),
	}, nil
}

// restoreDeleted re-inserts snapshots at their original positional
// indexes. Ascending order keeps every index meaningful as the slice
// grows back.
func (e *Engine) restoreDeleted(rows []DeletedRow) {
	ordered := slices.Clone(rows)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })
	for _, dr := range ordered {
		pos := min(dr.Index, len(e.staging.Records))
		e.staging.Records = slices.Insert(e.staging.Records, pos, dr.Record.Clone())
	}
}

// Commit clears the history, making the current staging layer the new
// baseline. Committing with empty history is a no-op.
func (e *Engine) Commit() *MutationResult {
	if e.history.Len() == 0 {
		return e.result(func(r *MutationResult) { r.NoChange = true })
	}
	e.history.Clear()
	return e.result(nil)
}
