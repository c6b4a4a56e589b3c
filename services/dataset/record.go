// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dataset implements the in-memory staging core: an ordered,
// mutable copy of one uploaded table with stable row identities, a
// bounded undo history, and derived per-row priority state. All writes
// go through the Engine so that history and derived state stay
// consistent after every mutation.
package dataset

import "strings"

// Priority labels assigned by the base logic and by user rules.
const (
	PriorityHigh   = "Alta"
	PriorityMedium = "Media"
	PriorityLow    = "Baja"
)

// Row completeness labels. A row is incomplete when any schema column
// holds an empty or zero value.
const (
	StatusComplete   = "Completo"
	StatusIncomplete = "Incompleto"
)

// Record is one row of the staging layer. Values holds the user-visible
// cells keyed by column name; the remaining fields are system-owned.
// ID is assigned at creation, unique within a staging layer and never
// reused, even after the row is deleted.
type Record struct {
	ID             int               `json:"_row_id"`
	Values         map[string]string `json:"values"`
	Priority       string            `json:"_priority"`
	PriorityReason string            `json:"_priority_reason"`
	Status         string            `json:"_row_status"`
}

// Clone returns a deep copy of the record. Undo snapshots rely on this
// so later edits cannot alias the stored state.
func (r Record) Clone() Record {
	values := make(map[string]string, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	r.Values = values
	return r
}

// completeness classifies the row against the given schema columns.
func (r Record) completeness(columns []string) string {
	for _, col := range columns {
		v := strings.TrimSpace(r.Values[col])
		if v == "" || v == "0" {
			return StatusIncomplete
		}
	}
	return StatusComplete
}

// Flat returns the record as a single map, the shape the table client
// consumes: user columns plus the system fields.
func (r Record) Flat() map[string]any {
	out := make(map[string]any, len(r.Values)+4)
	for k, v := range r.Values {
		out[k] = v
	}
	out["_row_id"] = r.ID
	out["_priority"] = r.Priority
	out["_priority_reason"] = r.PriorityReason
	out["_row_status"] = r.Status
	return out
}
