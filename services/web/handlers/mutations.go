// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/tabular/services/dataset"
	"github.com/AleutianAI/tabular/services/web/datatypes"
)

// UpdateCell writes one cell and reports the row's recomputed priority
// and completeness.
func (h *Handlers) UpdateCell(c *gin.Context) {
	var req datatypes.UpdateCellRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, ok := h.lockedSession(c, req.FileID)
	if !ok {
		return
	}
	defer sess.Unlock()

	rowID := *req.RowID
	old := ""
	if rec, found := sess.Engine.Staging().Find(rowID); found {
		old = rec.Values[req.Column]
	}

	res, err := sess.Engine.EditCell(rowID, req.Column, req.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	if !res.NoChange {
		h.Metrics.MutationsTotal.WithLabelValues("update_cell").Inc()
		h.audit(sess, "Celda Actualizada", strconv.Itoa(rowID), req.Column, old, req.Value)
	}
	mutationJSON(c, res, gin.H{
		"new_priority":   res.NewPriority,
		"new_row_status": res.NewRowStatus,
	})
}

// AddRow appends a blank row and returns its ID.
func (h *Handlers) AddRow(c *gin.Context) {
	var req datatypes.AddRowRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, ok := h.lockedSession(c, req.FileID)
	if !ok {
		return
	}
	defer sess.Unlock()

	res, err := sess.Engine.AddRow()
	if err != nil {
		writeError(c, err)
		return
	}
	h.Metrics.MutationsTotal.WithLabelValues("add_row").Inc()
	h.audit(sess, "Fila Añadida", strconv.Itoa(res.NewRowID), "", "", "")
	mutationJSON(c, res, gin.H{"new_row_id": res.NewRowID})
}

// DeleteRow removes one row.
func (h *Handlers) DeleteRow(c *gin.Context) {
	var req datatypes.DeleteRowRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, ok := h.lockedSession(c, req.FileID)
	if !ok {
		return
	}
	defer sess.Unlock()

	res, err := sess.Engine.DeleteRow(*req.RowID)
	if err != nil {
		writeError(c, err)
		return
	}
	h.Metrics.MutationsTotal.WithLabelValues("delete_row").Inc()
	h.audit(sess, "Fila Eliminada", strconv.Itoa(*req.RowID), "", "", "")
	mutationJSON(c, res, nil)
}

// BulkUpdate writes one value into a column across the selected rows.
func (h *Handlers) BulkUpdate(c *gin.Context) {
	var req datatypes.BulkUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, ok := h.lockedSession(c, req.FileID)
	if !ok {
		return
	}
	defer sess.Unlock()

	res, err := sess.Engine.BulkEdit(req.RowIDs, req.Column, req.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	if !res.NoChange {
		h.Metrics.MutationsTotal.WithLabelValues("bulk_update").Inc()
		h.audit(sess, "Edición Masiva", dataset.BulkAffected, req.Column, "", req.Value)
	}
	mutationJSON(c, res, gin.H{"affected": res.Affected})
}

// FindReplace substring-replaces inside a column of the selected rows.
func (h *Handlers) FindReplace(c *gin.Context) {
	var req datatypes.FindReplaceRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, ok := h.lockedSession(c, req.FileID)
	if !ok {
		return
	}
	defer sess.Unlock()

	res, err := sess.Engine.FindReplace(req.RowIDs, req.Column, req.FindText, req.ReplaceText)
	if err != nil {
		writeError(c, err)
		return
	}
	if !res.NoChange {
		h.Metrics.MutationsTotal.WithLabelValues("find_replace").Inc()
		h.audit(sess, "Reemplazo Masivo", dataset.BulkAffected, req.Column, req.FindText, req.ReplaceText)
	}
	mutationJSON(c, res, gin.H{"affected": res.Affected})
}

// BulkDelete removes the selected rows as one undoable step.
func (h *Handlers) BulkDelete(c *gin.Context) {
	var req datatypes.BulkDeleteRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, ok := h.lockedSession(c, req.FileID)
	if !ok {
		return
	}
	defer sess.Unlock()

	res, err := sess.Engine.BulkDelete(req.RowIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	if !res.NoChange {
		h.Metrics.MutationsTotal.WithLabelValues("bulk_delete").Inc()
		h.audit(sess, "Borrado Masivo", dataset.BulkAffected, "", "", strconv.Itoa(res.Affected))
	}
	mutationJSON(c, res, gin.H{"affected": res.Affected})
}

// DeleteColumn drops a column from the dataset.
func (h *Handlers) DeleteColumn(c *gin.Context) {
	var req datatypes.DeleteColumnRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, ok := h.lockedSession(c, req.FileID)
	if !ok {
		return
	}
	defer sess.Unlock()

	res, err := sess.Engine.DeleteColumn(req.Column)
	if err != nil {
		writeError(c, err)
		return
	}
	h.Metrics.MutationsTotal.WithLabelValues("delete_column").Inc()
	h.audit(sess, "Columna Eliminada", "", req.Column, "", "")
	mutationJSON(c, res, gin.H{"columnas": res.Columns})
}

// CleanupDuplicates deletes every repeated invoice row, keeping the
// first occurrence.
func (h *Handlers) CleanupDuplicates(c *gin.Context) {
	var req struct {
		datatypes.SessionScoped
	}
	if !bindJSON(c, &req) {
		return
	}
	sess, ok := h.lockedSession(c, req.FileID)
	if !ok {
		return
	}
	defer sess.Unlock()

	res, err := sess.Engine.CleanupDuplicates()
	if err != nil {
		writeError(c, err)
		return
	}
	if !res.NoChange {
		h.Metrics.MutationsTotal.WithLabelValues("cleanup_duplicates").Inc()
		h.audit(sess, "Duplicados Eliminados", dataset.BulkAffected, "", "", strconv.Itoa(res.Affected))
	}
	mutationJSON(c, res, gin.H{"affected": res.Affected})
}
