// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/tabular/services/web/datatypes"
)

// Undo reverts the most recent staged change. Empty history is a
// benign no-op, not an error.
func (h *Handlers) Undo(c *gin.Context) {
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

	res, err := sess.Engine.Undo()
	if err != nil {
		writeError(c, err)
		return
	}
	if res.Empty {
		h.Metrics.UndosTotal.WithLabelValues("empty").Inc()
		c.JSON(http.StatusOK, gin.H{
			"status":        "no_history",
			"history_count": 0,
			"resumen":       res.Summary,
		})
		return
	}
	h.Metrics.UndosTotal.WithLabelValues("applied").Inc()
	h.audit(sess, "Deshacer", res.AffectedRow, "", "", "")
	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"history_count": res.HistoryLen,
		"resumen":       res.Summary,
		"affected_row":  res.AffectedRow,
		"columnas":      res.Columns,
	})
}

// Commit makes the staged state the new baseline by clearing the undo
// history. The audit trail survives.
func (h *Handlers) Commit(c *gin.Context) {
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

	res := sess.Engine.Commit()
	mutationJSON(c, res, nil)
}

// ClearHistory empties the undo stack without touching the data.
func (h *Handlers) ClearHistory(c *gin.Context) {
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

	sess.Engine.History().Clear()
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Historial limpiado."})
}
