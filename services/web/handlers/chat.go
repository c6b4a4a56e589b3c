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

	"github.com/AleutianAI/tabular/services/dataset"
	"github.com/AleutianAI/tabular/services/web/datatypes"
)

// ChatAgent runs one AI copilot turn over the staged data. The model
// answers with text plus UI actions; it never mutates the staging layer
// directly. The remote call runs against a detached copy taken under
// the session lock, so ordinary edits keep flowing while the model
// thinks. When the turn created a priority rule, derived columns are
// recomputed (back under the lock) before answering.
func (h *Handlers) ChatAgent(c *gin.Context) {
	var req datatypes.ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, ok := h.lockedSession(c, req.FileID)
	if !ok {
		return
	}
	view := sess.Engine.Staging().CloneView()
	sess.Unlock()

	reply, err := h.Agent.Process(c.Request.Context(), req.Message, view)
	if err != nil {
		h.Metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		writeError(c, err)
		return
	}

	body := gin.H{
		"respuesta": reply.Text,
		"acciones":  reply.Actions,
	}
	if reply.RuleCreated {
		sess.Lock()
		// The upload may have been replaced while the model ran; the
		// new staging still wants the fresh rule applied.
		staging := sess.Engine.Staging()
		dataset.Recompute(staging, h.Rules)
		body["resumen"] = dataset.Summarize(staging.Records, staging.Columns)
		sess.Unlock()
	}
	h.Metrics.ChatRequestsTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, body)
}
