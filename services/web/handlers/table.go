// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/tabular/services/dataset"
	"github.com/AleutianAI/tabular/services/web/datatypes"
)

// FilterData returns the filtered view with its summary. Filters never
// mutate the staging layer.
func (h *Handlers) FilterData(c *gin.Context) {
	var req datatypes.FilterRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, ok := h.lockedSession(c, req.FileID)
	if !ok {
		return
	}
	defer sess.Unlock()

	staging := sess.Engine.Staging()
	view := dataset.ApplyFilters(staging.Records, req.Filters)
	c.JSON(http.StatusOK, gin.H{
		"datos":         flatRecords(view),
		"columnas":      staging.Columns,
		"resumen":       dataset.Summarize(view, staging.Columns),
		"history_count": sess.Engine.History().Len(),
	})
}

// GroupBy aggregates the (optionally filtered) view by one column.
func (h *Handlers) GroupBy(c *gin.Context) {
	var req datatypes.GroupRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, ok := h.lockedSession(c, req.FileID)
	if !ok {
		return
	}
	defer sess.Unlock()

	staging := sess.Engine.Staging()
	if !staging.HasColumn(req.Column) {
		writeError(c, fmt.Errorf("%w: column %q", dataset.ErrNotFound, req.Column))
		return
	}
	view := dataset.ApplyFilters(staging.Records, req.Filters)
	groups := dataset.GroupBy(view, staging.Columns, req.Column)
	c.JSON(http.StatusOK, gin.H{
		"grupos":  groups,
		"columna": req.Column,
	})
}

// Anomalies runs the statistical outlier analysis over the full staged
// dataset.
func (h *Handlers) Anomalies(c *gin.Context) {
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

	staging := sess.Engine.Staging()
	report := dataset.DetectAnomalies(staging.Records, staging.Columns, dataset.DefaultAnomalySigma)
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"reporte": report,
		"count":   len(report.Anomalies),
	})
}

// Duplicates lists every row that shares an invoice key with an
// earlier row, the first occurrence included.
func (h *Handlers) Duplicates(c *gin.Context) {
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

	dupes := dataset.FindDuplicates(sess.Engine.Staging())
	c.JSON(http.StatusOK, gin.H{
		"duplicados": flatRecords(dupes),
		"count":      len(dupes),
	})
}
