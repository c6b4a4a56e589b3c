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
	"github.com/AleutianAI/tabular/services/ingest"
	"github.com/AleutianAI/tabular/services/web/datatypes"
)

const workbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DownloadExcel exports the filtered view (visible columns only) as a
// workbook.
func (h *Handlers) DownloadExcel(c *gin.Context) {
	var req datatypes.DownloadRequest
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
	f, err := ingest.ExportFiltered(view, staging.Columns, req.VisibleColumns)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="filtrado.xlsx"`)
	c.Header("Content-Type", workbookContentType)
	if err := f.Write(c.Writer); err != nil {
		writeError(c, fmt.Errorf("write workbook: %w", err))
	}
}

// DownloadExcelGrouped exports the group counts of the filtered view.
func (h *Handlers) DownloadExcelGrouped(c *gin.Context) {
	var req datatypes.DownloadRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, ok := h.lockedSession(c, req.FileID)
	if !ok {
		return
	}
	defer sess.Unlock()

	staging := sess.Engine.Staging()
	if !staging.HasColumn(req.GroupColumn) {
		writeError(c, fmt.Errorf("%w: column %q", dataset.ErrNotFound, req.GroupColumn))
		return
	}
	view := dataset.ApplyFilters(staging.Records, req.Filters)
	groups := dataset.GroupBy(view, staging.Columns, req.GroupColumn)
	f, err := ingest.ExportGrouped(groups, req.GroupColumn)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="agrupado.xlsx"`)
	c.Header("Content-Type", workbookContentType)
	if err := f.Write(c.Writer); err != nil {
		writeError(c, fmt.Errorf("write workbook: %w", err))
	}
}

// DownloadAuditLog renders the session's audit trail as tab-separated
// text.
func (h *Handlers) DownloadAuditLog(c *gin.Context) {
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

	c.Header("Content-Disposition", `attachment; filename="audit_log.txt"`)
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)
	if err := ingest.WriteAuditLog(c.Writer, sess.Audit); err != nil {
		writeError(c, err)
	}
}
