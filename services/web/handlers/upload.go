// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/tabular/services/dataset"
	"github.com/AleutianAI/tabular/services/ingest"
	"github.com/AleutianAI/tabular/services/web/datatypes"
	"github.com/AleutianAI/tabular/services/web/middleware"
)

// Upload ingests a spreadsheet and replaces the caller's session with a
// fresh staging layer for it. Any previous staged edits are discarded.
func (h *Handlers) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		h.Metrics.UploadsTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file"})
		return
	}
	if file.Filename == "" {
		h.Metrics.UploadsTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "No selection"})
		return
	}
	if h.MaxUploadBytes > 0 && file.Size > h.MaxUploadBytes {
		h.Metrics.UploadsTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("El archivo supera el límite de %d bytes.", h.MaxUploadBytes),
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		h.Metrics.UploadsTotal.WithLabelValues("error").Inc()
		writeError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer src.Close()

	parsed, err := ingest.Parse(file.Filename, src)
	if err != nil {
		h.Metrics.UploadsTotal.WithLabelValues("error").Inc()
		writeError(c, err)
		return
	}

	staging := dataset.NewStaging(parsed.Columns, parsed.Rows, parsed.PayGroupColumn)
	engine := dataset.NewEngine(staging, dataset.NewHistory(), h.Rules)
	dataset.Recompute(staging, h.Rules)

	fileID := h.Registry.Create(middleware.SessionID(c), engine)
	h.Metrics.UploadsTotal.WithLabelValues("success").Inc()
	slog.Info("file uploaded",
		"file_id", fileID,
		"rows", staging.Len(),
		"columns", len(staging.Columns),
		"pay_group_column", parsed.PayGroupColumn,
	)

	c.JSON(http.StatusOK, datatypes.UploadResponse{
		FileID:              fileID,
		Columns:             staging.Columns,
		AutocompleteOptions: h.Lists.Options(staging),
		Summary:             dataset.Summarize(staging.Records, staging.Columns),
		HistoryCount:        0,
	})
}
