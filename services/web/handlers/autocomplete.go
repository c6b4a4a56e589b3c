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

	"github.com/AleutianAI/tabular/services/web/datatypes"
)

// SaveAutocompleteLists replaces all saved autocomplete lists.
func (h *Handlers) SaveAutocompleteLists(c *gin.Context) {
	var lists map[string][]string
	if !bindJSON(c, &lists) {
		return
	}
	if err := h.Lists.Replace(lists); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ImportAutocompleteValues folds a staged column's distinct values into
// its saved list and returns the refreshed options.
func (h *Handlers) ImportAutocompleteValues(c *gin.Context) {
	var req datatypes.ImportAutocompleteRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, ok := h.lockedSession(c, req.FileID)
	if !ok {
		return
	}
	defer sess.Unlock()

	staging := sess.Engine.Staging()
	n, err := h.Lists.ImportColumn(staging, req.Column)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":               "success",
		"message":              fmt.Sprintf("Importados %d valores.", n),
		"autocomplete_options": h.Lists.Options(staging),
	})
}
