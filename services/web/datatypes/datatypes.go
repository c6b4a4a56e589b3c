// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the JSON request and response shapes of the
// editing API. Field names follow the frontend contract, which is
// partly Spanish (columna, valor, resumen).
package datatypes

import "github.com/AleutianAI/tabular/services/dataset"

// SessionScoped is embedded by every request that operates on an
// uploaded file. The file ID must match the session's current upload.
type SessionScoped struct {
	FileID string `json:"file_id" binding:"required"`
}

// FilterRequest returns the filtered view of the table.
type FilterRequest struct {
	SessionScoped
	Filters []dataset.Filter `json:"filtros_activos"`
}

// GroupRequest aggregates the (optionally filtered) view by a column.
type GroupRequest struct {
	SessionScoped
	Column  string           `json:"columna_agrupar" binding:"required"`
	Filters []dataset.Filter `json:"filtros_activos"`
}

// UpdateCellRequest writes one cell.
type UpdateCellRequest struct {
	SessionScoped
	RowID  *int   `json:"row_id" binding:"required"`
	Column string `json:"columna" binding:"required"`
	Value  string `json:"valor"`
}

// AddRowRequest appends a blank row.
type AddRowRequest struct {
	SessionScoped
}

// DeleteRowRequest removes one row.
type DeleteRowRequest struct {
	SessionScoped
	RowID *int `json:"row_id" binding:"required"`
}

// BulkUpdateRequest writes the same value into one column of many rows.
type BulkUpdateRequest struct {
	SessionScoped
	RowIDs []int  `json:"row_ids" binding:"required,min=1"`
	Column string `json:"columna" binding:"required"`
	Value  string `json:"valor"`
}

// FindReplaceRequest substring-replaces inside one column of the
// selected rows.
type FindReplaceRequest struct {
	SessionScoped
	RowIDs      []int  `json:"row_ids" binding:"required,min=1"`
	Column      string `json:"columna" binding:"required"`
	FindText    string `json:"texto_buscar" binding:"required"`
	ReplaceText string `json:"texto_reemplazar"`
}

// BulkDeleteRequest removes many rows at once.
type BulkDeleteRequest struct {
	SessionScoped
	RowIDs []int `json:"row_ids" binding:"required,min=1"`
}

// DeleteColumnRequest removes an entire column.
type DeleteColumnRequest struct {
	SessionScoped
	Column string `json:"columna" binding:"required"`
}

// ChatRequest is one user message for the AI copilot.
type ChatRequest struct {
	SessionScoped
	Message string `json:"mensaje" binding:"required"`
}

// ToggleRuleRequest flips a rule's active flag.
type ToggleRuleRequest struct {
	RuleID string `json:"rule_id" binding:"required"`
	Active *bool  `json:"active" binding:"required"`
}

// DeleteRuleRequest removes a rule.
type DeleteRuleRequest struct {
	RuleID string `json:"rule_id" binding:"required"`
}

// ImportViewRequest replaces all rules and settings, used when
// importing a saved view.
type ImportViewRequest struct {
	Rules    []dataset.Rule   `json:"rules"`
	Settings dataset.Settings `json:"settings"`
}

// ImportAutocompleteRequest folds a column's current values into its
// saved autocomplete list.
type ImportAutocompleteRequest struct {
	SessionScoped
	Column string `json:"column" binding:"required"`
}

// DownloadRequest exports the current view as a workbook.
type DownloadRequest struct {
	SessionScoped
	Filters        []dataset.Filter `json:"filtros_activos"`
	VisibleColumns []string         `json:"columnas_visibles"`
	GroupColumn    string           `json:"columna_agrupar"`
}

// UploadResponse is returned after a successful file upload.
type UploadResponse struct {
	FileID              string              `json:"file_id"`
	Columns             []string            `json:"columnas"`
	AutocompleteOptions map[string][]string `json:"autocomplete_options"`
	Summary             dataset.Summary     `json:"resumen"`
	HistoryCount        int                 `json:"history_count"`
}
