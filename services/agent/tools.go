// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"encoding/json"

	"github.com/AleutianAI/tabular/services/llm"
)

// Tool names the model may call.
const (
	toolDeleteSingleRow   = "delete_single_row"
	toolDeleteMultipleRow = "delete_multiple_rows"
	toolPrepareBulkDelete = "prepare_bulk_delete"
	toolManageColumns     = "manage_columns"
	toolDeleteColumn      = "delete_column"
	toolExamineData       = "examine_data"
	toolFilterData        = "filter_data"
	toolClearFilters      = "clear_filters"
	toolAnalyzeAnomalies  = "analyze_anomalies"
	toolCreateRule        = "create_priority_rule"
)

func chatTools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        toolDeleteSingleRow,
			Description: "Deletes ONE specific row. Use when the user says e.g. 'delete row 5'.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"row_number": {"type": "integer", "description": "The visible row number (N°)."}
				},
				"required": ["row_number"]
			}`),
		},
		{
			Name:        toolDeleteMultipleRow,
			Description: "Deletes SEVERAL rows by number. E.g. 'delete rows 1, 5 and 10'.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"row_numbers": {
						"type": "array",
						"items": {"type": "integer"},
						"description": "List of visible row numbers."
					}
				},
				"required": ["row_numbers"]
			}`),
		},
		{
			Name:        toolPrepareBulkDelete,
			Description: "Filters the data for bulk deletion. E.g. 'delete everything from Amazon'.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"column": {"type": "string"},
					"value": {"type": "string"},
					"operator": {"type": "string", "enum": ["contains", "equals"], "default": "contains"}
				},
				"required": ["column", "value"]
			}`),
		},
		{
			Name:        toolManageColumns,
			Description: "Hides or shows columns in the table.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"mode": {"type": "string", "enum": ["hide", "show", "show_only"]},
					"columns": {"type": "array", "items": {"type": "string"}}
				},
				"required": ["mode", "columns"]
			}`),
		},
		{
			Name:        toolDeleteColumn,
			Description: "Permanently REMOVES an entire column from the dataset.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"column": {"type": "string"}
				},
				"required": ["column"]
			}`),
		},
		{
			Name:        toolExamineData,
			Description: "Reads a sample of the data to understand its contents.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"max_rows": {"type": "integer", "description": "Default 50"}
				}
			}`),
		},
		{
			Name:        toolFilterData,
			Description: "Applies a visual filter to the table.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"column": {"type": "string"},
					"value": {"type": "string"},
					"operator": {"type": "string", "enum": ["contains", "equals", ">", "<"], "default": "contains"}
				},
				"required": ["column", "value"]
			}`),
		},
		{
			Name:        toolClearFilters,
			Description: "Removes every active filter.",
			Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
		},
		{
			Name:        toolAnalyzeAnomalies,
			Description: "Runs the statistical anomaly analysis.",
			Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
		},
		{
			Name:        toolCreateRule,
			Description: "Creates a new persistent priority rule.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"conditions": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"column": {"type": "string"},
								"operator": {"type": "string"},
								"value": {"type": "string"}
							},
							"required": ["column", "operator", "value"]
						}
					},
					"priority": {"type": "string", "enum": ["Alta", "Media", "Baja"]},
					"reason": {"type": "string"}
				},
				"required": ["conditions", "priority", "reason"]
			}`),
		},
	}
}
