// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/tabular/services/web/handlers"
	"github.com/AleutianAI/tabular/services/web/middleware"
)

// Register wires every endpoint of the editing API.
//
// Endpoints:
//
//	POST /api/upload                       - Ingest a spreadsheet
//	POST /api/filter_data                  - Filtered table view
//	POST /api/group_by                     - Group aggregation
//	POST /api/update_cell                  - Edit one cell
//	POST /api/add_row                      - Append a blank row
//	POST /api/delete_row                   - Delete one row
//	POST /api/bulk_update                  - Bulk cell edit
//	POST /api/find_replace_in_selection    - Find/replace in selection
//	POST /api/bulk_delete_rows             - Bulk row delete
//	POST /api/delete_column                - Delete a column
//	POST /api/get_duplicates               - List duplicate invoices
//	POST /api/cleanup_duplicates           - Delete duplicate invoices
//	POST /api/undo_change                  - Undo last change
//	POST /api/commit_changes               - Commit staged changes
//	POST /api/clear_history                - Drop the undo stack
//	POST /api/chat_agent                   - AI copilot turn
//	POST /api/analyze_anomalies            - Statistical outliers
//	POST /api/download_excel               - Export filtered view
//	POST /api/download_excel_grouped       - Export group counts
//	POST /api/download_audit_log           - Export audit trail
//	GET  /api/priority_rules               - List rules and settings
//	POST /api/priority_rules/save          - Create or update a rule
//	POST /api/priority_rules/toggle        - Toggle a rule
//	POST /api/priority_rules/delete        - Delete a rule
//	POST /api/priority_rules/save_settings - Save evaluation settings
//	POST /api/priority_rules/import_view   - Replace rules wholesale
//	POST /api/save_autocomplete_lists      - Replace saved lists
//	POST /api/import_autocomplete_values   - Import a column's values
//	GET  /api/health                       - Liveness
//	GET  /metrics                          - Prometheus metrics
func Register(router *gin.Engine, h *handlers.Handlers) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(middleware.Session())
	{
		api.POST("/upload", h.Upload)

		api.POST("/filter_data", h.FilterData)
		api.POST("/group_by", h.GroupBy)
		api.POST("/analyze_anomalies", h.Anomalies)
		api.POST("/get_duplicates", h.Duplicates)

		api.POST("/update_cell", h.UpdateCell)
		api.POST("/add_row", h.AddRow)
		api.POST("/delete_row", h.DeleteRow)
		api.POST("/bulk_update", h.BulkUpdate)
		api.POST("/find_replace_in_selection", h.FindReplace)
		api.POST("/bulk_delete_rows", h.BulkDelete)
		api.POST("/delete_column", h.DeleteColumn)
		api.POST("/cleanup_duplicates", h.CleanupDuplicates)

		api.POST("/undo_change", h.Undo)
		api.POST("/commit_changes", h.Commit)
		api.POST("/clear_history", h.ClearHistory)

		api.POST("/chat_agent", h.ChatAgent)

		api.POST("/download_excel", h.DownloadExcel)
		api.POST("/download_excel_grouped", h.DownloadExcelGrouped)
		api.POST("/download_audit_log", h.DownloadAuditLog)

		rules := api.Group("/priority_rules")
		{
			rules.GET("", h.GetRules)
			rules.POST("/save", h.SaveRule)
			rules.POST("/toggle", h.ToggleRule)
			rules.POST("/delete", h.DeleteRule)
			rules.POST("/save_settings", h.SaveSettings)
			rules.POST("/import_view", h.ImportView)
		}

		api.POST("/save_autocomplete_lists", h.SaveAutocompleteLists)
		api.POST("/import_autocomplete_values", h.ImportAutocompleteValues)

		api.GET("/health", h.Health)
	}
}
