// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tabular/pkg/metrics"
	"github.com/AleutianAI/tabular/services/agent"
	"github.com/AleutianAI/tabular/services/lists"
	"github.com/AleutianAI/tabular/services/llm"
	"github.com/AleutianAI/tabular/services/rules"
	"github.com/AleutianAI/tabular/services/web/middleware"
	"github.com/AleutianAI/tabular/services/web/registry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Prometheus instruments register globally, so the test package shares
// one instance.
var (
	metricsOnce sync.Once
	testMetrics *metrics.Metrics
)

func sharedMetrics() *metrics.Metrics {
	metricsOnce.Do(func() {
		testMetrics = metrics.Init(func() float64 { return 0 })
	})
	return testMetrics
}

type harness struct {
	t      *testing.T
	router *gin.Engine
	h      *Handlers
	cookie *http.Cookie
	fileID string
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithClient(t, llm.Disabled{})
}

func newHarnessWithClient(t *testing.T, client llm.Client) *harness {
	t.Helper()
	dir := t.TempDir()
	ruleStore, err := rules.NewStore(filepath.Join(dir, "rules.json"))
	require.NoError(t, err)
	listStore, err := lists.NewStore(filepath.Join(dir, "lists.json"))
	require.NoError(t, err)

	reg := registry.New()
	h := New(reg, ruleStore, listStore, agent.New(client, ruleStore), sharedMetrics(), 32<<20)

	router := gin.New()
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
		api.POST("/download_audit_log", h.DownloadAuditLog)
		api.GET("/priority_rules", h.GetRules)
		api.POST("/priority_rules/save", h.SaveRule)
		api.POST("/import_autocomplete_values", h.ImportAutocompleteValues)
		api.GET("/health", h.Health)
	}
	return &harness{t: t, router: router, h: h}
}

const sampleCSV = "Vendor Name,Invoice Number,Total Amount\n" +
	"Amazon,A-1,1000\n" +
	"Microsoft,M-1,250.50\n" +
	"Amazon,A-1,99.99\n" +
	"Apple,P-1,3000\n"

func (ha *harness) upload(csvBody string) map[string]any {
	ha.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "invoices.csv")
	require.NoError(ha.t, err)
	_, err = fw.Write([]byte(csvBody))
	require.NoError(ha.t, err)
	require.NoError(ha.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	ha.router.ServeHTTP(w, req)
	require.Equal(ha.t, http.StatusOK, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			ha.cookie = c
		}
	}
	require.NotNil(ha.t, ha.cookie, "upload must set the session cookie")

	body := decodeBody(ha.t, w)
	ha.fileID = body["file_id"].(string)
	return body
}

func (ha *harness) post(path string, payload map[string]any) *httptest.ResponseRecorder {
	ha.t.Helper()
	if payload == nil {
		payload = map[string]any{}
	}
	if _, ok := payload["file_id"]; !ok && ha.fileID != "" {
		payload["file_id"] = ha.fileID
	}
	raw, err := json.Marshal(payload)
	require.NoError(ha.t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if ha.cookie != nil {
		req.AddCookie(ha.cookie)
	}
	w := httptest.NewRecorder()
	ha.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestUploadReturnsSchemaAndSummary(t *testing.T) {
	ha := newHarness(t)
	body := ha.upload(sampleCSV)

	assert.NotEmpty(t, body["file_id"])
	assert.Equal(t,
		[]any{"Vendor Name", "Invoice Number", "Total Amount"},
		body["columnas"])
	resumen := body["resumen"].(map[string]any)
	assert.EqualValues(t, 4, resumen["total_facturas"])
	assert.EqualValues(t, 0, body["history_count"])
}

func TestUploadRejectsMissingFile(t *testing.T) {
	ha := newHarness(t)
	w := ha.post("/api/upload", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFilterData(t *testing.T) {
	ha := newHarness(t)
	ha.upload(sampleCSV)

	w := ha.post("/api/filter_data", map[string]any{
		"filtros_activos": []map[string]string{{"columna": "Vendor Name", "valor": "amazon"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	datos := body["datos"].([]any)
	assert.Len(t, datos, 2)
	resumen := body["resumen"].(map[string]any)
	assert.EqualValues(t, 2, resumen["total_facturas"])
	assert.Equal(t, "$1,099.99", resumen["monto_total"])
}

func TestRequestWithoutSessionIs404(t *testing.T) {
	ha := newHarness(t)
	w := ha.post("/api/filter_data", map[string]any{"file_id": "whatever"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaleFileIDIs409(t *testing.T) {
	ha := newHarness(t)
	ha.upload(sampleCSV)

	w := ha.post("/api/update_cell", map[string]any{
		"file_id": "stale-id",
		"row_id":  0,
		"columna": "Vendor Name",
		"valor":   "x",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateCellAndUndo(t *testing.T) {
	ha := newHarness(t)
	ha.upload(sampleCSV)

	w := ha.post("/api/update_cell", map[string]any{
		"row_id":  1,
		"columna": "Vendor Name",
		"valor":   "Microsoft Ireland",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 1, body["history_count"])

	w = ha.post("/api/undo_change", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 0, body["history_count"])
	assert.Equal(t, "1", body["affected_row"])

	w = ha.post("/api/filter_data", map[string]any{})
	datos := decodeBody(t, w)["datos"].([]any)
	row := datos[1].(map[string]any)
	assert.Equal(t, "Microsoft", row["Vendor Name"])
}

func TestUpdateCellUnknownRowIs404(t *testing.T) {
	ha := newHarness(t)
	ha.upload(sampleCSV)

	w := ha.post("/api/update_cell", map[string]any{
		"row_id":  99,
		"columna": "Vendor Name",
		"valor":   "x",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUndoOnEmptyHistoryIsBenign(t *testing.T) {
	ha := newHarness(t)
	ha.upload(sampleCSV)

	w := ha.post("/api/undo_change", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no_history", decodeBody(t, w)["status"])
}

func TestBulkDeleteAndCommit(t *testing.T) {
	ha := newHarness(t)
	ha.upload(sampleCSV)

	w := ha.post("/api/bulk_delete_rows", map[string]any{"row_ids": []int{0, 2}})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 2, body["affected"])
	assert.EqualValues(t, 1, body["history_count"])

	w = ha.post("/api/commit_changes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 0, body["history_count"])

	// After commit the deletions are no longer undoable.
	w = ha.post("/api/undo_change", nil)
	assert.Equal(t, "no_history", decodeBody(t, w)["status"])
}

func TestGroupBy(t *testing.T) {
	ha := newHarness(t)
	ha.upload(sampleCSV)

	w := ha.post("/api/group_by", map[string]any{"columna_agrupar": "Vendor Name"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	grupos := decodeBody(t, w)["grupos"].([]any)
	assert.Len(t, grupos, 3)

	w = ha.post("/api/group_by", map[string]any{"columna_agrupar": "Ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDuplicatesRoundTrip(t *testing.T) {
	ha := newHarness(t)
	ha.upload(sampleCSV)

	w := ha.post("/api/get_duplicates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 2, body["count"], "both A-1 rows are reported")

	w = ha.post("/api/cleanup_duplicates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.EqualValues(t, 1, body["affected"], "only the repeat is deleted")
	resumen := body["resumen"].(map[string]any)
	assert.EqualValues(t, 3, resumen["total_facturas"])
}

func TestSaveRuleRecomputesSession(t *testing.T) {
	ha := newHarness(t)
	ha.upload(sampleCSV)

	w := ha.post("/api/priority_rules/save", map[string]any{
		"priority": "Alta",
		"reason":   "vendedor clave",
		"conditions": []map[string]string{
			{"column": "Vendor Name", "operator": "equals", "value": "Apple"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.NotNil(t, body["resumen"])

	w = ha.post("/api/filter_data", map[string]any{})
	datos := decodeBody(t, w)["datos"].([]any)
	apple := datos[3].(map[string]any)
	assert.Equal(t, "Alta", apple["_priority"])
	assert.Equal(t, "vendedor clave", apple["_priority_reason"])
}

// stalledClient blocks inside Chat until released, standing in for a
// slow remote model.
type stalledClient struct {
	started chan struct{}
	release chan struct{}
}

func (s *stalledClient) Chat(ctx context.Context, _ llm.ChatRequest) (*llm.ChatResult, error) {
	close(s.started)
	select {
	case <-s.release:
		return &llm.ChatResult{Content: "listo"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestChatDoesNotBlockSessionEdits(t *testing.T) {
	client := &stalledClient{started: make(chan struct{}), release: make(chan struct{})}
	ha := newHarnessWithClient(t, client)
	ha.upload(sampleCSV)

	chatDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		chatDone <- ha.post("/api/chat_agent", map[string]any{"mensaje": "hola"})
	}()
	<-client.started

	editDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		editDone <- ha.post("/api/update_cell", map[string]any{
			"row_id":  0,
			"columna": "Vendor Name",
			"valor":   "Amazon EU",
		})
	}()

	// The session lock must be free while the model is in flight.
	select {
	case w := <-editDone:
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	case <-time.After(2 * time.Second):
		t.Fatal("update_cell stalled while the chat model was in flight")
	}

	close(client.release)
	w := <-chatDone
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "listo", decodeBody(t, w)["respuesta"])
}

func TestChatAgentDisabledBackend(t *testing.T) {
	ha := newHarness(t)
	ha.upload(sampleCSV)

	w := ha.post("/api/chat_agent", map[string]any{"mensaje": "hola"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["respuesta"])
	assert.Nil(t, body["acciones"])
}

func TestDownloadExcelHeaders(t *testing.T) {
	ha := newHarness(t)
	ha.upload(sampleCSV)

	w := ha.post("/api/download_excel", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "filtrado.xlsx")
	assert.Equal(t, workbookContentType, w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}

func TestAuditLogRecordsMutations(t *testing.T) {
	ha := newHarness(t)
	ha.upload(sampleCSV)

	ha.post("/api/update_cell", map[string]any{
		"row_id":  0,
		"columna": "Vendor Name",
		"valor":   "Amazon EU",
	})
	ha.post("/api/undo_change", nil)

	w := ha.post("/api/download_audit_log", nil)
	require.Equal(t, http.StatusOK, w.Code)
	text := w.Body.String()
	assert.Contains(t, text, "TIMESTAMP\tACCION")
	assert.Contains(t, text, "Celda Actualizada")
	assert.Contains(t, text, "Deshacer", "undo does not erase the audit trail")
}

func TestImportAutocompleteValues(t *testing.T) {
	ha := newHarness(t)
	ha.upload(sampleCSV)

	w := ha.post("/api/import_autocomplete_values", map[string]any{"column": "Vendor Name"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	opts := body["autocomplete_options"].(map[string]any)
	vendors := opts["Vendor Name"].([]any)
	assert.Equal(t, []any{"Amazon", "Apple", "Microsoft"}, vendors)

	w = ha.post("/api/import_autocomplete_values", map[string]any{"column": "Ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	ha := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	ha.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}
