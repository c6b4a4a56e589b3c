// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the HTTP endpoints of the editing API.
// Every data-touching handler resolves the caller's session, takes the
// session mutex for the whole request and verifies the request's file
// ID against the session's current upload.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/tabular/pkg/metrics"
	"github.com/AleutianAI/tabular/services/agent"
	"github.com/AleutianAI/tabular/services/dataset"
	"github.com/AleutianAI/tabular/services/ingest"
	"github.com/AleutianAI/tabular/services/lists"
	"github.com/AleutianAI/tabular/services/rules"
	"github.com/AleutianAI/tabular/services/web/middleware"
	"github.com/AleutianAI/tabular/services/web/registry"
)

// Handlers carries the shared dependencies of every endpoint.
type Handlers struct {
	Registry *registry.Registry
	Rules    *rules.Store
	Lists    *lists.Store
	Agent    *agent.Agent
	Metrics  *metrics.Metrics

	// MaxUploadBytes caps accepted spreadsheet uploads.
	MaxUploadBytes int64

	now func() time.Time
}

func New(reg *registry.Registry, ruleStore *rules.Store, listStore *lists.Store, chatAgent *agent.Agent, m *metrics.Metrics, maxUploadBytes int64) *Handlers {
	return &Handlers{
		Registry:       reg,
		Rules:          ruleStore,
		Lists:          listStore,
		Agent:          chatAgent,
		Metrics:        m,
		MaxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

// session resolves the caller's session or writes a 404. The caller
// still has to lock the returned session.
func (h *Handlers) session(c *gin.Context) (*registry.Session, bool) {
	sess, ok := h.Registry.Get(middleware.SessionID(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sesión no encontrada. Sube un archivo primero."})
		return nil, false
	}
	return sess, true
}

// checkFileID rejects requests carrying a file ID from a previous
// upload. The mismatch is benign: the client just reloads.
func (h *Handlers) checkFileID(c *gin.Context, sess *registry.Session, fileID string) bool {
	if fileID != sess.FileID {
		c.JSON(http.StatusConflict, gin.H{
			"status": "stale",
			"error":  "El archivo de la sesión cambió. Recarga la página.",
		})
		return false
	}
	return true
}

// lockedSession binds req-independent boilerplate: session lookup,
// lock, file ID check. Returns with the session locked; the caller
// must defer sess.Unlock() when ok.
func (h *Handlers) lockedSession(c *gin.Context, fileID string) (*registry.Session, bool) {
	sess, ok := h.session(c)
	if !ok {
		return nil, false
	}
	sess.Lock()
	if !h.checkFileID(c, sess, fileID) {
		sess.Unlock()
		return nil, false
	}
	return sess, true
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dataset.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, dataset.ErrInvalidArgument), errors.Is(err, dataset.ErrParse):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// bindJSON decodes and validates the request body, answering 400 on
// failure.
func bindJSON(c *gin.Context, into any) bool {
	if err := c.ShouldBindJSON(into); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// mutationJSON writes the standard mutation response body.
func mutationJSON(c *gin.Context, res *dataset.MutationResult, extra gin.H) {
	body := gin.H{
		"status":        "success",
		"history_count": res.HistoryLen,
		"resumen":       res.Summary,
	}
	if res.NoChange {
		body["status"] = "no_change"
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// audit appends one entry to the session's audit trail. Callers hold
// the session lock.
func (h *Handlers) audit(sess *registry.Session, action, rowID, column, oldValue, newValue string) {
	sess.Audit = append(sess.Audit, ingest.AuditEntry{
		Timestamp: h.now(),
		Action:    action,
		RowID:     rowID,
		Column:    column,
		OldValue:  oldValue,
		NewValue:  newValue,
	})
}

// flatRecords renders records for the JSON table payload.
func flatRecords(records []dataset.Record) []map[string]any {
	out := make([]map[string]any, len(records))
	for i := range records {
		out[i] = records[i].Flat()
	}
	return out
}
