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
	"github.com/AleutianAI/tabular/services/web/middleware"
)

// GetRules returns every saved rule and the evaluation settings.
func (h *Handlers) GetRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"rules":    h.Rules.Rules(),
		"settings": h.Rules.Settings(),
	})
}

// SaveRule creates or updates a rule, then reapplies priorities to the
// caller's staged data when a session exists.
func (h *Handlers) SaveRule(c *gin.Context) {
	var rule dataset.Rule
	if !bindJSON(c, &rule) {
		return
	}
	stored, err := h.Rules.SaveRule(rule)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"rule":    stored,
		"resumen": h.recomputeSession(c),
	})
}

// ToggleRule flips a rule's active flag.
func (h *Handlers) ToggleRule(c *gin.Context) {
	var req datatypes.ToggleRuleRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Rules.ToggleRule(req.RuleID, *req.Active); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "resumen": h.recomputeSession(c)})
}

// DeleteRule removes a rule.
func (h *Handlers) DeleteRule(c *gin.Context) {
	var req datatypes.DeleteRuleRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Rules.DeleteRule(req.RuleID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "resumen": h.recomputeSession(c)})
}

// SaveSettings overwrites the evaluation settings.
func (h *Handlers) SaveSettings(c *gin.Context) {
	var settings dataset.Settings
	if !bindJSON(c, &settings) {
		return
	}
	if err := h.Rules.SaveSettings(settings); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "resumen": h.recomputeSession(c)})
}

// ImportView replaces the whole rules document, used when importing a
// saved view.
func (h *Handlers) ImportView(c *gin.Context) {
	var req datatypes.ImportViewRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Rules.ReplaceAll(req.Rules, req.Settings); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "resumen": h.recomputeSession(c)})
}

// recomputeSession reapplies priorities to the caller's staged data
// after a rule change. Returns the fresh summary, or nil when the
// caller has no live session.
func (h *Handlers) recomputeSession(c *gin.Context) *dataset.Summary {
	sess, ok := h.Registry.Get(middleware.SessionID(c))
	if !ok {
		return nil
	}
	sess.Lock()
	defer sess.Unlock()

	staging := sess.Engine.Staging()
	dataset.Recompute(staging, h.Rules)
	summary := dataset.Summarize(staging.Records, staging.Columns)
	return &summary
}
