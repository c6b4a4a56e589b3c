// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command tabular starts the spreadsheet editing server.
//
// Configuration comes from tabular.yaml and TABULAR_* environment
// variables (see pkg/config). The AI copilot additionally reads
// OPENAI_API_KEY and OPENAI_MODEL when the openai backend is selected.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/tabular/pkg/config"
	"github.com/AleutianAI/tabular/pkg/metrics"
	"github.com/AleutianAI/tabular/services/agent"
	"github.com/AleutianAI/tabular/services/lists"
	"github.com/AleutianAI/tabular/services/llm"
	"github.com/AleutianAI/tabular/services/rules"
	"github.com/AleutianAI/tabular/services/web/handlers"
	"github.com/AleutianAI/tabular/services/web/registry"
	"github.com/AleutianAI/tabular/services/web/routes"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory %s: %v", cfg.DataDir, err)
	}

	ruleStore, err := rules.NewStore(filepath.Join(cfg.DataDir, "user_priority_rules.json"))
	if err != nil {
		log.Fatalf("Failed to open rules store: %v", err)
	}
	listStore, err := lists.NewStore(filepath.Join(cfg.DataDir, "user_lists.json"))
	if err != nil {
		log.Fatalf("Failed to open lists store: %v", err)
	}

	var llmClient llm.Client
	switch cfg.LLMBackend {
	case "openai":
		llmClient, err = llm.NewOpenAIClient()
		if err != nil {
			slog.Warn("OpenAI backend unavailable, chat agent disabled", "error", err)
			llmClient = llm.Disabled{}
		}
	default:
		slog.Info("AI chat agent disabled", "llm_backend", cfg.LLMBackend)
		llmClient = llm.Disabled{}
	}
	chatAgent := agent.New(llmClient, ruleStore)

	reg := registry.New(registry.WithTTL(time.Duration(cfg.SessionTTLMinutes) * time.Minute))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reg.StartSweeper(ctx, time.Duration(cfg.SweepIntervalMinutes)*time.Minute)

	m := metrics.Init(func() float64 { return float64(reg.Len()) })

	h := handlers.New(reg, ruleStore, listStore, chatAgent, m, int64(cfg.MaxUploadMB)<<20)

	router := gin.Default()
	routes.Register(router, h)

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("Starting tabular server",
		"addr", addr,
		"data_dir", cfg.DataDir,
		"llm_backend", cfg.LLMBackend,
	)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
