// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package agent turns natural-language chat messages into table
// actions. The model never mutates data directly: it emits UI actions
// from a closed set, and the frontend drives them through the same
// endpoints a human click would. The one exception is rule creation,
// which persists server-side and asks the UI to refresh.
package agent

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/tabular/services/dataset"
	"github.com/AleutianAI/tabular/services/llm"
)

const (
	firstTurnTemperature  = 0.3
	secondTurnTemperature = 0.5
	defaultSampleRows     = 50
	contextValueLimit     = 20

	disabledReply = "La IA no está configurada. Verifica la clave de OpenAI en la configuración del servidor."
)

// contextColumns are sampled into the system prompt so the model knows
// what the data actually contains.
var contextColumns = []string{"Vendor Name", "Assignee", "Status", "Pay Group"}

// Action is one UI instruction for the frontend. The "action" key names
// the instruction; the remaining keys are its parameters.
type Action map[string]any

// RuleSaver persists priority rules created from chat.
type RuleSaver interface {
	SaveRule(rule dataset.Rule) (dataset.Rule, error)
}

// Reply is the outcome of one chat turn.
type Reply struct {
	Text    string   `json:"respuesta"`
	Actions []Action `json:"acciones"`
	// RuleCreated is set when the turn persisted a priority rule, so
	// the caller can recompute derived columns before answering.
	RuleCreated bool `json:"-"`
}

// Agent bridges the chat endpoint and the LLM backend.
type Agent struct {
	client   llm.Client
	rules    RuleSaver
	validate *validator.Validate
}

func New(client llm.Client, rules RuleSaver) *Agent {
	return &Agent{
		client:   client,
		rules:    rules,
		validate: validator.New(),
	}
}

// Process runs one chat turn against the staged data. The staging is
// read-only here: row and column deletions come back as trigger
// actions, not as direct mutations.
func (a *Agent) Process(ctx context.Context, userMessage string, staging *dataset.Staging) (*Reply, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt(staging)},
		{Role: llm.RoleUser, Content: userMessage},
	}

	result, err := a.client.Chat(ctx, llm.ChatRequest{
		Messages:    messages,
		Tools:       chatTools(),
		ToolChoice:  llm.ToolChoiceAuto,
		Temperature: firstTurnTemperature,
	})
	if errors.Is(err, llm.ErrDisabled) {
		return &Reply{Text: disabledReply}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	reply := &Reply{Text: result.Content}
	if len(result.ToolCalls) == 0 {
		if reply.Text == "" {
			reply.Text = "Hecho."
		}
		return reply, nil
	}

	messages = append(messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   result.Content,
		ToolCalls: result.ToolCalls,
	})

	needSecondTurn := false
	for _, call := range result.ToolCalls {
		toolReply := "OK"
		switch call.Name {
		case toolExamineData:
			sample, err := a.examineData(call, staging)
			if err != nil {
				return nil, err
			}
			toolReply = sample
			needSecondTurn = true
		default:
			text, err := a.dispatch(call, reply, staging)
			if err != nil {
				return nil, err
			}
			reply.Text = text
		}
		messages = append(messages, llm.Message{
			Role:       llm.RoleTool,
			Name:       call.Name,
			ToolCallID: call.ID,
			Content:    toolReply,
		})
	}

	// After examining data the model gets a second turn to answer in
	// its own words, with tools disabled.
	if needSecondTurn {
		second, err := a.client.Chat(ctx, llm.ChatRequest{
			Messages:    messages,
			Tools:       chatTools(),
			ToolChoice:  llm.ToolChoiceNone,
			Temperature: secondTurnTemperature,
		})
		if err != nil {
			return nil, fmt.Errorf("chat completion (second turn): %w", err)
		}
		reply.Text = second.Content
	}

	if reply.Text == "" {
		reply.Text = "Hecho."
	}
	return reply, nil
}

type singleRowArgs struct {
	RowNumber int `json:"row_number" validate:"required,min=1"`
}

type multiRowArgs struct {
	RowNumbers []int `json:"row_numbers" validate:"required,min=1,dive,min=1"`
}

type bulkDeleteArgs struct {
	Column   string `json:"column" validate:"required"`
	Value    string `json:"value" validate:"required"`
	Operator string `json:"operator"`
}

type manageColumnsArgs struct {
	Mode    string   `json:"mode" validate:"required,oneof=hide show show_only"`
	Columns []string `json:"columns" validate:"required,min=1"`
}

type deleteColumnArgs struct {
	Column string `json:"column" validate:"required"`
}

type examineArgs struct {
	MaxRows int `json:"max_rows"`
}

type filterArgs struct {
	Column   string `json:"column" validate:"required"`
	Value    string `json:"value" validate:"required"`
	Operator string `json:"operator"`
}

type ruleConditionArgs struct {
	Column   string `json:"column" validate:"required"`
	Operator string `json:"operator" validate:"required"`
	Value    string `json:"value" validate:"required"`
}

type createRuleArgs struct {
	Conditions []ruleConditionArgs `json:"conditions" validate:"required,min=1,dive"`
	Priority   string              `json:"priority" validate:"required,oneof=Alta Media Baja"`
	Reason     string              `json:"reason" validate:"required"`
}

// dispatch maps one tool call to its UI action and returns the status
// text shown in the chat.
func (a *Agent) dispatch(call llm.ToolCall, reply *Reply, staging *dataset.Staging) (string, error) {
	switch call.Name {
	case toolDeleteSingleRow:
		var args singleRowArgs
		if err := a.decodeArgs(call, &args); err != nil {
			return "", err
		}
		reply.Actions = append(reply.Actions, Action{
			"action": "delete_single_row_trigger",
			"row_id": args.RowNumber - 1,
		})
		return fmt.Sprintf("Localizando la fila %d...", args.RowNumber), nil

	case toolDeleteMultipleRow:
		var args multiRowArgs
		if err := a.decodeArgs(call, &args); err != nil {
			return "", err
		}
		ids := make([]int, len(args.RowNumbers))
		for i, n := range args.RowNumbers {
			ids[i] = n - 1
		}
		reply.Actions = append(reply.Actions, Action{
			"action":      "delete_multiple_rows_by_id_trigger",
			"row_ids":     ids,
			"row_numbers": args.RowNumbers,
		})
		return fmt.Sprintf("Seleccionando %d filas para eliminar...", len(ids)), nil

	case toolPrepareBulkDelete:
		var args bulkDeleteArgs
		if err := a.decodeArgs(call, &args); err != nil {
			return "", err
		}
		if args.Operator == "" {
			args.Operator = "contains"
		}
		reply.Actions = append(reply.Actions, Action{
			"action":   "prepare_bulk_delete",
			"columna":  args.Column,
			"valor":    args.Value,
			"operador": args.Operator,
		})
		return "Filtrando registros para eliminación...", nil

	case toolManageColumns:
		var args manageColumnsArgs
		if err := a.decodeArgs(call, &args); err != nil {
			return "", err
		}
		reply.Actions = append(reply.Actions, Action{
			"action":  "manage_columns",
			"mode":    args.Mode,
			"columns": args.Columns,
		})
		return "Ajustando visibilidad de columnas...", nil

	case toolDeleteColumn:
		var args deleteColumnArgs
		if err := a.decodeArgs(call, &args); err != nil {
			return "", err
		}
		reply.Actions = append(reply.Actions, Action{
			"action":  "delete_column_trigger",
			"columna": args.Column,
		})
		return fmt.Sprintf("Solicitando borrado de la columna %s...", args.Column), nil

	case toolFilterData:
		var args filterArgs
		if err := a.decodeArgs(call, &args); err != nil {
			return "", err
		}
		reply.Actions = append(reply.Actions, Action{
			"action":  "add_filter",
			"columna": args.Column,
			"valor":   args.Value,
		})
		return fmt.Sprintf("Aplicando filtro: %s contiene '%s'.", args.Column, args.Value), nil

	case toolClearFilters:
		reply.Actions = append(reply.Actions, Action{"action": "clear_filters"})
		return "Filtros limpiados.", nil

	case toolAnalyzeAnomalies:
		reply.Actions = append(reply.Actions, Action{"action": "trigger_anomalies"})
		return "Ejecutando análisis de anomalías...", nil

	case toolCreateRule:
		var args createRuleArgs
		if err := a.decodeArgs(call, &args); err != nil {
			return "", err
		}
		rule := dataset.Rule{
			Active:   true,
			Priority: args.Priority,
			Reason:   args.Reason,
		}
		for _, c := range args.Conditions {
			rule.Conditions = append(rule.Conditions, dataset.Condition{
				Column:   c.Column,
				Operator: c.Operator,
				Value:    c.Value,
			})
		}
		if _, err := a.rules.SaveRule(rule); err != nil {
			return "", fmt.Errorf("save rule from chat: %w", err)
		}
		reply.RuleCreated = true
		reply.Actions = append(reply.Actions, Action{"action": "refresh_table"})
		return fmt.Sprintf("Regla '%s' creada y aplicada correctamente.", args.Reason), nil

	default:
		slog.Warn("Model called unknown tool", "tool", call.Name)
		return "", fmt.Errorf("%w: unknown tool %q", dataset.ErrInvalidArgument, call.Name)
	}
}

func (a *Agent) decodeArgs(call llm.ToolCall, into any) error {
	if err := json.Unmarshal([]byte(call.Arguments), into); err != nil {
		return fmt.Errorf("%w: tool %s arguments: %v", dataset.ErrInvalidArgument, call.Name, err)
	}
	if err := a.validate.Struct(into); err != nil {
		return fmt.Errorf("%w: tool %s arguments: %v", dataset.ErrInvalidArgument, call.Name, err)
	}
	return nil
}

// examineData renders the first rows as CSV for the model to read.
func (a *Agent) examineData(call llm.ToolCall, staging *dataset.Staging) (string, error) {
	var args examineArgs
	if err := a.decodeArgs(call, &args); err != nil {
		return "", err
	}
	limit := args.MaxRows
	if limit <= 0 {
		limit = defaultSampleRows
	}
	if limit > staging.Len() {
		limit = staging.Len()
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(staging.Columns); err != nil {
		return "", fmt.Errorf("render data sample: %w", err)
	}
	for i := 0; i < limit; i++ {
		row := make([]string, len(staging.Columns))
		for j, col := range staging.Columns {
			row[j] = staging.Records[i].Values[col]
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("render data sample: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("render data sample: %w", err)
	}
	return "MUESTRA DE DATOS:\n" + sb.String(), nil
}

func systemPrompt(staging *dataset.Staging) string {
	columnsInfo := ""
	valuesInfo := ""
	if staging.Len() > 0 {
		columnsInfo = "Columnas disponibles: " + strings.Join(staging.Columns, ", ") + "."
		valuesInfo = sampleValues(staging)
	}

	return fmt.Sprintf(`Eres un copiloto experto en análisis de datos de facturación.
Tu objetivo es ayudar al usuario a filtrar, limpiar y entender sus datos.

CONTEXTO DE DATOS:
%s

MUESTRA DE VALORES:
%s

INSTRUCCIONES CLAVE:
1. Para borrar una lista de números (ej: "1, 2 y 3"), USA '%s'.
2. Para borrar por condición (ej: "las de Amazon"), USA '%s'.
3. Para borrar UNA fila, USA '%s'.
4. Sé conciso y profesional.`,
		columnsInfo, valuesInfo,
		toolDeleteMultipleRow, toolPrepareBulkDelete, toolDeleteSingleRow)
}

// sampleValues lists up to 20 distinct values of each well-known column
// so the model can resolve vague references like "the Amazon ones".
func sampleValues(staging *dataset.Staging) string {
	var lines []string
	for _, col := range contextColumns {
		if !staging.HasColumn(col) {
			continue
		}
		seen := map[string]bool{}
		var uniques []string
		for i := range staging.Records {
			v := strings.TrimSpace(staging.Records[i].Values[col])
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			uniques = append(uniques, v)
			if len(uniques) == contextValueLimit {
				break
			}
		}
		if len(uniques) > 0 {
			lines = append(lines, fmt.Sprintf("- '%s': %s...", col, strings.Join(uniques, ", ")))
		}
	}
	return strings.Join(lines, "\n")
}
