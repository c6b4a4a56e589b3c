// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import (
	"math"
	"strings"
)

// Condition is one predicate inside a priority rule. Operator is one of
// equals, contains, >, <, >=, <=; string comparisons are
// case-insensitive on trimmed values, numeric comparisons go through
// ParseAmount.
type Condition struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Rule is a user-defined priority rule. All conditions AND-combine.
type Rule struct {
	ID         string      `json:"id"`
	Active     bool        `json:"active"`
	Priority   string      `json:"priority"`
	Reason     string      `json:"reason"`
	Conditions []Condition `json:"conditions"`
}

// Settings toggles the built-in derivation behavior.
type Settings struct {
	EnableSCFIntercompany bool `json:"enable_scf_intercompany"`
	EnableAgeSort         bool `json:"enable_age_sort"`
}

// DefaultSettings matches a fresh install: both toggles on.
func DefaultSettings() Settings {
	return Settings{EnableSCFIntercompany: true, EnableAgeSort: true}
}

// RuleProvider supplies the active rule set and settings at
// recomputation time. The rules store implements it; tests inject
// fixed lists.
type RuleProvider interface {
	Rules() []Rule
	Settings() Settings
}

// StaticRules is a fixed RuleProvider for tests and for recomputing
// against an explicit rule list.
type StaticRules struct {
	RuleList    []Rule
	SettingsVal Settings
}

func (s StaticRules) Rules() []Rule      { return s.RuleList }
func (s StaticRules) Settings() Settings { return s.SettingsVal }

// priorityRank orders rule evaluation: High before Medium before Low.
func priorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Recompute derives priority and reason for every record: the base
// pay-group logic first (when enabled and the column exists), then user
// rules. Rules are walked High > Medium > Low; within the same tier the
// first rule in list order whose conditions all match wins and later
// rules are not consulted. Inactive rules are skipped. A record that
// matches no active rule keeps its base priority, or stays empty when
// the base logic is off.
func Recompute(s *Staging, provider RuleProvider) {
	settings := provider.Settings()
	baseActive := settings.EnableSCFIntercompany && s.PayGroupColumn != "" && s.HasColumn(s.PayGroupColumn)

	ordered := orderRules(provider.Rules())

	for i := range s.Records {
		rec := &s.Records[i]
		rec.Priority, rec.PriorityReason = "", ""
		if baseActive {
			rec.Priority, rec.PriorityReason = basePriority(rec.Values[s.PayGroupColumn])
		}
		for _, rule := range ordered {
			if ruleMatches(rule, rec) {
				rec.Priority = rule.Priority
				rec.PriorityReason = rule.Reason
				break
			}
		}
	}
	s.refreshStatuses()
}

// orderRules returns active rules sorted by priority tier, preserving
// list order within a tier. Stable by construction: tiers are collected
// in input order.
func orderRules(rules []Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	for rank := 0; rank <= 3; rank++ {
		for _, r := range rules {
			if r.Active && len(r.Conditions) > 0 && priorityRank(r.Priority) == rank {
				out = append(out, r)
			}
		}
	}
	return out
}

func basePriority(payGroup string) (string, string) {
	v := strings.ToUpper(strings.TrimSpace(payGroup))
	switch {
	case v == "SCF" || v == "INTERCOMPANY":
		return PriorityHigh, "Prioridad base (SCF/Intercompany)"
	case strings.HasPrefix(v, "PAY GROUP"):
		return PriorityLow, "Prioridad base (Pay Group)"
	default:
		return PriorityMedium, "Prioridad base (Estándar)"
	}
}

func ruleMatches(rule Rule, rec *Record) bool {
	for _, cond := range rule.Conditions {
		cell, ok := rec.Values[cond.Column]
		if !ok {
			return false
		}
		if !conditionMatches(cond, cell) {
			return false
		}
	}
	return true
}

func conditionMatches(cond Condition, cell string) bool {
	cellNorm := strings.ToLower(strings.TrimSpace(cell))
	wantNorm := strings.ToLower(strings.TrimSpace(cond.Value))

	switch cond.Operator {
	case "contains":
		return strings.Contains(cellNorm, wantNorm)
	case "equals":
		return cellNorm == wantNorm
	case ">", "<", ">=", "<=":
		cellNum, okCell := ParseAmount(cell)
		wantNum, okWant := ParseAmount(cond.Value)
		if !okCell || !okWant {
			return false
		}
		switch cond.Operator {
		case ">":
			return cellNum > wantNum
		case "<":
			return cellNum < wantNum
		case ">=":
			return cellNum >= wantNum
		default:
			return cellNum <= wantNum
		}
	default:
		return false
	}
}

// Summary aggregates the monetary column over a set of records. Count
// is the record count; non-numeric amounts contribute 0 to the total
// and are still counted in the average denominator.
type Summary struct {
	Count            int     `json:"total_facturas"`
	Total            float64 `json:"-"`
	Average          float64 `json:"-"`
	TotalFormatted   string  `json:"monto_total"`
	AverageFormatted string  `json:"monto_promedio"`
}

// Summarize computes the dashboard summary over the given view, which
// is the filtered view at the call sites that render one.
func Summarize(records []Record, columns []string) Summary {
	sum := Summary{Count: len(records)}
	amountCol := AmountColumn(columns)
	if amountCol != "" && len(records) > 0 {
		for _, rec := range records {
			v, _ := ParseAmount(rec.Values[amountCol])
			sum.Total += v
		}
		sum.Average = sum.Total / float64(len(records))
	}
	sum.Total = round2(sum.Total)
	sum.Average = round2(sum.Average)
	sum.TotalFormatted = FormatMoney(sum.Total)
	sum.AverageFormatted = FormatMoney(sum.Average)
	return sum
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
