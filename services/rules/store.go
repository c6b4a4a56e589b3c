// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package rules persists priority rules and evaluation settings as a
// single JSON document on disk. The Store satisfies dataset.RuleProvider,
// so recomputation always sees the latest saved state.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/AleutianAI/tabular/services/dataset"
)

// fileData is the on-disk document shape.
type fileData struct {
	Rules    []dataset.Rule   `json:"rules"`
	Settings dataset.Settings `json:"settings"`
}

// Store is a mutex-guarded, file-backed rule repository. Every mutation
// is written through to disk before returning.
type Store struct {
	mu   sync.Mutex
	path string
	data fileData
}

// NewStore opens (or initializes) the rules file at path. A missing file
// is not an error: the store starts with no rules and default settings,
// and the file is created on first save.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: fileData{Settings: dataset.DefaultSettings()},
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("rules file not found, starting with defaults", "path", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("%w: rules file %s: %v", dataset.ErrParse, path, err)
	}
	return s, nil
}

// Rules returns a copy of the saved rules in list order.
func (s *Store) Rules() []dataset.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dataset.Rule, len(s.data.Rules))
	copy(out, s.data.Rules)
	return out
}

// Settings returns the saved evaluation settings.
func (s *Store) Settings() dataset.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Settings
}

// SaveSettings overwrites the evaluation settings.
func (s *Store) SaveSettings(settings dataset.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Settings = settings
	return s.persist()
}

// SaveRule creates or updates a rule. A rule without an ID is new: it
// gets a generated ID and starts active. A rule with an ID replaces the
// existing rule of that ID, keeping its current active flag; an unknown
// ID is appended as-is. Returns the stored rule.
func (s *Store) SaveRule(rule dataset.Rule) (dataset.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rule.ID == "" {
		rule.ID = uuid.NewString()
		rule.Active = true
		s.data.Rules = append(s.data.Rules, rule)
		return rule, s.persist()
	}

	for i, existing := range s.data.Rules {
		if existing.ID == rule.ID {
			rule.Active = existing.Active
			s.data.Rules[i] = rule
			return rule, s.persist()
		}
	}
	s.data.Rules = append(s.data.Rules, rule)
	return rule, s.persist()
}

// DeleteRule removes the rule with the given ID.
func (s *Store) DeleteRule(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.data.Rules {
		if r.ID == id {
			s.data.Rules = append(s.data.Rules[:i], s.data.Rules[i+1:]...)
			return s.persist()
		}
	}
	return fmt.Errorf("%w: rule %s", dataset.ErrNotFound, id)
}

// ToggleRule sets the active flag of the rule with the given ID.
func (s *Store) ToggleRule(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Rules {
		if s.data.Rules[i].ID == id {
			s.data.Rules[i].Active = active
			return s.persist()
		}
	}
	return fmt.Errorf("%w: rule %s", dataset.ErrNotFound, id)
}

// ReplaceAll overwrites the full document, used when importing a saved
// view. Imported rules without IDs get generated ones.
func (s *Store) ReplaceAll(newRules []dataset.Rule, settings dataset.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range newRules {
		if newRules[i].ID == "" {
			newRules[i].ID = uuid.NewString()
		}
	}
	s.data = fileData{Rules: newRules, Settings: settings}
	return s.persist()
}

// persist writes the document atomically: temp file in the same
// directory, fsync, then rename. Callers must hold s.mu.
func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".rules-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp rules file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write rules file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync rules file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close rules file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename rules file: %w", err)
	}
	success = true
	return nil
}
