// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package lists persists user-curated autocomplete lists, keyed by
// column name. Options served to the editor merge the saved lists with
// the distinct values currently present in the staged data.
package lists

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/AleutianAI/tabular/services/dataset"
)

// Store is a mutex-guarded, file-backed map of column name to sorted
// autocomplete values.
type Store struct {
	mu    sync.Mutex
	path  string
	lists map[string][]string
}

// NewStore opens (or initializes) the lists file at path. A missing
// file starts the store empty.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, lists: map[string][]string{}}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lists file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.lists); err != nil {
		return nil, fmt.Errorf("%w: lists file %s: %v", dataset.ErrParse, path, err)
	}
	return s, nil
}

// Saved returns a copy of the persisted lists.
func (s *Store) Saved() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string, len(s.lists))
	for col, vals := range s.lists {
		out[col] = append([]string(nil), vals...)
	}
	return out
}

// Replace overwrites all saved lists with the given document.
func (s *Store) Replace(lists map[string][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = make(map[string][]string, len(lists))
	for col, vals := range lists {
		s.lists[col] = append([]string(nil), vals...)
	}
	return s.persist()
}

// ImportColumn merges the distinct, trimmed, non-empty values of the
// given staged column into that column's saved list. Returns how many
// distinct values the column contributed. An unknown column is
// ErrNotFound; a column with no usable values is ErrInvalidArgument.
func (s *Store) ImportColumn(staging *dataset.Staging, column string) (int, error) {
	if !staging.HasColumn(column) {
		return 0, fmt.Errorf("%w: column %q", dataset.ErrNotFound, column)
	}

	incoming := distinctValues(staging, column)
	if len(incoming) == 0 {
		return 0, fmt.Errorf("%w: column %q has no values to import", dataset.ErrInvalidArgument, column)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := map[string]bool{}
	for _, v := range s.lists[column] {
		merged[v] = true
	}
	for _, v := range incoming {
		merged[v] = true
	}
	s.lists[column] = sortedKeys(merged)
	return len(incoming), s.persist()
}

// Options returns the autocomplete options for every staged column:
// the saved list for that column merged with the values currently in
// the data, sorted.
func (s *Store) Options(staging *dataset.Staging) map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]string, len(staging.Columns))
	for _, col := range staging.Columns {
		merged := map[string]bool{}
		for _, v := range s.lists[col] {
			merged[v] = true
		}
		for _, v := range distinctValues(staging, col) {
			merged[v] = true
		}
		out[col] = sortedKeys(merged)
	}
	return out
}

func distinctValues(staging *dataset.Staging, column string) []string {
	seen := map[string]bool{}
	for i := range staging.Records {
		v := strings.TrimSpace(staging.Records[i].Values[column])
		if v == "" || v == "nan" || v == "None" {
			continue
		}
		seen[v] = true
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// persist writes the document atomically. Callers must hold s.mu.
func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.lists, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal lists: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".lists-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp lists file: %w", err)
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
		return fmt.Errorf("write lists file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync lists file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close lists file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename lists file: %w", err)
	}
	success = true
	return nil
}
