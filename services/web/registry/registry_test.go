// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tabular/services/dataset"
)

func testEngine() *dataset.Engine {
	staging := dataset.NewStaging(
		[]string{"Vendor Name"},
		[]map[string]string{{"Vendor Name": "Amazon"}},
		"",
	)
	return dataset.NewEngine(staging, dataset.NewHistory(), dataset.StaticRules{})
}

func TestCreateAndGet(t *testing.T) {
	r := New()
	fileID := r.Create("sess-1", testEngine())
	require.NotEmpty(t, fileID)

	s, ok := r.Get("sess-1")
	require.True(t, ok)
	assert.Equal(t, fileID, s.FileID)
	assert.Equal(t, 1, r.Len())

	_, ok = r.Get("sess-2")
	assert.False(t, ok)
}

func TestCreateReplacesExistingSession(t *testing.T) {
	r := New()
	first := r.Create("sess-1", testEngine())
	second := r.Create("sess-1", testEngine())
	assert.NotEqual(t, first, second)

	s, ok := r.Get("sess-1")
	require.True(t, ok)
	assert.Equal(t, second, s.FileID)
	assert.Equal(t, 1, r.Len())
}

func TestDelete(t *testing.T) {
	r := New()
	r.Create("sess-1", testEngine())
	r.Delete("sess-1")
	_, ok := r.Get("sess-1")
	assert.False(t, ok)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := New(
		WithTTL(time.Hour),
		WithClock(func() time.Time { return current }),
	)

	r.Create("old", testEngine())
	current = current.Add(30 * time.Minute)
	r.Create("fresh", testEngine())

	current = current.Add(45 * time.Minute)
	removed := r.Sweep()
	assert.Equal(t, 1, removed)

	_, ok := r.Get("old")
	assert.False(t, ok)
	_, ok = r.Get("fresh")
	assert.True(t, ok)
}

func TestGetRefreshesIdleTimer(t *testing.T) {
	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := New(
		WithTTL(time.Hour),
		WithClock(func() time.Time { return current }),
	)
	r.Create("sess-1", testEngine())

	current = current.Add(55 * time.Minute)
	_, ok := r.Get("sess-1")
	require.True(t, ok)

	current = current.Add(30 * time.Minute)
	assert.Equal(t, 0, r.Sweep(), "access 30 minutes ago keeps the session alive")
}
