// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package registry holds per-browser editing sessions in memory. Each
// session owns one staged dataset and is serialized by its own mutex;
// the registry itself is guarded by a read-write lock. Idle sessions
// are evicted by a background sweeper.
package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/tabular/services/dataset"
	"github.com/AleutianAI/tabular/services/ingest"
)

// DefaultTTL is how long a session may sit idle before the sweeper
// removes it.
const DefaultTTL = 2 * time.Hour

// Session is one browser's staged dataset and its change history.
// Callers must hold the session mutex while touching Engine or Audit.
type Session struct {
	sync.Mutex

	// FileID identifies the upload this session is editing. Requests
	// carrying a stale FileID are rejected.
	FileID string

	Engine *dataset.Engine
	Audit  []ingest.AuditEntry

	lastAccess time.Time
}

// Registry maps session IDs to sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithTTL overrides the idle eviction window.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) { r.ttl = ttl }
}

// WithClock injects a time source, used by tests to control eviction.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func New(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create replaces the session under sessionID with a fresh one for the
// given engine, returning the new upload's file ID.
func (r *Registry) Create(sessionID string, engine *dataset.Engine) string {
	fileID := uuid.NewString()
	s := &Session{
		FileID:     fileID,
		Engine:     engine,
		lastAccess: r.now(),
	}

	r.mu.Lock()
	r.sessions[sessionID] = s
	r.mu.Unlock()

	slog.Info("session created", "session_id", sessionID, "file_id", fileID)
	return fileID
}

// Get returns the session for sessionID and refreshes its idle timer.
func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	s.Lock()
	s.lastAccess = r.now()
	s.Unlock()
	return s, true
}

// Delete drops the session for sessionID, if any.
func (r *Registry) Delete(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// Len reports how many sessions are live.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle longer than the TTL and reports how many
// were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		s.Lock()
		idle := s.lastAccess.Before(cutoff)
		s.Unlock()
		if idle {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("swept idle sessions", "removed", removed, "remaining", len(r.sessions))
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until ctx is done.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}
