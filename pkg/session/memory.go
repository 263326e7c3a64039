// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a mutex-guarded map. The default
// backend when no Redis URL is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
	}
}

func (m *MemoryStore) GetOrCreate(_ context.Context, id, originURL string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	now := time.Now()
	s := Session{
		ID:           id,
		OriginURL:    originURL,
		CreatedAt:    now,
		LastAccessed: now,
	}
	m.sessions[id] = s
	return s, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok, nil
}

func (m *MemoryStore) Touch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.LastAccessed = time.Now()
		m.sessions[id] = s
	}
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, id string) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	return s, ok, nil
}

func (m *MemoryStore) CleanupExpired(_ context.Context) error {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if now.Sub(s.LastAccessed) >= m.ttl {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}
