// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package session tracks playback sessions across requests.
// Two store backends exist: an in-memory map and Redis/Valkey.
package session

import (
	"context"
	"encoding/json"
	"time"
)

// Session is the per-viewer state kept between playlist and segment
// requests. Times serialize as epoch seconds so that stored sessions
// stay readable across store backends.
type Session struct {
	ID           string
	OriginURL    string
	CreatedAt    time.Time
	LastAccessed time.Time
}

type sessionJSON struct {
	ID           string `json:"session_id"`
	OriginURL    string `json:"origin_url"`
	CreatedAt    int64  `json:"created_at_epoch_s"`
	LastAccessed int64  `json:"last_accessed_epoch_s"`
}

func (s Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionJSON{
		ID:           s.ID,
		OriginURL:    s.OriginURL,
		CreatedAt:    s.CreatedAt.Unix(),
		LastAccessed: s.LastAccessed.Unix(),
	})
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var sj sessionJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return err
	}
	s.ID = sj.ID
	s.OriginURL = sj.OriginURL
	s.CreatedAt = time.Unix(sj.CreatedAt, 0).UTC()
	s.LastAccessed = time.Unix(sj.LastAccessed, 0).UTC()
	return nil
}

// Store is the session backend. All methods are safe for concurrent use.
type Store interface {
	// GetOrCreate returns the session with the given id, creating it
	// with originURL if it does not exist.
	GetOrCreate(ctx context.Context, id, originURL string) (Session, error)
	// Get returns the session or ok=false when absent.
	Get(ctx context.Context, id string) (Session, bool, error)
	// Touch updates the last-accessed time. Missing sessions are ignored.
	Touch(ctx context.Context, id string) error
	// Remove deletes the session and returns it if it existed.
	Remove(ctx context.Context, id string) (Session, bool, error)
	// CleanupExpired drops sessions idle longer than the TTL.
	// A no-op for backends with native expiry.
	CleanupExpired(ctx context.Context) error
	// Count returns the number of active sessions.
	Count(ctx context.Context) (int, error)
}
