// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package ad

import (
	"strings"
	"sync"
	"time"
)

// resolvedCreative is an ad creative resolved from VAST and cached for
// later segment URL resolution.
type resolvedCreative struct {
	url      string
	duration float64
	isHLS    bool
	tracking *TrackingInfo
	addedAt  time.Time
}

const creativeCacheMaxEntries = 10000

// creativeCache maps "sessionID:break-N-seg-M.ts" keys to resolved
// creatives. Entries expire by sweep and the cache is capped to bound
// memory on busy servers.
type creativeCache struct {
	mu      sync.Mutex
	entries map[string]resolvedCreative
}

func newCreativeCache() *creativeCache {
	return &creativeCache{entries: make(map[string]resolvedCreative)}
}

func (c *creativeCache) put(key string, rc resolvedCreative) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= creativeCacheMaxEntries {
		c.evictOldestLocked()
	}
	rc.addedAt = time.Now()
	c.entries[key] = rc
}

// lookupBySuffix finds a creative across all sessions by ad name.
// Ad names include break and segment indices, making them unique enough.
func (c *creativeCache) lookupBySuffix(adName string) (resolvedCreative, bool) {
	suffix := ":" + adName
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, rc := range c.entries {
		if strings.HasSuffix(key, suffix) {
			return rc, true
		}
	}
	return resolvedCreative{}, false
}

// sweep drops entries older than maxAge and returns how many were removed.
func (c *creativeCache) sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, rc := range c.entries {
		if rc.addedAt.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *creativeCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *creativeCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, rc := range c.entries {
		if oldestKey == "" || rc.addedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = rc.addedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
