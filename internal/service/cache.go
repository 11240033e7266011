package service

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"sync"
	"time"

	"link_auditor/internal/domain/models"
	"link_auditor/internal/pkg/metrics"
)

const DefaultCacheTTL = 24 * time.Hour

type cacheEntry struct {
	outcome   models.FetchOutcome
	expiresAt time.Time
}

// ResultCache memoizes probe outcomes by URL for a bounded TTL. Only the audit
// coordinator writes to it; the lock exists so status readers can call Len.
type ResultCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

// NewResultCache builds a cache. A nil clock means time.Now.
func NewResultCache(ttl time.Duration, now func() time.Time) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &ResultCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// CacheKey is the stable digest a normalized URL is stored under.
func CacheKey(url string) string {
	h := sha256.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a copy of the outcome for url unless it is absent or expired.
func (c *ResultCache) Get(url string) (models.FetchOutcome, bool) {
	c.mu.RLock()
	ent, ok := c.entries[CacheKey(url)]
	c.mu.RUnlock()

	if !ok || !c.now().Before(ent.expiresAt) {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return models.FetchOutcome{}, false
	}
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	out := ent.outcome
	out.RedirectChain = slices.Clone(out.RedirectChain)
	return out, true
}

// Put stores outcome for url, overwriting any previous entry.
func (c *ResultCache) Put(url string, outcome models.FetchOutcome) {
	outcome.RedirectChain = slices.Clone(outcome.RedirectChain)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[CacheKey(url)] = cacheEntry{
		outcome:   outcome,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Purge evicts expired entries and returns how many were removed.
func (c *ResultCache) Purge() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, ent := range c.entries {
		if !now.Before(ent.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len counts stored entries, expired ones included until purged.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
