// Package cache skips re-scanning targets whose content has not changed.
//
// A record is keyed by target identity and standard and carries a staleness
// key: the SHA-256 digest of the target's content at scan time. Any mismatch
// or unreadable record is a miss; cache failures never reach the caller.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/mrz1836/ally/internal/constants"
	"github.com/mrz1836/ally/internal/domain"
	allyerrors "github.com/mrz1836/ally/internal/errors"
	"github.com/mrz1836/ally/internal/logging"
	"github.com/mrz1836/ally/internal/metrics"
)

// record is the persisted cache entry.
type record struct {
	Version      int               `json:"version"`
	Target       string            `json:"target"`
	Standard     domain.Standard   `json:"standard"`
	StalenessKey string            `json:"staleness_key"`
	Result       domain.ScanResult `json:"result"`
}

// Stats counts cache traffic for one Cache.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Writes      int64 `json:"writes"`
	WriteErrors int64 `json:"write_errors"`
}

// Options configures a Cache.
type Options struct {
	Stamper *Stamper
	Logger  zerolog.Logger
	Metrics *metrics.Recorder
}

// Cache looks up and stores scan results.
type Cache struct {
	store   Store
	stamper *Stamper
	logger  zerolog.Logger
	metrics *metrics.Recorder

	// pending holds staleness keys computed on a miss so Put stores the key
	// of the content that was actually scanned.
	pending sync.Map

	hits, misses, writes, writeErrors atomic.Int64
}

// New creates a Cache over store.
func New(store Store, opts Options) *Cache {
	stamper := opts.Stamper
	if stamper == nil {
		stamper = &Stamper{URLPolicy: URLPolicySkip}
	}
	return &Cache{
		store:   store,
		stamper: stamper,
		logger:  opts.Logger.With().Str("component", "cache").Logger(),
		metrics: opts.Metrics,
	}
}

// Key returns the storage key for a target under a standard.
func Key(target string, std domain.Standard) string {
	sum := sha256.Sum256([]byte(target + "|" + string(std)))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result when the target is unchanged since it was stored.
func (c *Cache) Get(ctx context.Context, t domain.Target, std domain.Standard) (*domain.ScanResult, bool) {
	result, reason := c.lookup(ctx, t, std)
	if result == nil {
		c.misses.Add(1)
		c.metrics.CacheMiss()
		c.logger.Debug().Str("target", logging.SafeURL(t.ID)).Str("reason", reason).Msg("cache miss")
		return nil, false
	}
	c.hits.Add(1)
	c.metrics.CacheHit()
	c.logger.Debug().Str("target", logging.SafeURL(t.ID)).Msg("cache hit")
	return result, true
}

func (c *Cache) lookup(ctx context.Context, t domain.Target, std domain.Standard) (*domain.ScanResult, string) {
	if !t.Cacheable() {
		return nil, "not cacheable"
	}

	stale, ok, err := c.stamper.Key(ctx, t)
	if err != nil {
		return nil, "staleness: " + err.Error()
	}
	if !ok {
		return nil, "url policy skip"
	}

	key := Key(t.ID, std)
	c.pending.Store(key, stale)

	data, err := c.store.Load(key)
	if errors.Is(err, allyerrors.ErrCacheMiss) {
		return nil, "absent"
	}
	if err != nil {
		return nil, "load: " + err.Error()
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, allyerrors.ErrCacheCorrupt.Error()
	}
	switch {
	case rec.Version != constants.CacheSchemaVersion:
		return nil, "version mismatch"
	case rec.Target != t.ID || rec.Standard != std:
		return nil, "identity mismatch"
	case rec.StalenessKey != stale:
		return nil, "content changed"
	}
	if err := rec.Result.Validate(); err != nil {
		return nil, allyerrors.ErrCacheCorrupt.Error()
	}
	return &rec.Result, ""
}

// Put stores result unconditionally. Write failures are logged and dropped.
func (c *Cache) Put(ctx context.Context, t domain.Target, std domain.Standard, result domain.ScanResult) {
	if !t.Cacheable() {
		return
	}

	key := Key(t.ID, std)
	var stale string
	if v, ok := c.pending.LoadAndDelete(key); ok {
		stale, _ = v.(string)
	} else {
		s, ok, err := c.stamper.Key(ctx, t)
		if err != nil || !ok {
			return
		}
		stale = s
	}

	data, err := json.Marshal(record{
		Version:      constants.CacheSchemaVersion,
		Target:       t.ID,
		Standard:     std,
		StalenessKey: stale,
		Result:       result,
	})
	if err == nil {
		err = c.store.Save(key, data)
	}
	if err != nil {
		c.writeErrors.Add(1)
		c.logger.Warn().Err(err).Str("target", logging.SafeURL(t.ID)).Msg("cache write failed")
		return
	}
	c.writes.Add(1)
}

// Clear removes every cached record.
func (c *Cache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.pending.Clear()
	return c.store.Clear()
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Writes:      c.writes.Load(),
		WriteErrors: c.writeErrors.Load(),
	}
}
