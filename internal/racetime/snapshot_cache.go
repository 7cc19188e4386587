// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package racetime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/raceroom/internal/cache"
	"github.com/tomtom215/raceroom/internal/logging"
	"github.com/tomtom215/raceroom/internal/metrics"
	"github.com/tomtom215/raceroom/internal/models"
)

// SnapshotCache is a read-through cache of race snapshots keyed by race URL.
//
// Snapshots handed out are shared between callers and must be treated as
// read-only.
type SnapshotCache struct {
	entries *cache.Cache[*models.RaceDetails]
	rest    *restClient
	creds   *CredentialManager
	now     func() time.Time
	flight  singleflight.Group
}

// NewSnapshotCache creates a cache whose entries stay fresh for ttl.
func NewSnapshotCache(rest *restClient, creds *CredentialManager, ttl time.Duration, now func() time.Time) *SnapshotCache {
	if now == nil {
		now = time.Now
	}
	return &SnapshotCache{
		entries: cache.New[*models.RaceDetails](ttl, cache.WithClock(now)),
		rest:    rest,
		creds:   creds,
		now:     now,
	}
}

// Get returns the snapshot for raceURL, fetching it when the cached entry is
// missing or stale. Concurrent misses for one race share a fetch that
// outlives any single caller's ctx. A race the server does not report, or
// whose body cannot be decoded, yields (nil, nil).
func (c *SnapshotCache) Get(ctx context.Context, raceURL string) (*models.RaceDetails, error) {
	key := racePath(raceURL)
	if race, ok := c.entries.Get(key); ok {
		metrics.RecordSnapshotLookup(true)
		return race, nil
	}
	metrics.RecordSnapshotLookup(false)

	ch := c.flight.DoChan(key, func() (any, error) {
		shared, cancel := detach(ctx, c.rest.http.Timeout)
		defer cancel()
		return c.fetch(shared, key)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for race snapshot %s: %w", key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.RaceDetails), nil
	}
}

// Refresh fetches the snapshot for raceURL regardless of freshness.
func (c *SnapshotCache) Refresh(ctx context.Context, raceURL string) (*models.RaceDetails, error) {
	return c.fetch(ctx, racePath(raceURL))
}

// Store replaces the cached snapshot of race with a copy of it.
func (c *SnapshotCache) Store(race models.RaceDetails) {
	if race.URL == "" {
		return
	}
	race.LastUpdated = c.now()
	c.entries.Set(racePath(race.URL), &race)
}

// Invalidate drops the cached snapshot for raceURL.
func (c *SnapshotCache) Invalidate(raceURL string) {
	c.entries.Delete(racePath(raceURL))
}

// Len returns the number of cached snapshots, fresh or not.
func (c *SnapshotCache) Len() int {
	return c.entries.Len()
}

func (c *SnapshotCache) fetch(ctx context.Context, key string) (*models.RaceDetails, error) {
	cred, err := c.creds.EnsureValid(ctx)
	if err != nil {
		metrics.SnapshotFetches.WithLabelValues("error").Inc()
		return nil, err
	}

	resp, err := c.rest.do(ctx, requestConfig{
		operation: "race_data",
		method:    http.MethodGet,
		path:      key + "/data",
		token:     cred.AccessToken,
	})
	if err != nil {
		metrics.SnapshotFetches.WithLabelValues("error").Inc()
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			c.creds.Invalidate()
		}
		metrics.SnapshotFetches.WithLabelValues("absent").Inc()
		logging.Debug().Str("race", key).Int("status", resp.StatusCode).Msg("Race snapshot not available")
		return nil, nil
	}

	var race models.RaceDetails
	if err := json.Unmarshal(resp.Body, &race); err != nil {
		metrics.SnapshotFetches.WithLabelValues("decode_error").Inc()
		decodeErr := &DecodeError{Source: key, Kind: "race", Err: err}
		logging.Warn().Err(decodeErr).Str("race", key).Msg("Discarding undecodable race snapshot")
		return nil, nil
	}

	race.LastUpdated = c.now()
	c.entries.Set(key, &race)
	metrics.SnapshotFetches.WithLabelValues("ok").Inc()
	return &race, nil
}

// racePath reduces a race URL to its path, "/{category}/{slug}". Absolute
// URLs are accepted.
func racePath(raceURL string) string {
	p := raceURL
	if u, err := url.Parse(raceURL); err == nil && u.Host != "" {
		p = u.Path
	}
	p = strings.TrimSuffix(p, "/")
	p = strings.TrimSuffix(p, "/data")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
