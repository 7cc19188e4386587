// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

/*
Package cache provides a thread-safe in-memory cache with a freshness window.

The race snapshot cache in package racetime is built on it: an entry is
returned only while its age is strictly below the configured window, and a
new Set replaces the entry as a whole.

The time source is injectable with WithClock so freshness boundaries can be
tested without sleeping:

	now := time.Now()
	c := cache.New[string](30*time.Second, cache.WithClock(func() time.Time { return now }))
	c.Set("k", "v")
	now = now.Add(30 * time.Second)
	_, ok := c.Get("k") // false: age == window is stale
*/
package cache
