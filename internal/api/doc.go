// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

/*
Package api serves the operations endpoints of the watch daemon.

Routes, built on the Chi router:

	GET /healthz           {"status":"ok","sessions":N}
	GET /metrics           Prometheus exposition
	GET /api/v1/sessions   joined race rooms, sorted by endpoint

The router takes a SessionLister rather than a racetime.Client so tests can
serve fixed session lists.

Middleware, applied to every route in order:

  - RequestIDWithLogging: X-Request-ID header plus a correlation ID on the
    logging context
  - chi RealIP and Recoverer
  - go-chi/cors with the configured origins
  - go-chi/httprate per-IP limiting (disabled when the limit is 0)
  - APISecurityHeaders on /api/v1
*/
package api
