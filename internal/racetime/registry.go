// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package racetime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/raceroom/internal/logging"
	"github.com/tomtom215/raceroom/internal/metrics"
)

// Registry holds at most one session per endpoint and owns their
// reconnection. A Registry belongs to the Client it is given to.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool

	// ctx bounds reconnect attempts and is cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		sessions: make(map[string]*Session),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Join connects a session for endpoint unless one is already registered, in
// which case it returns nil at once. newSession is called only when a session
// must be created. The first connect is bounded by the session's join
// timeout; when it fails the session is removed and a *TransportError is
// returned.
func (r *Registry) Join(ctx context.Context, endpoint string, newSession func() *Session) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrSessionClosed
	}
	if _, ok := r.sessions[endpoint]; ok {
		r.mu.Unlock()
		return nil
	}
	s := newSession()
	s.onClose = r.handleClose
	r.sessions[endpoint] = s
	metrics.RoomSessionsActive.Inc()
	r.mu.Unlock()

	timeout := s.cfg.joinTimeout
	joinCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := s.connect(joinCtx)
	if err == nil {
		return nil
	}

	r.mu.Lock()
	r.removeLocked(s)
	r.mu.Unlock()
	s.abandon()

	if errors.Is(joinCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return &TransportError{Endpoint: endpoint, Op: "join", Err: fmt.Errorf("%w after %s: %w", ErrJoinTimeout, timeout, err)}
	}
	var terr *TransportError
	if errors.As(err, &terr) {
		return err
	}
	return &TransportError{Endpoint: endpoint, Op: "join", Err: err}
}

// Get returns the session registered for endpoint, or nil.
func (r *Registry) Get(endpoint string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[endpoint]
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// List describes every registered session, ordered by endpoint.
func (r *Registry) List() []SessionInfo {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Endpoint < infos[j].Endpoint })
	return infos
}

// Leave closes and removes the session for endpoint. It reports whether a
// session was registered.
func (r *Registry) Leave(endpoint string) bool {
	s := r.Get(endpoint)
	if s == nil {
		return false
	}
	_ = s.Close()
	return true
}

// Close closes every session, stops pending reconnects and waits for them.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	metrics.RoomSessionsActive.Sub(float64(len(sessions)))
	r.mu.Unlock()

	r.cancel()
	for _, s := range sessions {
		_ = s.Close()
	}
	r.wg.Wait()
}

// handleClose is installed as every session's onClose hook. Abnormal
// closures of a registered session schedule one reconnect; anything else
// unregisters the session.
func (r *Registry) handleClose(s *Session, info closeInfo) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[s.cfg.endpoint]; !ok || current != s {
		return nil
	}
	if !info.abnormal() || r.closed {
		r.removeLocked(s)
		return nil
	}

	delay, attempt := s.nextBackoff()
	if limit := s.cfg.maxReconnectAttempts; limit > 0 && attempt > limit {
		logging.Warn().Str("endpoint", s.cfg.endpoint).Int("attempts", limit).Msg("Giving up on race room after repeated failures")
		r.removeLocked(s)
		return nil
	}

	r.wg.Add(1)
	return func() {
		metrics.RoomReconnects.Inc()
		go r.reconnect(s, delay, attempt)
	}
}

func (r *Registry) reconnect(s *Session, delay time.Duration, attempt int) {
	defer r.wg.Done()

	logging.Info().Str("endpoint", s.cfg.endpoint).Dur("delay", delay).Int("attempt", attempt).Msg("Reconnecting to race room")

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-r.ctx.Done():
		s.abandon()
		return
	case <-timer.C:
	}

	ctx, cancel := context.WithTimeout(r.ctx, s.cfg.joinTimeout)
	defer cancel()

	err := s.connect(ctx)
	if err == nil {
		s.reconnected()
		return
	}
	if errors.Is(err, ErrSessionClosed) || r.ctx.Err() != nil {
		s.abandon()
		return
	}

	// A failed reconnect counts as another abnormal closure.
	s.afterClose(closeInfo{code: websocket.CloseAbnormalClosure, reason: err.Error()})
}

// removeLocked must be called with r.mu held.
func (r *Registry) removeLocked(s *Session) {
	if current, ok := r.sessions[s.cfg.endpoint]; ok && current == s {
		delete(r.sessions, s.cfg.endpoint)
		metrics.RoomSessionsActive.Dec()
	}
}
