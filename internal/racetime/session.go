// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

/*
session.go - Race Room Socket Session

A Session owns one websocket to a race room endpoint and moves through three
states:

	NOT_READY --(open + queue flushed)--> READY
	READY     --(close code > 1000)-----> NOT_READY (registry reconnects)
	any       --(close code <= 1000)----> CLOSED
	any       --(Close, local fault)----> CLOSED

Actions sent while NOT_READY are queued and written in order before the
session turns READY. The session mutex is held across the flush so that a
concurrent Send cannot overtake a queued action.

Keepalive: a ping control frame every PingInterval; each pong or inbound
frame pushes the read deadline ReadTimeout into the future.
*/

//nolint:staticcheck // File documentation, not package doc
package racetime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/raceroom/internal/logging"
	"github.com/tomtom215/raceroom/internal/metrics"
	"github.com/tomtom215/raceroom/internal/models"
)

// writeWait bounds a single socket write when the caller set no deadline.
const writeWait = 10 * time.Second

// SessionState is the lifecycle state of a Session.
type SessionState int

// Session states.
const (
	StateNotReady SessionState = iota
	StateReady
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateNotReady:
		return "not_ready"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SessionInfo is a point-in-time description of a session.
type SessionInfo struct {
	Endpoint    string     `json:"endpoint"`
	State       string     `json:"state"`
	Queued      int        `json:"queued"`
	Reconnects  int        `json:"reconnects"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
}

// closeInfo describes how a connection ended. local marks closures this
// client initiated.
type closeInfo struct {
	code   int
	reason string
	local  bool
}

func (i closeInfo) abnormal() bool {
	return i.code > websocket.CloseNormalClosure && !i.local
}

// sessionConfig carries everything a session needs from its client.
type sessionConfig struct {
	endpoint             string
	creds                *CredentialManager
	dialer               *websocket.Dialer
	emitter              *Emitter
	now                  func() time.Time
	queueLimit           int // 0 = unbounded
	pingInterval         time.Duration
	readTimeout          time.Duration
	joinTimeout          time.Duration
	reconnectDelay       time.Duration
	reconnectMaxDelay    time.Duration
	maxReconnectAttempts int // 0 = unlimited
	onRaceData           func(models.RaceDetails)
}

// outbound is an encoded action waiting to be written.
type outbound struct {
	action  string
	payload []byte
}

// liveConn is one established websocket. done is closed when the
// connection is torn down and stops its ping loop.
type liveConn struct {
	ws       *websocket.Conn
	done     chan struct{}
	stopOnce sync.Once
}

func (c *liveConn) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// Session is a race room connection. Sessions are created, looked up and
// removed only by a Registry.
type Session struct {
	cfg sessionConfig

	// onClose is installed by the registry. It returns the function that
	// schedules a reconnect, or nil when none will be attempted.
	onClose func(*Session, closeInfo) func()

	mu          sync.Mutex
	state       SessionState
	conn        *liveConn
	queue       []outbound
	connectedAt time.Time
	reconnects  int
	attempts    int // consecutive reconnect attempts since the last open
	backoff     time.Duration

	writeMu sync.Mutex
}

func newSession(cfg sessionConfig) *Session {
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return &Session{cfg: cfg, state: StateNotReady}
}

// Endpoint returns the socket URL identifying the session.
func (s *Session) Endpoint() string {
	return s.cfg.endpoint
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Info returns a snapshot of the session for reporting.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := SessionInfo{
		Endpoint:   s.cfg.endpoint,
		State:      s.state.String(),
		Queued:     len(s.queue),
		Reconnects: s.reconnects,
	}
	if s.state == StateReady {
		at := s.connectedAt
		info.ConnectedAt = &at
	}
	return info
}

// connect dials the endpoint, flushes the queue and starts the read and
// ping loops. It is used for the first join and for every reconnect.
func (s *Session) connect(ctx context.Context) error {
	if s.State() == StateClosed {
		return ErrSessionClosed
	}

	cred, err := s.cfg.creds.EnsureValid(ctx)
	if err != nil {
		terr := &TransportError{Endpoint: s.cfg.endpoint, Op: "authorize", Err: err}
		metrics.RecordRoomConnect(terr)
		return terr
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cred.AccessToken)

	logging.Info().Str("endpoint", s.cfg.endpoint).Msg("Connecting to race room")

	ws, resp, err := s.cfg.dialer.DialContext(ctx, s.cfg.endpoint, header)
	if resp != nil && resp.Body != nil {
		if cerr := resp.Body.Close(); cerr != nil {
			logging.Debug().Err(cerr).Msg("Failed to close handshake response body")
		}
	}
	if err != nil {
		terr := &TransportError{Endpoint: s.cfg.endpoint, Op: "dial", Err: err}
		if resp != nil {
			terr.StatusCode = resp.StatusCode
			if resp.StatusCode == http.StatusUnauthorized {
				s.cfg.creds.Invalidate()
			}
		}
		return s.connectFailed(terr)
	}

	lc := &liveConn{ws: ws, done: make(chan struct{})}
	readTimeout := s.cfg.readTimeout
	if err := ws.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		logging.Debug().Err(err).Msg("Failed to set read deadline")
	}
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		_ = ws.Close()
		return ErrSessionClosed
	}

	s.writeMu.Lock()
	flushed := 0
	var werr error
	for _, out := range s.queue {
		if werr = writeFrame(ws, out, time.Now().Add(writeWait)); werr != nil {
			break
		}
		flushed++
	}
	s.writeMu.Unlock()

	s.queue = s.queue[flushed:]
	metrics.RoomActionsQueued.Sub(float64(flushed))
	if werr != nil {
		s.mu.Unlock()
		_ = ws.Close()
		return s.connectFailed(&TransportError{Endpoint: s.cfg.endpoint, Op: "write", Err: werr})
	}

	s.queue = nil
	s.conn = lc
	s.state = StateReady
	s.connectedAt = s.cfg.now()
	s.attempts = 0
	s.backoff = 0
	s.mu.Unlock()

	metrics.RecordRoomConnect(nil)
	logging.Info().Str("endpoint", s.cfg.endpoint).Int("flushed", flushed).Msg("Race room ready")
	s.emit(ReadyEvent{Meta: s.meta()})

	go s.readLoop(lc)
	go s.pingLoop(lc)

	return nil
}

func (s *Session) connectFailed(terr *TransportError) error {
	metrics.RecordRoomConnect(terr)
	logging.Warn().Err(terr).Str("endpoint", s.cfg.endpoint).Msg("Race room connection failed")
	s.emit(SocketErrorEvent{Meta: s.meta(), Err: terr, Message: terr.Error()})
	return terr
}

// Send writes action when the session is READY and queues it while the
// session is NOT_READY.
func (s *Session) Send(ctx context.Context, action Action) error {
	payload, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("encode %s action: %w", action.Action, err)
	}
	out := outbound{action: action.Action, payload: payload}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return ErrSessionClosed
	case StateNotReady:
		if s.cfg.queueLimit > 0 && len(s.queue) >= s.cfg.queueLimit {
			return ErrQueueFull
		}
		s.queue = append(s.queue, out)
		metrics.RoomActionsQueued.Inc()
		logging.Debug().Str("endpoint", s.cfg.endpoint).Str("action", action.Action).Int("queued", len(s.queue)).Msg("Queued action until room is ready")
		return nil
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	s.writeMu.Lock()
	err = writeFrame(s.conn.ws, out, deadline)
	s.writeMu.Unlock()
	if err != nil {
		// The read loop sees the broken socket and reports the closure.
		_ = s.conn.ws.Close()
		return &TransportError{Endpoint: s.cfg.endpoint, Op: "write", Err: err}
	}
	return nil
}

// writeFrame must be called with writeMu held.
func writeFrame(ws *websocket.Conn, out outbound, deadline time.Time) error {
	if err := ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := ws.WriteMessage(websocket.TextMessage, out.payload); err != nil {
		return err
	}
	metrics.RoomActionsSent.WithLabelValues(out.action).Inc()
	return nil
}

// HandleFrame decodes one inbound frame and emits its event. Malformed
// frames return *DecodeError and are reported as a SocketErrorEvent;
// unknown types return *UnknownMessageKindError and emit nothing.
func (s *Session) HandleFrame(data []byte) error {
	ev, err := decodeFrame(s.cfg.endpoint, s.cfg.now(), data)
	if err != nil {
		var unknown *UnknownMessageKindError
		if errors.As(err, &unknown) {
			metrics.RoomFrameErrors.WithLabelValues("unknown_type").Inc()
			logging.Error().Err(err).Str("endpoint", s.cfg.endpoint).Str("type", unknown.Type).Msg("Unknown race room message type")
			return err
		}
		metrics.RoomFrameErrors.WithLabelValues("malformed").Inc()
		logging.Warn().Err(err).Str("endpoint", s.cfg.endpoint).Msg("Malformed race room frame")
		s.emit(SocketErrorEvent{Meta: s.meta(), Err: err, Message: err.Error()})
		return err
	}

	if ev == nil {
		metrics.RoomFramesReceived.WithLabelValues("ignored").Inc()
		return nil
	}
	metrics.RoomFramesReceived.WithLabelValues(string(ev.Kind())).Inc()

	switch e := ev.(type) {
	case RaceDataEvent:
		if s.cfg.onRaceData != nil {
			s.cfg.onRaceData(e.Race)
		}
	case ServerErrorEvent:
		perr := &ProtocolError{Endpoint: s.cfg.endpoint, Errors: e.Errors}
		logging.Warn().Err(perr).Str("endpoint", s.cfg.endpoint).Msg("Race room reported errors")
	}

	s.emit(ev)
	return nil
}

func (s *Session) readLoop(lc *liveConn) {
	defer lc.stop()

	for {
		_, data, err := lc.ws.ReadMessage()
		if err != nil {
			s.disconnected(lc, closeInfoFromError(err))
			return
		}
		if err := lc.ws.SetReadDeadline(time.Now().Add(s.cfg.readTimeout)); err != nil {
			logging.Debug().Err(err).Msg("Failed to set read deadline")
		}

		if err := s.HandleFrame(data); err != nil {
			var unknown *UnknownMessageKindError
			if errors.As(err, &unknown) {
				s.terminate(lc, websocket.CloseUnsupportedData, "unsupported message type")
				return
			}
		}
	}
}

func closeInfoFromError(err error) closeInfo {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeInfo{code: closeErr.Code, reason: closeErr.Text}
	}
	return closeInfo{code: websocket.CloseAbnormalClosure, reason: err.Error()}
}

// pingLoop sends periodic ping control frames
func (s *Session) pingLoop(lc *liveConn) {
	ticker := time.NewTicker(s.cfg.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-lc.done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := lc.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			s.writeMu.Unlock()

			if err != nil {
				logging.Info().Err(err).Str("endpoint", s.cfg.endpoint).Msg("Keep-alive failed")
				_ = lc.ws.Close()
				return
			}
		}
	}
}

// terminate closes lc from this side. The session is not reconnected.
func (s *Session) terminate(lc *liveConn, code int, reason string) {
	s.writeMu.Lock()
	if err := lc.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(1*time.Second),
	); err != nil {
		logging.Debug().Err(err).Msg("Failed to send close message")
	}
	s.writeMu.Unlock()

	s.disconnected(lc, closeInfo{code: code, reason: reason, local: true})
}

// disconnected handles the end of lc. Closures of a connection that is no
// longer current are ignored.
func (s *Session) disconnected(lc *liveConn, info closeInfo) {
	s.mu.Lock()
	if s.conn != lc {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	if info.abnormal() {
		s.state = StateNotReady
	} else {
		s.closeLocked()
	}
	s.mu.Unlock()

	lc.stop()
	_ = lc.ws.Close()

	switch {
	case info.local && info.code != websocket.CloseNormalClosure:
		metrics.RecordRoomClose("fault")
	case info.abnormal():
		metrics.RecordRoomClose("abnormal")
	default:
		metrics.RecordRoomClose("normal")
	}
	logging.Info().Str("endpoint", s.cfg.endpoint).Int("code", info.code).Str("reason", info.reason).Msg("Race room connection closed")

	s.afterClose(info)
}

// afterClose lets the registry decide on a reconnect, reports the closure
// and then starts the reconnect, so CloseEvent always precedes the next
// ReadyEvent.
func (s *Session) afterClose(info closeInfo) {
	var schedule func()
	if s.onClose != nil {
		schedule = s.onClose(s, info)
	}
	if info.abnormal() && schedule == nil {
		s.abandon()
	}

	s.emit(CloseEvent{
		Meta:      s.meta(),
		Code:      info.code,
		Reason:    info.reason,
		Reconnect: schedule != nil,
	})

	if schedule != nil {
		schedule()
	}
}

// Close closes the connection normally and drops any queued actions.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	lc := s.conn
	s.conn = nil
	s.closeLocked()
	s.mu.Unlock()

	if lc != nil {
		s.writeMu.Lock()
		if err := lc.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(1*time.Second),
		); err != nil {
			logging.Debug().Err(err).Msg("Failed to send close message")
		}
		s.writeMu.Unlock()
		lc.stop()
		_ = lc.ws.Close()
	}

	metrics.RecordRoomClose("normal")
	logging.Info().Str("endpoint", s.cfg.endpoint).Msg("Left race room")
	s.afterClose(closeInfo{code: websocket.CloseNormalClosure, reason: "client closed", local: true})
	return nil
}

// abandon marks the session CLOSED without touching a connection. It is
// used when no reconnect will follow a failure.
func (s *Session) abandon() {
	s.mu.Lock()
	s.closeLocked()
	s.mu.Unlock()
}

func (s *Session) closeLocked() {
	s.state = StateClosed
	if n := len(s.queue); n > 0 {
		metrics.RoomActionsQueued.Sub(float64(n))
		logging.Warn().Str("endpoint", s.cfg.endpoint).Int("dropped", n).Msg("Dropping queued actions of closed room")
	}
	s.queue = nil
}

// nextBackoff returns the delay before the next reconnect attempt and the
// attempt number. The delay starts at reconnectDelay and doubles up to
// reconnectMaxDelay.
func (s *Session) nextBackoff() (time.Duration, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts++
	if s.backoff == 0 {
		s.backoff = s.cfg.reconnectDelay
	} else {
		s.backoff *= 2
	}
	if s.cfg.reconnectMaxDelay > 0 && s.backoff > s.cfg.reconnectMaxDelay {
		s.backoff = s.cfg.reconnectMaxDelay
	}
	return s.backoff, s.attempts
}

func (s *Session) reconnected() {
	s.mu.Lock()
	s.reconnects++
	s.mu.Unlock()
}

func (s *Session) meta() Meta {
	return Meta{Endpoint: s.cfg.endpoint, At: s.cfg.now()}
}

func (s *Session) emit(ev Event) {
	if s.cfg.emitter != nil {
		s.cfg.emitter.Emit(ev)
	}
}
