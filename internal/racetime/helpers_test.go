// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package racetime

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/raceroom/internal/config"
)

// ============================================================================
// Mock Race Service
// ============================================================================

// mockService simulates the race service: token endpoint, race and category
// data, race creation and bot room sockets.
type mockService struct {
	server   *httptest.Server
	upgrader websocket.Upgrader
	connChan chan *serverConn

	tokenCalls     atomic.Int32
	tokenStatus    atomic.Int32 // 0 = 200
	tokenExpiresIn atomic.Int64 // seconds, 0 = omitted
	tokenDelay     atomic.Int64 // nanoseconds
	dataDelay      atomic.Int64 // nanoseconds
	socketAttempts atomic.Int32
	rejectSockets  atomic.Bool

	mu             sync.Mutex
	bodies         map[string]mockBody
	fetches        map[string]int
	createStatus   int
	createLocation string
	createBody     string
	createForms    []url.Values
	socketPaths    []string
	socketAuth     []string
}

type mockBody struct {
	status int
	body   string
}

// serverConn is the server side of one accepted room socket.
type serverConn struct {
	*websocket.Conn
	path string
}

func newMockService(t *testing.T) *mockService {
	t.Helper()

	mock := &mockService{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		connChan:     make(chan *serverConn, 8),
		bodies:       make(map[string]mockBody),
		fetches:      make(map[string]int),
		createStatus: http.StatusCreated,
	}
	mock.tokenExpiresIn.Store(3600)

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	t.Cleanup(mock.server.Close)
	return mock
}

func (m *mockService) handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/o/token":
		m.handleToken(w, r)
	case strings.HasPrefix(r.URL.Path, "/ws/"):
		m.handleSocket(w, r)
	case strings.HasSuffix(r.URL.Path, "/startrace"):
		m.handleCreate(w, r)
	case strings.HasSuffix(r.URL.Path, "/data"):
		m.handleData(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (m *mockService) handleToken(w http.ResponseWriter, r *http.Request) {
	n := m.tokenCalls.Add(1)
	if d := m.tokenDelay.Load(); d > 0 {
		time.Sleep(time.Duration(d))
	}

	w.Header().Set("Content-Type", "application/json")

	if err := r.ParseForm(); err != nil ||
		r.PostForm.Get("grant_type") != "client_credentials" ||
		r.PostForm.Get("client_id") != "bot-id" ||
		r.PostForm.Get("client_secret") != "bot-secret" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
		return
	}
	if status := m.tokenStatus.Load(); status != 0 {
		w.WriteHeader(int(status))
		_, _ = w.Write([]byte(`{"error":"temporarily_unavailable"}`))
		return
	}

	body := map[string]any{
		"access_token": fmt.Sprintf("token-%d", n),
		"token_type":   "Bearer",
		"scope":        "read chat_message race_action",
	}
	if exp := m.tokenExpiresIn.Load(); exp > 0 {
		body["expires_in"] = exp
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (m *mockService) handleData(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer token-") {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if d := m.dataDelay.Load(); d > 0 {
		time.Sleep(time.Duration(d))
	}

	path := strings.TrimSuffix(r.URL.Path, "/data")

	m.mu.Lock()
	m.fetches[path]++
	resp, ok := m.bodies[path]
	m.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}

func (m *mockService) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.createForms = append(m.createForms, r.PostForm)
	status, location, body := m.createStatus, m.createLocation, m.createBody
	m.mu.Unlock()

	if location != "" {
		w.Header().Set("Location", location)
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (m *mockService) handleSocket(w http.ResponseWriter, r *http.Request) {
	m.socketAttempts.Add(1)

	m.mu.Lock()
	m.socketPaths = append(m.socketPaths, r.URL.Path)
	m.socketAuth = append(m.socketAuth, r.Header.Get("Authorization"))
	m.mu.Unlock()

	if m.rejectSockets.Load() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	m.connChan <- &serverConn{Conn: conn, path: r.URL.Path}
}

// setBody serves body with status for GET {path}/data.
func (m *mockService) setBody(path string, status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies[path] = mockBody{status: status, body: body}
}

// setRace serves a race snapshot in the given state.
func (m *mockService) setRace(path, status string) {
	m.setBody(path, http.StatusOK, raceJSON(path, status))
}

func (m *mockService) fetchCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches[path]
}

func (m *mockService) setCreate(status int, location, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createStatus, m.createLocation, m.createBody = status, location, body
}

func (m *mockService) forms() []url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]url.Values(nil), m.createForms...)
}

func (m *mockService) paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.socketPaths...)
}

// wsURL returns the websocket base URL of the mock
func (m *mockService) wsURL() string {
	return "ws" + strings.TrimPrefix(m.server.URL, "http")
}

// acceptConn waits for the next room socket the client opens.
func (m *mockService) acceptConn(t *testing.T) *serverConn {
	t.Helper()
	select {
	case conn := <-m.connChan:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive a room connection")
		return nil
	}
}

// expectNoConn fails if the client opens another room socket within d.
func (m *mockService) expectNoConn(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case conn := <-m.connChan:
		_ = conn.Close()
		t.Fatalf("unexpected room connection to %s", conn.path)
	case <-time.After(d):
	}
}

// raceJSON renders a race snapshot body. The bot socket path is derived from
// the race slug.
func raceJSON(path, status string) string {
	slug := path[strings.LastIndex(path, "/")+1:]
	return fmt.Sprintf(`{
		"name": "%[1]s",
		"slug": "%[2]s",
		"status": {"value": "%[3]s", "verbose_value": "%[3]s", "help_text": ""},
		"url": "%[1]s",
		"data_url": "%[1]s/data",
		"websocket_url": "/ws/race/%[2]s",
		"websocket_bot_url": "/ws/o/bot/%[2]s",
		"goal": {"name": "Any%%", "custom": false},
		"entrants_count": 0,
		"entrants": []
	}`, path, slug, status)
}

// ============================================================================
// Client Fixtures
// ============================================================================

func newTestConfig(m *mockService) *config.RacetimeConfig {
	cfg := config.DefaultRacetimeConfig()
	cfg.BaseURL = m.server.URL
	cfg.WebsocketURL = m.wsURL()
	cfg.Category = "ootr"
	cfg.ClientID = "bot-id"
	cfg.ClientSecret = "bot-secret"
	cfg.RequestTimeout = 5 * time.Second
	cfg.JoinTimeout = 2 * time.Second
	cfg.ReconnectDelay = 10 * time.Millisecond
	cfg.ReconnectMaxDelay = 40 * time.Millisecond
	cfg.CircuitBreaker = false
	return &cfg
}

func newTestClient(t *testing.T, m *mockService, cfg *config.RacetimeConfig, opts ...Option) *Client {
	t.Helper()
	if cfg == nil {
		cfg = newTestConfig(m)
	}
	client, err := NewClient(cfg, opts...)
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ============================================================================
// Event Recording
// ============================================================================

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
	ch     chan Event
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{ch: make(chan Event, 128)}
}

func (r *eventRecorder) record(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	select {
	case r.ch <- ev:
	default:
	}
}

// waitFor returns the next recorded event of kind, skipping others.
func (r *eventRecorder) waitFor(t *testing.T, kind EventKind) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-r.ch:
			if ev.Kind() == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event received", kind)
			return nil
		}
	}
}

func (r *eventRecorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *eventRecorder) count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind() == kind {
			n++
		}
	}
	return n
}

// ============================================================================
// Socket Helpers
// ============================================================================

type wireAction struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// readAction reads the next action frame the client wrote.
func readAction(t *testing.T, conn *serverConn) wireAction {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() failed: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() failed: %v", err)
	}
	var action wireAction
	if err := json.Unmarshal(data, &action); err != nil {
		t.Fatalf("action frame is not JSON: %v (%s)", err, data)
	}
	return action
}

// readCloseCode reads until the client's close frame arrives and returns its code.
func readCloseCode(t *testing.T, conn *serverConn) int {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() failed: %v", err)
	}
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			return closeErr.Code
		}
		t.Fatalf("expected close frame, got: %v", err)
		return 0
	}
}

// dropConnection ends the TCP connection without a close frame (1006 on the client).
func dropConnection(conn *serverConn) {
	_ = conn.UnderlyingConn().Close()
}

// closeNormally sends a 1000 close frame.
func closeNormally(t *testing.T, conn *serverConn) {
	t.Helper()
	err := conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "race finished"),
		time.Now().Add(time.Second),
	)
	if err != nil {
		t.Fatalf("WriteControl(close) failed: %v", err)
	}
}

func sendFrame(t *testing.T, conn *serverConn, frame string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("WriteMessage() failed: %v", err)
	}
}

// eventually polls cond until it holds or the timeout elapses.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// ============================================================================
// Assertion Helpers
// ============================================================================

func checkNoError(t *testing.T, what string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", what, err)
	}
}

func checkStringEqual(t *testing.T, fieldName, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %q, got %q", fieldName, want, got)
	}
}

func checkIntEqual(t *testing.T, fieldName string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}

func checkTrue(t *testing.T, what string, cond bool) {
	t.Helper()
	if !cond {
		t.Errorf("expected %s", what)
	}
}
