package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pagecast/backend/internal/config"
	"github.com/pagecast/backend/internal/id"
	"github.com/pagecast/backend/internal/input"
	"github.com/pagecast/backend/internal/logging"
	"github.com/pagecast/backend/internal/monitoring"
	"github.com/pagecast/backend/internal/stream"
	"github.com/pagecast/backend/internal/types"
)

// LaunchFunc starts a fresh isolated browser instance. The production
// implementation wraps browser.Launch.
type LaunchFunc func(ctx context.Context, cfg config.BrowserConfig, log *logging.Logger) (Driver, error)

// Manager owns the session registry: one session per connection, created on
// connect, destroyed on disconnect or fatal driver error. The registry is an
// explicit owned mapping, handed to the relay by reference rather than
// reached through ambient state.
type Manager struct {
	browserCfg config.BrowserConfig
	streamCfg  config.StreamConfig
	launch     LaunchFunc
	log        *logging.Logger
	metrics    *monitoring.Metrics

	mu       sync.RWMutex
	sessions map[string]*Session // connection id -> session
}

// NewManager creates a session manager. metrics may be nil in tests.
func NewManager(browserCfg config.BrowserConfig, streamCfg config.StreamConfig, launch LaunchFunc, log *logging.Logger, metrics *monitoring.Metrics) *Manager {
	return &Manager{
		browserCfg: browserCfg,
		streamCfg:  streamCfg,
		launch:     launch,
		log:        log,
		metrics:    metrics,
		sessions:   make(map[string]*Session),
	}
}

// Open launches a browser for the connection, starts frame capture, and
// registers the session. On failure nothing is registered and an
// *InitializationError is returned; the caller reports it to the client and
// leaves the connection open.
func (m *Manager) Open(ctx context.Context, connID string, sink Sink) (*Session, error) {
	m.mu.RLock()
	_, exists := m.sessions[connID]
	m.mu.RUnlock()
	if exists {
		return nil, &InitializationError{ConnID: connID, Err: fmt.Errorf("session already open")}
	}

	driver, err := m.launch(ctx, m.browserCfg, m.log)
	if err != nil {
		if m.metrics != nil {
			m.metrics.IncSessionInitFailures()
		}
		return nil, &InitializationError{ConnID: connID, Err: err}
	}

	// The session's lifetime is bound to its connection, not to the Open
	// call; it gets its own cancellable context.
	sessCtx, cancel := context.WithCancel(context.Background())

	s := &Session{
		ID:     id.NewSessionID(),
		ConnID: connID,
		driver: driver,
		sink:   sink,
		log:    m.log,
		cancel: cancel,
	}
	s.dispatcher = input.New(driver, m.log)

	forward := func(f types.Frame) {
		if m.metrics != nil {
			m.metrics.IncFramesForwarded()
		}
		sink.SendFrame(f)
	}
	capture := func(ctx context.Context) (types.Frame, error) {
		return driver.CaptureOnce(ctx, m.streamCfg.JPEGQuality)
	}
	s.throttler = stream.New(m.streamCfg.FrameInterval(), capture, forward, m.log)

	handle, err := driver.StartCapture(sessCtx, m.streamCfg.JPEGQuality, s.throttler.OnFrame)
	if err != nil {
		cancel()
		driver.Close()
		if m.metrics != nil {
			m.metrics.IncSessionInitFailures()
		}
		return nil, &InitializationError{ConnID: connID, Err: err}
	}
	s.capture = handle

	s.throttler.Start(sessCtx)

	m.mu.Lock()
	m.sessions[connID] = s
	active := len(m.sessions)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.IncSessionsOpened()
		m.metrics.SetSessionsActive(active)
	}

	m.log.Info("session opened",
		zap.String("session_id", s.ID.String()),
		zap.String("conn_id", connID),
		zap.Int("viewport_width", driver.Viewport().Width),
		zap.Int("viewport_height", driver.Viewport().Height))

	return s, nil
}

// Get returns the session owned by a connection, if any. O(1).
func (m *Manager) Get(connID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[connID]
	return s, ok
}

// Close tears down the connection's session. Idempotent: racing closes (an
// explicit close against an error-triggered one) remove the registry entry
// exactly once and run exactly one teardown sequence; extra calls are no-ops
// and never surface an error.
func (m *Manager) Close(connID string) {
	m.mu.Lock()
	s, ok := m.sessions[connID]
	if ok {
		delete(m.sessions, connID)
	}
	active := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return
	}

	s.teardown()

	if m.metrics != nil {
		m.metrics.SetSessionsActive(active)
	}
}

// CloseAll tears down every live session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for connID, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, connID)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.teardown()
	}

	if m.metrics != nil {
		m.metrics.SetSessionsActive(0)
	}
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
