// Package session owns the lifecycle of one (connection, browser, capture,
// throttler) tuple per client connection, and the registry that routes
// inbound messages to the right session.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pagecast/backend/internal/id"
	"github.com/pagecast/backend/internal/input"
	"github.com/pagecast/backend/internal/logging"
	"github.com/pagecast/backend/internal/stream"
	"github.com/pagecast/backend/internal/types"
)

// Driver is the browser surface a session owns. *browser.Driver satisfies it
// through a thin adapter; tests substitute a fake.
type Driver interface {
	input.Browser
	StartCapture(ctx context.Context, quality int, onFrame func(types.Frame)) (Capture, error)
	CaptureOnce(ctx context.Context, quality int) (types.Frame, error)
	Close()
}

// Capture is a running screencast handle.
type Capture interface {
	Stop() error
}

// Sink delivers outbound traffic to the session's owning connection. Both
// methods must be non-blocking; the connection buffers and drops under
// pressure.
type Sink interface {
	SendFrame(f types.Frame)
	SendStatus(text string)
}

// Session is the full runtime state bound to one client connection: an
// isolated browser instance, its capture stream, the throttler gating that
// stream, and the dispatcher serializing input against the page. A session
// never outlives its connection.
type Session struct {
	ID     id.SessionID
	ConnID string

	driver     Driver
	dispatcher *input.Dispatcher
	throttler  *stream.Throttler
	capture    Capture
	sink       Sink
	log        *logging.Logger

	cancel    context.CancelFunc
	closeOnce sync.Once
}

// HandleInput dispatches one input event against the session's browser.
func (s *Session) HandleInput(ctx context.Context, ev types.InputEvent) error {
	return s.dispatcher.Dispatch(ctx, ev)
}

// Viewport returns the session's fixed viewport.
func (s *Session) Viewport() types.Viewport {
	return s.driver.Viewport()
}

// LastFrame reports when the session last forwarded a frame.
func (s *Session) LastFrame() time.Time {
	return s.throttler.LastFrame()
}

// LastActivity reports the session's last forwarding activity.
func (s *Session) LastActivity() time.Time {
	return s.throttler.LastActivity()
}

// teardown releases everything the session owns, exactly once. Order
// matters: the heartbeat stops and the capture handle detaches before the
// browser is released, so no capture callback fires against a disposed page.
// Every step tolerates failure so one stuck resource never blocks the rest.
func (s *Session) teardown() {
	s.closeOnce.Do(func() {
		s.throttler.Stop()

		if s.capture != nil {
			if err := s.capture.Stop(); err != nil {
				s.log.Warn("session teardown", zap.Error(&TeardownError{Step: "stop capture", Err: err}))
			}
		}

		s.cancel()
		s.driver.Close()

		s.log.Info("session closed",
			zap.String("session_id", s.ID.String()),
			zap.String("conn_id", s.ConnID))
	})
}
