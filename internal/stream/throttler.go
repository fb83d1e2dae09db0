// Package stream decides which captured frames are transmitted.
//
// Event-driven captures represent real visual updates and are forwarded
// unconditionally. A fixed-period heartbeat capture fills the gaps: it fires
// only when no frame has been forwarded within the interval, so a client
// looking at a static page still sees a frame at least once per interval
// without the relay ever sending redundant frames.
package stream

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pagecast/backend/internal/logging"
	"github.com/pagecast/backend/internal/types"
)

// CaptureFunc takes a one-shot screenshot for the heartbeat path.
type CaptureFunc func(ctx context.Context) (types.Frame, error)

// ForwardFunc delivers a surviving frame to the owning connection. It must
// not block; the relay side buffers and drops under pressure.
type ForwardFunc func(types.Frame)

// Throttler gates the outbound frame stream for one session. The last-frame
// state is shared by both triggers and guarded by a mutex, so the heartbeat
// and event paths never double-send within an interval.
type Throttler struct {
	interval time.Duration
	capture  CaptureFunc
	forward  ForwardFunc
	log      *logging.Logger

	mu           sync.Mutex
	lastFrame    time.Time
	lastActivity time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a throttler. Start must be called before frames flow.
func New(interval time.Duration, capture CaptureFunc, forward ForwardFunc, log *logging.Logger) *Throttler {
	return &Throttler{
		interval: interval,
		capture:  capture,
		forward:  forward,
		log:      log,
	}
}

// Start launches the heartbeat loop. It stops when ctx is cancelled or Stop
// is called.
func (t *Throttler) Start(ctx context.Context) {
	hctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.heartbeat(hctx)
}

// Stop cancels the heartbeat and waits for it to exit. Safe to call once
// after Start.
func (t *Throttler) Stop() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
}

// OnFrame accepts an event-driven capture. These are forwarded immediately
// and unconditionally; only the heartbeat is suppressed by them.
func (t *Throttler) OnFrame(f types.Frame) {
	now := time.Now()
	t.mu.Lock()
	t.lastFrame = now
	t.lastActivity = now
	t.mu.Unlock()

	t.forward(f)
}

// LastFrame reports when the most recent frame was forwarded.
func (t *Throttler) LastFrame() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastFrame
}

// LastActivity reports the last forwarding activity. Observability only;
// nothing expires sessions on it.
func (t *Throttler) LastActivity() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastActivity
}

func (t *Throttler) heartbeat(ctx context.Context) {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.beat(ctx)
		}
	}
}

func (t *Throttler) beat(ctx context.Context) {
	t.mu.Lock()
	fresh := time.Since(t.lastFrame) < t.interval
	t.mu.Unlock()
	if fresh {
		return
	}

	f, err := t.capture(ctx)
	if err != nil {
		if ctx.Err() == nil {
			t.log.Debug("heartbeat capture failed", zap.Error(err))
		}
		return
	}

	// An event frame may have been forwarded while the screenshot was in
	// flight; it wins and this heartbeat frame is discarded.
	now := time.Now()
	t.mu.Lock()
	if now.Sub(t.lastFrame) < t.interval {
		t.mu.Unlock()
		return
	}
	t.lastFrame = now
	t.lastActivity = now
	t.mu.Unlock()

	t.forward(f)
}
