package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	rodinput "github.com/go-rod/rod/lib/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagecast/backend/internal/config"
	"github.com/pagecast/backend/internal/logging"
	"github.com/pagecast/backend/internal/types"
)

type fakeCapture struct {
	stops atomic.Int64
	err   error
}

func (c *fakeCapture) Stop() error {
	c.stops.Add(1)
	return c.err
}

type fakeDriver struct {
	vp         types.Viewport
	capture    *fakeCapture
	captureErr error

	mu     sync.Mutex
	closed int
}

func (d *fakeDriver) Viewport() types.Viewport { return d.vp }

func (d *fakeDriver) Navigate(context.Context, string) error { return nil }
func (d *fakeDriver) Back(context.Context) error             { return nil }
func (d *fakeDriver) Forward(context.Context) error          { return nil }
func (d *fakeDriver) Reload(context.Context) error           { return nil }
func (d *fakeDriver) MouseMove(context.Context, int, int) error { return nil }
func (d *fakeDriver) MouseDown(context.Context) error           { return nil }
func (d *fakeDriver) MouseUp(context.Context) error             { return nil }
func (d *fakeDriver) Click(context.Context, int, int) error     { return nil }
func (d *fakeDriver) PressKey(context.Context, rodinput.Key) error { return nil }
func (d *fakeDriver) RawKey(context.Context, string, int) error    { return nil }
func (d *fakeDriver) TypeText(context.Context, string) error       { return nil }

func (d *fakeDriver) StartCapture(ctx context.Context, quality int, onFrame func(types.Frame)) (Capture, error) {
	if d.captureErr != nil {
		return nil, d.captureErr
	}
	return d.capture, nil
}

func (d *fakeDriver) CaptureOnce(context.Context, int) (types.Frame, error) {
	return types.Frame{Data: []byte("jpeg"), Timestamp: time.Now()}, nil
}

func (d *fakeDriver) Close() {
	d.mu.Lock()
	d.closed++
	d.mu.Unlock()
}

func (d *fakeDriver) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type fakeSink struct {
	mu       sync.Mutex
	frames   []types.Frame
	statuses []string
}

func (s *fakeSink) SendFrame(f types.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
}

func (s *fakeSink) SendStatus(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, text)
}

func newTestManager(launch LaunchFunc) *Manager {
	cfg := config.Default()
	return NewManager(cfg.Browser, cfg.Stream, launch, logging.NewNop(), nil)
}

func launchFake(d *fakeDriver) LaunchFunc {
	return func(context.Context, config.BrowserConfig, *logging.Logger) (Driver, error) {
		return d, nil
	}
}

func TestManagerOpenAndClose(t *testing.T) {
	driver := &fakeDriver{vp: types.Viewport{Width: 1280, Height: 720}, capture: &fakeCapture{}}
	m := newTestManager(launchFake(driver))

	s, err := m.Open(context.Background(), "conn-1", &fakeSink{})
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, 1, m.Count())
	assert.Equal(t, "conn-1", s.ConnID)
	assert.NotEmpty(t, s.ID.String())

	got, ok := m.Get("conn-1")
	require.True(t, ok)
	assert.Same(t, s, got)

	m.Close("conn-1")

	assert.Equal(t, 0, m.Count())
	assert.Equal(t, 1, driver.closeCount())
	assert.Equal(t, int64(1), driver.capture.stops.Load())

	_, ok = m.Get("conn-1")
	assert.False(t, ok)
}

func TestManagerCloseIsIdempotent(t *testing.T) {
	driver := &fakeDriver{vp: types.Viewport{Width: 1280, Height: 720}, capture: &fakeCapture{}}
	m := newTestManager(launchFake(driver))

	_, err := m.Open(context.Background(), "conn-1", &fakeSink{})
	require.NoError(t, err)

	m.Close("conn-1")
	m.Close("conn-1")
	m.Close("conn-1")

	// Teardown ran exactly once no matter how many closes raced in.
	assert.Equal(t, 1, driver.closeCount())
	assert.Equal(t, int64(1), driver.capture.stops.Load())
}

func TestManagerCloseUnknownConnIsNoop(t *testing.T) {
	m := newTestManager(launchFake(&fakeDriver{capture: &fakeCapture{}}))
	m.Close("never-opened")
	assert.Equal(t, 0, m.Count())
}

func TestManagerOpenLaunchFailureRegistersNothing(t *testing.T) {
	boom := errors.New("chrome not found")
	m := newTestManager(func(context.Context, config.BrowserConfig, *logging.Logger) (Driver, error) {
		return nil, boom
	})

	s, err := m.Open(context.Background(), "conn-1", &fakeSink{})
	require.Error(t, err)
	assert.Nil(t, s)

	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "conn-1", initErr.ConnID)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 0, m.Count())
}

func TestManagerOpenCaptureFailureReleasesBrowser(t *testing.T) {
	driver := &fakeDriver{
		vp:         types.Viewport{Width: 1280, Height: 720},
		captureErr: errors.New("screencast refused"),
	}
	m := newTestManager(launchFake(driver))

	_, err := m.Open(context.Background(), "conn-1", &fakeSink{})
	require.Error(t, err)

	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)

	// The half-built session leaks nothing: the browser it launched is gone.
	assert.Equal(t, 1, driver.closeCount())
	assert.Equal(t, 0, m.Count())
}

func TestManagerRejectsDuplicateConnection(t *testing.T) {
	driver := &fakeDriver{vp: types.Viewport{Width: 1280, Height: 720}, capture: &fakeCapture{}}
	m := newTestManager(launchFake(driver))

	_, err := m.Open(context.Background(), "conn-1", &fakeSink{})
	require.NoError(t, err)
	defer m.Close("conn-1")

	_, err = m.Open(context.Background(), "conn-1", &fakeSink{})
	require.Error(t, err)

	var initErr *InitializationError
	assert.ErrorAs(t, err, &initErr)
	assert.Equal(t, 1, m.Count())
}

func TestManagerCloseAll(t *testing.T) {
	drivers := []*fakeDriver{
		{vp: types.Viewport{Width: 1280, Height: 720}, capture: &fakeCapture{}},
		{vp: types.Viewport{Width: 1280, Height: 720}, capture: &fakeCapture{}},
	}
	i := 0
	m := newTestManager(func(context.Context, config.BrowserConfig, *logging.Logger) (Driver, error) {
		d := drivers[i]
		i++
		return d, nil
	})

	_, err := m.Open(context.Background(), "conn-1", &fakeSink{})
	require.NoError(t, err)
	_, err = m.Open(context.Background(), "conn-2", &fakeSink{})
	require.NoError(t, err)

	m.CloseAll()

	assert.Equal(t, 0, m.Count())
	for _, d := range drivers {
		assert.Equal(t, 1, d.closeCount())
	}
}

func TestSessionTeardownToleratesCaptureStopFailure(t *testing.T) {
	driver := &fakeDriver{
		vp:      types.Viewport{Width: 1280, Height: 720},
		capture: &fakeCapture{err: errors.New("already detached")},
	}
	m := newTestManager(launchFake(driver))

	_, err := m.Open(context.Background(), "conn-1", &fakeSink{})
	require.NoError(t, err)

	// A failing capture detach must not keep the browser alive.
	m.Close("conn-1")
	assert.Equal(t, 1, driver.closeCount())
}

func TestSessionHandleInputReachesDriver(t *testing.T) {
	driver := &fakeDriver{vp: types.Viewport{Width: 1280, Height: 720}, capture: &fakeCapture{}}
	m := newTestManager(launchFake(driver))

	s, err := m.Open(context.Background(), "conn-1", &fakeSink{})
	require.NoError(t, err)
	defer m.Close("conn-1")

	err = s.HandleInput(context.Background(), types.PointerEvent(types.EventClick, 0.5, 0.5))
	assert.NoError(t, err)
	assert.Equal(t, types.Viewport{Width: 1280, Height: 720}, s.Viewport())
}
