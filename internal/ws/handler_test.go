package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	rodinput "github.com/go-rod/rod/lib/input"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagecast/backend/internal/config"
	"github.com/pagecast/backend/internal/logging"
	"github.com/pagecast/backend/internal/session"
	"github.com/pagecast/backend/internal/types"
)

type fakeCapture struct{}

func (fakeCapture) Stop() error { return nil }

type fakeDriver struct {
	mu    sync.Mutex
	calls []string
}

func (d *fakeDriver) record(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDriver) recorded() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *fakeDriver) Viewport() types.Viewport { return types.Viewport{Width: 1280, Height: 720} }

func (d *fakeDriver) Navigate(_ context.Context, url string) error {
	d.record("navigate %s", url)
	return nil
}

func (d *fakeDriver) Back(context.Context) error    { d.record("back"); return nil }
func (d *fakeDriver) Forward(context.Context) error { d.record("forward"); return nil }
func (d *fakeDriver) Reload(context.Context) error  { d.record("reload"); return nil }

func (d *fakeDriver) MouseMove(_ context.Context, x, y int) error {
	d.record("move %d,%d", x, y)
	return nil
}

func (d *fakeDriver) MouseDown(context.Context) error { d.record("down"); return nil }
func (d *fakeDriver) MouseUp(context.Context) error   { d.record("up"); return nil }

func (d *fakeDriver) Click(_ context.Context, x, y int) error {
	d.record("click %d,%d", x, y)
	return nil
}

func (d *fakeDriver) PressKey(_ context.Context, key rodinput.Key) error {
	d.record("press %d", key)
	return nil
}

func (d *fakeDriver) RawKey(_ context.Context, key string, modifiers int) error {
	d.record("raw %s %d", key, modifiers)
	return nil
}

func (d *fakeDriver) TypeText(_ context.Context, text string) error {
	d.record("type %s", text)
	return nil
}

func (d *fakeDriver) StartCapture(context.Context, int, func(types.Frame)) (session.Capture, error) {
	return fakeCapture{}, nil
}

func (d *fakeDriver) CaptureOnce(context.Context, int) (types.Frame, error) {
	return types.Frame{Data: []byte("jpeg"), Timestamp: time.Now(), Width: 1280, Height: 720}, nil
}

func (d *fakeDriver) Close() { d.record("close") }

type testRelay struct {
	server  *httptest.Server
	manager *session.Manager
	driver  *fakeDriver
}

func newTestRelay(t *testing.T, launch session.LaunchFunc) *testRelay {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	// Keep the heartbeat out of the way so tests control all traffic.
	cfg.Stream.FrameIntervalMs = 3600000

	log := logging.NewNop()
	driver := &fakeDriver{}
	if launch == nil {
		launch = func(context.Context, config.BrowserConfig, *logging.Logger) (session.Driver, error) {
			return driver, nil
		}
	}
	manager := session.NewManager(cfg.Browser, cfg.Stream, launch, log, nil)
	handler := NewHandler(manager, cfg.Stream, cfg.RateLimit, nil, log)

	router := gin.New()
	router.GET("/stream", handler.HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testRelay{server: srv, manager: manager, driver: driver}
}

func (r *testRelay) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(r.server.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))

	for time.Now().Before(deadline) {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg map[string]any
		require.NoError(t, sonic.Unmarshal(data, &msg))
		if msg["type"] == msgType {
			return msg
		}
	}
	t.Fatalf("no %q message within deadline", msgType)
	return nil
}

// readStatus reads chat messages until one containing want arrives.
func readStatus(t *testing.T, conn *websocket.Conn, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))

	for time.Now().Before(deadline) {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg types.ChatMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == types.MsgChat && strings.Contains(msg.Content.Text, want) {
			return
		}
	}
	t.Fatalf("no status containing %q within deadline", want)
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	data, err := sonic.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func waitForCall(t *testing.T, driver *fakeDriver, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, call := range driver.recorded() {
			if call == want {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("driver never received %q; calls: %v", want, driver.recorded())
}

func TestConnectSendsWelcome(t *testing.T) {
	relay := newTestRelay(t, nil)
	conn := relay.dial(t)

	readStatus(t, conn, "Connected")
}

func TestPingAnsweredWithPong(t *testing.T) {
	relay := newTestRelay(t, nil)
	conn := relay.dial(t)
	readStatus(t, conn, "Connected")

	send(t, conn, map[string]any{"type": "ping"})
	readUntil(t, conn, types.MsgPong)
}

func TestClickDispatchedAtNormalizedPixel(t *testing.T) {
	relay := newTestRelay(t, nil)
	conn := relay.dial(t)
	readStatus(t, conn, "Connected")

	send(t, conn, types.ClientMessage{Type: types.MsgClick, X: 0.5, Y: 0.5})
	waitForCall(t, relay.driver, "click 640,360")
}

func TestOversizedCoordinatesClamped(t *testing.T) {
	relay := newTestRelay(t, nil)
	conn := relay.dial(t)
	readStatus(t, conn, "Connected")

	send(t, conn, types.ClientMessage{Type: types.MsgClick, X: 2000, Y: 50})
	waitForCall(t, relay.driver, "click 1279,50")
}

func TestSingleCharKeyTypedAsText(t *testing.T) {
	relay := newTestRelay(t, nil)
	conn := relay.dial(t)
	readStatus(t, conn, "Connected")

	send(t, conn, types.ClientMessage{Type: types.MsgKeyPress, Key: "a"})
	waitForCall(t, relay.driver, "type a")
}

func TestNamedKeyPressed(t *testing.T) {
	relay := newTestRelay(t, nil)
	conn := relay.dial(t)
	readStatus(t, conn, "Connected")

	send(t, conn, types.ClientMessage{Type: types.MsgKeyPress, Key: "ArrowLeft"})
	waitForCall(t, relay.driver, fmt.Sprintf("press %d", rodinput.ArrowLeft))
}

func TestChatNavigationCommand(t *testing.T) {
	relay := newTestRelay(t, nil)
	conn := relay.dial(t)
	readStatus(t, conn, "Connected")

	send(t, conn, types.ClientMessage{
		Type:    types.MsgChat,
		Content: &types.ChatContent{Text: "go to example.com"},
	})
	readStatus(t, conn, "Navigating to https://example.com")
	waitForCall(t, relay.driver, "navigate https://example.com")
}

func TestChatEchoedWhenNotACommand(t *testing.T) {
	relay := newTestRelay(t, nil)
	conn := relay.dial(t)
	readStatus(t, conn, "Connected")

	send(t, conn, types.ClientMessage{
		Type:    types.MsgChat,
		Content: &types.ChatContent{Text: "hello"},
	})
	readStatus(t, conn, "Received: hello")
}

func TestInitFailureKeepsConnectionOpen(t *testing.T) {
	relay := newTestRelay(t, func(context.Context, config.BrowserConfig, *logging.Logger) (session.Driver, error) {
		return nil, errors.New("chrome exploded")
	})
	conn := relay.dial(t)

	readStatus(t, conn, "could not be started")
	assert.Equal(t, 0, relay.manager.Count())

	// Input now has no session to land in, but the connection survives.
	send(t, conn, types.ClientMessage{Type: types.MsgClick, X: 1, Y: 1})
	readStatus(t, conn, "session not found")

	send(t, conn, map[string]any{"type": "ping"})
	readUntil(t, conn, types.MsgPong)
}

func TestMalformedMessageGetsDiagnostic(t *testing.T) {
	relay := newTestRelay(t, nil)
	conn := relay.dial(t)
	readStatus(t, conn, "Connected")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	readStatus(t, conn, "Could not parse")

	// Still streaming afterwards.
	send(t, conn, types.ClientMessage{Type: types.MsgClick, X: 0.5, Y: 0.5})
	waitForCall(t, relay.driver, "click 640,360")
}

func TestUnknownMessageTypeGetsDiagnostic(t *testing.T) {
	relay := newTestRelay(t, nil)
	conn := relay.dial(t)
	readStatus(t, conn, "Connected")

	send(t, conn, map[string]any{"type": "teleport"})
	readStatus(t, conn, "Unrecognized message type")
}

func TestDisconnectTearsDownSession(t *testing.T) {
	relay := newTestRelay(t, nil)
	conn := relay.dial(t)
	readStatus(t, conn, "Connected")
	require.Equal(t, 1, relay.manager.Count())

	conn.Close()

	assert.Eventually(t, func() bool {
		return relay.manager.Count() == 0
	}, 3*time.Second, 10*time.Millisecond)
	waitForCall(t, relay.driver, "close")
}
