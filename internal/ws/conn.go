package ws

import (
	"sync"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pagecast/backend/internal/logging"
	"github.com/pagecast/backend/internal/monitoring"
	"github.com/pagecast/backend/internal/types"
)

// Conn wraps one client websocket. All outbound traffic funnels through a
// single writer goroutine fed by a bounded channel, so the capture goroutines
// and the read loop never write concurrently. When the channel is full the
// message is dropped; frame delivery never blocks input handling.
type Conn struct {
	id      string
	ws      *websocket.Conn
	log     *logging.Logger
	metrics *monitoring.Metrics

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, bufferSize int, log *logging.Logger, metrics *monitoring.Metrics) *Conn {
	if bufferSize <= 0 {
		bufferSize = 8
	}
	return &Conn{
		id:      uuid.NewString(),
		ws:      ws,
		log:     log,
		metrics: metrics,
		out:     make(chan []byte, bufferSize),
		done:    make(chan struct{}),
	}
}

// ID returns the connection's identity used as the session registry key.
func (c *Conn) ID() string { return c.id }

// SendFrame queues a rendered frame for transmission. Non-blocking: if the
// client cannot keep up, the frame is dropped rather than stalling capture.
func (c *Conn) SendFrame(f types.Frame) {
	c.enqueue(types.NewFrameMessage(f), types.MsgFrame)
}

// SendStatus queues a system chat message for transmission.
func (c *Conn) SendStatus(text string) {
	c.enqueue(types.SystemChat(text), types.MsgChat)
}

func (c *Conn) sendPong() {
	c.enqueue(types.PongMessage{Type: types.MsgPong}, types.MsgPong)
}

func (c *Conn) enqueue(v any, msgType string) {
	data, err := sonic.Marshal(v)
	if err != nil {
		c.log.Error("marshal outbound message", zap.String("type", msgType), zap.Error(err))
		return
	}

	select {
	case c.out <- data:
		if c.metrics != nil {
			c.metrics.RecordWSMessage("out", msgType)
		}
	default:
		if c.metrics != nil && msgType == types.MsgFrame {
			c.metrics.IncFramesDropped()
		}
		c.log.Debug("outbound buffer full, dropping message",
			zap.String("conn_id", c.id),
			zap.String("type", msgType))
	}
}

// writePump is the connection's single writer. Runs until Close or a write
// failure; read-loop shutdown handles the rest.
func (c *Conn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.out:
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug("websocket write failed", zap.String("conn_id", c.id), zap.Error(err))
				return
			}
		}
	}
}

// Close stops the writer and closes the underlying websocket. Idempotent.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}
