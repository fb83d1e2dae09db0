// Package ws provides WebSocket handling for interactive browser sessions.
//
// Each connection owns one isolated browser session. Inbound messages carry
// pointer, keyboard, chat, and keep-alive traffic; outbound messages carry
// rendered frames and system status text. Frames flow through a bounded
// per-connection buffer and are dropped for slow clients rather than
// stalling capture.
//
// Message Types (Client → Server):
//   - click, mousedown, mouseup, mousemove: Pointer events with coordinates
//   - keyPress: Key event with modifier booleans
//   - chat: Free text; "go to <target>" style commands trigger navigation
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - frame: Base64-encoded page snapshot with metadata
//   - chat: System status and diagnostic text
//   - pong: Keep-alive reply
//
// Example Usage:
//
//	handler := ws.NewHandler(sessions, cfg.Stream, cfg.RateLimit, metrics, log)
//	router.GET("/stream", handler.HandleConnection)
package ws
