// Package main is the entry point for the pagecast relay server.
//
// The relay gives each websocket client its own isolated headless browser:
// rendered frames stream out, pointer and keyboard input streams in.
//
// Architecture:
//
//	Client (canvas + chat UI) ⇄ Relay (this server) ⇄ Headless Chromium (CDP)
//
// The server provides:
//   - WebSocket streaming of page frames per connection
//   - Input dispatch (mouse, keyboard, navigation commands)
//   - Health and Prometheus metrics endpoints
//   - Rate limiting on both HTTP and websocket input
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional YAML file via -config
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Production mode
//	./server -port 8000
//
//	# Development mode (console logs)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown (all browser sessions closed first)
package main
