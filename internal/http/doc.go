// Package http provides HTTP handlers for the relay's REST surface.
//
// Endpoints:
//   - Health: / and /health (process status and active-session count)
//
// Example Usage:
//
//	handlers := http.NewHandlers(sessions)
//	router.GET("/health", handlers.Health)
package http
