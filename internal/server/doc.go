// Package server wires the relay together: HTTP routing with Gin, the
// middleware stack (recovery, metrics, CORS, rate limiting), the session
// registry backed by the rod browser driver, and the websocket stream route.
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Build the session manager with the rod launch function
//  4. Setup HTTP routes and middleware
//  5. Start HTTP server
//  6. Graceful shutdown on signal: close all sessions, drain the listener
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv := server.New(cfg, log)
//	if err := srv.Run(); err != nil {
//	    log.Fatal("server error", zap.Error(err))
//	}
package server
