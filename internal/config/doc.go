// Package config provides 12-factor configuration management for the
// pagecast backend.
//
// Configuration is loaded from environment variables with sensible defaults;
// an optional YAML file can override individual fields.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Browser: driver settings (headless, viewport, start URL, timeouts)
//   - Stream: frame streaming settings (heartbeat interval, quality, buffering)
//   - Logging: log level and output format
//   - RateLimit: per-connection input event limiting
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - BROWSER_HEADLESS, BROWSER_BIN, VIEWPORT_WIDTH, VIEWPORT_HEIGHT,
//     START_URL, NAVIGATION_TIMEOUT_MS
//   - FRAME_INTERVAL_MS, JPEG_QUALITY, FRAME_BUFFER_SIZE
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_EPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
