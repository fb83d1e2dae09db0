package types

import "time"

// Frame is one encoded snapshot of the rendered page. Frames are transient:
// produced by the capture path, forwarded to the owning connection, never
// persisted.
type Frame struct {
	Data      []byte
	Timestamp time.Time
	Width     int
	Height    int
}

// Viewport holds the pixel dimensions of the controlled browser's rendering
// surface. Fixed for the lifetime of a session.
type Viewport struct {
	Width  int
	Height int
}
