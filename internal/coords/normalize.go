// Package coords maps client-reported pointer coordinates into the browser's
// pixel space.
//
// The protocol carries no field saying whether a coordinate pair is a
// fraction of the viewport or a raw pixel position, so normalization is a
// heuristic over both conventions. A raw-pixel click at (1,1) or (0,1) is
// indistinguishable from a normalized fraction and is treated as the latter;
// this ambiguity is inherent to the wire format and deliberately not patched
// over further.
package coords

import (
	"math"

	"github.com/pagecast/backend/internal/types"
)

// Normalize resolves a pointer coordinate against the session viewport.
// Ordered policy, first match wins:
//
//  1. Both components <= 1: treat as fractions, pixel = floor(c * dim).
//  2. Either component exceeds its viewport dimension: clamp to dim-1.
//  3. Otherwise the pair is already a valid pixel position; pass through.
//
// The result always lies within [0, width-1] x [0, height-1]. Normalize never
// fails; malformed input degrades to a clamped value.
func Normalize(x, y float64, vp types.Viewport) (int, int) {
	w, h := vp.Width, vp.Height

	var px, py int
	switch {
	case x <= 1 && y <= 1:
		px = int(math.Floor(x * float64(w)))
		py = int(math.Floor(y * float64(h)))
	case x > float64(w) || y > float64(h):
		px = min(int(x), w-1)
		py = min(int(y), h-1)
	default:
		px = int(x)
		py = int(y)
	}

	return clamp(px, w-1), clamp(py, h-1)
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
