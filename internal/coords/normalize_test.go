package coords

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pagecast/backend/internal/types"
)

func TestNormalize(t *testing.T) {
	vp := types.Viewport{Width: 1280, Height: 720}

	tests := []struct {
		name  string
		x, y  float64
		wantX int
		wantY int
	}{
		{"fraction center", 0.5, 0.5, 640, 360},
		{"fraction origin", 0, 0, 0, 0},
		{"fraction quarter", 0.25, 0.75, 320, 540},
		{"fraction floors", 0.333, 0.333, 426, 239},
		{"fraction upper edge clamped into bounds", 1, 1, 1279, 719},
		{"x out of range clamps", 2000, 50, 1279, 50},
		{"y out of range clamps", 100, 9000, 100, 719},
		{"both out of range clamp", 5000, 5000, 1279, 719},
		{"pixel passthrough", 640, 360, 640, 360},
		{"pixel at far corner", 1279, 719, 1279, 719},
		{"mixed small x large y treated as clamp", 0.5, 800, 0, 719},
		{"negative degrades to zero", -0.5, -0.5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotX, gotY := Normalize(tt.x, tt.y, vp)
			assert.Equal(t, tt.wantX, gotX)
			assert.Equal(t, tt.wantY, gotY)
		})
	}
}

func TestNormalizeAlwaysInBounds(t *testing.T) {
	vp := types.Viewport{Width: 800, Height: 600}

	inputs := [][2]float64{
		{0, 0}, {1, 1}, {0.999, 0.999}, {-5, -5},
		{400, 300}, {799, 599}, {800, 600}, {1e9, 1e9}, {0.5, 1e9},
	}

	for _, in := range inputs {
		x, y := Normalize(in[0], in[1], vp)
		assert.GreaterOrEqual(t, x, 0)
		assert.GreaterOrEqual(t, y, 0)
		assert.LessOrEqual(t, x, vp.Width-1)
		assert.LessOrEqual(t, y, vp.Height-1)
	}
}
