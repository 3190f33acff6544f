package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestWrapTime(t *testing.T) {
	tests := []struct {
		name   string
		t      float32
		length float32
		want   float32
	}{
		{"inside", 1.5, 2, 1.5},
		{"past length", 2.3, 2, 0.3},
		{"exact length", 2, 2, 0},
		{"negative", -0.5, 2, 1.5},
		{"zero length keeps time", 3, 0, 3},
		{"negative length keeps time", -1, -2, -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, WrapTime(tc.t, tc.length), 1e-5)
		})
	}
}

func TestQuatAngleBetween(t *testing.T) {
	z := mgl32.Vec3{0, 0, 1}
	quarter := mgl32.QuatRotate(math.Pi/2, z)

	assert.InDelta(t, math.Pi/2, QuatAngleBetween(mgl32.QuatIdent(), quarter), 1e-5)
	assert.InDelta(t, math.Pi/2, QuatAngleBetween(quarter, mgl32.QuatIdent()), 1e-5)
	assert.Equal(t, float32(0), QuatAngleBetween(quarter, quarter))
	// antipodal quaternions are the same rotation
	assert.InDelta(t, 0, QuatAngleBetween(quarter, quarter.Scale(-1)), 1e-6)
	assert.InDelta(t, math.Pi, QuatAngleBetween(mgl32.QuatIdent(), mgl32.QuatRotate(math.Pi, z)), 1e-4)
}

func TestQuatEqualUsesRotationAngle(t *testing.T) {
	z := mgl32.Vec3{0, 0, 1}
	ident := mgl32.QuatIdent()

	assert.True(t, QuatEqual(ident, mgl32.QuatRotate(0.9e-3, z), DefaultTolerance))
	// within twice the tolerance but past it: the full rotation angle is compared
	assert.False(t, QuatEqual(ident, mgl32.QuatRotate(1.5e-3, z), DefaultTolerance))
	assert.True(t, QuatEqual(ident, mgl32.QuatRotate(1.5e-3, z).Scale(-1), 2e-3))
}
