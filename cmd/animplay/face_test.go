package main

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaceRepeatsPoseEachFrame(t *testing.T) {
	f, err := newFace(nil)
	require.NoError(t, err)
	defer f.release()

	for frame := 0; frame < 3; frame++ {
		require.NoError(t, f.update(0))
		got, err := f.positions()
		require.NoError(t, err)
		// half a smile at the start of the loop
		assert.InDelta(t, -1.1, got[0].X(), 1e-5, "frame %d", frame)
		assert.InDelta(t, 0.1, got[0].Y(), 1e-5, "frame %d", frame)
		assert.Equal(t, mgl32.Vec3{-1, 1, 0}, got[2], "frame %d", frame)
		assert.Equal(t, 2, f.hardware.HardwareAnimationItemsUsed(), "frame %d", frame)
	}

	// a quarter second in the mouth is fully open
	require.NoError(t, f.update(0.25))
	got, err := f.positions()
	require.NoError(t, err)
	assert.InDelta(t, -1, got[0].X(), 1e-5)
	assert.InDelta(t, -0.5, got[0].Y(), 1e-5)
	assert.InDelta(t, 1, f.hardware.HardwareAnimation()[0].Parametric, 1e-5)
}
