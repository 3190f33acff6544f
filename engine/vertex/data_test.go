package vertex

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHardwareSlotsClaimInOrder(t *testing.T) {
	d := NewData(4, NewMemoryBuffer(make([]mgl32.Vec3, 4)))
	d.AllocateHardwareAnimationElements(2, 1)

	first, ok := d.ClaimHardwareSlot()
	require.True(t, ok)
	assert.Equal(t, 1, first.TargetBufferIndex)
	first.Parametric = 0.7

	second, ok := d.ClaimHardwareSlot()
	require.True(t, ok)
	assert.Equal(t, 2, second.TargetBufferIndex)

	_, ok = d.ClaimHardwareSlot()
	assert.False(t, ok)
	assert.Equal(t, 3, d.HardwareAnimationItemsUsed())

	require.NoError(t, d.BeginFrame())
	assert.Zero(t, d.HardwareAnimationItemsUsed())
	assert.Zero(t, d.HardwareAnimation()[0].Parametric)
}

func TestBeginFrameRestoresBase(t *testing.T) {
	d := NewData(2, NewMemoryBuffer([]mgl32.Vec3{{5, 5, 5}, {6, 6, 6}}))
	base := NewMemoryBuffer([]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}})
	d.SetBase(base)

	require.NoError(t, d.BeginFrame())
	assert.Equal(t, contents(t, base), contents(t, d.Positions()))
}

func TestBindings(t *testing.T) {
	pos := NewMemoryBuffer(make([]mgl32.Vec3, 2))
	d := NewData(2, pos)
	assert.Same(t, pos, d.Positions())

	extra := NewMemoryBuffer(make([]mgl32.Vec3, 2))
	d.SetBinding(3, extra)
	assert.Equal(t, []int{0, 3}, d.BoundIndices())

	d.SetBinding(3, nil)
	_, ok := d.Binding(3)
	assert.False(t, ok)
}

func TestResetToBase(t *testing.T) {
	d := NewData(2, NewMemoryBuffer(make([]mgl32.Vec3, 2)))
	require.NoError(t, d.ResetToBase())

	base := NewMemoryBuffer([]mgl32.Vec3{{1, 1, 1}, {2, 2, 2}})
	d.SetBase(base)
	require.NoError(t, d.ResetToBase())
	assert.Equal(t, contents(t, base), contents(t, d.Positions()))

	unbound := NewData(2, nil)
	unbound.SetBase(base)
	assert.Error(t, unbound.ResetToBase())
}
