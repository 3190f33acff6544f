package vertex

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newShadowOnlyGPUBuffer builds a GPUBuffer with no GPU side, so unlocking never uploads.
func newShadowOnlyGPUBuffer(vertexCount int) *GPUBuffer {
	return &GPUBuffer{shadow: make([]mgl32.Vec3, vertexCount)}
}

func TestGPUBufferLockUnlock(t *testing.T) {
	g := newShadowOnlyGPUBuffer(3)
	assert.Equal(t, 3, g.VertexCount())
	assert.Nil(t, g.GPU())

	data, err := g.Lock(LockNormal)
	require.NoError(t, err)
	data[1] = mgl32.Vec3{1, 2, 3}

	_, err = g.Lock(LockNormal)
	assert.Equal(t, ErrLocked, errors.Cause(err))
	require.NoError(t, g.Unlock())
	assert.Equal(t, ErrNotLocked, errors.Cause(g.Unlock()))

	assert.Equal(t, []mgl32.Vec3{{}, {1, 2, 3}, {}}, contents(t, g))
}

func TestGPUBufferReadOnlyLock(t *testing.T) {
	g := newShadowOnlyGPUBuffer(2)
	require.NoError(t, WithLock(g, LockDiscard, func(data []mgl32.Vec3) error {
		data[0] = mgl32.Vec3{4, 0, 0}
		return nil
	}))

	require.NoError(t, WithLock(g, LockReadOnly, func(data []mgl32.Vec3) error {
		assert.Equal(t, mgl32.Vec3{4, 0, 0}, data[0])
		return nil
	}))
	assert.False(t, g.locked)
}

func TestGPUBufferAsPoseStream(t *testing.T) {
	g := newShadowOnlyGPUBuffer(3)
	pose := NewPose(0, "smile")
	pose.AddVertex(2, mgl32.Vec3{0, 0, 1})

	buf, err := pose.HardwareBuffer(3, func(int) (Buffer, error) { return g, nil })
	require.NoError(t, err)
	assert.Same(t, g, buf)
	assert.Equal(t, []mgl32.Vec3{{}, {}, {0, 0, 1}}, contents(t, g))

	pose.ReleaseHardwareBuffer()
	assert.Zero(t, g.VertexCount())
}

func TestGPUBufferRelease(t *testing.T) {
	g := newShadowOnlyGPUBuffer(2)
	_, err := g.Lock(LockNormal)
	require.NoError(t, err)

	g.Release()
	assert.Zero(t, g.VertexCount())
	assert.False(t, g.locked)
}

func TestGPUBufferFactoryRejectsEmptyBuffers(t *testing.T) {
	factory := NewGPUBufferFactory(nil, nil, "face")
	_, err := factory(0)
	assert.Error(t, err)
}
