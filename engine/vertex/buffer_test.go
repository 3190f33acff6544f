package vertex

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contents(t *testing.T, b Buffer) []mgl32.Vec3 {
	t.Helper()
	var out []mgl32.Vec3
	require.NoError(t, WithLock(b, LockReadOnly, func(data []mgl32.Vec3) error {
		out = append(out, data...)
		return nil
	}))
	return out
}

func TestMemoryBufferLocking(t *testing.T) {
	src := []mgl32.Vec3{{1, 2, 3}}
	b := NewMemoryBuffer(src)
	src[0] = mgl32.Vec3{}

	data, err := b.Lock(LockNormal)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, data[0])

	_, err = b.Lock(LockNormal)
	assert.Equal(t, ErrLocked, err)
	require.NoError(t, b.Unlock())
	assert.Equal(t, ErrNotLocked, b.Unlock())
}

func TestWithLockAlwaysUnlocks(t *testing.T) {
	b := NewMemoryBuffer(make([]mgl32.Vec3, 2))
	boom := errors.New("boom")

	err := WithLock(b, LockNormal, func([]mgl32.Vec3) error { return boom })
	assert.Equal(t, boom, err)

	_, err = b.Lock(LockReadOnly)
	assert.NoError(t, err)
}

func TestCopyBuffer(t *testing.T) {
	src := NewMemoryBuffer([]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}})
	dst := NewMemoryBuffer(make([]mgl32.Vec3, 2))
	require.NoError(t, CopyBuffer(dst, src))
	assert.Equal(t, contents(t, src), contents(t, dst))

	short := NewMemoryBuffer(make([]mgl32.Vec3, 1))
	assert.Equal(t, ErrSizeMismatch, errors.Cause(CopyBuffer(short, src)))
}

func TestMemoryBufferFactory(t *testing.T) {
	factory := NewMemoryBufferFactory()
	b, err := factory(3)
	require.NoError(t, err)
	assert.Equal(t, 3, b.VertexCount())
	assert.Equal(t, make([]mgl32.Vec3, 3), contents(t, b))

	_, err = factory(-1)
	assert.Error(t, err)
}
