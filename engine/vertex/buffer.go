package vertex

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

var (
	// ErrLocked is returned when locking a buffer that is already locked.
	ErrLocked = errors.New("vertex buffer is already locked")

	// ErrNotLocked is returned when unlocking a buffer that is not locked.
	ErrNotLocked = errors.New("vertex buffer is not locked")

	// ErrSizeMismatch is returned when two buffers taking part in one operation disagree on vertex count.
	ErrSizeMismatch = errors.New("vertex buffer sizes do not match")
)

// LockMode describes the intended access of a buffer lock.
type LockMode int

const (
	// LockNormal grants read-write access to the existing contents.
	LockNormal LockMode = iota

	// LockReadOnly grants read access; the contents are not re-uploaded on unlock.
	LockReadOnly

	// LockDiscard grants write access; the caller promises to overwrite every element.
	LockDiscard
)

// Buffer is an externally owned stream of per-vertex positions. Access happens only between
// Lock and Unlock; callers must release every lock they acquire, including on early return.
// Use WithLock to get that guarantee.
type Buffer interface {
	// VertexCount returns the number of vertices held by the buffer.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// Lock acquires the buffer for the given access mode and returns its contents.
	// The returned slice is only valid until Unlock.
	//
	// Parameters:
	//   - mode: the access mode
	//
	// Returns:
	//   - []mgl32.Vec3: the per-vertex positions
	//   - error: ErrLocked if the buffer is already locked
	Lock(mode LockMode) ([]mgl32.Vec3, error)

	// Unlock releases the lock acquired by Lock, publishing writes if the mode allowed them.
	//
	// Returns:
	//   - error: ErrNotLocked if the buffer was not locked, or an upload error
	Unlock() error

	// Release frees any resources held by the buffer.
	Release()
}

// BufferFactory creates buffers sized for a vertex count. Pose animation uses it to build
// dense hardware offset streams on demand.
type BufferFactory func(vertexCount int) (Buffer, error)

// WithLock locks b, runs fn with its contents and always unlocks, returning the first error
// encountered.
//
// Parameters:
//   - b: the buffer to lock
//   - mode: the access mode
//   - fn: the callback receiving the locked contents
//
// Returns:
//   - error: the lock, callback or unlock error
func WithLock(b Buffer, mode LockMode, fn func(data []mgl32.Vec3) error) (err error) {
	data, err := b.Lock(mode)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := b.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}()
	return fn(data)
}

// CopyBuffer copies the contents of src into dst. Both buffers must hold the same number of vertices.
//
// Parameters:
//   - dst: the destination buffer
//   - src: the source buffer
//
// Returns:
//   - error: error if the sizes differ or either lock fails
func CopyBuffer(dst, src Buffer) error {
	if dst.VertexCount() != src.VertexCount() {
		return errors.Wrapf(ErrSizeMismatch, "copy %d vertices into %d", src.VertexCount(), dst.VertexCount())
	}
	return WithLock(src, LockReadOnly, func(from []mgl32.Vec3) error {
		return WithLock(dst, LockDiscard, func(to []mgl32.Vec3) error {
			copy(to, from)
			return nil
		})
	})
}

// memoryBuffer is a CPU-resident Buffer.
type memoryBuffer struct {
	data   []mgl32.Vec3
	locked bool
}

var _ Buffer = &memoryBuffer{}

// NewMemoryBuffer creates a CPU-resident buffer holding a copy of positions.
//
// Parameters:
//   - positions: the initial per-vertex positions
//
// Returns:
//   - Buffer: the new buffer
func NewMemoryBuffer(positions []mgl32.Vec3) Buffer {
	data := make([]mgl32.Vec3, len(positions))
	copy(data, positions)
	return &memoryBuffer{data: data}
}

// NewMemoryBufferFactory returns a BufferFactory producing zero-filled CPU buffers.
//
// Returns:
//   - BufferFactory: the factory
func NewMemoryBufferFactory() BufferFactory {
	return func(vertexCount int) (Buffer, error) {
		if vertexCount < 0 {
			return nil, errors.Errorf("invalid vertex count %d", vertexCount)
		}
		return &memoryBuffer{data: make([]mgl32.Vec3, vertexCount)}, nil
	}
}

func (m *memoryBuffer) VertexCount() int {
	return len(m.data)
}

func (m *memoryBuffer) Lock(mode LockMode) ([]mgl32.Vec3, error) {
	if m.locked {
		return nil, ErrLocked
	}
	m.locked = true
	return m.data, nil
}

func (m *memoryBuffer) Unlock() error {
	if !m.locked {
		return ErrNotLocked
	}
	m.locked = false
	return nil
}

func (m *memoryBuffer) Release() {
	m.data = nil
	m.locked = false
}
