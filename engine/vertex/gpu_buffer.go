package vertex

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// GPUBuffer is a Buffer backed by a wgpu vertex buffer. Reads and writes go through a CPU
// shadow copy; unlocking a writable lock uploads the shadow with Queue.WriteBuffer, which
// copies the data before returning, so the shadow can be reused immediately.
type GPUBuffer struct {
	queue  *wgpu.Queue
	buffer *wgpu.Buffer
	shadow []mgl32.Vec3
	mode   LockMode
	locked bool
}

var _ Buffer = &GPUBuffer{}

// NewGPUBuffer creates a GPU vertex buffer sized for vertexCount positions (12 bytes each)
// that can be bound as a vertex stream and written through Lock/Unlock.
//
// Parameters:
//   - device: the wgpu device used to create the buffer
//   - queue: the wgpu queue used for uploads
//   - label: the debug label for the GPU buffer
//   - vertexCount: the number of vertices the buffer holds
//
// Returns:
//   - *GPUBuffer: the new buffer
//   - error: error if the vertex count is invalid or buffer creation fails
func NewGPUBuffer(device *wgpu.Device, queue *wgpu.Queue, label string, vertexCount int) (*GPUBuffer, error) {
	if vertexCount <= 0 {
		return nil, errors.Errorf("gpu vertex buffer %q: invalid vertex count %d", label, vertexCount)
	}
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             uint64(vertexCount * 12),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "gpu vertex buffer %q", label)
	}
	return &GPUBuffer{
		queue:  queue,
		buffer: buf,
		shadow: make([]mgl32.Vec3, vertexCount),
	}, nil
}

// NewGPUBufferFactory returns a BufferFactory that creates GPU vertex buffers, used to
// build hardware pose offset streams.
//
// Parameters:
//   - device: the wgpu device
//   - queue: the wgpu queue
//   - label: the label prefix for created buffers
//
// Returns:
//   - BufferFactory: the factory
func NewGPUBufferFactory(device *wgpu.Device, queue *wgpu.Queue, label string) BufferFactory {
	return func(vertexCount int) (Buffer, error) {
		return NewGPUBuffer(device, queue, label+" Pose Buffer", vertexCount)
	}
}

// GPU returns the underlying wgpu buffer for binding as a vertex stream.
//
// Returns:
//   - *wgpu.Buffer: the GPU buffer
func (g *GPUBuffer) GPU() *wgpu.Buffer {
	return g.buffer
}

func (g *GPUBuffer) VertexCount() int {
	return len(g.shadow)
}

func (g *GPUBuffer) Lock(mode LockMode) ([]mgl32.Vec3, error) {
	if g.locked {
		return nil, ErrLocked
	}
	g.locked = true
	g.mode = mode
	return g.shadow, nil
}

func (g *GPUBuffer) Unlock() error {
	if !g.locked {
		return ErrNotLocked
	}
	g.locked = false
	if g.mode == LockReadOnly || g.buffer == nil {
		return nil
	}
	if err := g.queue.WriteBuffer(g.buffer, 0, common.SliceToBytes(g.shadow)); err != nil {
		return errors.Wrap(err, "gpu vertex buffer upload")
	}
	return nil
}

func (g *GPUBuffer) Release() {
	if g.buffer != nil {
		g.buffer.Release()
		g.buffer = nil
	}
	g.shadow = nil
	g.locked = false
}
