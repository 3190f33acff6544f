package vertex

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Pose is a named sparse set of per-vertex position offsets that can be blended in by influence.
type Pose struct {
	name    string
	target  uint16
	offsets map[int]mgl32.Vec3

	hwBuffer Buffer
}

// NewPose creates an empty pose.
//
// Parameters:
//   - target: the vertex data handle the pose applies to (0 = shared geometry, n = sub-mesh n-1)
//   - name: the pose name
//
// Returns:
//   - *Pose: the new pose
func NewPose(target uint16, name string) *Pose {
	return &Pose{
		name:    name,
		target:  target,
		offsets: make(map[int]mgl32.Vec3),
	}
}

// Name returns the pose name.
func (p *Pose) Name() string {
	return p.name
}

// Target returns the vertex data handle the pose applies to.
func (p *Pose) Target() uint16 {
	return p.target
}

// AddVertex sets the offset of one vertex, replacing any existing offset for it.
//
// Parameters:
//   - index: the vertex index
//   - offset: the position offset at full influence
func (p *Pose) AddVertex(index int, offset mgl32.Vec3) {
	p.offsets[index] = offset
	p.invalidateHardware()
}

// RemoveVertex removes the offset of one vertex.
//
// Parameters:
//   - index: the vertex index
func (p *Pose) RemoveVertex(index int) {
	delete(p.offsets, index)
	p.invalidateHardware()
}

// ClearVertices removes every offset.
func (p *Pose) ClearVertices() {
	p.offsets = make(map[int]mgl32.Vec3)
	p.invalidateHardware()
}

// VertexOffsets returns the sparse offsets keyed by vertex index. The map is owned by the pose.
func (p *Pose) VertexOffsets() map[int]mgl32.Vec3 {
	return p.offsets
}

// SortedVertexIndices returns the vertex indices carrying an offset, ascending.
func (p *Pose) SortedVertexIndices() []int {
	out := make([]int, 0, len(p.offsets))
	for i := range p.offsets {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// HardwareBuffer returns a dense offset stream for this pose, creating it with factory on first
// use. The stream is rebuilt after any offset edit.
//
// Parameters:
//   - vertexCount: the vertex count of the target data
//   - factory: the factory used to create the buffer
//
// Returns:
//   - Buffer: the dense offset buffer
//   - error: error if creation or filling fails
func (p *Pose) HardwareBuffer(vertexCount int, factory BufferFactory) (Buffer, error) {
	if p.hwBuffer != nil && p.hwBuffer.VertexCount() == vertexCount {
		return p.hwBuffer, nil
	}
	p.invalidateHardware()

	buf, err := factory(vertexCount)
	if err != nil {
		return nil, errors.Wrapf(err, "pose %q hardware buffer", p.name)
	}
	err = WithLock(buf, LockDiscard, func(data []mgl32.Vec3) error {
		for i := range data {
			data[i] = mgl32.Vec3{}
		}
		for idx, off := range p.offsets {
			if idx < 0 || idx >= len(data) {
				return errors.Errorf("pose %q offset for vertex %d outside %d vertices", p.name, idx, len(data))
			}
			data[idx] = off
		}
		return nil
	})
	if err != nil {
		buf.Release()
		return nil, err
	}
	p.hwBuffer = buf
	return buf, nil
}

// Clone returns a deep copy of the pose under a new name, without the hardware buffer.
//
// Parameters:
//   - name: the name of the copy
//
// Returns:
//   - *Pose: the copy
func (p *Pose) Clone(name string) *Pose {
	c := NewPose(p.target, name)
	for i, off := range p.offsets {
		c.offsets[i] = off
	}
	return c
}

// ReleaseHardwareBuffer frees the hardware buffer built by HardwareBuffer. The next hardware
// apply rebuilds it.
func (p *Pose) ReleaseHardwareBuffer() {
	p.invalidateHardware()
}

func (p *Pose) invalidateHardware() {
	if p.hwBuffer != nil {
		p.hwBuffer.Release()
		p.hwBuffer = nil
	}
}
