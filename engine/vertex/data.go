// Package vertex holds the vertex-side collaborators of morph and pose animation: position
// streams with scoped locking, per-mesh vertex data with hardware animation slots, poses and the
// software blend routines.
package vertex

import (
	"sort"

	"github.com/pkg/errors"
)

// HardwareAnimationData describes one hardware vertex-animation slot: the stream index the
// animation target buffer is bound to and the parametric value handed to the shader.
type HardwareAnimationData struct {
	// TargetBufferIndex is the stream binding index this slot binds its buffer to.
	TargetBufferIndex int

	// Parametric is the morph fraction or pose influence for this slot.
	Parametric float32
}

// Data is the vertex data of one mesh (or sub-mesh) as seen by vertex animation. The position
// stream is bound at PositionSource; hardware animation binds additional streams to the
// target indices of its slots.
type Data struct {
	vertexCount    int
	positionSource int
	bindings       map[int]Buffer
	base           Buffer

	hardwareAnimation []HardwareAnimationData
	hwItemsUsed       int
}

// NewData creates vertex data with positions bound at stream 0.
//
// Parameters:
//   - vertexCount: the number of vertices
//   - positions: the position stream
//
// Returns:
//   - *Data: the vertex data
func NewData(vertexCount int, positions Buffer) *Data {
	d := &Data{
		vertexCount: vertexCount,
		bindings:    make(map[int]Buffer),
	}
	if positions != nil {
		d.bindings[0] = positions
	}
	return d
}

// VertexCount returns the number of vertices.
func (d *Data) VertexCount() int {
	return d.vertexCount
}

// PositionSource returns the stream index of the position stream.
func (d *Data) PositionSource() int {
	return d.positionSource
}

// Positions returns the buffer currently bound to the position stream.
func (d *Data) Positions() Buffer {
	return d.bindings[d.positionSource]
}

// SetBinding binds a buffer to a stream index, replacing any previous binding.
//
// Parameters:
//   - index: the stream index
//   - b: the buffer to bind, or nil to unbind
func (d *Data) SetBinding(index int, b Buffer) {
	if b == nil {
		delete(d.bindings, index)
		return
	}
	d.bindings[index] = b
}

// Binding returns the buffer bound to a stream index.
//
// Parameters:
//   - index: the stream index
//
// Returns:
//   - Buffer: the bound buffer
//   - bool: false if nothing is bound
func (d *Data) Binding(index int) (Buffer, bool) {
	b, ok := d.bindings[index]
	return b, ok
}

// BoundIndices returns the bound stream indices in ascending order.
func (d *Data) BoundIndices() []int {
	out := make([]int, 0, len(d.bindings))
	for i := range d.bindings {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// SetBase sets the rest-pose positions software pose blending starts from each frame.
//
// Parameters:
//   - base: the rest-pose position buffer
func (d *Data) SetBase(base Buffer) {
	d.base = base
}

// ResetToBase copies the rest-pose positions into the position stream. It is a no-op when
// no base has been set.
//
// Returns:
//   - error: error if the copy fails
func (d *Data) ResetToBase() error {
	if d.base == nil {
		return nil
	}
	pos := d.Positions()
	if pos == nil {
		return errors.New("vertex data has no position stream bound")
	}
	return CopyBuffer(pos, d.base)
}

// AllocateHardwareAnimationElements reserves count hardware animation slots whose target
// streams start at firstTargetIndex. Hardware morph needs one slot; hardware pose animation
// needs one slot per simultaneously blended pose.
//
// Parameters:
//   - count: the number of slots
//   - firstTargetIndex: the stream index of the first slot
func (d *Data) AllocateHardwareAnimationElements(count, firstTargetIndex int) {
	d.hardwareAnimation = make([]HardwareAnimationData, count)
	for i := range d.hardwareAnimation {
		d.hardwareAnimation[i].TargetBufferIndex = firstTargetIndex + i
	}
	d.hwItemsUsed = 0
}

// HardwareAnimation returns the hardware animation slots. The slice is owned by the data.
func (d *Data) HardwareAnimation() []HardwareAnimationData {
	return d.hardwareAnimation
}

// HardwareAnimationItemsUsed returns how many slots were claimed since the last BeginFrame,
// including claims that exceeded the slot count and were dropped.
func (d *Data) HardwareAnimationItemsUsed() int {
	return d.hwItemsUsed
}

// BeginFrame starts a new frame of vertex animation: it clears hardware slot usage and
// parametric values and copies the rest pose back into the position stream. Pose animation adds
// onto both, so it must run once per frame before the first animation is applied.
//
// Returns:
//   - error: error if restoring the rest pose fails
func (d *Data) BeginFrame() error {
	d.hwItemsUsed = 0
	for i := range d.hardwareAnimation {
		d.hardwareAnimation[i].Parametric = 0
	}
	return d.ResetToBase()
}

// ClaimHardwareSlot claims the next hardware animation slot. Claims beyond the allocated slot
// count return false and are counted but otherwise dropped.
//
// Returns:
//   - *HardwareAnimationData: the claimed slot, or nil
//   - bool: false if no slot is available
func (d *Data) ClaimHardwareSlot() (*HardwareAnimationData, bool) {
	idx := d.hwItemsUsed
	d.hwItemsUsed++
	if idx >= len(d.hardwareAnimation) {
		return nil, false
	}
	return &d.hardwareAnimation[idx], true
}
