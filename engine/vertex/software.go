package vertex

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// SoftwareVertexMorph writes the per-vertex linear blend of two morph snapshots into the
// position stream of target.
//
// Parameters:
//   - t: the blend fraction (0 = from, 1 = to)
//   - from: the snapshot at the earlier keyframe
//   - to: the snapshot at the later keyframe
//   - target: the vertex data receiving the result
//
// Returns:
//   - error: error if the buffers disagree in size or a lock fails
func SoftwareVertexMorph(t float32, from, to Buffer, target *Data) error {
	dst := target.Positions()
	if dst == nil {
		return errors.New("morph target has no position stream bound")
	}
	n := target.VertexCount()
	if from.VertexCount() < n || to.VertexCount() < n || dst.VertexCount() < n {
		return errors.Wrapf(ErrSizeMismatch, "morph of %d vertices", n)
	}
	return WithLock(from, LockReadOnly, func(a []mgl32.Vec3) error {
		// a single-keyframe track morphs a snapshot onto itself
		if from == to {
			return WithLock(dst, LockDiscard, func(out []mgl32.Vec3) error {
				copy(out[:n], a[:n])
				return nil
			})
		}
		return WithLock(to, LockReadOnly, func(b []mgl32.Vec3) error {
			return WithLock(dst, LockDiscard, func(out []mgl32.Vec3) error {
				for i := 0; i < n; i++ {
					out[i] = a[i].Add(b[i].Sub(a[i]).Mul(t))
				}
				return nil
			})
		})
	})
}

// SoftwareVertexPoseBlend adds sparse pose offsets scaled by weight onto the position stream
// of target. A zero weight leaves the stream untouched.
//
// Parameters:
//   - weight: the influence applied to every offset
//   - offsets: the sparse per-vertex offsets
//   - target: the vertex data receiving the offsets
//
// Returns:
//   - error: error if an offset index is out of range or a lock fails
func SoftwareVertexPoseBlend(weight float32, offsets map[int]mgl32.Vec3, target *Data) error {
	if weight == 0 || len(offsets) == 0 {
		return nil
	}
	dst := target.Positions()
	if dst == nil {
		return errors.New("pose target has no position stream bound")
	}
	return WithLock(dst, LockNormal, func(out []mgl32.Vec3) error {
		for idx, off := range offsets {
			if idx < 0 || idx >= len(out) {
				return errors.Errorf("pose offset for vertex %d outside %d vertices", idx, len(out))
			}
			out[idx] = out[idx].Add(off.Mul(weight))
		}
		return nil
	})
}
