package skeleton

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Bone is a node of a skeleton with a handle, an optional unique name and the inverse of its
// derived transform at bind time.
type Bone struct {
	*Node
	handle             uint16
	skeleton           *Skeleton
	manual             bool
	bindDerivedInverse mgl32.Mat4
}

func newBone(s *Skeleton, handle uint16, name string) *Bone {
	b := &Bone{
		Node:               &Node{},
		handle:             handle,
		skeleton:           s,
		bindDerivedInverse: mgl32.Ident4(),
	}
	b.initNode(name, b)
	return b
}

// Handle returns the bone handle.
func (b *Bone) Handle() uint16 {
	return b.handle
}

// Skeleton returns the skeleton that created the bone.
func (b *Bone) Skeleton() *Skeleton {
	return b.skeleton
}

// ParentBone returns the parent bone.
//
// Returns:
//   - *Bone: the parent bone
//   - bool: false for a root bone
func (b *Bone) ParentBone() (*Bone, bool) {
	if b.parent == nil {
		return nil, false
	}
	p, ok := b.parent.holder.(*Bone)
	return p, ok
}

// ChildBones returns the child bones in attach order, skipping tag points.
func (b *Bone) ChildBones() []*Bone {
	out := make([]*Bone, 0, len(b.children))
	for _, c := range b.children {
		if cb, ok := c.holder.(*Bone); ok {
			out = append(out, cb)
		}
	}
	return out
}

// AddChild attaches child below this bone. Both bones must belong to the same skeleton.
//
// Parameters:
//   - child: the bone to attach
//
// Returns:
//   - error: error if the bones belong to different skeletons or child already has a parent
func (b *Bone) AddChild(child *Bone) error {
	if child.skeleton != b.skeleton {
		return errors.Errorf("bone %q and bone %q belong to different skeletons", b.name, child.name)
	}
	if err := b.AttachChild(child.Node); err != nil {
		return err
	}
	b.skeleton.rootsDirty = true
	return nil
}

// RemoveChild detaches child from this bone, turning it into a root.
func (b *Bone) RemoveChild(child *Bone) bool {
	if !b.DetachChild(child.Node) {
		return false
	}
	b.skeleton.rootsDirty = true
	return true
}

// CreateChild creates a new bone with an automatic handle below this one.
//
// Parameters:
//   - name: the unique bone name, or "" for an unnamed bone
//   - translate: the local position of the new bone
//   - rotate: the local orientation of the new bone
//
// Returns:
//   - *Bone: the new bone
//   - error: error if the skeleton rejects the bone
func (b *Bone) CreateChild(name string, translate mgl32.Vec3, rotate mgl32.Quat) (*Bone, error) {
	child, err := b.skeleton.CreateBone(name)
	if err != nil {
		return nil, err
	}
	child.position = translate
	child.orientation = rotate.Normalize()
	if err := b.AddChild(child); err != nil {
		return nil, err
	}
	return child, nil
}

// SetBindingPose records the current local transform as the initial state and the inverse of
// the current derived transform as the bind pose. Scale is not part of the bind inverse.
func (b *Bone) SetBindingPose() {
	b.SetInitialState()
	b.bindDerivedInverse = common.InverseMatrix(b.DerivedPosition(), b.DerivedOrientation(), common.UnitScale)
}

// BindDerivedInverseTransform returns the inverse derived transform captured at bind time.
func (b *Bone) BindDerivedInverseTransform() mgl32.Mat4 {
	return b.bindDerivedInverse
}

// Reset restores the bind-pose local transform.
func (b *Bone) Reset() {
	b.ResetToInitialState()
}

// SetManuallyControlled marks the bone as driven by user code. Manually controlled bones are not
// reset before animation states are applied.
func (b *Bone) SetManuallyControlled(manual bool) {
	b.manual = manual
}

// ManuallyControlled reports whether the bone is driven by user code.
func (b *Bone) ManuallyControlled() bool {
	return b.manual
}

// OffsetTransform returns the skinning matrix: the current derived transform relative to the
// bind pose.
func (b *Bone) OffsetTransform() mgl32.Mat4 {
	return b.FullTransform().Mul4(b.bindDerivedInverse)
}
