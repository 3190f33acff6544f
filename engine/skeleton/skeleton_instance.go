package skeleton

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// SkeletonInstance is the per-entity copy of a master skeleton. It owns a clone of the master's
// bones so its pose can diverge, while animations stay with the master and are shared by every
// instance.
type SkeletonInstance struct {
	master *Skeleton
	local  *Skeleton
	entity EntityTransformer

	tagPoints        []*TagPoint
	nextTagPointID   uint16
	attachmentPoints map[string]*TagPoint
}

var (
	_ animation.TargetResolver  = &SkeletonInstance{}
	_ animation.AnimationSource = &SkeletonInstance{}
)

// NewSkeletonInstance clones the bone tree of master and captures the clone's bind pose.
//
// Parameters:
//   - master: the skeleton to clone
//
// Returns:
//   - *SkeletonInstance: the instance
//   - error: error if cloning fails
func NewSkeletonInstance(master *Skeleton) (*SkeletonInstance, error) {
	si := &SkeletonInstance{
		master:           master,
		local:            NewSkeleton(master.name, WithBlendMode(master.blendMode), WithLogger(master.log.WithField("instance", true))),
		nextTagPointID:   MaxBones,
		attachmentPoints: make(map[string]*TagPoint),
	}
	for _, root := range master.RootBones() {
		if err := si.cloneBoneAndChildren(root, nil); err != nil {
			return nil, errors.Wrapf(err, "instance of skeleton %q", master.name)
		}
	}
	si.local.SetBindingPose()

	for _, ap := range master.attachmentPoints {
		bone, err := si.local.Bone(ap.ParentBone)
		if err != nil {
			return nil, errors.Wrapf(err, "attachment point %q", ap.Name)
		}
		tp, err := si.CreateTagPointOnBone(bone, ap.Orientation, ap.Position)
		if err != nil {
			return nil, err
		}
		si.attachmentPoints[ap.Name] = tp
	}
	return si, nil
}

func (si *SkeletonInstance) cloneBoneAndChildren(source, parent *Bone) error {
	b, err := si.local.CreateBoneWithHandle(source.handle, source.name)
	if err != nil {
		return err
	}
	b.position = source.position
	b.orientation = source.orientation
	b.scale = source.scale
	b.inheritOrientation = source.inheritOrientation
	b.inheritScale = source.inheritScale
	b.manual = source.manual
	if parent != nil {
		if err := parent.AddChild(b); err != nil {
			return err
		}
	}
	for _, child := range source.ChildBones() {
		if err := si.cloneBoneAndChildren(child, b); err != nil {
			return err
		}
	}
	return nil
}

// Master returns the skeleton the instance was cloned from.
func (si *SkeletonInstance) Master() *Skeleton {
	return si.master
}

// SetEntity sets the entity whose world transform tag points compose with.
func (si *SkeletonInstance) SetEntity(entity EntityTransformer) {
	si.entity = entity
}

// Name returns the master skeleton name.
func (si *SkeletonInstance) Name() string {
	return si.master.name
}

// BlendMode returns the instance blend mode, copied from the master at creation.
func (si *SkeletonInstance) BlendMode() BlendMode {
	return si.local.blendMode
}

// SetBlendMode changes the instance blend mode without affecting the master.
func (si *SkeletonInstance) SetBlendMode(mode BlendMode) {
	si.local.blendMode = mode
}

// Bone returns the instance bone with a handle.
func (si *SkeletonInstance) Bone(handle uint16) (*Bone, error) {
	return si.local.Bone(handle)
}

// BoneByName returns the instance bone with a name.
func (si *SkeletonInstance) BoneByName(name string) (*Bone, error) {
	return si.local.BoneByName(name)
}

// Bones returns the instance bones in handle order.
func (si *SkeletonInstance) Bones() []*Bone {
	return si.local.Bones()
}

// RootBone returns the first instance root bone.
func (si *SkeletonInstance) RootBone() (*Bone, error) {
	return si.local.RootBone()
}

// NumBones returns the number of bones.
func (si *SkeletonInstance) NumBones() int {
	return si.local.NumBones()
}

// PaletteSize returns the number of entries BoneMatrices writes.
func (si *SkeletonInstance) PaletteSize() int {
	return si.local.PaletteSize()
}

// BoneTarget resolves a node track handle to the instance bone with that handle.
func (si *SkeletonInstance) BoneTarget(handle uint16) (animation.TransformTarget, bool) {
	return si.local.BoneTarget(handle)
}

// SetBindingPose recaptures the bind pose of the instance bones.
func (si *SkeletonInstance) SetBindingPose() {
	si.local.SetBindingPose()
}

// Reset restores the instance bones to their bind pose.
func (si *SkeletonInstance) Reset(resetManualBones bool) {
	si.local.Reset(resetManualBones)
}

// UpdateTransforms recomputes the derived transforms of dirty instance bones and tag points.
func (si *SkeletonInstance) UpdateTransforms() {
	si.local.UpdateTransforms()
}

// BoneMatrices writes the skinning matrices of the instance bones.
func (si *SkeletonInstance) BoneMatrices(out []mgl32.Mat4) error {
	return si.local.BoneMatrices(out)
}

// CreateAnimation creates an animation on the master, visible to every instance.
func (si *SkeletonInstance) CreateAnimation(name string, length float32) (*animation.Animation, error) {
	return si.master.CreateAnimation(name, length)
}

// Animation returns the named animation of the master.
func (si *SkeletonInstance) Animation(name string) (*animation.Animation, bool) {
	return si.master.Animation(name)
}

// HasAnimation reports whether the master has the named animation.
func (si *SkeletonInstance) HasAnimation(name string) bool {
	return si.master.HasAnimation(name)
}

// RemoveAnimation removes an animation from the master, and so from every instance.
func (si *SkeletonInstance) RemoveAnimation(name string) error {
	return si.master.RemoveAnimation(name)
}

// NumAnimations returns the number of master animations.
func (si *SkeletonInstance) NumAnimations() int {
	return si.master.NumAnimations()
}

// AnimationNames returns the master animation names in ascending order.
func (si *SkeletonInstance) AnimationNames() []string {
	return si.master.AnimationNames()
}

// InitAnimationState creates one disabled state per master animation.
func (si *SkeletonInstance) InitAnimationState(set *animation.AnimationStateSet) error {
	return si.local.initAnimationState(set, si.master.animations)
}

// RefreshAnimationState syncs set with the master animations.
func (si *SkeletonInstance) RefreshAnimationState(set *animation.AnimationStateSet) error {
	return refreshAnimationState(set, si.master.animations)
}

// SetAnimationState poses the instance bones from a state set using the master animations.
func (si *SkeletonInstance) SetAnimationState(set *animation.AnimationStateSet) {
	si.local.applyAnimationState(set, si.master)
}

// PrepareAnimationCaches primes the caches of the shared master animations.
func (si *SkeletonInstance) PrepareAnimationCaches() {
	si.master.PrepareAnimationCaches()
}

// CreateTagPointOnBone hangs a new tag point below one of the instance bones.
//
// Parameters:
//   - bone: the instance bone
//   - offsetOrientation: the orientation relative to the bone
//   - offsetPosition: the position relative to the bone
//
// Returns:
//   - *TagPoint: the tag point
//   - error: error if the bone belongs to another skeleton
func (si *SkeletonInstance) CreateTagPointOnBone(bone *Bone, offsetOrientation mgl32.Quat, offsetPosition mgl32.Vec3) (*TagPoint, error) {
	if bone.skeleton != si.local {
		return nil, errors.Errorf("bone %q does not belong to this skeleton instance", bone.name)
	}
	tp := newTagPoint(si, si.nextTagPointID)
	si.nextTagPointID++
	tp.position = offsetPosition
	tp.orientation = offsetOrientation.Normalize()
	tp.scale = common.UnitScale
	tp.SetInitialState()
	if err := bone.AttachChild(tp.Node); err != nil {
		return nil, err
	}
	si.tagPoints = append(si.tagPoints, tp)
	return tp, nil
}

// FreeTagPoint detaches a tag point from its bone and forgets it.
//
// Returns:
//   - bool: false if the tag point does not belong to the instance
func (si *SkeletonInstance) FreeTagPoint(tp *TagPoint) bool {
	list, ok := common.RemoveValue(si.tagPoints, tp)
	if !ok {
		return false
	}
	si.tagPoints = list
	if tp.parent != nil {
		tp.parent.DetachChild(tp.Node)
	}
	for name, ap := range si.attachmentPoints {
		if ap == tp {
			delete(si.attachmentPoints, name)
		}
	}
	return true
}

// TagPoints returns the live tag points in creation order.
func (si *SkeletonInstance) TagPoints() []*TagPoint {
	return si.tagPoints
}

// AttachmentTagPoint returns the tag point created for a master attachment point.
func (si *SkeletonInstance) AttachmentTagPoint(name string) (*TagPoint, bool) {
	tp, ok := si.attachmentPoints[name]
	return tp, ok
}

// DebugDump renders the instance bone tree for debugging.
func (si *SkeletonInstance) DebugDump() string {
	return si.local.DebugDump()
}
