// Package skeleton holds bone hierarchies: transform nodes with dirty propagation, bones with
// bind-pose inverses, skeletons that own their animations and blend animation states onto their
// bones, and per-entity skeleton instances that share the animations of a master skeleton.
package skeleton

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/davecgh/go-spew/spew"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MaxBones bounds the number of bones, and therefore the skin matrix palette, of a skeleton.
const MaxBones = 256

// AttachmentPoint names a fixed offset from a bone that skeleton instances turn into tag points.
type AttachmentPoint struct {
	// Name is the unique attachment point name.
	Name string

	// ParentBone is the handle of the bone the point hangs from.
	ParentBone uint16

	// Orientation is the offset orientation relative to the bone.
	Orientation mgl32.Quat

	// Position is the offset position relative to the bone.
	Position mgl32.Vec3
}

// Skeleton is a bone hierarchy plus the animations defined for it.
type Skeleton struct {
	name        string
	bones       []*Bone
	boneCount   int
	bonesByName map[string]*Bone

	rootBones  []*Bone
	rootsDirty bool

	animations       map[string]*animation.Animation
	animationOptions []animation.AnimationBuilderOption
	blendMode        BlendMode

	attachmentPoints []AttachmentPoint
	log              *logrus.Entry
}

var (
	_ animation.TargetResolver  = &Skeleton{}
	_ animation.AnimationSource = &Skeleton{}
)

// NewSkeleton creates an empty skeleton.
//
// Parameters:
//   - name: the skeleton name
//   - options: optional builder options
//
// Returns:
//   - *Skeleton: the skeleton
func NewSkeleton(name string, options ...SkeletonBuilderOption) *Skeleton {
	s := &Skeleton{
		name:        name,
		bonesByName: make(map[string]*Bone),
		animations:  make(map[string]*animation.Animation),
		blendMode:   BlendAverage,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.log == nil {
		s.log = common.ComponentLogger("skeleton")
	}
	s.log = s.log.WithField("skeleton", name)
	s.log.Debug("skeleton created")
	return s
}

// Name returns the skeleton name.
func (s *Skeleton) Name() string {
	return s.name
}

// BlendMode returns how enabled animation states combine.
func (s *Skeleton) BlendMode() BlendMode {
	return s.blendMode
}

// SetBlendMode sets how enabled animation states combine.
func (s *Skeleton) SetBlendMode(mode BlendMode) {
	s.blendMode = mode
}

// CreateBone creates a bone with the lowest free handle.
//
// Parameters:
//   - name: the unique bone name, or "" for an unnamed bone
//
// Returns:
//   - *Bone: the new root bone
//   - error: ErrBoneLimit when the skeleton is full, ErrDuplicate for a taken name
func (s *Skeleton) CreateBone(name string) (*Bone, error) {
	handle := len(s.bones)
	for i, b := range s.bones {
		if b == nil {
			handle = i
			break
		}
	}
	if handle >= MaxBones {
		return nil, errors.Wrapf(common.ErrBoneLimit, "skeleton %q already has %d bones", s.name, s.boneCount)
	}
	return s.CreateBoneWithHandle(uint16(handle), name)
}

// CreateBoneWithHandle creates a bone with an explicit handle.
//
// Parameters:
//   - handle: the bone handle, below MaxBones
//   - name: the unique bone name, or "" for an unnamed bone
//
// Returns:
//   - *Bone: the new root bone
//   - error: ErrBoneLimit for a handle past the limit, ErrDuplicate for a taken handle or name
func (s *Skeleton) CreateBoneWithHandle(handle uint16, name string) (*Bone, error) {
	if int(handle) >= MaxBones {
		return nil, errors.Wrapf(common.ErrBoneLimit, "skeleton %q bone handle %d, limit %d", s.name, handle, MaxBones)
	}
	if int(handle) < len(s.bones) && s.bones[handle] != nil {
		return nil, errors.Wrapf(common.ErrDuplicate, "skeleton %q bone handle %d", s.name, handle)
	}
	if name != "" {
		if _, ok := s.bonesByName[name]; ok {
			return nil, errors.Wrapf(common.ErrDuplicate, "skeleton %q bone name %q", s.name, name)
		}
	}

	b := newBone(s, handle, name)
	for len(s.bones) <= int(handle) {
		s.bones = append(s.bones, nil)
	}
	s.bones[handle] = b
	s.boneCount++
	if name != "" {
		s.bonesByName[name] = b
	}
	s.rootsDirty = true
	return b, nil
}

// Bone returns the bone with a handle.
//
// Returns:
//   - *Bone: the bone
//   - error: ErrOutOfRange past the highest handle, ErrNotFound for an unused handle
func (s *Skeleton) Bone(handle uint16) (*Bone, error) {
	if int(handle) >= len(s.bones) {
		return nil, errors.Wrapf(common.ErrOutOfRange, "skeleton %q bone handle %d of %d", s.name, handle, len(s.bones))
	}
	b := s.bones[handle]
	if b == nil {
		return nil, errors.Wrapf(common.ErrNotFound, "skeleton %q bone handle %d", s.name, handle)
	}
	return b, nil
}

// BoneByName returns the bone with a name.
//
// Returns:
//   - *Bone: the bone
//   - error: ErrNotFound if no bone has the name
func (s *Skeleton) BoneByName(name string) (*Bone, error) {
	b, ok := s.bonesByName[name]
	if !ok {
		return nil, errors.Wrapf(common.ErrNotFound, "skeleton %q bone %q", s.name, name)
	}
	return b, nil
}

// HasBone reports whether a bone has the name.
func (s *Skeleton) HasBone(name string) bool {
	_, ok := s.bonesByName[name]
	return ok
}

// NumBones returns the number of bones.
func (s *Skeleton) NumBones() int {
	return s.boneCount
}

// PaletteSize returns the number of entries BoneMatrices writes: the highest handle plus one.
func (s *Skeleton) PaletteSize() int {
	return len(s.bones)
}

// Bones returns the bones in handle order.
func (s *Skeleton) Bones() []*Bone {
	out := make([]*Bone, 0, s.boneCount)
	for _, b := range s.bones {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

// BoneTarget resolves a node track handle to the bone with that handle.
func (s *Skeleton) BoneTarget(handle uint16) (animation.TransformTarget, bool) {
	if int(handle) >= len(s.bones) || s.bones[handle] == nil {
		return nil, false
	}
	return s.bones[handle], true
}

// RootBones returns every bone without a parent in handle order.
func (s *Skeleton) RootBones() []*Bone {
	s.deriveRootBones()
	return s.rootBones
}

// RootBone returns the first root bone.
//
// Returns:
//   - *Bone: the root bone
//   - error: ErrNotFound for an empty skeleton
func (s *Skeleton) RootBone() (*Bone, error) {
	s.deriveRootBones()
	if len(s.rootBones) == 0 {
		return nil, errors.Wrapf(common.ErrNotFound, "skeleton %q has no bones", s.name)
	}
	return s.rootBones[0], nil
}

func (s *Skeleton) deriveRootBones() {
	if !s.rootsDirty && s.rootBones != nil {
		return
	}
	s.rootBones = s.rootBones[:0]
	for _, b := range s.bones {
		if b != nil && b.parent == nil {
			s.rootBones = append(s.rootBones, b)
		}
	}
	s.rootsDirty = false
}

// UpdateTransforms recomputes the derived transforms of every dirty bone.
func (s *Skeleton) UpdateTransforms() {
	for _, root := range s.RootBones() {
		root.Update(true, false)
	}
}

// SetBindingPose captures the current pose as the bind pose of every bone.
func (s *Skeleton) SetBindingPose() {
	s.UpdateTransforms()
	for _, b := range s.bones {
		if b != nil {
			b.SetBindingPose()
		}
	}
}

// Reset restores every bone to its bind-pose local transform.
//
// Parameters:
//   - resetManualBones: also reset bones marked as manually controlled
func (s *Skeleton) Reset(resetManualBones bool) {
	for _, b := range s.bones {
		if b != nil && (resetManualBones || !b.manual) {
			b.Reset()
		}
	}
}

// BoneMatrices writes the skinning matrix of every bone, indexed by handle. Unused handles get
// the identity.
//
// Parameters:
//   - out: the destination, at least PaletteSize long
//
// Returns:
//   - error: ErrOutOfRange if out is too short
func (s *Skeleton) BoneMatrices(out []mgl32.Mat4) error {
	if len(out) < len(s.bones) {
		return errors.Wrapf(common.ErrOutOfRange, "palette of %d for %d bones", len(out), len(s.bones))
	}
	s.UpdateTransforms()
	for i, b := range s.bones {
		if b == nil {
			out[i] = mgl32.Ident4()
			continue
		}
		out[i] = b.OffsetTransform()
	}
	return nil
}

// CreateAnimation creates an animation on the skeleton with the skeleton's animation options.
//
// Parameters:
//   - name: the unique animation name
//   - length: the animation length in seconds
//
// Returns:
//   - *animation.Animation: the animation
//   - error: ErrDuplicate if the name is taken
func (s *Skeleton) CreateAnimation(name string, length float32) (*animation.Animation, error) {
	if _, ok := s.animations[name]; ok {
		return nil, errors.Wrapf(common.ErrDuplicate, "skeleton %q animation %q", s.name, name)
	}
	a := animation.NewAnimation(name, length, s.animationOptions...)
	s.animations[name] = a
	s.log.WithField("animation", name).Debug("animation created")
	return a, nil
}

// AddAnimation adds an animation built elsewhere.
//
// Returns:
//   - error: ErrDuplicate if the name is taken
func (s *Skeleton) AddAnimation(a *animation.Animation) error {
	if _, ok := s.animations[a.Name()]; ok {
		return errors.Wrapf(common.ErrDuplicate, "skeleton %q animation %q", s.name, a.Name())
	}
	s.animations[a.Name()] = a
	return nil
}

// Animation returns the named animation. A missing animation is not an error; states referencing
// removed animations are skipped.
func (s *Skeleton) Animation(name string) (*animation.Animation, bool) {
	a, ok := s.animations[name]
	return a, ok
}

// HasAnimation reports whether an animation has the name.
func (s *Skeleton) HasAnimation(name string) bool {
	_, ok := s.animations[name]
	return ok
}

// RemoveAnimation removes the named animation.
//
// Returns:
//   - error: ErrNotFound if no animation has the name
func (s *Skeleton) RemoveAnimation(name string) error {
	if _, ok := s.animations[name]; !ok {
		return errors.Wrapf(common.ErrNotFound, "skeleton %q animation %q", s.name, name)
	}
	delete(s.animations, name)
	s.log.WithField("animation", name).Debug("animation removed")
	return nil
}

// NumAnimations returns the number of animations.
func (s *Skeleton) NumAnimations() int {
	return len(s.animations)
}

// AnimationNames returns the animation names in ascending order.
func (s *Skeleton) AnimationNames() []string {
	out := make([]string, 0, len(s.animations))
	for name := range s.animations {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SetAnimationState poses the skeleton from a state set: every bone not manually controlled is
// reset to the bind pose, then each enabled state is applied in enable order. States whose
// animation does not exist are skipped.
//
// Parameters:
//   - set: the state set to apply
func (s *Skeleton) SetAnimationState(set *animation.AnimationStateSet) {
	s.applyAnimationState(set, s)
}

func (s *Skeleton) applyAnimationState(set *animation.AnimationStateSet, source animation.AnimationSource) {
	s.Reset(false)
	accumulate := s.blendMode == BlendCumulative
	set.VisitEnabled(func(st *animation.AnimationState) {
		anim, ok := source.Animation(st.Name())
		if !ok {
			s.log.WithField("animation", st.Name()).Trace("skipping state without animation")
			return
		}
		anim.ApplyToSkeleton(s, st.TimePosition(), st.Weight(), accumulate, 1)
	})
}

// InitAnimationState creates one disabled state per animation.
//
// Parameters:
//   - set: the set receiving the states; it is emptied first
//
// Returns:
//   - error: error if a state cannot be created
func (s *Skeleton) InitAnimationState(set *animation.AnimationStateSet) error {
	return s.initAnimationState(set, s.animations)
}

func (s *Skeleton) initAnimationState(set *animation.AnimationStateSet, anims map[string]*animation.Animation) error {
	set.RemoveAllAnimationStates()
	for _, name := range sortedNames(anims) {
		if _, err := set.CreateAnimationState(name, 0, anims[name].Length(), 1, false); err != nil {
			return err
		}
	}
	return nil
}

// RefreshAnimationState adds states for animations created since the set was initialised and
// updates the lengths of existing ones, clamping their time positions.
//
// Parameters:
//   - set: the set to refresh
//
// Returns:
//   - error: error if a state cannot be created
func (s *Skeleton) RefreshAnimationState(set *animation.AnimationStateSet) error {
	return refreshAnimationState(set, s.animations)
}

func refreshAnimationState(set *animation.AnimationStateSet, anims map[string]*animation.Animation) error {
	for _, name := range sortedNames(anims) {
		a := anims[name]
		st, err := set.AnimationState(name)
		if err != nil {
			if _, err := set.CreateAnimationState(name, 0, a.Length(), 1, false); err != nil {
				return err
			}
			continue
		}
		st.SetLength(a.Length())
		if st.TimePosition() > a.Length() {
			st.SetTimePosition(a.Length())
		}
	}
	return nil
}

// OptimiseAllAnimations optimises every animation.
//
// Parameters:
//   - preserveIdentityNodeTracks: keep node tracks that never move their bone
func (s *Skeleton) OptimiseAllAnimations(preserveIdentityNodeTracks bool) {
	for _, name := range sortedNames(s.animations) {
		s.animations[name].Optimise(preserveIdentityNodeTracks)
	}
}

// PrepareAnimationCaches builds the lazy caches of every animation so concurrent evaluation only
// reads them.
func (s *Skeleton) PrepareAnimationCaches() {
	for _, a := range s.animations {
		a.PrepareCaches()
	}
}

// CreateAttachmentPoint registers a named offset from a bone.
//
// Parameters:
//   - name: the unique attachment point name
//   - boneHandle: the bone the point hangs from
//   - orientation: the offset orientation
//   - position: the offset position
//
// Returns:
//   - error: ErrNotFound for an unknown bone, ErrDuplicate for a taken name
func (s *Skeleton) CreateAttachmentPoint(name string, boneHandle uint16, orientation mgl32.Quat, position mgl32.Vec3) error {
	if _, err := s.Bone(boneHandle); err != nil {
		return err
	}
	for _, ap := range s.attachmentPoints {
		if ap.Name == name {
			return errors.Wrapf(common.ErrDuplicate, "skeleton %q attachment point %q", s.name, name)
		}
	}
	s.attachmentPoints = append(s.attachmentPoints, AttachmentPoint{
		Name:        name,
		ParentBone:  boneHandle,
		Orientation: orientation,
		Position:    position,
	})
	return nil
}

// AttachmentPoints returns the attachment points in creation order.
func (s *Skeleton) AttachmentPoints() []AttachmentPoint {
	return s.attachmentPoints
}

type boneDump struct {
	Handle      uint16
	Name        string
	Parent      int
	Position    mgl32.Vec3
	Orientation mgl32.Quat
	Scale       mgl32.Vec3
	Manual      bool
}

type skeletonDump struct {
	Name       string
	BlendMode  string
	Bones      []boneDump
	Animations []string
}

// DebugDump renders the bone tree and animation names for debugging.
func (s *Skeleton) DebugDump() string {
	d := skeletonDump{Name: s.name, BlendMode: s.blendMode.String(), Animations: s.AnimationNames()}
	for _, b := range s.Bones() {
		parent := -1
		if p, ok := b.ParentBone(); ok {
			parent = int(p.handle)
		}
		d.Bones = append(d.Bones, boneDump{
			Handle:      b.handle,
			Name:        b.name,
			Parent:      parent,
			Position:    b.position,
			Orientation: b.orientation,
			Scale:       b.scale,
			Manual:      b.manual,
		})
	}
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	return cfg.Sdump(d)
}

func sortedNames(anims map[string]*animation.Animation) []string {
	out := make([]string, 0, len(anims))
	for name := range anims {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
