// Package asset turns already-parsed skeleton and clip data, as handed over by a model loader,
// into skeletons with node track animations.
package asset

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation"
	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// keyTimeEpsilon merges channel key times closer than this, in source units.
const keyTimeEpsilon = 1e-5

// BuildSkeleton creates a skeleton from parsed bones, captures its bind pose and adds every clip.
// Bone i gets handle i.
//
// Parameters:
//   - data: the parsed skeleton
//   - clips: the parsed clips, may be empty
//   - options: options for the created skeleton
//
// Returns:
//   - *skeleton.Skeleton: the skeleton with its animations
//   - error: error if the hierarchy or a clip is malformed
func BuildSkeleton(data *Skeleton, clips []*AnimationClip, options ...skeleton.SkeletonBuilderOption) (*skeleton.Skeleton, error) {
	if data == nil {
		return nil, errors.New("skeleton data is nil")
	}
	if len(data.Bones) > skeleton.MaxBones {
		return nil, errors.Wrapf(common.ErrBoneLimit, "skeleton %q has %d bones", data.Name, len(data.Bones))
	}

	skel := skeleton.NewSkeleton(data.Name, options...)
	bones := make([]*skeleton.Bone, len(data.Bones))
	for i, src := range data.Bones {
		b, err := skel.CreateBoneWithHandle(uint16(i), src.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "bone %d", i)
		}
		b.SetPosition(src.LocalTransform.translation())
		b.SetOrientation(src.LocalTransform.rotation())
		b.SetScale(src.LocalTransform.scale())
		bones[i] = b
	}
	for i, src := range data.Bones {
		if src.ParentIndex < 0 {
			continue
		}
		if int(src.ParentIndex) >= len(bones) || int(src.ParentIndex) == i {
			return nil, errors.Wrapf(common.ErrOutOfRange, "bone %d parent index %d", i, src.ParentIndex)
		}
		if err := bones[src.ParentIndex].AddChild(bones[i]); err != nil {
			return nil, errors.Wrapf(err, "bone %d", i)
		}
	}
	skel.SetBindingPose()

	for _, clip := range clips {
		if _, err := AddAnimation(skel, clip); err != nil {
			return nil, err
		}
	}
	return skel, nil
}

// AddAnimation converts a parsed clip into an animation of skel. Each channel becomes a node
// track with one keyframe per distinct key time of its position, rotation and scale keys.
// Channels missing a key at a time are sampled there, linearly for vectors and by nlerp for
// rotations. Keyframes hold deltas from the bind pose, which skel must already have.
//
// Parameters:
//   - skel: the skeleton receiving the animation
//   - clip: the parsed clip
//
// Returns:
//   - *animation.Animation: the new animation
//   - error: error if a channel targets an unknown bone or two channels target the same bone
func AddAnimation(skel *skeleton.Skeleton, clip *AnimationClip) (*animation.Animation, error) {
	if clip == nil {
		return nil, errors.New("animation clip is nil")
	}
	toSeconds := float32(1)
	if clip.TicksPerSecond > 0 {
		toSeconds = 1 / clip.TicksPerSecond
	}
	length := clip.Duration * toSeconds
	if length <= 0 {
		for _, ch := range clip.Channels {
			if times := keyTimes(ch); len(times) > 0 {
				length = max(length, times[len(times)-1]*toSeconds)
			}
		}
	}

	anim, err := skel.CreateAnimation(clip.Name, length)
	if err != nil {
		return nil, err
	}
	for _, ch := range clip.Channels {
		if err := addChannel(skel, anim, ch, toSeconds); err != nil {
			_ = skel.RemoveAnimation(clip.Name)
			return nil, errors.Wrapf(err, "animation %q", clip.Name)
		}
	}
	return anim, nil
}

func addChannel(skel *skeleton.Skeleton, anim *animation.Animation, ch AnimationChannel, toSeconds float32) error {
	if ch.BoneIndex < 0 || int(ch.BoneIndex) >= skel.PaletteSize() {
		return errors.Wrapf(common.ErrOutOfRange, "channel bone index %d", ch.BoneIndex)
	}
	bone, err := skel.Bone(uint16(ch.BoneIndex))
	if err != nil {
		return err
	}
	tr, err := anim.CreateNodeTrack(bone.Handle(), nil)
	if err != nil {
		return err
	}

	bindPos := bone.InitialPosition()
	bindRot := bone.InitialOrientation()
	bindScale := bone.InitialScale()
	invBindRot := bindRot.Inverse()

	positions := sortedVectorKeys(ch.PositionKeys)
	rotations := sortedQuaternionKeys(ch.RotationKeys)
	scales := sortedVectorKeys(ch.ScaleKeys)

	for _, t := range keyTimes(ch) {
		pos := sampleVector(positions, t, bindPos)
		rot := sampleRotation(rotations, t, bindRot)
		scale := sampleVector(scales, t, bindScale)

		kf := tr.CreateKeyFrame(t * toSeconds)
		kf.SetTranslate(pos.Sub(bindPos))
		kf.SetRotation(invBindRot.Mul(rot).Normalize())
		kf.SetScale(mgl32.Vec3{
			divScale(scale[0], bindScale[0]),
			divScale(scale[1], bindScale[1]),
			divScale(scale[2], bindScale[2]),
		})
	}
	return nil
}

// keyTimes returns the sorted distinct key times of a channel in source units.
func keyTimes(ch AnimationChannel) []float32 {
	times := make([]float32, 0, len(ch.PositionKeys)+len(ch.RotationKeys)+len(ch.ScaleKeys))
	for _, k := range ch.PositionKeys {
		times = append(times, k.Time)
	}
	for _, k := range ch.RotationKeys {
		times = append(times, k.Time)
	}
	for _, k := range ch.ScaleKeys {
		times = append(times, k.Time)
	}
	slices.Sort(times)
	return slices.CompactFunc(times, func(a, b float32) bool {
		d := a - b
		return d < keyTimeEpsilon && d > -keyTimeEpsilon
	})
}

func sortedVectorKeys(keys []VectorKeyframe) []VectorKeyframe {
	out := slices.Clone(keys)
	slices.SortStableFunc(out, func(a, b VectorKeyframe) int { return cmpTime(a.Time, b.Time) })
	return out
}

func sortedQuaternionKeys(keys []QuaternionKeyframe) []QuaternionKeyframe {
	out := slices.Clone(keys)
	slices.SortStableFunc(out, func(a, b QuaternionKeyframe) int { return cmpTime(a.Time, b.Time) })
	return out
}

func cmpTime(a, b float32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// sampleVector evaluates sorted keys at t, holding the end values outside their range.
func sampleVector(keys []VectorKeyframe, t float32, fallback mgl32.Vec3) mgl32.Vec3 {
	if len(keys) == 0 {
		return fallback
	}
	i, frac := bracket(len(keys), t, func(i int) float32 { return keys[i].Time })
	if frac == 0 {
		return mgl32.Vec3(keys[i].Value)
	}
	return common.LerpVec3(mgl32.Vec3(keys[i].Value), mgl32.Vec3(keys[i+1].Value), frac)
}

// sampleRotation evaluates sorted keys at t along the shortest path.
func sampleRotation(keys []QuaternionKeyframe, t float32, fallback mgl32.Quat) mgl32.Quat {
	if len(keys) == 0 {
		return fallback
	}
	i, frac := bracket(len(keys), t, func(i int) float32 { return keys[i].Time })
	if frac == 0 {
		return quat(keys[i].Value)
	}
	return common.Nlerp(quat(keys[i].Value), quat(keys[i+1].Value), frac, true)
}

// bracket returns the key at or before t and the fraction towards the next key. Times before
// the first key or after the last clamp with a zero fraction.
func bracket(n int, t float32, timeAt func(int) float32) (int, float32) {
	if t <= timeAt(0) {
		return 0, 0
	}
	if t >= timeAt(n-1) {
		return n - 1, 0
	}
	i := 0
	for i+1 < n && timeAt(i+1) <= t {
		i++
	}
	span := timeAt(i+1) - timeAt(i)
	if span <= 0 {
		return i, 0
	}
	return i, (t - timeAt(i)) / span
}

func divScale(v, bind float32) float32 {
	if bind == 0 {
		return 1
	}
	return v / bind
}
