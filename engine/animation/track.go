package animation

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/pkg/errors"
)

// keyFrameList keeps keyframes sorted by time together with a lazily built time index used to
// bracket a time position with a binary search.
type keyFrameList[K timedKeyFrame] struct {
	frames  []K
	times   []float32
	maxTime float32
}

func (l *keyFrameList[K]) len() int {
	return len(l.frames)
}

func (l *keyFrameList[K]) at(i int) (K, error) {
	var zero K
	if i < 0 || i >= len(l.frames) {
		return zero, errors.Wrapf(common.ErrOutOfRange, "keyframe %d of %d", i, len(l.frames))
	}
	return l.frames[i], nil
}

// insert places k after every keyframe with a time <= k.Time(), keeping equal times in
// insertion order.
func (l *keyFrameList[K]) insert(k K) int {
	t := k.Time()
	i := sort.Search(len(l.frames), func(i int) bool { return l.frames[i].Time() > t })
	var zero K
	l.frames = append(l.frames, zero)
	copy(l.frames[i+1:], l.frames[i:])
	l.frames[i] = k
	if t > l.maxTime {
		l.maxTime = t
	}
	l.times = nil
	return i
}

func (l *keyFrameList[K]) remove(i int) error {
	if i < 0 || i >= len(l.frames) {
		return errors.Wrapf(common.ErrOutOfRange, "keyframe %d of %d", i, len(l.frames))
	}
	l.frames[i].setOwner(nil)
	l.frames = append(l.frames[:i], l.frames[i+1:]...)
	l.times = nil
	l.recomputeMax()
	return nil
}

func (l *keyFrameList[K]) clear() {
	for _, k := range l.frames {
		k.setOwner(nil)
	}
	l.frames = nil
	l.times = nil
	l.maxTime = 0
}

func (l *keyFrameList[K]) recomputeMax() {
	l.maxTime = 0
	if n := len(l.frames); n > 0 {
		l.maxTime = l.frames[n-1].Time()
	}
}

func (l *keyFrameList[K]) buildIndex() {
	if l.times != nil && len(l.times) == len(l.frames) {
		return
	}
	times := make([]float32, len(l.frames))
	for i, k := range l.frames {
		times[i] = k.Time()
	}
	l.times = times
}

// bracket finds the keyframes surrounding timePos. The time is wrapped into [0, length) first.
// before is the last keyframe at or before the wrapped time (clamped to the first keyframe);
// after is the next keyframe, or the first keyframe when before is the last one, in which case
// its effective time is length. t is the fraction between the two in [0, 1).
func (l *keyFrameList[K]) bracket(timePos, length float32, useIndex bool) (before, after int, t float32) {
	n := len(l.frames)
	if n == 0 {
		return -1, -1, 0
	}
	timePos = common.WrapTime(timePos, length)

	if useIndex {
		l.buildIndex()
		// first key strictly after timePos
		idx := sort.Search(n, func(i int) bool { return l.times[i] > timePos })
		before = idx - 1
	} else {
		before = -1
		for i, k := range l.frames {
			if k.Time() > timePos {
				break
			}
			before = i
		}
	}
	if before < 0 {
		before = 0
	}

	t1 := l.frames[before].Time()
	var t2 float32
	if before == n-1 {
		after = 0
		t2 = length
	} else {
		after = before + 1
		t2 = l.frames[after].Time()
	}

	if before == after || t2 <= t1 {
		return before, after, 0
	}
	t = (timePos - t1) / (t2 - t1)
	if t < 0 {
		t = 0
	} else if t >= 1 {
		t = 0
	}
	return before, after, t
}

// trackBase holds what node, numeric and vertex tracks share: the handle, the owning animation
// and the sorted keyframe list.
type trackBase[K timedKeyFrame] struct {
	handle       uint16
	parent       *Animation
	keys         keyFrameList[K]
	useTimeIndex bool
	owner        keyFrameOwner
}

func (b *trackBase[K]) init(handle uint16, parent *Animation, owner keyFrameOwner) {
	b.handle = handle
	b.parent = parent
	b.owner = owner
	b.useTimeIndex = true
}

// Handle returns the track handle.
func (b *trackBase[K]) Handle() uint16 {
	return b.handle
}

// Parent returns the animation that owns the track.
func (b *trackBase[K]) Parent() *Animation {
	return b.parent
}

// NumKeyFrames returns the number of keyframes.
func (b *trackBase[K]) NumKeyFrames() int {
	return b.keys.len()
}

// KeyFrame returns the keyframe at index i.
//
// Parameters:
//   - i: the keyframe index
//
// Returns:
//   - K: the keyframe
//   - error: common.ErrOutOfRange if i is not a valid index
func (b *trackBase[K]) KeyFrame(i int) (K, error) {
	return b.keys.at(i)
}

// RemoveKeyFrame removes the keyframe at index i.
//
// Parameters:
//   - i: the keyframe index
//
// Returns:
//   - error: common.ErrOutOfRange if i is not a valid index
func (b *trackBase[K]) RemoveKeyFrame(i int) error {
	if err := b.keys.remove(i); err != nil {
		return err
	}
	b.owner.keyFrameDataChanged()
	return nil
}

// RemoveAllKeyFrames removes every keyframe.
func (b *trackBase[K]) RemoveAllKeyFrames() {
	b.keys.clear()
	b.owner.keyFrameDataChanged()
}

// MaxKeyFrameTime returns the time of the last keyframe, 0 for an empty track.
func (b *trackBase[K]) MaxKeyFrameTime() float32 {
	return b.keys.maxTime
}

// SetUseTimeIndex toggles the cached time index. Without it keyframes are bracketed with a
// linear scan; both give the same result.
func (b *trackBase[K]) SetUseTimeIndex(use bool) {
	b.useTimeIndex = use
}

// KeyFramesAtTime returns the keyframes bracketing a time position and the fraction between them.
//
// Parameters:
//   - timePos: the time position; wrapped into [0, length) of the owning animation
//
// Returns:
//   - K: the keyframe at or before the time (zero value for an empty track)
//   - K: the keyframe after it, wrapping to the first keyframe at the end
//   - float32: the fraction between the two in [0, 1)
//   - int: the index of the first keyframe, -1 for an empty track
func (b *trackBase[K]) KeyFramesAtTime(timePos float32) (K, K, float32, int) {
	var zero K
	before, after, t := b.keys.bracket(timePos, b.length(), b.useTimeIndex)
	if before < 0 {
		return zero, zero, 0, -1
	}
	return b.keys.frames[before], b.keys.frames[after], t, before
}

func (b *trackBase[K]) addKeyFrame(k K) K {
	k.setOwner(b.owner)
	b.keys.insert(k)
	b.owner.keyFrameDataChanged()
	return k
}

func (b *trackBase[K]) length() float32 {
	if b.parent == nil {
		return b.keys.maxTime
	}
	return b.parent.length
}

func (b *trackBase[K]) prepareIndex() {
	if b.useTimeIndex {
		b.keys.buildIndex()
	}
}
