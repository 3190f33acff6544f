package animation

import (
	"github.com/pkg/errors"
)

// NumericTrack animates an AnimableValue with NumericKeyFrames of a single value type.
type NumericTrack struct {
	trackBase[*NumericKeyFrame]
	valueType ValueType
	target    AnimableValue
}

func newNumericTrack(parent *Animation, handle uint16, valueType ValueType) *NumericTrack {
	tr := &NumericTrack{valueType: valueType}
	tr.init(handle, parent, tr)
	return tr
}

// ValueType returns the value type of every keyframe in the track.
func (tr *NumericTrack) ValueType() ValueType {
	return tr.valueType
}

// CreateKeyFrame inserts a keyframe holding the neutral value at time.
func (tr *NumericTrack) CreateKeyFrame(time float32) *NumericKeyFrame {
	return tr.addKeyFrame(&NumericKeyFrame{
		keyFrameBase: keyFrameBase{time: time},
		value:        ZeroValue(tr.valueType),
	})
}

// AssociatedAnimable returns the property driven by Apply.
func (tr *NumericTrack) AssociatedAnimable() AnimableValue {
	return tr.target
}

// SetAssociatedAnimable sets the property driven by Apply.
//
// Parameters:
//   - target: the property, or nil to clear
//
// Returns:
//   - error: ErrTypeMismatch if the property type differs from the track value type
func (tr *NumericTrack) SetAssociatedAnimable(target AnimableValue) error {
	if target != nil && target.Type() != tr.valueType {
		return errors.Wrapf(ErrTypeMismatch, "track %d holds %s, animable is %s", tr.handle, tr.valueType, target.Type())
	}
	tr.target = target
	return nil
}

// InterpolatedValue returns the track value at a time position.
//
// Parameters:
//   - timePos: the time position in seconds
//
// Returns:
//   - Value: the interpolated value
//   - bool: false for an empty track
func (tr *NumericTrack) InterpolatedValue(timePos float32) (Value, bool) {
	k1, k2, t, index := tr.KeyFramesAtTime(timePos)
	if index < 0 {
		return Value{}, false
	}
	if t == 0 {
		return k1.value, true
	}
	return opsTable[tr.valueType].interpolate(k1.value, k2.value, t), true
}

// Apply drives the associated property, if any.
func (tr *NumericTrack) Apply(timePos, weight, scale float32) error {
	return tr.ApplyToAnimable(tr.target, timePos, weight, scale)
}

// ApplyToAnimable applies the track value scaled by weight*scale as a delta onto target.
//
// Parameters:
//   - target: the property to drive
//   - timePos: the time position in seconds
//   - weight: the blend weight; zero weight leaves the property untouched
//   - scale: an additional scale factor
//
// Returns:
//   - error: error if the property rejects the delta
func (tr *NumericTrack) ApplyToAnimable(target AnimableValue, timePos, weight, scale float32) error {
	if target == nil || weight == 0 {
		return nil
	}
	v, ok := tr.InterpolatedValue(timePos)
	if !ok {
		return nil
	}
	if err := target.ApplyDelta(ScaleValue(v, weight*scale)); err != nil {
		return errors.Wrapf(err, "numeric track %d", tr.handle)
	}
	return nil
}

func (tr *NumericTrack) keyFrameDataChanged() {}

func (tr *NumericTrack) clone(parent *Animation) *NumericTrack {
	c := newNumericTrack(parent, tr.handle, tr.valueType)
	c.target = tr.target
	c.useTimeIndex = tr.useTimeIndex
	for _, k := range tr.keys.frames {
		c.CreateKeyFrame(k.time).value = k.value
	}
	return c
}
