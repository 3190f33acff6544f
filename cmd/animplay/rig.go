package main

import (
	"math"

	"github.com/Carmen-Shannon/oxy-anim/engine/asset"
	"github.com/go-gl/mathgl/mgl32"
)

// tailBones is the number of segments of the demo tail.
const tailBones = 6

// rotZ returns a rotation about Z as an (x, y, z, w) array.
func rotZ(deg float32) [4]float32 {
	q := mgl32.QuatRotate(mgl32.DegToRad(deg), mgl32.Vec3{0, 0, 1})
	return [4]float32{q.V[0], q.V[1], q.V[2], q.W}
}

// buildTailData describes a chain of tailBones segments, one unit apart along Y.
func buildTailData() *asset.Skeleton {
	data := &asset.Skeleton{Name: "tail"}
	for i := 0; i < tailBones; i++ {
		bone := asset.Bone{
			Name:        "segment_" + string(rune('a'+i)),
			ParentIndex: int32(i - 1),
		}
		if i > 0 {
			bone.LocalTransform.Translation = [3]float32{0, 1, 0}
		}
		data.Bones = append(data.Bones, bone)
	}
	return data
}

// buildTailClips returns "sway", a sideways swing of every segment keyed at 30 ticks per
// second, and "curl", a slower roll-up with the root bobbing on its own key times.
func buildTailClips() []*asset.AnimationClip {
	sway := &asset.AnimationClip{Name: "sway", Duration: 60, TicksPerSecond: 30}
	curl := &asset.AnimationClip{Name: "curl", Duration: 3}

	for i := 0; i < tailBones; i++ {
		amplitude := float32(10 + 4*i)
		var keys []asset.QuaternionKeyframe
		for k := 0; k <= 4; k++ {
			phase := float64(k) / 4 * 2 * math.Pi
			keys = append(keys, asset.QuaternionKeyframe{
				Time:  float32(k * 15),
				Value: rotZ(amplitude * float32(math.Sin(phase))),
			})
		}
		sway.Channels = append(sway.Channels, asset.AnimationChannel{BoneIndex: int32(i), RotationKeys: keys})

		ch := asset.AnimationChannel{
			BoneIndex: int32(i),
			RotationKeys: []asset.QuaternionKeyframe{
				{Time: 0, Value: rotZ(0)},
				{Time: 1.5, Value: rotZ(25)},
				{Time: 3, Value: rotZ(0)},
			},
		}
		if i == 0 {
			ch.PositionKeys = []asset.VectorKeyframe{
				{Time: 0, Value: [3]float32{0, 0, 0}},
				{Time: 1, Value: [3]float32{0, 0.5, 0}},
				{Time: 2, Value: [3]float32{0, 0, 0}},
			}
		}
		curl.Channels = append(curl.Channels, ch)
	}
	return []*asset.AnimationClip{sway, curl}
}
