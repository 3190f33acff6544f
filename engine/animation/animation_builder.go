package animation

import "github.com/Carmen-Shannon/oxy-anim/engine/vertex"

// AnimationBuilderOption configures an Animation at construction.
type AnimationBuilderOption func(*Animation)

// WithInterpolationMode sets how node track translation and scale are interpolated.
func WithInterpolationMode(mode InterpolationMode) AnimationBuilderOption {
	return func(a *Animation) {
		a.interpolationMode = mode
	}
}

// WithRotationInterpolationMode sets how node track rotations are interpolated in linear mode.
func WithRotationInterpolationMode(mode RotationInterpolationMode) AnimationBuilderOption {
	return func(a *Animation) {
		a.rotationInterpolationMode = mode
	}
}

// WithShortestRotationPath sets the shortest path default for node tracks created afterwards.
func WithShortestRotationPath(shortest bool) AnimationBuilderOption {
	return func(a *Animation) {
		a.useShortestRotationPath = shortest
	}
}

// WithPoseBufferFactory sets the factory vertex tracks created afterwards build hardware pose
// streams with, e.g. vertex.NewGPUBufferFactory. Nil keeps the in-memory default.
func WithPoseBufferFactory(factory vertex.BufferFactory) AnimationBuilderOption {
	return func(a *Animation) {
		a.poseBufferFactory = factory
	}
}
