package animation

import (
	"strings"

	"github.com/pkg/errors"
)

// InterpolationMode selects how node track translation and scale are interpolated between keyframes.
type InterpolationMode int

const (
	// InterpolationLinear interpolates straight between the two bracketing keyframes.
	InterpolationLinear InterpolationMode = iota

	// InterpolationSpline interpolates along a Catmull-Rom style curve through all keyframes.
	InterpolationSpline
)

// RotationInterpolationMode selects how node track rotations are interpolated while in linear mode.
type RotationInterpolationMode int

const (
	// RotationLinear uses normalised linear interpolation. Cheaper and slightly less accurate.
	RotationLinear RotationInterpolationMode = iota

	// RotationSpherical uses spherical linear interpolation.
	RotationSpherical
)

// String returns the configuration name of the mode.
func (m InterpolationMode) String() string {
	switch m {
	case InterpolationLinear:
		return "linear"
	case InterpolationSpline:
		return "spline"
	default:
		return "unknown"
	}
}

// String returns the configuration name of the mode.
func (m RotationInterpolationMode) String() string {
	switch m {
	case RotationLinear:
		return "linear"
	case RotationSpherical:
		return "spherical"
	default:
		return "unknown"
	}
}

// ParseInterpolationMode converts a configuration name ("linear", "spline") into an InterpolationMode.
//
// Parameters:
//   - s: the mode name, case insensitive
//
// Returns:
//   - InterpolationMode: the parsed mode
//   - error: error if the name is unknown
func ParseInterpolationMode(s string) (InterpolationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return InterpolationLinear, nil
	case "spline":
		return InterpolationSpline, nil
	default:
		return InterpolationLinear, errors.Errorf("unknown interpolation mode %q", s)
	}
}

// ParseRotationInterpolationMode converts a configuration name ("linear", "spherical") into a
// RotationInterpolationMode.
//
// Parameters:
//   - s: the mode name, case insensitive
//
// Returns:
//   - RotationInterpolationMode: the parsed mode
//   - error: error if the name is unknown
func ParseRotationInterpolationMode(s string) (RotationInterpolationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return RotationLinear, nil
	case "spherical":
		return RotationSpherical, nil
	default:
		return RotationLinear, errors.Errorf("unknown rotation interpolation mode %q", s)
	}
}

// VertexAnimationType is fixed when a vertex track is created.
type VertexAnimationType int

const (
	// VertexAnimationMorph blends whole position snapshots.
	VertexAnimationMorph VertexAnimationType = iota

	// VertexAnimationPose blends sparse pose offsets by influence.
	VertexAnimationPose
)

// VertexTargetMode selects whether a vertex track writes positions on the CPU or binds streams
// for a vertex program to blend.
type VertexTargetMode int

const (
	// TargetSoftware blends positions into the target's position stream.
	TargetSoftware VertexTargetMode = iota

	// TargetHardware binds buffers and parametric values into hardware animation slots.
	TargetHardware
)
