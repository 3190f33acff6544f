package animation

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/go-gl/mathgl/mgl32"
)

// SimpleSpline is a Hermite curve through a list of points with Catmull-Rom tangents.
type SimpleSpline struct {
	points   []mgl32.Vec3
	tangents []mgl32.Vec3
	autoCalc bool
}

// NewSimpleSpline creates an empty spline that recalculates tangents after every point change.
func NewSimpleSpline() *SimpleSpline {
	return &SimpleSpline{autoCalc: true}
}

// AddPoint appends a control point.
func (s *SimpleSpline) AddPoint(p mgl32.Vec3) {
	s.points = append(s.points, p)
	if s.autoCalc {
		s.RecalcTangents()
	}
}

// UpdatePoint replaces the control point at index i. Out of range indexes are ignored.
func (s *SimpleSpline) UpdatePoint(i int, p mgl32.Vec3) {
	if i < 0 || i >= len(s.points) {
		return
	}
	s.points[i] = p
	if s.autoCalc {
		s.RecalcTangents()
	}
}

// Point returns the control point at index i.
func (s *SimpleSpline) Point(i int) mgl32.Vec3 {
	return s.points[i]
}

// NumPoints returns the number of control points.
func (s *SimpleSpline) NumPoints() int {
	return len(s.points)
}

// Clear removes every point.
func (s *SimpleSpline) Clear() {
	s.points = s.points[:0]
	s.tangents = s.tangents[:0]
}

// SetAutoCalculate toggles tangent recalculation on point changes. Call RecalcTangents manually
// after a batch of changes when disabled.
func (s *SimpleSpline) SetAutoCalculate(auto bool) {
	s.autoCalc = auto
}

// RecalcTangents rebuilds the tangents. A spline whose first and last points coincide is treated
// as closed and gets continuous tangents across the seam.
func (s *SimpleSpline) RecalcTangents() {
	n := len(s.points)
	if n < 2 {
		s.tangents = s.tangents[:0]
		return
	}
	closed := s.points[0] == s.points[n-1]
	if cap(s.tangents) < n {
		s.tangents = make([]mgl32.Vec3, n)
	}
	s.tangents = s.tangents[:n]

	for i := 0; i < n; i++ {
		switch {
		case i == 0:
			if closed {
				s.tangents[i] = s.points[1].Sub(s.points[n-2]).Mul(0.5)
			} else {
				s.tangents[i] = s.points[1].Sub(s.points[0]).Mul(0.5)
			}
		case i == n-1:
			if closed {
				s.tangents[i] = s.tangents[0]
			} else {
				s.tangents[i] = s.points[i].Sub(s.points[i-1]).Mul(0.5)
			}
		default:
			s.tangents[i] = s.points[i+1].Sub(s.points[i-1]).Mul(0.5)
		}
	}
}

// Interpolate evaluates the segment starting at point from.
//
// Parameters:
//   - from: the index of the segment start
//   - t: the fraction along the segment in [0, 1]
//
// Returns:
//   - mgl32.Vec3: the point on the curve
func (s *SimpleSpline) Interpolate(from int, t float32) mgl32.Vec3 {
	n := len(s.points)
	if from+1 >= n {
		return s.points[from]
	}
	if t == 0 {
		return s.points[from]
	}
	if t == 1 {
		return s.points[from+1]
	}

	t2 := t * t
	t3 := t2 * t
	h1 := 2*t3 - 3*t2 + 1
	h2 := -2*t3 + 3*t2
	h3 := t3 - 2*t2 + t
	h4 := t3 - t2

	p1, p2 := s.points[from], s.points[from+1]
	r1, r2 := s.tangents[from], s.tangents[from+1]
	return p1.Mul(h1).Add(p2.Mul(h2)).Add(r1.Mul(h3)).Add(r2.Mul(h4))
}

// RotationalSpline interpolates rotations through a list of control rotations using squad.
type RotationalSpline struct {
	points   []mgl32.Quat
	tangents []mgl32.Quat
	autoCalc bool
}

// NewRotationalSpline creates an empty rotational spline with automatic tangent calculation.
func NewRotationalSpline() *RotationalSpline {
	return &RotationalSpline{autoCalc: true}
}

// AddPoint appends a control rotation.
func (s *RotationalSpline) AddPoint(q mgl32.Quat) {
	s.points = append(s.points, q)
	if s.autoCalc {
		s.RecalcTangents()
	}
}

// NumPoints returns the number of control rotations.
func (s *RotationalSpline) NumPoints() int {
	return len(s.points)
}

// Clear removes every point.
func (s *RotationalSpline) Clear() {
	s.points = s.points[:0]
	s.tangents = s.tangents[:0]
}

// SetAutoCalculate toggles tangent recalculation on point changes.
func (s *RotationalSpline) SetAutoCalculate(auto bool) {
	s.autoCalc = auto
}

// RecalcTangents rebuilds the squad control rotations.
func (s *RotationalSpline) RecalcTangents() {
	n := len(s.points)
	if n < 2 {
		s.tangents = s.tangents[:0]
		return
	}
	closed := s.points[0] == s.points[n-1]
	if cap(s.tangents) < n {
		s.tangents = make([]mgl32.Quat, n)
	}
	s.tangents = s.tangents[:n]

	for i := 0; i < n; i++ {
		p := s.points[i]
		inv := p.Inverse()
		var prev, next mgl32.Quat
		switch {
		case i == 0:
			next = s.points[1]
			if closed {
				prev = s.points[n-2]
			} else {
				prev = p
			}
		case i == n-1:
			prev = s.points[i-1]
			if closed {
				next = s.points[1]
			} else {
				next = p
			}
		default:
			prev, next = s.points[i-1], s.points[i+1]
		}
		part1 := common.QuatLog(inv.Mul(next))
		part2 := common.QuatLog(inv.Mul(prev))
		sum := part1.V.Add(part2.V).Mul(-0.25)
		s.tangents[i] = p.Mul(common.QuatExp(mgl32.Quat{V: sum}))
	}
}

// Interpolate evaluates the segment starting at rotation from.
//
// Parameters:
//   - from: the index of the segment start
//   - t: the fraction along the segment in [0, 1]
//   - shortestPath: whether the segment takes the shortest rotation path
//
// Returns:
//   - mgl32.Quat: the interpolated rotation
func (s *RotationalSpline) Interpolate(from int, t float32, shortestPath bool) mgl32.Quat {
	n := len(s.points)
	if from+1 >= n {
		return s.points[from]
	}
	if t == 0 {
		return s.points[from]
	}
	if t == 1 {
		return s.points[from+1]
	}
	p, q := s.points[from], s.points[from+1]
	a, b := s.tangents[from], s.tangents[from+1]
	return common.Squad(t, p, a, b, q, shortestPath)
}
