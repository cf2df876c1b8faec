// Package geometry provides the pure geometric primitives the radar map and
// the simulated robot build on: angles represented as unit vectors, the
// square/arc intersection used by the radar cell update rule, and the
// quadratic-inequality machinery used to evaluate area predicates over a
// grid.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec2 is a 2-D point or displacement.
type Vec2 = r2.Vec

// AddVec returns a+b. r2.Vec has no method set of its own worth wrapping,
// but free functions read better at call sites that chain several of these.
func AddVec(a, b Vec2) Vec2 { return r2.Add(a, b) }

// SubVec returns a-b.
func SubVec(a, b Vec2) Vec2 { return r2.Sub(a, b) }

// ScaleVec returns s*v.
func ScaleVec(s float64, v Vec2) Vec2 { return r2.Scale(s, v) }

// NormVec returns the Euclidean length of v.
func NormVec(v Vec2) float64 { return r2.Norm(v) }

// angleEpsilon bounds how far from unit length an Angle value may drift
// before it is considered corrupt; used only by tests.
const angleEpsilon = 1e-6

// Angle is a direction represented as a unit 2-D vector, X = sin(theta),
// Y = cos(theta), measured clockwise from "forward" (the Y axis). This
// avoids the wraparound arithmetic that plagues degrees-as-int or
// radians-as-float representations: sums, differences and comparisons are
// all cheap vector operations.
type Angle struct {
	X, Y float64
}

// FromRad builds an Angle from a clockwise-from-forward radian measure.
func FromRad(rad float64) Angle {
	return Angle{X: math.Sin(rad), Y: math.Cos(rad)}
}

// FromDeg builds an Angle from a clockwise-from-forward degree measure.
func FromDeg(deg float64) Angle {
	return FromRad(deg * math.Pi / 180)
}

// ToRad returns the clockwise-from-forward radian measure in (-pi, pi].
func (a Angle) ToRad() float64 {
	return math.Atan2(a.X, a.Y)
}

// ToIntDeg rounds the angle to the nearest integer degree, normalised to
// (-180, 180].
func (a Angle) ToIntDeg() int {
	deg := a.ToRad() * 180 / math.Pi
	rounded := int(math.Round(deg))
	if rounded <= -180 {
		rounded += 360
	}
	if rounded > 180 {
		rounded -= 360
	}
	return rounded
}

// Add returns the angle a+b: a rotated by b. The result is not
// renormalised, so it is unit length only up to rounding.
func (a Angle) Add(b Angle) Angle {
	return Angle{X: a.X*b.Y + a.Y*b.X, Y: a.Y*b.Y - a.X*b.X}
}

// Sub returns the angle a-b.
func (a Angle) Sub(b Angle) Angle {
	return a.Add(b.Opposite())
}

// Opposite returns the angle rotated by 180 degrees.
func (a Angle) Opposite() Angle {
	return Angle{X: -a.X, Y: -a.Y}
}

// Abs returns the angle folded into [0, 90] degrees: both components are
// made non-negative, so an angle behind is mirrored into the front
// half-plane and an angle to the left is mirrored to the right.
func (a Angle) Abs() Angle {
	if a.Y < 0 {
		return Angle{X: math.Abs(a.X), Y: -a.Y}
	}
	return Angle{X: math.Abs(a.X), Y: a.Y}
}

// Positive returns the angle with a non-negative X component, used when only
// the magnitude of a turn matters and not its handedness.
func (a Angle) Positive() Angle {
	if a.X < 0 {
		return a.Opposite()
	}
	return a
}

// Tan returns the tangent of the angle (X/Y), +Inf when Y is zero (up to
// rounding, as for FromDeg(90)) and X is positive, -Inf when negative.
func (a Angle) Tan() float64 {
	if math.Abs(a.Y) < 1e-12 {
		if a.X >= 0 {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return a.X / a.Y
}

// IsFront reports whether the angle lies in the front half-plane (Y >= -eps),
// i.e. within 90 degrees of straight ahead, widened by eps.
func (a Angle) IsFront(eps float64) bool { return a.Y >= -eps }

// IsRear reports whether the angle lies in the rear half-plane (Y <= eps),
// i.e. within 90 degrees of straight behind, widened by eps.
func (a Angle) IsRear(eps float64) bool { return a.Y <= eps }

// IsLeft reports whether the angle points to the left of forward.
func (a Angle) IsLeft(eps float64) bool { return a.X <= -eps }

// IsRight reports whether the angle points to the right of forward.
func (a Angle) IsRight(eps float64) bool { return a.X >= eps }

// Unit returns the direction as a unit Vec2 in the plane, X = sin, Y = cos.
func (a Angle) Unit() Vec2 { return Vec2{X: a.X, Y: a.Y} }

// FromVec builds the Angle pointing from the origin toward v, returning the
// zero angle (pointing straight ahead) when v has no magnitude.
func FromVec(v Vec2) Angle {
	n := NormVec(v)
	if n == 0 {
		return Angle{X: 0, Y: 1}
	}
	return Angle{X: v.X / n, Y: v.Y / n}
}
