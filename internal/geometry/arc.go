package geometry

import "math"

// HalfMM collapses near-parallel line/edge intersections during square-arc
// tie-breaking.
const HalfMM = 5e-4

// HalfDeg decides whether an arc is "tangent" to a square edge.
const HalfDeg = math.Pi / 360

// ArcInterval is the (near, far) pair of points on a square's boundary that
// bound an arc as seen from a query point, or the zero value with Ok=false
// when the arc misses the square entirely.
type ArcInterval struct {
	Near, Far Vec2
	Ok        bool
}

// square corner order: bottom-left, bottom-right, top-right, top-left.
func squareCorners(centre Vec2, size float64) [4]Vec2 {
	h := size / 2
	return [4]Vec2{
		{X: centre.X - h, Y: centre.Y - h},
		{X: centre.X + h, Y: centre.Y - h},
		{X: centre.X + h, Y: centre.Y + h},
		{X: centre.X - h, Y: centre.Y + h},
	}
}

func pointInSquare(p, centre Vec2, size float64) bool {
	h := size / 2
	return math.Abs(p.X-centre.X) <= h+HalfMM && math.Abs(p.Y-centre.Y) <= h+HalfMM
}

// SquareArcInterval returns the two points on the axis-aligned square
// centred at cellCentre with side gridSize that bound, from q, the arc
// alpha +- deltaAlpha. alpha is the arc's direction from q and deltaAlpha
// its half-width, both as Angle values; the two bounding rays are
// alpha-deltaAlpha and alpha+deltaAlpha.
//
// Policy:
//   - if q lies strictly inside the square, near = q itself (distance 0).
//   - otherwise near/far are the closest/farthest points, among the square's
//     edge intersections with the arc's two bounding rays, from q.
//   - a tangent case (q on an edge, arc aligned with that edge) degenerates
//     to (q, q) rather than "none".
func SquareArcInterval(cellCentre Vec2, gridSize float64, q Vec2, alpha Angle, deltaAlpha Angle) ArcInterval {
	if pointInSquare(q, cellCentre, gridSize) {
		return ArcInterval{Near: q, Far: q, Ok: true}
	}

	corners := squareCorners(cellCentre, gridSize)
	leftRay := alpha.Sub(deltaAlpha)
	rightRay := alpha.Add(deltaAlpha)

	var candidates []Vec2
	for i := 0; i < 4; i++ {
		a := corners[i]
		b := corners[(i+1)%4]
		if p, ok := intersectRaySegment(q, leftRay, a, b); ok {
			candidates = append(candidates, p)
		}
		if p, ok := intersectRaySegment(q, rightRay, a, b); ok {
			candidates = append(candidates, p)
		}
		// Tangent case: q lies on this edge and the arc is parallel to it.
		if onSegment(q, a, b) && angleAlignedWithEdge(alpha, a, b) {
			return ArcInterval{Near: q, Far: q, Ok: true}
		}
	}
	// Corners that fall within the arc's angular span are also boundary
	// candidates (the arc can clip a corner without crossing an edge twice).
	for _, c := range corners {
		if withinCone(q, c, leftRay, rightRay) {
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		return ArcInterval{}
	}
	near, far := candidates[0], candidates[0]
	nd, fd := dist(q, near), dist(q, far)
	for _, c := range candidates[1:] {
		d := dist(q, c)
		if d < nd {
			near, nd = c, d
		}
		if d > fd {
			far, fd = c, d
		}
	}
	return ArcInterval{Near: near, Far: far, Ok: true}
}

func dist(a, b Vec2) float64 { return NormVec(SubVec(a, b)) }

func intersectRaySegment(origin Vec2, dir Angle, a, b Vec2) (Vec2, bool) {
	d := dir.Unit()
	e := SubVec(b, a)
	denom := d.X*e.Y - d.Y*e.X
	if math.Abs(denom) < 1e-12 {
		return Vec2{}, false
	}
	diff := SubVec(a, origin)
	t := (diff.X*e.Y - diff.Y*e.X) / denom
	u := (diff.X*d.Y - diff.Y*d.X) / denom
	if t < -HalfMM || u < -HalfMM || u > 1+HalfMM {
		return Vec2{}, false
	}
	return Vec2{X: origin.X + t*d.X, Y: origin.Y + t*d.Y}, true
}

func onSegment(p, a, b Vec2) bool {
	e := SubVec(b, a)
	diff := SubVec(p, a)
	cross := e.X*diff.Y - e.Y*diff.X
	if math.Abs(cross) > HalfMM*NormVec(e) {
		return false
	}
	dot := diff.X*e.X + diff.Y*e.Y
	return dot >= -HalfMM && dot <= e.X*e.X+e.Y*e.Y+HalfMM
}

func angleAlignedWithEdge(alpha Angle, a, b Vec2) bool {
	edgeDir := FromVec(SubVec(b, a))
	diff := alpha.Sub(edgeDir).Abs()
	return diff.ToRad() <= HalfDeg || alpha.Sub(edgeDir.Opposite()).Abs().ToRad() <= HalfDeg
}

func withinCone(origin, p Vec2, left, right Angle) bool {
	dir := FromVec(SubVec(p, origin))
	// p is within the cone iff it is to the right of the left edge and to
	// the left of the right edge (cone spans from left ray to right ray
	// clockwise, matching +delta being clockwise).
	crossLeft := left.X*dir.Y - left.Y*dir.X
	crossRight := right.X*dir.Y - right.Y*dir.X
	return crossLeft <= HalfMM && crossRight >= -HalfMM
}

// LineSquareProjection is one square corner projected by
// LineSquareProjections into the frame (right-of-direction,
// forward-of-direction) centred at from. LineSquareProjections returns
// only the four corner projections; the points where the square's edges
// cross the trajectory's own axis (right == 0) come from CrossesAxis.
// Together they test whether a straight trajectory from "from" in
// "direction" passes within a clearance of the cell.
type LineSquareProjection struct {
	Right, Forward float64
}

func LineSquareProjections(from Vec2, direction Angle, centre Vec2, size float64) []LineSquareProjection {
	fwd := direction.Unit()
	right := Vec2{X: fwd.Y, Y: -fwd.X}
	corners := squareCorners(centre, size)
	out := make([]LineSquareProjection, 0, 4)
	for _, c := range corners {
		d := SubVec(c, from)
		out = append(out, LineSquareProjection{
			Right:   d.X*right.X + d.Y*right.Y,
			Forward: d.X*fwd.X + d.Y*fwd.Y,
		})
	}
	return out
}

// CrossesAxis reports the forward coordinate(s) where the square's boundary
// crosses the trajectory axis (right == 0), used by FreeTrajectory.
func CrossesAxis(projections []LineSquareProjection) []float64 {
	var hits []float64
	n := len(projections)
	for i := 0; i < n; i++ {
		a := projections[i]
		b := projections[(i+1)%n]
		if (a.Right >= 0) == (b.Right >= 0) {
			continue
		}
		t := a.Right / (a.Right - b.Right)
		hits = append(hits, a.Forward+t*(b.Forward-a.Forward))
	}
	return hits
}
