package geometry

// QVect is a 5-component lift of a point (1, x, y, x^2, y^2). A quadratic
// inequality is a coefficient vector of the same shape; a point satisfies it
// iff the dot product of the two is non-negative. Circles, half-planes,
// angular cones and rectangles all reduce to inequalities of this form,
// which lets an area predicate be evaluated with a single dot product per
// grid vertex instead of re-deriving the underlying geometry per cell.
type QVect struct {
	C0, Cx, Cy, Cxx, Cyy float64
}

// LiftPoint returns the QVect representation of a point.
func LiftPoint(p Vec2) QVect {
	return QVect{C0: 1, Cx: p.X, Cy: p.Y, Cxx: p.X * p.X, Cyy: p.Y * p.Y}
}

// Dot returns the inner product of a coefficient vector and a lifted point.
func (q QVect) Dot(p QVect) float64 {
	return q.C0*p.C0 + q.Cx*p.Cx + q.Cy*p.Cy + q.Cxx*p.Cxx + q.Cyy*p.Cyy
}

// Predicate evaluates a quadratic inequality at a point: true iff the
// inequality's coefficient vector dotted with the lifted point is >= 0.
type Predicate struct {
	coeffs QVect
}

// Satisfies reports whether p satisfies the predicate.
func (pr Predicate) Satisfies(p Vec2) bool {
	return pr.coeffs.Dot(LiftPoint(p)) >= 0
}

// Circle returns the predicate "inside or on the circle of radius r centred
// at c": r^2 - |p-c|^2 >= 0.
func Circle(c Vec2, r float64) Predicate {
	return Predicate{coeffs: QVect{
		C0:  r*r - c.X*c.X - c.Y*c.Y,
		Cx:  2 * c.X,
		Cy:  2 * c.Y,
		Cxx: -1,
		Cyy: -1,
	}}
}

// RightHalfPlane returns the predicate "on the right-hand side of the line
// through p in direction d", i.e. (point-p) . rightNormal(d) >= 0.
func RightHalfPlane(p Vec2, d Angle) Predicate {
	// Right-hand normal of direction (sin,cos) is (cos,-sin).
	nx, ny := d.Y, -d.X
	c0 := -(nx*p.X + ny*p.Y)
	return Predicate{coeffs: QVect{C0: c0, Cx: nx, Cy: ny}}
}

// AngleCone returns the predicate "within +-halfWidth of direction d as seen
// from p", expressed via the linearised tangent-plane approximation: a point
// q satisfies it iff it lies within the wedge between the two half-planes
// bounding the cone. The cone is represented as the conjunction of its two
// bounding half-planes (valid for halfWidth < 90 degrees, the only range the
// sensor cones in this system ever use).
func AngleCone(p Vec2, d Angle, halfWidth Angle) BoolPredicate {
	left := RightHalfPlane(p, rotate(d, halfWidth.Negate()))
	right := Not(RightHalfPlane(p, rotate(d, halfWidth)))
	return And(Leaf(left), Leaf(right))
}

func rotate(base, delta Angle) Angle { return base.Add(delta) }

// Negate returns the angle's additive inverse within the same rotation
// sense (mirrors X only), used to build the two edges of a cone.
func (a Angle) Negate() Angle { return Angle{X: -a.X, Y: a.Y} }

// Rectangle returns the predicate "inside the axis-aligned-in-(forward,
// right) rectangle spanning from a to b with the given width", built as the
// conjunction of four half-planes: two side walls parallel to the a-to-b
// axis at +-width/2, and two end caps perpendicular to it at a and b.
func Rectangle(a, b Vec2, width float64) BoolPredicate {
	dir := FromVec(SubVec(b, a))
	right := Vec2{X: dir.Y, Y: -dir.X}
	half := width / 2

	// Side walls run parallel to dir, so their own line direction must be
	// dir (not right) or the offset along right never reaches the line's
	// equation and both walls collapse onto the same line.
	p1 := Leaf(RightHalfPlane(AddVec(a, ScaleVec(half, right)), dir.Opposite()))
	p2 := Leaf(RightHalfPlane(AddVec(a, ScaleVec(-half, right)), dir))
	// End caps run parallel to right, perpendicular to the corridor.
	p3 := Leaf(RightHalfPlane(a, FromVec(ScaleVec(-1, right))))
	p4 := Leaf(RightHalfPlane(b, FromVec(right)))
	return And(And(p1, p2), And(p3, p4))
}

// BoolPredicate is a boolean combination of leaf quadratic predicates,
// evaluated per-point by walking the tree.
type BoolPredicate struct {
	eval func(Vec2) bool
}

// Leaf wraps a single quadratic predicate as a boolean leaf.
func Leaf(p Predicate) BoolPredicate {
	return BoolPredicate{eval: p.Satisfies}
}

// FromFunc wraps an arbitrary point predicate as a boolean leaf, for the
// handful of half-plane variants that are more naturally expressed as a
// direct dot product than as a QVect coefficient vector.
func FromFunc(f func(Vec2) bool) BoolPredicate {
	return BoolPredicate{eval: f}
}

// And returns the conjunction of two predicates.
func And(a, b BoolPredicate) BoolPredicate {
	return BoolPredicate{eval: func(p Vec2) bool { return a.eval(p) && b.eval(p) }}
}

// Or returns the disjunction of two predicates.
func Or(a, b BoolPredicate) BoolPredicate {
	return BoolPredicate{eval: func(p Vec2) bool { return a.eval(p) || b.eval(p) }}
}

// Not returns the negation of a leaf predicate.
func Not(p Predicate) BoolPredicate {
	return BoolPredicate{eval: func(v Vec2) bool { return !p.Satisfies(v) }}
}

// NotTree negates an arbitrary boolean predicate tree.
func NotTree(p BoolPredicate) BoolPredicate {
	return BoolPredicate{eval: func(v Vec2) bool { return !p.eval(v) }}
}

// Satisfies evaluates the predicate tree at p.
func (p BoolPredicate) Satisfies(v Vec2) bool { return p.eval(v) }

// VertexLattice enumerates the (w+1)*(h+1) vertices of a width-w, height-h
// grid of square cells of the given size, centred at origin, in row-major
// order. EvaluateOnLattice evaluates a predicate once per vertex; the caller
// then combines the four vertex results per cell with the same boolean
// tree, turning an O(leaves * cells) pointwise test into
// O(leaves*(w+1)*(h+1) + cells*depth).
func VertexLattice(origin Vec2, w, h int, gridSize float64) []Vec2 {
	verts := make([]Vec2, 0, (w+1)*(h+1))
	x0 := origin.X - float64(w)/2*gridSize
	y0 := origin.Y - float64(h)/2*gridSize
	for j := 0; j <= h; j++ {
		for i := 0; i <= w; i++ {
			verts = append(verts, Vec2{X: x0 + float64(i)*gridSize, Y: y0 + float64(j)*gridSize})
		}
	}
	return verts
}

// EvaluateOnLattice evaluates a boolean predicate at every lattice vertex,
// returning a row-major []bool of length len(verts).
func EvaluateOnLattice(p BoolPredicate, verts []Vec2) []bool {
	out := make([]bool, len(verts))
	for i, v := range verts {
		out[i] = p.Satisfies(v)
	}
	return out
}

// CellSatisfied combines the four corner evaluations of cell (i,j) in a
// (w+1)-wide vertex lattice using "all four corners satisfy" as the cell
// predicate — the conservative interpretation used by find_target/
// find_safe_target area filtering.
func CellSatisfied(vertexResults []bool, w, i, j int) bool {
	stride := w + 1
	tl := vertexResults[j*stride+i]
	tr := vertexResults[j*stride+i+1]
	bl := vertexResults[(j+1)*stride+i]
	br := vertexResults[(j+1)*stride+i+1]
	return tl && tr && bl && br
}
