package geometry

import "testing"

func TestCirclePredicate(t *testing.T) {
	c := Circle(Vec2{X: 0, Y: 0}, 5)
	if !c.Satisfies(Vec2{X: 3, Y: 4}) {
		t.Fatal("point on the circle boundary must satisfy the predicate")
	}
	if c.Satisfies(Vec2{X: 10, Y: 0}) {
		t.Fatal("point outside the circle must not satisfy the predicate")
	}
	if !c.Satisfies(Vec2{X: 0, Y: 0}) {
		t.Fatal("center must satisfy the predicate")
	}
}

func TestRightHalfPlane(t *testing.T) {
	// Facing straight ahead (X=0,Y=1) from the origin, "right" is +X.
	pr := RightHalfPlane(Vec2{}, FromDeg(0))
	if !pr.Satisfies(Vec2{X: 1, Y: 0}) {
		t.Fatal("point to the right must satisfy the predicate")
	}
	if pr.Satisfies(Vec2{X: -1, Y: 0}) {
		t.Fatal("point to the left must not satisfy the predicate")
	}
}

func TestAngleConeContainsForwardDirection(t *testing.T) {
	cone := AngleCone(Vec2{}, FromDeg(0), FromDeg(30))
	if !cone.Satisfies(Vec2{X: 0, Y: 10}) {
		t.Fatal("straight ahead must lie within a forward-facing cone")
	}
	if cone.Satisfies(Vec2{X: 0, Y: -10}) {
		t.Fatal("straight behind must not lie within a narrow forward cone")
	}
}

func TestRectangleContainsMidpointNotFarSide(t *testing.T) {
	a := Vec2{X: 0, Y: 0}
	b := Vec2{X: 0, Y: 10}
	rect := Rectangle(a, b, 4)
	if !rect.Satisfies(Vec2{X: 0, Y: 5}) {
		t.Fatal("midpoint of the rectangle's axis must be inside")
	}
	if rect.Satisfies(Vec2{X: 0, Y: 20}) {
		t.Fatal("point well past the far end must be outside")
	}
	if rect.Satisfies(Vec2{X: 10, Y: 5}) {
		t.Fatal("point well off to the side must be outside")
	}
}

func TestAndOrNot(t *testing.T) {
	inner := Circle(Vec2{}, 2)
	outer := Circle(Vec2{}, 5)
	ring := And(Leaf(outer), NotTree(Leaf(inner)))
	if ring.Satisfies(Vec2{X: 1, Y: 0}) {
		t.Fatal("point inside the inner circle must not satisfy the ring predicate")
	}
	if !ring.Satisfies(Vec2{X: 3, Y: 0}) {
		t.Fatal("point between the circles must satisfy the ring predicate")
	}
	if ring.Satisfies(Vec2{X: 10, Y: 0}) {
		t.Fatal("point outside the outer circle must not satisfy the ring predicate")
	}

	either := Or(Leaf(Circle(Vec2{X: -5, Y: 0}, 1)), Leaf(Circle(Vec2{X: 5, Y: 0}, 1)))
	if !either.Satisfies(Vec2{X: -5, Y: 0}) || !either.Satisfies(Vec2{X: 5, Y: 0}) {
		t.Fatal("Or must satisfy points inside either disjunct")
	}
	if either.Satisfies(Vec2{X: 0, Y: 0}) {
		t.Fatal("Or must not satisfy a point inside neither disjunct")
	}
}

func TestVertexLatticeDimensions(t *testing.T) {
	verts := VertexLattice(Vec2{}, 2, 3, 1)
	if got, want := len(verts), (2+1)*(3+1); got != want {
		t.Fatalf("VertexLattice produced %d vertices, want %d", got, want)
	}
}

func TestEvaluateOnLatticeAndCellSatisfied(t *testing.T) {
	// A 2x2 grid of unit cells centred at origin; a generous circle should
	// satisfy every vertex, so every cell is satisfied too.
	w, h := 2, 2
	verts := VertexLattice(Vec2{}, w, h, 1)
	pred := Leaf(Circle(Vec2{}, 10))
	results := EvaluateOnLattice(pred, verts)
	for i, ok := range results {
		if !ok {
			t.Fatalf("vertex %d expected to satisfy a generous circle predicate", i)
		}
	}
	if !CellSatisfied(results, w, 0, 0) {
		t.Fatal("cell (0,0) should be satisfied when all its corners are")
	}

	// A tiny circle centred at one corner leaves the rest of the lattice
	// unsatisfied, so the cell predicate (all four corners) must fail.
	tiny := Leaf(Circle(verts[0], 0.01))
	resultsTiny := EvaluateOnLattice(tiny, verts)
	if CellSatisfied(resultsTiny, w, 0, 0) {
		t.Fatal("cell should not be satisfied when only one corner matches a tiny predicate")
	}
}

func TestLiftPointAndDot(t *testing.T) {
	p := LiftPoint(Vec2{X: 2, Y: 3})
	if p.C0 != 1 || p.Cx != 2 || p.Cy != 3 || p.Cxx != 4 || p.Cyy != 9 {
		t.Fatalf("LiftPoint produced unexpected lift: %+v", p)
	}
	coeffs := QVect{C0: 1, Cx: 0, Cy: 0, Cxx: 0, Cyy: 0}
	if got := coeffs.Dot(p); got != 1 {
		t.Fatalf("Dot with pure constant coefficients = %v, want 1", got)
	}
}
