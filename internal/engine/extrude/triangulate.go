package extrude

import (
	"github.com/ByteArena/poly2tri-go"

	"github.com/Faultbox/planloft/pkg/math"
)

// triangulateRing converts a simple polygon ring into cap triangles, each
// wound counter-clockwise. Floor plans are routinely concave, so this runs
// a constrained sweep; inputs that break the sweep (self-intersections,
// repeated corners) fall back to fan triangulation rather than failing the
// whole element.
func triangulateRing(ring []math.Vec2) [][3]math.Vec2 {
	if len(ring) < 3 {
		return nil
	}
	tris, ok := sweepTriangulate(ring)
	if !ok {
		tris = fanTriangulate(ring)
	}

	// Normalize winding; the sweep does not guarantee orientation.
	for i, tri := range tris {
		if signedArea2(tri[0], tri[1], tri[2]) < 0 {
			tris[i] = [3]math.Vec2{tri[0], tri[2], tri[1]}
		}
	}
	return tris
}

func sweepTriangulate(ring []math.Vec2) (tris [][3]math.Vec2, ok bool) {
	// poly2tri panics on malformed contours.
	defer func() {
		if recover() != nil {
			tris, ok = nil, false
		}
	}()

	contour := make([]*poly2tri.Point, 0, len(ring))
	for _, p := range ring {
		contour = append(contour, poly2tri.NewPoint(float64(p.X), float64(p.Y)))
	}

	swctx := poly2tri.NewSweepContext(contour, false)
	swctx.Triangulate()

	for _, tr := range swctx.GetTriangles() {
		tris = append(tris, [3]math.Vec2{
			{X: float32(tr.Points[0].X), Y: float32(tr.Points[0].Y)},
			{X: float32(tr.Points[1].X), Y: float32(tr.Points[1].Y)},
			{X: float32(tr.Points[2].X), Y: float32(tr.Points[2].Y)},
		})
	}
	return tris, len(tris) > 0
}

func fanTriangulate(ring []math.Vec2) [][3]math.Vec2 {
	tris := make([][3]math.Vec2, 0, len(ring)-2)
	for i := 1; i+1 < len(ring); i++ {
		tris = append(tris, [3]math.Vec2{ring[0], ring[i], ring[i+1]})
	}
	return tris
}

// signedArea2 returns twice the signed area of a triangle; positive means
// counter-clockwise.
func signedArea2(a, b, c math.Vec2) float32 {
	return (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
}
