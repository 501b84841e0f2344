package mesh

import (
	"testing"
)

func TestRecomputeFlatNormals(t *testing.T) {
	var g Geometry
	g.AddTriangle(
		Vertex{Position: [3]float32{0, 0, 0}},
		Vertex{Position: [3]float32{1, 0, 0}},
		Vertex{Position: [3]float32{0, 1, 0}},
	)
	g.RecomputeFlatNormals()

	want := [3]float32{0, 0, 1}
	for i, v := range g.Vertices {
		if v.Normal != want {
			t.Errorf("vertex %d normal = %v, want %v", i, v.Normal, want)
		}
	}
}

func TestRecomputeFlatNormalsDegenerate(t *testing.T) {
	var g Geometry
	g.AddTriangle(
		Vertex{Position: [3]float32{0, 0, 0}},
		Vertex{Position: [3]float32{0, 0, 0}},
		Vertex{Position: [3]float32{1, 0, 0}},
	)
	g.RecomputeFlatNormals()

	if g.Vertices[0].Normal != ([3]float32{}) {
		t.Errorf("degenerate triangle normal = %v, want zero", g.Vertices[0].Normal)
	}
}

func TestSmoothNormalsAveragesSharedPositions(t *testing.T) {
	// Two faces folded along the Y axis, sharing the edge x=0.
	var g Geometry
	g.AddTriangle(
		Vertex{Position: [3]float32{0, 0, 0}},
		Vertex{Position: [3]float32{1, 0, 1}},
		Vertex{Position: [3]float32{0, 1, 0}},
	)
	g.AddTriangle(
		Vertex{Position: [3]float32{0, 0, 0}},
		Vertex{Position: [3]float32{0, 1, 0}},
		Vertex{Position: [3]float32{-1, 0, 1}},
	)
	g.RecomputeFlatNormals()

	before := g.Vertices[0].Normal
	SmoothNormals(g.Vertices)
	after := g.Vertices[0].Normal

	if before == after {
		t.Error("shared vertex normal unchanged after smoothing")
	}

	// Both copies of the shared position must agree.
	if g.Vertices[0].Normal != g.Vertices[3].Normal {
		t.Errorf("shared position normals differ: %v vs %v", g.Vertices[0].Normal, g.Vertices[3].Normal)
	}

	// Result must stay unit length.
	n := after
	length := n[0]*n[0] + n[1]*n[1] + n[2]*n[2]
	if length < 0.99 || length > 1.01 {
		t.Errorf("smoothed normal not unit length: %v", n)
	}
}

func TestCentroid(t *testing.T) {
	var g Geometry
	g.AddTriangle(
		Vertex{Position: [3]float32{0, 0, 0}},
		Vertex{Position: [3]float32{3, 0, 0}},
		Vertex{Position: [3]float32{0, 3, 0}},
	)

	c := g.Centroid()
	if c != ([3]float32{1, 1, 0}) {
		t.Errorf("Centroid = %v, want (1, 1, 0)", c)
	}
}

func TestComputeBounds(t *testing.T) {
	var g Geometry
	g.AddTriangle(
		Vertex{Position: [3]float32{-2, 0, 1}},
		Vertex{Position: [3]float32{4, -1, 0}},
		Vertex{Position: [3]float32{0, 3, 5}},
	)

	b := g.ComputeBounds()
	if b.Min != ([3]float32{-2, -1, 0}) {
		t.Errorf("Min = %v", b.Min)
	}
	if b.Max != ([3]float32{4, 3, 5}) {
		t.Errorf("Max = %v", b.Max)
	}
}
