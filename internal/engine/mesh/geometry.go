package mesh

import (
	gomath "math"
)

// Geometry is the mutable triangle soup the pipeline stages work on.
// Every three consecutive vertices form one triangle; shared corners are
// duplicated so stages never need index bookkeeping. Packaging welds the
// duplicates back together.
type Geometry struct {
	Vertices []Vertex
}

// TriangleCount returns the number of triangles in the soup.
func (g *Geometry) TriangleCount() int {
	return len(g.Vertices) / 3
}

// AddTriangle appends one triangle to the soup.
func (g *Geometry) AddTriangle(a, b, c Vertex) {
	g.Vertices = append(g.Vertices, a, b, c)
}

// Centroid returns the arithmetic mean of all vertex positions.
func (g *Geometry) Centroid() [3]float32 {
	if len(g.Vertices) == 0 {
		return [3]float32{}
	}
	var sum [3]float32
	for i := range g.Vertices {
		p := g.Vertices[i].Position
		sum[0] += p[0]
		sum[1] += p[1]
		sum[2] += p[2]
	}
	n := float32(len(g.Vertices))
	return [3]float32{sum[0] / n, sum[1] / n, sum[2] / n}
}

// ComputeBounds scans all vertex positions.
func (g *Geometry) ComputeBounds() Bounds {
	bounds := NewBounds()
	for i := range g.Vertices {
		bounds.Extend(g.Vertices[i].Position)
	}
	return bounds
}

// RecomputeFlatNormals assigns each triangle's face normal to its three
// vertices. Degenerate triangles keep a zero normal.
func (g *Geometry) RecomputeFlatNormals() {
	for i := 0; i+2 < len(g.Vertices); i += 3 {
		v0 := g.Vertices[i].Position
		v1 := g.Vertices[i+1].Position
		v2 := g.Vertices[i+2].Position
		e1 := [3]float32{v1[0] - v0[0], v1[1] - v0[1], v1[2] - v0[2]}
		e2 := [3]float32{v2[0] - v0[0], v2[1] - v0[1], v2[2] - v0[2]}
		n := Cross(e1, e2)

		mag := float32(gomath.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])))
		if mag < 1e-5 {
			n = [3]float32{}
		} else {
			n = [3]float32{n[0] / mag, n[1] / mag, n[2] / mag}
		}
		g.Vertices[i].Normal = n
		g.Vertices[i+1].Normal = n
		g.Vertices[i+2].Normal = n
	}
}

// SmoothNormals averages normals at shared vertex positions.
// This reduces faceted appearance on organic solids.
func SmoothNormals(vertices []Vertex) {
	const epsilon float32 = 0.001

	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[[3]int32][]int)
	for i := range vertices {
		key := [3]int32{
			int32(vertices[i].Position[0] / epsilon),
			int32(vertices[i].Position[1] / epsilon),
			int32(vertices[i].Position[2] / epsilon),
		}
		posMap[key] = append(posMap[key], i)
	}

	// Average normals for vertices at same position
	for _, idxs := range posMap {
		if len(idxs) < 2 {
			continue
		}

		var sum [3]float32
		for _, idx := range idxs {
			sum[0] += vertices[idx].Normal[0]
			sum[1] += vertices[idx].Normal[1]
			sum[2] += vertices[idx].Normal[2]
		}

		avg := Normalize(sum)

		for _, idx := range idxs {
			vertices[idx].Normal = avg
		}
	}
}

// Cross computes the cross product of two 3D vectors.
func Cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Normalize returns a unit vector in the same direction as v.
func Normalize(v [3]float32) [3]float32 {
	length := sqrtf(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if length < 0.0001 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{v[0] / length, v[1] / length, v[2] / length}
}

func sqrtf(x float32) float32 {
	return float32(gomath.Sqrt(float64(x)))
}
