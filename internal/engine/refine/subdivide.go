package refine

import (
	"github.com/Faultbox/planloft/internal/engine/mesh"
)

// maxEdgeLength is the edge length above which a triangle gets split.
const maxEdgeLength = 0.3

// Subdivide runs one splitting pass over the soup: every triangle whose
// longest edge exceeds maxEdgeLength is replaced by four triangles through
// its edge midpoints. Midpoints of shared edges coincide by construction.
// A single pass does not guarantee the result satisfies the threshold.
func Subdivide(g *mesh.Geometry) {
	out := make([]mesh.Vertex, 0, len(g.Vertices))

	for i := 0; i+2 < len(g.Vertices); i += 3 {
		a := g.Vertices[i]
		b := g.Vertices[i+1]
		c := g.Vertices[i+2]

		longest := distance(a.Position, b.Position)
		if d := distance(b.Position, c.Position); d > longest {
			longest = d
		}
		if d := distance(c.Position, a.Position); d > longest {
			longest = d
		}

		if longest <= maxEdgeLength {
			out = append(out, a, b, c)
			continue
		}

		ab := midpoint(a, b)
		bc := midpoint(b, c)
		ca := midpoint(c, a)
		out = append(out,
			a, ab, ca,
			ab, b, bc,
			ca, bc, c,
			ab, bc, ca,
		)
	}

	g.Vertices = out
}

// midpoint averages position, normal, and texture coordinates.
func midpoint(a, b mesh.Vertex) mesh.Vertex {
	return mesh.Vertex{
		Position: [3]float32{
			(a.Position[0] + b.Position[0]) / 2,
			(a.Position[1] + b.Position[1]) / 2,
			(a.Position[2] + b.Position[2]) / 2,
		},
		Normal: [3]float32{
			(a.Normal[0] + b.Normal[0]) / 2,
			(a.Normal[1] + b.Normal[1]) / 2,
			(a.Normal[2] + b.Normal[2]) / 2,
		},
		TexCoord: [2]float32{
			(a.TexCoord[0] + b.TexCoord[0]) / 2,
			(a.TexCoord[1] + b.TexCoord[1]) / 2,
		},
	}
}
