package mesh

import (
	gomath "math"

	"github.com/Faultbox/planloft/pkg/math"
)

// Finalize packages a finished triangle soup into a renderable buffer.
// Normals are recomputed from the triangles (position-welded into smooth
// shading when smooth is set), the solid is rotated so the extrusion axis
// becomes world up, lifted by elevation, and the attributes are packed into
// fresh arrays that share no storage with the soup.
func Finalize(g *Geometry, smooth bool, elevation float32, tangents bool) *Buffer {
	g.RecomputeFlatNormals()
	if smooth {
		SmoothNormals(g.Vertices)
	}

	// Plan space extrudes along +Z; world space is Y-up.
	orient := math.Translate(0, elevation, 0).Mul(math.RotateX(float32(-gomath.Pi / 2)))
	for i := range g.Vertices {
		g.Vertices[i].Position = orient.TransformPoint(g.Vertices[i].Position)
		g.Vertices[i].Normal = orient.TransformDirection(g.Vertices[i].Normal)
	}

	buf := weld(g.Vertices)
	if tangents {
		computeTangents(buf)
	}
	return buf
}

// weld deduplicates identical (position, normal, uv) vertices into an
// indexed buffer and accumulates the bounding box.
func weld(vertices []Vertex) *Buffer {
	type attrKey [8]float32

	buf := &Buffer{
		Positions: make([]float32, 0, len(vertices)*3),
		Normals:   make([]float32, 0, len(vertices)*3),
		UVs:       make([]float32, 0, len(vertices)*2),
		Indices:   make([]uint32, 0, len(vertices)),
		Bounds:    NewBounds(),
	}

	seen := make(map[attrKey]uint32, len(vertices))
	for i := range vertices {
		v := &vertices[i]
		key := attrKey{
			v.Position[0], v.Position[1], v.Position[2],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.TexCoord[0], v.TexCoord[1],
		}
		idx, ok := seen[key]
		if !ok {
			idx = uint32(len(buf.Positions) / 3)
			seen[key] = idx
			buf.Positions = append(buf.Positions, v.Position[0], v.Position[1], v.Position[2])
			buf.Normals = append(buf.Normals, v.Normal[0], v.Normal[1], v.Normal[2])
			buf.UVs = append(buf.UVs, v.TexCoord[0], v.TexCoord[1])
			buf.Bounds.Extend(v.Position)
		}
		buf.Indices = append(buf.Indices, idx)
	}
	return buf
}
