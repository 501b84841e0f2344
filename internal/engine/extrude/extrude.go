package extrude

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/planloft/internal/engine/mesh"
	"github.com/Faultbox/planloft/internal/engine/spline"
	"github.com/Faultbox/planloft/pkg/math"
)

// Params select how an outline is lofted into a solid.
type Params struct {
	Form        mesh.Form
	Kind        mesh.Kind
	Height      float32
	Quality     mesh.Quality
	Tessellated bool // outline already flattened by the spline pass
}

// Solid extrudes a closed outline along +Z into a triangle soup. The solid
// spans z in [0, totalHeight]: an optional bevel collar, the straight wall
// span, the mirrored top collar, and triangulated caps at both ends. Wall
// UVs run perimeter fraction by height fraction; cap UVs are planar over
// the outline bounds.
func Solid(outline []math.Vec2, p Params) (*mesh.Geometry, error) {
	if len(outline) < 3 {
		return nil, fmt.Errorf("%w: outline has %d points", mesh.ErrInvalidGeometry, len(outline))
	}

	if p.Form.Organic() && !p.Tessellated {
		outline = spline.TessellateLoopFixed(outline, spline.Tension(p.Form), CurveSegments(p.Quality))
	}
	outline = ensureCCW(outline)

	prof := buildProfile(p.Form, p.Kind, p.Height)
	rings := buildRings(outline, prof)
	us := perimeterFractions(outline)

	g := &mesh.Geometry{}
	buildWalls(g, rings, us)
	buildCaps(g, outline, rings)
	return g, nil
}

// ring is one horizontal outline slice of the solid.
type ring struct {
	z   float32
	v   float32 // wall texture coordinate, z over total height
	pts []math.Vec2
}

// buildRings slices the solid bottom to top. Bevel collars sweep a quarter
// circle from the inset cap plane out to the full outline; the straight
// span keeps the full outline across its steps.
func buildRings(outline []math.Vec2, prof profile) []ring {
	var rings []ring

	if prof.bevel {
		for s := 0; s <= prof.segments; s++ {
			theta := float64(s) / float64(prof.segments) * gomath.Pi / 2
			z := prof.thickness * float32(1-gomath.Cos(theta))
			inset := prof.size * float32(1-gomath.Sin(theta))
			rings = append(rings, ring{z: z, pts: insetRing(outline, inset)})
		}
		for k := 1; k <= prof.steps; k++ {
			z := prof.thickness + prof.core*float32(k)/float32(prof.steps)
			rings = append(rings, ring{z: z, pts: outline})
		}
		for s := 1; s <= prof.segments; s++ {
			theta := float64(s) / float64(prof.segments) * gomath.Pi / 2
			z := prof.thickness + prof.core + prof.thickness*float32(gomath.Sin(theta))
			inset := prof.size * float32(1-gomath.Cos(theta))
			rings = append(rings, ring{z: z, pts: insetRing(outline, inset)})
		}
	} else {
		for k := 0; k <= prof.steps; k++ {
			rings = append(rings, ring{z: prof.core * float32(k) / float32(prof.steps), pts: outline})
		}
	}

	total := rings[len(rings)-1].z
	for i := range rings {
		rings[i].v = rings[i].z / total
	}
	return rings
}

// buildWalls quads each outline edge between consecutive rings.
func buildWalls(g *mesh.Geometry, rings []ring, us []float32) {
	n := len(rings[0].pts)
	for l := 0; l+1 < len(rings); l++ {
		r0, r1 := rings[l], rings[l+1]
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			a := wallVertex(r0.pts[i], r0.z, us[i], r0.v)
			b := wallVertex(r0.pts[j], r0.z, us[i+1], r0.v)
			c := wallVertex(r1.pts[j], r1.z, us[i+1], r1.v)
			d := wallVertex(r1.pts[i], r1.z, us[i], r1.v)
			g.AddTriangle(a, b, c)
			g.AddTriangle(a, c, d)
		}
	}
}

// buildCaps triangulates the cap plane once and emits it at both ends,
// downward-facing at the bottom.
func buildCaps(g *mesh.Geometry, outline []math.Vec2, rings []ring) {
	capPts := rings[0].pts
	tris := triangulateRing(capPts)

	minX, minY, sizeX, sizeY := outlineBounds(outline)
	uv := func(p math.Vec2) [2]float32 {
		return [2]float32{(p.X - minX) / sizeX, (p.Y - minY) / sizeY}
	}
	vert := func(p math.Vec2, z float32) mesh.Vertex {
		return mesh.Vertex{Position: [3]float32{p.X, p.Y, z}, TexCoord: uv(p)}
	}

	bottom := rings[0].z
	top := rings[len(rings)-1].z
	for _, tri := range tris {
		g.AddTriangle(vert(tri[0], bottom), vert(tri[2], bottom), vert(tri[1], bottom))
		g.AddTriangle(vert(tri[0], top), vert(tri[1], top), vert(tri[2], top))
	}
}

func wallVertex(p math.Vec2, z, u, v float32) mesh.Vertex {
	return mesh.Vertex{Position: [3]float32{p.X, p.Y, z}, TexCoord: [2]float32{u, v}}
}

// perimeterFractions returns n+1 cumulative distances around the ring
// normalized to [0, 1], the wall U coordinates. The extra entry closes the
// seam at 1 instead of wrapping to 0.
func perimeterFractions(outline []math.Vec2) []float32 {
	n := len(outline)
	us := make([]float32, n+1)
	for i := 0; i < n; i++ {
		us[i+1] = us[i] + outline[i].Distance(outline[(i+1)%n])
	}
	total := us[n]
	if total == 0 {
		return us
	}
	for i := range us {
		us[i] /= total
	}
	return us
}

// ensureCCW returns the outline wound counter-clockwise.
func ensureCCW(outline []math.Vec2) []math.Vec2 {
	var area2 float32
	n := len(outline)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area2 += outline[i].X*outline[j].Y - outline[j].X*outline[i].Y
	}
	if area2 >= 0 {
		return outline
	}
	out := make([]math.Vec2, n)
	for i := range outline {
		out[i] = outline[n-1-i]
	}
	return out
}

// insetRing offsets every corner toward the polygon interior along its
// miter direction. The miter length is clamped so acute corners cannot
// shoot the offset point across the shape.
func insetRing(ring []math.Vec2, d float32) []math.Vec2 {
	if d == 0 {
		return ring
	}
	n := len(ring)
	out := make([]math.Vec2, n)
	for i := range ring {
		prev := ring[(i-1+n)%n]
		cur := ring[i]
		next := ring[(i+1)%n]

		nPrev := leftNormal(cur.Sub(prev))
		nNext := leftNormal(next.Sub(cur))

		bis := nPrev.Add(nNext)
		if bis.Length() < 1e-6 {
			bis = nPrev
		} else {
			bis = bis.Normalize()
		}

		cosPhi := bis.Dot(nPrev)
		if cosPhi < 0.25 {
			cosPhi = 0.25
		}
		out[i] = cur.Add(bis.Scale(d / cosPhi))
	}
	return out
}

// leftNormal is the interior-pointing edge normal of a CCW ring.
func leftNormal(v math.Vec2) math.Vec2 {
	return math.Vec2{X: -v.Y, Y: v.X}.Normalize()
}

// outlineBounds returns the 2D extent used for planar cap UVs.
func outlineBounds(outline []math.Vec2) (minX, minY, sizeX, sizeY float32) {
	minX, minY = outline[0].X, outline[0].Y
	maxX, maxY := minX, minY
	for _, p := range outline[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	sizeX, sizeY = maxX-minX, maxY-minY
	if sizeX == 0 {
		sizeX = 1
	}
	if sizeY == 0 {
		sizeY = 1
	}
	return minX, minY, sizeX, sizeY
}
