// Package refine post-processes extruded geometry: radial morphing for the
// soft forms and adaptive subdivision for dense shading.
package refine

import (
	gomath "math"

	"github.com/Faultbox/planloft/internal/engine/mesh"
)

// morphScale converts intensity into displacement units.
const morphScale = 0.1

// MorphIntensity returns the displacement strength for a form. Zero means
// the form does not morph.
func MorphIntensity(form mesh.Form) float32 {
	switch form {
	case mesh.FormBubble:
		return 1.5
	case mesh.FormPillow:
		return 0.8
	}
	return 0
}

// Morph inflates the solid by pushing vertices away from the centroid. The
// displacement follows a half sine over normalized centroid distance, so
// the silhouette extremes stay anchored while the midsection swells.
// Displacement depends only on position, which keeps duplicated corners
// coincident.
func Morph(g *mesh.Geometry, form mesh.Form) {
	intensity := MorphIntensity(form)
	if intensity == 0 || len(g.Vertices) == 0 {
		return
	}

	centroid := g.Centroid()

	var maxDist float32
	for i := range g.Vertices {
		if d := distance(g.Vertices[i].Position, centroid); d > maxDist {
			maxDist = d
		}
	}
	if maxDist == 0 {
		return
	}

	for i := range g.Vertices {
		p := g.Vertices[i].Position
		dir := [3]float32{p[0] - centroid[0], p[1] - centroid[1], p[2] - centroid[2]}
		d := distance(p, centroid)
		if d < 1e-6 {
			continue
		}

		disp := float32(gomath.Sin(float64(d/maxDist)*gomath.Pi)) * intensity * morphScale
		scale := disp / d
		g.Vertices[i].Position = [3]float32{
			p[0] + dir[0]*scale,
			p[1] + dir[1]*scale,
			p[2] + dir[2]*scale,
		}
	}
}

func distance(a, b [3]float32) float32 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return float32(gomath.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}
