// Package extrude lofts closed outlines into solid geometry: side walls,
// bevel collars, and triangulated caps.
package extrude

import (
	"github.com/Faultbox/planloft/internal/engine/mesh"
)

const (
	// defaultDepth replaces missing or non-positive element heights.
	defaultDepth = 0.1
	// minCoreDepth keeps deep bevels from swallowing the wall entirely.
	minCoreDepth = 0.001
	// thinBevelThickness is the edge break used outside the soft forms.
	thinBevelThickness = 0.02
	// curveSegmentsBase scales with the quality multiplier when the solver
	// flattens a curve boundary itself.
	curveSegmentsBase = 12
)

// CurveSegments returns the per-segment flattening density for curve
// boundaries handed to the solver untessellated.
func CurveSegments(q mesh.Quality) int {
	return curveSegmentsBase * q.Multiplier()
}

// profile captures the resolved vertical construction of one solid.
type profile struct {
	depth     float32 // nominal element height
	core      float32 // straight wall span between bevels
	bevel     bool
	thickness float32 // bevel height
	size      float32 // bevel inset at the cap plane
	segments  int     // rings per bevel collar
	steps     int     // straight wall subdivisions
}

// totalHeight is the full z extent of the solid.
func (p profile) totalHeight() float32 {
	if !p.bevel {
		return p.core
	}
	return p.core + 2*p.thickness
}

// buildProfile derives the extrusion profile from the element. Soft forms
// get thick bevels that eat into the wall span so the nominal height holds;
// voids get a thin edge break so openings read as cut surfaces.
func buildProfile(form mesh.Form, kind mesh.Kind, height float32) profile {
	depth := height
	if depth <= 0 {
		depth = defaultDepth
	}

	p := profile{
		depth: depth,
		core:  depth,
		bevel: form.Organic() || kind == mesh.KindVoid,
		steps: 1,
	}
	if form == mesh.FormBubble {
		p.steps = 3
	}
	if !p.bevel {
		return p
	}

	switch form {
	case mesh.FormBubble:
		p.thickness = 0.3 * depth
		p.segments = 12
	case mesh.FormPillow:
		p.thickness = 0.3 * depth
		p.segments = 8
	default:
		p.thickness = thinBevelThickness
		p.segments = 2
	}
	p.size = p.thickness

	p.core = depth - 2*p.thickness
	if p.core < minCoreDepth {
		p.core = minCoreDepth
	}
	return p
}
