// Package pipeline sequences the generation stages: footprint preparation,
// outline tessellation, extrusion, refinement, and packaging. Both the
// worker path and the synchronous proxy path run through here.
package pipeline

import (
	"fmt"

	"github.com/Faultbox/planloft/internal/engine/extrude"
	"github.com/Faultbox/planloft/internal/engine/mesh"
	"github.com/Faultbox/planloft/internal/engine/refine"
	"github.com/Faultbox/planloft/internal/engine/shape"
	"github.com/Faultbox/planloft/internal/engine/spline"
)

// Build runs the full pipeline for one element and returns its packed
// buffer. Preparation failures surface before any geometry is built.
func Build(spec mesh.ElementSpec, opts mesh.Options) (*mesh.Buffer, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	quality := opts.Quality
	if !quality.Valid() {
		quality = mesh.QualityHigh
	}

	ring, err := shape.Prepare(spec.Points, shape.Params{
		Scale:          spec.ScaleFactor,
		Offset:         spec.OriginOffset,
		SkipDecimation: opts.SkipDecimation,
	})
	if err != nil {
		return nil, fmt.Errorf("preparing %q: %w", spec.ID, err)
	}

	tessellated := false
	if spec.Form.Organic() {
		ring = spline.TessellateLoop(ring, spline.Tension(spec.Form), quality)
		tessellated = true
	}

	g, err := extrude.Solid(ring, extrude.Params{
		Form:        spec.Form,
		Kind:        spec.Kind,
		Height:      spec.Height,
		Quality:     quality,
		Tessellated: tessellated,
	})
	if err != nil {
		return nil, fmt.Errorf("extruding %q: %w", spec.ID, err)
	}

	refine.Morph(g, spec.Form)
	if opts.Adaptive && spec.Form.Organic() && quality == mesh.QualityHigh {
		refine.Subdivide(g)
	}

	return mesh.Finalize(g, spec.Form.Organic(), spec.Elevation, opts.Tangents), nil
}

// BuildProxy produces the cheap placeholder shown while the full build is
// in flight: a straight low-quality extrusion of the prepared footprint
// with no spline, bevel, or morph work.
func BuildProxy(spec mesh.ElementSpec) (*mesh.Buffer, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	ring, err := shape.Prepare(spec.Points, shape.Params{
		Scale:  spec.ScaleFactor,
		Offset: spec.OriginOffset,
	})
	if err != nil {
		return nil, fmt.Errorf("preparing %q: %w", spec.ID, err)
	}

	g, err := extrude.Solid(ring, extrude.Params{
		Form:    mesh.FormExtrusion,
		Kind:    mesh.KindSolid,
		Height:  spec.Height,
		Quality: mesh.QualityLow,
	})
	if err != nil {
		return nil, fmt.Errorf("extruding %q: %w", spec.ID, err)
	}

	return mesh.Finalize(g, false, spec.Elevation, false), nil
}
