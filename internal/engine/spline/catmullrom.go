// Package spline turns footprint rings into smooth closed outlines for the
// organic forms using cardinal (Catmull-Rom style) interpolation.
package spline

import (
	gomath "math"

	"github.com/Faultbox/planloft/internal/engine/mesh"
	"github.com/Faultbox/planloft/pkg/math"
)

const (
	// samplesPerUnit is the base outline density per unit of curve length.
	samplesPerUnit = 20
	// maxSamples caps outline resolution regardless of curve length.
	maxSamples = 500
	// lengthSteps is the per-segment resolution of the arc length estimate.
	lengthSteps = 4
)

// Tension returns the curve tension for a form. Higher values exaggerate
// the bulge between corners.
func Tension(form mesh.Form) float32 {
	switch form {
	case mesh.FormRounded:
		return 0.2
	case mesh.FormPillow:
		return 0.5
	case mesh.FormBubble:
		return 0.7
	}
	return 0
}

// TessellateLoop samples a closed cardinal spline through the ring. Sample
// count scales with estimated curve length and quality tier, floored at the
// control point count and capped at maxSamples. The result is an open-form
// closed ring like the input.
func TessellateLoop(points []math.Vec2, tension float32, quality mesh.Quality) []math.Vec2 {
	n := len(points)
	if n < 3 {
		out := make([]math.Vec2, n)
		copy(out, points)
		return out
	}

	length := EstimateLength(points, tension)
	samples := int(gomath.Ceil(float64(length) * samplesPerUnit * float64(quality.Multiplier())))
	if samples < n {
		samples = n
	}
	if samples > maxSamples {
		samples = maxSamples
	}

	out := make([]math.Vec2, samples)
	for k := 0; k < samples; k++ {
		u := float32(k) / float32(samples) * float32(n)
		seg := int(u)
		if seg >= n {
			seg = n - 1
		}
		out[k] = samplePoint(points, tension, seg, u-float32(seg))
	}
	return out
}

// TessellateLoopFixed samples the loop at a fixed point count per control
// segment instead of by arc length. This is the density used when a curve
// boundary reaches the extruder unflattened.
func TessellateLoopFixed(points []math.Vec2, tension float32, perSegment int) []math.Vec2 {
	n := len(points)
	if n < 3 || perSegment < 1 {
		out := make([]math.Vec2, n)
		copy(out, points)
		return out
	}

	out := make([]math.Vec2, 0, n*perSegment)
	for seg := 0; seg < n; seg++ {
		for s := 0; s < perSegment; s++ {
			out = append(out, samplePoint(points, tension, seg, float32(s)/float32(perSegment)))
		}
	}
	return out
}

// EstimateLength approximates the closed curve length by chord-summing a
// few samples per segment.
func EstimateLength(points []math.Vec2, tension float32) float32 {
	n := len(points)
	if n < 2 {
		return 0
	}

	var total float32
	for seg := 0; seg < n; seg++ {
		prev := samplePoint(points, tension, seg, 0)
		for s := 1; s <= lengthSteps; s++ {
			cur := samplePoint(points, tension, seg, float32(s)/lengthSteps)
			total += prev.Distance(cur)
			prev = cur
		}
	}
	return total
}

// samplePoint evaluates the spline on segment seg at local parameter t in
// [0, 1]. Neighbor indices wrap, closing the loop.
func samplePoint(points []math.Vec2, tension float32, seg int, t float32) math.Vec2 {
	n := len(points)
	p0 := points[(seg-1+n)%n]
	p1 := points[seg]
	p2 := points[(seg+1)%n]
	p3 := points[(seg+2)%n]

	m1 := p2.Sub(p0).Scale(tension)
	m2 := p3.Sub(p1).Scale(tension)

	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2

	return p1.Scale(h00).
		Add(m1.Scale(h10)).
		Add(p2.Scale(h01)).
		Add(m2.Scale(h11))
}
