// Package shape normalizes raw footprint polygons into closed outlines the
// rest of the pipeline can tessellate and extrude.
package shape

import (
	"fmt"

	"github.com/Faultbox/planloft/internal/engine/mesh"
	"github.com/Faultbox/planloft/pkg/math"
)

// ClosureTolerance is the distance under which two points count as the same
// corner. A trailing point this close to the first is the exporter writing
// the ring closure explicitly and gets dropped.
const ClosureTolerance = 0.001

// decimateThreshold is the footprint size above which density reduction
// kicks in. Tracing tools emit hundreds of near-collinear points per wall.
const decimateThreshold = 50

// Params control footprint preparation.
type Params struct {
	Scale          float32   // plan units per drawing unit, 0 means 1
	Offset         math.Vec2 // translation applied after scaling
	SkipDecimation bool      // keep dense footprints at full resolution
}

// Prepare maps raw plan points into engine space and validates the ring:
// scale, translate, flip the plan Y axis, collapse duplicate corners, drop
// an explicit closing point, and thin oversized footprints. The returned
// ring is open form; the edge from the last point back to the first is
// implicit.
func Prepare(points []math.Vec2, p Params) ([]math.Vec2, error) {
	scale := p.Scale
	if scale == 0 {
		scale = 1
	}

	out := make([]math.Vec2, 0, len(points))
	for _, pt := range points {
		v := pt.Scale(scale).Add(p.Offset)
		v.Y = -v.Y
		// Collapse consecutive duplicates as we go.
		if n := len(out); n > 0 && out[n-1].Distance(v) <= ClosureTolerance {
			continue
		}
		out = append(out, v)
	}

	// An explicit ring closure duplicates the first corner.
	if n := len(out); n > 1 && out[0].Distance(out[n-1]) <= ClosureTolerance {
		out = out[:n-1]
	}

	if len(out) < 3 {
		return nil, fmt.Errorf("%w: %d distinct points after preparation", mesh.ErrInvalidGeometry, len(out))
	}

	if !p.SkipDecimation && len(out) > decimateThreshold {
		out = Decimate(out, 2)
	}

	return out, nil
}

// Decimate keeps every stride-th point of a ring, always retaining the
// final point so the tail of the outline survives. Used both for dense
// footprint thinning and for level-of-detail footprint reduction.
func Decimate(points []math.Vec2, stride int) []math.Vec2 {
	if stride <= 1 || len(points) <= 3 {
		return points
	}

	out := make([]math.Vec2, 0, len(points)/stride+2)
	for i := 0; i < len(points); i += stride {
		out = append(out, points[i])
	}
	if last := points[len(points)-1]; out[len(out)-1] != last {
		out = append(out, last)
	}
	return out
}
