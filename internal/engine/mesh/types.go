// Package mesh provides the core geometry types produced by the generation
// pipeline: element specifications on the way in, packed vertex buffers on
// the way out.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/planloft/pkg/math"
)

// Geometry errors.
var (
	// ErrInvalidGeometry marks footprints that cannot form a closed outline.
	// Not retriable: the same input always fails.
	ErrInvalidGeometry = errors.New("invalid geometry: fewer than 3 distinct points")

	// ErrMalformedBuffer marks buffers whose attribute arrays disagree.
	ErrMalformedBuffer = errors.New("malformed mesh buffer")
)

// Form selects the silhouette style of a generated solid.
type Form string

// Form constants.
const (
	FormExtrusion Form = "extrusion" // straight prism, hard edges
	FormRounded   Form = "rounded"   // spline outline, light bevel
	FormPillow    Form = "pillow"    // spline outline, deep bevel, soft morph
	FormBubble    Form = "bubble"    // spline outline, deep bevel, strong morph
)

// Organic reports whether the form runs the spline and morph passes.
func (f Form) Organic() bool {
	return f == FormRounded || f == FormPillow || f == FormBubble
}

// Valid reports whether the form is one of the known constants.
func (f Form) Valid() bool {
	switch f {
	case FormExtrusion, FormRounded, FormPillow, FormBubble:
		return true
	}
	return false
}

// Kind classifies what an element represents in the plan.
type Kind string

// Kind constants.
const (
	KindSolid     Kind = "solid"     // room or building mass
	KindVoid      Kind = "void"      // opening cut, always beveled
	KindComponent Kind = "component" // furniture or fixture volume
)

// Valid reports whether the kind is one of the known constants.
func (k Kind) Valid() bool {
	switch k {
	case KindSolid, KindVoid, KindComponent:
		return true
	}
	return false
}

// Quality selects the fidelity tier of generated geometry.
type Quality string

// Quality constants.
const (
	QualityLow  Quality = "low"
	QualityHigh Quality = "high"
)

// Multiplier returns the sample density multiplier for the tier.
func (q Quality) Multiplier() int {
	if q == QualityHigh {
		return 2
	}
	return 1
}

// Valid reports whether the quality is one of the known constants.
func (q Quality) Valid() bool {
	return q == QualityLow || q == QualityHigh
}

// ElementSpec describes one plan element to generate geometry for.
// Treated as immutable once submitted.
type ElementSpec struct {
	ID           string      `json:"id" yaml:"id"`
	Points       []math.Vec2 `json:"points" yaml:"points"`
	Form         Form        `json:"form" yaml:"form"`
	Kind         Kind        `json:"kind" yaml:"kind"`
	Height       float32     `json:"height" yaml:"height"`
	Elevation    float32     `json:"elevation,omitempty" yaml:"elevation,omitempty"`
	ScaleFactor  float32     `json:"scaleFactor,omitempty" yaml:"scale_factor,omitempty"`
	OriginOffset math.Vec2   `json:"originOffset,omitempty" yaml:"origin_offset,omitempty"`
}

// Validate checks the fields that cannot be defaulted away.
func (s ElementSpec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: element has no id", ErrInvalidGeometry)
	}
	if len(s.Points) < 3 {
		return fmt.Errorf("%w: element %q has %d points", ErrInvalidGeometry, s.ID, len(s.Points))
	}
	if !s.Form.Valid() {
		return fmt.Errorf("element %q: unknown form %q", s.ID, s.Form)
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("element %q: unknown kind %q", s.ID, s.Kind)
	}
	return nil
}

// Options control how a single generation request is built.
type Options struct {
	Quality        Quality `json:"quality" yaml:"quality"`
	Adaptive       bool    `json:"adaptive,omitempty" yaml:"adaptive,omitempty"`        // adaptive subdivision (organic + high only)
	Tangents       bool    `json:"tangents,omitempty" yaml:"tangents,omitempty"`        // emit tangent attribute
	SkipDecimation bool    `json:"skipDecimation,omitempty" yaml:"skip_decimation,omitempty"` // keep dense footprints as-is
}

// DefaultOptions returns the options used when a caller passes none.
func DefaultOptions() Options {
	return Options{Quality: QualityHigh}
}

// Vertex represents a mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Bounds holds the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// NewBounds returns bounds primed for accumulation.
func NewBounds() Bounds {
	return Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
}

// Extend grows the bounds to include p.
func (b *Bounds) Extend(p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Center returns the midpoint of the bounds.
func (b Bounds) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Size returns the extent of the bounds along each axis.
func (b Bounds) Size() [3]float32 {
	return [3]float32{
		b.Max[0] - b.Min[0],
		b.Max[1] - b.Min[1],
		b.Max[2] - b.Min[2],
	}
}
