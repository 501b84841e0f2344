package extrude

import (
	"testing"

	"github.com/Faultbox/planloft/internal/engine/mesh"
)

func TestBuildProfileForms(t *testing.T) {
	tests := []struct {
		name      string
		form      mesh.Form
		kind      mesh.Kind
		bevel     bool
		thickness float32
		segments  int
		steps     int
	}{
		{"extrusion solid", mesh.FormExtrusion, mesh.KindSolid, false, 0, 0, 1},
		{"extrusion void", mesh.FormExtrusion, mesh.KindVoid, true, 0.02, 2, 1},
		{"rounded", mesh.FormRounded, mesh.KindSolid, true, 0.02, 2, 1},
		{"pillow", mesh.FormPillow, mesh.KindSolid, true, 0.3, 8, 1},
		{"bubble", mesh.FormBubble, mesh.KindSolid, true, 0.3, 12, 3},
	}

	for _, tc := range tests {
		p := buildProfile(tc.form, tc.kind, 1)
		if p.bevel != tc.bevel {
			t.Errorf("%s: bevel = %v, want %v", tc.name, p.bevel, tc.bevel)
		}
		if p.thickness != tc.thickness {
			t.Errorf("%s: thickness = %v, want %v", tc.name, p.thickness, tc.thickness)
		}
		if p.segments != tc.segments {
			t.Errorf("%s: segments = %d, want %d", tc.name, p.segments, tc.segments)
		}
		if p.steps != tc.steps {
			t.Errorf("%s: steps = %d, want %d", tc.name, p.steps, tc.steps)
		}
	}
}

func TestBuildProfileThicknessScalesWithHeight(t *testing.T) {
	p := buildProfile(mesh.FormBubble, mesh.KindSolid, 2)
	if p.thickness != 0.6 {
		t.Errorf("thickness = %v, want 0.6", p.thickness)
	}
	if p.core < 0.799 || p.core > 0.801 {
		t.Errorf("core = %v, want 0.8", p.core)
	}
	if h := p.totalHeight(); h < 1.999 || h > 2.001 {
		t.Errorf("total height = %v, want 2", h)
	}
}

func TestBuildProfileCoreClamped(t *testing.T) {
	// A sliver element cannot fit two 0.02 bevels; the core clamps instead
	// of going negative.
	p := buildProfile(mesh.FormExtrusion, mesh.KindVoid, 0.01)
	if p.core != minCoreDepth {
		t.Errorf("core = %v, want %v", p.core, minCoreDepth)
	}
	if p.totalHeight() <= 0 {
		t.Errorf("total height = %v, want > 0", p.totalHeight())
	}
}

func TestBuildProfileDefaultDepth(t *testing.T) {
	p := buildProfile(mesh.FormExtrusion, mesh.KindSolid, -5)
	if p.depth != defaultDepth {
		t.Errorf("depth = %v, want %v", p.depth, defaultDepth)
	}
}

func TestCurveSegments(t *testing.T) {
	if got := CurveSegments(mesh.QualityHigh); got != 24 {
		t.Errorf("CurveSegments(high) = %d, want 24", got)
	}
	if got := CurveSegments(mesh.QualityLow); got != 12 {
		t.Errorf("CurveSegments(low) = %d, want 12", got)
	}
}
