package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/planloft/internal/engine/mesh"
	"github.com/Faultbox/planloft/pkg/math"
)

func fingerprintSpec() mesh.ElementSpec {
	return mesh.ElementSpec{
		ID:     "room-1",
		Points: []math.Vec2{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 3}, {X: 0, Y: 3}},
		Form:   mesh.FormExtrusion,
		Kind:   mesh.KindSolid,
		Height: 2.5,
	}
}

func TestFingerprintStable(t *testing.T) {
	spec := fingerprintSpec()
	opts := mesh.DefaultOptions()

	a := Fingerprint(spec, opts)
	b := Fingerprint(spec, opts)

	require.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprintSensitivity(t *testing.T) {
	base := Fingerprint(fingerprintSpec(), mesh.DefaultOptions())

	tests := []struct {
		name   string
		mutate func(*mesh.ElementSpec, *mesh.Options)
	}{
		{"id", func(s *mesh.ElementSpec, o *mesh.Options) { s.ID = "room-2" }},
		{"form", func(s *mesh.ElementSpec, o *mesh.Options) { s.Form = mesh.FormBubble }},
		{"kind", func(s *mesh.ElementSpec, o *mesh.Options) { s.Kind = mesh.KindVoid }},
		{"height", func(s *mesh.ElementSpec, o *mesh.Options) { s.Height = 3 }},
		{"elevation", func(s *mesh.ElementSpec, o *mesh.Options) { s.Elevation = 1 }},
		{"scale", func(s *mesh.ElementSpec, o *mesh.Options) { s.ScaleFactor = 2 }},
		{"offset", func(s *mesh.ElementSpec, o *mesh.Options) { s.OriginOffset = math.Vec2{X: 1} }},
		{"point", func(s *mesh.ElementSpec, o *mesh.Options) { s.Points[2].X = 5 }},
		{"extra point", func(s *mesh.ElementSpec, o *mesh.Options) {
			s.Points = append(s.Points, math.Vec2{X: 2, Y: 4})
		}},
		{"quality", func(s *mesh.ElementSpec, o *mesh.Options) { o.Quality = mesh.QualityLow }},
		{"adaptive", func(s *mesh.ElementSpec, o *mesh.Options) { o.Adaptive = true }},
		{"tangents", func(s *mesh.ElementSpec, o *mesh.Options) { o.Tangents = true }},
		{"skip decimation", func(s *mesh.ElementSpec, o *mesh.Options) { o.SkipDecimation = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := fingerprintSpec()
			opts := mesh.DefaultOptions()
			tt.mutate(&spec, &opts)
			assert.NotEqual(t, base, Fingerprint(spec, opts))
		})
	}
}

func TestFingerprintNormalizesQuality(t *testing.T) {
	spec := fingerprintSpec()

	high := Fingerprint(spec, mesh.Options{Quality: mesh.QualityHigh})
	unset := Fingerprint(spec, mesh.Options{})

	assert.Equal(t, high, unset)
}
