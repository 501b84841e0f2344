package formats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// createTestPLM builds a minimal one-triangle mesh for testing.
func createTestPLM(tangents, indices bool) *PLM {
	p := &PLM{
		Version:   PLMVersion,
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 0, -1},
		Normals:   []float32{0, 1, 0, 0, 1, 0, 0, 1, 0},
		UVs:       []float32{0, 0, 1, 0, 0, 1},
		BoundsMin: [3]float32{0, 0, -1},
		BoundsMax: [3]float32{1, 0, 0},
	}
	if tangents {
		p.Tangents = []float32{1, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1}
	}
	if indices {
		p.Indices = []uint32{0, 1, 2}
	}
	return p
}

func TestPLMRoundTrip(t *testing.T) {
	original := createTestPLM(true, true)
	data := original.Encode()

	parsed, err := ParsePLM(data)
	if err != nil {
		t.Fatalf("ParsePLM failed: %v", err)
	}

	if parsed.VertexCount() != 3 {
		t.Errorf("vertex count = %d, want 3", parsed.VertexCount())
	}
	for i := range original.Positions {
		if parsed.Positions[i] != original.Positions[i] {
			t.Fatalf("position %d = %f, want %f", i, parsed.Positions[i], original.Positions[i])
		}
	}
	for i := range original.Tangents {
		if parsed.Tangents[i] != original.Tangents[i] {
			t.Fatalf("tangent %d = %f, want %f", i, parsed.Tangents[i], original.Tangents[i])
		}
	}
	for i := range original.Indices {
		if parsed.Indices[i] != original.Indices[i] {
			t.Fatalf("index %d = %d, want %d", i, parsed.Indices[i], original.Indices[i])
		}
	}
	if parsed.BoundsMin != original.BoundsMin || parsed.BoundsMax != original.BoundsMax {
		t.Error("bounds not preserved")
	}
}

func TestPLMRoundTripWithoutOptionals(t *testing.T) {
	data := createTestPLM(false, false).Encode()

	parsed, err := ParsePLM(data)
	if err != nil {
		t.Fatalf("ParsePLM failed: %v", err)
	}
	if len(parsed.Tangents) != 0 {
		t.Errorf("expected no tangents, got %d", len(parsed.Tangents))
	}
	if len(parsed.Indices) != 0 {
		t.Errorf("expected no indices, got %d", len(parsed.Indices))
	}
}

func TestParsePLM_InvalidMagic(t *testing.T) {
	data := createTestPLM(false, false).Encode()
	copy(data[0:4], "XXXX")

	_, err := ParsePLM(data)
	if !errors.Is(err, ErrInvalidPLMMagic) {
		t.Errorf("expected ErrInvalidPLMMagic, got %v", err)
	}
}

func TestParsePLM_UnsupportedVersion(t *testing.T) {
	data := createTestPLM(false, false).Encode()
	data[4] = 99

	_, err := ParsePLM(data)
	if !errors.Is(err, ErrUnsupportedPLMVersion) {
		t.Errorf("expected ErrUnsupportedPLMVersion, got %v", err)
	}
}

func TestParsePLM_TruncatedData(t *testing.T) {
	data := createTestPLM(true, true).Encode()

	for _, cut := range []int{4, 6, 10, 20, 40, len(data) - 1} {
		_, err := ParsePLM(data[:cut])
		if !errors.Is(err, ErrTruncatedPLMData) {
			t.Errorf("cut at %d: expected ErrTruncatedPLMData, got %v", cut, err)
		}
	}
}

func TestPLMFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.plm")

	original := createTestPLM(false, true)
	if err := WritePLMFile(path, original); err != nil {
		t.Fatalf("WritePLMFile failed: %v", err)
	}

	parsed, err := ParsePLMFile(path)
	if err != nil {
		t.Fatalf("ParsePLMFile failed: %v", err)
	}
	if parsed.VertexCount() != original.VertexCount() {
		t.Errorf("vertex count = %d, want %d", parsed.VertexCount(), original.VertexCount())
	}
}

func TestParsePLMFile_Missing(t *testing.T) {
	_, err := ParsePLMFile(filepath.Join(t.TempDir(), "missing.plm"))
	if err == nil {
		t.Error("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped not-exist error, got %v", err)
	}
}
