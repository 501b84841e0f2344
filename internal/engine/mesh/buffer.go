package mesh

import "fmt"

// Buffer holds packed vertex attributes ready for GPU upload.
// Positions and Normals carry three floats per vertex, UVs two, Tangents
// four (xyz + handedness). Tangents is empty unless tangent generation was
// requested. Indices reference vertices and are always present after
// packaging.
type Buffer struct {
	Positions []float32
	Normals   []float32
	UVs       []float32
	Tangents  []float32
	Indices   []uint32
	Bounds    Bounds
}

// VertexCount returns the number of vertices in the buffer.
func (b *Buffer) VertexCount() int {
	return len(b.Positions) / 3
}

// TriangleCount returns the number of triangles in the buffer.
func (b *Buffer) TriangleCount() int {
	return len(b.Indices) / 3
}

// HasTangents reports whether the tangent attribute is populated.
func (b *Buffer) HasTangents() bool {
	return len(b.Tangents) > 0
}

// Clone returns a deep copy sharing no backing arrays with b.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	out := &Buffer{
		Positions: make([]float32, len(b.Positions)),
		Normals:   make([]float32, len(b.Normals)),
		UVs:       make([]float32, len(b.UVs)),
		Bounds:    b.Bounds,
	}
	copy(out.Positions, b.Positions)
	copy(out.Normals, b.Normals)
	copy(out.UVs, b.UVs)
	if len(b.Tangents) > 0 {
		out.Tangents = make([]float32, len(b.Tangents))
		copy(out.Tangents, b.Tangents)
	}
	if len(b.Indices) > 0 {
		out.Indices = make([]uint32, len(b.Indices))
		copy(out.Indices, b.Indices)
	}
	return out
}

// Validate checks the structural invariants of the buffer: position and
// normal arrays of equal vertex count, a matching UV array, an optional
// tangent array of four floats per vertex, and indices inside range.
func (b *Buffer) Validate() error {
	if len(b.Positions)%3 != 0 {
		return fmt.Errorf("%w: position array length %d not a multiple of 3", ErrMalformedBuffer, len(b.Positions))
	}
	n := b.VertexCount()
	if len(b.Normals) != n*3 {
		return fmt.Errorf("%w: %d normals for %d vertices", ErrMalformedBuffer, len(b.Normals)/3, n)
	}
	if len(b.UVs) != n*2 {
		return fmt.Errorf("%w: %d uvs for %d vertices", ErrMalformedBuffer, len(b.UVs)/2, n)
	}
	if len(b.Tangents) != 0 && len(b.Tangents) != n*4 {
		return fmt.Errorf("%w: %d tangents for %d vertices", ErrMalformedBuffer, len(b.Tangents)/4, n)
	}
	if len(b.Indices)%3 != 0 {
		return fmt.Errorf("%w: index array length %d not a multiple of 3", ErrMalformedBuffer, len(b.Indices))
	}
	for i, idx := range b.Indices {
		if idx >= uint32(n) {
			return fmt.Errorf("%w: index %d at %d exceeds vertex count %d", ErrMalformedBuffer, idx, i, n)
		}
	}
	return nil
}
