package mesh

import (
	"fmt"

	"github.com/Faultbox/planloft/pkg/formats"
)

// Encode serializes the buffer into PLM bytes for disk or wire transport.
func Encode(b *Buffer) []byte {
	return ToPLM(b).Encode()
}

// Decode parses PLM bytes back into a validated buffer.
func Decode(data []byte) (*Buffer, error) {
	plm, err := formats.ParsePLM(data)
	if err != nil {
		return nil, err
	}
	return FromPLM(plm)
}

// ToPLM converts a buffer into its file representation. The PLM borrows the
// buffer's arrays; encode before mutating the source.
func ToPLM(b *Buffer) *formats.PLM {
	return &formats.PLM{
		Version:   formats.PLMVersion,
		Positions: b.Positions,
		Normals:   b.Normals,
		UVs:       b.UVs,
		Tangents:  b.Tangents,
		Indices:   b.Indices,
		BoundsMin: b.Bounds.Min,
		BoundsMax: b.Bounds.Max,
	}
}

// FromPLM converts a parsed file back into a buffer, revalidating the
// structural invariants since the bytes may come from untrusted storage.
func FromPLM(p *formats.PLM) (*Buffer, error) {
	b := &Buffer{
		Positions: p.Positions,
		Normals:   p.Normals,
		UVs:       p.UVs,
		Tangents:  p.Tangents,
		Indices:   p.Indices,
		Bounds:    Bounds{Min: p.BoundsMin, Max: p.BoundsMax},
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("decoding mesh: %w", err)
	}
	return b, nil
}
