// Package formats provides parsers for planloft geometry file formats.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// PLM format errors.
var (
	ErrInvalidPLMMagic       = errors.New("invalid PLM magic: expected 'PLMB'")
	ErrUnsupportedPLMVersion = errors.New("unsupported PLM version")
	ErrTruncatedPLMData      = errors.New("truncated PLM data")
)

// PLMVersion is the current PLM file version.
const PLMVersion uint8 = 1

// PLM flag bits.
const (
	plmFlagTangents uint8 = 1 << 0
	plmFlagIndices  uint8 = 1 << 1
)

// Safety cap on vertex and index counts when reading untrusted data.
const plmMaxCount = 1 << 24

// PLM represents a packed planloft mesh buffer file.
// Attribute arrays are parallel: three floats per vertex for positions and
// normals, two for texture coordinates, four for optional tangents.
type PLM struct {
	Version   uint8
	Positions []float32
	Normals   []float32
	UVs       []float32
	Tangents  []float32
	Indices   []uint32
	BoundsMin [3]float32
	BoundsMax [3]float32
}

// VertexCount returns the number of vertices in the file.
func (p *PLM) VertexCount() int {
	return len(p.Positions) / 3
}

// ParsePLM parses a PLM mesh from raw bytes.
func ParsePLM(data []byte) (*PLM, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedPLMData
	}

	// Check magic "PLMB"
	if string(data[0:4]) != "PLMB" {
		return nil, ErrInvalidPLMMagic
	}

	version := data[4]
	if version != PLMVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedPLMVersion, version)
	}
	flags := data[5]

	r := bytes.NewReader(data[6:])

	var vertexCount, indexCount uint32
	if err := binary.Read(r, binary.LittleEndian, &vertexCount); err != nil {
		return nil, fmt.Errorf("%w: reading vertex count", ErrTruncatedPLMData)
	}
	if err := binary.Read(r, binary.LittleEndian, &indexCount); err != nil {
		return nil, fmt.Errorf("%w: reading index count", ErrTruncatedPLMData)
	}

	if vertexCount > plmMaxCount || indexCount > plmMaxCount {
		return nil, fmt.Errorf("invalid PLM counts: %d vertices, %d indices", vertexCount, indexCount)
	}

	plm := &PLM{Version: version}

	if err := binary.Read(r, binary.LittleEndian, &plm.BoundsMin); err != nil {
		return nil, fmt.Errorf("%w: reading bounds", ErrTruncatedPLMData)
	}
	if err := binary.Read(r, binary.LittleEndian, &plm.BoundsMax); err != nil {
		return nil, fmt.Errorf("%w: reading bounds", ErrTruncatedPLMData)
	}

	plm.Positions = make([]float32, vertexCount*3)
	if err := binary.Read(r, binary.LittleEndian, &plm.Positions); err != nil {
		return nil, fmt.Errorf("%w: reading positions", ErrTruncatedPLMData)
	}
	plm.Normals = make([]float32, vertexCount*3)
	if err := binary.Read(r, binary.LittleEndian, &plm.Normals); err != nil {
		return nil, fmt.Errorf("%w: reading normals", ErrTruncatedPLMData)
	}
	plm.UVs = make([]float32, vertexCount*2)
	if err := binary.Read(r, binary.LittleEndian, &plm.UVs); err != nil {
		return nil, fmt.Errorf("%w: reading uvs", ErrTruncatedPLMData)
	}

	if flags&plmFlagTangents != 0 {
		plm.Tangents = make([]float32, vertexCount*4)
		if err := binary.Read(r, binary.LittleEndian, &plm.Tangents); err != nil {
			return nil, fmt.Errorf("%w: reading tangents", ErrTruncatedPLMData)
		}
	}
	if flags&plmFlagIndices != 0 {
		plm.Indices = make([]uint32, indexCount)
		if err := binary.Read(r, binary.LittleEndian, &plm.Indices); err != nil {
			return nil, fmt.Errorf("%w: reading indices", ErrTruncatedPLMData)
		}
	}

	return plm, nil
}

// ParsePLMFile parses a PLM file from disk.
func ParsePLMFile(path string) (*PLM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PLM file: %w", err)
	}
	return ParsePLM(data)
}

// Encode serializes the mesh into PLM bytes.
func (p *PLM) Encode() []byte {
	var flags uint8
	if len(p.Tangents) > 0 {
		flags |= plmFlagTangents
	}
	if len(p.Indices) > 0 {
		flags |= plmFlagIndices
	}

	buf := new(bytes.Buffer)
	buf.WriteString("PLMB")
	buf.WriteByte(PLMVersion)
	buf.WriteByte(flags)

	binary.Write(buf, binary.LittleEndian, uint32(p.VertexCount()))
	binary.Write(buf, binary.LittleEndian, uint32(len(p.Indices)))
	binary.Write(buf, binary.LittleEndian, p.BoundsMin)
	binary.Write(buf, binary.LittleEndian, p.BoundsMax)
	binary.Write(buf, binary.LittleEndian, p.Positions)
	binary.Write(buf, binary.LittleEndian, p.Normals)
	binary.Write(buf, binary.LittleEndian, p.UVs)
	if flags&plmFlagTangents != 0 {
		binary.Write(buf, binary.LittleEndian, p.Tangents)
	}
	if flags&plmFlagIndices != 0 {
		binary.Write(buf, binary.LittleEndian, p.Indices)
	}

	return buf.Bytes()
}

// WritePLMFile writes the mesh to disk as a PLM file.
func WritePLMFile(path string, p *PLM) error {
	if err := os.WriteFile(path, p.Encode(), 0o644); err != nil {
		return fmt.Errorf("writing PLM file: %w", err)
	}
	return nil
}
