// Package dispatch runs generation jobs on a worker pool and matches
// responses back to callers by correlation id.
package dispatch

import (
	"github.com/Faultbox/planloft/internal/engine/mesh"
)

// Request is one generation job crossing the worker boundary. The element
// and option fields are inlined so the wire object stays flat.
type Request struct {
	CorrelationID    string `json:"correlationId"`
	mesh.ElementSpec `yaml:",inline"`
	mesh.Options     `yaml:",inline"`
}

// BufferData carries packed vertex attributes over the worker boundary.
type BufferData struct {
	Position  []float32  `json:"position"`
	Normal    []float32  `json:"normal"`
	UV        []float32  `json:"uv"`
	Index     []uint32   `json:"index"`
	Tangent   []float32  `json:"tangent,omitempty"`
	BoundsMin [3]float32 `json:"boundsMin"`
	BoundsMax [3]float32 `json:"boundsMax"`
}

// Response is the worker's answer to one request. Exactly one of Data or
// Error is populated.
type Response struct {
	CorrelationID string      `json:"correlationId"`
	Success       bool        `json:"success"`
	Data          *BufferData `json:"data,omitempty"`
	Error         string      `json:"error,omitempty"`
}

// NewSuccess wraps a finished buffer in a success response. The response
// borrows the buffer's arrays; ownership moves with the message.
func NewSuccess(id string, buf *mesh.Buffer) Response {
	return Response{
		CorrelationID: id,
		Success:       true,
		Data: &BufferData{
			Position:  buf.Positions,
			Normal:    buf.Normals,
			UV:        buf.UVs,
			Index:     buf.Indices,
			Tangent:   buf.Tangents,
			BoundsMin: buf.Bounds.Min,
			BoundsMax: buf.Bounds.Max,
		},
	}
}

// NewFailure wraps an error in a failure response.
func NewFailure(id string, err error) Response {
	return Response{
		CorrelationID: id,
		Error:         err.Error(),
	}
}

// Buffer rebuilds the mesh buffer carried by a success response,
// revalidating it since the message may come off the wire.
func (r *Response) Buffer() (*mesh.Buffer, error) {
	buf := &mesh.Buffer{
		Positions: r.Data.Position,
		Normals:   r.Data.Normal,
		UVs:       r.Data.UV,
		Indices:   r.Data.Index,
		Tangents:  r.Data.Tangent,
		Bounds:    mesh.Bounds{Min: r.Data.BoundsMin, Max: r.Data.BoundsMax},
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	return buf, nil
}
