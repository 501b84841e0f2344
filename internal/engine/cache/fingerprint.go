// Package cache keeps finished mesh buffers keyed by content fingerprint.
//
// Two tiers are provided: Cache, a bounded in-memory table with
// insertion-order eviction that the engine consults on every request, and
// Store, a persistent content-addressed backend (memory, file, or Redis)
// for sharing generated geometry across processes.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"io"

	"github.com/Faultbox/planloft/internal/engine/mesh"
)

// Fingerprint derives the cache key for one element and option set.
// Every field that can change the generated buffer participates, so equal
// keys always address identical geometry.
func Fingerprint(spec mesh.ElementSpec, opts mesh.Options) string {
	quality := opts.Quality
	if !quality.Valid() {
		quality = mesh.QualityHigh
	}

	h := sha256.New()
	writeString(h, spec.ID)
	writeString(h, string(spec.Form))
	writeString(h, string(spec.Kind))
	writeString(h, string(quality))
	binary.Write(h, binary.LittleEndian, spec.Height)
	binary.Write(h, binary.LittleEndian, spec.Elevation)
	binary.Write(h, binary.LittleEndian, spec.ScaleFactor)
	binary.Write(h, binary.LittleEndian, spec.OriginOffset.X)
	binary.Write(h, binary.LittleEndian, spec.OriginOffset.Y)

	var flags uint8
	if opts.Adaptive {
		flags |= 1 << 0
	}
	if opts.Tangents {
		flags |= 1 << 1
	}
	if opts.SkipDecimation {
		flags |= 1 << 2
	}
	binary.Write(h, binary.LittleEndian, flags)

	binary.Write(h, binary.LittleEndian, uint32(len(spec.Points)))
	for _, p := range spec.Points {
		binary.Write(h, binary.LittleEndian, p.X)
		binary.Write(h, binary.LittleEndian, p.Y)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// writeString feeds a length-prefixed string into the hash so that
// neighbouring fields can never alias each other.
func writeString(h hash.Hash, s string) {
	binary.Write(h, binary.LittleEndian, uint32(len(s)))
	io.WriteString(h, s)
}
