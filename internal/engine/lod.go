package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/Faultbox/planloft/internal/engine/mesh"
	"github.com/Faultbox/planloft/internal/engine/shape"
)

// DefaultLODLevels is the level count used when a caller passes none.
const DefaultLODLevels = 3

// LOD pairs one generated buffer with its detail level. Level 0 is full
// resolution.
type LOD struct {
	Level  int
	Buffer *mesh.Buffer
}

// GenerateLODs builds a chain of decreasing-fidelity buffers for one
// element, concurrently. Level 0 uses the full footprint at the requested
// quality; each deeper level keeps every 2^level-th footprint point and
// drops to low quality. Levels that fail are left out of the result and
// their errors aggregated, so a partial chain and a non-nil error can
// both come back.
func (e *Engine) GenerateLODs(ctx context.Context, spec mesh.ElementSpec, opts Options, levels int) ([]LOD, error) {
	if levels <= 0 {
		levels = DefaultLODLevels
	}

	buffers := make([]*mesh.Buffer, levels)
	errs := make([]error, levels)

	var wg sync.WaitGroup
	for i := 0; i < levels; i++ {
		wg.Add(1)
		go func(level int) {
			defer wg.Done()

			lspec := spec
			lopts := opts
			if level > 0 {
				lspec.Points = shape.Decimate(spec.Points, 1<<level)
				lopts.Quality = mesh.QualityLow
				lopts.Adaptive = false
			}

			buf, err := e.Generate(ctx, lspec, lopts)
			if err != nil {
				errs[level] = fmt.Errorf("level %d: %w", level, err)
				return
			}
			buffers[level] = buf
		}(i)
	}
	wg.Wait()

	out := make([]LOD, 0, levels)
	for i, buf := range buffers {
		if buf != nil {
			out = append(out, LOD{Level: i, Buffer: buf})
		}
	}
	return out, multierr.Combine(errs...)
}
