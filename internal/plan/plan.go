// Package plan loads floor plan documents that list the elements to mesh.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/planloft/internal/engine/mesh"
)

// Plan is a parsed floor plan document.
type Plan struct {
	Name     string             `json:"name,omitempty" yaml:"name,omitempty"`
	Elements []mesh.ElementSpec `json:"elements" yaml:"elements"`
}

// Load reads and validates a plan. The format is chosen by file extension:
// .json for JSON, .yaml or .yml for YAML.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}

	var p Plan
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &p)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		return nil, fmt.Errorf("unsupported plan format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing plan %s: %w", filepath.Base(path), err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan %s: %w", filepath.Base(path), err)
	}
	return &p, nil
}

// Validate checks the document as a whole. Every problem is reported, not
// just the first: a rejected plan names all of its bad elements at once.
func (p *Plan) Validate() error {
	if len(p.Elements) == 0 {
		return errors.New("plan has no elements")
	}

	var errs []error
	seen := make(map[string]struct{}, len(p.Elements))
	for i, el := range p.Elements {
		if err := el.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("element %d: %w", i, err))
			continue
		}
		if _, dup := seen[el.ID]; dup {
			errs = append(errs, fmt.Errorf("element %d: duplicate id %q", i, el.ID))
			continue
		}
		seen[el.ID] = struct{}{}
	}
	return multierr.Combine(errs...)
}

// Find returns the element with the given id.
func (p *Plan) Find(id string) (mesh.ElementSpec, bool) {
	for _, el := range p.Elements {
		if el.ID == id {
			return el, true
		}
	}
	return mesh.ElementSpec{}, false
}
