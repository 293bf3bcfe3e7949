package lights

import (
	"errors"
	"fmt"
	"iter"
)

// LightList is the flattened, per-frame array of lights the shading loop
// iterates. It is built wholesale and never modified afterwards.
type LightList struct {
	lights   []Light
	declared int
}

// Build creates a light list from records, in order. Records that fail to
// build are skipped and their errors returned joined; the declared count is
// the number of lights actually built.
func Build(records []Record, reg *Registry) (*LightList, error) {
	list := &LightList{lights: make([]Light, 0, len(records))}

	var errs []error
	for i, rec := range records {
		light, err := reg.Create(rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("light %d: %w", i, err))
			continue
		}
		list.lights = append(list.lights, light)
	}
	list.declared = len(list.lights)

	return list, errors.Join(errs...)
}

// Len returns the number of lights
func (l *LightList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.lights)
}

// DeclaredCount returns the light count the list was declared with; it always equals Len
func (l *LightList) DeclaredCount() int {
	if l == nil {
		return 0
	}
	return l.declared
}

// At returns the i-th light, or nil when i is out of range
func (l *LightList) At(i int) Light {
	if l == nil || i < 0 || i >= len(l.lights) {
		return nil
	}
	return l.lights[i]
}

// All iterates the lights in order
func (l *LightList) All() iter.Seq2[int, Light] {
	return func(yield func(int, Light) bool) {
		if l == nil {
			return
		}
		for i, light := range l.lights {
			if !yield(i, light) {
				return
			}
		}
	}
}
