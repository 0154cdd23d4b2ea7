// Package spectrum combines the decay lines of every nuclide in a step into a
// single activity-tagged list.
package spectrum

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"fisdef/internal/decay"
	"fisdef/internal/inventory"
	"fisdef/internal/logging"
	"fisdef/internal/nuclide"
)

// Entry is one emission line of one nuclide together with the nuclide's
// activity in the step.
type Entry struct {
	Nuclide  nuclide.ID
	Name     string
	Line     decay.Line
	Activity float64 // Bq
}

// SortKey orders a spectrum.
type SortKey int

const (
	ByEnergy SortKey = iota
	ByIntensity
)

func (k SortKey) String() string {
	if k == ByIntensity {
		return "intensity"
	}
	return "energy"
}

// ParseSortKey accepts "energy" (the default for an empty string) and
// "intensity", or their first letters.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "e", "energy":
		return ByEnergy, nil
	case "i", "intensity":
		return ByIntensity, nil
	}
	return ByEnergy, fmt.Errorf("unknown sort key %q (want energy or intensity)", s)
}

// Assemble looks up rad lines for every nuclide of step with positive
// activity and returns them sorted by key. Nuclides without data are
// skipped; an unavailable data source aborts the step. The step is not
// modified.
func Assemble(ctx context.Context, step *inventory.Step, rad decay.RadiationType, key SortKey, p decay.Provider) ([]Entry, error) {
	log := logging.Get(logging.CategorySpectrum)

	acts := step.Activities()
	names := step.Names()
	ids := make([]nuclide.ID, 0, len(acts))
	for id, a := range acts {
		if a > 0 {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, nuclide.ID.Compare)

	var entries []Entry
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines, err := p.Lookup(ctx, id, rad)
		if errors.Is(err, decay.ErrNotFound) {
			log.Debugf("step %d: no %s data for %s", step.Index, rad, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to assemble step %d: %w", step.Index, err)
		}
		name := names[id]
		if name == "" {
			name = id.String()
		}
		for _, l := range lines {
			entries = append(entries, Entry{Nuclide: id, Name: name, Line: l, Activity: acts[id]})
		}
	}

	Sort(entries, key)
	log.Debugf("step %d: %d %s lines from %d nuclides", step.Index, len(entries), rad, len(ids))
	return entries, nil
}

// Sort orders entries in place. By energy: ascending energy, then nuclide,
// then descending intensity. By intensity: descending intensity, then
// nuclide, then ascending energy.
func Sort(entries []Entry, key SortKey) {
	slices.SortStableFunc(entries, compareFunc(key))
}

func compareFunc(key SortKey) func(a, b Entry) int {
	if key == ByIntensity {
		return func(a, b Entry) int {
			if c := cmp.Compare(b.Line.Intensity, a.Line.Intensity); c != 0 {
				return c
			}
			if c := a.Nuclide.Compare(b.Nuclide); c != 0 {
				return c
			}
			return cmp.Compare(a.Line.EnergyKeV, b.Line.EnergyKeV)
		}
	}
	return func(a, b Entry) int {
		if c := cmp.Compare(a.Line.EnergyKeV, b.Line.EnergyKeV); c != 0 {
			return c
		}
		if c := a.Nuclide.Compare(b.Nuclide); c != 0 {
			return c
		}
		return cmp.Compare(b.Line.Intensity, a.Line.Intensity)
	}
}

// TotalActivity sums the activity of the distinct nuclides in entries.
func TotalActivity(entries []Entry) float64 {
	seen := make(map[nuclide.ID]bool)
	var total float64
	for _, e := range entries {
		if !seen[e.Nuclide] {
			seen[e.Nuclide] = true
			total += e.Activity
		}
	}
	return total
}
