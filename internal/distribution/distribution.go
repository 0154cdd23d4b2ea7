// Package distribution turns an activity-weighted spectrum into a two-level
// source distribution: one normalized line distribution per nuclide and a
// selector that picks a nuclide in proportion to its activity.
package distribution

import (
	"fmt"
	"math"
	"slices"

	"fisdef/internal/logging"
	"fisdef/internal/nuclide"
	"fisdef/internal/spectrum"
)

// Tolerance is the allowed relative deviation of a normalized sum from 1.
const Tolerance = 1e-9

// DefaultStartID is the first distribution number used when none is given.
const DefaultStartID = 100

// Group is the line distribution of a single nuclide.
type Group struct {
	ID            int
	Nuclide       nuclide.ID
	Name          string
	Activity      float64   // Bq
	Energies      []float64 // keV, spectrum order
	Probabilities []float64 // sum to 1
	Norm          float64   // particles per decay before normalization
}

// Selector chooses among groups by activity fraction.
type Selector struct {
	ID       int
	GroupIDs []int
	Weights  []float64
}

// Source is the complete distribution of a step.
type Source struct {
	StartID  int
	Groups   []Group
	Selector Selector
}

// TotalActivity is the summed activity of all groups.
func (s *Source) TotalActivity() float64 {
	var total float64
	for _, g := range s.Groups {
		total += g.Activity
	}
	return total
}

// NormalizationError reports a distribution whose probabilities do not sum
// to 1 after normalization, which only happens with NaN, infinite or negative
// input.
type NormalizationError struct {
	DistributionID int
	Nuclide        nuclide.ID
	Sum            float64
}

func (e *NormalizationError) Error() string {
	if e.Nuclide == (nuclide.ID{}) {
		return fmt.Sprintf("distribution %d: selector weights sum to %g, want 1", e.DistributionID, e.Sum)
	}
	return fmt.Sprintf("distribution %d (%s): probabilities sum to %g, want 1", e.DistributionID, e.Nuclide, e.Sum)
}

// Build groups entries by nuclide and numbers the groups from startID in
// ascending nuclide order; the selector takes the next number. A nuclide
// whose intensities sum to zero gets a uniform distribution. An empty
// spectrum or zero total activity yields a nil Source and no error.
func Build(entries []spectrum.Entry, startID int) (*Source, error) {
	log := logging.Get(logging.CategoryDistribution)

	if len(entries) == 0 {
		log.Debug("empty spectrum, no distribution")
		return nil, nil
	}

	order, byNuclide := group(entries)

	src := &Source{StartID: startID, Groups: make([]Group, 0, len(order))}
	var total float64
	for i, id := range order {
		members := byNuclide[id]
		g := Group{
			ID:            startID + i,
			Nuclide:       id,
			Name:          members[0].Name,
			Activity:      members[0].Activity,
			Energies:      make([]float64, len(members)),
			Probabilities: make([]float64, len(members)),
		}
		valid := true
		for j, e := range members {
			g.Energies[j] = e.Line.EnergyKeV
			g.Norm += e.Line.Intensity
			if e.Line.Intensity < 0 {
				valid = false
			}
		}
		if !valid {
			return nil, &NormalizationError{DistributionID: g.ID, Nuclide: id, Sum: g.Norm}
		}
		if g.Norm == 0 {
			for j := range g.Probabilities {
				g.Probabilities[j] = 1 / float64(len(members))
			}
		} else {
			for j, e := range members {
				g.Probabilities[j] = e.Line.Intensity / g.Norm
			}
		}
		if sum, ok := normalized(g.Probabilities); !ok {
			return nil, &NormalizationError{DistributionID: g.ID, Nuclide: id, Sum: sum}
		}
		total += g.Activity
		src.Groups = append(src.Groups, g)
	}

	if total == 0 {
		log.Debug("zero total activity, no distribution")
		return nil, nil
	}

	sel := Selector{
		ID:       startID + len(src.Groups),
		GroupIDs: make([]int, len(src.Groups)),
		Weights:  make([]float64, len(src.Groups)),
	}
	for i, g := range src.Groups {
		sel.GroupIDs[i] = g.ID
		sel.Weights[i] = g.Activity / total
	}
	if sum, ok := normalized(sel.Weights); !ok {
		return nil, &NormalizationError{DistributionID: sel.ID, Sum: sum}
	}
	src.Selector = sel

	log.Debugf("built %d groups, selector %d", len(src.Groups), sel.ID)
	return src, nil
}

// group buckets entries by nuclide, keeping spectrum order within a bucket,
// and returns the nuclides in ascending order.
func group(entries []spectrum.Entry) ([]nuclide.ID, map[nuclide.ID][]spectrum.Entry) {
	byNuclide := make(map[nuclide.ID][]spectrum.Entry)
	var order []nuclide.ID
	for _, e := range entries {
		if _, ok := byNuclide[e.Nuclide]; !ok {
			order = append(order, e.Nuclide)
		}
		byNuclide[e.Nuclide] = append(byNuclide[e.Nuclide], e)
	}
	slices.SortFunc(order, nuclide.ID.Compare)
	return order, byNuclide
}

func normalized(values []float64) (float64, bool) {
	var sum float64
	for _, v := range values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return math.NaN(), false
		}
		sum += v
	}
	return sum, math.Abs(sum-1) <= Tolerance
}
