package decay

import (
	"slices"

	"fisdef/internal/logging"
	"fisdef/internal/nuclide"
)

// Record is a raw decay-data row before cleaning. Nil pointers mark values
// the data source left blank.
type Record struct {
	EnergyKeV    *float64
	IntensityPct *float64
	ParentLevel  *float64 // parent level energy, keV; 0 for the ground state
}

// SelectParentLevel keeps the records emitted from the parent level that
// matches id's isomeric state. Data sources list the ground state and every
// isomer of a nuclide together; levels are matched by rank of their energy.
//
// When the records do not include a ground-state level, the lowest level is
// taken as the first isomer. Records with an unknown parent level are kept.
// A nil result means no records belong to the requested state.
func SelectParentLevel(id nuclide.ID, records []Record) []Record {
	log := logging.Get(logging.CategoryDecay)

	var levels []float64
	for _, r := range records {
		if r.ParentLevel != nil {
			levels = append(levels, *r.ParentLevel)
		}
	}
	if len(levels) == 0 {
		return records
	}
	slices.Sort(levels)
	levels = slices.Compact(levels)

	rank := id.State
	if levels[0] != 0 {
		if !id.Metastable() {
			log.Debugf("no ground-state records for %s", id)
			return nil
		}
		log.Debugf("%s records have no ground state, assuming %g keV is the first isomer", id, levels[0])
		rank = id.State - 1
	}
	if rank >= len(levels) {
		log.Debugf("no records for isomeric state of %s", id)
		return nil
	}
	target := levels[rank]

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.ParentLevel == nil || *r.ParentLevel == target {
			out = append(out, r)
		}
	}
	return out
}

// CleanRecords converts records to lines, dropping unobserved emissions
// (missing energy or intensity) and converting percent to fraction.
func CleanRecords(id nuclide.ID, records []Record) []Line {
	lines := make([]Line, 0, len(records))
	dropped := 0
	for _, r := range records {
		if r.EnergyKeV == nil || r.IntensityPct == nil {
			dropped++
			continue
		}
		lines = append(lines, Line{EnergyKeV: *r.EnergyKeV, Intensity: *r.IntensityPct / 100})
	}
	if dropped > 0 {
		logging.Get(logging.CategoryDecay).Debugf("dropped %d unobserved %s records", dropped, id)
	}
	return lines
}
