// Package inventory reads FISPACT-II JSON activation results into ordered
// calculation steps.
package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"fisdef/internal/logging"
	"fisdef/internal/nuclide"
)

// Nuclide is one entry of a step's inventory.
type Nuclide struct {
	ID       nuclide.ID
	Name     string  // FISPACT name, e.g. "Co60"
	Activity float64 // Bq
	HalfLife float64 // s, 0 for stable or when the file omits it
}

// Step is one time point of the calculation.
type Step struct {
	Index           int
	IrradiationTime float64 // s
	CoolingTime     float64 // s
	Mass            float64 // g
	DoseRate        float64 // Sv/h
	Activity        float64 // Bq, total
	Nuclides        []Nuclide
}

// TotalTime returns irradiation plus cooling time.
func (s *Step) TotalTime() float64 {
	return s.IrradiationTime + s.CoolingTime
}

// Label describes the step's time point.
func (s *Step) Label() string {
	return fmt.Sprintf("step %d (irradiation %s s, cooling %s s)", s.Index,
		strconv.FormatFloat(s.IrradiationTime, 'g', 4, 64),
		strconv.FormatFloat(s.CoolingTime, 'g', 4, 64))
}

// Activities returns the activity of every nuclide with activity above
// zero. Duplicate identifiers are summed.
func (s *Step) Activities() map[nuclide.ID]float64 {
	out := make(map[nuclide.ID]float64, len(s.Nuclides))
	for _, n := range s.Nuclides {
		if n.Activity > 0 {
			out[n.ID] += n.Activity
		}
	}
	return out
}

// Names maps identifiers back to the FISPACT names used in the file.
func (s *Step) Names() map[nuclide.ID]string {
	out := make(map[nuclide.ID]string, len(s.Nuclides))
	for _, n := range s.Nuclides {
		if _, ok := out[n.ID]; !ok {
			out[n.ID] = n.Name
		}
	}
	return out
}

// Inventory is the full calculation.
type Inventory struct {
	Steps []Step
}

// Len returns the number of steps.
func (inv *Inventory) Len() int {
	return len(inv.Steps)
}

// wire types for the FISPACT JSON document
type document struct {
	InventoryData []interval `json:"inventory_data"`
}

type interval struct {
	IrradiationTime float64     `json:"irradiation_time"`
	CoolingTime     float64     `json:"cooling_time"`
	TotalMass       float64     `json:"total_mass"`
	TotalActivity   float64     `json:"total_activity"`
	DoseRate        doseRate    `json:"dose_rate"`
	Nuclides        []nuclideJS `json:"nuclides"`
}

type doseRate struct {
	Type     string  `json:"type"`
	Distance float64 `json:"distance"`
	Mass     float64 `json:"mass"`
	Dose     float64 `json:"dose"`
}

type nuclideJS struct {
	Element  string  `json:"element"`
	Isotope  int     `json:"isotope"`
	State    string  `json:"state"`
	HalfLife float64 `json:"half_life"`
	Activity float64 `json:"activity"`
}

// Read loads and validates the file at path.
func Read(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Decode validates and converts a FISPACT JSON document. Nuclides whose
// names cannot be resolved are skipped with a debug log.
func Decode(r io.Reader) (*Inventory, error) {
	log := logging.Get(logging.CategoryInput)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse inventory: %w", err)
	}

	inv := &Inventory{Steps: make([]Step, 0, len(doc.InventoryData))}
	for i, iv := range doc.InventoryData {
		step := Step{
			Index:           i,
			IrradiationTime: iv.IrradiationTime,
			CoolingTime:     iv.CoolingTime,
			Mass:            iv.TotalMass,
			DoseRate:        iv.DoseRate.Dose,
			Activity:        iv.TotalActivity,
			Nuclides:        make([]Nuclide, 0, len(iv.Nuclides)),
		}
		for _, n := range iv.Nuclides {
			name := n.Element + strconv.Itoa(n.Isotope) + n.State
			id, err := nuclide.Parse(name)
			if err != nil {
				log.Debugf("step %d: could not convert %q to a nuclide, skipping: %v", i, name, err)
				continue
			}
			step.Nuclides = append(step.Nuclides, Nuclide{
				ID:       id,
				Name:     name,
				Activity: n.Activity,
				HalfLife: n.HalfLife,
			})
		}
		if step.Activity == 0 {
			for _, n := range step.Nuclides {
				step.Activity += n.Activity
			}
		}
		slices.SortStableFunc(step.Nuclides, func(a, b Nuclide) int { return a.ID.Compare(b.ID) })
		inv.Steps = append(inv.Steps, step)
	}

	log.Infof("read %d intervals", len(inv.Steps))
	return inv, nil
}
