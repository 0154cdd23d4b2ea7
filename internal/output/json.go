package output

import (
	"encoding/json"
	"io"
	"slices"

	"fisdef/internal/decay"
	"fisdef/internal/nuclide"
	"fisdef/internal/spectrum"
)

type jsonDocument struct {
	RunID           string              `json:"run_id"`
	Step            int                 `json:"step"`
	IrradiationTime float64             `json:"irradiation_time"`
	CoolingTime     float64             `json:"cooling_time"`
	Radiation       decay.RadiationType `json:"radiation"`
	Sort            string              `json:"sort"`
	TotalActivity   float64             `json:"total_activity"`
	Nuclides        []jsonNuclide       `json:"nuclides"`
	Distribution    *jsonDistribution   `json:"distribution,omitempty"`
}

type jsonNuclide struct {
	Name     string       `json:"name"`
	ZAI      int          `json:"zai"`
	Z        int          `json:"z"`
	A        int          `json:"a"`
	State    int          `json:"state"`
	Activity float64      `json:"activity"`
	Norm     float64      `json:"norm"` // particles per decay
	Lines    []decay.Line `json:"lines"`
}

type jsonDistribution struct {
	SelectorID int       `json:"selector_id"`
	GroupIDs   []int     `json:"group_ids"`
	Weights    []float64 `json:"weights"`
}

// JSON writes the spectrum grouped by nuclide in ascending nuclide order.
// Lines keep the spectrum order within each nuclide.
func JSON(w io.Writer, a *Artifact) error {
	doc := jsonDocument{
		RunID:           a.RunID,
		Step:            a.Step.Index,
		IrradiationTime: a.Step.IrradiationTime,
		CoolingTime:     a.Step.CoolingTime,
		Radiation:       a.Radiation,
		Sort:            a.Sort.String(),
		TotalActivity:   spectrum.TotalActivity(a.Entries),
		Nuclides:        groupEntries(a.Entries),
	}
	if a.Source != nil {
		doc.Distribution = &jsonDistribution{
			SelectorID: a.Source.Selector.ID,
			GroupIDs:   a.Source.Selector.GroupIDs,
			Weights:    a.Source.Selector.Weights,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func groupEntries(entries []spectrum.Entry) []jsonNuclide {
	index := make(map[nuclide.ID]int)
	out := []jsonNuclide{}
	for _, e := range entries {
		i, ok := index[e.Nuclide]
		if !ok {
			i = len(out)
			index[e.Nuclide] = i
			out = append(out, jsonNuclide{
				Name:     e.Name,
				ZAI:      e.Nuclide.ZAI(),
				Z:        e.Nuclide.Z,
				A:        e.Nuclide.A,
				State:    e.Nuclide.State,
				Activity: e.Activity,
			})
		}
		out[i].Norm += e.Line.Intensity
		out[i].Lines = append(out[i].Lines, e.Line)
	}
	slices.SortFunc(out, func(x, y jsonNuclide) int {
		return nuclide.ID{Z: x.Z, A: x.A, State: x.State}.Compare(nuclide.ID{Z: y.Z, A: y.A, State: y.State})
	})
	return out
}
