package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"fisdef/internal/spectrum"
)

const rule = "------------------------------------------------------------"

// TextTable writes the spectrum as a fixed-width table, one line per row.
func TextTable(w io.Writer, a *Artifact) error {
	bw := bufio.NewWriter(w)

	nuclides := make(map[string]bool)
	for _, e := range a.Entries {
		nuclides[e.Name] = true
	}

	fmt.Fprintf(bw, "Step %d: irradiation %s s, cooling %s s\n",
		a.Step.Index, sci(a.Step.IrradiationTime), sci(a.Step.CoolingTime))
	fmt.Fprintf(bw, "%s lines sorted by %s: %d lines from %d nuclides, %s Bq\n",
		a.Radiation, a.Sort, len(a.Entries), len(nuclides), sci(spectrum.TotalActivity(a.Entries)))
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "  %-10s  %-12s  %-13s  %s\n", "Nuclide", "Energy [keV]", "Intensity [%]", "Activity [Bq]")
	fmt.Fprintln(bw, rule)

	if len(a.Entries) == 0 {
		fmt.Fprintln(bw, "  no lines")
	}
	for _, e := range a.Entries {
		fmt.Fprintf(bw, "  %-10s  %-12s  %-13s  %s\n",
			e.Name, formatEnergy(e.Line.EnergyKeV), formatIntensity(e.Line.Intensity*100), sci(e.Activity))
	}

	return bw.Flush()
}

func formatEnergy(e float64) string {
	switch {
	case e >= 10:
		return strconv.FormatFloat(e, 'f', 2, 64)
	case e >= 0.001:
		return strconv.FormatFloat(e, 'f', 3, 64)
	default:
		return strconv.FormatFloat(e, 'e', 2, 64)
	}
}

func formatIntensity(pct float64) string {
	switch {
	case pct >= 100:
		return strconv.FormatFloat(pct, 'f', 1, 64)
	case pct >= 10:
		return strconv.FormatFloat(pct, 'f', 2, 64)
	case pct >= 0.001:
		return strconv.FormatFloat(pct, 'f', 3, 64)
	default:
		return strconv.FormatFloat(pct, 'e', 2, 64)
	}
}

func sci(v float64) string {
	return strconv.FormatFloat(v, 'e', 2, 64)
}
