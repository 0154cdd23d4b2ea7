package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	cardWidth    = 80
	continuation = "        "
	kevToMeV     = 1e-3
)

var errNoDistribution = errors.New("step has no source distribution")

// MCNPDeck writes one sc/si/sp block per nuclide group (energies in MeV),
// followed by the selector block that samples groups by activity fraction.
// Cards are wrapped at 80 columns with an 8-space continuation indent.
func MCNPDeck(w io.Writer, a *Artifact) error {
	src := a.Source
	if src == nil {
		return errNoDistribution
	}
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "c fisdef run %s\n", a.RunID)
	fmt.Fprintf(bw, "c step %d: irradiation %s s, cooling %s s, %s Bq\n",
		a.Step.Index, mcnpNum(a.Step.IrradiationTime), mcnpNum(a.Step.CoolingTime), mcnpNum(src.TotalActivity()))
	fmt.Fprintf(bw, "c %s source, use with:\n", a.Radiation)
	fmt.Fprintf(bw, "c   sdef par=%s erg=d%d\n", a.Radiation.Particle(), src.Selector.ID)
	fmt.Fprintln(bw, "c")

	for _, g := range src.Groups {
		fmt.Fprintf(bw, "sc%-5d %s decay data, norm = %s particles/decay\n", g.ID, g.Name, mcnpNum(g.Norm))

		si := make([]string, 0, len(g.Energies)+2)
		si = append(si, fmt.Sprintf("si%d", g.ID), "L")
		for _, e := range g.Energies {
			si = append(si, mcnpNum(e*kevToMeV))
		}
		writeCard(bw, si)

		sp := make([]string, 0, len(g.Probabilities)+1)
		sp = append(sp, fmt.Sprintf("sp%d", g.ID))
		for _, p := range g.Probabilities {
			sp = append(sp, mcnpNum(p))
		}
		writeCard(bw, sp)
		fmt.Fprintln(bw, "c")
	}

	sel := src.Selector
	fmt.Fprintf(bw, "sc%-5d nuclide selector, activity fraction\n", sel.ID)
	for _, g := range src.Groups {
		fmt.Fprintf(bw, "c   %-7s = %s Bq * %s particles/decay\n", g.Name, mcnpNum(g.Activity), mcnpNum(g.Norm))
	}
	si := []string{fmt.Sprintf("si%d", sel.ID), "S"}
	for _, id := range sel.GroupIDs {
		si = append(si, fmt.Sprint(id))
	}
	writeCard(bw, si)
	sp := []string{fmt.Sprintf("sp%d", sel.ID)}
	for _, wt := range sel.Weights {
		sp = append(sp, mcnpNum(wt))
	}
	writeCard(bw, sp)
	fmt.Fprintln(bw, "c")

	return bw.Flush()
}

func writeCard(w io.Writer, fields []string) {
	for _, line := range wrapCard(fields, cardWidth) {
		fmt.Fprintln(w, line)
	}
}

// wrapCard joins fields with single spaces, starting a continuation line
// indented by eight spaces whenever the next field would pass width. Fields
// are never split.
func wrapCard(fields []string, width int) []string {
	var (
		lines []string
		b     strings.Builder
	)
	for _, f := range fields {
		switch {
		case b.Len() == 0:
			b.WriteString(f)
		case b.Len()+1+len(f) > width:
			lines = append(lines, b.String())
			b.Reset()
			b.WriteString(continuation)
			b.WriteString(f)
		default:
			b.WriteByte(' ')
			b.WriteString(f)
		}
	}
	if b.Len() > 0 {
		lines = append(lines, b.String())
	}
	return lines
}

func mcnpNum(v float64) string {
	return fmt.Sprintf("%.5e", v)
}
