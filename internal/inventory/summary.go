package inventory

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Summary writes a table of every interval: times, mass, dose rate and
// activity.
func Summary(w io.Writer, inv *Inventory) error {
	rows := make([][]string, 0, inv.Len())
	for _, s := range inv.Steps {
		rows = append(rows, []string{
			strconv.Itoa(s.Index),
			sci(s.IrradiationTime),
			sci(s.CoolingTime),
			sci(s.TotalTime()),
			sci(s.Mass),
			sci(s.DoseRate * 1e6),
			sci(s.Activity),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Index", "Irrad [s]", "Cool [s]", "Total [s]", "Mass [g]", "Dose [uSv/hr]", "Act [Bq]").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func sci(v float64) string {
	return strconv.FormatFloat(v, 'e', 2, 64)
}
