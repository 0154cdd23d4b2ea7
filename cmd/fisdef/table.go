package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fisdef/internal/decay/local"
	"fisdef/internal/inventory"
)

// newSummaryCmd prints the interval table only.
func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <inventory.json>",
		Short: "Print the irradiation and cooling intervals of an inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := inventory.Read(args[0])
			if err != nil {
				return err
			}
			return inventory.Summary(cmd.OutOrStdout(), inv)
		},
	}
}

// newTableCmd groups the local decay table commands.
func newTableCmd(g *globalOptions) *cobra.Command {
	tableCmd := &cobra.Command{
		Use:   "table",
		Short: "Manage the local decay table",
	}

	importCmd := &cobra.Command{
		Use:   "import <lines.csv>...",
		Short: "Load decay lines from CSV into the local table",
		Long: `Appends decay lines to the local SQLite table.

The CSV header names the columns. Required are radiation (a, bp, bm, g, e, x),
energy_kev, intensity (fraction of decays) and either nuclide ("Co60",
"Tc99m") or z and a with an optional state. Lines starting with # are
skipped.

Example:
  nuclide,radiation,energy_kev,intensity
  Co60,g,1173.228,0.9985
  Co60,g,1332.492,0.999826`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := local.Open(g.cfg.Data.DatabasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", path, err)
				}
				n, err := store.Import(cmd.Context(), f)
				f.Close()
				if err != nil {
					return fmt.Errorf("failed to import %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d lines from %s\n", n, path)
			}

			total, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s holds %d lines\n", store.Path(), total)
			return nil
		},
	}

	tableCmd.AddCommand(importCmd)
	return tableCmd
}
