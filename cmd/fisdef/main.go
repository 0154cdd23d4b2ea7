package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fisdef/internal/config"
	"fisdef/internal/logging"
)

// globalOptions are shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	verbosity  int
	quiet      bool

	cfg *config.Config
}

// newRootCmd builds the command tree. It takes the output writer so tests
// can capture what a user would see.
func newRootCmd(out io.Writer) *cobra.Command {
	g := &globalOptions{}
	o := &runOptions{global: g}

	rootCmd := &cobra.Command{
		Use:   "fisdef <inventory.json> [steps]",
		Short: "fisdef - FISPACT-II activation results to MCNP source distributions",
		Long: `fisdef reads a FISPACT-II JSON inventory, looks up decay radiation for every
nuclide of the selected steps, and writes the activity-weighted line spectrum
as a text table, a JSON document, or an MCNP source distribution deck.

Steps are selected by index: "all" (default), "3", a range "1-4", or a list
"1 5 12". Without any output flag only the interval summary is printed.

Decay data comes from the local table (see "fisdef table import") or, with
--fetch, from the IAEA LiveChart API.`,
		Example: `  fisdef run.json
  fisdef run.json 2 -m -i 200
  fisdef run.json 0-4 --rad xray --sort intensity -t -j -o out/cooling`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", config.DefaultPath, "Config file (optional)")
	pf.StringVar(&g.dbPath, "db", "", "Local decay table (default from config or FISDEF_DB)")
	pf.CountVarP(&g.verbosity, "verbose", "v", "Verbose logging (-v info, -vv debug)")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "Disable logging")

	o.addFlags(rootCmd)

	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newTableCmd(g))

	return rootCmd
}

// setup loads the config and starts logging.
func (g *globalOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}
	if g.dbPath != "" {
		cfg.Data.DatabasePath = g.dbPath
	}
	g.cfg = cfg

	if err := logging.Initialize(cfg.Logging.Options(g.verbosity, g.quiet)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.Get(logging.CategoryBoot).Debugf("config loaded from %s", g.configPath)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(os.Stdout)
	rootCmd.SetErr(os.Stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
