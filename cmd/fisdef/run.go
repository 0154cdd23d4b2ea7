package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"fisdef/internal/decay"
	"fisdef/internal/decay/local"
	"fisdef/internal/decay/remote"
	"fisdef/internal/inventory"
	"fisdef/internal/logging"
	"fisdef/internal/output"
	"fisdef/internal/pipeline"
	"fisdef/internal/steps"
)

// runOptions are the flags of the root command.
type runOptions struct {
	global *globalOptions

	radiation string
	sort      string
	fetch     bool
	prefix    string
	text      bool
	json      bool
	mcnp      bool
	startID   int
	workers   int
}

func (o *runOptions) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.radiation, "rad", "r", "gamma", "Radiation type: alpha, beta-plus, beta-minus, gamma, electron, xray")
	f.StringVarP(&o.sort, "sort", "s", "energy", "Order lines by energy or intensity")
	f.BoolVar(&o.fetch, "fetch", false, "Query the IAEA LiveChart API instead of the local table")
	f.StringVarP(&o.prefix, "output", "o", "step", "Output path prefix, files are <prefix>_<index>.<ext>")
	f.BoolVarP(&o.text, "text", "t", false, "Write the line table (.txt)")
	f.BoolVarP(&o.json, "json", "j", false, "Write the JSON document (.json)")
	f.BoolVarP(&o.mcnp, "mcnp", "m", false, "Write the MCNP source deck (.i)")
	f.IntVarP(&o.startID, "id", "i", 100, "First MCNP distribution number")
	f.IntVarP(&o.workers, "workers", "w", 1, "Steps processed concurrently")
}

// apply copies explicitly set flags over the loaded config.
func (o *runOptions) apply(cmd *cobra.Command) {
	cfg := o.global.cfg
	f := cmd.Flags()
	if f.Changed("rad") {
		cfg.Source.Radiation = o.radiation
	}
	if f.Changed("sort") {
		cfg.Source.Sort = o.sort
	}
	if f.Changed("fetch") {
		cfg.Data.Fetch = o.fetch
	}
	if f.Changed("output") {
		cfg.Output.Prefix = o.prefix
	}
	if f.Changed("text") {
		cfg.Output.Text = o.text
	}
	if f.Changed("json") {
		cfg.Output.JSON = o.json
	}
	if f.Changed("mcnp") {
		cfg.Output.MCNP = o.mcnp
	}
	if f.Changed("id") {
		cfg.Source.StartID = o.startID
	}
	if f.Changed("workers") {
		cfg.Execution.Workers = o.workers
	}
}

func (o *runOptions) run(cmd *cobra.Command, args []string) error {
	o.apply(cmd)
	if len(args) > 1 {
		o.global.cfg.Source.Steps = strings.Join(args[1:], " ")
	}
	cfg := o.global.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logging.Get(logging.CategoryBoot)
	out := cmd.OutOrStdout()

	inv, err := inventory.Read(args[0])
	if err != nil {
		return err
	}
	if err := inventory.Summary(out, inv); err != nil {
		return err
	}

	if !cfg.Output.Any() {
		log.Info("no outputs requested")
		return nil
	}

	indices, err := steps.Resolve(cfg.Source.Steps, inv.Len())
	if err != nil {
		return err
	}
	if len(indices) == 0 {
		fmt.Fprintf(out, "No steps match %q (%d available)\n", cfg.Source.Steps, inv.Len())
		return nil
	}

	provider, closeProvider, err := o.openProvider(cmd)
	if err != nil {
		return err
	}
	defer closeProvider()

	runner := &pipeline.Runner{
		Provider:  provider,
		Writer:    output.NewWriter(),
		Radiation: cfg.RadiationType(),
		Sort:      cfg.SortKey(),
		StartID:   cfg.Source.StartID,
		Workers:   cfg.Execution.Workers,
		Prefix:    cfg.Output.Prefix,
		Formats:   formats(cfg.Output.Text, cfg.Output.JSON, cfg.Output.MCNP),
	}

	report, err := runner.Run(cmd.Context(), inv, indices)
	if report != nil {
		printReport(out, report)
	}
	if err != nil {
		return err
	}
	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d steps failed", len(failed), len(report.Steps))
	}
	return nil
}

func (o *runOptions) openProvider(cmd *cobra.Command) (decay.Provider, func(), error) {
	cfg := o.global.cfg
	log := logging.Get(logging.CategoryBoot)

	if cfg.Data.Fetch {
		c := remote.New(cfg.RemoteClientConfig())
		log.Infof("fetching decay data from %s", cfg.Data.Remote.BaseURL)
		memo, err := decay.NewMemo(c, 0)
		if err != nil {
			c.Close()
			return nil, nil, err
		}
		return memo, func() { c.Close() }, nil
	}

	store, err := local.OpenExisting(cfg.Data.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w (load one with 'fisdef table import' or use --fetch)", err)
	}
	n, err := store.Count(cmd.Context())
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to read decay table %s: %w", store.Path(), err)
	}
	if n == 0 {
		log.Warnf("decay table %s is empty, load one with 'fisdef table import' or use --fetch", store.Path())
	}
	memo, err := decay.NewMemo(store, 0)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return memo, func() { store.Close() }, nil
}

func formats(text, json, mcnp bool) []output.Format {
	var out []output.Format
	if text {
		out = append(out, output.FormatText)
	}
	if json {
		out = append(out, output.FormatJSON)
	}
	if mcnp {
		out = append(out, output.FormatMCNP)
	}
	return out
}

func printReport(w io.Writer, report *pipeline.Report) {
	fmt.Fprintf(w, "Run %s\n", report.RunID)
	for _, s := range report.Steps {
		switch {
		case s.Skipped:
			fmt.Fprintf(w, "  step %d: skipped, run interrupted\n", s.Index)
		case s.Failed():
			fmt.Fprintf(w, "  step %d: FAILED: %v\n", s.Index, s.Err)
		case s.Source == nil:
			fmt.Fprintf(w, "  step %d: no lines\n", s.Index)
		default:
			fmt.Fprintf(w, "  step %d: %d lines from %d nuclides, distributions %d-%d\n",
				s.Index, s.Lines, s.Nuclides, s.Source.StartID, s.Source.Selector.ID)
		}
		for _, f := range s.Files {
			fmt.Fprintf(w, "    %s\n", f)
		}
	}
}
