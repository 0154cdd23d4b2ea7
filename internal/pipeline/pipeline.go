// Package pipeline runs selected steps through spectrum assembly,
// distribution building and output. Steps are independent: a failing step
// is recorded in the report and the others carry on.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fisdef/internal/decay"
	"fisdef/internal/distribution"
	"fisdef/internal/inventory"
	"fisdef/internal/logging"
	"fisdef/internal/output"
	"fisdef/internal/spectrum"
)

// Runner holds everything shared by the steps of one run.
type Runner struct {
	Provider  decay.Provider
	Writer    *output.Writer
	Radiation decay.RadiationType
	Sort      spectrum.SortKey
	StartID   int
	Workers   int             // <= 1 processes steps in order
	Prefix    string          // artifact path prefix
	Formats   []output.Format // nothing is written when empty
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index    int
	Lines    int
	Nuclides int
	Activity float64 // Bq, of the nuclides that contributed lines
	Source   *distribution.Source
	Files    []string
	Err      error
	Skipped  bool // the run ended before the step started; Err holds the cause
	Duration time.Duration
}

// Failed reports whether the step could not be completed.
func (r StepResult) Failed() bool {
	return r.Err != nil
}

// Report collects the results of a run in step order.
type Report struct {
	RunID string
	Steps []StepResult
}

// Failed returns the failed steps.
func (r *Report) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Failed() {
			out = append(out, s)
		}
	}
	return out
}

// Err joins the errors of all failed steps, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, s := range r.Failed() {
		errs = append(errs, s.Err)
	}
	return errors.Join(errs...)
}

// Run processes the steps of inv listed in indices. The returned error is
// non-nil only when ctx ends the run early; step failures are in the report.
func (r *Runner) Run(ctx context.Context, inv *inventory.Inventory, indices []int) (*Report, error) {
	log := logging.Get(logging.CategoryPipeline)

	report := &Report{
		RunID: uuid.NewString(),
		Steps: make([]StepResult, len(indices)),
	}
	if len(indices) == 0 {
		log.Info("no steps selected")
		return report, nil
	}
	log.Infof("run %s: %d steps, %s lines, %d workers", report.RunID, len(indices), r.Radiation, max(r.Workers, 1))

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(r.Workers, 1))

	for i, idx := range indices {
		if idx < 0 || idx >= inv.Len() {
			report.Steps[i] = StepResult{Index: idx, Err: fmt.Errorf("step %d out of range 0-%d", idx, inv.Len()-1)}
			continue
		}
		report.Steps[i] = StepResult{Index: idx}
		step := &inv.Steps[idx]
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				mu.Lock()
				report.Steps[i] = StepResult{Index: idx, Skipped: true, Err: fmt.Errorf("step %d not processed: %w", idx, err)}
				mu.Unlock()
				return nil
			}
			res := r.processStep(egCtx, report.RunID, step)
			mu.Lock()
			report.Steps[i] = res
			mu.Unlock()
			return nil
		})
	}

	// Step failures never reach the group.
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run %s interrupted: %w", report.RunID, err)
	}

	if failed := report.Failed(); len(failed) > 0 {
		log.Warnf("run %s: %d of %d steps failed", report.RunID, len(failed), len(indices))
	}
	return report, nil
}

func (r *Runner) processStep(ctx context.Context, runID string, step *inventory.Step) StepResult {
	log := logging.Get(logging.CategoryPipeline)
	start := time.Now()
	res := StepResult{Index: step.Index}
	log.Debugf("processing %s", step.Label())

	entries, err := spectrum.Assemble(ctx, step, r.Radiation, r.Sort, r.Provider)
	if err != nil {
		res.Err = err
		log.Errorf("step %d: %v", step.Index, err)
		return finish(res, start)
	}
	res.Lines = len(entries)
	res.Activity = spectrum.TotalActivity(entries)

	src, err := distribution.Build(entries, r.StartID)
	if err != nil {
		res.Err = fmt.Errorf("failed to build distribution for step %d: %w", step.Index, err)
		log.Errorf("step %d: %v", step.Index, err)
		return finish(res, start)
	}
	res.Source = src
	if src == nil {
		log.Infof("step %d: no %s lines, no distribution", step.Index, r.Radiation)
	} else {
		res.Nuclides = len(src.Groups)
	}

	artifact := &output.Artifact{
		RunID:     runID,
		Step:      step,
		Radiation: r.Radiation,
		Sort:      r.Sort,
		Entries:   entries,
		Source:    src,
	}
	var errs []error
	for _, f := range r.Formats {
		if f == output.FormatMCNP && src == nil {
			log.Infof("step %d: skipping %s output", step.Index, f)
			continue
		}
		path, err := r.Writer.WriteArtifact(r.Prefix, f, artifact)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res.Files = append(res.Files, path)
	}
	res.Err = errors.Join(errs...)
	if res.Err != nil {
		log.Errorf("step %d: %v", step.Index, res.Err)
	} else {
		log.Infof("step %d: %d lines from %d nuclides", step.Index, res.Lines, res.Nuclides)
	}
	return finish(res, start)
}

func finish(res StepResult, start time.Time) StepResult {
	res.Duration = time.Since(start)
	return res
}
