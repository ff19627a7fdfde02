package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/wearable.report/internal/config"
	"github.com/banshee-data/wearable.report/internal/hr"
	"github.com/banshee-data/wearable.report/internal/monitoring"
	"github.com/banshee-data/wearable.report/internal/reconstruct"
	"github.com/banshee-data/wearable.report/internal/telemetry"
)

// Result is the output of one run.
type Result struct {
	Profile  string
	Channels map[telemetry.Channel]*ChannelResult
	HR       []hr.Annotated
	// HRDiagnostics counts malformed HR lines.
	HRDiagnostics *monitoring.Diagnostics
	// Skipped counts lines with unknown or unparseable type tags.
	Skipped int
}

// Channel returns the result for c, or nil if the recording had no such
// records.
func (r *Result) Channel(c telemetry.Channel) *ChannelResult {
	return r.Channels[c]
}

// Runner reconstructs recordings with a fixed profile.
type Runner struct {
	profile      config.Profile
	applyFilters bool
	modulus      int64
	workers      int
}

// NewRunner builds a runner from cfg.
func NewRunner(cfg *config.PipelineConfig) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	prof, err := cfg.BuildProfile()
	if err != nil {
		return nil, err
	}
	return &Runner{
		profile:      prof,
		applyFilters: cfg.GetApplyFilters(),
		modulus:      cfg.GetSequenceModulus(),
		workers:      cfg.GetWorkers(),
	}, nil
}

// Run processes a full recording. Per-record and per-channel failures are
// reported in the result; the returned error is only set when ctx ends
// before the run completes, since partial results are not meaningful.
func (r *Runner) Run(ctx context.Context, lines []string) (*Result, error) {
	groups := Group(lines)
	res := &Result{
		Profile:       r.profile.Name,
		Channels:      make(map[telemetry.Channel]*ChannelResult),
		HRDiagnostics: monitoring.NewDiagnostics(telemetry.HR.String()),
		Skipped:       groups.Skipped,
	}

	var jobs []channelJob
	for _, c := range telemetry.Channels {
		chLines, ok := groups.Lines[c]
		if !ok {
			continue
		}
		jobs = append(jobs, channelJob{
			channel:      c,
			lines:        chLines,
			profile:      r.profile.Channel(c),
			applyFilters: r.applyFilters,
			sequence:     reconstruct.NewSequenceState(r.modulus),
		})
	}

	results := make([]*ChannelResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = job.run(gctx)
			return nil
		})
	}
	res.HR = r.annotateHR(groups.Lines[telemetry.HR], res.HRDiagnostics)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	for _, cr := range results {
		res.Channels[cr.Channel] = cr
	}
	return res, nil
}

func (r *Runner) annotateHR(lines []string, diag *monitoring.Diagnostics) []hr.Annotated {
	records := make([]telemetry.HRRecord, 0, len(lines))
	for _, line := range lines {
		rec, err := telemetry.ParseHRRecord(line)
		if err != nil {
			diag.Add(monitoring.DecodeFailure, 1, err.Error())
			continue
		}
		records = append(records, rec)
	}
	return hr.Annotate(records)
}
