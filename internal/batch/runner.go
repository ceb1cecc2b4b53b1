// Package batch fans one calibration service out over many subjects. The
// engine itself is pure per subject, so concurrency lives entirely here.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"calengine/domain/calibration"
	"calengine/domain/certificate"
	"calengine/domain/core"
	"calengine/ports"
)

// SubjectFailure records one subject that failed calibration. Failures do
// not abort the run; the external scheduler owns retry policy.
type SubjectFailure struct {
	Instance core.InstanceID
	Method   core.MethodID
	Reason   string
}

// Summary aggregates one batch run: certificate count, failures, and the
// distribution of fused scores.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Failures  []SubjectFailure

	MeanCal   float64
	MedianCal float64
	P10Cal    float64
	P90Cal    float64
}

// Runner runs bounded-concurrency batch calibrations.
type Runner struct {
	calibrator ports.Calibrator
	workers    int
}

// NewRunner creates a runner; workers bounds concurrent subjects.
func NewRunner(calibrator ports.Calibrator, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{calibrator: calibrator, workers: workers}
}

// Run calibrates every subject and returns the sealed certificates plus the
// run summary. Context cancellation stops scheduling new subjects; already
// cancelled subjects surface as failures, never as partial certificates.
func (r *Runner) Run(ctx context.Context, subjects []calibration.Subject) ([]certificate.Certificate, Summary, error) {
	certs := make([]*certificate.Certificate, len(subjects))
	failures := make([]*SubjectFailure, len(subjects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	var mu sync.Mutex
	for i, subj := range subjects {
		i, subj := i, subj
		g.Go(func() error {
			cert, err := r.calibrator.Calibrate(gctx, subj)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[i] = &SubjectFailure{
					Instance: subj.Instance,
					Method:   subj.Method,
					Reason:   err.Error(),
				}
				return nil
			}
			certs[i] = &cert
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Summary{}, fmt.Errorf("batch run aborted: %w", err)
	}

	out := make([]certificate.Certificate, 0, len(subjects))
	summary := Summary{Total: len(subjects)}
	var cals []float64
	for i := range subjects {
		if failures[i] != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, *failures[i])
			continue
		}
		summary.Succeeded++
		out = append(out, *certs[i])
		cals = append(cals, certs[i].CalibrationScore)
	}

	if len(cals) > 0 {
		summary.MeanCal, _ = stats.Mean(cals)
		summary.MedianCal, _ = stats.Median(cals)
		summary.P10Cal, _ = stats.Percentile(cals, 10)
		summary.P90Cal, _ = stats.Percentile(cals, 90)
	}
	return out, summary, nil
}

// RunAndStore runs the batch and persists every sealed certificate through
// the repository. Storage errors abort: an unsealed or unpersisted
// certificate must not be reported as done.
func (r *Runner) RunAndStore(ctx context.Context, subjects []calibration.Subject, repo ports.CertificateRepository) (Summary, error) {
	certs, summary, err := r.Run(ctx, subjects)
	if err != nil {
		return summary, err
	}
	for _, cert := range certs {
		if err := repo.Save(ctx, cert); err != nil {
			return summary, fmt.Errorf("persisting certificate %s: %w", cert.InstanceID, err)
		}
	}
	return summary, nil
}
