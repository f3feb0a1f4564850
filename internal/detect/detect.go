package detect

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "stylusguard/internal/errors"
	"stylusguard/internal/gas"
	"stylusguard/internal/ir"
	"stylusguard/internal/model"
)

// Context carries the per-run inputs detectors share beyond the contract
// model itself: the gas estimate, the prices it used, and tuning knobs.
type Context struct {
	Cost             model.CostSummary
	Unpriced         []gas.Unpriced
	Table            gas.Table
	GasCostThreshold uint64
}

// Detector is one analysis rule. Inspect must be side-effect free on the
// contract: detectors run concurrently over the same model.
type Detector interface {
	Meta() model.RuleMeta
	Inspect(ctx context.Context, contract *ir.Contract, run *Context) []model.Finding
}

// Registry holds detectors in registration order. Findings come back in
// that order so two runs over the same model agree byte for byte.
type Registry struct {
	detectors []Detector
}

func NewRegistry(detectors ...Detector) *Registry {
	return &Registry{detectors: detectors}
}

func (r *Registry) Register(d Detector) {
	r.detectors = append(r.detectors, d)
}

func (r *Registry) Detectors() []Detector {
	return r.detectors
}

// Run executes every detector concurrently, each under its own deadline.
// A detector that overruns its budget is abandoned and reported as a
// timeout; findings from the detectors that finished are kept. budget <= 0
// disables the per-detector deadline.
func (r *Registry) Run(ctx context.Context, contract *ir.Contract, run *Context, budget time.Duration) ([]model.Finding, []*apperrors.DetectorTimeout) {
	results := make([][]model.Finding, len(r.detectors))
	timedOut := make([]bool, len(r.detectors))

	g := new(errgroup.Group)
	for i, d := range r.detectors {
		i, d := i, d
		g.Go(func() error {
			dctx := ctx
			cancel := context.CancelFunc(func() {})
			if budget > 0 {
				dctx, cancel = context.WithTimeout(ctx, budget)
			}
			defer cancel()

			done := make(chan []model.Finding, 1)
			go func() {
				done <- d.Inspect(dctx, contract, run)
			}()
			select {
			case findings := <-done:
				results[i] = findings
			case <-dctx.Done():
				timedOut[i] = true
			}
			return nil
		})
	}
	g.Wait() // no detector returns an error, timeouts are data

	var findings []model.Finding
	var timeouts []*apperrors.DetectorTimeout
	for i, d := range r.detectors {
		if timedOut[i] {
			timeouts = append(timeouts, &apperrors.DetectorTimeout{Detector: d.Meta().ID})
			continue
		}
		findings = append(findings, results[i]...)
	}
	return findings, timeouts
}

// ForCategories assembles the standard detector set filtered to the
// enabled categories, in the canonical security, performance, quality
// order.
func ForCategories(categories []model.Category) *Registry {
	enabled := make(map[model.Category]bool, len(categories))
	for _, c := range categories {
		enabled[c] = true
	}
	registry := NewRegistry()
	if enabled[model.CategorySecurity] {
		for _, d := range SecurityDetectors() {
			registry.Register(d)
		}
	}
	if enabled[model.CategoryPerformance] {
		for _, d := range GasDetectors() {
			registry.Register(d)
		}
	}
	if enabled[model.CategoryQuality] {
		for _, d := range QualityDetectors() {
			registry.Register(d)
		}
	}
	return registry
}

// finding fills the fields every detector sets the same way.
func finding(meta model.RuleMeta, severity model.Severity, pos ir.Position, fn, message, remediation string) model.Finding {
	return model.Finding{
		RuleID:      meta.ID,
		Category:    meta.Category,
		Severity:    severity,
		Position:    model.Position{File: pos.File, Line: pos.Line, Column: pos.Column},
		Function:    fn,
		Message:     message,
		Remediation: remediation,
	}
}
