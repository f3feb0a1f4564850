package report

import (
	"fmt"
	"sort"

	"stylusguard/internal/model"
)

// Aggregator assembles the final report from pipeline outputs. It owns
// the ordering and filtering contract: duplicates collapse, findings
// below the severity floor drop, and the rest sort severity first so the
// output is stable across runs.
type Aggregator struct {
	severityFloor model.Severity
}

// NewAggregator builds an aggregator with the given severity floor. An
// empty floor keeps everything.
func NewAggregator(floor model.Severity) *Aggregator {
	return &Aggregator{severityFloor: floor}
}

// Prepare dedupes, filters and orders findings. The input is not
// modified.
func (a *Aggregator) Prepare(findings []model.Finding) []model.Finding {
	seen := make(map[string]bool, len(findings))
	out := make([]model.Finding, 0, len(findings))
	for _, f := range findings {
		key := fmt.Sprintf("%s|%s|%d|%d", f.RuleID, f.Position.File, f.Position.Line, f.Position.Column)
		if seen[key] {
			continue
		}
		seen[key] = true
		if a.severityFloor.Valid() && !f.Severity.GTE(a.severityFloor) {
			continue
		}
		out = append(out, f)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() > out[j].Severity.Rank()
		}
		if out[i].Position != out[j].Position {
			return out[i].Position.Before(out[j].Position)
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}

// Assemble builds the report artifact around already-prepared findings.
func (a *Aggregator) Assemble(contract string, findings []model.Finding, cost model.CostSummary, quality model.QualitySummary, scores model.Scores, risk model.Risk, diagnostics []model.Diagnostic) *model.Report {
	return &model.Report{
		Contract:    contract,
		Findings:    findings,
		Cost:        cost,
		Quality:     quality,
		Scores:      scores,
		Risk:        risk,
		Diagnostics: diagnostics,
	}
}
