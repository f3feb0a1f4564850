package score

import (
	"stylusguard/internal/ir"
	"stylusguard/internal/model"
)

// Deduction weights per severity on the 0..100 category scale.
var severityWeight = map[model.Severity]float64{
	model.SeverityCritical: 40,
	model.SeverityHigh:     25,
	model.SeverityMedium:   10,
	model.SeverityLow:      4,
	model.SeverityInfo:     1,
}

// Weight returns the score deduction a finding of the given severity
// carries.
func Weight(s model.Severity) float64 { return severityWeight[s] }

// Scorer turns findings and the contract model into category scores and
// an overall risk level. It holds no state: the same inputs always score
// the same.
type Scorer struct{}

func NewScorer() *Scorer { return &Scorer{} }

// Score computes the per-category scores from the classified findings.
// Each finding deducts its severity weight from that category's 100;
// scores floor at zero. A contract with no functions has nothing to
// score and yields zeroes.
func (s *Scorer) Score(findings []model.Finding, functions int) model.Scores {
	if functions == 0 {
		return model.Scores{}
	}
	scores := model.Scores{Security: 100, Performance: 100, Quality: 100}
	for _, f := range findings {
		w := severityWeight[f.Severity]
		switch f.Category {
		case model.CategorySecurity:
			scores.Security -= w
		case model.CategoryPerformance:
			scores.Performance -= w
		case model.CategoryQuality:
			scores.Quality -= w
		}
	}
	scores.Security = floor0(scores.Security)
	scores.Performance = floor0(scores.Performance)
	scores.Quality = floor0(scores.Quality)
	return scores
}

// Risk maps the worst severity present to an overall level, bumped one
// level when findings are dense relative to contract size.
func (s *Scorer) Risk(findings []model.Finding, functions int) model.Risk {
	var worst model.Severity
	for _, f := range findings {
		if f.Severity.Rank() > worst.Rank() {
			worst = f.Severity
		}
	}
	risk := baseRisk(worst)
	if functions > 0 && float64(len(findings))/float64(functions) >= 3 {
		risk = bump(risk)
	}
	return risk
}

func baseRisk(worst model.Severity) model.Risk {
	switch worst {
	case model.SeverityCritical:
		return model.RiskCritical
	case model.SeverityHigh:
		return model.RiskHigh
	case model.SeverityMedium:
		return model.RiskModerate
	case model.SeverityLow:
		return model.RiskLow
	default:
		return model.RiskMinimal
	}
}

func bump(r model.Risk) model.Risk {
	switch r {
	case model.RiskMinimal:
		return model.RiskLow
	case model.RiskLow:
		return model.RiskModerate
	case model.RiskModerate:
		return model.RiskHigh
	default:
		return r
	}
}

// Quality evaluates documentation, complexity and error handling per
// function and blends them into the contract quality summary.
func (s *Scorer) Quality(contract *ir.Contract) model.QualitySummary {
	summary := model.QualitySummary{}
	if len(contract.Functions) == 0 {
		// nothing to score
		return summary
	}

	documented := 0
	docRelevant := 0
	var total float64
	for _, fn := range contract.Functions {
		if fn.Visibility.Entry() {
			docRelevant++
			if fn.Documented {
				documented++
			}
		}
		fq := functionQuality(fn)
		summary.Functions = append(summary.Functions, fq)
		total += fq.Score
	}

	summary.Score = total / float64(len(contract.Functions))
	if docRelevant > 0 {
		summary.DocCoverage = float64(documented) / float64(docRelevant)
	} else {
		summary.DocCoverage = 1
	}
	return summary
}

func functionQuality(fn *ir.Function) model.FunctionQuality {
	score := 100.0
	if fn.Visibility.Entry() && !fn.Documented {
		score -= 30
	}
	if over := fn.Complexity() - 10; over > 0 {
		penalty := float64(over) * 5
		if penalty > 40 {
			penalty = 40
		}
		score -= penalty
	}
	for _, op := range fn.OpsOfKind(ir.OpExternalCall) {
		if !op.Handled {
			score -= 15
		}
	}
	return model.FunctionQuality{
		Function:   fn.Name,
		Score:      floor0(score),
		Documented: fn.Documented,
		Complexity: fn.Complexity(),
	}
}

func floor0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
