package model

// Severity classifies how dangerous a finding is. The ordering is total:
// Critical > High > Medium > Low > Info.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:     1,
	SeverityLow:      2,
	SeverityMedium:   3,
	SeverityHigh:     4,
	SeverityCritical: 5,
}

// Rank returns the numeric position of s in the severity order, 0 for
// unknown values so malformed severities sort below Info.
func (s Severity) Rank() int { return severityRank[s] }

// GTE reports whether s is at least as severe as other.
func (s Severity) GTE(other Severity) bool { return s.Rank() >= other.Rank() }

// Valid reports whether s is one of the five defined levels.
func (s Severity) Valid() bool { return severityRank[s] != 0 }

func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return Severity(s)
	default:
		return SeverityInfo
	}
}

// Category groups detectors and their findings.
type Category string

const (
	CategorySecurity    Category = "security"
	CategoryPerformance Category = "performance"
	CategoryQuality     Category = "quality"
)

// Position is a location in contract source. Line and Column are 1-based.
type Position struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Before reports whether p comes before other in source order. Files are
// compared first so multi-contract reports stay stable.
func (p Position) Before(other Position) bool {
	if p.File != other.File {
		return p.File < other.File
	}
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

// RuleMeta describes a detector rule independently of any finding it emits.
type RuleMeta struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"` // default severity, confirmed by the scorer
}

// Finding is a single reported issue. Findings are immutable once created;
// detectors produce them and only the aggregator and scorer consume them.
type Finding struct {
	RuleID      string   `json:"ruleId"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Position    Position `json:"position"`
	Function    string   `json:"function,omitempty"`
	Message     string   `json:"message"`
	Remediation string   `json:"remediation"`
	GasSaved    uint64   `json:"gasSaved,omitempty"` // estimated units saved if remediated
}

// FunctionCost is the gas estimate for a single function.
type FunctionCost struct {
	Function    string            `json:"function"`
	Units       uint64            `json:"units"`
	ByKind      map[string]uint64 `json:"byKind,omitempty"`
	CO2Kg       float64           `json:"co2Kg"`
	EnergyKWh   float64           `json:"energyKwh"`
	Unestimated int               `json:"unestimated,omitempty"` // ops priced at the fallback cost
}

// CostSummary aggregates gas estimates across a contract.
type CostSummary struct {
	TotalUnits uint64         `json:"totalUnits"`
	CO2Kg      float64        `json:"co2Kg"`
	EnergyKWh  float64        `json:"energyKwh"`
	Functions  []FunctionCost `json:"functions"`
}

// FunctionQuality is the quality score for a single function.
type FunctionQuality struct {
	Function   string  `json:"function"`
	Score      float64 `json:"score"` // 0..100
	Documented bool    `json:"documented"`
	Complexity int     `json:"complexity"`
}

// QualitySummary aggregates quality scoring across a contract.
type QualitySummary struct {
	Score       float64           `json:"score"` // 0..100
	DocCoverage float64           `json:"docCoverage"`
	Functions   []FunctionQuality `json:"functions"`
}

// Scores holds the normalized per-category scores, each 0..100 where 100
// means no findings of that category.
type Scores struct {
	Security    float64 `json:"security"`
	Performance float64 `json:"performance"`
	Quality     float64 `json:"quality"`
}

// Risk is the overall classification derived from the worst severity
// present and the finding density.
type Risk string

const (
	RiskCritical Risk = "critical"
	RiskHigh     Risk = "high"
	RiskModerate Risk = "moderate"
	RiskLow      Risk = "low"
	RiskMinimal  Risk = "minimal"
)

// Diagnostic records a non-fatal pipeline event: a skipped source region,
// an unpriced operation, or a detector that hit its deadline.
type Diagnostic struct {
	Kind     string   `json:"kind"` // "parse", "timeout"
	Position Position `json:"position,omitempty"`
	Message  string   `json:"message"`
}

// Report is the terminal artifact of an analysis run. Its shape is the
// contract downstream formatters must not break.
type Report struct {
	Contract    string         `json:"contract"`
	Findings    []Finding      `json:"findings"`
	Cost        CostSummary    `json:"cost"`
	Quality     QualitySummary `json:"quality"`
	Scores      Scores         `json:"scores"`
	Risk        Risk           `json:"risk"`
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
}

// CountBySeverity returns how many findings carry each severity level.
func (r *Report) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}

// WorstSeverity returns the highest severity present, or "" for a clean report.
func (r *Report) WorstSeverity() Severity {
	var worst Severity
	for _, f := range r.Findings {
		if f.Severity.Rank() > worst.Rank() {
			worst = f.Severity
		}
	}
	return worst
}
