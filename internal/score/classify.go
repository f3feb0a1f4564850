package score

import "stylusguard/internal/model"

// Classify normalizes finding severities against the rule set: a finding
// with an invalid severity falls back to its rule's default, and findings
// for unknown rules fall back to Info. Valid severities pass unchanged so
// a detector can still rate one instance above or below its default.
func Classify(findings []model.Finding, rules []model.RuleMeta) []model.Finding {
	defaults := make(map[string]model.RuleMeta, len(rules))
	for _, r := range rules {
		defaults[r.ID] = r
	}

	out := make([]model.Finding, len(findings))
	for i, f := range findings {
		if !f.Severity.Valid() {
			if meta, ok := defaults[f.RuleID]; ok && meta.Severity.Valid() {
				f.Severity = meta.Severity
			} else {
				f.Severity = model.SeverityInfo
			}
		}
		if f.Category == "" {
			if meta, ok := defaults[f.RuleID]; ok {
				f.Category = meta.Category
			}
		}
		out[i] = f
	}
	return out
}
