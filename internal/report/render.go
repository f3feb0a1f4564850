package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"stylusguard/internal/model"
)

var (
	headerColor   = color.New(color.FgCyan, color.Bold)
	criticalColor = color.New(color.FgRed, color.Bold)
	highColor     = color.New(color.FgRed)
	mediumColor   = color.New(color.FgYellow)
	lowColor      = color.New(color.FgBlue)
	infoColor     = color.New(color.FgWhite)
	okColor       = color.New(color.FgGreen)
	dimColor      = color.New(color.Faint)
)

func severityColor(s model.Severity) *color.Color {
	switch s {
	case model.SeverityCritical:
		return criticalColor
	case model.SeverityHigh:
		return highColor
	case model.SeverityMedium:
		return mediumColor
	case model.SeverityLow:
		return lowColor
	default:
		return infoColor
	}
}

func riskColor(r model.Risk) *color.Color {
	switch r {
	case model.RiskCritical, model.RiskHigh:
		return criticalColor
	case model.RiskModerate:
		return mediumColor
	default:
		return okColor
	}
}

// Render writes the human-readable report. JSON consumers marshal the
// Report directly; this path is for terminals.
func Render(w io.Writer, r *model.Report) {
	headerColor.Fprintf(w, "Audit: %s\n", r.Contract)
	fmt.Fprintf(w, "Risk: %s\n", riskColor(r.Risk).Sprint(string(r.Risk)))
	fmt.Fprintf(w, "Scores: security %.0f  performance %.0f  quality %.0f\n\n",
		r.Scores.Security, r.Scores.Performance, r.Scores.Quality)

	if len(r.Findings) == 0 {
		okColor.Fprintln(w, "No findings.")
	} else {
		counts := r.CountBySeverity()
		fmt.Fprintf(w, "%d finding(s): %d critical, %d high, %d medium, %d low, %d info\n\n",
			len(r.Findings),
			counts[model.SeverityCritical], counts[model.SeverityHigh],
			counts[model.SeverityMedium], counts[model.SeverityLow],
			counts[model.SeverityInfo])

		for _, f := range r.Findings {
			severityColor(f.Severity).Fprintf(w, "[%s] %s", f.Severity, f.RuleID)
			fmt.Fprintf(w, " %s:%d", f.Position.File, f.Position.Line)
			if f.Function != "" {
				fmt.Fprintf(w, " (%s)", f.Function)
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "    %s\n", f.Message)
			if f.Remediation != "" {
				dimColor.Fprintf(w, "    fix: %s\n", f.Remediation)
			}
			if f.GasSaved > 0 {
				dimColor.Fprintf(w, "    saves ~%d gas\n", f.GasSaved)
			}
		}
		fmt.Fprintln(w)
	}

	headerColor.Fprintln(w, "Gas estimate")
	fmt.Fprintf(w, "  total %d units, ~%.6f kg CO2, ~%.6f kWh\n",
		r.Cost.TotalUnits, r.Cost.CO2Kg, r.Cost.EnergyKWh)
	for _, fc := range r.Cost.Functions {
		fmt.Fprintf(w, "  %-24s %10d units", fc.Function, fc.Units)
		if fc.Unestimated > 0 {
			dimColor.Fprintf(w, "  (%d unpriced)", fc.Unestimated)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nQuality: %.0f/100, doc coverage %.0f%%\n",
		r.Quality.Score, r.Quality.DocCoverage*100)

	if len(r.Diagnostics) > 0 {
		fmt.Fprintln(w)
		headerColor.Fprintln(w, "Diagnostics")
		for _, d := range r.Diagnostics {
			if d.Position.Line > 0 {
				dimColor.Fprintf(w, "  [%s] %s:%d: %s\n", d.Kind, d.Position.File, d.Position.Line, d.Message)
			} else {
				dimColor.Fprintf(w, "  [%s] %s\n", d.Kind, d.Message)
			}
		}
	}
}
