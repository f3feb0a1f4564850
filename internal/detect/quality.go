package detect

import (
	"context"
	"fmt"
	"strings"

	"stylusguard/internal/ir"
	"stylusguard/internal/model"
)

// QualityDetectors returns the quality rule set in fixed order.
func QualityDetectors() []Detector {
	return []Detector{
		&missingDocsDetector{},
		&complexityDetector{},
		&unhandledResultDetector{},
		&namingDetector{},
		&missingEventDetector{},
	}
}

// missingDocsDetector flags undocumented entry points. Internal helpers
// can skip docs; the external surface cannot.
type missingDocsDetector struct{}

func (d *missingDocsDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-QUAL-DOCS",
		Title:    "Undocumented entry point",
		Category: model.CategoryQuality,
		Severity: model.SeverityInfo,
	}
}

func (d *missingDocsDetector) Inspect(_ context.Context, contract *ir.Contract, _ *Context) []model.Finding {
	var out []model.Finding
	for _, fn := range contract.EntryPoints() {
		if fn.Documented {
			continue
		}
		out = append(out, finding(d.Meta(), model.SeverityInfo, fn.Pos, fn.Name,
			fmt.Sprintf("%s is externally callable but has no doc comment", fn.Name),
			"Add a /// comment describing behavior, arguments and failure modes"))
	}
	return out
}

const complexityLimit = 10

type complexityDetector struct{}

func (d *complexityDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-QUAL-COMPLEXITY",
		Title:    "Function too complex",
		Category: model.CategoryQuality,
		Severity: model.SeverityLow,
	}
}

func (d *complexityDetector) Inspect(_ context.Context, contract *ir.Contract, _ *Context) []model.Finding {
	var out []model.Finding
	for _, fn := range contract.Functions {
		if fn.Complexity() <= complexityLimit {
			continue
		}
		out = append(out, finding(d.Meta(), model.SeverityLow, fn.Pos, fn.Name,
			fmt.Sprintf("%s has complexity %d (limit %d)", fn.Name, fn.Complexity(), complexityLimit),
			"Extract branches into helper functions"))
	}
	return out
}

// unhandledResultDetector flags fallible external calls whose result is
// dropped on the floor.
type unhandledResultDetector struct{}

func (d *unhandledResultDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-QUAL-ERRORS",
		Title:    "Unhandled call result",
		Category: model.CategoryQuality,
		Severity: model.SeverityMedium,
	}
}

func (d *unhandledResultDetector) Inspect(_ context.Context, contract *ir.Contract, _ *Context) []model.Finding {
	var out []model.Finding
	for _, fn := range contract.Functions {
		for _, op := range fn.OpsOfKind(ir.OpExternalCall) {
			if op.Handled {
				continue
			}
			out = append(out, finding(d.Meta(), model.SeverityMedium, op.Pos, fn.Name,
				fmt.Sprintf("result of %s in %s is not checked", op.Target, fn.Name),
				"Propagate with ? or handle the Err branch explicitly"))
		}
	}
	return out
}

// namingDetector flags functions that break Rust snake_case convention.
type namingDetector struct{}

func (d *namingDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-QUAL-NAMING",
		Title:    "Non snake_case function name",
		Category: model.CategoryQuality,
		Severity: model.SeverityInfo,
	}
}

func (d *namingDetector) Inspect(_ context.Context, contract *ir.Contract, _ *Context) []model.Finding {
	var out []model.Finding
	for _, fn := range contract.Functions {
		if fn.Name == strings.ToLower(fn.Name) {
			continue
		}
		out = append(out, finding(d.Meta(), model.SeverityInfo, fn.Pos, fn.Name,
			fmt.Sprintf("%s is not snake_case", fn.Name),
			"Rename to snake_case; the ABI export macro derives the external name"))
	}
	return out
}

// missingEventDetector flags state-changing entry points that emit no
// event. Off-chain consumers cannot observe the change without one.
type missingEventDetector struct{}

func (d *missingEventDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-QUAL-EVENTS",
		Title:    "State change without event",
		Category: model.CategoryQuality,
		Severity: model.SeverityLow,
	}
}

func (d *missingEventDetector) Inspect(_ context.Context, contract *ir.Contract, _ *Context) []model.Finding {
	var out []model.Finding
	for _, fn := range contract.EntryPoints() {
		if len(fn.OpsOfKind(ir.OpStorageWrite)) == 0 || len(fn.OpsOfKind(ir.OpEventEmit)) > 0 {
			continue
		}
		out = append(out, finding(d.Meta(), model.SeverityLow, fn.Pos, fn.Name,
			fmt.Sprintf("%s mutates storage but emits no event", fn.Name),
			"Emit an event so indexers and UIs can track the state change"))
	}
	return out
}
