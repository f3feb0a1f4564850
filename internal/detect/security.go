package detect

import (
	"context"
	"fmt"

	"stylusguard/internal/ir"
	"stylusguard/internal/model"
)

// SecurityDetectors returns the security rule set in fixed order.
func SecurityDetectors() []Detector {
	return []Detector{
		&reentrancyDetector{},
		&accessControlDetector{},
		&uncheckedArithmeticDetector{},
		&trustBoundaryDetector{},
		&unsafeCodeDetector{},
	}
}

// reentrancyDetector flags state written after an external call. With no
// access check before the call the callee can re-enter and observe stale
// state, the classic drain pattern.
type reentrancyDetector struct{}

func (d *reentrancyDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-SEC-REENTRANCY",
		Title:    "State written after external call",
		Category: model.CategorySecurity,
		Severity: model.SeverityCritical,
	}
}

func (d *reentrancyDetector) Inspect(_ context.Context, contract *ir.Contract, _ *Context) []model.Finding {
	var out []model.Finding
	for _, fn := range contract.Functions {
		callIdx := -1
		for i, op := range fn.Ops {
			if op.Kind == ir.OpExternalCall && callIdx == -1 {
				callIdx = i
				continue
			}
			if callIdx == -1 || op.Kind != ir.OpStorageWrite {
				continue
			}
			call := fn.Ops[callIdx]
			severity := model.SeverityCritical
			if fn.GuardBefore(callIdx) {
				// the caller is at least authenticated, re-entry is
				// restricted to authorized parties
				severity = model.SeverityHigh
			}
			out = append(out, finding(d.Meta(), severity, call.Pos, fn.Name,
				fmt.Sprintf("%s writes %q after the external call to %s; a re-entering callee sees pre-update state",
					fn.Name, op.Target, call.Target),
				"Update storage before making the external call, or add a reentrancy guard"))
			break
		}
	}
	return out
}

// accessControlDetector flags externally callable functions that mutate
// storage without any caller check.
type accessControlDetector struct{}

func (d *accessControlDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-SEC-ACCESS",
		Title:    "State-changing entry point without access control",
		Category: model.CategorySecurity,
		Severity: model.SeverityHigh,
	}
}

func (d *accessControlDetector) Inspect(_ context.Context, contract *ir.Contract, _ *Context) []model.Finding {
	var out []model.Finding
	for _, fn := range contract.EntryPoints() {
		if fn.HasGuard() || len(fn.OpsOfKind(ir.OpStorageWrite)) == 0 {
			continue
		}
		// payable deposits legitimately accept state changes from anyone
		if fn.Mutability == ir.MutabilityPayable {
			continue
		}
		out = append(out, finding(d.Meta(), model.SeverityHigh, fn.Pos, fn.Name,
			fmt.Sprintf("%s is externally callable and writes storage but never checks the caller", fn.Name),
			"Verify msg::sender against an owner or role before mutating state"))
	}
	return out
}

// uncheckedArithmeticDetector flags plain arithmetic feeding storage
// writes. Stylus integer types wrap silently in release builds.
type uncheckedArithmeticDetector struct{}

func (d *uncheckedArithmeticDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-SEC-OVERFLOW",
		Title:    "Unchecked arithmetic on persisted values",
		Category: model.CategorySecurity,
		Severity: model.SeverityHigh,
	}
}

func (d *uncheckedArithmeticDetector) Inspect(_ context.Context, contract *ir.Contract, _ *Context) []model.Finding {
	var out []model.Finding
	for _, fn := range contract.Functions {
		if len(fn.OpsOfKind(ir.OpStorageWrite)) == 0 {
			continue
		}
		unchecked := 0
		var first ir.Operation
		for _, op := range fn.OpsOfKind(ir.OpArithmetic) {
			if !op.Checked {
				if unchecked == 0 {
					first = op
				}
				unchecked++
			}
		}
		if unchecked == 0 {
			continue
		}
		out = append(out, finding(d.Meta(), model.SeverityHigh, first.Pos, fn.Name,
			fmt.Sprintf("%s performs %d unchecked arithmetic operation(s) on values it persists", fn.Name, unchecked),
			"Use checked_add/checked_sub (or saturating variants) and handle the overflow case"))
	}
	return out
}

// trustBoundaryDetector flags external calls whose destination or payload
// comes straight from a caller-supplied parameter with no prior check.
type trustBoundaryDetector struct{}

func (d *trustBoundaryDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-SEC-TRUST",
		Title:    "External call driven by unvalidated input",
		Category: model.CategorySecurity,
		Severity: model.SeverityMedium,
	}
}

func (d *trustBoundaryDetector) Inspect(_ context.Context, contract *ir.Contract, _ *Context) []model.Finding {
	var out []model.Finding
	for _, fn := range contract.Functions {
		for i, op := range fn.Ops {
			if op.Kind != ir.OpExternalCall || !op.FromParam {
				continue
			}
			if fn.GuardBefore(i) {
				continue
			}
			out = append(out, finding(d.Meta(), model.SeverityMedium, op.Pos, fn.Name,
				fmt.Sprintf("%s forwards caller input into the external call %s without validating it first", fn.Name, op.Target),
				"Validate or allowlist the destination before calling across the trust boundary"))
		}
	}
	return out
}

// unsafeCodeDetector flags unsafe blocks and raw pointer types. WASM
// sandboxing does not make memory corruption inside the module harmless.
type unsafeCodeDetector struct{}

func (d *unsafeCodeDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-SEC-UNSAFE",
		Title:    "Unsafe code in contract logic",
		Category: model.CategorySecurity,
		Severity: model.SeverityCritical,
	}
}

func (d *unsafeCodeDetector) Inspect(_ context.Context, contract *ir.Contract, _ *Context) []model.Finding {
	var out []model.Finding
	for _, fn := range contract.Functions {
		if fn.UnsafeBlocks == 0 && fn.RawPointers == 0 {
			continue
		}
		severity := model.SeverityHigh
		if fn.RawPointers > 0 {
			severity = model.SeverityCritical
		}
		out = append(out, finding(d.Meta(), severity, fn.Pos, fn.Name,
			fmt.Sprintf("%s contains %d unsafe block(s) and %d raw pointer type(s)", fn.Name, fn.UnsafeBlocks, fn.RawPointers),
			"Replace unsafe constructs with safe stylus_sdk abstractions"))
	}
	return out
}
