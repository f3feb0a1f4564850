package detect

import (
	"context"
	"fmt"

	"stylusguard/internal/ir"
	"stylusguard/internal/model"
)

// GasDetectors returns the performance rule set in fixed order.
func GasDetectors() []Detector {
	return []Detector{
		&costThresholdDetector{},
		&storageCacheDetector{},
		&callBatchDetector{},
		&unboundedLoopDetector{},
		&allocInLoopDetector{},
		&unpricedOpDetector{},
	}
}

// costThresholdDetector flags functions whose static estimate exceeds the
// configured budget.
type costThresholdDetector struct{}

func (d *costThresholdDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-GAS-COST",
		Title:    "Function exceeds gas budget",
		Category: model.CategoryPerformance,
		Severity: model.SeverityMedium,
	}
}

func (d *costThresholdDetector) Inspect(_ context.Context, contract *ir.Contract, run *Context) []model.Finding {
	if run == nil || run.GasCostThreshold == 0 {
		return nil
	}
	var out []model.Finding
	for _, cost := range run.Cost.Functions {
		if cost.Units <= run.GasCostThreshold {
			continue
		}
		fn := contract.FunctionNamed(cost.Function)
		if fn == nil {
			continue
		}
		out = append(out, finding(d.Meta(), model.SeverityMedium, fn.Pos, fn.Name,
			fmt.Sprintf("%s is estimated at %d gas units, over the %d budget", fn.Name, cost.Units, run.GasCostThreshold),
			"Split the function or reduce its storage traffic"))
	}
	return out
}

// storageCacheDetector flags slots read repeatedly inside one function.
// Caching the value in a local saves every warm re-read.
type storageCacheDetector struct{}

func (d *storageCacheDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-GAS-CACHE",
		Title:    "Repeated storage reads",
		Category: model.CategoryPerformance,
		Severity: model.SeverityLow,
	}
}

func (d *storageCacheDetector) Inspect(_ context.Context, contract *ir.Contract, run *Context) []model.Finding {
	var out []model.Finding
	for _, fn := range contract.Functions {
		counts := make(map[string]int)
		firstPos := make(map[string]ir.Position)
		var order []string
		for _, op := range fn.OpsOfKind(ir.OpStorageRead) {
			if op.Target == "" {
				continue
			}
			if counts[op.Target] == 0 {
				firstPos[op.Target] = op.Pos
				order = append(order, op.Target)
			}
			counts[op.Target]++
		}
		for _, slot := range order {
			n := counts[slot]
			if n < 2 {
				continue
			}
			f := finding(d.Meta(), model.SeverityLow, firstPos[slot], fn.Name,
				fmt.Sprintf("%s reads %q %d times; cache it in a local", fn.Name, slot, n),
				"Read the slot once and reuse the local value")
			if run != nil {
				f.GasSaved = uint64(n-1) * run.Table.CacheSavings()
			}
			out = append(out, f)
		}
	}
	return out
}

// callBatchDetector flags repeated calls to the same external target
// within one function. The duplicates are batching candidates.
type callBatchDetector struct{}

func (d *callBatchDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-GAS-CALLS",
		Title:    "Redundant external calls",
		Category: model.CategoryPerformance,
		Severity: model.SeverityLow,
	}
}

func (d *callBatchDetector) Inspect(_ context.Context, contract *ir.Contract, run *Context) []model.Finding {
	var out []model.Finding
	for _, fn := range contract.Functions {
		counts := make(map[string]int)
		firstPos := make(map[string]ir.Position)
		var order []string
		for _, op := range fn.OpsOfKind(ir.OpExternalCall) {
			if op.Target == "" {
				continue
			}
			if counts[op.Target] == 0 {
				firstPos[op.Target] = op.Pos
				order = append(order, op.Target)
			}
			counts[op.Target]++
		}
		for _, target := range order {
			n := counts[target]
			if n < 2 {
				continue
			}
			f := finding(d.Meta(), model.SeverityLow, firstPos[target], fn.Name,
				fmt.Sprintf("%s calls %s %d times; batch them into one call", fn.Name, target, n),
				"Combine the repeated calls or use a multicall pattern")
			if run != nil {
				f.GasSaved = uint64(n-1) * run.Table.ExternalCall
			}
			out = append(out, f)
		}
	}
	return out
}

// unboundedLoopDetector flags loops whose trip count depends on storage
// growth or never terminates statically. On chain those loops become a
// denial of service once the collection grows past the gas limit.
type unboundedLoopDetector struct{}

func (d *unboundedLoopDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-GAS-LOOP",
		Title:    "Unbounded loop",
		Category: model.CategoryPerformance,
		Severity: model.SeverityMedium,
	}
}

func (d *unboundedLoopDetector) Inspect(_ context.Context, contract *ir.Contract, _ *Context) []model.Finding {
	var out []model.Finding
	for _, fn := range contract.Functions {
		for _, op := range fn.OpsOfKind(ir.OpLoop) {
			if op.Bounded {
				continue
			}
			what := "has no static bound"
			if op.Target != "" {
				what = fmt.Sprintf("iterates storage collection %q", op.Target)
			}
			out = append(out, finding(d.Meta(), model.SeverityMedium, op.Pos, fn.Name,
				fmt.Sprintf("loop in %s %s and can outgrow the gas limit", fn.Name, what),
				"Bound the iteration count or process the collection in pages"))
		}
	}
	return out
}

// allocInLoopDetector flags heap allocation inside loop bodies.
type allocInLoopDetector struct{}

func (d *allocInLoopDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-GAS-ALLOC",
		Title:    "Allocation inside a loop",
		Category: model.CategoryPerformance,
		Severity: model.SeverityLow,
	}
}

func (d *allocInLoopDetector) Inspect(_ context.Context, contract *ir.Contract, run *Context) []model.Finding {
	var out []model.Finding
	for _, fn := range contract.Functions {
		for _, op := range fn.OpsOfKind(ir.OpMemoryAlloc) {
			if op.LoopDepth == 0 {
				continue
			}
			f := finding(d.Meta(), model.SeverityLow, op.Pos, fn.Name,
				fmt.Sprintf("%s allocates (%s) on every loop iteration", fn.Name, op.Detail),
				"Hoist the allocation out of the loop or preallocate with capacity")
			if run != nil {
				f.GasSaved = run.Table.MemoryAlloc
			}
			out = append(out, f)
		}
	}
	return out
}

// unpricedOpDetector downgrades estimation gaps to low-severity findings
// so a partial estimate never fails the analysis.
type unpricedOpDetector struct{}

func (d *unpricedOpDetector) Meta() model.RuleMeta {
	return model.RuleMeta{
		ID:       "STY-GAS-UNESTIMATED",
		Title:    "Operation priced at fallback cost",
		Category: model.CategoryPerformance,
		Severity: model.SeverityLow,
	}
}

func (d *unpricedOpDetector) Inspect(_ context.Context, _ *ir.Contract, run *Context) []model.Finding {
	if run == nil {
		return nil
	}
	var out []model.Finding
	for _, missing := range run.Unpriced {
		out = append(out, finding(d.Meta(), model.SeverityLow, missing.Pos, missing.Function,
			fmt.Sprintf("no price for %s operation in %s, fallback cost charged", missing.Kind, missing.Function),
			"Treat this function's estimate as a lower bound"))
	}
	return out
}
