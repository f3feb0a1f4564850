package gas

import (
	"stylusguard/internal/ir"
	"stylusguard/internal/model"
)

// Unpriced records an operation the table could not price. The estimate
// charges the fallback cost and keeps going; the pipeline downgrades each
// of these to a low-severity finding instead of failing the estimate.
type Unpriced struct {
	Function string
	Pos      ir.Position
	Kind     ir.OpKind
}

// Estimator prices contract functions from a fixed cost table. Estimates
// are static minimums: callee cost of external calls and real iteration
// counts are unknowable without execution.
type Estimator struct {
	table    Table
	fallback uint64
	carbon   float64 // kg CO2 per unit
	energy   float64 // kWh per unit
}

// New builds an estimator. Zero coefficients are respected; callers who
// want defaults pass the Default* constants.
func New(table Table, fallback uint64, carbonPerUnit, energyPerUnit float64) *Estimator {
	return &Estimator{table: table, fallback: fallback, carbon: carbonPerUnit, energy: energyPerUnit}
}

// Default returns an estimator with the default table and coefficients.
func Default() *Estimator {
	return New(DefaultTable(), DefaultFallbackCost, DefaultCarbonPerUnit, DefaultEnergyPerUnit)
}

// Table exposes the run's cost table so detectors can compute savings
// against the same prices the estimate used.
func (e *Estimator) Table() Table { return e.table }

// EstimateContract prices every function in declaration order and sums
// the totals. The same contract always yields the same summary.
func (e *Estimator) EstimateContract(contract *ir.Contract) (model.CostSummary, []Unpriced) {
	summary := model.CostSummary{}
	var unpriced []Unpriced
	for _, fn := range contract.Functions {
		cost, missing := e.EstimateFunction(fn)
		summary.Functions = append(summary.Functions, cost)
		summary.TotalUnits += cost.Units
		unpriced = append(unpriced, missing...)
	}
	summary.CO2Kg = float64(summary.TotalUnits) * e.carbon
	summary.EnergyKWh = float64(summary.TotalUnits) * e.energy
	return summary, unpriced
}

// EstimateFunction prices one function body. Storage reads are cold on
// the first touch of a slot and warm afterwards; every other kind has one
// flat price. Operations outside the table cost the fallback and are
// reported as unpriced.
func (e *Estimator) EstimateFunction(fn *ir.Function) (model.FunctionCost, []Unpriced) {
	cost := model.FunctionCost{
		Function: fn.Name,
		ByKind:   make(map[string]uint64),
	}
	var unpriced []Unpriced
	warmSlots := make(map[string]bool)

	for _, op := range fn.Ops {
		units, ok := e.price(op, warmSlots)
		if !ok {
			units = e.fallback
			cost.Unestimated++
			unpriced = append(unpriced, Unpriced{Function: fn.Name, Pos: op.Pos, Kind: op.Kind})
		}
		cost.Units += units
		cost.ByKind[string(op.Kind)] += units
	}

	cost.CO2Kg = float64(cost.Units) * e.carbon
	cost.EnergyKWh = float64(cost.Units) * e.energy
	return cost, unpriced
}

// EstimateTransaction is the estimated cost of invoking fn as an entry
// point: per-transaction overhead plus the body estimate.
func (e *Estimator) EstimateTransaction(fn *ir.Function) uint64 {
	cost, _ := e.EstimateFunction(fn)
	return e.table.BaseTransaction + cost.Units
}

func (e *Estimator) price(op ir.Operation, warmSlots map[string]bool) (uint64, bool) {
	switch op.Kind {
	case ir.OpArithmetic:
		return e.table.Arithmetic, true
	case ir.OpStorageWrite:
		return e.table.StorageWrite, true
	case ir.OpStorageRead:
		if warmSlots[op.Target] {
			return e.table.StorageReadWarm, true
		}
		warmSlots[op.Target] = true
		return e.table.StorageReadCold, true
	case ir.OpExternalCall:
		return e.table.ExternalCall, true
	case ir.OpMemoryAlloc:
		return e.table.MemoryAlloc, true
	case ir.OpBranch:
		return e.table.Branch, true
	case ir.OpGuard:
		return e.table.Guard, true
	case ir.OpEventEmit:
		return e.table.EventEmit, true
	case ir.OpLoop:
		return e.table.Loop, true
	default:
		return 0, false
	}
}
