package gas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylusguard/internal/ir"
)

func writeOp(target string) ir.Operation {
	return ir.Operation{Kind: ir.OpStorageWrite, Target: target}
}

func readOp(target string) ir.Operation {
	return ir.Operation{Kind: ir.OpStorageRead, Target: target}
}

func TestStorageWritesPriceAdditively(t *testing.T) {
	table := DefaultTable()
	est := Default()

	for _, n := range []int{1, 3, 10} {
		fn := &ir.Function{Name: "writer"}
		for i := 0; i < n; i++ {
			fn.Ops = append(fn.Ops, writeOp("slot"))
		}
		cost, unpriced := est.EstimateFunction(fn)
		assert.Empty(t, unpriced)
		assert.Equal(t, uint64(n)*table.StorageWrite, cost.Units,
			"N storage writes must cost exactly N times the base write cost")
	}
}

func TestStorageReadsColdThenWarm(t *testing.T) {
	table := DefaultTable()
	est := Default()

	fn := &ir.Function{
		Name: "reader",
		Ops:  []ir.Operation{readOp("a"), readOp("a"), readOp("a"), readOp("b")},
	}
	cost, _ := est.EstimateFunction(fn)
	want := 2*table.StorageReadCold + 2*table.StorageReadWarm
	assert.Equal(t, want, cost.Units, "First read of each slot is cold, repeats are warm")
}

func TestWarmStateResetsPerFunction(t *testing.T) {
	table := DefaultTable()
	est := Default()

	contract := &ir.Contract{Functions: []*ir.Function{
		{Name: "f1", Ops: []ir.Operation{readOp("a")}},
		{Name: "f2", Ops: []ir.Operation{readOp("a")}},
	}}
	summary, _ := est.EstimateContract(contract)
	assert.Equal(t, 2*table.StorageReadCold, summary.TotalUnits,
		"Warm slot tracking must not leak across functions")
}

func TestUnknownOperationFallsBack(t *testing.T) {
	est := New(DefaultTable(), 123, DefaultCarbonPerUnit, DefaultEnergyPerUnit)

	fn := &ir.Function{Name: "odd", Ops: []ir.Operation{{Kind: ir.OpKind("mystery")}}}
	cost, unpriced := est.EstimateFunction(fn)
	assert.Equal(t, uint64(123), cost.Units, "Unpriced operation charges the fallback cost")
	assert.Equal(t, 1, cost.Unestimated)
	require.Len(t, unpriced, 1)
	assert.Equal(t, "odd", unpriced[0].Function)
}

func TestEnvironmentalCoefficients(t *testing.T) {
	est := New(DefaultTable(), DefaultFallbackCost, 0.5, 0.25)

	fn := &ir.Function{Name: "w", Ops: []ir.Operation{writeOp("s")}}
	cost, _ := est.EstimateFunction(fn)
	assert.InDelta(t, float64(cost.Units)*0.5, cost.CO2Kg, 1e-9)
	assert.InDelta(t, float64(cost.Units)*0.25, cost.EnergyKWh, 1e-9)
}

func TestContractSummaryIsDeterministic(t *testing.T) {
	est := Default()
	contract := &ir.Contract{Functions: []*ir.Function{
		{Name: "a", Ops: []ir.Operation{writeOp("x"), readOp("x")}},
		{Name: "b", Ops: []ir.Operation{{Kind: ir.OpExternalCall}, {Kind: ir.OpEventEmit}}},
	}}

	first, _ := est.EstimateContract(contract)
	second, _ := est.EstimateContract(contract)
	assert.Equal(t, first, second, "Same model must always price the same")
	require.Len(t, first.Functions, 2)
	assert.Equal(t, first.Functions[0].Units+first.Functions[1].Units, first.TotalUnits)
}

func TestTransactionCostIncludesOverhead(t *testing.T) {
	table := DefaultTable()
	est := Default()

	fn := &ir.Function{Name: "entry", Ops: []ir.Operation{writeOp("s")}}
	total := est.EstimateTransaction(fn)
	assert.Equal(t, table.BaseTransaction+table.StorageWrite, total)
}
