package gas

// Default environmental coefficients per gas unit and the fallback cost
// for operations the table cannot price.
const (
	DefaultCarbonPerUnit = 0.0000002 // kg CO2 per gas unit
	DefaultEnergyPerUnit = 0.000001  // kWh per gas unit
	DefaultFallbackCost  = 200
)

// Table holds the base unit cost per operation kind. Values are fixed for
// one analysis run; changing a table mid-run would break the additivity
// the estimates promise.
type Table struct {
	Arithmetic      uint64
	StorageWrite    uint64
	StorageReadCold uint64
	StorageReadWarm uint64
	ExternalCall    uint64
	MemoryAlloc     uint64
	Branch          uint64
	Guard           uint64
	EventEmit       uint64
	Loop            uint64
	BaseTransaction uint64 // per-transaction overhead, not part of body sums
}

// DefaultTable prices operations with EVM-aligned unit costs. Storage
// writes are flat so the cost of a function with only writes is exactly
// writes times StorageWrite; reads split cold and warm per slot.
func DefaultTable() Table {
	return Table{
		Arithmetic:      3,
		StorageWrite:    5000,
		StorageReadCold: 2100,
		StorageReadWarm: 100,
		ExternalCall:    2600,
		MemoryAlloc:     24,
		Branch:          10,
		Guard:           10,
		EventEmit:       375,
		Loop:            8,
		BaseTransaction: 21000,
	}
}

// CacheSavings is the units saved by caching one repeated storage read in
// a local instead of re-reading the slot.
func (t Table) CacheSavings() uint64 {
	return t.StorageReadWarm
}
