package ir

// The IR models a single Stylus contract as the flat structures detectors
// pattern-match over: functions with ordered operation sequences, storage
// slots with access summaries, and external call sites. It is built once
// per analysis run and never mutated afterwards, which is what makes the
// concurrent detector fan-out safe.

import "fmt"

// Position is a location in contract source. Line and Column are 1-based.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Visibility of a function from outside the contract.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityExternal Visibility = "external"
	VisibilityInternal Visibility = "internal"
	VisibilityPrivate  Visibility = "private"
)

// Entry reports whether a function with this visibility is callable from
// outside the contract.
func (v Visibility) Entry() bool {
	return v == VisibilityPublic || v == VisibilityExternal
}

// Mutability describes what a function may do to chain state.
type Mutability string

const (
	MutabilityView       Mutability = "view"
	MutabilityPure       Mutability = "pure"
	MutabilityPayable    Mutability = "payable"
	MutabilityNonPayable Mutability = "nonpayable"
)

// OpKind is the closed set of operation variants. Detectors match
// exhaustively over these instead of inspecting open-ended node types.
type OpKind string

const (
	OpArithmetic   OpKind = "arithmetic"
	OpStorageRead  OpKind = "storage_read"
	OpStorageWrite OpKind = "storage_write"
	OpExternalCall OpKind = "external_call"
	OpMemoryAlloc  OpKind = "memory_alloc"
	OpLoop         OpKind = "loop"
	OpBranch       OpKind = "branch"
	OpGuard        OpKind = "guard"
	OpEventEmit    OpKind = "event_emit"
)

// Operation is one recognized action inside a function body, in source
// order. Target names the storage slot or call target where that applies.
type Operation struct {
	Kind   OpKind
	Pos    Position
	Target string // storage slot, callee path, or event name
	Detail string // operator text, allocation form, loop bound description

	// Variant-specific flags
	Checked   bool // arithmetic: checked_*/saturating_*/overflowing_* form
	Bounded   bool // loop: bound is a literal or parameter, not storage size
	Handled   bool // external call / arithmetic: result is checked (?, match, if let)
	LoopDepth int  // nesting depth at the operation, 0 = top level of the body
	FromParam bool // external call: target came from a caller-supplied parameter
}

// TypeClass of a storage slot's declared type.
type TypeClass string

const (
	TypeClassValue   TypeClass = "value"
	TypeClassMapping TypeClass = "mapping"
	TypeClassArray   TypeClass = "array"
)

// StorageSlot is one declared piece of persistent state plus a summary of
// which functions touch it.
type StorageSlot struct {
	Name      string
	TypeClass TypeClass
	Pos       Position
	ReadBy    []string
	WrittenBy []string
}

// ReadOnly reports whether no function ever writes the slot.
func (s *StorageSlot) ReadOnly() bool { return len(s.WrittenBy) == 0 }

// Function is one contract function with its ordered operation sequence.
type Function struct {
	Name       string
	Visibility Visibility
	Mutability Mutability
	Pos        Position
	EndLine    int
	Documented bool
	ParamCount int
	Ops        []Operation

	// Complexity proxy inputs, counted during the build
	Branches int
	Loops    int

	// Memory-safety signals outside the operation variants: unsafe blocks
	// and raw pointer types seen in the body.
	UnsafeBlocks int
	RawPointers  int
}

// OpsOfKind returns the operations of one kind, preserving source order.
func (f *Function) OpsOfKind(kind OpKind) []Operation {
	var out []Operation
	for _, op := range f.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// HasGuard reports whether the body contains any access-control guard.
func (f *Function) HasGuard() bool {
	for _, op := range f.Ops {
		if op.Kind == OpGuard {
			return true
		}
	}
	return false
}

// GuardBefore reports whether a guard appears before the given operation
// index in the body sequence.
func (f *Function) GuardBefore(idx int) bool {
	for i := 0; i < idx && i < len(f.Ops); i++ {
		if f.Ops[i].Kind == OpGuard {
			return true
		}
	}
	return false
}

// Complexity is the branch/loop count proxy for cyclomatic complexity.
func (f *Function) Complexity() int { return 1 + f.Branches + f.Loops }

// ExternalCall is a call site crossing the contract's trust boundary.
type ExternalCall struct {
	Caller    string // calling function
	Target    string // callee path as written in source
	Pos       Position
	Handled   bool // result is checked at the call site
	FromParam bool // destination or payload comes from a caller parameter
}

// Contract is the root IR node, owned exclusively by the analysis run that
// built it.
type Contract struct {
	Name          string
	File          string
	Functions     []*Function
	Storage       []*StorageSlot
	ExternalCalls []*ExternalCall
}

// FunctionNamed returns the function with the given name, or nil.
func (c *Contract) FunctionNamed(name string) *Function {
	for _, fn := range c.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// SlotNamed returns the storage slot with the given name, or nil.
func (c *Contract) SlotNamed(name string) *StorageSlot {
	for _, slot := range c.Storage {
		if slot.Name == name {
			return slot
		}
	}
	return nil
}

// EntryPoints returns the functions callable from outside the contract.
func (c *Contract) EntryPoints() []*Function {
	var out []*Function
	for _, fn := range c.Functions {
		if fn.Visibility.Entry() {
			out = append(out, fn)
		}
	}
	return out
}
