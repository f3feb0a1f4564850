package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stylusguard/internal/errors"
	"stylusguard/internal/ir"
)

const stakingSource = `//! Simple staking contract.

sol_storage! {
    #[entrypoint]
    pub struct Staking {
        address owner;
        uint256 total_staked;
        mapping(address => uint256) stakes;
    }
}

#[external]
impl Staking {
    /// Stake the sent value for the caller.
    pub fn stake(&mut self) {
        let amount = msg::value();
        let staker = msg::sender();
        let current = self.stakes.get(&staker);
        self.stakes.insert(&staker, current + amount);
        self.total_staked += amount;
    }

    pub fn withdraw(&mut self, amount: U256) {
        let staker = msg::sender();
        let staked = self.stakes.get(&staker);
        require!(staked >= amount, "insufficient stake");
        msg::send(staker, amount);
        self.stakes.insert(&staker, staked - amount);
        self.total_staked -= amount;
    }

    pub fn staked_of(&self, who: Address) -> U256 {
        self.stakes.get(&who)
    }
}
`

func TestBuildStakingContract(t *testing.T) {
	result, err := Build("staking.rs", stakingSource, DialectStylus)
	require.NoError(t, err, "Well-formed source should build")
	require.NotNil(t, result.Contract)

	contract := result.Contract
	assert.Equal(t, "Staking", contract.Name, "Entrypoint struct should name the contract")
	assert.Empty(t, result.Diagnostics, "Nothing should need recovery")

	require.Len(t, contract.Storage, 3, "Should declare three storage slots")
	assert.Equal(t, "owner", contract.Storage[0].Name)
	assert.Equal(t, ir.TypeClassValue, contract.Storage[0].TypeClass)
	assert.Equal(t, ir.TypeClassMapping, contract.SlotNamed("stakes").TypeClass)

	require.Len(t, contract.Functions, 3, "Should build all three functions")
	stake := contract.FunctionNamed("stake")
	require.NotNil(t, stake)
	assert.Equal(t, ir.VisibilityExternal, stake.Visibility, "pub fn inside #[external] impl is external")
	assert.Equal(t, ir.MutabilityPayable, stake.Mutability, "msg::value makes the function payable")
	assert.True(t, stake.Documented, "Doc comment should mark the function documented")
}

func TestBuildRecognizesStorageOperations(t *testing.T) {
	result, err := Build("staking.rs", stakingSource, DialectAuto)
	require.NoError(t, err)

	stake := result.Contract.FunctionNamed("stake")
	require.NotNil(t, stake)
	writes := stake.OpsOfKind(ir.OpStorageWrite)
	require.Len(t, writes, 2, "insert plus compound assignment are both writes")
	assert.Equal(t, "stakes", writes[0].Target)
	assert.Equal(t, "total_staked", writes[1].Target)

	reads := stake.OpsOfKind(ir.OpStorageRead)
	require.NotEmpty(t, reads)
	assert.Equal(t, "stakes", reads[0].Target, "get() reads the mapping")

	slot := result.Contract.SlotNamed("total_staked")
	require.NotNil(t, slot)
	assert.Contains(t, slot.WrittenBy, "stake")
	assert.Contains(t, slot.WrittenBy, "withdraw")
}

func TestBuildCallBeforeWriteOrdering(t *testing.T) {
	result, err := Build("staking.rs", stakingSource, DialectStylus)
	require.NoError(t, err)

	withdraw := result.Contract.FunctionNamed("withdraw")
	require.NotNil(t, withdraw)

	callIdx, writeAfterCall := -1, -1
	for i, op := range withdraw.Ops {
		if op.Kind == ir.OpExternalCall && callIdx == -1 {
			callIdx = i
		}
		if op.Kind == ir.OpStorageWrite && callIdx != -1 && writeAfterCall == -1 {
			writeAfterCall = i
		}
	}
	require.NotEqual(t, -1, callIdx, "withdraw makes an external call")
	require.NotEqual(t, -1, writeAfterCall, "state is written after the call")
	assert.Greater(t, writeAfterCall, callIdx, "operation order must follow source order")

	require.Len(t, result.Contract.ExternalCalls, 1)
	assert.Equal(t, "withdraw", result.Contract.ExternalCalls[0].Caller)
	assert.Equal(t, "msg::send", result.Contract.ExternalCalls[0].Target)
}

func TestBuildRequireOverCallerIsGuard(t *testing.T) {
	source := `impl Vault {
    pub fn drain(&mut self) {
        require!(msg::sender() == self.owner.get(), "not owner");
        self.balance = 0;
    }
    pub fn poke(&mut self, n: U256) {
        require!(n > 0, "zero");
        self.counter += 1;
    }
}`
	result, err := Build("vault.rs", source, DialectStylus)
	require.NoError(t, err)

	drain := result.Contract.FunctionNamed("drain")
	require.NotNil(t, drain)
	assert.True(t, drain.HasGuard(), "require over msg::sender is an access check")

	poke := result.Contract.FunctionNamed("poke")
	require.NotNil(t, poke)
	assert.False(t, poke.HasGuard(), "require over an argument is a plain branch")
	assert.NotEmpty(t, poke.OpsOfKind(ir.OpBranch))
}

func TestBuildViewAndPureMutability(t *testing.T) {
	source := `impl Math {
    pub fn total(&self) -> U256 {
        self.total_staked
    }
    pub fn double(x: U256) -> U256 {
        x * 2
    }
}`
	result, err := Build("math.rs", source, DialectStylus)
	require.NoError(t, err)

	total := result.Contract.FunctionNamed("total")
	require.NotNil(t, total)
	assert.Equal(t, ir.MutabilityView, total.Mutability, "read-only receiver with reads is a view")

	double := result.Contract.FunctionNamed("double")
	require.NotNil(t, double)
	assert.Equal(t, ir.MutabilityPure, double.Mutability, "no receiver, no storage access is pure")
	assert.NotEmpty(t, double.OpsOfKind(ir.OpArithmetic), "x * 2 is arithmetic")
}

func TestBuildRecoversAroundMalformedFunction(t *testing.T) {
	source := `impl Broken {
    pub fn (&mut self) {
        self.a = 1;
    }

    pub fn fine(&mut self) {
        self.b = 2;
    }
}`
	result, err := Build("broken.rs", source, DialectStylus)
	require.NoError(t, err, "One malformed region must not fail the build")

	require.NotEmpty(t, result.Diagnostics, "The skipped region should surface as a diagnostic")
	assert.Contains(t, result.Diagnostics[0].Message, "without a name")

	fine := result.Contract.FunctionNamed("fine")
	require.NotNil(t, fine, "The well-formed sibling should still be built")
	assert.NotEmpty(t, fine.OpsOfKind(ir.OpStorageWrite))
}

func TestBuildNoStructureFails(t *testing.T) {
	_, err := Build("junk.rs", `use stylus_sdk::prelude::*;`, DialectStylus)
	require.Error(t, err, "Source with no functions and no storage cannot be analyzed")
	var parseErr *apperrors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestBuildUnsupportedDialect(t *testing.T) {
	_, err := Build("x.sol", `contract C {}`, Dialect("solidity"))
	require.Error(t, err)
	var parseErr *apperrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Reason, "unsupported dialect")
}

func TestBuildRustStorageStruct(t *testing.T) {
	source := `#[storage]
#[entrypoint]
pub struct Counter {
    count: StorageU256,
    entries: StorageVec<StorageU256>,
    owners: StorageMap<Address, StorageBool>,
}

impl Counter {
    pub fn bump(&mut self) {
        let n = self.count.get();
        self.count.set(n + 1);
    }
}`
	result, err := Build("counter.rs", source, DialectStylus)
	require.NoError(t, err)

	contract := result.Contract
	assert.Equal(t, "Counter", contract.Name)
	require.Len(t, contract.Storage, 3)
	assert.Equal(t, ir.TypeClassValue, contract.SlotNamed("count").TypeClass)
	assert.Equal(t, ir.TypeClassArray, contract.SlotNamed("entries").TypeClass)
	assert.Equal(t, ir.TypeClassMapping, contract.SlotNamed("owners").TypeClass)

	bump := contract.FunctionNamed("bump")
	require.NotNil(t, bump)
	assert.Len(t, bump.OpsOfKind(ir.OpStorageWrite), 1)
	assert.Len(t, bump.OpsOfKind(ir.OpStorageRead), 1)
}

func TestBuildImplicitSlotForUndeclaredField(t *testing.T) {
	source := `impl Ledger {
    pub fn touch(&mut self) {
        self.last_seen = 1;
    }
}`
	result, err := Build("ledger.rs", source, DialectStylus)
	require.NoError(t, err)

	slot := result.Contract.SlotNamed("last_seen")
	require.NotNil(t, slot, "Accessed but undeclared fields become implicit value slots")
	assert.Equal(t, ir.TypeClassValue, slot.TypeClass)
	assert.Contains(t, slot.WrittenBy, "touch")
}
