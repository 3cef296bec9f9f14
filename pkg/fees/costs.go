// Package fees derives deterministic compute-unit costs and lamport fees for
// sanitized transactions. All arithmetic saturates; no input magnitude may
// cause a panic or silent wrap, since the inputs are attacker-controlled.
package fees

import (
	"math"

	"github.com/x1-labs/tachyon/pkg/budget"
	"github.com/x1-labs/tachyon/pkg/features"
	"github.com/x1-labs/tachyon/pkg/types"
)

// Cost-model constants, in compute units unless noted.
const (
	// ComputeUnitToMicrosRatio converts microseconds of work to compute units.
	ComputeUnitToMicrosRatio uint64 = 30

	// SignatureCost is the cost of verifying one transaction signature.
	SignatureCost uint64 = ComputeUnitToMicrosRatio * 24

	// Secp256k1VerifyCost is the cost of one secp256k1 precompile verification.
	Secp256k1VerifyCost uint64 = ComputeUnitToMicrosRatio * 223

	// Ed25519VerifyCost is the cost of one ed25519 precompile verification.
	Ed25519VerifyCost uint64 = ComputeUnitToMicrosRatio * 76

	// WriteLockUnits is the cost of taking one account write lock.
	WriteLockUnits uint64 = ComputeUnitToMicrosRatio * 10

	// InstructionDataBytesCost divides total instruction data length to get
	// its compute cost (140 bytes per microsecond).
	InstructionDataBytesCost uint64 = 140 / ComputeUnitToMicrosRatio

	// DefaultHeapCost is the per-32KiB-block cost of loaded account data.
	DefaultHeapCost uint64 = 8

	// AccountDataCostPageSize is the block size loaded account data is
	// priced in.
	AccountDataCostPageSize uint64 = 32 * 1024
)

// builtinCosts is the static per-instruction cost table for protocol-native
// programs. Programs absent from the table are priced as BPF-class work.
// Never mutated after initialization.
var builtinCosts = map[types.Pubkey]uint64{
	types.StakeProgramID:                750,
	types.ConfigProgramID:               450,
	types.VoteProgramID:                 2_100,
	types.SystemProgramID:               150,
	types.ComputeBudgetProgramID:        150,
	types.AddressLookupTableProgramID:   750,
	types.BPFLoaderUpgradeableProgramID: 2_370,
	types.BPFLoaderProgramID:            1_140,
	types.BPFLoader2ProgramID:           570,
	types.LoaderV4ProgramID:             2_000,
	// Precompiles run directly in the bank during sanitizing.
	types.Secp256k1ProgramID: 0,
	types.Ed25519ProgramID:   0,
}

// BuiltinInstructionCost returns the fixed cost for a builtin program's
// instruction, or ok=false if the program is not a builtin under the active
// policy.
func BuiltinInstructionCost(programID types.Pubkey, _ *features.Set) (uint64, bool) {
	cost, ok := builtinCosts[programID]
	return cost, ok
}

// UsageCostDetails itemizes the compute-unit cost terms of one transaction.
type UsageCostDetails struct {
	SignatureCost               uint64
	WriteLockCost               uint64
	DataBytesCost               uint64
	BuiltinExecutionCost        uint64
	BPFExecutionCost            uint64
	LoadedAccountsDataSizeCost  uint64
	NumTransactionSignatures    uint64
	NumSecp256k1InstructionSigs uint64
	NumEd25519InstructionSigs   uint64
	ComputeUnitPrice            uint64
}

// ExecutionCost returns the builtin plus BPF execution cost.
func (u *UsageCostDetails) ExecutionCost() uint64 {
	return satAdd(u.BuiltinExecutionCost, u.BPFExecutionCost)
}

// Sum returns every cost term combined, saturating.
func (u *UsageCostDetails) Sum() uint64 {
	total := u.SignatureCost
	total = satAdd(total, u.WriteLockCost)
	total = satAdd(total, u.DataBytesCost)
	total = satAdd(total, u.BuiltinExecutionCost)
	total = satAdd(total, u.BPFExecutionCost)
	return satAdd(total, u.LoadedAccountsDataSizeCost)
}

// DeriveTransactionCost estimates the compute-unit cost of a transaction for
// fee purposes: fixed table costs for builtin instructions, the 200k default
// for each non-builtin instruction capped at 1.4M cumulative, with an
// explicit compute-unit-limit directive overriding the non-builtin estimate
// once non-builtin work is present. Policy versions that price loaded
// account data add the block-rounded memory term.
func DeriveTransactionCost(tx *types.SanitizedVersionedTransaction, fs *features.Set) uint64 {
	instructions := tx.ProgramInstructions()

	var builtinCost, bpfCost uint64
	for _, pix := range instructions {
		if cost, ok := BuiltinInstructionCost(pix.ProgramID, fs); ok {
			builtinCost = satAdd(builtinCost, cost)
		} else {
			bpfCost = minU64(
				satAdd(bpfCost, uint64(budget.DefaultInstructionComputeUnitLimit)),
				uint64(budget.MaxComputeUnitLimit))
		}
	}

	limits, err := budget.ProcessInstructions(instructions, fs)
	if err != nil {
		// A transaction whose budget directives fail processing is never
		// executed, so it carries no execution cost.
		return 0
	}

	// The explicit limit is authoritative once the transaction is known to
	// contain non-builtin work. The directive check is separate because the
	// default limit calculation does not distinguish builtin instructions.
	if bpfCost > 0 && budget.HasComputeUnitLimitDirective(instructions) {
		bpfCost = uint64(limits.ComputeUnitLimit)
	}

	total := satAdd(builtinCost, bpfCost)

	if fs.IsActive(features.IncludeLoadedAccountsDataSizeInFeeCalculation) {
		total = satAdd(total, MemoryUsageCost(uint64(limits.LoadedAccountsDataSizeBytes), DefaultHeapCost))
	}

	return total
}

// DeriveUsageCost itemizes every cost term of the transaction, including the
// terms the fee path does not charge (signatures, write locks, data bytes).
// Consumed by the block cost accounting stage.
func DeriveUsageCost(tx *types.SanitizedVersionedTransaction, fs *features.Set) UsageCostDetails {
	var cost UsageCostDetails

	cost.NumTransactionSignatures = uint64(len(tx.Signatures()))
	instructions := tx.ProgramInstructions()

	var dataBytes uint64
	for _, pix := range instructions {
		switch pix.ProgramID {
		case types.Secp256k1ProgramID:
			cost.NumSecp256k1InstructionSigs = satAdd(cost.NumSecp256k1InstructionSigs, numPrecompileSignatures(pix.Instruction.Data))
		case types.Ed25519ProgramID:
			cost.NumEd25519InstructionSigs = satAdd(cost.NumEd25519InstructionSigs, numPrecompileSignatures(pix.Instruction.Data))
		}

		if builtin, ok := BuiltinInstructionCost(pix.ProgramID, fs); ok {
			cost.BuiltinExecutionCost = satAdd(cost.BuiltinExecutionCost, builtin)
		} else {
			cost.BPFExecutionCost = minU64(
				satAdd(cost.BPFExecutionCost, uint64(budget.DefaultInstructionComputeUnitLimit)),
				uint64(budget.MaxComputeUnitLimit))
		}
		dataBytes = satAdd(dataBytes, uint64(len(pix.Instruction.Data)))
	}

	cost.SignatureCost = satMul(cost.NumTransactionSignatures, SignatureCost)
	cost.SignatureCost = satAdd(cost.SignatureCost, satMul(cost.NumSecp256k1InstructionSigs, Secp256k1VerifyCost))
	cost.SignatureCost = satAdd(cost.SignatureCost, satMul(cost.NumEd25519InstructionSigs, Ed25519VerifyCost))

	if fs.IsActive(features.CostModelRequestedWriteLockCost) {
		cost.WriteLockCost = satMul(WriteLockUnits, tx.NumWriteLocks())
	}

	cost.DataBytesCost = dataBytes / InstructionDataBytesCost

	limits, err := budget.ProcessInstructions(instructions, fs)
	if err != nil {
		cost.BuiltinExecutionCost = 0
		cost.BPFExecutionCost = 0
		return cost
	}

	if cost.BPFExecutionCost > 0 && budget.HasComputeUnitLimitDirective(instructions) {
		cost.BPFExecutionCost = uint64(limits.ComputeUnitLimit)
	}
	cost.ComputeUnitPrice = limits.ComputeUnitPrice

	if fs.IsActive(features.IncludeLoadedAccountsDataSizeInFeeCalculation) {
		cost.LoadedAccountsDataSizeCost = MemoryUsageCost(uint64(limits.LoadedAccountsDataSizeBytes), DefaultHeapCost)
	}

	return cost
}

// numPrecompileSignatures reads the signature count prefix of a precompile
// instruction. The first byte of a well-formed precompile payload is the
// number of embedded signatures.
func numPrecompileSignatures(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	return uint64(data[0])
}

// MemoryUsageCost prices a loaded-accounts data-size limit in 32KiB blocks,
// rounded up.
func MemoryUsageCost(loadedAccountsDataSizeLimit uint64, heapCost uint64) uint64 {
	blocks := satAdd(loadedAccountsDataSizeLimit, AccountDataCostPageSize-1) / AccountDataCostPageSize
	return satMul(blocks, heapCost)
}

func satAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return math.MaxUint64
	}
	return sum
}

func satMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	product := a * b
	if product/a != b {
		return math.MaxUint64
	}
	return product
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
