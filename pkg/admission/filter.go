package admission

import (
	"fmt"

	"github.com/x1-labs/tachyon/pkg/budget"
	"github.com/x1-labs/tachyon/pkg/fees"
	"github.com/x1-labs/tachyon/pkg/types"
)

// CheckInsufficientComputeUnitLimit rejects a candidate whose explicit
// compute-unit limit cannot even cover the fixed cost of its builtin
// instructions. Transactions without an explicit limit always pass; the
// default limit already scales with instruction count.
func (p *ImmutablePacket) CheckInsufficientComputeUnitLimit() error {
	instructions := p.transaction.ProgramInstructions()
	if !budget.HasComputeUnitLimitDirective(instructions) {
		return nil
	}

	var staticBuiltinCost uint64
	for _, pix := range instructions {
		if cost, ok := fees.BuiltinInstructionCost(pix.ProgramID, allEnabledFeatures); ok {
			staticBuiltinCost += cost
		}
	}

	if p.ComputeUnitLimit() < staticBuiltinCost {
		return fmt.Errorf("%w: limit %d, builtin cost %d",
			ErrInsufficientComputeLimit, p.ComputeUnitLimit(), staticBuiltinCost)
	}
	return nil
}

// reservedKeyViolation reports whether the transaction write-locks a reserved
// account key. Reserved keys may be referenced but never written.
func reservedKeyViolation(tx *types.SanitizedVersionedTransaction, loaded *types.LoadedAddresses, reserved map[types.Pubkey]struct{}) bool {
	if len(reserved) == 0 {
		return false
	}
	for i, key := range tx.Message().StaticAccountKeys() {
		if _, ok := reserved[key]; ok && tx.IsWritableStatic(i) {
			return true
		}
	}
	for _, key := range loaded.Writable {
		if _, ok := reserved[key]; ok {
			return true
		}
	}
	return false
}
