package budget

import (
	"fmt"

	"github.com/x1-labs/tachyon/pkg/features"
	"github.com/x1-labs/tachyon/pkg/types"
)

// Limits is the normalized record of a transaction's compute budget after
// directive processing, with defaults applied and bounds enforced.
type Limits struct {
	// HeapBytes is the heap frame size, a multiple of 1024 in [32KiB, 256KiB].
	HeapBytes uint32

	// ComputeUnitLimit is at most MaxComputeUnitLimit.
	ComputeUnitLimit uint32

	// ComputeUnitPrice is the requested priority price in micro-lamports
	// per compute unit.
	ComputeUnitPrice uint64

	// LoadedAccountsDataSizeBytes is at most MaxLoadedAccountsDataSizeBytes.
	LoadedAccountsDataSizeBytes uint32
}

// ProcessInstructions scans an instruction stream once, in order, and derives
// the transaction's compute budget limits. At most one directive of each kind
// may appear; a second occurrence fails with a positional DirectiveError
// rather than overriding. Instructions on other program ids only count toward
// the default compute-unit-limit fallback.
//
// The result is a total function of (instructions, feature set): two
// validators running the same policy over the same bytes derive identical
// limits.
func ProcessInstructions(instructions []types.ProgramInstruction, _ *features.Set) (Limits, error) {
	var (
		numOrdinaryInstructions  uint32
		requestedHeapBytes       *uint32
		requestedComputeLimit    *uint32
		requestedComputePrice    *uint64
		requestedLoadedDataLimit *uint32
	)

	for i, pix := range instructions {
		if pix.ProgramID != types.ComputeBudgetProgramID {
			// Only ordinary instructions feed the default limit calculation.
			numOrdinaryInstructions++
			continue
		}

		data := pix.Instruction.Data
		if len(data) == 0 {
			return Limits{}, invalidDirective(i, nil)
		}

		var payload []byte
		if len(data) > 1 {
			payload = data[1:]
		}

		switch data[0] {
		case DirectiveRequestHeapFrame:
			if requestedHeapBytes != nil {
				return Limits{}, duplicateDirective(i)
			}
			var d RequestHeapFrame
			if err := d.Decode(payload); err != nil {
				return Limits{}, invalidDirective(i, err)
			}
			if !sanitizeRequestedHeapBytes(d.Bytes) {
				return Limits{}, invalidDirective(i,
					fmt.Errorf("%w: heap frame of %d bytes", ErrInvalidDirective, d.Bytes))
			}
			requestedHeapBytes = &d.Bytes

		case DirectiveSetComputeUnitLimit:
			if requestedComputeLimit != nil {
				return Limits{}, duplicateDirective(i)
			}
			var d SetComputeUnitLimit
			if err := d.Decode(payload); err != nil {
				return Limits{}, invalidDirective(i, err)
			}
			requestedComputeLimit = &d.Limit

		case DirectiveSetComputeUnitPrice:
			if requestedComputePrice != nil {
				return Limits{}, duplicateDirective(i)
			}
			var d SetComputeUnitPrice
			if err := d.Decode(payload); err != nil {
				return Limits{}, invalidDirective(i, err)
			}
			requestedComputePrice = &d.MicroLamports

		case DirectiveSetLoadedAccountsDataSizeLimit:
			if requestedLoadedDataLimit != nil {
				return Limits{}, duplicateDirective(i)
			}
			var d SetLoadedAccountsDataSizeLimit
			if err := d.Decode(payload); err != nil {
				return Limits{}, invalidDirective(i, err)
			}
			requestedLoadedDataLimit = &d.Bytes

		default:
			return Limits{}, invalidDirective(i,
				fmt.Errorf("%w: unknown directive kind %d", ErrInvalidDirective, data[0]))
		}
	}

	limits := Limits{
		HeapBytes:                   MinHeapFrameBytes,
		ComputeUnitPrice:            0,
		LoadedAccountsDataSizeBytes: MaxLoadedAccountsDataSizeBytes,
	}

	if requestedHeapBytes != nil {
		limits.HeapBytes = minU32(*requestedHeapBytes, MaxHeapFrameBytes)
	}

	if requestedComputeLimit != nil {
		limits.ComputeUnitLimit = minU32(*requestedComputeLimit, MaxComputeUnitLimit)
	} else {
		limits.ComputeUnitLimit = minU32(
			satMulU32(numOrdinaryInstructions, DefaultInstructionComputeUnitLimit),
			MaxComputeUnitLimit)
	}

	if requestedComputePrice != nil {
		limits.ComputeUnitPrice = *requestedComputePrice
	}

	if requestedLoadedDataLimit != nil {
		limits.LoadedAccountsDataSizeBytes = minU32(*requestedLoadedDataLimit, MaxLoadedAccountsDataSizeBytes)
	}

	return limits, nil
}

// HasComputeUnitLimitDirective reports whether the stream carries a decodable
// SetComputeUnitLimit directive. The cost model uses this to decide whether
// the explicit limit overrides the default non-builtin estimate.
func HasComputeUnitLimitDirective(instructions []types.ProgramInstruction) bool {
	for _, pix := range instructions {
		if pix.ProgramID != types.ComputeBudgetProgramID {
			continue
		}
		data := pix.Instruction.Data
		if len(data) >= 5 && data[0] == DirectiveSetComputeUnitLimit {
			return true
		}
	}
	return false
}

func sanitizeRequestedHeapBytes(bytes uint32) bool {
	return bytes >= MinHeapFrameBytes &&
		bytes <= MaxHeapFrameBytes &&
		bytes%HeapFrameAlignment == 0
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func satMulU32(a, b uint32) uint32 {
	product := uint64(a) * uint64(b)
	if product > uint64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(product)
}
