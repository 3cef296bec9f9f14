package budget

import (
	"errors"
	"testing"

	"github.com/x1-labs/tachyon/pkg/features"
	"github.com/x1-labs/tachyon/pkg/types"
)

func budgetInstruction(data []byte) types.ProgramInstruction {
	return types.ProgramInstruction{
		ProgramID:   types.ComputeBudgetProgramID,
		Instruction: types.CompiledInstruction{Data: data},
	}
}

func ordinaryInstruction() types.ProgramInstruction {
	return types.ProgramInstruction{
		ProgramID:   types.SystemProgramID,
		Instruction: types.CompiledInstruction{Data: []byte{2, 0, 0, 0}},
	}
}

func TestProcessInstructionsDefaults(t *testing.T) {
	fs := features.Default()

	limits, err := ProcessInstructions([]types.ProgramInstruction{
		ordinaryInstruction(),
		ordinaryInstruction(),
	}, fs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if limits.HeapBytes != MinHeapFrameBytes {
		t.Errorf("heap = %d, want %d", limits.HeapBytes, MinHeapFrameBytes)
	}
	if limits.ComputeUnitLimit != 2*DefaultInstructionComputeUnitLimit {
		t.Errorf("limit = %d, want %d", limits.ComputeUnitLimit, 2*DefaultInstructionComputeUnitLimit)
	}
	if limits.ComputeUnitPrice != 0 {
		t.Errorf("price = %d, want 0", limits.ComputeUnitPrice)
	}
	if limits.LoadedAccountsDataSizeBytes != MaxLoadedAccountsDataSizeBytes {
		t.Errorf("loaded data = %d, want %d", limits.LoadedAccountsDataSizeBytes, MaxLoadedAccountsDataSizeBytes)
	}
}

func TestProcessInstructionsDefaultLimitClamped(t *testing.T) {
	// Eight ordinary instructions would default to 1.6M units; the limit
	// clamps at 1.4M.
	instructions := make([]types.ProgramInstruction, 8)
	for i := range instructions {
		instructions[i] = ordinaryInstruction()
	}

	limits, err := ProcessInstructions(instructions, features.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limits.ComputeUnitLimit != MaxComputeUnitLimit {
		t.Errorf("limit = %d, want %d", limits.ComputeUnitLimit, MaxComputeUnitLimit)
	}
}

func TestProcessInstructionsAllDirectives(t *testing.T) {
	heap := RequestHeapFrame{Bytes: 64 * 1024}
	limit := SetComputeUnitLimit{Limit: 500_000}
	price := SetComputeUnitPrice{MicroLamports: 42}
	loaded := SetLoadedAccountsDataSizeLimit{Bytes: 1024 * 1024}

	limits, err := ProcessInstructions([]types.ProgramInstruction{
		budgetInstruction(heap.Encode()),
		budgetInstruction(limit.Encode()),
		budgetInstruction(price.Encode()),
		budgetInstruction(loaded.Encode()),
		ordinaryInstruction(),
	}, features.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if limits.HeapBytes != 64*1024 {
		t.Errorf("heap = %d, want %d", limits.HeapBytes, 64*1024)
	}
	if limits.ComputeUnitLimit != 500_000 {
		t.Errorf("limit = %d, want 500000", limits.ComputeUnitLimit)
	}
	if limits.ComputeUnitPrice != 42 {
		t.Errorf("price = %d, want 42", limits.ComputeUnitPrice)
	}
	if limits.LoadedAccountsDataSizeBytes != 1024*1024 {
		t.Errorf("loaded data = %d, want %d", limits.LoadedAccountsDataSizeBytes, 1024*1024)
	}
}

func TestProcessInstructionsClampsRequestedValues(t *testing.T) {
	limit := SetComputeUnitLimit{Limit: ^uint32(0)}
	loaded := SetLoadedAccountsDataSizeLimit{Bytes: ^uint32(0)}

	limits, err := ProcessInstructions([]types.ProgramInstruction{
		budgetInstruction(limit.Encode()),
		budgetInstruction(loaded.Encode()),
	}, features.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if limits.ComputeUnitLimit != MaxComputeUnitLimit {
		t.Errorf("limit = %d, want %d", limits.ComputeUnitLimit, MaxComputeUnitLimit)
	}
	if limits.LoadedAccountsDataSizeBytes != MaxLoadedAccountsDataSizeBytes {
		t.Errorf("loaded data = %d, want %d", limits.LoadedAccountsDataSizeBytes, MaxLoadedAccountsDataSizeBytes)
	}
}

func TestDuplicateDirectiveFailsWithPosition(t *testing.T) {
	kinds := [][]byte{
		(&RequestHeapFrame{Bytes: 64 * 1024}).Encode(),
		(&SetComputeUnitLimit{Limit: 1000}).Encode(),
		(&SetComputeUnitPrice{MicroLamports: 1}).Encode(),
		(&SetLoadedAccountsDataSizeLimit{Bytes: 1024}).Encode(),
	}

	for _, data := range kinds {
		_, err := ProcessInstructions([]types.ProgramInstruction{
			ordinaryInstruction(),
			budgetInstruction(data),
			budgetInstruction(data),
		}, features.Default())
		if !errors.Is(err, ErrDuplicateDirective) {
			t.Fatalf("kind %d: expected ErrDuplicateDirective, got %v", data[0], err)
		}

		var dirErr *DirectiveError
		if !errors.As(err, &dirErr) {
			t.Fatalf("kind %d: expected DirectiveError, got %T", data[0], err)
		}
		if dirErr.Index != 2 {
			t.Errorf("kind %d: duplicate reported at index %d, want 2", data[0], dirErr.Index)
		}
	}
}

func TestUnknownDirectiveKind(t *testing.T) {
	_, err := ProcessInstructions([]types.ProgramInstruction{
		budgetInstruction([]byte{5, 0, 0, 0, 0}),
	}, features.Default())
	if !errors.Is(err, ErrInvalidDirective) {
		t.Errorf("expected ErrInvalidDirective, got %v", err)
	}

	_, err = ProcessInstructions([]types.ProgramInstruction{
		budgetInstruction([]byte{0}),
	}, features.Default())
	if !errors.Is(err, ErrInvalidDirective) {
		t.Errorf("kind 0: expected ErrInvalidDirective, got %v", err)
	}
}

func TestEmptyDirectiveData(t *testing.T) {
	_, err := ProcessInstructions([]types.ProgramInstruction{
		budgetInstruction(nil),
	}, features.Default())
	if !errors.Is(err, ErrInvalidDirective) {
		t.Errorf("expected ErrInvalidDirective, got %v", err)
	}
}

func TestTruncatedDirectivePayload(t *testing.T) {
	cases := [][]byte{
		{DirectiveRequestHeapFrame, 0, 0},
		{DirectiveSetComputeUnitLimit},
		{DirectiveSetComputeUnitPrice, 1, 2, 3, 4},
		{DirectiveSetLoadedAccountsDataSizeLimit, 0},
	}

	for _, data := range cases {
		_, err := ProcessInstructions([]types.ProgramInstruction{
			budgetInstruction(data),
		}, features.Default())
		if !errors.Is(err, ErrInvalidDirective) {
			t.Errorf("kind %d: expected ErrInvalidDirective, got %v", data[0], err)
		}
	}
}

func TestHeapFrameBounds(t *testing.T) {
	invalid := []uint32{
		0,
		MinHeapFrameBytes - 1,
		MinHeapFrameBytes - HeapFrameAlignment,
		MinHeapFrameBytes + 1, // unaligned
		MaxHeapFrameBytes + HeapFrameAlignment,
		^uint32(0),
	}
	for _, bytes := range invalid {
		d := RequestHeapFrame{Bytes: bytes}
		_, err := ProcessInstructions([]types.ProgramInstruction{
			budgetInstruction(d.Encode()),
		}, features.Default())
		if !errors.Is(err, ErrInvalidDirective) {
			t.Errorf("heap %d: expected ErrInvalidDirective, got %v", bytes, err)
		}
	}

	valid := []uint32{MinHeapFrameBytes, MinHeapFrameBytes + HeapFrameAlignment, MaxHeapFrameBytes}
	for _, bytes := range valid {
		d := RequestHeapFrame{Bytes: bytes}
		limits, err := ProcessInstructions([]types.ProgramInstruction{
			budgetInstruction(d.Encode()),
		}, features.Default())
		if err != nil {
			t.Errorf("heap %d: unexpected error: %v", bytes, err)
			continue
		}
		if limits.HeapBytes != bytes {
			t.Errorf("heap %d: got %d", bytes, limits.HeapBytes)
		}
	}
}

func TestAcceptedLimitsAlwaysInRange(t *testing.T) {
	// Adversarial directive values must never produce out-of-range limits.
	values := []uint32{0, 1, 1024, MinHeapFrameBytes, 200_000, MaxComputeUnitLimit,
		MaxHeapFrameBytes, MaxLoadedAccountsDataSizeBytes, ^uint32(0)}

	for _, limit := range values {
		for _, loaded := range values {
			limits, err := ProcessInstructions([]types.ProgramInstruction{
				budgetInstruction((&SetComputeUnitLimit{Limit: limit}).Encode()),
				budgetInstruction((&SetLoadedAccountsDataSizeLimit{Bytes: loaded}).Encode()),
			}, features.Default())
			if err != nil {
				t.Fatalf("limit=%d loaded=%d: unexpected error: %v", limit, loaded, err)
			}
			if limits.ComputeUnitLimit > MaxComputeUnitLimit {
				t.Errorf("limit=%d: accepted %d", limit, limits.ComputeUnitLimit)
			}
			if limits.HeapBytes < MinHeapFrameBytes || limits.HeapBytes > MaxHeapFrameBytes ||
				limits.HeapBytes%HeapFrameAlignment != 0 {
				t.Errorf("heap out of range: %d", limits.HeapBytes)
			}
			if limits.LoadedAccountsDataSizeBytes > MaxLoadedAccountsDataSizeBytes {
				t.Errorf("loaded=%d: accepted %d", loaded, limits.LoadedAccountsDataSizeBytes)
			}
		}
	}
}

func TestDirectiveEncodeDecodeRoundTrip(t *testing.T) {
	heap := RequestHeapFrame{Bytes: 128 * 1024}
	var heapOut RequestHeapFrame
	if err := heapOut.Decode(heap.Encode()[1:]); err != nil || heapOut != heap {
		t.Errorf("heap round trip: %+v, err %v", heapOut, err)
	}

	price := SetComputeUnitPrice{MicroLamports: ^uint64(0)}
	var priceOut SetComputeUnitPrice
	if err := priceOut.Decode(price.Encode()[1:]); err != nil || priceOut != price {
		t.Errorf("price round trip: %+v, err %v", priceOut, err)
	}
}

func TestHasComputeUnitLimitDirective(t *testing.T) {
	with := []types.ProgramInstruction{
		ordinaryInstruction(),
		budgetInstruction((&SetComputeUnitLimit{Limit: 1000}).Encode()),
	}
	if !HasComputeUnitLimitDirective(with) {
		t.Error("directive not detected")
	}

	without := []types.ProgramInstruction{
		ordinaryInstruction(),
		budgetInstruction((&SetComputeUnitPrice{MicroLamports: 1}).Encode()),
	}
	if HasComputeUnitLimitDirective(without) {
		t.Error("directive falsely detected")
	}

	// A truncated limit directive does not count.
	truncated := []types.ProgramInstruction{
		budgetInstruction([]byte{DirectiveSetComputeUnitLimit, 0}),
	}
	if HasComputeUnitLimitDirective(truncated) {
		t.Error("truncated directive detected")
	}
}
