// Package budget parses and validates compute-budget directives embedded in
// a transaction's instruction stream. Directives configure heap size,
// compute-unit limit and price, and the loaded-accounts data-size limit; they
// are processed at admission time, before any execution.
package budget

import (
	"encoding/binary"
	"fmt"
)

// Compute-budget directive kinds (first byte of instruction data).
const (
	// DirectiveRequestHeapFrame requests a specific heap frame size.
	DirectiveRequestHeapFrame uint8 = 1

	// DirectiveSetComputeUnitLimit sets the compute unit limit for the transaction.
	DirectiveSetComputeUnitLimit uint8 = 2

	// DirectiveSetComputeUnitPrice sets the priority fee in micro-lamports per compute unit.
	DirectiveSetComputeUnitPrice uint8 = 3

	// DirectiveSetLoadedAccountsDataSizeLimit sets the maximum loaded account data size.
	DirectiveSetLoadedAccountsDataSizeLimit uint8 = 4
)

// Protocol constants for compute budget limits.
const (
	// MaxComputeUnitLimit is the maximum compute units allowed per transaction.
	MaxComputeUnitLimit uint32 = 1_400_000

	// DefaultInstructionComputeUnitLimit is the default compute units per
	// non-budget instruction.
	DefaultInstructionComputeUnitLimit uint32 = 200_000

	// MaxHeapFrameBytes is the maximum heap frame size (256KiB).
	MaxHeapFrameBytes uint32 = 256 * 1024

	// MinHeapFrameBytes is the loader's default heap size (32KiB), also the
	// smallest acceptable request.
	MinHeapFrameBytes uint32 = 32 * 1024

	// HeapFrameAlignment is the required granularity of heap frame requests.
	HeapFrameAlignment uint32 = 1024

	// MaxLoadedAccountsDataSizeBytes is the default and maximum limit for
	// loaded account data (64MiB).
	MaxLoadedAccountsDataSizeBytes uint32 = 64 * 1024 * 1024
)

// RequestHeapFrame is a request for a specific heap frame size.
type RequestHeapFrame struct {
	// Bytes must be a multiple of 1024 in [32KiB, 256KiB].
	Bytes uint32
}

// Decode decodes a RequestHeapFrame payload.
func (d *RequestHeapFrame) Decode(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: RequestHeapFrame requires 4 bytes, got %d", ErrInvalidDirective, len(data))
	}
	d.Bytes = binary.LittleEndian.Uint32(data[0:4])
	return nil
}

// Encode encodes the directive with its kind tag.
func (d *RequestHeapFrame) Encode() []byte {
	data := make([]byte, 5)
	data[0] = DirectiveRequestHeapFrame
	binary.LittleEndian.PutUint32(data[1:5], d.Bytes)
	return data
}

// SetComputeUnitLimit sets the transaction's compute unit limit.
type SetComputeUnitLimit struct {
	Limit uint32
}

// Decode decodes a SetComputeUnitLimit payload.
func (d *SetComputeUnitLimit) Decode(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: SetComputeUnitLimit requires 4 bytes, got %d", ErrInvalidDirective, len(data))
	}
	d.Limit = binary.LittleEndian.Uint32(data[0:4])
	return nil
}

// Encode encodes the directive with its kind tag.
func (d *SetComputeUnitLimit) Encode() []byte {
	data := make([]byte, 5)
	data[0] = DirectiveSetComputeUnitLimit
	binary.LittleEndian.PutUint32(data[1:5], d.Limit)
	return data
}

// SetComputeUnitPrice sets the priority price in micro-lamports per compute unit.
type SetComputeUnitPrice struct {
	MicroLamports uint64
}

// Decode decodes a SetComputeUnitPrice payload.
func (d *SetComputeUnitPrice) Decode(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: SetComputeUnitPrice requires 8 bytes, got %d", ErrInvalidDirective, len(data))
	}
	d.MicroLamports = binary.LittleEndian.Uint64(data[0:8])
	return nil
}

// Encode encodes the directive with its kind tag.
func (d *SetComputeUnitPrice) Encode() []byte {
	data := make([]byte, 9)
	data[0] = DirectiveSetComputeUnitPrice
	binary.LittleEndian.PutUint64(data[1:9], d.MicroLamports)
	return data
}

// SetLoadedAccountsDataSizeLimit caps the bytes of account data the
// transaction may load.
type SetLoadedAccountsDataSizeLimit struct {
	Bytes uint32
}

// Decode decodes a SetLoadedAccountsDataSizeLimit payload.
func (d *SetLoadedAccountsDataSizeLimit) Decode(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: SetLoadedAccountsDataSizeLimit requires 4 bytes, got %d", ErrInvalidDirective, len(data))
	}
	d.Bytes = binary.LittleEndian.Uint32(data[0:4])
	return nil
}

// Encode encodes the directive with its kind tag.
func (d *SetLoadedAccountsDataSizeLimit) Encode() []byte {
	data := make([]byte, 5)
	data[0] = DirectiveSetLoadedAccountsDataSizeLimit
	binary.LittleEndian.PutUint32(data[1:5], d.Bytes)
	return data
}
