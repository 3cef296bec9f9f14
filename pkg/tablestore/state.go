// Package tablestore stores address lookup tables and serves point-in-time
// snapshot views for late address resolution.
package tablestore

import (
	"encoding/binary"
	"fmt"

	"github.com/x1-labs/tachyon/pkg/types"
)

const (
	// metaSize is the fixed size of the lookup table metadata in bytes.
	// Layout:
	//   - deactivation_slot: u64 (8 bytes)
	//   - last_extended_slot: u64 (8 bytes)
	//   - last_extended_slot_start_index: u8 (1 byte)
	//   - has_authority: u8 (1 byte)
	//   - authority: [32]byte (only valid if has_authority == 1)
	//   - padding: [6]byte
	metaSize = 56

	// MaxAddresses is the maximum number of addresses in a lookup table.
	MaxAddresses = 256
)

// TableMeta contains the metadata for an address lookup table.
type TableMeta struct {
	// DeactivationSlot is the slot deactivation was requested at.
	// types.MaxSlot means the table is active.
	DeactivationSlot types.Slot

	// LastExtendedSlot is the last slot addresses were added at.
	LastExtendedSlot types.Slot

	// LastExtendedSlotStartIndex is the first address index added in the
	// last extended slot.
	LastExtendedSlotStartIndex uint8

	// Authority may modify the table; nil means the table is frozen.
	Authority *types.Pubkey
}

// IsActive returns true if the table has not been deactivated.
func (m *TableMeta) IsActive() bool {
	return m.DeactivationSlot == types.MaxSlot
}

// IsFrozen returns true if the table can no longer be modified.
func (m *TableMeta) IsFrozen() bool {
	return m.Authority == nil
}

// LookupTable is an address lookup table account's decoded state.
type LookupTable struct {
	Meta      TableMeta
	Addresses []types.Pubkey
}

// NewLookupTable creates an empty, active lookup table.
func NewLookupTable(authority types.Pubkey) *LookupTable {
	return &LookupTable{
		Meta: TableMeta{
			DeactivationSlot: types.MaxSlot,
			Authority:        &authority,
		},
		Addresses: make([]types.Pubkey, 0),
	}
}

// Serialize encodes the table in account format.
func (t *LookupTable) Serialize() []byte {
	data := make([]byte, metaSize+len(t.Addresses)*32)

	binary.LittleEndian.PutUint64(data[0:8], uint64(t.Meta.DeactivationSlot))
	binary.LittleEndian.PutUint64(data[8:16], uint64(t.Meta.LastExtendedSlot))
	data[16] = t.Meta.LastExtendedSlotStartIndex

	if t.Meta.Authority != nil {
		data[17] = 1
		copy(data[18:50], t.Meta.Authority[:])
	}
	// Bytes 50-55 are padding.

	offset := metaSize
	for _, addr := range t.Addresses {
		copy(data[offset:offset+32], addr[:])
		offset += 32
	}
	return data
}

// DeserializeLookupTable decodes account bytes into a LookupTable.
func DeserializeLookupTable(data []byte) (*LookupTable, error) {
	if len(data) < metaSize {
		return nil, fmt.Errorf("lookup table data too short: %d bytes", len(data))
	}

	t := &LookupTable{}
	t.Meta.DeactivationSlot = types.Slot(binary.LittleEndian.Uint64(data[0:8]))
	t.Meta.LastExtendedSlot = types.Slot(binary.LittleEndian.Uint64(data[8:16]))
	t.Meta.LastExtendedSlotStartIndex = data[16]

	if data[17] == 1 {
		var authority types.Pubkey
		copy(authority[:], data[18:50])
		t.Meta.Authority = &authority
	}

	addressDataLen := len(data) - metaSize
	if addressDataLen%32 != 0 {
		return nil, fmt.Errorf("lookup table address data not aligned to 32 bytes")
	}

	t.Addresses = make([]types.Pubkey, addressDataLen/32)
	offset := metaSize
	for i := range t.Addresses {
		copy(t.Addresses[i][:], data[offset:offset+32])
		offset += 32
	}
	return t, nil
}

// GetAddress returns the address at the given index.
func (t *LookupTable) GetAddress(index uint8) (types.Pubkey, error) {
	if int(index) >= len(t.Addresses) {
		return types.ZeroPubkey, fmt.Errorf("address index %d out of bounds (table has %d addresses)",
			index, len(t.Addresses))
	}
	return t.Addresses[index], nil
}

// AddressCount returns the number of addresses in the table.
func (t *LookupTable) AddressCount() int {
	return len(t.Addresses)
}

// CanAddAddresses returns true if count more addresses fit.
func (t *LookupTable) CanAddAddresses(count int) bool {
	return len(t.Addresses)+count <= MaxAddresses
}
