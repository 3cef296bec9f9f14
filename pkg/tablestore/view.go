package tablestore

import (
	"fmt"

	"github.com/x1-labs/tachyon/pkg/types"
)

// SnapshotView is a read-only, point-in-time view of the table store used
// for late address resolution. It satisfies the admission stage's
// AddressLoader contract.
type SnapshotView struct {
	store Store
	slot  types.Slot
}

// NewSnapshotView creates a view of the store as of the given slot.
func NewSnapshotView(store Store, slot types.Slot) *SnapshotView {
	return &SnapshotView{store: store, slot: slot}
}

// Slot returns the slot this view was taken at.
func (v *SnapshotView) Slot() types.Slot {
	return v.slot
}

// LoadAddresses resolves every lookup against the view, returning the loaded
// addresses and the minimum deactivation slot across the referenced tables.
// A missing table, an out-of-range index, or an already-deactivated table is
// an error; the caller treats it as "not executable yet", not as a fault.
func (v *SnapshotView) LoadAddresses(lookups []types.AddressTableLookup) (types.LoadedAddresses, types.Slot, error) {
	var loaded types.LoadedAddresses
	minDeactivation := types.MaxSlot

	for _, lookup := range lookups {
		table, err := v.store.GetTable(lookup.AccountKey)
		if err != nil {
			return types.LoadedAddresses{}, 0, err
		}
		if table == nil {
			return types.LoadedAddresses{}, 0, fmt.Errorf("table %s: %w", lookup.AccountKey, ErrTableNotFound)
		}
		if table.Meta.DeactivationSlot <= v.slot {
			return types.LoadedAddresses{}, 0, fmt.Errorf("table %s deactivated at slot %d",
				lookup.AccountKey, table.Meta.DeactivationSlot)
		}
		if table.Meta.DeactivationSlot < minDeactivation {
			minDeactivation = table.Meta.DeactivationSlot
		}

		for _, idx := range lookup.WritableIndexes {
			addr, err := table.GetAddress(idx)
			if err != nil {
				return types.LoadedAddresses{}, 0, fmt.Errorf("table %s: %w", lookup.AccountKey, err)
			}
			loaded.Writable = append(loaded.Writable, addr)
		}
		for _, idx := range lookup.ReadonlyIndexes {
			addr, err := table.GetAddress(idx)
			if err != nil {
				return types.LoadedAddresses{}, 0, fmt.Errorf("table %s: %w", lookup.AccountKey, err)
			}
			loaded.Readonly = append(loaded.Readonly, addr)
		}
	}

	return loaded, minDeactivation, nil
}
