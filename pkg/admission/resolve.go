package admission

import (
	"github.com/x1-labs/tachyon/pkg/types"
)

// AddressLoader resolves address-table lookups against a point-in-time ledger
// view. Implementations must not mutate ledger state.
type AddressLoader interface {
	// LoadAddresses resolves every lookup, returning the loaded addresses
	// and the minimum slot at which any referenced table could deactivate.
	LoadAddresses(lookups []types.AddressTableLookup) (types.LoadedAddresses, types.Slot, error)
}

// ResolvedTransaction is an admission candidate with its lookup addresses
// bound, ready for the execution stage.
type ResolvedTransaction struct {
	Transaction     *types.SanitizedVersionedTransaction
	MessageHash     types.Hash
	IsSimpleVote    bool
	LoadedAddresses types.LoadedAddresses
}

// AccountKeys returns the full ordered key space: static keys, then loaded
// writable, then loaded readonly.
func (r *ResolvedTransaction) AccountKeys() []types.Pubkey {
	static := r.Transaction.Message().StaticAccountKeys()
	keys := make([]types.Pubkey, 0, len(static)+r.LoadedAddresses.Len())
	keys = append(keys, static...)
	keys = append(keys, r.LoadedAddresses.Writable...)
	keys = append(keys, r.LoadedAddresses.Readonly...)
	return keys
}

// BuildSanitizedTransaction performs late address resolution against a ledger
// snapshot and returns the executable candidate along with the minimum
// deactivation slot across every resolved table. A transaction without
// lookups reports types.MaxSlot.
//
// A false result means the candidate is not executable in this context —
// filtered out by votesOnly, an unresolvable lookup, or a reserved-key
// violation. These are expected, frequent outcomes rather than faults, so
// they do not surface as errors.
func (p *ImmutablePacket) BuildSanitizedTransaction(
	votesOnly bool,
	loader AddressLoader,
	reservedKeys map[types.Pubkey]struct{},
) (*ResolvedTransaction, types.Slot, bool) {
	if votesOnly && !p.IsSimpleVote() {
		return nil, 0, false
	}

	loaded, deactivationSlot, ok := resolveAddresses(p.transaction, loader)
	if !ok {
		return nil, 0, false
	}

	if reservedKeyViolation(p.transaction, &loaded, reservedKeys) {
		return nil, 0, false
	}

	return &ResolvedTransaction{
		Transaction:     p.transaction,
		MessageHash:     p.messageHash,
		IsSimpleVote:    p.isSimpleVote,
		LoadedAddresses: loaded,
	}, deactivationSlot, true
}

func resolveAddresses(tx *types.SanitizedVersionedTransaction, loader AddressLoader) (types.LoadedAddresses, types.Slot, bool) {
	lookups := tx.Message().AddressTableLookups()
	if len(lookups) == 0 {
		return types.LoadedAddresses{}, types.MaxSlot, true
	}

	loaded, deactivationSlot, err := loader.LoadAddresses(lookups)
	if err != nil {
		return types.LoadedAddresses{}, 0, false
	}
	return loaded, deactivationSlot, true
}
