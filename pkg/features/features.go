// Package features provides the feature-activation registry that selects
// which cost and fee policy variants are active. A Set is immutable for the
// lifetime of a batch and may be shared by reference across workers.
package features

import (
	"crypto/sha256"

	"github.com/x1-labs/tachyon/pkg/types"
)

// featureID derives a stable feature address from its name.
func featureID(name string) types.Pubkey {
	return types.Pubkey(sha256.Sum256([]byte("feature/" + name)))
}

// Feature gates consulted by the admission front end.
var (
	// RemoveRoundingInFeeCalculation switches FeeDetails.Total from the
	// historical float-rounded total to exact saturating integer arithmetic.
	RemoveRoundingInFeeCalculation = featureID("remove_rounding_in_fee_calculation")

	// IncludeLoadedAccountsDataSizeInFeeCalculation adds the block-rounded
	// loaded-accounts memory cost to the derived transaction cost.
	IncludeLoadedAccountsDataSizeInFeeCalculation = featureID("include_loaded_accounts_data_size_in_fee_calculation")

	// DerivedPriceFeePolicy derives the prioritization fee internally from
	// the requested compute-unit price instead of taking it from the caller.
	DerivedPriceFeePolicy = featureID("derived_price_fee_policy")

	// CostModelRequestedWriteLockCost prices write locks from the message's
	// requested write locks rather than the resolved writable account list.
	CostModelRequestedWriteLockCost = featureID("cost_model_requested_write_lock_cost")
)

// featureNames indexes every known feature gate by id.
var featureNames = map[types.Pubkey]string{
	RemoveRoundingInFeeCalculation:                "remove_rounding_in_fee_calculation",
	IncludeLoadedAccountsDataSizeInFeeCalculation: "include_loaded_accounts_data_size_in_fee_calculation",
	DerivedPriceFeePolicy:                         "derived_price_fee_policy",
	CostModelRequestedWriteLockCost:               "cost_model_requested_write_lock_cost",
}

// Set tracks which features are active and at which slot they activated.
// The zero value is not usable; construct with Default or AllEnabled.
// A Set must not be mutated once it is shared with admission workers.
type Set struct {
	active   map[types.Pubkey]types.Slot
	inactive map[types.Pubkey]struct{}
}

// Default returns a Set with every known feature disabled.
func Default() *Set {
	s := &Set{
		active:   make(map[types.Pubkey]types.Slot),
		inactive: make(map[types.Pubkey]struct{}, len(featureNames)),
	}
	for id := range featureNames {
		s.inactive[id] = struct{}{}
	}
	return s
}

// AllEnabled returns a Set with every known feature active at slot 0.
// Used by the packet factory for legacy price/limit extraction.
func AllEnabled() *Set {
	s := &Set{
		active:   make(map[types.Pubkey]types.Slot, len(featureNames)),
		inactive: make(map[types.Pubkey]struct{}),
	}
	for id := range featureNames {
		s.active[id] = 0
	}
	return s
}

// IsActive returns true if the feature is active.
func (s *Set) IsActive(id types.Pubkey) bool {
	_, ok := s.active[id]
	return ok
}

// ActivatedSlot returns the slot the feature activated at, if active.
func (s *Set) ActivatedSlot(id types.Pubkey) (types.Slot, bool) {
	slot, ok := s.active[id]
	return slot, ok
}

// Activate marks a feature active as of the given slot.
func (s *Set) Activate(id types.Pubkey, slot types.Slot) {
	delete(s.inactive, id)
	s.active[id] = slot
}

// Deactivate marks a feature inactive.
func (s *Set) Deactivate(id types.Pubkey) {
	delete(s.active, id)
	s.inactive[id] = struct{}{}
}

// Name returns the registered name for a feature id.
func Name(id types.Pubkey) (string, bool) {
	name, ok := featureNames[id]
	return name, ok
}
