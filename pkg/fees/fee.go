package fees

import (
	"math"
	"math/bits"

	"github.com/rs/zerolog"

	"github.com/x1-labs/tachyon/pkg/budget"
	"github.com/x1-labs/tachyon/pkg/features"
	"github.com/x1-labs/tachyon/pkg/types"
)

// Fee-policy constants.
const (
	// BaseFeeMultiplier converts derived compute units to base-fee lamports.
	BaseFeeMultiplier uint64 = 10

	// MicroLamportsPerLamport converts priority prices to lamports.
	MicroLamportsPerLamport uint64 = 1_000_000

	// MinComputeUnitsThreshold is the derived-cost level below which the
	// derived-price policy applies the minimum price floor.
	MinComputeUnitsThreshold uint64 = 1_000

	// MinComputeUnitPriceMicroLamports is the price floor applied to
	// near-zero-cost transactions under the derived-price policy.
	MinComputeUnitPriceMicroLamports uint64 = 1_000_000
)

// FeeDetails splits a transaction fee into its base and prioritization
// portions. The rounding behavior of Total is a property of the value, fixed
// at construction from the active feature set, because historical on-chain
// behavior charged a float-rounded total.
type FeeDetails struct {
	baseFee           uint64
	prioritizationFee uint64
	removeRounding    bool
}

// NewFeeDetails builds a FeeDetails with the rounding policy selected by the
// feature set.
func NewFeeDetails(baseFee, prioritizationFee uint64, fs *features.Set) FeeDetails {
	return FeeDetails{
		baseFee:           baseFee,
		prioritizationFee: prioritizationFee,
		removeRounding:    fs.IsActive(features.RemoveRoundingInFeeCalculation),
	}
}

// BaseFee returns the base portion in lamports.
func (f FeeDetails) BaseFee() uint64 {
	return f.baseFee
}

// PrioritizationFee returns the prioritization portion in lamports.
func (f FeeDetails) PrioritizationFee() uint64 {
	return f.prioritizationFee
}

// Total combines both portions under the active rounding policy: exact
// saturating arithmetic when rounding removal is active, otherwise the
// backward-compatible float-rounded total.
func (f FeeDetails) Total() uint64 {
	total := satAdd(f.baseFee, f.prioritizationFee)
	if f.removeRounding {
		return total
	}
	rounded := math.Round(float64(total))
	if rounded >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(rounded)
}

// Accumulate adds another fee's portions into this one, saturating.
func (f *FeeDetails) Accumulate(other FeeDetails) {
	f.baseFee = satAdd(f.baseFee, other.baseFee)
	f.prioritizationFee = satAdd(f.prioritizationFee, other.prioritizationFee)
}

// Calculator computes transaction fees under the policy selected by the
// feature set. Calculations are pure and safe to run concurrently; the
// logger only emits debug traces.
type Calculator struct {
	log zerolog.Logger
}

// NewCalculator returns a Calculator logging to the given logger.
func NewCalculator(log zerolog.Logger) *Calculator {
	return &Calculator{log: log}
}

// NewNopCalculator returns a Calculator that does not log.
func NewNopCalculator() *Calculator {
	return &Calculator{log: zerolog.Nop()}
}

// CalculateFee returns the total fee in lamports. See CalculateFeeDetails.
func (c *Calculator) CalculateFee(
	tx *types.SanitizedVersionedTransaction,
	zeroFeesOverride bool,
	lamportsPerSignature uint64,
	prioritizationFee uint64,
	fs *features.Set,
) uint64 {
	return c.CalculateFeeDetails(tx, zeroFeesOverride, lamportsPerSignature, prioritizationFee, fs).Total()
}

// CalculateFeeDetails computes the fee owed by a transaction.
//
// Vote transactions and the zero-fee override short-circuit to zero fees;
// this is a protocol rule, not an optimization. Otherwise the base fee is
// derived cost x 10 under every policy. The prioritization fee is the
// caller-supplied value under the external-price policy, or derived from the
// requested compute-unit price under the derived-price policy. The two
// portions are additive and independent; the derived prioritization fee is
// never netted against the base fee.
func (c *Calculator) CalculateFeeDetails(
	tx *types.SanitizedVersionedTransaction,
	zeroFeesOverride bool,
	lamportsPerSignature uint64,
	prioritizationFee uint64,
	fs *features.Set,
) FeeDetails {
	if zeroFeesOverride {
		return NewFeeDetails(0, 0, fs)
	}

	if IsVoteTransaction(tx) {
		c.log.Debug().Msg("vote program referenced, fee forced to zero")
		return NewFeeDetails(0, 0, fs)
	}

	derivedCost := DeriveTransactionCost(tx, fs)
	baseFee := satMul(derivedCost, BaseFeeMultiplier)

	if fs.IsActive(features.DerivedPriceFeePolicy) {
		prioritizationFee = c.derivedPrioritizationFee(tx, derivedCost, fs)
	}

	details := NewFeeDetails(baseFee, prioritizationFee, fs)

	c.log.Debug().
		Uint64("derived_cost", derivedCost).
		Uint64("base_fee", baseFee).
		Uint64("prioritization_fee", details.PrioritizationFee()).
		Uint64("total_fee", details.Total()).
		Uint64("lamports_per_signature", lamportsPerSignature).
		Msg("calculated transaction fee")

	return details
}

// derivedPrioritizationFee implements the derived-price policy: the fee is
// cost x price / 1e6 truncating, with the price raised to the floor when the
// derived cost is below the minimum threshold. The floor keeps near-zero-cost
// transactions from being admitted for free while leaving a genuinely
// zero-cost transaction at zero.
func (c *Calculator) derivedPrioritizationFee(
	tx *types.SanitizedVersionedTransaction,
	derivedCost uint64,
	fs *features.Set,
) uint64 {
	limits, err := budget.ProcessInstructions(tx.ProgramInstructions(), fs)
	if err != nil {
		return 0
	}

	price := limits.ComputeUnitPrice
	if derivedCost < MinComputeUnitsThreshold && price < MinComputeUnitPriceMicroLamports {
		price = MinComputeUnitPriceMicroLamports
	}

	hi, lo := bits.Mul64(derivedCost, price)
	if hi >= MicroLamportsPerLamport {
		return math.MaxUint64
	}
	fee, _ := bits.Div64(hi, lo, MicroLamportsPerLamport)
	return fee
}

// IsVoteTransaction reports whether any referenced account is the vote
// program.
func IsVoteTransaction(tx *types.SanitizedVersionedTransaction) bool {
	return tx.ReferencesProgram(types.VoteProgramID)
}

// PrioritizationFee converts a compute-unit price and limit to lamports,
// rounding up. This is the value the external-price policy expects its
// callers to supply.
func PrioritizationFee(computeUnitPrice, computeUnitLimit uint64) uint64 {
	hi, lo := bits.Mul64(computeUnitPrice, computeUnitLimit)
	var carry uint64
	lo, carry = bits.Add64(lo, MicroLamportsPerLamport-1, 0)
	hi += carry
	if hi >= MicroLamportsPerLamport {
		return math.MaxUint64
	}
	fee, _ := bits.Div64(hi, lo, MicroLamportsPerLamport)
	return fee
}
