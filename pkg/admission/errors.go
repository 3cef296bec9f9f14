package admission

import "errors"

// Packet admission errors. All are terminal for the packet; the caller
// decides whether to drop or count them. None are fatal to the process.
var (
	// ErrPrioritizationFailure indicates compute-budget processing failed,
	// so no priority price or limit could be derived.
	ErrPrioritizationFailure = errors.New("transaction failed prioritization")

	// ErrVoteTransaction indicates a packet flagged as a vote does not
	// reference the vote program.
	ErrVoteTransaction = errors.New("vote transaction failure")

	// ErrInsufficientComputeLimit indicates the requested compute-unit
	// limit cannot cover the transaction's static builtin cost.
	ErrInsufficientComputeLimit = errors.New("compute unit limit below static builtin cost")
)
