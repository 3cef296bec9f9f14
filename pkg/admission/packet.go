// Package admission turns untrusted wire-format packets into priced, ordered,
// sanitized transaction candidates eligible for block inclusion. Per-packet
// operations are pure and independent; they may run concurrently across any
// number of workers sharing only a read-only feature set.
package admission

import (
	"fmt"

	"github.com/x1-labs/tachyon/pkg/budget"
	"github.com/x1-labs/tachyon/pkg/features"
	"github.com/x1-labs/tachyon/pkg/types"
)

// PacketMeta carries the flags the network layer attaches to a packet.
type PacketMeta struct {
	// IsSimpleVote marks a packet the network layer identified as a simple
	// vote transaction.
	IsSimpleVote bool
}

// Packet is a raw wire packet. The data is owned by the network layer and
// borrowed read-only here.
type Packet struct {
	Data []byte
	Meta PacketMeta
}

// allEnabledFeatures is the synthetic all-enabled feature set used to extract
// compute-unit price and limit at intake, before the bank's feature state is
// known. Initialized once, never mutated.
var allEnabledFeatures = features.AllEnabled()

// ImmutablePacket is the admission-queue entry: the original packet, its
// sanitized transaction and content hash, and the derived priority price and
// compute limit. Constructed once by NewImmutablePacket and immutable for its
// entire lifetime.
type ImmutablePacket struct {
	originalPacket   Packet
	transaction      *types.SanitizedVersionedTransaction
	messageHash      types.Hash
	isSimpleVote     bool
	computeUnitPrice uint64
	computeUnitLimit uint32
}

// NewImmutablePacket decodes, sanitizes, and prices a raw packet. It is the
// single fallible factory for admission candidates; every error is terminal
// for the packet.
func NewImmutablePacket(packet Packet) (*ImmutablePacket, error) {
	tx, err := types.DecodeAndSanitize(packet.Data)
	if err != nil {
		return nil, err
	}

	messageBytes, err := types.MessageBytes(packet.Data)
	if err != nil {
		return nil, err
	}
	messageHash := types.HashRawMessage(messageBytes)

	isSimpleVote := packet.Meta.IsSimpleVote
	if isSimpleVote && !tx.ReferencesProgram(types.VoteProgramID) {
		return nil, fmt.Errorf("%w: vote-flagged packet without vote program", ErrVoteTransaction)
	}

	limits, err := budget.ProcessInstructions(tx.ProgramInstructions(), allEnabledFeatures)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrioritizationFailure, err)
	}

	computeUnitPrice := limits.ComputeUnitPrice
	// Votes carry price zero under every policy so they hold a fixed place
	// in the admission order.
	if isSimpleVote {
		computeUnitPrice = 0
	}

	return &ImmutablePacket{
		originalPacket:   packet,
		transaction:      tx,
		messageHash:      messageHash,
		isSimpleVote:     isSimpleVote,
		computeUnitPrice: computeUnitPrice,
		computeUnitLimit: limits.ComputeUnitLimit,
	}, nil
}

// OriginalPacket returns the raw packet this candidate was built from.
func (p *ImmutablePacket) OriginalPacket() *Packet {
	return &p.originalPacket
}

// Transaction returns the sanitized transaction.
func (p *ImmutablePacket) Transaction() *types.SanitizedVersionedTransaction {
	return p.transaction
}

// MessageHash returns the content hash of the canonical message bytes.
func (p *ImmutablePacket) MessageHash() types.Hash {
	return p.messageHash
}

// IsSimpleVote reports whether the packet was flagged as a simple vote.
func (p *ImmutablePacket) IsSimpleVote() bool {
	return p.isSimpleVote
}

// ComputeUnitPrice returns the derived priority price in micro-lamports per
// compute unit. Zero for votes.
func (p *ImmutablePacket) ComputeUnitPrice() uint64 {
	return p.computeUnitPrice
}

// ComputeUnitLimit returns the derived compute unit limit.
func (p *ImmutablePacket) ComputeUnitLimit() uint64 {
	return uint64(p.computeUnitLimit)
}

// PriorityKey returns the ordering key for admission queues.
func (p *ImmutablePacket) PriorityKey() PriorityKey {
	return PriorityKey(p.computeUnitPrice)
}
