package types

import (
	"fmt"
)

// MaxTransactionAccounts is the maximum number of account keys a transaction
// may reference, static and looked-up combined.
const MaxTransactionAccounts = 256

// SanitizedVersionedTransaction is a structurally validated transaction.
// It is produced once per packet and immutable thereafter. Every instruction
// program index points into the static key list and every account index is
// within the combined (static + lookup) key space.
type SanitizedVersionedTransaction struct {
	tx VersionedTransaction
}

// ProgramInstruction pairs a compiled instruction with its resolved program id.
type ProgramInstruction struct {
	ProgramID   Pubkey
	Instruction CompiledInstruction
}

// Sanitize validates the structural invariants of a decoded transaction and
// wraps it as a SanitizedVersionedTransaction. The input transaction must not
// be mutated afterwards.
func Sanitize(tx *VersionedTransaction) (*SanitizedVersionedTransaction, error) {
	header := tx.Message.Header()
	staticKeys := tx.Message.StaticAccountKeys()

	if header.NumRequiredSignatures == 0 {
		return nil, fmt.Errorf("%w: no required signatures", ErrStructuralViolation)
	}
	if len(tx.Signatures) != int(header.NumRequiredSignatures) {
		return nil, fmt.Errorf("%w: %d signatures for %d required",
			ErrStructuralViolation, len(tx.Signatures), header.NumRequiredSignatures)
	}
	if int(header.NumReadonlySignedAccounts) >= int(header.NumRequiredSignatures) {
		return nil, fmt.Errorf("%w: all signed accounts are readonly", ErrStructuralViolation)
	}
	if int(header.NumRequiredSignatures)+int(header.NumReadonlyUnsignedAccounts) > len(staticKeys) {
		return nil, fmt.Errorf("%w: header counts exceed %d account keys",
			ErrStructuralViolation, len(staticKeys))
	}

	totalKeys := len(staticKeys) + tx.Message.NumLookupAddresses()
	if totalKeys > MaxTransactionAccounts {
		return nil, fmt.Errorf("%w: %d account keys", ErrStructuralViolation, totalKeys)
	}

	seen := make(map[Pubkey]struct{}, len(staticKeys))
	for _, key := range staticKeys {
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate account key %s", ErrStructuralViolation, key)
		}
		seen[key] = struct{}{}
	}

	for i, ix := range tx.Message.Instructions() {
		// Program ids must come from the static key list; lookup tables
		// cannot supply them.
		if int(ix.ProgramIDIndex) >= len(staticKeys) {
			return nil, fmt.Errorf("%w: instruction %d program index %d out of bounds",
				ErrStructuralViolation, i, ix.ProgramIDIndex)
		}
		for _, accountIndex := range ix.AccountIndices {
			if int(accountIndex) >= totalKeys {
				return nil, fmt.Errorf("%w: instruction %d account index %d out of bounds",
					ErrStructuralViolation, i, accountIndex)
			}
		}
	}

	for i, lookup := range tx.Message.AddressTableLookups() {
		if len(lookup.WritableIndexes)+len(lookup.ReadonlyIndexes) == 0 {
			return nil, fmt.Errorf("%w: lookup %d requests no addresses", ErrStructuralViolation, i)
		}
	}

	return &SanitizedVersionedTransaction{tx: *tx}, nil
}

// Message returns the underlying versioned message.
func (s *SanitizedVersionedTransaction) Message() *VersionedMessage {
	return &s.tx.Message
}

// Signatures returns the transaction signatures.
func (s *SanitizedVersionedTransaction) Signatures() []Signature {
	return s.tx.Signatures
}

// ID returns the transaction signature (first signature).
func (s *SanitizedVersionedTransaction) ID() Signature {
	return s.tx.ID()
}

// FeePayer returns the fee payer (first static account key).
func (s *SanitizedVersionedTransaction) FeePayer() Pubkey {
	return s.tx.FeePayer()
}

// Serialize re-encodes the transaction in wire format. Sanitization does not
// alter content, so this round-trips with the decoded bytes.
func (s *SanitizedVersionedTransaction) Serialize() []byte {
	return s.tx.Serialize()
}

// ProgramInstructions returns every instruction paired with its program id,
// in message order.
func (s *SanitizedVersionedTransaction) ProgramInstructions() []ProgramInstruction {
	staticKeys := s.tx.Message.StaticAccountKeys()
	instructions := s.tx.Message.Instructions()
	out := make([]ProgramInstruction, len(instructions))
	for i, ix := range instructions {
		out[i] = ProgramInstruction{
			ProgramID:   staticKeys[ix.ProgramIDIndex],
			Instruction: ix,
		}
	}
	return out
}

// ReferencesProgram returns true if any static account key equals the given
// program id.
func (s *SanitizedVersionedTransaction) ReferencesProgram(programID Pubkey) bool {
	for _, key := range s.tx.Message.StaticAccountKeys() {
		if key == programID {
			return true
		}
	}
	return false
}

// IsWritableStatic reports whether the static account key at index i is
// write-locked by this transaction, per the message header.
func (s *SanitizedVersionedTransaction) IsWritableStatic(i int) bool {
	header := s.tx.Message.Header()
	numKeys := len(s.tx.Message.StaticAccountKeys())
	numSigned := int(header.NumRequiredSignatures)
	if i < numSigned {
		return i < numSigned-int(header.NumReadonlySignedAccounts)
	}
	return i < numKeys-int(header.NumReadonlyUnsignedAccounts)
}

// NumWriteLocks returns the number of accounts this transaction write-locks,
// including writable lookup addresses.
func (s *SanitizedVersionedTransaction) NumWriteLocks() uint64 {
	var n uint64
	for i := range s.tx.Message.StaticAccountKeys() {
		if s.IsWritableStatic(i) {
			n++
		}
	}
	for _, lookup := range s.tx.Message.AddressTableLookups() {
		n += uint64(len(lookup.WritableIndexes))
	}
	return n
}

// DecodeAndSanitize decodes raw packet bytes and validates structural
// invariants, returning the canonical transaction value.
func DecodeAndSanitize(data []byte) (*SanitizedVersionedTransaction, error) {
	tx, err := DeserializeVersionedTransaction(data)
	if err != nil {
		return nil, err
	}
	return Sanitize(tx)
}
