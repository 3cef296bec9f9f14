package types

import (
	"fmt"
)

// Transaction represents a complete legacy transaction with signatures.
type Transaction struct {
	Signatures []Signature
	Message    Message
}

// Message represents a legacy transaction message (the part that gets signed).
type Message struct {
	Header          MessageHeader
	AccountKeys     []Pubkey
	RecentBlockhash Hash
	Instructions    []CompiledInstruction
}

// MessageHeader contains counts for account types.
type MessageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// CompiledInstruction is an instruction with account indices.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	AccountIndices []uint8
	Data           []byte
}

// VersionedTransaction supports both legacy and v0 transactions.
type VersionedTransaction struct {
	Signatures []Signature
	Message    VersionedMessage
}

// VersionedMessage can be legacy or v0.
type VersionedMessage struct {
	Legacy *Message
	V0     *MessageV0
}

// MessageV0 is a v0 message with address lookup tables.
type MessageV0 struct {
	Header              MessageHeader
	AccountKeys         []Pubkey
	RecentBlockhash     Hash
	Instructions        []CompiledInstruction
	AddressTableLookups []AddressTableLookup
}

// AddressTableLookup references addresses from an on-chain lookup table.
type AddressTableLookup struct {
	AccountKey      Pubkey
	WritableIndexes []uint8
	ReadonlyIndexes []uint8
}

// messageVersionPrefix marks a versioned (non-legacy) message. The low 7 bits
// carry the version number.
const messageVersionPrefix = 0x80

// IsLegacy returns true if this is a legacy message.
func (m *VersionedMessage) IsLegacy() bool {
	return m.Legacy != nil
}

// IsV0 returns true if this is a v0 message.
func (m *VersionedMessage) IsV0() bool {
	return m.V0 != nil
}

// Header returns the message header.
func (m *VersionedMessage) Header() MessageHeader {
	if m.Legacy != nil {
		return m.Legacy.Header
	}
	if m.V0 != nil {
		return m.V0.Header
	}
	return MessageHeader{}
}

// StaticAccountKeys returns the account keys embedded directly in the message.
func (m *VersionedMessage) StaticAccountKeys() []Pubkey {
	if m.Legacy != nil {
		return m.Legacy.AccountKeys
	}
	if m.V0 != nil {
		return m.V0.AccountKeys
	}
	return nil
}

// RecentBlockhash returns the recent blockhash.
func (m *VersionedMessage) RecentBlockhash() Hash {
	if m.Legacy != nil {
		return m.Legacy.RecentBlockhash
	}
	if m.V0 != nil {
		return m.V0.RecentBlockhash
	}
	return ZeroHash
}

// Instructions returns the compiled instructions of the message.
func (m *VersionedMessage) Instructions() []CompiledInstruction {
	if m.Legacy != nil {
		return m.Legacy.Instructions
	}
	if m.V0 != nil {
		return m.V0.Instructions
	}
	return nil
}

// AddressTableLookups returns the lookup requests, nil for legacy messages.
func (m *VersionedMessage) AddressTableLookups() []AddressTableLookup {
	if m.V0 != nil {
		return m.V0.AddressTableLookups
	}
	return nil
}

// NumLookupAddresses returns the total number of addresses requested through
// lookup tables.
func (m *VersionedMessage) NumLookupAddresses() int {
	n := 0
	for _, lookup := range m.AddressTableLookups() {
		n += len(lookup.WritableIndexes) + len(lookup.ReadonlyIndexes)
	}
	return n
}

// NumRequiredSignatures returns the number of required signatures.
func (m *VersionedMessage) NumRequiredSignatures() int {
	return int(m.Header().NumRequiredSignatures)
}

// Serialize serializes the message in wire format. V0 messages are prefixed
// with the version byte.
func (m *VersionedMessage) Serialize() []byte {
	if m.Legacy != nil {
		return m.Legacy.Serialize()
	}
	if m.V0 != nil {
		return m.V0.Serialize()
	}
	return nil
}

// Serialize serializes a legacy message for signing.
func (m *Message) Serialize() []byte {
	buf := make([]byte, 0, 256)

	buf = append(buf, m.Header.NumRequiredSignatures)
	buf = append(buf, m.Header.NumReadonlySignedAccounts)
	buf = append(buf, m.Header.NumReadonlyUnsignedAccounts)

	buf = appendCompactU16(buf, len(m.AccountKeys))
	for _, key := range m.AccountKeys {
		buf = append(buf, key[:]...)
	}

	buf = append(buf, m.RecentBlockhash[:]...)

	buf = appendCompactU16(buf, len(m.Instructions))
	for _, ix := range m.Instructions {
		buf = appendInstruction(buf, ix)
	}

	return buf
}

// Serialize serializes a v0 message for signing, including the version prefix.
func (m *MessageV0) Serialize() []byte {
	buf := make([]byte, 0, 256)

	buf = append(buf, messageVersionPrefix)

	buf = append(buf, m.Header.NumRequiredSignatures)
	buf = append(buf, m.Header.NumReadonlySignedAccounts)
	buf = append(buf, m.Header.NumReadonlyUnsignedAccounts)

	buf = appendCompactU16(buf, len(m.AccountKeys))
	for _, key := range m.AccountKeys {
		buf = append(buf, key[:]...)
	}

	buf = append(buf, m.RecentBlockhash[:]...)

	buf = appendCompactU16(buf, len(m.Instructions))
	for _, ix := range m.Instructions {
		buf = appendInstruction(buf, ix)
	}

	buf = appendCompactU16(buf, len(m.AddressTableLookups))
	for _, lookup := range m.AddressTableLookups {
		buf = append(buf, lookup.AccountKey[:]...)
		buf = appendCompactU16(buf, len(lookup.WritableIndexes))
		buf = append(buf, lookup.WritableIndexes...)
		buf = appendCompactU16(buf, len(lookup.ReadonlyIndexes))
		buf = append(buf, lookup.ReadonlyIndexes...)
	}

	return buf
}

func appendInstruction(buf []byte, ix CompiledInstruction) []byte {
	buf = append(buf, ix.ProgramIDIndex)
	buf = appendCompactU16(buf, len(ix.AccountIndices))
	buf = append(buf, ix.AccountIndices...)
	buf = appendCompactU16(buf, len(ix.Data))
	buf = append(buf, ix.Data...)
	return buf
}

// Serialize serializes the full transaction in wire format.
func (tx *VersionedTransaction) Serialize() []byte {
	buf := make([]byte, 0, 512)
	buf = appendCompactU16(buf, len(tx.Signatures))
	for _, sig := range tx.Signatures {
		buf = append(buf, sig[:]...)
	}
	return append(buf, tx.Message.Serialize()...)
}

// FeePayer returns the fee payer (first static account key).
func (tx *VersionedTransaction) FeePayer() Pubkey {
	keys := tx.Message.StaticAccountKeys()
	if len(keys) == 0 {
		return ZeroPubkey
	}
	return keys[0]
}

// ID returns the transaction signature (first signature).
func (tx *VersionedTransaction) ID() Signature {
	if len(tx.Signatures) == 0 {
		return ZeroSignature
	}
	return tx.Signatures[0]
}

// appendCompactU16 appends a compact-u16 encoding.
func appendCompactU16(buf []byte, val int) []byte {
	if val < 0x80 {
		return append(buf, byte(val))
	}
	if val < 0x4000 {
		return append(buf, byte(val&0x7f|0x80), byte(val>>7))
	}
	return append(buf, byte(val&0x7f|0x80), byte((val>>7)&0x7f|0x80), byte(val>>14))
}

// ParseCompactU16 parses a compact-u16 from a byte slice. The encoding is a
// 1-3 byte varint; the third byte may only carry the top two bits.
func ParseCompactU16(data []byte) (val uint16, bytesRead int, err error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("%w: empty compact-u16", ErrMalformedEncoding)
	}

	b0 := data[0]
	if b0 < 0x80 {
		return uint16(b0), 1, nil
	}

	if len(data) < 2 {
		return 0, 0, fmt.Errorf("%w: incomplete compact-u16", ErrMalformedEncoding)
	}
	b1 := data[1]
	if b1 < 0x80 {
		return uint16(b0&0x7f) | uint16(b1)<<7, 2, nil
	}

	if len(data) < 3 {
		return 0, 0, fmt.Errorf("%w: incomplete compact-u16", ErrMalformedEncoding)
	}
	b2 := data[2]
	if b2 > 0x03 {
		return 0, 0, fmt.Errorf("%w: compact-u16 exceeds 16 bits", ErrMalformedEncoding)
	}
	return uint16(b0&0x7f) | uint16(b1&0x7f)<<7 | uint16(b2)<<14, 3, nil
}

// SerializeCompactU16 serializes a uint16 in compact format.
func SerializeCompactU16(val uint16) []byte {
	return appendCompactU16(nil, int(val))
}
