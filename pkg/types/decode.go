package types

import (
	"fmt"
	"math"
)

// DeserializeVersionedTransaction parses wire-format bytes into a legacy or
// v0 transaction. The whole buffer must be consumed; trailing bytes are a
// decode error. Declared lengths are bounds-checked against the remaining
// buffer before any allocation, so adversarial length prefixes cannot force
// large allocations.
func DeserializeVersionedTransaction(data []byte) (*VersionedTransaction, error) {
	sigs, offset, err := parseSignatures(data)
	if err != nil {
		return nil, err
	}

	msg, n, err := parseVersionedMessage(data[offset:])
	if err != nil {
		return nil, err
	}
	offset += n

	if offset != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedEncoding, len(data)-offset)
	}

	return &VersionedTransaction{
		Signatures: sigs,
		Message:    *msg,
	}, nil
}

// MessageBytes returns the serialized message portion of a wire-format
// packet, skipping the signature section. This is the byte range the content
// hash is computed over.
func MessageBytes(data []byte) ([]byte, error) {
	sigLen, sigSize, err := ParseCompactU16(data)
	if err != nil {
		return nil, err
	}
	msgStart := uint64(sigLen)*SignatureSize + uint64(sigSize)
	if msgStart > math.MaxInt32 || msgStart > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d signatures", ErrSignatureCountOverflow, sigLen)
	}
	return data[msgStart:], nil
}

func parseSignatures(data []byte) ([]Signature, int, error) {
	numSigs, offset, err := ParseCompactU16(data)
	if err != nil {
		return nil, 0, err
	}

	end := uint64(offset) + uint64(numSigs)*SignatureSize
	if end > uint64(len(data)) {
		return nil, 0, fmt.Errorf("%w: %d signatures", ErrSignatureCountOverflow, numSigs)
	}

	sigs := make([]Signature, numSigs)
	for i := range sigs {
		copy(sigs[i][:], data[offset:offset+SignatureSize])
		offset += SignatureSize
	}
	return sigs, offset, nil
}

func parseVersionedMessage(data []byte) (*VersionedMessage, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("%w: empty message", ErrMalformedEncoding)
	}

	if data[0]&messageVersionPrefix == 0 {
		msg, n, err := parseLegacyMessage(data)
		if err != nil {
			return nil, 0, err
		}
		return &VersionedMessage{Legacy: msg}, n, nil
	}

	version := data[0] & 0x7f
	if version != 0 {
		return nil, 0, fmt.Errorf("%w: unsupported message version %d", ErrMalformedEncoding, version)
	}
	msg, n, err := parseMessageV0(data[1:])
	if err != nil {
		return nil, 0, err
	}
	return &VersionedMessage{V0: msg}, n + 1, nil
}

func parseLegacyMessage(data []byte) (*Message, int, error) {
	header, keys, blockhash, instructions, offset, err := parseMessageBody(data)
	if err != nil {
		return nil, 0, err
	}
	return &Message{
		Header:          header,
		AccountKeys:     keys,
		RecentBlockhash: blockhash,
		Instructions:    instructions,
	}, offset, nil
}

func parseMessageV0(data []byte) (*MessageV0, int, error) {
	header, keys, blockhash, instructions, offset, err := parseMessageBody(data)
	if err != nil {
		return nil, 0, err
	}

	numLookups, n, err := ParseCompactU16(data[offset:])
	if err != nil {
		return nil, 0, err
	}
	offset += n

	lookups := make([]AddressTableLookup, 0, min(int(numLookups), 16))
	for i := 0; i < int(numLookups); i++ {
		lookup, n, err := parseAddressTableLookup(data[offset:])
		if err != nil {
			return nil, 0, fmt.Errorf("lookup %d: %w", i, err)
		}
		lookups = append(lookups, *lookup)
		offset += n
	}

	return &MessageV0{
		Header:              header,
		AccountKeys:         keys,
		RecentBlockhash:     blockhash,
		Instructions:        instructions,
		AddressTableLookups: lookups,
	}, offset, nil
}

func parseMessageBody(data []byte) (MessageHeader, []Pubkey, Hash, []CompiledInstruction, int, error) {
	var (
		header    MessageHeader
		blockhash Hash
	)

	if len(data) < 3 {
		return header, nil, blockhash, nil, 0, fmt.Errorf("%w: message too short", ErrMalformedEncoding)
	}
	header = MessageHeader{
		NumRequiredSignatures:       data[0],
		NumReadonlySignedAccounts:   data[1],
		NumReadonlyUnsignedAccounts: data[2],
	}
	offset := 3

	numKeys, n, err := ParseCompactU16(data[offset:])
	if err != nil {
		return header, nil, blockhash, nil, 0, err
	}
	offset += n

	if uint64(offset)+uint64(numKeys)*32 > uint64(len(data)) {
		return header, nil, blockhash, nil, 0, fmt.Errorf("%w: truncated account keys", ErrMalformedEncoding)
	}
	keys := make([]Pubkey, numKeys)
	for i := range keys {
		copy(keys[i][:], data[offset:offset+32])
		offset += 32
	}

	if offset+32 > len(data) {
		return header, nil, blockhash, nil, 0, fmt.Errorf("%w: truncated blockhash", ErrMalformedEncoding)
	}
	copy(blockhash[:], data[offset:offset+32])
	offset += 32

	numIx, n, err := ParseCompactU16(data[offset:])
	if err != nil {
		return header, nil, blockhash, nil, 0, err
	}
	offset += n

	instructions := make([]CompiledInstruction, 0, min(int(numIx), 64))
	for i := 0; i < int(numIx); i++ {
		ix, n, err := parseInstruction(data[offset:])
		if err != nil {
			return header, nil, blockhash, nil, 0, fmt.Errorf("instruction %d: %w", i, err)
		}
		instructions = append(instructions, *ix)
		offset += n
	}

	return header, keys, blockhash, instructions, offset, nil
}

func parseInstruction(data []byte) (*CompiledInstruction, int, error) {
	if len(data) < 1 {
		return nil, 0, fmt.Errorf("%w: empty instruction", ErrMalformedEncoding)
	}
	programIDIndex := data[0]
	offset := 1

	numAccounts, n, err := ParseCompactU16(data[offset:])
	if err != nil {
		return nil, 0, err
	}
	offset += n

	if offset+int(numAccounts) > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated account indices", ErrMalformedEncoding)
	}
	accountIndices := make([]uint8, numAccounts)
	copy(accountIndices, data[offset:offset+int(numAccounts)])
	offset += int(numAccounts)

	dataLen, n, err := ParseCompactU16(data[offset:])
	if err != nil {
		return nil, 0, err
	}
	offset += n

	if offset+int(dataLen) > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated instruction data", ErrMalformedEncoding)
	}
	ixData := make([]byte, dataLen)
	copy(ixData, data[offset:offset+int(dataLen)])
	offset += int(dataLen)

	return &CompiledInstruction{
		ProgramIDIndex: programIDIndex,
		AccountIndices: accountIndices,
		Data:           ixData,
	}, offset, nil
}

func parseAddressTableLookup(data []byte) (*AddressTableLookup, int, error) {
	if len(data) < 32 {
		return nil, 0, fmt.Errorf("%w: truncated lookup table key", ErrMalformedEncoding)
	}
	var lookup AddressTableLookup
	copy(lookup.AccountKey[:], data[:32])
	offset := 32

	numWritable, n, err := ParseCompactU16(data[offset:])
	if err != nil {
		return nil, 0, err
	}
	offset += n
	if offset+int(numWritable) > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated writable indexes", ErrMalformedEncoding)
	}
	lookup.WritableIndexes = make([]uint8, numWritable)
	copy(lookup.WritableIndexes, data[offset:offset+int(numWritable)])
	offset += int(numWritable)

	numReadonly, n, err := ParseCompactU16(data[offset:])
	if err != nil {
		return nil, 0, err
	}
	offset += n
	if offset+int(numReadonly) > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated readonly indexes", ErrMalformedEncoding)
	}
	lookup.ReadonlyIndexes = make([]uint8, numReadonly)
	copy(lookup.ReadonlyIndexes, data[offset:offset+int(numReadonly)])
	offset += int(numReadonly)

	return &lookup, offset, nil
}
