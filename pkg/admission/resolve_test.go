package admission

import (
	"errors"
	"testing"

	"github.com/x1-labs/tachyon/pkg/types"
)

type stubLoader struct {
	loaded           types.LoadedAddresses
	deactivationSlot types.Slot
	err              error
	calls            int
}

func (l *stubLoader) LoadAddresses(lookups []types.AddressTableLookup) (types.LoadedAddresses, types.Slot, error) {
	l.calls++
	if l.err != nil {
		return types.LoadedAddresses{}, 0, l.err
	}
	return l.loaded, l.deactivationSlot, nil
}

// lookupPacket builds a v0 packet referencing one lookup table with one
// writable and one readonly address.
func lookupPacket(t *testing.T, vote bool) *ImmutablePacket {
	t.Helper()

	program := types.SystemProgramID
	if vote {
		program = types.VoteProgramID
	}
	tx := &types.VersionedTransaction{
		Signatures: []types.Signature{{1}},
		Message: types.VersionedMessage{
			V0: &types.MessageV0{
				Header: types.MessageHeader{
					NumRequiredSignatures:       1,
					NumReadonlyUnsignedAccounts: 1,
				},
				AccountKeys: []types.Pubkey{testKey(1), program},
				Instructions: []types.CompiledInstruction{
					{ProgramIDIndex: 1, AccountIndices: []uint8{0, 2, 3}, Data: []byte{1}},
				},
				AddressTableLookups: []types.AddressTableLookup{
					{
						AccountKey:      testKey(50),
						WritableIndexes: []uint8{0},
						ReadonlyIndexes: []uint8{1},
					},
				},
			},
		},
	}

	p, err := NewImmutablePacket(Packet{
		Data: tx.Serialize(),
		Meta: PacketMeta{IsSimpleVote: vote},
	})
	if err != nil {
		t.Fatalf("lookup packet rejected: %v", err)
	}
	return p
}

func TestBuildSanitizedTransactionWithoutLookups(t *testing.T) {
	p := pricedPacket(t, 5)
	loader := &stubLoader{}

	resolved, slot, ok := p.BuildSanitizedTransaction(false, loader, nil)
	if !ok {
		t.Fatal("resolution failed")
	}
	if slot != types.MaxSlot {
		t.Errorf("deactivation slot = %d, want MaxSlot", slot)
	}
	if loader.calls != 0 {
		t.Error("loader consulted for a transaction without lookups")
	}
	if resolved.MessageHash != p.MessageHash() {
		t.Error("message hash not carried through resolution")
	}
	if resolved.LoadedAddresses.Len() != 0 {
		t.Error("loaded addresses present without lookups")
	}
}

func TestBuildSanitizedTransactionResolvesLookups(t *testing.T) {
	p := lookupPacket(t, false)
	loader := &stubLoader{
		loaded: types.LoadedAddresses{
			Writable: []types.Pubkey{testKey(60)},
			Readonly: []types.Pubkey{testKey(61)},
		},
		deactivationSlot: 12345,
	}

	resolved, slot, ok := p.BuildSanitizedTransaction(false, loader, nil)
	if !ok {
		t.Fatal("resolution failed")
	}
	if slot != 12345 {
		t.Errorf("deactivation slot = %d, want 12345", slot)
	}

	keys := resolved.AccountKeys()
	// Static keys first, then loaded writable, then loaded readonly.
	if len(keys) != 4 {
		t.Fatalf("expected 4 account keys, got %d", len(keys))
	}
	if keys[0] != testKey(1) || keys[2] != testKey(60) || keys[3] != testKey(61) {
		t.Error("account key ordering incorrect")
	}
}

func TestBuildSanitizedTransactionLoaderFailure(t *testing.T) {
	p := lookupPacket(t, false)
	loader := &stubLoader{err: errors.New("table not found")}

	if _, _, ok := p.BuildSanitizedTransaction(false, loader, nil); ok {
		t.Error("resolution succeeded despite loader failure")
	}
}

func TestBuildSanitizedTransactionVotesOnly(t *testing.T) {
	nonVote := pricedPacket(t, 5)
	if _, _, ok := nonVote.BuildSanitizedTransaction(true, &stubLoader{}, nil); ok {
		t.Error("non-vote passed votesOnly filter")
	}

	vote := lookupPacket(t, true)
	loader := &stubLoader{deactivationSlot: 1, loaded: types.LoadedAddresses{
		Writable: []types.Pubkey{testKey(60)},
		Readonly: []types.Pubkey{testKey(61)},
	}}
	resolved, _, ok := vote.BuildSanitizedTransaction(true, loader, nil)
	if !ok {
		t.Fatal("vote rejected by votesOnly filter")
	}
	if !resolved.IsSimpleVote {
		t.Error("vote flag not carried through resolution")
	}
}

func TestBuildSanitizedTransactionReservedStaticKey(t *testing.T) {
	p := pricedPacket(t, 5)
	// The fee payer (static index 0) is writable; reserving it must fail the
	// candidate.
	reserved := map[types.Pubkey]struct{}{testKey(1): {}}

	if _, _, ok := p.BuildSanitizedTransaction(false, &stubLoader{}, reserved); ok {
		t.Error("reserved writable static key not rejected")
	}

	// Reserving a key the transaction only reads is fine.
	readonlyReserved := map[types.Pubkey]struct{}{types.SystemProgramID: {}}
	if _, _, ok := p.BuildSanitizedTransaction(false, &stubLoader{}, readonlyReserved); !ok {
		t.Error("readonly reserved key rejected")
	}
}

func TestBuildSanitizedTransactionReservedLoadedKey(t *testing.T) {
	p := lookupPacket(t, false)
	loader := &stubLoader{
		loaded: types.LoadedAddresses{
			Writable: []types.Pubkey{testKey(60)},
			Readonly: []types.Pubkey{testKey(61)},
		},
		deactivationSlot: types.MaxSlot,
	}

	reservedWritable := map[types.Pubkey]struct{}{testKey(60): {}}
	if _, _, ok := p.BuildSanitizedTransaction(false, loader, reservedWritable); ok {
		t.Error("reserved loaded writable key not rejected")
	}

	reservedReadonly := map[types.Pubkey]struct{}{testKey(61): {}}
	if _, _, ok := p.BuildSanitizedTransaction(false, loader, reservedReadonly); !ok {
		t.Error("reserved loaded readonly key rejected")
	}
}
