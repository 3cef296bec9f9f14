package types

import (
	"bytes"
	"errors"
	"testing"
)

func TestSanitizeAcceptsValidTransaction(t *testing.T) {
	tx := testLegacyTransaction()
	s, err := Sanitize(tx)
	if err != nil {
		t.Fatalf("sanitize failed: %v", err)
	}

	if s.ID() != tx.Signatures[0] {
		t.Error("id mismatch")
	}
	if s.FeePayer() != tx.Message.Legacy.AccountKeys[0] {
		t.Error("fee payer mismatch")
	}
	if !bytes.Equal(s.Serialize(), tx.Serialize()) {
		t.Error("sanitized serialization differs from input")
	}
}

func TestSanitizeRejectsZeroSignatures(t *testing.T) {
	tx := testLegacyTransaction()
	tx.Signatures = nil
	tx.Message.Legacy.Header.NumRequiredSignatures = 0

	if _, err := Sanitize(tx); !errors.Is(err, ErrStructuralViolation) {
		t.Errorf("expected ErrStructuralViolation, got %v", err)
	}
}

func TestSanitizeRejectsSignatureCountMismatch(t *testing.T) {
	tx := testLegacyTransaction()
	tx.Signatures = append(tx.Signatures, testSignature(3))

	if _, err := Sanitize(tx); !errors.Is(err, ErrStructuralViolation) {
		t.Errorf("expected ErrStructuralViolation, got %v", err)
	}
}

func TestSanitizeRejectsAllSignedReadonly(t *testing.T) {
	tx := testLegacyTransaction()
	tx.Message.Legacy.Header.NumReadonlySignedAccounts = 1

	if _, err := Sanitize(tx); !errors.Is(err, ErrStructuralViolation) {
		t.Errorf("expected ErrStructuralViolation, got %v", err)
	}
}

func TestSanitizeRejectsHeaderCountsExceedingKeys(t *testing.T) {
	tx := testLegacyTransaction()
	tx.Message.Legacy.Header.NumReadonlyUnsignedAccounts = 5

	if _, err := Sanitize(tx); !errors.Is(err, ErrStructuralViolation) {
		t.Errorf("expected ErrStructuralViolation, got %v", err)
	}
}

func TestSanitizeRejectsDuplicateStaticKeys(t *testing.T) {
	tx := testLegacyTransaction()
	tx.Message.Legacy.AccountKeys[1] = tx.Message.Legacy.AccountKeys[0]

	if _, err := Sanitize(tx); !errors.Is(err, ErrStructuralViolation) {
		t.Errorf("expected ErrStructuralViolation, got %v", err)
	}
}

func TestSanitizeRejectsProgramIndexOutOfBounds(t *testing.T) {
	tx := testLegacyTransaction()
	tx.Message.Legacy.Instructions[0].ProgramIDIndex = 2

	if _, err := Sanitize(tx); !errors.Is(err, ErrStructuralViolation) {
		t.Errorf("expected ErrStructuralViolation, got %v", err)
	}
}

func TestSanitizeRejectsProgramIndexIntoLookupSpace(t *testing.T) {
	// 2 static keys + 3 lookup addresses gives 5 total keys. A program index
	// of 2 is in range for accounts but not for programs, which must be static.
	tx := testV0Transaction()
	tx.Message.V0.Instructions[0].ProgramIDIndex = 2

	if _, err := Sanitize(tx); !errors.Is(err, ErrStructuralViolation) {
		t.Errorf("expected ErrStructuralViolation, got %v", err)
	}
}

func TestSanitizeRejectsAccountIndexOutOfBounds(t *testing.T) {
	tx := testV0Transaction()
	// Total key space is 2 static + 3 lookups = 5; index 5 is out of bounds.
	tx.Message.V0.Instructions[0].AccountIndices = []uint8{5}

	if _, err := Sanitize(tx); !errors.Is(err, ErrStructuralViolation) {
		t.Errorf("expected ErrStructuralViolation, got %v", err)
	}
}

func TestSanitizeAcceptsAccountIndexIntoLookupSpace(t *testing.T) {
	tx := testV0Transaction()
	tx.Message.V0.Instructions[0].AccountIndices = []uint8{4}

	if _, err := Sanitize(tx); err != nil {
		t.Errorf("lookup-space account index rejected: %v", err)
	}
}

func TestSanitizeRejectsEmptyLookup(t *testing.T) {
	tx := testV0Transaction()
	tx.Message.V0.AddressTableLookups[0].WritableIndexes = nil
	tx.Message.V0.AddressTableLookups[0].ReadonlyIndexes = nil

	if _, err := Sanitize(tx); !errors.Is(err, ErrStructuralViolation) {
		t.Errorf("expected ErrStructuralViolation, got %v", err)
	}
}

func TestSanitizeRejectsTooManyAccountKeys(t *testing.T) {
	tx := testV0Transaction()
	lookup := &tx.Message.V0.AddressTableLookups[0]
	lookup.ReadonlyIndexes = make([]uint8, 255)
	for i := range lookup.ReadonlyIndexes {
		lookup.ReadonlyIndexes[i] = uint8(i)
	}

	if _, err := Sanitize(tx); !errors.Is(err, ErrStructuralViolation) {
		t.Errorf("expected ErrStructuralViolation, got %v", err)
	}
}

func TestProgramInstructions(t *testing.T) {
	tx := testLegacyTransaction()
	s, err := Sanitize(tx)
	if err != nil {
		t.Fatalf("sanitize failed: %v", err)
	}

	pixs := s.ProgramInstructions()
	if len(pixs) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(pixs))
	}
	if pixs[0].ProgramID != SystemProgramID {
		t.Errorf("expected system program, got %s", pixs[0].ProgramID)
	}
}

func TestReferencesProgram(t *testing.T) {
	s, err := Sanitize(testLegacyTransaction())
	if err != nil {
		t.Fatalf("sanitize failed: %v", err)
	}

	if !s.ReferencesProgram(SystemProgramID) {
		t.Error("system program not found in static keys")
	}
	if s.ReferencesProgram(VoteProgramID) {
		t.Error("vote program falsely reported")
	}
}

func TestIsWritableStatic(t *testing.T) {
	tx := &VersionedTransaction{
		Signatures: []Signature{testSignature(1), testSignature(2)},
		Message: VersionedMessage{
			Legacy: &Message{
				Header: MessageHeader{
					NumRequiredSignatures:       2,
					NumReadonlySignedAccounts:   1,
					NumReadonlyUnsignedAccounts: 1,
				},
				AccountKeys: []Pubkey{
					testPubkey(1), // signed writable
					testPubkey(2), // signed readonly
					testPubkey(3), // unsigned writable
					testPubkey(4), // unsigned readonly
				},
				Instructions: []CompiledInstruction{
					{ProgramIDIndex: 3, AccountIndices: []uint8{0}},
				},
			},
		},
	}
	s, err := Sanitize(tx)
	if err != nil {
		t.Fatalf("sanitize failed: %v", err)
	}

	expected := []bool{true, false, true, false}
	for i, want := range expected {
		if got := s.IsWritableStatic(i); got != want {
			t.Errorf("key %d: writable = %v, want %v", i, got, want)
		}
	}
	if s.NumWriteLocks() != 2 {
		t.Errorf("expected 2 write locks, got %d", s.NumWriteLocks())
	}
}

func TestNumWriteLocksIncludesLookups(t *testing.T) {
	s, err := Sanitize(testV0Transaction())
	if err != nil {
		t.Fatalf("sanitize failed: %v", err)
	}

	// Fee payer is the only writable static key; the lookup adds one writable
	// address.
	if s.NumWriteLocks() != 2 {
		t.Errorf("expected 2 write locks, got %d", s.NumWriteLocks())
	}
}

func TestDecodeAndSanitize(t *testing.T) {
	wire := testLegacyTransaction().Serialize()
	s, err := DecodeAndSanitize(wire)
	if err != nil {
		t.Fatalf("decode and sanitize failed: %v", err)
	}
	if !bytes.Equal(s.Serialize(), wire) {
		t.Error("round trip mismatch")
	}

	if _, err := DecodeAndSanitize([]byte{0xff}); err == nil {
		t.Error("expected error for garbage input")
	}
}
