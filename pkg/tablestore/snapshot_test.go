package tablestore

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/x1-labs/tachyon/pkg/types"
)

func TestSnapshotRoundTrip(t *testing.T) {
	source := NewMemoryStore()
	defer source.Close()

	keys := []types.Pubkey{testKey(1), testKey(2), testKey(3)}
	for i, key := range keys {
		if err := source.SetTable(key, testTable(i+1)); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := ExportSnapshot(source, keys, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	dest := NewMemoryStore()
	defer dest.Close()

	imported, err := ImportSnapshot(dest, &buf)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if imported != 3 {
		t.Errorf("imported = %d, want 3", imported)
	}

	for i, key := range keys {
		table, err := dest.GetTable(key)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if table == nil {
			t.Fatalf("table %d missing after import", i)
		}
		if table.AddressCount() != i+1 {
			t.Errorf("table %d: address count = %d, want %d", i, table.AddressCount(), i+1)
		}
	}
}

func TestSnapshotEmptyKeySet(t *testing.T) {
	source := NewMemoryStore()
	defer source.Close()

	var buf bytes.Buffer
	if err := ExportSnapshot(source, nil, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	dest := NewMemoryStore()
	defer dest.Close()

	imported, err := ImportSnapshot(dest, &buf)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if imported != 0 {
		t.Errorf("imported = %d, want 0", imported)
	}
}

func TestExportSnapshotMissingTable(t *testing.T) {
	source := NewMemoryStore()
	defer source.Close()

	var buf bytes.Buffer
	if err := ExportSnapshot(source, []types.Pubkey{testKey(1)}, &buf); err == nil {
		t.Error("expected error for missing table")
	}
}

func TestImportSnapshotBadMagic(t *testing.T) {
	dest := NewMemoryStore()
	defer dest.Close()

	// Valid zstd frame with the wrong magic.
	var buf bytes.Buffer
	encoder, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("encoder failed: %v", err)
	}
	if _, err := encoder.Write([]byte("WRONGMAGIC______")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := encoder.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if _, err := ImportSnapshot(dest, &buf); err == nil {
		t.Error("expected error for wrong magic")
	}

	if _, err := ImportSnapshot(dest, bytes.NewReader([]byte("not a snapshot"))); err == nil {
		t.Error("expected error for non-zstd input")
	}
}
