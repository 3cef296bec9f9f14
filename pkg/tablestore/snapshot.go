package tablestore

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/x1-labs/tachyon/pkg/types"
)

// snapshotMagic identifies a table snapshot stream.
var snapshotMagic = [8]byte{'T', 'B', 'L', 'S', 'N', 'A', 'P', '1'}

// maxSnapshotTableSize bounds a single serialized table in a snapshot. A
// table holds at most 256 addresses, so anything larger is corrupt.
const maxSnapshotTableSize = metaSize + MaxAddresses*32

// ExportSnapshot writes every table reachable through keys to w as a
// zstd-compressed snapshot stream.
func ExportSnapshot(store Store, keys []types.Pubkey, w io.Writer) error {
	encoder, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	if _, err := encoder.Write(snapshotMagic[:]); err != nil {
		return err
	}

	var header [8]byte
	binary.LittleEndian.PutUint64(header[:], uint64(len(keys)))
	if _, err := encoder.Write(header[:]); err != nil {
		return err
	}

	for _, key := range keys {
		table, err := store.GetTable(key)
		if err != nil {
			return fmt.Errorf("table %s: %w", key, err)
		}
		if table == nil {
			return fmt.Errorf("table %s: %w", key, ErrTableNotFound)
		}

		data := table.Serialize()
		var entry [36]byte
		copy(entry[:32], key[:])
		binary.LittleEndian.PutUint32(entry[32:36], uint32(len(data)))
		if _, err := encoder.Write(entry[:]); err != nil {
			return err
		}
		if _, err := encoder.Write(data); err != nil {
			return err
		}
	}

	return encoder.Close()
}

// ImportSnapshot reads a snapshot stream produced by ExportSnapshot and
// stores every table it contains. Returns the number of tables imported.
func ImportSnapshot(store Store, r io.Reader) (uint64, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()

	var magic [8]byte
	if _, err := io.ReadFull(decoder, magic[:]); err != nil {
		return 0, fmt.Errorf("failed to read snapshot magic: %w", err)
	}
	if magic != snapshotMagic {
		return 0, fmt.Errorf("bad snapshot magic %q", magic[:])
	}

	var header [8]byte
	if _, err := io.ReadFull(decoder, header[:]); err != nil {
		return 0, fmt.Errorf("failed to read table count: %w", err)
	}
	count := binary.LittleEndian.Uint64(header[:])

	var imported uint64
	for i := uint64(0); i < count; i++ {
		var entry [36]byte
		if _, err := io.ReadFull(decoder, entry[:]); err != nil {
			return imported, fmt.Errorf("entry %d: %w", i, err)
		}

		var key types.Pubkey
		copy(key[:], entry[:32])
		size := binary.LittleEndian.Uint32(entry[32:36])
		if size > maxSnapshotTableSize {
			return imported, fmt.Errorf("entry %d: table size %d exceeds maximum", i, size)
		}

		data := make([]byte, size)
		if _, err := io.ReadFull(decoder, data); err != nil {
			return imported, fmt.Errorf("entry %d: %w", i, err)
		}

		table, err := DeserializeLookupTable(data)
		if err != nil {
			return imported, fmt.Errorf("entry %d: %w", i, err)
		}
		if err := store.SetTable(key, table); err != nil {
			return imported, fmt.Errorf("entry %d: %w", i, err)
		}
		imported++
	}

	return imported, nil
}
