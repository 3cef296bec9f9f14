package tablestore

import (
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/x1-labs/tachyon/pkg/types"
)

// tableKeyPrefix is the prefix for lookup table keys in BadgerDB.
const tableKeyPrefix = "alt:"

// BadgerStore is a persistent implementation of Store using BadgerDB.
type BadgerStore struct {
	db    *badger.DB
	count atomic.Uint64
}

// NewBadgerStore opens a persistent table store at the specified path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &BadgerStore{db: db}

	count, err := s.countTables()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to count tables: %w", err)
	}
	s.count.Store(count)

	return s, nil
}

func makeTableKey(key types.Pubkey) []byte {
	k := make([]byte, len(tableKeyPrefix)+32)
	copy(k, tableKeyPrefix)
	copy(k[len(tableKeyPrefix):], key[:])
	return k
}

// GetTable retrieves a table by its account key.
// Returns nil, nil if the table does not exist.
func (s *BadgerStore) GetTable(key types.Pubkey) (*LookupTable, error) {
	dbKey := makeTableKey(key)
	var table *LookupTable

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var deserErr error
			table, deserErr = DeserializeLookupTable(val)
			return deserErr
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	return table, nil
}

// SetTable stores a table.
func (s *BadgerStore) SetTable(key types.Pubkey, table *LookupTable) error {
	dbKey := makeTableKey(key)
	data := table.Serialize()

	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(dbKey)
		isNew := err == badger.ErrKeyNotFound

		if err := txn.Set(dbKey, data); err != nil {
			return err
		}
		if isNew {
			s.count.Add(1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set table: %w", err)
	}
	return nil
}

// DeleteTable removes a table.
func (s *BadgerStore) DeleteTable(key types.Pubkey) error {
	dbKey := makeTableKey(key)

	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(dbKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if err := txn.Delete(dbKey); err != nil {
			return err
		}
		s.count.Store(s.count.Load() - 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	return nil
}

// HasTable returns true if the table exists.
func (s *BadgerStore) HasTable(key types.Pubkey) bool {
	dbKey := makeTableKey(key)
	found := false

	_ = s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(dbKey)
		if err == nil {
			found = true
		}
		return nil
	})
	return found
}

// TableCount returns the total number of stored tables.
func (s *BadgerStore) TableCount() uint64 {
	return s.count.Load()
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) countTables() (uint64, error) {
	var count uint64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(tableKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
