package tablestore

import (
	"errors"

	"github.com/x1-labs/tachyon/pkg/types"
)

// ErrTableNotFound is returned when a lookup table does not exist.
var ErrTableNotFound = errors.New("lookup table not found")

// Store defines the interface for lookup table storage.
type Store interface {
	// GetTable retrieves a table by its account key.
	// Returns nil, nil if the table does not exist.
	GetTable(key types.Pubkey) (*LookupTable, error)

	// SetTable stores a table.
	SetTable(key types.Pubkey, table *LookupTable) error

	// DeleteTable removes a table.
	DeleteTable(key types.Pubkey) error

	// HasTable returns true if the table exists.
	HasTable(key types.Pubkey) bool

	// TableCount returns the total number of stored tables.
	TableCount() uint64

	// Close closes the store.
	Close() error
}

// clone returns a deep copy so callers cannot mutate stored state.
func (t *LookupTable) clone() *LookupTable {
	if t == nil {
		return nil
	}
	c := &LookupTable{
		Meta:      t.Meta,
		Addresses: make([]types.Pubkey, len(t.Addresses)),
	}
	if t.Meta.Authority != nil {
		authority := *t.Meta.Authority
		c.Meta.Authority = &authority
	}
	copy(c.Addresses, t.Addresses)
	return c
}
