package budget

import (
	"errors"
	"fmt"
)

// Directive validation errors.
var (
	// ErrInvalidDirective indicates an undecodable or out-of-range payload
	// on the compute-budget program id.
	ErrInvalidDirective = errors.New("invalid compute budget directive")

	// ErrDuplicateDirective indicates a second occurrence of the same
	// directive kind in one transaction.
	ErrDuplicateDirective = errors.New("duplicate compute budget directive")
)

// DirectiveError carries the position of the offending instruction. The
// index is consensus-relevant: the execution stage reports the same index
// for the same bytes.
type DirectiveError struct {
	// Index is the position of the instruction in the message.
	Index int
	// Err is ErrInvalidDirective or ErrDuplicateDirective, possibly wrapped
	// with decode detail.
	Err error
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("instruction %d: %v", e.Index, e.Err)
}

func (e *DirectiveError) Unwrap() error {
	return e.Err
}

func invalidDirective(index int, err error) error {
	if err == nil {
		err = ErrInvalidDirective
	}
	return &DirectiveError{Index: index, Err: err}
}

func duplicateDirective(index int) error {
	return &DirectiveError{Index: index, Err: ErrDuplicateDirective}
}
