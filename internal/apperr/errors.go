package apperr

import "errors"

var (
	// ErrNotFound marks an unknown id on a read path. It is a normal
	// outcome, distinct from a transport or backend failure.
	ErrNotFound = errors.New("not found")
	// ErrExhausted marks a ledger submission abandoned after all
	// attempts failed and the reserved nonce was burned.
	ErrExhausted = errors.New("submission attempts exhausted")
)
