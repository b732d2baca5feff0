package domain

import "errors"

// Caller errors: a stale reference or a schema that does not match what the
// calling code assumed. They are not retried.
var (
	ErrNotFound         = errors.New("not found")
	ErrSchemaMismatch   = errors.New("schema mismatch")
	ErrUnknownBlockType = errors.New("unknown block type")
)
