package storage

import "fmt"

// StorageInitError means the database could not be opened or migrated.
// The ledger cannot operate without it.
type StorageInitError struct {
	Op  string
	Err error
}

func (e *StorageInitError) Error() string {
	return fmt.Sprintf("initialize storage: %s: %v", e.Op, e.Err)
}

func (e *StorageInitError) Unwrap() error { return e.Err }

// QueryError wraps an I/O failure during a read or a write. The whole
// logical operation may be retried by the caller.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
