package identity

import (
	"errors"
	"fmt"
)

var ErrPatientNotFound = errors.New("patient not found")

// ValidationError reports a booking missing a required field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// StorageError wraps any read, write or increment failure against the store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// TxError passes validation and storage errors through and wraps anything
// else RunInTx returns, such as a failed begin or commit, as a StorageError.
func TxError(err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return storageErr("commit", err)
}
