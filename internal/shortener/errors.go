package shortener

import (
	"errors"
	"fmt"
)

// ErrAllocationExhausted is returned when every candidate code collided.
var ErrAllocationExhausted = fmt.Errorf(
	"could not allocate a unique short code after %d attempts, please retry", MaxAllocationAttempts,
)

// ErrorKind classifies engine failures.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindValidation
	KindStoreConnectivity
	KindStoreOperation
	KindAllocationExhausted
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindStoreConnectivity:
		return "store_connectivity"
	case KindStoreOperation:
		return "store_operation"
	case KindAllocationExhausted:
		return "allocation_exhausted"
	default:
		return "unknown"
	}
}

// ValidationError reports why a candidate URL was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid url: " + e.Reason
}

// StoreError wraps a failed store call with the operation that failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// KindOf classifies err into one of the engine error kinds.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return KindValidation
	}

	if errors.Is(err, ErrAllocationExhausted) {
		return KindAllocationExhausted
	}

	if errors.Is(err, ErrUnavailable) {
		return KindStoreConnectivity
	}

	return KindStoreOperation
}
