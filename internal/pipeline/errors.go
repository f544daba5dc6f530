package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed board operation.
type ErrorKind string

const (
	KindValidation   ErrorKind = "ValidationError"
	KindUnknownStage ErrorKind = "UnknownStage"
	KindStoreFailure ErrorKind = "StoreFailure"
	KindLoadFailure  ErrorKind = "LoadFailure"
	// KindBusy rejects an operation on a deal whose previous store call has
	// not resolved yet.
	KindBusy     ErrorKind = "Busy"
	KindNotFound ErrorKind = "NotFound"
)

// OpError is returned by every board operation that fails. DealID is zero
// for operations that are not about a single deal.
type OpError struct {
	Kind   ErrorKind
	Op     Op
	DealID int64
	Err    error
}

func (e *OpError) Error() string {
	if e.DealID != 0 {
		return fmt.Sprintf("%s deal %d: %s: %v", e.Op, e.DealID, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// KindOf returns the kind of an *OpError in err's chain, or "" when there is
// none.
func KindOf(err error) ErrorKind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

var (
	errBusy          = errors.New("deal has a store call in flight")
	errNotOnBoard    = errors.New("deal is not on the board")
	errBoardDisposed = errors.New("board disposed")
	errNoID          = errors.New("store returned a deal without an id")
)
