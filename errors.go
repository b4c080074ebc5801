package rolewatch

import (
	"errors"
	"fmt"
)

// Sentinel errors for rolewatch operations.
var (
	// ErrInvalidHolder is returned when a holder is nil or cannot be persisted.
	ErrInvalidHolder = errors.New("rolewatch: invalid holder")

	// ErrInvalidItem is returned when a role or permission fails validation.
	ErrInvalidItem = errors.New("rolewatch: invalid item")

	// ErrUnpersistedItem is returned when a role or permission without an id is assigned.
	ErrUnpersistedItem = errors.New("rolewatch: item not persisted")

	// ErrItemNotFound is returned by a store that does not know an item id.
	ErrItemNotFound = errors.New("rolewatch: item not found")

	// ErrUnsupportedHolder is returned when a holder type cannot carry the requested kind.
	ErrUnsupportedHolder = errors.New("rolewatch: holder cannot carry this kind")

	// ErrInvalidPattern is returned when a listener subscription pattern is malformed.
	ErrInvalidPattern = errors.New("rolewatch: invalid topic pattern")

	// ErrPropagation is reported when an event could not reach a downstream holder.
	ErrPropagation = errors.New("rolewatch: propagation failed")

	// ErrDispatch is reported when a sink failed while handling an event.
	ErrDispatch = errors.New("rolewatch: dispatch failed")

	// ErrNoTransaction is returned when the database handle cannot start a transaction.
	ErrNoTransaction = errors.New("rolewatch: transactions not supported")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("rolewatch: database error")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err        error  // Underlying sentinel error
	Message    string // Additional context
	HolderType string // Holder type involved (if applicable)
	HolderID   string // Holder involved (if applicable)
	Kind       string // Assignment kind involved (if applicable)
	Item       string // Item name involved (if applicable)
	Cause      error  // Lower level error (if any)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the sentinel and the cause for errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithHolder adds holder information to the error.
func (e *Error) WithHolder(h Holder) *Error {
	if h != nil {
		e.HolderType = string(h.HolderType())
		e.HolderID = h.Key()
	}
	return e
}

// WithKind adds the assignment kind to the error.
func (e *Error) WithKind(kind Kind) *Error {
	e.Kind = kind.String()
	return e
}

// WithItem adds item information to the error.
func (e *Error) WithItem(it Item) *Error {
	if it != nil {
		e.Item = it.ItemName()
	}
	return e
}

// WithCause attaches the lower level error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// IsInvalidItem checks if an error is due to an invalid or unpersisted item.
func IsInvalidItem(err error) bool {
	return errors.Is(err, ErrInvalidItem) || errors.Is(err, ErrUnpersistedItem)
}

// IsUnsupportedHolder checks if an error is due to a holder that cannot carry a kind.
func IsUnsupportedHolder(err error) bool {
	return errors.Is(err, ErrUnsupportedHolder)
}

// IsDatabaseError checks if an error came from the database layer.
func IsDatabaseError(err error) bool {
	return errors.Is(err, ErrDatabaseError)
}
