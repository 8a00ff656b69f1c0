package game

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned while a round or hint request is outstanding.
	ErrBusy = errors.New("request already in flight")
	// ErrWrongScreen is returned when an action is not valid on the current screen.
	ErrWrongScreen = errors.New("action not allowed on this screen")
	// ErrStaleResponse marks a network result that arrived after its round moved on.
	// It is never shown to players.
	ErrStaleResponse = errors.New("stale response discarded")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("session closed")
)

// ValidationError rejects user input before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// ExternalServiceError wraps a failed or malformed response from the generator.
type ExternalServiceError struct {
	Op      string // "round" or "hint"
	Status  int    // HTTP status, 0 for transport failures
	Message string // error text reported by the service, if any
	Err     error
}

func (e *ExternalServiceError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s request failed: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s request failed: status %d", e.Op, e.Status)
	default:
		return e.Op + " request failed"
	}
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsExternal reports whether err is (or wraps) an *ExternalServiceError.
func IsExternal(err error) bool {
	var x *ExternalServiceError
	return errors.As(err, &x)
}
