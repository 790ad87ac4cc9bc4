// Package fault carries typed business errors across the service layer.
// Handlers map kinds to HTTP statuses; services never inspect error strings.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindInternal covers unexpected storage or infrastructure failures.
	KindInternal Kind = iota
	// KindValidation marks malformed input rejected before any state access.
	KindValidation
	// KindForbidden marks a request by the wrong actor.
	KindForbidden
	// KindNotFound marks a missing entity.
	KindNotFound
	// KindInvalidState marks a transition not permitted from the current state,
	// including a lost compare-and-set race.
	KindInvalidState
	// KindInsufficientFunds marks a debit exceeding the available balance.
	KindInsufficientFunds
	// KindBusy marks transient lock contention; the caller may retry.
	KindBusy
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindBusy:
		return "busy"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error, preserving it for errors.Is/As.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool { return err != nil && KindOf(err) == kind }

// HTTPStatus maps an error kind to the status the boundary layer responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState:
		return http.StatusConflict
	case KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	case KindBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
