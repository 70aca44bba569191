// Package apperr defines the error taxonomy surfaced by the address
// resolution workflow. Every failure that reaches the user is one of these
// kinds; UserMessage turns any error into the inline text shown for it.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the category of a workflow error.
type Kind int

const (
	// KindUnknown is the zero value for errors that were never classified.
	KindUnknown Kind = iota
	// KindValidation covers empty input and malformed or over-length
	// identifiers. Raised before any network call.
	KindValidation
	// KindTransient covers timeouts, connection failures, non-2xx statuses
	// and undecodable bodies.
	KindTransient
	// KindTerminal is a backend-reported failed or not_found status.
	KindTerminal
	// KindBudgetExhausted means polling ran out of attempts while the job
	// was still running.
	KindBudgetExhausted
	// KindCanceled marks work abandoned because it was superseded or torn
	// down. Never shown to the user.
	KindCanceled
)

// String returns the kind name used in logs and events.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransient:
		return "transient"
	case KindTerminal:
		return "terminal"
	case KindBudgetExhausted:
		return "budget_exhausted"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// GenericMessage is shown for transient or unclassified failures.
const GenericMessage = "Could not complete this action. Please try again."

// Error is a classified workflow error. Message is user-facing; Err keeps
// the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err under kind with a user-facing message.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp returns a copy of e tagged with the operation that failed.
func (e *Error) WithOp(op string) *Error {
	cp := *e
	cp.Op = op
	return &cp
}

// Validation creates a KindValidation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Transient wraps a network-level failure.
func Transient(err error, message string) *Error {
	return Wrap(KindTransient, err, message)
}

// Terminal creates a KindTerminal error.
func Terminal(message string) *Error {
	return New(KindTerminal, message)
}

// BudgetExhausted creates a KindBudgetExhausted error.
func BudgetExhausted(message string) *Error {
	return New(KindBudgetExhausted, message)
}

// Canceled wraps a context error.
func Canceled(err error) *Error {
	return Wrap(KindCanceled, err, "canceled")
}

// KindOf reports the kind of err. Bare context errors count as canceled.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return Is(err, KindValidation) }

// IsTransient reports whether err is a transient network failure.
func IsTransient(err error) bool { return Is(err, KindTransient) }

// IsTerminal reports whether err is a backend terminal failure.
func IsTerminal(err error) bool { return Is(err, KindTerminal) }

// IsBudgetExhausted reports whether err is a poll timeout.
func IsBudgetExhausted(err error) bool { return Is(err, KindBudgetExhausted) }

// IsCanceled reports whether err means the work was superseded.
func IsCanceled(err error) bool { return Is(err, KindCanceled) }

// UserMessage returns the inline text for err. Canceled work and nil
// errors produce an empty string.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case KindCanceled:
			return ""
		case KindTransient, KindUnknown:
			if ae.Message != "" {
				return ae.Message
			}
			return GenericMessage
		default:
			return ae.Message
		}
	}
	if errors.Is(err, context.Canceled) {
		return ""
	}
	return GenericMessage
}
