package global

import (
	"errors"
	"fmt"
)

// Kind classifies failures so the HTTP boundary can pick status and wording.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotAuthorized
	KindNotFound
	KindConflict
	KindSignatureVerification
	KindUpstream
	KindGatewayTimeout
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotAuthorized:
		return "not_authorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindSignatureVerification:
		return "signature_verification"
	case KindUpstream:
		return "upstream"
	case KindGatewayTimeout:
		return "gateway_timeout"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// KindOf reports the kind of the first *Error in err's chain. Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
