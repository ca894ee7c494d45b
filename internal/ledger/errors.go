package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure for the caller. Every error returned by
// the engine carries exactly one kind.
type Kind int

const (
	// KindUnauthenticated means no caller identity was supplied.
	KindUnauthenticated Kind = iota
	// KindNotFound means the referenced record does not exist or belongs to
	// another user. The two cases are deliberately indistinguishable.
	KindNotFound
	// KindValidation means the input is malformed.
	KindValidation
	// KindConflict means the atomic unit of work could not commit. Nothing
	// was persisted; the caller may retry.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// Error is a classified engine failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func notFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func invalidf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func conflict(msg string, err error) error {
	return &Error{Kind: KindConflict, Msg: msg, Err: err}
}

// KindOf extracts the classification from err, defaulting to KindConflict
// for unclassified storage failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindConflict
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
