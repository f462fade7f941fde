package cell

import (
	"errors"

	"github.com/stratumlabs/strata/digest"
)

// Kind is a stable category for programmatic error handling. Callers should
// branch on Kind (via IsKind/errors.As), never on Error() strings, which may
// change.
type Kind string

const (
	// KindBadFormat means a byte sequence does not decode to a canonical
	// cell. Never retried; the caller must discard the bytes.
	KindBadFormat Kind = "BadFormat"
	// KindMissingData means a traversal needs a cell not present in any
	// consulted store. Recoverable: fetch the hash and retry.
	KindMissingData Kind = "MissingData"
	// KindInvalidData means a decoded cell violates a structural invariant.
	// Treated as BadFormat for bytes arriving from outside the process; a
	// bug if produced internally.
	KindInvalidData Kind = "InvalidData"
	// KindIndexOutOfBounds means a random-access operation fell outside
	// [0, count). Programming error, not recovered.
	KindIndexOutOfBounds Kind = "IndexOutOfBounds"
	// KindUnsupported means an operation mixed incompatible cell kinds.
	// Programming error, not recovered.
	KindUnsupported Kind = "Unsupported"
)

// Error is the core package's structured error type.
type Error struct {
	Kind    Kind
	Code    string // stable identifier, e.g. "CELL-VLC-REDUNDANT"
	Message string
	Cause   error
	// Hash is set only for KindMissingData: the hash a traversal could not
	// resolve.
	Hash digest.Hash
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, code, msg string) error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func wrapError(kind Kind, code, msg string, cause error) error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

// BadFormat constructs a KindBadFormat error.
func BadFormat(code, msg string) error {
	return newError(KindBadFormat, code, msg)
}

// BadFormatWrap wraps cause as a KindBadFormat error.
func BadFormatWrap(code, msg string, cause error) error {
	return wrapError(KindBadFormat, code, msg, cause)
}

// InvalidData constructs a KindInvalidData error.
func InvalidData(code, msg string) error {
	return newError(KindInvalidData, code, msg)
}

// IndexOutOfBounds constructs a KindIndexOutOfBounds error.
func IndexOutOfBounds(code, msg string) error {
	return newError(KindIndexOutOfBounds, code, msg)
}

// Unsupported constructs a KindUnsupported error.
func Unsupported(code, msg string) error {
	return newError(KindUnsupported, code, msg)
}

// MissingData constructs a KindMissingData error for hash h.
func MissingData(h digest.Hash) error {
	return &Error{Kind: KindMissingData, Code: "CELL-MISSING-DATA", Message: "missing data for hash " + h.String(), Hash: h}
}

// IsKind reports whether err is (or wraps) an *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// MissingHash extracts the hash from a KindMissingData error, if any.
func MissingHash(err error) (digest.Hash, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindMissingData {
		return digest.Hash{}, false
	}
	return e.Hash, true
}
