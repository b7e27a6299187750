package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies failures by how the caller should react to them.
type Kind uint8

const (
	// KindFatal covers host-level failures and anything unclassified.
	KindFatal Kind = iota
	// KindParse covers malformed parameters and responses.
	KindParse
	// KindAuthorization covers a wrong sender class or a missing permission.
	KindAuthorization
	// KindDomain covers ledger, vault, gate and settlement invariant violations.
	KindDomain
	// KindCollaborator covers failed cross-contract calls.
	KindCollaborator
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindAuthorization:
		return "authorization"
	case KindDomain:
		return "domain"
	case KindCollaborator:
		return "collaborator"
	default:
		return "fatal"
	}
}

// Error is a classified sentinel. Instances are compared by identity so
// callers wrap them with fmt.Errorf("%w") to add context.
type Error struct {
	kind    Kind
	code    string
	message string
}

// New declares a classified sentinel error.
func New(kind Kind, code, message string) *Error {
	return &Error{kind: kind, code: code, message: message}
}

func (e *Error) Error() string { return e.message }

// Kind returns the error class.
func (e *Error) Kind() Kind { return e.kind }

// Code returns the stable error code reported to callers.
func (e *Error) Code() string { return e.code }

// Wrap attaches formatted context to a sentinel while keeping it matchable.
func Wrap(sentinel *Error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

func classified(err error) (*Error, bool) {
	var target *Error
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// KindOf determines the class of an error. Unclassified errors are fatal.
func KindOf(err error) Kind {
	if e, ok := classified(err); ok {
		return e.kind
	}
	return KindFatal
}

// CodeOf returns the code of the outermost classified error, or "Fatal".
func CodeOf(err error) string {
	if e, ok := classified(err); ok {
		return e.code
	}
	return "Fatal"
}

func IsParse(err error) bool         { return err != nil && KindOf(err) == KindParse }
func IsAuthorization(err error) bool { return err != nil && KindOf(err) == KindAuthorization }
func IsDomain(err error) bool        { return err != nil && KindOf(err) == KindDomain }
func IsCollaborator(err error) bool  { return err != nil && KindOf(err) == KindCollaborator }
func IsFatal(err error) bool         { return err != nil && KindOf(err) == KindFatal }
