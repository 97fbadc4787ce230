package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("destination already exists")
	ErrIdentityMismatch = errors.New("identity mismatch")
	ErrLinkFailed       = errors.New("link operation failed")
	ErrFilesystem       = errors.New("filesystem operation failed")

	ErrProfileNotFound = fmt.Errorf("profile %w", ErrNotFound)
	ErrSharedNotFound  = fmt.Errorf("shared entry %w", ErrNotFound)
	ErrSourceNotFound  = fmt.Errorf("source copy %w", ErrNotFound)
)

// Kind classifies an Error.
type Kind int

const (
	KindFilesystem Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindIdentityMismatch
	KindLinkFailure
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindIdentityMismatch:
		return "identity_mismatch"
	case KindLinkFailure:
		return "link_failure"
	default:
		return "filesystem"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	case KindIdentityMismatch:
		return ErrIdentityMismatch
	case KindLinkFailure:
		return ErrLinkFailed
	default:
		return ErrFilesystem
	}
}

// Error is a classified failure from the profile or shared-pool layer.
// Details holds itemized, user-correctable information (e.g. fingerprint differences).
type Error struct {
	Kind    Kind
	Op      string
	Path    string
	Msg     string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Details) > 0 {
		b.WriteString("\n  ")
		b.WriteString(strings.Join(e.Details, "\n  "))
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind, so errors.Is(err, ErrConflict) works
// regardless of the underlying OS error.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// NewError builds an Error without an underlying cause.
func NewError(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// WrapError builds an Error around an underlying cause. Returns nil when err is nil.
func WrapError(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Path: path, Msg: kind.String(), Err: err}
}

// WithDetails attaches itemized details.
func (e *Error) WithDetails(details ...string) *Error {
	e.Details = append(e.Details, details...)
	return e
}

// KindOf returns the kind of err, or KindFilesystem when err is not an *Error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindFilesystem
}

// DetailsOf returns the itemized details attached to err, if any.
func DetailsOf(err error) []string {
	var de *Error
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}
