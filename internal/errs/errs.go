// internal/errs/errs.go
package errs

import "errors"

// Sentinel errors shared by every library component. Operations wrap them
// with context; callers test with errors.Is.
var (
	// ErrValidation is returned when a required field is missing or empty.
	ErrValidation = errors.New("validation failed")

	// ErrRange is returned when a publication year is outside the accepted bounds.
	ErrRange = errors.New("value out of range")

	// ErrConflict is returned when an operation contradicts the current state.
	ErrConflict = errors.New("conflict")

	// ErrNotFound is returned when an operation references an absent key.
	ErrNotFound = errors.New("not found")

	// ErrFormat is returned when a snapshot document or request body cannot be decoded.
	ErrFormat = errors.New("malformed input")
)

// Kind names used on the wire and in logs.
const (
	KindValidation = "validation"
	KindRange      = "range"
	KindConflict   = "conflict"
	KindNotFound   = "not_found"
	KindFormat     = "format"
	KindInternal   = "internal"
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrValidation, KindValidation},
	{ErrRange, KindRange},
	{ErrConflict, KindConflict},
	{ErrNotFound, KindNotFound},
	{ErrFormat, KindFormat},
}

// KindOf classifies err. Errors that wrap none of the sentinels are internal.
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return KindInternal
}

// FromKind returns the sentinel for a kind name, or nil for unknown kinds.
func FromKind(kind string) error {
	for _, k := range kinds {
		if k.name == kind {
			return k.err
		}
	}
	return nil
}
