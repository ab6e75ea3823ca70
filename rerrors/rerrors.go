// Package rerrors provides curated errors for the engine: constructed
// with a message and arguments, printed with duplicate adjacent parts
// collapsed so wrapping a curated error in another curated error of the
// same message doesn't repeat itself.
package rerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Values is the argument list passed to Errorf.
type Values []interface{}

type curated struct {
	message string
	values  Values
}

// Errorf creates a new curated error from message and values, which are
// interpolated as with fmt.Errorf (including %w wrapping).
func Errorf(message string, values ...interface{}) error {
	return curated{message: message, values: values}
}

// Error implements the error interface, normalising the message by
// collapsing a repeated leading part ("x: x: ..." becomes "x: ...").
// Only the first two parts are compared.
func (e curated) Error() string {
	s := fmt.Errorf(e.message, e.values...).Error()

	p := strings.SplitN(s, ": ", 3)
	if len(p) > 1 && p[0] == p[1] {
		return strings.Join(p[1:], ": ")
	}
	return strings.Join(p, ": ")
}

// Unwrap supports errors.Is/As against any %w-wrapped value in values.
func (e curated) Unwrap() error {
	for _, v := range e.values {
		if err, ok := v.(error); ok {
			return err
		}
	}
	return nil
}

// Is reports whether err is a curated error with the given message head.
func Is(err error, head string) bool {
	var c curated
	if errors.As(err, &c) {
		return c.message == head
	}
	return false
}

// Sentinel categories returned by facade/filesystem/process operations
// that callers are expected to check with errors.Is.
var (
	ErrUnsupportedInterrupt     = errors.New("unsupported interrupt")
	ErrStackTagMismatch         = errors.New("shadow stack tag mismatch")
	ErrStuckLoop                = errors.New("stuck translated loop")
	ErrUnknownFile              = errors.New("unknown file")
	ErrFileDescriptorExhaustion = errors.New("file descriptor table exhausted")
	ErrDynamicBranch            = errors.New("failed dynamic branch")
	ErrSaveVersion              = errors.New("unrecognized save version")
)
