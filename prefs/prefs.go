// Package prefs is a small, generic preferences system: typed cells
// that parse themselves from strings or native values, collected into
// a Disk that loads and saves them as a flat "key :: value" file.
package prefs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scanlime-collective/roboodyssey/rerrors"
)

// WarningBoilerPlate is written as the first line of every saved
// preferences file.
const WarningBoilerPlate = "; this file is written by roboodyssey; edits may be overwritten"

// Pref is anything a Disk can save and load: a value that can be set
// from either a native value or its string encoding, and formatted
// back to that same string encoding.
type Pref interface {
	Set(v any) error
	String() string
}

// Value is a generic preference cell for one of bool, int, float64, or
// string. Construct one with NewBool, NewInt, NewFloat, or NewString;
// the zero Value is not usable, since it has no parse/format
// functions.
type Value[T any] struct {
	value    T
	maxLen   int
	parseFn  func(any) (T, error)
	formatFn func(T) string
}

// Get returns the cell's current value.
func (v *Value[T]) Get() T { return v.value }

// Set assigns the cell's value, parsing in if it isn't already a T.
func (v *Value[T]) Set(in any) error {
	parsed, err := v.parseFn(in)
	if err != nil {
		return err
	}
	if v.maxLen > 0 {
		if s, ok := any(parsed).(string); ok && len(s) > v.maxLen {
			parsed = any(s[:v.maxLen]).(T)
		}
	}
	v.value = parsed
	return nil
}

// SetMaxLen bounds a string Value's length, cropping both the current
// value and any future Set. Meaningless (ignored) for non-string
// Values. A zero n removes the bound without restoring cropped data.
func (v *Value[T]) SetMaxLen(n int) {
	v.maxLen = n
	if n <= 0 {
		return
	}
	if s, ok := any(v.value).(string); ok && len(s) > n {
		v.value = any(s[:n]).(T)
	}
}

// String implements Pref, formatting the current value for disk.
func (v *Value[T]) String() string { return v.formatFn(v.value) }

// NewBool creates a boolean preference cell. Set accepts a bool
// directly, or a string — matched case-insensitively against "true",
// with any other string (rather than an error) meaning false, mirroring
// how a hand-edited prefs file with a stray value should fail soft.
func NewBool() *Value[bool] {
	return &Value[bool]{
		parseFn: func(in any) (bool, error) {
			switch t := in.(type) {
			case bool:
				return t, nil
			case string:
				return strings.EqualFold(strings.TrimSpace(t), "true"), nil
			default:
				return false, rerrors.Errorf("prefs: cannot set a bool from %T", in)
			}
		},
		formatFn: strconv.FormatBool,
	}
}

// NewInt creates an integer preference cell. Set accepts an int
// directly, or a string parsed with strconv.Atoi.
func NewInt() *Value[int] {
	return &Value[int]{
		parseFn: func(in any) (int, error) {
			switch t := in.(type) {
			case int:
				return t, nil
			case string:
				n, err := strconv.Atoi(strings.TrimSpace(t))
				if err != nil {
					return 0, rerrors.Errorf("prefs: cannot parse int from %q", t)
				}
				return n, nil
			default:
				return 0, rerrors.Errorf("prefs: cannot set an int from %T", in)
			}
		},
		formatFn: strconv.Itoa,
	}
}

// NewFloat creates a float64 preference cell. Set accepts a float64
// directly, or a string parsed with strconv.ParseFloat.
func NewFloat() *Value[float64] {
	return &Value[float64]{
		parseFn: func(in any) (float64, error) {
			switch t := in.(type) {
			case float64:
				return t, nil
			case string:
				f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
				if err != nil {
					return 0, rerrors.Errorf("prefs: cannot parse float from %q", t)
				}
				return f, nil
			default:
				return 0, rerrors.Errorf("prefs: cannot set a float from %T", in)
			}
		},
		formatFn: func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) },
	}
}

// NewString creates a string preference cell. Set accepts only a
// string; SetMaxLen bounds its length.
func NewString() *Value[string] {
	return &Value[string]{
		parseFn: func(in any) (string, error) {
			s, ok := in.(string)
			if !ok {
				return "", rerrors.Errorf("prefs: cannot set a string from %T", in)
			}
			return s, nil
		},
		formatFn: func(s string) string { return s },
	}
}

// NewGeneric creates a Pref backed by arbitrary set/get closures,
// for preferences that don't fit the bool/int/float/string cells —
// e.g. a composite value packed into one line.
func NewGeneric(set func(v any) error, get func() any) Pref {
	return &genericPref{set: set, get: get}
}

type genericPref struct {
	set func(v any) error
	get func() any
}

func (g *genericPref) Set(v any) error { return g.set(v) }
func (g *genericPref) String() string  { return fmt.Sprintf("%v", g.get()) }
