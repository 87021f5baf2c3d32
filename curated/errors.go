// Package curated is a helper for the plain Go error interface. Curated
// errors are created with Errorf(), a pattern plus placeholder values, in
// the manner of fmt.Errorf. Is() and Has() let callers test an error chain
// against the originating pattern without string-matching the formatted
// message, and Error() drops the first part of the message when it repeats
// the second, so that wrapping a curated error in a pattern with the same
// prefix doesn't produce a message like "error: error: not yet
// implemented". Repeats further along the message are kept.
package curated

import (
	"fmt"
	"strings"
)

// curated is an implementation of the go language error interface.
type curated struct {
	pattern string
	values  []interface{}
}

// Errorf creates a new curated error. Note that unlike fmt.Errorf the first
// argument is named "pattern" not "format": it doubles as the identity used
// by Is() and Has().
func Errorf(pattern string, values ...interface{}) error {
	return curated{
		pattern: pattern,
		values:  values,
	}
}

// Error returns the normalised error message: adjacent duplicate parts of
// the ": "-separated chain are collapsed to one.
func (er curated) Error() string {
	s := fmt.Errorf(er.pattern, er.values...).Error()

	p := strings.SplitN(s, ": ", 3)
	if len(p) > 1 && p[0] == p[1] {
		return strings.Join(p[1:], ": ")
	}

	return strings.Join(p, ": ")
}

// IsAny reports whether err was created by Errorf().
func IsAny(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(curated)
	return ok
}

// Is reports whether err is a curated error created with the given pattern.
func Is(err error, pattern string) bool {
	if err == nil {
		return false
	}
	if er, ok := err.(curated); ok {
		return er.pattern == pattern
	}
	return false
}

// Has reports whether pattern appears anywhere in err's curated chain.
func Has(err error, pattern string) bool {
	if err == nil {
		return false
	}
	if !IsAny(err) {
		return false
	}
	if Is(err, pattern) {
		return true
	}
	for _, v := range err.(curated).values {
		if e, ok := v.(curated); ok {
			if Has(e, pattern) {
				return true
			}
		}
	}
	return false
}
