// Package marshal holds the rules for strings crossing the C boundary.
// The cgo allocation itself lives in the bridge package; everything here is plain Go.
package marshal

import (
	"errors"
	"strings"
)

// ErrEmbeddedNUL is returned for strings that cannot become NUL-terminated buffers
var ErrEmbeddedNUL = errors.New("string contains an embedded NUL byte")

// CheckTerminable reports whether s can be handed to C as a NUL-terminated buffer
func CheckTerminable(s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return ErrEmbeddedNUL
	}
	return nil
}

// Terminable returns the names that can be converted to C strings, in order.
// Names with an embedded NUL are dropped silently; a file system never produces them.
func Terminable(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if CheckTerminable(name) != nil {
			continue
		}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ListReleasable reports whether a list with the given backing array and count owns memory.
// A zeroed list is the empty sentinel and releasing it does nothing.
func ListReleasable(hasItems bool, count int) bool {
	return hasItems && count > 0
}
