// Package pkgname validates package identifiers before they are used to
// build filesystem paths and process arguments.
//
// The grammar follows the crates.io registry: the first character is an ASCII
// letter or digit, the rest are ASCII letters, digits, '_' or '-'. Names that
// pass can't be read as a command line flag or a path fragment.
package pkgname

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned by Validate for names outside the grammar.
var ErrInvalid = errors.New("invalid package name")

// Valid reports whether name is a well formed package identifier.
func Valid(name string) bool {
	if name == "" || !isAlnum(name[0]) {
		return false
	}

	for i := 1; i < len(name); i++ {
		c := name[i]
		if !isAlnum(c) && c != '_' && c != '-' {
			return false
		}
	}

	return true
}

// Validate is Valid with an error naming the rejected input.
func Validate(name string) error {
	if !Valid(name) {
		return fmt.Errorf("%w: %q", ErrInvalid, name)
	}
	return nil
}

// Bytes are checked one at a time, any byte of a multi-byte UTF-8 sequence
// is >= 0x80 and fails here.
func isAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
