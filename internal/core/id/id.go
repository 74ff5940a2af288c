// Package id generates document and entity identifiers. IDs are
// UUIDv7: the leading 48 bits carry a Unix timestamp, so rows sort
// chronologically and insert in B-tree order.
package id

import (
	"github.com/google/uuid"
)

// ID identifies an entity.
type ID = uuid.UUID

// New returns a fresh UUIDv7. uuid.NewV7 only errors when the random
// source fails; a V4 stands in for that case.
func New() ID {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v7
}

// Parse validates and converts s into an ID.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse is Parse that panics. For tests and fixtures.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero ID.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether id is the zero ID.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
