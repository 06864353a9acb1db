// Package common defines sentinel errors shared by the repositories and the
// services built on top of them. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// ErrorNotFound is returned when a lookup, update or delete matches no row.
	ErrorNotFound = errors.New("not found")

	// ErrorAlreadyExists is returned when an insert hits a unique constraint.
	ErrorAlreadyExists = errors.New("already exists")
)
