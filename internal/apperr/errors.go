// Package apperr holds the sentinel errors shared by the service layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrCounterExhausted is returned when every counter in the rename range is taken.
	ErrCounterExhausted = errors.New("no free counter in range")
	ErrEmptyName        = errors.New("new name is empty")
	ErrUnchanged        = errors.New("name is unchanged")
	ErrNameTooLong      = errors.New("name exceeds length limit")

	// ErrInvalidName is returned for names that are empty, reach outside the
	// gallery root or do not refer to a regular file.
	ErrInvalidName = errors.New("invalid name")
)
