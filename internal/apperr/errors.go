// Package apperr defines the sentinel errors shared across the vault engine.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
	ErrInvalidName   = errors.New("invalid name")
	ErrSelfMove      = errors.New("cannot move an item into itself or its own subtree")
)
