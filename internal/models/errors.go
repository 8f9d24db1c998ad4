package models

import (
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")

	// ErrKeysExhausted means every configured credential for a provider was
	// tried since the last success and all of them failed.
	ErrKeysExhausted = errors.New("all api keys exhausted")
)
