package storage

import "errors"

var (
	ErrNotFound    = errors.New("entry not found")
	ErrExpired     = errors.New("entry expired")
	ErrInvalidData = errors.New("invalid data")
)
