package entity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Settings errors
	ErrClientNotFound = errors.New("client not found")
	ErrClientExists   = errors.New("client already exists")

	// Prompt errors
	ErrPromptNotFound  = errors.New("prompt not found")
	ErrInvalidCategory = errors.New("invalid prompt category")

	// Database errors
	ErrDatabaseNotFound     = errors.New("database not found")
	ErrDatabaseNotConnected = errors.New("database is not connected")
	ErrDatabaseConnection   = errors.New("database connection failed")
	ErrVectorStoreNotFound  = errors.New("vector store not found")
	ErrVectorStoreConflict  = errors.New("vector store table already used by another alias")

	// Chat errors
	ErrEmptyConversation = errors.New("conversation has no user message")
	ErrModelUnavailable  = errors.New("language model is not available")

	// File errors
	ErrInvalidFile       = errors.New("invalid file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrTooManyFiles      = errors.New("too many files")
	ErrInvalidExtension  = errors.New("invalid file extension")
	ErrTotalSizeTooLarge = errors.New("total file size too large")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// DetailError carries the user-facing message returned as the response detail.
type DetailError struct {
	Err    error
	Detail string
}

func (e *DetailError) Error() string {
	return e.Detail
}

func (e *DetailError) Unwrap() error {
	return e.Err
}

// WithDetail attaches a user-facing message to a domain error.
func WithDetail(err error, format string, args ...any) error {
	return &DetailError{Err: err, Detail: fmt.Sprintf(format, args...)}
}
