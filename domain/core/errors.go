package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrBatchNotFound  = fmt.Errorf("%w: batch", ErrNotFound)
	ErrColumnNotFound = fmt.Errorf("%w: column", ErrNotFound)

	// Input errors
	ErrNoDataset           = errors.New("no dataset loaded")
	ErrRaggedDataset       = errors.New("dataset columns have unequal lengths")
	ErrEmptyHeader         = errors.New("dataset has no header row")
	ErrDuplicateColumn     = errors.New("duplicate column name")
	ErrTemplatePlaceholder = errors.New("query template has no placeholder")
	ErrEmptyTemplate       = errors.New("query template is empty")
	ErrUnknownChartKind    = errors.New("unknown chart type")
)

// NewColumnNotFoundError names the missing column
func NewColumnNotFoundError(column string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, column)
}

// NewBatchNotFoundError names the missing batch
func NewBatchNotFoundError(id BatchID) error {
	return fmt.Errorf("%w with id %s", ErrBatchNotFound, id)
}

// IsNotFoundError reports whether err is any not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInputError reports whether err stems from bad user input
func IsInputError(err error) bool {
	return errors.Is(err, ErrNoDataset) ||
		errors.Is(err, ErrColumnNotFound) ||
		errors.Is(err, ErrRaggedDataset) ||
		errors.Is(err, ErrEmptyHeader) ||
		errors.Is(err, ErrDuplicateColumn) ||
		errors.Is(err, ErrTemplatePlaceholder) ||
		errors.Is(err, ErrEmptyTemplate) ||
		errors.Is(err, ErrUnknownChartKind)
}
