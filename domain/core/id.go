package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// v7 keeps batch history sortable by creation time
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	BatchID   ID
	DatasetID ID
)

func (id BatchID) String() string   { return ID(id).String() }
func (id DatasetID) String() string { return ID(id).String() }

// IsEmpty checks if the batch ID is empty
func (id BatchID) IsEmpty() bool { return id == "" }

// NewBatchID returns a fresh batch identifier
func NewBatchID() BatchID { return BatchID(NewID()) }

// NewDatasetID returns a fresh dataset identifier
func NewDatasetID() DatasetID { return DatasetID(NewID()) }

// ParseBatchID parses a string into BatchID
func ParseBatchID(s string) (BatchID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("batch ID cannot be empty")
	}
	return BatchID(strings.TrimSpace(s)), nil
}
