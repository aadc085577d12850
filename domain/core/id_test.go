package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseBatchID tests batch ID parsing
func TestParseBatchID(t *testing.T) {
	tests := []struct {
		input    string
		expected BatchID
		hasError bool
	}{
		{"batch-123", BatchID("batch-123"), false},
		{"  batch-456 ", BatchID("batch-456"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseBatchID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

func TestErrorClassification(t *testing.T) {
	if !IsNotFoundError(NewColumnNotFoundError("Country")) {
		t.Error("column not found should classify as not found")
	}
	if !IsInputError(NewColumnNotFoundError("Country")) {
		t.Error("column not found should classify as input error")
	}
	if !IsNotFoundError(NewBatchNotFoundError("b-1")) {
		t.Error("batch not found should classify as not found")
	}
	if IsInputError(NewBatchNotFoundError("b-1")) {
		t.Error("batch not found is not an input error")
	}
}

func TestHashShort(t *testing.T) {
	h := NewHash([]byte("Chile,Peru"))
	if len(h.String()) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h.String()))
	}
	if h.Short() != h.String()[:12] {
		t.Errorf("Short() = %s, want prefix of %s", h.Short(), h)
	}
}
