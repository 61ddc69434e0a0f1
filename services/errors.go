package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrWorkbookNotFound is returned by a WorkbookStorage that has nothing persisted yet
var ErrWorkbookNotFound = errors.New("workbook not found")

// ErrSheetNotFound is returned when the workbook lacks the order log sheet
var ErrSheetNotFound = errors.New("sheet not found")

// FieldError describes one rejected form field
type FieldError struct {
	Field   string `json:"field"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

// ValidationError carries every rejected field of a request, not just the first
type ValidationError struct {
	Fields []FieldError
}

// Add records a rejected field
func (e *ValidationError) Add(field, label, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Label: label, Message: message})
}

// HasErrors reports whether any field was rejected
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Labels returns the labels of the rejected fields in the order they were added
func (e *ValidationError) Labels() []string {
	labels := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		labels[i] = f.Label
	}
	return labels
}

func (e *ValidationError) Error() string {
	var missing, invalid []string
	for _, f := range e.Fields {
		if f.Message == msgRequired {
			missing = append(missing, f.Label)
		} else {
			invalid = append(invalid, f.Label+": "+f.Message)
		}
	}

	parts := make([]string, 0, 2)
	if len(missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(missing, ", "))
	}
	parts = append(parts, invalid...)
	return strings.Join(parts, "; ")
}

// NotFoundError is returned when no order carries the requested id
type NotFoundError struct {
	OrderID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.OrderID)
}

// ConflictError is returned when an insert reuses an id already in the log
type ConflictError struct {
	OrderID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("order %s already exists", e.OrderID)
}

// PersistenceError wraps a failure to write the full table back to storage.
// The caller must reload to learn whether the write landed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist workbook during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
