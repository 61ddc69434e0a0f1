package models

import (
	"fmt"
	"strings"
)

// UnselectedLabel is the placeholder the form shows before a value is picked
const UnselectedLabel = "--- Selecciona ---"

// Choice is a required selection that is either Unselected or holds one value
type Choice[T ~string] struct {
	value    T
	selected bool
}

// Select returns a Choice holding v
func Select[T ~string](v T) Choice[T] {
	return Choice[T]{value: v, selected: true}
}

// Value returns the selected value and whether one was selected
func (c Choice[T]) Value() (T, bool) {
	return c.value, c.selected
}

// IsSelected reports whether a value was picked
func (c Choice[T]) IsSelected() bool {
	return c.selected
}

// ParseChoice maps a form label onto a Choice.
// An empty label or the placeholder yields Unselected; labels outside allowed are rejected.
func ParseChoice[T ~string](label string, allowed []T) (Choice[T], error) {
	label = strings.TrimSpace(label)
	if label == "" || label == UnselectedLabel {
		return Choice[T]{}, nil
	}
	for _, a := range allowed {
		if strings.EqualFold(label, string(a)) {
			return Select(a), nil
		}
	}
	return Choice[T]{}, fmt.Errorf("must be one of: %s", JoinLabels(allowed))
}

// IsAllowed reports whether v is one of allowed
func IsAllowed[T ~string](v T, allowed []T) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

// JoinLabels renders a closed set for error messages
func JoinLabels[T ~string](values []T) string {
	labels := make([]string, len(values))
	for i, v := range values {
		labels[i] = string(v)
	}
	return strings.Join(labels, ", ")
}
