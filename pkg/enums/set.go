package enums

import (
	"fmt"
	"slices"
	"strings"
)

// valueSet is the closed list of values one enum accepts.
type valueSet[T ~string] struct {
	label  string
	values []T
}

func newValueSet[T ~string](label string, values ...T) valueSet[T] {
	return valueSet[T]{label: label, values: values}
}

func (s valueSet[T]) contains(v T) bool {
	return slices.Contains(s.values, v)
}

// parse accepts any casing and surrounding whitespace; clients send
// both "DINE_IN" and "dine_in".
func (s valueSet[T]) parse(raw string) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(raw)))
	if s.contains(v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", s.label, raw)
}
