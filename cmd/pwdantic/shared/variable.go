package shared

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrUnsupportedValue is returned by Validate for a setting holding a value
// outside its choices.
var ErrUnsupportedValue = errors.New("unsupported value")

// Setting is a CLI value resolved from flags, the environment and the
// config file.
type Setting interface {
	Name() string
	IsSet() bool
	Allowed() error
}

// Validate checks that every setting is set and holds an accepted value.
// Unset settings are reported together.
func Validate(settings ...Setting) error {
	var unset []string
	for _, s := range settings {
		if !s.IsSet() {
			unset = append(unset, strconv.Quote(s.Name()))
			continue
		}
		if err := s.Allowed(); err != nil {
			return err
		}
	}
	switch len(unset) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("missing setting %s", unset[0])
	}
	return fmt.Errorf("missing settings %s", strings.Join(unset, ", "))
}

type Variable[T comparable] struct {
	name    string
	value   T
	choices []T
}

// NewVariable resolves name to the first non-zero value. Sources go from
// the command line flag down to the built-in default.
func NewVariable[T comparable](name string, sources ...T) Variable[T] {
	v := Variable[T]{name: name}
	var zero T
	if i := slices.IndexFunc(sources, func(s T) bool { return s != zero }); i >= 0 {
		v.value = sources[i]
	}
	return v
}

// OneOf restricts the values Validate accepts for v.
func (v Variable[T]) OneOf(choices ...T) Variable[T] {
	v.choices = choices
	return v
}

func (v Variable[T]) Name() string { return v.name }

func (v Variable[T]) IsSet() bool {
	var zero T
	return v.value != zero
}

func (v Variable[T]) Value() T { return v.value }

// Allowed reports whether the value is one of the choices given to OneOf.
// A variable without choices accepts anything.
func (v Variable[T]) Allowed() error {
	if len(v.choices) == 0 || slices.Contains(v.choices, v.value) {
		return nil
	}
	want := make([]string, len(v.choices))
	for i, c := range v.choices {
		want[i] = fmt.Sprint(c)
	}
	return fmt.Errorf("%s: %w %q (want %s)", v.name, ErrUnsupportedValue, fmt.Sprint(v.value), strings.Join(want, ", "))
}
