package models

import (
	"fmt"
	"slices"
	"strings"
)

// Stability is the advisory classification of an operation's API contract
type Stability string

const (
	StabilityStable       Stability = "stable"
	StabilityExperimental Stability = "experimental"
	StabilityDeprecated   Stability = "deprecated"
)

// Operation describes one remote operation of a service: how it is routed
// and which schemas its bodies follow
type Operation struct {
	Name      string    `json:"name"`
	Title     string    `json:"title,omitempty"`
	Method    string    `json:"method"`
	Route     string    `json:"route"`
	Args      []string  `json:"args"`
	Input     string    `json:"input,omitempty"`
	Output    string    `json:"output,omitempty"`
	Stability Stability `json:"stability"`
}

// Clone returns a deep copy of the operation
func (o Operation) Clone() Operation {
	o.Args = slices.Clone(o.Args)
	if o.Args == nil {
		o.Args = []string{}
	}
	return o
}

// HasBody reports whether the operation takes a request body
func (o Operation) HasBody() bool {
	return o.Input != ""
}

// Placeholders returns the names of the {placeholder} segments of the route,
// in the order they appear
func (o Operation) Placeholders() []string {
	var names []string
	rest := o.Route
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			return names
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			return names
		}
		names = append(names, rest[start+1:start+end])
		rest = rest[start+end+1:]
	}
}

// CheckArgs verifies that the route placeholders match Args in count and order
func (o Operation) CheckArgs() error {
	placeholders := o.Placeholders()
	if !slices.Equal(placeholders, o.Args) {
		return fmt.Errorf("operation %s: route %s has placeholders %v, args are %v", o.Name, o.Route, placeholders, o.Args)
	}
	return nil
}

// ExpandRoute substitutes the caller's positional values into the route.
// Each value is passed through escape first (nil leaves values untouched).
func (o Operation) ExpandRoute(values []string, escape func(string) string) (string, error) {
	if len(values) != len(o.Args) {
		return "", fmt.Errorf("%s takes %d positional argument(s) %v, got %d", o.Name, len(o.Args), o.Args, len(values))
	}

	var b strings.Builder
	rest := o.Route
	for i, name := range o.Args {
		val := values[i]
		if val == "" {
			return "", fmt.Errorf("%s: positional argument %q must not be empty", o.Name, name)
		}
		if escape != nil {
			val = escape(val)
		}
		placeholder := "{" + name + "}"
		idx := strings.Index(rest, placeholder)
		if idx < 0 {
			return "", fmt.Errorf("%s: route %s has no placeholder %s", o.Name, o.Route, placeholder)
		}
		// values are never scanned for placeholders
		b.WriteString(rest[:idx])
		b.WriteString(val)
		rest = rest[idx+len(placeholder):]
	}
	b.WriteString(rest)
	return b.String(), nil
}
