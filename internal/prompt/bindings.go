package prompt

import (
	"errors"
	"slices"
	"strings"
)

// ErrEmptyVariableName is returned when a variable is upserted without a name
var ErrEmptyVariableName = errors.New("variable name is required")

// Variable binds a token name to its candidate values
type Variable struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

func (v Variable) clone() Variable {
	return Variable{Name: v.Name, Values: slices.Clone(v.Values)}
}

// Bindings is an insertion-ordered collection of variables keyed by name.
// It is not safe for concurrent use; the owning service serializes access.
type Bindings struct {
	vars []Variable
}

// NewBindings creates an empty collection
func NewBindings() *Bindings {
	return &Bindings{}
}

// Upsert replaces the variable with the same name in place or appends it.
// A leading marker on the name is dropped.
func (b *Bindings) Upsert(v Variable) error {
	v.Name = strings.TrimPrefix(strings.TrimSpace(v.Name), Marker)
	if v.Name == "" {
		return ErrEmptyVariableName
	}
	v = v.clone()
	if ix := b.index(v.Name); ix > -1 {
		b.vars[ix] = v
		return nil
	}
	b.vars = append(b.vars, v)
	return nil
}

// Remove deletes the named variable; absent names are ignored
func (b *Bindings) Remove(name string) {
	name = strings.TrimPrefix(name, Marker)
	if ix := b.index(name); ix > -1 {
		b.vars = slices.Delete(b.vars, ix, ix+1)
	}
}

// Clear drops every variable
func (b *Bindings) Clear() {
	b.vars = nil
}

// Get returns a copy of the named variable
func (b *Bindings) Get(name string) (Variable, bool) {
	if ix := b.index(strings.TrimPrefix(name, Marker)); ix > -1 {
		return b.vars[ix].clone(), true
	}
	return Variable{}, false
}

// List returns a copy of all variables in insertion order
func (b *Bindings) List() []Variable {
	out := make([]Variable, len(b.vars))
	for i, v := range b.vars {
		out[i] = v.clone()
	}
	return out
}

// Len returns the number of bound variables
func (b *Bindings) Len() int {
	return len(b.vars)
}

func (b *Bindings) index(name string) int {
	return slices.IndexFunc(b.vars, func(v Variable) bool { return v.Name == name })
}
