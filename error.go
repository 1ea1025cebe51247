// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors. Every error returned by this package wraps one of these
// via %w so callers can errors.Is against a stable tag instead of matching
// message text.
var (
	ErrInternal         = errors.New("internal error")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidNotEqual  = errors.New(`invalid "!=" token`)

	// ErrSyntax tags a lexer or parser failure in advanced mode.
	ErrSyntax = errors.New("invalid syntax for query")
	// ErrUnknownVariable tags a reference to an undeclared variable name.
	ErrUnknownVariable = errors.New("unknown variable")
	// ErrUnknownOperator tags an operator not permitted for a variable's kind.
	ErrUnknownOperator = errors.New("unknown operator")
	// ErrBadLiteral tags a value coercion failure.
	ErrBadLiteral = errors.New("bad literal")
	// ErrUnknownValue tags a choice/reference value absent from its universe.
	ErrUnknownValue = errors.New("unknown value")
	// ErrMissingLookupKey tags a reference value-lookup attribute absent on
	// every candidate record.
	ErrMissingLookupKey = errors.New("missing lookup key")
)

// FieldErrors is a structured error report matching the shape mandated by
// the spec: a list of errors with no associated field ("global"), and a map
// of per-variable errors accumulated during simple-mode coercion.
type FieldErrors struct {
	Global []error
	Fields map[string][]error
}

// NewFieldErrors returns an empty, ready to use FieldErrors.
func NewFieldErrors() *FieldErrors {
	return &FieldErrors{Fields: map[string][]error{}}
}

// AddGlobal appends a global (not field-scoped) error.
func (f *FieldErrors) AddGlobal(err error) {
	if err == nil {
		return
	}
	f.Global = append(f.Global, err)
}

// AddField appends an error scoped to one variable's name.
func (f *FieldErrors) AddField(name string, err error) {
	if err == nil {
		return
	}
	if f.Fields == nil {
		f.Fields = map[string][]error{}
	}
	f.Fields[name] = append(f.Fields[name], err)
}

// HasErrors reports whether any global or field error has been recorded.
func (f *FieldErrors) HasErrors() bool {
	if f == nil {
		return false
	}
	if len(f.Global) > 0 {
		return true
	}
	for _, errs := range f.Fields {
		if len(errs) > 0 {
			return true
		}
	}
	return false
}

// Error implements the error interface, rendering a stable, user-visible
// summary of every accumulated error.
func (f *FieldErrors) Error() string {
	if f == nil {
		return ""
	}
	var b strings.Builder
	for _, err := range f.Global {
		fmt.Fprintf(&b, "%s; ", err)
	}
	names := make([]string, 0, len(f.Fields))
	for name := range f.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, err := range f.Fields[name] {
			fmt.Fprintf(&b, "%s: %s; ", name, err)
		}
	}
	return strings.TrimSuffix(b.String(), "; ")
}

// Unwrap supports errors.Is/errors.As traversal across every accumulated
// error, both global and field-scoped.
func (f *FieldErrors) Unwrap() []error {
	if f == nil {
		return nil
	}
	all := make([]error, 0, len(f.Global))
	all = append(all, f.Global...)
	for _, errs := range f.Fields {
		all = append(all, errs...)
	}
	return all
}
