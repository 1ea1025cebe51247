// Copyright (c) HashiCorp, Inc.

package query

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Choice is one element of a Variable's choice universe: a stable identity,
// the display label, and the lookup text a choice/choice-set literal is
// matched against. Attrs additionally carries the referenced record's named
// attributes for a reference Variable, keyed by attribute name (e.g.
// "name", "email"), so ValueLookupKey can select which one a raw token is
// matched against (§4.3).
type Choice struct {
	ID     uuid.UUID
	Label  string
	Lookup string
	Attrs  map[string]string
}

// ChoiceResolver lazily produces the choice universe for a choice,
// choice-set or reference Variable. A BoundQuery invokes it at most once
// and memoizes the result for its own lifetime (§5).
type ChoiceResolver func() ([]Choice, error)

// Variable is an immutable descriptor of one filterable field. Variables
// are declared once, as a Schema, and shared safely across concurrent
// BoundQuery instances.
type Variable struct {
	Name           string
	Attr           *string
	Kind           Kind
	CaseSensitive  bool
	Freetext       bool
	Choices        ChoiceResolver
	ValueLookupKey string
	FormIncluded   bool
}

// AllowedOps returns the set of advanced-query operators legal against this
// Variable, derived from its Kind.
func (v Variable) AllowedOps() map[Op]bool {
	return v.Kind.allowedOps()
}

// AllowsOp reports whether op is legal for this Variable.
func (v Variable) AllowsOp(op Op) bool {
	return v.Kind.allowedOps()[op]
}

// VariableOption configures a Variable at construction time.
type VariableOption func(*Variable)

// WithAttr sets the dotted backend attribute path. Passing "" marks the
// Variable as decorative (not backed): its leaves are dropped at lowering.
func WithAttr(path string) VariableOption {
	return func(v *Variable) {
		if path == "" {
			v.Attr = nil
			return
		}
		p := path
		v.Attr = &p
	}
}

// WithFreetext marks a Variable as participating in the freetext OR-group.
func WithFreetext() VariableOption {
	return func(v *Variable) { v.Freetext = true }
}

// WithCaseSensitiveVar overrides the Kind's default case sensitivity.
func WithCaseSensitiveVar(sensitive bool) VariableOption {
	return func(v *Variable) { v.CaseSensitive = sensitive }
}

// WithChoices supplies the (possibly lazy) choice universe for choice,
// choice-set and reference Variables.
func WithChoices(resolver ChoiceResolver) VariableOption {
	return func(v *Variable) { v.Choices = resolver }
}

// WithValueLookupKey sets the attribute name a reference Variable's raw
// token is matched against. Defaults to "name".
func WithValueLookupKey(key string) VariableOption {
	return func(v *Variable) { v.ValueLookupKey = key }
}

// WithFormIncluded marks a Variable as eligible for simple-form submission.
func WithFormIncluded() VariableOption {
	return func(v *Variable) { v.FormIncluded = true }
}

func newVariable(name string, kind Kind, opts ...VariableOption) Variable {
	v := Variable{
		Name:           name,
		Kind:           kind,
		CaseSensitive:  kind.defaultCaseSensitive(),
		ValueLookupKey: "name",
	}
	for _, opt := range opts {
		opt(&v)
	}
	return v
}

// The following free functions are "shortcuts": preconfigured Variable
// constructors for each Kind, in place of the class-hierarchy shortcuts a
// dynamically typed implementation would use.

func String(name string, opts ...VariableOption) Variable {
	return newVariable(name, StringKind, opts...)
}

func Substring(name string, opts ...VariableOption) Variable {
	return newVariable(name, SubstringKind, opts...)
}

func CaseSensitiveString(name string, opts ...VariableOption) Variable {
	return newVariable(name, CaseSensitiveStringKind, opts...)
}

func Integer(name string, opts ...VariableOption) Variable {
	return newVariable(name, IntegerKind, opts...)
}

func Float(name string, opts ...VariableOption) Variable {
	return newVariable(name, FloatKind, opts...)
}

func Decimal(name string, opts ...VariableOption) Variable {
	return newVariable(name, DecimalKind, opts...)
}

func Boolean(name string, opts ...VariableOption) Variable {
	return newVariable(name, BooleanKind, opts...)
}

func Date(name string, opts ...VariableOption) Variable {
	return newVariable(name, DateKind, opts...)
}

func DateTimeVar(name string, opts ...VariableOption) Variable {
	return newVariable(name, DateTimeKind, opts...)
}

func Email(name string, opts ...VariableOption) Variable {
	return newVariable(name, EmailKind, opts...)
}

func URL(name string, opts ...VariableOption) Variable {
	return newVariable(name, URLKind, opts...)
}

func ChoiceVar(name string, resolver ChoiceResolver, opts ...VariableOption) Variable {
	opts = append([]VariableOption{WithChoices(resolver)}, opts...)
	return newVariable(name, ChoiceKind, opts...)
}

func ChoiceSetVar(name string, resolver ChoiceResolver, opts ...VariableOption) Variable {
	opts = append([]VariableOption{WithChoices(resolver)}, opts...)
	return newVariable(name, ChoiceSetKind, opts...)
}

func ReferenceVar(name string, resolver ChoiceResolver, opts ...VariableOption) Variable {
	opts = append([]VariableOption{WithChoices(resolver)}, opts...)
	return newVariable(name, ReferenceKind, opts...)
}

// defaultFactoryRegistry is the process-wide, rarely-written, mostly-read
// registry mapping a backend-schema field Kind to the shortcut that builds
// a default Variable for it (§5). It exists so a model-introspection
// helper — out of scope per §1 — can auto-generate Variables without this
// package knowing anything about struct tags or ORMs.
var (
	defaultFactoryMu       sync.RWMutex
	defaultFactoryRegistry = map[Kind]func(name string) Variable{
		StringKind:    func(name string) Variable { return String(name) },
		IntegerKind:   func(name string) Variable { return Integer(name) },
		FloatKind:     func(name string) Variable { return Float(name) },
		DecimalKind:   func(name string) Variable { return Decimal(name) },
		BooleanKind:   func(name string) Variable { return Boolean(name) },
		DateKind:      func(name string) Variable { return Date(name) },
		DateTimeKind:  func(name string) Variable { return DateTimeVar(name) },
		EmailKind:     func(name string) Variable { return Email(name) },
		URLKind:       func(name string) Variable { return URL(name) },
	}
)

// RegisterDefaultFactory installs (or replaces) the default Variable
// factory used for a Kind. Intended to be called during package
// initialization by a host application's model-introspection layer, not at
// request time.
func RegisterDefaultFactory(kind Kind, factory func(name string) Variable) {
	defaultFactoryMu.Lock()
	defer defaultFactoryMu.Unlock()
	defaultFactoryRegistry[kind] = factory
}

// DefaultFactory looks up the registered default Variable factory for a
// Kind, if any.
func DefaultFactory(kind Kind) (func(name string) Variable, bool) {
	defaultFactoryMu.RLock()
	defer defaultFactoryMu.RUnlock()
	f, ok := defaultFactoryRegistry[kind]
	return f, ok
}

// Schema is the immutable, named set of Variables a BoundQuery validates
// against. A Schema is safe to share across concurrently bound queries.
type Schema struct {
	vars   []Variable
	byName map[string]*Variable
}

// NewSchema builds a Schema from a declaration-ordered list of Variables.
// Declaration order is preserved and observable in simple-mode
// to_query_string output (§5).
func NewSchema(vars ...Variable) (*Schema, error) {
	s := &Schema{
		vars:   make([]Variable, len(vars)),
		byName: make(map[string]*Variable, len(vars)),
	}
	copy(s.vars, vars)
	for i := range s.vars {
		name := s.vars[i].Name
		if name == "" {
			return nil, fmt.Errorf("query.NewSchema: %w: variable at index %d has no name", ErrInvalidParameter, i)
		}
		if _, dup := s.byName[name]; dup {
			return nil, fmt.Errorf("query.NewSchema: %w: duplicate variable name %q", ErrInvalidParameter, name)
		}
		s.byName[name] = &s.vars[i]
	}
	return s, nil
}

// Variable looks up a declared Variable by name.
func (s *Schema) Variable(name string) (*Variable, bool) {
	v, ok := s.byName[name]
	return v, ok
}

// Variables returns every declared Variable, in declaration order.
func (s *Schema) Variables() []Variable {
	return s.vars
}

// FreetextVariables returns the declared Variables, in declaration order,
// that participate in the freetext OR-group.
func (s *Schema) FreetextVariables() []Variable {
	var out []Variable
	for _, v := range s.vars {
		if v.Freetext {
			out = append(out, v)
		}
	}
	return out
}

// FormVariables returns the declared Variables, in declaration order, that
// the simple-form compiler considers.
func (s *Schema) FormVariables() []Variable {
	var out []Variable
	for _, v := range s.vars {
		if v.FormIncluded {
			out = append(out, v)
		}
	}
	return out
}

// resolveReference matches raw against a reference Variable's choice
// universe by its ValueLookupKey attribute (§4.3: "a textual token is
// looked up in choices by value_lookup_key ... if the referenced record
// lacks that attribute, an informative error names candidate attributes").
// Unlike choice/choice-set resolution, which always matches Choice.Lookup,
// a reference Variable's raw token is matched against Choice.Attrs[key].
func resolveReference(v *Variable, choices []Choice, raw string) (Value, error) {
	key := v.ValueLookupKey
	if key == "" {
		key = "name"
	}
	var present bool
	for _, c := range choices {
		val, ok := c.Attrs[key]
		if !ok {
			continue
		}
		present = true
		if val == raw {
			return NewChoiceRef(c.ID, c.Label), nil
		}
	}
	if !present {
		return Value{}, fmt.Errorf("%w: %q has no %q attribute; candidates: %s",
			ErrMissingLookupKey, v.Name, key, candidateAttrs(choices))
	}
	return Value{}, fmt.Errorf("%w: %q is not a valid choice for %q", ErrUnknownValue, raw, v.Name)
}

// candidateAttrs lists, sorted and deduplicated, every attribute name
// present across choices' Attrs maps, for ErrMissingLookupKey's message.
func candidateAttrs(choices []Choice) string {
	seen := map[string]bool{}
	var names []string
	for _, c := range choices {
		for k := range c.Attrs {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
