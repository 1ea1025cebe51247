// Copyright (c) HashiCorp, Inc.

package query

import "fmt"

// compileSimple implements the simple-form compiler (§4.4): it reads one
// raw value per form_included Variable plus an optional freetext term, and
// produces a raw (uncoerced) Predicate AST plus the FieldErrors accumulated
// while coercing values that don't parse. A variable with no submitted
// value, or only an empty one, is omitted entirely rather than contributing
// a leaf — matching the "omitting an empty-value field is equivalent to
// omitting the field" property in §8.
func compileSimple(schema *Schema, r RequestValues, freetextParam string) (Node, *FieldErrors) {
	errs := NewFieldErrors()

	var fieldLeaves []Node
	for _, v := range schema.FormVariables() {
		leaf, ok, err := compileSimpleField(v, r)
		if err != nil {
			errs.AddField(v.Name, err)
			continue
		}
		if ok {
			fieldLeaves = append(fieldLeaves, leaf)
		}
	}

	var freetextGroup Node
	if term, ok := firstValue(r, freetextParam); ok {
		freetextGroup = compileFreetext(schema, term)
	}

	switch {
	case len(fieldLeaves) == 0 && freetextGroup == nil:
		return True, errs
	case freetextGroup == nil:
		return NewAnd(fieldLeaves...), errs
	case len(fieldLeaves) == 0:
		return freetextGroup, errs
	default:
		return NewAnd(append(fieldLeaves, freetextGroup)...), errs
	}
}

// compileSimpleField builds one Variable's leaf, per the default-op table
// in §4.4: "=" for numeric/boolean/choice/date kinds, contains (case folded
// by lowering per the Variable's CaseSensitive flag) for string kinds. A
// choice-set Variable with more than one submitted value builds a single
// ChoiceSet leaf rather than one leaf per value.
func compileSimpleField(v Variable, r RequestValues) (leaf Node, present bool, err error) {
	if v.Kind == ChoiceSetKind {
		raws := allValues(r, v.Name)
		if len(raws) == 0 {
			return nil, false, nil
		}
		if v.Choices != nil {
			choices, cerr := v.Choices()
			if cerr != nil {
				return nil, false, cerr
			}
			v.Choices = func() ([]Choice, error) { return choices, nil }
		}
		refs := make([]Value, 0, len(raws))
		for _, raw := range raws {
			ref, cerr := coerceChoiceLiteral(v, raw)
			if cerr != nil {
				return nil, false, cerr
			}
			refs = append(refs, ref)
		}
		return NewCoercedLeaf(v.Name, EqualOp, NewChoiceSet(refs)), true, nil
	}

	raw, ok := firstValue(r, v.Name)
	if !ok {
		return nil, false, nil
	}

	op := defaultSimpleOp(v.Kind)
	value, cerr := coerceSimpleValue(v, raw)
	if cerr != nil {
		return nil, false, cerr
	}
	return NewCoercedLeaf(v.Name, op, value), true, nil
}

// defaultSimpleOp is the §4.4 default-operator table: string kinds compare
// with contains, everything else with equality.
func defaultSimpleOp(k Kind) Op {
	if k.isString() {
		return ContainsOp
	}
	return EqualOp
}

// coerceSimpleValue coerces a simple-form field's raw text the same way
// lowering coerces an advanced-query literal for the same Kind, without the
// identifier/FieldRef special-casing that only applies to parsed query
// text (a form submission is never a bare identifier referencing another
// variable).
func coerceSimpleValue(v Variable, raw string) (Value, error) {
	switch v.Kind {
	case StringKind, SubstringKind, CaseSensitiveStringKind:
		return NewStringValue(raw), nil
	case EmailKind:
		return coerceEmail(raw)
	case URLKind:
		return coerceURL(raw)
	case IntegerKind:
		return coerceInteger(raw)
	case FloatKind:
		return coerceFloat(raw)
	case DecimalKind:
		return coerceDecimal(raw)
	case BooleanKind:
		return coerceBoolean(raw)
	case DateKind:
		return coerceDate(raw)
	case DateTimeKind:
		return coerceDateTime(raw)
	case ChoiceKind, ReferenceKind:
		return coerceChoiceLiteral(v, raw)
	default:
		return Value{}, fmt.Errorf("query.coerceSimpleValue: %w: %q has unsupported kind for simple mode", ErrInternal, v.Name)
	}
}

// coerceChoiceLiteral resolves raw against v's choice universe. Unlike
// lowering's coerceChoice, this has no lowerer to memoize the resolver
// against; compileSimpleField resolves a choice-set Variable's universe
// once before coercing each of its submitted values, so every Variable's
// resolver still runs at most once per BoundQuery, since compileSimple runs
// once per BoundQuery.
func coerceChoiceLiteral(v Variable, raw string) (Value, error) {
	if v.Choices == nil {
		return Value{}, fmt.Errorf("query.coerceChoiceLiteral: %w: %q has no choice resolver", ErrInternal, v.Name)
	}
	choices, err := v.Choices()
	if err != nil {
		return Value{}, err
	}
	if v.Kind == ReferenceKind {
		return resolveReference(&v, choices, raw)
	}
	for _, c := range choices {
		if c.Lookup == raw {
			return NewChoiceRef(c.ID, c.Label), nil
		}
	}
	return Value{}, fmt.Errorf("%w: %q is not a valid choice for %q", ErrUnknownValue, raw, v.Name)
}

// compileFreetext builds the OR-group over every freetext=true Variable,
// each compared with contains against term (§3: "case-insensitive unless
// the variable is case sensitive" — lowering applies that fold from each
// Variable's CaseSensitive flag, same as it does for an advanced query's
// : operator).
func compileFreetext(schema *Schema, term string) Node {
	vars := schema.FreetextVariables()
	if len(vars) == 0 {
		return nil
	}
	leaves := make([]Node, len(vars))
	for i, v := range vars {
		leaves[i] = NewCoercedLeaf(v.Name, ContainsOp, NewFreetextValue(term))
	}
	return NewOr(leaves...)
}
