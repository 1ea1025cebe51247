// Copyright (c) HashiCorp, Inc.

package query

import "fmt"

// BackendPredicate is an opaque, backend-native predicate fragment produced
// by a BackendAdapter. sql.Adapter returns a WhereClause; memory.Adapter
// returns a record-matching func. This package never looks inside it.
type BackendPredicate any

// BackendAdapter lowers a schema-validated, coerced Predicate AST into a
// backend-native predicate. Every method receives already-validated inputs:
// lowering has already confirmed the Variable exists, the Op is legal for
// its Kind, and Value was coerced successfully.
type BackendAdapter interface {
	// LowerLeaf lowers a single comparison against a backend attribute path.
	LowerLeaf(attr string, op Op, value Value) (BackendPredicate, error)
	// Conjunction combines n >= 1 predicates with logical AND.
	Conjunction(preds []BackendPredicate) (BackendPredicate, error)
	// Disjunction combines n >= 1 predicates with logical OR.
	Disjunction(preds []BackendPredicate) (BackendPredicate, error)
	// Negation negates a single predicate.
	Negation(pred BackendPredicate) (BackendPredicate, error)
	// Identity returns the backend's representation of "match everything".
	Identity() BackendPredicate
}

// lowerer holds the per-BoundQuery state lowering needs: the schema to
// validate variable names and operators against, and the memoized choice
// resolutions for choice/choice-set/reference Variables (§5: a resolver is
// invoked at most once per bound query).
type lowerer struct {
	schema       *Schema
	adapter      BackendAdapter
	choiceCache  map[string][]Choice
	errs         *FieldErrors
	advancedMode bool
}

func newLowerer(schema *Schema, adapter BackendAdapter, advancedMode bool) *lowerer {
	return &lowerer{
		schema:       schema,
		adapter:      adapter,
		choiceCache:  map[string][]Choice{},
		errs:         NewFieldErrors(),
		advancedMode: advancedMode,
	}
}

// lower walks n, coercing and validating every leaf and lowering it through
// the adapter. In advanced mode the first error aborts the walk (§7:
// fail-fast). In simple mode every leaf is attempted independently and a
// failing one is dropped from its enclosing And/Or, with the error recorded
// against its Variable's name (§7: permissive, per-field).
func (lw *lowerer) lower(n Node) (BackendPredicate, error) {
	switch t := n.(type) {
	case *TrueNode:
		return lw.adapter.Identity(), nil
	case *AndNode:
		return lw.lowerChildren(t.Children, lw.adapter.Conjunction)
	case *OrNode:
		return lw.lowerChildren(t.Children, lw.adapter.Disjunction)
	case *NotNode:
		child, err := lw.lower(t.Child)
		if err != nil {
			return nil, err
		}
		return lw.adapter.Negation(child)
	case *LeafNode:
		return lw.lowerLeaf(t)
	default:
		return nil, fmt.Errorf("query.lower: %w: unrecognized node type %T", ErrInternal, n)
	}
}

func (lw *lowerer) lowerChildren(children []Node, combine func([]BackendPredicate) (BackendPredicate, error)) (BackendPredicate, error) {
	preds := make([]BackendPredicate, 0, len(children))
	for _, c := range children {
		pred, err := lw.lower(c)
		if err != nil {
			if lw.advancedMode {
				return nil, err
			}
			// Simple mode already recorded the error against its field in
			// lowerLeaf; drop this child and keep going.
			continue
		}
		if pred == nil {
			// A decorative (unattached) Variable's leaf lowers to nothing.
			continue
		}
		preds = append(preds, pred)
	}
	if len(preds) == 0 {
		return lw.adapter.Identity(), nil
	}
	if len(preds) == 1 {
		return preds[0], nil
	}
	return combine(preds)
}

func (lw *lowerer) lowerLeaf(leaf *LeafNode) (BackendPredicate, error) {
	v, ok := lw.schema.Variable(leaf.Variable)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownVariable, leaf.Variable)
		lw.recordGlobal(err)
		return nil, err
	}
	if !v.AllowsOp(leaf.Op) {
		err := fmt.Errorf("%w: %q does not support %q", ErrUnknownOperator, v.Name, leaf.Op)
		lw.recordGlobal(err)
		return nil, err
	}
	// A decorative Variable (no backend attribute) contributes no predicate
	// once validated; the simple-form compiler uses this to let callers
	// declare purely client-side variables.
	if v.Attr == nil {
		return nil, nil
	}

	value, err := lw.coerce(v, leaf)
	if err != nil {
		lw.record(leaf.Variable, err)
		return nil, err
	}

	backendOp, value := lowerOp(v, leaf.Op, value)
	pred, err := lw.adapter.LowerLeaf(*v.Attr, backendOp, value)
	if err != nil {
		lw.record(leaf.Variable, err)
		return nil, err
	}
	return pred, nil
}

// record accumulates a coercion failure: per-field in simple mode, or as
// the single global entry §4.7 mandates for a fail-fast advanced-mode
// parse (the caller still aborts the walk via the returned error either
// way; this only controls where it's filed).
func (lw *lowerer) record(field string, err error) {
	if lw.errs == nil {
		return
	}
	if lw.advancedMode {
		lw.errs.AddGlobal(err)
		return
	}
	lw.errs.AddField(field, err)
}

// recordGlobal accumulates an unknown-variable or unknown-operator error,
// which §4.7 always surfaces in the global list regardless of mode.
func (lw *lowerer) recordGlobal(err error) {
	if lw.errs != nil {
		lw.errs.AddGlobal(err)
	}
}

// coerce resolves a leaf's raw RHS token into a typed Value for Variable v.
// A bare identifier that names another declared Variable always becomes a
// FieldRef. Otherwise the raw text is coerced per v's Kind; if that
// coercion fails and the RHS was a bare identifier, a string-kind Variable
// falls back to treating it as a literal string, while every other kind
// surfaces the coercion failure (§9 open question).
func (lw *lowerer) coerce(v *Variable, leaf *LeafNode) (Value, error) {
	if leaf.Raw == nil {
		return leaf.Value, nil
	}
	raw := *leaf.Raw

	if leaf.RawTokenType == nullToken {
		return NewNullValue(), nil
	}
	if leaf.RawTokenType == identToken {
		if _, ok := lw.schema.Variable(raw); ok {
			return NewFieldRef(raw), nil
		}
	}

	value, err := lw.coerceForKind(v, raw)
	if err != nil {
		if leaf.RawTokenType == identToken && v.Kind.isString() {
			return NewStringValue(raw), nil
		}
		return Value{}, err
	}
	return value, nil
}

func (lw *lowerer) coerceForKind(v *Variable, raw string) (Value, error) {
	switch v.Kind {
	case StringKind, SubstringKind, CaseSensitiveStringKind:
		return NewStringValue(raw), nil
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
	case EmailKind:
		return coerceEmail(raw)
	case URLKind:
		return coerceURL(raw)
	case ChoiceKind, ChoiceSetKind, ReferenceKind:
		return lw.coerceChoice(v, raw)
	default:
		return Value{}, fmt.Errorf("query.coerceForKind: %w: %q has unknown kind", ErrInternal, v.Name)
	}
}

// coerceChoice resolves raw against v's choice universe, invoking and
// memoizing v.Choices at most once per lowerer (i.e. per BoundQuery, §5).
func (lw *lowerer) coerceChoice(v *Variable, raw string) (Value, error) {
	choices, ok := lw.choiceCache[v.Name]
	if !ok {
		if v.Choices == nil {
			return Value{}, fmt.Errorf("query.coerceChoice: %w: %q has no choice resolver", ErrInternal, v.Name)
		}
		var err error
		choices, err = v.Choices()
		if err != nil {
			return Value{}, err
		}
		lw.choiceCache[v.Name] = choices
	}
	if v.Kind == ReferenceKind {
		return resolveReference(v, choices, raw)
	}
	for _, c := range choices {
		if c.Lookup == raw {
			return NewChoiceRef(c.ID, c.Label), nil
		}
	}
	return Value{}, fmt.Errorf("%w: %q is not a valid choice for %q", ErrUnknownValue, raw, v.Name)
}

// lowerOp translates an AST Op into the backend-facing Op a BackendAdapter
// sees, folding in case-sensitivity: a case-insensitive string Variable's =
// and : comparisons are tagged so an adapter can fold case, while a
// case-sensitive one passes through unchanged. The Value is returned
// unchanged; adapters fold case themselves based on the Op.
func lowerOp(v *Variable, op Op, value Value) (Op, Value) {
	if !v.Kind.isString() || v.CaseSensitive {
		return op, value
	}
	switch op {
	case EqualOp:
		return CaseInsensitiveEqualOp, value
	case NotEqualOp:
		return CaseInsensitiveNotEqualOp, value
	case ContainsOp:
		return CaseInsensitiveContainsOp, value
	case NotContainsOp:
		return CaseInsensitiveNotContainsOp, value
	default:
		return op, value
	}
}
