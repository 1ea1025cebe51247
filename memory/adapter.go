// Copyright (c) HashiCorp, Inc.

// Package memory implements query.BackendAdapter by compiling a predicate
// tree into a func(record any) bool that evaluates directly against Go
// struct values via reflection — no database required. It exists for tests
// and for pure in-process filtering, the role the design notes assign to
// "an in-memory evaluator" for adapter substitution.
package memory

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	query "github.com/jimlambrt/fquery"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Predicate is the memory adapter's BackendPredicate: a matcher over one
// record. record is typically a struct or *struct; Attr paths are resolved
// with reflection, following dotted segments through nested structs.
type Predicate func(record any) bool

// Adapter implements query.BackendAdapter over Go values in memory.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Identity() query.BackendPredicate {
	return Predicate(func(any) bool { return true })
}

func (a *Adapter) Negation(pred query.BackendPredicate) (query.BackendPredicate, error) {
	p, err := asPredicate(pred)
	if err != nil {
		return nil, err
	}
	return Predicate(func(r any) bool { return !p(r) }), nil
}

func (a *Adapter) Conjunction(preds []query.BackendPredicate) (query.BackendPredicate, error) {
	ps, err := asPredicates(preds)
	if err != nil {
		return nil, err
	}
	return Predicate(func(r any) bool {
		for _, p := range ps {
			if !p(r) {
				return false
			}
		}
		return true
	}), nil
}

func (a *Adapter) Disjunction(preds []query.BackendPredicate) (query.BackendPredicate, error) {
	ps, err := asPredicates(preds)
	if err != nil {
		return nil, err
	}
	return Predicate(func(r any) bool {
		for _, p := range ps {
			if p(r) {
				return true
			}
		}
		return false
	}), nil
}

func asPredicate(pred query.BackendPredicate) (Predicate, error) {
	p, ok := pred.(Predicate)
	if !ok {
		return nil, fmt.Errorf("memory.asPredicate: %w: %T is not a memory.Predicate", query.ErrInternal, pred)
	}
	return p, nil
}

func asPredicates(preds []query.BackendPredicate) ([]Predicate, error) {
	out := make([]Predicate, len(preds))
	for i, pred := range preds {
		p, err := asPredicate(pred)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// LowerLeaf implements query.BackendAdapter by closing over attr, op and
// value, deferring the actual field lookup to match time.
func (a *Adapter) LowerLeaf(attr string, op query.Op, value query.Value) (query.BackendPredicate, error) {
	return Predicate(func(record any) bool {
		field, ok := lookup(record, attr)
		if !ok {
			return false
		}
		return matches(field, op, value, record)
	}), nil
}

// lookup resolves a dotted Attr path (e.g. "address.city") against record,
// following pointers and nested structs as it goes.
func lookup(record any, attr string) (reflect.Value, bool) {
	v := reflect.ValueOf(record)
	for _, segment := range strings.Split(attr, ".") {
		for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		v = v.FieldByName(segment)
		if !v.IsValid() {
			return reflect.Value{}, false
		}
	}
	return v, true
}

func matches(field reflect.Value, op query.Op, value query.Value, record any) bool {
	if value.Tag() == query.FieldRefValue {
		other, ok := lookup(record, value.FieldName())
		if !ok {
			return false
		}
		return compareFields(field, op, other)
	}
	if value.Tag() == query.NullValue {
		return matchesNull(field, op)
	}
	if value.Tag() == query.ChoiceSetValue {
		return matchesChoiceSet(field, op, value.ChoiceSet())
	}
	return compareValue(field, op, value)
}

func matchesNull(field reflect.Value, op query.Op) bool {
	isNull := field.Kind() == reflect.Ptr || field.Kind() == reflect.Interface
	isNull = isNull && field.IsNil()
	switch op {
	case query.EqualOp, query.CaseInsensitiveEqualOp:
		return isNull
	case query.NotEqualOp, query.CaseInsensitiveNotEqualOp:
		return !isNull
	default:
		return false
	}
}

func matchesChoiceSet(field reflect.Value, op query.Op, refs []query.Value) bool {
	id, ok := fieldUUID(field)
	if !ok {
		return false
	}
	found := false
	for _, r := range refs {
		if r.ChoiceID() == id {
			found = true
			break
		}
	}
	switch op {
	case query.EqualOp, query.CaseInsensitiveEqualOp:
		return found
	case query.NotEqualOp, query.CaseInsensitiveNotEqualOp:
		return !found
	default:
		return false
	}
}

func compareFields(a reflect.Value, op query.Op, b reflect.Value) bool {
	sa, sb := fmt.Sprintf("%v", derefIface(a)), fmt.Sprintf("%v", derefIface(b))
	return compareStrings(sa, sb, op, false)
}

func compareValue(field reflect.Value, op query.Op, value query.Value) bool {
	switch value.Tag() {
	case query.IntValue:
		n, ok := fieldInt(field)
		if !ok {
			return false
		}
		return compareOrderedOp(n, value.Int(), op)
	case query.FloatValue:
		f, ok := fieldFloat(field)
		if !ok {
			return false
		}
		return compareOrderedOp(f, value.Float(), op)
	case query.DecimalValue:
		d, ok := fieldDecimal(field)
		if !ok {
			return false
		}
		return compareDecimalOp(d, value.Decimal(), op)
	case query.BoolValue:
		b, ok := fieldBool(field)
		if !ok {
			return false
		}
		return compareBoolOp(b, value.Bool(), op)
	case query.DateValue, query.DateTimeValue:
		t, ok := fieldTime(field)
		if !ok {
			return false
		}
		return compareOrderedOp(t.UnixNano(), value.Time().UnixNano(), op)
	case query.ChoiceRefValue:
		id, ok := fieldUUID(field)
		if !ok {
			return false
		}
		return boolEqOp(id == value.ChoiceID(), op)
	default:
		s, ok := fieldString(field)
		if !ok {
			return false
		}
		caseInsensitive := op == query.CaseInsensitiveEqualOp || op == query.CaseInsensitiveNotEqualOp ||
			op == query.CaseInsensitiveContainsOp || op == query.CaseInsensitiveNotContainsOp
		return compareStrings(s, value.Str(), op, caseInsensitive)
	}
}

func compareStrings(s, target string, op query.Op, caseInsensitive bool) bool {
	a, b := s, target
	if caseInsensitive {
		a, b = strings.ToLower(a), strings.ToLower(b)
	}
	switch op {
	case query.EqualOp, query.CaseInsensitiveEqualOp:
		return a == b
	case query.NotEqualOp, query.CaseInsensitiveNotEqualOp:
		return a != b
	case query.ContainsOp, query.CaseInsensitiveContainsOp:
		return strings.Contains(a, b)
	case query.NotContainsOp, query.CaseInsensitiveNotContainsOp:
		return !strings.Contains(a, b)
	case query.LessThanOp:
		return a < b
	case query.LessThanOrEqualOp:
		return a <= b
	case query.GreaterThanOp:
		return a > b
	case query.GreaterThanOrEqualOp:
		return a >= b
	default:
		return false
	}
}

func compareOrderedOp[T int64 | float64](a, b T, op query.Op) bool {
	switch op {
	case query.EqualOp, query.CaseInsensitiveEqualOp:
		return a == b
	case query.NotEqualOp, query.CaseInsensitiveNotEqualOp:
		return a != b
	case query.LessThanOp:
		return a < b
	case query.LessThanOrEqualOp:
		return a <= b
	case query.GreaterThanOp:
		return a > b
	case query.GreaterThanOrEqualOp:
		return a >= b
	default:
		return false
	}
}

func compareDecimalOp(a, b decimal.Decimal, op query.Op) bool {
	switch op {
	case query.EqualOp, query.CaseInsensitiveEqualOp:
		return a.Equal(b)
	case query.NotEqualOp, query.CaseInsensitiveNotEqualOp:
		return !a.Equal(b)
	case query.LessThanOp:
		return a.LessThan(b)
	case query.LessThanOrEqualOp:
		return a.LessThanOrEqual(b)
	case query.GreaterThanOp:
		return a.GreaterThan(b)
	case query.GreaterThanOrEqualOp:
		return a.GreaterThanOrEqual(b)
	default:
		return false
	}
}

func compareBoolOp(a, b bool, op query.Op) bool {
	switch op {
	case query.EqualOp, query.CaseInsensitiveEqualOp:
		return a == b
	case query.NotEqualOp, query.CaseInsensitiveNotEqualOp:
		return a != b
	default:
		return false
	}
}

func boolEqOp(eq bool, op query.Op) bool {
	switch op {
	case query.EqualOp, query.CaseInsensitiveEqualOp:
		return eq
	case query.NotEqualOp, query.CaseInsensitiveNotEqualOp:
		return !eq
	default:
		return false
	}
}

func derefIface(v reflect.Value) any {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

func fieldString(v reflect.Value) (string, bool) {
	iv := derefIface(v)
	if iv == nil {
		return "", false
	}
	if s, ok := iv.(string); ok {
		return s, true
	}
	return fmt.Sprintf("%v", iv), true
}

func fieldInt(v reflect.Value) (int64, bool) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return 0, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint()), true
	default:
		return 0, false
	}
}

func fieldFloat(v reflect.Value) (float64, bool) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return 0, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return 0, false
	}
}

func fieldBool(v reflect.Value) (bool, bool) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return false, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Bool {
		return false, false
	}
	return v.Bool(), true
}

func fieldTime(v reflect.Value) (time.Time, bool) {
	iv := derefIface(v)
	if iv == nil {
		return time.Time{}, false
	}
	t, ok := iv.(time.Time)
	return t, ok
}

func fieldDecimal(v reflect.Value) (decimal.Decimal, bool) {
	iv := derefIface(v)
	if iv == nil {
		return decimal.Decimal{}, false
	}
	switch d := iv.(type) {
	case decimal.Decimal:
		return d, true
	case string:
		parsed, err := decimal.NewFromString(d)
		return parsed, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

func fieldUUID(v reflect.Value) (uuid.UUID, bool) {
	iv := derefIface(v)
	if iv == nil {
		return uuid.UUID{}, false
	}
	switch id := iv.(type) {
	case uuid.UUID:
		return id, true
	case string:
		parsed, err := uuid.Parse(id)
		return parsed, err == nil
	default:
		return uuid.UUID{}, false
	}
}
