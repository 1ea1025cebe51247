// Copyright (c) HashiCorp, Inc.

package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

// ValueTag discriminates the tagged variant held by a Value.
type ValueTag int

const (
	NullValue ValueTag = iota
	BoolValue
	IntValue
	FloatValue
	DecimalValue
	StrValue
	DateValue
	DateTimeValue
	FieldRefValue
	ChoiceRefValue
	ChoiceSetValue
)

// Value is a coerced, typed literal ready for lowering. It never embeds a
// backend-native type; adapters translate it at the leaf.
type Value struct {
	tag       ValueTag
	b         bool
	i         int64
	f         float64
	dec       decimal.Decimal
	s         string
	freetext  bool
	t         time.Time
	fieldName string
	choiceID  uuid.UUID
	choiceLbl string
	choiceSet []Value
}

func (v Value) Tag() ValueTag { return v.tag }
func (v Value) Bool() bool    { return v.b }
func (v Value) Int() int64    { return v.i }
func (v Value) Float() float64 {
	return v.f
}
func (v Value) Decimal() decimal.Decimal { return v.dec }
func (v Value) Str() string              { return v.s }
func (v Value) IsFreetext() bool         { return v.freetext }
func (v Value) Time() time.Time          { return v.t }
func (v Value) FieldName() string        { return v.fieldName }
func (v Value) ChoiceID() uuid.UUID      { return v.choiceID }
func (v Value) ChoiceLabel() string      { return v.choiceLbl }
func (v Value) ChoiceSet() []Value       { return v.choiceSet }

func (v Value) String() string {
	switch v.tag {
	case NullValue:
		return "null"
	case BoolValue:
		return strconv.FormatBool(v.b)
	case IntValue:
		return strconv.FormatInt(v.i, 10)
	case FloatValue:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case DecimalValue:
		return v.dec.String()
	case StrValue:
		return v.s
	case DateValue:
		return v.t.Format("2006-01-02")
	case DateTimeValue:
		return v.t.Format("2006-01-02 15:04:05")
	case FieldRefValue:
		return v.fieldName
	case ChoiceRefValue:
		return v.choiceLbl
	case ChoiceSetValue:
		labels := make([]string, len(v.choiceSet))
		for i, c := range v.choiceSet {
			labels[i] = c.choiceLbl
		}
		return strings.Join(labels, ",")
	default:
		return ""
	}
}

func NewNullValue() Value { return Value{tag: NullValue} }

func NewBoolValue(b bool) Value { return Value{tag: BoolValue, b: b} }

func NewIntValue(i int64) Value { return Value{tag: IntValue, i: i} }

func NewFloatValue(f float64) Value { return Value{tag: FloatValue, f: f} }

func NewDecimalValue(d decimal.Decimal) Value { return Value{tag: DecimalValue, dec: d} }

func NewStringValue(s string) Value { return Value{tag: StrValue, s: s} }

// NewFreetextValue marks a string value as produced by the freetext
// OR-group so a backend adapter can special-case it if it wants to (e.g.
// route it to a full-text search index instead of a plain LIKE).
func NewFreetextValue(s string) Value { return Value{tag: StrValue, s: s, freetext: true} }

func NewDateValue(t time.Time) Value { return Value{tag: DateValue, t: t} }

func NewDateTimeValue(t time.Time) Value { return Value{tag: DateTimeValue, t: t} }

// NewFieldRef represents an RHS identifier that resolved to another
// variable's name rather than a literal.
func NewFieldRef(name string) Value { return Value{tag: FieldRefValue, fieldName: name} }

// NewChoiceRef represents a resolved choice/reference/choice-set element,
// identified by a stable id distinct from its display label.
func NewChoiceRef(id uuid.UUID, label string) Value {
	return Value{tag: ChoiceRefValue, choiceID: id, choiceLbl: label}
}

// NewChoiceSet represents a multi-valued choice-set submission; it lowers
// to a membership predicate (IN, or NOT IN under !=) over its members' ids.
func NewChoiceSet(refs []Value) Value {
	return Value{tag: ChoiceSetValue, choiceSet: refs}
}

var dateFormats = []string{
	"2006-01-02",
}

var dateTimeFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
}

var trueTokens = map[string]bool{"1": true, "true": true, "t": true, "yes": true, "y": true, "on": true}
var falseTokens = map[string]bool{"0": true, "false": true, "f": true, "no": true, "n": true, "off": true}

// coerceInteger parses a base-10, optionally signed integer literal.
func coerceInteger(raw string) (Value, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: invalid literal for Integer: %q", ErrBadLiteral, raw)
	}
	return NewIntValue(n), nil
}

// coerceFloat parses a standard decimal float literal.
func coerceFloat(raw string) (Value, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: invalid literal for Float: %q", ErrBadLiteral, raw)
	}
	return NewFloatValue(f), nil
}

// coerceDecimal parses an arbitrary-precision decimal literal.
func coerceDecimal(raw string) (Value, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Value{}, fmt.Errorf("%w: Invalid literal for Decimal: %q", ErrBadLiteral, raw)
	}
	return NewDecimalValue(d), nil
}

// coerceDate tries, in order, the formats in dateFormats.
func coerceDate(raw string) (Value, error) {
	for _, f := range dateFormats {
		if t, err := time.Parse(f, raw); err == nil {
			return NewDateValue(t), nil
		}
	}
	return Value{}, fmt.Errorf("%w: Time data %q does not match any of the formats %v", ErrBadLiteral, raw, dateFormats)
}

// coerceDateTime tries, in order, the formats in dateTimeFormats, falling
// back to the plain date formats (a bare date is a valid datetime at
// midnight).
func coerceDateTime(raw string) (Value, error) {
	for _, f := range dateTimeFormats {
		if t, err := time.Parse(f, raw); err == nil {
			return NewDateTimeValue(t), nil
		}
	}
	for _, f := range dateFormats {
		if t, err := time.Parse(f, raw); err == nil {
			return NewDateTimeValue(t), nil
		}
	}
	all := append(append([]string{}, dateTimeFormats...), dateFormats...)
	return Value{}, fmt.Errorf("%w: Time data %q does not match any of the formats %v", ErrBadLiteral, raw, all)
}

// coerceBoolean matches the teacher's tolerant token sets, case-insensitively.
func coerceBoolean(raw string) (Value, error) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case trueTokens[lower]:
		return NewBoolValue(true), nil
	case falseTokens[lower]:
		return NewBoolValue(false), nil
	default:
		return Value{}, fmt.Errorf("%w: invalid literal for Boolean: %q", ErrBadLiteral, raw)
	}
}

// coerceEmail performs the spec's minimal presence check rather than full
// RFC 5322 validation.
func coerceEmail(raw string) (Value, error) {
	if !strings.Contains(raw, "@") {
		return Value{}, fmt.Errorf("%w: Enter a valid email address.", ErrBadLiteral)
	}
	return NewStringValue(raw), nil
}

// coerceURL performs the spec's minimal presence check rather than full URI
// validation.
func coerceURL(raw string) (Value, error) {
	if !strings.Contains(raw, "://") {
		return Value{}, fmt.Errorf("%w: Enter a valid URL.", ErrBadLiteral)
	}
	return NewStringValue(raw), nil
}

// compareOrdered is a small generic three-way comparison shared by Less's
// integer, float and string cases, so Less doesn't repeat the same
// < / > / == switch once per type.
func compareOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Less gives Values a deterministic order: Values of different tags order
// by tag, and Values of the same tag by their content.
func (v Value) Less(other Value) bool {
	if v.tag != other.tag {
		return v.tag < other.tag
	}
	switch v.tag {
	case IntValue:
		return compareOrdered(v.i, other.i) < 0
	case FloatValue:
		return compareOrdered(v.f, other.f) < 0
	case DecimalValue:
		return v.dec.LessThan(other.dec)
	case DateValue, DateTimeValue:
		return v.t.Before(other.t)
	default:
		return compareOrdered(v.String(), other.String()) < 0
	}
}
