// Copyright (c) HashiCorp, Inc.

// Package sql implements query.BackendAdapter by compiling a predicate tree
// into a parameterized SQL WHERE fragment, in the shape the teacher's own
// mql package produces: a condition string with "?" placeholders plus a
// positional argument slice, consumable by database/sql, dbw, or GORM.
package sql

import (
	"fmt"
	"strings"

	query "github.com/jimlambrt/fquery"
	"gorm.io/gorm"
)

// WhereClause is a parameterized SQL WHERE fragment.
type WhereClause struct {
	Condition string
	Args      []any
}

// Scope adapts a WhereClause for use as a GORM scope:
// db.Scopes(where.Scope).Find(&records).
func (wc *WhereClause) Scope(db *gorm.DB) *gorm.DB {
	if wc == nil || wc.Condition == "" {
		return db
	}
	return db.Where(wc.Condition, wc.Args...)
}

// Adapter implements query.BackendAdapter over SQL. Its zero value is ready
// to use: Adapter carries no per-query state, unlike the lowerer that drives
// it, so a single Adapter may be shared across concurrent BoundQuery calls.
type Adapter struct{}

// New returns a ready-to-use Adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Identity() query.BackendPredicate {
	return &WhereClause{Condition: "1=1"}
}

func (a *Adapter) Negation(pred query.BackendPredicate) (query.BackendPredicate, error) {
	wc, err := asWhereClause(pred)
	if err != nil {
		return nil, err
	}
	return &WhereClause{Condition: fmt.Sprintf("NOT (%s)", wc.Condition), Args: wc.Args}, nil
}

func (a *Adapter) Conjunction(preds []query.BackendPredicate) (query.BackendPredicate, error) {
	return combine(preds, "AND")
}

func (a *Adapter) Disjunction(preds []query.BackendPredicate) (query.BackendPredicate, error) {
	return combine(preds, "OR")
}

func combine(preds []query.BackendPredicate, joiner string) (query.BackendPredicate, error) {
	conds := make([]string, 0, len(preds))
	var args []any
	for _, p := range preds {
		wc, err := asWhereClause(p)
		if err != nil {
			return nil, err
		}
		conds = append(conds, "("+wc.Condition+")")
		args = append(args, wc.Args...)
	}
	return &WhereClause{Condition: strings.Join(conds, " "+joiner+" "), Args: args}, nil
}

func asWhereClause(pred query.BackendPredicate) (*WhereClause, error) {
	wc, ok := pred.(*WhereClause)
	if !ok {
		return nil, fmt.Errorf("sql.asWhereClause: %w: %T is not a *WhereClause", query.ErrInternal, pred)
	}
	return wc, nil
}

// LowerLeaf implements query.BackendAdapter.
func (a *Adapter) LowerLeaf(attr string, op query.Op, value query.Value) (query.BackendPredicate, error) {
	switch value.Tag() {
	case query.FieldRefValue:
		return &WhereClause{Condition: fmt.Sprintf("%s %s %s", attr, sqlOpSymbol(op), value.FieldName())}, nil
	case query.NullValue:
		return nullClause(attr, op)
	case query.ChoiceSetValue:
		return inClause(attr, op, value.ChoiceSet())
	default:
		return compareClause(attr, op, value)
	}
}

func compareClause(attr string, op query.Op, value query.Value) (*WhereClause, error) {
	arg := sqlArg(value)
	switch op {
	case query.EqualOp:
		return &WhereClause{Condition: attr + " = ?", Args: []any{arg}}, nil
	case query.NotEqualOp:
		return &WhereClause{Condition: attr + " != ?", Args: []any{arg}}, nil
	case query.CaseInsensitiveEqualOp:
		return &WhereClause{Condition: fmt.Sprintf("lower(%s) = lower(?)", attr), Args: []any{arg}}, nil
	case query.CaseInsensitiveNotEqualOp:
		return &WhereClause{Condition: fmt.Sprintf("lower(%s) != lower(?)", attr), Args: []any{arg}}, nil
	case query.ContainsOp:
		return &WhereClause{Condition: attr + " LIKE ?", Args: []any{likeArg(arg)}}, nil
	case query.NotContainsOp:
		return &WhereClause{Condition: attr + " NOT LIKE ?", Args: []any{likeArg(arg)}}, nil
	case query.CaseInsensitiveContainsOp:
		return &WhereClause{Condition: fmt.Sprintf("lower(%s) LIKE lower(?)", attr), Args: []any{likeArg(arg)}}, nil
	case query.CaseInsensitiveNotContainsOp:
		return &WhereClause{Condition: fmt.Sprintf("lower(%s) NOT LIKE lower(?)", attr), Args: []any{likeArg(arg)}}, nil
	case query.LessThanOp:
		return &WhereClause{Condition: attr + " < ?", Args: []any{arg}}, nil
	case query.LessThanOrEqualOp:
		return &WhereClause{Condition: attr + " <= ?", Args: []any{arg}}, nil
	case query.GreaterThanOp:
		return &WhereClause{Condition: attr + " > ?", Args: []any{arg}}, nil
	case query.GreaterThanOrEqualOp:
		return &WhereClause{Condition: attr + " >= ?", Args: []any{arg}}, nil
	default:
		return nil, fmt.Errorf("sql.compareClause: %w: unsupported operator %q", query.ErrInternal, op)
	}
}

func nullClause(attr string, op query.Op) (*WhereClause, error) {
	switch op {
	case query.EqualOp, query.CaseInsensitiveEqualOp:
		return &WhereClause{Condition: attr + " IS NULL"}, nil
	case query.NotEqualOp, query.CaseInsensitiveNotEqualOp:
		return &WhereClause{Condition: attr + " IS NOT NULL"}, nil
	default:
		return nil, fmt.Errorf("sql.nullClause: %w: null only supports = and !=", query.ErrInvalidParameter)
	}
}

func inClause(attr string, op query.Op, refs []query.Value) (*WhereClause, error) {
	var negate bool
	switch op {
	case query.EqualOp:
		negate = false
	case query.NotEqualOp:
		negate = true
	default:
		return nil, fmt.Errorf("sql.inClause: %w: choice-set only supports = and !=", query.ErrInvalidParameter)
	}

	if len(refs) == 0 {
		// IN () matches nothing; NOT IN () matches everything.
		if negate {
			return &WhereClause{Condition: "1=1"}, nil
		}
		return &WhereClause{Condition: "1=0"}, nil
	}
	placeholders := make([]string, len(refs))
	args := make([]any, len(refs))
	for i, r := range refs {
		placeholders[i] = "?"
		args[i] = r.ChoiceID()
	}
	keyword := "IN"
	if negate {
		keyword = "NOT IN"
	}
	return &WhereClause{Condition: fmt.Sprintf("%s %s (%s)", attr, keyword, strings.Join(placeholders, ", ")), Args: args}, nil
}

// sqlArg extracts the SQL-bindable argument for a coerced Value. Decimal
// values pass through as decimal.Decimal, which implements driver.Valuer.
func sqlArg(value query.Value) any {
	switch value.Tag() {
	case query.IntValue:
		return value.Int()
	case query.FloatValue:
		return value.Float()
	case query.DecimalValue:
		return value.Decimal()
	case query.BoolValue:
		return value.Bool()
	case query.DateValue:
		return value.Time().Format("2006-01-02")
	case query.DateTimeValue:
		return value.Time()
	case query.ChoiceRefValue:
		return value.ChoiceID()
	default:
		return value.Str()
	}
}

func likeArg(arg any) string {
	s, ok := arg.(string)
	if !ok {
		s = fmt.Sprintf("%v", arg)
	}
	return "%" + s + "%"
}

func sqlOpSymbol(op query.Op) string {
	switch op {
	case query.EqualOp, query.CaseInsensitiveEqualOp:
		return "="
	case query.NotEqualOp, query.CaseInsensitiveNotEqualOp:
		return "!="
	case query.LessThanOp:
		return "<"
	case query.LessThanOrEqualOp:
		return "<="
	case query.GreaterThanOp:
		return ">"
	case query.GreaterThanOrEqualOp:
		return ">="
	default:
		return "="
	}
}
