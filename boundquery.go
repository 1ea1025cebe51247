// Copyright (c) HashiCorp, Inc.

package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BoundQuery is a thin coordinator binding one request's submitted values
// to a Schema and a BackendAdapter. It selects simple vs advanced mode,
// parses/compiles eagerly at construction time, and caches the result for
// its own lifetime — a BoundQuery is built fresh per request and is never
// shared across requests (§5).
type BoundQuery struct {
	schema  *Schema
	adapter BackendAdapter
	opts    options

	advanced bool
	ast      Node
	errs     *FieldErrors

	lowered   bool
	predicate BackendPredicate
	lowerErr  error
}

// Bind constructs a BoundQuery: it reads the request-appropriate parameter
// map, selects advanced or simple mode per §4.6's rule (the advanced-query
// parameter present and non-empty means advanced; otherwise simple), and
// eagerly parses (and, in advanced mode, syntax-checks) the input.
func Bind(ctx context.Context, schema *Schema, adapter BackendAdapter, r RequestValues, opt ...Option) (*BoundQuery, error) {
	const op = "query.Bind"

	opts, err := getOpts(opt...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	bq := &BoundQuery{schema: schema, adapter: adapter, opts: opts}

	start := time.Now()
	if text, ok := firstValue(r, opts.withAdvancedQueryParam); ok {
		bq.advanced = true
		ast, perr := parseQuery(text)
		opts.withMetrics.ParseDuration(ctx, time.Since(start).Seconds(), perr == nil)
		if perr != nil {
			opts.withLogger.WarnContext(ctx, "advanced query syntax error",
				"query", text, "error", perr.Error())
			bq.errs = NewFieldErrors()
			bq.errs.AddGlobal(perr)
			bq.ast = True
			return bq, nil
		}
		bq.ast = ast
		return bq, nil
	}

	ast, errs := compileSimple(schema, r, opts.withFreetextParam)
	opts.withMetrics.ParseDuration(ctx, time.Since(start).Seconds(), true)
	if errs.HasErrors() {
		opts.withLogger.DebugContext(ctx, "simple query field errors", "errors", errs.Error())
	}
	bq.ast = ast
	bq.errs = errs
	return bq, nil
}

// parseQuery parses raw advanced-query text into a Predicate AST.
func parseQuery(raw string) (Node, error) {
	return newParser(raw).parse()
}

// Errors returns the structured errors accumulated while binding: a single
// global entry for an advanced-mode syntax failure, or per-field entries
// for simple-mode coercion failures.
func (bq *BoundQuery) Errors() *FieldErrors {
	return bq.errs
}

// Advanced reports whether this BoundQuery resolved to advanced mode.
func (bq *BoundQuery) Advanced() bool {
	return bq.advanced
}

// AST returns the raw (uncoerced, in advanced mode) Predicate AST this
// BoundQuery parsed or compiled. Exposed for testing and alternative
// front-ends, per §4.6.
func (bq *BoundQuery) AST() Node {
	return bq.ast
}

// ToPredicate lowers the bound AST into a backend-native predicate through
// the configured BackendAdapter, memoizing the result (and any lowering
// error) for the lifetime of this BoundQuery. Advanced mode fails fast: the
// first lowering error aborts and is returned alongside the identity
// predicate. Simple mode is permissive: a failing leaf is dropped and its
// error recorded in Errors(), but lowering itself still succeeds.
func (bq *BoundQuery) ToPredicate(ctx context.Context) (BackendPredicate, error) {
	if bq.lowered {
		return bq.predicate, bq.lowerErr
	}

	start := time.Now()
	lw := newLowerer(bq.schema, bq.adapter, bq.advanced)
	if bq.errs != nil {
		lw.errs = bq.errs
	}
	pred, err := lw.lower(bq.ast)
	bq.opts.withMetrics.LowerDuration(ctx, time.Since(start).Seconds(), err == nil)
	if lw.errs.HasErrors() {
		bq.opts.withMetrics.FieldErrorCount(ctx, countFieldErrors(lw.errs))
	}
	bq.errs = lw.errs

	bq.lowered = true
	if err != nil {
		// lw already filed err in the right place (AddGlobal for advanced
		// mode, AddField for simple mode) via lowerer.record/recordGlobal.
		bq.opts.withLogger.WarnContext(ctx, "lowering failed", "error", err.Error())
		bq.predicate = bq.adapter.Identity()
		if !bq.advanced {
			// Simple mode never fails ToPredicate itself: an unwrapped
			// top-level leaf (no enclosing And/Or to drop it) still
			// degrades to the universal predicate, matching the permissive
			// per-field behavior lowerChildren already gives a nested leaf.
			return bq.predicate, nil
		}
		bq.lowerErr = err
		return bq.predicate, err
	}

	bq.predicate = pred
	return bq.predicate, nil
}

func countFieldErrors(errs *FieldErrors) int {
	n := 0
	for _, fes := range errs.Fields {
		n += len(fes)
	}
	return n
}

// ToQueryString reserializes the bound AST into canonical advanced-query
// syntax: string values are double-quoted with embedded quotes escaped as
// \", and the query is deterministic with respect to variable declaration
// order (§5's ordering guarantee; §8's round-trip property).
func (bq *BoundQuery) ToQueryString() string {
	return nodeToQueryString(bq.ast)
}

func nodeToQueryString(n Node) string {
	switch t := n.(type) {
	case *TrueNode, nil:
		return ""
	case *AndNode:
		return joinQueryParts(t.Children, " and ")
	case *OrNode:
		parts := make([]string, len(t.Children))
		for i, c := range t.Children {
			parts[i] = parenthesizeIfCompound(c)
		}
		return strings.Join(parts, " or ")
	case *NotNode:
		return "not " + parenthesizeIfCompound(t.Child)
	case *LeafNode:
		return leafToQueryString(t)
	default:
		return ""
	}
}

func joinQueryParts(children []Node, sep string) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = parenthesizeIfCompound(c)
	}
	return strings.Join(parts, sep)
}

func parenthesizeIfCompound(n Node) string {
	switch n.(type) {
	case *AndNode, *OrNode:
		return "(" + nodeToQueryString(n) + ")"
	default:
		return nodeToQueryString(n)
	}
}

func leafToQueryString(leaf *LeafNode) string {
	var valueText string
	if leaf.Raw != nil {
		valueText = rawQueryLiteral(leaf.RawTokenType, *leaf.Raw)
	} else {
		valueText = valueToQueryLiteral(leaf.Value)
	}
	return fmt.Sprintf("%s%s%s", leaf.Variable, leaf.Op, valueText)
}

func rawQueryLiteral(t tokenType, raw string) string {
	switch t {
	case numberToken, dateToken, dateTimeToken, nullToken, identToken:
		return raw
	default:
		return quoteQueryString(raw)
	}
}

func valueToQueryLiteral(v Value) string {
	switch v.Tag() {
	case NullValue:
		return "null"
	case IntValue:
		return strconv.FormatInt(v.Int(), 10)
	case FloatValue:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case DecimalValue:
		return v.Decimal().String()
	case BoolValue:
		return strconv.FormatBool(v.Bool())
	case DateValue:
		return v.Time().Format("2006-01-02")
	case DateTimeValue:
		return v.Time().Format("2006-01-02 15:04:05")
	case FieldRefValue:
		return v.FieldName()
	default:
		return quoteQueryString(v.String())
	}
}

// quoteQueryString double-quotes s and escapes embedded quotes/backslashes,
// matching the lexer's own escaping rules (lexQuotedString in lex.go).
func quoteQueryString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
