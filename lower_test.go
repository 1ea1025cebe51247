// Copyright (c) HashiCorp, Inc.

package query

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLeaf/fakeAdapter is a minimal BackendAdapter recording enough shape to
// assert on lowering's decisions without depending on the sql or memory
// adapters.
type fakeLeaf struct {
	attr string
	op   Op
	val  Value
}

type fakeAdapter struct{}

func (fakeAdapter) Identity() BackendPredicate { return "IDENTITY" }

func (fakeAdapter) LowerLeaf(attr string, op Op, value Value) (BackendPredicate, error) {
	return fakeLeaf{attr: attr, op: op, val: value}, nil
}

func (fakeAdapter) Conjunction(preds []BackendPredicate) (BackendPredicate, error) {
	return append([]BackendPredicate{"AND"}, preds...), nil
}

func (fakeAdapter) Disjunction(preds []BackendPredicate) (BackendPredicate, error) {
	return append([]BackendPredicate{"OR"}, preds...), nil
}

func (fakeAdapter) Negation(pred BackendPredicate) (BackendPredicate, error) {
	return []BackendPredicate{"NOT", pred}, nil
}

func schemaWithVars(t *testing.T, vars ...Variable) *Schema {
	t.Helper()
	schema, err := NewSchema(vars...)
	require.NoError(t, err)
	return schema
}

// rawLeaf builds a LeafNode carrying the RawTokenType a real parse would
// have assigned, since NewLeaf (a generic test/public constructor) doesn't
// know the lexical shape of its raw string.
func rawLeaf(variable string, op Op, raw string, tt tokenType) *LeafNode {
	r := raw
	return &LeafNode{Variable: variable, Op: op, Raw: &r, RawTokenType: tt}
}

func Test_lower_unknownVariable_alwaysGlobal(t *testing.T) {
	t.Parallel()
	schema := schemaWithVars(t, String("name", WithAttr("name")))
	for _, advanced := range []bool{true, false} {
		lw := newLowerer(schema, fakeAdapter{}, advanced)
		_, err := lw.lower(rawLeaf("missing", EqualOp, "x", stringToken))
		require.Error(t, err)
		require.ErrorIs(t, err, ErrUnknownVariable)
		assert.Len(t, lw.errs.Global, 1)
		assert.Empty(t, lw.errs.Fields)
	}
}

func Test_lower_unknownOperator_alwaysGlobal(t *testing.T) {
	t.Parallel()
	schema := schemaWithVars(t, ChoiceVar("status", func() ([]Choice, error) { return nil, nil }, WithAttr("status")))
	lw := newLowerer(schema, fakeAdapter{}, false)
	_, err := lw.lower(rawLeaf("status", LessThanOp, "x", stringToken))
	require.ErrorIs(t, err, ErrUnknownOperator)
	assert.Len(t, lw.errs.Global, 1)
}

func Test_lower_coercionFailure_simpleMode_perField(t *testing.T) {
	t.Parallel()
	schema := schemaWithVars(t, Integer("age", WithAttr("age")))
	lw := newLowerer(schema, fakeAdapter{}, false)
	_, err := lw.lower(rawLeaf("age", EqualOp, "not-a-number", stringToken))
	require.Error(t, err)
	assert.Empty(t, lw.errs.Global)
	require.Contains(t, lw.errs.Fields, "age")
}

func Test_lower_coercionFailure_advancedMode_global(t *testing.T) {
	t.Parallel()
	schema := schemaWithVars(t, Integer("age", WithAttr("age")))
	lw := newLowerer(schema, fakeAdapter{}, true)
	_, err := lw.lower(rawLeaf("age", EqualOp, "not-a-number", stringToken))
	require.Error(t, err)
	assert.Len(t, lw.errs.Global, 1)
	assert.Empty(t, lw.errs.Fields)
}

func Test_lower_simpleMode_dropsFailingChild(t *testing.T) {
	t.Parallel()
	schema := schemaWithVars(t,
		Integer("age", WithAttr("age")),
		String("name", WithAttr("name")),
	)
	lw := newLowerer(schema, fakeAdapter{}, false)
	ast := NewAnd(rawLeaf("age", EqualOp, "bad", stringToken), rawLeaf("name", EqualOp, "bob", stringToken))
	pred, err := lw.lower(ast)
	require.NoError(t, err)
	leaf, ok := pred.(fakeLeaf)
	require.True(t, ok)
	assert.Equal(t, "name", leaf.attr)
}

func Test_lower_bareIdentifier_matchingVariable_isFieldRef(t *testing.T) {
	t.Parallel()
	schema := schemaWithVars(t,
		String("foo", WithAttr("foo")),
		String("bar", WithAttr("bar")),
	)
	lw := newLowerer(schema, fakeAdapter{}, true)
	pred, err := lw.lower(rawLeaf("foo", EqualOp, "bar", identToken))
	require.NoError(t, err)
	leaf := pred.(fakeLeaf)
	assert.Equal(t, FieldRefValue, leaf.val.Tag())
	assert.Equal(t, "bar", leaf.val.FieldName())
}

func Test_lower_bareIdentifier_nonVariable_stringFallback(t *testing.T) {
	t.Parallel()
	schema := schemaWithVars(t, String("name", WithAttr("name")))
	lw := newLowerer(schema, fakeAdapter{}, true)
	pred, err := lw.lower(rawLeaf("name", EqualOp, "bob", identToken))
	require.NoError(t, err)
	leaf := pred.(fakeLeaf)
	assert.Equal(t, StrValue, leaf.val.Tag())
	assert.Equal(t, "bob", leaf.val.Str())
}

func Test_lower_bareIdentifier_nonVariable_nonStringKind_badLiteral(t *testing.T) {
	t.Parallel()
	schema := schemaWithVars(t, Integer("age", WithAttr("age")))
	lw := newLowerer(schema, fakeAdapter{}, true)
	_, err := lw.lower(rawLeaf("age", EqualOp, "notanumber", identToken))
	require.ErrorIs(t, err, ErrBadLiteral)
}

func Test_lower_caseInsensitive_foldsOp(t *testing.T) {
	t.Parallel()
	schema := schemaWithVars(t, String("name", WithAttr("name"))) // default case-insensitive
	lw := newLowerer(schema, fakeAdapter{}, true)
	pred, err := lw.lower(rawLeaf("name", EqualOp, "bob", stringToken))
	require.NoError(t, err)
	leaf := pred.(fakeLeaf)
	assert.Equal(t, CaseInsensitiveEqualOp, leaf.op)
}

func Test_lower_caseSensitive_passesThrough(t *testing.T) {
	t.Parallel()
	schema := schemaWithVars(t, CaseSensitiveString("name", WithAttr("name")))
	lw := newLowerer(schema, fakeAdapter{}, true)
	pred, err := lw.lower(rawLeaf("name", EqualOp, "bob", stringToken))
	require.NoError(t, err)
	leaf := pred.(fakeLeaf)
	assert.Equal(t, EqualOp, leaf.op)
}

func Test_lower_decorativeVariable_dropsLeaf(t *testing.T) {
	t.Parallel()
	schema := schemaWithVars(t, String("computed"), String("name", WithAttr("name")))
	lw := newLowerer(schema, fakeAdapter{}, true)
	ast := NewAnd(rawLeaf("computed", EqualOp, "x", stringToken), rawLeaf("name", EqualOp, "bob", stringToken))
	pred, err := lw.lower(ast)
	require.NoError(t, err)
	leaf, ok := pred.(fakeLeaf)
	require.True(t, ok)
	assert.Equal(t, "name", leaf.attr)
}

func Test_lower_null(t *testing.T) {
	t.Parallel()
	schema := schemaWithVars(t, String("email", WithAttr("email")))
	lw := newLowerer(schema, fakeAdapter{}, true)
	pred, err := lw.lower(rawLeaf("email", EqualOp, "null", nullToken))
	require.NoError(t, err)
	leaf := pred.(fakeLeaf)
	assert.Equal(t, NullValue, leaf.val.Tag())
}

// Scenario: a reference Variable resolves a raw token against the
// attribute named by ValueLookupKey, not against Choice.Lookup.
func Test_lower_reference_resolvesByValueLookupKey(t *testing.T) {
	t.Parallel()
	ownerID := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	schema := schemaWithVars(t, ReferenceVar("owner", func() ([]Choice, error) {
		return []Choice{
			{ID: ownerID, Label: "Alice", Attrs: map[string]string{"name": "alice", "email": "alice@example.com"}},
		}, nil
	}, WithAttr("owner_id"), WithValueLookupKey("email")))
	lw := newLowerer(schema, fakeAdapter{}, true)

	pred, err := lw.lower(rawLeaf("owner", EqualOp, "alice@example.com", stringToken))
	require.NoError(t, err)
	leaf := pred.(fakeLeaf)
	assert.Equal(t, ChoiceRefValue, leaf.val.Tag())
	assert.Equal(t, ownerID, leaf.val.ChoiceID())

	_, err = lw.lower(rawLeaf("owner", EqualOp, "alice", stringToken))
	require.ErrorIs(t, err, ErrUnknownValue)
}

// Scenario: a reference Variable whose choice universe never exposes the
// configured ValueLookupKey attribute surfaces ErrMissingLookupKey naming
// the attributes that are actually present.
func Test_lower_reference_missingLookupKey(t *testing.T) {
	t.Parallel()
	schema := schemaWithVars(t, ReferenceVar("owner", func() ([]Choice, error) {
		return []Choice{
			{ID: uuid.New(), Label: "Alice", Attrs: map[string]string{"email": "alice@example.com"}},
		}, nil
	}, WithAttr("owner_id"))) // defaults to ValueLookupKey "name"
	lw := newLowerer(schema, fakeAdapter{}, true)

	_, err := lw.lower(rawLeaf("owner", EqualOp, "alice", stringToken))
	require.ErrorIs(t, err, ErrMissingLookupKey)
	assert.Contains(t, err.Error(), "email")
}
