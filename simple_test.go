// Copyright (c) HashiCorp, Inc.

package query

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// formValues is a minimal RequestValues test double backing simple-mode
// (GET-style) submissions.
type formValues map[string][]string

func (f formValues) Method() string          { return "GET" }
func (f formValues) Query(key string) []string { return f[key] }
func (f formValues) Body(string) []string      { return nil }

func testFormSchema(t *testing.T) *Schema {
	t.Helper()
	schema, err := NewSchema(
		String("name", WithAttr("name"), WithFormIncluded(), WithFreetext()),
		Integer("age", WithAttr("age"), WithFormIncluded()),
		String("bio", WithAttr("bio"), WithFormIncluded(), WithFreetext()),
		ChoiceSetVar("tags", func() ([]Choice, error) {
			return []Choice{
				{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Label: "one", Lookup: "one"},
				{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Label: "two", Lookup: "two"},
			}, nil
		}, WithAttr("tags"), WithFormIncluded()),
	)
	require.NoError(t, err)
	return schema
}

func Test_compileSimple_empty(t *testing.T) {
	t.Parallel()
	schema := testFormSchema(t)
	node, errs := compileSimple(schema, formValues{}, "term")
	assert.Equal(t, True, node)
	assert.False(t, errs.HasErrors())
}

func Test_compileSimple_fieldsAndAnd(t *testing.T) {
	t.Parallel()
	schema := testFormSchema(t)
	node, errs := compileSimple(schema, formValues{"name": {"bob"}, "age": {"7"}}, "term")
	require.False(t, errs.HasErrors())
	and, ok := node.(*AndNode)
	require.True(t, ok)
	assert.Len(t, and.Children, 2)
}

func Test_compileSimple_omitsEmptyValue(t *testing.T) {
	t.Parallel()
	schema := testFormSchema(t)
	node, errs := compileSimple(schema, formValues{"name": {""}}, "term")
	assert.Equal(t, True, node)
	assert.False(t, errs.HasErrors())
}

func Test_compileSimple_badLiteralRecordsFieldError(t *testing.T) {
	t.Parallel()
	schema := testFormSchema(t)
	node, errs := compileSimple(schema, formValues{"age": {"not-a-number"}}, "term")
	assert.Equal(t, True, node)
	require.True(t, errs.HasErrors())
	require.Contains(t, errs.Fields, "age")
	assert.ErrorIs(t, errs.Fields["age"][0], ErrBadLiteral)
}

func Test_compileSimple_freetextOr(t *testing.T) {
	t.Parallel()
	schema := testFormSchema(t)
	node, errs := compileSimple(schema, formValues{"term": {"hello"}}, "term")
	require.False(t, errs.HasErrors())
	or, ok := node.(*OrNode)
	require.True(t, ok)
	assert.Len(t, or.Children, 2)
	for _, c := range or.Children {
		leaf := c.(*LeafNode)
		assert.True(t, leaf.Value.IsFreetext())
	}
}

func Test_compileSimple_choiceSet(t *testing.T) {
	t.Parallel()
	schema := testFormSchema(t)
	node, errs := compileSimple(schema, formValues{"tags": {"one", "two"}}, "term")
	require.False(t, errs.HasErrors())
	leaf, ok := node.(*LeafNode)
	require.True(t, ok)
	assert.Equal(t, EqualOp, leaf.Op)
	assert.Equal(t, ChoiceSetValue, leaf.Value.Tag())
	assert.Len(t, leaf.Value.ChoiceSet(), 2)
}

// Scenario: a simple-form reference submission resolves by ValueLookupKey,
// same as advanced mode's lowerer.coerceChoice does.
func Test_compileSimple_reference_resolvesByValueLookupKey(t *testing.T) {
	t.Parallel()
	ownerID := uuid.MustParse("44444444-4444-4444-4444-444444444444")
	schema, err := NewSchema(
		ReferenceVar("owner", func() ([]Choice, error) {
			return []Choice{
				{ID: ownerID, Label: "Alice", Attrs: map[string]string{"email": "alice@example.com"}},
			}, nil
		}, WithAttr("owner_id"), WithFormIncluded(), WithValueLookupKey("email")),
	)
	require.NoError(t, err)

	node, errs := compileSimple(schema, formValues{"owner": {"alice@example.com"}}, "term")
	require.False(t, errs.HasErrors())
	leaf, ok := node.(*LeafNode)
	require.True(t, ok)
	assert.Equal(t, ChoiceRefValue, leaf.Value.Tag())
	assert.Equal(t, ownerID, leaf.Value.ChoiceID())
}

func Test_compileSimple_defaultSimpleOp(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ContainsOp, defaultSimpleOp(StringKind))
	assert.Equal(t, EqualOp, defaultSimpleOp(IntegerKind))
	assert.Equal(t, EqualOp, defaultSimpleOp(BooleanKind))
}
