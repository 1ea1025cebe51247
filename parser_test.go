// Copyright (c) HashiCorp, Inc.

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseString(t *testing.T, raw string) Node {
	t.Helper()
	n, err := newParser(raw).parse()
	require.NoError(t, err)
	return n
}

func Test_parse_empty(t *testing.T) {
	t.Parallel()
	n := parseString(t, "")
	assert.Equal(t, True, n)
}

func Test_parse_simpleComparison(t *testing.T) {
	t.Parallel()
	n := parseString(t, `name="bob"`)
	leaf, ok := n.(*LeafNode)
	require.True(t, ok)
	assert.Equal(t, "name", leaf.Variable)
	assert.Equal(t, EqualOp, leaf.Op)
	require.NotNil(t, leaf.Raw)
	assert.Equal(t, "bob", *leaf.Raw)
	assert.Equal(t, stringToken, leaf.RawTokenType)
}

func Test_parse_andOr(t *testing.T) {
	t.Parallel()
	n := parseString(t, `a=1 and b=2 or c=3`)
	or, ok := n.(*OrNode)
	require.True(t, ok)
	require.Len(t, or.Children, 2)
	and, ok := or.Children[0].(*AndNode)
	require.True(t, ok)
	assert.Len(t, and.Children, 2)
}

func Test_parse_not(t *testing.T) {
	t.Parallel()
	n := parseString(t, `not a=1`)
	not, ok := n.(*NotNode)
	require.True(t, ok)
	_, ok = not.Child.(*LeafNode)
	assert.True(t, ok)
}

func Test_parse_parens(t *testing.T) {
	t.Parallel()
	n := parseString(t, `(a=1 or b=2) and c=3`)
	and, ok := n.(*AndNode)
	require.True(t, ok)
	require.Len(t, and.Children, 2)
	_, ok = and.Children[0].(*OrNode)
	assert.True(t, ok)
}

func Test_parse_equalAliases(t *testing.T) {
	t.Parallel()
	n := parseString(t, `age=<10`)
	leaf := n.(*LeafNode)
	assert.Equal(t, LessThanOrEqualOp, leaf.Op)

	n = parseString(t, `age=>10`)
	leaf = n.(*LeafNode)
	assert.Equal(t, GreaterThanOrEqualOp, leaf.Op)
}

func Test_parse_null(t *testing.T) {
	t.Parallel()
	n := parseString(t, `email=null`)
	leaf := n.(*LeafNode)
	assert.Equal(t, nullToken, leaf.RawTokenType)
	assert.Equal(t, "null", *leaf.Raw)
}

func Test_parse_bareIdentifierValue(t *testing.T) {
	t.Parallel()
	n := parseString(t, `a=b`)
	leaf := n.(*LeafNode)
	assert.Equal(t, identToken, leaf.RawTokenType)
	assert.Equal(t, "b", *leaf.Raw)
}

func Test_parse_syntaxErrors(t *testing.T) {
	t.Parallel()
	tests := []string{
		`a=`,
		`a`,
		`=1`,
		`(a=1`,
		`a=1)`,
		`a=1 and`,
		`a!!1`,
	}
	for _, raw := range tests {
		raw := raw
		t.Run(raw, func(t *testing.T) {
			t.Parallel()
			_, err := newParser(raw).parse()
			require.Error(t, err)
		})
	}
}

func Test_NewAnd_NewOr_collapse(t *testing.T) {
	t.Parallel()
	assert.Equal(t, True, NewAnd())
	assert.Equal(t, True, NewOr())

	leaf := NewLeaf("a", EqualOp, "1")
	assert.Equal(t, leaf, NewAnd(leaf))
	assert.Equal(t, leaf, NewOr(leaf))

	combined := NewAnd(leaf, True)
	assert.Equal(t, leaf, combined)
}

func Test_Canonicalize_orderIndependent(t *testing.T) {
	t.Parallel()
	a := NewAnd(NewLeaf("a", EqualOp, "1"), NewLeaf("b", EqualOp, "2"))
	b := NewAnd(NewLeaf("b", EqualOp, "2"), NewLeaf("a", EqualOp, "1"))
	assert.Equal(t, Canonicalize(a).String(), Canonicalize(b).String())
}
