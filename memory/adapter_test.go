// Copyright (c) HashiCorp, Inc.

package memory

import (
	"testing"
	"time"

	query "github.com/jimlambrt/fquery"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name      string
	Tag       *string
	Count     int
	Rating    float64
	Active    bool
	CreatedAt time.Time
	Owner     owner
}

type owner struct {
	Email string
}

func TestAdapter_LowerLeaf_string(t *testing.T) {
	t.Parallel()
	a := New()

	pred, err := a.LowerLeaf("Name", query.ContainsOp, query.NewStringValue("idg"))
	require.NoError(t, err)
	p := pred.(Predicate)

	assert.True(t, p(widget{Name: "widget-one"}))
	assert.False(t, p(widget{Name: "gadget"}))
}

func TestAdapter_LowerLeaf_caseInsensitive(t *testing.T) {
	t.Parallel()
	a := New()

	pred, err := a.LowerLeaf("Name", query.CaseInsensitiveEqualOp, query.NewStringValue("Widget"))
	require.NoError(t, err)
	p := pred.(Predicate)

	assert.True(t, p(widget{Name: "widget"}))
	assert.True(t, p(widget{Name: "WIDGET"}))
	assert.False(t, p(widget{Name: "gadget"}))
}

func TestAdapter_LowerLeaf_numeric(t *testing.T) {
	t.Parallel()
	a := New()

	pred, err := a.LowerLeaf("Count", query.GreaterThanOrEqualOp, query.NewIntValue(3))
	require.NoError(t, err)
	p := pred.(Predicate)

	assert.True(t, p(widget{Count: 3}))
	assert.True(t, p(widget{Count: 10}))
	assert.False(t, p(widget{Count: 2}))
}

func TestAdapter_LowerLeaf_null(t *testing.T) {
	t.Parallel()
	a := New()

	pred, err := a.LowerLeaf("Tag", query.EqualOp, query.NewNullValue())
	require.NoError(t, err)
	p := pred.(Predicate)

	assert.True(t, p(widget{Tag: nil}))
	tag := "x"
	assert.False(t, p(widget{Tag: &tag}))
}

func TestAdapter_LowerLeaf_fieldRef(t *testing.T) {
	t.Parallel()
	a := New()

	pred, err := a.LowerLeaf("Name", query.EqualOp, query.NewFieldRef("Owner.Email"))
	require.NoError(t, err)
	p := pred.(Predicate)

	assert.True(t, p(widget{Name: "a@example.com", Owner: owner{Email: "a@example.com"}}))
	assert.False(t, p(widget{Name: "mismatch", Owner: owner{Email: "a@example.com"}}))
}

func TestAdapter_LowerLeaf_nestedAttr(t *testing.T) {
	t.Parallel()
	a := New()

	pred, err := a.LowerLeaf("Owner.Email", query.EqualOp, query.NewStringValue("a@example.com"))
	require.NoError(t, err)
	p := pred.(Predicate)

	assert.True(t, p(widget{Owner: owner{Email: "a@example.com"}}))
	assert.False(t, p(&widget{Owner: owner{Email: "b@example.com"}}))
}

func TestAdapter_LowerLeaf_choiceSet(t *testing.T) {
	t.Parallel()
	a := New()

	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	refs := []query.Value{
		query.NewChoiceRef(id, "one"),
		query.NewChoiceRef(uuid.MustParse("22222222-2222-2222-2222-222222222222"), "two"),
	}

	pred, err := a.LowerLeaf("Tag", query.EqualOp, query.NewChoiceSet(refs))
	require.NoError(t, err)
	p := pred.(Predicate)

	idStr := id.String()
	assert.True(t, p(widget{Tag: &idStr}))
	other := "33333333-3333-3333-3333-333333333333"
	assert.False(t, p(widget{Tag: &other}))
}

func TestAdapter_Conjunction_Disjunction_Negation(t *testing.T) {
	t.Parallel()
	a := New()

	p1, _ := a.LowerLeaf("Count", query.EqualOp, query.NewIntValue(1))
	p2, _ := a.LowerLeaf("Active", query.EqualOp, query.NewBoolValue(true))

	and, err := a.Conjunction([]query.BackendPredicate{p1, p2})
	require.NoError(t, err)
	assert.True(t, and.(Predicate)(widget{Count: 1, Active: true}))
	assert.False(t, and.(Predicate)(widget{Count: 1, Active: false}))

	or, err := a.Disjunction([]query.BackendPredicate{p1, p2})
	require.NoError(t, err)
	assert.True(t, or.(Predicate)(widget{Count: 1, Active: false}))
	assert.False(t, or.(Predicate)(widget{Count: 0, Active: false}))

	not, err := a.Negation(p1)
	require.NoError(t, err)
	assert.True(t, not.(Predicate)(widget{Count: 0}))
	assert.False(t, not.(Predicate)(widget{Count: 1}))
}

func TestAdapter_Identity(t *testing.T) {
	t.Parallel()
	a := New()
	assert.True(t, a.Identity().(Predicate)(widget{}))
}
