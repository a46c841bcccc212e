package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanWireSyntax(t *testing.T) {
	t.Run("renders edits as bracketed labels", func(t *testing.T) {
		plan := MovePlan(Path{0, 1, 2}).Append(Edit(3), Move(4), Move(5))
		assert.Equal(t, "012[3]45", plan.String())
		assert.Equal(t, 5, plan.Moves())
		assert.Equal(t, 1, plan.Edits())
		assert.False(t, plan.PureMove())
		assert.Equal(t, Path{0, 1, 2, 4, 5}, plan.Path())
	})

	t.Run("parse round trip", func(t *testing.T) {
		plan, err := ParsePlan("0[2]15[0]3")
		require.NoError(t, err)
		assert.Equal(t, "0[2]15[0]3", plan.String())
	})

	t.Run("rejects malformed edits", func(t *testing.T) {
		for _, s := range []string{"0[", "0[2", "0[6]", "0[22]", "0x"} {
			_, err := ParsePlan(s)
			assert.Error(t, err, "plan %q should not parse", s)
		}
	})
}

func TestObservationSplit(t *testing.T) {
	t.Run("pure move plan has no echoes", func(t *testing.T) {
		obs := Observation{
			Plan: MovePlan(Path{1, 2}),
			Raw:  []Label{0, 3, 1},
		}
		arrivals, echoes, err := obs.Split()
		require.NoError(t, err)
		assert.Equal(t, []Label{0, 3, 1}, arrivals)
		assert.Empty(t, echoes)
	})

	t.Run("edit echoes are stripped positionally", func(t *testing.T) {
		// start at label 2, edit to 1 (echo 1), move to label 0, move to label 1
		plan := Plan{Edit(1), Move(5), Move(0)}
		obs := Observation{Plan: plan, Raw: []Label{2, 1, 0, 1}}
		arrivals, echoes, err := obs.Split()
		require.NoError(t, err)
		assert.Equal(t, []Label{2, 0, 1}, arrivals)
		assert.Equal(t, []Label{1}, echoes)
	})

	t.Run("echo equal to a real label is not misattributed", func(t *testing.T) {
		// The edited value also appears as an arrival label; positional
		// splitting must keep them apart.
		plan := Plan{Move(0), Edit(2), Move(1)}
		obs := Observation{Plan: plan, Raw: []Label{2, 2, 2, 2}}
		arrivals, echoes, err := obs.Split()
		require.NoError(t, err)
		assert.Equal(t, []Label{2, 2, 2}, arrivals)
		assert.Equal(t, []Label{2}, echoes)
	})

	t.Run("length mismatch is malformed", func(t *testing.T) {
		obs := Observation{Plan: MovePlan(Path{1}), Raw: []Label{0}}
		_, _, err := obs.Split()
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("echo not matching the written value is malformed", func(t *testing.T) {
		obs := Observation{Plan: Plan{Edit(3)}, Raw: []Label{0, 1}}
		_, _, err := obs.Split()
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestLabelFormatting(t *testing.T) {
	labels, err := ParseLabels("0312")
	require.NoError(t, err)
	assert.Equal(t, []Label{0, 3, 1, 2}, labels)
	assert.Equal(t, "0312", FormatLabels(labels))

	_, err = ParseLabels("04")
	assert.Error(t, err)
}
