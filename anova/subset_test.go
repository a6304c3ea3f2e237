package anova_test

import (
	"testing"

	"github.com/katalvlaran/sparsegrid/anova"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubsetBasics(t *testing.T) {
	s := anova.NewSubset(2, 0, 2)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []int{0, 2}, s.Dims())
	assert.Equal(t, "{0,2}", s.String())
	assert.True(t, s.Contains(2))
	assert.False(t, s.Contains(1))
	assert.True(t, anova.NewSubset(0).IsSubsetOf(s))
	assert.False(t, anova.NewSubset(1).IsSubsetOf(s))
	assert.Equal(t, "{}", anova.Subset(0).String())

	got, err := anova.ParseSubset(" {0, 2} ")
	require.NoError(t, err)
	assert.Equal(t, s, got)
	empty, err := anova.ParseSubset("{}")
	require.NoError(t, err)
	assert.Zero(t, empty)
	_, err = anova.ParseSubset("0,2")
	require.ErrorIs(t, err, anova.ErrBadDimension)
	_, err = anova.ParseSubset("{x}")
	require.ErrorIs(t, err, anova.ErrBadDimension)
}

func TestSubsets(t *testing.T) {
	subs := anova.NewSubset(0, 1, 3).Subsets()
	require.Len(t, subs, 8)
	want := []string{"{}", "{0}", "{1}", "{3}", "{0,1}", "{0,3}", "{1,3}", "{0,1,3}"}
	for i, s := range subs {
		assert.Equal(t, want[i], s.String())
	}
	assert.Equal(t, []anova.Subset{0}, anova.Subset(0).Subsets())
}

func TestEnumerateSubsets(t *testing.T) {
	got := anova.EnumerateSubsets(3, 2)
	want := []string{"{0}", "{1}", "{2}", "{0,1}", "{0,2}", "{1,2}"}
	require.Len(t, got, len(want))
	for i, s := range got {
		assert.Equal(t, want[i], s.String())
	}
	assert.Len(t, anova.EnumerateSubsets(4, 10), 15)
	assert.Nil(t, anova.EnumerateSubsets(0, 1))
	assert.Nil(t, anova.EnumerateSubsets(3, 0))
}
