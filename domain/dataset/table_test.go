package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	table := NewTable([]string{"person", "item"})
	rows := []struct {
		person, item string
		score        float64
	}{
		{"1", "1", 2}, {"1", "2", 4},
		{"2", "1", 3}, {"2", "2", 5},
		{"3", "1", 4}, {"3", "2", 6},
	}
	for _, r := range rows {
		require.NoError(t, table.Append([]string{r.person, r.item}, r.score))
	}
	return table
}

func TestTable_AppendRejectsWrongArity(t *testing.T) {
	table := NewTable([]string{"person", "item"})
	assert.Error(t, table.Append([]string{"1"}, 1.0))
}

func TestTable_GroupByIsDeterministic(t *testing.T) {
	table := sampleTable(t)

	first, err := table.GroupBy("person")
	require.NoError(t, err)
	second, err := table.GroupBy("person")
	require.NoError(t, err)

	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"1"}, first[0].Key)
	assert.Equal(t, []string{"3"}, first[2].Key)
}

func TestTable_GroupByMultipleFacets(t *testing.T) {
	table := sampleTable(t)

	groups, err := table.GroupBy("person", "item")
	require.NoError(t, err)
	assert.Len(t, groups, 6)
	for _, g := range groups {
		assert.Len(t, g.Rows, 1)
	}
}

func TestTable_GroupByNoFacetsYieldsSingleGroup(t *testing.T) {
	table := sampleTable(t)

	groups, err := table.GroupBy()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Rows, 6)
}

func TestTable_GroupByUnknownFacet(t *testing.T) {
	table := sampleTable(t)
	_, err := table.GroupBy("rater")
	assert.Error(t, err)
}

func TestTable_MissingResponses(t *testing.T) {
	table := NewTable([]string{"person"})
	require.NoError(t, table.Append([]string{"1"}, 1.0))
	require.NoError(t, table.Append([]string{"2"}, math.NaN()))
	require.NoError(t, table.Append([]string{"3"}, 3.0))

	assert.True(t, table.HasMissing())

	clean, dropped := table.DropMissing()
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 2, clean.NumRows())
	assert.False(t, clean.HasMissing())
	assert.Equal(t, 3, table.NumRows(), "original table is untouched")
}

func TestTable_Means(t *testing.T) {
	table := sampleTable(t)
	assert.InDelta(t, 4.0, table.GrandMean(), 1e-9)

	groups, err := table.GroupBy("item")
	require.NoError(t, err)
	assert.InDelta(t, 3.0, table.Mean(groups[0].Rows), 1e-9)
	assert.InDelta(t, 5.0, table.Mean(groups[1].Rows), 1e-9)
}

func TestTable_LevelLabels(t *testing.T) {
	table := sampleTable(t)
	labels, err := table.LevelLabels("person")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, labels)
}

func TestTable_CountOnly(t *testing.T) {
	table := NewTable([]string{"person", "item"})
	require.NoError(t, table.AppendLevels([]string{"1", "1"}))
	require.NoError(t, table.AppendLevels([]string{"1", "2"}))

	assert.True(t, table.CountOnly())
	assert.Error(t, table.Append([]string{"2", "1"}, 1.0),
		"count-only tables cannot take responses")
}
