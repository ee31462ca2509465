package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gtheory/domain/dataset"
	"gtheory/domain/gtheory"
	"gtheory/internal/testkit"
)

func personByItemVariances(t *testing.T) (gtheory.FacetAlgebra, map[string]float64) {
	t.Helper()
	table, algebra := testkit.PersonByItem()
	anova, err := SolveVariances(table, algebra)
	require.NoError(t, err)
	return algebra, anova.Variances()
}

func TestDStudy_CandidateItemCounts(t *testing.T) {
	algebra, variances := personByItemVariances(t)

	req := &gtheory.DStudyRequest{
		Levels: map[string][]int{
			"person": {10},
			"item":   {5, 10, 15, 20},
		},
	}
	result, warnings, err := DStudy(algebra, variances, req)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, result.Scenarios, 4)

	expected := map[string]struct{ rho, phi float64 }{
		"person: 10, item: 5":  {0.693, 0.586},
		"person: 10, item: 10": {0.819, 0.740},
		"person: 10, item: 15": {0.871, 0.810},
		"person: 10, item: 20": {0.901, 0.850},
	}
	for label, want := range expected {
		scenario, ok := result.Scenario(label)
		require.True(t, ok, "missing scenario %q", label)
		person, ok := scenario.Coefficients.Row("person")
		require.True(t, ok)
		assert.InDelta(t, want.rho, person.Rho2, 0.001, "rho for %s", label)
		assert.InDelta(t, want.phi, person.Phi2, 0.001, "phi for %s", label)
	}
}

func TestDStudy_ReliabilityGrowsWithItemCount(t *testing.T) {
	algebra, variances := personByItemVariances(t)

	req := &gtheory.DStudyRequest{
		Levels: map[string][]int{
			"person": {10},
			"item":   {5, 10, 15, 20},
		},
	}
	result, _, err := DStudy(algebra, variances, req)
	require.NoError(t, err)

	var lastRho, lastPhi float64
	for _, scenario := range result.Scenarios {
		person, ok := scenario.Coefficients.Row("person")
		require.True(t, ok)
		assert.Greater(t, person.Rho2, lastRho, "scenario %s", scenario.Label)
		assert.Greater(t, person.Phi2, lastPhi, "scenario %s", scenario.Label)
		lastRho, lastPhi = person.Rho2, person.Phi2
	}
}

func TestDStudy_ManualPseudoCounts(t *testing.T) {
	algebra, variances := personByItemVariances(t)

	counts := pseudoCountTable([]string{"person", "item"}, map[string]int{"person": 10, "item": 10})
	req := &gtheory.DStudyRequest{PseudoCounts: []*dataset.Table{counts}}

	result, _, err := DStudy(algebra, variances, req)
	require.NoError(t, err)
	require.Len(t, result.Scenarios, 1)

	scenario, ok := result.Scenario("person: 10, item: 10")
	require.True(t, ok)
	person, ok := scenario.Coefficients.Row("person")
	require.True(t, ok)
	assert.InDelta(t, 0.819, person.Rho2, 0.001)
}

func TestDStudy_RequestValidation(t *testing.T) {
	algebra, variances := personByItemVariances(t)

	tests := []struct {
		name string
		req  *gtheory.DStudyRequest
	}{
		{"neither path", &gtheory.DStudyRequest{}},
		{"both paths", &gtheory.DStudyRequest{
			Levels:       map[string][]int{"person": {10}, "item": {5}},
			PseudoCounts: []*dataset.Table{dataset.NewTable([]string{"person", "item"})},
		}},
		{"missing facet", &gtheory.DStudyRequest{
			Levels: map[string][]int{"person": {10}},
		}},
		{"unknown facet", &gtheory.DStudyRequest{
			Levels: map[string][]int{"person": {10}, "item": {5}, "rater": {2}},
		}},
		{"non-positive count", &gtheory.DStudyRequest{
			Levels: map[string][]int{"person": {10}, "item": {0}},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := DStudy(algebra, variances, tc.req)
			assert.Error(t, err)
		})
	}
}

func TestDStudy_PartiallyNestedDesign(t *testing.T) {
	table, algebra := testkit.PersonByRaterInTask()
	anova, err := SolveVariances(table, algebra)
	require.NoError(t, err)

	req := &gtheory.DStudyRequest{
		Levels: map[string][]int{
			"person": {10},
			"r":      {4, 8},
			"t":      {3},
		},
	}
	result, _, err := DStudy(algebra, anova.Variances(), req)
	require.NoError(t, err)
	require.Len(t, result.Scenarios, 2)

	// More raters per task means tighter relative error.
	small, ok := result.Scenario("person: 10, r: 4, t: 3")
	require.True(t, ok)
	large, ok := result.Scenario("person: 10, r: 8, t: 3")
	require.True(t, ok)
	smallPerson, _ := small.Coefficients.Row("person")
	largePerson, _ := large.Coefficients.Row("person")
	assert.Greater(t, largePerson.Rho2, smallPerson.Rho2)
}
