package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gtheory/domain/gtheory"
	"gtheory/internal/design"
	"gtheory/internal/testkit"
)

func TestGCoefficients_CrossedPersonItem(t *testing.T) {
	table, algebra := testkit.PersonByItem()

	anova, err := SolveVariances(table, algebra)
	require.NoError(t, err)
	levels, err := LevelCoefficients(table, algebra)
	require.NoError(t, err)

	coeffs, warnings, err := GCoefficients(algebra, anova.Variances(), levels, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	person, ok := coeffs.Row("person")
	require.True(t, ok)
	assert.InDelta(t, 0.844, person.Rho2, 0.01)
	assert.InDelta(t, 0.773, person.Phi2, 0.01)

	// The largest component and the mean never get coefficients.
	_, ok = coeffs.Row("person x item")
	assert.False(t, ok)
	_, ok = coeffs.Row("mean")
	assert.False(t, ok)
}

func TestGCoefficients_NestedItemInPerson(t *testing.T) {
	table, algebra := testkit.ItemInPerson()

	anova, err := SolveVariances(table, algebra)
	require.NoError(t, err)
	levels, err := LevelCoefficients(table, algebra)
	require.NoError(t, err)

	coeffs, _, err := GCoefficients(algebra, anova.Variances(), levels, nil)
	require.NoError(t, err)

	person, ok := coeffs.Row("person")
	require.True(t, ok)
	assert.InDelta(t, 0.71, person.Rho2, 0.01)
	assert.InDelta(t, 0.71, person.Phi2, 0.01)
	assert.InDelta(t, person.Rho2, person.Phi2, 1e-9,
		"with everything nested in persons the error partitions coincide")
}

func TestGCoefficients_PartiallyNestedDesign(t *testing.T) {
	table, algebra := testkit.PersonByRaterInTask()

	anova, err := SolveVariances(table, algebra)
	require.NoError(t, err)
	levels, err := LevelCoefficients(table, algebra)
	require.NoError(t, err)

	coeffs, _, err := GCoefficients(algebra, anova.Variances(), levels, nil)
	require.NoError(t, err)

	person, ok := coeffs.Row("person")
	require.True(t, ok)
	assert.InDelta(t, 0.55, person.Rho2, 0.01)
	assert.InDelta(t, 0.46, person.Phi2, 0.01)
}

func TestGCoefficients_BoundsAndOrdering(t *testing.T) {
	table, algebra := testkit.PersonByRaterInTask()

	anova, err := SolveVariances(table, algebra)
	require.NoError(t, err)
	levels, err := LevelCoefficients(table, algebra)
	require.NoError(t, err)

	coeffs, _, err := GCoefficients(algebra, anova.Variances(), levels, nil)
	require.NoError(t, err)

	for _, row := range coeffs.Rows {
		assert.GreaterOrEqual(t, row.Rho2, 0.0, "%s", row.Component)
		assert.LessOrEqual(t, row.Rho2, 1.0, "%s", row.Component)
		assert.GreaterOrEqual(t, row.Phi2, 0.0, "%s", row.Component)
		assert.LessOrEqual(t, row.Phi2, 1.0, "%s", row.Component)
		assert.GreaterOrEqual(t, row.Rho2, row.Phi2,
			"absolute error includes relative error for %s", row.Component)
	}
}

func TestGCoefficients_ClipsNegativeVariances(t *testing.T) {
	table, algebra := testkit.PersonByItem()
	levels, err := LevelCoefficients(table, algebra)
	require.NoError(t, err)

	variances := map[string]float64{
		"person":        0.5,
		"item":          -0.1,
		"person x item": 0.3,
	}
	coeffs, warnings, err := GCoefficients(algebra, variances, levels, nil)
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Equal(t, gtheory.WarningNegativeVariance, warnings[0].Code)
	assert.Equal(t, "item", warnings[0].Component)

	// With item variance clipped to zero, phi and rho agree for person.
	person, ok := coeffs.Row("person")
	require.True(t, ok)
	assert.InDelta(t, person.Rho2, person.Phi2, 1e-9)
}

func TestGCoefficients_MissingComponentVariance(t *testing.T) {
	table, algebra := testkit.PersonByItem()
	levels, err := LevelCoefficients(table, algebra)
	require.NoError(t, err)

	_, _, err = GCoefficients(algebra, map[string]float64{"person": 0.5}, levels, nil)
	assert.Error(t, err)
}

func TestGCoefficients_FixedFacet(t *testing.T) {
	algebra, _, err := design.Parse("p x i x o")
	require.NoError(t, err)

	// Published variance components for a crossed p x i x o G study with
	// 10 persons, 4 items and 2 occasions.
	variances := map[string]float64{
		"p":         0.5528,
		"i":         0.4417,
		"o":         0.0074,
		"p x i":     0.5750,
		"p x o":     0.1009,
		"i x o":     0.1565,
		"p x i x o": 0.9352,
	}
	counts := pseudoCountTable([]string{"p", "i", "o"}, map[string]int{"p": 10, "i": 4, "o": 2})
	levels, err := LevelCoefficients(counts, algebra)
	require.NoError(t, err)

	coeffs, _, err := GCoefficients(algebra, variances, levels, []string{"o"})
	require.NoError(t, err)

	// Fixing o averages its two levels into the surviving components:
	// var(p)* = 0.5528 + 0.1009/2, var(i)* = 0.4417 + 0.1565/2,
	// var(pi)* = 0.5750 + 0.9352/2.
	person, ok := coeffs.Row("p")
	require.True(t, ok)
	assert.InDelta(t, 0.6983, person.Rho2, 0.001)
	assert.InDelta(t, 0.6070, person.Phi2, 0.001)

	// Components built on the fixed facet disappear from the table.
	for _, gone := range []string{"o", "p x o", "i x o", "p x i x o"} {
		_, ok := coeffs.Row(gone)
		assert.False(t, ok, "%s should not survive fixing o", gone)
	}
}

func TestGCoefficients_FixedFacetRequestValidation(t *testing.T) {
	_, algebra := testkit.PersonByItem()

	req := &gtheory.GCoefficientRequest{FixedFacets: []string{"rater"}}
	assert.Error(t, req.Validate(algebra), "unknown facet")

	req = &gtheory.GCoefficientRequest{FixedFacets: []string{"person", "item"}}
	assert.Error(t, req.Validate(algebra), "fixing every facet leaves nothing random")
}
