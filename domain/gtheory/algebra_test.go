package gtheory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crossedPersonItem() FacetAlgebra {
	return FacetAlgebra{
		"person":        {"person"},
		"item":          {"item"},
		"person x item": {"person", "item"},
		MeanComponent:   {},
	}
}

func TestFacetAlgebra_ValidateAcceptsCrossedDesign(t *testing.T) {
	require.NoError(t, crossedPersonItem().Validate())
}

func TestFacetAlgebra_ValidateRejectsMissingMean(t *testing.T) {
	algebra := crossedPersonItem()
	delete(algebra, MeanComponent)
	assert.Error(t, algebra.Validate())
}

func TestFacetAlgebra_ValidateRejectsNonEmptyMean(t *testing.T) {
	algebra := crossedPersonItem()
	algebra[MeanComponent] = FacetTuple{"person"}
	assert.Error(t, algebra.Validate())
}

func TestFacetAlgebra_ValidateRejectsTiedLargestComponents(t *testing.T) {
	algebra := FacetAlgebra{
		"a":           {"a"},
		"b":           {"b"},
		MeanComponent: {},
	}
	assert.Error(t, algebra.Validate(), "two arity-1 components with no covering component")
}

func TestFacetAlgebra_ValidateRejectsDuplicateFacetSets(t *testing.T) {
	algebra := FacetAlgebra{
		"person":        {"person"},
		"item":          {"item"},
		"person x item": {"person", "item"},
		"item x person": {"item", "person"},
		MeanComponent:   {},
	}
	assert.Error(t, algebra.Validate())
}

func TestFacetAlgebra_ValidateRejectsRepeatedFacetInTuple(t *testing.T) {
	algebra := FacetAlgebra{
		"person":      {"person", "person"},
		MeanComponent: {},
	}
	assert.Error(t, algebra.Validate())
}

func TestFacetAlgebra_ValidateRejectsComponentOutsideLargest(t *testing.T) {
	algebra := FacetAlgebra{
		"person":        {"person"},
		"rater":         {"rater"},
		"person x item": {"person", "item"},
		MeanComponent:   {},
	}
	assert.Error(t, algebra.Validate(), "rater does not appear in the largest component")
}

func TestFacetAlgebra_Largest(t *testing.T) {
	assert.Equal(t, "person x item", crossedPersonItem().Largest())
}

func TestFacetAlgebra_ComponentsOrderedByArityThenName(t *testing.T) {
	algebra := crossedPersonItem()
	assert.Equal(t, []string{"item", "person", "person x item"}, algebra.Components())
	assert.Equal(t, []string{"item", "person", "person x item", MeanComponent}, algebra.ComponentsWithMean())
}

func TestFacetAlgebra_Facets(t *testing.T) {
	assert.Equal(t, []string{"item", "person"}, crossedPersonItem().Facets())
}

func TestFacetTuple_SetOperations(t *testing.T) {
	pi := FacetTuple{"person", "item"}

	assert.True(t, FacetTuple{"person"}.StrictSubsetOf(pi))
	assert.False(t, pi.StrictSubsetOf(pi))
	assert.True(t, pi.EqualSet(FacetTuple{"item", "person"}))
	assert.True(t, pi.SharesAny(FacetTuple{"item", "rater"}))
	assert.False(t, pi.SharesAny(FacetTuple{"rater"}))
	assert.Equal(t, FacetTuple{"person"}, pi.Without("item"))
}
