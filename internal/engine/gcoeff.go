package engine

import (
	"fmt"
	"sort"

	"gtheory/domain/core"
	"gtheory/domain/gtheory"
	"gtheory/internal/errors"
)

// GCoefficients computes the relative and absolute generalizability
// coefficients for every facet of differentiation, the mean and the largest
// component excepted. Negative variance estimates are clipped to zero and
// reported as warnings. Fixing facets restricts them to their observed levels
// and folds their interaction variance into the surviving components before
// the coefficient pass.
func GCoefficients(
	algebra gtheory.FacetAlgebra,
	variances map[string]float64,
	levels *gtheory.LevelMatrix,
	fixedFacets []string,
) (*gtheory.GCoefficientTable, []gtheory.Warning, error) {
	work := algebra.WithoutMean()

	vars := make(map[string]float64, len(variances))
	var warnings []gtheory.Warning
	for _, name := range work.Components() {
		v, ok := variances[name]
		if !ok {
			return nil, nil, errors.AlgebraInvalid(
				fmt.Sprintf("variance estimate missing for component %q", name))
		}
		if v < 0 {
			warnings = append(warnings, gtheory.Warning{
				Code:      gtheory.WarningNegativeVariance,
				Component: name,
				Detail:    fmt.Sprintf("estimated variance %v clipped to 0", v),
			})
			v = 0
		}
		vars[name] = v
	}

	if len(fixedFacets) > 0 {
		var err error
		work, vars, levels, err = absorbFixedFacets(work, vars, levels, fixedFacets)
		if err != nil {
			return nil, warnings, err
		}
	}

	largest := work.Largest()
	table := &gtheory.GCoefficientTable{}
	for _, name := range work.Components() {
		if name == largest {
			continue
		}
		rho, phi, err := coefficientsFor(name, work, vars, levels)
		if err != nil {
			return nil, warnings, err
		}
		table.Rows = append(table.Rows, gtheory.GCoefficientRow{
			Component: name,
			Rho2:      round4(rho),
			Phi2:      round4(phi),
		})
	}
	return table, warnings, nil
}

// coefficientsFor runs the tau, delta and Delta partition for one facet of
// differentiation and forms rho^2 = tau/(tau+delta), phi^2 = tau/(tau+Delta).
func coefficientsFor(
	facet string,
	algebra gtheory.FacetAlgebra,
	vars map[string]float64,
	levels *gtheory.LevelMatrix,
) (rho, phi float64, err error) {
	tauSet := tauFacets(facet, algebra)

	tau := 0.0
	for name := range tauSet {
		tau += vars[name]
	}

	delta, err := weightedVariance(facet, littleDeltaFacets(facet, tauSet, algebra), vars, levels)
	if err != nil {
		return 0, 0, err
	}
	bigDelta, err := weightedVariance(facet, bigDeltaFacets(tauSet, algebra), vars, levels)
	if err != nil {
		return 0, 0, err
	}

	if tau+delta == 0 || tau+bigDelta == 0 {
		return 0, 0, core.NewZeroVarianceError(facet)
	}
	return tau / (tau + delta), tau / (tau + bigDelta), nil
}

// tauFacets is the facet of differentiation plus every component whose facet
// set is strictly contained in it, the universe-score partition.
func tauFacets(facet string, algebra gtheory.FacetAlgebra) map[string]bool {
	tuple := algebra[facet]
	set := map[string]bool{facet: true}
	for _, name := range algebra.Components() {
		if name != facet && algebra[name].StrictSubsetOf(tuple) {
			set[name] = true
		}
	}
	return set
}

// littleDeltaFacets picks the relative-error components: those sharing at
// least one facet with the facet of differentiation, of equal or greater
// arity, that are not already part of tau.
func littleDeltaFacets(facet string, tauSet map[string]bool, algebra gtheory.FacetAlgebra) []string {
	tuple := algebra[facet]
	var out []string
	for _, name := range algebra.Components() {
		if name == facet || tauSet[name] || len(algebra[name]) < len(tuple) {
			continue
		}
		if algebra[name].SharesAny(tuple) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// bigDeltaFacets is the absolute-error partition: everything outside tau
func bigDeltaFacets(tauSet map[string]bool, algebra gtheory.FacetAlgebra) []string {
	var out []string
	for _, name := range algebra.Components() {
		if !tauSet[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// weightedVariance sums each component's variance scaled by its inverse
// effective level count relative to the facet of differentiation.
func weightedVariance(
	facet string,
	components []string,
	vars map[string]float64,
	levels *gtheory.LevelMatrix,
) (float64, error) {
	total := 0.0
	for _, name := range components {
		coeff, ok := levels.Coefficient(facet, name)
		if !ok {
			return 0, errors.AlgebraInvalid(
				fmt.Sprintf("level coefficient missing for (%s, %s)", facet, name))
		}
		total += vars[name] * coeff
	}
	return total, nil
}

// absorbFixedFacets converts the named facets from random to fixed. Every
// component crossing a fixed facet is removed; its variance, scaled by the
// inverse level count of the fixed portion, is folded into the surviving
// component holding its remaining random facets. Components made up entirely
// of fixed facets contribute no generalization error and are dropped.
func absorbFixedFacets(
	algebra gtheory.FacetAlgebra,
	vars map[string]float64,
	levels *gtheory.LevelMatrix,
	fixed []string,
) (gtheory.FacetAlgebra, map[string]float64, *gtheory.LevelMatrix, error) {
	facets := make(map[string]bool, len(fixed))
	for _, f := range fixed {
		facets[f] = true
	}

	survivors := gtheory.FacetAlgebra{}
	var removed []string
	for _, name := range algebra.Components() {
		touchesFixed := false
		for _, f := range algebra[name] {
			if facets[f] {
				touchesFixed = true
				break
			}
		}
		if touchesFixed {
			removed = append(removed, name)
		} else {
			survivors[name] = algebra[name].Clone()
		}
	}

	outVars := make(map[string]float64, len(survivors))
	for name := range survivors {
		outVars[name] = vars[name]
	}

	for _, name := range removed {
		residual := algebra[name].Without(fixed...)
		if len(residual) == 0 {
			continue
		}
		target := ""
		for cand := range survivors {
			if survivors[cand].EqualSet(residual) {
				target = cand
				break
			}
		}
		if target == "" {
			return nil, nil, nil, errors.AlgebraInvalid(fmt.Sprintf(
				"no component with facets %v to absorb %q after fixing %v", residual, name, fixed))
		}
		coeff, ok := levels.Coefficient(target, name)
		if !ok {
			return nil, nil, nil, errors.AlgebraInvalid(
				fmt.Sprintf("level coefficient missing for (%s, %s)", target, name))
		}
		outVars[target] = round4(outVars[target] + vars[name]*coeff)
	}

	check := survivors.Clone()
	check[gtheory.MeanComponent] = gtheory.FacetTuple{}
	if err := check.Validate(); err != nil {
		return nil, nil, nil, errors.Wrap(err, "fixing facets left an inconsistent design")
	}

	outLevels := gtheory.NewLevelMatrix(survivors.Components())
	for _, row := range survivors.Components() {
		for _, col := range survivors.Components() {
			v, ok := levels.Coefficient(row, col)
			if !ok {
				return nil, nil, nil, errors.AlgebraInvalid(
					fmt.Sprintf("level coefficient missing for (%s, %s)", row, col))
			}
			outLevels.Set(row, col, v)
		}
	}
	return survivors, outVars, outLevels, nil
}
