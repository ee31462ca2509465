package engine

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"gtheory/domain/dataset"
	"gtheory/domain/gtheory"
)

// ConfidenceIntervals computes normal-approximation intervals around the
// observed mean of every level of each main-effect component, per Cardinet,
// Tourneur and Allal (1976). The error variance is the sum of every other
// component's variance scaled by its inverse effective level count; interaction
// components and the largest component carry no interval of their own.
func ConfidenceIntervals(
	table *dataset.Table,
	algebra gtheory.FacetAlgebra,
	variances map[string]float64,
	levels *gtheory.LevelMatrix,
	req *gtheory.IntervalRequest,
) (map[string]*gtheory.IntervalTable, []gtheory.Warning, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	alpha := req.EffectiveAlpha()

	work := algebra.WithoutMean()
	vars := make(map[string]float64, len(variances))
	var warnings []gtheory.Warning
	for _, name := range work.Components() {
		v := variances[name]
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

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	z := normal.Quantile(1 - alpha/2)

	largest := work.Largest()
	out := make(map[string]*gtheory.IntervalTable)
	for _, name := range work.Components() {
		if name == largest || isInteraction(name, work) {
			continue
		}

		sigmaSquared := 0.0
		for _, other := range work.Components() {
			if other == name {
				continue
			}
			coeff, ok := levels.Coefficient(name, other)
			if !ok {
				continue
			}
			sigmaSquared += vars[other] * coeff
		}
		halfWidth := z * math.Sqrt(sigmaSquared)

		groups, err := table.GroupBy(work[name]...)
		if err != nil {
			return nil, warnings, err
		}
		interval := &gtheory.IntervalTable{Component: name, Alpha: alpha}
		for _, g := range groups {
			mean := table.Mean(g.Rows)
			interval.Rows = append(interval.Rows, gtheory.IntervalRow{
				Level: strings.Join(g.Key, ", "),
				Lower: mean - halfWidth,
				Mean:  mean,
				Upper: mean + halfWidth,
			})
		}
		out[name] = interval
	}
	return out, warnings, nil
}

// isInteraction reports whether the component's facet set is exactly the
// union of two smaller components' facet sets, which marks it as a crossing
// interaction rather than a (possibly nested) main effect.
func isInteraction(name string, algebra gtheory.FacetAlgebra) bool {
	tuple := algebra[name]
	components := algebra.Components()
	for i, a := range components {
		if a == name || len(algebra[a]) >= len(tuple) {
			continue
		}
		for _, b := range components[i+1:] {
			if b == name || len(algebra[b]) >= len(tuple) {
				continue
			}
			if unionEquals(algebra[a], algebra[b], tuple) {
				return true
			}
		}
	}
	return false
}

func unionEquals(a, b, target gtheory.FacetTuple) bool {
	union := make(map[string]bool, len(a)+len(b))
	for _, f := range a {
		union[f] = true
	}
	for _, f := range b {
		union[f] = true
	}
	if len(union) != len(target) {
		return false
	}
	for _, f := range target {
		if !union[f] {
			return false
		}
	}
	return true
}
