package engine

import (
	"fmt"
	"strconv"
	"strings"

	"gtheory/domain/dataset"
	"gtheory/domain/gtheory"
	"gtheory/internal/errors"
)

// DStudy evaluates hypothetical measurement designs. Candidate level counts
// per facet expand into the Cartesian product of scenarios; for each, a
// synthetic fully-crossed count table drives a fresh level coefficient
// matrix, and the coefficient pass reruns on the supplied variance estimates.
// Pre-built count tables skip scenario generation and support unbalanced
// designs.
func DStudy(
	algebra gtheory.FacetAlgebra,
	variances map[string]float64,
	req *gtheory.DStudyRequest,
) (*gtheory.DStudyResult, []gtheory.Warning, error) {
	if err := req.Validate(algebra); err != nil {
		return nil, nil, err
	}

	source := variances
	if req.VarianceOverrides != nil {
		source = req.VarianceOverrides
	}

	// Facet order follows the largest component so labels and tables walk
	// the design in reading order.
	facetOrder := append([]string(nil), algebra[algebra.Largest()]...)

	result := &gtheory.DStudyResult{}
	var warnings []gtheory.Warning

	runScenario := func(label string, counts *dataset.Table) error {
		levels, err := LevelCoefficients(counts, algebra)
		if err != nil {
			return errors.Wrapf(err, "d-study scenario %q", label)
		}
		coeffs, warns, err := GCoefficients(algebra, source, levels, req.FixedFacets)
		if err != nil {
			return errors.Wrapf(err, "d-study scenario %q", label)
		}
		warnings = append(warnings, warns...)
		result.Scenarios = append(result.Scenarios, gtheory.DStudyScenario{
			Label:        label,
			Coefficients: coeffs,
		})
		return nil
	}

	if len(req.Levels) > 0 {
		for _, counts := range levelCombinations(facetOrder, req.Levels) {
			parts := make([]string, len(facetOrder))
			for i, f := range facetOrder {
				parts[i] = fmt.Sprintf("%s: %d", f, counts[f])
			}
			label := strings.Join(parts, ", ")
			if err := runScenario(label, pseudoCountTable(facetOrder, counts)); err != nil {
				return nil, warnings, err
			}
		}
		return result, warnings, nil
	}

	for _, counts := range req.PseudoCounts {
		for _, f := range facetOrder {
			if !counts.HasFacet(f) {
				return nil, warnings, errors.DataInvalid(
					fmt.Sprintf("pseudo count table is missing facet %q", f))
			}
		}
		parts := make([]string, len(facetOrder))
		for i, f := range facetOrder {
			labels, err := counts.LevelLabels(f)
			if err != nil {
				return nil, warnings, err
			}
			parts[i] = fmt.Sprintf("%s: %d", f, len(labels))
		}
		if err := runScenario(strings.Join(parts, ", "), counts); err != nil {
			return nil, warnings, err
		}
	}
	return result, warnings, nil
}

// levelCombinations expands candidate counts into every scenario, first facet
// varying slowest.
func levelCombinations(facetOrder []string, levels map[string][]int) []map[string]int {
	combos := []map[string]int{{}}
	for _, f := range facetOrder {
		next := make([]map[string]int, 0, len(combos)*len(levels[f]))
		for _, base := range combos {
			for _, n := range levels[f] {
				combo := make(map[string]int, len(base)+1)
				for k, v := range base {
					combo[k] = v
				}
				combo[f] = n
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}

// pseudoCountTable builds the fully-crossed synthetic count table for one
// scenario: one row per cell of the hypothetical design, levels labeled 1..n.
func pseudoCountTable(facetOrder []string, counts map[string]int) *dataset.Table {
	table := dataset.NewTable(facetOrder)

	odometer := make([]int, len(facetOrder))
	for {
		row := make([]string, len(facetOrder))
		for i := range facetOrder {
			row[i] = strconv.Itoa(odometer[i] + 1)
		}
		_ = table.AppendLevels(row)

		i := len(odometer) - 1
		for i >= 0 {
			odometer[i]++
			if odometer[i] < counts[facetOrder[i]] {
				break
			}
			odometer[i] = 0
			i--
		}
		if i < 0 {
			break
		}
	}
	return table
}
