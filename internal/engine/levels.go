package engine

import (
	"github.com/montanaflynn/stats"

	"gtheory/domain/dataset"
	"gtheory/domain/gtheory"
	"gtheory/internal/errors"
)

// LevelCoefficients builds the matrix of inverse effective level counts: cell
// (row, col) is how many of col's sampling units the average row-group
// observes, inverted. Unbalanced designs are handled by taking the harmonic
// mean across row groups. The row of the largest component is identically 1.
// The table may be count-only; responses are never consulted.
func LevelCoefficients(table *dataset.Table, algebra gtheory.FacetAlgebra) (*gtheory.LevelMatrix, error) {
	components := algebra.Components()
	largest := algebra.Largest()
	matrix := gtheory.NewLevelMatrix(components)

	for _, row := range components {
		if row == largest {
			for _, col := range components {
				matrix.Set(row, col, 1)
			}
			continue
		}
		for _, col := range components {
			v, err := inverseLevel(table, algebra[row], algebra[col])
			if err != nil {
				return nil, errors.Wrapf(err, "level coefficient (%s, %s)", row, col)
			}
			matrix.Set(row, col, v)
		}
	}

	if err := matrix.Validate(); err != nil {
		return nil, errors.Wrap(err, "level coefficient matrix failed validation")
	}
	return matrix, nil
}

// inverseLevel computes one cell. Within each row group the effective number
// of col units is the squared total count over the sum of squared cell
// counts; the cell is the mean inverse of that ratio, the reciprocal of its
// harmonic mean across row groups.
func inverseLevel(table *dataset.Table, rowTuple, colTuple gtheory.FacetTuple) (float64, error) {
	grouping := groupingColumns(rowTuple, colTuple)
	cells, err := table.GroupBy(grouping...)
	if err != nil {
		return 0, err
	}

	type agg struct {
		sum float64
		ssq float64
	}
	byGroup := make(map[string]*agg)
	order := make([]string, 0)
	for _, cell := range cells {
		key := prefixKey(cell, len(rowTuple))
		a, ok := byGroup[key]
		if !ok {
			a = &agg{}
			byGroup[key] = a
			order = append(order, key)
		}
		count := float64(len(cell.Rows))
		a.sum += count
		a.ssq += count * count
	}

	ratios := make([]float64, 0, len(order))
	for _, key := range order {
		a := byGroup[key]
		ratios = append(ratios, a.sum*a.sum/a.ssq)
	}

	harmonic, err := stats.HarmonicMean(ratios)
	if err != nil {
		return 0, errors.Wrap(err, "harmonic mean of effective level ratios")
	}
	return 1 / harmonic, nil
}
