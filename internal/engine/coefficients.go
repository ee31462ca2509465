package engine

import (
	"strings"

	"gonum.org/v1/gonum/mat"

	"gtheory/domain/dataset"
	"gtheory/domain/gtheory"
	"gtheory/internal/errors"
)

// groupKeySep matches the separator dataset.Group uses for its joined keys
const groupKeySep = "\x1f"

// CoefficientMatrix builds the square matrix of variance coefficients used on
// the left-hand side of the Henderson Method-1 system. Row and column order is
// components by arity with the mean last; the returned slice records it.
func CoefficientMatrix(table *dataset.Table, algebra gtheory.FacetAlgebra) ([]string, *mat.Dense, error) {
	components := algebra.ComponentsWithMean()
	n := len(components)
	m := mat.NewDense(n, n, nil)

	for i, row := range components {
		for j, col := range components {
			v, err := varianceCoefficient(table, algebra[row], algebra[col])
			if err != nil {
				return nil, nil, errors.Wrapf(err, "variance coefficient (%s, %s)", row, col)
			}
			m.Set(i, j, round4(v))
		}
	}
	return components, m, nil
}

// varianceCoefficient computes one cell: the sum over the row component's
// grouping cells of squared cell counts over the group total. The mean column
// reduces to the dataset size, the mean row normalizes by the dataset total.
func varianceCoefficient(table *dataset.Table, rowTuple, colTuple gtheory.FacetTuple) (float64, error) {
	if len(colTuple) == 0 {
		return float64(table.NumRows()), nil
	}

	grouping := groupingColumns(rowTuple, colTuple)
	cells, err := table.GroupBy(grouping...)
	if err != nil {
		return 0, err
	}

	if len(rowTuple) == 0 {
		total := float64(table.NumRows())
		sum := 0.0
		for _, cell := range cells {
			count := float64(len(cell.Rows))
			sum += count * count / total
		}
		return sum, nil
	}

	totals := make(map[string]float64)
	for _, cell := range cells {
		totals[prefixKey(cell, len(rowTuple))] += float64(len(cell.Rows))
	}
	sum := 0.0
	for _, cell := range cells {
		count := float64(len(cell.Rows))
		sum += count * count / totals[prefixKey(cell, len(rowTuple))]
	}
	return sum, nil
}

// groupingColumns is the row tuple followed by the column tuple's facets not
// already present, keeping the row facets leading so cells can be folded back
// onto row groups by key prefix.
func groupingColumns(rowTuple, colTuple gtheory.FacetTuple) []string {
	cols := make([]string, 0, len(rowTuple)+len(colTuple))
	cols = append(cols, rowTuple...)
	for _, f := range colTuple {
		if !rowTuple.Contains(f) {
			cols = append(cols, f)
		}
	}
	return cols
}

func prefixKey(g dataset.Group, n int) string {
	return strings.Join(g.Key[:n], groupKeySep)
}
