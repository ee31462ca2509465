package engine

import (
	"gtheory/domain/dataset"
	"gtheory/domain/gtheory"
	"gtheory/internal/errors"
)

// TValues computes the uncorrected sums of squares for every component of the
// algebra, the grand mean included. For a component the table is grouped by
// its facet tuple and each group contributes mean squared times group size.
func TValues(table *dataset.Table, algebra gtheory.FacetAlgebra) (map[string]float64, error) {
	out := make(map[string]float64, len(algebra))

	for _, name := range algebra.ComponentsWithMean() {
		tuple := algebra[name]

		if len(tuple) == 0 {
			mean := table.GrandMean()
			out[name] = round4(mean * mean * float64(table.NumRows()))
			continue
		}

		groups, err := table.GroupBy(tuple...)
		if err != nil {
			return nil, errors.Wrapf(err, "computing T value for component %s", name)
		}
		total := 0.0
		for _, g := range groups {
			mean := table.Mean(g.Rows)
			total += mean * mean * float64(len(g.Rows))
		}
		out[name] = round4(total)
	}

	return out, nil
}
