package engine

import (
	"gonum.org/v1/gonum/mat"

	"gtheory/domain/core"
	"gtheory/domain/dataset"
	"gtheory/domain/gtheory"
	"gtheory/internal/errors"
)

// SolveVariances runs the full Henderson (1953) Method-1 estimation: T values,
// the variance coefficient matrix, and the linear solve that yields one
// variance estimate per component. Estimates may come out negative for weak
// effects; downstream consumers clip them.
func SolveVariances(table *dataset.Table, algebra gtheory.FacetAlgebra) (*gtheory.AnovaTable, error) {
	tValues, err := TValues(table, algebra)
	if err != nil {
		return nil, err
	}

	components, coeffs, err := CoefficientMatrix(table, algebra)
	if err != nil {
		return nil, err
	}

	rhs := mat.NewVecDense(len(components), nil)
	for i, name := range components {
		rhs.SetVec(i, tValues[name])
	}

	var solution mat.VecDense
	if err := solution.SolveVec(coeffs, rhs); err != nil {
		return nil, errors.SingularSystem(
			"variance coefficient matrix could not be solved",
			core.NewSingularSystemError(err.Error()))
	}

	anova := &gtheory.AnovaTable{Rows: make([]gtheory.AnovaRow, len(components))}
	for i, name := range components {
		anova.Rows[i] = gtheory.AnovaRow{
			Component: name,
			T:         tValues[name],
			Variance:  round4(solution.AtVec(i)),
		}
	}
	return anova, nil
}
