package gtheory

import (
	"fmt"

	"gtheory/domain/core"
)

// AnovaRow holds the estimation results for one variance component
type AnovaRow struct {
	Component string  `json:"component"`
	T         float64 `json:"t"`        // uncorrected sum of squares
	Variance  float64 `json:"variance"` // Henderson Method-1 estimate, may be negative
}

// AnovaTable is the variance-component table produced by one estimation run.
// It is always recomputed as a whole, never partially updated.
type AnovaTable struct {
	Rows []AnovaRow `json:"rows"`
}

// Row returns the row for the named component
func (t *AnovaTable) Row(component string) (AnovaRow, bool) {
	for _, row := range t.Rows {
		if row.Component == component {
			return row, true
		}
	}
	return AnovaRow{}, false
}

// Variance returns the estimated variance for the named component
func (t *AnovaTable) Variance(component string) (float64, bool) {
	row, ok := t.Row(component)
	return row.Variance, ok
}

// Variances returns component name -> estimated variance, mean excluded
func (t *AnovaTable) Variances() map[string]float64 {
	out := make(map[string]float64, len(t.Rows))
	for _, row := range t.Rows {
		if row.Component != MeanComponent {
			out[row.Component] = row.Variance
		}
	}
	return out
}

// LevelMatrix is the square table of inverse effective level counts. Cell
// (row, col) is 1/n where n is the harmonic-mean number of col's levels
// observed within one grouping cell of row. The row for the largest component
// is identically 1.
type LevelMatrix struct {
	components []string
	cells      map[string]map[string]float64
}

// NewLevelMatrix creates an empty matrix over the given component order
func NewLevelMatrix(components []string) *LevelMatrix {
	m := &LevelMatrix{
		components: append([]string(nil), components...),
		cells:      make(map[string]map[string]float64, len(components)),
	}
	for _, c := range components {
		m.cells[c] = make(map[string]float64, len(components))
	}
	return m
}

// Components returns the row/column order of the matrix
func (m *LevelMatrix) Components() []string {
	return append([]string(nil), m.components...)
}

// Set stores a coefficient
func (m *LevelMatrix) Set(row, col string, v float64) {
	if _, ok := m.cells[row]; !ok {
		m.cells[row] = make(map[string]float64)
	}
	m.cells[row][col] = v
}

// Coefficient returns the inverse effective level count of col within row
func (m *LevelMatrix) Coefficient(row, col string) (float64, bool) {
	cols, ok := m.cells[row]
	if !ok {
		return 0, false
	}
	v, ok := cols[col]
	return v, ok
}

// Validate checks that the matrix is square over its components and every
// cell is strictly positive.
func (m *LevelMatrix) Validate() error {
	for _, row := range m.components {
		for _, col := range m.components {
			v, ok := m.Coefficient(row, col)
			if !ok {
				return fmt.Errorf("%w: level coefficient (%s, %s) is missing", core.ErrInvalidAlgebra, row, col)
			}
			if v <= 0 {
				return fmt.Errorf("%w: level coefficient (%s, %s) = %v must be > 0", core.ErrInvalidAlgebra, row, col, v)
			}
		}
	}
	return nil
}

// GCoefficientRow holds the reliability coefficients for one facet of
// differentiation.
type GCoefficientRow struct {
	Component string  `json:"component"`
	Rho2      float64 `json:"rho_squared"` // relative (norm-referenced) coefficient
	Phi2      float64 `json:"phi_squared"` // absolute (criterion-referenced) coefficient
}

// GCoefficientTable is the generalizability coefficient table: one row per
// facet of differentiation, excluding the mean and the largest component.
type GCoefficientTable struct {
	Rows []GCoefficientRow `json:"rows"`
}

// Row returns the row for the named component
func (t *GCoefficientTable) Row(component string) (GCoefficientRow, bool) {
	for _, row := range t.Rows {
		if row.Component == component {
			return row, true
		}
	}
	return GCoefficientRow{}, false
}

// IntervalRow is the confidence interval around one observed facet level mean
type IntervalRow struct {
	Level string  `json:"level"` // facet level label(s), comma-joined for nested tuples
	Lower float64 `json:"lower_bound"`
	Mean  float64 `json:"mean"`
	Upper float64 `json:"upper_bound"`
}

// IntervalTable holds confidence intervals for every observed level of one
// main-effect component.
type IntervalTable struct {
	Component string        `json:"component"`
	Alpha     float64       `json:"alpha"`
	Rows      []IntervalRow `json:"rows"`
}

// DStudyScenario is the G-coefficient table computed under one hypothetical
// set of facet level counts.
type DStudyScenario struct {
	Label        string             `json:"label"`
	Coefficients *GCoefficientTable `json:"coefficients"`
}

// DStudyResult collects all requested D-study scenarios in evaluation order
type DStudyResult struct {
	Scenarios []DStudyScenario `json:"scenarios"`
}

// Scenario returns the scenario with the given label
func (r *DStudyResult) Scenario(label string) (DStudyScenario, bool) {
	for _, s := range r.Scenarios {
		if s.Label == label {
			return s, true
		}
	}
	return DStudyScenario{}, false
}
