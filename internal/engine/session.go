package engine

import (
	"fmt"

	"gtheory/domain/core"
	"gtheory/domain/dataset"
	"gtheory/domain/gtheory"
	"gtheory/internal"
	"gtheory/internal/errors"
)

// Session owns one analysis over one dataset: the facet algebra, the
// observation table, and every table derived from them. Results thread
// through the session in a fixed order: variance estimation first, then
// coefficients, decision studies and intervals. Sessions are not safe for
// concurrent use; run independent analyses on independent sessions.
type Session struct {
	id        core.SessionID
	createdAt core.Timestamp
	algebra   gtheory.FacetAlgebra
	table     *dataset.Table
	log       *internal.Logger

	anova     *gtheory.AnovaTable
	levels    *gtheory.LevelMatrix
	gcoeffs   *gtheory.GCoefficientTable
	dstudy    *gtheory.DStudyResult
	intervals map[string]*gtheory.IntervalTable
	warnings  []gtheory.Warning
}

// NewSession validates the design against the data and prepares an analysis.
// Rows with missing responses are dropped up front with a warning; every
// facet of the algebra must appear as a column of the table.
func NewSession(table *dataset.Table, algebra gtheory.FacetAlgebra, log *internal.Logger) (*Session, error) {
	if log == nil {
		log = internal.DefaultLogger
	}
	if err := algebra.Validate(); err != nil {
		return nil, errors.Wrap(err, "session rejected facet algebra")
	}
	for _, f := range algebra.Facets() {
		if !table.HasFacet(f) {
			return nil, errors.Wrap(core.NewFacetNotFoundError(f), "session rejected dataset")
		}
	}
	if table.NumRows() == 0 {
		return nil, errors.DataInvalid("dataset has no rows")
	}

	s := &Session{
		id:        core.SessionID(core.NewID()),
		createdAt: core.Now(),
		algebra:   algebra.Clone(),
		log:       log,
	}

	if table.HasMissing() {
		clean, dropped := table.DropMissing()
		s.warnings = append(s.warnings, gtheory.Warning{
			Code:   gtheory.WarningMissingData,
			Detail: fmt.Sprintf("%d rows with missing responses dropped", dropped),
		})
		log.Warn("dropped %d rows with missing responses", dropped)
		table = clean
		if table.NumRows() == 0 {
			return nil, errors.DataInvalid("every row has a missing response")
		}
	}
	s.table = table

	log.Info("analysis session %s created: %d rows, %d components",
		s.id, table.NumRows(), len(algebra)-1)
	return s, nil
}

// ID returns the session identifier
func (s *Session) ID() core.SessionID { return s.id }

// CreatedAt returns when the session was created
func (s *Session) CreatedAt() core.Timestamp { return s.createdAt }

// Algebra returns a copy of the session's facet algebra
func (s *Session) Algebra() gtheory.FacetAlgebra { return s.algebra.Clone() }

// Data returns the session's observation table
func (s *Session) Data() *dataset.Table { return s.table }

// Warnings returns every data-quality warning accumulated so far
func (s *Session) Warnings() []gtheory.Warning {
	return append([]gtheory.Warning(nil), s.warnings...)
}

// CalculateAnova estimates every variance component. Re-running replaces the
// previous table wholesale and discards tables derived from it.
func (s *Session) CalculateAnova() (*gtheory.AnovaTable, error) {
	anova, err := SolveVariances(s.table, s.algebra)
	if err != nil {
		return nil, err
	}
	s.anova = anova
	s.gcoeffs = nil
	s.dstudy = nil
	s.intervals = nil
	s.log.Info("variance components estimated for %d components", len(anova.Rows))
	return anova, nil
}

// AnovaTable returns the current variance component table, nil before
// CalculateAnova has run.
func (s *Session) AnovaTable() *gtheory.AnovaTable { return s.anova }

// LevelCoefficients returns the level coefficient matrix for the session's
// own data, computing it on first use.
func (s *Session) LevelCoefficients() (*gtheory.LevelMatrix, error) {
	if s.levels == nil {
		levels, err := LevelCoefficients(s.table, s.algebra)
		if err != nil {
			return nil, err
		}
		s.levels = levels
	}
	return s.levels, nil
}

// GCoefficients computes the generalizability coefficient table. Without
// variance overrides it needs CalculateAnova to have run first.
func (s *Session) GCoefficients(req *gtheory.GCoefficientRequest) (*gtheory.GCoefficientTable, error) {
	if req == nil {
		req = &gtheory.GCoefficientRequest{}
	}
	if err := req.Validate(s.algebra); err != nil {
		return nil, err
	}

	variances, err := s.varianceSource(req.VarianceOverrides, "generalizability coefficients")
	if err != nil {
		return nil, err
	}

	levels := req.LevelOverrides
	if levels == nil {
		levels, err = s.LevelCoefficients()
		if err != nil {
			return nil, err
		}
	}

	table, warnings, err := GCoefficients(s.algebra, variances, levels, req.FixedFacets)
	if err != nil {
		return nil, err
	}
	s.recordWarnings(warnings)
	s.gcoeffs = table
	return table, nil
}

// GCoefficientTable returns the most recent coefficient table, nil before
// GCoefficients has run.
func (s *Session) GCoefficientTable() *gtheory.GCoefficientTable { return s.gcoeffs }

// DStudy evaluates hypothetical designs against the session's variance
// estimates. Without variance overrides it needs CalculateAnova first.
func (s *Session) DStudy(req *gtheory.DStudyRequest) (*gtheory.DStudyResult, error) {
	if req == nil {
		return nil, errors.InvalidInput("d-study request is required")
	}
	variances, err := s.varianceSource(req.VarianceOverrides, "decision study")
	if err != nil {
		return nil, err
	}
	result, warnings, err := DStudy(s.algebra, variances, req)
	if err != nil {
		return nil, err
	}
	s.recordWarnings(warnings)
	s.dstudy = result
	s.log.Info("decision study evaluated %d scenarios", len(result.Scenarios))
	return result, nil
}

// DStudyResult returns the most recent decision study, nil before DStudy has
// run.
func (s *Session) DStudyResult() *gtheory.DStudyResult { return s.dstudy }

// ConfidenceIntervals computes interval tables for every main-effect facet.
// CalculateAnova must have run first.
func (s *Session) ConfidenceIntervals(req *gtheory.IntervalRequest) (map[string]*gtheory.IntervalTable, error) {
	if req == nil {
		req = &gtheory.IntervalRequest{}
	}
	if s.anova == nil {
		return nil, core.NewSequenceError("confidence intervals", "variance estimation")
	}
	levels, err := s.LevelCoefficients()
	if err != nil {
		return nil, err
	}
	intervals, warnings, err := ConfidenceIntervals(s.table, s.algebra, s.anova.Variances(), levels, req)
	if err != nil {
		return nil, err
	}
	s.recordWarnings(warnings)
	s.intervals = intervals
	return intervals, nil
}

// Intervals returns the most recent interval tables, nil before
// ConfidenceIntervals has run.
func (s *Session) Intervals() map[string]*gtheory.IntervalTable { return s.intervals }

func (s *Session) varianceSource(overrides map[string]float64, operation string) (map[string]float64, error) {
	if overrides != nil {
		return overrides, nil
	}
	if s.anova == nil {
		return nil, core.NewSequenceError(operation, "variance estimation")
	}
	return s.anova.Variances(), nil
}

func (s *Session) recordWarnings(warnings []gtheory.Warning) {
	for _, w := range warnings {
		s.log.Warn("%s", w)
	}
	s.warnings = append(s.warnings, warnings...)
}
