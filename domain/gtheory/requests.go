package gtheory

import (
	"fmt"

	"gtheory/domain/core"
	"gtheory/domain/dataset"
)

// GCoefficientRequest configures one generalizability-coefficient run. The
// zero value requests the standard fully-random analysis on the ANOVA
// estimates.
type GCoefficientRequest struct {
	// FixedFacets restricts the stated facets to their observed levels,
	// converting the analysis to a mixed model. Variance of components that
	// cross a fixed facet is absorbed into the surviving component with the
	// same random facets.
	FixedFacets []string `json:"fixed_facets,omitempty"`

	// VarianceOverrides replaces the estimated variance components wholesale.
	// When set it must name every non-mean component of the algebra.
	VarianceOverrides map[string]float64 `json:"variance_overrides,omitempty"`

	// LevelOverrides replaces the level coefficient matrix, used by D-study
	// scenarios to evaluate hypothetical designs.
	LevelOverrides *LevelMatrix `json:"-"`
}

// Validate checks the request against the algebra it will run under
func (r *GCoefficientRequest) Validate(algebra FacetAlgebra) error {
	facets := make(map[string]bool)
	for _, f := range algebra.Facets() {
		facets[f] = true
	}
	for _, f := range r.FixedFacets {
		if !facets[f] {
			return fmt.Errorf("%w: fixed facet %q is not in the design", core.ErrInvalidAlgebra, f)
		}
	}
	if len(r.FixedFacets) == len(facets) && len(facets) > 0 {
		return fmt.Errorf("%w: all facets fixed, nothing to generalize over", core.ErrInvalidAlgebra)
	}
	if r.VarianceOverrides != nil {
		for _, name := range algebra.Components() {
			if _, ok := r.VarianceOverrides[name]; !ok {
				return fmt.Errorf("%w: variance override missing component %q", core.ErrInvalidAlgebra, name)
			}
		}
		for name := range r.VarianceOverrides {
			if name == MeanComponent {
				continue
			}
			if _, ok := algebra[name]; !ok {
				return fmt.Errorf("%w: variance override names unknown component %q", core.ErrInvalidAlgebra, name)
			}
		}
	}
	return nil
}

// DStudyRequest configures a decision study. Exactly one of Levels or
// PseudoCounts must be populated.
type DStudyRequest struct {
	// Levels maps each facet to the candidate level counts to evaluate. The
	// Cartesian product of the lists defines the scenarios.
	Levels map[string][]int `json:"levels,omitempty"`

	// PseudoCounts supplies pre-built synthetic count tables directly, one
	// scenario per table, bypassing scenario generation.
	PseudoCounts []*dataset.Table `json:"-"`

	// VarianceOverrides and FixedFacets are forwarded to each scenario's
	// coefficient run.
	VarianceOverrides map[string]float64 `json:"variance_overrides,omitempty"`
	FixedFacets       []string           `json:"fixed_facets,omitempty"`
}

// Validate checks the request against the algebra it will run under
func (r *DStudyRequest) Validate(algebra FacetAlgebra) error {
	if len(r.Levels) == 0 && len(r.PseudoCounts) == 0 {
		return fmt.Errorf("%w: a d-study needs candidate levels or pseudo count tables", core.ErrInvalidAlgebra)
	}
	if len(r.Levels) > 0 && len(r.PseudoCounts) > 0 {
		return fmt.Errorf("%w: candidate levels and pseudo count tables are mutually exclusive", core.ErrInvalidAlgebra)
	}
	if len(r.Levels) > 0 {
		facets := algebra.Facets()
		if len(r.Levels) != len(facets) {
			return fmt.Errorf("%w: candidate levels must cover every facet, got %d of %d",
				core.ErrInvalidAlgebra, len(r.Levels), len(facets))
		}
		for _, f := range facets {
			counts, ok := r.Levels[f]
			if !ok {
				return fmt.Errorf("%w: candidate levels missing facet %q", core.ErrInvalidAlgebra, f)
			}
			if len(counts) == 0 {
				return fmt.Errorf("%w: facet %q has no candidate level counts", core.ErrInvalidAlgebra, f)
			}
			for _, n := range counts {
				if n < 1 {
					return fmt.Errorf("%w: facet %q has non-positive candidate count %d", core.ErrInvalidAlgebra, f, n)
				}
			}
		}
	}
	sub := &GCoefficientRequest{FixedFacets: r.FixedFacets, VarianceOverrides: r.VarianceOverrides}
	return sub.Validate(algebra)
}

// IntervalRequest configures a confidence-interval run
type IntervalRequest struct {
	// Alpha is the two-sided significance level. Zero means the 0.05 default.
	Alpha float64 `json:"alpha,omitempty"`
}

// EffectiveAlpha resolves the default
func (r *IntervalRequest) EffectiveAlpha() float64 {
	if r.Alpha == 0 {
		return 0.05
	}
	return r.Alpha
}

// Validate checks the significance level is a usable probability
func (r *IntervalRequest) Validate() error {
	a := r.EffectiveAlpha()
	if a <= 0 || a >= 1 {
		return fmt.Errorf("%w: alpha %v must be strictly between 0 and 1", core.ErrInvalidAlgebra, a)
	}
	return nil
}
