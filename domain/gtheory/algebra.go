package gtheory

import (
	"fmt"
	"sort"

	"gtheory/domain/core"
)

// MeanComponent is the reserved name of the grand-mean variance component.
// Its facet tuple is always empty.
const MeanComponent = "mean"

// FacetTuple is the ordered set of facet names that constitute a variance
// component. Order follows the design string; membership, not order, drives
// the algebra.
type FacetTuple []string

// Len returns the arity of the tuple
func (t FacetTuple) Len() int { return len(t) }

// Contains reports whether the tuple includes the named facet
func (t FacetTuple) Contains(facet string) bool {
	for _, f := range t {
		if f == facet {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every facet of t appears in other
func (t FacetTuple) SubsetOf(other FacetTuple) bool {
	for _, f := range t {
		if !other.Contains(f) {
			return false
		}
	}
	return true
}

// StrictSubsetOf reports whether t is a subset of other with smaller arity
func (t FacetTuple) StrictSubsetOf(other FacetTuple) bool {
	return len(t) < len(other) && t.SubsetOf(other)
}

// EqualSet reports whether both tuples contain exactly the same facets
func (t FacetTuple) EqualSet(other FacetTuple) bool {
	return len(t) == len(other) && t.SubsetOf(other)
}

// SharesAny reports whether the tuples have at least one facet in common
func (t FacetTuple) SharesAny(other FacetTuple) bool {
	for _, f := range t {
		if other.Contains(f) {
			return true
		}
	}
	return false
}

// Without returns a copy of the tuple with the given facets removed
func (t FacetTuple) Without(facets ...string) FacetTuple {
	drop := make(map[string]bool, len(facets))
	for _, f := range facets {
		drop[f] = true
	}
	out := make(FacetTuple, 0, len(t))
	for _, f := range t {
		if !drop[f] {
			out = append(out, f)
		}
	}
	return out
}

// Clone returns an independent copy of the tuple
func (t FacetTuple) Clone() FacetTuple {
	out := make(FacetTuple, len(t))
	copy(out, t)
	return out
}

// FacetAlgebra maps variance-component names to their facet tuples. It is the
// symbolic form of a study design: main effects, interactions and nesting
// chains each appear as one component, plus the grand-mean component with an
// empty tuple. The algebra is produced by the design parser or supplied
// directly by the caller, and must satisfy Validate before analysis.
type FacetAlgebra map[string]FacetTuple

// Validate checks the structural invariants the estimation engine relies on:
// a mean component with an empty tuple, non-empty tuples everywhere else, no
// repeated facet within a tuple, no two components sharing a facet set, and a
// unique largest component whose tuple covers every facet in the design.
func (a FacetAlgebra) Validate() error {
	if len(a) == 0 {
		return fmt.Errorf("%w: algebra is empty", core.ErrInvalidAlgebra)
	}
	mean, ok := a[MeanComponent]
	if !ok {
		return fmt.Errorf("%w: missing %q component", core.ErrInvalidAlgebra, MeanComponent)
	}
	if len(mean) != 0 {
		return fmt.Errorf("%w: %q component must have an empty facet tuple", core.ErrInvalidAlgebra, MeanComponent)
	}

	maxArity := 0
	maxCount := 0
	var largest string
	for name, tup := range a {
		if name == MeanComponent {
			continue
		}
		if len(tup) == 0 {
			return fmt.Errorf("%w: component %q has an empty facet tuple", core.ErrInvalidAlgebra, name)
		}
		seen := make(map[string]bool, len(tup))
		for _, f := range tup {
			if f == "" {
				return fmt.Errorf("%w: component %q contains an empty facet name", core.ErrInvalidAlgebra, name)
			}
			if seen[f] {
				return fmt.Errorf("%w: component %q repeats facet %q", core.ErrInvalidAlgebra, name, f)
			}
			seen[f] = true
		}
		if len(tup) > maxArity {
			maxArity = len(tup)
			maxCount = 1
			largest = name
		} else if len(tup) == maxArity {
			maxCount++
		}
	}
	if maxCount != 1 {
		return fmt.Errorf("%w: expected exactly one largest component, found %d of arity %d",
			core.ErrInvalidAlgebra, maxCount, maxArity)
	}

	// Every facet must appear in the largest component, and no two
	// components may denote the same facet set.
	largestTup := a[largest]
	names := a.Components()
	for i, name := range names {
		if !a[name].SubsetOf(largestTup) {
			return fmt.Errorf("%w: component %q is not contained in largest component %q",
				core.ErrInvalidAlgebra, name, largest)
		}
		for _, other := range names[i+1:] {
			if a[name].EqualSet(a[other]) {
				return fmt.Errorf("%w: components %q and %q denote the same facet set",
					core.ErrInvalidAlgebra, name, other)
			}
		}
	}
	return nil
}

// Largest returns the name of the component with the greatest arity, the
// highest-order interaction representing residual variance. Validate
// guarantees it is unique.
func (a FacetAlgebra) Largest() string {
	var largest string
	maxArity := -1
	for name, tup := range a {
		if name == MeanComponent {
			continue
		}
		if len(tup) > maxArity {
			maxArity = len(tup)
			largest = name
		}
	}
	return largest
}

// Components returns all component names except the mean, ordered by arity
// then name for deterministic iteration.
func (a FacetAlgebra) Components() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		if name != MeanComponent {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if len(a[names[i]]) != len(a[names[j]]) {
			return len(a[names[i]]) < len(a[names[j]])
		}
		return names[i] < names[j]
	})
	return names
}

// ComponentsWithMean returns Components plus the mean component last,
// mirroring the row order of the estimation tables.
func (a FacetAlgebra) ComponentsWithMean() []string {
	return append(a.Components(), MeanComponent)
}

// Facets returns the sorted set of facet names appearing in the algebra
func (a FacetAlgebra) Facets() []string {
	set := make(map[string]bool)
	for name, tup := range a {
		if name == MeanComponent {
			continue
		}
		for _, f := range tup {
			set[f] = true
		}
	}
	facets := make([]string, 0, len(set))
	for f := range set {
		facets = append(facets, f)
	}
	sort.Strings(facets)
	return facets
}

// WithoutMean returns a copy of the algebra with the mean component removed
func (a FacetAlgebra) WithoutMean() FacetAlgebra {
	out := make(FacetAlgebra, len(a))
	for name, tup := range a {
		if name != MeanComponent {
			out[name] = tup.Clone()
		}
	}
	return out
}

// Clone returns an independent copy of the algebra
func (a FacetAlgebra) Clone() FacetAlgebra {
	out := make(FacetAlgebra, len(a))
	for name, tup := range a {
		out[name] = tup.Clone()
	}
	return out
}
