package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gtheory/domain/core"
)

// Table is the long-format observation table the estimation engine consumes.
// Every row pairs one facet level label per facet with a numeric response.
// Missing responses are stored as NaN. Count-only tables (used by decision
// studies) carry no responses at all.
type Table struct {
	facets    []string
	levels    [][]string // levels[i] is row i's label per facet, parallel to facets
	responses []float64  // empty for count-only tables
}

// NewTable creates an empty table over the given facet columns
func NewTable(facets []string) *Table {
	return &Table{facets: append([]string(nil), facets...)}
}

// Facets returns the facet column names in table order
func (t *Table) Facets() []string {
	return append([]string(nil), t.facets...)
}

// HasFacet reports whether the table carries the named facet column
func (t *Table) HasFacet(name string) bool {
	return t.facetIndex(name) >= 0
}

func (t *Table) facetIndex(name string) int {
	for i, f := range t.facets {
		if f == name {
			return i
		}
	}
	return -1
}

// NumRows returns the number of observation rows
func (t *Table) NumRows() int {
	return len(t.levels)
}

// CountOnly reports whether the table carries no response column
func (t *Table) CountOnly() bool {
	return len(t.responses) == 0 && len(t.levels) > 0
}

// Append adds one observation row. A NaN response marks a missing value.
func (t *Table) Append(levels []string, response float64) error {
	if t.CountOnly() {
		return fmt.Errorf("%w: cannot mix response rows into a count-only table", core.ErrInvalidDesign)
	}
	if err := t.appendLevels(levels); err != nil {
		return err
	}
	t.responses = append(t.responses, response)
	return nil
}

// AppendLevels adds one row to a count-only table
func (t *Table) AppendLevels(levels []string) error {
	if len(t.responses) > 0 {
		return fmt.Errorf("%w: cannot mix count-only rows into a response table", core.ErrInvalidDesign)
	}
	return t.appendLevels(levels)
}

func (t *Table) appendLevels(levels []string) error {
	if len(levels) != len(t.facets) {
		return fmt.Errorf("%w: row has %d facet labels, table has %d facets",
			core.ErrInvalidDesign, len(levels), len(t.facets))
	}
	row := make([]string, len(levels))
	copy(row, levels)
	t.levels = append(t.levels, row)
	return nil
}

// Level returns the label of the named facet at the given row
func (t *Table) Level(row int, facet string) (string, error) {
	idx := t.facetIndex(facet)
	if idx < 0 {
		return "", core.NewFacetNotFoundError(facet)
	}
	if row < 0 || row >= len(t.levels) {
		return "", fmt.Errorf("%w: row %d out of range", core.ErrInvalidDesign, row)
	}
	return t.levels[row][idx], nil
}

// Response returns the response value at the given row
func (t *Table) Response(row int) float64 {
	return t.responses[row]
}

// Responses returns a copy of the response column
func (t *Table) Responses() []float64 {
	return append([]float64(nil), t.responses...)
}

// HasMissing reports whether any response is NaN
func (t *Table) HasMissing() bool {
	for _, v := range t.responses {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// DropMissing returns a copy of the table without NaN-response rows and the
// number of rows removed.
func (t *Table) DropMissing() (*Table, int) {
	out := NewTable(t.facets)
	dropped := 0
	for i, row := range t.levels {
		if math.IsNaN(t.responses[i]) {
			dropped++
			continue
		}
		out.levels = append(out.levels, append([]string(nil), row...))
		out.responses = append(out.responses, t.responses[i])
	}
	return out, dropped
}

// Group is one grouping cell: the level labels of the grouping facets plus the
// indices of the member rows.
type Group struct {
	Key  []string // one label per grouping facet, in request order
	Rows []int
}

// KeyString joins the group key for display and map lookups
func (g Group) KeyString() string {
	return strings.Join(g.Key, "\x1f")
}

// GroupBy partitions the rows by the level labels of the given facets. Groups
// are returned sorted by key so repeated calls walk cells in the same order.
// Grouping by no facets yields a single group holding every row.
func (t *Table) GroupBy(facets ...string) ([]Group, error) {
	idx := make([]int, len(facets))
	for i, f := range facets {
		j := t.facetIndex(f)
		if j < 0 {
			return nil, core.NewFacetNotFoundError(f)
		}
		idx[i] = j
	}

	byKey := make(map[string]*Group)
	order := make([]string, 0)
	for row, labels := range t.levels {
		key := make([]string, len(idx))
		for i, j := range idx {
			key[i] = labels[j]
		}
		ks := strings.Join(key, "\x1f")
		g, ok := byKey[ks]
		if !ok {
			g = &Group{Key: key}
			byKey[ks] = g
			order = append(order, ks)
		}
		g.Rows = append(g.Rows, row)
	}

	sort.Strings(order)
	groups := make([]Group, 0, len(order))
	for _, ks := range order {
		groups = append(groups, *byKey[ks])
	}
	return groups, nil
}

// LevelLabels returns the sorted distinct labels of one facet
func (t *Table) LevelLabels(facet string) ([]string, error) {
	idx := t.facetIndex(facet)
	if idx < 0 {
		return nil, core.NewFacetNotFoundError(facet)
	}
	seen := make(map[string]bool)
	labels := make([]string, 0)
	for _, row := range t.levels {
		if !seen[row[idx]] {
			seen[row[idx]] = true
			labels = append(labels, row[idx])
		}
	}
	sort.Strings(labels)
	return labels, nil
}

// Mean returns the mean of the responses at the given rows
func (t *Table) Mean(rows []int) float64 {
	if len(rows) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, r := range rows {
		sum += t.responses[r]
	}
	return sum / float64(len(rows))
}

// GrandMean returns the mean over every response
func (t *Table) GrandMean() float64 {
	if len(t.responses) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range t.responses {
		sum += v
	}
	return sum / float64(len(t.responses))
}

// Clone returns an independent copy of the table
func (t *Table) Clone() *Table {
	out := NewTable(t.facets)
	out.levels = make([][]string, len(t.levels))
	for i, row := range t.levels {
		out.levels[i] = append([]string(nil), row...)
	}
	out.responses = append([]float64(nil), t.responses...)
	return out
}
