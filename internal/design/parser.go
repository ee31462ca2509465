// Package design turns study design strings such as "person x item" or
// "p x (i:h)" into the facet algebra the estimation engine runs on. The
// recognized partially-nested topologies follow the standard two- and
// three-facet data collection designs of Brennan (2001, table 3.2).
package design

import (
	"regexp"
	"strings"

	"gtheory/domain/gtheory"
	"gtheory/internal/errors"
)

// Topology identifies the structural family of a design string
type Topology string

const (
	// TopologyCrossed is a fully crossed design of any number of facets,
	// e.g. "person x item" or "p x i x h".
	TopologyCrossed Topology = "crossed"
	// TopologyNested is the two-facet nested design "i:p"
	TopologyNested Topology = "i:p"
	// TopologyPartialNestedIH is "p x (i:h)"
	TopologyPartialNestedIH Topology = "p x (i:h)"
	// TopologyPartialNestedIP is "(i:p) x h"
	TopologyPartialNestedIP Topology = "(i:p) x h"
	// TopologyNestedInCross is "i:(p x h)"
	TopologyNestedInCross Topology = "i:(p x h)"
	// TopologyCrossNested is "(i x h):p"
	TopologyCrossNested Topology = "(i x h):p"
	// TopologyChainNested is the fully nested chain "i:h:p"
	TopologyChainNested Topology = "i:h:p"
)

// topologyPatterns is checked in order, most specific first
var topologyPatterns = []struct {
	topology Topology
	pattern  *regexp.Regexp
}{
	{TopologyCrossNested, regexp.MustCompile(`^\(.+\s*x\s+.+\)\s*:\s*.+$`)},
	{TopologyPartialNestedIH, regexp.MustCompile(`^.+\s*x\s*\(.+\s*:\s*.+\)$`)},
	{TopologyPartialNestedIP, regexp.MustCompile(`^\(.+\s*:\s*.+\)\s*x\s+.+$`)},
	{TopologyNestedInCross, regexp.MustCompile(`^.+\s*:\s*\(.+\s*x\s+.+\)$`)},
	{TopologyChainNested, regexp.MustCompile(`^.+\s*:\s*.+\s*:\s*.+$`)},
	{TopologyNested, regexp.MustCompile(`^.+\s*:\s*.+$`)},
}

var whitespaceRun = regexp.MustCompile(`\s+`)

const maxDesignLength = 100

// Match classifies a design string and extracts its facet names in reading
// order. Facet names may contain letters, digits, '_' and '-'; ':' nests and
// ' x ' crosses. Partially crossed designs require parentheses.
func Match(input string) (Topology, []string, error) {
	if strings.TrimSpace(input) == "" {
		return "", nil, errors.DesignInvalid("design string cannot be empty")
	}

	for _, r := range input {
		if r == '\n' || r == '\t' {
			continue
		}
		lower := r
		if r >= 'A' && r <= 'Z' {
			lower = r + ('a' - 'A')
		}
		if !isDesignRune(lower) {
			return "", nil, errors.DesignInvalid(
				"invalid characters detected, only letters, numbers, ':', 'x', '(', ')', '_', '-' and spaces are allowed")
		}
	}

	normalized := whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(input)), " ")
	if len(normalized) > maxDesignLength {
		return "", nil, errors.DesignInvalid("design string is too long")
	}

	if strings.Count(normalized, "(") != strings.Count(normalized, ")") {
		return "", nil, errors.DesignInvalid("mismatched parentheses")
	}

	colonCount := strings.Count(normalized, ":")
	crossCount := strings.Count(normalized, " x ")

	if colonCount > 0 && crossCount > 0 && !strings.Contains(normalized, "(") {
		return "", nil, errors.DesignInvalid("parentheses are required for partially crossed designs")
	}

	switch {
	case colonCount > 2:
		return "", nil, errors.DesignInvalid("more than 2 ':' operators detected")
	case colonCount+crossCount > 2:
		return "", nil, errors.DesignInvalid("more than 2 operators detected")
	case colonCount+crossCount == 0:
		return "", nil, errors.DesignInvalid("no operators detected, must use ':' or 'x'")
	}

	facets := extractFacets(normalized)
	if len(facets) < 2 {
		return "", nil, errors.DesignInvalid("empty facets between operators")
	}
	seen := make(map[string]bool, len(facets))
	for _, f := range facets {
		if seen[f] {
			return "", nil, errors.DesignInvalid("facet " + f + " appears more than once")
		}
		seen[f] = true
	}

	if colonCount == 0 {
		return TopologyCrossed, facets, nil
	}

	for _, tp := range topologyPatterns {
		if tp.pattern.MatchString(normalized) {
			return tp.topology, facets, nil
		}
	}
	return "", nil, errors.DesignInvalid("unrecognized design structure: " + normalized)
}

func isDesignRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '(' || r == ')' || r == ':' || r == '_' || r == '-' || r == ' ':
		return true
	}
	return false
}

// extractFacets splits on ':' then on ' x ', the space-delimited form keeps
// facet names containing the letter x intact.
func extractFacets(normalized string) []string {
	facets := make([]string, 0, 4)
	for _, colonPart := range strings.Split(normalized, ":") {
		for _, part := range strings.Split(colonPart, " x ") {
			f := strings.TrimSpace(strings.NewReplacer("(", "", ")", "").Replace(part))
			if f != "" {
				facets = append(facets, f)
			}
		}
	}
	return facets
}

// Parse matches a design string and builds its facet algebra: one component
// per source of variance plus the grand mean, each mapped to its facet tuple.
func Parse(input string) (gtheory.FacetAlgebra, []string, error) {
	topology, facets, err := Match(input)
	if err != nil {
		return nil, nil, err
	}
	algebra, err := Algebra(topology, facets)
	if err != nil {
		return nil, nil, err
	}
	return algebra, facets, nil
}

// Algebra constructs the facet algebra for a classified topology. The facet
// slice must be in the reading order Match produced.
func Algebra(topology Topology, facets []string) (gtheory.FacetAlgebra, error) {
	algebra := gtheory.FacetAlgebra{
		gtheory.MeanComponent: gtheory.FacetTuple{},
	}

	switch topology {
	case TopologyCrossed:
		// Every non-empty facet combination is a component.
		for _, combo := range combinations(facets) {
			algebra[strings.Join(combo, " x ")] = gtheory.FacetTuple(combo)
		}

	case TopologyNested: // i:p
		if len(facets) != 2 {
			return nil, errors.DesignInvalid("nested design requires exactly 2 facets")
		}
		i, p := facets[0], facets[1]
		algebra[p] = gtheory.FacetTuple{p}
		algebra[i+":"+p] = gtheory.FacetTuple{i, p}

	case TopologyChainNested: // i:h:p
		if len(facets) != 3 {
			return nil, errors.DesignInvalid("chain nested design requires exactly 3 facets")
		}
		i, h, p := facets[0], facets[1], facets[2]
		algebra[p] = gtheory.FacetTuple{p}
		algebra[h+":"+p] = gtheory.FacetTuple{h, p}
		algebra[i+":"+h+":"+p] = gtheory.FacetTuple{i, h, p}

	case TopologyNestedInCross: // i:(p x h)
		if len(facets) != 3 {
			return nil, errors.DesignInvalid("nested-in-cross design requires exactly 3 facets")
		}
		i, p, h := facets[0], facets[1], facets[2]
		algebra[p] = gtheory.FacetTuple{p}
		algebra[h] = gtheory.FacetTuple{h}
		algebra[p+" x "+h] = gtheory.FacetTuple{p, h}
		algebra[i+":("+p+" x "+h+")"] = gtheory.FacetTuple{i, p, h}

	case TopologyPartialNestedIP: // (i:p) x h
		if len(facets) != 3 {
			return nil, errors.DesignInvalid("partially nested design requires exactly 3 facets")
		}
		i, p, h := facets[0], facets[1], facets[2]
		algebra[p] = gtheory.FacetTuple{p}
		algebra[h] = gtheory.FacetTuple{h}
		algebra[i+":"+p] = gtheory.FacetTuple{i, p}
		algebra[p+" x "+h] = gtheory.FacetTuple{p, h}
		algebra["("+i+":"+p+") x "+h] = gtheory.FacetTuple{i, p, h}

	case TopologyPartialNestedIH: // p x (i:h)
		if len(facets) != 3 {
			return nil, errors.DesignInvalid("partially nested design requires exactly 3 facets")
		}
		p, i, h := facets[0], facets[1], facets[2]
		algebra[p] = gtheory.FacetTuple{p}
		algebra[h] = gtheory.FacetTuple{h}
		algebra[i+":"+h] = gtheory.FacetTuple{i, h}
		algebra[p+" x "+h] = gtheory.FacetTuple{p, h}
		algebra[p+" x ("+i+":"+h+")"] = gtheory.FacetTuple{p, i, h}

	case TopologyCrossNested: // (i x h):p
		if len(facets) != 3 {
			return nil, errors.DesignInvalid("cross-nested design requires exactly 3 facets")
		}
		i, h, p := facets[0], facets[1], facets[2]
		algebra[p] = gtheory.FacetTuple{p}
		algebra[i+":"+p] = gtheory.FacetTuple{i, p}
		algebra[h+":"+p] = gtheory.FacetTuple{h, p}
		algebra["("+i+" x "+h+"):"+p] = gtheory.FacetTuple{i, h, p}

	default:
		return nil, errors.DesignInvalid("unknown design topology " + string(topology))
	}

	if err := algebra.Validate(); err != nil {
		return nil, errors.Wrap(err, "design produced an inconsistent facet algebra")
	}
	return algebra, nil
}

// combinations returns every non-empty subset of the facets, smallest first,
// preserving the reading order within each subset.
func combinations(facets []string) [][]string {
	var out [][]string
	for size := 1; size <= len(facets); size++ {
		idx := make([]int, size)
		for i := range idx {
			idx[i] = i
		}
		for {
			combo := make([]string, size)
			for i, j := range idx {
				combo[i] = facets[j]
			}
			out = append(out, combo)

			i := size - 1
			for i >= 0 && idx[i] == len(facets)-size+i {
				i--
			}
			if i < 0 {
				break
			}
			idx[i]++
			for j := i + 1; j < size; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}
	return out
}
