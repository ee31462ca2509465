// Package testkit provides the synthetic benchmark datasets used across the
// test suites. The tables reproduce the worked synthetic examples of Brennan
// (2001), so tests can assert against published variance components and
// coefficients.
package testkit

import (
	"fmt"
	"strconv"

	"gtheory/domain/dataset"
	"gtheory/domain/gtheory"
	"gtheory/internal/design"
)

// personByItemScores is a 10-person by 12-item binary score matrix
// (Brennan synthetic data set no. 1).
var personByItemScores = [10][12]int{
	{1, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{1, 1, 1, 0, 0, 1, 0, 0, 0, 0, 0, 0},
	{1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0},
	{1, 1, 0, 1, 1, 0, 0, 1, 0, 0, 0, 0},
	{1, 1, 1, 1, 1, 0, 1, 0, 0, 0, 0, 0},
	{1, 1, 1, 0, 1, 1, 1, 0, 0, 0, 0, 0},
	{1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0},
	{1, 1, 1, 1, 0, 1, 1, 1, 1, 1, 0, 0},
	{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0},
	{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
}

// itemInPersonScores holds 8 nested item scores per person, items indexed
// first (Brennan synthetic data set no. 2).
var itemInPersonScores = [8][10]int{
	{2, 4, 5, 5, 4, 4, 2, 3, 0, 6},
	{6, 5, 5, 9, 3, 4, 6, 4, 5, 8},
	{7, 6, 4, 8, 5, 4, 6, 4, 4, 7},
	{5, 7, 6, 6, 6, 7, 5, 5, 5, 6},
	{2, 6, 5, 5, 4, 6, 2, 6, 5, 6},
	{5, 7, 4, 7, 5, 4, 7, 6, 5, 8},
	{5, 5, 5, 7, 6, 7, 7, 6, 5, 8},
	{5, 7, 5, 6, 4, 8, 5, 4, 3, 6},
}

// raterInTaskScores holds scores for 10 persons rated by 12 raters nested 4
// per task (Brennan synthetic data set no. 4). First index walks raters 1-12,
// raters 1-4 belong to task 1, 5-8 to task 2, 9-12 to task 3.
var raterInTaskScores = [12][10]int{
	{5, 9, 3, 7, 9, 3, 7, 5, 9, 4},
	{6, 3, 4, 5, 2, 4, 3, 8, 9, 4},
	{5, 7, 3, 5, 9, 3, 7, 5, 8, 4},
	{5, 7, 3, 3, 7, 5, 7, 7, 8, 3},
	{5, 7, 5, 3, 7, 3, 7, 7, 6, 3},
	{3, 5, 3, 1, 7, 3, 5, 5, 6, 5},
	{4, 5, 3, 4, 3, 6, 5, 5, 6, 6},
	{5, 5, 5, 3, 7, 3, 7, 4, 5, 5},
	{6, 7, 6, 5, 2, 4, 5, 3, 5, 5},
	{7, 7, 5, 3, 7, 5, 5, 2, 8, 7},
	{3, 5, 1, 3, 5, 1, 5, 1, 1, 1},
	{3, 2, 6, 5, 3, 2, 4, 1, 1, 1},
}

func mustParse(input string) gtheory.FacetAlgebra {
	algebra, _, err := design.Parse(input)
	if err != nil {
		panic(fmt.Sprintf("testkit design %q: %v", input, err))
	}
	return algebra
}

// PersonByItem returns the fully crossed person x item benchmark
func PersonByItem() (*dataset.Table, gtheory.FacetAlgebra) {
	table := dataset.NewTable([]string{"person", "item"})
	for p, row := range personByItemScores {
		for i, score := range row {
			_ = table.Append([]string{strconv.Itoa(p + 1), strconv.Itoa(i + 1)}, float64(score))
		}
	}
	return table, mustParse("person x item")
}

// ItemInPerson returns the item:person nested benchmark
func ItemInPerson() (*dataset.Table, gtheory.FacetAlgebra) {
	table := dataset.NewTable([]string{"item", "person"})
	for i, column := range itemInPersonScores {
		for p, score := range column {
			_ = table.Append([]string{strconv.Itoa(i + 1), strconv.Itoa(p + 1)}, float64(score))
		}
	}
	return table, mustParse("item:person")
}

// PersonByRaterInTask returns the partially nested person x (r:t) benchmark
func PersonByRaterInTask() (*dataset.Table, gtheory.FacetAlgebra) {
	table := dataset.NewTable([]string{"person", "r", "t"})
	for r, column := range raterInTaskScores {
		task := r/4 + 1
		for p, score := range column {
			_ = table.Append(
				[]string{strconv.Itoa(p + 1), strconv.Itoa(r + 1), strconv.Itoa(task)},
				float64(score))
		}
	}
	return table, mustParse("person x (r:t)")
}
