// Path: internal/search/sort_test.go
package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-explorer/internal/domain"
)

func products(specs ...[2]string) []domain.Product {
	out := make([]domain.Product, len(specs))
	for i, s := range specs {
		out[i] = domain.Product{Code: s[0], ProductName: s[0], NutritionGrades: s[1]}
	}
	return out
}

func codes(list []domain.Product) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.Code
	}
	return out
}

func TestSortIsAPermutation(t *testing.T) {
	input := products([2]string{"banana", "c"}, [2]string{"apple", "a"}, [2]string{"cherry", ""})

	for _, order := range []domain.SortOrder{
		domain.SortDefault, domain.SortNameAsc, domain.SortNameDesc,
		domain.SortGradeAsc, domain.SortGradeDesc,
	} {
		sorted := sortProducts(input, order)
		assert.Len(t, sorted, len(input), "order %s", order)
		assert.ElementsMatch(t, codes(input), codes(sorted), "order %s", order)
	}

	// The input slice itself is never reordered.
	assert.Equal(t, []string{"banana", "apple", "cherry"}, codes(input))
}

func TestSortByName(t *testing.T) {
	input := products([2]string{"Éclair", ""}, [2]string{"apple", ""}, [2]string{"Banana", ""})

	asc := sortProducts(input, domain.SortNameAsc)
	assert.Equal(t, []string{"apple", "Banana", "Éclair"}, codes(asc))

	desc := sortProducts(input, domain.SortNameDesc)
	assert.Equal(t, []string{"Éclair", "Banana", "apple"}, codes(desc))
}

func TestSortByNameEmptyNameCollatesFirst(t *testing.T) {
	input := []domain.Product{
		{Code: "noname"},
		{Code: "named", ProductName: "Apple"},
	}
	asc := sortProducts(input, domain.SortNameAsc)
	// "" collates before any name
	assert.Equal(t, []string{"noname", "named"}, codes(asc))
}

func TestSortByGrade(t *testing.T) {
	input := products(
		[2]string{"worst", "e"},
		[2]string{"ungraded", ""},
		[2]string{"best", "a"},
		[2]string{"mid", "c"},
	)

	asc := sortProducts(input, domain.SortGradeAsc)
	assert.Equal(t, []string{"best", "mid", "worst", "ungraded"}, codes(asc))

	desc := sortProducts(input, domain.SortGradeDesc)
	assert.Equal(t, []string{"ungraded", "worst", "mid", "best"}, codes(desc))
}

func TestGradeSortIsStable(t *testing.T) {
	// Three ungraded products all rank 6; their fetch order must survive.
	input := products(
		[2]string{"first", ""},
		[2]string{"second", "x"},
		[2]string{"third", ""},
	)
	sorted := sortProducts(input, domain.SortGradeAsc)
	require.Equal(t, []string{"first", "second", "third"}, codes(sorted))
}

func TestDefaultSortPreservesFetchOrder(t *testing.T) {
	input := products([2]string{"z", "e"}, [2]string{"a", "a"}, [2]string{"m", "c"})
	sorted := sortProducts(input, domain.SortDefault)
	assert.Equal(t, codes(input), codes(sorted))
}
