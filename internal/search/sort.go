// Path: internal/search/sort.go
package search

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"food-explorer/internal/domain"
)

// sortProducts returns a sorted copy of products. Every comparator is applied
// with a stable sort so that ties keep their original relative (fetch) order;
// SortDefault is a plain copy.
func sortProducts(products []domain.Product, order domain.SortOrder) []domain.Product {
	list := make([]domain.Product, len(products))
	copy(list, products)

	switch order {
	case domain.SortNameAsc:
		col := newCollator()
		sort.SliceStable(list, func(i, j int) bool {
			return col.CompareString(list[i].Name(), list[j].Name()) < 0
		})
	case domain.SortNameDesc:
		col := newCollator()
		sort.SliceStable(list, func(i, j int) bool {
			return col.CompareString(list[j].Name(), list[i].Name()) < 0
		})
	case domain.SortGradeAsc:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].GradeRank() < list[j].GradeRank()
		})
	case domain.SortGradeDesc:
		sort.SliceStable(list, func(i, j int) bool {
			return list[j].GradeRank() < list[i].GradeRank()
		})
	}

	return list
}

// newCollator builds the locale-aware comparator used for name ordering.
// Collators are not safe for concurrent use, so each sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.English, collate.Loose)
}
