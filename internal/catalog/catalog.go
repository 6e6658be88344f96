// Path: internal/catalog/catalog.go
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"food-explorer/internal/domain"
	"food-explorer/internal/offclient"
)

const (
	// minProducts filters out long-tail taxonomy entries.
	minProducts = 1000
	// maxCategories caps the filter dropdown.
	maxCategories = 60
)

// defaultCategories is the built-in fallback used when the taxonomy fetch
// fails. Never surfaced as an error.
var defaultCategories = []domain.Category{
	{ID: "beverages", Name: "Beverages"},
	{ID: "dairy", Name: "Dairy"},
	{ID: "snacks", Name: "Snacks"},
	{ID: "cereals-and-their-products", Name: "Cereals"},
	{ID: "chocolates", Name: "Chocolates"},
	{ID: "biscuits-and-cakes", Name: "Biscuits & Cakes"},
	{ID: "fruits-and-vegetables", Name: "Fruits & Vegetables"},
	{ID: "meats", Name: "Meats"},
	{ID: "frozen-foods", Name: "Frozen Foods"},
	{ID: "sauces", Name: "Sauces"},
	{ID: "breads", Name: "Breads"},
	{ID: "ice-creams", Name: "Ice Creams"},
}

// CategorySource defines the client operation the catalog needs.
type CategorySource interface {
	Categories(ctx context.Context) (*offclient.CategoriesResponse, error)
}

// Catalog holds the category list offered as search filters. It starts with
// the built-in popular categories and upgrades itself once from the live
// taxonomy.
type Catalog struct {
	source CategorySource
	log    logrus.FieldLogger

	mu         sync.RWMutex
	categories []domain.Category
}

// New creates a catalog pre-populated with the built-in categories.
func New(source CategorySource, log logrus.FieldLogger) *Catalog {
	return &Catalog{
		source:     source,
		log:        log,
		categories: defaultCategories,
	}
}

// Load fetches the live taxonomy and replaces the built-in list with the most
// popular entries: product count above the threshold, sorted by count
// descending, capped, with the "en:" language prefix stripped from IDs. Any
// failure keeps the built-in list and is logged at warn only.
func (c *Catalog) Load(ctx context.Context) {
	resp, err := c.source.Categories(ctx)
	if err != nil {
		c.log.WithError(err).Warn("category taxonomy fetch failed, keeping built-in list")
		return
	}

	popular := make([]domain.Category, 0, maxCategories)
	for _, tag := range resp.Tags {
		if tag.Products <= minProducts {
			continue
		}
		popular = append(popular, tag)
	}
	sort.SliceStable(popular, func(i, j int) bool {
		return popular[i].Products > popular[j].Products
	})
	if len(popular) > maxCategories {
		popular = popular[:maxCategories]
	}
	for i := range popular {
		if popular[i].ID != "" {
			popular[i].ID = strings.TrimPrefix(popular[i].ID, "en:")
		} else {
			popular[i].ID = popular[i].Name
		}
	}

	if len(popular) == 0 {
		return
	}

	c.mu.Lock()
	c.categories = popular
	c.mu.Unlock()
	c.log.WithField("count", len(popular)).Info("category list loaded")
}

// Categories returns a copy of the current category list.
func (c *Catalog) Categories() []domain.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Category, len(c.categories))
	copy(out, c.categories)
	return out
}
