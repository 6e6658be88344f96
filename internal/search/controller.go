// Path: internal/search/controller.go
package search

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"food-explorer/internal/domain"
	"food-explorer/internal/events"
	"food-explorer/internal/offclient"
)

// User-facing messages stored in State.LastError. The upstream failure detail
// goes to the log, never to the user.
const (
	msgFetchFailed    = "Failed to fetch products. Please try again."
	msgLoadMoreFailed = "Failed to load more products."
	msgBarcodeNoMatch = "No product found for this barcode."
)

// ProductSource defines the client operations the controller needs.
// This allows for stubbing in tests.
type ProductSource interface {
	SearchByName(ctx context.Context, query string, page int) (*offclient.SearchResponse, error)
	SearchByBarcode(ctx context.Context, barcode string) (*offclient.ProductResponse, error)
	ProductsByCategory(ctx context.Context, categoryID string, page int) (*offclient.SearchResponse, error)
	WorldProducts(ctx context.Context, page int) (*offclient.SearchResponse, error)
}

// State is a snapshot of the controller's search state, safe to hand to a
// renderer.
type State struct {
	Query            string            `json:"query"`
	BarcodeQuery     string            `json:"barcode_query"`
	Mode             domain.SearchMode `json:"mode"`
	SelectedCategory string            `json:"selected_category"`
	SortOrder        domain.SortOrder  `json:"sort_order"`
	Page             int               `json:"page"`
	HasMore          bool              `json:"has_more"`
	Results          []domain.Product  `json:"results"`
	Loading          bool              `json:"loading"`
	LastError        string            `json:"last_error,omitempty"`
	BarcodeResult    *domain.Product   `json:"barcode_result,omitempty"`
}

// Params carries the optional overrides for a fresh search. A nil field means
// "keep the current value".
type Params struct {
	Query    *string
	Category *string
	Mode     *domain.SearchMode
	Sort     *domain.SortOrder
}

// Controller owns the query, sort and pagination state for one session and
// orchestrates calls to the product source.
//
// The mutex guards the state; network calls run with the lock released. A
// monotonic generation counter is taken at the start of every fresh search,
// and any response carrying a superseded generation is discarded without
// touching state, so overlapping searches cannot interleave stale writes.
type Controller struct {
	source    ProductSource
	threshold int
	log       logrus.FieldLogger
	broker    *events.Broker

	mu         sync.Mutex
	generation uint64
	state      State
}

// NewController creates a search controller. threshold is the minimum page
// length treated as "full" when inferring whether more pages exist.
func NewController(source ProductSource, threshold int, log logrus.FieldLogger, broker *events.Broker) *Controller {
	return &Controller{
		source:    source,
		threshold: threshold,
		log:       log,
		broker:    broker,
		state: State{
			Mode:      domain.ModeByName,
			SortOrder: domain.SortDefault,
			Page:      1,
			HasMore:   true,
		},
	}
}

// Snapshot returns a copy of the current state. The results slice is copied
// so renderers never alias the controller's own list.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	s.Results = make([]domain.Product, len(c.state.Results))
	copy(s.Results, c.state.Results)
	return s
}

// SetMode switches between name and barcode search. Switching clears the
// other mode's query, so only one of them is ever live.
func (c *Controller) SetMode(mode domain.SearchMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setModeLocked(mode)
}

func (c *Controller) setModeLocked(mode domain.SearchMode) {
	if mode == c.state.Mode {
		return
	}
	c.state.Mode = mode
	switch mode {
	case domain.ModeByBarcode:
		c.state.Query = ""
	default:
		c.state.BarcodeQuery = ""
	}
}

// Search runs a fresh search: page resets to 1, the barcode result is
// cleared, and the results are replaced by the first page of whichever filter
// wins (barcode mode, then category, then name query, then the world
// listing). Failures become a user-facing LastError; in non-barcode modes the
// previous results are intentionally kept on failure so the UI can show stale
// data under an error banner.
func (c *Controller) Search(ctx context.Context, p Params) {
	c.mu.Lock()
	if p.Mode != nil {
		c.setModeLocked(*p.Mode)
	}
	if p.Query != nil {
		if c.state.Mode == domain.ModeByBarcode {
			c.state.BarcodeQuery = *p.Query
		} else {
			c.state.Query = *p.Query
		}
	}
	if p.Category != nil {
		c.state.SelectedCategory = *p.Category
	}
	if p.Sort != nil {
		c.state.SortOrder = *p.Sort
	}

	c.generation++
	gen := c.generation

	c.state.Page = 1
	c.state.BarcodeResult = nil
	c.state.LastError = ""
	c.state.Loading = true

	mode := c.state.Mode
	barcode := c.state.BarcodeQuery
	query := c.state.Query
	category := c.state.SelectedCategory
	order := c.state.SortOrder

	if mode == domain.ModeByBarcode && barcode == "" {
		// Empty barcode query short-circuits locally with no network call.
		c.state.Results = nil
		c.state.HasMore = false
		c.state.Loading = false
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if mode == domain.ModeByBarcode {
		c.searchBarcode(ctx, gen, barcode)
		return
	}

	resp, err := c.fetchPage(ctx, category, query, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return // superseded by a newer search
	}
	c.state.Loading = false

	if err != nil {
		c.log.WithError(err).Warn("search failed")
		c.state.LastError = msgFetchFailed
		return
	}

	c.state.Results = sortProducts(resp.Products, order)
	c.state.HasMore = len(resp.Products) >= c.threshold
	c.publish(events.TopicSearchCompleted, len(resp.Products))
}

// searchBarcode resolves a single product by exact barcode.
func (c *Controller) searchBarcode(ctx context.Context, gen uint64, barcode string) {
	resp, err := c.source.SearchByBarcode(ctx, barcode)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.state.Loading = false
	c.state.HasMore = false

	if err != nil {
		c.log.WithError(err).Warn("barcode lookup failed")
		c.state.Results = nil
		c.state.LastError = msgFetchFailed
		return
	}
	if resp.Status != 1 || resp.Product == nil {
		c.state.Results = nil
		c.state.LastError = msgBarcodeNoMatch
		return
	}

	c.state.BarcodeResult = resp.Product
	c.state.Results = []domain.Product{*resp.Product}
	c.publish(events.TopicSearchCompleted, 1)
}

// LoadMore fetches the next page using the currently active filter and
// appends it to the results. It is a no-op while a fetch is in flight, when
// the last page was short, or in barcode mode. The page counter only advances
// on success.
func (c *Controller) LoadMore(ctx context.Context) {
	c.mu.Lock()
	if c.state.Loading || !c.state.HasMore || c.state.Mode == domain.ModeByBarcode {
		c.mu.Unlock()
		return
	}
	c.state.Loading = true
	gen := c.generation
	nextPage := c.state.Page + 1
	query := c.state.Query
	category := c.state.SelectedCategory
	order := c.state.SortOrder
	c.mu.Unlock()

	resp, err := c.fetchPage(ctx, category, query, nextPage)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return // a fresh search superseded this page
	}
	c.state.Loading = false

	if err != nil {
		c.log.WithError(err).Warn("load more failed")
		c.state.LastError = msgLoadMoreFailed
		return
	}

	merged := append(c.state.Results, resp.Products...)
	c.state.Results = sortProducts(merged, order)
	c.state.HasMore = len(resp.Products) >= c.threshold
	c.state.Page = nextPage
	c.publish(events.TopicSearchCompleted, len(resp.Products))
}

// ApplySort re-orders the in-memory results under the new order. No network
// call is made.
func (c *Controller) ApplySort(order domain.SortOrder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SortOrder = order
	c.state.Results = sortProducts(c.state.Results, order)
}

// fetchPage applies the filter precedence shared by Search and LoadMore:
// category first, then name query, then the default world listing.
func (c *Controller) fetchPage(ctx context.Context, category, query string, page int) (*offclient.SearchResponse, error) {
	switch {
	case category != "":
		return c.source.ProductsByCategory(ctx, category, page)
	case query != "":
		return c.source.SearchByName(ctx, query, page)
	default:
		return c.source.WorldProducts(ctx, page)
	}
}

func (c *Controller) publish(topic string, data any) {
	if c.broker != nil {
		c.broker.Publish(topic, data)
	}
}
