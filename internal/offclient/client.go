// Path: internal/offclient/client.go
package offclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"food-explorer/internal/config"
	"food-explorer/internal/domain"
)

// searchFields is the projection requested from the search endpoints; the
// full product documents are far larger than what the explorer renders.
const searchFields = "code,product_name,image_url,categories,ingredients_text,nutrition_grades,nutriments,labels"

var (
	// ErrNetwork marks a request that failed after exhausting its retries:
	// transport errors, timeouts, and non-2xx responses.
	ErrNetwork = errors.New("product API request failed")

	// ErrNotFound marks a barcode lookup the upstream resolved with status=0.
	ErrNotFound = errors.New("product not found")
)

// SearchResponse is the envelope returned by the list endpoints.
type SearchResponse struct {
	Products []domain.Product `json:"products"`
}

// ProductResponse is the envelope returned by the barcode/detail endpoint.
type ProductResponse struct {
	Status  int             `json:"status"`
	Product *domain.Product `json:"product"`
}

// CategoriesResponse is the envelope returned by the category taxonomy
// endpoint.
type CategoriesResponse struct {
	Tags []domain.Category `json:"tags"`
}

// Client is an HTTP client for the Open Food Facts API.
type Client struct {
	cfg     config.ClientConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates and configures a new Client.
func NewClient(cfg config.ClientConfig) *Client {
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(
			rate.Limit(cfg.RequestsPerSecond),
			cfg.BurstLimit,
		),
	}
}

// PageSize returns the configured page size for list requests.
func (c *Client) PageSize() int {
	return c.cfg.PageSize
}

// SearchByName performs a free-text product search for a single page.
func (c *Client) SearchByName(ctx context.Context, query string, page int) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page", fmt.Sprint(page))
	params.Set("page_size", fmt.Sprint(c.cfg.PageSize))
	params.Set("fields", searchFields)

	var out SearchResponse
	if err := c.getJSON(ctx, "/cgi/search.pl", params, c.cfg.Retries, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchByBarcode looks up a single product by its exact barcode. A status=0
// response is returned as-is; translating it into a user-visible outcome is
// the caller's concern.
func (c *Client) SearchByBarcode(ctx context.Context, barcode string) (*ProductResponse, error) {
	var out ProductResponse
	path := fmt.Sprintf("/api/v0/product/%s.json", url.PathEscape(barcode))
	if err := c.getJSON(ctx, path, nil, c.cfg.Retries, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProductsByCategory fetches a single page of products tagged with the given
// category.
func (c *Client) ProductsByCategory(ctx context.Context, categoryID string, page int) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("page", fmt.Sprint(page))

	var out SearchResponse
	path := fmt.Sprintf("/category/%s.json", url.PathEscape(categoryID))
	if err := c.getJSON(ctx, path, params, c.cfg.Retries, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WorldProducts fetches a page of the unfiltered, popularity-sorted listing
// used as the default view.
func (c *Client) WorldProducts(ctx context.Context, page int) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page", fmt.Sprint(page))
	params.Set("page_size", fmt.Sprint(c.cfg.PageSize))
	params.Set("sort_by", "popularity")
	params.Set("fields", searchFields)

	var out SearchResponse
	if err := c.getJSON(ctx, "/cgi/search.pl", params, c.cfg.Retries, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Categories fetches the full category taxonomy. Best-effort: it retries
// fewer times than the product endpoints because callers fall back to a
// built-in list on failure.
func (c *Client) Categories(ctx context.Context) (*CategoriesResponse, error) {
	var out CategoriesResponse
	if err := c.getJSON(ctx, "/categories.json", nil, c.cfg.CategoryRetries, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProductDetail resolves a single product for the detail view. Unlike
// SearchByBarcode it folds a status=0 response into ErrNotFound.
func (c *Client) ProductDetail(ctx context.Context, barcode string) (*domain.Product, error) {
	resp, err := c.SearchByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if resp.Status != 1 || resp.Product == nil {
		return nil, errors.Wrapf(ErrNotFound, "barcode %s", barcode)
	}
	return resp.Product, nil
}

// getJSON performs a GET with retries and decodes the response body into out.
// Each attempt waits on the rate limiter; between failed attempts the backoff
// grows geometrically (base, base*factor, base*factor^2, ...).
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, retries int, out any) error {
	var lastErr error
	delay := c.cfg.BackoffBase

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Wrap(ErrNetwork, ctx.Err().Error())
			case <-timer.C:
			}
			delay = time.Duration(float64(delay) * c.cfg.BackoffFactor)
		}

		lastErr = c.doOnce(ctx, path, params, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	return errors.Wrapf(ErrNetwork, "GET %s: %v", path, lastErr)
}

// doOnce performs a single GET attempt.
func (c *Client) doOnce(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := c.cfg.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal json response: %w", err)
	}
	return nil
}
