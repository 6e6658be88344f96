// Path: internal/delivery/rest/handlers_test.go
package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-explorer/internal/cart"
	"food-explorer/internal/config"
	"food-explorer/internal/domain"
	"food-explorer/internal/offclient"
	"food-explorer/internal/search"
	"food-explorer/internal/session"
)

// stubSource serves a fixed page for every list operation.
type stubSource struct {
	page []domain.Product
}

func (s *stubSource) SearchByName(context.Context, string, int) (*offclient.SearchResponse, error) {
	return &offclient.SearchResponse{Products: s.page}, nil
}

func (s *stubSource) SearchByBarcode(_ context.Context, barcode string) (*offclient.ProductResponse, error) {
	return &offclient.ProductResponse{Status: 1, Product: &domain.Product{Code: barcode}}, nil
}

func (s *stubSource) ProductsByCategory(context.Context, string, int) (*offclient.SearchResponse, error) {
	return &offclient.SearchResponse{Products: s.page}, nil
}

func (s *stubSource) WorldProducts(context.Context, int) (*offclient.SearchResponse, error) {
	return &offclient.SearchResponse{Products: s.page}, nil
}

type stubDetail struct {
	product *domain.Product
	err     error
}

func (s *stubDetail) ProductDetail(context.Context, string) (*domain.Product, error) {
	return s.product, s.err
}

type fixedCatalog struct{ cats []domain.Category }

func (f *fixedCatalog) Categories() []domain.Category { return f.cats }

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type testEnv struct {
	router  *mux.Router
	manager *session.Manager
	cookies []*http.Cookie
}

func newTestEnv(t *testing.T, source search.ProductSource, detail detailSource) *testEnv {
	t.Helper()
	log := testLogger()

	manager := session.NewManager(config.SessionConfig{
		TTL:             time.Minute,
		JanitorInterval: time.Minute,
		CookieName:      "fpx_session",
	}, func() (*search.Controller, *cart.Controller) {
		return search.NewController(source, 20, log, nil),
			cart.NewController(10*time.Millisecond, nil)
	}, log)
	t.Cleanup(manager.Stop)

	catalog := &fixedCatalog{cats: []domain.Category{{ID: "beverages", Name: "Beverages"}}}

	router := mux.NewRouter()
	NewHandlers(manager, catalog, detail, log).RegisterRoutes(router)
	return &testEnv{router: router, manager: manager}
}

// do performs a request, carrying the session cookie across calls.
func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	for _, c := range e.cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		e.cookies = cookies
	}
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) search.State {
	t.Helper()
	var state search.State
	require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
	return state
}

func decodeCart(t *testing.T, w *httptest.ResponseRecorder) cart.State {
	t.Helper()
	var state cart.State
	require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
	return state
}

func TestSearchEndpoint(t *testing.T) {
	env := newTestEnv(t, &stubSource{page: []domain.Product{
		{Code: "1", ProductName: "Milk"},
		{Code: "2", ProductName: "Bread"},
	}}, &stubDetail{})

	w := env.do(http.MethodGet, "/api/products?q=milk", "")
	require.Equal(t, http.StatusOK, w.Code)

	state := decodeState(t, w)
	assert.Equal(t, "milk", state.Query)
	assert.Len(t, state.Results, 2)
	assert.False(t, state.HasMore, "two items is a short page")
	require.NotEmpty(t, env.cookies, "first request establishes a session")
}

func TestSearchStatePersistsAcrossRequests(t *testing.T) {
	env := newTestEnv(t, &stubSource{page: []domain.Product{{Code: "1"}}}, &stubDetail{})

	env.do(http.MethodGet, "/api/products?q=milk", "")
	w := env.do(http.MethodPost, "/api/products/sort?sort=name_asc", "")
	require.Equal(t, http.StatusOK, w.Code)

	state := decodeState(t, w)
	assert.Equal(t, "milk", state.Query, "same session, same search state")
	assert.Equal(t, domain.SortNameAsc, state.SortOrder)
	assert.Equal(t, 1, env.manager.Count())
}

func TestSortEndpointRejectsUnknownOrder(t *testing.T) {
	env := newTestEnv(t, &stubSource{}, &stubDetail{})
	w := env.do(http.MethodPost, "/api/products/sort?sort=price_asc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBarcodeParamSwitchesMode(t *testing.T) {
	env := newTestEnv(t, &stubSource{}, &stubDetail{})
	w := env.do(http.MethodGet, "/api/products?barcode=4000417025005", "")

	state := decodeState(t, w)
	assert.Equal(t, domain.ModeByBarcode, state.Mode)
	require.Len(t, state.Results, 1)
	assert.Equal(t, "4000417025005", state.Results[0].Code)
	assert.False(t, state.HasMore)
}

func TestCartLifecycle(t *testing.T) {
	env := newTestEnv(t, &stubSource{}, &stubDetail{})

	w := env.do(http.MethodPost, "/api/cart/items", `{"code":"1","product_name":"Milk"}`)
	require.Equal(t, http.StatusOK, w.Code)
	state := decodeCart(t, w)
	assert.Equal(t, 1, state.TotalItems)
	assert.True(t, state.IsOpen)

	w = env.do(http.MethodPost, "/api/cart/items", `{"code":"1","product_name":"Milk"}`)
	state = decodeCart(t, w)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.Items[0].Qty)

	w = env.do(http.MethodPatch, "/api/cart/items/1", `{"qty":0}`)
	state = decodeCart(t, w)
	assert.Empty(t, state.Items)
}

func TestCartAddRejectsMissingCode(t *testing.T) {
	env := newTestEnv(t, &stubSource{}, &stubDetail{})
	w := env.do(http.MethodPost, "/api/cart/items", `{"product_name":"Milk"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutEndpoint(t *testing.T) {
	env := newTestEnv(t, &stubSource{}, &stubDetail{})

	w := env.do(http.MethodPost, "/api/cart/checkout", "")
	assert.Equal(t, http.StatusConflict, w.Code, "empty cart cannot check out")

	env.do(http.MethodPost, "/api/cart/items", `{"code":"1","product_name":"Milk"}`)
	w = env.do(http.MethodPost, "/api/cart/checkout", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Ordered []cart.Item `json:"ordered"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Ordered, 1)
	assert.Equal(t, "1", body.Ordered[0].Product.Code)
}

func TestProductDetailEndpoint(t *testing.T) {
	env := newTestEnv(t, &stubSource{}, &stubDetail{
		product: &domain.Product{Code: "1", ProductName: "Milk"},
	})
	w := env.do(http.MethodGet, "/api/products/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var p domain.Product
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	assert.Equal(t, "Milk", p.ProductName)
}

func TestProductDetailNotFound(t *testing.T) {
	env := newTestEnv(t, &stubSource{}, &stubDetail{
		err: errors.Wrap(offclient.ErrNotFound, "barcode 0"),
	})
	w := env.do(http.MethodGet, "/api/products/0", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategoriesEndpoint(t *testing.T) {
	env := newTestEnv(t, &stubSource{}, &stubDetail{})
	w := env.do(http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)

	var cats []domain.Category
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cats))
	require.Len(t, cats, 1)
	assert.Equal(t, "beverages", cats[0].ID)
}
