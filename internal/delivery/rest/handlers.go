// Path: internal/delivery/rest/handlers.go
package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"food-explorer/internal/domain"
	"food-explorer/internal/offclient"
	"food-explorer/internal/search"
	"food-explorer/internal/session"
)

// sessionProvider resolves the controller pair for a request.
type sessionProvider interface {
	Get(w http.ResponseWriter, r *http.Request) *session.Session
}

// categoryProvider lists the category filter options.
type categoryProvider interface {
	Categories() []domain.Category
}

// detailSource resolves a single product for the detail endpoint.
type detailSource interface {
	ProductDetail(ctx context.Context, barcode string) (*domain.Product, error)
}

// Handlers holds dependencies for the JSON API.
type Handlers struct {
	sessions sessionProvider
	catalog  categoryProvider
	detail   detailSource
	log      logrus.FieldLogger
}

// NewHandlers creates the API handler struct.
func NewHandlers(sessions sessionProvider, catalog categoryProvider, detail detailSource, log logrus.FieldLogger) *Handlers {
	return &Handlers{
		sessions: sessions,
		catalog:  catalog,
		detail:   detail,
		log:      log,
	}
}

// RegisterRoutes registers the JSON API routes.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/products", h.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/api/products/more", h.handleLoadMore).Methods(http.MethodPost)
	r.HandleFunc("/api/products/sort", h.handleSort).Methods(http.MethodPost)
	r.HandleFunc("/api/products/{code}", h.handleProductDetail).Methods(http.MethodGet)
	r.HandleFunc("/api/categories", h.handleCategories).Methods(http.MethodGet)
	r.HandleFunc("/api/cart", h.handleCartView).Methods(http.MethodGet)
	r.HandleFunc("/api/cart/items", h.handleCartAdd).Methods(http.MethodPost)
	r.HandleFunc("/api/cart/items/{code}", h.handleCartUpdate).Methods(http.MethodPatch)
	r.HandleFunc("/api/cart/items/{code}", h.handleCartRemove).Methods(http.MethodDelete)
	r.HandleFunc("/api/cart/clear", h.handleCartClear).Methods(http.MethodPost)
	r.HandleFunc("/api/cart/checkout", h.handleCheckout).Methods(http.MethodPost)
	r.HandleFunc("/api/cart/open", h.handleCartOpen).Methods(http.MethodPost)
	r.HandleFunc("/api/cart/close", h.handleCartClose).Methods(http.MethodPost)
	r.HandleFunc("/healthz", h.handleHealthz).Methods(http.MethodGet)
}

// handleSearch runs a fresh search for the session and returns the resulting
// state. Query params: q, barcode, mode, category, sort. Absent params keep
// the session's current values.
func (h *Handlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	q := r.URL.Query()

	var params search.Params
	if mode, ok := searchMode(q.Get("mode")); ok {
		params.Mode = &mode
	}
	if q.Has("barcode") {
		barcode := q.Get("barcode")
		mode := domain.ModeByBarcode
		params.Mode = &mode
		params.Query = &barcode
	} else if q.Has("q") {
		query := q.Get("q")
		params.Query = &query
	}
	if q.Has("category") {
		category := q.Get("category")
		params.Category = &category
	}
	if order, ok := sortOrder(q.Get("sort")); ok {
		params.Sort = &order
	}

	sess.Search.Search(r.Context(), params)
	writeJSON(w, http.StatusOK, sess.Search.Snapshot())
}

func (h *Handlers) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	sess.Search.LoadMore(r.Context())
	writeJSON(w, http.StatusOK, sess.Search.Snapshot())
}

func (h *Handlers) handleSort(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	order, ok := sortOrder(r.URL.Query().Get("sort"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown sort order")
		return
	}
	sess.Search.ApplySort(order)
	writeJSON(w, http.StatusOK, sess.Search.Snapshot())
}

func (h *Handlers) handleProductDetail(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	product, err := h.detail.ProductDetail(r.Context(), code)
	if err != nil {
		if errors.Is(err, offclient.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.log.WithError(err).Error("product detail fetch failed")
		writeError(w, http.StatusBadGateway, "product service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handlers) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Categories())
}

func (h *Handlers) handleCartView(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	writeJSON(w, http.StatusOK, sess.Cart.Snapshot())
}

// handleCartAdd adds a product to the cart. The product document travels in
// the body: the cart is session state, not a server-side catalog, so the
// client supplies what it rendered.
func (h *Handlers) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil || product.Code == "" {
		writeError(w, http.StatusBadRequest, "invalid product payload")
		return
	}

	sess.Cart.Add(product)
	writeJSON(w, http.StatusOK, sess.Cart.Snapshot())
}

func (h *Handlers) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	code := mux.Vars(r)["code"]

	var body struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid quantity payload")
		return
	}

	sess.Cart.UpdateQty(code, body.Qty)
	writeJSON(w, http.StatusOK, sess.Cart.Snapshot())
}

func (h *Handlers) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	sess.Cart.Remove(mux.Vars(r)["code"])
	writeJSON(w, http.StatusOK, sess.Cart.Snapshot())
}

func (h *Handlers) handleCartClear(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	sess.Cart.Clear()
	writeJSON(w, http.StatusOK, sess.Cart.Snapshot())
}

func (h *Handlers) handleCheckout(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	ordered := sess.Cart.Checkout()
	if ordered == nil {
		writeError(w, http.StatusConflict, "cart is empty")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ordered": ordered,
		"cart":    sess.Cart.Snapshot(),
	})
}

func (h *Handlers) handleCartOpen(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	sess.Cart.Open()
	writeJSON(w, http.StatusOK, sess.Cart.Snapshot())
}

func (h *Handlers) handleCartClose(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	sess.Cart.Close()
	writeJSON(w, http.StatusOK, sess.Cart.Snapshot())
}

func (h *Handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func searchMode(s string) (domain.SearchMode, bool) {
	switch domain.SearchMode(s) {
	case domain.ModeByName, domain.ModeByBarcode:
		return domain.SearchMode(s), true
	}
	return "", false
}

func sortOrder(s string) (domain.SortOrder, bool) {
	switch domain.SortOrder(s) {
	case domain.SortDefault, domain.SortNameAsc, domain.SortNameDesc,
		domain.SortGradeAsc, domain.SortGradeDesc:
		return domain.SortOrder(s), true
	}
	return "", false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
