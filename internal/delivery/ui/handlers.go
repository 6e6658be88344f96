// path: internal/delivery/ui/handlers.go
package ui

import (
	"context"
	"html/template"
	"net/http"
	"strconv"

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

// detailSource resolves a single product for the detail page.
type detailSource interface {
	ProductDetail(ctx context.Context, barcode string) (*domain.Product, error)
}

// Handlers holds dependencies for the server-rendered pages.
type Handlers struct {
	sessions  sessionProvider
	catalog   categoryProvider
	detail    detailSource
	log       logrus.FieldLogger
	templates *template.Template
}

// NewHandlers creates the UI handler struct, parsing the page templates.
func NewHandlers(sessions sessionProvider, catalog categoryProvider, detail detailSource, log logrus.FieldLogger) *Handlers {
	funcs := template.FuncMap{
		"gradeLabel": gradeLabel,
		"nutriment": func(p *domain.Product, key string) string {
			v, ok := p.Nutriment(key)
			if !ok {
				return "—"
			}
			return strconv.FormatFloat(v, 'f', -1, 64)
		},
	}
	tpl := template.Must(template.New("").Funcs(funcs).ParseGlob("web/template/*.html"))
	tpl = template.Must(tpl.ParseGlob("web/template/fragments/*.html"))

	return &Handlers{
		sessions:  sessions,
		catalog:   catalog,
		detail:    detail,
		log:       log,
		templates: tpl,
	}
}

// RegisterRoutes registers all UI routes on the given router. Most specific
// routes first; "/" is the catch-all and must come last.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	fileServer := http.FileServer(http.Dir("./web/static"))
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", fileServer))

	r.HandleFunc("/search", h.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/more", h.handleLoadMore).Methods(http.MethodPost)
	r.HandleFunc("/sort", h.handleSort).Methods(http.MethodPost)
	r.HandleFunc("/product/{code}", h.handleProductDetail).Methods(http.MethodGet)
	r.HandleFunc("/cart/add", h.handleCartAdd).Methods(http.MethodPost)
	r.HandleFunc("/cart/update", h.handleCartUpdate).Methods(http.MethodPost)
	r.HandleFunc("/cart/remove", h.handleCartRemove).Methods(http.MethodPost)
	r.HandleFunc("/cart/clear", h.handleCartClear).Methods(http.MethodPost)
	r.HandleFunc("/cart/checkout", h.handleCheckout).Methods(http.MethodPost)
	r.HandleFunc("/cart/toggle", h.handleCartToggle).Methods(http.MethodPost)
	r.HandleFunc("/", h.handleIndex).Methods(http.MethodGet, http.MethodHead)
}

// handleIndex renders the main explorer page. A brand-new session gets the
// default world listing fetched before first render.
func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	sess := h.sessions.Get(w, r)

	state := sess.Search.Snapshot()
	if len(state.Results) == 0 && state.Query == "" && state.BarcodeQuery == "" &&
		state.SelectedCategory == "" && state.LastError == "" {
		sess.Search.Search(r.Context(), search.Params{})
		state = sess.Search.Snapshot()
	}

	h.render(w, "index.html", map[string]any{
		"State":      state,
		"Cart":       sess.Cart.Snapshot(),
		"Categories": h.catalog.Categories(),
	})
}

// handleSearch applies the submitted filters, runs a fresh search and sends
// the browser back to the index.
func (h *Handlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	q := r.URL.Query()

	var params search.Params
	mode := domain.ModeByName
	if q.Get("mode") == string(domain.ModeByBarcode) {
		mode = domain.ModeByBarcode
	}
	params.Mode = &mode

	query := q.Get("q")
	params.Query = &query
	category := q.Get("category")
	params.Category = &category
	if order, ok := sortOrder(q.Get("sort")); ok {
		params.Sort = &order
	}

	sess.Search.Search(r.Context(), params)
	redirectHome(w, r)
}

func (h *Handlers) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	sess.Search.LoadMore(r.Context())
	redirectHome(w, r)
}

func (h *Handlers) handleSort(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	if order, ok := sortOrder(r.FormValue("sort")); ok {
		sess.Search.ApplySort(order)
	}
	redirectHome(w, r)
}

// handleProductDetail renders the detail page for one product.
func (h *Handlers) handleProductDetail(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	code := mux.Vars(r)["code"]

	product, err := h.detail.ProductDetail(r.Context(), code)
	if err != nil {
		if errors.Is(err, offclient.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.log.WithError(err).Error("product detail fetch failed")
		http.Error(w, "Product service unavailable", http.StatusBadGateway)
		return
	}

	h.render(w, "product.html", map[string]any{
		"Product":    product,
		"Nutriments": domain.NutrimentLabels,
		"Cart":       sess.Cart.Snapshot(),
	})
}

// handleCartAdd adds a product by code. The product document is taken from
// the session's current results; unknown codes fall back to a detail fetch.
func (h *Handlers) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	code := r.FormValue("code")
	if code == "" {
		http.Error(w, "product code not specified", http.StatusBadRequest)
		return
	}

	product, ok := findProduct(sess.Search.Snapshot(), code)
	if !ok {
		fetched, err := h.detail.ProductDetail(r.Context(), code)
		if err != nil {
			h.log.WithError(err).WithField("code", code).Warn("could not resolve product for cart")
			http.Error(w, "Could not add product to cart", http.StatusBadGateway)
			return
		}
		product = *fetched
	}

	sess.Cart.Add(product)
	redirectBack(w, r)
}

func (h *Handlers) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	code := r.FormValue("code")
	qty, err := strconv.Atoi(r.FormValue("qty"))
	if code == "" || err != nil {
		http.Error(w, "invalid code or quantity", http.StatusBadRequest)
		return
	}
	sess.Cart.UpdateQty(code, qty)
	redirectBack(w, r)
}

func (h *Handlers) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	sess.Cart.Remove(r.FormValue("code"))
	redirectBack(w, r)
}

func (h *Handlers) handleCartClear(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	sess.Cart.Clear()
	redirectBack(w, r)
}

func (h *Handlers) handleCheckout(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	ordered := sess.Cart.Checkout()

	h.render(w, "checkout.html", map[string]any{
		"Ordered": ordered,
		"Cart":    sess.Cart.Snapshot(),
	})
}

func (h *Handlers) handleCartToggle(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(w, r)
	if sess.Cart.Snapshot().IsOpen {
		sess.Cart.Close()
	} else {
		sess.Cart.Open()
	}
	redirectBack(w, r)
}

func (h *Handlers) render(w http.ResponseWriter, name string, data any) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.log.WithError(err).WithField("template", name).Error("template execution failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func findProduct(state search.State, code string) (domain.Product, bool) {
	for _, p := range state.Results {
		if p.Code == code {
			return p, true
		}
	}
	if state.BarcodeResult != nil && state.BarcodeResult.Code == code {
		return *state.BarcodeResult, true
	}
	return domain.Product{}, false
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

func redirectBack(w http.ResponseWriter, r *http.Request) {
	target := r.Referer()
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func sortOrder(s string) (domain.SortOrder, bool) {
	switch domain.SortOrder(s) {
	case domain.SortDefault, domain.SortNameAsc, domain.SortNameDesc,
		domain.SortGradeAsc, domain.SortGradeDesc:
		return domain.SortOrder(s), true
	}
	return "", false
}

func gradeLabel(grade string) string {
	switch grade {
	case "a", "b", "c", "d", "e":
		return "Nutri-Score " + grade
	default:
		return "No grade"
	}
}
