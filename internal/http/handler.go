package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/invoice"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/profile"
)

const (
	requestTimeout  = 3 * time.Second
	checkoutTimeout = 10 * time.Second
)

type Handler struct {
	sessions *SessionRegistry
	catalog  catalog.Catalog
	checkout *checkout.Service
	profiles *profile.Service
	invoice  invoice.Options
	logger   *zap.Logger
}

// HandlerDeps wires a Handler. With a nil Catalog, added products are taken
// from the request as sent.
type HandlerDeps struct {
	Sessions *SessionRegistry
	Catalog  catalog.Catalog
	Checkout *checkout.Service
	Profiles *profile.Service
	Invoice  invoice.Options
	Logger   *zap.Logger
}

func NewHandler(d HandlerDeps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Handler{
		sessions: d.Sessions,
		catalog:  d.Catalog,
		checkout: d.Checkout,
		profiles: d.Profiles,
		invoice:  d.Invoice,
		logger:   d.Logger,
	}
}

type areaResponse struct {
	Items []cart.LineItem `json:"items"`
	Total json.Number     `json:"total"`
	Count int             `json:"count"`
}

func newAreaResponse(items []cart.LineItem) areaResponse {
	if items == nil {
		items = []cart.LineItem{}
	}
	return areaResponse{
		Items: items,
		Total: json.Number(cart.Total(items).String()),
		Count: cart.Count(items),
	}
}

type addItemRequest struct {
	Product      cart.Product `json:"product"`
	Quantity     *int         `json:"quantity"`
	SelectedSize string       `json:"selectedSize"`
}

type checkoutRequest struct {
	Source string `json:"source"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "storefront"})
}

func (h *Handler) store(ctx context.Context) (*cart.Store, error) {
	return h.sessions.Store(ctx, GetSessionID(ctx))
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s, err := h.store(ctx)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAreaResponse(s.Items()))
}

// decodeAddItem reads the add request. When a catalog is configured the
// product must name its category and is looked up there, so name and price
// never come from the client. Quantity defaults to 1.
func (h *Handler) decodeAddItem(ctx context.Context, r *http.Request) (cart.Product, int, cart.Size, error) {
	var body addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return cart.Product{}, 0, "", errInvalidJSON
	}

	size, err := cart.ParseSize(body.SelectedSize)
	if err != nil {
		return cart.Product{}, 0, "", err
	}
	qty := 1
	if body.Quantity != nil {
		qty = *body.Quantity
	}

	p := body.Product
	if h.catalog == nil {
		return p, qty, size, nil
	}
	if p.ID == "" {
		return cart.Product{}, 0, "", cart.ErrMissingProduct
	}
	if p.Category == "" {
		return cart.Product{}, 0, "", catalog.ErrMissingCategory
	}
	if p, err = h.catalog.Product(ctx, p.Category, p.ID); err != nil {
		return cart.Product{}, 0, "", err
	}
	return p, qty, size, nil
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s, err := h.store(ctx)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	p, qty, size, err := h.decodeAddItem(ctx, r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if err := s.AddToCart(ctx, p, qty, size); err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAreaResponse(s.Items()))
}

// RemoveItem removes every size of the product, or one size when ?size= is
// present.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s, err := h.store(ctx)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	productID := chi.URLParam(r, "productId")
	if _, ok := r.URL.Query()["size"]; ok {
		size, perr := cart.ParseSize(r.URL.Query().Get("size"))
		if perr != nil {
			h.writeErr(w, r, perr)
			return
		}
		err = s.RemoveVariant(ctx, productID, size)
	} else {
		err = s.RemoveFromCart(ctx, productID)
	}
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAreaResponse(s.Items()))
}

func (h *Handler) IncreaseItem(w http.ResponseWriter, r *http.Request) {
	h.stepItem(w, r, (*cart.Store).IncreaseQuantity)
}

func (h *Handler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	h.stepItem(w, r, (*cart.Store).DecreaseQuantity)
}

func (h *Handler) stepItem(w http.ResponseWriter, r *http.Request, step func(*cart.Store, context.Context, string, cart.Size) error) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s, err := h.store(ctx)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	size, err := cart.ParseSize(r.URL.Query().Get("size"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if err := step(s, ctx, chi.URLParam(r, "productId"), size); err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAreaResponse(s.Items()))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s, err := h.store(ctx)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	s.ClearCart(ctx)
	writeJSON(w, http.StatusOK, newAreaResponse(s.Items()))
}

func (h *Handler) GetBuyNow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s, err := h.store(ctx)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAreaResponse(s.SingleProducts()))
}

func (h *Handler) AddBuyNow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s, err := h.store(ctx)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	p, qty, size, err := h.decodeAddItem(ctx, r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if err := s.AddSingleProduct(ctx, p, qty, size); err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAreaResponse(s.SingleProducts()))
}

func (h *Handler) ClearBuyNow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s, err := h.store(ctx)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	s.ClearSingleProducts(ctx)
	writeJSON(w, http.StatusOK, newAreaResponse(s.SingleProducts()))
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkoutTimeout)
	defer cancel()

	// an empty body checks out the cart
	var body checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		h.writeErr(w, r, errInvalidJSON)
		return
	}
	src, err := cart.ParseSource(body.Source)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	sid := GetSessionID(ctx)
	s, err := h.sessions.Store(ctx, sid)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	o, err := h.checkout.Checkout(ctx, sid, s, src, events.EventMeta{
		CorrelationID: GetCorrelationID(ctx),
		CausationID:   middleware.GetReqID(ctx),
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	orders, err := h.checkout.History(ctx, GetSessionID(ctx))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.checkout.Order(ctx, GetSessionID(ctx), chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	o, err := h.checkout.Order(ctx, GetSessionID(ctx), chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	pdf, err := invoice.Render(o, h.invoice)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+invoice.Filename(o)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cats, err := h.catalog.Categories(ctx)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}

	res, err := h.catalog.Products(ctx, chi.URLParam(r, "category"), page)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.catalog.Product(ctx, chi.URLParam(r, "category"), chi.URLParam(r, "productId"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p, err := h.profiles.Get(ctx, r.URL.Query().Get("email"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var body profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeErr(w, r, errInvalidJSON)
		return
	}
	p, err := h.profiles.Update(ctx, body)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
