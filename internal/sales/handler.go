package sales

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/workspace"
)

// Handler manages sales endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	carts   *workspace.Registry[*Cart]
	deps    CartDeps
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, carts *workspace.Registry[*Cart], deps CartDeps) *Handler {
	return &Handler{logger: logger, service: service, carts: carts, deps: deps}
}

// NewCarts returns the registry holding one cart per session.
func NewCarts() *workspace.Registry[*Cart] {
	return workspace.NewRegistry[*Cart](nil)
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.viewCart)
		r.Delete("/", h.resetCart)
		r.Post("/scan", h.scan)
		r.Post("/choose", h.choose)
		r.Post("/items/{productID}/adjust", h.adjust)
		r.Delete("/items/{productID}", h.remove)
		r.Put("/type", h.setType)
		r.Get("/customers", h.searchCustomers)
		r.Put("/customer", h.selectCustomer)
		r.Delete("/customer", h.clearCustomer)
		r.Post("/submit", h.submit)
	})

	r.Get("/quotes", h.listQuotes)
	r.Post("/quotes/{id}/archive", h.archiveQuote)
	r.Post("/quotes/{id}/convert", h.convertQuote)

	r.Get("/history", h.listHistory)
	r.Get("/history/{id}", h.showSale)
	r.Get("/history/{id}/pdf", h.downloadPDF)
}

// ============================================================================
// CART
// ============================================================================

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, cart.View())
}

func (h *Handler) resetCart(w http.ResponseWriter, r *http.Request) {
	if id, ok := shared.SessionID(r.Context()); ok {
		h.carts.Drop(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

type scanRequest struct {
	Query string `json:"query"`
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid scan payload"))
		return
	}
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	outcome, err := cart.Lookup(r.Context(), req.Query)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		h.fail(w, "cart lookup failed", err)
		return
	}
	resp := map[string]any{"outcome": outcome, "cart": cart.View()}
	if outcome == catalog.OutcomeNotFound {
		resp["message"] = shared.Reason(err, "product not found")
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type productRequest struct {
	ProductID int64 `json:"productId"`
}

func (h *Handler) choose(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid product payload"))
		return
	}
	h.mutate(w, r, "choose product failed", func(c *Cart) error { return c.Choose(req.ProductID) })
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid adjust payload"))
		return
	}
	h.mutate(w, r, "adjust quantity failed", func(c *Cart) error { return c.Adjust(id, req.Delta) })
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	h.mutate(w, r, "remove product failed", func(c *Cart) error { return c.Remove(id) })
}

type typeRequest struct {
	Type string `json:"type"`
}

func (h *Handler) setType(w http.ResponseWriter, r *http.Request) {
	var req typeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid type payload"))
		return
	}
	t, err := ParseDocumentType(req.Type)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.mutate(w, r, "set document type failed", func(c *Cart) error { return c.SetType(t) })
}

func (h *Handler) searchCustomers(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	rows, err := cart.SearchCustomers(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.fail(w, "customer lookup failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

type customerRequest struct {
	CustomerID int64 `json:"customerId"`
}

func (h *Handler) selectCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid customer payload"))
		return
	}
	h.mutate(w, r, "select customer failed", func(c *Cart) error { return c.SelectCustomer(req.CustomerID) })
}

func (h *Handler) clearCustomer(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "clear customer failed", (*Cart).ClearCustomer)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	view, err := cart.Submit(context.WithoutCancel(r.Context()))
	if err != nil {
		status := httpx.StatusFor(err)
		if IsRejected(err) {
			h.logger.Debug("sale rejected locally", slog.Any("error", err))
		} else {
			h.logger.Warn("sale submission failed", slog.Any("error", err))
		}
		httpx.JSON(w, status, map[string]any{
			"error": shared.Reason(err, view.Submission.Reason),
			"cart":  view,
		})
		return
	}
	h.logger.Info("sale registered", slog.String("document", view.Submission.Document))
	httpx.JSON(w, http.StatusCreated, view)
}

// ============================================================================
// QUOTES AND HISTORY
// ============================================================================

func (h *Handler) listQuotes(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Quotes(r.Context(), httpx.QueryBool(r, "archived"))
	if err != nil {
		h.fail(w, "list quotes failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) archiveQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.ArchiveQuote(r.Context(), id); err != nil {
		h.fail(w, "archive quote failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) convertQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req typeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid convert payload"))
		return
	}
	t, err := ParseDocumentType(req.Type)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	receipt, err := h.service.ConvertQuote(context.WithoutCancel(r.Context()), id, t)
	if err != nil {
		h.fail(w, "convert quote failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, receipt)
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.History(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, "list sales failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) showSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	d, err := h.service.Detail(r.Context(), id)
	if err != nil {
		h.fail(w, "sale detail failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) downloadPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	doc, err := h.service.PDF(r.Context(), id)
	if err != nil {
		h.fail(w, "sale pdf failed", err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(doc.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

// ============================================================================
// HELPERS
// ============================================================================

func (h *Handler) cart(w http.ResponseWriter, r *http.Request) (*Cart, bool) {
	id, ok := shared.SessionID(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return nil, false
	}
	return h.carts.Get(id, func() *Cart { return NewCart(h.deps) }), true
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, msg string, fn func(*Cart) error) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	if err := fn(cart); err != nil {
		h.fail(w, msg, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cart.View())
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if IsRejected(err) || errors.Is(err, shared.ErrNotFound) {
		h.logger.Debug(msg, slog.Any("error", err))
	} else {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.Validation("invalid "+name))
		return 0, false
	}
	return id, true
}
