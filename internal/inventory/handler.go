package inventory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/workspace"
)

// Handler wires HTTP endpoints for the inventory module.
type Handler struct {
	logger  *slog.Logger
	service *Service
	entries *workspace.Registry[*Entry]
	deps    EntryDeps
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service, entries *workspace.Registry[*Entry], deps EntryDeps) *Handler {
	return &Handler{logger: logger, service: service, entries: entries, deps: deps}
}

// NewEntries returns the registry holding one stock entry per session.
func NewEntries() *workspace.Registry[*Entry] {
	return workspace.NewRegistry[*Entry](nil)
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/entry", func(r chi.Router) {
		r.Get("/", h.viewEntry)
		r.Delete("/", h.resetEntry)
		r.Post("/search", h.search)
		r.Post("/choose", h.choose)
		r.Put("/pending", h.setPending)
		r.Post("/items", h.commit)
		r.Post("/items/{index}/adjust", h.adjust)
		r.Delete("/items/{index}", h.remove)
		r.Put("/header", h.setHeader)
		r.Post("/submit", h.submit)
	})
	r.Get("/suppliers", h.listSuppliers)
	r.Post("/suppliers", h.createSupplier)
	r.Get("/suppliers/consult/{ruc}", h.consultSupplier)
}

func (h *Handler) viewEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.entry(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, entry.View())
}

func (h *Handler) resetEntry(w http.ResponseWriter, r *http.Request) {
	if id, ok := shared.SessionID(r.Context()); ok {
		h.entries.Drop(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

type searchRequest struct {
	Query string `json:"query"`
	Scan  bool   `json:"scan"`
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid search payload"))
		return
	}
	entry, ok := h.entry(w, r)
	if !ok {
		return
	}
	outcome, err := entry.Lookup(r.Context(), req.Query, req.Scan)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		h.fail(w, "entry lookup failed", err)
		return
	}
	resp := map[string]any{"outcome": outcome, "entry": entry.View()}
	if outcome == catalog.OutcomeNotFound {
		resp["message"] = shared.Reason(err, "product not found")
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type chooseRequest struct {
	ProductID int64 `json:"productId"`
}

func (h *Handler) choose(w http.ResponseWriter, r *http.Request) {
	var req chooseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid product payload"))
		return
	}
	h.mutate(w, r, "choose product failed", func(e *Entry) error { return e.Choose(req.ProductID) })
}

type pendingRequest struct {
	Quantity int             `json:"quantity"`
	UnitCost decimal.Decimal `json:"unitCost"`
}

func (h *Handler) setPending(w http.ResponseWriter, r *http.Request) {
	var req pendingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid pending row payload"))
		return
	}
	h.mutate(w, r, "set pending row failed", func(e *Entry) error { return e.SetPending(req.Quantity, req.UnitCost) })
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "commit row failed", (*Entry).Commit)
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid adjust payload"))
		return
	}
	h.mutate(w, r, "adjust row failed", func(e *Entry) error { return e.AdjustAt(index, req.Delta) })
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	h.mutate(w, r, "remove row failed", func(e *Entry) error { return e.RemoveAt(index) })
}

func (h *Handler) setHeader(w http.ResponseWriter, r *http.Request) {
	var req Header
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid header payload"))
		return
	}
	h.mutate(w, r, "set header failed", func(e *Entry) error { return e.SetHeader(req) })
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.entry(w, r)
	if !ok {
		return
	}
	view, err := entry.Submit(context.WithoutCancel(r.Context()))
	if err != nil {
		if errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrBusy) {
			h.logger.Debug("stock entry rejected locally", slog.Any("error", err))
		} else {
			h.logger.Warn("stock entry submission failed", slog.Any("error", err))
		}
		httpx.JSON(w, httpx.StatusFor(err), map[string]any{
			"error": shared.Reason(err, view.Submission.Reason),
			"entry": view,
		})
		return
	}
	h.logger.Info("stock entry registered", slog.String("document", view.Submission.Document))
	httpx.JSON(w, http.StatusCreated, view)
}

// ============================================================================
// SUPPLIERS
// ============================================================================

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Suppliers(r.Context())
	if err != nil {
		h.fail(w, "list suppliers failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req SupplierPayload
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid supplier payload"))
		return
	}
	sup, err := h.service.CreateSupplier(r.Context(), req)
	if err != nil {
		h.fail(w, "create supplier failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sup)
}

type consultResponse struct {
	ExternalSupplier
	Warning string `json:"warning,omitempty"`
}

func (h *Handler) consultSupplier(w http.ResponseWriter, r *http.Request) {
	ext, err := h.service.ConsultSupplier(r.Context(), chi.URLParam(r, "ruc"))
	if err != nil {
		h.fail(w, "consult supplier failed", err)
		return
	}
	resp := consultResponse{ExternalSupplier: ext}
	if !ext.Active() {
		resp.Warning = "supplier status: " + ext.Status
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// ============================================================================
// HELPERS
// ============================================================================

func (h *Handler) entry(w http.ResponseWriter, r *http.Request) (*Entry, bool) {
	id, ok := shared.SessionID(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return nil, false
	}
	return h.entries.Get(id, func() *Entry { return NewEntry(h.deps) }), true
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, msg string, fn func(*Entry) error) {
	entry, ok := h.entry(w, r)
	if !ok {
		return
	}
	if err := fn(entry); err != nil {
		h.fail(w, msg, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry.View())
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrBusy):
		h.logger.Debug(msg, slog.Any("error", err))
	default:
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		httpx.RespondError(w, shared.Validation("invalid row index"))
		return 0, false
	}
	return index, true
}
