package customers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

const searchSessionKey = "customers.search"

// Handler exposes the customer directory.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers customer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/search", h.search)
	r.Get("/consult/{doc}", h.consult)
	r.Put("/{id}", h.update)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	page := httpx.QueryInt(r, "page", 0)
	size := httpx.QueryInt(r, "size", 10)
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if sess.Get(searchSessionKey) != search {
			page = 0
			sess.Set(searchSessionKey, search)
		}
	}
	out, err := h.service.List(r.Context(), page, size, search)
	if err != nil {
		h.fail(w, "list customers failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"rows":       out.Content,
		"search":     search,
		"pagination": shared.NewPagination(page, size, out.TotalElements),
	})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.fail(w, "search customers failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload Payload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, shared.Validation("invalid customer payload"))
		return
	}
	c, err := h.service.Create(r.Context(), payload)
	if err != nil {
		h.fail(w, "create customer failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.Validation("invalid customer id"))
		return
	}
	var payload Payload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, shared.Validation("invalid customer payload"))
		return
	}
	c, err := h.service.Update(r.Context(), id, payload)
	if err != nil {
		h.fail(w, "update customer failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) consult(w http.ResponseWriter, r *http.Request) {
	ext, err := h.service.Consult(r.Context(), chi.URLParam(r, "doc"))
	if err != nil {
		h.fail(w, "consult customer failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"record": ext,
		"active": ext.Active(),
	})
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrNotFound) {
		h.logger.Debug(msg, slog.Any("error", err))
	} else {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
