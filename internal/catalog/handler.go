package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/workspace"
)

// BrowserConfig configures the per-session catalog browser.
type BrowserConfig struct {
	Mode     Mode
	Window   time.Duration
	PageSize int
}

// Handler exposes catalog endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	browsers *workspace.Registry[*Controller]
	config   BrowserConfig
}

// NewHandler builds the catalog handler.
func NewHandler(logger *slog.Logger, service *Service, browsers *workspace.Registry[*Controller], config BrowserConfig) *Handler {
	return &Handler{logger: logger, service: service, browsers: browsers, config: config}
}

// NewBrowsers returns a registry that closes controllers when released.
func NewBrowsers() *workspace.Registry[*Controller] {
	return workspace.NewRegistry(func(c *Controller) { c.Close() })
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Post("/products/{id}/toggle-archive", h.toggleArchive)

	r.Get("/brands", h.listBrands)
	r.Post("/brands", h.createBrand)
	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)
	r.Get("/lookups", h.lookups)

	r.Get("/browser", h.browserView)
	r.Post("/browser/events", h.browserEvent)
	r.Post("/browser/more", h.browserMore)
	r.Post("/browser/refresh", h.browserRefresh)
	r.Delete("/browser", h.browserClose)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := NewQuery(httpx.QueryInt(r, "size", h.config.PageSize))
	q.Search = r.URL.Query().Get("search")
	q.Archived = httpx.QueryBool(r, "archived")
	q.Page = httpx.QueryInt(r, "page", 0)
	if raw := r.URL.Query().Get("sort"); raw != "" {
		q.Sort = ParseSort(raw)
	}
	page, err := h.service.List(r.Context(), q)
	if err != nil {
		h.fail(w, "list products failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"rows":       page.Content,
		"query":      q,
		"pagination": shared.NewPagination(q.Page, q.Size, page.TotalElements),
	})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var payload ProductPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, shared.Validation("invalid product payload"))
		return
	}
	p, err := h.service.Create(r.Context(), payload)
	if err != nil {
		h.fail(w, "create product failed", err)
		return
	}
	h.refreshBrowser(r.Context())
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	var payload ProductPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, shared.Validation("invalid product payload"))
		return
	}
	p, err := h.service.Update(r.Context(), id, payload)
	if err != nil {
		h.fail(w, "update product failed", err)
		return
	}
	h.refreshBrowser(r.Context())
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) toggleArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	if err := h.service.ToggleArchive(r.Context(), id); err != nil {
		h.fail(w, "toggle archive failed", err)
		return
	}
	h.refreshBrowser(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listBrands(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Brands(r.Context())
	if err != nil {
		h.fail(w, "list brands failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Categories(r.Context())
	if err != nil {
		h.fail(w, "list categories failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

type nameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createBrand(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid brand payload"))
		return
	}
	l, err := h.service.CreateBrand(r.Context(), req.Name)
	if err != nil {
		h.fail(w, "create brand failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, l)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid category payload"))
		return
	}
	l, err := h.service.CreateCategory(r.Context(), req.Name)
	if err != nil {
		h.fail(w, "create category failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, l)
}

func (h *Handler) lookups(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Lookups(r.Context())
	if err != nil {
		h.fail(w, "load lookups failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

type eventRequest struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Archived bool   `json:"archived"`
	Key      string `json:"key"`
	Size     int    `json:"size"`
	Page     int    `json:"page"`
}

func (e eventRequest) event() (Event, error) {
	switch e.Type {
	case "search":
		return SearchChanged{Text: e.Text}, nil
	case "archived":
		return ArchivedChanged{Archived: e.Archived}, nil
	case "sort":
		return SortClicked{Key: e.Key}, nil
	case "size":
		return PageSizeChanged{Size: e.Size}, nil
	case "page":
		return PageRequested{Page: e.Page}, nil
	default:
		return nil, shared.Validation("unknown event type " + strconv.Quote(e.Type))
	}
}

func (h *Handler) browserView(w http.ResponseWriter, r *http.Request) {
	c, ok := h.browser(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, c.Settle(r.Context()))
}

func (h *Handler) browserEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("invalid event payload"))
		return
	}
	ev, err := req.event()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, ok := h.browser(w, r)
	if !ok {
		return
	}
	c.Dispatch(ev)
	switch ev.(type) {
	case PageRequested, PageSizeChanged:
		httpx.JSON(w, http.StatusOK, c.Settle(r.Context()))
	default:
		httpx.JSON(w, http.StatusAccepted, c.View())
	}
}

func (h *Handler) browserMore(w http.ResponseWriter, r *http.Request) {
	c, ok := h.browser(w, r)
	if !ok {
		return
	}
	c.LoadMore()
	httpx.JSON(w, http.StatusOK, c.Settle(r.Context()))
}

func (h *Handler) browserRefresh(w http.ResponseWriter, r *http.Request) {
	c, ok := h.browser(w, r)
	if !ok {
		return
	}
	c.Refresh()
	httpx.JSON(w, http.StatusOK, c.Settle(r.Context()))
}

func (h *Handler) browserClose(w http.ResponseWriter, r *http.Request) {
	if id, ok := shared.SessionID(r.Context()); ok {
		h.browsers.Drop(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) browser(w http.ResponseWriter, r *http.Request) (*Controller, bool) {
	id, ok := shared.SessionID(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return nil, false
	}
	c := h.browsers.Get(id, func() *Controller {
		c := NewController(context.WithoutCancel(r.Context()), h.service.List,
			WithMode(h.config.Mode),
			WithWindow(h.config.Window),
			WithPageSize(h.config.PageSize),
			WithLogger(h.logger),
		)
		c.Start()
		return c
	})
	return c, true
}

func (h *Handler) refreshBrowser(ctx context.Context) {
	id, ok := shared.SessionID(ctx)
	if !ok {
		return
	}
	if c, ok := h.browsers.Lookup(id); ok {
		c.Refresh()
	}
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.Validation("invalid product id"))
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrNotFound) {
		h.logger.Debug(msg, slog.Any("error", err))
	} else {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
