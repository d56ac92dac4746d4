package catalog

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func newTestRouter(t *testing.T, gw *fakeGateway) (http.Handler, *Handler) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	browsers := NewBrowsers()
	t.Cleanup(func() { browsers.Drop("sess-1") })
	h := NewHandler(logger, newTestService(t, gw), browsers, BrowserConfig{Mode: ModeReplace, Window: time.Hour, PageSize: 10})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithSession(req.Context(), &shared.Session{ID: "sess-1"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/catalog", h.MountRoutes)
	return r, h
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerListProductsMapsQueryParams(t *testing.T) {
	gw := &fakeGateway{page: Page{Content: products(1, 2), TotalElements: 12, TotalPages: 2}}
	router, _ := newTestRouter(t, gw)

	rec := do(t, router, http.MethodGet, "/catalog/products?search=leche&archived=true&sort=price,desc&page=1&size=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "leche", gw.lastQuery.Search)
	assert.False(t, gw.lastQuery.Active())
	assert.Equal(t, "price,desc", gw.lastQuery.Sort.Param())
	assert.Equal(t, 1, gw.lastQuery.Page)
	assert.Equal(t, 5, gw.lastQuery.Size)

	var body struct {
		Rows       []Product         `json:"rows"`
		Pagination shared.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Rows, 2)
	assert.Equal(t, int64(12), body.Pagination.TotalElements)
}

func TestHandlerBrowserLifecycle(t *testing.T) {
	gw := &fakeGateway{page: Page{Content: products(1, 2), TotalPages: 3}}
	router, h := newTestRouter(t, gw)

	rec := do(t, router, http.MethodGet, "/catalog/browser", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Rows, 2)
	assert.False(t, view.Loading)

	rec = do(t, router, http.MethodPost, "/catalog/browser/events", map[string]any{"type": "search", "text": "pan"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Pending)
	assert.Equal(t, "pan", view.Query.Search)

	gw.mu.Lock()
	gw.page = Page{Content: products(7), TotalPages: 3}
	gw.mu.Unlock()
	rec = do(t, router, http.MethodPost, "/catalog/browser/events", map[string]any{"type": "page", "page": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, []int64{7}, ids(view.Rows))
	assert.False(t, view.Pending, "page navigation supersedes the pending filter change")
	assert.Equal(t, 1, h.browsers.Len())

	rec = do(t, router, http.MethodDelete, "/catalog/browser", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, h.browsers.Len())
}

func TestHandlerRejectsUnknownEvent(t *testing.T) {
	router, _ := newTestRouter(t, &fakeGateway{})
	rec := do(t, router, http.MethodPost, "/catalog/browser/events", map[string]any{"type": "shuffle"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerToggleArchive(t *testing.T) {
	gw := &fakeGateway{}
	router, _ := newTestRouter(t, gw)

	rec := do(t, router, http.MethodPost, "/catalog/products/42/toggle-archive", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int64{42}, gw.toggled)

	rec = do(t, router, http.MethodPost, "/catalog/products/abc/toggle-archive", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
