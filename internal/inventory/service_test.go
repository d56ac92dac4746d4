package inventory

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func newTestService(t *testing.T, gw *fakeGateway) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(gw, cache.NewCache(client, "suppliers", time.Minute), logger)
}

func TestSuppliersAreCachedUntilCreate(t *testing.T) {
	gw := &fakeGateway{suppliers: []Supplier{{ID: 1, RUC: "20100000001", Name: "Distribuidora Norte"}}}
	svc := newTestService(t, gw)
	ctx := context.Background()

	rows, err := svc.Suppliers(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	_, err = svc.Suppliers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, gw.listCalls)

	_, err = svc.CreateSupplier(ctx, SupplierPayload{RUC: " 20500000002 ", Name: "Molinos Sur"})
	require.NoError(t, err)
	assert.Equal(t, "20500000002", gw.created[0].RUC)

	rows, err = svc.Suppliers(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 2, gw.listCalls)
}

func TestCreateSupplierValidatesLocally(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(t, gw)

	_, err := svc.CreateSupplier(context.Background(), SupplierPayload{RUC: "123", Name: "X"})
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.CreateSupplier(context.Background(), SupplierPayload{RUC: "20500000002", Name: "  "})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, gw.created)
}

func TestConsultSupplierRequiresRUCLength(t *testing.T) {
	svc := newTestService(t, &fakeGateway{external: ExternalSupplier{Name: "Molinos Sur", Status: "ACTIVO"}})

	_, err := svc.ConsultSupplier(context.Background(), "1234567")
	assert.ErrorIs(t, err, shared.ErrValidation)

	ext, err := svc.ConsultSupplier(context.Background(), "20500000002")
	require.NoError(t, err)
	assert.True(t, ext.Active())
}

func TestHandlerConsultWarnsOnInactiveSupplier(t *testing.T) {
	gw := &fakeGateway{external: ExternalSupplier{Name: "Molinos Sur", Status: "BAJA DE OFICIO"}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, newTestService(t, gw), NewEntries(), EntryDeps{Gateway: gw})

	r := chi.NewRouter()
	r.Route("/inventory", h.MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory/suppliers/consult/20500000002", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"warning":"supplier status: BAJA DE OFICIO"`)
}

func TestHandlerEntryFlow(t *testing.T) {
	gw := &fakeGateway{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, products := newTestEntry(gw)
	h := NewHandler(logger, newTestService(t, gw), NewEntries(), EntryDeps{Products: products, Gateway: gw})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithSession(req.Context(), &shared.Session{ID: "sess-1"})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/inventory", h.MountRoutes)

	send := func(method, target, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
		return rec
	}

	rec := send(http.MethodPost, "/inventory/entry/search", `{"query":"7751111111111","scan":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = send(http.MethodPut, "/inventory/entry/pending", `{"quantity":3,"unitCost":5.25}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = send(http.MethodPost, "/inventory/entry/items", ``)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = send(http.MethodPost, "/inventory/entry/items/9/adjust", `{"delta":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send(http.MethodPost, "/inventory/entry/submit", ``)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, gw.entries, 1)
	assert.Equal(t, 3, gw.entries[0].Items[0].Quantity)
	assert.Nil(t, gw.entries[0].SupplierID)
}
