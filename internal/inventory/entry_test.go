package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/checkout"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

type fakeProducts struct {
	mu      sync.Mutex
	results map[string][]catalog.Product
	queries []string
}

func (f *fakeProducts) Search(_ context.Context, query string) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.results[query], nil
}

type fakeGateway struct {
	mu        sync.Mutex
	entries   []StockEntryRequest
	entryErr  error
	suppliers []Supplier
	listCalls int
	created   []SupplierPayload
	external  ExternalSupplier
}

func (f *fakeGateway) CreateStockEntry(_ context.Context, req StockEntryRequest) (EntryReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, req)
	if f.entryErr != nil {
		return EntryReceipt{}, f.entryErr
	}
	return EntryReceipt{ID: int64(len(f.entries))}, nil
}

func (f *fakeGateway) Suppliers(context.Context) ([]Supplier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]Supplier(nil), f.suppliers...), nil
}

func (f *fakeGateway) CreateSupplier(_ context.Context, payload SupplierPayload) (Supplier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, payload)
	sup := Supplier{ID: int64(100 + len(f.created)), RUC: payload.RUC, Name: payload.Name}
	f.suppliers = append(f.suppliers, sup)
	return sup, nil
}

func (f *fakeGateway) ConsultSupplier(context.Context, string) (ExternalSupplier, error) {
	return f.external, nil
}

var (
	flour = catalog.Product{ID: 10, Barcode: "7751111111111", Name: "Harina 1kg", Price: decimal.RequireFromString("6.50")}
	sugar = catalog.Product{ID: 11, Barcode: "7752222222222", Name: "Azucar 1kg", Price: decimal.RequireFromString("4.80")}
)

func newTestEntry(gw *fakeGateway) (*Entry, *fakeProducts) {
	products := &fakeProducts{results: map[string][]catalog.Product{
		flour.Barcode: {flour},
		"kg":          {flour, sugar},
		"1kg":         {flour, sugar},
	}}
	return NewEntry(EntryDeps{Products: products, Gateway: gw}), products
}

func TestEntryScanSuggestsPriceAsCost(t *testing.T) {
	entry, _ := newTestEntry(&fakeGateway{})

	outcome, err := entry.Lookup(context.Background(), flour.Barcode, true)
	require.NoError(t, err)
	assert.Equal(t, catalog.OutcomeSelected, outcome)

	v := entry.View()
	require.NotNil(t, v.Pending.Product)
	assert.Equal(t, flour.ID, v.Pending.Product.ID)
	assert.True(t, flour.Price.Equal(v.Pending.UnitCost))
	assert.Equal(t, 1, v.Pending.Quantity)
	assert.Empty(t, v.Items)
}

func TestEntryTypedSearchNeedsThreeCharacters(t *testing.T) {
	entry, products := newTestEntry(&fakeGateway{})

	outcome, err := entry.Lookup(context.Background(), "kg", false)
	require.NoError(t, err)
	assert.Equal(t, catalog.Outcome(""), outcome)
	assert.Empty(t, products.queries)

	outcome, err = entry.Lookup(context.Background(), "1kg", false)
	require.NoError(t, err)
	assert.Equal(t, catalog.OutcomeChoose, outcome)
	assert.Len(t, entry.View().Selection.Candidates, 2)
	assert.Nil(t, entry.View().Pending.Product)

	require.NoError(t, entry.Choose(sugar.ID))
	assert.Equal(t, sugar.ID, entry.View().Pending.Product.ID)
	assert.Empty(t, entry.View().Selection.Candidates)
}

func TestEntryCommitAppendsIndependentRows(t *testing.T) {
	entry, _ := newTestEntry(&fakeGateway{})
	ctx := context.Background()

	_, err := entry.Lookup(ctx, flour.Barcode, true)
	require.NoError(t, err)
	require.NoError(t, entry.SetPending(5, decimal.RequireFromString("5.00")))
	require.NoError(t, entry.Commit())

	v := entry.View()
	assert.Nil(t, v.Pending.Product)
	assert.Equal(t, 1, v.Pending.Quantity)
	assert.True(t, v.Pending.UnitCost.IsZero())

	_, err = entry.Lookup(ctx, flour.Barcode, true)
	require.NoError(t, err)
	require.NoError(t, entry.SetPending(2, decimal.RequireFromString("5.50")))
	require.NoError(t, entry.Commit())

	v = entry.View()
	require.Len(t, v.Items, 2)
	assert.Equal(t, flour.ID, v.Items[0].ProductID)
	assert.Equal(t, flour.ID, v.Items[1].ProductID)
	assert.True(t, decimal.RequireFromString("36.00").Equal(v.Total))
}

func TestEntryCommitRejectsInvalidPendingRow(t *testing.T) {
	entry, _ := newTestEntry(&fakeGateway{})

	assert.ErrorIs(t, entry.Commit(), shared.ErrValidation)

	_, err := entry.Lookup(context.Background(), flour.Barcode, true)
	require.NoError(t, err)

	require.NoError(t, entry.SetPending(0, decimal.NewFromInt(1)))
	assert.ErrorIs(t, entry.Commit(), shared.ErrValidation)

	require.NoError(t, entry.SetPending(3, decimal.NewFromInt(-1)))
	assert.ErrorIs(t, entry.Commit(), shared.ErrValidation)
	assert.Empty(t, entry.View().Items)
	assert.NotNil(t, entry.View().Pending.Product)
}

func TestEntryRemoveAtKeepsOtherRows(t *testing.T) {
	entry, _ := newTestEntry(&fakeGateway{})
	ctx := context.Background()
	for _, cost := range []string{"1.00", "2.00", "3.00"} {
		_, err := entry.Lookup(ctx, flour.Barcode, true)
		require.NoError(t, err)
		require.NoError(t, entry.SetPending(1, decimal.RequireFromString(cost)))
		require.NoError(t, entry.Commit())
	}

	require.NoError(t, entry.RemoveAt(1))
	v := entry.View()
	require.Len(t, v.Items, 2)
	assert.True(t, decimal.RequireFromString("4.00").Equal(v.Total))
	assert.ErrorIs(t, entry.RemoveAt(5), shared.ErrNotFound)
}

func TestEntrySubmitSendsHeaderAndClears(t *testing.T) {
	gw := &fakeGateway{}
	entry, _ := newTestEntry(gw)
	ctx := context.Background()

	_, err := entry.Submit(ctx)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, gw.entries)

	supplier := int64(7)
	require.NoError(t, entry.SetHeader(Header{Reference: " GR-0001 ", Comments: "turno mañana", SupplierID: &supplier}))
	_, err = entry.Lookup(ctx, flour.Barcode, true)
	require.NoError(t, err)
	require.NoError(t, entry.SetPending(4, decimal.RequireFromString("6.00")))
	require.NoError(t, entry.Commit())

	v, err := entry.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, checkout.Succeeded, v.Submission.State)
	assert.Equal(t, "entry #1", v.Submission.Document)
	assert.Empty(t, v.Items)
	assert.Equal(t, Header{}, v.Header)

	require.Len(t, gw.entries, 1)
	req := gw.entries[0]
	assert.Equal(t, "GR-0001", req.Reference)
	require.NotNil(t, req.SupplierID)
	assert.Equal(t, int64(7), *req.SupplierID)
	require.Len(t, req.Items, 1)
	assert.Equal(t, 4, req.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("6.00").Equal(req.Items[0].UnitCost))
}

func TestEntrySubmitFailureKeepsRows(t *testing.T) {
	gw := &fakeGateway{entryErr: shared.ErrTransport}
	entry, _ := newTestEntry(gw)
	_, err := entry.Lookup(context.Background(), flour.Barcode, true)
	require.NoError(t, err)
	require.NoError(t, entry.Commit())

	v, err := entry.Submit(context.Background())
	assert.ErrorIs(t, err, shared.ErrTransport)
	assert.Equal(t, checkout.Failed, v.Submission.State)
	assert.Equal(t, MsgEntryFailed, v.Submission.Reason)
	assert.Len(t, v.Items, 1)
}

func TestEntryHeaderDropsNonPositiveSupplier(t *testing.T) {
	entry, _ := newTestEntry(&fakeGateway{})
	zero := int64(0)
	require.NoError(t, entry.SetHeader(Header{SupplierID: &zero}))
	assert.Nil(t, entry.View().Header.SupplierID)
}
