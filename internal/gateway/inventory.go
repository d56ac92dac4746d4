package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
)

var _ inventory.Gateway = (*Client)(nil)

// CreateStockEntry registers received merchandise.
func (c *Client) CreateStockEntry(ctx context.Context, req inventory.StockEntryRequest) (inventory.EntryReceipt, error) {
	var r inventory.EntryReceipt
	err := c.doJSON(ctx, request{op: "create_stock_entry", method: http.MethodPost, path: "/inventory/entry", body: req, idempotent: true}, &r)
	return r, err
}

// Suppliers lists every supplier.
func (c *Client) Suppliers(ctx context.Context) ([]inventory.Supplier, error) {
	var rows []inventory.Supplier
	err := c.doJSON(ctx, request{op: "list_suppliers", method: http.MethodGet, path: "/suppliers/all"}, &rows)
	return rows, err
}

// CreateSupplier registers a supplier.
func (c *Client) CreateSupplier(ctx context.Context, payload inventory.SupplierPayload) (inventory.Supplier, error) {
	var s inventory.Supplier
	err := c.doJSON(ctx, request{op: "create_supplier", method: http.MethodPost, path: "/suppliers", body: payload}, &s)
	return s, err
}

// ConsultSupplier looks a RUC up in the taxpayer registry.
func (c *Client) ConsultSupplier(ctx context.Context, ruc string) (inventory.ExternalSupplier, error) {
	var e inventory.ExternalSupplier
	err := c.doJSON(ctx, request{op: "consult_supplier", method: http.MethodGet, path: "/suppliers/consult-external/" + url.PathEscape(ruc)}, &e)
	return e, err
}
