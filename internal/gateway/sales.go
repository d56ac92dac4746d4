package gateway

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/odyssey-erp/odyssey-pos/internal/sales"
)

var _ sales.Gateway = (*Client)(nil)

// CreateSale registers a BOLETA, FACTURA or COTIZACION.
func (c *Client) CreateSale(ctx context.Context, req sales.SaleRequest) (sales.Receipt, error) {
	var r sales.Receipt
	err := c.doJSON(ctx, request{op: "create_sale", method: http.MethodPost, path: "/sales", body: req, idempotent: true}, &r)
	return r, err
}

// Quotes lists open or archived quotes.
func (c *Client) Quotes(ctx context.Context, archived bool) ([]sales.Sale, error) {
	params := url.Values{}
	params.Set("archived", strconv.FormatBool(archived))
	var rows []sales.Sale
	err := c.doJSON(ctx, request{op: "list_quotes", method: http.MethodGet, path: "/sales/quotes", query: params}, &rows)
	return rows, err
}

// ArchiveQuote hides a quote from the open list.
func (c *Client) ArchiveQuote(ctx context.Context, id int64) error {
	return c.doJSON(ctx, request{op: "archive_quote", method: http.MethodPatch, path: idPath("/sales/%d/archive", id)}, nil)
}

// ConvertQuote turns a quote into a sale document.
func (c *Client) ConvertQuote(ctx context.Context, id int64, target sales.DocumentType) (sales.Receipt, error) {
	params := url.Values{}
	params.Set("type", string(target))
	var r sales.Receipt
	err := c.doJSON(ctx, request{
		op:         "convert_quote",
		method:     http.MethodPost,
		path:       idPath("/sales/quotes/%d/convert", id),
		query:      params,
		idempotent: true,
	}, &r)
	return r, err
}

// Sales lists the sales history.
func (c *Client) Sales(ctx context.Context) ([]sales.Sale, error) {
	var rows []sales.Sale
	err := c.doJSON(ctx, request{op: "list_sales", method: http.MethodGet, path: "/sales"}, &rows)
	return rows, err
}

// SaleDetail loads one sale with its lines.
func (c *Client) SaleDetail(ctx context.Context, id int64) (sales.SaleDetail, error) {
	var d sales.SaleDetail
	err := c.doJSON(ctx, request{op: "sale_detail", method: http.MethodGet, path: idPath("/sales/%d", id)}, &d)
	return d, err
}

// SalePDF downloads the printable document of a sale.
func (c *Client) SalePDF(ctx context.Context, id int64) (sales.Document, error) {
	resp, err := c.do(ctx, request{op: "sale_pdf", method: http.MethodGet, path: idPath("/sales/%d/pdf", id), accept: "application/pdf"})
	if err != nil {
		return sales.Document{}, err
	}
	doc := sales.Document{ContentType: resp.header.Get("Content-Type"), Body: resp.body}
	if _, params, err := mime.ParseMediaType(resp.header.Get("Content-Disposition")); err == nil {
		doc.Filename = params["filename"]
	}
	if doc.Filename == "" {
		doc.Filename = fmt.Sprintf("sale-%d.pdf", id)
	}
	return doc, nil
}
