package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
)

var _ catalog.Gateway = (*Client)(nil)

type nameBody struct {
	Name string `json:"name" validate:"required,max=100"`
}

// ListProducts loads one page of the product listing.
func (c *Client) ListProducts(ctx context.Context, q catalog.Query) (catalog.Page, error) {
	params := url.Values{}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	params.Set("active", strconv.FormatBool(q.Active()))
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("size", strconv.Itoa(q.Size))
	params.Set("sort", q.Sort.Param())

	var page catalog.Page
	err := c.doJSON(ctx, request{op: "list_products", method: http.MethodGet, path: "/products", query: params}, &page)
	return page, err
}

// SearchProducts runs the lightweight search used when adding items.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]catalog.Product, error) {
	params := url.Values{}
	params.Set("search", query)
	params.Set("size", strconv.Itoa(limit))

	var page catalog.Page
	if err := c.doJSON(ctx, request{op: "search_products", method: http.MethodGet, path: "/products", query: params}, &page); err != nil {
		return nil, err
	}
	return page.Content, nil
}

// CreateProduct registers a product.
func (c *Client) CreateProduct(ctx context.Context, payload catalog.ProductPayload) (catalog.Product, error) {
	var p catalog.Product
	err := c.doJSON(ctx, request{op: "create_product", method: http.MethodPost, path: "/catalog/products", body: payload}, &p)
	return p, err
}

// UpdateProduct replaces the editable fields of a product.
func (c *Client) UpdateProduct(ctx context.Context, id int64, payload catalog.ProductPayload) (catalog.Product, error) {
	var p catalog.Product
	err := c.doJSON(ctx, request{op: "update_product", method: http.MethodPut, path: idPath("/catalog/products/%d", id), body: payload}, &p)
	return p, err
}

// ToggleProductActive archives an active product or restores an archived one.
func (c *Client) ToggleProductActive(ctx context.Context, id int64) error {
	return c.doJSON(ctx, request{op: "toggle_product", method: http.MethodPatch, path: idPath("/products/%d/toggle-active", id)}, nil)
}

// Brands lists every brand.
func (c *Client) Brands(ctx context.Context) ([]catalog.Lookup, error) {
	var rows []catalog.Lookup
	err := c.doJSON(ctx, request{op: "list_brands", method: http.MethodGet, path: "/catalog/brands"}, &rows)
	return rows, err
}

// Categories lists every category.
func (c *Client) Categories(ctx context.Context) ([]catalog.Lookup, error) {
	var rows []catalog.Lookup
	err := c.doJSON(ctx, request{op: "list_categories", method: http.MethodGet, path: "/catalog/categories"}, &rows)
	return rows, err
}

// CreateBrand registers a brand.
func (c *Client) CreateBrand(ctx context.Context, name string) (catalog.Lookup, error) {
	var l catalog.Lookup
	err := c.doJSON(ctx, request{op: "create_brand", method: http.MethodPost, path: "/catalog/brands", body: nameBody{Name: name}}, &l)
	return l, err
}

// CreateCategory registers a category.
func (c *Client) CreateCategory(ctx context.Context, name string) (catalog.Lookup, error) {
	var l catalog.Lookup
	err := c.doJSON(ctx, request{op: "create_category", method: http.MethodPost, path: "/catalog/categories", body: nameBody{Name: name}}, &l)
	return l, err
}
