package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/odyssey-erp/odyssey-pos/internal/customers"
)

var _ customers.Gateway = (*Client)(nil)

// ListCustomers loads one page of the customer directory.
func (c *Client) ListCustomers(ctx context.Context, page, size int, search string) (customers.Page, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))
	params.Set("search", search)
	var out customers.Page
	err := c.doJSON(ctx, request{op: "list_customers", method: http.MethodGet, path: "/customers", query: params}, &out)
	return out, err
}

// SearchCustomers finds customers by name or document number.
func (c *Client) SearchCustomers(ctx context.Context, query string) ([]customers.Customer, error) {
	params := url.Values{}
	params.Set("query", query)
	var rows []customers.Customer
	err := c.doJSON(ctx, request{op: "search_customers", method: http.MethodGet, path: "/customers/search", query: params}, &rows)
	return rows, err
}

// CreateCustomer registers a customer.
func (c *Client) CreateCustomer(ctx context.Context, payload customers.Payload) (customers.Customer, error) {
	var out customers.Customer
	err := c.doJSON(ctx, request{op: "create_customer", method: http.MethodPost, path: "/customers", body: payload}, &out)
	return out, err
}

// UpdateCustomer replaces a customer's data.
func (c *Client) UpdateCustomer(ctx context.Context, id int64, payload customers.Payload) (customers.Customer, error) {
	var out customers.Customer
	err := c.doJSON(ctx, request{op: "update_customer", method: http.MethodPut, path: idPath("/customers/%d", id), body: payload}, &out)
	return out, err
}

// ConsultCustomer looks a DNI or RUC up in the public registry.
func (c *Client) ConsultCustomer(ctx context.Context, docNumber string) (customers.External, error) {
	var out customers.External
	err := c.doJSON(ctx, request{op: "consult_customer", method: http.MethodGet, path: "/customers/consult-external/" + url.PathEscape(docNumber)}, &out)
	return out, err
}
