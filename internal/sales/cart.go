package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/checkout"
	"github.com/odyssey-erp/odyssey-pos/internal/customers"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Messages shown to the operator.
const (
	MsgEmptyCart        = "add at least one product before submitting"
	MsgCustomerRequired = "a FACTURA requires a customer with RUC"
	MsgSaleFailed       = "could not process sale"
	fallbackDocument    = "registered"
)

// CartDeps are the collaborators of a cart.
type CartDeps struct {
	Products  ProductSearcher
	Customers CustomerSearcher
	Gateway   Gateway
	TaxRate   decimal.Decimal
	Money     *shared.Money
}

// Cart is the sales workspace of one operator: the ledger under the merge
// policy, the product selection, the customer and the document type.
type Cart struct {
	mu              sync.Mutex
	deps            CartDeps
	ledger          ledger.Ledger
	selection       catalog.Selection
	docType         DocumentType
	customer        *customers.Customer
	customerQuery   string
	customerResults []customers.Customer
	submission      *checkout.Submission
}

// NewCart returns an empty BOLETA cart.
func NewCart(deps CartDeps) *Cart {
	if deps.TaxRate.IsZero() {
		deps.TaxRate = ledger.DefaultTaxRate
	}
	return &Cart{deps: deps, docType: Boleta, submission: checkout.New()}
}

// CartView is the snapshot rendered to the operator.
type CartView struct {
	Items           []ledger.Row         `json:"items"`
	Count           int                  `json:"count"`
	Breakdown       ledger.Breakdown     `json:"breakdown"`
	Display         map[string]string    `json:"display"`
	Type            DocumentType         `json:"type"`
	Customer        *customers.Customer  `json:"customer,omitempty"`
	CustomerQuery   string               `json:"customerQuery,omitempty"`
	CustomerResults []customers.Customer `json:"customerResults"`
	Selection       catalog.Selection    `json:"selection"`
	Submission      checkout.Snapshot    `json:"submission"`
}

// View returns the current cart snapshot.
func (c *Cart) View() CartView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Lookup searches raw (typed text or a scanned barcode) and adds the product
// when the selection rules resolve to exactly one.
func (c *Cart) Lookup(ctx context.Context, raw string) (catalog.Outcome, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", shared.Validation("enter a product name or barcode")
	}
	if err := c.guard(); err != nil {
		return "", err
	}
	results, err := c.deps.Products.Search(ctx, raw)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.submission.Touch(); err != nil {
		return "", err
	}
	outcome, err := c.selection.Resolve(raw, results)
	if outcome == catalog.OutcomeSelected {
		p, _ := c.selection.Take()
		c.selection.Clear()
		return outcome, c.ledger.Add(lineFor(p))
	}
	return outcome, err
}

// Choose adds a surfaced candidate.
func (c *Cart) Choose(productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.submission.Touch(); err != nil {
		return err
	}
	p, err := c.selection.Choose(productID)
	if err != nil {
		return err
	}
	c.selection.Clear()
	return c.ledger.Add(lineFor(p))
}

// Add puts p in the cart, or one more unit when it is already there.
func (c *Cart) Add(p catalog.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.submission.Touch(); err != nil {
		return err
	}
	c.selection.Clear()
	return c.ledger.Add(lineFor(p))
}

// Adjust changes the quantity of a product; the result never drops below 1.
func (c *Cart) Adjust(productID int64, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.submission.Touch(); err != nil {
		return err
	}
	return c.ledger.Adjust(productID, delta)
}

// Remove drops a product from the cart.
func (c *Cart) Remove(productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.submission.Touch(); err != nil {
		return err
	}
	return c.ledger.Remove(productID)
}

// SetType selects the document type.
func (c *Cart) SetType(t DocumentType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.submission.Touch(); err != nil {
		return err
	}
	c.docType = t
	return nil
}

// SearchCustomers runs the customer lookup and keeps the results for selection.
func (c *Cart) SearchCustomers(ctx context.Context, query string) ([]customers.Customer, error) {
	rows, err := c.deps.Customers.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.customerQuery = query
	c.customerResults = rows
	return rows, nil
}

// SelectCustomer picks a customer from the last lookup.
func (c *Cart) SelectCustomer(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.submission.Touch(); err != nil {
		return err
	}
	for _, cust := range c.customerResults {
		if cust.ID == id {
			selected := cust
			c.customer = &selected
			c.customerQuery = ""
			c.customerResults = nil
			return nil
		}
	}
	return shared.NotFound("customer is not among the search results")
}

// ClearCustomer removes the selected customer.
func (c *Cart) ClearCustomer() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.submission.Touch(); err != nil {
		return err
	}
	c.customer = nil
	c.customerQuery = ""
	return nil
}

// Submit sends the cart to the backend. Preconditions are checked locally;
// only one submit may be outstanding. On success the ledger and customer are
// cleared; on failure everything is kept and the reason recorded.
func (c *Cart) Submit(ctx context.Context) (CartView, error) {
	c.mu.Lock()
	if c.ledger.Empty() {
		c.mu.Unlock()
		return c.View(), shared.Validation(MsgEmptyCart)
	}
	if c.docType.RequiresCustomer() && c.customer == nil {
		c.mu.Unlock()
		return c.View(), shared.Validation(MsgCustomerRequired)
	}
	if err := c.submission.Begin(); err != nil {
		c.mu.Unlock()
		return c.View(), err
	}
	req := c.requestLocked()
	c.mu.Unlock()

	receipt, err := c.deps.Gateway.CreateSale(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.submission.Fail(shared.Reason(err, MsgSaleFailed))
		return c.viewLocked(), fmt.Errorf("submit sale: %w", err)
	}
	doc := receipt.DocumentNumber
	if doc == "" {
		doc = fallbackDocument
	}
	c.submission.Succeed(doc)
	c.ledger.Clear()
	c.customer = nil
	c.customerQuery = ""
	c.customerResults = nil
	c.selection.Clear()
	return c.viewLocked(), nil
}

func (c *Cart) guard() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submission.InFlight() {
		return shared.ErrBusy
	}
	return nil
}

func (c *Cart) requestLocked() SaleRequest {
	items := c.ledger.Items()
	req := SaleRequest{Type: c.docType, Items: make([]SaleLine, 0, len(items))}
	if c.customer != nil {
		id := c.customer.ID
		req.ClientID = &id
	}
	for _, it := range items {
		req.Items = append(req.Items, SaleLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return req
}

func (c *Cart) viewLocked() CartView {
	total := c.ledger.Total()
	b := ledger.Inclusive(total, c.deps.TaxRate)
	v := CartView{
		Items:     c.ledger.Rows(),
		Count:     c.ledger.Len(),
		Breakdown: b,
		Display: map[string]string{
			"subtotal": c.deps.Money.Format(b.Subtotal),
			"tax":      c.deps.Money.Format(b.Tax),
			"total":    c.deps.Money.Format(b.Total),
		},
		Type:            c.docType,
		CustomerQuery:   c.customerQuery,
		CustomerResults: append([]customers.Customer{}, c.customerResults...),
		Selection:       c.selection,
		Submission:      c.submission.Snapshot(),
	}
	v.Selection.Candidates = append([]catalog.Product(nil), c.selection.Candidates...)
	if c.customer != nil {
		cust := *c.customer
		v.Customer = &cust
	}
	return v
}

func lineFor(p catalog.Product) ledger.LineItem {
	return ledger.LineItem{ProductID: p.ID, Name: p.Name, Barcode: p.Barcode, UnitValue: p.Price}
}

// IsRejected reports whether err is a local precondition failure rather than a
// backend outcome.
func IsRejected(err error) bool {
	return errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrBusy)
}
