package inventory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/checkout"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Messages shown to the operator.
const (
	MsgEmptyEntry  = "add at least one product to the entry"
	MsgNoProduct   = "select a product first"
	MsgEntryFailed = "could not register the entry"
)

// EntryDeps are the collaborators of an entry workspace.
type EntryDeps struct {
	Products ProductSearcher
	Gateway  Gateway
	Money    *shared.Money
}

// Header is the descriptive part of a stock entry.
type Header struct {
	Reference  string `json:"reference"`
	Comments   string `json:"comments"`
	SupplierID *int64 `json:"supplierId"`
}

// Pending is the row being prepared before it is committed to the entry.
type Pending struct {
	Product  *catalog.Product `json:"product,omitempty"`
	Quantity int              `json:"quantity"`
	UnitCost decimal.Decimal  `json:"unitCost"`
}

func freshPending() Pending {
	return Pending{Quantity: 1, UnitCost: decimal.Zero}
}

// Entry is the stock-entry workspace of one operator. Rows follow the
// append policy: the same product may appear in several rows with
// different costs.
type Entry struct {
	mu         sync.Mutex
	deps       EntryDeps
	ledger     ledger.Ledger
	selection  catalog.Selection
	pending    Pending
	header     Header
	submission *checkout.Submission
}

// NewEntry returns an empty entry.
func NewEntry(deps EntryDeps) *Entry {
	return &Entry{deps: deps, pending: freshPending(), submission: checkout.New()}
}

// EntryView is the snapshot rendered to the operator.
type EntryView struct {
	Items      []ledger.Row      `json:"items"`
	Count      int               `json:"count"`
	Total      decimal.Decimal   `json:"total"`
	Display    string            `json:"display"`
	Pending    Pending           `json:"pending"`
	Header     Header            `json:"header"`
	Selection  catalog.Selection `json:"selection"`
	Submission checkout.Snapshot `json:"submission"`
}

// View returns the current snapshot.
func (e *Entry) View() EntryView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

// Lookup searches raw. Typed text shorter than catalog.MinSearchLength is
// ignored and results are only listed; a scan resolves immediately and a
// single match becomes the pending product.
func (e *Entry) Lookup(ctx context.Context, raw string, scan bool) (catalog.Outcome, error) {
	raw = strings.TrimSpace(raw)
	if err := e.guard(); err != nil {
		return "", err
	}
	if !scan && len([]rune(raw)) < catalog.MinSearchLength {
		e.mu.Lock()
		e.selection.Show(raw, nil)
		e.mu.Unlock()
		return "", nil
	}
	results, err := e.deps.Products.Search(ctx, raw)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.submission.Touch(); err != nil {
		return "", err
	}
	if !scan {
		e.selection.Show(raw, results)
		return catalog.OutcomeChoose, nil
	}
	outcome, err := e.selection.Resolve(raw, results)
	if outcome == catalog.OutcomeSelected {
		p, _ := e.selection.Take()
		e.pick(p)
	}
	return outcome, err
}

// Choose makes a listed candidate the pending product.
func (e *Entry) Choose(productID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.submission.Touch(); err != nil {
		return err
	}
	p, err := e.selection.Choose(productID)
	if err != nil {
		return err
	}
	e.pick(p)
	return nil
}

// pick suggests the current sale price as the unit cost.
func (e *Entry) pick(p catalog.Product) {
	e.pending.Product = &p
	e.pending.UnitCost = p.Price
	e.selection.Clear()
}

// SetPending updates the quantity and unit cost of the pending row.
func (e *Entry) SetPending(quantity int, unitCost decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.submission.Touch(); err != nil {
		return err
	}
	e.pending.Quantity = quantity
	e.pending.UnitCost = unitCost
	return nil
}

// Commit appends the pending row and resets it.
func (e *Entry) Commit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.submission.Touch(); err != nil {
		return err
	}
	if e.pending.Product == nil {
		return shared.Validation(MsgNoProduct)
	}
	p := e.pending.Product
	err := e.ledger.Append(ledger.LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Barcode:   p.Barcode,
		UnitValue: e.pending.UnitCost,
		Quantity:  e.pending.Quantity,
	})
	if err != nil {
		return err
	}
	e.pending = freshPending()
	return nil
}

// AdjustAt changes the quantity of the row at index, never below 1.
func (e *Entry) AdjustAt(index, delta int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.submission.Touch(); err != nil {
		return err
	}
	return e.ledger.AdjustAt(index, delta)
}

// RemoveAt deletes the row at index.
func (e *Entry) RemoveAt(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.submission.Touch(); err != nil {
		return err
	}
	return e.ledger.RemoveAt(index)
}

// SetHeader replaces the reference, comments and supplier.
func (e *Entry) SetHeader(h Header) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.submission.Touch(); err != nil {
		return err
	}
	h.Reference = strings.TrimSpace(h.Reference)
	h.Comments = strings.TrimSpace(h.Comments)
	if h.SupplierID != nil && *h.SupplierID <= 0 {
		h.SupplierID = nil
	}
	e.header = h
	return nil
}

// Submit registers the entry. On success rows, header and pending row are
// cleared; on failure everything is kept.
func (e *Entry) Submit(ctx context.Context) (EntryView, error) {
	e.mu.Lock()
	if e.ledger.Empty() {
		e.mu.Unlock()
		return e.View(), shared.Validation(MsgEmptyEntry)
	}
	if err := e.submission.Begin(); err != nil {
		e.mu.Unlock()
		return e.View(), err
	}
	req := e.requestLocked()
	e.mu.Unlock()

	receipt, err := e.deps.Gateway.CreateStockEntry(ctx, req)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.submission.Fail(shared.Reason(err, MsgEntryFailed))
		return e.viewLocked(), fmt.Errorf("submit stock entry: %w", err)
	}
	doc := "registered"
	if receipt.ID > 0 {
		doc = fmt.Sprintf("entry #%d", receipt.ID)
	}
	e.submission.Succeed(doc)
	e.ledger.Clear()
	e.header = Header{}
	e.pending = freshPending()
	e.selection.Clear()
	return e.viewLocked(), nil
}

func (e *Entry) guard() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submission.InFlight() {
		return shared.ErrBusy
	}
	return nil
}

func (e *Entry) requestLocked() StockEntryRequest {
	items := e.ledger.Items()
	req := StockEntryRequest{
		Reference:  e.header.Reference,
		Comments:   e.header.Comments,
		SupplierID: e.header.SupplierID,
		Items:      make([]StockLine, 0, len(items)),
	}
	for _, it := range items {
		req.Items = append(req.Items, StockLine{ProductID: it.ProductID, Quantity: it.Quantity, UnitCost: it.UnitValue})
	}
	return req
}

func (e *Entry) viewLocked() EntryView {
	total := e.ledger.Total()
	v := EntryView{
		Items:      e.ledger.Rows(),
		Count:      e.ledger.Len(),
		Total:      total,
		Display:    e.deps.Money.Format(total),
		Pending:    e.pending,
		Header:     e.header,
		Selection:  e.selection,
		Submission: e.submission.Snapshot(),
	}
	v.Selection.Candidates = append([]catalog.Product(nil), e.selection.Candidates...)
	if e.pending.Product != nil {
		p := *e.pending.Product
		v.Pending.Product = &p
	}
	if e.header.SupplierID != nil {
		id := *e.header.SupplierID
		v.Header.SupplierID = &id
	}
	return v
}
