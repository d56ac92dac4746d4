// Package ledger holds the line items of one in-progress transaction: a sale,
// a quote or a stock entry.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// LineItem is a product row with a snapshot of its display name and unit
// value, so later product edits do not change the transaction.
type LineItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Barcode   string          `json:"barcode,omitempty"`
	UnitValue decimal.Decimal `json:"unitValue"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is quantity × unit value, computed on every call.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitValue.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Row is a line item rendered with its subtotal.
type Row struct {
	LineItem
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Ledger is an ordered list of line items. It is not safe for concurrent use;
// its owner serialises access.
type Ledger struct {
	items []LineItem
}

// Add applies the merge policy: a product already present gains one unit,
// otherwise a new row with quantity 1 is appended.
func (l *Ledger) Add(item LineItem) error {
	if err := checkItem(item); err != nil {
		return err
	}
	for i := range l.items {
		if l.items[i].ProductID == item.ProductID {
			l.items[i].Quantity++
			return nil
		}
	}
	item.Quantity = 1
	l.items = append(l.items, item)
	return nil
}

// Append applies the independent-row policy: the item is always a new row,
// even for a product already present.
func (l *Ledger) Append(item LineItem) error {
	if err := checkItem(item); err != nil {
		return err
	}
	if item.Quantity <= 0 {
		return shared.Validation("quantity must be greater than zero")
	}
	l.items = append(l.items, item)
	return nil
}

// Adjust changes the quantity of productID by delta, never below 1.
func (l *Ledger) Adjust(productID int64, delta int) error {
	i := l.indexOf(productID)
	if i < 0 {
		return shared.NotFound("product is not in the list")
	}
	l.items[i].Quantity = clamp(l.items[i].Quantity + delta)
	return nil
}

// AdjustAt changes the quantity of the row at index by delta, never below 1.
func (l *Ledger) AdjustAt(index, delta int) error {
	if index < 0 || index >= len(l.items) {
		return shared.NotFound("row does not exist")
	}
	l.items[index].Quantity = clamp(l.items[index].Quantity + delta)
	return nil
}

// Remove deletes every row of productID. It is meant for merge-policy ledgers,
// where a product has one row; append-policy ledgers remove by index with RemoveAt.
func (l *Ledger) Remove(productID int64) error {
	kept := l.items[:0]
	removed := false
	for _, it := range l.items {
		if it.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	if !removed {
		return shared.NotFound("product is not in the list")
	}
	l.items = kept
	return nil
}

// RemoveAt deletes the row at index.
func (l *Ledger) RemoveAt(index int) error {
	if index < 0 || index >= len(l.items) {
		return shared.NotFound("row does not exist")
	}
	l.items = append(l.items[:index], l.items[index+1:]...)
	return nil
}

// Total sums the subtotals of the current rows.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range l.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Items returns a copy of the rows.
func (l *Ledger) Items() []LineItem {
	return append([]LineItem(nil), l.items...)
}

// Rows returns the rows with their subtotals.
func (l *Ledger) Rows() []Row {
	out := make([]Row, 0, len(l.items))
	for _, it := range l.items {
		out = append(out, Row{LineItem: it, Subtotal: it.Subtotal()})
	}
	return out
}

// Len reports the number of rows.
func (l *Ledger) Len() int { return len(l.items) }

// Empty reports whether the ledger has no rows.
func (l *Ledger) Empty() bool { return len(l.items) == 0 }

// Clear drops every row.
func (l *Ledger) Clear() { l.items = nil }

func (l *Ledger) indexOf(productID int64) int {
	for i := range l.items {
		if l.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func checkItem(item LineItem) error {
	if item.ProductID <= 0 {
		return shared.Validation("product is required")
	}
	if item.UnitValue.IsNegative() {
		return shared.Validation("unit value cannot be negative")
	}
	return nil
}

func clamp(q int) int {
	if q < 1 {
		return 1
	}
	return q
}
