package inventory

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
)

// Supplier is a vendor stock entries can be attributed to.
type Supplier struct {
	ID      int64  `json:"id" validate:"gt=0"`
	RUC     string `json:"ruc"`
	Name    string `json:"name" validate:"required"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// SupplierPayload is the body of a supplier registration.
type SupplierPayload struct {
	RUC     string `json:"ruc" validate:"required,min=8,max=15"`
	Name    string `json:"name" validate:"required,max=200"`
	Address string `json:"address,omitempty" validate:"omitempty,max=300"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
}

// Normalize trims every field.
func (p SupplierPayload) Normalize() SupplierPayload {
	p.RUC = strings.TrimSpace(p.RUC)
	p.Name = strings.TrimSpace(p.Name)
	p.Address = strings.TrimSpace(p.Address)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.TrimSpace(p.Email)
	return p
}

// ExternalSupplier is the taxpayer registry record of a RUC.
type ExternalSupplier struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Status  string `json:"status,omitempty"`
}

// Active reports whether the registry lists the taxpayer as active.
func (e ExternalSupplier) Active() bool {
	return e.Status == "" || strings.EqualFold(e.Status, "ACTIVO")
}

// StockLine is one row of a stock entry as sent to the backend.
type StockLine struct {
	ProductID int64           `json:"productId" validate:"gt=0"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	UnitCost  decimal.Decimal `json:"unitCost" validate:"gte=0"`
}

// StockEntryRequest registers received merchandise. SupplierID is null when
// the entry is not attributed to a supplier.
type StockEntryRequest struct {
	Reference  string      `json:"reference" validate:"max=100"`
	Comments   string      `json:"comments" validate:"max=500"`
	SupplierID *int64      `json:"supplierId"`
	Items      []StockLine `json:"items" validate:"required,min=1,dive"`
}

// EntryReceipt is the backend acknowledgement of a stock entry.
type EntryReceipt struct {
	ID int64 `json:"id"`
}

// Gateway is the inventory surface of the remote backend.
type Gateway interface {
	CreateStockEntry(ctx context.Context, req StockEntryRequest) (EntryReceipt, error)
	Suppliers(ctx context.Context) ([]Supplier, error)
	CreateSupplier(ctx context.Context, payload SupplierPayload) (Supplier, error)
	ConsultSupplier(ctx context.Context, ruc string) (ExternalSupplier, error)
}

// ProductSearcher finds catalog products for the entry workspace.
type ProductSearcher interface {
	Search(ctx context.Context, query string) ([]catalog.Product, error)
}
