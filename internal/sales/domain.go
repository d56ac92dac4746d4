package sales

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/customers"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// ============================================================================
// DOCUMENT TYPES
// ============================================================================

// DocumentType is the kind of document a sale produces.
type DocumentType string

const (
	// Boleta is a consumer receipt.
	Boleta DocumentType = "BOLETA"
	// Factura is the credit document: it requires an identified customer.
	Factura DocumentType = "FACTURA"
	// Cotizacion is a quote; it reserves nothing until converted.
	Cotizacion DocumentType = "COTIZACION"
)

// ParseDocumentType validates a document type name.
func ParseDocumentType(raw string) (DocumentType, error) {
	switch t := DocumentType(strings.ToUpper(strings.TrimSpace(raw))); t {
	case Boleta, Factura, Cotizacion:
		return t, nil
	default:
		return "", shared.Validation("unknown document type " + raw)
	}
}

// RequiresCustomer reports whether the type is a credit document.
func (t DocumentType) RequiresCustomer() bool {
	return t == Factura
}

// ============================================================================
// WIRE RECORDS
// ============================================================================

// SaleLine is one product line of a sale request.
type SaleLine struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=1"`
}

// SaleRequest creates a sale or a quote.
type SaleRequest struct {
	ClientID *int64       `json:"clientId"`
	Type     DocumentType `json:"type" validate:"required,oneof=BOLETA FACTURA COTIZACION"`
	Items    []SaleLine   `json:"items" validate:"required,min=1,dive"`
}

// Receipt is the backend acknowledgement of a created document.
type Receipt struct {
	ID             int64  `json:"id,omitempty"`
	DocumentNumber string `json:"documentNumber"`
}

// Sale is a summary row of the sales history or the quotes list.
type Sale struct {
	ID             int64           `json:"id" validate:"gt=0"`
	DocumentNumber string          `json:"documentNumber"`
	Type           DocumentType    `json:"type,omitempty"`
	CustomerName   string          `json:"customerName"`
	IssueDate      string          `json:"issueDate"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Status         string          `json:"status,omitempty"`
}

// DetailLine is a line of a sale detail.
type DetailLine struct {
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SaleDetail is a sale with its lines.
type SaleDetail struct {
	Sale
	Items []DetailLine `json:"items"`
}

// Document is a rendered file such as the PDF of a sale.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ============================================================================
// COLLABORATORS
// ============================================================================

// Gateway is the sales surface of the remote backend.
type Gateway interface {
	CreateSale(ctx context.Context, req SaleRequest) (Receipt, error)
	Quotes(ctx context.Context, archived bool) ([]Sale, error)
	ArchiveQuote(ctx context.Context, id int64) error
	ConvertQuote(ctx context.Context, id int64, target DocumentType) (Receipt, error)
	Sales(ctx context.Context) ([]Sale, error)
	SaleDetail(ctx context.Context, id int64) (SaleDetail, error)
	SalePDF(ctx context.Context, id int64) (Document, error)
}

// ProductSearcher runs the inline product search.
type ProductSearcher interface {
	Search(ctx context.Context, query string) ([]catalog.Product, error)
}

// CustomerSearcher looks customers up for the cart.
type CustomerSearcher interface {
	Search(ctx context.Context, query string) ([]customers.Customer, error)
}
