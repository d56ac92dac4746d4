package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry owned by the backend. The console only reads it.
type Product struct {
	ID           int64           `json:"id" validate:"gt=0"`
	Barcode      string          `json:"barcode"`
	Name         string          `json:"name" validate:"required"`
	BrandID      int64           `json:"brandId,omitempty"`
	BrandName    string          `json:"brandName,omitempty"`
	CategoryID   int64           `json:"categoryId,omitempty"`
	CategoryName string          `json:"categoryName,omitempty"`
	Price        decimal.Decimal `json:"price" validate:"gte=0"`
	Stock        int             `json:"stock"`
	MinStock     int             `json:"minStock" validate:"gte=0"`
	Active       bool            `json:"active"`
}

// LowStock reports whether the product is at or below its threshold.
func (p Product) LowStock() bool {
	return p.Stock <= p.MinStock
}

// Page is one page of a product listing as returned by the backend.
type Page struct {
	Content       []Product `json:"content" validate:"dive"`
	TotalPages    int       `json:"totalPages"`
	TotalElements int64     `json:"totalElements"`
	Last          bool      `json:"last"`
}

// ProductPayload is the body of create and update requests.
type ProductPayload struct {
	Barcode    string          `json:"barcode" validate:"required,max=64"`
	Name       string          `json:"name" validate:"required,max=200"`
	BrandID    int64           `json:"brandId" validate:"gt=0"`
	CategoryID int64           `json:"categoryId" validate:"gt=0"`
	Price      decimal.Decimal `json:"price" validate:"gte=0"`
	MinStock   int             `json:"minStock" validate:"gte=0"`
}

// Lookup is a brand or category entry.
type Lookup struct {
	ID   int64  `json:"id" validate:"gt=0"`
	Name string `json:"name" validate:"required"`
}

// Lookups bundles the dropdown data of the product form.
type Lookups struct {
	Brands     []Lookup `json:"brands"`
	Categories []Lookup `json:"categories"`
}

// Gateway is the catalog surface of the remote backend.
type Gateway interface {
	ListProducts(ctx context.Context, q Query) (Page, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]Product, error)
	CreateProduct(ctx context.Context, payload ProductPayload) (Product, error)
	UpdateProduct(ctx context.Context, id int64, payload ProductPayload) (Product, error)
	ToggleProductActive(ctx context.Context, id int64) error
	Brands(ctx context.Context) ([]Lookup, error)
	Categories(ctx context.Context) ([]Lookup, error)
	CreateBrand(ctx context.Context, name string) (Lookup, error)
	CreateCategory(ctx context.Context, name string) (Lookup, error)
}
