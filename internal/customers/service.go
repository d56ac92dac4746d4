package customers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// MinSearchLength is the shortest query sent to the backend.
const MinSearchLength = 3

// MinDocumentLength is the shortest document number worth a registry lookup.
const MinDocumentLength = 8

// Gateway is the customer surface of the remote backend.
type Gateway interface {
	ListCustomers(ctx context.Context, page, size int, search string) (Page, error)
	SearchCustomers(ctx context.Context, query string) ([]Customer, error)
	CreateCustomer(ctx context.Context, payload Payload) (Customer, error)
	UpdateCustomer(ctx context.Context, id int64, payload Payload) (Customer, error)
	ConsultCustomer(ctx context.Context, docNumber string) (External, error)
}

// Service orchestrates the customer directory.
type Service struct {
	gw     Gateway
	logger *slog.Logger
}

// NewService builds the service.
func NewService(gw Gateway, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gw: gw, logger: logger}
}

// List loads one page of the directory.
func (s *Service) List(ctx context.Context, page, size int, search string) (Page, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}
	out, err := s.gw.ListCustomers(ctx, page, size, strings.TrimSpace(search))
	if err != nil {
		return Page{}, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

// Search looks customers up by name or document. Queries shorter than
// MinSearchLength return nothing without calling the backend.
func (s *Service) Search(ctx context.Context, query string) ([]Customer, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSearchLength {
		return []Customer{}, nil
	}
	rows, err := s.gw.SearchCustomers(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	return rows, nil
}

// Create registers a customer.
func (s *Service) Create(ctx context.Context, payload Payload) (Customer, error) {
	c, err := s.gw.CreateCustomer(ctx, payload.Normalize())
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	s.logger.Info("customer created", slog.Int64("id", c.ID))
	return c, nil
}

// Update replaces a customer's data.
func (s *Service) Update(ctx context.Context, id int64, payload Payload) (Customer, error) {
	if id <= 0 {
		return Customer{}, shared.Validation("invalid customer id")
	}
	c, err := s.gw.UpdateCustomer(ctx, id, payload.Normalize())
	if err != nil {
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

// Consult fetches registry data for a document number to prefill the form.
func (s *Service) Consult(ctx context.Context, docNumber string) (External, error) {
	docNumber = strings.TrimSpace(docNumber)
	if len(docNumber) < MinDocumentLength {
		return External{}, shared.Validation("enter a valid document number")
	}
	ext, err := s.gw.ConsultCustomer(ctx, docNumber)
	if err != nil {
		return External{}, fmt.Errorf("consult customer: %w", err)
	}
	if ext.DocNumber == "" {
		ext.DocNumber = docNumber
	}
	return ext, nil
}
