package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// MinRUCLength is the shortest RUC worth a registry lookup.
const MinRUCLength = 8

// Service manages suppliers. The supplier list is cached and invalidated on
// every registration.
type Service struct {
	gw     Gateway
	cache  *cache.Cache
	logger *slog.Logger
}

// NewService builds the supplier service.
func NewService(gw Gateway, c *cache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gw: gw, cache: c, logger: logger}
}

// Suppliers returns every supplier.
func (s *Service) Suppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := cache.Load(ctx, s.cache, s.gw.Suppliers, "suppliers")
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	if rows == nil {
		rows = []Supplier{}
	}
	return rows, nil
}

// CreateSupplier registers a supplier.
func (s *Service) CreateSupplier(ctx context.Context, payload SupplierPayload) (Supplier, error) {
	payload = payload.Normalize()
	if len(payload.RUC) < MinRUCLength {
		return Supplier{}, shared.Validation(fmt.Sprintf("ruc must have at least %d digits", MinRUCLength))
	}
	if payload.Name == "" {
		return Supplier{}, shared.Validation("supplier name is required")
	}
	sup, err := s.gw.CreateSupplier(ctx, payload)
	if err != nil {
		return Supplier{}, fmt.Errorf("create supplier: %w", err)
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("supplier cache bump failed", slog.Any("error", err))
	}
	s.logger.Info("supplier created", slog.Int64("id", sup.ID), slog.String("ruc", sup.RUC))
	return sup, nil
}

// ConsultSupplier looks a RUC up in the taxpayer registry.
func (s *Service) ConsultSupplier(ctx context.Context, ruc string) (ExternalSupplier, error) {
	ruc = strings.TrimSpace(ruc)
	if len(ruc) < MinRUCLength {
		return ExternalSupplier{}, shared.Validation(fmt.Sprintf("ruc must have at least %d digits", MinRUCLength))
	}
	ext, err := s.gw.ConsultSupplier(ctx, ruc)
	if err != nil {
		return ExternalSupplier{}, fmt.Errorf("consult supplier: %w", err)
	}
	return ext, nil
}

// WarmSuppliers invalidates and reloads the supplier cache.
func (s *Service) WarmSuppliers(ctx context.Context) error {
	if err := s.cache.Bump(ctx); err != nil {
		return fmt.Errorf("bump supplier cache: %w", err)
	}
	_, err := s.Suppliers(ctx)
	return err
}
