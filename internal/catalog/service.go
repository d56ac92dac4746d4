package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// MinSearchLength is the shortest free text sent to the backend while typing.
const MinSearchLength = 3

// Service orchestrates catalog operations on top of the gateway.
type Service struct {
	gw          Gateway
	lookups     *cache.Cache
	logger      *slog.Logger
	searchLimit int
}

// NewService builds the catalog service. lookups caches brands and categories.
func NewService(gw Gateway, lookups *cache.Cache, searchLimit int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if searchLimit <= 0 {
		searchLimit = 5
	}
	return &Service{gw: gw, lookups: lookups, logger: logger, searchLimit: searchLimit}
}

// List loads one page of products for q.
func (s *Service) List(ctx context.Context, q Query) (Page, error) {
	if q.Size <= 0 {
		q.Size = DefaultPageSize
	}
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Sort.Key == "" {
		q.Sort = DefaultSort
	}
	page, err := s.gw.ListProducts(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("list products: %w", err)
	}
	return page, nil
}

// Search runs the lightweight inline search used by the cart and stock entry.
func (s *Service) Search(ctx context.Context, query string) ([]Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	rows, err := s.gw.SearchProducts(ctx, query, s.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return rows, nil
}

// SearchText is Search for typed input: short fragments return nothing without
// reaching the backend.
func (s *Service) SearchText(ctx context.Context, text string) ([]Product, error) {
	if len([]rune(strings.TrimSpace(text))) < MinSearchLength {
		return nil, nil
	}
	return s.Search(ctx, text)
}

// Create registers a new product.
func (s *Service) Create(ctx context.Context, payload ProductPayload) (Product, error) {
	payload = normalizePayload(payload)
	p, err := s.gw.CreateProduct(ctx, payload)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created", slog.Int64("id", p.ID), slog.String("barcode", p.Barcode))
	return p, nil
}

// Update replaces the editable fields of a product.
func (s *Service) Update(ctx context.Context, id int64, payload ProductPayload) (Product, error) {
	if id <= 0 {
		return Product{}, shared.Validation("invalid product id")
	}
	payload = normalizePayload(payload)
	p, err := s.gw.UpdateProduct(ctx, id, payload)
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// ToggleArchive archives an active product or restores an archived one.
func (s *Service) ToggleArchive(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.Validation("invalid product id")
	}
	if err := s.gw.ToggleProductActive(ctx, id); err != nil {
		return fmt.Errorf("toggle product: %w", err)
	}
	s.logger.Info("product archive toggled", slog.Int64("id", id))
	return nil
}

// Brands lists brands through the lookup cache.
func (s *Service) Brands(ctx context.Context) ([]Lookup, error) {
	out, err := cache.Load(ctx, s.lookups, s.gw.Brands, "brands")
	if err != nil {
		return nil, fmt.Errorf("brands: %w", err)
	}
	return out, nil
}

// Categories lists categories through the lookup cache.
func (s *Service) Categories(ctx context.Context) ([]Lookup, error) {
	out, err := cache.Load(ctx, s.lookups, s.gw.Categories, "categories")
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	return out, nil
}

// Lookups loads brands and categories concurrently.
func (s *Service) Lookups(ctx context.Context) (Lookups, error) {
	var out Lookups
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		brands, err := s.Brands(gctx)
		out.Brands = brands
		return err
	})
	g.Go(func() error {
		categories, err := s.Categories(gctx)
		out.Categories = categories
		return err
	})
	if err := g.Wait(); err != nil {
		return Lookups{}, err
	}
	return out, nil
}

// CreateBrand registers a brand and invalidates the lookup cache.
func (s *Service) CreateBrand(ctx context.Context, name string) (Lookup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Lookup{}, shared.Validation("brand name is required")
	}
	l, err := s.gw.CreateBrand(ctx, name)
	if err != nil {
		return Lookup{}, fmt.Errorf("create brand: %w", err)
	}
	s.invalidate(ctx)
	return l, nil
}

// CreateCategory registers a category and invalidates the lookup cache.
func (s *Service) CreateCategory(ctx context.Context, name string) (Lookup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Lookup{}, shared.Validation("category name is required")
	}
	l, err := s.gw.CreateCategory(ctx, name)
	if err != nil {
		return Lookup{}, fmt.Errorf("create category: %w", err)
	}
	s.invalidate(ctx)
	return l, nil
}

// WarmLookups refreshes the cached lookups. Used by the background worker.
func (s *Service) WarmLookups(ctx context.Context) error {
	if err := s.lookups.Bump(ctx); err != nil {
		return err
	}
	_, err := s.Lookups(ctx)
	return err
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.lookups.Bump(ctx); err != nil {
		s.logger.Warn("lookup cache bump failed", slog.Any("error", err))
	}
}

func normalizePayload(p ProductPayload) ProductPayload {
	p.Barcode = strings.TrimSpace(p.Barcode)
	p.Name = strings.TrimSpace(p.Name)
	return p
}
