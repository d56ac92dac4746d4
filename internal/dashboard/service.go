// Package dashboard serves the operator's daily summary: today's sales and
// the products running low on stock.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// LowStockProduct is a product at or below its minimum stock.
type LowStockProduct struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Stock    int    `json:"stock"`
	MinStock int    `json:"minStock"`
}

// Stats are the KPIs shown on the dashboard.
type Stats struct {
	TodaySalesAmount decimal.Decimal   `json:"todaySalesAmount"`
	TodaySalesCount  int               `json:"todaySalesCount"`
	LowStockCount    int               `json:"lowStockCount"`
	LowStockProducts []LowStockProduct `json:"lowStockProducts"`
}

// Gateway is the report surface of the remote backend.
type Gateway interface {
	DashboardStats(ctx context.Context) (Stats, error)
}

// Summary is Stats with the amount rendered for display.
type Summary struct {
	Stats
	TodaySalesDisplay string    `json:"todaySalesDisplay"`
	Day               string    `json:"day"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// Service loads dashboard stats through a short-lived cache keyed by day.
type Service struct {
	gw     Gateway
	cache  *cache.Cache
	money  *shared.Money
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds the dashboard service.
func NewService(gw Gateway, c *cache.Cache, money *shared.Money, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gw: gw, cache: c, money: money, logger: logger, now: time.Now}
}

// Summary returns today's stats.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	day := s.now().Format("2006-01-02")
	stats, err := cache.Load(ctx, s.cache, s.gw.DashboardStats, "stats", day)
	if err != nil {
		return Summary{}, fmt.Errorf("dashboard stats: %w", err)
	}
	if stats.LowStockProducts == nil {
		stats.LowStockProducts = []LowStockProduct{}
	}
	if stats.LowStockCount < len(stats.LowStockProducts) {
		stats.LowStockCount = len(stats.LowStockProducts)
	}
	return Summary{
		Stats:             stats,
		TodaySalesDisplay: s.money.Format(stats.TodaySalesAmount),
		Day:               day,
		GeneratedAt:       s.now().UTC(),
	}, nil
}

// Warm drops cached stats and loads fresh ones.
func (s *Service) Warm(ctx context.Context) error {
	if err := s.cache.Bump(ctx); err != nil {
		return fmt.Errorf("bump dashboard cache: %w", err)
	}
	_, err := s.Summary(ctx)
	return err
}
