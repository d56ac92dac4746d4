package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// MsgConvertFailed is the fallback reason of a rejected quote conversion.
const MsgConvertFailed = "insufficient stock"

// Service provides the quote and sales history operations.
type Service struct {
	gw     Gateway
	logger *slog.Logger
}

// NewService constructs a sales service.
func NewService(gw Gateway, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gw: gw, logger: logger}
}

// ============================================================================
// QUOTE OPERATIONS
// ============================================================================

// Quotes lists quotes; archived selects the archived view instead of the open one.
func (s *Service) Quotes(ctx context.Context, archived bool) ([]Sale, error) {
	rows, err := s.gw.Quotes(ctx, archived)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	if rows == nil {
		rows = []Sale{}
	}
	return rows, nil
}

// ArchiveQuote hides a quote from the open list.
func (s *Service) ArchiveQuote(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.Validation("invalid quote id")
	}
	if err := s.gw.ArchiveQuote(ctx, id); err != nil {
		return fmt.Errorf("archive quote: %w", err)
	}
	s.logger.Info("quote archived", slog.Int64("id", id))
	return nil
}

// ConvertQuote turns a quote into a BOLETA or FACTURA, discounting stock. A
// rejection carries the backend reason, or MsgConvertFailed when none is given.
func (s *Service) ConvertQuote(ctx context.Context, id int64, target DocumentType) (Receipt, error) {
	if id <= 0 {
		return Receipt{}, shared.Validation("invalid quote id")
	}
	if target != Boleta && target != Factura {
		return Receipt{}, shared.Validation("a quote converts to BOLETA or FACTURA")
	}
	receipt, err := s.gw.ConvertQuote(ctx, id, target)
	if err != nil {
		if errors.Is(err, shared.ErrConflict) {
			return Receipt{}, &shared.Error{Kind: shared.ErrConflict, Message: shared.Reason(err, MsgConvertFailed)}
		}
		return Receipt{}, fmt.Errorf("convert quote: %w", err)
	}
	s.logger.Info("quote converted", slog.Int64("id", id), slog.String("document", receipt.DocumentNumber))
	return receipt, nil
}

// ============================================================================
// HISTORY OPERATIONS
// ============================================================================

// History lists sales, filtered locally by document number or customer name.
func (s *Service) History(ctx context.Context, filter string) ([]Sale, error) {
	rows, err := s.gw.Sales(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return FilterSales(rows, filter), nil
}

// Detail loads a sale or quote with its lines.
func (s *Service) Detail(ctx context.Context, id int64) (SaleDetail, error) {
	if id <= 0 {
		return SaleDetail{}, shared.Validation("invalid sale id")
	}
	d, err := s.gw.SaleDetail(ctx, id)
	if err != nil {
		return SaleDetail{}, fmt.Errorf("sale detail: %w", err)
	}
	return d, nil
}

// PDF downloads the printable document of a sale or quote.
func (s *Service) PDF(ctx context.Context, id int64) (Document, error) {
	if id <= 0 {
		return Document{}, shared.Validation("invalid sale id")
	}
	doc, err := s.gw.SalePDF(ctx, id)
	if err != nil {
		return Document{}, fmt.Errorf("sale pdf: %w", err)
	}
	if doc.Filename == "" {
		doc.Filename = fmt.Sprintf("sale-%d.pdf", id)
	}
	if doc.ContentType == "" {
		doc.ContentType = "application/pdf"
	}
	return doc, nil
}

// FilterSales keeps the rows whose document number or customer name contains
// filter, ignoring case.
func FilterSales(rows []Sale, filter string) []Sale {
	filter = strings.ToLower(strings.TrimSpace(filter))
	out := make([]Sale, 0, len(rows))
	for _, r := range rows {
		if filter == "" ||
			strings.Contains(strings.ToLower(r.DocumentNumber), filter) ||
			strings.Contains(strings.ToLower(r.CustomerName), filter) {
			out = append(out, r)
		}
	}
	return out
}
