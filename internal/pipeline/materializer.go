package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
)

// dateLayouts the extraction model has been seen producing besides ISO.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
}

// Materializer turns a validated extraction payload into persisted
// vendor/expense/line-item rows.
type Materializer struct {
	log        *slog.Logger
	vendors    VendorRepository
	expenses   ExpenseSaver
	transactor Transactor
}

func NewMaterializer(
	log *slog.Logger,
	vendors VendorRepository,
	expenses ExpenseSaver,
	transactor Transactor,
) *Materializer {
	return &Materializer{
		log:        log,
		vendors:    vendors,
		expenses:   expenses,
		transactor: transactor,
	}
}

func (m *Materializer) Materialize(
	ctx context.Context,
	payload *domain.ExtractedExpense,
	receipt *domain.Receipt,
) (*domain.Expense, error) {
	vendorID, err := m.resolveVendor(ctx, payload.VendorName)
	if err != nil {
		return nil, fmt.Errorf("resolving vendor: %w", err)
	}

	expense := &domain.Expense{
		Category:    domain.ParseCategory(payload.Category),
		Amount:      payload.Amount,
		Description: payload.Description,
		Notes:       payload.Notes,
		ExpenseDate: m.resolveDate(ctx, payload.ExpenseDate, receipt),
		VendorID:    vendorID,
		ReceiptID:   &receipt.ID,
	}

	if expense.Description == "" {
		expense.Description = payload.VendorName
	}

	// Expense and line items land together or not at all.
	err = m.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		id, err := m.expenses.CreateExpense(ctx, expense)
		if err != nil {
			return fmt.Errorf("creating expense: %w", err)
		}
		expense.ID = id

		items := buildLineItems(id, payload.LineItems)
		if len(items) == 0 {
			return nil
		}

		if err := m.expenses.CreateLineItems(ctx, items); err != nil {
			return fmt.Errorf("creating line items: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return expense, nil
}

// buildLineItems maps extracted lines onto rows. A line tagged with a
// category outside the closed set gets CategoryOther; an untagged line keeps
// no category at all.
func buildLineItems(expenseID int64, lines []domain.ExtractedLine) []domain.ExpenseLineItem {
	items := make([]domain.ExpenseLineItem, 0, len(lines))

	for _, line := range lines {
		item := domain.ExpenseLineItem{
			ExpenseID:   expenseID,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Amount:      line.Amount,
		}

		if line.Category != "" {
			category := domain.ParseCategory(line.Category)
			item.Category = &category
		}

		items = append(items, item)
	}

	return items
}

// resolveVendor is lookup-or-create by exact name. Names meaning "no vendor
// recognized" resolve to nil rather than polluting the vendors table.
func (m *Materializer) resolveVendor(ctx context.Context, name string) (*int64, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "unknown") || strings.EqualFold(name, "unknown vendor") {
		return nil, nil
	}

	vendor, err := m.vendors.VendorByName(ctx, name)
	if err == nil {
		return &vendor.ID, nil
	}

	if !errors.Is(err, domain.ErrVendorNotFound) {
		return nil, err
	}

	vendor, err = m.vendors.CreateVendor(ctx, name)
	if err != nil {
		return nil, err
	}

	m.log.DebugContext(ctx, "created vendor", slog.String("name", name))

	return &vendor.ID, nil
}

func (m *Materializer) resolveDate(ctx context.Context, value string, receipt *domain.Receipt) time.Time {
	for _, layout := range dateLayouts {
		if date, err := time.Parse(layout, value); err == nil {
			return date
		}
	}

	m.log.DebugContext(ctx, "unparseable expense date, using receipt upload time",
		slog.String("value", value))

	return receipt.CreatedAt
}
