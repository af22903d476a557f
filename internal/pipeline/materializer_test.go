package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
	"github.com/farmbooks/receipt_pipeline/internal/pipeline"
)

func TestMaterializer_Materialize_ExistingVendor(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)

	vendors := NewMockVendorRepository(t)
	expenses := NewMockExpenseSaver(t)
	transactor := NewMockTransactor(t)

	vendors.On("VendorByName", mock.Anything, "Tractor Supply").
		Return(&domain.Vendor{ID: 7, Name: "Tractor Supply"}, nil)

	transactor.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	expenses.On("CreateExpense", mock.Anything, mock.MatchedBy(func(e *domain.Expense) bool {
		return e.Category == domain.CategoryFeed &&
			e.Amount == 45.99 &&
			e.VendorID != nil && *e.VendorID == 7 &&
			e.ExpenseDate.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	})).Return(int64(101), nil)

	materializer := pipeline.NewMaterializer(log, vendors, expenses, transactor)

	receipt := &domain.Receipt{ID: 3}
	payload := &domain.ExtractedExpense{
		VendorName:  "Tractor Supply",
		ExpenseDate: "2026-03-15",
		Amount:      45.99,
		Category:    "feed",
		Description: "Chicken feed",
	}

	expense, err := materializer.Materialize(context.Background(), payload, receipt)

	require.NoError(t, err)
	assert.Equal(t, int64(101), expense.ID)
	require.NotNil(t, expense.ReceiptID)
	assert.Equal(t, int64(3), *expense.ReceiptID)
}

func TestMaterializer_Materialize_CreatesMissingVendor(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)

	vendors := NewMockVendorRepository(t)
	expenses := NewMockExpenseSaver(t)
	transactor := NewMockTransactor(t)

	vendors.On("VendorByName", mock.Anything, "New Farm Co").
		Return(nil, domain.ErrVendorNotFound)
	vendors.On("CreateVendor", mock.Anything, "New Farm Co").
		Return(&domain.Vendor{ID: 12, Name: "New Farm Co"}, nil)

	transactor.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	expenses.On("CreateExpense", mock.Anything, mock.MatchedBy(func(e *domain.Expense) bool {
		return e.VendorID != nil && *e.VendorID == 12
	})).Return(int64(102), nil)

	materializer := pipeline.NewMaterializer(log, vendors, expenses, transactor)

	payload := &domain.ExtractedExpense{
		VendorName:  "New Farm Co",
		ExpenseDate: "2026-03-15",
		Amount:      10,
		Category:    "supplies",
		Description: "Twine",
	}

	_, err := materializer.Materialize(context.Background(), payload, &domain.Receipt{ID: 1})

	require.NoError(t, err)
}

func TestMaterializer_Materialize_UnknownVendorStaysNil(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)

	vendors := NewMockVendorRepository(t)
	expenses := NewMockExpenseSaver(t)
	transactor := NewMockTransactor(t)

	transactor.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	expenses.On("CreateExpense", mock.Anything, mock.MatchedBy(func(e *domain.Expense) bool {
		return e.VendorID == nil
	})).Return(int64(103), nil)

	materializer := pipeline.NewMaterializer(log, vendors, expenses, transactor)

	payload := &domain.ExtractedExpense{
		VendorName:  "Unknown Vendor",
		ExpenseDate: "2026-03-15",
		Amount:      5,
		Category:    "other",
		Description: "Misc",
	}

	_, err := materializer.Materialize(context.Background(), payload, &domain.Receipt{ID: 1})

	require.NoError(t, err)
	vendors.AssertNotCalled(t, "VendorByName", mock.Anything, mock.Anything)
	vendors.AssertNotCalled(t, "CreateVendor", mock.Anything, mock.Anything)
}

func TestMaterializer_Materialize_FallbacksAndLineItems(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)

	vendors := NewMockVendorRepository(t)
	expenses := NewMockExpenseSaver(t)
	transactor := NewMockTransactor(t)

	uploadedAt := time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)
	receipt := &domain.Receipt{ID: 9, CreatedAt: uploadedAt}

	transactor.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)

	// A category outside the closed set and an unparseable date both fall
	// back instead of failing the item.
	expenses.On("CreateExpense", mock.Anything, mock.MatchedBy(func(e *domain.Expense) bool {
		return e.Category == domain.CategoryOther &&
			e.ExpenseDate.Equal(uploadedAt) &&
			e.Description == "unknown"
	})).Return(int64(104), nil)

	expenses.On("CreateLineItems", mock.Anything, mock.MatchedBy(func(items []domain.ExpenseLineItem) bool {
		if len(items) != 2 {
			return false
		}
		tagged, untagged := items[0], items[1]
		return tagged.ExpenseID == 104 &&
			tagged.Category != nil && *tagged.Category == domain.CategoryOther &&
			untagged.Category == nil
	})).Return(nil)

	materializer := pipeline.NewMaterializer(log, vendors, expenses, transactor)

	payload := &domain.ExtractedExpense{
		VendorName:  "unknown",
		ExpenseDate: "sometime in spring",
		Amount:      20,
		Category:    "groceries",
		Description: "",
		LineItems: []domain.ExtractedLine{
			{Description: "Mystery item", Category: "snacks", Amount: 12},
			{Description: "Plain item", Amount: 8},
		},
	}

	expense, err := materializer.Materialize(context.Background(), payload, receipt)

	require.NoError(t, err)
	assert.Equal(t, domain.CategoryOther, expense.Category)
}

func TestMaterializer_Materialize_LineItemFailureAbortsExpense(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)

	vendors := NewMockVendorRepository(t)
	expenses := NewMockExpenseSaver(t)
	transactor := NewMockTransactor(t)

	wantErr := errors.New("copy failed")

	transactor.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	expenses.On("CreateExpense", mock.Anything, mock.Anything).Return(int64(105), nil)
	expenses.On("CreateLineItems", mock.Anything, mock.Anything).Return(wantErr)

	materializer := pipeline.NewMaterializer(log, vendors, expenses, transactor)

	payload := &domain.ExtractedExpense{
		VendorName:  "unknown",
		ExpenseDate: "2026-03-15",
		Amount:      20,
		Category:    "feed",
		Description: "Feed",
		LineItems: []domain.ExtractedLine{
			{Description: "Bag of feed", Amount: 20},
		},
	}

	expense, err := materializer.Materialize(context.Background(), payload, &domain.Receipt{ID: 1})

	require.ErrorIs(t, err, wantErr)
	assert.Nil(t, expense)
}
