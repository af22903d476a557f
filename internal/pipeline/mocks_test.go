package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
	"github.com/farmbooks/receipt_pipeline/internal/extraction"
	"github.com/farmbooks/receipt_pipeline/internal/ocr"
)

type MockBatchRepository struct {
	mock.Mock
}

func NewMockBatchRepository(t *testing.T) *MockBatchRepository {
	m := &MockBatchRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockBatchRepository) BatchByID(ctx context.Context, id int64) (*domain.BatchUpload, error) {
	args := m.Called(ctx, id)

	var batch *domain.BatchUpload
	if v := args.Get(0); v != nil {
		batch = v.(*domain.BatchUpload)
	}

	return batch, args.Error(1)
}

func (m *MockBatchRepository) ItemsByBatch(ctx context.Context, batchID int64) ([]*domain.BatchItem, error) {
	args := m.Called(ctx, batchID)

	var items []*domain.BatchItem
	if v := args.Get(0); v != nil {
		items = v.([]*domain.BatchItem)
	}

	return items, args.Error(1)
}

func (m *MockBatchRepository) UpdateBatchStatus(ctx context.Context, batchID int64, status domain.BatchStatus) error {
	return m.Called(ctx, batchID, status).Error(0)
}

func (m *MockBatchRepository) UpdateItemStatus(ctx context.Context, itemID int64, status domain.ItemStatus) error {
	return m.Called(ctx, itemID, status).Error(0)
}

func (m *MockBatchRepository) IncrementOCRAttempts(ctx context.Context, itemID int64) error {
	return m.Called(ctx, itemID).Error(0)
}

func (m *MockBatchRepository) IncrementExtractionAttempts(ctx context.Context, itemID int64) error {
	return m.Called(ctx, itemID).Error(0)
}

func (m *MockBatchRepository) FinishItem(ctx context.Context, itemID int64, status domain.ItemStatus, errorMessage string, expenseID *int64) error {
	return m.Called(ctx, itemID, status, errorMessage, expenseID).Error(0)
}

func (m *MockBatchRepository) AddProcessed(ctx context.Context, batchID int64, success bool) error {
	return m.Called(ctx, batchID, success).Error(0)
}

type MockReceiptRepository struct {
	mock.Mock
}

func NewMockReceiptRepository(t *testing.T) *MockReceiptRepository {
	m := &MockReceiptRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockReceiptRepository) ReceiptByID(ctx context.Context, id int64) (*domain.Receipt, error) {
	args := m.Called(ctx, id)

	var receipt *domain.Receipt
	if v := args.Get(0); v != nil {
		receipt = v.(*domain.Receipt)
	}

	return receipt, args.Error(1)
}

func (m *MockReceiptRepository) SaveOCRResults(ctx context.Context, receiptID int64, rawText string, extractedData []byte) error {
	return m.Called(ctx, receiptID, rawText, extractedData).Error(0)
}

type MockVendorRepository struct {
	mock.Mock
}

func NewMockVendorRepository(t *testing.T) *MockVendorRepository {
	m := &MockVendorRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockVendorRepository) VendorNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)

	var names []string
	if v := args.Get(0); v != nil {
		names = v.([]string)
	}

	return names, args.Error(1)
}

func (m *MockVendorRepository) VendorByName(ctx context.Context, name string) (*domain.Vendor, error) {
	args := m.Called(ctx, name)

	var vendor *domain.Vendor
	if v := args.Get(0); v != nil {
		vendor = v.(*domain.Vendor)
	}

	return vendor, args.Error(1)
}

func (m *MockVendorRepository) CreateVendor(ctx context.Context, name string) (*domain.Vendor, error) {
	args := m.Called(ctx, name)

	var vendor *domain.Vendor
	if v := args.Get(0); v != nil {
		vendor = v.(*domain.Vendor)
	}

	return vendor, args.Error(1)
}

type MockExpenseSaver struct {
	mock.Mock
}

func NewMockExpenseSaver(t *testing.T) *MockExpenseSaver {
	m := &MockExpenseSaver{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockExpenseSaver) CreateExpense(ctx context.Context, expense *domain.Expense) (int64, error) {
	args := m.Called(ctx, expense)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExpenseSaver) CreateLineItems(ctx context.Context, items []domain.ExpenseLineItem) error {
	return m.Called(ctx, items).Error(0)
}

// MockTransactor runs the given function directly when the expectation
// returns nil, so tests observe the calls made inside the transaction.
type MockTransactor struct {
	mock.Mock
}

func NewMockTransactor(t *testing.T) *MockTransactor {
	m := &MockTransactor{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}

	return fn(ctx)
}

type MockOCRProcessor struct {
	mock.Mock
}

func NewMockOCRProcessor(t *testing.T) *MockOCRProcessor {
	m := &MockOCRProcessor{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockOCRProcessor) Process(ctx context.Context, engine string, image []byte, mimeType string, vendorHints []string) (string, *ocr.Guess, error) {
	args := m.Called(ctx, engine, image, mimeType, vendorHints)

	var guess *ocr.Guess
	if v := args.Get(1); v != nil {
		guess = v.(*ocr.Guess)
	}

	return args.String(0), guess, args.Error(2)
}

type MockExpenseExtractor struct {
	mock.Mock
}

func NewMockExpenseExtractor(t *testing.T) *MockExpenseExtractor {
	m := &MockExpenseExtractor{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockExpenseExtractor) ExtractWithRetry(ctx context.Context, ocrText string, maxRetries int) extraction.RetryResult {
	args := m.Called(ctx, ocrText, maxRetries)
	return args.Get(0).(extraction.RetryResult)
}

type MockExpenseMaterializer struct {
	mock.Mock
}

func NewMockExpenseMaterializer(t *testing.T) *MockExpenseMaterializer {
	m := &MockExpenseMaterializer{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockExpenseMaterializer) Materialize(ctx context.Context, payload *domain.ExtractedExpense, receipt *domain.Receipt) (*domain.Expense, error) {
	args := m.Called(ctx, payload, receipt)

	var expense *domain.Expense
	if v := args.Get(0); v != nil {
		expense = v.(*domain.Expense)
	}

	return expense, args.Error(1)
}

type MockReportGenerator struct {
	mock.Mock
}

func NewMockReportGenerator(t *testing.T) *MockReportGenerator {
	m := &MockReportGenerator{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockReportGenerator) GenerateBatchReport(ctx context.Context, batch *domain.BatchUpload) error {
	return m.Called(ctx, batch).Error(0)
}
