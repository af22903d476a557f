package pipeline

import (
	"context"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
	"github.com/farmbooks/receipt_pipeline/internal/extraction"
	"github.com/farmbooks/receipt_pipeline/internal/ocr"
)

type BatchProvider interface {
	BatchByID(ctx context.Context, id int64) (*domain.BatchUpload, error)
	ItemsByBatch(ctx context.Context, batchID int64) ([]*domain.BatchItem, error)
}

type BatchUpdater interface {
	UpdateBatchStatus(ctx context.Context, batchID int64, status domain.BatchStatus) error
	UpdateItemStatus(ctx context.Context, itemID int64, status domain.ItemStatus) error
	IncrementOCRAttempts(ctx context.Context, itemID int64) error
	IncrementExtractionAttempts(ctx context.Context, itemID int64) error
	FinishItem(ctx context.Context, itemID int64, status domain.ItemStatus, errorMessage string, expenseID *int64) error
	AddProcessed(ctx context.Context, batchID int64, success bool) error
}

type ReceiptProvider interface {
	ReceiptByID(ctx context.Context, id int64) (*domain.Receipt, error)
}

type OCRResultSaver interface {
	SaveOCRResults(ctx context.Context, receiptID int64, rawText string, extractedData []byte) error
}

type VendorRepository interface {
	VendorNames(ctx context.Context) ([]string, error)
	VendorByName(ctx context.Context, name string) (*domain.Vendor, error)
	CreateVendor(ctx context.Context, name string) (*domain.Vendor, error)
}

type ExpenseSaver interface {
	CreateExpense(ctx context.Context, expense *domain.Expense) (int64, error)
	CreateLineItems(ctx context.Context, items []domain.ExpenseLineItem) error
}

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type OCRProcessor interface {
	Process(ctx context.Context, engine string, image []byte, mimeType string, vendorHints []string) (string, *ocr.Guess, error)
}

type ExpenseExtractor interface {
	ExtractWithRetry(ctx context.Context, ocrText string, maxRetries int) extraction.RetryResult
}

type ExpenseMaterializer interface {
	Materialize(ctx context.Context, payload *domain.ExtractedExpense, receipt *domain.Receipt) (*domain.Expense, error)
}

type ReportGenerator interface {
	GenerateBatchReport(ctx context.Context, batch *domain.BatchUpload) error
}
