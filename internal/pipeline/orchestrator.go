package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
	"github.com/farmbooks/receipt_pipeline/internal/ocr"
)

type BatchRepository interface {
	BatchProvider
	BatchUpdater
}

type ReceiptRepository interface {
	ReceiptProvider
	OCRResultSaver
}

// Orchestrator drives batches through OCR, extraction and materialization.
// One batch at a time, items in upload order; a failing item never aborts its
// siblings.
type Orchestrator struct {
	log          *slog.Logger
	batchIDs     <-chan int64
	batches      BatchRepository
	receipts     ReceiptRepository
	vendors      VendorRepository
	router       OCRProcessor
	extractor    ExpenseExtractor
	materializer ExpenseMaterializer
	transactor   Transactor
	reporter     ReportGenerator

	classicalTimeout time.Duration
	neuralTimeout    time.Duration
	maxRetries       int
}

func NewOrchestrator(
	log *slog.Logger,
	batchIDs <-chan int64,
	batches BatchRepository,
	receipts ReceiptRepository,
	vendors VendorRepository,
	router OCRProcessor,
	extractor ExpenseExtractor,
	materializer ExpenseMaterializer,
	transactor Transactor,
	reporter ReportGenerator,
	classicalTimeout time.Duration,
	neuralTimeout time.Duration,
	maxRetries int,
) *Orchestrator {
	return &Orchestrator{
		log:              log,
		batchIDs:         batchIDs,
		batches:          batches,
		receipts:         receipts,
		vendors:          vendors,
		router:           router,
		extractor:        extractor,
		materializer:     materializer,
		transactor:       transactor,
		reporter:         reporter,
		classicalTimeout: classicalTimeout,
		neuralTimeout:    neuralTimeout,
		maxRetries:       maxRetries,
	}
}

// Run consumes batch IDs until the channel closes or the context is
// cancelled. A failed batch is logged and does not stop the worker.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		select {
		case batchID, ok := <-o.batchIDs:
			if !ok {
				return nil
			}

			if err := o.ProcessBatch(ctx, batchID); err != nil {
				o.log.ErrorContext(ctx, "batch processing failed",
					slog.Int64("batch_id", batchID),
					slog.String("err", err.Error()))
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ProcessBatch runs one full pass over a batch. Re-invoking it on a batch
// whose items are already terminal is a no-op per item.
func (o *Orchestrator) ProcessBatch(ctx context.Context, batchID int64) error {
	batch, err := o.batches.BatchByID(ctx, batchID)
	if err != nil {
		return fmt.Errorf("loading batch %d: %w", batchID, err)
	}

	if batch.Status == domain.BatchStatusCompleted || batch.Status == domain.BatchStatusFailed {
		o.log.InfoContext(ctx, "batch already terminal, skipping",
			slog.String("token", batch.Token),
			slog.String("status", string(batch.Status)))
		return nil
	}

	log := o.log.With(
		slog.String("token", batch.Token),
		slog.String("engine", batch.OCREngine),
		slog.Int("total", batch.TotalCount),
	)

	log.InfoContext(ctx, "batch processing started")

	if err := o.batches.UpdateBatchStatus(ctx, batchID, domain.BatchStatusProcessing); err != nil {
		return o.failBatch(ctx, batchID, fmt.Errorf("marking batch processing: %w", err))
	}

	items, err := o.batches.ItemsByBatch(ctx, batchID)
	if err != nil {
		return o.failBatch(ctx, batchID, fmt.Errorf("loading batch items: %w", err))
	}

	// Known vendor names only sharpen OCR guesses; their absence is not
	// worth failing a batch over.
	hints, err := o.vendors.VendorNames(ctx)
	if err != nil {
		log.WarnContext(ctx, "failed to load vendor hints", slog.String("err", err.Error()))
		hints = nil
	}

	timeout := o.classicalTimeout
	if ocr.Neural(batch.OCREngine) {
		timeout = o.neuralTimeout
	}

	for _, item := range items {
		if item.Status.Terminal() {
			continue
		}

		expenseID, itemErr := o.processItem(ctx, batch, item, hints, timeout)

		if err := o.finishItem(ctx, batchID, item, expenseID, itemErr); err != nil {
			return o.failBatch(ctx, batchID, fmt.Errorf("recording item %d outcome: %w", item.ID, err))
		}
	}

	if err := o.batches.UpdateBatchStatus(ctx, batchID, domain.BatchStatusCompleted); err != nil {
		return o.failBatch(ctx, batchID, fmt.Errorf("marking batch completed: %w", err))
	}

	log.InfoContext(ctx, "batch processing completed")

	if o.reporter != nil {
		if err := o.reporter.GenerateBatchReport(ctx, batch); err != nil {
			log.WarnContext(ctx, "failed to generate batch report", slog.String("err", err.Error()))
		}
	}

	return nil
}

type ocrOutput struct {
	rawText string
	guess   *ocr.Guess
}

func (o *Orchestrator) processItem(
	ctx context.Context,
	batch *domain.BatchUpload,
	item *domain.BatchItem,
	hints []string,
	timeout time.Duration,
) (int64, error) {
	log := o.log.With(
		slog.String("token", batch.Token),
		slog.Int64("item_id", item.ID),
		slog.String("filename", item.Filename),
	)

	if err := o.batches.UpdateItemStatus(ctx, item.ID, domain.ItemStatusProcessing); err != nil {
		return 0, fmt.Errorf("marking item processing: %w", err)
	}

	receipt, err := o.receipts.ReceiptByID(ctx, item.ReceiptID)
	if err != nil {
		return 0, fmt.Errorf("loading receipt %d: %w", item.ReceiptID, err)
	}

	if err := ocr.ValidatePayload(receipt.FileData, receipt.FileType); err != nil {
		return 0, fmt.Errorf("preprocessing image: %w", err)
	}

	// Attempt counters bump before the work, so a crash mid-call stays
	// diagnosable.
	if err := o.batches.IncrementOCRAttempts(ctx, item.ID); err != nil {
		return 0, fmt.Errorf("incrementing ocr attempts: %w", err)
	}

	output, err := RunWithTimeout(ctx, timeout, func(ctx context.Context) (ocrOutput, error) {
		rawText, guess, err := o.router.Process(ctx, batch.OCREngine, receipt.FileData, receipt.FileType, hints)
		return ocrOutput{rawText: rawText, guess: guess}, err
	})
	if err != nil {
		return 0, fmt.Errorf("ocr: %w", err)
	}

	extractedData, err := json.Marshal(output.guess)
	if err != nil {
		return 0, fmt.Errorf("encoding ocr guess: %w", err)
	}

	// Raw text and the structured guess are written in one statement, so
	// readers never see half an OCR result and partial progress survives a
	// later crash.
	if err := o.receipts.SaveOCRResults(ctx, receipt.ID, output.rawText, extractedData); err != nil {
		return 0, fmt.Errorf("persisting ocr results: %w", err)
	}

	log.DebugContext(ctx, "ocr finished", slog.Int("raw_text_len", len(output.rawText)))

	if err := o.batches.IncrementExtractionAttempts(ctx, item.ID); err != nil {
		return 0, fmt.Errorf("incrementing extraction attempts: %w", err)
	}

	result := o.extractor.ExtractWithRetry(ctx, output.rawText, o.maxRetries)
	if !result.Success {
		return 0, fmt.Errorf("extraction failed after %d attempts: %w", result.Attempts, result.Err)
	}

	expense, err := o.materializer.Materialize(ctx, result.Data, receipt)
	if err != nil {
		return 0, fmt.Errorf("materializing expense: %w", err)
	}

	log.InfoContext(ctx, "item completed", slog.Int64("expense_id", expense.ID))

	return expense.ID, nil
}

// finishItem writes the item's terminal state and bumps the batch counters in
// one transaction, so every status snapshot satisfies
// processed = success + error.
func (o *Orchestrator) finishItem(
	ctx context.Context,
	batchID int64,
	item *domain.BatchItem,
	expenseID int64,
	itemErr error,
) error {
	return o.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		if itemErr != nil {
			o.log.WarnContext(ctx, "item failed",
				slog.Int64("item_id", item.ID),
				slog.String("filename", item.Filename),
				slog.String("err", itemErr.Error()))

			if err := o.batches.FinishItem(ctx, item.ID, domain.ItemStatusFailed, itemErr.Error(), nil); err != nil {
				return err
			}

			return o.batches.AddProcessed(ctx, batchID, false)
		}

		if err := o.batches.FinishItem(ctx, item.ID, domain.ItemStatusCompleted, "", &expenseID); err != nil {
			return err
		}

		return o.batches.AddProcessed(ctx, batchID, true)
	})
}

func (o *Orchestrator) failBatch(ctx context.Context, batchID int64, err error) error {
	if markErr := o.batches.UpdateBatchStatus(ctx, batchID, domain.BatchStatusFailed); markErr != nil {
		o.log.ErrorContext(ctx, "failed to mark batch failed",
			slog.Int64("batch_id", batchID),
			slog.String("err", markErr.Error()))
	}

	return err
}
