package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
)

const maxUploadMemory = 32 << 20

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".pdf":  {},
}

var allowedMimeTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"application/pdf": {},
}

type BatchesRepository interface {
	CreateBatch(ctx context.Context, batch *domain.BatchUpload) (int64, error)
	CreateItem(ctx context.Context, item *domain.BatchItem) (int64, error)
	BatchByToken(ctx context.Context, token string, userID int64) (*domain.BatchUpload, error)
	ItemsByBatch(ctx context.Context, batchID int64) ([]*domain.BatchItem, error)
}

type ReceiptsCreator interface {
	CreateReceipt(ctx context.Context, receipt *domain.Receipt) (int64, error)
}

type ExpensesProvider interface {
	ExpensesByBatch(ctx context.Context, batchID int64, limit, offset uint64) ([]*domain.Expense, int, error)
}

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type BatchesHandler struct {
	log        *slog.Logger
	batches    BatchesRepository
	receipts   ReceiptsCreator
	expenses   ExpensesProvider
	transactor Transactor
	engines    []string
	enqueue    func(batchID int64)
}

func NewBatchesHandler(
	log *slog.Logger,
	batches BatchesRepository,
	receipts ReceiptsCreator,
	expenses ExpensesProvider,
	transactor Transactor,
	engines []string,
	enqueue func(batchID int64),
) *BatchesHandler {
	return &BatchesHandler{
		log:        log,
		batches:    batches,
		receipts:   receipts,
		expenses:   expenses,
		transactor: transactor,
		engines:    engines,
		enqueue:    enqueue,
	}
}

type CreateBatchResponse struct {
	Token      string `json:"token"`
	TotalCount int    `json:"total_count"`
	Status     string `json:"status"`
}

// CreateBatch accepts a multipart upload of receipt files plus an ocr_engine
// field. Everything is validated before anything is persisted; receipts,
// batch and items land in one transaction.
func (h *BatchesHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	engine := r.FormValue("ocr_engine")
	if !h.supportedEngine(engine) {
		http.Error(w, fmt.Sprintf("unsupported ocr engine %q, supported: %s",
			engine, strings.Join(h.engines, ", ")), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "no files provided", http.StatusBadRequest)
		return
	}

	for _, header := range files {
		if err := validateFileHeader(header); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	batch := &domain.BatchUpload{
		Token:      uuid.NewString(),
		UserID:     userID,
		OCREngine:  engine,
		TotalCount: len(files),
		Status:     domain.BatchStatusPending,
	}

	err = h.transactor.WithTransaction(r.Context(), func(ctx context.Context) error {
		batchID, err := h.batches.CreateBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("creating batch: %w", err)
		}
		batch.ID = batchID

		for _, header := range files {
			data, err := readFileHeader(header)
			if err != nil {
				return fmt.Errorf("reading %q: %w", header.Filename, err)
			}

			receiptID, err := h.receipts.CreateReceipt(ctx, &domain.Receipt{
				Filename: header.Filename,
				FileType: header.Header.Get("Content-Type"),
				FileData: data,
			})
			if err != nil {
				return fmt.Errorf("creating receipt for %q: %w", header.Filename, err)
			}

			_, err = h.batches.CreateItem(ctx, &domain.BatchItem{
				BatchID:   batchID,
				ReceiptID: receiptID,
				Filename:  header.Filename,
				Status:    domain.ItemStatusPending,
			})
			if err != nil {
				return fmt.Errorf("creating item for %q: %w", header.Filename, err)
			}
		}

		return nil
	})
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to create batch", slog.String("err", err.Error()))
		http.Error(w, "failed to create batch", http.StatusInternalServerError)
		return
	}

	h.enqueue(batch.ID)

	h.log.InfoContext(r.Context(), "batch accepted",
		slog.String("token", batch.Token),
		slog.String("engine", engine),
		slog.Int("files", len(files)))

	writeJSON(w, http.StatusAccepted, CreateBatchResponse{
		Token:      batch.Token,
		TotalCount: batch.TotalCount,
		Status:     string(batch.Status),
	})
}

type BatchStatusResponse struct {
	Token          string              `json:"token"`
	Status         string              `json:"status"`
	OCREngine      string              `json:"ocr_engine"`
	TotalCount     int                 `json:"total_count"`
	ProcessedCount int                 `json:"processed_count"`
	SuccessCount   int                 `json:"success_count"`
	ErrorCount     int                 `json:"error_count"`
	Items          []*domain.BatchItem `json:"items"`
}

func (h *BatchesHandler) GetBatchStatus(w http.ResponseWriter, r *http.Request) {
	batch, ok := h.ownedBatch(w, r)
	if !ok {
		return
	}

	items, err := h.batches.ItemsByBatch(r.Context(), batch.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, BatchStatusResponse{
		Token:          batch.Token,
		Status:         string(batch.Status),
		OCREngine:      batch.OCREngine,
		TotalCount:     batch.TotalCount,
		ProcessedCount: batch.ProcessedCount,
		SuccessCount:   batch.SuccessCount,
		ErrorCount:     batch.ErrorCount,
		Items:          items,
	})
}

type BatchExpensesResponse struct {
	Expenses   []*domain.Expense `json:"expenses"`
	Pagination Pagination        `json:"pagination"`
}

func (h *BatchesHandler) GetBatchExpenses(w http.ResponseWriter, r *http.Request) {
	batch, ok := h.ownedBatch(w, r)
	if !ok {
		return
	}

	page, limit, err := parsePagination(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	offset := (page - 1) * limit

	expenses, total, err := h.expenses.ExpensesByBatch(r.Context(), batch.ID, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, BatchExpensesResponse{
		Expenses: expenses,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + int(limit) - 1) / int(limit),
		},
	})
}

func (h *BatchesHandler) ownedBatch(w http.ResponseWriter, r *http.Request) (*domain.BatchUpload, bool) {
	userID, err := h.userID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return nil, false
	}

	token := chi.URLParam(r, "token")

	batch, err := h.batches.BatchByToken(r.Context(), token, userID)
	if errors.Is(err, domain.ErrBatchNotFound) {
		http.Error(w, "batch not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}

	return batch, true
}

// userID reads the caller identity the auth layer in front of this service
// injects.
func (h *BatchesHandler) userID(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return 0, errors.New("missing X-User-ID header")
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid X-User-ID header")
	}

	return id, nil
}

func (h *BatchesHandler) supportedEngine(engine string) bool {
	for _, known := range h.engines {
		if engine == known {
			return true
		}
	}

	return false
}

func validateFileHeader(header *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("file %q: extension %q not allowed", header.Filename, ext)
	}

	mimeType := header.Header.Get("Content-Type")
	if _, ok := allowedMimeTypes[mimeType]; !ok {
		return fmt.Errorf("file %q: mime type %q not allowed", header.Filename, mimeType)
	}

	return nil
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
