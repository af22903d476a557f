package postgresql

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/farmbooks/receipt_pipeline/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	TableBatches    = "batch_uploads"
	TableBatchItems = "batch_items"
)

var batchColumns = []string{
	"id",
	"token",
	"user_id",
	"ocr_engine",
	"total_count",
	"processed_count",
	"success_count",
	"error_count",
	"status",
	"created_at",
	"updated_at",
}

var itemColumns = []string{
	"id",
	"batch_id",
	"receipt_id",
	"expense_id",
	"filename",
	"status",
	"error_message",
	"ocr_attempts",
	"extraction_attempts",
	"created_at",
	"updated_at",
}

type BatchesRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewBatchesRepository(pool *pgxpool.Pool) *BatchesRepository {
	return &BatchesRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *BatchesRepository) CreateBatch(ctx context.Context, batch *domain.BatchUpload) (int64, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Insert(TableBatches).
		Columns(
			"token",
			"user_id",
			"ocr_engine",
			"total_count",
			"status",
		).
		Values(
			batch.Token,
			batch.UserID,
			batch.OCREngine,
			batch.TotalCount,
			batch.Status,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, createQueryError(err)
	}

	var id int64
	if err := db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, scanRowError(err)
	}

	return id, nil
}

func (r *BatchesRepository) CreateItem(ctx context.Context, item *domain.BatchItem) (int64, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Insert(TableBatchItems).
		Columns(
			"batch_id",
			"receipt_id",
			"filename",
			"status",
		).
		Values(
			item.BatchID,
			item.ReceiptID,
			item.Filename,
			item.Status,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, createQueryError(err)
	}

	var id int64
	if err := db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, scanRowError(err)
	}

	return id, nil
}

func (r *BatchesRepository) BatchByID(ctx context.Context, id int64) (*domain.BatchUpload, error) {
	return r.batchWhere(ctx, sq.Eq{"id": id})
}

// BatchByToken scopes the lookup to the owning user; a foreign token behaves
// exactly like a missing one.
func (r *BatchesRepository) BatchByToken(ctx context.Context, token string, userID int64) (*domain.BatchUpload, error) {
	return r.batchWhere(ctx, sq.Eq{"token": token, "user_id": userID})
}

func (r *BatchesRepository) batchWhere(ctx context.Context, where sq.Eq) (*domain.BatchUpload, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select(batchColumns...).
		From(TableBatches).
		Where(where).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	batch, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[domain.BatchUpload])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBatchNotFound
	}
	if err != nil {
		return nil, collectRowsError(err)
	}

	return batch, nil
}

func (r *BatchesRepository) ItemsByBatch(ctx context.Context, batchID int64) ([]*domain.BatchItem, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select(itemColumns...).
		From(TableBatchItems).
		Where(sq.Eq{"batch_id": batchID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.BatchItem])
	if err != nil {
		return nil, collectRowsError(err)
	}

	return items, nil
}

func (r *BatchesRepository) UpdateBatchStatus(ctx context.Context, batchID int64, status domain.BatchStatus) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Update(TableBatches).
		Set("status", status).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": batchID}).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	_, err = db.Exec(ctx, sql, args...)
	if err != nil {
		return executeQueryError(err)
	}

	return nil
}

func (r *BatchesRepository) UpdateItemStatus(ctx context.Context, itemID int64, status domain.ItemStatus) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Update(TableBatchItems).
		Set("status", status).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	_, err = db.Exec(ctx, sql, args...)
	if err != nil {
		return executeQueryError(err)
	}

	return nil
}

func (r *BatchesRepository) IncrementOCRAttempts(ctx context.Context, itemID int64) error {
	return r.incrementAttempts(ctx, itemID, "ocr_attempts")
}

func (r *BatchesRepository) IncrementExtractionAttempts(ctx context.Context, itemID int64) error {
	return r.incrementAttempts(ctx, itemID, "extraction_attempts")
}

func (r *BatchesRepository) incrementAttempts(ctx context.Context, itemID int64, column string) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Update(TableBatchItems).
		Set(column, sq.Expr(column+" + 1")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	_, err = db.Exec(ctx, sql, args...)
	if err != nil {
		return executeQueryError(err)
	}

	return nil
}

func (r *BatchesRepository) FinishItem(
	ctx context.Context,
	itemID int64,
	status domain.ItemStatus,
	errorMessage string,
	expenseID *int64,
) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Update(TableBatchItems).
		Set("status", status).
		Set("error_message", errorMessage).
		Set("expense_id", expenseID).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	_, err = db.Exec(ctx, sql, args...)
	if err != nil {
		return executeQueryError(err)
	}

	return nil
}

// AddProcessed bumps processed_count and the matching outcome counter in one
// statement, keeping processed = success + error true at every snapshot.
func (r *BatchesRepository) AddProcessed(ctx context.Context, batchID int64, success bool) error {
	db := extractDB(ctx, r.pool)

	outcome := "error_count"
	if success {
		outcome = "success_count"
	}

	sql, args, err := r.qb.
		Update(TableBatches).
		Set("processed_count", sq.Expr("processed_count + 1")).
		Set(outcome, sq.Expr(outcome+" + 1")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": batchID}).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	_, err = db.Exec(ctx, sql, args...)
	if err != nil {
		return executeQueryError(err)
	}

	return nil
}

// UnfinishedBatchIDs returns batches interrupted before reaching a terminal
// status, oldest first, for requeueing on startup.
func (r *BatchesRepository) UnfinishedBatchIDs(ctx context.Context) ([]int64, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("id").
		From(TableBatches).
		Where(sq.Eq{"status": []domain.BatchStatus{
			domain.BatchStatusPending,
			domain.BatchStatusProcessing,
		}}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, collectRowsError(err)
	}

	return ids, nil
}
