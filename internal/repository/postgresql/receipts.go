package postgresql

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/farmbooks/receipt_pipeline/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const TableReceipts = "receipts"

type ReceiptsRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewReceiptsRepository(pool *pgxpool.Pool) *ReceiptsRepository {
	return &ReceiptsRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ReceiptsRepository) CreateReceipt(ctx context.Context, receipt *domain.Receipt) (int64, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Insert(TableReceipts).
		Columns(
			"filename",
			"file_type",
			"file_data",
		).
		Values(
			receipt.Filename,
			receipt.FileType,
			receipt.FileData,
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

func (r *ReceiptsRepository) ReceiptByID(ctx context.Context, id int64) (*domain.Receipt, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select(
			"id",
			"filename",
			"file_type",
			"file_data",
			"raw_text",
			"extracted_data",
			"created_at",
			"updated_at",
		).
		From(TableReceipts).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	receipt, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[domain.Receipt])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReceiptNotFound
	}
	if err != nil {
		return nil, collectRowsError(err)
	}

	return receipt, nil
}

// SaveOCRResults writes the raw text and the structured guess in a single
// statement; readers never observe one without the other.
func (r *ReceiptsRepository) SaveOCRResults(ctx context.Context, receiptID int64, rawText string, extractedData []byte) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Update(TableReceipts).
		Set("raw_text", rawText).
		Set("extracted_data", extractedData).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": receiptID}).
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
