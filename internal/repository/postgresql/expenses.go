package postgresql

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/farmbooks/receipt_pipeline/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	TableExpenses  = "expenses"
	TableLineItems = "expense_line_items"
)

type ExpensesRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewExpensesRepository(pool *pgxpool.Pool) *ExpensesRepository {
	return &ExpensesRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ExpensesRepository) CreateExpense(ctx context.Context, expense *domain.Expense) (int64, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Insert(TableExpenses).
		Columns(
			"category",
			"amount",
			"description",
			"notes",
			"expense_date",
			"vendor_id",
			"receipt_id",
		).
		Values(
			expense.Category,
			expense.Amount,
			expense.Description,
			expense.Notes,
			expense.ExpenseDate,
			expense.VendorID,
			expense.ReceiptID,
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

func (r *ExpensesRepository) CreateLineItems(ctx context.Context, items []domain.ExpenseLineItem) error {
	db := extractDB(ctx, r.pool)

	copied, err := db.CopyFrom(ctx, pgx.Identifier{TableLineItems}, []string{
		"expense_id",
		"description",
		"category",
		"quantity",
		"unit_price",
		"amount",
	}, pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
		return []any{
			items[i].ExpenseID,
			items[i].Description,
			items[i].Category,
			items[i].Quantity,
			items[i].UnitPrice,
			items[i].Amount,
		}, nil
	}))
	if err != nil {
		return fmt.Errorf("failed to save line items: %w", err)
	}

	if copied != int64(len(items)) {
		return fmt.Errorf("failed to save line items: copied %d rows, expected %d", copied, len(items))
	}

	return nil
}

// ExpensesByBatch lists the expenses created by a batch's completed items, in
// item order.
func (r *ExpensesRepository) ExpensesByBatch(
	ctx context.Context,
	batchID int64,
	limit, offset uint64,
) ([]*domain.Expense, int, error) {
	db := extractDB(ctx, r.pool)

	join := fmt.Sprintf("%s i ON i.expense_id = e.id", TableBatchItems)

	sql, args, err := r.qb.
		Select("COUNT(*)").
		From(TableExpenses + " e").
		Join(join).
		Where(sq.Eq{"i.batch_id": batchID}).
		ToSql()
	if err != nil {
		return nil, -1, createQueryError(err)
	}

	var total int
	if err := db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, -1, scanRowError(err)
	}

	sql, args, err = r.qb.
		Select(
			"e.id",
			"e.category",
			"e.amount",
			"e.description",
			"e.notes",
			"e.expense_date",
			"e.vendor_id",
			"e.receipt_id",
			"e.created_at",
			"e.updated_at",
		).
		From(TableExpenses + " e").
		Join(join).
		Where(sq.Eq{"i.batch_id": batchID}).
		OrderBy("i.id ASC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, -1, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, -1, executeQueryError(err)
	}

	expenses, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.Expense])
	if err != nil {
		return nil, -1, collectRowsError(err)
	}

	return expenses, total, nil
}

// LineItemsByExpense returns an expense's line items in insertion order.
func (r *ExpensesRepository) LineItemsByExpense(ctx context.Context, expenseID int64) ([]*domain.ExpenseLineItem, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select(
			"id",
			"expense_id",
			"description",
			"category",
			"quantity",
			"unit_price",
			"amount",
		).
		From(TableLineItems).
		Where(sq.Eq{"expense_id": expenseID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.ExpenseLineItem])
	if err != nil {
		return nil, collectRowsError(err)
	}

	return items, nil
}
