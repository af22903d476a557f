package postgresql

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/farmbooks/receipt_pipeline/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const TableVendors = "vendors"

type VendorsRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewVendorsRepository(pool *pgxpool.Pool) *VendorsRepository {
	return &VendorsRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *VendorsRepository) VendorNames(ctx context.Context) ([]string, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("name").
		From(TableVendors).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, collectRowsError(err)
	}

	return names, nil
}

func (r *VendorsRepository) VendorByName(ctx context.Context, name string) (*domain.Vendor, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select(
			"id",
			"name",
			"address",
			"phone",
			"website",
			"created_at",
			"updated_at",
		).
		From(TableVendors).
		Where(sq.Eq{"name": name}).
		OrderBy("id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	vendor, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[domain.Vendor])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrVendorNotFound
	}
	if err != nil {
		return nil, collectRowsError(err)
	}

	return vendor, nil
}

// CreateVendor inserts by name. Two items racing on the same new name both
// get the one row back thanks to the upsert on the unique name.
func (r *VendorsRepository) CreateVendor(ctx context.Context, name string) (*domain.Vendor, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Insert(TableVendors).
		Columns("name").
		Values(name).
		Suffix("ON CONFLICT (name) DO UPDATE SET updated_at = now() RETURNING id").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	vendor := &domain.Vendor{Name: name}
	if err := db.QueryRow(ctx, sql, args...).Scan(&vendor.ID); err != nil {
		return nil, scanRowError(err)
	}

	return vendor, nil
}
