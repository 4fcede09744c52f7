package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noortjevm/forno/internal/domain/discount"
)

const getDiscountCodeSQL = `SELECT id, code, percentage
	FROM discount_codes WHERE UPPER(code) = UPPER($1)`

var _ discount.Repository = (*DiscountCodeRepository)(nil)

// DiscountCodeRepository implements discount.Repository backed by PostgreSQL.
type DiscountCodeRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountCodeRepository returns a DiscountCodeRepository that uses the
// given pool.
func NewDiscountCodeRepository(pool *pgxpool.Pool) *DiscountCodeRepository {
	return &DiscountCodeRepository{pool: pool}
}

// FindByCode looks up a promo code case-insensitively. Returns
// discount.ErrCodeNotFound when no matching code exists.
func (r *DiscountCodeRepository) FindByCode(ctx context.Context, code string) (*discount.Code, error) {
	rows, err := r.pool.Query(ctx, getDiscountCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding discount code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanDiscountCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrCodeNotFound
		}
		return nil, fmt.Errorf("finding discount code %q: %w", code, err)
	}
	return &c, nil
}

func scanDiscountCode(row pgx.CollectableRow) (discount.Code, error) {
	var c discount.Code
	err := row.Scan(&c.ID, &c.Code, &c.Percentage)
	return c, err
}
