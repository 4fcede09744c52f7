package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noortjevm/forno/internal/domain/customer"
)

const (
	getCustomerByIDSQL = `SELECT id, first_name, last_name, birthdate, gender, address, postal_code, phone
		FROM customers WHERE id = $1`

	customerPizzaCountSQL = `SELECT COALESCE(SUM(oi.quantity), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN menu_items mi ON mi.id = oi.menu_item_id
		WHERE o.customer_id = $1 AND mi.kind = 'pizza'`

	hasOrderedBetweenSQL = `SELECT EXISTS (
		SELECT 1 FROM orders
		WHERE customer_id = $1 AND placed_at >= $2 AND placed_at < $3)`

	hasUsedCodeSQL = `SELECT EXISTS (
		SELECT 1 FROM orders
		WHERE customer_id = $1 AND discount_code_id = $2)`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
// Loyalty and promo-usage facts are recomputed from order history on every
// call rather than kept as stored counters.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// GetByID returns a single customer by its identifier.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting customer %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %q: %w", id, err)
	}
	return &c, nil
}

// PizzaCount returns the customer's cumulative pizza units across all orders.
func (r *CustomerRepository) PizzaCount(ctx context.Context, id string) (int, error) {
	var count int64
	err := r.pool.QueryRow(ctx, customerPizzaCountSQL, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting pizzas for customer %q: %w", id, err)
	}
	return int(count), nil
}

// HasOrderedOn reports whether the customer placed any order during the
// calendar day containing t, in t's location.
func (r *CustomerRepository) HasOrderedOn(ctx context.Context, id string, t time.Time) (bool, error) {
	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var ordered bool
	err := r.pool.QueryRow(ctx, hasOrderedBetweenSQL, id, dayStart, dayEnd).Scan(&ordered)
	if err != nil {
		return false, fmt.Errorf("checking orders today for customer %q: %w", id, err)
	}
	return ordered, nil
}

// HasUsedCode reports whether any of the customer's orders referenced the
// given discount code.
func (r *CustomerRepository) HasUsedCode(ctx context.Context, id, codeID string) (bool, error) {
	var used bool
	err := r.pool.QueryRow(ctx, hasUsedCodeSQL, id, codeID).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("checking code usage for customer %q: %w", id, err)
	}
	return used, nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Birthdate, &c.Gender, &c.Address, &c.PostalCode, &c.Phone)
	return c, err
}
