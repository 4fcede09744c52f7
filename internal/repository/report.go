package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noortjevm/forno/internal/domain/customer"
	"github.com/noortjevm/forno/internal/domain/delivery"
	"github.com/noortjevm/forno/internal/domain/report"
)

const (
	// placed_at is timestamptz; extracting the month without shifting into
	// the business timezone first would attribute boundary orders to the
	// UTC month.
	earningsForMonthSQL = `SELECT c.id, c.first_name, c.last_name, COUNT(o.id)::int, SUM(o.total)
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE EXTRACT(YEAR FROM o.placed_at AT TIME ZONE $1) = $2
		  AND EXTRACT(MONTH FROM o.placed_at AT TIME ZONE $1) = $3
		  AND ($4 = '' OR o.postal_code = $4)
		  AND ($5 = '' OR c.gender = $5)
		  AND ($6 = 0 OR date_part('year', age(c.birthdate))::int >= $6)
		  AND ($7 = 0 OR date_part('year', age(c.birthdate))::int <= $7)
		GROUP BY c.id, c.first_name, c.last_name
		ORDER BY SUM(o.total) DESC, c.last_name`

	topPizzasSQL = `SELECT mi.id, mi.name, SUM(oi.quantity)::int
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN menu_items mi ON mi.id = oi.menu_item_id
		WHERE mi.kind = 'pizza' AND o.placed_at >= $1
		GROUP BY mi.id, mi.name
		ORDER BY 3 DESC, mi.name
		LIMIT $2`

	undeliveredOrdersSQL = `SELECT o.id, c.first_name, c.last_name,
			a.first_name, a.last_name, o.postal_code, o.pickup_at, o.total
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		JOIN delivery_agents a ON a.id = o.delivery_agent_id
		WHERE o.pickup_at > $1
		ORDER BY o.pickup_at`
)

var _ report.Repository = (*ReportRepository)(nil)

// ReportRepository implements report.Repository backed by PostgreSQL.
// Calendar-month boundaries are evaluated in the business timezone.
type ReportRepository struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

// NewReportRepository returns a ReportRepository that uses the given pool.
// loc is the business timezone for month attribution.
func NewReportRepository(pool *pgxpool.Pool, loc *time.Location) *ReportRepository {
	return &ReportRepository{pool: pool, loc: loc}
}

// EarningsForMonth returns per-customer order totals for the given month,
// biggest spender first, narrowed by filter.
func (r *ReportRepository) EarningsForMonth(ctx context.Context, year int, month time.Month, filter report.EarningsFilter) ([]report.CustomerMonthlyTotal, error) {
	rows, err := r.pool.Query(ctx, earningsForMonthSQL,
		r.loc.String(), year, int(month),
		filter.PostalCode, filter.Gender, filter.MinAge, filter.MaxAge,
	)
	if err != nil {
		return nil, fmt.Errorf("reporting earnings for %d-%02d: %w", year, int(month), err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.CustomerMonthlyTotal, error) {
		var (
			c customer.Customer
			t report.CustomerMonthlyTotal
		)
		err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &t.Orders, &t.Total)
		t.CustomerID, t.Name = c.ID, c.FullName()
		return t, err
	})
}

// TopPizzas returns the best selling pizzas by units since the given instant.
func (r *ReportRepository) TopPizzas(ctx context.Context, since time.Time, limit int) ([]report.PizzaSales, error) {
	rows, err := r.pool.Query(ctx, topPizzasSQL, since, limit)
	if err != nil {
		return nil, fmt.Errorf("reporting top pizzas: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.PizzaSales, error) {
		var p report.PizzaSales
		err := row.Scan(&p.MenuItemID, &p.Name, &p.Units)
		return p, err
	})
}

// UndeliveredOrders returns orders whose delivery window is still open as
// of asOf, earliest pickup first. An order counts as delivered once
// pickup_at plus the fixed delivery duration has passed.
func (r *ReportRepository) UndeliveredOrders(ctx context.Context, asOf time.Time) ([]report.UndeliveredOrder, error) {
	rows, err := r.pool.Query(ctx, undeliveredOrdersSQL, asOf.Add(-delivery.Duration))
	if err != nil {
		return nil, fmt.Errorf("reporting undelivered orders: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.UndeliveredOrder, error) {
		var (
			c customer.Customer
			a delivery.Agent
			u report.UndeliveredOrder
		)
		err := row.Scan(&u.OrderID, &c.FirstName, &c.LastName,
			&a.FirstName, &a.LastName, &u.PostalCode, &u.PickupAt, &u.Total)
		u.CustomerName, u.AgentName = c.FullName(), a.FullName()
		return u, err
	})
}
