// Package report exposes read-only sales aggregates over committed orders,
// the numbers the staff dashboard shows.
package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CustomerMonthlyTotal is one customer's summed order total for a month.
type CustomerMonthlyTotal struct {
	CustomerID string
	Name       string
	Orders     int
	Total      decimal.Decimal
}

// EarningsFilter narrows the monthly earnings report. Zero values mean no
// filtering on that dimension.
type EarningsFilter struct {
	PostalCode string
	Gender     string
	MinAge     int
	MaxAge     int
}

// PizzaSales is the cumulative unit count for one pizza.
type PizzaSales struct {
	MenuItemID string
	Name       string
	Units      int
}

// UndeliveredOrder is a committed order whose delivery window has not
// closed yet.
type UndeliveredOrder struct {
	OrderID      string
	CustomerName string
	AgentName    string
	PostalCode   string
	PickupAt     time.Time
	Total        decimal.Decimal
}

// Repository provides the sales aggregates.
type Repository interface {
	// EarningsForMonth returns per-customer order totals for the given
	// calendar month, biggest spender first, narrowed by filter.
	EarningsForMonth(ctx context.Context, year int, month time.Month, filter EarningsFilter) ([]CustomerMonthlyTotal, error)

	// TopPizzas returns the best selling pizzas by units since the given
	// instant.
	TopPizzas(ctx context.Context, since time.Time, limit int) ([]PizzaSales, error)

	// UndeliveredOrders returns orders not yet delivered as of the given
	// instant, earliest pickup first.
	UndeliveredOrders(ctx context.Context, asOf time.Time) ([]UndeliveredOrder, error)
}
