// Package order coordinates pricing, discounting, delivery assignment, and
// persistence for a single order attempt.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noortjevm/forno/internal/domain/delivery"
)

// Status is the derived lifecycle state of an order. It is never stored;
// it falls out of comparing the current time against the pickup window.
type Status string

const (
	StatusPending        Status = "pending"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
)

// Item is a single line of an order: a menu item reference and a quantity.
type Item struct {
	MenuItemID string
	Quantity   int
}

// Order is a committed customer order. Items are owned exclusively by the
// order and are created and deleted with it.
type Order struct {
	ID              string
	CustomerID      string
	AgentID         string
	DiscountCodeID  string // empty when no code was applied
	DeliveryAddress string
	PostalCode      string
	PlacedAt        time.Time
	PickupAt        time.Time
	Total           decimal.Decimal
	Items           []Item
}

// ExpectedDeliveryAt is the pickup time plus the fixed delivery duration.
func (o Order) ExpectedDeliveryAt() time.Time {
	return o.PickupAt.Add(delivery.Duration)
}

// StatusAt derives the order status at the given instant.
func (o Order) StatusAt(now time.Time) Status {
	switch {
	case !now.Before(o.ExpectedDeliveryAt()):
		return StatusDelivered
	case !now.Before(o.PickupAt):
		return StatusOutForDelivery
	default:
		return StatusPending
	}
}

// Schedule is the delivery window fixed by a successful commit.
type Schedule struct {
	AgentID    string
	PickupAt   time.Time
	DeliveryAt time.Time
}

// Store persists orders. Create is the commit transaction: in one atomic
// unit it locks the agent serving o.PostalCode, computes the pickup window
// from the locked watermark, inserts the order and its items, advances the
// watermark to the delivery time, and re-checks single-use of the discount
// code under a customer row lock. Any failure rolls the whole attempt back.
//
// Create fills o.AgentID and o.PickupAt from the computed schedule. It
// returns delivery.ErrNoAgentAvailable when no agent serves the postal code
// and discount.ErrCodeAlreadyUsed when a concurrent order won the code.
type Store interface {
	Create(ctx context.Context, o *Order) (*Schedule, error)
	List(ctx context.Context) ([]Order, error)
}
