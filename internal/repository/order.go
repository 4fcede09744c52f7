package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noortjevm/forno/internal/domain/delivery"
	"github.com/noortjevm/forno/internal/domain/discount"
	"github.com/noortjevm/forno/internal/domain/order"
)

const (
	lockAgentSQL = `SELECT id, next_available_at
		FROM delivery_agents WHERE postal_code = $1 FOR UPDATE`

	lockCustomerSQL = `SELECT id FROM customers WHERE id = $1 FOR UPDATE`

	insertOrderSQL = `INSERT INTO orders
		(id, customer_id, delivery_agent_id, discount_code_id, delivery_address, postal_code, placed_at, pickup_at, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, menu_item_id, quantity)
		VALUES ($1, $2, $3)`

	advanceAgentSQL = `UPDATE delivery_agents SET next_available_at = $2 WHERE id = $1`

	listOrdersSQL = `SELECT id, customer_id, delivery_agent_id, COALESCE(discount_code_id, ''),
		delivery_address, postal_code, placed_at, pickup_at, total
		FROM orders ORDER BY placed_at DESC`

	listOrderItemsSQL = `SELECT order_id, menu_item_id, quantity
		FROM order_items WHERE order_id = ANY($1)`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL. Create is the
// commit transaction described on the interface.
type OrderStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool, now: time.Now}
}

// Create commits the order atomically. It locks the agent row serving the
// destination postal code, computes the pickup window from the locked
// watermark, re-checks discount code single-use under a customer row lock,
// inserts the order and its items, and advances the watermark to the
// delivery time. Concurrent commits to the same postal code serialize on
// the agent row, so windows never overlap.
func (s *OrderStore) Create(ctx context.Context, o *order.Order) (*order.Schedule, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		agentID       string
		nextAvailable time.Time
	)
	err = tx.QueryRow(ctx, lockAgentSQL, o.PostalCode).Scan(&agentID, &nextAvailable)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, delivery.ErrNoAgentAvailable
		}
		return nil, fmt.Errorf("locking agent for %q: %w", o.PostalCode, err)
	}

	pickup := s.now()
	if nextAvailable.After(pickup) {
		pickup = nextAvailable
	}
	deliveryAt := pickup.Add(delivery.Duration)

	if o.DiscountCodeID != "" {
		// Customer row lock serializes concurrent redemption attempts by
		// the same customer; the usage re-check then decides the race.
		if _, err := tx.Exec(ctx, lockCustomerSQL, o.CustomerID); err != nil {
			return nil, fmt.Errorf("locking customer %q: %w", o.CustomerID, err)
		}
		var used bool
		if err := tx.QueryRow(ctx, hasUsedCodeSQL, o.CustomerID, o.DiscountCodeID).Scan(&used); err != nil {
			return nil, fmt.Errorf("re-checking code usage: %w", err)
		}
		if used {
			return nil, discount.ErrCodeAlreadyUsed
		}
	}

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.CustomerID, agentID, nullableID(o.DiscountCodeID),
		o.DeliveryAddress, o.PostalCode, o.PlacedAt, pickup, o.Total,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting order %q: %w", o.ID, err)
	}

	batch := &pgx.Batch{}
	for _, it := range o.Items {
		batch.Queue(insertOrderItemSQL, o.ID, it.MenuItemID, it.Quantity)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("inserting items for order %q: %w", o.ID, err)
	}

	if _, err := tx.Exec(ctx, advanceAgentSQL, agentID, deliveryAt); err != nil {
		return nil, fmt.Errorf("advancing agent %q: %w", agentID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing order %q: %w", o.ID, err)
	}

	o.AgentID = agentID
	o.PickupAt = pickup
	return &order.Schedule{AgentID: agentID, PickupAt: pickup, DeliveryAt: deliveryAt}, nil
}

// List returns all orders, newest first, with their items attached.
func (s *OrderStore) List(ctx context.Context) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	idx := make(map[string]int, len(orders))
	ids := make([]string, len(orders))
	for i, o := range orders {
		idx[o.ID] = i
		ids[i] = o.ID
	}

	itemRows, err := s.pool.Query(ctx, listOrderItemsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			orderID string
			it      order.Item
		)
		if err := itemRows.Scan(&orderID, &it.MenuItemID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		i := idx[orderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	return orders, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.AgentID, &o.DiscountCodeID,
		&o.DeliveryAddress, &o.PostalCode, &o.PlacedAt, &o.PickupAt, &o.Total,
	)
	return o, err
}

// nullableID maps an empty domain ID to SQL NULL.
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
