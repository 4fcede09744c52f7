// Package discount implements the stacked promotional rules applied to an
// order: birthday free items, the ten-pizza loyalty reward, and percentage
// promo codes.
package discount

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrCodeNotFound is returned when a promo code does not exist.
	ErrCodeNotFound = errors.New("discount code not found")
	// ErrCodeAlreadyUsed is returned when a customer tries to redeem a code
	// a second time. Surfaced from the commit transaction on a lost race.
	ErrCodeAlreadyUsed = errors.New("discount code already used")
)

// Code is a percentage-off promo code. Each code is redeemable at most once
// per customer, tracked through the customer's order history.
type Code struct {
	ID         string
	Code       string
	Percentage int
}

// Repository provides promo code lookup.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Code, error)
}
