// Package customer holds the customer record and the history-derived facts
// the discount rules depend on. Loyalty and promo-usage counts are never
// stored; they are recomputed from order history on every quote, so there
// are no counters to drift.
package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// Customer is an account that places orders.
type Customer struct {
	ID         string
	FirstName  string
	LastName   string
	Birthdate  time.Time
	Gender     string
	Address    string
	PostalCode string
	Phone      string
}

// FullName returns the customer's display name.
func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// BirthdayOn reports whether day matches the customer's birth month and day.
func (c Customer) BirthdayOn(day time.Time) bool {
	return c.Birthdate.Month() == day.Month() && c.Birthdate.Day() == day.Day()
}

// Repository defines customer lookups plus the order-history scans that feed
// discount eligibility.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Customer, error)

	// PizzaCount returns the total number of pizza units across all of the
	// customer's orders.
	PizzaCount(ctx context.Context, id string) (int, error)

	// HasOrderedOn reports whether the customer placed any order during the
	// calendar day containing t (in t's location).
	HasOrderedOn(ctx context.Context, id string, t time.Time) (bool, error)

	// HasUsedCode reports whether any of the customer's orders referenced
	// the given discount code.
	HasUsedCode(ctx context.Context, id, codeID string) (bool, error)
}
