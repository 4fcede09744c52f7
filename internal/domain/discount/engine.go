package discount

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MsgInvalidCode is surfaced when a promo code was supplied but does not
// exist or was already redeemed by this customer. The order still proceeds,
// just without the percentage reduction.
const MsgInvalidCode = "discount code is invalid"

// Eligibility captures the customer facts the rules depend on, resolved by
// the caller from the customer's record and order history.
type Eligibility struct {
	// Birthday is true when today matches the customer's birth month and day.
	Birthday bool
	// OrderedToday is true when the customer already placed an order today.
	// Every valid order contains a pizza, so an order today means the
	// birthday pizza was already granted.
	OrderedToday bool
	// PriorPizzaCount is the customer's cumulative pizza units across all
	// previous orders.
	PriorPizzaCount int
}

// PromoAttempt describes the promo code the customer supplied, if any.
type PromoAttempt struct {
	// Provided is true when a non-empty code was supplied.
	Provided bool
	// Code is the resolved code, nil when lookup found nothing.
	Code *Code
	// Used is true when this customer already redeemed the code.
	Used bool
}

// Quote is the outcome of applying all discounts to a priced basket.
type Quote struct {
	// Subtotal is the pre-discount basket total.
	Subtotal decimal.Decimal
	// Total is the final price, rounded to 2 decimal places.
	Total decimal.Decimal
	// Messages lists every applied or rejected discount in human terms.
	Messages []string
	// AppliedCode is non-nil when the percentage discount was applied.
	AppliedCode *Code
}

// Compute applies the discount stack to a priced basket and returns the
// final quote. Rules run in a fixed order: birthday, loyalty, promo code.
// Free-item grants strike the cheapest remaining unit in their category and
// are forfeited once the category is exhausted; the percentage applies to
// whatever remains. Rounding to currency precision happens once, at the end.
//
// pizzaUnitPrices and drinkUnitPrices are consumed destructively; pass
// fresh slices (menu.PriceBasket already does).
func Compute(elig Eligibility, subtotal decimal.Decimal, pizzaUnitPrices, drinkUnitPrices []decimal.Decimal, promo PromoAttempt) Quote {
	q := Quote{Subtotal: subtotal}
	remaining := subtotal

	freePizzas, freeDrinks := 0, 0

	if elig.Birthday && !elig.OrderedToday {
		freePizzas++
		freeDrinks++
		q.Messages = append(q.Messages, "happy birthday! you get one pizza and drink for free")
	}

	// One free pizza per completed decade of cumulative pizzas, credited to
	// the order that crosses the boundary.
	loyalty := (elig.PriorPizzaCount+len(pizzaUnitPrices))/10 - elig.PriorPizzaCount/10
	if loyalty > 0 {
		freePizzas += loyalty
		q.Messages = append(q.Messages, fmt.Sprintf("10-pizza discount applied (%d free pizza(s))", loyalty))
	}

	for range freePizzas {
		var removed decimal.Decimal
		pizzaUnitPrices, removed = strikeCheapest(pizzaUnitPrices)
		remaining = remaining.Sub(removed)
	}
	for range freeDrinks {
		var removed decimal.Decimal
		drinkUnitPrices, removed = strikeCheapest(drinkUnitPrices)
		remaining = remaining.Sub(removed)
	}

	if promo.Provided {
		switch {
		case promo.Code == nil || promo.Used:
			q.Messages = append(q.Messages, MsgInvalidCode)
		default:
			pct := decimal.NewFromInt(int64(promo.Code.Percentage))
			remaining = remaining.Mul(hundred.Sub(pct)).Div(hundred)
			q.AppliedCode = promo.Code
			q.Messages = append(q.Messages, fmt.Sprintf("discount code applied, %d%% off", promo.Code.Percentage))
		}
	}

	q.Total = remaining.Round(2)
	return q
}

// strikeCheapest removes the minimum price from prices and returns the
// shortened slice and the removed value. An empty slice is returned
// unchanged with a zero value: the grant is forfeited, never carried over.
func strikeCheapest(prices []decimal.Decimal) ([]decimal.Decimal, decimal.Decimal) {
	if len(prices) == 0 {
		return prices, decimal.Zero
	}
	min := 0
	for i, p := range prices[1:] {
		if p.LessThan(prices[min]) {
			min = i + 1
		}
	}
	removed := prices[min]
	prices[min] = prices[len(prices)-1]
	return prices[:len(prices)-1], removed
}
