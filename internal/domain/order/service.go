package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noortjevm/forno/internal/domain/customer"
	"github.com/noortjevm/forno/internal/domain/delivery"
	"github.com/noortjevm/forno/internal/domain/discount"
	"github.com/noortjevm/forno/internal/domain/menu"
)

// Sentinel errors for order validation.
var (
	ErrEmptyBasket    = errors.New("basket must contain at least one item")
	ErrNoPizza        = errors.New("basket must contain at least one pizza")
	ErrMissingAddress = errors.New("delivery address required")
)

// ItemNotFoundError indicates a basket entry references an unknown menu item.
type ItemNotFoundError struct {
	MenuItemID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("menu item %s not found", e.MenuItemID)
}

// Unwrap makes the error match menu.ErrNotFound in errors.Is chains.
func (e *ItemNotFoundError) Unwrap() error {
	return menu.ErrNotFound
}

// InvalidQuantityError indicates a basket entry has a non-positive quantity.
type InvalidQuantityError struct {
	MenuItemID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for menu item %s", e.MenuItemID)
}

// BasketLine is one proposed entry of an order.
type BasketLine struct {
	MenuItemID string
	Quantity   int
}

// PreviewRequest asks for a price quote without side effects.
type PreviewRequest struct {
	CustomerID string
	Lines      []BasketLine
	PromoCode  string
	// PostalCode, when set, additionally asks for a delivery window
	// estimate. The estimate reserves nothing.
	PostalCode string
}

// PreviewResult is a repeatable, side-effect-free price breakdown.
type PreviewResult struct {
	RawSubtotal decimal.Decimal
	Total       decimal.Decimal
	Messages    []string
	// Estimate is the non-binding delivery window, nil when no postal code
	// was given. The committed window may be later if other orders land
	// first.
	Estimate *delivery.Assignment
}

// CreateRequest asks for an order to be committed.
type CreateRequest struct {
	CustomerID      string
	Lines           []BasketLine
	DeliveryAddress string
	PostalCode      string
	PromoCode       string
}

// CreateResult is a committed order with its delivery window.
type CreateResult struct {
	Order    *Order
	Schedule Schedule
	Messages []string
}

// Service orchestrates a single order attempt: validation, pricing,
// discounting, delivery assignment, and the commit transaction.
type Service struct {
	menu      menu.Repository
	customers customer.Repository
	codes     discount.Repository
	scheduler *delivery.Scheduler
	orders    Store

	// now returns the current time in the business timezone; birthday
	// matching and "ordered today" are calendar questions in that zone.
	now func() time.Time
}

// NewService creates a Service. loc is the business timezone.
func NewService(
	m menu.Repository,
	customers customer.Repository,
	codes discount.Repository,
	scheduler *delivery.Scheduler,
	orders Store,
	loc *time.Location,
) *Service {
	return &Service{
		menu:      m,
		customers: customers,
		codes:     codes,
		scheduler: scheduler,
		orders:    orders,
		now:       func() time.Time { return time.Now().In(loc) },
	}
}

// Preview prices the basket and applies the discount stack without touching
// durable state. It may be called any number of times.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (*PreviewResult, error) {
	cust, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	q, _, err := s.quote(ctx, cust, req.Lines, req.PromoCode)
	if err != nil {
		return nil, err
	}

	res := &PreviewResult{
		RawSubtotal: q.Subtotal.Round(2),
		Total:       q.Total,
		Messages:    q.Messages,
	}
	if req.PostalCode != "" {
		est, err := s.scheduler.Assign(ctx, req.PostalCode)
		if err != nil {
			return nil, err
		}
		res.Estimate = est
	}
	return res, nil
}

// Create runs the same pricing as Preview, enforces the commit-only
// pizza-presence invariant, and delegates the atomic persistence (order,
// items, agent watermark, promo usage) to the Store. A failed attempt is
// terminal; the caller resubmits with corrected input.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	cust, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if req.DeliveryAddress == "" {
		return nil, ErrMissingAddress
	}

	q, pizzaUnits, err := s.quote(ctx, cust, req.Lines, req.PromoCode)
	if err != nil {
		return nil, err
	}
	if pizzaUnits < 1 {
		return nil, ErrNoPizza
	}

	o := &Order{
		ID:              uuid.New().String(),
		CustomerID:      cust.ID,
		DeliveryAddress: req.DeliveryAddress,
		PostalCode:      delivery.NormalizePostalCode(req.PostalCode),
		PlacedAt:        s.now(),
		Total:           q.Total,
		Items:           basketToItems(mergeLines(req.Lines)),
	}
	if q.AppliedCode != nil {
		o.DiscountCodeID = q.AppliedCode.ID
	}

	sched, err := s.orders.Create(ctx, o)
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return &CreateResult{Order: o, Schedule: *sched, Messages: q.Messages}, nil
}

// List returns all committed orders.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.orders.List(ctx)
}

// quote validates the basket, resolves menu items, and runs the pricing and
// discount engines. It returns the quote plus the pre-discount pizza unit
// count, which Create needs for the pizza-presence invariant.
func (s *Service) quote(ctx context.Context, cust *customer.Customer, lines []BasketLine, promoCode string) (*discount.Quote, int, error) {
	if len(lines) == 0 {
		return nil, 0, ErrEmptyBasket
	}

	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, 0, &InvalidQuantityError{MenuItemID: l.MenuItemID}
		}
	}
	lines = mergeLines(lines)

	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.MenuItemID
	}

	fetched, err := s.menu.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, errors.Wrap(err, "get menu items")
	}
	byID := make(map[string]menu.Item, len(fetched))
	for _, it := range fetched {
		byID[it.ID] = it
	}

	resolved := make([]menu.Line, len(lines))
	for i, l := range lines {
		it, ok := byID[l.MenuItemID]
		if !ok {
			return nil, 0, &ItemNotFoundError{MenuItemID: l.MenuItemID}
		}
		resolved[i] = menu.Line{Item: it, Quantity: l.Quantity}
	}

	pricing := menu.PriceBasket(resolved)
	pizzaUnits := len(pricing.PizzaUnitPrices)

	elig, err := s.eligibility(ctx, cust)
	if err != nil {
		return nil, 0, err
	}

	promo, err := s.resolvePromo(ctx, cust, promoCode)
	if err != nil {
		return nil, 0, err
	}

	q := discount.Compute(elig, pricing.Subtotal, pricing.PizzaUnitPrices, pricing.DrinkUnitPrices, promo)
	return &q, pizzaUnits, nil
}

func (s *Service) eligibility(ctx context.Context, cust *customer.Customer) (discount.Eligibility, error) {
	now := s.now()
	elig := discount.Eligibility{Birthday: cust.BirthdayOn(now)}

	if elig.Birthday {
		ordered, err := s.customers.HasOrderedOn(ctx, cust.ID, now)
		if err != nil {
			return elig, errors.Wrap(err, "check orders today")
		}
		elig.OrderedToday = ordered
	}

	prior, err := s.customers.PizzaCount(ctx, cust.ID)
	if err != nil {
		return elig, errors.Wrap(err, "count prior pizzas")
	}
	elig.PriorPizzaCount = prior
	return elig, nil
}

func (s *Service) resolvePromo(ctx context.Context, cust *customer.Customer, code string) (discount.PromoAttempt, error) {
	if code == "" {
		return discount.PromoAttempt{}, nil
	}

	attempt := discount.PromoAttempt{Provided: true}
	found, err := s.codes.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, discount.ErrCodeNotFound) {
			return attempt, nil
		}
		return attempt, errors.Wrap(err, "lookup discount code")
	}
	attempt.Code = found

	used, err := s.customers.HasUsedCode(ctx, cust.ID, found.ID)
	if err != nil {
		return attempt, errors.Wrap(err, "check code usage")
	}
	attempt.Used = used
	return attempt, nil
}

// mergeLines combines entries referencing the same menu item by summing
// their quantities, keeping first-seen order. Persisted order items carry
// one row per menu item, so duplicates must collapse before commit.
func mergeLines(lines []BasketLine) []BasketLine {
	merged := make([]BasketLine, 0, len(lines))
	idx := make(map[string]int, len(lines))
	for _, l := range lines {
		if i, ok := idx[l.MenuItemID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		idx[l.MenuItemID] = len(merged)
		merged = append(merged, l)
	}
	return merged
}

func basketToItems(lines []BasketLine) []Item {
	items := make([]Item, len(lines))
	for i, l := range lines {
		items[i] = Item{MenuItemID: l.MenuItemID, Quantity: l.Quantity}
	}
	return items
}
