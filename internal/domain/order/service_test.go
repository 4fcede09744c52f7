package order

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/noortjevm/forno/internal/domain/customer"
	"github.com/noortjevm/forno/internal/domain/delivery"
	"github.com/noortjevm/forno/internal/domain/discount"
	"github.com/noortjevm/forno/internal/domain/menu"
)

// --- Mock implementations ---

type mockMenuRepo struct {
	byID map[string]menu.Item
}

func (m *mockMenuRepo) List(_ context.Context) ([]menu.Item, error) {
	items := make([]menu.Item, 0, len(m.byID))
	for _, it := range m.byID {
		items = append(items, it)
	}
	return items, nil
}

func (m *mockMenuRepo) GetByIDs(_ context.Context, ids []string) ([]menu.Item, error) {
	var items []menu.Item
	for _, id := range ids {
		if it, ok := m.byID[id]; ok {
			items = append(items, it)
		}
	}
	return items, nil
}

type mockCustomerRepo struct {
	customer     *customer.Customer
	pizzaCount   int
	orderedToday bool
	usedCodes    map[string]bool
}

func (m *mockCustomerRepo) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	if m.customer == nil || m.customer.ID != id {
		return nil, customer.ErrNotFound
	}
	return m.customer, nil
}

func (m *mockCustomerRepo) PizzaCount(_ context.Context, _ string) (int, error) {
	return m.pizzaCount, nil
}

func (m *mockCustomerRepo) HasOrderedOn(_ context.Context, _ string, _ time.Time) (bool, error) {
	return m.orderedToday, nil
}

func (m *mockCustomerRepo) HasUsedCode(_ context.Context, _, codeID string) (bool, error) {
	return m.usedCodes[codeID], nil
}

type mockCodeRepo struct {
	byCode map[string]*discount.Code
}

func (m *mockCodeRepo) FindByCode(_ context.Context, code string) (*discount.Code, error) {
	c, ok := m.byCode[code]
	if !ok {
		return nil, discount.ErrCodeNotFound
	}
	return c, nil
}

type mockAgentRepo struct {
	agent *delivery.Agent
}

func (m *mockAgentRepo) FindByPostalCode(_ context.Context, postalCode string) (*delivery.Agent, error) {
	if m.agent == nil || m.agent.PostalCode != postalCode {
		return nil, delivery.ErrNoAgentAvailable
	}
	return m.agent, nil
}

func (m *mockAgentRepo) ListServedPostalCodes(_ context.Context) ([]string, error) {
	if m.agent == nil {
		return nil, nil
	}
	return []string{m.agent.PostalCode}, nil
}

type mockStore struct {
	mu        sync.Mutex
	created   []*Order
	createErr error
}

func (m *mockStore) Create(_ context.Context, o *Order) (*Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, o)
	pickup := o.PlacedAt
	return &Schedule{AgentID: "agent-1", PickupAt: pickup, DeliveryAt: pickup.Add(delivery.Duration)}, nil
}

func (m *mockStore) List(_ context.Context) ([]Order, error) {
	return nil, nil
}

// --- Helpers ---

var testNow = time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)

func testPizza(id, name string, ingredientPrices ...string) menu.Item {
	it := menu.Item{ID: id, Kind: menu.KindPizza, Name: name}
	for i, p := range ingredientPrices {
		it.Ingredients = append(it.Ingredients, menu.Ingredient{
			ID:         id + "-ing",
			Name:       name,
			Price:      decimal.RequireFromString(p),
			Vegetarian: i%2 == 0,
		})
	}
	return it
}

func testDrink(id, name, price string) menu.Item {
	return menu.Item{ID: id, Kind: menu.KindDrink, Name: name, ListPrice: decimal.RequireFromString(price)}
}

func testCustomer(birthdate time.Time) *customer.Customer {
	return &customer.Customer{
		ID:         "cust-1",
		FirstName:  "Lotte",
		LastName:   "van Dijk",
		Birthdate:  birthdate,
		PostalCode: "6221AX",
	}
}

type serviceOpts struct {
	customers *mockCustomerRepo
	codes     *mockCodeRepo
	store     *mockStore
	items     []menu.Item
}

func newTestService(opts serviceOpts) (*Service, *mockStore) {
	if opts.customers == nil {
		opts.customers = &mockCustomerRepo{customer: testCustomer(testNow.AddDate(-30, 1, 0))}
	}
	if opts.codes == nil {
		opts.codes = &mockCodeRepo{}
	}
	if opts.store == nil {
		opts.store = &mockStore{}
	}
	byID := make(map[string]menu.Item, len(opts.items))
	for _, it := range opts.items {
		byID[it.ID] = it
	}

	agents := &mockAgentRepo{agent: &delivery.Agent{ID: "agent-1", PostalCode: "6221AX", NextAvailableAt: testNow}}
	svc := NewService(&mockMenuRepo{byID: byID}, opts.customers, opts.codes, delivery.NewScheduler(agents), opts.store, time.UTC)
	svc.now = func() time.Time { return testNow }
	return svc, opts.store
}

// --- Tests ---

func TestPreview_EmptyBasket(t *testing.T) {
	svc, _ := newTestService(serviceOpts{})

	_, err := svc.Preview(context.Background(), PreviewRequest{CustomerID: "cust-1"})
	require.ErrorIs(t, err, ErrEmptyBasket)
}

func TestPreview_UnknownCustomer(t *testing.T) {
	svc, _ := newTestService(serviceOpts{})

	_, err := svc.Preview(context.Background(), PreviewRequest{CustomerID: "nobody"})
	require.ErrorIs(t, err, customer.ErrNotFound)
}

func TestPreview_NegativeQuantity(t *testing.T) {
	svc, _ := newTestService(serviceOpts{items: []menu.Item{testPizza("p1", "Funghi", "4.00")}})

	_, err := svc.Preview(context.Background(), PreviewRequest{
		CustomerID: "cust-1",
		Lines:      []BasketLine{{MenuItemID: "p1", Quantity: -1}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.MenuItemID)
}

func TestPreview_UnknownMenuItem(t *testing.T) {
	svc, _ := newTestService(serviceOpts{})

	_, err := svc.Preview(context.Background(), PreviewRequest{
		CustomerID: "cust-1",
		Lines:      []BasketLine{{MenuItemID: "missing", Quantity: 1}},
	})

	var nfErr *ItemNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "missing", nfErr.MenuItemID)
	assert.ErrorIs(t, err, menu.ErrNotFound)
}

func TestPreview_PricesDerivedPizza(t *testing.T) {
	// Ingredients 4.25 -> 4.25 * 1.40 * 1.09 = 6.4855, rounded to 6.49.
	svc, store := newTestService(serviceOpts{
		items: []menu.Item{testPizza("p1", "Margherita", "1.50", "2.00", "0.75")},
	})

	res, err := svc.Preview(context.Background(), PreviewRequest{
		CustomerID: "cust-1",
		Lines:      []BasketLine{{MenuItemID: "p1", Quantity: 1}},
	})
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("6.49").Equal(res.RawSubtotal), "got %s", res.RawSubtotal)
	assert.True(t, decimal.RequireFromString("6.49").Equal(res.Total))
	assert.Empty(t, store.created, "preview must not persist anything")
}

func TestPreview_BirthdayBasketFree(t *testing.T) {
	customers := &mockCustomerRepo{customer: testCustomer(time.Date(1994, testNow.Month(), testNow.Day(), 0, 0, 0, 0, time.UTC))}
	svc, _ := newTestService(serviceOpts{
		customers: customers,
		items: []menu.Item{
			testPizza("p1", "Margherita", "1.50", "2.00", "0.75"),
			testDrink("d1", "Sprite", "2.00"),
		},
	})

	res, err := svc.Preview(context.Background(), PreviewRequest{
		CustomerID: "cust-1",
		Lines: []BasketLine{
			{MenuItemID: "p1", Quantity: 1},
			{MenuItemID: "d1", Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.True(t, res.Total.IsZero(), "got %s", res.Total)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "happy birthday! you get one pizza and drink for free", res.Messages[0])
}

func TestPreview_NoPizzaIsAllowed(t *testing.T) {
	svc, _ := newTestService(serviceOpts{items: []menu.Item{testDrink("d1", "Beer", "3.50")}})

	res, err := svc.Preview(context.Background(), PreviewRequest{
		CustomerID: "cust-1",
		Lines:      []BasketLine{{MenuItemID: "d1", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("7.00").Equal(res.Total))
}

func TestPreview_DeliveryEstimate(t *testing.T) {
	svc, _ := newTestService(serviceOpts{items: []menu.Item{testPizza("p1", "Funghi", "4.00")}})

	res, err := svc.Preview(context.Background(), PreviewRequest{
		CustomerID: "cust-1",
		Lines:      []BasketLine{{MenuItemID: "p1", Quantity: 1}},
		PostalCode: "6221 ax",
	})
	require.NoError(t, err)

	require.NotNil(t, res.Estimate)
	assert.Equal(t, res.Estimate.PickupAt.Add(delivery.Duration), res.Estimate.DeliveryAt)
}

func TestPreview_UnknownPromoCodeStillQuotes(t *testing.T) {
	svc, _ := newTestService(serviceOpts{items: []menu.Item{testPizza("p1", "Funghi", "4.00")}})

	res, err := svc.Preview(context.Background(), PreviewRequest{
		CustomerID: "cust-1",
		Lines:      []BasketLine{{MenuItemID: "p1", Quantity: 1}},
		PromoCode:  "BOGUS",
	})
	require.NoError(t, err)

	require.Len(t, res.Messages, 1)
	assert.Equal(t, discount.MsgInvalidCode, res.Messages[0])
}

func TestCreate_NoPizza(t *testing.T) {
	svc, store := newTestService(serviceOpts{items: []menu.Item{testDrink("d1", "Beer", "3.50")}})

	_, err := svc.Create(context.Background(), CreateRequest{
		CustomerID:      "cust-1",
		Lines:           []BasketLine{{MenuItemID: "d1", Quantity: 1}},
		DeliveryAddress: "Grote Gracht 14",
		PostalCode:      "6221AX",
	})

	require.ErrorIs(t, err, ErrNoPizza)
	assert.Empty(t, store.created)
}

func TestCreate_MissingAddress(t *testing.T) {
	svc, _ := newTestService(serviceOpts{items: []menu.Item{testPizza("p1", "Funghi", "4.00")}})

	_, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: "cust-1",
		Lines:      []BasketLine{{MenuItemID: "p1", Quantity: 1}},
		PostalCode: "6221AX",
	})
	require.ErrorIs(t, err, ErrMissingAddress)
}

func TestCreate_Success(t *testing.T) {
	code := &discount.Code{ID: "code-welcome10", Code: "WELCOME10", Percentage: 10}
	svc, store := newTestService(serviceOpts{
		codes: &mockCodeRepo{byCode: map[string]*discount.Code{"WELCOME10": code}},
		items: []menu.Item{testPizza("p1", "Margherita", "1.50", "2.00", "0.75")},
	})

	res, err := svc.Create(context.Background(), CreateRequest{
		CustomerID:      "cust-1",
		Lines:           []BasketLine{{MenuItemID: "p1", Quantity: 2}},
		DeliveryAddress: "Grote Gracht 14",
		PostalCode:      "6221 ax",
		PromoCode:       "WELCOME10",
	})
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	o := store.created[0]
	assert.Equal(t, "6221AX", o.PostalCode, "postal code is normalized before commit")
	assert.Equal(t, "code-welcome10", o.DiscountCodeID)
	// 2 * 6.4855 = 12.971, minus 10% = 11.6739, rounded to 11.67.
	assert.True(t, decimal.RequireFromString("11.67").Equal(o.Total), "got %s", o.Total)
	assert.NotEmpty(t, res.Order.ID)
	assert.Equal(t, res.Schedule.PickupAt.Add(delivery.Duration), res.Schedule.DeliveryAt)
}

func TestCreate_DuplicateLinesMerged(t *testing.T) {
	svc, store := newTestService(serviceOpts{
		items: []menu.Item{testPizza("p1", "Margherita", "1.50", "2.00", "0.75")},
	})

	res, err := svc.Create(context.Background(), CreateRequest{
		CustomerID: "cust-1",
		Lines: []BasketLine{
			{MenuItemID: "p1", Quantity: 1},
			{MenuItemID: "p1", Quantity: 2},
		},
		DeliveryAddress: "Grote Gracht 14",
		PostalCode:      "6221AX",
	})
	require.NoError(t, err)

	require.Len(t, store.created, 1)
	o := store.created[0]
	require.Len(t, o.Items, 1, "repeated menu item collapses to one item row")
	assert.Equal(t, 3, o.Items[0].Quantity)
	// Priced the same as one three-unit line: 3 * 6.4855 = 19.4565 -> 19.46.
	assert.True(t, decimal.RequireFromString("19.46").Equal(res.Order.Total), "got %s", res.Order.Total)
}

func TestCreate_StoreErrorPropagates(t *testing.T) {
	svc, _ := newTestService(serviceOpts{
		store: &mockStore{createErr: discount.ErrCodeAlreadyUsed},
		items: []menu.Item{testPizza("p1", "Funghi", "4.00")},
	})

	_, err := svc.Create(context.Background(), CreateRequest{
		CustomerID:      "cust-1",
		Lines:           []BasketLine{{MenuItemID: "p1", Quantity: 1}},
		DeliveryAddress: "Grote Gracht 14",
		PostalCode:      "6221AX",
	})
	require.ErrorIs(t, err, discount.ErrCodeAlreadyUsed)
}

// --- Concurrency ---

// watermarkStore simulates the serialized commit transaction: one order at a
// time per agent, pickup from the watermark, watermark advanced to delivery.
type watermarkStore struct {
	mu     sync.Mutex
	next   time.Time
	placed []Schedule
}

func (s *watermarkStore) Create(_ context.Context, o *Order) (*Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pickup := o.PlacedAt
	if s.next.After(pickup) {
		pickup = s.next
	}
	sched := Schedule{AgentID: "agent-1", PickupAt: pickup, DeliveryAt: pickup.Add(delivery.Duration)}
	s.next = sched.DeliveryAt
	s.placed = append(s.placed, sched)
	return &sched, nil
}

func (s *watermarkStore) List(_ context.Context) ([]Order, error) { return nil, nil }

func TestCreate_ConcurrentCommitsNeverOverlap(t *testing.T) {
	store := &watermarkStore{}
	svc, _ := newTestService(serviceOpts{items: []menu.Item{testPizza("p1", "Funghi", "4.00")}})
	svc.orders = store

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := svc.Create(context.Background(), CreateRequest{
				CustomerID:      "cust-1",
				Lines:           []BasketLine{{MenuItemID: "p1", Quantity: 1}},
				DeliveryAddress: "Grote Gracht 14",
				PostalCode:      "6221AX",
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	require.Len(t, store.placed, 8)
	sort.Slice(store.placed, func(i, j int) bool {
		return store.placed[i].PickupAt.Before(store.placed[j].PickupAt)
	})
	for i := 1; i < len(store.placed); i++ {
		prev, curr := store.placed[i-1], store.placed[i]
		assert.False(t, curr.PickupAt.Before(prev.DeliveryAt),
			"window %d starts before window %d ends", i, i-1)
	}
}
