// Package menu models the orderable catalog: pizzas, drinks, and desserts.
//
// Pizzas have no stored price. Their unit price is derived from the
// ingredient set (cost times markup times tax), and their dietary label is
// derived from the ingredient flags. Drinks and desserts carry a stored
// list price.
package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested menu item does not exist.
var ErrNotFound = errors.New("menu item not found")

// Kind identifies the concrete variant of a menu item.
type Kind string

const (
	KindPizza   Kind = "pizza"
	KindDrink   Kind = "drink"
	KindDessert Kind = "dessert"
)

// Label is the dietary classification derived from a pizza's ingredients.
type Label string

const (
	LabelVegan         Label = "vegan"
	LabelVegetarian    Label = "vegetarian"
	LabelNonVegetarian Label = "non-vegetarian"
)

// Pricing constants for derived pizza prices: ingredient cost is marked up
// 40% and taxed at 9%.
var (
	markup = decimal.RequireFromString("1.40")
	tax    = decimal.RequireFromString("1.09")
)

// Ingredient is a pizza component with a cost and dietary flags.
type Ingredient struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	Vegetarian bool
	Vegan      bool
}

// Item is a single entry of the menu. Exactly one of the variant fields is
// meaningful: ListPrice for drinks and desserts, Ingredients for pizzas.
type Item struct {
	ID   string
	Kind Kind
	Name string

	// ListPrice is the stored unit price. Zero for pizzas.
	ListPrice decimal.Decimal
	// Ingredients is populated for pizzas only.
	Ingredients []Ingredient
}

// UnitPrice returns the price of a single unit of the item. For pizzas it is
// derived as sum(ingredient prices) * 1.40 * 1.09; for drinks and desserts
// it is the stored list price.
func (i Item) UnitPrice() decimal.Decimal {
	if i.Kind != KindPizza {
		return i.ListPrice
	}
	cost := decimal.Zero
	for _, ing := range i.Ingredients {
		cost = cost.Add(ing.Price)
	}
	return cost.Mul(markup).Mul(tax)
}

// DietaryLabel classifies a pizza by its ingredients: vegan when every
// ingredient is vegan, vegetarian when every ingredient is vegetarian,
// non-vegetarian otherwise. Only meaningful for pizzas.
func (i Item) DietaryLabel() Label {
	allVegan, allVegetarian := true, true
	for _, ing := range i.Ingredients {
		allVegan = allVegan && ing.Vegan
		allVegetarian = allVegetarian && ing.Vegetarian
	}
	switch {
	case allVegan:
		return LabelVegan
	case allVegetarian:
		return LabelVegetarian
	default:
		return LabelNonVegetarian
	}
}

// Repository defines read operations for the menu catalog.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	GetByIDs(ctx context.Context, ids []string) ([]Item, error)
}
