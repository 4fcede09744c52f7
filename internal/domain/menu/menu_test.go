package menu

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ing(name, price string, vegetarian, vegan bool) Ingredient {
	return Ingredient{
		ID:         "ing-" + name,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Vegetarian: vegetarian,
		Vegan:      vegan,
	}
}

func margherita() Item {
	return Item{
		ID:   "pizza-margherita",
		Kind: KindPizza,
		Name: "Margherita",
		Ingredients: []Ingredient{
			ing("Tomato Sauce", "1.50", true, true),
			ing("Mozzarella", "2.00", true, false),
			ing("Basil", "0.75", true, true),
		},
	}
}

func TestUnitPrice_PizzaDerivedFromIngredients(t *testing.T) {
	// (1.50 + 2.00 + 0.75) * 1.40 * 1.09 = 6.4855
	got := margherita().UnitPrice()
	assert.True(t, decimal.RequireFromString("6.4855").Equal(got), "got %s", got)
}

func TestUnitPrice_DrinkUsesListPrice(t *testing.T) {
	d := Item{ID: "drink-beer", Kind: KindDrink, Name: "Beer", ListPrice: decimal.RequireFromString("3.50")}
	assert.True(t, decimal.RequireFromString("3.50").Equal(d.UnitPrice()))
}

func TestDietaryLabel(t *testing.T) {
	vegan := Item{Kind: KindPizza, Ingredients: []Ingredient{
		ing("Tomato Sauce", "1.50", true, true),
		ing("Vegan Mozzarella", "3.00", true, true),
	}}
	vegetarian := margherita()
	meat := Item{Kind: KindPizza, Ingredients: []Ingredient{
		ing("Tomato Sauce", "1.50", true, true),
		ing("Ham", "2.75", false, false),
	}}

	assert.Equal(t, LabelVegan, vegan.DietaryLabel())
	assert.Equal(t, LabelVegetarian, vegetarian.DietaryLabel())
	assert.Equal(t, LabelNonVegetarian, meat.DietaryLabel())
}

func TestPriceBasket(t *testing.T) {
	pizza := margherita()
	beer := Item{ID: "drink-beer", Kind: KindDrink, Name: "Beer", ListPrice: decimal.RequireFromString("3.50")}
	tiramisu := Item{ID: "dessert-tiramisu", Kind: KindDessert, Name: "Tiramisu", ListPrice: decimal.RequireFromString("4.00")}

	p := PriceBasket([]Line{
		{Item: pizza, Quantity: 2},
		{Item: beer, Quantity: 1},
		{Item: tiramisu, Quantity: 1},
	})

	// 2 * 6.4855 + 3.50 + 4.00 = 20.471
	assert.True(t, decimal.RequireFromString("20.471").Equal(p.Subtotal), "got %s", p.Subtotal)
	assert.Len(t, p.PizzaUnitPrices, 2, "one entry per pizza unit")
	assert.Len(t, p.DrinkUnitPrices, 1)
	for _, unit := range p.PizzaUnitPrices {
		assert.True(t, decimal.RequireFromString("6.4855").Equal(unit))
	}
}

func TestPriceBasket_DessertsOnlyInSubtotal(t *testing.T) {
	tiramisu := Item{ID: "dessert-tiramisu", Kind: KindDessert, Name: "Tiramisu", ListPrice: decimal.RequireFromString("4.00")}

	p := PriceBasket([]Line{{Item: tiramisu, Quantity: 3}})

	assert.True(t, decimal.RequireFromString("12.00").Equal(p.Subtotal))
	assert.Empty(t, p.PizzaUnitPrices)
	assert.Empty(t, p.DrinkUnitPrices)
}
