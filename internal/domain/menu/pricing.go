package menu

import "github.com/shopspring/decimal"

// Line is a resolved basket entry: a menu item and how many of it.
type Line struct {
	Item     Item
	Quantity int
}

// Pricing is the pre-discount view of a basket. PizzaUnitPrices and
// DrinkUnitPrices hold one entry per unit ordered (a line of quantity 3
// contributes its unit price three times), so downstream discount logic can
// strike individual units. Dessert prices count toward the subtotal but are
// never discount targets, so they appear in no multiset.
type Pricing struct {
	Subtotal        decimal.Decimal
	PizzaUnitPrices []decimal.Decimal
	DrinkUnitPrices []decimal.Decimal
}

// PriceBasket computes the raw subtotal and the per-unit price multisets for
// the given lines. The returned slices are fresh; callers may consume them
// destructively without affecting the basket.
func PriceBasket(lines []Line) Pricing {
	p := Pricing{Subtotal: decimal.Zero}
	for _, l := range lines {
		unit := l.Item.UnitPrice()
		p.Subtotal = p.Subtotal.Add(unit.Mul(decimal.NewFromInt(int64(l.Quantity))))

		switch l.Item.Kind {
		case KindPizza:
			for range l.Quantity {
				p.PizzaUnitPrices = append(p.PizzaUnitPrices, unit)
			}
		case KindDrink:
			for range l.Quantity {
				p.DrinkUnitPrices = append(p.DrinkUnitPrices, unit)
			}
		}
	}
	return p
}
