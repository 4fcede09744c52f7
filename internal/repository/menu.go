package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noortjevm/forno/internal/domain/menu"
)

const (
	listMenuItemsSQL = `SELECT id, kind, name, COALESCE(price, 0)
		FROM menu_items ORDER BY kind, name`

	getMenuItemsByIDsSQL = `SELECT id, kind, name, COALESCE(price, 0)
		FROM menu_items WHERE id = ANY($1)`

	getItemIngredientsSQL = `SELECT mii.menu_item_id, i.id, i.name, i.price, i.vegetarian, i.vegan
		FROM menu_item_ingredients mii
		JOIN ingredients i ON i.id = mii.ingredient_id
		WHERE mii.menu_item_id = ANY($1)
		ORDER BY i.name`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// List returns the full catalog with pizza ingredients attached.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, listMenuItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanMenuItem)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	if err := r.attachIngredients(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetByIDs returns the menu items matching any of the given IDs, with pizza
// ingredients attached. Missing IDs are simply absent from the result.
func (r *MenuRepository) GetByIDs(ctx context.Context, ids []string) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting menu items by ids: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanMenuItem)
	if err != nil {
		return nil, fmt.Errorf("getting menu items by ids: %w", err)
	}
	if err := r.attachIngredients(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// attachIngredients loads the ingredient sets for every pizza in items in a
// single query and attaches them in place.
func (r *MenuRepository) attachIngredients(ctx context.Context, items []menu.Item) error {
	pizzaIdx := make(map[string]int)
	var pizzaIDs []string
	for i, it := range items {
		if it.Kind == menu.KindPizza {
			pizzaIdx[it.ID] = i
			pizzaIDs = append(pizzaIDs, it.ID)
		}
	}
	if len(pizzaIDs) == 0 {
		return nil
	}

	rows, err := r.pool.Query(ctx, getItemIngredientsSQL, pizzaIDs)
	if err != nil {
		return fmt.Errorf("getting pizza ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemID string
			ing    menu.Ingredient
		)
		if err := rows.Scan(&itemID, &ing.ID, &ing.Name, &ing.Price, &ing.Vegetarian, &ing.Vegan); err != nil {
			return fmt.Errorf("scanning pizza ingredient: %w", err)
		}
		i := pizzaIdx[itemID]
		items[i].Ingredients = append(items[i].Ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("getting pizza ingredients: %w", err)
	}
	return nil
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var (
		it   menu.Item
		kind string
	)
	err := row.Scan(&it.ID, &kind, &it.Name, &it.ListPrice)
	it.Kind = menu.Kind(kind)
	return it, err
}
