// Command seed-db loads the development fixtures: the menu catalog, delivery
// agents, discount codes, sample customers, and one API key.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noortjevm/forno/internal/repository"
)

func main() {
	var (
		databaseURL  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or FORNO_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or FORNO_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("FORNO_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or FORNO_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("FORNO_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")
	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	steps := []struct {
		name string
		fn   func(context.Context, *pgxpool.Pool) error
	}{
		{"ingredients", seedIngredients},
		{"menu", seedMenu},
		{"delivery agents", seedAgents},
		{"discount codes", seedDiscountCodes},
		{"customers", seedCustomers},
	}
	for _, step := range steps {
		slog.Info("seeding", slog.String("step", step.name))
		if err := step.fn(ctx, pool); err != nil {
			return errors.Wrapf(err, "seed %s", step.name)
		}
	}

	slog.Info("seeding api key")
	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}
	return nil
}

type ingredient struct {
	id         string
	name       string
	price      string
	vegetarian bool
	vegan      bool
}

var ingredients = []ingredient{
	{"ing-tomato-sauce", "Tomato Sauce", "1.50", true, true},
	{"ing-mozzarella", "Mozzarella", "2.00", true, false},
	{"ing-vegan-mozzarella", "Vegan Mozzarella", "3.00", true, true},
	{"ing-pepperoni", "Pepperoni", "2.50", false, false},
	{"ing-mushrooms", "Mushrooms", "1.75", true, true},
	{"ing-bell-peppers", "Bell Peppers", "1.25", true, true},
	{"ing-onions", "Onions", "1.00", true, true},
	{"ing-olives", "Olives", "1.50", true, true},
	{"ing-ham", "Ham", "2.75", false, false},
	{"ing-pineapple", "Pineapple", "1.80", true, true},
	{"ing-basil", "Basil", "0.75", true, true},
	{"ing-parmesan", "Parmesan", "2.20", true, false},
	{"ing-gorgonzola", "Gorgonzola", "2.30", true, false},
}

func seedIngredients(ctx context.Context, pool *pgxpool.Pool) error {
	const q = `INSERT INTO ingredients (id, name, price, vegetarian, vegan)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, price = EXCLUDED.price,
		    vegetarian = EXCLUDED.vegetarian, vegan = EXCLUDED.vegan`

	for _, ing := range ingredients {
		if _, err := pool.Exec(ctx, q, ing.id, ing.name, ing.price, ing.vegetarian, ing.vegan); err != nil {
			return errors.Wrapf(err, "upsert ingredient %s", ing.id)
		}
	}
	return nil
}

var pizzas = []struct {
	id          string
	name        string
	ingredients []string
}{
	{"pizza-margherita", "Margherita", []string{"ing-tomato-sauce", "ing-mozzarella", "ing-basil"}},
	{"pizza-vegan-margherita", "Vegan Margherita", []string{"ing-tomato-sauce", "ing-vegan-mozzarella", "ing-basil"}},
	{"pizza-pepperoni", "Pepperoni", []string{"ing-tomato-sauce", "ing-mozzarella", "ing-pepperoni"}},
	{"pizza-veggie-deluxe", "Veggie Deluxe", []string{"ing-tomato-sauce", "ing-mozzarella", "ing-mushrooms", "ing-bell-peppers", "ing-onions", "ing-olives"}},
	{"pizza-vegan-deluxe", "Vegan Deluxe", []string{"ing-tomato-sauce", "ing-vegan-mozzarella", "ing-mushrooms", "ing-bell-peppers", "ing-onions", "ing-olives"}},
	{"pizza-hawaiian", "Hawaiian", []string{"ing-tomato-sauce", "ing-mozzarella", "ing-ham", "ing-pineapple"}},
	{"pizza-four-cheese", "Four Cheese", []string{"ing-tomato-sauce", "ing-mozzarella", "ing-parmesan", "ing-gorgonzola"}},
	{"pizza-meat-feast", "Meat Feast", []string{"ing-tomato-sauce", "ing-mozzarella", "ing-ham", "ing-pepperoni"}},
	{"pizza-capricciosa", "Capricciosa", []string{"ing-tomato-sauce", "ing-mozzarella", "ing-ham", "ing-mushrooms", "ing-olives"}},
	{"pizza-funghi", "Funghi", []string{"ing-tomato-sauce", "ing-mozzarella", "ing-mushrooms"}},
}

var pricedItems = []struct {
	id    string
	kind  string
	name  string
	price string
}{
	{"drink-coca-cola", "drink", "Coca Cola", "2.00"},
	{"drink-sprite", "drink", "Sprite", "2.00"},
	{"drink-ice-tea", "drink", "Ice Tea", "2.50"},
	{"drink-beer", "drink", "Beer", "3.50"},
	{"dessert-tiramisu", "dessert", "Tiramisu", "4.00"},
	{"dessert-panna-cotta", "dessert", "Panna Cotta", "3.50"},
	{"dessert-brownie", "dessert", "Brownie", "2.50"},
}

func seedMenu(ctx context.Context, pool *pgxpool.Pool) error {
	const itemQ = `INSERT INTO menu_items (id, kind, name, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET kind = EXCLUDED.kind, name = EXCLUDED.name, price = EXCLUDED.price`
	const linkQ = `INSERT INTO menu_item_ingredients (menu_item_id, ingredient_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`

	for _, p := range pizzas {
		if _, err := pool.Exec(ctx, itemQ, p.id, "pizza", p.name, nil); err != nil {
			return errors.Wrapf(err, "upsert pizza %s", p.id)
		}
		for _, ingID := range p.ingredients {
			if _, err := pool.Exec(ctx, linkQ, p.id, ingID); err != nil {
				return errors.Wrapf(err, "link %s to %s", p.id, ingID)
			}
		}
	}
	for _, it := range pricedItems {
		if _, err := pool.Exec(ctx, itemQ, it.id, it.kind, it.name, it.price); err != nil {
			return errors.Wrapf(err, "upsert %s", it.id)
		}
	}
	return nil
}

func seedAgents(ctx context.Context, pool *pgxpool.Pool) error {
	const q = `INSERT INTO delivery_agents (id, first_name, last_name, postal_code, next_available_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`

	agents := []struct {
		id, first, last, postalCode string
	}{
		{"agent-6221ax", "Daan", "Bakker", "6221AX"},
		{"agent-6211rz", "Sanne", "Visser", "6211RZ"},
		{"agent-6215pd", "Bram", "de Jong", "6215PD"},
	}
	now := time.Now()
	for _, a := range agents {
		if _, err := pool.Exec(ctx, q, a.id, a.first, a.last, a.postalCode, now); err != nil {
			return errors.Wrapf(err, "upsert agent %s", a.id)
		}
	}
	return nil
}

func seedDiscountCodes(ctx context.Context, pool *pgxpool.Pool) error {
	const q = `INSERT INTO discount_codes (id, code, percentage)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, percentage = EXCLUDED.percentage`

	codes := []struct {
		id, code   string
		percentage int
	}{
		{"code-welcome10", "WELCOME10", 10},
		{"code-student15", "STUDENT15", 15},
		{"code-vip20", "VIP20", 20},
	}
	for _, c := range codes {
		if _, err := pool.Exec(ctx, q, c.id, c.code, c.percentage); err != nil {
			return errors.Wrapf(err, "upsert code %s", c.id)
		}
	}
	return nil
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool) error {
	const q = `INSERT INTO customers (id, first_name, last_name, birthdate, gender, address, postal_code, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`

	customers := []struct {
		id, first, last, birthdate, gender, address, postalCode, phone string
	}{
		// Leap-day birthdates keep the fixture customers out of the
		// birthday-discount path on (almost) every day tests run.
		{"cust-lotte", "Lotte", "van Dijk", "1996-02-29", "female", "Grote Gracht 14", "6221AX", "+31612345671"},
		{"cust-timo", "Timo", "Smeets", "1988-02-29", "male", "Brusselsestraat 82", "6211RZ", "+31612345672"},
		{"cust-femke", "Femke", "Janssen", "2000-02-29", "female", "Sint Pieterstraat 3", "6215PD", "+31612345673"},
		{"cust-ruben", "Ruben", "Peters", "1980-02-29", "male", "Tongersestraat 51", "6211RZ", "+31612345674"},
	}
	for _, c := range customers {
		birthdate, err := time.Parse("2006-01-02", c.birthdate)
		if err != nil {
			return errors.Wrapf(err, "parse birthdate for %s", c.id)
		}
		if _, err := pool.Exec(ctx, q, c.id, c.first, c.last, birthdate, c.gender, c.address, c.postalCode, c.phone); err != nil {
			return errors.Wrapf(err, "upsert customer %s", c.id)
		}
	}
	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	const q = `INSERT INTO api_keys (id, key_hash, name, active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (id) DO UPDATE SET key_hash = EXCLUDED.key_hash, active = TRUE`

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	hash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, q, "key-seed", hash, "seed key"); err != nil {
		return errors.Wrap(err, "upsert api key")
	}
	return nil
}
