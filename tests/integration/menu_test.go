//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestMenu_DerivedPricesAndLabels(t *testing.T) {
	resp := doGet(t, "/api/menu")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	items := decodeJSON[[]menuItemResponse](t, resp)
	byID := make(map[string]menuItemResponse, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	// Margherita: (1.50 + 2.00 + 0.75) * 1.40 * 1.09 = 6.4855 -> 6.49.
	margherita, ok := byID["pizza-margherita"]
	if !ok {
		t.Fatal("pizza-margherita missing from menu")
	}
	if margherita.Price != "6.49" {
		t.Errorf("margherita price = %s, want 6.49", margherita.Price)
	}
	if margherita.Label != "vegetarian" {
		t.Errorf("margherita label = %s, want vegetarian", margherita.Label)
	}
	if len(margherita.Ingredients) != 3 {
		t.Errorf("margherita ingredients = %d, want 3", len(margherita.Ingredients))
	}

	// Vegan Margherita: (1.50 + 3.00 + 0.75) * 1.40 * 1.09 = 8.0115 -> 8.01.
	vegan := byID["pizza-vegan-margherita"]
	if vegan.Price != "8.01" {
		t.Errorf("vegan margherita price = %s, want 8.01", vegan.Price)
	}
	if vegan.Label != "vegan" {
		t.Errorf("vegan margherita label = %s, want vegan", vegan.Label)
	}

	meat := byID["pizza-meat-feast"]
	if meat.Label != "non-vegetarian" {
		t.Errorf("meat feast label = %s, want non-vegetarian", meat.Label)
	}

	// Drinks keep their stored price and have no dietary label.
	beer := byID["drink-beer"]
	if beer.Price != "3.50" {
		t.Errorf("beer price = %s, want 3.50", beer.Price)
	}
	if beer.Label != "" {
		t.Errorf("beer label = %q, want empty", beer.Label)
	}
}

func TestDeliveryPostalCodes(t *testing.T) {
	resp := doGet(t, "/api/delivery/postal-codes")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeJSON[struct {
		PostalCodes []string `json:"postalCodes"`
	}](t, resp)

	if len(body.PostalCodes) != 3 {
		t.Fatalf("postal codes = %v, want 3 entries", body.PostalCodes)
	}
}
