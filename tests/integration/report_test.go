//go:build integration

package integration

import (
	"net/http"
	"testing"
)

type earningsResponse struct {
	Year      int `json:"year"`
	Month     int `json:"month"`
	Customers []struct {
		CustomerID string `json:"customerId"`
		Name       string `json:"name"`
		Orders     int    `json:"orders"`
		Total      string `json:"total"`
	} `json:"customers"`
}

type undeliveredResponse struct {
	OrderID    string `json:"orderId"`
	Customer   string `json:"customer"`
	Agent      string `json:"agent"`
	PostalCode string `json:"postalCode"`
	Status     string `json:"status"`
}

func doAuthorizedGet(t *testing.T, path string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("api_key", apiKey)
	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func TestReports_EarningsGenderFilter(t *testing.T) {
	resp := doAuthorizedGet(t, "/api/reports/earnings?gender=male")
	body := decodeJSON[earningsResponse](t, resp)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	// Only Ruben has committed orders among the male fixtures.
	if len(body.Customers) != 1 {
		t.Fatalf("customers = %v, want only the male customers with orders", body.Customers)
	}
	if body.Customers[0].Name != "Ruben Peters" {
		t.Errorf("customer = %s, want Ruben Peters", body.Customers[0].Name)
	}
	if body.Customers[0].Orders != 2 {
		t.Errorf("orders = %d, want 2", body.Customers[0].Orders)
	}
}

func TestReports_UndeliveredOrders(t *testing.T) {
	resp := doAuthorizedGet(t, "/api/reports/undelivered")
	rows := decodeJSON[[]undeliveredResponse](t, resp)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	// Orders committed by the earlier tests were just placed, so their
	// delivery windows are still open.
	if len(rows) == 0 {
		t.Fatal("expected at least one undelivered order")
	}
	for _, row := range rows {
		if row.Status != "pending" && row.Status != "out_for_delivery" {
			t.Errorf("order %s has status %q", row.OrderID, row.Status)
		}
		if row.Customer == "" || row.Agent == "" {
			t.Errorf("order %s missing customer/agent names: %+v", row.OrderID, row)
		}
	}
}
