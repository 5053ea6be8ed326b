//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestCartLifecycle(t *testing.T) {
	client := newSession(t)

	// Fresh session starts with an empty cart.
	resp := doGet(t, client, "/api/cart")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	c := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(c.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(c.Items))
	}

	// Add two bourguignons.
	resp = doJSON(t, client, http.MethodPost, "/api/cart/items", map[string]any{
		"itemId": "plat-bourguignon", "quantity": 2,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	c = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(c.Items) != 1 || c.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart after add: %+v", c)
	}
	if c.Total != "30" && c.Total != "30.00" {
		t.Errorf("total: got %q, want 30.00", c.Total)
	}

	// Adding the same item again merges quantities.
	resp = doJSON(t, client, http.MethodPost, "/api/cart/items", map[string]any{
		"itemId": "plat-bourguignon", "quantity": 1,
	})
	c = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(c.Items) != 1 || c.Items[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %+v", c.Items)
	}

	// Set quantity back down, then remove.
	resp = doJSON(t, client, http.MethodPut, "/api/cart/items/plat-bourguignon", map[string]any{"quantity": 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, baseURL+"/api/cart/items/plat-bourguignon", nil)
	dresp, err := client.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	c = decodeJSON[cartResponse](t, dresp)
	dresp.Body.Close()
	if len(c.Items) != 0 {
		t.Fatalf("expected empty cart after removal, got %+v", c.Items)
	}
}

func TestCartSessionIsolation(t *testing.T) {
	alice := newSession(t)
	bob := newSession(t)

	resp := doJSON(t, alice, http.MethodPost, "/api/cart/items", map[string]any{
		"itemId": "dessert-tarte", "quantity": 1,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doGet(t, bob, "/api/cart")
	c := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(c.Items) != 0 {
		t.Fatalf("bob's cart should be empty, got %+v", c.Items)
	}
}

func TestAddUnknownItem(t *testing.T) {
	client := newSession(t)

	resp := doJSON(t, client, http.MethodPost, "/api/cart/items", map[string]any{
		"itemId": "plat-inconnu", "quantity": 1,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCouponPreview(t *testing.T) {
	client := newSession(t)

	resp := doGet(t, client, "/api/coupon/bienvenue?amount=30.00")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	preview := decodeJSON[couponPreviewResponse](t, resp)
	if preview.Code != "BIENVENUE" {
		t.Errorf("code: got %q, want BIENVENUE", preview.Code)
	}
	if preview.Discount != "3" && preview.Discount != "3.00" {
		t.Errorf("discount: got %q, want 3.00", preview.Discount)
	}
}

func TestCouponPreview_Failures(t *testing.T) {
	client := newSession(t)

	tests := []struct {
		name string
		path string
		code int
	}{
		{"unknown code", "/api/coupon/INCONNU?amount=30.00", http.StatusNotFound},
		{"inactive code", "/api/coupon/ANCIEN?amount=30.00", http.StatusUnprocessableEntity},
		{"expired window", "/api/coupon/ETE2025?amount=30.00", http.StatusUnprocessableEntity},
		{"below minimum", "/api/coupon/FIDELE15?amount=10.00", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doGet(t, client, tt.path)
			defer resp.Body.Close()
			if resp.StatusCode != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, resp.StatusCode)
			}
		})
	}
}
