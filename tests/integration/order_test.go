//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

func addItem(t *testing.T, client *http.Client, itemID string, quantity int) {
	t.Helper()

	resp := doJSON(t, client, http.MethodPost, "/api/cart/items", map[string]any{
		"itemId": itemID, "quantity": quantity,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add item %s: expected 200, got %d", itemID, resp.StatusCode)
	}
}

func TestPlaceOrder(t *testing.T) {
	client := newSession(t)
	addItem(t, client, "plat-bourguignon", 2)

	resp := doJSON(t, client, http.MethodPost, "/api/order", checkoutRequest())
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	o := decodeJSON[orderResponse](t, resp)
	if !strings.HasPrefix(o.OrderNumber, "ORD-") {
		t.Errorf("order number: got %q, want ORD- prefix", o.OrderNumber)
	}
	if o.Status != "pending" {
		t.Errorf("status: got %q, want pending", o.Status)
	}
	if len(o.Items) != 1 {
		t.Fatalf("items: got %d, want 1", len(o.Items))
	}
	if o.Total != "30" && o.Total != "30.00" {
		t.Errorf("total: got %q, want 30.00", o.Total)
	}
	if o.Subtotal != "27.27" {
		t.Errorf("subtotal: got %q, want 27.27", o.Subtotal)
	}
	if o.TaxAmount != "2.73" {
		t.Errorf("tax: got %q, want 2.73", o.TaxAmount)
	}

	// The cart is cleared by the same transaction that persisted the order.
	cresp := doGet(t, client, "/api/cart")
	c := decodeJSON[cartResponse](t, cresp)
	cresp.Body.Close()
	if len(c.Items) != 0 {
		t.Fatalf("cart should be empty after checkout, got %+v", c.Items)
	}

	// And the order is retrievable by its number.
	oresp := doGet(t, client, "/api/order/"+o.OrderNumber)
	defer oresp.Body.Close()
	if oresp.StatusCode != http.StatusOK {
		t.Fatalf("get order: expected 200, got %d", oresp.StatusCode)
	}
	fetched := decodeJSON[orderResponse](t, oresp)
	if fetched.OrderNumber != o.OrderNumber {
		t.Errorf("fetched order number %q != placed %q", fetched.OrderNumber, o.OrderNumber)
	}
}

func TestPlaceOrder_WithCoupon(t *testing.T) {
	client := newSession(t)
	addItem(t, client, "plat-bourguignon", 2)

	body := checkoutRequest()
	body["couponId"] = "coupon-bienvenue"
	resp := doJSON(t, client, http.MethodPost, "/api/order", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	o := decodeJSON[orderResponse](t, resp)
	if o.DiscountAmount != "3" && o.DiscountAmount != "3.00" {
		t.Errorf("discount: got %q, want 3.00", o.DiscountAmount)
	}
	if o.Total != "27" && o.Total != "27.00" {
		t.Errorf("total: got %q, want 27.00", o.Total)
	}
	if o.Subtotal != "24.55" {
		t.Errorf("subtotal: got %q, want 24.55", o.Subtotal)
	}
	if o.TaxAmount != "2.45" {
		t.Errorf("tax: got %q, want 2.45", o.TaxAmount)
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	client := newSession(t)

	// Rejected twice with the same result: nothing is consumed by a failed
	// attempt.
	for i := 0; i < 2; i++ {
		resp := doJSON(t, client, http.MethodPost, "/api/order", checkoutRequest())
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("attempt %d: expected 400, got %d", i+1, resp.StatusCode)
		}
		errResp := decodeJSON[errorResponse](t, resp)
		resp.Body.Close()
		if errResp.Message != "cart is empty" {
			t.Errorf("message: got %q, want %q", errResp.Message, "cart is empty")
		}
	}
}

func TestPlaceOrder_InvalidCouponLeavesCart(t *testing.T) {
	client := newSession(t)
	addItem(t, client, "plat-bourguignon", 1)

	body := checkoutRequest()
	body["couponId"] = "coupon-ancien" // deactivated
	resp := doJSON(t, client, http.MethodPost, "/api/order", body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	cresp := doGet(t, client, "/api/cart")
	c := decodeJSON[cartResponse](t, cresp)
	cresp.Body.Close()
	if len(c.Items) != 1 {
		t.Fatalf("cart must survive a rejected checkout, got %+v", c.Items)
	}
}

func TestPlaceOrder_MissingClientFields(t *testing.T) {
	client := newSession(t)
	addItem(t, client, "plat-bourguignon", 1)

	body := checkoutRequest()
	body["clientEmail"] = ""
	resp := doJSON(t, client, http.MethodPost, "/api/order", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_DeliveryWithoutGeocoder(t *testing.T) {
	// The test stack runs without a geocoding service; delivery checkouts must
	// degrade to a clean validation rejection, not a 500.
	client := newSession(t)
	addItem(t, client, "plat-bourguignon", 1)

	body := checkoutRequest()
	body["deliveryMode"] = "delivery"
	body["deliveryAddress"] = "12 Rue des Martyrs"
	body["deliveryZip"] = "75009"
	body["deliveryFee"] = "1.90"
	resp := doJSON(t, client, http.MethodPost, "/api/order", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Message != "address could not be verified" {
		t.Errorf("message: got %q, want %q", errResp.Message, "address could not be verified")
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	client := newSession(t)

	resp := doGet(t, client, "/api/order/ORD-19700101-0001")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
