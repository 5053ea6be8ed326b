// Package geocode implements address.Validator against an external geocoding
// HTTP service.
package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/lepetitbistro/ordering-api/internal/domain/address"
)

// genericReason is returned whenever the geocoder cannot be consulted. The
// checkout must never surface a raw transport error to the customer.
const genericReason = "address could not be verified"

var _ address.Validator = (*Client)(nil)

// Client validates delivery addresses by calling a geocoding service.
// Failures of any kind (network, timeout, malformed response) degrade to an
// invalid-address result and are logged, never propagated.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the given geocoder base URL. The timeout bounds
// the whole call; the ambient request deadline still applies through ctx.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// validateResponse is the geocoder's wire format.
type validateResponse struct {
	Valid    bool     `json:"valid"`
	Error    string   `json:"error"`
	Distance *float64 `json:"distance"`
}

// ValidateForDelivery asks the geocoder whether the address is within the
// delivery zone.
func (c *Client) ValidateForDelivery(ctx context.Context, addr, zip string) (address.Result, error) {
	q := url.Values{}
	q.Set("address", addr)
	q.Set("zip", zip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/validate?"+q.Encode(), nil)
	if err != nil {
		return address.Result{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		zctx.From(ctx).Warn("geocoder unreachable", zap.Error(err))
		return address.Result{Valid: false, Reason: genericReason}, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		zctx.From(ctx).Warn("geocoder returned non-200", zap.Int("status", resp.StatusCode))
		return address.Result{Valid: false, Reason: genericReason}, nil
	}

	var body validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		zctx.From(ctx).Warn("geocoder response malformed", zap.Error(err))
		return address.Result{Valid: false, Reason: genericReason}, nil
	}

	res := address.Result{Valid: body.Valid, DistanceKm: body.Distance}
	if !body.Valid {
		res.Reason = body.Error
		if res.Reason == "" {
			res.Reason = genericReason
		}
	}
	return res, nil
}
