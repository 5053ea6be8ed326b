// Package address defines the delivery address validation boundary. The
// actual geocoding lives behind the Validator interface; the checkout flow
// only consumes the boolean gate and the human-readable reason.
package address

import "context"

// Result is the outcome of validating a delivery address.
type Result struct {
	Valid bool
	// Reason holds a user-presentable explanation when Valid is false.
	Reason string
	// DistanceKm is the driving distance from the restaurant, when the
	// validator was able to compute it.
	DistanceKm *float64
}

// Validator checks whether an address is deliverable. Implementations must
// degrade network or geocoding failures into a Result{Valid: false} with a
// generic reason rather than returning an error for those cases.
type Validator interface {
	ValidateForDelivery(ctx context.Context, addr, zip string) (Result, error)
}
