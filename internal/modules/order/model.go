// README: Placed order record and fulfillment method definitions.
package order

import (
	"errors"
	"time"

	"pizzabot/internal/types"
)

var (
	ErrNotFound   = errors.New("order not found")
	ErrBadRequest = errors.New("bad request")
)

type Method string

const (
	MethodPickup   Method = "pickup"
	MethodDelivery Method = "delivery"
)

func (m Method) Valid() bool {
	return m == MethodPickup || m == MethodDelivery
}

// Order is written once, when the customer confirms pickup or delivery
// after paying. It is a history record; nothing transitions it afterwards.
type Order struct {
	ID         string
	UserKey    string
	Method     Method
	LocationID string
	// Position is the customer's resolved position; nil for pickup orders
	// placed without one.
	Position   *types.Point
	DistanceKm float64
	Total      types.Money
	Fee        types.Money
	CreatedAt  time.Time
}

type PlaceCommand struct {
	UserKey    string
	Method     Method
	LocationID string
	Position   *types.Point
	DistanceKm float64
	Total      types.Money
	Fee        types.Money
}
