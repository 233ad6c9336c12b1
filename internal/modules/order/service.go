// README: Order service validates and records placed orders.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type orderStore interface {
	Create(ctx context.Context, o *Order) error
}

type Service struct {
	store orderStore
	newID func() string
	now   func() time.Time
}

func NewService(store orderStore) *Service {
	return &Service{store: store, newID: uuid.NewString, now: time.Now}
}

func (s *Service) Place(ctx context.Context, cmd PlaceCommand) (Order, error) {
	if cmd.UserKey == "" || cmd.LocationID == "" || !cmd.Method.Valid() {
		return Order{}, ErrBadRequest
	}
	if cmd.Method == MethodDelivery && cmd.Position == nil {
		return Order{}, ErrBadRequest
	}
	if cmd.Total.Amount < 0 || cmd.Fee.Amount < 0 {
		return Order{}, ErrBadRequest
	}

	o := Order{
		ID:         s.newID(),
		UserKey:    cmd.UserKey,
		Method:     cmd.Method,
		LocationID: cmd.LocationID,
		Position:   cmd.Position,
		DistanceKm: cmd.DistanceKm,
		Total:      cmd.Total,
		Fee:        cmd.Fee,
		CreatedAt:  s.now().UTC(),
	}
	if o.Fee.Currency == "" {
		o.Fee.Currency = o.Total.Currency
	}
	if err := s.store.Create(ctx, &o); err != nil {
		return Order{}, fmt.Errorf("recording order: %w", err)
	}
	return o, nil
}
