// README: Payment service issues invoice payload ids and validates precheckout requests.
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"pizzabot/internal/types"
)

type PayloadStore interface {
	PutPayload(ctx context.Context, userKey, payload string) error
	GetPayload(ctx context.Context, userKey string) (string, error)
}

type Service struct {
	store PayloadStore
	newID func() string
}

func NewService(store PayloadStore) *Service {
	return &Service{store: store, newID: uuid.NewString}
}

// IssueInvoice registers a fresh opaque payload id for the user's pending
// order and returns it. A newer invoice replaces an older one.
func (s *Service) IssueInvoice(ctx context.Context, userKey string, amount types.Money) (string, error) {
	if amount.Amount <= 0 {
		return "", fmt.Errorf("invoice for %s: non-positive amount %d", userKey, amount.Amount)
	}
	payload := s.newID()
	if err := s.store.PutPayload(ctx, userKey, payload); err != nil {
		return "", fmt.Errorf("register invoice payload: %w", err)
	}
	return payload, nil
}

// ValidatePrecheckout reports whether payload is the one issued for the user.
func (s *Service) ValidatePrecheckout(ctx context.Context, userKey, payload string) (bool, error) {
	want, err := s.store.GetPayload(ctx, userKey)
	if err != nil {
		return false, fmt.Errorf("load invoice payload: %w", err)
	}
	return want != "" && want == payload, nil
}
