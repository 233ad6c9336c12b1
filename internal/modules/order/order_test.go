// README: Order service tests (validation, recording, Postgres round trip).
package order

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizzabot/internal/types"
)

type memStore struct {
	orders []Order
	err    error
}

func (m *memStore) Create(_ context.Context, o *Order) error {
	if m.err != nil {
		return m.err
	}
	m.orders = append(m.orders, *o)
	return nil
}

func newTestService(store orderStore) *Service {
	svc := NewService(store)
	svc.newID = func() string { return "ord-1" }
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func rub(n int64) types.Money { return types.Money{Amount: n, Currency: "RUB"} }

func TestPlace_Delivery(t *testing.T) {
	store := &memStore{}
	pos := &types.Point{Lat: 55.75, Lng: 37.62}

	o, err := newTestService(store).Place(context.Background(), PlaceCommand{
		UserKey:    "tg_pizza_shop_1",
		Method:     MethodDelivery,
		LocationID: "loc-1",
		Position:   pos,
		DistanceKm: 3.2,
		Total:      rub(90000),
		Fee:        types.Money{Amount: 10000},
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", o.ID)
	assert.Equal(t, "RUB", o.Fee.Currency, "fee inherits the order currency")
	require.Len(t, store.orders, 1)
	assert.Equal(t, o, store.orders[0])
}

func TestPlace_PickupWithoutPosition(t *testing.T) {
	store := &memStore{}
	_, err := newTestService(store).Place(context.Background(), PlaceCommand{
		UserKey: "u", Method: MethodPickup, LocationID: "loc-1", Total: rub(100),
	})
	require.NoError(t, err)
	assert.Len(t, store.orders, 1)
}

func TestPlace_InvalidRequests(t *testing.T) {
	pos := &types.Point{}
	cases := map[string]PlaceCommand{
		"missing user":         {Method: MethodPickup, LocationID: "l"},
		"missing location":     {UserKey: "u", Method: MethodPickup},
		"unknown method":       {UserKey: "u", Method: "drone", LocationID: "l"},
		"delivery no position": {UserKey: "u", Method: MethodDelivery, LocationID: "l"},
		"negative total":       {UserKey: "u", Method: MethodDelivery, LocationID: "l", Position: pos, Total: rub(-1)},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			store := &memStore{}
			_, err := newTestService(store).Place(context.Background(), cmd)
			assert.ErrorIs(t, err, ErrBadRequest)
			assert.Empty(t, store.orders)
		})
	}
}

func TestPlace_StoreFailure(t *testing.T) {
	boom := errors.New("db down")
	_, err := newTestService(&memStore{err: boom}).Place(context.Background(), PlaceCommand{
		UserKey: "u", Method: MethodPickup, LocationID: "l",
	})
	assert.ErrorIs(t, err, boom)
}

func TestStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	svc := NewService(store)
	placed, err := svc.Place(ctx, PlaceCommand{
		UserKey:    "fb_pizza_shop_9",
		Method:     MethodDelivery,
		LocationID: "loc-2",
		Position:   &types.Point{Lat: 59.93, Lng: 30.31},
		DistanceKm: 12,
		Total:      rub(120000),
		Fee:        rub(30000),
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.UserKey, got.UserKey)
	assert.Equal(t, MethodDelivery, got.Method)
	assert.Equal(t, placed.Position, got.Position)
	assert.Equal(t, placed.Total, got.Total)
	assert.Equal(t, placed.Fee, got.Fee)

	n, err := store.CountByUser(ctx, "fb_pizza_shop_9")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// setupTestStore applies the schema to the database named by
// PIZZABOT_DB_DSN, skipping the test when it is not set.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("PIZZABOT_DB_DSN")
	if dsn == "" {
		t.Skip("PIZZABOT_DB_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "001_init.sql"))
	require.NoError(t, err)
	_, err = db.Exec(ctx, string(schema))
	require.NoError(t, err)
	_, err = db.Exec(ctx, "TRUNCATE TABLE orders")
	require.NoError(t, err)
	return NewStore(db)
}
