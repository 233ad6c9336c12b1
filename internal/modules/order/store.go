// README: Order store backed by PostgreSQL.
package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pizzabot/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, o *Order) error {
	var lat, lng *float64
	if o.Position != nil {
		lat, lng = &o.Position.Lat, &o.Position.Lng
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO orders (
			id, user_key, method, location_id,
			latitude, longitude, distance_km,
			total, fee, currency, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10, $11
		)`,
		o.ID, o.UserKey, string(o.Method), o.LocationID,
		lat, lng, o.DistanceKm,
		o.Total.Amount, o.Fee.Amount, o.Total.Currency, o.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*Order, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_key, method, location_id,
		       latitude, longitude, distance_km,
		       total, fee, currency, created_at
		FROM orders
		WHERE id = $1`, id,
	)

	var o Order
	var lat, lng *float64
	var currency string
	err := row.Scan(
		&o.ID, &o.UserKey, &o.Method, &o.LocationID,
		&lat, &lng, &o.DistanceKm,
		&o.Total.Amount, &o.Fee.Amount, &currency, &o.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Total.Currency, o.Fee.Currency = currency, currency
	if lat != nil && lng != nil {
		o.Position = &types.Point{Lat: *lat, Lng: *lng}
	}
	return &o, nil
}

// CountByUser returns how many orders the user has placed.
func (s *Store) CountByUser(ctx context.Context, userKey string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_key = $1`, userKey).Scan(&n)
	return n, err
}
