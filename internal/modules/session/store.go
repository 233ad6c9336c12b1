// README: Session store backed by Redis hashes with optimistic versioning.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"pizzabot/internal/types"
)

const (
	fieldState      = "state"
	fieldPage       = "page"
	fieldLat        = "lat"
	fieldLng        = "lng"
	fieldLocationID = "location_id"
	fieldVersion    = "version"
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// Get never fails on a missing key: it returns an empty session at version 0.
func (s *Store) Get(ctx context.Context, key string) (Session, error) {
	vals, err := s.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return Session{}, fmt.Errorf("session get %s: %w", key, err)
	}
	return decode(key, vals), nil
}

// Save writes sess if the stored version still equals sess.Version, then
// bumps the version. Losing the race returns ErrConflict.
func (s *Store) Save(ctx context.Context, sess Session) (Session, error) {
	next := sess
	next.Version = sess.Version + 1

	err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, sess.Key, fieldVersion).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != sess.Version {
			return ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, sess.Key)
			pipe.HSet(ctx, sess.Key, encode(next))
			return nil
		})
		return err
	}, sess.Key)

	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, ErrConflict), errors.Is(err, redis.TxFailedErr):
		return sess, ErrConflict
	default:
		return sess, fmt.Errorf("session save %s: %w", sess.Key, err)
	}
}

func encode(sess Session) map[string]any {
	m := map[string]any{
		fieldState:   sess.State,
		fieldPage:    sess.Page,
		fieldVersion: sess.Version,
	}
	if sess.Position != nil {
		m[fieldLat] = strconv.FormatFloat(sess.Position.Lat, 'f', -1, 64)
		m[fieldLng] = strconv.FormatFloat(sess.Position.Lng, 'f', -1, 64)
	}
	if sess.LocationID != "" {
		m[fieldLocationID] = sess.LocationID
	}
	return m
}

func decode(key string, vals map[string]string) Session {
	sess := Session{Key: key, State: vals[fieldState], LocationID: vals[fieldLocationID]}
	sess.Page, _ = strconv.Atoi(vals[fieldPage])
	sess.Version, _ = strconv.ParseInt(vals[fieldVersion], 10, 64)
	lat, errLat := strconv.ParseFloat(vals[fieldLat], 64)
	lng, errLng := strconv.ParseFloat(vals[fieldLng], 64)
	if errLat == nil && errLng == nil {
		sess.Position = &types.Point{Lat: lat, Lng: lng}
	}
	return sess
}
