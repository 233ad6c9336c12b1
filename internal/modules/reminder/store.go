// README: Reminder delay queue backed by a Redis sorted set (score = fire time in ms).
package reminder

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const dueKey = "reminders:due"

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// Put schedules userKey at fireAt. The member is the user key itself, so a
// later Put for the same user moves the pending reminder instead of adding one.
func (s *Store) Put(ctx context.Context, userKey string, fireAt time.Time) error {
	return s.redis.ZAdd(ctx, dueKey, redis.Z{
		Score:  float64(fireAt.UnixMilli()),
		Member: userKey,
	}).Err()
}

// Due lists up to limit user keys whose fire time is at or before now.
func (s *Store) Due(ctx context.Context, now time.Time, limit int64) ([]string, error) {
	return s.redis.ZRangeByScore(ctx, dueKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: limit,
	}).Result()
}

// claimScript removes the member only while its score is still due, so a
// reminder rescheduled between Due and Claim stays queued.
var claimScript = redis.NewScript(`
local score = redis.call('ZSCORE', KEYS[1], ARGV[1])
if score and tonumber(score) <= tonumber(ARGV[2]) then
	return redis.call('ZREM', KEYS[1], ARGV[1])
end
return 0
`)

// Claim removes userKey from the queue if it is due at now. Only the caller
// that actually removed it gets true, which makes delivery exactly-once
// across instances.
func (s *Store) Claim(ctx context.Context, userKey string, now time.Time) (bool, error) {
	n, err := claimScript.Run(ctx, s.redis, []string{dueKey}, userKey, now.UnixMilli()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
