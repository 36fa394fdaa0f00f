// Package presence tracks which users currently hold a live event
// connection. Entries expire on their own, so a crashed instance cannot
// leave users permanently "online".
package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 90 * time.Second

// Tracker stores online flags in Redis with a TTL refreshed by heartbeats.
type Tracker struct {
	rdb *redis.Client
	ttl time.Duration
}

// Option configures Tracker.
type Option func(*Tracker)

// WithTTL overrides how long an online flag survives without a heartbeat.
func WithTTL(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.ttl = d
		}
	}
}

// NewTracker wraps an existing Redis client.
func NewTracker(rdb *redis.Client, opts ...Option) *Tracker {
	t := &Tracker{rdb: rdb, ttl: defaultTTL}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func key(userID string) string { return "presence:" + userID }

// SetOnline flags the user online for the configured TTL.
func (t *Tracker) SetOnline(ctx context.Context, userID string) error {
	return t.rdb.Set(ctx, key(userID), "1", t.ttl).Err()
}

// Heartbeat extends the online flag. It is equivalent to SetOnline and
// exists for readability at the call site.
func (t *Tracker) Heartbeat(ctx context.Context, userID string) error {
	return t.SetOnline(ctx, userID)
}

// SetOffline removes the online flag immediately.
func (t *Tracker) SetOffline(ctx context.Context, userID string) error {
	return t.rdb.Del(ctx, key(userID)).Err()
}

// IsOnline reports whether the user currently holds an unexpired flag.
func (t *Tracker) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := t.rdb.Exists(ctx, key(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Online filters the given ids down to the ones currently online,
// preserving order.
func (t *Tracker) Online(ctx context.Context, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	pipe := t.rdb.Pipeline()
	cmds := make([]*redis.IntCmd, len(userIDs))
	for i, id := range userIDs {
		cmds[i] = pipe.Exists(ctx, key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	var out []string
	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			out = append(out, userIDs[i])
		}
	}
	return out, nil
}
