package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix = "availability:"
	ttl       = time.Minute
)

// Availability caches venue slot availability derived from bookings. One
// hash per venue lets every entry for that venue be dropped with a single DEL.
// A nil client turns every call into a no-op.
type Availability struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewAvailability(client redis.Cmdable) *Availability {
	return &Availability{client: client, ttl: ttl}
}

func venueKey(venueID int) string {
	return keyPrefix + strconv.Itoa(venueID)
}

func slotField(bookingType string, date time.Time) string {
	return fmt.Sprintf("%s:%d", bookingType, date.UTC().Unix())
}

// Get returns the cached value and whether it was present.
func (c *Availability) Get(ctx context.Context, venueID int, bookingType string, date time.Time) (bool, bool) {
	if c == nil || c.client == nil {
		return false, false
	}
	val, err := c.client.HGet(ctx, venueKey(venueID), slotField(bookingType, date)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("availability cache read failed", zap.Int("venueID", venueID), zap.Error(err))
		}
		return false, false
	}
	return val == "1", true
}

func (c *Availability) Set(ctx context.Context, venueID int, bookingType string, date time.Time, available bool) {
	if c == nil || c.client == nil {
		return
	}
	val := "0"
	if available {
		val = "1"
	}
	key := venueKey(venueID)
	if err := c.client.HSet(ctx, key, slotField(bookingType, date), val).Err(); err != nil {
		zap.L().Warn("availability cache write failed", zap.Int("venueID", venueID), zap.Error(err))
		return
	}
	if err := c.client.Expire(ctx, key, c.ttl).Err(); err != nil {
		zap.L().Warn("availability cache expire failed", zap.Int("venueID", venueID), zap.Error(err))
	}
}

func (c *Availability) InvalidateVenue(ctx context.Context, venueID int) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, venueKey(venueID)).Err(); err != nil {
		zap.L().Warn("availability cache invalidate failed", zap.Int("venueID", venueID), zap.Error(err))
	}
}

// NewRedisClient returns nil when addr is empty or the server does not answer.
func NewRedisClient(ctx context.Context, addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		zap.L().Warn("redis unavailable, availability cache disabled", zap.String("addr", addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}
