package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/janlord02/thryft-backend-sub000/internal/model"
)

// EventCouponStatusChanged is the realtime event name consumers subscribe to.
const EventCouponStatusChanged = "CouponStatusChanged"

// StatusEvent is the realtime payload published when a claim changes status.
type StatusEvent struct {
	Event         string              `json:"event"`
	ClaimedCoupon model.ClaimedCoupon `json:"claimed_coupon"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// StatusPublisher pushes claim status changes to connected consumer clients.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, claim model.ClaimedCoupon) error
}

// RedisPublisher is the subset of *redis.Client used for Pub/Sub.
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisStatusPublisher publishes StatusEvents on a per-user redis channel.
type RedisStatusPublisher struct {
	client RedisPublisher
	now    func() time.Time
}

// NewRedisStatusPublisher creates a publisher over client.
func NewRedisStatusPublisher(client RedisPublisher) *RedisStatusPublisher {
	return &RedisStatusPublisher{client: client, now: time.Now}
}

// UserChannel is the redis channel carrying a consumer's coupon events.
func UserChannel(userID int64) string {
	return fmt.Sprintf("users.%d.coupons", userID)
}

// PublishStatus publishes a CouponStatusChanged event for the claim's consumer.
func (p *RedisStatusPublisher) PublishStatus(ctx context.Context, claim model.ClaimedCoupon) error {
	payload, err := json.Marshal(StatusEvent{
		Event:         EventCouponStatusChanged,
		ClaimedCoupon: claim,
		OccurredAt:    p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	channel := UserChannel(claim.UserID)
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// NopStatusPublisher discards events. Used when redis is not configured.
type NopStatusPublisher struct{}

// PublishStatus does nothing.
func (NopStatusPublisher) PublishStatus(context.Context, model.ClaimedCoupon) error { return nil }
