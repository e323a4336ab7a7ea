package notify

import (
	"context"
	"fmt"

	"github.com/janlord02/thryft-backend-sub000/internal/model"
)

// Emitter turns ledger events into queued deliveries.
// It never uses the caller's context: requests end before their tasks run.
type Emitter struct {
	queue     Submitter
	notifier  Notifier
	publisher StatusPublisher
}

// NewEmitter creates an Emitter. A nil publisher disables realtime events.
func NewEmitter(queue Submitter, notifier Notifier, publisher StatusPublisher) *Emitter {
	if publisher == nil {
		publisher = NopStatusPublisher{}
	}
	return &Emitter{queue: queue, notifier: notifier, publisher: publisher}
}

// CouponClaimed alerts the coupon's business owner.
func (e *Emitter) CouponClaimed(_ context.Context, coupon *model.Coupon, claim *model.ClaimedCoupon) {
	if coupon.OwnerUserID <= 0 {
		return
	}
	msg := Notification{
		RecipientUserID: coupon.OwnerUserID,
		Title:           "Coupon Claimed",
		Message:         fmt.Sprintf("Your coupon %q (%s) was just claimed by a customer.", claim.CouponTitle, claim.CouponCode),
		Data: map[string]any{
			"type":              "coupon_claimed",
			"coupon_id":         claim.CouponID,
			"claimed_coupon_id": claim.ID,
			"customer_id":       claim.UserID,
			"used_count":        coupon.UsedCount,
		},
		Channel: ChannelDatabase,
	}
	e.queue.Submit("notify.coupon_claimed", func(ctx context.Context) error {
		return e.notifier.Notify(ctx, msg)
	})
}

// ClaimStatusChanged tells the consumer their claim moved to a new status,
// both as a stored notification and as a realtime event.
func (e *Emitter) ClaimStatusChanged(_ context.Context, claim *model.ClaimedCoupon) {
	snapshot := *claim
	title, message := statusMessage(&snapshot)

	msg := Notification{
		RecipientUserID: snapshot.UserID,
		Title:           title,
		Message:         message,
		Data: map[string]any{
			"type":              "coupon_status_changed",
			"claimed_coupon_id": snapshot.ID,
			"coupon_id":         snapshot.CouponID,
			"status":            snapshot.Status,
		},
		Channel: ChannelDatabase,
		Urgent:  snapshot.Status == model.ClaimStatusUsed,
	}
	e.queue.Submit("notify.claim_status_changed", func(ctx context.Context) error {
		return e.notifier.Notify(ctx, msg)
	})
	e.queue.Submit("publish.coupon_status_changed", func(ctx context.Context) error {
		return e.publisher.PublishStatus(ctx, snapshot)
	})
}

func statusMessage(c *model.ClaimedCoupon) (string, string) {
	switch c.Status {
	case model.ClaimStatusUsed:
		return "Coupon Redeemed", fmt.Sprintf("Your coupon %q (%s) has been redeemed.", c.CouponTitle, c.CouponCode)
	case model.ClaimStatusCancelled:
		return "Coupon Cancelled", fmt.Sprintf("Your coupon %q (%s) has been cancelled.", c.CouponTitle, c.CouponCode)
	case model.ClaimStatusExpired:
		return "Coupon Expired", fmt.Sprintf("Your coupon %q (%s) has expired.", c.CouponTitle, c.CouponCode)
	}
	return "Coupon Updated", fmt.Sprintf("Your coupon %q (%s) is now %s.", c.CouponTitle, c.CouponCode, c.Status)
}
