package notify

import (
	"context"
	"time"

	"github.com/fixboard/fixboard/pkg/models"
)

// Notification event types enqueued by the API handlers.
const (
	TypeBidPlaced     = "bid.placed"
	TypeBidAccepted   = "bid.accepted"
	TypeBidRejected   = "bid.rejected"
	TypeQuoteSent     = "quote.sent"
	TypeQuoteAccepted = "quote.accepted"
	TypeMessagePosted = "message.posted"
)

// Sender delivers one notification. Delivery is best-effort; returning an
// error makes the worker retry with backoff until max attempts.
type Sender func(ctx context.Context, n *models.Notification) error

// BackoffDuration returns exponential backoff duration for attempt n
func BackoffDuration(attempt int) time.Duration {
	if attempt <= 0 {
		return time.Second
	}
	// simple exponential: base 2^attempt seconds, capped
	d := time.Duration(1<<uint(attempt)) * time.Second
	max := 5 * time.Minute
	if d > max {
		return max
	}
	return d
}
