package notify

import (
	"fmt"
	"log/slog"
	"time"
)

// Mailer delivers a rendered message.
type Mailer interface {
	Send(msg *Message) error
}

// DeliveryResult reports the outcome of one notification batch.
type DeliveryResult struct {
	Delivered bool
	Count     int
}

// Gateway batches new postings into one email per run.
type Gateway struct {
	mailer Mailer // nil when mail is not configured
	logger *slog.Logger
	now    func() time.Time
}

// NewGateway creates a Gateway. mailer may be nil; batches are then skipped
// (reported as undelivered) so postings stay eligible for the next run.
func NewGateway(mailer Mailer, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{mailer: mailer, logger: logger, now: time.Now}
}

// Notify sends the batch as a single message. An empty batch is a successful
// no-op. Delivery failure is returned so the caller leaves the postings
// unnotified for the next run.
func (g *Gateway) Notify(items []Item) (*DeliveryResult, error) {
	if len(items) == 0 {
		return &DeliveryResult{Delivered: true, Count: 0}, nil
	}
	if g.mailer == nil {
		g.logger.Warn("notify: mail not configured, batch skipped", "count", len(items))
		return &DeliveryResult{Delivered: false, Count: len(items)}, nil
	}

	msg := BuildMessage(items, g.now())
	if err := g.mailer.Send(msg); err != nil {
		return &DeliveryResult{Delivered: false, Count: len(items)},
			fmt.Errorf("notify: %w", err)
	}
	g.logger.Info("notify: batch delivered", "count", len(items))
	return &DeliveryResult{Delivered: true, Count: len(items)}, nil
}
