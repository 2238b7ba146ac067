package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/arunmurugan-dev/kadai-backend/pkg/logger"
)

// Kind names the lifecycle transition a notification announces.
type Kind string

const (
	KindOrderCreated   Kind = "order.created"
	KindOrderPaid      Kind = "order.paid"
	KindPaymentFailed  Kind = "order.payment_failed"
	KindOrderShipped   Kind = "order.shipped"
	KindOrderDelivered Kind = "order.delivered"
	KindOrderCancelled Kind = "order.cancelled"
	KindOrderExpired   Kind = "order.expired"
)

// Event carries what the sender needs to compose a message.
type Event struct {
	Kind        Kind
	OrderID     uuid.UUID
	OrderNumber int64
	Meta        map[string]string
}

// Sender delivers a customer-facing notification. Implementations are
// fire-and-forget from the engine's perspective.
type Sender interface {
	Send(ctx context.Context, event Event) error
}

// Dispatch invokes the sender and swallows the error; a lost notification
// must never fail a lifecycle transition.
func Dispatch(ctx context.Context, logg *logger.Logger, sender Sender, event Event) {
	if sender == nil {
		return
	}
	if err := sender.Send(ctx, event); err != nil && logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"kind":     string(event.Kind),
			"order_id": event.OrderID.String(),
		})
		logg.Warn(ctx, fmt.Sprintf("notification send failed: %v", err))
	}
}

// LogSender writes notifications to the structured log. It stands in for the
// external email/SMS provider in environments without one configured.
type LogSender struct {
	logg *logger.Logger
}

// NewLogSender builds a log-backed sender.
func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, event Event) error {
	if s.logg == nil {
		return nil
	}
	fields := map[string]any{
		"kind":         string(event.Kind),
		"order_id":     event.OrderID.String(),
		"order_number": event.OrderNumber,
	}
	for k, v := range event.Meta {
		fields[k] = v
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "notification dispatched")
	return nil
}
