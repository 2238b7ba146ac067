package razorpaywebhook

import (
	"context"
	"encoding/json"

	"github.com/arunmurugan-dev/kadai-backend/internal/orders"
	pkgerrors "github.com/arunmurugan-dev/kadai-backend/pkg/errors"
	"github.com/arunmurugan-dev/kadai-backend/pkg/logger"
)

// Gateway event names the engine reacts to. Everything else is acknowledged
// and logged so the gateway stops retrying.
const (
	EventPaymentCaptured   = "payment.captured"
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentFailed     = "payment.failed"
	EventOrderPaid         = "order.paid"
)

// Event is the decoded webhook envelope.
type Event struct {
	Name    string  `json:"event"`
	Payload Payload `json:"payload"`
}

// Payload carries the entities a payment event refers to.
type Payload struct {
	Payment *EntityWrapper `json:"payment,omitempty"`
	Order   *EntityWrapper `json:"order,omitempty"`
}

// EntityWrapper matches the gateway's {"entity": {...}} nesting.
type EntityWrapper struct {
	Entity Entity `json:"entity"`
}

// Entity is the subset of gateway entity fields the engine reads.
type Entity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// ParseEvent decodes a raw webhook body into an Event.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload")
	}
	if event.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook event name missing")
	}
	return &event, nil
}

// ServiceParams wire the webhook service dependencies.
type ServiceParams struct {
	Logger *logger.Logger
	Orders orders.Service
}

// Service maps gateway events onto order lifecycle transitions.
type Service struct {
	logg   *logger.Logger
	orders orders.Service
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	return &Service{
		logg:   params.Logger,
		orders: params.Orders,
	}, nil
}

// HandleEvent applies the event's transition. Out-of-order and duplicate
// deliveries no-op inside the orders service, so returning nil here always
// means "acknowledged", not "state changed".
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook event required")
	}

	switch event.Name {
	case EventPaymentCaptured, EventPaymentAuthorized:
		input, err := paymentInput(event)
		if err != nil {
			return err
		}
		return s.orders.MarkPaid(ctx, input)
	case EventPaymentFailed:
		input, err := paymentInput(event)
		if err != nil {
			return err
		}
		return s.orders.MarkFailed(ctx, input)
	case EventOrderPaid:
		if event.Payload.Order == nil || event.Payload.Order.Entity.ID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "order entity missing")
		}
		input := orders.PaymentEventInput{GatewayOrderID: event.Payload.Order.Entity.ID}
		if event.Payload.Payment != nil {
			input.GatewayPaymentID = event.Payload.Payment.Entity.ID
		}
		return s.orders.MarkPaid(ctx, input)
	default:
		logCtx := s.logg.WithField(ctx, "event", event.Name)
		s.logg.Info(logCtx, "unhandled gateway event acknowledged")
		return nil
	}
}

func paymentInput(event *Event) (orders.PaymentEventInput, error) {
	if event.Payload.Payment == nil || event.Payload.Payment.Entity.OrderID == "" {
		return orders.PaymentEventInput{}, pkgerrors.New(pkgerrors.CodeValidation, "payment entity missing")
	}
	return orders.PaymentEventInput{
		GatewayOrderID:   event.Payload.Payment.Entity.OrderID,
		GatewayPaymentID: event.Payload.Payment.Entity.ID,
	}, nil
}
