package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arunmurugan-dev/kadai-backend/internal/notifications"
	"github.com/arunmurugan-dev/kadai-backend/pkg/enums"
	pkgerrors "github.com/arunmurugan-dev/kadai-backend/pkg/errors"
	"github.com/arunmurugan-dev/kadai-backend/pkg/logger"
)

// Service governs everything that happens to an order after creation: payment
// reconciliation, shipment, cancellation, and the expiry sweep.
type Service interface {
	MarkPaid(ctx context.Context, input PaymentEventInput) error
	MarkFailed(ctx context.Context, input PaymentEventInput) error
	Ship(ctx context.Context, input ShipInput) error
	MarkDelivered(ctx context.Context, orderID uuid.UUID) error
	Cancel(ctx context.Context, orderID uuid.UUID) error
	ExpireStale(ctx context.Context) (int64, error)
	Detail(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error)
}

// PaymentEventInput identifies the order a gateway event refers to.
type PaymentEventInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
}

// ShipInput carries the carrier metadata attached at shipment time.
type ShipInput struct {
	OrderID           uuid.UUID
	TrackingNumber    string
	TrackingCourier   string
	EstimatedDelivery *time.Time
}

// ServiceParams wire the lifecycle service dependencies.
type ServiceParams struct {
	Logger      *logger.Logger
	Repo        Repository
	Notifier    notifications.Sender
	SweepWindow time.Duration
	SweepBatch  int
	Now         func() time.Time
}

type service struct {
	logg        *logger.Logger
	repo        Repository
	notifier    notifications.Sender
	sweepWindow time.Duration
	sweepBatch  int
	now         func() time.Time
}

const defaultSweepWindow = 24 * time.Hour

// NewService builds the order lifecycle service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	window := params.SweepWindow
	if window <= 0 {
		window = defaultSweepWindow
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		logg:        params.Logger,
		repo:        params.Repo,
		notifier:    params.Notifier,
		sweepWindow: window,
		sweepBatch:  params.SweepBatch,
		now:         now,
	}, nil
}

func (s *service) MarkPaid(ctx context.Context, input PaymentEventInput) error {
	order, err := s.findByGatewayID(ctx, input.GatewayOrderID)
	if err != nil {
		return err
	}

	pending := enums.PaymentStatusPending
	updates := map[string]any{
		"payment_status": enums.PaymentStatusPaid,
		"order_status":   enums.OrderStatusProcessing,
	}
	if input.GatewayPaymentID != "" {
		updates["gateway_payment_id"] = input.GatewayPaymentID
	}

	affected, err := s.repo.CompareAndSwap(ctx, order.ID, StateFilter{
		PaymentStatus: &pending,
		OrderStatusIn: []enums.OrderStatus{enums.OrderStatusPending},
	}, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply payment capture")
	}
	if affected == 0 {
		// Duplicate or out-of-order delivery; an order the sweep already
		// expired stays expired.
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(logCtx, "payment capture ignored; order not in pending state")
		return nil
	}

	notifications.Dispatch(ctx, s.logg, s.notifier, notifications.Event{
		Kind:        notifications.KindOrderPaid,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
	})
	return nil
}

func (s *service) MarkFailed(ctx context.Context, input PaymentEventInput) error {
	order, err := s.findByGatewayID(ctx, input.GatewayOrderID)
	if err != nil {
		return err
	}

	pending := enums.PaymentStatusPending
	updates := map[string]any{
		"payment_status": enums.PaymentStatusFailed,
	}
	if input.GatewayPaymentID != "" {
		updates["gateway_payment_id"] = input.GatewayPaymentID
	}

	affected, err := s.repo.CompareAndSwap(ctx, order.ID, StateFilter{
		PaymentStatus: &pending,
		OrderStatusIn: []enums.OrderStatus{enums.OrderStatusPending},
	}, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply payment failure")
	}
	if affected == 0 {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(logCtx, "payment failure ignored; order not in pending state")
		return nil
	}

	notifications.Dispatch(ctx, s.logg, s.notifier, notifications.Event{
		Kind:        notifications.KindPaymentFailed,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
	})
	return nil
}

func (s *service) Ship(ctx context.Context, input ShipInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.TrackingNumber == "" || input.TrackingCourier == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "tracking number and courier required")
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	now := s.now().UTC()
	paid := enums.PaymentStatusPaid
	updates := map[string]any{
		"order_status":     enums.OrderStatusShipped,
		"tracking_number":  input.TrackingNumber,
		"tracking_courier": input.TrackingCourier,
		"shipped_at":       now,
	}
	if input.EstimatedDelivery != nil {
		updates["estimated_delivery"] = *input.EstimatedDelivery
	}

	affected, err := s.repo.CompareAndSwap(ctx, order.ID, StateFilter{
		PaymentStatus: &paid,
		OrderStatusIn: []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusProcessing},
	}, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order shipped")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order must be paid and unshipped to ship")
	}

	notifications.Dispatch(ctx, s.logg, s.notifier, notifications.Event{
		Kind:        notifications.KindOrderShipped,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Meta: map[string]string{
			"tracking_number":  input.TrackingNumber,
			"tracking_courier": input.TrackingCourier,
		},
	})
	return nil
}

func (s *service) MarkDelivered(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	affected, err := s.repo.CompareAndSwap(ctx, order.ID, StateFilter{
		OrderStatusIn: []enums.OrderStatus{enums.OrderStatusShipped},
	}, map[string]any{
		"order_status": enums.OrderStatusDelivered,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order delivered")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only shipped orders can be delivered")
	}

	notifications.Dispatch(ctx, s.logg, s.notifier, notifications.Event{
		Kind:        notifications.KindOrderDelivered,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
	})
	return nil
}

func (s *service) Cancel(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	now := s.now().UTC()
	affected, err := s.repo.CompareAndSwap(ctx, order.ID, StateFilter{
		OrderStatusIn: []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusProcessing},
	}, map[string]any{
		"order_status": enums.OrderStatusCancelled,
		"cancelled_at": now,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
	}

	notifications.Dispatch(ctx, s.logg, s.notifier, notifications.Event{
		Kind:        notifications.KindOrderCancelled,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
	})
	return nil
}

// ExpireStale sweeps gateway orders stuck in pending/pending past the window
// into cancelled/expired. Idempotent: a second pass matches nothing.
func (s *service) ExpireStale(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	cutoff := now.Add(-s.sweepWindow)

	ids, err := s.repo.FindStaleGatewayOrderIDs(ctx, cutoff, s.sweepBatch)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "select stale orders")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	// Notify on the ids that actually flipped, not the selection; an order
	// paid between select and update must not hear it expired.
	expired, err := s.repo.ExpireByIDs(ctx, ids, now)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire stale orders")
	}

	for _, id := range expired {
		notifications.Dispatch(ctx, s.logg, s.notifier, notifications.Event{
			Kind:    notifications.KindOrderExpired,
			OrderID: id,
		})
	}

	count := int64(len(expired))
	logCtx := s.logg.WithFields(ctx, map[string]any{"count": count, "cutoff": cutoff})
	s.logg.Info(logCtx, "expiry sweep complete")
	return count, nil
}

func (s *service) Detail(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return detailFromModel(order), nil
}

func (s *service) findByGatewayID(ctx context.Context, gatewayOrderID string) (*orderRef, error) {
	if gatewayOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id required")
	}
	order, err := s.repo.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for gateway id")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by gateway id")
	}
	return &orderRef{ID: order.ID, OrderNumber: order.OrderNumber}, nil
}

type orderRef struct {
	ID          uuid.UUID
	OrderNumber int64
}
