package orders

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arunmurugan-dev/kadai-backend/internal/notifications"
	"github.com/arunmurugan-dev/kadai-backend/pkg/db/models"
	"github.com/arunmurugan-dev/kadai-backend/pkg/enums"
	pkgerrors "github.com/arunmurugan-dev/kadai-backend/pkg/errors"
	"github.com/arunmurugan-dev/kadai-backend/pkg/logger"
)

type stubRepo struct {
	orders map[uuid.UUID]*models.Order
	byGw   map[string]*models.Order

	casAffected int64
	casErr      error
	casFilters  []StateFilter
	casUpdates  []map[string]any

	staleIDs    []uuid.UUID
	staleCutoff time.Time
	expiredIDs  []uuid.UUID
	expireCalls int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		orders: map[uuid.UUID]*models.Order{},
		byGw:   map[string]*models.Order{},
	}
}

func (r *stubRepo) add(order *models.Order) {
	r.orders[order.ID] = order
	if order.GatewayOrderID != nil {
		r.byGw[*order.GatewayOrderID] = order
	}
}

func (r *stubRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	r.add(order)
	return order, nil
}

func (r *stubRepo) CreateItems(ctx context.Context, items []models.OrderItem) error { return nil }

func (r *stubRepo) NextOrderNumber(ctx context.Context) (int64, error) { return 1001, nil }

func (r *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (r *stubRepo) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	order, ok := r.byGw[gatewayOrderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (r *stubRepo) CompareAndSwap(ctx context.Context, orderID uuid.UUID, filter StateFilter, updates map[string]any) (int64, error) {
	r.casFilters = append(r.casFilters, filter)
	r.casUpdates = append(r.casUpdates, updates)
	return r.casAffected, r.casErr
}

func (r *stubRepo) FindStaleGatewayOrderIDs(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	r.staleCutoff = cutoff
	return r.staleIDs, nil
}

func (r *stubRepo) ExpireByIDs(ctx context.Context, ids []uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	r.expireCalls++
	return r.expiredIDs, nil
}

type recordingSender struct {
	events []notifications.Event
}

func (s *recordingSender) Send(ctx context.Context, event notifications.Event) error {
	s.events = append(s.events, event)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T, repo Repository, sender notifications.Sender) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:      testLogger(),
		Repo:        repo,
		Notifier:    sender,
		SweepWindow: 24 * time.Hour,
		Now:         func() time.Time { return time.Date(2025, 8, 16, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func gatewayOrder(gwID string) *models.Order {
	return &models.Order{
		ID:             uuid.New(),
		OrderNumber:    1042,
		GatewayOrderID: &gwID,
		PaymentStatus:  enums.PaymentStatusPending,
		OrderStatus:    enums.OrderStatusPending,
	}
}

func errCode(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	return typed.Code()
}

func TestMarkPaidTransitionsAndNotifies(t *testing.T) {
	repo := newStubRepo()
	repo.casAffected = 1
	order := gatewayOrder("order_rzp123")
	repo.add(order)
	sender := &recordingSender{}
	svc := newTestService(t, repo, sender)

	err := svc.MarkPaid(context.Background(), PaymentEventInput{
		GatewayOrderID:   "order_rzp123",
		GatewayPaymentID: "pay_abc",
	})
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}

	if len(repo.casUpdates) != 1 {
		t.Fatalf("expected one conditional write, got %d", len(repo.casUpdates))
	}
	updates := repo.casUpdates[0]
	if updates["payment_status"] != enums.PaymentStatusPaid {
		t.Errorf("payment_status = %v", updates["payment_status"])
	}
	if updates["order_status"] != enums.OrderStatusProcessing {
		t.Errorf("order_status = %v", updates["order_status"])
	}
	if updates["gateway_payment_id"] != "pay_abc" {
		t.Errorf("gateway_payment_id = %v", updates["gateway_payment_id"])
	}

	if len(sender.events) != 1 || sender.events[0].Kind != notifications.KindOrderPaid {
		t.Fatalf("expected order.paid notification, got %+v", sender.events)
	}
}

func TestMarkPaidDuplicateIsNoOp(t *testing.T) {
	repo := newStubRepo()
	repo.casAffected = 0
	repo.add(gatewayOrder("order_dup"))
	sender := &recordingSender{}
	svc := newTestService(t, repo, sender)

	// Already-paid or already-expired orders match zero rows. The webhook is
	// acknowledged without touching anything.
	if err := svc.MarkPaid(context.Background(), PaymentEventInput{GatewayOrderID: "order_dup"}); err != nil {
		t.Fatalf("duplicate MarkPaid should not error: %v", err)
	}
	if len(sender.events) != 0 {
		t.Fatalf("no notification expected, got %+v", sender.events)
	}
}

func TestMarkPaidUnknownGatewayID(t *testing.T) {
	svc := newTestService(t, newStubRepo(), nil)

	err := svc.MarkPaid(context.Background(), PaymentEventInput{GatewayOrderID: "order_missing"})
	if code := errCode(t, err); code != pkgerrors.CodeNotFound {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeNotFound)
	}

	err = svc.MarkPaid(context.Background(), PaymentEventInput{})
	if code := errCode(t, err); code != pkgerrors.CodeValidation {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeValidation)
	}
}

func TestMarkFailedSetsFailedOnly(t *testing.T) {
	repo := newStubRepo()
	repo.casAffected = 1
	repo.add(gatewayOrder("order_fail"))
	sender := &recordingSender{}
	svc := newTestService(t, repo, sender)

	if err := svc.MarkFailed(context.Background(), PaymentEventInput{GatewayOrderID: "order_fail"}); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	updates := repo.casUpdates[0]
	if updates["payment_status"] != enums.PaymentStatusFailed {
		t.Errorf("payment_status = %v", updates["payment_status"])
	}
	if _, ok := updates["order_status"]; ok {
		t.Errorf("payment failure must not change order status")
	}
	if len(sender.events) != 1 || sender.events[0].Kind != notifications.KindPaymentFailed {
		t.Fatalf("expected payment_failed notification, got %+v", sender.events)
	}
}

// guardedRepo applies the state filter against the stored order the way the
// database would, so sequence tests see real conditional-write outcomes.
type guardedRepo struct {
	*stubRepo
}

func (r *guardedRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *guardedRepo) CompareAndSwap(ctx context.Context, orderID uuid.UUID, filter StateFilter, updates map[string]any) (int64, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return 0, nil
	}
	if filter.PaymentStatus != nil && order.PaymentStatus != *filter.PaymentStatus {
		return 0, nil
	}
	if len(filter.OrderStatusIn) > 0 {
		matched := false
		for _, status := range filter.OrderStatusIn {
			if order.OrderStatus == status {
				matched = true
				break
			}
		}
		if !matched {
			return 0, nil
		}
	}
	if v, ok := updates["payment_status"]; ok {
		order.PaymentStatus = v.(enums.PaymentStatus)
	}
	if v, ok := updates["order_status"]; ok {
		order.OrderStatus = v.(enums.OrderStatus)
	}
	return 1, nil
}

func TestPaymentWebhooksNeverMutateCancelledOrder(t *testing.T) {
	repo := &guardedRepo{stubRepo: newStubRepo()}
	order := gatewayOrder("order_late")
	order.OrderStatus = enums.OrderStatusCancelled
	repo.add(order)
	sender := &recordingSender{}
	svc := newTestService(t, repo, sender)

	// A gateway retry landing after the operator cancelled must be
	// acknowledged without touching the order.
	if err := svc.MarkFailed(context.Background(), PaymentEventInput{GatewayOrderID: "order_late"}); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("payment_status = %s, cancelled order was mutated", order.PaymentStatus)
	}

	if err := svc.MarkPaid(context.Background(), PaymentEventInput{GatewayOrderID: "order_late"}); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if order.PaymentStatus != enums.PaymentStatusPending || order.OrderStatus != enums.OrderStatusCancelled {
		t.Fatalf("order moved to %s/%s after webhooks", order.PaymentStatus, order.OrderStatus)
	}
	if len(sender.events) != 0 {
		t.Fatalf("no notification expected, got %+v", sender.events)
	}
}

func TestShipRequiresTrackingMetadata(t *testing.T) {
	svc := newTestService(t, newStubRepo(), nil)

	err := svc.Ship(context.Background(), ShipInput{OrderID: uuid.New(), TrackingCourier: "DTDC"})
	if code := errCode(t, err); code != pkgerrors.CodeValidation {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeValidation)
	}
}

func TestShipHappyPath(t *testing.T) {
	repo := newStubRepo()
	repo.casAffected = 1
	order := gatewayOrder("order_ship")
	repo.add(order)
	sender := &recordingSender{}
	svc := newTestService(t, repo, sender)

	eta := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	err := svc.Ship(context.Background(), ShipInput{
		OrderID:           order.ID,
		TrackingNumber:    "AWB123456",
		TrackingCourier:   "DTDC",
		EstimatedDelivery: &eta,
	})
	if err != nil {
		t.Fatalf("Ship: %v", err)
	}

	filter := repo.casFilters[0]
	if filter.PaymentStatus == nil || *filter.PaymentStatus != enums.PaymentStatusPaid {
		t.Errorf("ship must require a paid order, filter = %+v", filter)
	}
	updates := repo.casUpdates[0]
	if updates["order_status"] != enums.OrderStatusShipped {
		t.Errorf("order_status = %v", updates["order_status"])
	}
	if updates["tracking_number"] != "AWB123456" {
		t.Errorf("tracking_number = %v", updates["tracking_number"])
	}
	if updates["estimated_delivery"] != eta {
		t.Errorf("estimated_delivery = %v", updates["estimated_delivery"])
	}
	if len(sender.events) != 1 || sender.events[0].Kind != notifications.KindOrderShipped {
		t.Fatalf("expected order.shipped notification, got %+v", sender.events)
	}
}

func TestShipStateConflict(t *testing.T) {
	repo := newStubRepo()
	repo.casAffected = 0
	order := gatewayOrder("order_unpaid")
	repo.add(order)
	svc := newTestService(t, repo, nil)

	err := svc.Ship(context.Background(), ShipInput{
		OrderID:         order.ID,
		TrackingNumber:  "AWB1",
		TrackingCourier: "DTDC",
	})
	if code := errCode(t, err); code != pkgerrors.CodeStateConflict {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeStateConflict)
	}
}

func TestMarkDeliveredOnlyFromShipped(t *testing.T) {
	repo := newStubRepo()
	repo.casAffected = 0
	order := gatewayOrder("order_proc")
	repo.add(order)
	svc := newTestService(t, repo, nil)

	err := svc.MarkDelivered(context.Background(), order.ID)
	if code := errCode(t, err); code != pkgerrors.CodeStateConflict {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeStateConflict)
	}

	repo.casAffected = 1
	sender := &recordingSender{}
	svc = newTestService(t, repo, sender)
	if err := svc.MarkDelivered(context.Background(), order.ID); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	if len(sender.events) != 1 || sender.events[0].Kind != notifications.KindOrderDelivered {
		t.Fatalf("expected order.delivered notification, got %+v", sender.events)
	}
}

func TestCancelSetsTimestamp(t *testing.T) {
	repo := newStubRepo()
	repo.casAffected = 1
	order := gatewayOrder("order_cancel")
	repo.add(order)
	sender := &recordingSender{}
	svc := newTestService(t, repo, sender)

	if err := svc.Cancel(context.Background(), order.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	updates := repo.casUpdates[0]
	if updates["order_status"] != enums.OrderStatusCancelled {
		t.Errorf("order_status = %v", updates["order_status"])
	}
	if _, ok := updates["cancelled_at"]; !ok {
		t.Errorf("cancelled_at missing from updates")
	}
	if len(sender.events) != 1 || sender.events[0].Kind != notifications.KindOrderCancelled {
		t.Fatalf("expected order.cancelled notification, got %+v", sender.events)
	}
}

func TestCancelNotFound(t *testing.T) {
	svc := newTestService(t, newStubRepo(), nil)

	err := svc.Cancel(context.Background(), uuid.New())
	if code := errCode(t, err); code != pkgerrors.CodeNotFound {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeNotFound)
	}
}

func TestExpireStaleSweepsOnce(t *testing.T) {
	repo := newStubRepo()
	repo.staleIDs = []uuid.UUID{uuid.New(), uuid.New()}
	repo.expiredIDs = repo.staleIDs
	sender := &recordingSender{}
	svc := newTestService(t, repo, sender)

	count, err := svc.ExpireStale(context.Background())
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	wantCutoff := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	if !repo.staleCutoff.Equal(wantCutoff) {
		t.Errorf("cutoff = %v, want %v", repo.staleCutoff, wantCutoff)
	}
	if len(sender.events) != 2 {
		t.Fatalf("expected one notification per expired order, got %d", len(sender.events))
	}
	for _, event := range sender.events {
		if event.Kind != notifications.KindOrderExpired {
			t.Errorf("kind = %s", event.Kind)
		}
	}

	// Second pass finds nothing and must not call ExpireByIDs again.
	repo.staleIDs = nil
	count, err = svc.ExpireStale(context.Background())
	if err != nil {
		t.Fatalf("second ExpireStale: %v", err)
	}
	if count != 0 {
		t.Fatalf("second pass count = %d, want 0", count)
	}
	if repo.expireCalls != 1 {
		t.Fatalf("ExpireByIDs called %d times, want 1", repo.expireCalls)
	}
}

func TestExpireStaleNotifiesOnlyFlippedOrders(t *testing.T) {
	repo := newStubRepo()
	repo.staleIDs = []uuid.UUID{uuid.New(), uuid.New()}
	// One of the selected orders was paid between select and update, so the
	// conditional write only flipped the other.
	repo.expiredIDs = repo.staleIDs[:1]
	sender := &recordingSender{}
	svc := newTestService(t, repo, sender)

	count, err := svc.ExpireStale(context.Background())
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if len(sender.events) != 1 || sender.events[0].OrderID != repo.staleIDs[0] {
		t.Fatalf("notifications = %+v", sender.events)
	}
}

func TestDetail(t *testing.T) {
	repo := newStubRepo()
	order := gatewayOrder("order_detail")
	order.SubtotalPaise = 500000
	order.TotalPaise = 590000
	repo.add(order)
	svc := newTestService(t, repo, nil)

	detail, err := svc.Detail(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if detail.OrderNumber != order.OrderNumber {
		t.Errorf("order_number = %d, want %d", detail.OrderNumber, order.OrderNumber)
	}
	if detail.TotalPaise != 590000 {
		t.Errorf("total = %d", detail.TotalPaise)
	}

	_, err = svc.Detail(context.Background(), uuid.New())
	if code := errCode(t, err); code != pkgerrors.CodeNotFound {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeNotFound)
	}
}
