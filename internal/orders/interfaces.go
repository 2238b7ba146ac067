package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arunmurugan-dev/kadai-backend/pkg/db/models"
	"github.com/arunmurugan-dev/kadai-backend/pkg/enums"
)

// StateFilter pins a conditional write to the order's expected prior state.
// A transition whose filter no longer matches affects zero rows instead of
// clobbering a concurrent one.
type StateFilter struct {
	PaymentStatus *enums.PaymentStatus
	OrderStatusIn []enums.OrderStatus
}

// Repository is the persistence surface for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	NextOrderNumber(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	// CompareAndSwap applies updates only where the filter still matches,
	// returning the number of rows affected.
	CompareAndSwap(ctx context.Context, orderID uuid.UUID, filter StateFilter, updates map[string]any) (int64, error)
	FindStaleGatewayOrderIDs(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
	// ExpireByIDs flips the still pending/pending subset of ids to
	// cancelled/expired and returns the ids it actually changed.
	ExpireByIDs(ctx context.Context, ids []uuid.UUID, now time.Time) ([]uuid.UUID, error)
}
