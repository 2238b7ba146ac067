package checkout

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arunmurugan-dev/kadai-backend/internal/campaigns"
	"github.com/arunmurugan-dev/kadai-backend/internal/notifications"
	"github.com/arunmurugan-dev/kadai-backend/internal/orders"
	"github.com/arunmurugan-dev/kadai-backend/internal/shipping"
	"github.com/arunmurugan-dev/kadai-backend/internal/tax"
	"github.com/arunmurugan-dev/kadai-backend/pkg/db/models"
	"github.com/arunmurugan-dev/kadai-backend/pkg/enums"
	pkgerrors "github.com/arunmurugan-dev/kadai-backend/pkg/errors"
	"github.com/arunmurugan-dev/kadai-backend/pkg/logger"
	"github.com/arunmurugan-dev/kadai-backend/pkg/razorpay"
	"github.com/arunmurugan-dev/kadai-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type campaignLister interface {
	ListLive(ctx context.Context, now time.Time) ([]models.Campaign, error)
}

type taxSettingsLoader interface {
	ActiveSettings(ctx context.Context) (*models.TaxSettings, error)
}

type shippingRuleLister interface {
	ListEnabled(ctx context.Context) ([]models.ShippingRule, error)
}

type gatewayClient interface {
	CreateOrder(ctx context.Context, params razorpay.OrderCreateParams) (*razorpay.Order, error)
}

// Service prices a cart and converts it into an order.
type Service interface {
	Execute(ctx context.Context, input Input) (*Result, error)
	Quote(ctx context.Context, input Input) (*Quote, error)
}

// Input is the caller-supplied cart and destination.
type Input struct {
	Cart          types.Cart
	CustomerState string
	PostalCode    string
	PaymentMethod enums.PaymentMethod
}

// Quote is the priced view of a cart before any order exists.
type Quote struct {
	SubtotalPaise  int64                  `json:"subtotal_paise"`
	DiscountPaise  int64                  `json:"discount_paise"`
	ShippingPaise  int64                  `json:"shipping_paise"`
	TaxPaise       int64                  `json:"tax_paise"`
	TotalPaise     int64                  `json:"total_paise"`
	Campaign       *types.AppliedCampaign `json:"campaign,omitempty"`
	NearestMiss    *campaigns.NearestMiss `json:"nearest_miss,omitempty"`
	TaxBreakdown   *types.TaxBreakdown    `json:"tax_breakdown,omitempty"`
	ShippingCharge *types.ShippingCharge  `json:"shipping_charge,omitempty"`
}

// Result is the created order plus its quote.
type Result struct {
	Quote
	OrderID        uuid.UUID           `json:"order_id"`
	OrderNumber    int64               `json:"order_number"`
	GatewayOrderID *string             `json:"gateway_order_id,omitempty"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	OrderStatus    enums.OrderStatus   `json:"order_status"`
}

// ServiceParams wire the checkout service dependencies.
type ServiceParams struct {
	Logger     *logger.Logger
	Tx         txRunner
	Orders     orders.Repository
	Campaigns  campaignLister
	Tax        taxSettingsLoader
	Shipping   shippingRuleLister
	Gateway    gatewayClient
	Notifier   notifications.Sender
	StoreState string
	Now        func() time.Time
}

type service struct {
	logg       *logger.Logger
	tx         txRunner
	orders     orders.Repository
	campaigns  campaignLister
	tax        taxSettingsLoader
	shipping   shippingRuleLister
	gateway    gatewayClient
	notifier   notifications.Sender
	storeState string
	now        func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Campaigns == nil {
		return nil, fmt.Errorf("campaign lister required")
	}
	if params.Tax == nil {
		return nil, fmt.Errorf("tax settings loader required")
	}
	if params.Shipping == nil {
		return nil, fmt.Errorf("shipping rule lister required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		logg:       params.Logger,
		tx:         params.Tx,
		orders:     params.Orders,
		campaigns:  params.Campaigns,
		tax:        params.Tax,
		shipping:   params.Shipping,
		gateway:    params.Gateway,
		notifier:   params.Notifier,
		storeState: params.StoreState,
		now:        now,
	}, nil
}

// Quote prices the cart without creating anything.
func (s *service) Quote(ctx context.Context, input Input) (*Quote, error) {
	quote, err := s.price(ctx, input)
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// Execute prices the cart, opens a gateway order when the payment method
// needs one, and persists the order with its pricing snapshots.
func (s *service) Execute(ctx context.Context, input Input) (*Result, error) {
	method := input.PaymentMethod
	if method == "" {
		method = enums.PaymentMethodGateway
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method")
	}

	quote, err := s.price(ctx, input)
	if err != nil {
		return nil, err
	}

	number, err := s.orders.NextOrderNumber(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
	}

	// The gateway order is opened before the local transaction; an orphaned
	// gateway order from a failed commit simply expires unpaid.
	var gatewayOrderID *string
	if method == enums.PaymentMethodGateway {
		gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.OrderCreateParams{
			AmountPaise: quote.TotalPaise,
			Currency:    "INR",
			Receipt:     strconv.FormatInt(number, 10),
		})
		if err != nil {
			return nil, err
		}
		gatewayOrderID = &gatewayOrder.ID
	}

	order := &models.Order{
		OrderNumber:        number,
		CustomerState:      input.CustomerState,
		CustomerPostalCode: input.PostalCode,
		SubtotalPaise:      quote.SubtotalPaise,
		DiscountPaise:      quote.DiscountPaise,
		ShippingPaise:      quote.ShippingPaise,
		TaxPaise:           quote.TaxPaise,
		TotalPaise:         quote.TotalPaise,
		Campaign:           quote.Campaign,
		TaxBreakdown:       quote.TaxBreakdown,
		ShippingCharge:     quote.ShippingCharge,
		PaymentMethod:      method,
		PaymentStatus:      enums.PaymentStatusPending,
		OrderStatus:        enums.OrderStatusPending,
		GatewayOrderID:     gatewayOrderID,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)

		created, err := ordersRepo.Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		order = created

		items := make([]models.OrderItem, 0, len(input.Cart.Items))
		for _, line := range input.Cart.Items {
			if line.Quantity <= 0 {
				continue
			}
			items = append(items, models.OrderItem{
				OrderID:        created.ID,
				ProductID:      line.ProductID,
				VariantID:      line.VariantID,
				Name:           line.Name,
				Quantity:       line.Quantity,
				UnitPricePaise: line.UnitPricePaise,
				TotalPaise:     line.TotalPaise(),
			})
		}
		if err := ordersRepo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifications.Dispatch(ctx, s.logg, s.notifier, notifications.Event{
		Kind:        notifications.KindOrderCreated,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
	})

	return &Result{
		Quote:          *quote,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		GatewayOrderID: order.GatewayOrderID,
		PaymentMethod:  order.PaymentMethod,
		PaymentStatus:  order.PaymentStatus,
		OrderStatus:    order.OrderStatus,
	}, nil
}

func (s *service) price(ctx context.Context, input Input) (*Quote, error) {
	if input.Cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	for _, line := range input.Cart.Items {
		if line.UnitPricePaise < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
		}
	}

	now := s.now().UTC()
	subtotal := input.Cart.SubtotalPaise()

	live, err := s.campaigns.ListLive(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaigns")
	}
	evaluation := campaigns.Evaluate(now, input.Cart, live)

	quote := &Quote{
		SubtotalPaise: subtotal,
		NearestMiss:   evaluation.Nearest,
	}
	if evaluation.Applied != nil {
		quote.DiscountPaise = evaluation.Applied.DiscountPaise
		quote.Campaign = &types.AppliedCampaign{
			ID:            evaluation.Applied.Campaign.ID,
			Name:          evaluation.Applied.Campaign.Name,
			DiscountType:  evaluation.Applied.Campaign.DiscountType,
			Value:         evaluation.Applied.Campaign.DiscountValue.String(),
			DiscountPaise: evaluation.Applied.DiscountPaise,
		}
	}

	settings, err := s.taxSettings(ctx)
	if err != nil {
		return nil, err
	}
	breakdown, err := tax.Calculate(tax.Input{
		Items:         input.Cart.Items,
		DiscountPaise: quote.DiscountPaise,
		CustomerState: input.CustomerState,
	}, settings)
	if err != nil {
		return nil, err
	}
	quote.TaxBreakdown = breakdown
	quote.TaxPaise = breakdown.TotalPaise

	rules, err := s.shipping.ListEnabled(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping rules")
	}
	flags := make([]bool, 0, len(input.Cart.Items))
	for _, line := range input.Cart.Items {
		if line.Quantity <= 0 {
			continue
		}
		flags = append(flags, line.FreeShippingEligible)
	}
	charge, err := shipping.Calculate(shipping.Input{
		PostalCode:        input.PostalCode,
		State:             input.CustomerState,
		TotalQuantity:     input.Cart.TotalQuantity(),
		FreeShippingFlags: flags,
	}, rules)
	if err != nil {
		return nil, err
	}
	if charge.Fallback {
		s.logg.Warn(ctx, "no shipping rule matched; fallback rate applied")
	}
	quote.ShippingCharge = charge
	quote.ShippingPaise = charge.AmountPaise

	goods := subtotal - quote.DiscountPaise
	if goods < 0 {
		goods = 0
	}
	if breakdown.PriceInclusive {
		// Tax already lives inside the goods amount.
		quote.TotalPaise = goods + quote.ShippingPaise
	} else {
		quote.TotalPaise = goods + quote.ShippingPaise + quote.TaxPaise
	}

	return quote, nil
}

// taxSettings loads the active row, falling back to the documented defaults
// when none is configured.
func (s *service) taxSettings(ctx context.Context) (tax.Settings, error) {
	row, err := s.tax.ActiveSettings(ctx)
	if err != nil {
		return tax.Settings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tax settings")
	}
	if row == nil {
		s.logg.Warn(ctx, "no active tax settings; defaulting to 18% exclusive")
		return tax.DefaultSettings(s.storeState), nil
	}
	return tax.SettingsFromModel(row), nil
}
