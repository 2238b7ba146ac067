package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/arunmurugan-dev/kadai-backend/api/responses"
	"github.com/arunmurugan-dev/kadai-backend/api/validators"
	checkoutsvc "github.com/arunmurugan-dev/kadai-backend/internal/checkout"
	"github.com/arunmurugan-dev/kadai-backend/pkg/enums"
	pkgerrors "github.com/arunmurugan-dev/kadai-backend/pkg/errors"
	"github.com/arunmurugan-dev/kadai-backend/pkg/logger"
	"github.com/arunmurugan-dev/kadai-backend/pkg/types"
)

type checkoutItem struct {
	ProductID            uuid.UUID  `json:"product_id" validate:"required"`
	VariantID            *uuid.UUID `json:"variant_id,omitempty"`
	Name                 string     `json:"name" validate:"required"`
	Quantity             int        `json:"quantity" validate:"required,min=1"`
	UnitPricePaise       int64      `json:"unit_price_paise" validate:"min=0"`
	FreeShippingEligible bool       `json:"free_shipping_eligible"`
}

type checkoutRequest struct {
	Items         []checkoutItem `json:"items" validate:"required,min=1,dive"`
	CustomerState string         `json:"customer_state" validate:"required"`
	PostalCode    string         `json:"postal_code" validate:"required,len=6"`
	PaymentMethod string         `json:"payment_method,omitempty" validate:"omitempty,oneof=gateway cod"`
}

func (req checkoutRequest) toInput() checkoutsvc.Input {
	items := make([]types.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, types.CartItem{
			ProductID:            item.ProductID,
			VariantID:            item.VariantID,
			Name:                 item.Name,
			Quantity:             item.Quantity,
			UnitPricePaise:       item.UnitPricePaise,
			FreeShippingEligible: item.FreeShippingEligible,
		})
	}
	return checkoutsvc.Input{
		Cart:          types.Cart{Items: items},
		CustomerState: req.CustomerState,
		PostalCode:    req.PostalCode,
		PaymentMethod: enums.PaymentMethod(req.PaymentMethod),
	}
}

// Checkout prices the submitted cart and creates the order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CheckoutQuote prices the cart without creating an order, so storefronts can
// show totals and nearest-miss nudges while the customer is still shopping.
func CheckoutQuote(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}
