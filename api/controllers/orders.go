package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/marketloop/marketloop-backend/api/responses"
	"github.com/marketloop/marketloop-backend/api/validators"
	checkoutsvc "github.com/marketloop/marketloop-backend/internal/checkout"
	ordersvc "github.com/marketloop/marketloop-backend/internal/orders"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
	"github.com/marketloop/marketloop-backend/pkg/logger"
)

type addressRequest struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Zip     string `json:"zip" validate:"required"`
	Country string `json:"country" validate:"required"`
}

type cardRequest struct {
	Name   string `json:"name" validate:"required"`
	Number string `json:"number" validate:"required"`
	Expiry string `json:"expiry" validate:"required"`
}

type paymentRequest struct {
	Method string       `json:"method" validate:"required,oneof=card pickup"`
	Card   *cardRequest `json:"card,omitempty"`
}

type lineItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type createOrderRequest struct {
	LineItems       []lineItemRequest `json:"line_items"`
	BillingAddress  addressRequest    `json:"billing_address" validate:"required"`
	ShippingAddress addressRequest    `json:"shipping_address" validate:"required"`
	Payment         paymentRequest    `json:"payment" validate:"required"`
}

// CreateOrder runs checkout over the submitted cart snapshot.
func CreateOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkoutsvc.Input{
			Billing:       toAddressInput(payload.BillingAddress),
			Shipping:      toAddressInput(payload.ShippingAddress),
			PaymentMethod: payload.Payment.Method,
		}
		if payload.Payment.Card != nil {
			input.Card = &checkoutsvc.CardInput{
				Name:   payload.Payment.Card.Name,
				Number: payload.Payment.Card.Number,
				Expiry: payload.Payment.Card.Expiry,
			}
		}
		for _, line := range payload.LineItems {
			input.Lines = append(input.Lines, checkoutsvc.LineInput{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			})
		}

		order, err := svc.Checkout(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// ListOrders returns the caller's order history, oldest first.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := paginationFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListOrders(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orders)
	}
}

// GetOrder returns one order by id.
func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

func toAddressInput(a addressRequest) checkoutsvc.AddressInput {
	return checkoutsvc.AddressInput{
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		Zip:     a.Zip,
		Country: a.Country,
	}
}
