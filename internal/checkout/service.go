package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	order "github.com/marketloop/marketloop-backend/internal/orders"
	product "github.com/marketloop/marketloop-backend/internal/products"
	"github.com/marketloop/marketloop-backend/pkg/db"
	"github.com/marketloop/marketloop-backend/pkg/db/models"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
	"github.com/marketloop/marketloop-backend/pkg/logger"
	"gorm.io/gorm"
)

// LineInput is one product/quantity pair from the caller's cart snapshot.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// AddressInput is one postal address block on a checkout request.
type AddressInput struct {
	Street  string
	City    string
	State   string
	Zip     string
	Country string
}

// CardInput carries opaque card fields. Nothing is charged or verified.
type CardInput struct {
	Name   string
	Number string
	Expiry string
}

// Input is the validated checkout payload. Lines is the client's snapshot of
// its cart; the server-side cart is left untouched and the client clears it
// once the order is confirmed.
type Input struct {
	Lines         []LineInput
	Billing       AddressInput
	Shipping      AddressInput
	PaymentMethod string
	Card          *CardInput
}

// Service turns a cart snapshot into an immutable order. Stock is decremented
// atomically per line inside one transaction; any shortfall rolls the whole
// attempt back.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input Input) (*order.OrderDTO, error)
}

type service struct {
	productRepo *product.Repository
	orderRepo   *order.Repository
	orderSvc    order.Service
	dbClient    *db.Client
	logg        *logger.Logger
}

// NewService constructs a checkout service instance.
func NewService(productRepo *product.Repository, orderRepo *order.Repository, orderSvc order.Service, dbClient *db.Client, logg *logger.Logger) (Service, error) {
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		orderSvc:    orderSvc,
		dbClient:    dbClient,
		logg:        logg,
	}, nil
}

func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input Input) (*order.OrderDTO, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart contains no items")
	}
	for _, line := range input.Lines {
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be at least 1").
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
	}
	if err := validatePayment(input); err != nil {
		return nil, err
	}

	var orderID uuid.UUID
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txProducts := s.productRepo.WithTx(tx)
		txOrders := s.orderRepo.WithTx(tx)

		for _, line := range input.Lines {
			if _, err := txProducts.FindByID(ctx, line.ProductID); err != nil {
				if product.IsNotFound(err) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
						WithDetails(map[string]any{"product_id": line.ProductID.String()})
				}
				return err
			}

			ok, err := txProducts.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
					WithDetails(map[string]any{
						"product_id": line.ProductID.String(),
						"requested":  line.Quantity,
					})
			}
		}

		row := buildOrder(userID, input)
		created, err := txOrders.Create(ctx, row)
		if err != nil {
			return err
		}
		orderID = created.ID
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checkout")
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, orderID.String())
		s.logg.Info(logCtx, "checkout.completed")
	}

	return s.orderSvc.GetOrder(ctx, orderID)
}

func buildOrder(userID uuid.UUID, input Input) *models.Order {
	row := &models.Order{
		UserID: userID,

		BillingStreet:  input.Billing.Street,
		BillingCity:    input.Billing.City,
		BillingState:   input.Billing.State,
		BillingZip:     input.Billing.Zip,
		BillingCountry: input.Billing.Country,

		ShippingStreet:  input.Shipping.Street,
		ShippingCity:    input.Shipping.City,
		ShippingState:   input.Shipping.State,
		ShippingZip:     input.Shipping.Zip,
		ShippingCountry: input.Shipping.Country,

		PaymentMethod: input.PaymentMethod,
	}
	if input.Card != nil {
		name, number, expiry := input.Card.Name, input.Card.Number, input.Card.Expiry
		row.CardName = &name
		row.CardNumber = &number
		row.CardExpiry = &expiry
	}

	items := make([]models.OrderLineItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		items = append(items, models.OrderLineItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	row.Items = items
	return row
}

func validatePayment(input Input) error {
	switch input.PaymentMethod {
	case models.PaymentMethodCard:
		if input.Card == nil || input.Card.Name == "" || input.Card.Number == "" || input.Card.Expiry == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "card details are required for card payment")
		}
	case models.PaymentMethodPickup:
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	return nil
}
