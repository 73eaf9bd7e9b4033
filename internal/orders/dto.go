package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketloop/marketloop-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// AddressDTO is a postal address block on an order.
type AddressDTO struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// LineItemDTO is one resolved order line. Name and Price come from the current
// product row, so they drift if the product is edited after purchase; a line
// whose product was deleted keeps only the id reference.
type LineItemDTO struct {
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Name      *string          `json:"name,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// OrderDTO is the public order shape. Card details never leave the service
// layer; only the payment method marker is exposed.
type OrderDTO struct {
	ID            uuid.UUID     `json:"id"`
	UserID        uuid.UUID     `json:"user_id"`
	Billing       AddressDTO    `json:"billing"`
	Shipping      AddressDTO    `json:"shipping"`
	PaymentMethod string        `json:"payment_method"`
	Items         []LineItemDTO `json:"items"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ToDTO maps an order row plus the current product rows to the public shape.
func ToDTO(o *models.Order, products map[uuid.UUID]models.Product) *OrderDTO {
	if o == nil {
		return nil
	}
	items := make([]LineItemDTO, 0, len(o.Items))
	for _, line := range o.Items {
		item := LineItemDTO{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		}
		if p, ok := products[line.ProductID]; ok {
			name := p.Name
			price := p.Price
			item.Name = &name
			item.Price = &price
		}
		items = append(items, item)
	}
	return &OrderDTO{
		ID:     o.ID,
		UserID: o.UserID,
		Billing: AddressDTO{
			Street:  o.BillingStreet,
			City:    o.BillingCity,
			State:   o.BillingState,
			Zip:     o.BillingZip,
			Country: o.BillingCountry,
		},
		Shipping: AddressDTO{
			Street:  o.ShippingStreet,
			City:    o.ShippingCity,
			State:   o.ShippingState,
			Zip:     o.ShippingZip,
			Country: o.ShippingCountry,
		},
		PaymentMethod: o.PaymentMethod,
		Items:         items,
		CreatedAt:     o.CreatedAt,
	}
}
