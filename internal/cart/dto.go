package cart

import (
	"github.com/google/uuid"
	"github.com/marketloop/marketloop-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// CartItemDTO is one resolved line. Name and Price reflect the product row at
// read time; a line whose product was deleted keeps only the id reference.
type CartItemDTO struct {
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Name      *string          `json:"name,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Image     *string          `json:"image,omitempty"`
}

// CartDTO is the public cart shape.
type CartDTO struct {
	ID    *uuid.UUID    `json:"id,omitempty"`
	Items []CartItemDTO `json:"items"`
}

// EmptyCartDTO is what a user without a cart row sees.
func EmptyCartDTO() *CartDTO {
	return &CartDTO{Items: []CartItemDTO{}}
}

func toDTO(cart *models.Cart, products map[uuid.UUID]models.Product) *CartDTO {
	if cart == nil {
		return EmptyCartDTO()
	}
	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, line := range cart.Items {
		item := CartItemDTO{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		}
		if p, ok := products[line.ProductID]; ok {
			name := p.Name
			price := p.Price
			item.Name = &name
			item.Price = &price
			item.Image = p.Image
		}
		items = append(items, item)
	}
	id := cart.ID
	return &CartDTO{ID: &id, Items: items}
}
