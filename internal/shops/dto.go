package shop

import (
	"time"

	"github.com/google/uuid"
	product "github.com/marketloop/marketloop-backend/internal/products"
	"github.com/marketloop/marketloop-backend/pkg/db/models"
)

// ShopDTO is the public storefront shape. Products carries the resolved
// listings currently bound to the shop.
type ShopDTO struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name"`
	Description *string              `json:"description,omitempty"`
	Image       *string              `json:"image,omitempty"`
	OwnerID     uuid.UUID            `json:"owner_id"`
	Products    []product.ProductDTO `json:"products"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ToDTO maps a shop row plus its resolved products to the public shape.
func ToDTO(s *models.Shop, products []models.Product) *ShopDTO {
	if s == nil {
		return nil
	}
	return &ShopDTO{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Image:       s.Image,
		OwnerID:     s.OwnerID,
		Products:    product.ToDTOs(products),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func membershipProductIDs(s *models.Shop) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Products))
	for _, m := range s.Products {
		ids = append(ids, m.ProductID)
	}
	return ids
}
