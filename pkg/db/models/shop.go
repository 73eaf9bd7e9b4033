package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shop represents an owner-managed storefront. Product membership lives in
// ShopProduct rows; a shop lists products it does not necessarily own.
type Shop struct {
	ID          uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string        `gorm:"column:name;not null"`
	Description *string       `gorm:"column:description"`
	Image       *string       `gorm:"column:image"`
	OwnerID     uuid.UUID     `gorm:"column:owner_id;type:uuid;not null;index"`
	Products    []ShopProduct `gorm:"foreignKey:ShopID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Shop) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ShopProduct is the membership row binding a product into a shop's list. The
// composite unique index makes membership a set: adding twice is a no-op.
type ShopProduct struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID    uuid.UUID `gorm:"column:shop_id;type:uuid;not null;uniqueIndex:idx_shop_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_shop_product"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (sp *ShopProduct) BeforeCreate(tx *gorm.DB) error {
	if sp.ID == uuid.Nil {
		sp.ID = uuid.New()
	}
	return nil
}
