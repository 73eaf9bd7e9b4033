package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment method markers stored on an order.
const (
	PaymentMethodCard   = "card"
	PaymentMethodPickup = "pickup"
)

// Order is the immutable record produced by checkout. Line items reference
// products by id only; name and price are resolved against the current product
// row at read time, so displayed details drift if the product is later edited.
type Order struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`

	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`

	BillingStreet  string `gorm:"column:billing_street;not null"`
	BillingCity    string `gorm:"column:billing_city;not null"`
	BillingState   string `gorm:"column:billing_state;not null"`
	BillingZip     string `gorm:"column:billing_zip;not null"`
	BillingCountry string `gorm:"column:billing_country;not null"`

	ShippingStreet  string `gorm:"column:shipping_street;not null"`
	ShippingCity    string `gorm:"column:shipping_city;not null"`
	ShippingState   string `gorm:"column:shipping_state;not null"`
	ShippingZip     string `gorm:"column:shipping_zip;not null"`
	ShippingCountry string `gorm:"column:shipping_country;not null"`

	// Payment fields are opaque strings; nothing is validated or charged.
	PaymentMethod string  `gorm:"column:payment_method;not null"`
	CardName      *string `gorm:"column:card_name"`
	CardNumber    *string `gorm:"column:card_number"`
	CardExpiry    *string `gorm:"column:card_expiry"`

	Items []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderLineItem snapshots a cart line at checkout: product reference plus
// quantity, nothing else.
type OrderLineItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (li *OrderLineItem) BeforeCreate(tx *gorm.DB) error {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}
	return nil
}
