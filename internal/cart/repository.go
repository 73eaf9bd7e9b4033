package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marketloop/marketloop-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository wires together cart persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByUser loads the user's cart with its items.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).Preload("Items").First(&cart, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateForUser inserts an empty cart row for the user.
func (r *Repository) CreateForUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart := models.Cart{UserID: userID}
	if err := r.db.WithContext(ctx).Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindItem loads the line for a product in the cart, if present.
func (r *Repository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		First(&item, "cart_id = ? AND product_id = ?", cartID, productID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new line with quantity 1.
func (r *Repository) CreateItem(ctx context.Context, cartID, productID uuid.UUID) error {
	item := models.CartItem{CartID: cartID, ProductID: productID, Quantity: 1}
	return r.db.WithContext(ctx).Create(&item).Error
}

// IncrementItem bumps the line quantity by one.
func (r *Repository) IncrementItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		UpdateColumn("quantity", gorm.Expr("quantity + 1")).Error
}

// DeleteItem removes the line for a product. Reports whether a row existed.
func (r *Repository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ClearItems removes every line from the cart, leaving the cart row behind.
func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// IsNotFound reports whether err is a gorm record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
