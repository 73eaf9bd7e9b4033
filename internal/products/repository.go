package product

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marketloop/marketloop-backend/pkg/db/models"
	"github.com/marketloop/marketloop-backend/pkg/pagination"
	"gorm.io/gorm"
)

// ListParams filters catalog listings.
type ListParams struct {
	Category  *string
	CreatedBy *uuid.UUID
	Page      pagination.Params
}

// Repository wires together product persistence helpers.
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

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads a product by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads products for the given identifiers, skipping missing ones.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// List returns catalog rows ordered by creation time, optionally filtered.
func (r *Repository) List(ctx context.Context, params ListParams) ([]models.Product, error) {
	page := pagination.Normalize(params.Page)
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if params.Category != nil && *params.Category != "" {
		query = query.Where("category = ?", *params.Category)
	}
	if params.CreatedBy != nil && *params.CreatedBy != uuid.Nil {
		query = query.Where("created_by = ?", *params.CreatedBy)
	}

	var products []models.Product
	err := query.
		Order("created_at ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Update persists the full product row.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

// RemoveFromShops drops the product from every shop listing it.
func (r *Repository) RemoveFromShops(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.ShopProduct{}).Error
}

// RemoveFromCarts drops the product from every cart holding it.
func (r *Repository) RemoveFromCarts(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.CartItem{}).Error
}

// DecrementStock atomically subtracts qty when enough stock remains. It
// reports false without touching the row when the floor would be crossed.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", productID, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// IsNotFound reports whether err is a gorm record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
