package shop

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marketloop/marketloop-backend/pkg/db/models"
	"github.com/marketloop/marketloop-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository wires together shop persistence helpers.
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

// Create inserts a new shop row.
func (r *Repository) Create(ctx context.Context, shop *models.Shop) (*models.Shop, error) {
	if err := r.db.WithContext(ctx).Create(shop).Error; err != nil {
		return nil, err
	}
	return shop, nil
}

// FindByID loads a shop with its product memberships.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).Preload("Products").First(&shop, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// List returns shops ordered by creation time.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Shop, error) {
	params = pagination.Normalize(params)
	var shops []models.Shop
	err := r.db.WithContext(ctx).
		Preload("Products").
		Order("created_at ASC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&shops).Error
	if err != nil {
		return nil, err
	}
	return shops, nil
}

// Update persists the full shop row.
func (r *Repository) Update(ctx context.Context, shop *models.Shop) (*models.Shop, error) {
	if err := r.db.WithContext(ctx).Omit("Products").Save(shop).Error; err != nil {
		return nil, err
	}
	return shop, nil
}

// Delete removes a shop and its membership rows.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("shop_id = ?", id).Delete(&models.ShopProduct{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&models.Shop{}).Error
}

// AddProduct binds a product into the shop's list. Membership is a set, so a
// second add of the same product is a no-op.
func (r *Repository) AddProduct(ctx context.Context, shopID, productID uuid.UUID) error {
	row := models.ShopProduct{ShopID: shopID, ProductID: productID}
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND product_id = ?", shopID, productID).
		FirstOrCreate(&row).Error
	return err
}

// RemoveProduct drops a product from the shop's list. Reports whether a row
// was actually removed.
func (r *Repository) RemoveProduct(ctx context.Context, shopID, productID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("shop_id = ? AND product_id = ?", shopID, productID).
		Delete(&models.ShopProduct{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReassignProductCreators stamps the owner as creator of the given products.
func (r *Repository) ReassignProductCreators(ctx context.Context, productIDs []uuid.UUID, ownerID uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id IN ?", productIDs).
		UpdateColumn("created_by", ownerID).Error
}

// IsNotFound reports whether err is a gorm record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
