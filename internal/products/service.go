package product

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketloop/marketloop-backend/pkg/db"
	"github.com/marketloop/marketloop-backend/pkg/db/models"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// CreateProductInput holds the validated payload to create a listing.
type CreateProductInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Quantity    int
	Category    *string
	Image       *string
}

// UpdateProductInput holds optional mutation values for a listing.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Quantity    *int
	Category    *string
	Image       *string
}

// Service exposes catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, params ListParams) ([]ProductDTO, error)
	UpdateProduct(ctx context.Context, userID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, userID, productID uuid.UUID) error
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) CreateProduct(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}

	row := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Quantity:    input.Quantity,
		Category:    input.Category,
		Image:       input.Image,
		CreatedBy:   userID,
	}

	created, err := s.repo.Create(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return ToDTO(created), nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return ToDTO(row), nil
}

func (s *service) ListProducts(ctx context.Context, params ListParams) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return ToDTOs(rows), nil
}

// UpdateProduct applies partial changes. A missing product and someone else's
// product both answer not-found, so the catalog never confirms which it was.
func (s *service) UpdateProduct(ctx context.Context, userID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	row, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		row.Name = *input.Name
	}
	if input.Description != nil {
		row.Description = input.Description
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		row.Price = *input.Price
	}
	if input.Quantity != nil {
		if err := validateQuantity(*input.Quantity); err != nil {
			return nil, err
		}
		row.Quantity = *input.Quantity
	}
	if input.Category != nil {
		row.Category = input.Category
	}
	if input.Image != nil {
		row.Image = input.Image
	}

	updated, err := s.repo.Update(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return ToDTO(updated), nil
}

// DeleteProduct removes a listing and scrubs every shop and cart referencing
// it, all inside one transaction.
func (s *service) DeleteProduct(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return err
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		var cascadeErr error
		cascadeErr = multierr.Append(cascadeErr, txRepo.RemoveFromShops(ctx, productID))
		cascadeErr = multierr.Append(cascadeErr, txRepo.RemoveFromCarts(ctx, productID))
		if cascadeErr != nil {
			return cascadeErr
		}
		return txRepo.Delete(ctx, productID)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func (s *service) ownedProduct(ctx context.Context, userID, productID uuid.UUID) (*models.Product, error) {
	row, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if row.CreatedBy != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return row, nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	return nil
}
