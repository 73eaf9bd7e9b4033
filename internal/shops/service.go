package shop

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	product "github.com/marketloop/marketloop-backend/internal/products"
	"github.com/marketloop/marketloop-backend/pkg/db"
	"github.com/marketloop/marketloop-backend/pkg/db/models"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
	"github.com/marketloop/marketloop-backend/pkg/pagination"
	"gorm.io/gorm"
)

// CreateShopInput holds the validated payload to open a storefront.
type CreateShopInput struct {
	Name        string
	Description *string
	Image       *string
	ProductIDs  []uuid.UUID
}

// UpdateShopInput holds optional mutation values for a storefront.
type UpdateShopInput struct {
	Name        *string
	Description *string
	Image       *string
}

// Service exposes storefront management operations.
type Service interface {
	CreateShop(ctx context.Context, ownerID uuid.UUID, input CreateShopInput) (*ShopDTO, error)
	GetShop(ctx context.Context, id uuid.UUID) (*ShopDTO, error)
	ListShops(ctx context.Context, params pagination.Params) ([]ShopDTO, error)
	UpdateShop(ctx context.Context, userID, shopID uuid.UUID, input UpdateShopInput) (*ShopDTO, error)
	DeleteShop(ctx context.Context, userID, shopID uuid.UUID) error
	AddProduct(ctx context.Context, shopID, productID uuid.UUID) (*ShopDTO, error)
	RemoveProduct(ctx context.Context, userID, shopID, productID uuid.UUID) (*ShopDTO, error)
}

type service struct {
	repo        *Repository
	productRepo *product.Repository
	dbClient    *db.Client
}

// NewService constructs a shop service instance.
func NewService(repo *Repository, productRepo *product.Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, productRepo: productRepo, dbClient: dbClient}, nil
}

// CreateShop opens a storefront. When seed product ids are supplied, each
// product is bound into the shop and its creator is re-stamped to the shop
// owner, mirroring the legacy system this service replaces.
func (s *service) CreateShop(ctx context.Context, ownerID uuid.UUID, input CreateShopInput) (*ShopDTO, error) {
	seedIDs, err := s.resolveSeedProducts(ctx, input.ProductIDs)
	if err != nil {
		return nil, err
	}

	var createdID uuid.UUID
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		row := &models.Shop{
			Name:        input.Name,
			Description: input.Description,
			Image:       input.Image,
			OwnerID:     ownerID,
		}
		created, err := txRepo.Create(ctx, row)
		if err != nil {
			return err
		}
		createdID = created.ID

		for _, productID := range seedIDs {
			if err := txRepo.AddProduct(ctx, created.ID, productID); err != nil {
				return err
			}
		}
		return txRepo.ReassignProductCreators(ctx, seedIDs, ownerID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create shop")
	}

	return s.GetShop(ctx, createdID)
}

func (s *service) GetShop(ctx context.Context, id uuid.UUID) (*ShopDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shop")
	}
	return s.toDTO(ctx, row)
}

func (s *service) ListShops(ctx context.Context, params pagination.Params) ([]ShopDTO, error) {
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list shops")
	}

	out := make([]ShopDTO, 0, len(rows))
	for i := range rows {
		dto, err := s.toDTO(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *dto)
	}
	return out, nil
}

// UpdateShop applies partial changes. Only the owner may mutate a storefront.
func (s *service) UpdateShop(ctx context.Context, userID, shopID uuid.UUID, input UpdateShopInput) (*ShopDTO, error) {
	row, err := s.ownedShop(ctx, userID, shopID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		row.Name = *input.Name
	}
	if input.Description != nil {
		row.Description = input.Description
	}
	if input.Image != nil {
		row.Image = input.Image
	}

	if _, err := s.repo.Update(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update shop")
	}
	return s.GetShop(ctx, shopID)
}

// DeleteShop removes the storefront and its membership rows. Products listed
// by the shop survive; only the bindings go away.
func (s *service) DeleteShop(ctx context.Context, userID, shopID uuid.UUID) error {
	if _, err := s.ownedShop(ctx, userID, shopID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, shopID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete shop")
	}
	return nil
}

// AddProduct binds an existing product into the shop's list. Any
// authenticated user may do this, not just the owner; the legacy API worked
// the same way and storefront curation relies on it.
func (s *service) AddProduct(ctx context.Context, shopID, productID uuid.UUID) (*ShopDTO, error) {
	if _, err := s.repo.FindByID(ctx, shopID); err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shop")
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if product.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	if err := s.repo.AddProduct(ctx, shopID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add product to shop")
	}
	return s.GetShop(ctx, shopID)
}

// RemoveProduct drops a product from the shop's list. Owner only.
func (s *service) RemoveProduct(ctx context.Context, userID, shopID, productID uuid.UUID) (*ShopDTO, error) {
	if _, err := s.ownedShop(ctx, userID, shopID); err != nil {
		return nil, err
	}

	removed, err := s.repo.RemoveProduct(ctx, shopID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove product from shop")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in shop")
	}
	return s.GetShop(ctx, shopID)
}

func (s *service) ownedShop(ctx context.Context, userID, shopID uuid.UUID) (*models.Shop, error) {
	row, err := s.repo.FindByID(ctx, shopID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shop")
	}
	if row.OwnerID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the shop owner")
	}
	return row, nil
}

func (s *service) resolveSeedProducts(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seed products")
	}
	if len(rows) != len(dedupe(ids)) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "one or more products not found")
	}
	out := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ID)
	}
	return out, nil
}

func (s *service) toDTO(ctx context.Context, row *models.Shop) (*ShopDTO, error) {
	products, err := s.productRepo.FindByIDs(ctx, membershipProductIDs(row))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve shop products")
	}
	return ToDTO(row, products), nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
