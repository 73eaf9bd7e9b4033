package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	product "github.com/marketloop/marketloop-backend/internal/products"
	"github.com/marketloop/marketloop-backend/pkg/db/models"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
)

// Service exposes cart ledger operations. The cart is created lazily on first
// add; checkout and clear empty it but never delete the row.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
}

type service struct {
	repo        *Repository
	productRepo *product.Repository
}

// NewService constructs a cart service instance.
func NewService(repo *Repository, productRepo *product.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, productRepo: productRepo}, nil
}

// GetCart returns the resolved cart. A user who never added anything gets an
// empty view without a cart row being created.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	row, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return EmptyCartDTO(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return s.resolve(ctx, row)
}

// AddItem puts one unit of the product into the cart: a new line at quantity
// 1, or an increment when the product is already present.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if product.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	row, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if !IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		row, err = s.repo.CreateForUser(ctx, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
		}
	}

	item, err := s.repo.FindItem(ctx, row.ID, productID)
	switch {
	case err == nil:
		if err := s.repo.IncrementItem(ctx, item.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment cart item")
		}
	case IsNotFound(err):
		if err := s.repo.CreateItem(ctx, row.ID, productID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart item")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}

	return s.GetCart(ctx, userID)
}

// RemoveItem deletes the product's line outright regardless of quantity.
// Removing something that is not in the cart succeeds and changes nothing.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	row, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return EmptyCartDTO(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	if _, err := s.repo.DeleteItem(ctx, row.ID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}

	return s.GetCart(ctx, userID)
}

// ClearCart empties the cart. Clearing a cart that does not exist is a no-op.
func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	row, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return EmptyCartDTO(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	if err := s.repo.ClearItems(ctx, row.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return s.GetCart(ctx, userID)
}

func (s *service) resolve(ctx context.Context, row *models.Cart) (*CartDTO, error) {
	ids := make([]uuid.UUID, 0, len(row.Items))
	for _, line := range row.Items {
		ids = append(ids, line.ProductID)
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve cart products")
	}

	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return toDTO(row, byID), nil
}
