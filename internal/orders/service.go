package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	product "github.com/marketloop/marketloop-backend/internal/products"
	"github.com/marketloop/marketloop-backend/pkg/db/models"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
	"github.com/marketloop/marketloop-backend/pkg/pagination"
)

// Service exposes order history reads. Orders are written by checkout only.
type Service interface {
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]OrderDTO, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
}

type service struct {
	repo        *Repository
	productRepo *product.Repository
}

// NewService constructs an order service instance.
func NewService(repo *Repository, productRepo *product.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, productRepo: productRepo}, nil
}

// ListOrders returns the user's history, oldest order first.
func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]OrderDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	ids := make([]uuid.UUID, 0)
	for i := range rows {
		for _, line := range rows[i].Items {
			ids = append(ids, line.ProductID)
		}
	}
	products, err := s.resolveProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *ToDTO(&rows[i], products))
	}
	return out, nil
}

// GetOrder loads one order by id. Any authenticated user can fetch any order;
// the id is the only secret, matching the legacy API this service replaces.
func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	row, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	ids := make([]uuid.UUID, 0, len(row.Items))
	for _, line := range row.Items {
		ids = append(ids, line.ProductID)
	}
	products, err := s.resolveProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	return ToDTO(row, products), nil
}

func (s *service) resolveProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	rows, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve order products")
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	return byID, nil
}
