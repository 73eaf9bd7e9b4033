package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	product "github.com/marketloop/marketloop-backend/internal/products"
	"github.com/marketloop/marketloop-backend/pkg/db/models"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
	"github.com/marketloop/marketloop-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, stmt := range []string{
		`CREATE TABLE orders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			billing_street TEXT NOT NULL,
			billing_city TEXT NOT NULL,
			billing_state TEXT NOT NULL,
			billing_zip TEXT NOT NULL,
			billing_country TEXT NOT NULL,
			shipping_street TEXT NOT NULL,
			shipping_city TEXT NOT NULL,
			shipping_state TEXT NOT NULL,
			shipping_zip TEXT NOT NULL,
			shipping_country TEXT NOT NULL,
			payment_method TEXT NOT NULL,
			card_name TEXT,
			card_number TEXT,
			card_expiry TEXT,
			created_at DATETIME
		)`,
		`CREATE TABLE order_line_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			price NUMERIC NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0,
			category TEXT,
			image TEXT,
			created_by TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		)`,
	} {
		require.NoError(t, conn.Exec(stmt).Error)
	}

	return conn
}

func newTestService(t *testing.T) (Service, *Repository, *product.Repository) {
	t.Helper()

	conn := newTestDB(t)
	repo := NewRepository(conn)
	productRepo := product.NewRepository(conn)
	svc, err := NewService(repo, productRepo)
	require.NoError(t, err)
	return svc, repo, productRepo
}

func seedOrder(t *testing.T, repo *Repository, userID uuid.UUID, createdAt time.Time, items ...models.OrderLineItem) *models.Order {
	t.Helper()

	row, err := repo.Create(context.Background(), &models.Order{
		UserID:          userID,
		BillingStreet:   "1 Bill St",
		BillingCity:     "Billtown",
		BillingState:    "BT",
		BillingZip:      "11111",
		BillingCountry:  "US",
		ShippingStreet:  "2 Ship St",
		ShippingCity:    "Shipville",
		ShippingState:   "SV",
		ShippingZip:     "22222",
		ShippingCountry: "US",
		PaymentMethod:   models.PaymentMethodPickup,
		Items:           items,
		CreatedAt:       createdAt,
	})
	require.NoError(t, err)
	return row
}

func errCode(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected a typed error, got %v", err)
	return typed.Code()
}

func TestListOrdersOldestFirst(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	first := seedOrder(t, repo, userID, base)
	second := seedOrder(t, repo, userID, base.Add(time.Hour))
	seedOrder(t, repo, uuid.New(), base.Add(2*time.Hour))

	out, err := svc.ListOrders(ctx, userID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, out, 2, "only the caller's orders are listed")
	assert.Equal(t, first.ID, out[0].ID)
	assert.Equal(t, second.ID, out[1].ID)

	page, err := svc.ListOrders(ctx, userID, pagination.Params{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, second.ID, page[0].ID)
}

func TestGetOrderResolvesCurrentProductDetails(t *testing.T) {
	t.Parallel()

	svc, repo, productRepo := newTestService(t)
	ctx := context.Background()

	p, err := productRepo.Create(ctx, &models.Product{
		Name:      "Original Name",
		Price:     decimal.RequireFromString("10.00"),
		Quantity:  5,
		CreatedBy: uuid.New(),
	})
	require.NoError(t, err)

	row := seedOrder(t, repo, uuid.New(), time.Now(), models.OrderLineItem{ProductID: p.ID, Quantity: 2})

	dto, err := svc.GetOrder(ctx, row.ID)
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	require.NotNil(t, dto.Items[0].Name)
	assert.Equal(t, "Original Name", *dto.Items[0].Name)
	assert.Equal(t, "1 Bill St", dto.Billing.Street)
	assert.Equal(t, "Shipville", dto.Shipping.City)

	// Line details track the product row, so edits show up in old orders.
	p.Name = "Renamed"
	p.Price = decimal.RequireFromString("99.00")
	_, err = productRepo.Update(ctx, p)
	require.NoError(t, err)

	dto, err = svc.GetOrder(ctx, row.ID)
	require.NoError(t, err)
	require.NotNil(t, dto.Items[0].Name)
	assert.Equal(t, "Renamed", *dto.Items[0].Name)
	assert.True(t, dto.Items[0].Price.Equal(decimal.RequireFromString("99.00")))

	// A deleted product leaves only the id reference behind.
	require.NoError(t, productRepo.Delete(ctx, p.ID))

	dto, err = svc.GetOrder(ctx, row.ID)
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, p.ID, dto.Items[0].ProductID)
	assert.Nil(t, dto.Items[0].Name)
	assert.Nil(t, dto.Items[0].Price)
	assert.Equal(t, 2, dto.Items[0].Quantity)
}

func TestGetOrderUnknownID(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.GetOrder(context.Background(), uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, errCode(t, err))
}
