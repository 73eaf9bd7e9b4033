package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	product "github.com/marketloop/marketloop-backend/internal/products"
	"github.com/marketloop/marketloop-backend/pkg/db/models"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, stmt := range []string{
		`CREATE TABLE carts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE cart_items (
			id TEXT PRIMARY KEY,
			cart_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME,
			updated_at DATETIME,
			UNIQUE (cart_id, product_id)
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

func seedProduct(t *testing.T, repo *product.Repository, name string) *models.Product {
	t.Helper()

	row, err := repo.Create(context.Background(), &models.Product{
		Name:      name,
		Price:     decimal.RequireFromString("9.99"),
		Quantity:  10,
		CreatedBy: uuid.New(),
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

func TestGetCartWithoutCartRow(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	dto, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, dto.ID)
	assert.Empty(t, dto.Items)

	// Reading must not create a cart row as a side effect.
	_, err = repo.FindByUser(ctx, userID)
	assert.True(t, IsNotFound(err))
}

func TestAddItemCreatesCartLazily(t *testing.T) {
	t.Parallel()

	svc, repo, productRepo := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := seedProduct(t, productRepo, "Teapot")

	dto, err := svc.AddItem(ctx, userID, p.ID)
	require.NoError(t, err)
	require.NotNil(t, dto.ID)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, p.ID, dto.Items[0].ProductID)
	assert.Equal(t, 1, dto.Items[0].Quantity)
	require.NotNil(t, dto.Items[0].Name)
	assert.Equal(t, "Teapot", *dto.Items[0].Name)

	row, err := repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, *dto.ID, row.ID)
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	t.Parallel()

	svc, _, productRepo := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := seedProduct(t, productRepo, "Kettle")

	for i := 0; i < 3; i++ {
		_, err := svc.AddItem(ctx, userID, p.ID)
		require.NoError(t, err)
	}

	dto, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, 3, dto.Items[0].Quantity)
}

func TestAddItemUnknownProduct(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, errCode(t, err))
}

func TestRemoveItemDeletesWholeLine(t *testing.T) {
	t.Parallel()

	svc, _, productRepo := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := seedProduct(t, productRepo, "Tray")

	for i := 0; i < 2; i++ {
		_, err := svc.AddItem(ctx, userID, p.ID)
		require.NoError(t, err)
	}

	dto, err := svc.RemoveItem(ctx, userID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, dto.Items)
}

func TestRemoveItemIsNoOpWhenAbsent(t *testing.T) {
	t.Parallel()

	svc, _, productRepo := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	// No cart at all.
	dto, err := svc.RemoveItem(ctx, userID, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, dto.Items)

	// Cart exists but the product is not in it.
	p := seedProduct(t, productRepo, "Spoon")
	other := seedProduct(t, productRepo, "Fork")
	_, err = svc.AddItem(ctx, userID, p.ID)
	require.NoError(t, err)

	dto, err = svc.RemoveItem(ctx, userID, other.ID)
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, p.ID, dto.Items[0].ProductID)
}

func TestClearCartKeepsCartRow(t *testing.T) {
	t.Parallel()

	svc, repo, productRepo := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := seedProduct(t, productRepo, "Pan")

	_, err := svc.AddItem(ctx, userID, p.ID)
	require.NoError(t, err)

	dto, err := svc.ClearCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, dto.Items)

	row, err := repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, row.Items)

	// Clearing again, and clearing for a user with no cart, both succeed.
	_, err = svc.ClearCart(ctx, userID)
	require.NoError(t, err)
	_, err = svc.ClearCart(ctx, uuid.New())
	require.NoError(t, err)
}

func TestCartResolvesDeletedProductToBareReference(t *testing.T) {
	t.Parallel()

	svc, _, productRepo := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := seedProduct(t, productRepo, "Ghost")

	_, err := svc.AddItem(ctx, userID, p.ID)
	require.NoError(t, err)

	require.NoError(t, productRepo.Delete(ctx, p.ID))

	dto, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, p.ID, dto.Items[0].ProductID)
	assert.Nil(t, dto.Items[0].Name)
	assert.Nil(t, dto.Items[0].Price)
}
