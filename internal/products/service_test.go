package product

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketloop/marketloop-backend/pkg/db"
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

	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, stmt := range []string{
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
		`CREATE TABLE shop_products (
			id TEXT PRIMARY KEY,
			shop_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			created_at DATETIME,
			UNIQUE (shop_id, product_id)
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
	} {
		require.NoError(t, conn.Exec(stmt).Error)
	}

	return conn
}

func newTestService(t *testing.T) (Service, *Repository, *gorm.DB) {
	t.Helper()

	conn := newTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, db.FromGorm(conn))
	require.NoError(t, err)
	return svc, repo, conn
}

func errCode(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected a typed error, got %v", err)
	return typed.Code()
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateProduct(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	creator := uuid.New()

	dto, err := svc.CreateProduct(ctx, creator, CreateProductInput{
		Name:     "Walnut Desk",
		Price:    price("249.99"),
		Quantity: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, "Walnut Desk", dto.Name)
	assert.Equal(t, creator, dto.CreatedBy)
	assert.True(t, dto.Price.Equal(price("249.99")))
	assert.Equal(t, 12, dto.Quantity)
}

func TestCreateProductValidation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, uuid.New(), CreateProductInput{Name: "Bad", Price: price("-1"), Quantity: 1})
	assert.Equal(t, pkgerrors.CodeValidation, errCode(t, err))

	_, err = svc.CreateProduct(ctx, uuid.New(), CreateProductInput{Name: "Bad", Price: price("1"), Quantity: -1})
	assert.Equal(t, pkgerrors.CodeValidation, errCode(t, err))
}

func TestListProductsFilters(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	furniture := "furniture"
	lighting := "lighting"

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	seeds := []models.Product{
		{Name: "Desk", Price: price("100"), Quantity: 1, Category: &furniture, CreatedBy: alice, CreatedAt: base},
		{Name: "Chair", Price: price("50"), Quantity: 1, Category: &furniture, CreatedBy: bob, CreatedAt: base.Add(time.Minute)},
		{Name: "Lamp", Price: price("25"), Quantity: 1, Category: &lighting, CreatedBy: alice, CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range seeds {
		_, err := repo.Create(ctx, &seeds[i])
		require.NoError(t, err)
	}

	all, err := svc.ListProducts(ctx, ListParams{Page: pagination.Params{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Desk", all[0].Name)
	assert.Equal(t, "Lamp", all[2].Name)

	byCategory, err := svc.ListProducts(ctx, ListParams{Category: &furniture, Page: pagination.Params{Limit: 10}})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	byCreator, err := svc.ListProducts(ctx, ListParams{CreatedBy: &alice, Page: pagination.Params{Limit: 10}})
	require.NoError(t, err)
	assert.Len(t, byCreator, 2)
}

func TestUpdateProductCreatorOnly(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	creator := uuid.New()

	dto, err := svc.CreateProduct(ctx, creator, CreateProductInput{Name: "Vase", Price: price("30"), Quantity: 5})
	require.NoError(t, err)

	newName := "Ceramic Vase"
	updated, err := svc.UpdateProduct(ctx, creator, dto.ID, UpdateProductInput{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Ceramic Vase", updated.Name)

	// Someone else's product and a missing product both answer not-found.
	_, err = svc.UpdateProduct(ctx, uuid.New(), dto.ID, UpdateProductInput{Name: &newName})
	assert.Equal(t, pkgerrors.CodeNotFound, errCode(t, err))

	_, err = svc.UpdateProduct(ctx, creator, uuid.New(), UpdateProductInput{Name: &newName})
	assert.Equal(t, pkgerrors.CodeNotFound, errCode(t, err))
}

func TestUpdateProductValidatesMutations(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	creator := uuid.New()

	dto, err := svc.CreateProduct(ctx, creator, CreateProductInput{Name: "Rug", Price: price("80"), Quantity: 3})
	require.NoError(t, err)

	bad := price("-5")
	_, err = svc.UpdateProduct(ctx, creator, dto.ID, UpdateProductInput{Price: &bad})
	assert.Equal(t, pkgerrors.CodeValidation, errCode(t, err))

	negative := -2
	_, err = svc.UpdateProduct(ctx, creator, dto.ID, UpdateProductInput{Quantity: &negative})
	assert.Equal(t, pkgerrors.CodeValidation, errCode(t, err))
}

func TestDeleteProductCascades(t *testing.T) {
	t.Parallel()

	svc, _, conn := newTestService(t)
	ctx := context.Background()
	creator := uuid.New()

	dto, err := svc.CreateProduct(ctx, creator, CreateProductInput{Name: "Stool", Price: price("40"), Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, conn.Create(&models.ShopProduct{ShopID: uuid.New(), ProductID: dto.ID}).Error)
	require.NoError(t, conn.Create(&models.CartItem{CartID: uuid.New(), ProductID: dto.ID, Quantity: 1}).Error)

	err = svc.DeleteProduct(ctx, uuid.New(), dto.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, errCode(t, err))

	require.NoError(t, svc.DeleteProduct(ctx, creator, dto.ID))

	_, err = svc.GetProduct(ctx, dto.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, errCode(t, err))

	var memberships int64
	require.NoError(t, conn.Model(&models.ShopProduct{}).Where("product_id = ?", dto.ID).Count(&memberships).Error)
	assert.Zero(t, memberships)

	var cartLines int64
	require.NoError(t, conn.Model(&models.CartItem{}).Where("product_id = ?", dto.ID).Count(&cartLines).Error)
	assert.Zero(t, cartLines)
}

func TestDecrementStock(t *testing.T) {
	t.Parallel()

	_, repo, _ := newTestService(t)
	ctx := context.Background()

	row, err := repo.Create(ctx, &models.Product{Name: "Bulb", Price: price("5"), Quantity: 5, CreatedBy: uuid.New()})
	require.NoError(t, err)

	ok, err := repo.DecrementStock(ctx, row.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	// A decrement that would cross zero leaves the row untouched.
	ok, err = repo.DecrementStock(ctx, row.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := repo.FindByID(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Quantity)
}
