package tests

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgdb "github.com/Skotchmaster/shopfront/pkg/db"
	"github.com/Skotchmaster/shopfront/services/product/internal/repo"
	"github.com/Skotchmaster/shopfront/services/product/internal/service"
	"github.com/Skotchmaster/shopfront/services/product/internal/transport"
)

func newService(t *testing.T) *service.ProductService {
	t.Helper()

	dsn := os.Getenv("PRODUCT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("PRODUCT_TEST_DATABASE_URL is required for tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, pkgdb.EnsureDatabase(ctx, dsn))
	db, err := pkgdb.Open(ctx, dsn)
	require.NoError(t, err)

	r := repo.NewGormRepo(db)
	require.NoError(t, r.Migrate(ctx))

	t.Cleanup(func() {
		db.Exec("TRUNCATE TABLE products")
		pkgdb.Close(db)
	})

	return &service.ProductService{Repo: r, CallTimeout: 5 * time.Second}
}

func price(v float64) *float64 { return &v }

func TestProductService_CreateAndGet(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	prod, err := svc.CreateProduct(ctx, transport.CreateProductRequest{Name: "Mug", Price: price(3.25), Stock: 2})
	require.NoError(t, err)

	got, err := svc.GetProduct(ctx, prod.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 3.25, got.Price)

	_, err = svc.GetProduct(ctx, uuid.NewString())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestProductService_DatabaseSearch(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	tag := uuid.NewString()[:8]

	_, err := svc.CreateProduct(ctx, transport.CreateProductRequest{Name: "Tea " + tag, Description: "100% leaf", Price: price(2)})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, transport.CreateProductRequest{Name: "Mug " + tag, Description: "for tea", Price: price(3)})
	require.NoError(t, err)

	page, err := svc.SearchProducts(ctx, "TEA "+tag, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	page, err = svc.SearchProducts(ctx, "100%", 1, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, page.Data)
}

func TestProductService_RejectsNegativePrice(t *testing.T) {
	svc := newService(t)

	_, err := svc.CreateProduct(context.Background(), transport.CreateProductRequest{Name: "Mug", Price: price(-1)})
	assert.ErrorIs(t, err, service.ErrValidation)
}
