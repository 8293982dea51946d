package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopfront/pkg/db/dbtest"
	"github.com/Skotchmaster/shopfront/pkg/events"
	"github.com/Skotchmaster/shopfront/services/product/internal/models"
	"github.com/Skotchmaster/shopfront/services/product/internal/repo"
	"github.com/Skotchmaster/shopfront/services/product/internal/transport"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Put(ctx context.Context, p models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockSearcher) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSearcher) Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	args := m.Called(ctx, query, from, size)
	items, _ := args.Get(1).([]models.Product)
	return args.Get(0).(int64), items, args.Error(2)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newService(t *testing.T) (*ProductService, *recordingPublisher) {
	t.Helper()

	pub := &recordingPublisher{}
	return &ProductService{
		Repo:        repo.NewGormRepo(dbtest.New(t, &models.Product{})),
		Events:      pub,
		CallTimeout: 5 * time.Second,
	}, pub
}

func price(v float64) *float64 { return &v }

func TestProductService_CreateProduct(t *testing.T) {
	t.Parallel()

	svc, pub := newService(t)
	idx := &mockSearcher{}
	idx.On("Put", mock.Anything, mock.MatchedBy(func(p models.Product) bool { return p.Name == "Ceylon tea" })).Return(nil).Once()
	svc.Search = idx

	prod, err := svc.CreateProduct(context.Background(), transport.CreateProductRequest{
		Name: "  Ceylon tea ", Price: price(4.5), Category: "drinks", Stock: 12,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, prod.ID)
	assert.Equal(t, "Ceylon tea", prod.Name)

	idx.AssertExpectations(t)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "product_created", pub.events[0].Type)
	assert.Equal(t, prod.ID.String(), pub.events[0].Key)
}

func TestProductService_CreateProductIndexFailureIsLogged(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	idx := &mockSearcher{}
	idx.On("Put", mock.Anything, mock.Anything).Return(errors.New("cluster red"))
	svc.Search = idx

	prod, err := svc.CreateProduct(context.Background(), transport.CreateProductRequest{Name: "Mug", Price: price(3)})
	require.NoError(t, err)

	got, err := svc.GetProduct(context.Background(), prod.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Mug", got.Name)
}

func TestProductService_CreateProductValidation(t *testing.T) {
	t.Parallel()

	svc, pub := newService(t)

	tests := []struct {
		name string
		req  transport.CreateProductRequest
	}{
		{name: "missing name", req: transport.CreateProductRequest{Name: "  ", Price: price(1)}},
		{name: "missing price", req: transport.CreateProductRequest{Name: "Mug"}},
		{name: "negative price", req: transport.CreateProductRequest{Name: "Mug", Price: price(-1)}},
		{name: "negative stock", req: transport.CreateProductRequest{Name: "Mug", Price: price(1), Stock: -1}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.CreateProduct(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	t.Cleanup(func() { assert.Empty(t, pub.events) })
}

func TestProductService_FreeProductAllowed(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	prod, err := svc.CreateProduct(context.Background(), transport.CreateProductRequest{Name: "Sticker", Price: price(0)})
	require.NoError(t, err)
	assert.Zero(t, prod.Price)
}

func TestProductService_GetProduct(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)

	_, err := svc.GetProduct(context.Background(), "42")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.GetProduct(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductService_GetProductsPaginates(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	for i := 0; i < 5; i++ {
		_, err := svc.CreateProduct(context.Background(), transport.CreateProductRequest{Name: "Mug", Price: price(1)})
		require.NoError(t, err)
	}

	page, err := svc.GetProducts(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, transport.Meta{Page: 2, Size: 2, Total: 5, TotalPages: 3, HasPrev: true, HasNext: true}, page.Meta)

	page, err = svc.GetProducts(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Meta.Page)
	assert.False(t, page.Meta.HasNext)
}

func TestProductService_SearchUsesIndex(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	hit := models.Product{ID: uuid.New(), Name: "Ceylon tea"}
	idx := &mockSearcher{}
	idx.On("Search", mock.Anything, "tea", 10, 10).Return(int64(11), []models.Product{hit}, nil).Once()
	svc.Search = idx

	page, err := svc.SearchProducts(context.Background(), " tea ", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, []models.Product{hit}, page.Data)
	assert.EqualValues(t, 11, page.Meta.Total)
	idx.AssertExpectations(t)
}

func TestProductService_SearchFallsBackToDatabase(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	_, err := svc.CreateProduct(context.Background(), transport.CreateProductRequest{Name: "Green tea", Price: price(2)})
	require.NoError(t, err)

	idx := &mockSearcher{}
	idx.On("Put", mock.Anything, mock.Anything).Return(nil)
	idx.On("Search", mock.Anything, "tea", 0, 20).Return(int64(0), nil, context.DeadlineExceeded)
	svc.Search = idx

	page, err := svc.SearchProducts(context.Background(), "tea", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Green tea", page.Data[0].Name)

	_, err = svc.SearchProducts(context.Background(), "   ", 1, 20)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProductService_PatchAndDelete(t *testing.T) {
	t.Parallel()

	svc, pub := newService(t)
	prod, err := svc.CreateProduct(context.Background(), transport.CreateProductRequest{Name: "Mug", Price: price(3), Stock: 4})
	require.NoError(t, err)
	id := prod.ID.String()

	idx := &mockSearcher{}
	idx.On("Put", mock.Anything, mock.Anything).Return(nil).Once()
	idx.On("Delete", mock.Anything, id).Return(nil).Once()
	svc.Search = idx

	stock := 0
	patched, err := svc.PatchProduct(context.Background(), id, transport.PatchProductRequest{Stock: &stock, Price: price(2.5)})
	require.NoError(t, err)
	assert.Equal(t, 0, patched.Stock)
	assert.Equal(t, 2.5, patched.Price)
	assert.Equal(t, "Mug", patched.Name)

	bad := -1
	_, err = svc.PatchProduct(context.Background(), id, transport.PatchProductRequest{Stock: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.DeleteProduct(context.Background(), id))
	assert.ErrorIs(t, svc.DeleteProduct(context.Background(), id), ErrNotFound)
	_, err = svc.PatchProduct(context.Background(), id, transport.PatchProductRequest{Stock: &stock})
	assert.ErrorIs(t, err, ErrNotFound)

	idx.AssertExpectations(t)
	types := make([]string, 0, len(pub.events))
	for _, ev := range pub.events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{"product_created", "product_updated", "product_deleted"}, types)
}
