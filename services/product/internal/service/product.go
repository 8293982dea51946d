package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shopfront/pkg/events"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	"github.com/Skotchmaster/shopfront/pkg/metrics"
	"github.com/Skotchmaster/shopfront/pkg/server"
	"github.com/Skotchmaster/shopfront/pkg/validate"
	"github.com/Skotchmaster/shopfront/services/product/internal/models"
	"github.com/Skotchmaster/shopfront/services/product/internal/repo"
	"github.com/Skotchmaster/shopfront/services/product/internal/transport"
	"github.com/Skotchmaster/shopfront/services/product/internal/util"
)

type Store interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error)
	CreateProduct(ctx context.Context, prod *models.Product) error
	SaveProduct(ctx context.Context, prod *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error)
	Ping(ctx context.Context) error
}

// Searcher is the full-text index. Writes to it are best effort.
type Searcher interface {
	Put(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type Validator interface {
	Validate(i any) error
}

type ProductService struct {
	Repo        Store
	Search      Searcher
	Events      events.Publisher
	Metrics     *metrics.Metrics
	Validator   Validator
	CallTimeout time.Duration
}

var defaultValidator = validate.New()

func (s *ProductService) validator() Validator {
	if s.Validator == nil {
		return defaultValidator
	}
	return s.Validator
}

func (s *ProductService) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return server.WithTimeout(ctx, s.CallTimeout)
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid product id", ErrValidation)
	}
	return uid, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	cctx, cancel := s.call(ctx)
	defer cancel()
	product, err := s.Repo.GetProduct(cctx, uid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, infra("get product", err)
	}
	return product, nil
}

func (s *ProductService) GetProducts(ctx context.Context, page, size int) (*transport.Page, error) {
	if page < 1 {
		page = 1
	}
	offset, limit := util.Calculate(page, size)

	cctx, cancel := s.call(ctx)
	defer cancel()
	total, items, err := s.Repo.GetProducts(cctx, offset, limit)
	if err != nil {
		return nil, infra("list products", err)
	}
	return transport.NewPage(items, page, offset, limit, total), nil
}

// SearchProducts queries the search index when there is one and falls back
// to substring matching in the database when there is none or it fails.
func (s *ProductService) SearchProducts(ctx context.Context, q string, page, size int) (*transport.Page, error) {
	l := logging.FromContext(ctx).With("svc", "product.search")

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}
	if page < 1 {
		page = 1
	}
	offset, limit := util.Calculate(page, size)

	if s.Search != nil {
		cctx, cancel := s.call(ctx)
		total, items, err := s.Search.Search(cctx, q, offset, limit)
		cancel()
		if err == nil {
			s.Metrics.Observe("product_search", "index")
			return transport.NewPage(items, page, offset, limit, total), nil
		}
		l.Warn("search_index_failed", "error", err)
	}

	cctx, cancel := s.call(ctx)
	defer cancel()
	total, items, err := s.Repo.SearchProducts(cctx, q, offset, limit)
	if err != nil {
		return nil, infra("search products", err)
	}
	s.Metrics.Observe("product_search", "database")
	return transport.NewPage(items, page, offset, limit, total), nil
}

func (s *ProductService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "product.create")

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if err := s.validator().Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	prod := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Image:       req.Image,
	}

	cctx, cancel := s.call(ctx)
	err := s.Repo.CreateProduct(cctx, &prod)
	cancel()
	if err != nil {
		return nil, infra("create product", err)
	}

	s.index(ctx, prod)
	s.Metrics.Observe("product_create", "success")
	s.emit(ctx, "product_created", prod.ID.String(), prod)
	l.Info("create_product_successful", "product_id", prod.ID)
	return &prod, nil
}

func (s *ProductService) PatchProduct(ctx context.Context, id string, req transport.PatchProductRequest) (*models.Product, error) {
	if req.Name != nil {
		v := strings.TrimSpace(*req.Name)
		if v == "" {
			return nil, fmt.Errorf("%w: name is required", ErrValidation)
		}
		req.Name = &v
	}
	if err := s.validator().Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	prod, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		prod.Name = *req.Name
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Price != nil {
		prod.Price = *req.Price
	}
	if req.Category != nil {
		prod.Category = strings.TrimSpace(*req.Category)
	}
	if req.Stock != nil {
		prod.Stock = *req.Stock
	}
	if req.Image != nil {
		prod.Image = *req.Image
	}

	cctx, cancel := s.call(ctx)
	err = s.Repo.SaveProduct(cctx, prod)
	cancel()
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, infra("save product", err)
	}

	s.index(ctx, *prod)
	s.Metrics.Observe("product_update", "success")
	s.emit(ctx, "product_updated", prod.ID.String(), *prod)
	return prod, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	l := logging.FromContext(ctx).With("svc", "product.delete")

	uid, err := parseID(id)
	if err != nil {
		return err
	}

	cctx, cancel := s.call(ctx)
	err = s.Repo.DeleteProduct(cctx, uid)
	cancel()
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return infra("delete product", err)
	}

	if s.Search != nil {
		cctx, cancel := s.call(ctx)
		if err := s.Search.Delete(cctx, uid.String()); err != nil {
			l.Warn("search_deindex_failed", "product_id", uid, "error", err)
		}
		cancel()
	}
	s.Metrics.Observe("product_delete", "success")
	s.emit(ctx, "product_deleted", uid.String(), map[string]string{"id": uid.String()})
	return nil
}

func (s *ProductService) Ready(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}

func (s *ProductService) index(ctx context.Context, p models.Product) {
	if s.Search == nil {
		return
	}
	cctx, cancel := s.call(ctx)
	defer cancel()
	if err := s.Search.Put(cctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
	}
}

func (s *ProductService) emit(ctx context.Context, typ, key string, data any) {
	events.Emit(ctx, s.Events, s.CallTimeout, events.TopicProduct, events.New(typ, key, data))
}
