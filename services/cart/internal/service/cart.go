package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shopfront/pkg/events"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	"github.com/Skotchmaster/shopfront/pkg/metrics"
	"github.com/Skotchmaster/shopfront/pkg/productclient"
	"github.com/Skotchmaster/shopfront/pkg/server"
	"github.com/Skotchmaster/shopfront/pkg/validate"
	"github.com/Skotchmaster/shopfront/services/cart/internal/models"
	"github.com/Skotchmaster/shopfront/services/cart/internal/repo"
	"github.com/Skotchmaster/shopfront/services/cart/internal/transport"
)

type Store interface {
	GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	AddToCart(ctx context.Context, item *models.CartItem) error
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity uint) (*models.CartItem, error)
	RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) error
	DeleteAllFromCart(ctx context.Context, userID uuid.UUID) (int64, error)
	Ping(ctx context.Context) error
}

type ProductLookup interface {
	Get(ctx context.Context, id string) (*productclient.Product, error)
}

type Validator interface {
	Validate(i any) error
}

// CartService manages per-user carts. When Products is nil, product ids are
// accepted as given and carts carry no product details.
type CartService struct {
	Repo        Store
	Products    ProductLookup
	Events      events.Publisher
	Metrics     *metrics.Metrics
	Validator   Validator
	CallTimeout time.Duration
}

var defaultValidator = validate.New()

func (s *CartService) validator() Validator {
	if s.Validator == nil {
		return defaultValidator
	}
	return s.Validator
}

func (s *CartService) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return server.WithTimeout(ctx, s.CallTimeout)
}

func parseUser(userID string) (uuid.UUID, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed subject", ErrUnauthorized)
	}
	return id, nil
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*transport.Cart, error) {
	uid, err := parseUser(userID)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, uid)
}

func (s *CartService) AddToCart(ctx context.Context, userID string, req transport.AddItemRequest) (*transport.Cart, error) {
	l := logging.FromContext(ctx).With("svc", "cart.add")

	uid, err := parseUser(userID)
	if err != nil {
		return nil, err
	}
	if err := s.validator().Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	productID := uuid.MustParse(req.ProductID)

	if s.Products != nil {
		cctx, cancel := s.call(ctx)
		_, err := s.Products.Get(cctx, productID.String())
		cancel()
		if errors.Is(err, productclient.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		if err != nil {
			return nil, upstream("lookup product", err)
		}
	}

	item := models.CartItem{UserID: uid, ProductID: productID, Quantity: uint(req.Quantity)}
	cctx, cancel := s.call(ctx)
	err = s.Repo.AddToCart(cctx, &item)
	cancel()
	if errors.Is(err, repo.ErrQuantityLimit) {
		l.Warn("add_to_cart_failed", "status", 400, "reason", "quantity limit", "product_id", item.ProductID)
		return nil, fmt.Errorf("%w: quantity in cart must be at most %d", ErrValidation, models.MaxQuantity)
	}
	if err != nil {
		return nil, infra("add to cart", err)
	}

	s.Metrics.Observe("cart_add", "success")
	s.emit(ctx, "cart_item_added", userID, item)
	l.Info("add_to_cart_successful", "user_id", userID, "product_id", item.ProductID, "quantity", item.Quantity)
	return s.load(ctx, uid)
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, req transport.UpdateItemRequest) (*transport.Cart, error) {
	uid, err := parseUser(userID)
	if err != nil {
		return nil, err
	}
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, ErrItemNotFound
	}
	if err := s.validator().Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	cctx, cancel := s.call(ctx)
	item, err := s.Repo.SetQuantity(cctx, uid, pid, uint(req.Quantity))
	cancel()
	if errors.Is(err, repo.ErrItemNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, infra("set quantity", err)
	}

	s.Metrics.Observe("cart_update", "success")
	s.emit(ctx, "cart_item_updated", userID, *item)
	return s.load(ctx, uid)
}

func (s *CartService) RemoveFromCart(ctx context.Context, userID, productID string) (*transport.Cart, error) {
	uid, err := parseUser(userID)
	if err != nil {
		return nil, err
	}
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, ErrItemNotFound
	}

	cctx, cancel := s.call(ctx)
	err = s.Repo.RemoveFromCart(cctx, uid, pid)
	cancel()
	if errors.Is(err, repo.ErrItemNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, infra("remove from cart", err)
	}

	s.Metrics.Observe("cart_remove", "success")
	s.emit(ctx, "cart_item_removed", userID, map[string]string{"productId": pid.String()})
	return s.load(ctx, uid)
}

// ClearCart empties the cart. Clearing an empty cart is not an error.
func (s *CartService) ClearCart(ctx context.Context, userID string) (*transport.Cart, error) {
	uid, err := parseUser(userID)
	if err != nil {
		return nil, err
	}

	cctx, cancel := s.call(ctx)
	n, err := s.Repo.DeleteAllFromCart(cctx, uid)
	cancel()
	if err != nil {
		return nil, infra("clear cart", err)
	}

	s.Metrics.Observe("cart_clear", "success")
	if n > 0 {
		s.emit(ctx, "cart_cleared", userID, map[string]int64{"removed": n})
	}
	return &transport.Cart{UserID: uid.String(), Items: []transport.Item{}}, nil
}

func (s *CartService) Ready(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}

func (s *CartService) emit(ctx context.Context, typ, userID string, data any) {
	events.Emit(ctx, s.Events, s.CallTimeout, events.TopicCart, events.New(typ, userID, data))
}

// load reads the cart and attaches product details. Lines whose product no
// longer exists are hidden; a failed lookup leaves the line without details.
func (s *CartService) load(ctx context.Context, uid uuid.UUID) (*transport.Cart, error) {
	l := logging.FromContext(ctx).With("svc", "cart.load")

	cctx, cancel := s.call(ctx)
	items, err := s.Repo.GetCart(cctx, uid)
	cancel()
	if err != nil {
		return nil, infra("get cart", err)
	}

	cart := &transport.Cart{UserID: uid.String(), Items: make([]transport.Item, 0, len(items))}
	var subtotal float64
	priced := s.Products != nil

	for _, it := range items {
		line := transport.Item{ID: it.ID.String(), ProductID: it.ProductID.String(), Quantity: it.Quantity}
		if s.Products != nil {
			cctx, cancel := s.call(ctx)
			p, err := s.Products.Get(cctx, line.ProductID)
			cancel()
			switch {
			case errors.Is(err, productclient.ErrNotFound):
				continue
			case err != nil:
				l.Warn("product_lookup_failed", "product_id", line.ProductID, "error", err)
				priced = false
			default:
				line.Product = p
				subtotal += p.Price * float64(it.Quantity)
			}
		}
		cart.Items = append(cart.Items, line)
		cart.TotalItems += it.Quantity
	}

	if priced {
		cart.Subtotal = &subtotal
	}
	return cart, nil
}
