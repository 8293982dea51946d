package transport

import (
	"github.com/Skotchmaster/shopfront/pkg/productclient"
)

type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity"  validate:"required,gte=1,lte=1000"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=1000"`
}

type Item struct {
	ID        string                 `json:"id"`
	ProductID string                 `json:"productId"`
	Quantity  uint                   `json:"quantity"`
	Product   *productclient.Product `json:"product,omitempty"`
}

// Cart is the wire form of a user's cart. Subtotal is only set when every
// line carries product details.
type Cart struct {
	UserID     string   `json:"userId"`
	Items      []Item   `json:"items"`
	TotalItems uint     `json:"totalItems"`
	Subtotal   *float64 `json:"subtotal,omitempty"`
}
