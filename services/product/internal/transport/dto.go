package transport

import "github.com/Skotchmaster/shopfront/services/product/internal/models"

type CreateProductRequest struct {
	Name        string   `json:"name"        validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Price       *float64 `json:"price"       validate:"required,gte=0"`
	Category    string   `json:"category"    validate:"max=100"`
	Stock       int      `json:"stock"       validate:"gte=0"`
	Image       string   `json:"image"       validate:"max=2048"`
}

type PatchProductRequest struct {
	Name        *string  `json:"name"        validate:"omitempty,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0"`
	Category    *string  `json:"category"    validate:"omitempty,max=100"`
	Stock       *int     `json:"stock"       validate:"omitempty,gte=0"`
	Image       *string  `json:"image"       validate:"omitempty,max=2048"`
}

type Meta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type Page struct {
	Data []models.Product `json:"data"`
	Meta Meta             `json:"meta"`
}

func NewPage(items []models.Product, page, offset, limit int, total int64) *Page {
	if items == nil {
		items = []models.Product{}
	}
	return &Page{
		Data: items,
		Meta: Meta{
			Page:       page,
			Size:       limit,
			Total:      total,
			TotalPages: (total + int64(limit) - 1) / int64(limit),
			HasPrev:    page > 1,
			HasNext:    int64(offset+limit) < total,
		},
	}
}
