package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxQuantity caps a single cart line.
const MaxQuantity = 1000

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                   json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null" json:"userId"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null" json:"productId"`
	Quantity  uint      `gorm:"not null;check:quantity>0 AND quantity<=1000" json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}
