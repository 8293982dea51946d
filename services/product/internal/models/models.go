package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"       json:"id"`
	Name        string    `gorm:"size:200;not null;index"    json:"name"`
	Description string    `gorm:"not null;default:''"        json:"description"`
	Price       float64   `gorm:"not null;check:price >= 0"  json:"price"`
	Category    string    `gorm:"size:100;index"             json:"category"`
	Stock       int       `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Product) TableName() string {
	return "products"
}
