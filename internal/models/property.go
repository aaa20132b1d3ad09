package models

import (
	"time"

	"gorm.io/gorm"
)

type Property struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int64          `gorm:"not null" json:"price"` // VND
	AreaM2      float64        `json:"area_m2"`
	Address     string         `gorm:"size:512" json:"address"`
	District    string         `gorm:"size:100" json:"district"`
	City        string         `gorm:"size:100;index" json:"city"`
	Status      string         `gorm:"size:20;not null;index;default:'PENDING'" json:"status"` // PENDING, APPROVED, REJECTED
	RejectNote  string         `gorm:"size:512" json:"reject_note,omitempty"`
	IsPremium   bool           `gorm:"default:false;index" json:"is_premium"`
	ApprovedAt  *time.Time     `json:"approved_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Owner User `gorm:"foreignKey:OwnerID" json:"-"`
}

func (Property) TableName() string {
	return "properties"
}
