package models

import (
	"time"

	"nhadat/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	FullName     string         `gorm:"size:255" json:"full_name"`
	Phone        string         `gorm:"size:20;index" json:"phone"`
	Role         string         `gorm:"size:20;not null;index" json:"role"` // BUYER | SELLER | ADMIN
	Balance      int64          `gorm:"not null;default:0" json:"balance"`  // VND
	AvatarURL    string         `gorm:"size:512" json:"avatar_url"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsBuyer() bool  { return u.Role == domain.RoleBuyer }
func (u *User) IsSeller() bool { return u.Role == domain.RoleSeller }
func (u *User) IsAdmin() bool  { return u.Role == domain.RoleAdmin }
