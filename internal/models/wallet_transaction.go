package models

import (
	"time"

	"gorm.io/gorm"
)

// WalletTransaction records one balance delta for a user. Reference is the
// gateway order reference for asynchronous deposits and is unique so a
// callback can be correlated exactly once. A transaction leaves PENDING at
// most once; COMPLETED/FAILED/CANCELLED are terminal.
type WalletTransaction struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	Amount       int64          `gorm:"not null" json:"amount"`             // VND, always positive; Type carries direction
	Type         string         `gorm:"size:30;not null;index" json:"type"` // DEPOSIT, WITHDRAW, COMMISSION, PREMIUM_UPGRADE, ADMIN_ADD, ADMIN_DEDUCT
	Status       string         `gorm:"size:20;not null;index" json:"status"`
	Reference    string         `gorm:"size:128;uniqueIndex" json:"reference"`
	PropertyID   *uint          `gorm:"index" json:"property_id"`
	Description  string         `gorm:"size:512" json:"description"`
	GatewayTxnID string         `gorm:"size:128" json:"gateway_txn_id"`
	CompletedAt  *time.Time     `json:"completed_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	User     User      `gorm:"foreignKey:UserID" json:"-"`
	Property *Property `gorm:"foreignKey:PropertyID" json:"-"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
