package models

import (
	"time"

	"gorm.io/gorm"
)

// Conversation is the single durable thread between a buyer and a seller.
// The (buyer_id, seller_id) pair is unique: no matter how many listings the
// two discuss, they share one conversation. PropertyID records the listing
// that initiated contact and may be backfilled later.
type Conversation struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	BuyerID  uint `gorm:"not null;index" json:"buyer_id"`
	SellerID uint `gorm:"not null;index" json:"seller_id"`
	// PairLow/PairHigh are the unordered pair key: min and max of the two
	// participant ids, filled before insert. The unique index lives here so
	// a concurrent create with flipped buyer/seller orientation still
	// collides instead of inserting a second row for the same two users.
	PairLow       uint           `gorm:"not null;uniqueIndex:idx_conversations_pair" json:"-"`
	PairHigh      uint           `gorm:"not null;uniqueIndex:idx_conversations_pair" json:"-"`
	PropertyID    *uint          `gorm:"index" json:"property_id"`
	LastMessage   string         `gorm:"size:1024" json:"last_message"`
	LastMessageAt *time.Time     `gorm:"index" json:"last_message_at"`
	// UnreadCountBuyer counts messages from the seller the buyer has not read, and vice versa.
	UnreadCountBuyer  int            `gorm:"not null;default:0" json:"unread_count_buyer"`
	UnreadCountSeller int            `gorm:"not null;default:0" json:"unread_count_seller"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	Buyer    User      `gorm:"foreignKey:BuyerID" json:"-"`
	Seller   User      `gorm:"foreignKey:SellerID" json:"-"`
	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// BeforeCreate fills the unordered pair key from the two participant ids.
func (c *Conversation) BeforeCreate(*gorm.DB) error {
	c.PairLow, c.PairHigh = c.BuyerID, c.SellerID
	if c.PairLow > c.PairHigh {
		c.PairLow, c.PairHigh = c.PairHigh, c.PairLow
	}
	return nil
}

// HasParticipant reports whether userID is one of the two sides.
func (c *Conversation) HasParticipant(userID uint) bool {
	return userID == c.BuyerID || userID == c.SellerID
}

// OtherParticipant returns the counterpart of userID (0 if not a participant).
func (c *Conversation) OtherParticipant(userID uint) uint {
	switch userID {
	case c.BuyerID:
		return c.SellerID
	case c.SellerID:
		return c.BuyerID
	}
	return 0
}
