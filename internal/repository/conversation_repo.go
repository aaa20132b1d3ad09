package repository

import (
	"time"

	"nhadat/internal/models"

	"gorm.io/gorm"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts a new conversation row. Concurrent first-contact attempts
// for the same pair hit the unique index; callers should re-read with
// GetByPair when err is gorm.ErrDuplicatedKey.
func (r *ConversationRepository) Create(c *models.Conversation) error {
	return r.db.Create(c).Error
}

func (r *ConversationRepository) GetByID(id uint) (*models.Conversation, error) {
	var c models.Conversation
	err := r.db.First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByPair looks up the conversation for the unordered pair. The two users
// share one row no matter which side the caller derived as buyer, so the
// lookup goes through the normalized pair key, not the oriented columns.
func (r *ConversationRepository) GetByPair(buyerID, sellerID uint) (*models.Conversation, error) {
	lo, hi := buyerID, sellerID
	if lo > hi {
		lo, hi = hi, lo
	}
	var c models.Conversation
	err := r.db.Where("pair_low = ? AND pair_high = ?", lo, hi).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConversationRepository) ListByUser(userID uint) ([]models.Conversation, error) {
	var list []models.Conversation
	err := r.db.Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Preload("Property").Order("last_message_at DESC").Find(&list).Error
	return list, err
}

func (r *ConversationRepository) SetProperty(convID, propertyID uint) error {
	return r.db.Model(&models.Conversation{}).Where("id = ?", convID).Update("property_id", propertyID).Error
}

// AppendMessage persists the message and updates the conversation's
// denormalized last-message fields plus the receiver's unread counter in a
// single transaction. The counter increment is done in SQL so racing sends
// serialize through the row, not through stale in-memory values.
func (r *ConversationRepository) AppendMessage(m *models.Message, senderIsBuyer bool) error {
	counter := "unread_count_buyer"
	if senderIsBuyer {
		counter = "unread_count_seller"
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(&models.Conversation{}).Where("id = ?", m.ConversationID).
			Updates(map[string]interface{}{
				"last_message":    m.Content,
				"last_message_at": &now,
				counter:           gorm.Expr(counter+" + ?", 1),
			}).Error
	})
}

// MarkRead flips every unread message not authored by readerID to read and
// resets the reader's own unread counter, atomically.
func (r *ConversationRepository) MarkRead(convID, readerID uint, readerIsBuyer bool) error {
	counter := "unread_count_seller"
	if readerIsBuyer {
		counter = "unread_count_buyer"
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND `read` = ?", convID, readerID, false).
			Update("read", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", convID).
			Update(counter, 0).Error
	})
}

// MessageQuery selects a page of messages within one conversation.
type MessageQuery struct {
	ConversationID uint
	Limit          int // default 50
	Offset         int
}

func (r *ConversationRepository) ListMessages(q MessageQuery) ([]models.Message, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	var list []models.Message
	err := r.db.Where("conversation_id = ?", q.ConversationID).
		Order("created_at DESC").Limit(q.Limit).Offset(q.Offset).Find(&list).Error
	return list, err
}
