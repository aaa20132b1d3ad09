package service

import (
	"errors"
	"strings"

	"nhadat/internal/domain"
	"nhadat/internal/models"
	"nhadat/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
	ErrUserNotFound         = errors.New("user not found")
	ErrPropertyNotFound     = errors.New("property not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("not a participant of this conversation")
	ErrEmptyMessage         = errors.New("message body is empty")
)

// UserGetter is the slice of the user store the chat engine needs.
type UserGetter interface {
	GetByID(id uint) (*models.User, error)
}

// PropertyGetter resolves the listing referenced by a first contact.
type PropertyGetter interface {
	GetByID(id uint) (*models.Property, error)
}

// ConversationStore is the transactional store behind the engine. All
// compound mutations (message + counters, read flags + counter reset) are
// atomic inside the implementation.
type ConversationStore interface {
	Create(c *models.Conversation) error
	GetByID(id uint) (*models.Conversation, error)
	GetByPair(buyerID, sellerID uint) (*models.Conversation, error)
	ListByUser(userID uint) ([]models.Conversation, error)
	SetProperty(convID, propertyID uint) error
	AppendMessage(m *models.Message, senderIsBuyer bool) error
	MarkRead(convID, readerID uint, readerIsBuyer bool) error
	ListMessages(q repository.MessageQuery) ([]models.Message, error)
}

// ChatService pairs buyers and sellers into durable conversations and runs
// the persistence half of message fan-out. Broadcasting to live sessions is
// the caller's concern; everything here goes through the store.
type ChatService struct {
	users      UserGetter
	properties PropertyGetter
	convs      ConversationStore
}

func NewChatService(users UserGetter, properties PropertyGetter, convs ConversationStore) *ChatService {
	return &ChatService{users: users, properties: properties, convs: convs}
}

// ResolveConversation finds or creates the one conversation for the
// unordered (requester, counterpart) pair. With a listing, the listing owner
// is the seller side regardless of account roles; without one, declared
// roles decide and the requester is the buyer when roles cannot. The unique
// pair index is the source of truth under concurrent first contact: a
// duplicate-key create means the other caller won, so we return their row.
func (s *ChatService) ResolveConversation(requesterID, counterpartID uint, propertyID *uint) (*models.Conversation, bool, error) {
	if requesterID == counterpartID {
		return nil, false, ErrSelfConversation
	}
	counterpart, err := s.users.GetByID(counterpartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, err
	}
	requester, err := s.users.GetByID(requesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, err
	}

	var buyerID, sellerID uint
	if propertyID != nil {
		prop, err := s.properties.GetByID(*propertyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, ErrPropertyNotFound
			}
			return nil, false, err
		}
		switch prop.OwnerID {
		case requesterID:
			sellerID, buyerID = requesterID, counterpartID
		case counterpartID:
			sellerID, buyerID = counterpartID, requesterID
		}
	}
	if buyerID == 0 {
		switch {
		case requester.Role == domain.RoleBuyer:
			buyerID, sellerID = requesterID, counterpartID
		case counterpart.Role == domain.RoleBuyer:
			buyerID, sellerID = counterpartID, requesterID
		default:
			// same non-buyer role on both sides: requester takes the buyer
			// slot so the pair key stays total and symmetric
			buyerID, sellerID = requesterID, counterpartID
		}
	}

	conv, err := s.convs.GetByPair(buyerID, sellerID)
	if err == nil {
		if propertyID != nil && (conv.PropertyID == nil || *conv.PropertyID != *propertyID) {
			if err := s.convs.SetProperty(conv.ID, *propertyID); err != nil {
				return nil, false, err
			}
			conv.PropertyID = propertyID
		}
		return conv, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	conv = &models.Conversation{BuyerID: buyerID, SellerID: sellerID, PropertyID: propertyID}
	if err := s.convs.Create(conv); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, rerr := s.convs.GetByPair(buyerID, sellerID)
			if rerr != nil {
				return nil, false, rerr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return conv, true, nil
}

// SendMessageInput is one send-message request. ConversationID zero means
// "resolve from ReceiverID (and PropertyID) first".
type SendMessageInput struct {
	ConversationID uint
	ReceiverID     uint
	Content        string
	PropertyID     *uint
}

type SendMessageResult struct {
	Conversation *models.Conversation
	Message      *models.Message
	Created      bool // conversation was created by this call
	ReceiverID   uint
}

// SendMessage persists the message together with the conversation's
// last-message fields and the receiver's unread counter as one transaction.
func (s *ChatService) SendMessage(senderID uint, in SendMessageInput) (*SendMessageResult, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	var (
		conv    *models.Conversation
		created bool
		err     error
	)
	if in.ConversationID != 0 {
		conv, err = s.convs.GetByID(in.ConversationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrConversationNotFound
			}
			return nil, err
		}
		if !conv.HasParticipant(senderID) {
			return nil, ErrNotParticipant
		}
	} else {
		conv, created, err = s.ResolveConversation(senderID, in.ReceiverID, in.PropertyID)
		if err != nil {
			return nil, err
		}
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
	}
	if err := s.convs.AppendMessage(msg, senderID == conv.BuyerID); err != nil {
		return nil, err
	}
	return &SendMessageResult{
		Conversation: conv,
		Message:      msg,
		Created:      created,
		ReceiverID:   conv.OtherParticipant(senderID),
	}, nil
}

// MarkAsRead flips counterpart-authored messages to read and resets only the
// caller's own unread counter.
func (s *ChatService) MarkAsRead(userID, conversationID uint) (*models.Conversation, error) {
	conv, err := s.convs.GetByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	if err := s.convs.MarkRead(conversationID, userID, userID == conv.BuyerID); err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversations re-derives the caller's conversation list from the store
// on every call so room membership is never stale.
func (s *ChatService) ListConversations(userID uint) ([]models.Conversation, error) {
	return s.convs.ListByUser(userID)
}

// ListMessages returns a message page for a conversation the caller belongs to.
func (s *ChatService) ListMessages(userID, conversationID uint, limit, offset int) ([]models.Message, error) {
	conv, err := s.convs.GetByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return s.convs.ListMessages(repository.MessageQuery{
		ConversationID: conversationID,
		Limit:          limit,
		Offset:         offset,
	})
}
