package service

import (
	"encoding/json"
	"fmt"
	"log"

	"nhadat/internal/domain"
	"nhadat/internal/models"
)

// NotificationStore persists notification records.
type NotificationStore interface {
	Create(n *models.Notification) error
}

// NotificationService persists notification records. It is strictly
// fire-and-forget: a failed create is logged and swallowed so it can never
// abort the operation that triggered it.
type NotificationService struct {
	repo NotificationStore
}

func NewNotificationService(repo NotificationStore) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, propertyID *uint, data map[string]interface{}) {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	err := s.repo.Create(&models.Notification{
		UserID:     userID,
		Type:       notifType,
		Title:      title,
		Body:       body,
		Data:       dataJSON,
		PropertyID: propertyID,
	})
	if err != nil {
		log.Printf("[notify] create failed for user %d type %s: %v", userID, notifType, err)
	}
}

func (s *NotificationService) NotifyNewMessage(userID, senderID, conversationID uint, preview string) {
	// Truncate on rune boundaries; Vietnamese text is multi-byte and a byte
	// slice could cut a character in half.
	if r := []rune(preview); len(r) > 120 {
		preview = string(r[:120])
	}
	s.Notify(userID, domain.NotifTypeNewMessage, "Tin nhan moi", preview,
		nil, map[string]interface{}{"conversation_id": conversationID, "sender_id": senderID})
}

func (s *NotificationService) NotifyNewConversation(userID, conversationID uint, propertyID *uint) {
	s.Notify(userID, domain.NotifTypeNewConversation, "Cuoc tro chuyen moi", "Ban co mot cuoc tro chuyen moi",
		propertyID, map[string]interface{}{"conversation_id": conversationID})
}

func (s *NotificationService) NotifyDepositResult(userID uint, amount int64, reference string, success bool) {
	title, body := "Nap tien thanh cong", fmt.Sprintf("Vi cua ban da duoc cong %d VND", amount)
	if !success {
		title, body = "Nap tien that bai", "Giao dich nap tien khong thanh cong"
	}
	s.Notify(userID, domain.NotifTypeDepositResult, title, body,
		nil, map[string]interface{}{"amount": amount, "reference": reference, "success": success})
}

func (s *NotificationService) NotifyListingApproved(userID, propertyID uint, title string) {
	s.Notify(userID, domain.NotifTypeListingApproved, "Tin dang da duoc duyet", title, &propertyID, nil)
}

func (s *NotificationService) NotifyListingRejected(userID, propertyID uint, note string) {
	s.Notify(userID, domain.NotifTypeListingRejected, "Tin dang bi tu choi", note, &propertyID, nil)
}

func (s *NotificationService) NotifyWalletAdjusted(userID uint, amount int64, add bool) {
	verb := "cong"
	if !add {
		verb = "tru"
	}
	s.Notify(userID, domain.NotifTypeWalletAdjusted, "Dieu chinh so du",
		fmt.Sprintf("Quan tri vien da %s %d VND vao vi cua ban", verb, amount), nil,
		map[string]interface{}{"amount": amount, "add": add})
}
