package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"nhadat/config"
	"nhadat/internal/auth"
	"nhadat/internal/models"
	"nhadat/internal/repository"
	"nhadat/internal/service"
	"nhadat/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	chatWriteWait  = 10 * time.Second
	chatPongWait   = 60 * time.Second
	chatPingPeriod = (chatPongWait * 9) / 10
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsEvent is the client-to-server envelope: {"event": "...", "data": {...}}.
type wsEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func evt(name string, data interface{}) gin.H {
	return gin.H{"event": name, "data": data}
}

func messagePayload(m *models.Message) gin.H {
	return gin.H{
		"id":              m.ID,
		"conversation_id": m.ConversationID,
		"sender_id":       m.SenderID,
		"message":         m.Content,
		"created_at":      m.CreatedAt,
	}
}

// sendError emits an error event to this connection only; the connection
// stays usable for subsequent events.
func sendError(c *ws.Client, msg string) {
	data, _ := json.Marshal(evt("error", gin.H{"message": msg}))
	select {
	case c.Send <- data:
	default:
	}
}

// UpgradeChatWS authenticates the connection from the token query param,
// enrolls it into the user's personal inbox channel and runs the chat event
// loop. Handlers for one connection run sequentially inside the read loop;
// races across connections serialize through the store.
func UpgradeChatWS(cfg *config.JWTConfig, inboxHub *ws.Hub, chatHub *ws.ChatHub, userRepo *repository.UserRepository, chatSvc *service.ChatService, notifSvc *service.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if _, err := userRepo.GetByID(claims.UserID); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}
		conn, err := chatUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := &ws.Client{
			UserID: claims.UserID,
			Role:   claims.Role,
			Send:   make(chan []byte, 256),
		}
		inboxHub.Register(client)
		joined := make(map[uint]*ws.Room)
		defer func() {
			for _, room := range joined {
				room.Leave(client)
			}
			client.Close()
			// Single-session presence: any disconnect reads as offline even
			// if the user has another live session.
			inboxHub.BroadcastAll(evt("user-offline", gin.H{"user_id": claims.UserID}))
		}()
		inboxHub.BroadcastAll(evt("user-online", gin.H{"user_id": claims.UserID}))

		conn.SetReadDeadline(time.Now().Add(chatPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(chatPongWait))
			return nil
		})
		go func() {
			ticker := time.NewTicker(chatPingPeriod)
			defer ticker.Stop()
			for {
				select {
				case msg, ok := <-client.Send:
					if !ok {
						return
					}
					conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
					if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				case <-ticker.C:
					conn.SetWriteDeadline(time.Now().Add(chatWriteWait))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var ev wsEvent
			if json.Unmarshal(raw, &ev) != nil {
				sendError(client, "malformed event")
				continue
			}
			switch ev.Event {
			case "join-conversations":
				handleJoinConversations(client, chatHub, chatSvc, joined)
			case "send-message":
				handleSendMessage(client, ev.Data, inboxHub, chatHub, chatSvc, notifSvc, joined)
			case "mark-as-read":
				handleMarkAsRead(client, ev.Data, chatHub, chatSvc)
			case "typing", "stop-typing":
				handleTyping(client, ev.Event, ev.Data, chatHub)
			default:
				sendError(client, "unknown event")
			}
		}
	}
}

// handleJoinConversations re-derives the caller's conversations from the
// database and subscribes the connection to each room, so membership is
// always consistent with current state.
func handleJoinConversations(client *ws.Client, chatHub *ws.ChatHub, chatSvc *service.ChatService, joined map[uint]*ws.Room) {
	convs, err := chatSvc.ListConversations(client.UserID)
	if err != nil {
		sendError(client, "could not load conversations")
		return
	}
	for i := range convs {
		room := chatHub.GetOrCreateRoom(convs[i].ID)
		room.Join(client)
		joined[convs[i].ID] = room
	}
}

func handleSendMessage(client *ws.Client, data json.RawMessage, inboxHub *ws.Hub, chatHub *ws.ChatHub, chatSvc *service.ChatService, notifSvc *service.NotificationService, joined map[uint]*ws.Room) {
	var req struct {
		ConversationID uint   `json:"conversationId"`
		ReceiverID     uint   `json:"receiverId"`
		Message        string `json:"message"`
		PropertyID     *uint  `json:"propertyId"`
	}
	if json.Unmarshal(data, &req) != nil {
		sendError(client, "malformed send-message payload")
		return
	}
	res, err := chatSvc.SendMessage(client.UserID, service.SendMessageInput{
		ConversationID: req.ConversationID,
		ReceiverID:     req.ReceiverID,
		Content:        req.Message,
		PropertyID:     req.PropertyID,
	})
	if err != nil {
		sendError(client, err.Error())
		return
	}
	conv := res.Conversation

	// The sender joins the room on first send so its own sessions get the
	// broadcast too.
	room := chatHub.GetOrCreateRoom(conv.ID)
	room.Join(client)
	joined[conv.ID] = room

	room.BroadcastAll(evt("new-message", messagePayload(res.Message)))
	// Point notification covers a receiver that has not subscribed to this
	// conversation's room yet (e.g. it was just created).
	inboxHub.BroadcastToUser(res.ReceiverID, evt("message-notification", messagePayload(res.Message)))
	if res.Created {
		inboxHub.BroadcastToUser(res.ReceiverID, evt("new-conversation", gin.H{
			"conversation_id": conv.ID,
			"buyer_id":        conv.BuyerID,
			"seller_id":       conv.SellerID,
			"property_id":     conv.PropertyID,
		}))
		notifSvc.NotifyNewConversation(res.ReceiverID, conv.ID, conv.PropertyID)
	}
	notifSvc.NotifyNewMessage(res.ReceiverID, client.UserID, conv.ID, res.Message.Content)
}

func handleMarkAsRead(client *ws.Client, data json.RawMessage, chatHub *ws.ChatHub, chatSvc *service.ChatService) {
	var req struct {
		ConversationID uint `json:"conversationId"`
	}
	if json.Unmarshal(data, &req) != nil || req.ConversationID == 0 {
		sendError(client, "malformed mark-as-read payload")
		return
	}
	conv, err := chatSvc.MarkAsRead(client.UserID, req.ConversationID)
	if err != nil {
		sendError(client, err.Error())
		return
	}
	// Read receipt goes to the counterpart only, never back to any of the
	// reader's own sessions.
	if room := chatHub.GetRoom(conv.ID); room != nil {
		room.BroadcastExceptUser(client.UserID, evt("messages-read", gin.H{
			"conversation_id": conv.ID,
			"reader_id":       client.UserID,
		}))
	}
}

// handleTyping is pure ephemeral fan-out, nothing persisted.
func handleTyping(client *ws.Client, event string, data json.RawMessage, chatHub *ws.ChatHub) {
	var req struct {
		ConversationID uint `json:"conversationId"`
	}
	if json.Unmarshal(data, &req) != nil || req.ConversationID == 0 {
		return
	}
	room := chatHub.GetRoom(req.ConversationID)
	if room == nil {
		return
	}
	out := "user-typing"
	if event == "stop-typing" {
		out = "user-stop-typing"
	}
	room.Broadcast(client, evt(out, gin.H{
		"conversation_id": req.ConversationID,
		"user_id":         client.UserID,
	}))
}
