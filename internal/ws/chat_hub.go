package ws

import (
	"encoding/json"
	"sync"
)

// Room is the broadcast channel for one conversation. Every live session of
// either participant that has joined receives room events.
type Room struct {
	ConversationID uint
	clients        map[*Client]struct{}
	mu             sync.RWMutex
}

func NewRoom(conversationID uint) *Room {
	return &Room{
		ConversationID: conversationID,
		clients:        make(map[*Client]struct{}),
	}
}

func (r *Room) Join(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
}

func (r *Room) Leave(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
}

func (r *Room) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// BroadcastAll delivers to every session in the room, sender included.
func (r *Room) BroadcastAll(payload interface{}) {
	r.send(payload, func(*Client) bool { return true })
}

// Broadcast delivers to every session except the given connection (typing
// indicators must not echo back to the connection that produced them).
func (r *Room) Broadcast(from *Client, payload interface{}) {
	r.send(payload, func(c *Client) bool { return c != from })
}

// BroadcastExceptUser delivers to every session not owned by userID (read
// receipts are meant for the counterpart only, including none of the
// caller's other sessions).
func (r *Room) BroadcastExceptUser(userID uint, payload interface{}) {
	r.send(payload, func(c *Client) bool { return c.UserID != userID })
}

func (r *Room) send(payload interface{}, keep func(*Client) bool) {
	data, _ := json.Marshal(payload)
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		if keep(c) {
			clients = append(clients, c)
		}
	}
	r.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// ChatHub holds all conversation rooms by conversation ID.
type ChatHub struct {
	mu    sync.RWMutex
	rooms map[uint]*Room
}

func NewChatHub() *ChatHub {
	return &ChatHub{rooms: make(map[uint]*Room)}
}

func (h *ChatHub) GetOrCreateRoom(conversationID uint) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[conversationID]; ok {
		return r
	}
	r := NewRoom(conversationID)
	h.rooms[conversationID] = r
	return r
}

func (h *ChatHub) GetRoom(conversationID uint) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[conversationID]
}

func (h *ChatHub) RemoveRoom(conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, conversationID)
}
