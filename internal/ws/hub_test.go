package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userID uint) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, 16)}
}

func recv(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-c.Send:
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &out))
		return out
	default:
		return nil
	}
}

func TestHubBroadcastToUserReachesAllSessions(t *testing.T) {
	h := NewHub()
	a1 := newTestClient(1)
	a2 := newTestClient(1)
	b := newTestClient(2)
	h.Register(a1)
	h.Register(a2)
	h.Register(b)

	h.BroadcastToUser(1, map[string]string{"event": "ping"})
	assert.NotNil(t, recv(t, a1))
	assert.NotNil(t, recv(t, a2))
	assert.Nil(t, recv(t, b), "other users receive nothing")
}

func TestHubUnregisterOnClose(t *testing.T) {
	h := NewHub()
	c := newTestClient(1)
	h.Register(c)
	require.Equal(t, 1, h.ClientCount())
	c.Close()
	assert.Equal(t, 0, h.ClientCount())
	h.BroadcastToUser(1, "late") // must not panic on the closed channel
}

func TestRoomBroadcastAllIncludesSender(t *testing.T) {
	r := NewRoom(5)
	sender := newTestClient(1)
	other := newTestClient(2)
	r.Join(sender)
	r.Join(other)

	r.BroadcastAll(map[string]string{"event": "new-message"})
	assert.NotNil(t, recv(t, sender), "sender's own sessions see the message too")
	assert.NotNil(t, recv(t, other))
}

func TestRoomBroadcastExcludesConnection(t *testing.T) {
	r := NewRoom(5)
	sender := newTestClient(1)
	senderOther := newTestClient(1)
	peer := newTestClient(2)
	r.Join(sender)
	r.Join(senderOther)
	r.Join(peer)

	r.Broadcast(sender, map[string]string{"event": "user-typing"})
	assert.Nil(t, recv(t, sender), "typing never echoes to the producing connection")
	assert.NotNil(t, recv(t, senderOther))
	assert.NotNil(t, recv(t, peer))
}

func TestRoomBroadcastExceptUser(t *testing.T) {
	r := NewRoom(5)
	reader1 := newTestClient(1)
	reader2 := newTestClient(1)
	peer := newTestClient(2)
	r.Join(reader1)
	r.Join(reader2)
	r.Join(peer)

	r.BroadcastExceptUser(1, map[string]string{"event": "messages-read"})
	assert.Nil(t, recv(t, reader1))
	assert.Nil(t, recv(t, reader2), "none of the reader's sessions get the receipt")
	assert.NotNil(t, recv(t, peer))
}

func TestRoomLeave(t *testing.T) {
	r := NewRoom(5)
	c := newTestClient(1)
	r.Join(c)
	require.Equal(t, 1, r.ClientCount())
	r.Leave(c)
	assert.Equal(t, 0, r.ClientCount())
	r.BroadcastAll("bye")
	assert.Nil(t, recv(t, c))
}

func TestChatHubGetOrCreateRoomIsStable(t *testing.T) {
	h := NewChatHub()
	r1 := h.GetOrCreateRoom(9)
	r2 := h.GetOrCreateRoom(9)
	assert.Same(t, r1, r2)
	assert.Nil(t, h.GetRoom(10))
}
