package service

import (
	"testing"
	"time"

	"nhadat/internal/domain"
	"nhadat/internal/models"
	"nhadat/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUsers struct {
	users map[uint]*models.User
}

func (f *fakeUsers) GetByID(id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeProps struct {
	props map[uint]*models.Property
}

func (f *fakeProps) GetByID(id uint) (*models.Property, error) {
	if p, ok := f.props[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// fakeConvStore mimics the transactional conversation store in memory,
// including the unique pair index.
type fakeConvStore struct {
	nextConvID uint
	nextMsgID  uint
	convs      map[uint]*models.Conversation
	msgs       []*models.Message
	// raceOnCreate simulates losing the unique-index race: the next Create
	// inserts the concurrent caller's row first and reports a duplicate key.
	raceOnCreate bool
}

func newFakeConvStore() *fakeConvStore {
	return &fakeConvStore{convs: make(map[uint]*models.Conversation)}
}

func (f *fakeConvStore) insert(c *models.Conversation) *models.Conversation {
	f.nextConvID++
	c.ID = f.nextConvID
	f.convs[c.ID] = c
	return c
}

func samePair(c *models.Conversation, buyerID, sellerID uint) bool {
	return (c.BuyerID == buyerID && c.SellerID == sellerID) ||
		(c.BuyerID == sellerID && c.SellerID == buyerID)
}

func (f *fakeConvStore) Create(c *models.Conversation) error {
	if f.raceOnCreate {
		f.raceOnCreate = false
		// The concurrent winner may have derived the opposite orientation;
		// the normalized pair index collides either way.
		f.insert(&models.Conversation{BuyerID: c.SellerID, SellerID: c.BuyerID})
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range f.convs {
		if samePair(existing, c.BuyerID, c.SellerID) {
			return gorm.ErrDuplicatedKey
		}
	}
	f.insert(c)
	return nil
}

func (f *fakeConvStore) GetByID(id uint) (*models.Conversation, error) {
	if c, ok := f.convs[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeConvStore) GetByPair(buyerID, sellerID uint) (*models.Conversation, error) {
	for _, c := range f.convs {
		if samePair(c, buyerID, sellerID) {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeConvStore) ListByUser(userID uint) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range f.convs {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeConvStore) SetProperty(convID, propertyID uint) error {
	c, ok := f.convs[convID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	pid := propertyID
	c.PropertyID = &pid
	return nil
}

func (f *fakeConvStore) AppendMessage(m *models.Message, senderIsBuyer bool) error {
	c, ok := f.convs[m.ConversationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.nextMsgID++
	m.ID = f.nextMsgID
	m.CreatedAt = time.Now()
	f.msgs = append(f.msgs, m)
	now := m.CreatedAt
	c.LastMessage = m.Content
	c.LastMessageAt = &now
	if senderIsBuyer {
		c.UnreadCountSeller++
	} else {
		c.UnreadCountBuyer++
	}
	return nil
}

func (f *fakeConvStore) MarkRead(convID, readerID uint, readerIsBuyer bool) error {
	c, ok := f.convs[convID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, m := range f.msgs {
		if m.ConversationID == convID && m.SenderID != readerID {
			m.Read = true
		}
	}
	if readerIsBuyer {
		c.UnreadCountBuyer = 0
	} else {
		c.UnreadCountSeller = 0
	}
	return nil
}

func (f *fakeConvStore) ListMessages(q repository.MessageQuery) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.msgs {
		if m.ConversationID == q.ConversationID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func newChatFixture() (*ChatService, *fakeConvStore) {
	users := &fakeUsers{users: map[uint]*models.User{
		1: {ID: 1, Role: domain.RoleBuyer},
		2: {ID: 2, Role: domain.RoleSeller},
		3: {ID: 3, Role: domain.RoleSeller},
	}}
	props := &fakeProps{props: map[uint]*models.Property{
		10: {ID: 10, OwnerID: 2, Title: "Can ho Q7"},
	}}
	store := newFakeConvStore()
	return NewChatService(users, props, store), store
}

func TestResolveConversationSymmetric(t *testing.T) {
	svc, _ := newChatFixture()
	c1, created, err := svc.ResolveConversation(1, 2, nil)
	require.NoError(t, err)
	assert.True(t, created)
	c2, created, err := svc.ResolveConversation(2, 1, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, c1.ID, c2.ID, "resolving (A,B) and (B,A) must return the same conversation")
}

func TestResolveConversationListingOwnerIsSeller(t *testing.T) {
	svc, _ := newChatFixture()
	pid := uint(10)
	// Requester 3 has SELLER role, but user 2 owns the listing, so 3 is the buyer side.
	c, _, err := svc.ResolveConversation(3, 2, &pid)
	require.NoError(t, err)
	assert.Equal(t, uint(3), c.BuyerID)
	assert.Equal(t, uint(2), c.SellerID)
}

func TestResolveConversationRoleFallback(t *testing.T) {
	svc, _ := newChatFixture()
	// Both non-buyer role: requester takes the buyer slot.
	c, _, err := svc.ResolveConversation(3, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(3), c.BuyerID)
	assert.Equal(t, uint(2), c.SellerID)
	// Declared BUYER role wins regardless of who asks.
	c2, _, err := svc.ResolveConversation(2, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(1), c2.BuyerID)
	assert.Equal(t, uint(2), c2.SellerID)
}

func TestResolveConversationSymmetricSameRole(t *testing.T) {
	// Users 2 and 3 are both SELLER, so the role fallback derives opposite
	// buyer/seller orientations depending on who asks. The pair must still
	// map to a single conversation.
	svc, store := newChatFixture()
	c1, created, err := svc.ResolveConversation(3, 2, nil)
	require.NoError(t, err)
	assert.True(t, created)
	c2, created, err := svc.ResolveConversation(2, 3, nil)
	require.NoError(t, err)
	assert.False(t, created, "the reverse direction must reuse the existing row")
	assert.Equal(t, c1.ID, c2.ID)
	assert.Len(t, store.convs, 1)
}

func TestResolveListingContactThenBareReply(t *testing.T) {
	// Seller 3 contacts listing owner 2 about listing 10, becoming the buyer
	// side. Owner 2 replying without a conversation or listing ref must land
	// in the same thread even though the fallback would flip the orientation.
	svc, store := newChatFixture()
	pid := uint(10)
	c1, _, err := svc.ResolveConversation(3, 2, &pid)
	require.NoError(t, err)
	require.Equal(t, uint(3), c1.BuyerID)

	res, err := svc.SendMessage(2, SendMessageInput{ReceiverID: 3, Content: "chao ban"})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, c1.ID, res.Conversation.ID)
	assert.Len(t, store.convs, 1)
	assert.Equal(t, 1, store.convs[c1.ID].UnreadCountBuyer, "reply lands on the original thread's counters")
}

func TestResolveConversationSelf(t *testing.T) {
	svc, _ := newChatFixture()
	_, _, err := svc.ResolveConversation(1, 1, nil)
	assert.ErrorIs(t, err, ErrSelfConversation)
}

func TestResolveConversationCounterpartMissing(t *testing.T) {
	svc, _ := newChatFixture()
	_, _, err := svc.ResolveConversation(1, 99, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResolveConversationCreateRace(t *testing.T) {
	svc, store := newChatFixture()
	store.raceOnCreate = true
	c, created, err := svc.ResolveConversation(1, 2, nil)
	require.NoError(t, err, "losing the create race must not surface an error")
	assert.False(t, created)
	require.NotNil(t, c)
	assert.Len(t, store.convs, 1, "exactly one conversation row for the pair")
}

func TestResolveConversationBackfillsListing(t *testing.T) {
	svc, _ := newChatFixture()
	c, _, err := svc.ResolveConversation(1, 2, nil)
	require.NoError(t, err)
	require.Nil(t, c.PropertyID)

	pid := uint(10)
	c2, created, err := svc.ResolveConversation(1, 2, &pid)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, c.ID, c2.ID)
	require.NotNil(t, c2.PropertyID)
	assert.Equal(t, pid, *c2.PropertyID)
}

func TestSendMessageIncrementsReceiverCounterOnly(t *testing.T) {
	svc, store := newChatFixture()
	res, err := svc.SendMessage(1, SendMessageInput{ReceiverID: 2, Content: "chao anh"})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, uint(2), res.ReceiverID)

	conv := store.convs[res.Conversation.ID]
	assert.Equal(t, 1, conv.UnreadCountSeller, "seller's unread count reflects the buyer's message")
	assert.Equal(t, 0, conv.UnreadCountBuyer, "sender's own counter is untouched")
	assert.Equal(t, "chao anh", conv.LastMessage)
	require.NotNil(t, conv.LastMessageAt)
}

func TestSendMessageByConversationID(t *testing.T) {
	svc, _ := newChatFixture()
	res, err := svc.SendMessage(1, SendMessageInput{ReceiverID: 2, Content: "dau tien"})
	require.NoError(t, err)

	res2, err := svc.SendMessage(2, SendMessageInput{ConversationID: res.Conversation.ID, Content: "tra loi"})
	require.NoError(t, err)
	assert.False(t, res2.Created)
	assert.Equal(t, uint(1), res2.ReceiverID)
}

func TestSendMessageNotParticipant(t *testing.T) {
	svc, _ := newChatFixture()
	res, err := svc.SendMessage(1, SendMessageInput{ReceiverID: 2, Content: "hi"})
	require.NoError(t, err)
	_, err = svc.SendMessage(3, SendMessageInput{ConversationID: res.Conversation.ID, Content: "xin chao"})
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestSendMessageEmpty(t *testing.T) {
	svc, _ := newChatFixture()
	_, err := svc.SendMessage(1, SendMessageInput{ReceiverID: 2, Content: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestMarkAsRead(t *testing.T) {
	svc, store := newChatFixture()
	res, err := svc.SendMessage(1, SendMessageInput{ReceiverID: 2, Content: "mot"})
	require.NoError(t, err)
	convID := res.Conversation.ID
	_, err = svc.SendMessage(2, SendMessageInput{ConversationID: convID, Content: "hai"})
	require.NoError(t, err)

	conv := store.convs[convID]
	require.Equal(t, 1, conv.UnreadCountBuyer)
	require.Equal(t, 1, conv.UnreadCountSeller)

	// Buyer reads: only the buyer's counter resets, only the seller's
	// messages flip to read.
	_, err = svc.MarkAsRead(1, convID)
	require.NoError(t, err)
	assert.Equal(t, 0, conv.UnreadCountBuyer)
	assert.Equal(t, 1, conv.UnreadCountSeller, "counterpart's counter must never be reset by the caller")
	for _, m := range store.msgs {
		if m.SenderID == 2 {
			assert.True(t, m.Read)
		} else {
			assert.False(t, m.Read, "caller's own messages are unaffected")
		}
	}
}

func TestMarkAsReadNotParticipant(t *testing.T) {
	svc, _ := newChatFixture()
	res, err := svc.SendMessage(1, SendMessageInput{ReceiverID: 2, Content: "hi"})
	require.NoError(t, err)
	_, err = svc.MarkAsRead(3, res.Conversation.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestBuyerSellerUnreadScenario(t *testing.T) {
	// Buyer U1 messages seller U2 about listing 10; U2 replies. U1's view
	// shows one unread until U1 marks as read.
	svc, store := newChatFixture()
	pid := uint(10)
	res, err := svc.SendMessage(1, SendMessageInput{ReceiverID: 2, Content: "con nha nay khong?", PropertyID: &pid})
	require.NoError(t, err)
	convID := res.Conversation.ID

	_, err = svc.SendMessage(2, SendMessageInput{ConversationID: convID, Content: "van con ban nhe"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.convs[convID].UnreadCountBuyer)

	_, err = svc.MarkAsRead(1, convID)
	require.NoError(t, err)
	assert.Equal(t, 0, store.convs[convID].UnreadCountBuyer)
}

func TestListMessagesAuthorization(t *testing.T) {
	svc, _ := newChatFixture()
	res, err := svc.SendMessage(1, SendMessageInput{ReceiverID: 2, Content: "hi"})
	require.NoError(t, err)

	msgs, err := svc.ListMessages(2, res.Conversation.ID, 50, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	_, err = svc.ListMessages(3, res.Conversation.ID, 50, 0)
	assert.ErrorIs(t, err, ErrNotParticipant)
}
