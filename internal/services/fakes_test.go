package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"lifeflow-server/internal/domain/conversation"
	"lifeflow-server/internal/domain/message"
	"lifeflow-server/internal/domain/notification"
	"lifeflow-server/internal/domain/social"
	"lifeflow-server/internal/domain/user"
	"lifeflow-server/internal/events"
	lifeflow_errors "lifeflow-server/pkg/errors"
	"lifeflow-server/pkg/logger"

	"github.com/google/uuid"
)

func newTestLogger() *logger.Logger {
	return logger.New(logger.DevelopmentMode)
}

// capturePublisher records every published event for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	Channel string
	Event   events.Event
}

func (p *capturePublisher) Publish(_ context.Context, channel string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{Channel: channel, Event: event})
	return nil
}

func (p *capturePublisher) byType(eventType string) []capturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []capturedEvent
	for _, e := range p.events {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type staticPresence struct {
	online map[uuid.UUID]bool
}

func (s *staticPresence) IsOnline(userID uuid.UUID) bool { return s.online[userID] }
func (s *staticPresence) OnlineCount() int               { return len(s.online) }

type fakeUserRepo struct {
	users map[uuid.UUID]user.User
}

func newFakeUserRepo(users ...user.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]user.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return lifeflow_errors.ErrAlreadyExists
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return user.User{}, lifeflow_errors.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, lifeflow_errors.ErrNotFound
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]user.User, error) {
	var out []user.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u user.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return lifeflow_errors.ErrNotFound
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) SearchByName(_ context.Context, query string, page, limit int) ([]user.User, int64, error) {
	var matched []user.User
	for _, u := range r.users {
		if strings.Contains(strings.ToLower(u.Name), strings.ToLower(query)) {
			matched = append(matched, u)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	return paginate(matched, page, limit), int64(len(matched)), nil
}

type markerKey struct {
	conversationID uuid.UUID
	userID         uuid.UUID
}

type fakeConversationRepo struct {
	conversations map[uuid.UUID]conversation.Conversation
	participants  map[uuid.UUID][]conversation.Participant
	markers       map[markerKey]conversation.ReadMarker
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[uuid.UUID]conversation.Conversation),
		participants:  make(map[uuid.UUID][]conversation.Participant),
		markers:       make(map[markerKey]conversation.ReadMarker),
	}
}

func (r *fakeConversationRepo) Create(_ context.Context, c *conversation.Conversation) error {
	r.conversations[c.ID] = *c
	return nil
}

func (r *fakeConversationRepo) GetByID(_ context.Context, id uuid.UUID) (conversation.Conversation, error) {
	c, ok := r.conversations[id]
	if !ok {
		return conversation.Conversation{}, lifeflow_errors.ErrNotFound
	}
	c.Participants = r.participants[id]
	return c, nil
}

func (r *fakeConversationRepo) Update(_ context.Context, c conversation.Conversation) error {
	if _, ok := r.conversations[c.ID]; !ok {
		return lifeflow_errors.ErrNotFound
	}
	c.Participants = nil
	r.conversations[c.ID] = c
	return nil
}

func (r *fakeConversationRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.conversations[id]; !ok {
		return lifeflow_errors.ErrNotFound
	}
	delete(r.conversations, id)
	delete(r.participants, id)
	for key := range r.markers {
		if key.conversationID == id {
			delete(r.markers, key)
		}
	}
	return nil
}

func (r *fakeConversationRepo) GetUserConversations(ctx context.Context, userID uuid.UUID, page, limit int) ([]conversation.Conversation, int64, error) {
	var out []conversation.Conversation
	for id, c := range r.conversations {
		if c.IsArchived {
			continue
		}
		if ok, _ := r.IsParticipant(ctx, id, userID); ok {
			c.Participants = r.participants[id]
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *fakeConversationRepo) GetDirectConversation(ctx context.Context, userID1, userID2 uuid.UUID) (conversation.Conversation, error) {
	for id, c := range r.conversations {
		if c.Type != conversation.TypeDirect {
			continue
		}
		one, _ := r.IsParticipant(ctx, id, userID1)
		two, _ := r.IsParticipant(ctx, id, userID2)
		if one && two {
			c.Participants = r.participants[id]
			return c, nil
		}
	}
	return conversation.Conversation{}, lifeflow_errors.ErrNotFound
}

func (r *fakeConversationRepo) GetUserConversationIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range r.conversations {
		if ok, _ := r.IsParticipant(ctx, id, userID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeConversationRepo) AddParticipant(_ context.Context, p *conversation.Participant) error {
	r.participants[p.ConversationID] = append(r.participants[p.ConversationID], *p)
	return nil
}

func (r *fakeConversationRepo) RemoveParticipant(_ context.Context, conversationID, userID uuid.UUID) error {
	list := r.participants[conversationID]
	for i, p := range list {
		if p.UserID == userID {
			r.participants[conversationID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return lifeflow_errors.ErrNotFound
}

func (r *fakeConversationRepo) GetParticipants(_ context.Context, conversationID uuid.UUID) ([]conversation.Participant, error) {
	return r.participants[conversationID], nil
}

func (r *fakeConversationRepo) IsParticipant(_ context.Context, conversationID, userID uuid.UUID) (bool, error) {
	for _, p := range r.participants[conversationID] {
		if p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeConversationRepo) SetArchived(_ context.Context, conversationID uuid.UUID, archived bool) error {
	c, ok := r.conversations[conversationID]
	if !ok {
		return lifeflow_errors.ErrNotFound
	}
	c.IsArchived = archived
	r.conversations[conversationID] = c
	return nil
}

func (r *fakeConversationRepo) TouchLastMessageAt(_ context.Context, conversationID uuid.UUID, at time.Time) error {
	c, ok := r.conversations[conversationID]
	if !ok {
		return lifeflow_errors.ErrNotFound
	}
	c.LastMessageAt.Time = at
	c.LastMessageAt.Valid = true
	r.conversations[conversationID] = c
	return nil
}

func (r *fakeConversationRepo) UpsertReadMarker(_ context.Context, m *conversation.ReadMarker) error {
	r.markers[markerKey{m.ConversationID, m.UserID}] = *m
	return nil
}

func (r *fakeConversationRepo) GetReadMarker(_ context.Context, conversationID, userID uuid.UUID) (conversation.ReadMarker, error) {
	m, ok := r.markers[markerKey{conversationID, userID}]
	if !ok {
		return conversation.ReadMarker{}, lifeflow_errors.ErrNotFound
	}
	return m, nil
}

type fakeMessageRepo struct {
	messages    map[uuid.UUID]message.Message
	reactions   []message.Reaction
	attachments []message.Attachment
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uuid.UUID]message.Message)}
}

func (r *fakeMessageRepo) Create(_ context.Context, m *message.Message) error {
	r.messages[m.ID] = *m
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id uuid.UUID) (message.Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return message.Message{}, lifeflow_errors.ErrNotFound
	}
	return m, nil
}

func (r *fakeMessageRepo) Update(_ context.Context, m message.Message) error {
	if _, ok := r.messages[m.ID]; !ok {
		return lifeflow_errors.ErrNotFound
	}
	r.messages[m.ID] = m
	return nil
}

func (r *fakeMessageRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.messages[id]; !ok {
		return lifeflow_errors.ErrNotFound
	}
	delete(r.messages, id)
	return nil
}

func (r *fakeMessageRepo) inConversation(conversationID uuid.UUID) []message.Message {
	var out []message.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeMessageRepo) GetConversationMessages(_ context.Context, conversationID uuid.UUID, page, limit int) ([]message.Message, int64, error) {
	all := r.inConversation(conversationID)
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *fakeMessageRepo) GetLatestMessage(_ context.Context, conversationID uuid.UUID) (message.Message, error) {
	all := r.inConversation(conversationID)
	if len(all) == 0 {
		return message.Message{}, lifeflow_errors.ErrNotFound
	}
	return all[0], nil
}

func (r *fakeMessageRepo) SearchMessages(_ context.Context, conversationIDs []uuid.UUID, query string, page, limit int) ([]message.Message, int64, error) {
	if len(conversationIDs) == 0 {
		return nil, 0, nil
	}
	allowed := make(map[uuid.UUID]struct{}, len(conversationIDs))
	for _, id := range conversationIDs {
		allowed[id] = struct{}{}
	}
	var out []message.Message
	for _, m := range r.messages {
		if _, ok := allowed[m.ConversationID]; !ok {
			continue
		}
		if strings.Contains(strings.ToLower(m.Content), strings.ToLower(query)) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *fakeMessageRepo) CountUnread(_ context.Context, conversationID, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.SenderID != userID && m.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) AddReaction(_ context.Context, reaction *message.Reaction) error {
	for _, existing := range r.reactions {
		if existing.MessageID == reaction.MessageID && existing.UserID == reaction.UserID && existing.Emoji == reaction.Emoji {
			return lifeflow_errors.ErrAlreadyExists
		}
	}
	r.reactions = append(r.reactions, *reaction)
	return nil
}

func (r *fakeMessageRepo) RemoveReaction(_ context.Context, messageID, userID uuid.UUID, emoji string) error {
	for i, existing := range r.reactions {
		if existing.MessageID == messageID && existing.UserID == userID && existing.Emoji == emoji {
			r.reactions = append(r.reactions[:i], r.reactions[i+1:]...)
			return nil
		}
	}
	return lifeflow_errors.ErrNotFound
}

func (r *fakeMessageRepo) GetMessageReactions(_ context.Context, messageID uuid.UUID) ([]message.Reaction, error) {
	var out []message.Reaction
	for _, reaction := range r.reactions {
		if reaction.MessageID == messageID {
			out = append(out, reaction)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) CreateAttachment(_ context.Context, a *message.Attachment) error {
	r.attachments = append(r.attachments, *a)
	return nil
}

func (r *fakeMessageRepo) GetMessageAttachments(_ context.Context, messageID uuid.UUID) ([]message.Attachment, error) {
	var out []message.Attachment
	for _, a := range r.attachments {
		if a.MessageID == messageID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	notifications map[uuid.UUID]notification.Notification
	failFor       map[uuid.UUID]bool
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{
		notifications: make(map[uuid.UUID]notification.Notification),
		failFor:       make(map[uuid.UUID]bool),
	}
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *notification.Notification) error {
	if r.failFor[n.RecipientID] {
		return lifeflow_errors.ErrStorage
	}
	r.notifications[n.ID] = *n
	return nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id uuid.UUID) (notification.Notification, error) {
	n, ok := r.notifications[id]
	if !ok {
		return notification.Notification{}, lifeflow_errors.ErrNotFound
	}
	return n, nil
}

func (r *fakeNotificationRepo) Update(_ context.Context, n notification.Notification) error {
	if _, ok := r.notifications[n.ID]; !ok {
		return lifeflow_errors.ErrNotFound
	}
	r.notifications[n.ID] = n
	return nil
}

func (r *fakeNotificationRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.notifications[id]; !ok {
		return lifeflow_errors.ErrNotFound
	}
	delete(r.notifications, id)
	return nil
}

func (r *fakeNotificationRepo) forRecipient(recipientID uuid.UUID, filter func(notification.Notification) bool) []notification.Notification {
	var out []notification.Notification
	for _, n := range r.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if filter != nil && !filter(n) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeNotificationRepo) GetUserNotifications(_ context.Context, recipientID uuid.UUID, page, limit int) ([]notification.Notification, int64, error) {
	all := r.forRecipient(recipientID, nil)
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *fakeNotificationRepo) GetUnreadNotifications(_ context.Context, recipientID uuid.UUID, page, limit int) ([]notification.Notification, int64, error) {
	all := r.forRecipient(recipientID, func(n notification.Notification) bool { return !n.IsRead })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *fakeNotificationRepo) GetNotificationsByType(_ context.Context, recipientID uuid.UUID, nType notification.Type, page, limit int) ([]notification.Notification, int64, error) {
	all := r.forRecipient(recipientID, func(n notification.Notification) bool { return n.Type == nType })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, recipientID uuid.UUID) (int64, error) {
	return int64(len(r.forRecipient(recipientID, func(n notification.Notification) bool { return !n.IsRead }))), nil
}

func (r *fakeNotificationRepo) CountAll(_ context.Context, recipientID uuid.UUID) (int64, error) {
	return int64(len(r.forRecipient(recipientID, nil))), nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(_ context.Context, recipientID uuid.UUID, at time.Time) (int64, error) {
	var updated int64
	for id, n := range r.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			n.ReadAt.Time = at
			n.ReadAt.Valid = true
			r.notifications[id] = n
			updated++
		}
	}
	return updated, nil
}

func (r *fakeNotificationRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	for id, n := range r.notifications {
		if n.CreatedAt.Before(cutoff) {
			delete(r.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeNotificationRepo) DeleteOldForRecipient(_ context.Context, recipientID uuid.UUID, cutoff time.Time) (int64, error) {
	var deleted int64
	for id, n := range r.notifications {
		if n.RecipientID == recipientID && n.CreatedAt.Before(cutoff) {
			delete(r.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

type followKey struct {
	followerID  uuid.UUID
	followingID uuid.UUID
}

type fakeFollowRepo struct {
	follows map[followKey]social.Follow
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{follows: make(map[followKey]social.Follow)}
}

func (r *fakeFollowRepo) Create(_ context.Context, f *social.Follow) error {
	key := followKey{f.FollowerID, f.FollowingID}
	if _, ok := r.follows[key]; ok {
		return lifeflow_errors.ErrAlreadyExists
	}
	r.follows[key] = *f
	return nil
}

func (r *fakeFollowRepo) Delete(_ context.Context, followerID, followingID uuid.UUID) error {
	key := followKey{followerID, followingID}
	if _, ok := r.follows[key]; !ok {
		return lifeflow_errors.ErrNotFound
	}
	delete(r.follows, key)
	return nil
}

func (r *fakeFollowRepo) Get(_ context.Context, followerID, followingID uuid.UUID) (social.Follow, error) {
	f, ok := r.follows[followKey{followerID, followingID}]
	if !ok {
		return social.Follow{}, lifeflow_errors.ErrNotFound
	}
	return f, nil
}

func (r *fakeFollowRepo) Exists(_ context.Context, followerID, followingID uuid.UUID) (bool, error) {
	_, ok := r.follows[followKey{followerID, followingID}]
	return ok, nil
}

func (r *fakeFollowRepo) Update(_ context.Context, f social.Follow) error {
	key := followKey{f.FollowerID, f.FollowingID}
	if _, ok := r.follows[key]; !ok {
		return lifeflow_errors.ErrNotFound
	}
	r.follows[key] = f
	return nil
}

func (r *fakeFollowRepo) GetFollowers(_ context.Context, userID uuid.UUID, page, limit int) ([]social.Follow, int64, error) {
	var out []social.Follow
	for _, f := range r.follows {
		if f.FollowingID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *fakeFollowRepo) GetFollowing(_ context.Context, userID uuid.UUID, page, limit int) ([]social.Follow, int64, error) {
	var out []social.Follow
	for _, f := range r.follows {
		if f.FollowerID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *fakeFollowRepo) GetActiveFollowerIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, f := range r.follows {
		if f.FollowingID == userID && !f.IsMuted {
			ids = append(ids, f.FollowerID)
		}
	}
	return ids, nil
}

func paginate[T any](items []T, page, limit int) []T {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
