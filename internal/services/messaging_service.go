package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"lifeflow-server/internal/domain/conversation"
	"lifeflow-server/internal/domain/message"
	"lifeflow-server/internal/events"
	"lifeflow-server/internal/repository"
	lifeflow_errors "lifeflow-server/pkg/errors"
	"lifeflow-server/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultConversationPageSize = 50
	DefaultMessagePageSize      = 50

	fallbackGroupName = "Group Chat"
	fallbackUserName  = "Unknown User"
)

// PresenceSource answers liveness questions. The WebSocket hub is the
// authority; there is no database-backed presence state.
type PresenceSource interface {
	IsOnline(userID uuid.UUID) bool
	OnlineCount() int
}

// ConversationView is a conversation decorated for the requesting user.
type ConversationView struct {
	Conversation conversation.Conversation
	DisplayName  string
	DisplayImage string
	LastMessage  *message.Message
	UnreadCount  int64
}

// InboxStats summarizes the requesting user's inbox.
type InboxStats struct {
	TotalConversations int64 `json:"total_conversations"`
	TotalUnread        int64 `json:"total_unread"`
	OnlineUsers        int   `json:"online_users"`
}

type MessagingService struct {
	db        *gorm.DB
	convRepo  repository.ConversationRepository
	msgRepo   repository.MessageRepository
	userRepo  repository.UserRepository
	publisher events.Publisher
	presence  PresenceSource
	log       *logger.Logger
}

func NewMessagingService(
	db *gorm.DB,
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	publisher events.Publisher,
	presence PresenceSource,
	log *logger.Logger,
) *MessagingService {
	return &MessagingService{
		db:        db,
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		userRepo:  userRepo,
		publisher: publisher,
		presence:  presence,
		log:       log,
	}
}

// CreateDirectConversation is idempotent: if a direct conversation
// between the two users already exists it is returned as-is.
func (s *MessagingService) CreateDirectConversation(ctx context.Context, userID, otherID uuid.UUID) (conversation.Conversation, error) {
	if userID == otherID {
		return conversation.Conversation{}, lifeflow_errors.ErrInvalidInput
	}

	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return conversation.Conversation{}, err
	}

	existing, err := s.convRepo.GetDirectConversation(ctx, userID, otherID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, lifeflow_errors.ErrNotFound) {
		return conversation.Conversation{}, err
	}

	conv := conversation.Conversation{
		ID:        uuid.New(),
		Type:      conversation.TypeDirect,
		CreatorID: userID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	create := func(repo repository.ConversationRepository) error {
		if err := repo.Create(ctx, &conv); err != nil {
			return err
		}
		for _, id := range []uuid.UUID{userID, otherID} {
			p := &conversation.Participant{
				ConversationID: conv.ID,
				UserID:         id,
				JoinedAt:       time.Now(),
			}
			if err := repo.AddParticipant(ctx, p); err != nil {
				return err
			}
		}
		return nil
	}

	if s.db == nil {
		if err := create(s.convRepo); err != nil {
			return conversation.Conversation{}, err
		}
	} else {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return create(repository.NewConversationRepository(tx))
		})
		if err != nil {
			return conversation.Conversation{}, err
		}
	}

	return s.convRepo.GetByID(ctx, conv.ID)
}

// CreateGroupConversation builds the participant set as the union of the
// requested members and the creator, so the creator is always in.
func (s *MessagingService) CreateGroupConversation(ctx context.Context, creatorID uuid.UUID, name, description string, participantIDs []uuid.UUID) (conversation.Conversation, error) {
	members := map[uuid.UUID]struct{}{creatorID: {}}
	for _, id := range participantIDs {
		members[id] = struct{}{}
	}
	if len(members) < 2 {
		return conversation.Conversation{}, lifeflow_errors.ErrInvalidInput
	}

	conv := conversation.Conversation{
		ID:          uuid.New(),
		Type:        conversation.TypeGroup,
		Name:        toNullString(strings.TrimSpace(name)),
		Description: toNullString(strings.TrimSpace(description)),
		CreatorID:   creatorID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	create := func(repo repository.ConversationRepository) error {
		if err := repo.Create(ctx, &conv); err != nil {
			return err
		}
		for id := range members {
			p := &conversation.Participant{
				ConversationID: conv.ID,
				UserID:         id,
				JoinedAt:       time.Now(),
			}
			if err := repo.AddParticipant(ctx, p); err != nil {
				return err
			}
		}
		return nil
	}

	if s.db == nil {
		if err := create(s.convRepo); err != nil {
			return conversation.Conversation{}, err
		}
	} else {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return create(repository.NewConversationRepository(tx))
		})
		if err != nil {
			return conversation.Conversation{}, err
		}
	}

	return s.convRepo.GetByID(ctx, conv.ID)
}

type UpdateConversationInput struct {
	Name        *string
	Description *string
	Avatar      *string
}

// UpdateConversation is restricted to the creator.
func (s *MessagingService) UpdateConversation(ctx context.Context, userID, conversationID uuid.UUID, in UpdateConversationInput) (conversation.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if conv.CreatorID != userID {
		return conversation.Conversation{}, lifeflow_errors.ErrForbidden
	}

	if in.Name != nil {
		conv.Name = toNullString(strings.TrimSpace(*in.Name))
	}
	if in.Description != nil {
		conv.Description = toNullString(strings.TrimSpace(*in.Description))
	}
	if in.Avatar != nil {
		conv.Avatar = toNullString(strings.TrimSpace(*in.Avatar))
	}
	conv.UpdatedAt = time.Now()

	if err := s.convRepo.Update(ctx, conv); err != nil {
		return conversation.Conversation{}, err
	}
	return conv, nil
}

func (s *MessagingService) ArchiveConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.convRepo.SetArchived(ctx, conversationID, true)
}

func (s *MessagingService) UnarchiveConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.convRepo.SetArchived(ctx, conversationID, false)
}

// DeleteConversation removes the conversation with all its messages,
// reactions and read markers. Any participant may do it.
func (s *MessagingService) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.convRepo.Delete(ctx, conversationID)
}

func (s *MessagingService) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (ConversationView, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return ConversationView{}, err
	}
	if !conv.HasParticipant(userID) {
		return ConversationView{}, lifeflow_errors.ErrForbidden
	}
	return s.buildView(ctx, conv, userID), nil
}

// ListConversations returns the user's non-archived conversations in
// recent-activity order, each decorated with a preview.
func (s *MessagingService) ListConversations(ctx context.Context, userID uuid.UUID, page, limit int) ([]ConversationView, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultConversationPageSize
	}

	conversations, total, err := s.convRepo.GetUserConversations(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	views := make([]ConversationView, 0, len(conversations))
	for _, conv := range conversations {
		views = append(views, s.buildView(ctx, conv, userID))
	}
	return views, total, nil
}

// SendMessage persists the message, bumps the conversation's activity
// timestamp and announces it on the conversation channel.
func (s *MessagingService) SendMessage(ctx context.Context, userID, conversationID uuid.UUID, content string) (message.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return message.Message{}, lifeflow_errors.ErrInvalidInput
	}

	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return message.Message{}, err
	}

	msg := message.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        content,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	send := func(msgRepo repository.MessageRepository, convRepo repository.ConversationRepository) error {
		if err := msgRepo.Create(ctx, &msg); err != nil {
			return err
		}
		return convRepo.TouchLastMessageAt(ctx, conversationID, msg.CreatedAt)
	}

	if s.db == nil {
		if err := send(s.msgRepo, s.convRepo); err != nil {
			return message.Message{}, err
		}
	} else {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return send(repository.NewMessageRepository(tx), repository.NewConversationRepository(tx))
		})
		if err != nil {
			return message.Message{}, err
		}
	}

	s.publish(ctx, events.ConversationChannel(conversationID), events.NewEvent(events.EventTypeMessageCreated, events.MessagePayload{
		MessageID:      msg.ID,
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}))

	return msg, nil
}

// EditMessage is sender-only and marks the message as edited.
func (s *MessagingService) EditMessage(ctx context.Context, userID, messageID uuid.UUID, content string) (message.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return message.Message{}, lifeflow_errors.ErrInvalidInput
	}

	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return message.Message{}, err
	}
	if msg.SenderID != userID {
		return message.Message{}, lifeflow_errors.ErrForbidden
	}

	msg.Content = content
	msg.IsEdited = true
	msg.UpdatedAt = time.Now()

	if err := s.msgRepo.Update(ctx, msg); err != nil {
		return message.Message{}, err
	}

	s.publish(ctx, events.ConversationChannel(msg.ConversationID), events.NewEvent(events.EventTypeMessageUpdated, events.MessagePayload{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		IsEdited:       true,
		CreatedAt:      msg.CreatedAt,
	}))

	return msg, nil
}

// DeleteMessage is sender-only.
func (s *MessagingService) DeleteMessage(ctx context.Context, userID, messageID uuid.UUID) error {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return lifeflow_errors.ErrForbidden
	}

	if err := s.msgRepo.Delete(ctx, messageID); err != nil {
		return err
	}

	s.publish(ctx, events.ConversationChannel(msg.ConversationID), events.NewEvent(events.EventTypeMessageDeleted, events.MessagePayload{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
	}))

	return nil
}

func (s *MessagingService) ListMessages(ctx context.Context, userID, conversationID uuid.UUID, page, limit int) ([]message.Message, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultMessagePageSize
	}
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return nil, 0, err
	}
	return s.msgRepo.GetConversationMessages(ctx, conversationID, page, limit)
}

// MarkConversationRead upserts the caller's read marker to now.
func (s *MessagingService) MarkConversationRead(ctx context.Context, userID, conversationID uuid.UUID) (conversation.ReadMarker, error) {
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return conversation.ReadMarker{}, err
	}

	marker := conversation.ReadMarker{
		ConversationID: conversationID,
		UserID:         userID,
		LastReadAt:     time.Now(),
	}
	if err := s.convRepo.UpsertReadMarker(ctx, &marker); err != nil {
		return conversation.ReadMarker{}, err
	}

	s.publish(ctx, events.ConversationChannel(conversationID), events.NewEvent(events.EventTypeConversationRead, events.ReadPayload{
		ConversationID: conversationID,
		UserID:         userID,
		LastReadAt:     marker.LastReadAt,
	}))

	return marker, nil
}

// AddReaction is idempotent: reacting twice with the same emoji is a
// no-op, not an error.
func (s *MessagingService) AddReaction(ctx context.Context, userID, messageID uuid.UUID, emoji string) error {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return lifeflow_errors.ErrInvalidInput
	}

	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.requireParticipant(ctx, msg.ConversationID, userID); err != nil {
		return err
	}

	reaction := message.Reaction{
		ID:        uuid.New(),
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	}
	if err := s.msgRepo.AddReaction(ctx, &reaction); err != nil {
		if errors.Is(err, lifeflow_errors.ErrAlreadyExists) {
			return nil
		}
		return err
	}

	s.publish(ctx, events.ConversationChannel(msg.ConversationID), events.NewEvent(events.EventTypeReactionAdded, events.ReactionPayload{
		MessageID:      messageID,
		ConversationID: msg.ConversationID,
		UserID:         userID,
		Emoji:          emoji,
	}))

	return nil
}

// RemoveReaction is silent when there is nothing to remove.
func (s *MessagingService) RemoveReaction(ctx context.Context, userID, messageID uuid.UUID, emoji string) error {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.requireParticipant(ctx, msg.ConversationID, userID); err != nil {
		return err
	}

	if err := s.msgRepo.RemoveReaction(ctx, messageID, userID, emoji); err != nil {
		if errors.Is(err, lifeflow_errors.ErrNotFound) {
			return nil
		}
		return err
	}

	s.publish(ctx, events.ConversationChannel(msg.ConversationID), events.NewEvent(events.EventTypeReactionRemoved, events.ReactionPayload{
		MessageID:      messageID,
		ConversationID: msg.ConversationID,
		UserID:         userID,
		Emoji:          emoji,
	}))

	return nil
}

// SearchMessages only looks inside conversations the caller belongs to.
func (s *MessagingService) SearchMessages(ctx context.Context, userID uuid.UUID, query string, page, limit int) ([]message.Message, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, lifeflow_errors.ErrInvalidInput
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultMessagePageSize
	}

	convIDs, err := s.convRepo.GetUserConversationIDs(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return s.msgRepo.SearchMessages(ctx, convIDs, query, page, limit)
}

// SearchConversationMessages searches a single conversation the caller
// belongs to.
func (s *MessagingService) SearchConversationMessages(ctx context.Context, userID, conversationID uuid.UUID, query string, page, limit int) ([]message.Message, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, lifeflow_errors.ErrInvalidInput
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultMessagePageSize
	}

	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return nil, 0, err
	}
	return s.msgRepo.SearchMessages(ctx, []uuid.UUID{conversationID}, query, page, limit)
}

// GetInboxStats walks the user's conversations and totals their unread
// counts, plus the current online user count from the hub.
func (s *MessagingService) GetInboxStats(ctx context.Context, userID uuid.UUID) (InboxStats, error) {
	convIDs, err := s.convRepo.GetUserConversationIDs(ctx, userID)
	if err != nil {
		return InboxStats{}, err
	}

	var totalUnread int64
	for _, id := range convIDs {
		totalUnread += s.unreadCount(ctx, id, userID)
	}

	stats := InboxStats{
		TotalConversations: int64(len(convIDs)),
		TotalUnread:        totalUnread,
	}
	if s.presence != nil {
		stats.OnlineUsers = s.presence.OnlineCount()
	}
	return stats, nil
}

func (s *MessagingService) requireParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	ok, err := s.convRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return lifeflow_errors.ErrForbidden
	}
	return nil
}

// buildView resolves the preview the way clients render an inbox row:
// direct conversations borrow the other participant's profile, groups
// show their own name. Lookups that fail degrade to placeholders.
func (s *MessagingService) buildView(ctx context.Context, conv conversation.Conversation, userID uuid.UUID) ConversationView {
	view := ConversationView{Conversation: conv}

	switch conv.Type {
	case conversation.TypeDirect:
		view.DisplayName = fallbackUserName
		if other, ok := conv.OtherParticipant(userID); ok {
			if u, err := s.userRepo.GetByID(ctx, other.UserID); err == nil {
				view.DisplayName = u.Name
				if u.Avatar.Valid {
					view.DisplayImage = u.Avatar.String
				}
			}
		}
	default:
		view.DisplayName = fallbackGroupName
		if conv.Name.Valid && conv.Name.String != "" {
			view.DisplayName = conv.Name.String
		}
		if conv.Avatar.Valid {
			view.DisplayImage = conv.Avatar.String
		}
	}

	if last, err := s.msgRepo.GetLatestMessage(ctx, conv.ID); err == nil {
		view.LastMessage = &last
	}

	view.UnreadCount = s.unreadCount(ctx, conv.ID, userID)
	return view
}

// unreadCount derives the count lazily from the read marker; a user
// with no marker has everything unread.
func (s *MessagingService) unreadCount(ctx context.Context, conversationID, userID uuid.UUID) int64 {
	since := time.Time{}
	if marker, err := s.convRepo.GetReadMarker(ctx, conversationID, userID); err == nil {
		since = marker.LastReadAt
	}
	count, err := s.msgRepo.CountUnread(ctx, conversationID, userID, since)
	if err != nil {
		s.log.Warn("failed to count unread messages", zap.Error(err), zap.String("conversation_id", conversationID.String()))
		return 0
	}
	return count
}

func (s *MessagingService) publish(ctx context.Context, channel string, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, channel, event); err != nil {
		s.log.Warn("failed to publish event", zap.Error(err), zap.String("event_type", event.Type), zap.String("channel", channel))
	}
}
