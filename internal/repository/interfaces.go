package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lifeflow-server/internal/domain/conversation"
	"lifeflow-server/internal/domain/message"
	"lifeflow-server/internal/domain/notification"
	"lifeflow-server/internal/domain/social"
	"lifeflow-server/internal/domain/user"
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error)
	Update(ctx context.Context, u user.User) error
	SearchByName(ctx context.Context, query string, page, limit int) ([]user.User, int64, error)
}

type ConversationRepository interface {
	Create(ctx context.Context, c *conversation.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error)
	Update(ctx context.Context, c conversation.Conversation) error
	Delete(ctx context.Context, id uuid.UUID) error

	GetUserConversations(ctx context.Context, userID uuid.UUID, page, limit int) ([]conversation.Conversation, int64, error)
	GetDirectConversation(ctx context.Context, userID1, userID2 uuid.UUID) (conversation.Conversation, error)
	GetUserConversationIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	AddParticipant(ctx context.Context, p *conversation.Participant) error
	RemoveParticipant(ctx context.Context, conversationID, userID uuid.UUID) error
	GetParticipants(ctx context.Context, conversationID uuid.UUID) ([]conversation.Participant, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)

	SetArchived(ctx context.Context, conversationID uuid.UUID, archived bool) error
	TouchLastMessageAt(ctx context.Context, conversationID uuid.UUID, at time.Time) error

	UpsertReadMarker(ctx context.Context, m *conversation.ReadMarker) error
	GetReadMarker(ctx context.Context, conversationID, userID uuid.UUID) (conversation.ReadMarker, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (message.Message, error)
	Update(ctx context.Context, m message.Message) error
	Delete(ctx context.Context, id uuid.UUID) error

	GetConversationMessages(ctx context.Context, conversationID uuid.UUID, page, limit int) ([]message.Message, int64, error)
	GetLatestMessage(ctx context.Context, conversationID uuid.UUID) (message.Message, error)
	SearchMessages(ctx context.Context, conversationIDs []uuid.UUID, query string, page, limit int) ([]message.Message, int64, error)
	CountUnread(ctx context.Context, conversationID, userID uuid.UUID, since time.Time) (int64, error)

	AddReaction(ctx context.Context, r *message.Reaction) error
	RemoveReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) error
	GetMessageReactions(ctx context.Context, messageID uuid.UUID) ([]message.Reaction, error)

	CreateAttachment(ctx context.Context, a *message.Attachment) error
	GetMessageAttachments(ctx context.Context, messageID uuid.UUID) ([]message.Attachment, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *notification.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (notification.Notification, error)
	Update(ctx context.Context, n notification.Notification) error
	Delete(ctx context.Context, id uuid.UUID) error

	GetUserNotifications(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]notification.Notification, int64, error)
	GetUnreadNotifications(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]notification.Notification, int64, error)
	GetNotificationsByType(ctx context.Context, recipientID uuid.UUID, nType notification.Type, page, limit int) ([]notification.Notification, int64, error)

	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
	CountAll(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkAllAsRead(ctx context.Context, recipientID uuid.UUID, at time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteOldForRecipient(ctx context.Context, recipientID uuid.UUID, cutoff time.Time) (int64, error)
}

type FollowRepository interface {
	Create(ctx context.Context, f *social.Follow) error
	Delete(ctx context.Context, followerID, followingID uuid.UUID) error
	Get(ctx context.Context, followerID, followingID uuid.UUID) (social.Follow, error)
	Update(ctx context.Context, f social.Follow) error

	GetFollowers(ctx context.Context, userID uuid.UUID, page, limit int) ([]social.Follow, int64, error)
	GetFollowing(ctx context.Context, userID uuid.UUID, page, limit int) ([]social.Follow, int64, error)
	GetActiveFollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
}
