package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event type constants, format: domain.action
const (
	EventTypeMessageCreated = "message.created"
	EventTypeMessageUpdated = "message.updated"
	EventTypeMessageDeleted = "message.deleted"

	EventTypeReactionAdded   = "reaction.added"
	EventTypeReactionRemoved = "reaction.removed"

	EventTypeTypingIndicator = "typing.indicator"
	EventTypePresenceChange  = "presence.change"

	EventTypeConversationRead = "conversation.read"

	EventTypeNotificationCreated = "notification.created"
	EventTypeUnreadCount         = "unread.count"

	EventTypeFollowNew     = "follow.new"
	EventTypeFollowRemoved = "follow.removed"
)

// Redis channel prefixes
const (
	ChannelPrefixConversation = "channel:conversation:"
	ChannelPrefixUser         = "channel:user:"
)

func ConversationChannel(conversationID uuid.UUID) string {
	return ChannelPrefixConversation + conversationID.String()
}

func UserChannel(userID uuid.UUID) string {
	return ChannelPrefixUser + userID.String()
}

// Event is the envelope for every message crossing the pub/sub bus.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewEvent(eventType string, payload interface{}) Event {
	return Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

type MessagePayload struct {
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content"`
	IsEdited       bool      `json:"is_edited"`
	CreatedAt      time.Time `json:"created_at"`
}

type ReactionPayload struct {
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	Emoji          string    `json:"emoji"`
}

type TypingPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	UserName       string    `json:"user_name"`
	IsTyping       bool      `json:"is_typing"`
}

type PresencePayload struct {
	UserID   uuid.UUID `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	Status   string    `json:"status"`
}

type ReadPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	LastReadAt     time.Time `json:"last_read_at"`
}

type NotificationPayload struct {
	NotificationID uuid.UUID `json:"notification_id"`
	RecipientID    uuid.UUID `json:"recipient_id"`
	ActorID        uuid.UUID `json:"actor_id"`
	Type           string    `json:"type"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

type UnreadCountPayload struct {
	UserID uuid.UUID `json:"user_id"`
	Count  int64     `json:"count"`
}

type FollowPayload struct {
	FollowerID     uuid.UUID `json:"follower_id"`
	FollowerName   string    `json:"follower_name"`
	FollowerAvatar string    `json:"follower_avatar,omitempty"`
	FollowingID    uuid.UUID `json:"following_id"`
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channels []string, handler func(channel string, payload []byte)) error
}
