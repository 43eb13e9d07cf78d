package notification

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Type enumerates the social events that produce a notification record.
type Type string

const (
	TypeNewFollower          Type = "new_follower"
	TypeNewPostFromFollowing Type = "new_post_from_following"
	TypePostLiked            Type = "post_liked"
	TypePostCommented        Type = "post_commented"
	TypeCommentReplied       Type = "comment_replied"
	TypeMessageReceived      Type = "message_received"
	TypeFollowAccepted       Type = "follow_accepted"
	TypeMention              Type = "mention"
	TypeEngagement           Type = "engagement"
)

// Valid reports whether t is one of the known notification types.
func (t Type) Valid() bool {
	switch t {
	case TypeNewFollower, TypeNewPostFromFollowing, TypePostLiked,
		TypePostCommented, TypeCommentReplied, TypeMessageReceived,
		TypeFollowAccepted, TypeMention, TypeEngagement:
		return true
	}
	return false
}

// Notification represents the notifications table. Created by the engine on
// behalf of an actor, never by the recipient; is_read transitions false→true
// exactly once.
type Notification struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	RecipientID       uuid.UUID `gorm:"type:uuid;not null;index:idx_recipient"`
	ActorID           uuid.UUID `gorm:"type:uuid;not null"`
	Type              Type      `gorm:"not null"`
	Message           string    `gorm:"type:text"`
	RelatedEntityID   string
	RelatedEntityType string
	IsRead            bool      `gorm:"not null;default:false;index:idx_is_read"`
	CreatedAt         time.Time `gorm:"index:idx_created_at"`
	ReadAt            sql.NullTime
}

func (Notification) TableName() string {
	return "notifications"
}
