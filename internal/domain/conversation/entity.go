package conversation

import (
	"database/sql"
	"time"

	"lifeflow-server/internal/domain/message"

	"github.com/google/uuid"
)

// Conversation kinds.
const (
	TypeDirect = "direct"
	TypeGroup  = "group"
)

// Conversation represents the conversations table. A direct conversation has
// exactly two participants; a group conversation has at least its creator.
type Conversation struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type          string    `gorm:"not null;index"`
	Name          sql.NullString
	Description   sql.NullString
	Avatar        sql.NullString
	CreatorID     uuid.UUID `gorm:"type:uuid;not null"`
	IsArchived    bool      `gorm:"not null;default:false"`
	LastMessageAt sql.NullTime
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Relationships
	Participants []Participant     `gorm:"constraint:OnDelete:CASCADE"`
	Messages     []message.Message `gorm:"constraint:OnDelete:CASCADE"`
	ReadMarkers  []ReadMarker      `gorm:"constraint:OnDelete:CASCADE"`
}

// Participant represents the conversation_participants table. One row per
// (conversation, user) pair; only the personal flags ever change.
type Participant struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	IsMuted        bool      `gorm:"not null;default:false"`
	IsPinned       bool      `gorm:"not null;default:false"`
	JoinedAt       time.Time
}

// ReadMarker represents the conversation_read_status table: per-user,
// per-conversation last-read watermark with upsert semantics.
type ReadMarker struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	LastReadAt     time.Time `gorm:"not null"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (Participant) TableName() string {
	return "conversation_participants"
}

func (ReadMarker) TableName() string {
	return "conversation_read_status"
}

// OtherParticipant returns the participant that is not the given user.
// Used to resolve display name/avatar for direct conversations at read time.
func (c Conversation) OtherParticipant(userID uuid.UUID) (Participant, bool) {
	for _, p := range c.Participants {
		if p.UserID != userID {
			return p, true
		}
	}
	return Participant{}, false
}

// HasParticipant reports whether the user belongs to the loaded participant set.
func (c Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
