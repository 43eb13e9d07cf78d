package message

import (
	"time"

	"github.com/google/uuid"
)

// Message represents the messages table. The owning conversation never
// changes after creation; retrieval order is created_at descending.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null"`
	Content        string    `gorm:"type:text;not null"`
	IsEdited       bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time

	// Relationships
	Reactions   []Reaction   `gorm:"constraint:OnDelete:CASCADE"`
	Attachments []Attachment `gorm:"constraint:OnDelete:CASCADE"`
}

// Reaction represents message_reactions. The (message, user, emoji) triple
// is unique: a user can react with many emojis but each at most once.
type Reaction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reaction_triple"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reaction_triple"`
	Emoji     string    `gorm:"not null;uniqueIndex:idx_reaction_triple"`
	CreatedAt time.Time
}

// Attachment represents message_attachments: metadata only, the bytes live
// in object storage behind FileURL.
type Attachment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	MessageID  uuid.UUID `gorm:"type:uuid;not null;index"`
	FileName   string    `gorm:"not null"`
	FileType   string
	FileSize   int64
	FileURL    string `gorm:"not null"`
	UploadedAt time.Time
}

func (Message) TableName() string {
	return "messages"
}

func (Reaction) TableName() string {
	return "message_reactions"
}

func (Attachment) TableName() string {
	return "message_attachments"
}
