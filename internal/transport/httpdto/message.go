package httpdto

import (
	"time"

	"lifeflow-server/internal/domain/message"
)

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

type PresignAttachmentRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	SizeBytes   int64  `json:"size_bytes" binding:"required,gt=0"`
}

type AttachFileRequest struct {
	FileName string `json:"file_name" binding:"required"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
	FileURL  string `json:"file_url" binding:"required"`
}

type ReactionResponse struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

type AttachmentResponse struct {
	ID         string    `json:"id"`
	MessageID  string    `json:"message_id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type,omitempty"`
	FileSize   int64     `json:"file_size,omitempty"`
	FileURL    string    `json:"file_url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type MessageResponse struct {
	ID             string               `json:"id"`
	ConversationID string               `json:"conversation_id"`
	SenderID       string               `json:"sender_id"`
	Content        string               `json:"content"`
	IsEdited       bool                 `json:"is_edited"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Reactions      []ReactionResponse   `json:"reactions,omitempty"`
	Attachments    []AttachmentResponse `json:"attachments,omitempty"`
}

func ToMessageResponse(m message.Message) MessageResponse {
	resp := MessageResponse{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Content:        m.Content,
		IsEdited:       m.IsEdited,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for _, r := range m.Reactions {
		resp.Reactions = append(resp.Reactions, ToReactionResponse(r))
	}
	for _, a := range m.Attachments {
		resp.Attachments = append(resp.Attachments, ToAttachmentResponse(a))
	}
	return resp
}

func ToReactionResponse(r message.Reaction) ReactionResponse {
	return ReactionResponse{
		ID:        r.ID.String(),
		MessageID: r.MessageID.String(),
		UserID:    r.UserID.String(),
		Emoji:     r.Emoji,
		CreatedAt: r.CreatedAt,
	}
}

func ToAttachmentResponse(a message.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:         a.ID.String(),
		MessageID:  a.MessageID.String(),
		FileName:   a.FileName,
		FileType:   a.FileType,
		FileSize:   a.FileSize,
		FileURL:    a.FileURL,
		UploadedAt: a.UploadedAt,
	}
}
