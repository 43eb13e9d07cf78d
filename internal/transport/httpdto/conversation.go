package httpdto

import (
	"time"

	"lifeflow-server/internal/domain/conversation"
	"lifeflow-server/internal/services"
)

type CreateDirectConversationRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

type CreateGroupConversationRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Participants []string `json:"participants" binding:"required,min=1"`
}

type UpdateConversationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Avatar      *string `json:"avatar"`
}

type ParticipantResponse struct {
	UserID   string    `json:"user_id"`
	IsMuted  bool      `json:"is_muted"`
	IsPinned bool      `json:"is_pinned"`
	JoinedAt time.Time `json:"joined_at"`
}

type ConversationResponse struct {
	ID            string                `json:"id"`
	Type          string                `json:"type"`
	Name          string                `json:"name,omitempty"`
	Description   string                `json:"description,omitempty"`
	Avatar        string                `json:"avatar,omitempty"`
	CreatorID     string                `json:"creator_id"`
	IsArchived    bool                  `json:"is_archived"`
	LastMessageAt *time.Time            `json:"last_message_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	Participants  []ParticipantResponse `json:"participants,omitempty"`

	// Preview fields, filled when the conversation is listed for a user
	DisplayName  string           `json:"display_name,omitempty"`
	DisplayImage string           `json:"display_image,omitempty"`
	LastMessage  *MessageResponse `json:"last_message,omitempty"`
	UnreadCount  int64            `json:"unread_count"`
}

func ToConversationResponse(c conversation.Conversation) ConversationResponse {
	resp := ConversationResponse{
		ID:         c.ID.String(),
		Type:       c.Type,
		CreatorID:  c.CreatorID.String(),
		IsArchived: c.IsArchived,
		CreatedAt:  c.CreatedAt,
	}
	if c.Name.Valid {
		resp.Name = c.Name.String
	}
	if c.Description.Valid {
		resp.Description = c.Description.String
	}
	if c.Avatar.Valid {
		resp.Avatar = c.Avatar.String
	}
	if c.LastMessageAt.Valid {
		t := c.LastMessageAt.Time
		resp.LastMessageAt = &t
	}
	for _, p := range c.Participants {
		resp.Participants = append(resp.Participants, ParticipantResponse{
			UserID:   p.UserID.String(),
			IsMuted:  p.IsMuted,
			IsPinned: p.IsPinned,
			JoinedAt: p.JoinedAt,
		})
	}
	return resp
}

func ToConversationViewResponse(v services.ConversationView) ConversationResponse {
	resp := ToConversationResponse(v.Conversation)
	resp.DisplayName = v.DisplayName
	resp.DisplayImage = v.DisplayImage
	resp.UnreadCount = v.UnreadCount
	if v.LastMessage != nil {
		m := ToMessageResponse(*v.LastMessage)
		resp.LastMessage = &m
	}
	return resp
}

type ReadMarkerResponse struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	LastReadAt     time.Time `json:"last_read_at"`
}

func ToReadMarkerResponse(m conversation.ReadMarker) ReadMarkerResponse {
	return ReadMarkerResponse{
		ConversationID: m.ConversationID.String(),
		UserID:         m.UserID.String(),
		LastReadAt:     m.LastReadAt,
	}
}
