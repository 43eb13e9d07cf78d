package httpdto

import (
	"time"

	"lifeflow-server/internal/domain/notification"
)

type NotificationResponse struct {
	ID                string     `json:"id"`
	RecipientID       string     `json:"recipient_id"`
	ActorID           string     `json:"actor_id"`
	Type              string     `json:"type"`
	Message           string     `json:"message"`
	RelatedEntityID   string     `json:"related_entity_id,omitempty"`
	RelatedEntityType string     `json:"related_entity_type,omitempty"`
	IsRead            bool       `json:"is_read"`
	CreatedAt         time.Time  `json:"created_at"`
	ReadAt            *time.Time `json:"read_at,omitempty"`
}

func ToNotificationResponse(n notification.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:                n.ID.String(),
		RecipientID:       n.RecipientID.String(),
		ActorID:           n.ActorID.String(),
		Type:              string(n.Type),
		Message:           n.Message,
		RelatedEntityID:   n.RelatedEntityID,
		RelatedEntityType: n.RelatedEntityType,
		IsRead:            n.IsRead,
		CreatedAt:         n.CreatedAt,
	}
	if n.ReadAt.Valid {
		t := n.ReadAt.Time
		resp.ReadAt = &t
	}
	return resp
}
