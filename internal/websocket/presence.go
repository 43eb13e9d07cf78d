package websocket

import (
	"context"

	"lifeflow-server/internal/events"
	"lifeflow-server/internal/repository"
	"lifeflow-server/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PresencePublisher pushes presence transitions onto the event bus.
// Updates go to the user's own channel and to every conversation the
// user participates in, so open conversation views see them live.
type PresencePublisher struct {
	conversationRepo repository.ConversationRepository
	publisher        events.Publisher
	log              *logger.Logger
}

func NewPresencePublisher(conversationRepo repository.ConversationRepository, publisher events.Publisher, log *logger.Logger) *PresencePublisher {
	return &PresencePublisher{
		conversationRepo: conversationRepo,
		publisher:        publisher,
		log:              log,
	}
}

func (p *PresencePublisher) PresenceChanged(ctx context.Context, userID uuid.UUID, online bool) {
	status := "offline"
	if online {
		status = "online"
	}

	event := events.NewEvent(events.EventTypePresenceChange, events.PresencePayload{
		UserID:   userID,
		IsOnline: online,
		Status:   status,
	})

	if err := p.publisher.Publish(ctx, events.UserChannel(userID), event); err != nil {
		p.log.Warn("failed to publish presence change", zap.Error(err), zap.String("user_id", userID.String()))
	}

	convIDs, err := p.conversationRepo.GetUserConversationIDs(ctx, userID)
	if err != nil {
		p.log.Warn("failed to load conversations for presence change", zap.Error(err), zap.String("user_id", userID.String()))
		return
	}
	for _, id := range convIDs {
		if err := p.publisher.Publish(ctx, events.ConversationChannel(id), event); err != nil {
			p.log.Warn("failed to publish presence change", zap.Error(err), zap.String("conversation_id", id.String()))
		}
	}
}
