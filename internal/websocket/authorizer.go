package websocket

import (
	"context"
	"errors"
	"strings"

	"lifeflow-server/internal/events"
	"lifeflow-server/internal/repository"
	lifeflow_errors "lifeflow-server/pkg/errors"

	"github.com/google/uuid"
)

// ChannelAuthorizer handles authorization for WebSocket channel subscriptions
type ChannelAuthorizer struct {
	conversationRepo repository.ConversationRepository
}

// NewChannelAuthorizer creates a new channel authorizer
func NewChannelAuthorizer(conversationRepo repository.ConversationRepository) *ChannelAuthorizer {
	return &ChannelAuthorizer{conversationRepo: conversationRepo}
}

// CanSubscribe checks if a user is authorized to subscribe to a channel
func (a *ChannelAuthorizer) CanSubscribe(ctx context.Context, userID uuid.UUID, channel string) (bool, error) {
	// User's own channel - always allowed
	if channel == events.UserChannel(userID) {
		return true, nil
	}

	// Conversation channels - check if user is a participant
	if strings.HasPrefix(channel, events.ChannelPrefixConversation) {
		convID, err := uuid.Parse(strings.TrimPrefix(channel, events.ChannelPrefixConversation))
		if err != nil {
			return false, nil
		}
		return a.conversationRepo.IsParticipant(ctx, convID, userID)
	}

	// Another user's channel - allowed when they share a direct conversation,
	// which is what presence updates ride on
	if strings.HasPrefix(channel, events.ChannelPrefixUser) {
		targetID, err := uuid.Parse(strings.TrimPrefix(channel, events.ChannelPrefixUser))
		if err != nil {
			return false, nil
		}
		_, err = a.conversationRepo.GetDirectConversation(ctx, userID, targetID)
		if err != nil {
			if errors.Is(err, lifeflow_errors.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	}

	// Default deny
	return false, nil
}
