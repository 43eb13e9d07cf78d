package websocket

import (
	"context"
	"testing"

	"lifeflow-server/internal/domain/conversation"
	"lifeflow-server/internal/events"
	"lifeflow-server/internal/repository"
	lifeflow_errors "lifeflow-server/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConversationRepo only answers the membership questions the
// authorizer asks; everything else panics via the embedded nil interface.
type stubConversationRepo struct {
	repository.ConversationRepository

	participants map[uuid.UUID]map[uuid.UUID]bool
	directPairs  map[[2]uuid.UUID]bool
}

func (s *stubConversationRepo) IsParticipant(_ context.Context, conversationID, userID uuid.UUID) (bool, error) {
	return s.participants[conversationID][userID], nil
}

func (s *stubConversationRepo) GetDirectConversation(_ context.Context, userID1, userID2 uuid.UUID) (conversation.Conversation, error) {
	if s.directPairs[[2]uuid.UUID{userID1, userID2}] || s.directPairs[[2]uuid.UUID{userID2, userID1}] {
		return conversation.Conversation{Type: conversation.TypeDirect}, nil
	}
	return conversation.Conversation{}, lifeflow_errors.ErrNotFound
}

func TestCanSubscribeToOwnUserChannel(t *testing.T) {
	a := NewChannelAuthorizer(&stubConversationRepo{})
	userID := uuid.New()

	ok, err := a.CanSubscribe(context.Background(), userID, events.UserChannel(userID))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanSubscribeToConversationRequiresMembership(t *testing.T) {
	userID := uuid.New()
	convID := uuid.New()
	repo := &stubConversationRepo{
		participants: map[uuid.UUID]map[uuid.UUID]bool{
			convID: {userID: true},
		},
	}
	a := NewChannelAuthorizer(repo)
	ctx := context.Background()

	ok, err := a.CanSubscribe(ctx, userID, events.ConversationChannel(convID))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.CanSubscribe(ctx, uuid.New(), events.ConversationChannel(convID))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanSubscribeToPeerChannelRequiresDirectConversation(t *testing.T) {
	userID := uuid.New()
	peerID := uuid.New()
	stranger := uuid.New()
	repo := &stubConversationRepo{
		directPairs: map[[2]uuid.UUID]bool{
			{userID, peerID}: true,
		},
	}
	a := NewChannelAuthorizer(repo)
	ctx := context.Background()

	ok, err := a.CanSubscribe(ctx, userID, events.UserChannel(peerID))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.CanSubscribe(ctx, userID, events.UserChannel(stranger))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanSubscribeDeniesMalformedAndUnknownChannels(t *testing.T) {
	a := NewChannelAuthorizer(&stubConversationRepo{})
	ctx := context.Background()
	userID := uuid.New()

	for _, channel := range []string{
		"channel:conversation:not-a-uuid",
		"channel:user:not-a-uuid",
		"channel:admin:everything",
		"",
	} {
		ok, err := a.CanSubscribe(ctx, userID, channel)
		require.NoError(t, err, channel)
		assert.False(t, ok, channel)
	}
}
