package services

import (
	"context"
	"testing"
	"time"

	"lifeflow-server/internal/domain/conversation"
	"lifeflow-server/internal/domain/user"
	"lifeflow-server/internal/events"
	lifeflow_errors "lifeflow-server/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messagingFixture struct {
	service   *MessagingService
	convRepo  *fakeConversationRepo
	msgRepo   *fakeMessageRepo
	userRepo  *fakeUserRepo
	publisher *capturePublisher
	presence  *staticPresence

	alice uuid.UUID
	bob   uuid.UUID
	carol uuid.UUID
}

func newMessagingFixture(t *testing.T) *messagingFixture {
	t.Helper()

	f := &messagingFixture{
		convRepo:  newFakeConversationRepo(),
		msgRepo:   newFakeMessageRepo(),
		publisher: &capturePublisher{},
		presence:  &staticPresence{online: make(map[uuid.UUID]bool)},
		alice:     uuid.New(),
		bob:       uuid.New(),
		carol:     uuid.New(),
	}
	f.userRepo = newFakeUserRepo(
		user.User{ID: f.alice, Name: "Alice", Email: "alice@example.com"},
		user.User{ID: f.bob, Name: "Bob", Email: "bob@example.com"},
		user.User{ID: f.carol, Name: "Carol", Email: "carol@example.com"},
	)
	f.service = NewMessagingService(nil, f.convRepo, f.msgRepo, f.userRepo, f.publisher, f.presence, newTestLogger())
	return f
}

func TestCreateDirectConversationIsIdempotent(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	first, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)
	assert.Equal(t, conversation.TypeDirect, first.Type)
	assert.Len(t, first.Participants, 2)

	second, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Order of the pair must not matter either.
	third, err := f.service.CreateDirectConversation(ctx, f.bob, f.alice)
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)
}

func TestCreateDirectConversationWithSelfIsRejected(t *testing.T) {
	f := newMessagingFixture(t)

	_, err := f.service.CreateDirectConversation(context.Background(), f.alice, f.alice)
	assert.ErrorIs(t, err, lifeflow_errors.ErrInvalidInput)
}

func TestCreateDirectConversationRequiresExistingUser(t *testing.T) {
	f := newMessagingFixture(t)

	_, err := f.service.CreateDirectConversation(context.Background(), f.alice, uuid.New())
	assert.ErrorIs(t, err, lifeflow_errors.ErrNotFound)
}

func TestCreateGroupConversationAlwaysIncludesCreator(t *testing.T) {
	f := newMessagingFixture(t)

	conv, err := f.service.CreateGroupConversation(context.Background(), f.alice, "Trip", "", []uuid.UUID{f.bob, f.carol})
	require.NoError(t, err)
	assert.Equal(t, conversation.TypeGroup, conv.Type)
	assert.Len(t, conv.Participants, 3)
	assert.True(t, conv.HasParticipant(f.alice))
}

func TestCreateGroupConversationNeedsTwoMembers(t *testing.T) {
	f := newMessagingFixture(t)

	// Only the creator, even listed explicitly, is not a group.
	_, err := f.service.CreateGroupConversation(context.Background(), f.alice, "Solo", "", []uuid.UUID{f.alice})
	assert.ErrorIs(t, err, lifeflow_errors.ErrInvalidInput)
}

func TestUpdateConversationIsCreatorOnly(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.service.CreateGroupConversation(ctx, f.alice, "Trip", "", []uuid.UUID{f.bob})
	require.NoError(t, err)

	name := "Renamed"
	_, err = f.service.UpdateConversation(ctx, f.bob, conv.ID, UpdateConversationInput{Name: &name})
	assert.ErrorIs(t, err, lifeflow_errors.ErrForbidden)

	updated, err := f.service.UpdateConversation(ctx, f.alice, conv.ID, UpdateConversationInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name.String)
}

func TestArchiveConversationRequiresMembership(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)

	assert.ErrorIs(t, f.service.ArchiveConversation(ctx, f.carol, conv.ID), lifeflow_errors.ErrForbidden)

	require.NoError(t, f.service.ArchiveConversation(ctx, f.alice, conv.ID))
	views, _, err := f.service.ListConversations(ctx, f.alice, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, views)

	require.NoError(t, f.service.UnarchiveConversation(ctx, f.alice, conv.ID))
	views, _, err = f.service.ListConversations(ctx, f.alice, 1, 10)
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)

	_, err = f.service.SendMessage(ctx, f.alice, conv.ID, "   ")
	assert.ErrorIs(t, err, lifeflow_errors.ErrInvalidInput)
}

func TestSendMessageBumpsActivityAndPublishes(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)

	msg, err := f.service.SendMessage(ctx, f.alice, conv.ID, "hello there")
	require.NoError(t, err)
	assert.Equal(t, "hello there", msg.Content)

	stored, err := f.convRepo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastMessageAt.Valid)
	assert.Equal(t, msg.CreatedAt, stored.LastMessageAt.Time)

	published := f.publisher.byType(events.EventTypeMessageCreated)
	require.Len(t, published, 1)
	assert.Equal(t, events.ConversationChannel(conv.ID), published[0].Channel)
}

func TestSendMessageRequiresMembership(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)

	_, err = f.service.SendMessage(ctx, f.carol, conv.ID, "let me in")
	assert.ErrorIs(t, err, lifeflow_errors.ErrForbidden)
}

func TestEditMessageIsSenderOnly(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)
	msg, err := f.service.SendMessage(ctx, f.alice, conv.ID, "original")
	require.NoError(t, err)

	_, err = f.service.EditMessage(ctx, f.bob, msg.ID, "hijacked")
	assert.ErrorIs(t, err, lifeflow_errors.ErrForbidden)

	edited, err := f.service.EditMessage(ctx, f.alice, msg.ID, "fixed")
	require.NoError(t, err)
	assert.Equal(t, "fixed", edited.Content)
	assert.True(t, edited.IsEdited)
}

func TestDeleteMessageIsSenderOnly(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)
	msg, err := f.service.SendMessage(ctx, f.alice, conv.ID, "delete me")
	require.NoError(t, err)

	assert.ErrorIs(t, f.service.DeleteMessage(ctx, f.bob, msg.ID), lifeflow_errors.ErrForbidden)
	require.NoError(t, f.service.DeleteMessage(ctx, f.alice, msg.ID))

	_, err = f.msgRepo.GetByID(ctx, msg.ID)
	assert.ErrorIs(t, err, lifeflow_errors.ErrNotFound)
}

func TestAddReactionTwiceIsNoError(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)
	msg, err := f.service.SendMessage(ctx, f.alice, conv.ID, "react to this")
	require.NoError(t, err)

	require.NoError(t, f.service.AddReaction(ctx, f.bob, msg.ID, "👍"))
	require.NoError(t, f.service.AddReaction(ctx, f.bob, msg.ID, "👍"))

	reactions, err := f.msgRepo.GetMessageReactions(ctx, msg.ID)
	require.NoError(t, err)
	assert.Len(t, reactions, 1)

	// The duplicate must not broadcast a second event.
	assert.Len(t, f.publisher.byType(events.EventTypeReactionAdded), 1)
}

func TestRemoveMissingReactionIsSilent(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)
	msg, err := f.service.SendMessage(ctx, f.alice, conv.ID, "nothing here")
	require.NoError(t, err)

	assert.NoError(t, f.service.RemoveReaction(ctx, f.bob, msg.ID, "🔥"))
	assert.Empty(t, f.publisher.byType(events.EventTypeReactionRemoved))
}

func TestUnreadCountFollowsReadMarker(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.service.SendMessage(ctx, f.alice, conv.ID, "ping")
		require.NoError(t, err)
	}

	// No marker yet: everything from the other side is unread.
	view, err := f.service.GetConversation(ctx, f.bob, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), view.UnreadCount)

	// The sender's own messages never count against them.
	view, err = f.service.GetConversation(ctx, f.alice, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), view.UnreadCount)

	_, err = f.service.MarkConversationRead(ctx, f.bob, conv.ID)
	require.NoError(t, err)

	view, err = f.service.GetConversation(ctx, f.bob, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), view.UnreadCount)
}

func TestDirectConversationPreviewUsesOtherParticipant(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)
	_, err = f.service.SendMessage(ctx, f.bob, conv.ID, "latest")
	require.NoError(t, err)

	view, err := f.service.GetConversation(ctx, f.alice, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", view.DisplayName)
	require.NotNil(t, view.LastMessage)
	assert.Equal(t, "latest", view.LastMessage.Content)
}

func TestGroupConversationPreviewFallsBackToDefaultName(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.service.CreateGroupConversation(ctx, f.alice, "", "", []uuid.UUID{f.bob})
	require.NoError(t, err)

	view, err := f.service.GetConversation(ctx, f.alice, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Group Chat", view.DisplayName)
}

func TestSearchMessagesIsScopedToOwnConversations(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	mine, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)
	theirs, err := f.service.CreateDirectConversation(ctx, f.bob, f.carol)
	require.NoError(t, err)

	_, err = f.service.SendMessage(ctx, f.alice, mine.ID, "project kickoff notes")
	require.NoError(t, err)
	_, err = f.service.SendMessage(ctx, f.bob, theirs.ID, "secret project plans")
	require.NoError(t, err)

	results, total, err := f.service.SearchMessages(ctx, f.alice, "project", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, results, 1)
	assert.Equal(t, mine.ID, results[0].ConversationID)
}

func TestSearchConversationMessagesRequiresMembership(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)
	_, err = f.service.SendMessage(ctx, f.alice, conv.ID, "quarterly report")
	require.NoError(t, err)

	_, _, err = f.service.SearchConversationMessages(ctx, f.carol, conv.ID, "report", 1, 10)
	assert.ErrorIs(t, err, lifeflow_errors.ErrForbidden)

	results, total, err := f.service.SearchConversationMessages(ctx, f.bob, conv.ID, "report", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, results, 1)
}

func TestSearchMessagesRejectsEmptyQuery(t *testing.T) {
	f := newMessagingFixture(t)

	_, _, err := f.service.SearchMessages(context.Background(), f.alice, "  ", 1, 10)
	assert.ErrorIs(t, err, lifeflow_errors.ErrInvalidInput)
}

func TestGetInboxStats(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()
	f.presence.online[f.alice] = true
	f.presence.online[f.bob] = true

	conv, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)
	_, err = f.service.SendMessage(ctx, f.alice, conv.ID, "one")
	require.NoError(t, err)
	_, err = f.service.SendMessage(ctx, f.alice, conv.ID, "two")
	require.NoError(t, err)

	stats, err := f.service.GetInboxStats(ctx, f.bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalConversations)
	assert.Equal(t, int64(2), stats.TotalUnread)
	assert.Equal(t, 2, stats.OnlineUsers)
}

func TestMarkConversationReadPublishesMarker(t *testing.T) {
	f := newMessagingFixture(t)
	ctx := context.Background()

	conv, err := f.service.CreateDirectConversation(ctx, f.alice, f.bob)
	require.NoError(t, err)

	before := time.Now()
	marker, err := f.service.MarkConversationRead(ctx, f.bob, conv.ID)
	require.NoError(t, err)
	assert.False(t, marker.LastReadAt.Before(before))

	published := f.publisher.byType(events.EventTypeConversationRead)
	require.Len(t, published, 1)
	assert.Equal(t, events.ConversationChannel(conv.ID), published[0].Channel)
}
