package services

import (
	"context"
	"testing"
	"time"

	"lifeflow-server/internal/domain/message"
	lifeflow_errors "lifeflow-server/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresignAttachmentWithoutStorageConfigured(t *testing.T) {
	svc := NewUploadService(nil, newFakeMessageRepo(), newFakeConversationRepo())

	_, err := svc.PresignAttachment(context.Background(), uuid.New(), "photo.png", "image/png", 1024)
	assert.ErrorIs(t, err, lifeflow_errors.ErrStorage)
}

func TestAttachToMessageIsSenderOnly(t *testing.T) {
	msgRepo := newFakeMessageRepo()
	svc := NewUploadService(nil, msgRepo, newFakeConversationRepo())
	ctx := context.Background()

	sender := uuid.New()
	msg := message.Message{
		ID:             uuid.New(),
		ConversationID: uuid.New(),
		SenderID:       sender,
		Content:        "see attached",
		CreatedAt:      time.Now(),
	}
	require.NoError(t, msgRepo.Create(ctx, &msg))

	_, err := svc.AttachToMessage(ctx, uuid.New(), msg.ID, "doc.pdf", "application/pdf", 2048, "https://cdn.example.com/doc.pdf")
	assert.ErrorIs(t, err, lifeflow_errors.ErrForbidden)

	a, err := svc.AttachToMessage(ctx, sender, msg.ID, "doc.pdf", "application/pdf", 2048, "https://cdn.example.com/doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, msg.ID, a.MessageID)

	attachments, err := msgRepo.GetMessageAttachments(ctx, msg.ID)
	require.NoError(t, err)
	assert.Len(t, attachments, 1)
}

func TestAttachToMessageValidatesInput(t *testing.T) {
	svc := NewUploadService(nil, newFakeMessageRepo(), newFakeConversationRepo())

	_, err := svc.AttachToMessage(context.Background(), uuid.New(), uuid.New(), "", "application/pdf", 1, "url")
	assert.ErrorIs(t, err, lifeflow_errors.ErrInvalidInput)

	_, err = svc.AttachToMessage(context.Background(), uuid.New(), uuid.New(), "doc.pdf", "application/pdf", 1, "")
	assert.ErrorIs(t, err, lifeflow_errors.ErrInvalidInput)
}
