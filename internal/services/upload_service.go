package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"lifeflow-server/internal/domain/message"
	"lifeflow-server/internal/repository"
	"lifeflow-server/internal/storage"
	lifeflow_errors "lifeflow-server/pkg/errors"

	"github.com/google/uuid"
)

// UploadService hands out presigned PUT URLs for attachments and links
// the uploaded object to its message once the client confirms.
type UploadService struct {
	s3       *storage.Client
	msgRepo  repository.MessageRepository
	convRepo repository.ConversationRepository
}

func NewUploadService(s3 *storage.Client, msgRepo repository.MessageRepository, convRepo repository.ConversationRepository) *UploadService {
	return &UploadService{s3: s3, msgRepo: msgRepo, convRepo: convRepo}
}

type PresignResult struct {
	UploadURL string            `json:"upload_url"`
	Headers   map[string]string `json:"headers"`
	ObjectKey string            `json:"object_key"`
	FileURL   string            `json:"file_url"`
}

func (s *UploadService) PresignAttachment(ctx context.Context, userID uuid.UUID, fileName, contentType string, sizeBytes int64) (PresignResult, error) {
	if s.s3 == nil {
		return PresignResult{}, lifeflow_errors.ErrStorage
	}

	fileName = path.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." {
		return PresignResult{}, lifeflow_errors.ErrInvalidInput
	}
	if err := storage.ValidateAttachment(contentType, sizeBytes); err != nil {
		return PresignResult{}, lifeflow_errors.ErrInvalidInput
	}

	key := fmt.Sprintf("attachments/%s/%s/%s", userID, uuid.New(), fileName)
	uploadURL, headers, err := s.s3.PresignPut(ctx, key, contentType, sizeBytes)
	if err != nil {
		return PresignResult{}, lifeflow_errors.ErrStorage
	}

	return PresignResult{
		UploadURL: uploadURL,
		Headers:   headers,
		ObjectKey: key,
		FileURL:   s.s3.FileURL(key),
	}, nil
}

// AttachToMessage records the uploaded object against a message the
// caller sent.
func (s *UploadService) AttachToMessage(ctx context.Context, userID, messageID uuid.UUID, fileName, fileType string, fileSize int64, fileURL string) (message.Attachment, error) {
	if fileName == "" || fileURL == "" {
		return message.Attachment{}, lifeflow_errors.ErrInvalidInput
	}

	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return message.Attachment{}, err
	}
	if msg.SenderID != userID {
		return message.Attachment{}, lifeflow_errors.ErrForbidden
	}

	a := message.Attachment{
		ID:         uuid.New(),
		MessageID:  messageID,
		FileName:   fileName,
		FileType:   fileType,
		FileSize:   fileSize,
		FileURL:    fileURL,
		UploadedAt: time.Now(),
	}
	if err := s.msgRepo.CreateAttachment(ctx, &a); err != nil {
		return message.Attachment{}, err
	}
	return a, nil
}
