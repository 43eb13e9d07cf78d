package services

import (
	"context"
	"database/sql"
	"time"

	"lifeflow-server/internal/domain/notification"
	"lifeflow-server/internal/events"
	"lifeflow-server/internal/repository"
	lifeflow_errors "lifeflow-server/pkg/errors"
	"lifeflow-server/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultNotificationPageSize = 20

	// NotificationRetentionDays is how long read and unread notifications
	// are kept before the cleanup job removes them.
	NotificationRetentionDays = 30
	NotificationRetention     = NotificationRetentionDays * 24 * time.Hour
)

// NotificationSummary is the per-user digest of the notification table.
type NotificationSummary struct {
	Total  int64 `json:"total"`
	Unread int64 `json:"unread"`
	Read   int64 `json:"read"`
}

type NotificationService struct {
	notifRepo  repository.NotificationRepository
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	publisher  events.Publisher
	log        *logger.Logger
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	publisher events.Publisher,
	log *logger.Logger,
) *NotificationService {
	return &NotificationService{
		notifRepo:  notifRepo,
		userRepo:   userRepo,
		followRepo: followRepo,
		publisher:  publisher,
		log:        log,
	}
}

type NotifyInput struct {
	ActorID           uuid.UUID
	RecipientID       uuid.UUID
	Type              notification.Type
	RelatedEntityID   string
	RelatedEntityType string
}

// Notify records a notification for a single recipient and pushes it to
// their live channel. Actions on your own content never notify you.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (notification.Notification, error) {
	if !in.Type.Valid() {
		return notification.Notification{}, lifeflow_errors.ErrInvalidInput
	}
	if in.ActorID == in.RecipientID {
		return notification.Notification{}, nil
	}

	actorName := fallbackUserName
	if actor, err := s.userRepo.GetByID(ctx, in.ActorID); err == nil {
		actorName = actor.Name
	}

	n := notification.Notification{
		ID:                uuid.New(),
		RecipientID:       in.RecipientID,
		ActorID:           in.ActorID,
		Type:              in.Type,
		Message:           renderMessage(in.Type, actorName),
		RelatedEntityID:   in.RelatedEntityID,
		RelatedEntityType: in.RelatedEntityType,
		CreatedAt:         time.Now(),
	}

	if err := s.notifRepo.Create(ctx, &n); err != nil {
		return notification.Notification{}, err
	}

	s.pushToRecipient(ctx, n)
	return n, nil
}

// FanOutToFollowers notifies every follower of the actor except those
// who muted them. Delivery failures are logged, never surfaced: the
// triggering write has already committed.
func (s *NotificationService) FanOutToFollowers(ctx context.Context, actorID uuid.UUID, nType notification.Type, relatedEntityID, relatedEntityType string) (int, error) {
	if !nType.Valid() {
		return 0, lifeflow_errors.ErrInvalidInput
	}

	followerIDs, err := s.followRepo.GetActiveFollowerIDs(ctx, actorID)
	if err != nil {
		return 0, err
	}

	actorName := fallbackUserName
	if actor, err := s.userRepo.GetByID(ctx, actorID); err == nil {
		actorName = actor.Name
	}

	delivered := 0
	for _, recipientID := range followerIDs {
		if recipientID == actorID {
			continue
		}
		n := notification.Notification{
			ID:                uuid.New(),
			RecipientID:       recipientID,
			ActorID:           actorID,
			Type:              nType,
			Message:           renderMessage(nType, actorName),
			RelatedEntityID:   relatedEntityID,
			RelatedEntityType: relatedEntityType,
			CreatedAt:         time.Now(),
		}
		if err := s.notifRepo.Create(ctx, &n); err != nil {
			s.log.Warn("failed to create fan-out notification", zap.Error(err), zap.String("recipient_id", recipientID.String()))
			continue
		}
		s.pushToRecipient(ctx, n)
		delivered++
	}

	return delivered, nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]notification.Notification, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.notifRepo.GetUserNotifications(ctx, userID, page, limit)
}

func (s *NotificationService) ListUnread(ctx context.Context, userID uuid.UUID, page, limit int) ([]notification.Notification, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.notifRepo.GetUnreadNotifications(ctx, userID, page, limit)
}

func (s *NotificationService) ListByType(ctx context.Context, userID uuid.UUID, nType notification.Type, page, limit int) ([]notification.Notification, int64, error) {
	if !nType.Valid() {
		return nil, 0, lifeflow_errors.ErrInvalidInput
	}
	page, limit = normalizePage(page, limit)
	return s.notifRepo.GetNotificationsByType(ctx, userID, nType, page, limit)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notifRepo.CountUnread(ctx, userID)
}

// MarkAsRead flips is_read once; marking an already-read notification
// again keeps the original read_at.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) (notification.Notification, error) {
	n, err := s.notifRepo.GetByID(ctx, notificationID)
	if err != nil {
		return notification.Notification{}, err
	}
	if n.RecipientID != userID {
		return notification.Notification{}, lifeflow_errors.ErrForbidden
	}
	if n.IsRead {
		return n, nil
	}

	n.IsRead = true
	n.ReadAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := s.notifRepo.Update(ctx, n); err != nil {
		return notification.Notification{}, err
	}

	s.pushUnreadCount(ctx, userID)
	return n, nil
}

// Delete removes a single notification the recipient no longer wants.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	n, err := s.notifRepo.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.RecipientID != userID {
		return lifeflow_errors.ErrForbidden
	}

	if err := s.notifRepo.Delete(ctx, notificationID); err != nil {
		return err
	}
	if !n.IsRead {
		s.pushUnreadCount(ctx, userID)
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	updated, err := s.notifRepo.MarkAllAsRead(ctx, userID, time.Now())
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.pushUnreadCount(ctx, userID)
	}
	return updated, nil
}

func (s *NotificationService) GetSummary(ctx context.Context, userID uuid.UUID) (NotificationSummary, error) {
	total, err := s.notifRepo.CountAll(ctx, userID)
	if err != nil {
		return NotificationSummary{}, err
	}
	unread, err := s.notifRepo.CountUnread(ctx, userID)
	if err != nil {
		return NotificationSummary{}, err
	}
	return NotificationSummary{
		Total:  total,
		Unread: unread,
		Read:   total - unread,
	}, nil
}

// CleanupOld deletes notifications past the retention window.
func (s *NotificationService) CleanupOld(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-NotificationRetention)
	deleted, err := s.notifRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Infof("cleaned up %d old notifications", deleted)
	}
	return deleted, nil
}

// DeleteOld removes the user's notifications older than the given retention
// window. A non-positive retention falls back to the default.
func (s *NotificationService) DeleteOld(ctx context.Context, userID uuid.UUID, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = NotificationRetentionDays
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return s.notifRepo.DeleteOldForRecipient(ctx, userID, cutoff)
}

func (s *NotificationService) pushToRecipient(ctx context.Context, n notification.Notification) {
	if s.publisher == nil {
		return
	}
	event := events.NewEvent(events.EventTypeNotificationCreated, events.NotificationPayload{
		NotificationID: n.ID,
		RecipientID:    n.RecipientID,
		ActorID:        n.ActorID,
		Type:           string(n.Type),
		Message:        n.Message,
		CreatedAt:      n.CreatedAt,
	})
	if err := s.publisher.Publish(ctx, events.UserChannel(n.RecipientID), event); err != nil {
		s.log.Warn("failed to publish notification", zap.Error(err), zap.String("recipient_id", n.RecipientID.String()))
	}
	s.pushUnreadCount(ctx, n.RecipientID)
}

func (s *NotificationService) pushUnreadCount(ctx context.Context, userID uuid.UUID) {
	if s.publisher == nil {
		return
	}
	count, err := s.notifRepo.CountUnread(ctx, userID)
	if err != nil {
		s.log.Warn("failed to count unread notifications", zap.Error(err), zap.String("user_id", userID.String()))
		return
	}
	event := events.NewEvent(events.EventTypeUnreadCount, events.UnreadCountPayload{
		UserID: userID,
		Count:  count,
	})
	if err := s.publisher.Publish(ctx, events.UserChannel(userID), event); err != nil {
		s.log.Warn("failed to publish unread count", zap.Error(err), zap.String("user_id", userID.String()))
	}
}

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultNotificationPageSize
	}
	return page, limit
}

func renderMessage(t notification.Type, actorName string) string {
	switch t {
	case notification.TypeNewFollower:
		return actorName + " started following you"
	case notification.TypeNewPostFromFollowing:
		return actorName + " posted something new"
	case notification.TypePostLiked:
		return actorName + " liked your post"
	case notification.TypePostCommented:
		return actorName + " commented on your post"
	case notification.TypeCommentReplied:
		return actorName + " replied to your comment"
	case notification.TypeMessageReceived:
		return actorName + " sent you a message"
	case notification.TypeFollowAccepted:
		return actorName + " accepted your follow request"
	case notification.TypeMention:
		return actorName + " mentioned you"
	case notification.TypeEngagement:
		return actorName + " interacted with your content"
	default:
		return "You have a new notification"
	}
}
