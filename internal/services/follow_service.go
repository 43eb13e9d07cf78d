package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lifeflow-server/internal/domain/notification"
	"lifeflow-server/internal/domain/social"
	"lifeflow-server/internal/events"
	"lifeflow-server/internal/repository"
	lifeflow_errors "lifeflow-server/pkg/errors"
	"lifeflow-server/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultFollowPageSize = 20

// FollowEntry pairs a follow edge with the profile on its far end.
type FollowEntry struct {
	Follow social.Follow
	User   UserInfo
}

type FollowService struct {
	followRepo   repository.FollowRepository
	userRepo     repository.UserRepository
	notification *NotificationService
	publisher    events.Publisher
	log          *logger.Logger
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	notification *NotificationService,
	publisher events.Publisher,
	log *logger.Logger,
) *FollowService {
	return &FollowService{
		followRepo:   followRepo,
		userRepo:     userRepo,
		notification: notification,
		publisher:    publisher,
		log:          log,
	}
}

// Follow creates the edge and notifies the followed user. Following
// yourself is invalid; following twice is a conflict.
func (s *FollowService) Follow(ctx context.Context, followerID, followingID uuid.UUID) (social.Follow, error) {
	if followerID == followingID {
		return social.Follow{}, lifeflow_errors.ErrInvalidInput
	}

	if _, err := s.userRepo.GetByID(ctx, followingID); err != nil {
		return social.Follow{}, err
	}

	f := social.Follow{
		ID:          uuid.New(),
		FollowerID:  followerID,
		FollowingID: followingID,
		CreatedAt:   time.Now(),
	}

	if err := s.followRepo.Create(ctx, &f); err != nil {
		if errors.Is(err, lifeflow_errors.ErrAlreadyExists) {
			return social.Follow{}, lifeflow_errors.ErrConflict
		}
		return social.Follow{}, err
	}

	if s.notification != nil {
		if _, err := s.notification.Notify(ctx, NotifyInput{
			ActorID:           followerID,
			RecipientID:       followingID,
			Type:              notification.TypeNewFollower,
			RelatedEntityID:   followerID.String(),
			RelatedEntityType: "user",
		}); err != nil {
			s.log.Warn("failed to create follow notification", zap.Error(err), zap.String("following_id", followingID.String()))
		}
	}

	s.publishFollow(ctx, events.EventTypeFollowNew, followerID, followingID)
	return f, nil
}

// Unfollow is silent when no edge exists.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error {
	if err := s.followRepo.Delete(ctx, followerID, followingID); err != nil {
		if errors.Is(err, lifeflow_errors.ErrNotFound) {
			return nil
		}
		return err
	}

	s.publishFollow(ctx, events.EventTypeFollowRemoved, followerID, followingID)
	return nil
}

// Mute keeps the follow edge but stops fan-out from the followed user.
func (s *FollowService) Mute(ctx context.Context, followerID, followingID uuid.UUID) (social.Follow, error) {
	f, err := s.followRepo.Get(ctx, followerID, followingID)
	if err != nil {
		return social.Follow{}, err
	}
	if f.IsMuted {
		return f, nil
	}

	f.IsMuted = true
	f.MutedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := s.followRepo.Update(ctx, f); err != nil {
		return social.Follow{}, err
	}
	return f, nil
}

func (s *FollowService) Unmute(ctx context.Context, followerID, followingID uuid.UUID) (social.Follow, error) {
	f, err := s.followRepo.Get(ctx, followerID, followingID)
	if err != nil {
		return social.Follow{}, err
	}
	if !f.IsMuted {
		return f, nil
	}

	f.IsMuted = false
	f.MutedAt = sql.NullTime{}
	if err := s.followRepo.Update(ctx, f); err != nil {
		return social.Follow{}, err
	}
	return f, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	return s.followRepo.Exists(ctx, followerID, followingID)
}

// Followers lists the users following userID, newest first.
func (s *FollowService) Followers(ctx context.Context, userID uuid.UUID, page, limit int) ([]FollowEntry, int64, error) {
	page, limit = normalizeFollowPage(page, limit)
	follows, total, err := s.followRepo.GetFollowers(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	entries, err := s.resolve(ctx, follows, func(f social.Follow) uuid.UUID { return f.FollowerID })
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Following lists the users userID follows, newest first.
func (s *FollowService) Following(ctx context.Context, userID uuid.UUID, page, limit int) ([]FollowEntry, int64, error) {
	page, limit = normalizeFollowPage(page, limit)
	follows, total, err := s.followRepo.GetFollowing(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	entries, err := s.resolve(ctx, follows, func(f social.Follow) uuid.UUID { return f.FollowingID })
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *FollowService) resolve(ctx context.Context, follows []social.Follow, pick func(social.Follow) uuid.UUID) ([]FollowEntry, error) {
	ids := make([]uuid.UUID, 0, len(follows))
	for _, f := range follows {
		ids = append(ids, pick(f))
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]UserInfo, len(users))
	for _, u := range users {
		byID[u.ID] = toUserInfo(u)
	}

	entries := make([]FollowEntry, 0, len(follows))
	for _, f := range follows {
		entry := FollowEntry{Follow: f}
		if info, ok := byID[pick(f)]; ok {
			entry.User = info
		} else {
			entry.User = UserInfo{ID: pick(f).String(), Name: fallbackUserName}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *FollowService) publishFollow(ctx context.Context, eventType string, followerID, followingID uuid.UUID) {
	if s.publisher == nil {
		return
	}
	payload := events.FollowPayload{
		FollowerID:  followerID,
		FollowingID: followingID,
	}
	if follower, err := s.userRepo.GetByID(ctx, followerID); err == nil {
		payload.FollowerName = follower.Name
		if follower.Avatar.Valid {
			payload.FollowerAvatar = follower.Avatar.String
		}
	}
	event := events.NewEvent(eventType, payload)
	if err := s.publisher.Publish(ctx, events.UserChannel(followingID), event); err != nil {
		s.log.Warn("failed to publish follow event", zap.Error(err), zap.String("event_type", eventType))
	}
}

func normalizeFollowPage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultFollowPageSize
	}
	return page, limit
}
