package services

import (
	"context"
	"strings"
	"time"

	"lifeflow-server/internal/repository"
	lifeflow_errors "lifeflow-server/pkg/errors"

	"github.com/google/uuid"
)

const DefaultUserPageSize = 20

type UserService struct {
	userRepo repository.UserRepository
	presence PresenceSource
}

func NewUserService(userRepo repository.UserRepository, presence PresenceSource) *UserService {
	return &UserService{userRepo: userRepo, presence: presence}
}

// Profile is a user as others see them, with live presence attached.
type Profile struct {
	UserInfo
	IsOnline bool `json:"is_online"`
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{UserInfo: toUserInfo(u)}
	if s.presence != nil {
		p.IsOnline = s.presence.IsOnline(userID)
	}
	return p, nil
}

type UpdateProfileInput struct {
	Name   *string
	Avatar *string
	Bio    *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (Profile, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Profile{}, lifeflow_errors.ErrInvalidInput
		}
		u.Name = name
	}
	if in.Avatar != nil {
		u.Avatar = toNullString(strings.TrimSpace(*in.Avatar))
	}
	if in.Bio != nil {
		u.Bio = toNullString(strings.TrimSpace(*in.Bio))
	}
	u.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, u); err != nil {
		return Profile{}, err
	}
	return s.GetProfile(ctx, userID)
}

func (s *UserService) Search(ctx context.Context, query string, page, limit int) ([]Profile, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, lifeflow_errors.ErrInvalidInput
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultUserPageSize
	}

	users, total, err := s.userRepo.SearchByName(ctx, query, page, limit)
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]Profile, 0, len(users))
	for _, u := range users {
		p := Profile{UserInfo: toUserInfo(u)}
		if s.presence != nil {
			p.IsOnline = s.presence.IsOnline(u.ID)
		}
		profiles = append(profiles, p)
	}
	return profiles, total, nil
}
