package repository

import (
	"context"
	"errors"

	"lifeflow-server/internal/domain/social"
	lifeflow_errors "lifeflow-server/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresFollowRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) Create(ctx context.Context, f *social.Follow) error {
	res := r.db.WithContext(ctx).Create(f)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return lifeflow_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresFollowRepository) Delete(ctx context.Context, followerID, followingID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Delete(&social.Follow{}, "follower_id = ? AND following_id = ?", followerID, followingID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return lifeflow_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresFollowRepository) Get(ctx context.Context, followerID, followingID uuid.UUID) (social.Follow, error) {
	var f social.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return social.Follow{}, lifeflow_errors.ErrNotFound
		}
		return social.Follow{}, err
	}
	return f, nil
}

func (r *PostgresFollowRepository) Update(ctx context.Context, f social.Follow) error {
	res := r.db.WithContext(ctx).Save(&f)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return lifeflow_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresFollowRepository) GetFollowers(ctx context.Context, userID uuid.UUID, page, limit int) ([]social.Follow, int64, error) {
	var follows []social.Follow
	var total int64

	q := r.db.WithContext(ctx).
		Model(&social.Follow{}).
		Where("following_id = ?", userID)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&follows).Error; err != nil {
		return nil, 0, err
	}

	return follows, total, nil
}

func (r *PostgresFollowRepository) GetFollowing(ctx context.Context, userID uuid.UUID, page, limit int) ([]social.Follow, int64, error) {
	var follows []social.Follow
	var total int64

	q := r.db.WithContext(ctx).
		Model(&social.Follow{}).
		Where("follower_id = ?", userID)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&follows).Error; err != nil {
		return nil, 0, err
	}

	return follows, total, nil
}

// GetActiveFollowerIDs returns followers who have not muted the user.
// Fan-out targets come from this list.
func (r *PostgresFollowRepository) GetActiveFollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&social.Follow{}).
		Where("following_id = ? AND is_muted = ?", userID, false).
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PostgresFollowRepository) Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&social.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
