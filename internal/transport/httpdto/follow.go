package httpdto

import (
	"time"

	"lifeflow-server/internal/domain/social"
	"lifeflow-server/internal/services"
)

type FollowResponse struct {
	ID          string     `json:"id"`
	FollowerID  string     `json:"follower_id"`
	FollowingID string     `json:"following_id"`
	IsMuted     bool       `json:"is_muted"`
	MutedAt     *time.Time `json:"muted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type FollowEntryResponse struct {
	Follow FollowResponse    `json:"follow"`
	User   services.UserInfo `json:"user"`
}

func ToFollowResponse(f social.Follow) FollowResponse {
	resp := FollowResponse{
		ID:          f.ID.String(),
		FollowerID:  f.FollowerID.String(),
		FollowingID: f.FollowingID.String(),
		IsMuted:     f.IsMuted,
		CreatedAt:   f.CreatedAt,
	}
	if f.MutedAt.Valid {
		t := f.MutedAt.Time
		resp.MutedAt = &t
	}
	return resp
}

func ToFollowEntryResponse(e services.FollowEntry) FollowEntryResponse {
	return FollowEntryResponse{
		Follow: ToFollowResponse(e.Follow),
		User:   e.User,
	}
}
