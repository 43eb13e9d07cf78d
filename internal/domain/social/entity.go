package social

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Follow represents the follows table. One row per (follower, following)
// pair; the mute flag stops new-post fan-out without severing the edge.
type Follow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	FollowerID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair"`
	FollowingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair"`
	IsMuted     bool      `gorm:"not null;default:false"`
	MutedAt     sql.NullTime
	CreatedAt   time.Time
}

func (Follow) TableName() string {
	return "follows"
}
