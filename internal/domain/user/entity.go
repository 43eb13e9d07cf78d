package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User represents the users table. Only the profile fields consumed by the
// messaging and notification engines live here; workspace settings and page
// ownership belong to other services.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null;default:member"`
	Avatar       sql.NullString
	Bio          sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string {
	return "users"
}

// Roles understood by the identity resolver.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)
