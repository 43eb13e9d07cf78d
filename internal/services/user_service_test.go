package services

import (
	"context"
	"testing"

	"lifeflow-server/internal/domain/user"
	lifeflow_errors "lifeflow-server/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfileDecoratesPresence(t *testing.T) {
	id := uuid.New()
	repo := newFakeUserRepo(user.User{ID: id, Name: "Alice", Email: "alice@example.com"})
	presence := &staticPresence{online: map[uuid.UUID]bool{id: true}}
	svc := NewUserService(repo, presence)

	p, err := svc.GetProfile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
	assert.True(t, p.IsOnline)
}

func TestUpdateProfileRejectsBlankName(t *testing.T) {
	id := uuid.New()
	repo := newFakeUserRepo(user.User{ID: id, Name: "Alice", Email: "alice@example.com"})
	svc := NewUserService(repo, nil)

	blank := "   "
	_, err := svc.UpdateProfile(context.Background(), id, UpdateProfileInput{Name: &blank})
	assert.ErrorIs(t, err, lifeflow_errors.ErrInvalidInput)
}

func TestUpdateProfileAppliesPartialChanges(t *testing.T) {
	id := uuid.New()
	repo := newFakeUserRepo(user.User{ID: id, Name: "Alice", Email: "alice@example.com"})
	svc := NewUserService(repo, nil)

	bio := "hello"
	p, err := svc.UpdateProfile(context.Background(), id, UpdateProfileInput{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "hello", p.Bio)
}

func TestSearchUsersRequiresQuery(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), nil)

	_, _, err := svc.Search(context.Background(), "  ", 1, 10)
	assert.ErrorIs(t, err, lifeflow_errors.ErrInvalidInput)
}

func TestSearchUsersMatchesCaseInsensitive(t *testing.T) {
	alice := user.User{ID: uuid.New(), Name: "Alice", Email: "alice@example.com"}
	bob := user.User{ID: uuid.New(), Name: "Bob", Email: "bob@example.com"}
	svc := NewUserService(newFakeUserRepo(alice, bob), &staticPresence{online: map[uuid.UUID]bool{alice.ID: true}})

	profiles, total, err := svc.Search(context.Background(), "ali", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Alice", profiles[0].Name)
	assert.True(t, profiles[0].IsOnline)
}
