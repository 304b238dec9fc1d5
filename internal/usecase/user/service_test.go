package user

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/inceCheng/GigaLike/domain"
)

type fakeUserRepo struct {
	users map[string]domain.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	u, ok := f.users[username]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &fakeUserRepo{users: map[string]domain.User{
		"alice": {ID: 1, Username: "alice", DisplayName: "Alice", Password: string(hash)},
	}}
	return NewService(repo, []byte("jwt-secret"), time.Hour)
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)

	token, u, err := svc.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Empty(t, u.Password)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte("jwt-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(1), claims["user_id"])
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrNoPermission)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.Login(context.Background(), "mallory", "secret123")
	assert.ErrorIs(t, err, domain.ErrNoPermission)
}
