package user

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/inceCheng/GigaLike/domain"
)

// Service is the minimal identity provider: it verifies credentials and
// issues the JWT the auth middleware checks.
type Service struct {
	userRepo  domain.UserRepository
	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewService(ur domain.UserRepository, jwtSecret []byte, jwtTTL time.Duration) *Service {
	return &Service{
		userRepo:  ur,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
	}
}

// Login verifies username/password and returns a signed token.
// 登录失败统一返回 ErrNoPermission, 不区分用户不存在和密码错误
func (s *Service) Login(ctx context.Context, username, password string) (string, domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", domain.User{}, domain.ErrNoPermission
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", domain.User{}, domain.ErrNoPermission
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"iat":     now.Unix(),
		"exp":     now.Add(s.jwtTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", domain.User{}, domain.ErrInternalServerError
	}

	user.Password = ""
	return token, user, nil
}
