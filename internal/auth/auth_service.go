package auth

import (
	"context"
	"strings"
	"time"

	autherrors "go-leave/internal/auth/errors"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, email, password string) (LoginResponse, error)
	GetMe(ctx context.Context, userID string) (AuthResponse, error)
}

type service struct {
	users  user.Repository
	tokens *TokenManager
	logger *zap.Logger
}

func NewService(users user.Repository, tokens *TokenManager, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{users: users, tokens: tokens, logger: l}
}

func (s *service) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		log.Info("login failed", zap.String("email", email), zap.String("reason", "unknown email"))
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		log.Info("login failed", zap.String("email", email), zap.String("reason", "password mismatch"))
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(u.ID.String(), u.Role.String())
	if err != nil {
		log.Error("login token generation failed", zap.String("user_id", u.ID.String()), zap.Error(err))
		return LoginResponse{}, err
	}

	log.Info("login success", zap.String("user_id", u.ID.String()), zap.String("role", u.Role.String()))
	return LoginResponse{
		User:        toAuthResponse(u),
		AccessToken: token,
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

func (s *service) GetMe(ctx context.Context, userID string) (AuthResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return AuthResponse{}, autherrors.ErrInvalidUserID
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return AuthResponse{}, autherrors.ErrUserNotFound
	}
	return toAuthResponse(u), nil
}

func toAuthResponse(u *user.User) AuthResponse {
	return AuthResponse{
		ID:    u.ID.String(),
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role.String(),
	}
}
