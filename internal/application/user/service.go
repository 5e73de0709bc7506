package user

import (
	"context"
	"time"

	domain "github.com/zapshift/zapshift-backend/internal/domain/user"
	"github.com/zapshift/zapshift-backend/internal/pkg/logging"
	"go.uber.org/zap"
)

type Service struct {
	repo domain.Repository
}

func NewService(repo domain.Repository) *Service {
	return &Service{repo: repo}
}

type UpsertUserInput struct {
	Email       string
	DisplayName string
}

// Upsert registers a user on first login and refreshes lastLogInAt afterwards.
func (s *Service) Upsert(ctx context.Context, input UpsertUserInput) (*domain.User, bool, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "user_service"))

	if input.Email == "" {
		return nil, false, domain.ErrInvalid
	}

	now := time.Now().UTC()
	entity := &domain.User{
		Email:       input.Email,
		DisplayName: input.DisplayName,
		Role:        "user",
		CreatedAt:   now,
		LastLoginAt: now,
	}

	created, err := s.repo.Upsert(ctx, entity)
	if err != nil {
		logger.Error("user_upsert_failed", zap.String("email", input.Email), zap.Error(err))
		return nil, false, err
	}

	stored, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, created, err
	}

	logger.Info("user_logged_in", zap.String("email", stored.Email), zap.Bool("created", created))
	return stored, created, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}
