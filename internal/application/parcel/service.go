package parcel

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/zapshift/zapshift-backend/internal/domain/parcel"
	"github.com/zapshift/zapshift-backend/internal/pkg/logging"
	"go.uber.org/zap"
)

type Service struct {
	repo domain.Repository
}

func NewService(repo domain.Repository) *Service {
	return &Service{repo: repo}
}

type CreateParcelInput struct {
	Name            string
	Type            string
	WeightKg        float64
	Cost            float64
	SenderName      string
	SenderEmail     string
	SenderAddress   string
	SenderRegion    string
	ReceiverName    string
	ReceiverPhone   string
	ReceiverAddress string
	ReceiverRegion  string
}

// Create books a new parcel. The record starts with no delivery status; only
// the payment-confirmation workflow moves it to paid.
func (s *Service) Create(ctx context.Context, input CreateParcelInput) (string, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "parcel_service"))

	entity, err := domain.New(domain.Parcel{
		Name:            input.Name,
		Type:            input.Type,
		WeightKg:        input.WeightKg,
		Cost:            input.Cost,
		SenderName:      input.SenderName,
		SenderEmail:     input.SenderEmail,
		SenderAddress:   input.SenderAddress,
		SenderRegion:    input.SenderRegion,
		ReceiverName:    input.ReceiverName,
		ReceiverPhone:   input.ReceiverPhone,
		ReceiverAddress: input.ReceiverAddress,
		ReceiverRegion:  input.ReceiverRegion,
	})
	if err != nil {
		return "", err
	}

	id, err := s.repo.Insert(ctx, entity)
	if err != nil {
		logger.Error("parcel_insert_failed", zap.Error(err))
		return "", fmt.Errorf("parcel: insert: %w", err)
	}

	logger.Info("parcel_created", zap.String("parcel_id", id), zap.String("sender_email", entity.SenderEmail))
	return id, nil
}

// List returns parcels newest first, optionally filtered by sender email.
func (s *Service) List(ctx context.Context, senderEmail string) ([]*domain.Parcel, error) {
	return s.repo.List(ctx, senderEmail)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Parcel, error) {
	if id == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.FindByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	logger := logging.FromContext(ctx).With(zap.String("component", "parcel_service"))

	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidID) {
			logger.Error("parcel_delete_failed", zap.String("parcel_id", id), zap.Error(err))
		}
		return err
	}

	logger.Info("parcel_deleted", zap.String("parcel_id", id))
	return nil
}
