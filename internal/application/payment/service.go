package payment

import (
	"context"
	"fmt"

	dompayment "github.com/zapshift/zapshift-backend/internal/domain/payment"
	"github.com/zapshift/zapshift-backend/internal/pkg/logging"
	"go.uber.org/zap"
)

// Service holds the query side of the payment context.
type Service struct {
	payments dompayment.Repository
}

func NewService(payments dompayment.Repository) *Service {
	return &Service{payments: payments}
}

// ListByPayer returns a payer's payment history, newest paid first.
func (s *Service) ListByPayer(ctx context.Context, payerEmail string) ([]*dompayment.Payment, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "payment_service"))

	records, err := s.payments.ListByPayer(ctx, payerEmail)
	if err != nil {
		logger.Error("payment_list_failed", zap.String("payer_email", payerEmail), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	return records, nil
}
