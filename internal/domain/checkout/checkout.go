package checkout

import "errors"

var (
	// ErrSessionNotFound means the provider does not know the session id.
	ErrSessionNotFound = errors.New("checkout: session not found")
	// ErrGatewayUnavailable covers transport failures and an open breaker.
	ErrGatewayUnavailable = errors.New("checkout: gateway unavailable")
)

// PaymentStatus is the provider's settlement indication for a session.
type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusUnpaid PaymentStatus = "unpaid"
)

// Session mirrors the hosted-checkout provider's transaction record. It is
// owned by the provider and never persisted locally.
type Session struct {
	ID            string
	URL           string
	PaymentStatus PaymentStatus
	TransactionID string
	AmountTotal   int64
	Currency      string
	CustomerEmail string
	ParcelID      string
	ParcelName    string
}

// Settled reports whether the provider collected the full payment.
func (s *Session) Settled() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

type CreateSessionInput struct {
	// AmountMinor is a positive count of minor currency units (cents).
	AmountMinor int64
	Currency    string
	Description string
	PayerEmail  string
	ParcelID    string
	ParcelName  string
	SuccessURL  string
	CancelURL   string
}
