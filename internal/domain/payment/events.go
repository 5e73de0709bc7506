package payment

import "time"

// PaymentRecordedEvent is emitted after a settled checkout session has been
// recorded exactly once. Handled by other contexts (e.g. receipt notification).
type PaymentRecordedEvent struct {
	TransactionID string
	ParcelID      string
	TrackingID    string
	PayerEmail    string
	Amount        float64
	Currency      string
	OccurredAt    time.Time
}

func (PaymentRecordedEvent) EventName() string { return "payment.recorded" }

func NewPaymentRecordedEvent(p *Payment) PaymentRecordedEvent {
	return PaymentRecordedEvent{
		TransactionID: p.TransactionID,
		ParcelID:      p.ParcelID,
		TrackingID:    p.TrackingID,
		PayerEmail:    p.PayerEmail,
		Amount:        p.Amount,
		Currency:      p.Currency,
		OccurredAt:    time.Now().UTC(),
	}
}
