package payment

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound = errors.New("payment: not found")
	// ErrDuplicateTransaction signals that a payment with the same provider
	// transaction id already exists. The unique index on transactionId is the
	// correctness backstop for concurrent confirmations of one session.
	ErrDuplicateTransaction = errors.New("payment: duplicate transaction")
	ErrInvalid              = errors.New("payment: invalid record")
)

type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TransactionID string             `bson:"transactionId" json:"transactionId"`
	ParcelID      string             `bson:"parcelId" json:"parcelId"`
	ParcelName    string             `bson:"parcelName,omitempty" json:"parcelName,omitempty"`
	Amount        float64            `bson:"amount" json:"amount"`
	Currency      string             `bson:"currency" json:"currency"`
	PayerEmail    string             `bson:"payerEmail" json:"payerEmail"`
	TrackingID    string             `bson:"trackingId" json:"trackingId"`
	PaidAt        time.Time          `bson:"paidAt" json:"paidAt"`
}

// New builds a payment record for a settled transaction. ParcelID may be
// empty: a session whose metadata lost the parcel reference still settled, so
// the record must exist either way.
func New(transactionID, parcelID, parcelName, currency, payerEmail, trackingID string, amount float64) (*Payment, error) {
	if transactionID == "" || trackingID == "" {
		return nil, ErrInvalid
	}
	if amount < 0 {
		return nil, ErrInvalid
	}
	return &Payment{
		TransactionID: transactionID,
		ParcelID:      parcelID,
		ParcelName:    parcelName,
		Amount:        amount,
		Currency:      currency,
		PayerEmail:    payerEmail,
		TrackingID:    trackingID,
		PaidAt:        time.Now().UTC(),
	}, nil
}
