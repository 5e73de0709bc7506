package parcel

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("parcel: not found")
	ErrInvalidID = errors.New("parcel: invalid id")
	ErrInvalid   = errors.New("parcel: invalid record")
)

// DeliveryStatus follows the fulfillment lifecycle. A freshly booked parcel
// carries no status until the payment-confirmation workflow marks it paid;
// later fulfillment states are written by other systems and only stored here.
type DeliveryStatus string

const (
	StatusPaid      DeliveryStatus = "paid"
	StatusInTransit DeliveryStatus = "in_transit"
	StatusDelivered DeliveryStatus = "delivered"
)

type Parcel struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Type            string             `bson:"type" json:"type"`
	WeightKg        float64            `bson:"weightKg" json:"weightKg"`
	Cost            float64            `bson:"cost" json:"cost"`
	SenderName      string             `bson:"senderName" json:"senderName"`
	SenderEmail     string             `bson:"senderEmail" json:"senderEmail"`
	SenderAddress   string             `bson:"senderAddress" json:"senderAddress"`
	SenderRegion    string             `bson:"senderRegion" json:"senderRegion"`
	ReceiverName    string             `bson:"receiverName" json:"receiverName"`
	ReceiverPhone   string             `bson:"receiverPhone" json:"receiverPhone"`
	ReceiverAddress string             `bson:"receiverAddress" json:"receiverAddress"`
	ReceiverRegion  string             `bson:"receiverRegion" json:"receiverRegion"`
	DeliveryStatus  DeliveryStatus     `bson:"deliveryStatus,omitempty" json:"deliveryStatus,omitempty"`
	TrackingID      string             `bson:"trackingId,omitempty" json:"trackingId,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// New validates a booking request and stamps it; the delivery status stays
// unset until the payment-confirmation workflow marks the parcel paid.
func New(p Parcel) (*Parcel, error) {
	if p.Name == "" || p.SenderEmail == "" || p.ReceiverAddress == "" {
		return nil, ErrInvalid
	}
	if p.Cost < 0 || p.WeightKg < 0 {
		return nil, ErrInvalid
	}
	p.ID = primitive.NilObjectID
	p.DeliveryStatus = ""
	p.TrackingID = ""
	p.CreatedAt = time.Now().UTC()
	return &p, nil
}
