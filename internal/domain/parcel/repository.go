package parcel

import "context"

type Repository interface {
	Insert(ctx context.Context, p *Parcel) (string, error)
	FindByID(ctx context.Context, id string) (*Parcel, error)
	// List returns parcels newest-first, optionally filtered by sender email.
	List(ctx context.Context, senderEmail string) ([]*Parcel, error)
	// MarkPaid sets deliveryStatus="paid" and the tracking id on the parcel.
	// It returns the number of documents actually modified.
	MarkPaid(ctx context.Context, id, trackingID string) (int64, error)
	Delete(ctx context.Context, id string) error
}
