package payment

import "context"

type Repository interface {
	Insert(ctx context.Context, p *Payment) error
	FindByTransactionID(ctx context.Context, transactionID string) (*Payment, error)
	// ListByPayer returns payments newest-paid-first. An empty email lists all.
	ListByPayer(ctx context.Context, payerEmail string) ([]*Payment, error)
}
