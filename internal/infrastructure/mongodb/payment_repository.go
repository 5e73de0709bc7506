package mongodb

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/zapshift/zapshift-backend/internal/domain/payment"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type paymentRepository struct {
	collection *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) domain.Repository {
	return &paymentRepository{
		collection: db.Collection("payments"),
	}
}

func (r *paymentRepository) Insert(ctx context.Context, p *domain.Payment) error {
	_, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	var p domain.Payment

	filter := bson.M{"transactionId": transactionID}
	if err := r.collection.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

func (r *paymentRepository) ListByPayer(ctx context.Context, payerEmail string) ([]*domain.Payment, error) {
	filter := bson.M{}
	if payerEmail != "" {
		filter["payerEmail"] = payerEmail
	}
	opts := options.Find().SetSort(bson.D{{Key: "paidAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer cursor.Close(ctx)

	payments := []*domain.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	return payments, nil
}
