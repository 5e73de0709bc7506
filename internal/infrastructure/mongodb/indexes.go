package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the application depends on. The unique
// index on payments.transactionId is the correctness backstop for concurrent
// confirmations; the rest serve the list queries.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	paymentIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transactionId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "payerEmail", Value: 1}, {Key: "paidAt", Value: -1}},
		},
	}
	if _, err := db.Collection("payments").Indexes().CreateMany(ctx, paymentIndexes); err != nil {
		return fmt.Errorf("failed to create payment indexes: %w", err)
	}

	parcelIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "senderEmail", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
	if _, err := db.Collection("parcels").Indexes().CreateMany(ctx, parcelIndexes); err != nil {
		return fmt.Errorf("failed to create parcel indexes: %w", err)
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := db.Collection("users").Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	return nil
}
