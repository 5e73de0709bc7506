package mongodb

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/zapshift/zapshift-backend/internal/domain/parcel"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type parcelRepository struct {
	collection *mongo.Collection
}

func NewParcelRepository(db *mongo.Database) domain.Repository {
	return &parcelRepository{
		collection: db.Collection("parcels"),
	}
}

func (r *parcelRepository) Insert(ctx context.Context, p *domain.Parcel) (string, error) {
	res, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		return "", fmt.Errorf("failed to insert parcel: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (r *parcelRepository) FindByID(ctx context.Context, id string) (*domain.Parcel, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var p domain.Parcel
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get parcel: %w", err)
	}
	return &p, nil
}

func (r *parcelRepository) List(ctx context.Context, senderEmail string) ([]*domain.Parcel, error) {
	filter := bson.M{}
	if senderEmail != "" {
		filter["senderEmail"] = senderEmail
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list parcels: %w", err)
	}
	defer cursor.Close(ctx)

	parcels := []*domain.Parcel{}
	if err := cursor.All(ctx, &parcels); err != nil {
		return nil, fmt.Errorf("failed to decode parcels: %w", err)
	}
	return parcels, nil
}

func (r *parcelRepository) MarkPaid(ctx context.Context, id, trackingID string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, domain.ErrInvalidID
	}

	update := bson.M{
		"$set": bson.M{
			"deliveryStatus": domain.StatusPaid,
			"trackingId":     trackingID,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return 0, fmt.Errorf("failed to mark parcel paid: %w", err)
	}
	if res.MatchedCount == 0 {
		return 0, domain.ErrNotFound
	}
	return res.ModifiedCount, nil
}

func (r *parcelRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete parcel: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
