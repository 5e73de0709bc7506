package mongodb

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/zapshift/zapshift-backend/internal/domain/user"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) domain.Repository {
	return &userRepository{
		collection: db.Collection("users"),
	}
}

func (r *userRepository) Upsert(ctx context.Context, u *domain.User) (bool, error) {
	filter := bson.M{"email": u.Email}
	update := bson.M{
		"$set": bson.M{
			"lastLogInAt": u.LastLoginAt,
		},
		"$setOnInsert": bson.M{
			"email":       u.Email,
			"displayName": u.DisplayName,
			"role":        u.Role,
			"createdAt":   u.CreatedAt,
		},
	}
	opts := options.Update().SetUpsert(true)

	res, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, fmt.Errorf("failed to upsert user: %w", err)
	}
	return res.UpsertedCount > 0, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User

	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []*domain.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}
