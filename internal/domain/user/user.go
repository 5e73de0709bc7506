package user

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound = errors.New("user: not found")
	ErrInvalid  = errors.New("user: invalid record")
)

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email       string             `bson:"email" json:"email"`
	DisplayName string             `bson:"displayName,omitempty" json:"displayName,omitempty"`
	Role        string             `bson:"role" json:"role"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	LastLoginAt time.Time          `bson:"lastLogInAt" json:"lastLogInAt"`
}

type Repository interface {
	// Upsert inserts the user on first login and refreshes lastLogInAt on
	// subsequent ones. It reports whether a new record was created.
	Upsert(ctx context.Context, u *User) (created bool, err error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
}
