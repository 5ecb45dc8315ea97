package user

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const usersCollection = "users"

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a new Firestore repository
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) Get(ctx context.Context, uid string) (*User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var u User
	if err := doc.DataTo(&u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	u.UID = doc.Ref.ID
	return &u, nil
}

func (r *firestoreRepository) Create(ctx context.Context, u User) error {
	_, err := r.client.Collection(usersCollection).Doc(u.UID).Create(ctx, map[string]any{
		"uid":       u.UID,
		"fullName":  u.FullName,
		"email":     u.Email,
		"createdAt": u.CreatedAt,
	})
	if status.Code(err) == codes.AlreadyExists {
		return ErrConflict
	}
	return err
}

func (r *firestoreRepository) UpdateFullName(ctx context.Context, uid, fullName string) error {
	_, err := r.client.Collection(usersCollection).Doc(uid).Update(ctx, []firestore.Update{
		{Path: "fullName", Value: fullName},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}
