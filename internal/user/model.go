package user

import (
	"context"
	"time"
)

// FallbackName is used when neither the stored profile nor the identity
// provider supplies a display name.
const FallbackName = "A New User"

// User represents the persisted user document. Created on first sign-in;
// immutable except FullName.
type User struct {
	UID       string    `json:"uid" firestore:"uid"`
	FullName  string    `json:"fullName" firestore:"fullName"`
	Email     string    `json:"email" firestore:"email"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

// Repository defines the interface for user data access.
type Repository interface {
	Get(ctx context.Context, uid string) (*User, error)
	Create(ctx context.Context, u User) error
	UpdateFullName(ctx context.Context, uid, fullName string) error
}

// Service defines the user service interface.
type Service interface {
	// EnsureUser creates the user document on first sign-in and is a no-op
	// afterwards. The returned user is the stored one either way.
	EnsureUser(ctx context.Context, uid, name, email string) (*User, error)
	Get(ctx context.Context, uid string) (*User, error)
	UpdateFullName(ctx context.Context, uid, fullName string) (*User, error)
	// DisplayName resolves a user's display name by priority: stored profile
	// name, then the token's name claim, then FallbackName.
	DisplayName(ctx context.Context, uid, tokenName string) (string, error)
}
