package event

import (
	"context"
	"time"
)

// Event represents the persisted event document. GroupName and CurrentSignups
// are derived at read time, never stored.
type Event struct {
	ID              string    `json:"id" firestore:"-"`
	Title           string    `json:"title" firestore:"title"`
	Date            time.Time `json:"date" firestore:"date"`
	Location        string    `json:"location" firestore:"location"`
	Description     string    `json:"description" firestore:"description"`
	MaxParticipants int       `json:"maxParticipants" firestore:"maxParticipants"`
	CreatorID       string    `json:"creatorId" firestore:"creatorId"`
	CreatorEmail    string    `json:"creatorEmail,omitempty" firestore:"creatorEmail,omitempty"`
	GroupID         string    `json:"groupId" firestore:"groupId"`
	CreatedAt       time.Time `json:"createdAt" firestore:"createdAt"`

	GroupName      string `json:"groupName,omitempty" firestore:"-"`
	CurrentSignups int    `json:"currentSignups" firestore:"-"`
}

// Signup is a user's registration for one event, keyed by
// SignupDocID(eventID, userID) so re-signup overwrites rather than duplicates.
type Signup struct {
	EventID    string    `json:"eventId" firestore:"eventId"`
	UserID     string    `json:"userId" firestore:"userId"`
	UserName   string    `json:"userName" firestore:"userName"`
	UserEmail  string    `json:"userEmail" firestore:"userEmail"`
	EventName  string    `json:"eventName" firestore:"eventName"`
	SignedUpAt time.Time `json:"signedUpAt" firestore:"signedUpAt"`
}

// SignupDocID returns the composite signup document key. An older scheme used
// auto-generated ids; removal still queries by (eventId, userId) so stray
// auto-id documents from that era are cleaned up too.
func SignupDocID(eventID, userID string) string {
	return eventID + "_" + userID
}

// CreateEventInput carries the fields accepted when creating an event.
type CreateEventInput struct {
	Title           string
	Date            time.Time
	Location        string
	Description     string
	MaxParticipants int
	GroupID         string
}

// SignupResult reports the authoritative signup count after a successful signup.
type SignupResult struct {
	EventID        string `json:"eventId"`
	CurrentSignups int    `json:"currentSignups"`
}

// GroupDirectory exposes the group lookups the event service needs; the group
// service implements it.
type GroupDirectory interface {
	IsAdmin(ctx context.Context, groupID, userID string) (bool, error)
	VisibleGroupIDs(ctx context.Context, userID string) ([]string, error)
	GroupNames(ctx context.Context, groupIDs []string) (map[string]string, error)
}

// NameResolver resolves a user's display name; implemented by the user service.
type NameResolver interface {
	DisplayName(ctx context.Context, userID, tokenName string) (string, error)
}

// Repository defines the interface for event and signup data access.
// DeleteEventCascade is atomic: the event and its signups go together or not
// at all.
type Repository interface {
	Create(ctx context.Context, e Event) error
	Get(ctx context.Context, eventID string) (*Event, error)
	ListByGroups(ctx context.Context, groupIDs []string) ([]Event, error)
	ListByCreator(ctx context.Context, creatorID string) ([]Event, error)

	// CountSignups performs a fresh read; callers rely on it not being served
	// from any cached value.
	CountSignups(ctx context.Context, eventID string) (int, error)
	PutSignup(ctx context.Context, s Signup) error
	ListSignups(ctx context.Context, eventID string) ([]Signup, error)
	ListSignupsByUser(ctx context.Context, userID string) ([]Signup, error)
	// DeleteSignups removes every signup matching (eventID, userID) in one
	// batch and reports how many documents were deleted.
	DeleteSignups(ctx context.Context, eventID, userID string) (int, error)

	DeleteEventCascade(ctx context.Context, eventID string) error
}

// Service defines the event service interface.
type Service interface {
	Create(ctx context.Context, callerID, callerEmail string, input CreateEventInput) (*Event, error)
	ListVisible(ctx context.Context, callerID string) ([]Event, error)
	// ListForGroup returns one group's events with signup counts. Visibility is
	// the caller's responsibility.
	ListForGroup(ctx context.Context, groupID string) ([]Event, error)
	ListCreated(ctx context.Context, callerID string) ([]Event, error)
	ListMySignups(ctx context.Context, callerID string) ([]Event, error)

	SignUp(ctx context.Context, eventID, callerID, callerName, callerEmail string) (*SignupResult, error)
	RemoveSignup(ctx context.Context, eventID, userID string) error
	Roster(ctx context.Context, eventID, callerID string) ([]Signup, error)
	Delete(ctx context.Context, eventID, callerID string) error
}
