package event

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	eventsCollection  = "events"
	signupsCollection = "event_signups"
)

const inQueryChunk = 30

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a new Firestore repository
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) eventRef(eventID string) *firestore.DocumentRef {
	return r.client.Collection(eventsCollection).Doc(eventID)
}

func (r *firestoreRepository) Create(ctx context.Context, e Event) error {
	_, err := r.eventRef(e.ID).Create(ctx, eventData(e))
	return err
}

func (r *firestoreRepository) Get(ctx context.Context, eventID string) (*Event, error) {
	doc, err := r.eventRef(eventID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return snapshotToEvent(doc)
}

func (r *firestoreRepository) ListByGroups(ctx context.Context, groupIDs []string) ([]Event, error) {
	events := make([]Event, 0)
	for start := 0; start < len(groupIDs); start += inQueryChunk {
		end := start + inQueryChunk
		if end > len(groupIDs) {
			end = len(groupIDs)
		}
		iter := r.client.Collection(eventsCollection).
			Where("groupId", "in", groupIDs[start:end]).
			Documents(ctx)
		chunk, err := collectEvents(iter)
		if err != nil {
			return nil, err
		}
		events = append(events, chunk...)
	}
	return events, nil
}

func (r *firestoreRepository) ListByCreator(ctx context.Context, creatorID string) ([]Event, error) {
	iter := r.client.Collection(eventsCollection).
		Where("creatorId", "==", creatorID).
		Documents(ctx)
	return collectEvents(iter)
}

func (r *firestoreRepository) CountSignups(ctx context.Context, eventID string) (int, error) {
	// Select() keeps the count read cheap; only document keys come back.
	iter := r.client.Collection(signupsCollection).
		Where("eventId", "==", eventID).
		Select().
		Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

func (r *firestoreRepository) PutSignup(ctx context.Context, s Signup) error {
	_, err := r.client.Collection(signupsCollection).Doc(SignupDocID(s.EventID, s.UserID)).Set(ctx, map[string]any{
		"eventId":    s.EventID,
		"userId":     s.UserID,
		"userName":   s.UserName,
		"userEmail":  s.UserEmail,
		"eventName":  s.EventName,
		"signedUpAt": s.SignedUpAt,
	})
	return err
}

func (r *firestoreRepository) ListSignups(ctx context.Context, eventID string) ([]Signup, error) {
	iter := r.client.Collection(signupsCollection).
		Where("eventId", "==", eventID).
		Documents(ctx)
	return collectSignups(iter)
}

func (r *firestoreRepository) ListSignupsByUser(ctx context.Context, userID string) ([]Signup, error) {
	iter := r.client.Collection(signupsCollection).
		Where("userId", "==", userID).
		Documents(ctx)
	return collectSignups(iter)
}

func (r *firestoreRepository) DeleteSignups(ctx context.Context, eventID, userID string) (int, error) {
	docs, err := r.client.Collection(signupsCollection).
		Where("eventId", "==", eventID).
		Where("userId", "==", userID).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	batch := r.client.Batch()
	for _, doc := range docs {
		batch.Delete(doc.Ref)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (r *firestoreRepository) DeleteEventCascade(ctx context.Context, eventID string) error {
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		signupDocs, err := tx.Documents(r.client.Collection(signupsCollection).
			Where("eventId", "==", eventID)).GetAll()
		if err != nil {
			return err
		}

		for _, doc := range signupDocs {
			if err := tx.Delete(doc.Ref); err != nil {
				return err
			}
		}
		return tx.Delete(r.eventRef(eventID))
	})
}

func eventData(e Event) map[string]any {
	data := map[string]any{
		"title":           e.Title,
		"date":            e.Date,
		"location":        e.Location,
		"description":     e.Description,
		"maxParticipants": e.MaxParticipants,
		"creatorId":       e.CreatorID,
		"groupId":         e.GroupID,
		"createdAt":       e.CreatedAt,
	}
	if e.CreatorEmail != "" {
		data["creatorEmail"] = e.CreatorEmail
	}
	return data
}

func snapshotToEvent(doc *firestore.DocumentSnapshot) (*Event, error) {
	var e Event
	if err := doc.DataTo(&e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	e.ID = doc.Ref.ID
	return &e, nil
}

func collectEvents(iter *firestore.DocumentIterator) ([]Event, error) {
	defer iter.Stop()

	events := make([]Event, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		e, err := snapshotToEvent(doc)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, nil
}

func collectSignups(iter *firestore.DocumentIterator) ([]Signup, error) {
	defer iter.Stop()

	signups := make([]Signup, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var s Signup
		if err := doc.DataTo(&s); err != nil {
			return nil, fmt.Errorf("unmarshal signup: %w", err)
		}
		signups = append(signups, s)
	}
	return signups, nil
}
