package event

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is the in-memory Repository used for local development and
// tests. It is exported (unlike its Firestore counterpart) because the group
// package's memory store needs it as an EventPurger for cascade deletes.
type MemoryRepository struct {
	mu      sync.RWMutex
	events  map[string]Event  // eventID -> Event
	signups map[string]Signup // SignupDocID -> Signup
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		events:  make(map[string]Event),
		signups: make(map[string]Signup),
	}
}

func (r *MemoryRepository) Create(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[e.ID] = e
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, eventID string) (*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	return &e, nil
}

func (r *MemoryRepository) ListByGroups(_ context.Context, groupIDs []string) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]bool, len(groupIDs))
	for _, id := range groupIDs {
		wanted[id] = true
	}

	events := make([]Event, 0)
	for _, e := range r.events {
		if wanted[e.GroupID] {
			events = append(events, e)
		}
	}
	sortEvents(events)
	return events, nil
}

func (r *MemoryRepository) ListByCreator(_ context.Context, creatorID string) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]Event, 0)
	for _, e := range r.events {
		if e.CreatorID == creatorID {
			events = append(events, e)
		}
	}
	sortEvents(events)
	return events, nil
}

func (r *MemoryRepository) CountSignups(_ context.Context, eventID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, s := range r.signups {
		if s.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) PutSignup(_ context.Context, s Signup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.signups[SignupDocID(s.EventID, s.UserID)] = s
	return nil
}

func (r *MemoryRepository) ListSignups(_ context.Context, eventID string) ([]Signup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	signups := make([]Signup, 0)
	for _, s := range r.signups {
		if s.EventID == eventID {
			signups = append(signups, s)
		}
	}
	sort.Slice(signups, func(i, j int) bool { return signups[i].UserID < signups[j].UserID })
	return signups, nil
}

func (r *MemoryRepository) ListSignupsByUser(_ context.Context, userID string) ([]Signup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	signups := make([]Signup, 0)
	for _, s := range r.signups {
		if s.UserID == userID {
			signups = append(signups, s)
		}
	}
	sort.Slice(signups, func(i, j int) bool { return signups[i].EventID < signups[j].EventID })
	return signups, nil
}

func (r *MemoryRepository) DeleteSignups(_ context.Context, eventID, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for key, s := range r.signups {
		if s.EventID == eventID && s.UserID == userID {
			delete(r.signups, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r *MemoryRepository) DeleteEventCascade(_ context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.events, eventID)
	for key, s := range r.signups {
		if s.EventID == eventID {
			delete(r.signups, key)
		}
	}
	return nil
}

// PurgeGroupEvents implements the group package's EventPurger.
func (r *MemoryRepository) PurgeGroupEvents(_ context.Context, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.events {
		if e.GroupID != groupID {
			continue
		}
		delete(r.events, id)
		for key, s := range r.signups {
			if s.EventID == id {
				delete(r.signups, key)
			}
		}
	}
	return nil
}

func sortEvents(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date.Equal(events[j].Date) {
			return events[i].ID < events[j].ID
		}
		return events[i].Date.Before(events[j].Date)
	})
}
