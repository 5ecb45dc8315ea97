package event

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Jandr07/VolunteerConnect/internal/apperr"
)

const countConcurrency = 8

type service struct {
	repo   Repository
	groups GroupDirectory
	names  NameResolver
}

// NewService creates a new event service
func NewService(repo Repository, groups GroupDirectory, names NameResolver) Service {
	return &service{repo: repo, groups: groups, names: names}
}

func (s *service) Create(ctx context.Context, callerID, callerEmail string, input CreateEventInput) (*Event, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "event title must not be empty")
	}
	if input.GroupID == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "event must belong to a group")
	}
	if input.MaxParticipants <= 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "maxParticipants must be greater than zero")
	}
	if input.Date.IsZero() {
		return nil, apperr.New(apperr.CodeInvalidArgument, "event date is required")
	}

	isAdmin, err := s.groups.IsAdmin(ctx, input.GroupID, callerID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, apperr.New(apperr.CodePermissionDenied, "only group admins may create events")
	}

	e := Event{
		ID:              uuid.New().String(),
		Title:           strings.TrimSpace(input.Title),
		Date:            input.Date,
		Location:        input.Location,
		Description:     input.Description,
		MaxParticipants: input.MaxParticipants,
		CreatorID:       callerID,
		CreatorEmail:    callerEmail,
		GroupID:         input.GroupID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to create event", err)
	}
	return &e, nil
}

func (s *service) ListVisible(ctx context.Context, callerID string) ([]Event, error) {
	groupIDs, err := s.groups.VisibleGroupIDs(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if len(groupIDs) == 0 {
		return []Event{}, nil
	}

	events, err := s.repo.ListByGroups(ctx, groupIDs)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load events", err)
	}
	if len(events) == 0 {
		return events, nil
	}

	seen := make(map[string]bool)
	var eventGroupIDs []string
	for _, e := range events {
		if !seen[e.GroupID] {
			seen[e.GroupID] = true
			eventGroupIDs = append(eventGroupIDs, e.GroupID)
		}
	}
	names, err := s.groups.GroupNames(ctx, eventGroupIDs)
	if err != nil {
		return nil, err
	}

	if err := s.attachSignupCounts(ctx, events); err != nil {
		return nil, err
	}
	for i := range events {
		events[i].GroupName = names[events[i].GroupID]
	}
	return events, nil
}

func (s *service) ListForGroup(ctx context.Context, groupID string) ([]Event, error) {
	events, err := s.repo.ListByGroups(ctx, []string{groupID})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load events", err)
	}
	if err := s.attachSignupCounts(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *service) ListCreated(ctx context.Context, callerID string) ([]Event, error) {
	events, err := s.repo.ListByCreator(ctx, callerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load events", err)
	}
	if err := s.attachSignupCounts(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *service) ListMySignups(ctx context.Context, callerID string) ([]Event, error) {
	signups, err := s.repo.ListSignupsByUser(ctx, callerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load signups", err)
	}

	events := make([]Event, 0, len(signups))
	for _, su := range signups {
		e, err := s.repo.Get(ctx, su.EventID)
		if errors.Is(err, ErrEventNotFound) {
			// Signup outlived its event (pre-cascade data); skip it.
			continue
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "failed to load event", err)
		}
		events = append(events, *e)
	}
	return events, nil
}

// SignUp re-reads the signup count before writing. The check and the write are
// deliberately separate store operations: concurrent signups near the boundary
// can both pass and overshoot maxParticipants slightly, which the product
// accepts in exchange for not serializing every signup.
func (s *service) SignUp(ctx context.Context, eventID, callerID, callerName, callerEmail string) (*SignupResult, error) {
	e, err := s.repo.Get(ctx, eventID)
	if errors.Is(err, ErrEventNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, "event not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load event", err)
	}

	count, err := s.repo.CountSignups(ctx, eventID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to count signups", err)
	}
	if e.MaxParticipants > 0 && count >= e.MaxParticipants {
		return nil, apperr.Wrap(apperr.CodeConflict, "sorry, this event is already full", ErrEventFull)
	}

	userName, err := s.names.DisplayName(ctx, callerID, callerName)
	if err != nil {
		return nil, err
	}

	su := Signup{
		EventID:    eventID,
		UserID:     callerID,
		UserName:   userName,
		UserEmail:  callerEmail,
		EventName:  e.Title,
		SignedUpAt: time.Now().UTC(),
	}
	if err := s.repo.PutSignup(ctx, su); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to sign up", err)
	}
	return &SignupResult{EventID: eventID, CurrentSignups: count + 1}, nil
}

func (s *service) RemoveSignup(ctx context.Context, eventID, userID string) error {
	deleted, err := s.repo.DeleteSignups(ctx, eventID, userID)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to remove signup", err)
	}
	if deleted == 0 {
		return apperr.Wrap(apperr.CodeNotFound, "signup not found", ErrSignupNotFound)
	}
	return nil
}

func (s *service) Roster(ctx context.Context, eventID, callerID string) ([]Signup, error) {
	e, err := s.repo.Get(ctx, eventID)
	if errors.Is(err, ErrEventNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, "event not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load event", err)
	}
	if err := s.requireEventManager(ctx, e, callerID); err != nil {
		return nil, err
	}

	signups, err := s.repo.ListSignups(ctx, eventID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load signups", err)
	}
	return signups, nil
}

func (s *service) Delete(ctx context.Context, eventID, callerID string) error {
	e, err := s.repo.Get(ctx, eventID)
	if errors.Is(err, ErrEventNotFound) {
		return apperr.New(apperr.CodeNotFound, "event not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to load event", err)
	}
	if err := s.requireEventManager(ctx, e, callerID); err != nil {
		return err
	}

	if err := s.repo.DeleteEventCascade(ctx, eventID); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to delete event", err)
	}
	return nil
}

func (s *service) requireEventManager(ctx context.Context, e *Event, callerID string) error {
	if e.CreatorID == callerID {
		return nil
	}
	isAdmin, err := s.groups.IsAdmin(ctx, e.GroupID, callerID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return apperr.New(apperr.CodePermissionDenied, "only the event creator or a group admin may do this")
	}
	return nil
}

func (s *service) attachSignupCounts(ctx context.Context, events []Event) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(countConcurrency)

	for i := range events {
		i := i
		eg.Go(func() error {
			count, err := s.repo.CountSignups(egCtx, events[i].ID)
			if err != nil {
				return err
			}
			events[i].CurrentSignups = count
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to count signups", err)
	}
	return nil
}
