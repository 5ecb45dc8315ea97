package event

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Jandr07/VolunteerConnect/internal/apperr"
)

type fakeDirectory struct {
	admins  map[string]bool // MemberDocID-style "groupID_userID"
	visible []string
	names   map[string]string
}

func (f fakeDirectory) IsAdmin(_ context.Context, groupID, userID string) (bool, error) {
	return f.admins[groupID+"_"+userID], nil
}

func (f fakeDirectory) VisibleGroupIDs(_ context.Context, _ string) ([]string, error) {
	return f.visible, nil
}

func (f fakeDirectory) GroupNames(_ context.Context, groupIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(groupIDs))
	for _, id := range groupIDs {
		if n, ok := f.names[id]; ok {
			names[id] = n
		}
	}
	return names, nil
}

type fakeNames struct{}

func (fakeNames) DisplayName(_ context.Context, userID, tokenName string) (string, error) {
	if tokenName != "" {
		return tokenName, nil
	}
	return userID, nil
}

func newTestService(dir fakeDirectory) (Service, *MemoryRepository) {
	repo := NewMemoryRepository()
	return NewService(repo, dir, fakeNames{}), repo
}

func adminDirectory(groupID, userID string) fakeDirectory {
	return fakeDirectory{
		admins:  map[string]bool{groupID + "_" + userID: true},
		visible: []string{groupID},
		names:   map[string]string{groupID: "Test Group"},
	}
}

func validInput(groupID string) CreateEventInput {
	return CreateEventInput{
		Title:           "Beach Cleanup",
		Date:            time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC),
		Location:        "North Pier",
		MaxParticipants: 2,
		GroupID:         groupID,
	}
}

func TestCreate_RequiresGroupAdmin(t *testing.T) {
	svc, _ := newTestService(adminDirectory("g1", "alice"))

	if _, err := svc.Create(context.Background(), "bob", "bob@example.com", validInput("g1")); apperr.CodeOf(err) != apperr.CodePermissionDenied {
		t.Fatalf("expected permission_denied for non-admin, got %v", err)
	}

	e, err := svc.Create(context.Background(), "alice", "alice@example.com", validInput("g1"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if e.ID == "" || e.CreatorID != "alice" {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestCreate_ValidatesInput(t *testing.T) {
	svc, _ := newTestService(adminDirectory("g1", "alice"))

	invalid := validInput("g1")
	invalid.MaxParticipants = 0
	if _, err := svc.Create(context.Background(), "alice", "", invalid); apperr.CodeOf(err) != apperr.CodeInvalidArgument {
		t.Fatalf("expected invalid_argument for zero capacity, got %v", err)
	}

	invalid = validInput("g1")
	invalid.Title = "   "
	if _, err := svc.Create(context.Background(), "alice", "", invalid); apperr.CodeOf(err) != apperr.CodeInvalidArgument {
		t.Fatalf("expected invalid_argument for blank title, got %v", err)
	}
}

func TestSignUp_SequentialCapacity(t *testing.T) {
	svc, repo := newTestService(adminDirectory("g1", "alice"))
	e, err := svc.Create(context.Background(), "alice", "", validInput("g1"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	for i := 1; i <= 2; i++ {
		result, err := svc.SignUp(context.Background(), e.ID, fmt.Sprintf("user-%d", i), "", "")
		if err != nil {
			t.Fatalf("signup %d returned error: %v", i, err)
		}
		if result.CurrentSignups != i {
			t.Fatalf("expected count %d after signup, got %d", i, result.CurrentSignups)
		}
	}

	_, err = svc.SignUp(context.Background(), e.ID, "user-3", "", "")
	if apperr.CodeOf(err) != apperr.CodeConflict {
		t.Fatalf("expected conflict when full, got %v", err)
	}
	if !errors.Is(err, ErrEventFull) {
		t.Fatalf("expected ErrEventFull in chain, got %v", err)
	}

	count, err := repo.CountSignups(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("CountSignups returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("rejected signup must not write, count is %d", count)
	}
}

func TestSignUp_KeyedDocumentIsIdempotent(t *testing.T) {
	svc, repo := newTestService(adminDirectory("g1", "alice"))
	input := validInput("g1")
	input.MaxParticipants = 10
	e, err := svc.Create(context.Background(), "alice", "", input)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.SignUp(context.Background(), e.ID, "bob", "Bob", "bob@example.com"); err != nil {
		t.Fatalf("first signup returned error: %v", err)
	}
	if _, err := svc.SignUp(context.Background(), e.ID, "bob", "Bob", "bob@example.com"); err != nil {
		t.Fatalf("repeat signup returned error: %v", err)
	}

	count, err := repo.CountSignups(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("CountSignups returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("same user must never hold two signups, count is %d", count)
	}
}

func TestSignUp_UnknownEvent(t *testing.T) {
	svc, _ := newTestService(fakeDirectory{})

	_, err := svc.SignUp(context.Background(), "missing", "bob", "", "")
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestRemoveSignup(t *testing.T) {
	svc, repo := newTestService(adminDirectory("g1", "alice"))
	e, err := svc.Create(context.Background(), "alice", "", validInput("g1"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.RemoveSignup(context.Background(), e.ID, "bob"); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expected not_found without a signup, got %v", err)
	}

	if _, err := svc.SignUp(context.Background(), e.ID, "bob", "", ""); err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if err := svc.RemoveSignup(context.Background(), e.ID, "bob"); err != nil {
		t.Fatalf("RemoveSignup returned error: %v", err)
	}

	count, err := repo.CountSignups(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("CountSignups returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty roster after removal, count is %d", count)
	}
}

func TestListVisible_AttachesNamesAndCounts(t *testing.T) {
	dir := fakeDirectory{
		admins:  map[string]bool{"g1_alice": true, "g2_alice": true},
		visible: []string{"g1", "g2"},
		names:   map[string]string{"g1": "Gardeners", "g2": "Readers"},
	}
	svc, _ := newTestService(dir)

	input := validInput("g1")
	input.MaxParticipants = 5
	e1, err := svc.Create(context.Background(), "alice", "", input)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	input = validInput("g2")
	input.Title = "Book Swap"
	input.Date = input.Date.Add(24 * time.Hour)
	if _, err := svc.Create(context.Background(), "alice", "", input); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.SignUp(context.Background(), e1.ID, "bob", "", ""); err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}

	events, err := svc.ListVisible(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListVisible returned error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected two events, got %d", len(events))
	}
	byID := make(map[string]Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	if got := byID[e1.ID]; got.GroupName != "Gardeners" || got.CurrentSignups != 1 {
		t.Fatalf("expected name and count attached, got %+v", got)
	}
}

func TestRoster_CreatorOrAdminOnly(t *testing.T) {
	svc, _ := newTestService(adminDirectory("g1", "alice"))
	e, err := svc.Create(context.Background(), "alice", "", validInput("g1"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.SignUp(context.Background(), e.ID, "bob", "Bob", ""); err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}

	if _, err := svc.Roster(context.Background(), e.ID, "bob"); apperr.CodeOf(err) != apperr.CodePermissionDenied {
		t.Fatalf("expected permission_denied for attendee, got %v", err)
	}

	roster, err := svc.Roster(context.Background(), e.ID, "alice")
	if err != nil {
		t.Fatalf("Roster returned error: %v", err)
	}
	if len(roster) != 1 || roster[0].UserID != "bob" {
		t.Fatalf("unexpected roster: %+v", roster)
	}
}

func TestDelete_CascadesSignups(t *testing.T) {
	svc, repo := newTestService(adminDirectory("g1", "alice"))
	e, err := svc.Create(context.Background(), "alice", "", validInput("g1"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.SignUp(context.Background(), e.ID, "bob", "", ""); err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}

	if err := svc.Delete(context.Background(), e.ID, "bob"); apperr.CodeOf(err) != apperr.CodePermissionDenied {
		t.Fatalf("expected permission_denied for attendee, got %v", err)
	}
	if err := svc.Delete(context.Background(), e.ID, "alice"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if _, err := repo.Get(context.Background(), e.ID); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected event gone, got %v", err)
	}
	signups, err := repo.ListSignups(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("ListSignups returned error: %v", err)
	}
	if len(signups) != 0 {
		t.Fatalf("expected signups removed with the event, %d remain", len(signups))
	}
}

func TestListMySignups_SkipsOrphanedSignups(t *testing.T) {
	svc, repo := newTestService(adminDirectory("g1", "alice"))
	e, err := svc.Create(context.Background(), "alice", "", validInput("g1"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.SignUp(context.Background(), e.ID, "bob", "", ""); err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	// An orphan from before cascade deletes existed.
	if err := repo.PutSignup(context.Background(), Signup{EventID: "ghost", UserID: "bob"}); err != nil {
		t.Fatalf("PutSignup returned error: %v", err)
	}

	events, err := svc.ListMySignups(context.Background(), "bob")
	if err != nil {
		t.Fatalf("ListMySignups returned error: %v", err)
	}
	if len(events) != 1 || events[0].ID != e.ID {
		t.Fatalf("expected only the live event, got %+v", events)
	}
}
