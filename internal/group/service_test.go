package group

import (
	"context"
	"fmt"
	"testing"

	"github.com/Jandr07/VolunteerConnect/internal/apperr"
	"github.com/Jandr07/VolunteerConnect/internal/event"
)

type fakeNames struct {
	names map[string]string
}

func (f fakeNames) DisplayName(_ context.Context, userID, tokenName string) (string, error) {
	if n, ok := f.names[userID]; ok {
		return n, nil
	}
	if tokenName != "" {
		return tokenName, nil
	}
	return "A New User", nil
}

func newTestService(names map[string]string) (Service, Repository, *event.MemoryRepository) {
	eventRepo := event.NewMemoryRepository()
	repo := NewMemoryRepository(eventRepo)
	return NewService(repo, fakeNames{names: names}), repo, eventRepo
}

func mustCreateGroup(t *testing.T, svc Service, creatorID, name string, privacy Privacy) *Group {
	t.Helper()
	g, err := svc.Create(context.Background(), creatorID, "", CreateGroupInput{
		Name:    name,
		Privacy: privacy,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	return g
}

func TestCreate_RejectsDuplicateName(t *testing.T) {
	svc, _, _ := newTestService(nil)
	mustCreateGroup(t, svc, "alice", "Garden Club", PrivacyPublic)

	_, err := svc.Create(context.Background(), "bob", "", CreateGroupInput{
		Name:    "Garden Club",
		Privacy: PrivacyPublic,
	})
	if apperr.CodeOf(err) != apperr.CodeConflict {
		t.Fatalf("expected conflict for duplicate name, got %v", err)
	}
}

func TestCreate_CreatorBecomesAdmin(t *testing.T) {
	svc, repo, _ := newTestService(map[string]string{"alice": "Alice A"})
	g := mustCreateGroup(t, svc, "alice", "Garden Club", PrivacyPrivate)

	m, err := repo.GetMember(context.Background(), g.ID, "alice")
	if err != nil {
		t.Fatalf("GetMember returned error: %v", err)
	}
	if m.Role != RoleAdmin {
		t.Fatalf("expected creator to be admin, got %s", m.Role)
	}
	if m.UserName != "Alice A" {
		t.Fatalf("expected resolved display name, got %q", m.UserName)
	}
}

func TestJoin_PublicIsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService(nil)
	g := mustCreateGroup(t, svc, "alice", "Garden Club", PrivacyPublic)

	for i := 0; i < 2; i++ {
		result, err := svc.Join(context.Background(), g.ID, "bob", "Bob", "bob@example.com")
		if err != nil {
			t.Fatalf("Join attempt %d returned error: %v", i+1, err)
		}
		if result.Status != StatusMember {
			t.Fatalf("expected member status, got %s", result.Status)
		}
	}

	members, err := repo.ListMembers(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("ListMembers returned error: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected admin plus one joiner, got %d members", len(members))
	}
}

func TestJoin_PrivateCreatesPendingRequest(t *testing.T) {
	svc, repo, _ := newTestService(nil)
	g := mustCreateGroup(t, svc, "alice", "Book Club", PrivacyPrivate)

	result, err := svc.Join(context.Background(), g.ID, "bob", "Bob", "")
	if err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	if result.Status != StatusPending {
		t.Fatalf("expected pending status, got %s", result.Status)
	}

	if _, err := repo.GetMember(context.Background(), g.ID, "bob"); err != ErrMemberNotFound {
		t.Fatalf("expected no membership yet, got %v", err)
	}
	if _, err := repo.GetJoinRequest(context.Background(), g.ID, "bob"); err != nil {
		t.Fatalf("expected join request to exist, got %v", err)
	}
}

func TestApprove_CreatesMemberAndConsumesRequest(t *testing.T) {
	svc, repo, _ := newTestService(nil)
	g := mustCreateGroup(t, svc, "alice", "Book Club", PrivacyPrivate)

	if _, err := svc.Join(context.Background(), g.ID, "bob", "Bob", ""); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	if err := svc.Approve(context.Background(), g.ID, "alice", "bob"); err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}

	m, err := repo.GetMember(context.Background(), g.ID, "bob")
	if err != nil {
		t.Fatalf("expected membership after approval, got %v", err)
	}
	if m.Role != RoleMember {
		t.Fatalf("expected member role, got %s", m.Role)
	}
	if _, err := repo.GetJoinRequest(context.Background(), g.ID, "bob"); err != ErrRequestNotFound {
		t.Fatalf("expected request to be consumed, got %v", err)
	}

	// A second admin denying the (already consumed) request is a silent no-op
	// and must not disturb the membership.
	if err := svc.Promote(context.Background(), g.ID, "alice", "bob"); err != nil {
		t.Fatalf("Promote returned error: %v", err)
	}
	if err := svc.Deny(context.Background(), g.ID, "bob", "bob"); err != nil {
		t.Fatalf("Deny after approval returned error: %v", err)
	}
	if _, err := repo.GetMember(context.Background(), g.ID, "bob"); err != nil {
		t.Fatalf("membership lost after deny no-op: %v", err)
	}
}

func TestApprove_RequiresAdmin(t *testing.T) {
	svc, _, _ := newTestService(nil)
	g := mustCreateGroup(t, svc, "alice", "Book Club", PrivacyPrivate)

	if _, err := svc.Join(context.Background(), g.ID, "bob", "Bob", ""); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	err := svc.Approve(context.Background(), g.ID, "mallory", "bob")
	if apperr.CodeOf(err) != apperr.CodePermissionDenied {
		t.Fatalf("expected permission_denied, got %v", err)
	}
}

func TestPromote_UnknownMemberNotFound(t *testing.T) {
	svc, _, _ := newTestService(nil)
	g := mustCreateGroup(t, svc, "alice", "Book Club", PrivacyPublic)

	err := svc.Promote(context.Background(), g.ID, "alice", "nobody")
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestKick_SelfRejected(t *testing.T) {
	svc, _, _ := newTestService(nil)
	g := mustCreateGroup(t, svc, "alice", "Book Club", PrivacyPublic)

	err := svc.Kick(context.Background(), g.ID, "alice", "alice")
	if apperr.CodeOf(err) != apperr.CodeInvalidArgument {
		t.Fatalf("expected invalid_argument, got %v", err)
	}
}

func TestJoinThenKick_LeavesNoResidue(t *testing.T) {
	svc, repo, _ := newTestService(nil)
	g := mustCreateGroup(t, svc, "alice", "Garden Club", PrivacyPublic)

	if _, err := svc.Join(context.Background(), g.ID, "bob", "Bob", ""); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	if err := svc.Kick(context.Background(), g.ID, "alice", "bob"); err != nil {
		t.Fatalf("Kick returned error: %v", err)
	}

	if _, err := repo.GetMember(context.Background(), g.ID, "bob"); err != ErrMemberNotFound {
		t.Fatalf("expected membership gone, got %v", err)
	}
	requests, err := repo.ListJoinRequests(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("ListJoinRequests returned error: %v", err)
	}
	if len(requests) != 0 {
		t.Fatalf("expected no stray join requests, got %d", len(requests))
	}
}

func TestLeave_AdminHandsOffBeforeLeaving(t *testing.T) {
	svc, repo, _ := newTestService(nil)
	g := mustCreateGroup(t, svc, "alice", "Garden Club", PrivacyPublic)

	if _, err := svc.Join(context.Background(), g.ID, "bob", "Bob", ""); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}

	result, err := svc.Leave(context.Background(), g.ID, "alice")
	if err != nil {
		t.Fatalf("Leave returned error: %v", err)
	}
	if result.GroupDeleted {
		t.Fatalf("group must survive while members remain")
	}
	if len(result.Members) != 1 || result.Members[0].UserID != "bob" || result.Members[0].Role != RoleAdmin {
		t.Fatalf("expected bob promoted to admin, got %+v", result.Members)
	}

	m, err := repo.GetMember(context.Background(), g.ID, "bob")
	if err != nil {
		t.Fatalf("GetMember returned error: %v", err)
	}
	if m.Role != RoleAdmin {
		t.Fatalf("promotion not persisted, role is %s", m.Role)
	}

	admins := 0
	members, _ := repo.ListMembers(context.Background(), g.ID)
	for _, m := range members {
		if m.Role == RoleAdmin {
			admins++
		}
	}
	if admins != 1 {
		t.Fatalf("expected exactly one admin after handoff, got %d", admins)
	}
}

func TestLeave_TwoMemberChainEndsInDeletion(t *testing.T) {
	svc, repo, _ := newTestService(nil)
	g := mustCreateGroup(t, svc, "alice", "Garden Club", PrivacyPublic)

	if _, err := svc.Join(context.Background(), g.ID, "bob", "Bob", ""); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}

	first, err := svc.Leave(context.Background(), g.ID, "alice")
	if err != nil {
		t.Fatalf("first Leave returned error: %v", err)
	}
	if first.GroupDeleted {
		t.Fatalf("group deleted while a member remained")
	}

	second, err := svc.Leave(context.Background(), g.ID, "bob")
	if err != nil {
		t.Fatalf("second Leave returned error: %v", err)
	}
	if !second.GroupDeleted {
		t.Fatalf("expected last departure to delete the group")
	}
	if _, err := repo.GetGroup(context.Background(), g.ID); err != ErrGroupNotFound {
		t.Fatalf("expected group gone, got %v", err)
	}
}

func TestLeave_NonMemberNotFound(t *testing.T) {
	svc, _, _ := newTestService(nil)
	g := mustCreateGroup(t, svc, "alice", "Garden Club", PrivacyPublic)

	_, err := svc.Leave(context.Background(), g.ID, "stranger")
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestLeave_LastMemberDeletesGroupAndEvents(t *testing.T) {
	svc, repo, eventRepo := newTestService(nil)
	g := mustCreateGroup(t, svc, "alice", "Garden Club", PrivacyPublic)

	e := event.Event{ID: "evt-1", Title: "Cleanup Day", GroupID: g.ID, MaxParticipants: 10, CreatorID: "alice"}
	if err := eventRepo.Create(context.Background(), e); err != nil {
		t.Fatalf("event create returned error: %v", err)
	}
	if err := eventRepo.PutSignup(context.Background(), event.Signup{EventID: e.ID, UserID: "alice"}); err != nil {
		t.Fatalf("signup returned error: %v", err)
	}

	result, err := svc.Leave(context.Background(), g.ID, "alice")
	if err != nil {
		t.Fatalf("Leave returned error: %v", err)
	}
	if !result.GroupDeleted || len(result.Members) != 0 {
		t.Fatalf("expected group deleted with no members, got %+v", result)
	}

	if _, err := repo.GetGroup(context.Background(), g.ID); err != ErrGroupNotFound {
		t.Fatalf("expected group gone, got %v", err)
	}
	events, err := eventRepo.ListByGroups(context.Background(), []string{g.ID})
	if err != nil {
		t.Fatalf("ListByGroups returned error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected group events purged, %d remain", len(events))
	}
	signups, err := eventRepo.ListSignups(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("ListSignups returned error: %v", err)
	}
	if len(signups) != 0 {
		t.Fatalf("expected signups purged, %d remain", len(signups))
	}
}

func TestDeleteOnLastLeave_RejectsNonSoleMember(t *testing.T) {
	svc, repo, _ := newTestService(nil)
	g := mustCreateGroup(t, svc, "alice", "Garden Club", PrivacyPublic)

	if _, err := svc.Join(context.Background(), g.ID, "bob", "Bob", ""); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}

	_, err := svc.DeleteOnLastLeave(context.Background(), g.ID, "alice")
	if apperr.CodeOf(err) != apperr.CodePermissionDenied {
		t.Fatalf("expected permission_denied, got %v", err)
	}
	// The precondition failure must leave everything intact.
	if _, err := repo.GetGroup(context.Background(), g.ID); err != nil {
		t.Fatalf("group should survive a rejected cascade: %v", err)
	}
	members, _ := repo.ListMembers(context.Background(), g.ID)
	if len(members) != 2 {
		t.Fatalf("memberships should survive a rejected cascade, got %d", len(members))
	}
}

func TestDeleteOnLastLeave_Validation(t *testing.T) {
	svc, _, _ := newTestService(nil)

	if _, err := svc.DeleteOnLastLeave(context.Background(), "g1", ""); apperr.CodeOf(err) != apperr.CodeUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if _, err := svc.DeleteOnLastLeave(context.Background(), "  ", "alice"); apperr.CodeOf(err) != apperr.CodeInvalidArgument {
		t.Fatalf("expected invalid_argument, got %v", err)
	}
}

func TestDeleteOnLastLeave_SuccessMessage(t *testing.T) {
	svc, _, _ := newTestService(nil)
	g := mustCreateGroup(t, svc, "alice", "Garden Club", PrivacyPublic)

	message, err := svc.DeleteOnLastLeave(context.Background(), g.ID, "alice")
	if err != nil {
		t.Fatalf("DeleteOnLastLeave returned error: %v", err)
	}
	want := fmt.Sprintf("Successfully deleted group %s", g.ID)
	if message != want {
		t.Fatalf("expected %q, got %q", want, message)
	}
}

func TestVisibleGroupIDs_PublicPlusMemberships(t *testing.T) {
	svc, _, _ := newTestService(nil)
	public := mustCreateGroup(t, svc, "alice", "Public Club", PrivacyPublic)
	private := mustCreateGroup(t, svc, "bob", "Private Club", PrivacyPrivate)
	mustCreateGroup(t, svc, "carol", "Hidden Club", PrivacyPrivate)

	ids, err := svc.VisibleGroupIDs(context.Background(), "bob")
	if err != nil {
		t.Fatalf("VisibleGroupIDs returned error: %v", err)
	}

	got := make(map[string]bool, len(ids))
	for _, id := range ids {
		got[id] = true
	}
	if !got[public.ID] || !got[private.ID] {
		t.Fatalf("expected public group and bob's private group, got %v", ids)
	}
	if len(ids) != 2 {
		t.Fatalf("expected exactly two visible groups, got %v", ids)
	}
}

func TestDetail_StatusAndRequestsVisibility(t *testing.T) {
	svc, _, _ := newTestService(nil)
	g := mustCreateGroup(t, svc, "alice", "Book Club", PrivacyPrivate)

	if _, err := svc.Join(context.Background(), g.ID, "bob", "Bob", ""); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}

	adminView, err := svc.Detail(context.Background(), g.ID, "alice")
	if err != nil {
		t.Fatalf("Detail returned error: %v", err)
	}
	if adminView.Status != StatusAdmin || !adminView.CanView {
		t.Fatalf("unexpected admin view: %+v", adminView)
	}
	if len(adminView.Requests) != 1 || adminView.Requests[0].UserID != "bob" {
		t.Fatalf("expected pending request visible to admin, got %+v", adminView.Requests)
	}

	pendingView, err := svc.Detail(context.Background(), g.ID, "bob")
	if err != nil {
		t.Fatalf("Detail returned error: %v", err)
	}
	if pendingView.Status != StatusPending || pendingView.CanView {
		t.Fatalf("unexpected pending view: %+v", pendingView)
	}
	if len(pendingView.Requests) != 0 {
		t.Fatalf("requests must be hidden from non-admins")
	}
}
