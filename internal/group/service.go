package group

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Jandr07/VolunteerConnect/internal/apperr"
)

const searchLimit = 20

type service struct {
	repo  Repository
	names NameResolver
}

// NewService creates a new group service
func NewService(repo Repository, names NameResolver) Service {
	return &service{repo: repo, names: names}
}

func (s *service) Create(ctx context.Context, callerID, callerName string, input CreateGroupInput) (*Group, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "group name must not be empty")
	}
	if input.Privacy != PrivacyPublic && input.Privacy != PrivacyPrivate {
		return nil, apperr.New(apperr.CodeInvalidArgument, "privacy must be public or private")
	}

	taken, err := s.repo.GroupNameExists(ctx, name)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to check group name", err)
	}
	if taken {
		return nil, apperr.Wrap(apperr.CodeConflict, "a group with this name already exists", ErrNameTaken)
	}

	adminName, err := s.names.DisplayName(ctx, callerID, callerName)
	if err != nil {
		adminName = "Group Creator"
	}

	now := time.Now().UTC()
	g := Group{
		ID:          uuid.New().String(),
		Name:        name,
		Description: input.Description,
		Privacy:     input.Privacy,
		CreatorID:   callerID,
		CreatedAt:   now,
	}
	admin := Member{
		GroupID:  g.ID,
		UserID:   callerID,
		UserName: adminName,
		Role:     RoleAdmin,
		JoinedAt: now,
	}

	if err := s.repo.CreateGroupWithAdmin(ctx, g, admin); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to create group", err)
	}
	return &g, nil
}

func (s *service) Detail(ctx context.Context, groupID, callerID string) (*Detail, error) {
	var (
		g       *Group
		members []Member
	)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		got, err := s.repo.GetGroup(egCtx, groupID)
		if err != nil {
			return err
		}
		g = got
		return nil
	})

	eg.Go(func() error {
		got, err := s.repo.ListMembers(egCtx, groupID)
		if err != nil {
			return err
		}
		members = got
		return nil
	})

	if err := eg.Wait(); err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "group not found")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load group", err)
	}

	detail := &Detail{
		Group:   *g,
		Members: members,
		Status:  StatusNonMember,
		CanView: g.Privacy == PrivacyPublic,
	}

	if callerID != "" {
		if m := findMember(members, callerID); m != nil {
			detail.CanView = true
			detail.Status = StatusMember
			if m.Role == RoleAdmin {
				detail.Status = StatusAdmin
			}
		} else if _, err := s.repo.GetJoinRequest(ctx, groupID, callerID); err == nil {
			detail.Status = StatusPending
		} else if !errors.Is(err, ErrRequestNotFound) {
			return nil, apperr.Wrap(apperr.CodeInternal, "failed to load join request", err)
		}
	}

	if detail.Status == StatusAdmin {
		requests, err := s.repo.ListJoinRequests(ctx, groupID)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "failed to load join requests", err)
		}
		detail.Requests = requests
	}

	return detail, nil
}

func (s *service) Search(ctx context.Context, name string) ([]Group, error) {
	groups, err := s.repo.SearchGroupsByName(ctx, strings.TrimSpace(name), searchLimit)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to search groups", err)
	}
	return groups, nil
}

func (s *service) ListMine(ctx context.Context, userID string) ([]Group, error) {
	memberships, err := s.repo.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load memberships", err)
	}
	if len(memberships) == 0 {
		return []Group{}, nil
	}

	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.GroupID)
	}
	groups, err := s.repo.ListGroupsByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load groups", err)
	}
	return groups, nil
}

func (s *service) Join(ctx context.Context, groupID, callerID, callerName, callerEmail string) (*JoinResult, error) {
	g, err := s.repo.GetGroup(ctx, groupID)
	if errors.Is(err, ErrGroupNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, "group not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load group", err)
	}

	userName, err := s.names.DisplayName(ctx, callerID, callerName)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if g.Privacy == PrivacyPublic {
		// Re-joining overwrites the same keyed document harmlessly.
		m := Member{
			GroupID:   groupID,
			UserID:    callerID,
			UserName:  userName,
			UserEmail: callerEmail,
			Role:      RoleMember,
			JoinedAt:  now,
		}
		if err := s.repo.PutMember(ctx, m); err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "failed to join group", err)
		}
		return &JoinResult{Status: StatusMember}, nil
	}

	req := JoinRequest{
		GroupID:     groupID,
		UserID:      callerID,
		UserName:    userName,
		RequestedAt: now,
	}
	if err := s.repo.PutJoinRequest(ctx, req); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to request to join", err)
	}
	return &JoinResult{Status: StatusPending}, nil
}

func (s *service) Approve(ctx context.Context, groupID, callerID, targetUserID string) error {
	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return err
	}

	userName := ""
	req, err := s.repo.GetJoinRequest(ctx, groupID, targetUserID)
	switch {
	case err == nil:
		userName = req.UserName
	case errors.Is(err, ErrRequestNotFound):
		// A concurrent approval may already have consumed the request; the
		// membership write below is an idempotent overwrite either way.
		name, nameErr := s.names.DisplayName(ctx, targetUserID, "")
		if nameErr != nil {
			return nameErr
		}
		userName = name
	default:
		return apperr.Wrap(apperr.CodeInternal, "failed to load join request", err)
	}

	m := Member{
		GroupID:  groupID,
		UserID:   targetUserID,
		UserName: userName,
		Role:     RoleMember,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.repo.ApproveJoinRequest(ctx, m); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to approve join request", err)
	}
	return nil
}

func (s *service) Deny(ctx context.Context, groupID, callerID, targetUserID string) error {
	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return err
	}
	// Denying an already-consumed request is a silent no-op.
	if err := s.repo.DeleteJoinRequest(ctx, groupID, targetUserID); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to deny join request", err)
	}
	return nil
}

func (s *service) Promote(ctx context.Context, groupID, callerID, targetUserID string) error {
	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return err
	}
	err := s.repo.SetMemberRole(ctx, groupID, targetUserID, RoleAdmin)
	if errors.Is(err, ErrMemberNotFound) {
		return apperr.New(apperr.CodeNotFound, "member not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to promote member", err)
	}
	return nil
}

func (s *service) Kick(ctx context.Context, groupID, callerID, targetUserID string) error {
	if err := s.requireAdmin(ctx, groupID, callerID); err != nil {
		return err
	}
	if targetUserID == callerID {
		return apperr.New(apperr.CodeInvalidArgument, "you cannot kick yourself; leave the group instead")
	}
	if err := s.repo.DeleteMember(ctx, groupID, targetUserID); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to remove member", err)
	}
	return nil
}

// Leave runs the departure state machine: last member tears the group down,
// a departing admin hands off to another member in the same write set, and a
// plain member just removes their membership document.
func (s *service) Leave(ctx context.Context, groupID, callerID string) (*LeaveResult, error) {
	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load members", err)
	}

	caller := findMember(members, callerID)
	if caller == nil {
		return nil, apperr.New(apperr.CodeNotFound, "you are not a member of this group")
	}

	if len(members) == 1 {
		if _, err := s.DeleteOnLastLeave(ctx, groupID, callerID); err != nil {
			return nil, err
		}
		return &LeaveResult{GroupDeleted: true, Members: []Member{}}, nil
	}

	remaining := make([]Member, 0, len(members)-1)
	for _, m := range members {
		if m.UserID != callerID {
			remaining = append(remaining, m)
		}
	}

	if caller.Role == RoleAdmin {
		// Hand off to the first other member so the group keeps an admin
		// across the transition.
		newAdmin := remaining[0]
		if err := s.repo.LeaveAndPromote(ctx, groupID, callerID, newAdmin.UserID); err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "failed to leave group", err)
		}
		remaining[0].Role = RoleAdmin
		return &LeaveResult{Members: remaining}, nil
	}

	if err := s.repo.DeleteMember(ctx, groupID, callerID); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to leave group", err)
	}
	return &LeaveResult{Members: remaining}, nil
}

func (s *service) DeleteOnLastLeave(ctx context.Context, groupID, callerID string) (string, error) {
	if callerID == "" {
		return "", apperr.New(apperr.CodeUnauthenticated, "you must be logged in to perform this action")
	}
	if strings.TrimSpace(groupID) == "" {
		return "", apperr.New(apperr.CodeInvalidArgument, "a valid groupId must be provided")
	}

	err := s.repo.DeleteGroupCascade(ctx, groupID, callerID)
	if errors.Is(err, ErrNotSoleMember) {
		return "", apperr.New(apperr.CodePermissionDenied, "you are not the last member and cannot delete this group")
	}
	if err != nil {
		slog.ErrorContext(ctx, "group cascade delete failed", "groupId", groupID, "error", err)
		return "", apperr.Wrap(apperr.CodeInternal, "an unexpected error occurred while deleting the group", err)
	}
	return fmt.Sprintf("Successfully deleted group %s", groupID), nil
}

func (s *service) IsAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	m, err := s.repo.GetMember(ctx, groupID, userID)
	if errors.Is(err, ErrMemberNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Wrap(apperr.CodeInternal, "failed to load membership", err)
	}
	return m.Role == RoleAdmin, nil
}

func (s *service) VisibleGroupIDs(ctx context.Context, userID string) ([]string, error) {
	publicGroups, err := s.repo.ListPublicGroups(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load groups", err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, g := range publicGroups {
		if !seen[g.ID] {
			seen[g.ID] = true
			ids = append(ids, g.ID)
		}
	}

	if userID != "" {
		memberships, err := s.repo.ListMembershipsByUser(ctx, userID)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "failed to load memberships", err)
		}
		for _, m := range memberships {
			if !seen[m.GroupID] {
				seen[m.GroupID] = true
				ids = append(ids, m.GroupID)
			}
		}
	}

	return ids, nil
}

func (s *service) GroupNames(ctx context.Context, groupIDs []string) (map[string]string, error) {
	groups, err := s.repo.ListGroupsByIDs(ctx, groupIDs)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load groups", err)
	}
	names := make(map[string]string, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Name
	}
	return names, nil
}

func (s *service) requireAdmin(ctx context.Context, groupID, callerID string) error {
	isAdmin, err := s.IsAdmin(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return apperr.New(apperr.CodePermissionDenied, "only group admins may perform this action")
	}
	return nil
}

func findMember(members []Member, userID string) *Member {
	for i := range members {
		if members[i].UserID == userID {
			return &members[i]
		}
	}
	return nil
}
