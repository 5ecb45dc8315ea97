package group

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// EventPurger removes every event and signup belonging to a group. The event
// package's memory repository implements it so the in-memory cascade reaches
// the same documents the Firestore transaction does.
type EventPurger interface {
	PurgeGroupEvents(ctx context.Context, groupID string) error
}

type memoryRepository struct {
	mu       sync.RWMutex
	groups   map[string]Group       // groupID -> Group
	members  map[string]Member      // MemberDocID -> Member
	requests map[string]JoinRequest // MemberDocID -> JoinRequest
	events   EventPurger
}

// NewMemoryRepository returns an in-memory repository intended for local
// development and tests. events may be nil when cascade coverage of events
// is not needed.
func NewMemoryRepository(events EventPurger) Repository {
	return &memoryRepository{
		groups:   make(map[string]Group),
		members:  make(map[string]Member),
		requests: make(map[string]JoinRequest),
		events:   events,
	}
}

func (r *memoryRepository) CreateGroupWithAdmin(_ context.Context, g Group, admin Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.groups[g.ID] = g
	r.members[MemberDocID(g.ID, admin.UserID)] = admin
	return nil
}

func (r *memoryRepository) GetGroup(_ context.Context, groupID string) (*Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return &g, nil
}

func (r *memoryRepository) GroupNameExists(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range r.groups {
		if g.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepository) SearchGroupsByName(_ context.Context, prefix string, limit int) ([]Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]Group, 0)
	for _, g := range r.groups {
		if strings.HasPrefix(g.Name, prefix) {
			matches = append(matches, g)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *memoryRepository) ListPublicGroups(_ context.Context) ([]Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make([]Group, 0)
	for _, g := range r.groups {
		if g.Privacy == PrivacyPublic {
			groups = append(groups, g)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func (r *memoryRepository) ListGroupsByIDs(_ context.Context, groupIDs []string) ([]Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make([]Group, 0, len(groupIDs))
	for _, id := range groupIDs {
		if g, ok := r.groups[id]; ok {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

func (r *memoryRepository) GetMember(_ context.Context, groupID, userID string) (*Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[MemberDocID(groupID, userID)]
	if !ok {
		return nil, ErrMemberNotFound
	}
	return &m, nil
}

func (r *memoryRepository) ListMembers(_ context.Context, groupID string) ([]Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]Member, 0)
	for _, m := range r.members {
		if m.GroupID == groupID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].UserID < members[j].UserID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

func (r *memoryRepository) ListMembershipsByUser(_ context.Context, userID string) ([]Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]Member, 0)
	for _, m := range r.members {
		if m.UserID == userID {
			members = append(members, m)
		}
	}
	return members, nil
}

func (r *memoryRepository) PutMember(_ context.Context, m Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.members[MemberDocID(m.GroupID, m.UserID)] = m
	return nil
}

func (r *memoryRepository) SetMemberRole(_ context.Context, groupID, userID string, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := MemberDocID(groupID, userID)
	m, ok := r.members[key]
	if !ok {
		return ErrMemberNotFound
	}
	m.Role = role
	r.members[key] = m
	return nil
}

func (r *memoryRepository) DeleteMember(_ context.Context, groupID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.members, MemberDocID(groupID, userID))
	return nil
}

func (r *memoryRepository) GetJoinRequest(_ context.Context, groupID, userID string) (*JoinRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[MemberDocID(groupID, userID)]
	if !ok {
		return nil, ErrRequestNotFound
	}
	return &req, nil
}

func (r *memoryRepository) ListJoinRequests(_ context.Context, groupID string) ([]JoinRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requests := make([]JoinRequest, 0)
	for _, req := range r.requests {
		if req.GroupID == groupID {
			requests = append(requests, req)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].UserID < requests[j].UserID })
	return requests, nil
}

func (r *memoryRepository) PutJoinRequest(_ context.Context, req JoinRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests[MemberDocID(req.GroupID, req.UserID)] = req
	return nil
}

func (r *memoryRepository) DeleteJoinRequest(_ context.Context, groupID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.requests, MemberDocID(groupID, userID))
	return nil
}

func (r *memoryRepository) ApproveJoinRequest(_ context.Context, m Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := MemberDocID(m.GroupID, m.UserID)
	r.members[key] = m
	delete(r.requests, key)
	return nil
}

func (r *memoryRepository) LeaveAndPromote(_ context.Context, groupID, leavingUserID, newAdminUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	adminKey := MemberDocID(groupID, newAdminUserID)
	newAdmin, ok := r.members[adminKey]
	if !ok {
		return ErrMemberNotFound
	}

	delete(r.members, MemberDocID(groupID, leavingUserID))
	newAdmin.Role = RoleAdmin
	r.members[adminKey] = newAdmin
	return nil
}

func (r *memoryRepository) DeleteGroupCascade(ctx context.Context, groupID, callerID string) error {
	r.mu.Lock()

	var memberKeys []string
	for key, m := range r.members {
		if m.GroupID == groupID {
			memberKeys = append(memberKeys, key)
		}
	}
	if len(memberKeys) != 1 || r.members[memberKeys[0]].UserID != callerID {
		r.mu.Unlock()
		return ErrNotSoleMember
	}

	delete(r.groups, groupID)
	delete(r.members, memberKeys[0])
	for key, req := range r.requests {
		if req.GroupID == groupID {
			delete(r.requests, key)
		}
	}
	r.mu.Unlock()

	if r.events != nil {
		return r.events.PurgeGroupEvents(ctx, groupID)
	}
	return nil
}
