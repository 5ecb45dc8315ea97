package group

import (
	"context"
	"time"
)

// Privacy controls who may join a group directly.
type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyPrivate Privacy = "private"
)

// Role is a member's role within a group. A group always has at least one
// admin for as long as it exists.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// MembershipStatus describes the relationship between a caller and a group.
type MembershipStatus string

const (
	StatusAdmin     MembershipStatus = "admin"
	StatusMember    MembershipStatus = "member"
	StatusPending   MembershipStatus = "pending"
	StatusNonMember MembershipStatus = "non-member"
)

// Group represents the persisted group document. Names are globally unique.
type Group struct {
	ID          string    `json:"id" firestore:"-"`
	Name        string    `json:"name" firestore:"name"`
	Description string    `json:"description" firestore:"description"`
	Privacy     Privacy   `json:"privacy" firestore:"privacy"`
	CreatorID   string    `json:"creatorId" firestore:"creatorId"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
}

// Member is a membership document, keyed by MemberDocID(groupID, userID).
type Member struct {
	GroupID   string    `json:"groupId" firestore:"groupId"`
	UserID    string    `json:"userId" firestore:"userId"`
	UserName  string    `json:"userName" firestore:"userName"`
	UserEmail string    `json:"userEmail,omitempty" firestore:"userEmail,omitempty"`
	Role      Role      `json:"role" firestore:"role"`
	JoinedAt  time.Time `json:"joinedAt" firestore:"joinedAt"`
}

// JoinRequest is a pending ask to join a private group, keyed like Member.
type JoinRequest struct {
	GroupID     string    `json:"groupId" firestore:"groupId"`
	UserID      string    `json:"userId" firestore:"userId"`
	UserName    string    `json:"userName" firestore:"userName"`
	RequestedAt time.Time `json:"requestedAt" firestore:"requestedAt"`
}

// MemberDocID returns the composite document key shared by memberships and
// join requests. The scheme is external contract; other tooling relies on it.
func MemberDocID(groupID, userID string) string {
	return groupID + "_" + userID
}

// Detail is the authoritative view of a group returned to one caller: the
// group, its members, the caller's standing, and (for admins) pending requests.
type Detail struct {
	Group    Group            `json:"group"`
	Members  []Member         `json:"members"`
	Status   MembershipStatus `json:"status"`
	CanView  bool             `json:"canViewContent"`
	Requests []JoinRequest    `json:"requests,omitempty"`
}

// JoinResult reports the outcome of a join attempt.
type JoinResult struct {
	Status MembershipStatus `json:"status"` // member (public) or pending (private)
}

// LeaveResult reports the state of the group after a departure. When the
// caller was the last member the group no longer exists and Members is empty.
type LeaveResult struct {
	GroupDeleted bool     `json:"groupDeleted"`
	Members      []Member `json:"members"`
}

// CreateGroupInput carries the fields accepted when creating a group.
type CreateGroupInput struct {
	Name        string
	Description string
	Privacy     Privacy
}

// NameResolver resolves a user's display name; implemented by the user service.
type NameResolver interface {
	DisplayName(ctx context.Context, userID, tokenName string) (string, error)
}

// Repository defines the interface for group, membership, and join-request
// data access. Multi-document methods are atomic: either every write in the
// method applies or none do.
type Repository interface {
	CreateGroupWithAdmin(ctx context.Context, g Group, admin Member) error
	GetGroup(ctx context.Context, groupID string) (*Group, error)
	GroupNameExists(ctx context.Context, name string) (bool, error)
	SearchGroupsByName(ctx context.Context, prefix string, limit int) ([]Group, error)
	ListPublicGroups(ctx context.Context) ([]Group, error)
	ListGroupsByIDs(ctx context.Context, groupIDs []string) ([]Group, error)

	GetMember(ctx context.Context, groupID, userID string) (*Member, error)
	ListMembers(ctx context.Context, groupID string) ([]Member, error)
	ListMembershipsByUser(ctx context.Context, userID string) ([]Member, error)
	PutMember(ctx context.Context, m Member) error
	SetMemberRole(ctx context.Context, groupID, userID string, role Role) error
	DeleteMember(ctx context.Context, groupID, userID string) error

	GetJoinRequest(ctx context.Context, groupID, userID string) (*JoinRequest, error)
	ListJoinRequests(ctx context.Context, groupID string) ([]JoinRequest, error)
	PutJoinRequest(ctx context.Context, req JoinRequest) error
	DeleteJoinRequest(ctx context.Context, groupID, userID string) error

	// ApproveJoinRequest atomically creates the membership and deletes the
	// corresponding join request. Deleting an absent request is a no-op, so
	// two concurrent approvals both succeed with a single resulting member.
	ApproveJoinRequest(ctx context.Context, m Member) error
	// LeaveAndPromote atomically deletes the departing admin's membership and
	// promotes the named member to admin.
	LeaveAndPromote(ctx context.Context, groupID, leavingUserID, newAdminUserID string) error
	// DeleteGroupCascade deletes the group, its sole membership, all join
	// requests, and every event and signup under the group, in one atomic
	// write set. Returns ErrNotSoleMember unless the group has exactly one
	// member and it is callerID. The precondition is re-checked inside the
	// transaction; it is never trusted from the client.
	DeleteGroupCascade(ctx context.Context, groupID, callerID string) error
}

// Service defines the group service interface.
type Service interface {
	Create(ctx context.Context, callerID, callerName string, input CreateGroupInput) (*Group, error)
	Detail(ctx context.Context, groupID, callerID string) (*Detail, error)
	Search(ctx context.Context, name string) ([]Group, error)
	ListMine(ctx context.Context, userID string) ([]Group, error)

	Join(ctx context.Context, groupID, callerID, callerName, callerEmail string) (*JoinResult, error)
	Approve(ctx context.Context, groupID, callerID, targetUserID string) error
	Deny(ctx context.Context, groupID, callerID, targetUserID string) error
	Promote(ctx context.Context, groupID, callerID, targetUserID string) error
	Kick(ctx context.Context, groupID, callerID, targetUserID string) error
	Leave(ctx context.Context, groupID, callerID string) (*LeaveResult, error)
	DeleteOnLastLeave(ctx context.Context, groupID, callerID string) (string, error)

	// Lookups consumed by the event service.
	IsAdmin(ctx context.Context, groupID, userID string) (bool, error)
	VisibleGroupIDs(ctx context.Context, userID string) ([]string, error)
	GroupNames(ctx context.Context, groupIDs []string) (map[string]string, error)
}
