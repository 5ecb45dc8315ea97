package group

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection names are external contract; other tooling queries them directly.
const (
	groupsCollection   = "groups"
	membersCollection  = "group_members"
	requestsCollection = "join_requests"
	eventsCollection   = "events"
	signupsCollection  = "event_signups"
)

// Firestore caps "in" filters; chunk id lookups accordingly.
const inQueryChunk = 30

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a new Firestore repository
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) groupRef(groupID string) *firestore.DocumentRef {
	return r.client.Collection(groupsCollection).Doc(groupID)
}

func (r *firestoreRepository) memberRef(groupID, userID string) *firestore.DocumentRef {
	return r.client.Collection(membersCollection).Doc(MemberDocID(groupID, userID))
}

func (r *firestoreRepository) requestRef(groupID, userID string) *firestore.DocumentRef {
	return r.client.Collection(requestsCollection).Doc(MemberDocID(groupID, userID))
}

func (r *firestoreRepository) CreateGroupWithAdmin(ctx context.Context, g Group, admin Member) error {
	groupRef := r.groupRef(g.ID)
	adminRef := r.memberRef(g.ID, admin.UserID)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(groupRef, groupData(g)); err != nil {
			return err
		}
		return tx.Set(adminRef, memberData(admin))
	})
}

func (r *firestoreRepository) GetGroup(ctx context.Context, groupID string) (*Group, error) {
	doc, err := r.groupRef(groupID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return snapshotToGroup(doc)
}

func (r *firestoreRepository) GroupNameExists(ctx context.Context, name string) (bool, error) {
	iter := r.client.Collection(groupsCollection).
		Where("name", "==", name).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *firestoreRepository) SearchGroupsByName(ctx context.Context, prefix string, limit int) ([]Group, error) {
	// Prefix match via the high-codepoint upper bound, same trick the web
	// client used against this collection.
	iter := r.client.Collection(groupsCollection).
		Where("name", ">=", prefix).
		Where("name", "<=", prefix+"").
		Limit(limit).
		Documents(ctx)
	return collectGroups(iter)
}

func (r *firestoreRepository) ListPublicGroups(ctx context.Context) ([]Group, error) {
	iter := r.client.Collection(groupsCollection).
		Where("privacy", "==", string(PrivacyPublic)).
		Documents(ctx)
	return collectGroups(iter)
}

func (r *firestoreRepository) ListGroupsByIDs(ctx context.Context, groupIDs []string) ([]Group, error) {
	groups := make([]Group, 0, len(groupIDs))
	for start := 0; start < len(groupIDs); start += inQueryChunk {
		end := start + inQueryChunk
		if end > len(groupIDs) {
			end = len(groupIDs)
		}
		iter := r.client.Collection(groupsCollection).
			Where(firestore.DocumentID, "in", groupIDs[start:end]).
			Documents(ctx)
		chunk, err := collectGroups(iter)
		if err != nil {
			return nil, err
		}
		groups = append(groups, chunk...)
	}
	return groups, nil
}

func (r *firestoreRepository) GetMember(ctx context.Context, groupID, userID string) (*Member, error) {
	doc, err := r.memberRef(groupID, userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}

	var m Member
	if err := doc.DataTo(&m); err != nil {
		return nil, fmt.Errorf("unmarshal member: %w", err)
	}
	return &m, nil
}

func (r *firestoreRepository) ListMembers(ctx context.Context, groupID string) ([]Member, error) {
	iter := r.client.Collection(membersCollection).
		Where("groupId", "==", groupID).
		Documents(ctx)
	return collectMembers(iter)
}

func (r *firestoreRepository) ListMembershipsByUser(ctx context.Context, userID string) ([]Member, error) {
	iter := r.client.Collection(membersCollection).
		Where("userId", "==", userID).
		Documents(ctx)
	return collectMembers(iter)
}

func (r *firestoreRepository) PutMember(ctx context.Context, m Member) error {
	_, err := r.memberRef(m.GroupID, m.UserID).Set(ctx, memberData(m))
	return err
}

func (r *firestoreRepository) SetMemberRole(ctx context.Context, groupID, userID string, role Role) error {
	_, err := r.memberRef(groupID, userID).Update(ctx, []firestore.Update{
		{Path: "role", Value: string(role)},
	})
	if status.Code(err) == codes.NotFound {
		return ErrMemberNotFound
	}
	return err
}

func (r *firestoreRepository) DeleteMember(ctx context.Context, groupID, userID string) error {
	_, err := r.memberRef(groupID, userID).Delete(ctx)
	return err
}

func (r *firestoreRepository) GetJoinRequest(ctx context.Context, groupID, userID string) (*JoinRequest, error) {
	doc, err := r.requestRef(groupID, userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}

	var req JoinRequest
	if err := doc.DataTo(&req); err != nil {
		return nil, fmt.Errorf("unmarshal join request: %w", err)
	}
	return &req, nil
}

func (r *firestoreRepository) ListJoinRequests(ctx context.Context, groupID string) ([]JoinRequest, error) {
	iter := r.client.Collection(requestsCollection).
		Where("groupId", "==", groupID).
		Documents(ctx)
	defer iter.Stop()

	requests := make([]JoinRequest, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var req JoinRequest
		if err := doc.DataTo(&req); err != nil {
			return nil, fmt.Errorf("unmarshal join request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func (r *firestoreRepository) PutJoinRequest(ctx context.Context, req JoinRequest) error {
	_, err := r.requestRef(req.GroupID, req.UserID).Set(ctx, map[string]any{
		"groupId":     req.GroupID,
		"userId":      req.UserID,
		"userName":    req.UserName,
		"requestedAt": req.RequestedAt,
	})
	return err
}

func (r *firestoreRepository) DeleteJoinRequest(ctx context.Context, groupID, userID string) error {
	_, err := r.requestRef(groupID, userID).Delete(ctx)
	return err
}

func (r *firestoreRepository) ApproveJoinRequest(ctx context.Context, m Member) error {
	memberRef := r.memberRef(m.GroupID, m.UserID)
	requestRef := r.requestRef(m.GroupID, m.UserID)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Set(memberRef, memberData(m)); err != nil {
			return err
		}
		// Deleting an already-consumed request is a no-op, so concurrent
		// approvals converge on a single membership.
		return tx.Delete(requestRef)
	})
}

func (r *firestoreRepository) LeaveAndPromote(ctx context.Context, groupID, leavingUserID, newAdminUserID string) error {
	leavingRef := r.memberRef(groupID, leavingUserID)
	newAdminRef := r.memberRef(groupID, newAdminUserID)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(newAdminRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrMemberNotFound
			}
			return err
		}
		if err := tx.Delete(leavingRef); err != nil {
			return err
		}
		return tx.Update(newAdminRef, []firestore.Update{
			{Path: "role", Value: string(RoleAdmin)},
		})
	})
}

// DeleteGroupCascade removes the group and everything that references it in
// one transaction. All reads happen before any write, per the transaction
// contract; the sole-member precondition is evaluated on the transactional
// snapshot so a racing join aborts the delete.
func (r *firestoreRepository) DeleteGroupCascade(ctx context.Context, groupID, callerID string) error {
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		memberDocs, err := tx.Documents(r.client.Collection(membersCollection).
			Where("groupId", "==", groupID)).GetAll()
		if err != nil {
			return err
		}

		if len(memberDocs) != 1 {
			return ErrNotSoleMember
		}
		var sole Member
		if err := memberDocs[0].DataTo(&sole); err != nil {
			return fmt.Errorf("unmarshal member: %w", err)
		}
		if sole.UserID != callerID {
			return ErrNotSoleMember
		}

		requestDocs, err := tx.Documents(r.client.Collection(requestsCollection).
			Where("groupId", "==", groupID)).GetAll()
		if err != nil {
			return err
		}

		eventDocs, err := tx.Documents(r.client.Collection(eventsCollection).
			Where("groupId", "==", groupID)).GetAll()
		if err != nil {
			return err
		}

		var signupDocs []*firestore.DocumentSnapshot
		for _, eventDoc := range eventDocs {
			docs, err := tx.Documents(r.client.Collection(signupsCollection).
				Where("eventId", "==", eventDoc.Ref.ID)).GetAll()
			if err != nil {
				return err
			}
			signupDocs = append(signupDocs, docs...)
		}

		if err := tx.Delete(r.groupRef(groupID)); err != nil {
			return err
		}
		if err := tx.Delete(memberDocs[0].Ref); err != nil {
			return err
		}
		for _, doc := range requestDocs {
			if err := tx.Delete(doc.Ref); err != nil {
				return err
			}
		}
		for _, doc := range eventDocs {
			if err := tx.Delete(doc.Ref); err != nil {
				return err
			}
		}
		for _, doc := range signupDocs {
			if err := tx.Delete(doc.Ref); err != nil {
				return err
			}
		}
		return nil
	})
}

func groupData(g Group) map[string]any {
	return map[string]any{
		"name":        g.Name,
		"description": g.Description,
		"privacy":     string(g.Privacy),
		"creatorId":   g.CreatorID,
		"createdAt":   g.CreatedAt,
	}
}

func memberData(m Member) map[string]any {
	data := map[string]any{
		"groupId":  m.GroupID,
		"userId":   m.UserID,
		"userName": m.UserName,
		"role":     string(m.Role),
		"joinedAt": m.JoinedAt,
	}
	if m.UserEmail != "" {
		data["userEmail"] = m.UserEmail
	}
	return data
}

func snapshotToGroup(doc *firestore.DocumentSnapshot) (*Group, error) {
	var g Group
	if err := doc.DataTo(&g); err != nil {
		return nil, fmt.Errorf("unmarshal group: %w", err)
	}
	g.ID = doc.Ref.ID
	return &g, nil
}

func collectGroups(iter *firestore.DocumentIterator) ([]Group, error) {
	defer iter.Stop()

	groups := make([]Group, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		g, err := snapshotToGroup(doc)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, nil
}

func collectMembers(iter *firestore.DocumentIterator) ([]Member, error) {
	defer iter.Stop()

	members := make([]Member, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var m Member
		if err := doc.DataTo(&m); err != nil {
			return nil, fmt.Errorf("unmarshal member: %w", err)
		}
		members = append(members, m)
	}
	return members, nil
}
