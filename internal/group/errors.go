package group

import "errors"

var (
	// ErrGroupNotFound indicates no group document exists for the given id.
	ErrGroupNotFound = errors.New("group not found")
	// ErrMemberNotFound indicates no membership document exists for the pair.
	ErrMemberNotFound = errors.New("member not found")
	// ErrRequestNotFound indicates no join request exists for the pair.
	ErrRequestNotFound = errors.New("join request not found")
	// ErrNameTaken indicates another group already uses the requested name.
	ErrNameTaken = errors.New("group name already taken")
	// ErrNotSoleMember indicates the cascade-delete precondition failed: the
	// caller is not the one remaining member of the group.
	ErrNotSoleMember = errors.New("caller is not the sole remaining member")
)
