package main

// Action classifies a request the way HTTP safe methods do: reads never
// mutate, creates add objects, modifications touch an existing object.
type Action int

const (
	ActionRead Action = iota
	ActionCreate
	ActionModify
)

// Policy selects which access rule applies to the resource.
type Policy int

const (
	// PolicyCatalog: reads are public, every write needs an admin.
	PolicyCatalog Policy = iota
	// PolicyOwnerOrStaff: reads are public, creates need authentication,
	// modifications need the author or a moderator/admin.
	PolicyOwnerOrStaff
)

func isAdmin(u *User) bool {
	return u != nil && (u.Role == RoleAdmin || u.IsSuperuser)
}

func isModerator(u *User) bool {
	return u != nil && u.Role == RoleModerator
}

// authorize is the single access decision point. It is pure: no I/O, no side
// effects, so a denial can short-circuit before anything is mutated.
// actor is nil for unauthenticated requests; ownerID is consulted only for
// PolicyOwnerOrStaff modifications and is the target object's author.
func authorize(actor *User, action Action, policy Policy, ownerID int64) bool {
	if action == ActionRead {
		return true
	}

	switch policy {
	case PolicyCatalog:
		return isAdmin(actor)
	case PolicyOwnerOrStaff:
		if actor == nil {
			return false
		}
		if action == ActionCreate {
			return true
		}
		return actor.ID == ownerID || isModerator(actor) || isAdmin(actor)
	}
	return false
}
