package domain

// Role is the client-declared acting role of a session. Any string is a
// valid role; only RoleOwner and RoleConsumer are granted permissions.
type Role string

// Known roles.
const (
	RoleOwner    Role = "owner"
	RoleConsumer Role = "consumer"
)

// DefaultRole applies when a session has never declared a role.
const DefaultRole = RoleConsumer

// Action is an operation gated by role.
type Action string

// Actions exposed over HTTP.
const (
	ActionListBusinesses Action = "business.list"
	ActionShowBusiness   Action = "business.show"
	ActionCreateBusiness Action = "business.create"
	ActionUpdateBusiness Action = "business.update"
	ActionDeleteBusiness Action = "business.delete"
	ActionAddReview      Action = "review.add"
	ActionRemoveReview   Action = "review.remove"
)

// permissions lists the roles allowed per action. A nil entry means any role.
var permissions = map[Action][]Role{
	ActionListBusinesses: nil,
	ActionShowBusiness:   nil,
	ActionCreateBusiness: {RoleOwner},
	ActionUpdateBusiness: {RoleOwner},
	ActionDeleteBusiness: {RoleOwner},
	ActionAddReview:      {RoleConsumer},
	ActionRemoveReview:   {RoleOwner, RoleConsumer},
}

// Can reports whether r may perform a. Unknown actions are denied.
func (r Role) Can(a Action) bool {
	allowed, ok := permissions[a]
	if !ok {
		return false
	}
	if allowed == nil {
		return true
	}
	for _, role := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ResolveRole picks the effective role for a request. A non-empty explicit
// role wins and should be persisted to the session. Otherwise the stored
// session role is used, falling back to DefaultRole. Nothing is validated.
func ResolveRole(explicit, stored string) (role Role, persist bool) {
	if explicit != "" {
		return Role(explicit), true
	}
	if stored != "" {
		return Role(stored), false
	}
	return DefaultRole, false
}
