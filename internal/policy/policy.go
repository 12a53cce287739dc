// Package policy centralizes the permission matrix of the API.  Instead of
// scattering role-string comparisons across handlers, each (resource, action)
// pair maps to a declarative rule evaluated by a single Authorize function.
// Handlers resolve the row's owner and hand the decision over.
package policy

import (
	"errors"

	"github.com/jmforte/bonsai-registry/internal/auth"
)

// Resource names every row type the permission table covers.
type Resource string

const (
	Bonsai     Resource = "bonsai"
	Task       Resource = "task"
	WorkLog    Resource = "worklog"
	Technique  Resource = "technique"
	Provenance Resource = "provenance"
	Species    Resource = "species"
	Pot        Resource = "pot"
	Fertilizer Resource = "fertilizer"
	UserAdmin  Resource = "user-admin"
)

// Action is the kind of access being requested.
type Action string

const (
	Read   Action = "read"
	Write  Action = "write"  // create or update of domain data
	Delete Action = "delete"
	Admin  Action = "admin" // status/role management, stats
)

// ErrDenied is returned when the rule rejects the actor.  Handlers map it
// to 403.
var ErrDenied = errors.New("permission denied")

// Rule describes who may perform an action on a resource.  Owner grants the
// row's owner access, AdminAny grants admins access to any row (not just
// their own), and Moderator grants moderators access — unless
// NotAdminOwned is set and the row belongs to an admin user.
type Rule struct {
	Owner         bool
	AdminAny      bool
	Moderator     bool
	NotAdminOwned bool
}

// table is the whole permission matrix.  Writes never include moderators:
// they observe and clean up but do not author domain data.  Deletes extend to
// moderators except on rows owned by an admin.  Catalog resources
// (techniques, provenances) have no owner; their read rule is open to every
// authenticated role and ownership checks are skipped.
var table = map[Resource]map[Action]Rule{
	Bonsai: {
		Read:   {Owner: true, AdminAny: true, Moderator: true},
		Write:  {Owner: true},
		Delete: {Owner: true, AdminAny: true, Moderator: true, NotAdminOwned: true},
	},
	Task: {
		Read:   {Owner: true, AdminAny: true, Moderator: true},
		Write:  {Owner: true},
		Delete: {Owner: true, AdminAny: true, Moderator: true, NotAdminOwned: true},
	},
	WorkLog: {
		Read:   {Owner: true, AdminAny: true, Moderator: true},
		Write:  {Owner: true},
		Delete: {Owner: true, AdminAny: true, Moderator: true, NotAdminOwned: true},
	},
	Technique: {
		Read:   {Owner: true, AdminAny: true, Moderator: true},
		Write:  {Owner: true, AdminAny: true},
		Delete: {Owner: true, AdminAny: true},
	},
	Provenance: {
		Read:   {Owner: true, AdminAny: true, Moderator: true},
		Write:  {Owner: true, AdminAny: true},
		Delete: {AdminAny: true},
	},
	Species: {
		Read:   {Owner: true},
		Write:  {Owner: true},
		Delete: {Owner: true},
	},
	Pot: {
		Read:   {Owner: true},
		Write:  {Owner: true},
		Delete: {Owner: true, AdminAny: true, Moderator: true, NotAdminOwned: true},
	},
	Fertilizer: {
		Read:   {Owner: true},
		Write:  {Owner: true},
		Delete: {Owner: true},
	},
	UserAdmin: {
		Admin: {AdminAny: true},
	},
}

// Target carries the ownership facts of the row being accessed.  OwnerRole
// only matters for the moderator/admin-owned exception and may be left empty
// for unowned catalog rows.
type Target struct {
	OwnerID   uint64
	OwnerRole string
}

// Authorize evaluates the table for an actor against a target row.  It
// returns nil when access is granted and ErrDenied otherwise.  Unknown
// (resource, action) pairs are denied.
func Authorize(res Resource, act Action, actor auth.Identity, t Target) error {
	rule, ok := table[res][act]
	if !ok {
		return ErrDenied
	}
	switch actor.Role {
	case auth.RoleAdmin:
		if rule.AdminAny || (rule.Owner && actor.ID == t.OwnerID) {
			return nil
		}
	case auth.RoleModerator:
		if rule.Moderator {
			if rule.NotAdminOwned && t.OwnerRole == auth.RoleAdmin {
				return ErrDenied
			}
			return nil
		}
	case auth.RoleUser:
		if rule.Owner && actor.ID == t.OwnerID {
			return nil
		}
		// Unowned catalog rows are readable/writable by plain users when the
		// rule grants Owner access (techniques and provenances have no owner).
		if rule.Owner && t.OwnerID == 0 {
			return nil
		}
	}
	return ErrDenied
}
