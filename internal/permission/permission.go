// Package permission is the single declaration of roles, role levels and
// the actions each role may perform. API middleware and the /api/me
// response both read from here.
package permission

import "sort"

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleDesigner   Role = "designer"
	RoleViewer     Role = "viewer"
)

type Permission string

const (
	RequestsRead    Permission = "requests:read"
	RequestsUpdate  Permission = "requests:update"
	RequestsArchive Permission = "requests:archive"
	CommitteesWrite Permission = "committees:write"
	UsersManage     Permission = "users:manage"
	CalendarAll     Permission = "calendar:all"
)

var all = []Permission{RequestsRead, RequestsUpdate, RequestsArchive, CommitteesWrite, UsersManage, CalendarAll}

var levels = map[Role]int{
	RoleSuperAdmin: 100,
	RoleAdmin:      80,
	RoleDesigner:   50,
	RoleViewer:     10,
}

var grants = map[Role][]Permission{
	RoleSuperAdmin: all,
	RoleAdmin:      {RequestsRead, RequestsUpdate, RequestsArchive, CommitteesWrite, UsersManage, CalendarAll},
	RoleDesigner:   {RequestsRead, RequestsUpdate, CalendarAll},
	RoleViewer:     {RequestsRead, CalendarAll},
}

func Valid(role string) bool {
	_, ok := levels[Role(role)]
	return ok
}

// Roles lists every role, most privileged first.
func Roles() []Role {
	out := make([]Role, 0, len(levels))
	for r := range levels {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return levels[out[i]] > levels[out[j]] })
	return out
}

// LevelOf returns 0 for unknown roles.
func LevelOf(role string) int { return levels[Role(role)] }

func Has(role string, p Permission) bool {
	for _, g := range grants[Role(role)] {
		if g == p {
			return true
		}
	}
	return false
}

func For(role string) []Permission {
	out := make([]Permission, len(grants[Role(role)]))
	copy(out, grants[Role(role)])
	return out
}

// CanManage reports whether an actor may create or modify a user holding target.
// Super admins manage everyone; others only strictly lower levels.
func CanManage(actor, target string) bool {
	if !Has(actor, UsersManage) || !Valid(target) {
		return false
	}
	if Role(actor) == RoleSuperAdmin {
		return true
	}
	return LevelOf(actor) > LevelOf(target)
}
