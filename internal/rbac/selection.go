package rbac

import "sort"

// Selection is the working checkbox state of one permission-editing session.
// It tracks the selected role and permission ids as true sets and enforces
// the propagation invariant: checking a permission implies its owning role
// becomes checked. Propagation is one-directional on purpose — unchecking a
// role leaves its permissions selected, and unchecking a permission leaves
// the implied role selected. That asymmetry is observed product behaviour
// and is pinned by tests rather than corrected here.
type Selection struct {
	graph         *Graph
	roleIDs       map[int64]struct{}
	permissionIDs map[int64]struct{}
}

// NewSelection creates an empty selection over the given graph.
func NewSelection(graph *Graph) *Selection {
	return &Selection{
		graph:         graph,
		roleIDs:       make(map[int64]struct{}),
		permissionIDs: make(map[int64]struct{}),
	}
}

// Reset replaces both sets wholesale, used when loading a user's current
// assignment. Duplicate ids collapse into the set.
func (s *Selection) Reset(roleIDs, permissionIDs []int64) {
	s.roleIDs = make(map[int64]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		s.roleIDs[id] = struct{}{}
	}
	s.permissionIDs = make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		s.permissionIDs[id] = struct{}{}
	}
}

// ToggleRole flips a role id in or out of the selection. It never cascades
// to the role's permissions.
func (s *Selection) ToggleRole(roleID int64) {
	if _, ok := s.roleIDs[roleID]; ok {
		delete(s.roleIDs, roleID)
		return
	}
	s.roleIDs[roleID] = struct{}{}
}

// TogglePermission flips a permission id, then re-derives the roles implied
// by every currently selected permission and inserts any that are missing.
// With an unloaded graph the toggle still applies but implies nothing.
func (s *Selection) TogglePermission(permissionID int64) {
	if _, ok := s.permissionIDs[permissionID]; ok {
		delete(s.permissionIDs, permissionID)
	} else {
		s.permissionIDs[permissionID] = struct{}{}
	}
	for roleID := range s.graph.RolesImpliedBy(s.permissionIDs) {
		if _, ok := s.roleIDs[roleID]; !ok {
			s.roleIDs[roleID] = struct{}{}
		}
	}
}

// HasRole reports whether the role id is selected.
func (s *Selection) HasRole(roleID int64) bool {
	_, ok := s.roleIDs[roleID]
	return ok
}

// HasPermission reports whether the permission id is selected.
func (s *Selection) HasPermission(permissionID int64) bool {
	_, ok := s.permissionIDs[permissionID]
	return ok
}

// RoleIDs returns the selected role ids in ascending order.
func (s *Selection) RoleIDs() []int64 {
	return sortedIDs(s.roleIDs)
}

// PermissionIDs returns the selected permission ids in ascending order.
func (s *Selection) PermissionIDs() []int64 {
	return sortedIDs(s.permissionIDs)
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
