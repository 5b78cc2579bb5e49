package rbac

// Graph indexes the role catalog for permission ownership lookups. It is
// built once per catalog load and never mutated afterwards; a permission's
// owning role is immutable for the lifetime of the graph.
type Graph struct {
	roles       []Role
	byRoleID    map[int64]int
	ownerByPerm map[int64]int64
}

// NewGraph builds a Graph from the fetched catalog. A nil or empty catalog
// produces an empty graph, see Ready.
func NewGraph(roles []Role) *Graph {
	g := &Graph{
		roles:       roles,
		byRoleID:    make(map[int64]int, len(roles)),
		ownerByPerm: make(map[int64]int64),
	}
	for i, role := range roles {
		g.byRoleID[role.ID] = i
		for _, perm := range role.Permissions {
			g.ownerByPerm[perm.ID] = role.ID
		}
	}
	return g
}

// Ready reports whether the graph holds a loaded catalog. An empty graph is
// the degraded state after a failed catalog fetch: propagation becomes a
// no-op and callers must block submission until a successful reload.
func (g *Graph) Ready() bool {
	return g != nil && len(g.roles) > 0
}

// Roles returns the catalog in fetch order.
func (g *Graph) Roles() []Role {
	if g == nil {
		return nil
	}
	return g.roles
}

// PermissionsOf returns the permissions owned by the given role.
func (g *Graph) PermissionsOf(roleID int64) []Permission {
	if g == nil {
		return nil
	}
	i, ok := g.byRoleID[roleID]
	if !ok {
		return nil
	}
	return g.roles[i].Permissions
}

// RoleOwning returns the role that owns the given permission.
func (g *Graph) RoleOwning(permissionID int64) (Role, bool) {
	if g == nil {
		return Role{}, false
	}
	roleID, ok := g.ownerByPerm[permissionID]
	if !ok {
		return Role{}, false
	}
	return g.roles[g.byRoleID[roleID]], true
}

// RolesImpliedBy collects the distinct owning role ids for a set of
// permission ids. Unknown permission ids are ignored; roles without
// permissions are never implied.
func (g *Graph) RolesImpliedBy(permissionIDs map[int64]struct{}) map[int64]struct{} {
	implied := make(map[int64]struct{})
	if g == nil {
		return implied
	}
	for permID := range permissionIDs {
		if roleID, ok := g.ownerByPerm[permID]; ok {
			implied[roleID] = struct{}{}
		}
	}
	return implied
}
