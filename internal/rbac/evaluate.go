package rbac

// Evaluate decides whether a session holding the given roles and permissions
// satisfies the required sets. It is pure and never fails: nil slices are
// treated as empty sets and every unhandled combination denies.
//
// Rules are applied in order, first match wins:
//  1. no roles held while roles are required: deny
//  2. RoleAdmin held: allow, permissions are not consulted
//  3. no roles held at all: deny, unless literally nothing is required
//  4. a required role is missing: deny
//  5. roles satisfied and no permissions required: allow
//  6. a required permission is missing: deny
//  7. roles and permissions both satisfied: allow
//  8. anything else: deny
func Evaluate(heldRoles, requiredRoles, heldPermissions, requiredPermissions []string) bool {
	if len(heldRoles) == 0 && len(requiredRoles) > 0 {
		return false
	}
	if contains(heldRoles, RoleAdmin) {
		return true
	}
	if len(heldRoles) == 0 {
		// Degenerate allow: an empty session passes only when neither
		// roles nor permissions are required.
		return len(requiredPermissions) == 0
	}
	if len(requiredRoles) > 0 && !containsAll(heldRoles, requiredRoles) {
		return false
	}
	if len(requiredPermissions) == 0 {
		return true
	}
	return containsAll(heldPermissions, requiredPermissions)
}

func contains(set []string, want string) bool {
	for _, v := range set {
		if v == want {
			return true
		}
	}
	return false
}

func containsAll(held, required []string) bool {
	if len(required) == 0 {
		return true
	}
	index := make(map[string]struct{}, len(held))
	for _, v := range held {
		index[v] = struct{}{}
	}
	for _, v := range required {
		if _, ok := index[v]; !ok {
			return false
		}
	}
	return true
}
