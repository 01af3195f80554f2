package resource

import "slices"

type Operation string

const (
	OpList   Operation = "list"
	OpGet    Operation = "get"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Rule es la allow-list de una operación.
// Public acepta anónimos. Owner admite al dueño del registro sin importar el rol.
type Rule struct {
	Roles  []Role
	Owner  bool
	Public bool
}

// Policy: operación -> allow-list. Sin regla => denegado.
type Policy map[Operation]Rule

var (
	Staff    = []Role{RoleManager, RoleAdmin}
	Admins   = []Role{RoleAdmin}
	Everyone = []Role{RoleUser, RoleManager, RoleAdmin}
)

func (p Policy) Has(op Operation) bool {
	_, ok := p[op]
	return ok
}

// Authorize decide si actor puede ejecutar op sobre un registro de ownerID
// (0 si no hay dueño o la operación no es sobre un registro).
func (p Policy) Authorize(actor Actor, op Operation, ownerID int64) error {
	if actor.Role == RoleSystem {
		return nil
	}
	rule, ok := p[op]
	if !ok {
		return Forbiddenf("%s is not allowed", op)
	}
	if rule.Public {
		return nil
	}
	if !actor.Authenticated() {
		return Unauthenticated()
	}
	if rule.allows(actor, ownerID) {
		return nil
	}
	return Forbiddenf("role %s may not %s", actor.Role, op)
}

func (r Rule) allows(actor Actor, ownerID int64) bool {
	if slices.Contains(r.Roles, actor.Role) {
		return true
	}
	return r.Owner && ownerID != 0 && actor.ID == ownerID
}
