package authorize

import (
	"regexp"
	"strings"
)

type Action string
type Resource string
type Role string
type Domain string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"

	// ActionManage implies every other action on the resource.
	ActionManage Action = "manage"

	// Appointment and session lifecycle
	ActionCancel   Action = "cancel"
	ActionActivate Action = "activate"

	ActionGrant  Action = "grant"
	ActionRevoke Action = "revoke"
)

const WildcardAction Action = "*"

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionList: {},
	ActionManage: {}, ActionCancel: {}, ActionActivate: {},
	ActionGrant: {}, ActionRevoke: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	ResourceCenter       Resource = "center"
	ResourceSession      Resource = "session"
	ResourcePatient      Resource = "patient"
	ResourceAppointment  Resource = "appointment"
	ResourcePrescription Resource = "prescription"

	ResourceSystem Resource = "system"
	ResourceAudit  Resource = "audit"
	ResourceRBAC   Resource = "rbac"
)

var KnownResources = map[Resource]struct{}{
	ResourceCenter: {}, ResourceSession: {}, ResourcePatient: {},
	ResourceAppointment: {}, ResourcePrescription: {},
	ResourceSystem: {}, ResourceAudit: {}, ResourceRBAC: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// Policy subjects assigned to users through grouping rows.

const (
	WildcardRole Role = "*"

	// domain = sys
	RoleSysSuperAdmin Role = "role:sys:superadmin"

	// domain = center:<uuid>
	RoleCenterAdmin        Role = "role:center:admin"
	RoleCenterDoctor       Role = "role:center:doctor"
	RoleCenterReceptionist Role = "role:center:receptionist"
)

var KnownRoles = map[Role]struct{}{
	RoleSysSuperAdmin:      {},
	RoleCenterAdmin:        {},
	RoleCenterDoctor:       {},
	RoleCenterReceptionist: {},
}

// IsCenterRole reports whether r is scoped to a single center.
func IsCenterRole(r Role) bool {
	return strings.HasPrefix(string(r), "role:center:")
}

// ----------------------------
// Domains
// ----------------------------

const (
	DomainSys      Domain = "sys"
	WildcardDomain Domain = "*"

	DomainPrefixCenter Domain = "center:"
)

var reUUID = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

func CenterDomain(centerID string) Domain {
	return DomainPrefixCenter + Domain(centerID)
}

// IsValidDomain checks whether d is sys, the wildcard or center:<uuid>.
func IsValidDomain(d Domain) bool {
	if d == DomainSys || d == WildcardDomain {
		return true
	}
	id, ok := strings.CutPrefix(string(d), string(DomainPrefixCenter))
	return ok && reUUID.MatchString(id)
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// GroupSubject is the g.sub in Casbin: a concrete principal id.
type GroupSubject string

// Grouping rows: g, user_id, role, domain
type GroupingPolicy struct {
	Subject GroupSubject
	Role    Role
	Domain  Domain
}

// Permission rows: p, role, domain, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
