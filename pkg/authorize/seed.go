package authorize

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultPolicies is the baseline permission set. Center policies use the
// wildcard domain; grouping rows bind users to one center.
func DefaultPolicies() []PermissionPolicy {
	return []PermissionPolicy{
		{RoleSysSuperAdmin, DomainSys, WildcardResource, WildcardAction, EffectAllow},

		{RoleCenterAdmin, WildcardDomain, ResourceCenter, ActionRead, EffectAllow},
		{RoleCenterAdmin, WildcardDomain, ResourceCenter, ActionUpdate, EffectAllow},
		{RoleCenterAdmin, WildcardDomain, ResourceSession, ActionManage, EffectAllow},
		{RoleCenterAdmin, WildcardDomain, ResourcePatient, ActionManage, EffectAllow},
		{RoleCenterAdmin, WildcardDomain, ResourceAppointment, ActionManage, EffectAllow},
		{RoleCenterAdmin, WildcardDomain, ResourcePrescription, ActionManage, EffectAllow},
		{RoleCenterAdmin, WildcardDomain, ResourceRBAC, ActionGrant, EffectAllow},
		{RoleCenterAdmin, WildcardDomain, ResourceRBAC, ActionRevoke, EffectAllow},

		{RoleCenterDoctor, WildcardDomain, ResourceCenter, ActionRead, EffectAllow},
		{RoleCenterDoctor, WildcardDomain, ResourceSession, ActionRead, EffectAllow},
		{RoleCenterDoctor, WildcardDomain, ResourceSession, ActionList, EffectAllow},
		{RoleCenterDoctor, WildcardDomain, ResourceSession, ActionActivate, EffectAllow},
		{RoleCenterDoctor, WildcardDomain, ResourcePatient, ActionRead, EffectAllow},
		{RoleCenterDoctor, WildcardDomain, ResourceAppointment, ActionRead, EffectAllow},
		{RoleCenterDoctor, WildcardDomain, ResourceAppointment, ActionList, EffectAllow},
		{RoleCenterDoctor, WildcardDomain, ResourceAppointment, ActionUpdate, EffectAllow},
		{RoleCenterDoctor, WildcardDomain, ResourcePrescription, ActionManage, EffectAllow},

		{RoleCenterReceptionist, WildcardDomain, ResourceCenter, ActionRead, EffectAllow},
		{RoleCenterReceptionist, WildcardDomain, ResourceSession, ActionRead, EffectAllow},
		{RoleCenterReceptionist, WildcardDomain, ResourceSession, ActionList, EffectAllow},
		{RoleCenterReceptionist, WildcardDomain, ResourcePatient, ActionManage, EffectAllow},
		{RoleCenterReceptionist, WildcardDomain, ResourceAppointment, ActionCreate, EffectAllow},
		{RoleCenterReceptionist, WildcardDomain, ResourceAppointment, ActionRead, EffectAllow},
		{RoleCenterReceptionist, WildcardDomain, ResourceAppointment, ActionList, EffectAllow},
		{RoleCenterReceptionist, WildcardDomain, ResourceAppointment, ActionCancel, EffectAllow},
		{RoleCenterReceptionist, WildcardDomain, ResourcePrescription, ActionRead, EffectAllow},
	}
}

// SeedDefaultPolicies installs DefaultPolicies. Existing rows are left alone.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	policies := DefaultPolicies()
	added := 0
	for _, p := range policies {
		ok, err := auth.AddPermission(ctx, p.Subject, p.Domain, p.Object, p.Action, p.Effect)
		if err != nil {
			return fmt.Errorf("seed policy %s %s %s: %w", p.Subject, p.Object, p.Action, err)
		}
		if ok {
			added++
		}
	}

	logger.Info("seeded default RBAC policies", "total", len(policies), "added", added)
	return nil
}

// AssignCenterRole binds userID to a center role. The creator of a center
// receives RoleCenterAdmin.
func AssignCenterRole(ctx context.Context, auth IAuthorization, userID, centerID string, role Role) error {
	if !IsCenterRole(role) {
		return fmt.Errorf("%w: %q is not a center role", ErrInvalidArgs, role)
	}
	_, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), role, CenterDomain(centerID))
	return err
}

func RemoveCenterRole(ctx context.Context, auth IAuthorization, userID, centerID string, role Role) error {
	_, err := auth.RemoveRoleForUserInDomain(ctx, GroupSubject(userID), role, CenterDomain(centerID))
	return err
}

func GetCenterRoles(ctx context.Context, auth IAuthorization, userID, centerID string) ([]Role, error) {
	return auth.GetRolesForUserInDomain(ctx, GroupSubject(userID), CenterDomain(centerID))
}

// AssignSystemRole grants a sys-domain role. Used by `system init` to
// bootstrap the first superadmin.
func AssignSystemRole(ctx context.Context, auth IAuthorization, userID string, role Role) error {
	if role != RoleSysSuperAdmin {
		return fmt.Errorf("%w: %q is not a system role", ErrInvalidArgs, role)
	}
	_, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), role, DomainSys)
	return err
}
