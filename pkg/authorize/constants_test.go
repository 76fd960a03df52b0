package authorize

import "testing"

func TestIsValidDomain(t *testing.T) {
	tests := []struct {
		name     string
		domain   Domain
		expected bool
	}{
		{"sys domain", DomainSys, true},
		{"wildcard domain", WildcardDomain, true},
		{"center domain", CenterDomain("550e8400-e29b-41d4-a716-446655440000"), true},

		{"empty domain", Domain(""), false},
		{"random string", Domain("random"), false},
		{"center without uuid", Domain("center:"), false},
		{"center with business code", Domain("center:MC0001"), false},
		{"dashes only", Domain("center:------------------------------------"), false},
		{"old clinic prefix", Domain("clinic:550e8400-e29b-41d4-a716-446655440000"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidDomain(tt.domain); got != tt.expected {
				t.Errorf("IsValidDomain(%q) = %v, want %v", tt.domain, got, tt.expected)
			}
		})
	}
}

func TestCenterDomain(t *testing.T) {
	id := "550e8400-e29b-41d4-a716-446655440000"
	if got := CenterDomain(id); got != Domain("center:"+id) {
		t.Errorf("CenterDomain(%q) = %q", id, got)
	}
}

func TestIsCenterRole(t *testing.T) {
	for role := range KnownRoles {
		want := role != RoleSysSuperAdmin
		if got := IsCenterRole(role); got != want {
			t.Errorf("IsCenterRole(%q) = %v, want %v", role, got, want)
		}
	}
}

func TestDefaultPoliciesUseKnownTuples(t *testing.T) {
	for _, p := range DefaultPolicies() {
		if _, ok := KnownRoles[p.Subject]; !ok {
			t.Errorf("unknown role %q", p.Subject)
		}
		if _, ok := KnownResources[p.Object]; !ok && p.Object != WildcardResource {
			t.Errorf("unknown resource %q", p.Object)
		}
		if _, ok := KnownActions[p.Action]; !ok && p.Action != WildcardAction {
			t.Errorf("unknown action %q", p.Action)
		}
	}
}
