package rbac_test

import (
	"errors"
	"testing"

	"go-leave/internal/domain"
	"go-leave/internal/rbac"
	"go-leave/internal/rbac/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) rbac.Service {
	t.Helper()

	enforcer, err := infra.NewEnforcer()
	require.NoError(t, err)

	svc, err := rbac.NewService(rbac.NewStaticPolicy(), enforcer)
	require.NoError(t, err)
	return svc
}

func TestRBACService_Enforce(t *testing.T) {
	svc := newService(t)

	tests := []struct {
		role     string
		resource string
		action   string
		want     bool
	}{
		{"employee", "leave", "create", true},
		{"employee", "leave", "approve", false},
		{"employee", "balance", "read_own", true},
		{"employee", "balance", "read_any", false},
		{"employee", "user", "read", false},
		{"manager", "leave", "approve", true},
		{"manager", "leave", "create", true},
		{"manager", "team", "read", true},
		{"manager", "user", "create", false},
		{"hr", "leave", "approve", true},
		{"hr", "team", "read", false},
		{"admin", "team", "read", true},
		{"admin", "leave", "approve", true},
		{"admin", "user", "create", true},
		{"ghost", "leave", "read", false},
	}

	for _, tt := range tests {
		t.Run(tt.role+" "+tt.resource+":"+tt.action, func(t *testing.T) {
			got, err := svc.Enforce(domain.EnforceRequest{Role: tt.role, Resource: tt.resource, Action: tt.action})
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRBACService_Permissions(t *testing.T) {
	svc := newService(t)

	perms, err := svc.Permissions("hr")
	require.NoError(t, err)
	assert.Contains(t, perms, "leave:approve")
	assert.Contains(t, perms, "leave:create")
	assert.NotContains(t, perms, "user:create")
}

type brokenPolicy struct{}

func (brokenPolicy) Grants() ([]rbac.Grant, error)             { return nil, errors.New("boom") }
func (brokenPolicy) Inheritances() ([]rbac.Inheritance, error) { return nil, nil }

func TestRBACService_LoadFailure(t *testing.T) {
	enforcer, err := infra.NewEnforcer()
	require.NoError(t, err)

	_, err = rbac.NewService(brokenPolicy{}, enforcer)
	assert.Error(t, err)
}
