package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"filestorage/internal/domain"
)

func TestCheckAccessRead(t *testing.T) {
	s := NewPermissionService()
	res := &domain.Resource{ID: 1, CreatedBy: 10, AllowedRoles: domain.Roles{domain.RoleDeveloper, domain.RoleTester}}

	dev := &domain.User{ID: 20, Roles: domain.Roles{domain.RoleDeveloper}}
	viewer := &domain.User{ID: 21, Roles: domain.Roles{domain.RoleViewer}}
	owner := &domain.User{ID: 22, Roles: domain.Roles{domain.RoleOwner}}

	for _, op := range []OperationType{OperationDownload, OperationPresign} {
		assert.NoError(t, s.CheckAccess(dev, res, op))
		assert.ErrorIs(t, s.CheckAccess(viewer, res, op), ErrAccessDenied)
		assert.ErrorIs(t, s.CheckAccess(owner, res, op), ErrAccessDenied, "owner gets no implicit read access")
	}
}

func TestCheckAccessEmptyAllowedRoles(t *testing.T) {
	s := NewPermissionService()
	res := &domain.Resource{ID: 1, CreatedBy: 10}
	everyone := &domain.User{ID: 10, Roles: domain.Roles{
		domain.RoleOwner, domain.RoleManager, domain.RoleDeveloper, domain.RoleDesigner,
		domain.RoleTester, domain.RoleAnalyst, domain.RoleViewer,
	}}

	err := s.CheckAccess(everyone, res, OperationDownload)
	assert.ErrorIs(t, err, ErrRolesNotConfigured)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestCheckAccessDelete(t *testing.T) {
	s := NewPermissionService()
	res := &domain.Resource{ID: 1, CreatedBy: 10, AllowedRoles: domain.Roles{domain.RoleViewer}}

	cases := []struct {
		name    string
		user    *domain.User
		allowed bool
	}{
		{"creator", &domain.User{ID: 10, Roles: domain.Roles{domain.RoleViewer}}, true},
		{"manager", &domain.User{ID: 11, Roles: domain.Roles{domain.RoleManager}}, true},
		{"owner", &domain.User{ID: 12, Roles: domain.Roles{domain.RoleOwner}}, true},
		{"developer", &domain.User{ID: 13, Roles: domain.Roles{domain.RoleDeveloper}}, false},
		{"no roles", &domain.User{ID: 14}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.CheckAccess(tc.user, res, OperationDelete)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrAccessDenied)
			}
		})
	}
}

func TestResolveAllowedRoles(t *testing.T) {
	s := NewPermissionService()
	caller := &domain.User{ID: 1, Roles: domain.Roles{domain.RoleDesigner}}

	assert.Equal(t, domain.Roles{domain.RoleDeveloper, domain.RoleTester},
		s.ResolveAllowedRoles([]string{"developer", "TESTER", "DEVELOPER", "wizard"}, caller))

	assert.Equal(t, domain.Roles{domain.RoleDesigner}, s.ResolveAllowedRoles(nil, caller))
	assert.Equal(t, domain.Roles{domain.RoleDesigner}, s.ResolveAllowedRoles([]string{"wizard", " "}, caller))
}
