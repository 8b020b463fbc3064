package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanManageRole_SystemRoleTable(t *testing.T) {
	tests := []struct {
		actor  string
		target string
		want   bool
	}{
		// org_admin manages everything, including itself
		{RoleOrgAdmin, RoleOrgAdmin, true},
		{RoleOrgAdmin, RoleAdmin, true},
		{RoleOrgAdmin, RoleTeamer, true},
		{RoleOrgAdmin, RoleKonfi, true},

		// admin may never touch org_admins or fellow admins (itself included)
		{RoleAdmin, RoleOrgAdmin, false},
		{RoleAdmin, RoleAdmin, false},
		{RoleAdmin, RoleTeamer, true},
		{RoleAdmin, RoleKonfi, true},

		// teamer only manages below teamer
		{RoleTeamer, RoleOrgAdmin, false},
		{RoleTeamer, RoleAdmin, false},
		{RoleTeamer, RoleTeamer, false},
		{RoleTeamer, RoleKonfi, true},

		// konfi manages nobody
		{RoleKonfi, RoleOrgAdmin, false},
		{RoleKonfi, RoleAdmin, false},
		{RoleKonfi, RoleTeamer, false},
		{RoleKonfi, RoleKonfi, false},
	}

	for _, tt := range tests {
		got := CanManageRole(tt.actor, tt.target)
		assert.Equalf(t, tt.want, got, "CanManageRole(%q, %q)", tt.actor, tt.target)
	}
}

func TestCanManageRole_UnknownRolesFallBackToLevels(t *testing.T) {
	// Unknown role names resolve to level 0, so custom roles sit below konfi.
	assert.True(t, CanManageRole(RoleKonfi, "mentor"))
	assert.False(t, CanManageRole("mentor", RoleKonfi))

	// Two custom roles can never manage each other: 0 > 0 is false. This is
	// the literal behavior to preserve, even for identical names.
	assert.False(t, CanManageRole("mentor", "mentor"))
	assert.False(t, CanManageRole("mentor", "helper"))
	assert.False(t, CanManageRole("helper", "mentor"))
}

func TestCanCreateRole_MatchesCanManageRole(t *testing.T) {
	names := []string{RoleOrgAdmin, RoleAdmin, RoleTeamer, RoleKonfi, "mentor", ""}
	for _, actor := range names {
		for _, target := range names {
			assert.Equalf(t, CanManageRole(actor, target), CanCreateRole(actor, target),
				"CanCreateRole(%q, %q) must equal CanManageRole", actor, target)
		}
	}
}

func TestCanManageRole_Pure(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.True(t, CanManageRole(RoleAdmin, RoleTeamer))
		assert.False(t, CanManageRole(RoleAdmin, RoleOrgAdmin))
	}
}

func TestLevel(t *testing.T) {
	assert.Equal(t, 4, Level(RoleOrgAdmin))
	assert.Equal(t, 3, Level(RoleAdmin))
	assert.Equal(t, 2, Level(RoleTeamer))
	assert.Equal(t, 1, Level(RoleKonfi))
	assert.Equal(t, 0, Level("anything_else"))
}

func TestIsSystemRole(t *testing.T) {
	assert.True(t, IsSystemRole(RoleOrgAdmin))
	assert.True(t, IsSystemRole(RoleKonfi))
	assert.False(t, IsSystemRole("mentor"))
}

type namedRow struct {
	name string
	role string
}

func (r namedRow) HierarchyRoleName() string { return r.role }

func TestFilterUsersByHierarchy(t *testing.T) {
	rows := []namedRow{
		{"anna", RoleOrgAdmin},
		{"ben", RoleAdmin},
		{"carla", RoleTeamer},
		{"dean", RoleKonfi},
	}

	got := FilterUsersByHierarchy(rows, RoleAdmin)
	assert.Len(t, got, 2)
	assert.Equal(t, "carla", got[0].name)
	assert.Equal(t, "dean", got[1].name)

	// input slice untouched
	assert.Len(t, rows, 4)

	assert.Len(t, FilterUsersByHierarchy(rows, RoleKonfi), 0)
	assert.Len(t, FilterUsersByHierarchy(rows, RoleOrgAdmin), 4)
}

func TestFilterRolesByHierarchy(t *testing.T) {
	roles := []namedRow{
		{"org_admin", RoleOrgAdmin},
		{"admin", RoleAdmin},
		{"teamer", RoleTeamer},
		{"konfi", RoleKonfi},
		{"mentor", "mentor"},
	}

	got := FilterRolesByHierarchy(roles, RoleTeamer)
	assert.Len(t, got, 2) // konfi and the level-0 custom role
	assert.Equal(t, "konfi", got[0].name)
	assert.Equal(t, "mentor", got[1].name)
}
