package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowedIsExplicitAllowList(t *testing.T) {
	// Curators review applications but hold none of the owner powers.
	require.True(t, Allowed(OpReviewApplications, RoleCurator))
	require.False(t, Allowed(OpChangeRole, RoleCurator))
	require.False(t, Allowed(OpBroadcast, RoleCurator))

	// The founder role carries no review authority despite its prestige.
	require.False(t, Allowed(OpReviewApplications, RoleFounder))

	require.False(t, Allowed(OpReviewApplications, RolePlayer))
	require.False(t, Allowed("unknown-op", RoleSiteOwner))
}

func TestCleanupRestrictedToSiteOwner(t *testing.T) {
	require.True(t, Allowed(OpCleanup, RoleSiteOwner))
	for _, role := range AllRoles {
		if role == RoleSiteOwner {
			continue
		}
		require.False(t, Allowed(OpCleanup, role), "role %s", role)
	}
}

func TestCanGrantRoles(t *testing.T) {
	require.True(t, CanGrantRoles(RoleSiteOwner))
	require.True(t, CanGrantRoles(RoleOwner))
	require.False(t, CanGrantRoles(RoleAdmin))
	require.False(t, CanGrantRoles(RoleCurator))
	require.False(t, CanGrantRoles(RolePlayer))
}

func TestValidators(t *testing.T) {
	require.True(t, ValidRole(RoleDesigner))
	require.False(t, ValidRole("Полубог"))
	require.True(t, ValidDecision(StatusAccepted))
	require.True(t, ValidDecision(StatusRejected))
	require.False(t, ValidDecision(StatusPending))
}
