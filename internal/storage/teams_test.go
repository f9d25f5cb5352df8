package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaflow/casaflow/internal/common"
	"github.com/casaflow/casaflow/internal/model"
)

func TestTeamMemberReactivation(t *testing.T) {
	store, teamID := newTestStorage(t)
	ctx := context.Background()

	member := &model.TeamMember{TeamID: teamID, UserID: "bob", Role: model.RoleMember}
	require.NoError(t, store.AddMember(ctx, member))
	require.NoError(t, store.RemoveMember(ctx, teamID, "bob"))

	// Removing twice reports not found.
	err := store.RemoveMember(ctx, teamID, "bob")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Re-adding flips the same row back to active.
	require.NoError(t, store.AddMember(ctx, &model.TeamMember{
		TeamID: teamID, UserID: "bob", Role: model.RoleOwner,
	}))

	members, err := store.GetMembers(ctx, teamID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.True(t, members[0].IsActive)
	assert.Equal(t, model.RoleOwner, members[0].Role)
}
