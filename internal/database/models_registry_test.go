package database

import (
	"testing"

	"communityhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesContentTables(t *testing.T) {
	var sawPost, sawReaction, sawGrant bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.Post:
			sawPost = true
		case *models.PostReaction:
			sawReaction = true
		case *models.ServerGrant:
			sawGrant = true
		}
	}
	require.True(t, sawPost, "PersistentModels should include Post")
	require.True(t, sawReaction, "PersistentModels should include PostReaction")
	require.True(t, sawGrant, "PersistentModels should include ServerGrant")
}

func TestPersistentModels_UserFirst(t *testing.T) {
	list := PersistentModels()
	require.NotEmpty(t, list)
	_, ok := list[0].(*models.User)
	assert.True(t, ok, "users must be migrated before tables that reference them")
}
