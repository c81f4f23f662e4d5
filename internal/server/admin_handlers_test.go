package server

import (
	"fmt"
	"net/http"
	"testing"

	"communityhub/internal/config"
	"communityhub/internal/models"
	"communityhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminToggleAdmin(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, func(u *models.User) { u.IsAdmin = true })
	owner := testutil.CreateUser(t, env.db, func(u *models.User) {
		u.Email = "owner@example.com"
		u.IsAdmin = true
	})
	member := testutil.CreateUser(t, env.db)
	token := env.tokenFor(t, admin)

	resp := env.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/toggle-admin", member.ID), nil, "", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	promoted := decodeBody[struct {
		Message string      `json:"message"`
		User    models.User `json:"user"`
	}](t, resp)
	assert.Equal(t, "User promoted to admin successfully", promoted.Message)
	assert.True(t, promoted.User.IsAdmin)

	resp = env.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/toggle-admin", member.ID), nil, "", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "User demoted from admin successfully", decodeBody[map[string]any](t, resp)["message"])

	resp = env.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/toggle-admin", owner.ID), nil, "", token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPatch, "/api/admin/users/9999/toggle-admin", nil, "", token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, func(u *models.User) { u.IsAdmin = true })
	owner := testutil.CreateUser(t, env.db, func(u *models.User) {
		u.Email = "owner@example.com"
		u.IsAdmin = true
	})
	member := testutil.CreateUser(t, env.db)
	testutil.CreatePost(t, env.db, member.ID)
	token := env.tokenFor(t, admin)

	resp := env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", admin.ID), nil, "", token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", owner.ID), nil, "", token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", member.ID), nil, "", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "User deleted successfully", decodeBody[map[string]string](t, resp)["message"])

	var posts int64
	require.NoError(t, env.db.Model(&models.Post{}).Where("user_id = ?", member.ID).Count(&posts).Error)
	assert.Zero(t, posts)
}

func TestAdminDeleteComment(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, func(u *models.User) { u.IsAdmin = true })
	member := testutil.CreateUser(t, env.db)
	post := testutil.CreatePost(t, env.db, member.ID)
	comment := &models.Comment{PostID: post.ID, UserID: member.ID, Content: "spam spam spam"}
	require.NoError(t, env.db.Create(comment).Error)

	resp := env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/comments/%d", comment.ID), nil, "", env.tokenFor(t, member))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/comments/%d", comment.ID), nil, "", env.tokenFor(t, admin))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/comments/%d", comment.ID), nil, "", env.tokenFor(t, admin))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminFeatureFlags(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.FeatureFlags = FlagRoomScopedFanout + "=true" })
	admin := testutil.CreateUser(t, env.db, func(u *models.User) { u.IsAdmin = true })

	assert.True(t, env.srv.Hub().RoomScoped())

	resp := env.do(t, http.MethodGet, "/api/admin/feature-flags", nil, "", env.tokenFor(t, admin))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[struct {
		Raw              map[string]string `json:"raw"`
		Evaluated        map[string]bool   `json:"evaluated"`
		RoomScopedFanout bool              `json:"roomScopedFanout"`
	}](t, resp)
	assert.Equal(t, "true", body.Raw[FlagRoomScopedFanout])
	assert.True(t, body.Evaluated[FlagRoomScopedFanout])
	assert.True(t, body.RoomScopedFanout)
}
