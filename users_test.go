package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAdminCRUD(t *testing.T) {
	app, _ := newTestApp(t)
	admin := createUser(t, app, "root", "r@x.com", RoleAdmin)
	user := createUser(t, app, "plain", "p@x.com", RoleUser)
	adminToken := bearer(t, app, admin)

	// The user collection is admin-only.
	rec := doJSON(t, app, http.MethodGet, "/api/v1/users", "", nil)
	requireStatus(t, rec, http.StatusUnauthorized)
	rec = doJSON(t, app, http.MethodGet, "/api/v1/users", bearer(t, app, user), nil)
	requireStatus(t, rec, http.StatusForbidden)

	rec = doJSON(t, app, http.MethodGet, "/api/v1/users", adminToken, nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decodeBody[[]User](t, rec), 2)

	// Exact-match filter.
	rec = doJSON(t, app, http.MethodGet, "/api/v1/users?username=plain", adminToken, nil)
	requireStatus(t, rec, http.StatusOK)
	got := decodeBody[[]User](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "plain", got[0].Username)

	rec = doJSON(t, app, http.MethodGet, "/api/v1/users?username=pla", adminToken, nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Empty(t, decodeBody[[]User](t, rec))

	rec = doJSON(t, app, http.MethodGet, "/api/v1/users/plain", adminToken, nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, RoleUser, decodeBody[User](t, rec).Role)

	// Admin promotes a user.
	rec = doJSON(t, app, http.MethodPatch, "/api/v1/users/plain", adminToken,
		map[string]string{"role": RoleModerator})
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, RoleModerator, decodeBody[User](t, rec).Role)

	rec = doJSON(t, app, http.MethodPatch, "/api/v1/users/plain", adminToken,
		map[string]string{"role": "overlord"})
	requireFieldError(t, rec, "role")

	rec = doJSON(t, app, http.MethodDelete, "/api/v1/users/plain", adminToken, nil)
	requireStatus(t, rec, http.StatusNoContent)
	rec = doJSON(t, app, http.MethodGet, "/api/v1/users/plain", adminToken, nil)
	requireStatus(t, rec, http.StatusNotFound)
}

func TestUserAdminCreateWithCode(t *testing.T) {
	app, _ := newTestApp(t)
	admin := createUser(t, app, "root", "r@x.com", RoleAdmin)
	adminToken := bearer(t, app, admin)

	rec := doJSON(t, app, http.MethodPost, "/api/v1/users", adminToken,
		map[string]string{"username": "mod", "email": "m@x.com", "role": RoleModerator})
	requireStatus(t, rec, http.StatusCreated)
	created := decodeBody[struct {
		User
		ConfirmationCode string `json:"confirmation_code"`
	}](t, rec)
	assert.Equal(t, RoleModerator, created.Role)
	require.NotEmpty(t, created.ConfirmationCode)

	// The returned code works at the token endpoint.
	rec = doJSON(t, app, http.MethodPost, "/api/v1/auth/token", "",
		map[string]string{"username": "mod", "confirmation_code": created.ConfirmationCode})
	requireStatus(t, rec, http.StatusOK)

	rec = doJSON(t, app, http.MethodPost, "/api/v1/users", adminToken,
		map[string]string{"username": "me", "email": "me@x.com"})
	requireFieldError(t, rec, "username")

	rec = doJSON(t, app, http.MethodPost, "/api/v1/users", adminToken,
		map[string]string{"username": "mod", "email": "other@x.com"})
	requireFieldError(t, rec, "username")
}

func TestMeEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	user := createUser(t, app, "plain", "p@x.com", RoleUser)
	token := bearer(t, app, user)

	rec := doJSON(t, app, http.MethodGet, "/api/v1/users/me", token, nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "plain", decodeBody[User](t, rec).Username)

	// Bio updates apply, a role field is silently ignored.
	rec = doJSON(t, app, http.MethodPatch, "/api/v1/users/me", token,
		map[string]string{"bio": "hello", "role": RoleAdmin})
	requireStatus(t, rec, http.StatusOK)
	got := decodeBody[User](t, rec)
	assert.Equal(t, "hello", got.Bio)
	assert.Equal(t, RoleUser, got.Role)

	// Renaming to the reserved name is refused.
	rec = doJSON(t, app, http.MethodPatch, "/api/v1/users/me", token,
		map[string]string{"username": "me"})
	requireFieldError(t, rec, "username")
}

func TestUserDeleteCascadesContent(t *testing.T) {
	app, _ := newTestApp(t)
	admin := createUser(t, app, "root", "r@x.com", RoleAdmin)
	alice := createUser(t, app, "alice", "a@x.com", RoleUser)
	title := createTitle(t, app, "Dune", 2021)

	rec := postReview(t, app, bearer(t, app, alice), title.ID, "stunning", 8)
	requireStatus(t, rec, http.StatusCreated)

	rec = doJSON(t, app, http.MethodDelete, "/api/v1/users/alice", bearer(t, app, admin), nil)
	requireStatus(t, rec, http.StatusNoContent)

	reviews, err := dbListReviews(app.db, title.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
	require.Nil(t, titleRating(t, app, title.ID))
}
