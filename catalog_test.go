package main

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryCRUD(t *testing.T) {
	app, _ := newTestApp(t)
	admin := createUser(t, app, "root", "r@x.com", RoleAdmin)
	user := createUser(t, app, "plain", "p@x.com", RoleUser)
	adminToken := bearer(t, app, admin)

	// Writes are admin-only; reads are open.
	rec := doJSON(t, app, http.MethodPost, "/api/v1/categories", "", map[string]string{"name": "Films"})
	requireStatus(t, rec, http.StatusUnauthorized)
	rec = doJSON(t, app, http.MethodPost, "/api/v1/categories", bearer(t, app, user), map[string]string{"name": "Films"})
	requireStatus(t, rec, http.StatusForbidden)

	rec = doJSON(t, app, http.MethodPost, "/api/v1/categories", adminToken,
		map[string]string{"name": "Films", "slug": "films"})
	requireStatus(t, rec, http.StatusCreated)
	c := decodeBody[Category](t, rec)
	assert.Equal(t, "films", c.Slug)

	// Duplicate slug rejected.
	rec = doJSON(t, app, http.MethodPost, "/api/v1/categories", adminToken,
		map[string]string{"name": "Movies", "slug": "films"})
	requireFieldError(t, rec, "slug")

	// Slug charset is enforced.
	rec = doJSON(t, app, http.MethodPost, "/api/v1/categories", adminToken,
		map[string]string{"name": "Books", "slug": "No Spaces!"})
	requireFieldError(t, rec, "slug")

	rec = doJSON(t, app, http.MethodGet, "/api/v1/categories", "", nil)
	requireStatus(t, rec, http.StatusOK)
	require.Len(t, decodeBody[[]Category](t, rec), 1)

	rec = doJSON(t, app, http.MethodDelete, "/api/v1/categories/films", adminToken, nil)
	requireStatus(t, rec, http.StatusNoContent)
	rec = doJSON(t, app, http.MethodDelete, "/api/v1/categories/films", adminToken, nil)
	requireStatus(t, rec, http.StatusNotFound)
}

func TestRefAutoSlug(t *testing.T) {
	app, _ := newTestApp(t)
	admin := createUser(t, app, "root", "r@x.com", RoleAdmin)
	token := bearer(t, app, admin)

	rec := doJSON(t, app, http.MethodPost, "/api/v1/genres", token, map[string]string{"name": "Space Opera"})
	requireStatus(t, rec, http.StatusCreated)
	assert.Equal(t, "space-opera", decodeBody[Category](t, rec).Slug)

	// Same name again: the generated slug gets a counter suffix.
	rec = doJSON(t, app, http.MethodPost, "/api/v1/genres", token, map[string]string{"name": "Space Opera"})
	requireStatus(t, rec, http.StatusCreated)
	assert.Equal(t, "space-opera-2", decodeBody[Category](t, rec).Slug)
}

func seedCatalog(t *testing.T, app *application, token string) {
	t.Helper()
	for _, body := range []map[string]string{
		{"name": "Films", "slug": "films"},
		{"name": "Books", "slug": "books"},
	} {
		rec := doJSON(t, app, http.MethodPost, "/api/v1/categories", token, body)
		requireStatus(t, rec, http.StatusCreated)
	}
	for _, body := range []map[string]string{
		{"name": "Sci-Fi", "slug": "sci-fi"},
		{"name": "Drama", "slug": "drama"},
	} {
		rec := doJSON(t, app, http.MethodPost, "/api/v1/genres", token, body)
		requireStatus(t, rec, http.StatusCreated)
	}
}

func TestTitleCreateAndFilters(t *testing.T) {
	app, _ := newTestApp(t)
	admin := createUser(t, app, "root", "r@x.com", RoleAdmin)
	token := bearer(t, app, admin)
	seedCatalog(t, app, token)

	rec := doJSON(t, app, http.MethodPost, "/api/v1/titles", token, map[string]any{
		"name": "Dune", "year": 2021, "category": "films", "genre": []string{"sci-fi", "drama"},
	})
	requireStatus(t, rec, http.StatusCreated)
	dune := decodeBody[Title](t, rec)
	require.NotNil(t, dune.Category)
	assert.Equal(t, "films", dune.Category.Slug)
	require.Len(t, dune.Genres, 2)
	assert.Nil(t, dune.Rating)

	rec = doJSON(t, app, http.MethodPost, "/api/v1/titles", token, map[string]any{
		"name": "Arrival", "year": 2016, "category": "films", "genre": []string{"sci-fi"},
	})
	requireStatus(t, rec, http.StatusCreated)
	rec = doJSON(t, app, http.MethodPost, "/api/v1/titles", token, map[string]any{
		"name": "Dune", "year": 1965, "category": "books",
	})
	requireStatus(t, rec, http.StatusCreated)

	list := func(query string) []Title {
		rec := doJSON(t, app, http.MethodGet, "/api/v1/titles"+query, "", nil)
		requireStatus(t, rec, http.StatusOK)
		return decodeBody[[]Title](t, rec)
	}

	assert.Len(t, list(""), 3)
	assert.Len(t, list("?name=dune"), 2)
	assert.Len(t, list("?year=2016"), 1)
	assert.Len(t, list("?category=books"), 1)
	assert.Len(t, list("?genre=sci-fi"), 2)
	assert.Len(t, list("?category=films&genre=drama"), 1)
	assert.Empty(t, list("?category=films&year=1965"))

	// Ordered by name.
	all := list("")
	assert.Equal(t, "Arrival", all[0].Name)

	rec = doJSON(t, app, http.MethodGet, "/api/v1/titles?year=soon", "", nil)
	requireFieldError(t, rec, "year")
}

func TestTitleYearValidation(t *testing.T) {
	app, _ := newTestApp(t)
	admin := createUser(t, app, "root", "r@x.com", RoleAdmin)
	token := bearer(t, app, admin)

	year := time.Now().Year()
	rec := doJSON(t, app, http.MethodPost, "/api/v1/titles", token,
		map[string]any{"name": "Next Year", "year": year + 1})
	requireFieldError(t, rec, "year")

	rec = doJSON(t, app, http.MethodPost, "/api/v1/titles", token,
		map[string]any{"name": "This Year", "year": year})
	requireStatus(t, rec, http.StatusCreated)
}

func TestTitleUnknownRefSlugs(t *testing.T) {
	app, _ := newTestApp(t)
	admin := createUser(t, app, "root", "r@x.com", RoleAdmin)
	token := bearer(t, app, admin)

	rec := doJSON(t, app, http.MethodPost, "/api/v1/titles", token,
		map[string]any{"name": "Dune", "year": 2021, "category": "nope"})
	requireFieldError(t, rec, "category")

	rec = doJSON(t, app, http.MethodPost, "/api/v1/titles", token,
		map[string]any{"name": "Dune", "year": 2021, "genre": []string{"nope"}})
	requireFieldError(t, rec, "genre")
}

func TestTitlePatch(t *testing.T) {
	app, _ := newTestApp(t)
	admin := createUser(t, app, "root", "r@x.com", RoleAdmin)
	token := bearer(t, app, admin)
	seedCatalog(t, app, token)

	rec := doJSON(t, app, http.MethodPost, "/api/v1/titles", token, map[string]any{
		"name": "Dune", "year": 2021, "category": "films", "genre": []string{"sci-fi", "drama"},
	})
	requireStatus(t, rec, http.StatusCreated)
	title := decodeBody[Title](t, rec)
	path := fmt.Sprintf("/api/v1/titles/%d", title.ID)

	// Partial update keeps the untouched fields.
	rec = doJSON(t, app, http.MethodPatch, path, token, map[string]any{"description": "remake"})
	requireStatus(t, rec, http.StatusOK)
	got := decodeBody[Title](t, rec)
	assert.Equal(t, "remake", got.Description)
	assert.Equal(t, "Dune", got.Name)
	require.NotNil(t, got.Category)
	assert.Len(t, got.Genres, 2)

	// An explicit empty genre list clears the set.
	rec = doJSON(t, app, http.MethodPatch, path, token, map[string]any{"genre": []string{}})
	requireStatus(t, rec, http.StatusOK)
	assert.Empty(t, decodeBody[Title](t, rec).Genres)

	rec = doJSON(t, app, http.MethodDelete, path, token, nil)
	requireStatus(t, rec, http.StatusNoContent)
	rec = doJSON(t, app, http.MethodGet, path, "", nil)
	requireStatus(t, rec, http.StatusNotFound)
}

func TestRefDeletionLeavesTitles(t *testing.T) {
	app, _ := newTestApp(t)
	admin := createUser(t, app, "root", "r@x.com", RoleAdmin)
	token := bearer(t, app, admin)
	seedCatalog(t, app, token)

	rec := doJSON(t, app, http.MethodPost, "/api/v1/titles", token, map[string]any{
		"name": "Dune", "year": 2021, "category": "films", "genre": []string{"sci-fi"},
	})
	requireStatus(t, rec, http.StatusCreated)
	title := decodeBody[Title](t, rec)
	path := fmt.Sprintf("/api/v1/titles/%d", title.ID)

	// Category deletion detaches, never deletes, the title.
	rec = doJSON(t, app, http.MethodDelete, "/api/v1/categories/films", token, nil)
	requireStatus(t, rec, http.StatusNoContent)
	rec = doJSON(t, app, http.MethodGet, path, "", nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Nil(t, decodeBody[Title](t, rec).Category)

	// Genre deletion drops the association only.
	rec = doJSON(t, app, http.MethodDelete, "/api/v1/genres/sci-fi", token, nil)
	requireStatus(t, rec, http.StatusNoContent)
	rec = doJSON(t, app, http.MethodGet, path, "", nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Empty(t, decodeBody[Title](t, rec).Genres)
}
