package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User management is admin-scoped except for /users/me, which any
// authenticated actor may use on their own record.

func (app *application) requireAdmin(r *http.Request) (*User, error) {
	actor, err := requireActor(r)
	if err != nil {
		return nil, err
	}
	if !isAdmin(actor) {
		return nil, ErrForbidden
	}
	return actor, nil
}

func (app *application) handleUserList(w http.ResponseWriter, r *http.Request) {
	if _, err := app.requireAdmin(r); err != nil {
		app.writeError(w, r, err)
		return
	}
	users, err := dbListUsers(app.db, r.URL.Query().Get("username"))
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if users == nil {
		users = []User{}
	}
	app.writeJSON(w, http.StatusOK, users)
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Role     string `json:"role" validate:"omitempty,oneof=user moderator admin"`
	Bio      string `json:"bio"`
}

// handleUserCreate lets an admin provision an account directly. A
// confirmation code is generated and returned once in the response instead
// of being mailed; the account can use it at the token endpoint.
func (app *application) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	if _, err := app.requireAdmin(r); err != nil {
		app.writeError(w, r, err)
		return
	}
	var req createUserRequest
	if err := app.decode(r, &req); err != nil {
		app.writeError(w, r, err)
		return
	}
	if strings.EqualFold(req.Username, reservedUsername) {
		app.writeError(w, r, fieldError("username", `username "me" is reserved`))
		return
	}
	if req.Role == "" {
		req.Role = RoleUser
	}

	code := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	u := &User{
		Username:         req.Username,
		Email:            req.Email,
		Role:             req.Role,
		Bio:              req.Bio,
		ConfirmationHash: string(hash),
	}
	if err := dbCreateUser(app.db, u); err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusCreated, struct {
		*User
		ConfirmationCode string `json:"confirmation_code"`
	}{u, code})
}

func (app *application) handleUserGet(w http.ResponseWriter, r *http.Request) {
	if _, err := app.requireAdmin(r); err != nil {
		app.writeError(w, r, err)
		return
	}
	u, err := dbGetUserByUsername(app.db, chi.URLParam(r, "username"))
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, u)
}

type updateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,max=150"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Role     *string `json:"role" validate:"omitempty,oneof=user moderator admin"`
	Bio      *string `json:"bio"`
}

func applyUserPatch(u *User, req updateUserRequest) error {
	if req.Username != nil {
		if strings.EqualFold(*req.Username, reservedUsername) {
			return fieldError("username", `username "me" is reserved`)
		}
		u.Username = *req.Username
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	return nil
}

func (app *application) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	if _, err := app.requireAdmin(r); err != nil {
		app.writeError(w, r, err)
		return
	}
	u, err := dbGetUserByUsername(app.db, chi.URLParam(r, "username"))
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	var req updateUserRequest
	if err := app.decode(r, &req); err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := applyUserPatch(u, req); err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := dbUpdateUser(app.db, u); err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, u)
}

func (app *application) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := app.requireAdmin(r); err != nil {
		app.writeError(w, r, err)
		return
	}
	u, err := dbGetUserByUsername(app.db, chi.URLParam(r, "username"))
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := dbDeleteUser(app.db, u.ID); err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusNoContent, nil)
}

// /users/me

func (app *application) handleMeGet(w http.ResponseWriter, r *http.Request) {
	actor, err := requireActor(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, actor)
}

// handleMeUpdate: role is read-only on the self-service endpoint, so a role
// field in the patch is ignored rather than applied.
func (app *application) handleMeUpdate(w http.ResponseWriter, r *http.Request) {
	actor, err := requireActor(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	var req updateUserRequest
	if err := app.decode(r, &req); err != nil {
		app.writeError(w, r, err)
		return
	}
	req.Role = nil
	if err := applyUserPatch(actor, req); err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := dbUpdateUser(app.db, actor); err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, actor)
}
