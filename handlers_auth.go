package main

import "net/http"

type signupRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email,max=254"`
}

func (app *application) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := app.decode(r, &req); err != nil {
		app.writeError(w, r, err)
		return
	}
	if err := app.signup(r.Context(), req.Username, req.Email); err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, req)
}

type tokenRequest struct {
	Username         string `json:"username" validate:"required"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

func (app *application) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := app.decode(r, &req); err != nil {
		app.writeError(w, r, err)
		return
	}
	pair, err := app.issueTokens(req.Username, req.ConfirmationCode)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

func (app *application) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := app.decode(r, &req); err != nil {
		app.writeError(w, r, err)
		return
	}
	pair, err := app.refreshTokens(req.Refresh)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, pair)
}
